//go:build !integration

package postgres

import (
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"

	"billing-service/internal/domain"
)

func TestMapWriteError(t *testing.T) {
	t.Run("unique violation", func(t *testing.T) {
		err := mapWriteError(&pgconn.PgError{Code: "23505"})
		if !errors.Is(err, domain.ErrAlreadyExists) {
			t.Fatalf("want ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("executor sentinels pass through", func(t *testing.T) {
		for _, sentinel := range []error{domain.ErrInvalidArgument, domain.ErrInvalidExecContext} {
			if err := mapWriteError(sentinel); err != sentinel {
				t.Fatalf("want %v unchanged, got %v", sentinel, err)
			}
		}
	})

	t.Run("driver cause stays wrapped", func(t *testing.T) {
		cause := errors.New("connection reset by peer")
		err := mapWriteError(cause)
		if !errors.Is(err, domain.ErrOperationFailed) {
			t.Fatalf("want ErrOperationFailed, got %v", err)
		}
		if !errors.Is(err, cause) {
			t.Fatalf("cause must stay inspectable, got %v", err)
		}
		if !strings.Contains(err.Error(), "connection reset by peer") {
			t.Fatalf("cause must stay in the message, got %q", err.Error())
		}
	})
}

func TestMapScanError(t *testing.T) {
	if err := mapScanError(pgx.ErrNoRows); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}

	cause := errors.New("cannot scan null into int64")
	err := mapScanError(cause)
	if !errors.Is(err, domain.ErrReadDatabaseRow) {
		t.Fatalf("want ErrReadDatabaseRow, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("cause must stay inspectable, got %v", err)
	}
}
