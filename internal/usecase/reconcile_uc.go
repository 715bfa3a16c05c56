// File: internal/usecase/reconcile_uc.go
package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"billing-service/internal/domain"
	"billing-service/internal/domain/model"
	"billing-service/internal/domain/ports/repository"
	"billing-service/internal/infra/metrics"
)

// Default substitutions for absent metadata fields.
const (
	defaultOneTimeCredits      = 100
	defaultSubscriptionCredits = 1000
	defaultPlanID              = 1
	defaultInterval            = "month"
)

const userLockTTL = 10 * time.Second

// Compile-time check
var _ ReconcileUseCase = (*reconcileUC)(nil)

// ReconcileUseCase maps one provider lifecycle event to local billing state
// mutations. Unrecognized events are acknowledged without any store mutation;
// any collaborator error aborts remaining processing for the event.
type ReconcileUseCase interface {
	HandleEvent(ctx context.Context, evt *model.WebhookEvent) error
}

// EventDeduper claims webhook event ids so redeliveries become no-ops.
// A claim is released again when processing fails, so the provider's retry
// gets another chance.
type EventDeduper interface {
	Claim(ctx context.Context, eventID string) (bool, error)
	Release(ctx context.Context, eventID string) error
}

// UserLocker serializes the read-modify-write on one user's billing records
// across concurrently delivered events.
type UserLocker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

type reconcileUC struct {
	subs     repository.SubscriptionRepository
	credits  repository.CreditUsageRepository
	payments repository.PaymentHistoryRepository
	txm      repository.TransactionManager // nil runs writes outside a transaction
	deduper  EventDeduper                  // nil disables idempotency checks
	locker   UserLocker                    // nil disables per-user locking
	log      *zerolog.Logger
}

func NewReconcileUseCase(
	subs repository.SubscriptionRepository,
	credits repository.CreditUsageRepository,
	payments repository.PaymentHistoryRepository,
	txm repository.TransactionManager,
	deduper EventDeduper,
	locker UserLocker,
	logger *zerolog.Logger,
) *reconcileUC {
	return &reconcileUC{
		subs:     subs,
		credits:  credits,
		payments: payments,
		txm:      txm,
		deduper:  deduper,
		locker:   locker,
		log:      logger,
	}
}

// withTx groups the writes for one event into a single transaction when a
// transaction manager is wired.
func (uc *reconcileUC) withTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	if uc.txm == nil {
		return fn(ctx, repository.NoTX)
	}
	return uc.txm.WithTx(ctx, pgx.TxOptions{}, fn)
}

func (uc *reconcileUC) HandleEvent(ctx context.Context, evt *model.WebhookEvent) error {
	if evt == nil {
		return fmt.Errorf("%w: nil event", domain.ErrMalformedEvent)
	}
	if evt.Object.Product == nil {
		return fmt.Errorf("%w: event %q has no product", domain.ErrMalformedEvent, evt.ID)
	}

	// Best-effort idempotency: a lost claim only means a redelivery is
	// processed twice, which matches the baseline at-most-one-per-delivery
	// semantics. A failed event releases its claim for the provider's retry.
	if uc.deduper != nil && evt.ID != "" {
		first, err := uc.deduper.Claim(ctx, evt.ID)
		if err != nil {
			uc.log.Warn().Err(err).Str("event_id", evt.ID).Msg("event dedup unavailable, processing anyway")
		} else if !first {
			uc.log.Info().Str("event_id", evt.ID).Str("event_type", evt.EventType).Msg("duplicate event ignored")
			metrics.IncWebhookEvent(evt.EventType, "duplicate")
			return nil
		}
	}

	err := uc.dispatch(ctx, evt)
	if err != nil {
		metrics.IncWebhookEvent(evt.EventType, "failed")
		if uc.deduper != nil && evt.ID != "" {
			if rerr := uc.deduper.Release(ctx, evt.ID); rerr != nil {
				uc.log.Warn().Err(rerr).Str("event_id", evt.ID).Msg("failed to release event claim")
			}
		}
	}
	return err
}

func (uc *reconcileUC) dispatch(ctx context.Context, evt *model.WebhookEvent) error {
	if evt.Object.Product.BillingType != model.BillingTypeRecurring {
		if evt.EventType != model.EventCheckoutCompleted {
			uc.log.Debug().Str("event_type", evt.EventType).Msg("ignoring non-checkout event for one-time product")
			metrics.IncWebhookEvent(evt.EventType, "ignored")
			return nil
		}
		return uc.handleOneTimeCheckout(ctx, evt)
	}

	switch evt.EventType {
	case model.EventSubscriptionPaid:
		return uc.handleSubscriptionPaid(ctx, evt)
	case model.EventSubscriptionCanceled:
		return uc.setSubscriptionStatus(ctx, evt, model.SubscriptionStatusCancelled)
	case model.EventSubscriptionExpired:
		return uc.setSubscriptionStatus(ctx, evt, model.SubscriptionStatusExpired)
	default:
		uc.log.Debug().Str("event_type", evt.EventType).Msg("ignoring unhandled subscription event")
		metrics.IncWebhookEvent(evt.EventType, "ignored")
		return nil
	}
}

// handleOneTimeCheckout credits a one-time purchase: additive top-up of the
// user's allotment with a monotonic-non-decreasing period extension, plus a
// new payment history row. The user id comes from the request correlation id,
// not from metadata (unlike the subscription path).
func (uc *reconcileUC) handleOneTimeCheckout(ctx context.Context, evt *model.WebhookEvent) error {
	userID := evt.Object.RequestID
	if userID == "" {
		return fmt.Errorf("%w: checkout event %q has no request_id", domain.ErrMalformedEvent, evt.ID)
	}

	unlock := uc.lockUser(ctx, userID)
	defer unlock()

	now := time.Now()
	credits := evt.Object.Metadata.Int64Or("credit", defaultOneTimeCredits)
	periodEnd := now.AddDate(0, 1, 0)

	err := uc.withTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		existing, err := uc.credits.FindByUser(ctx, tx, userID)
		switch {
		case err == nil:
			// Keep the later period end; a top-up never shortens the period.
			if existing.PeriodEnd.After(periodEnd) {
				periodEnd = existing.PeriodEnd
			}
			existing.TotalCredits += credits
			existing.PeriodEnd = periodEnd
			existing.UpdatedAt = now
			if err := uc.credits.Update(ctx, tx, existing); err != nil {
				return fmt.Errorf("update credit usage for user %s: %w", userID, err)
			}
		case err == domain.ErrNotFound:
			usage, err := model.NewCreditUsage(uuid.NewString(), userID, credits, now, periodEnd)
			if err != nil {
				return err
			}
			if err := uc.credits.Save(ctx, tx, usage); err != nil {
				return fmt.Errorf("create credit usage for user %s: %w", userID, err)
			}
		default:
			return fmt.Errorf("find credit usage for user %s: %w", userID, err)
		}

		payment := &model.PaymentHistory{
			ID:                ulid.Make().String(),
			UserID:            userID,
			PlanID:            evt.Object.Metadata.Int64Or("planId", defaultPlanID),
			Amount:            evt.Object.Metadata.Int64Or("price", 0),
			Currency:          "USD",
			Interval:          evt.Object.Metadata.StringOr("interval", defaultInterval),
			Status:            model.PaymentStatusCompleted,
			ProviderPaymentID: evt.Object.ID,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := uc.payments.Save(ctx, tx, payment); err != nil {
			return fmt.Errorf("record payment for user %s: %w", userID, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	uc.log.Info().
		Str("event_id", evt.ID).
		Str("user_id", userID).
		Int64("credits", credits).
		Time("period_end", periodEnd).
		Msg("one-time checkout reconciled")
	metrics.IncWebhookEvent(evt.EventType, "processed")
	metrics.AddCreditsGranted("one_time", credits)
	return nil
}

// handleSubscriptionPaid applies a renewal: the subscription record is
// overwritten last-write-wins with a period anchored at now, and the credit
// record is reset to zero usage with a fresh allotment. Renewal always resets,
// never tops up.
func (uc *reconcileUC) handleSubscriptionPaid(ctx context.Context, evt *model.WebhookEvent) error {
	userID, ok := evt.Object.Metadata.String("userId")
	if !ok {
		return fmt.Errorf("%w: subscription.paid event %q has no metadata.userId", domain.ErrMalformedEvent, evt.ID)
	}

	unlock := uc.lockUser(ctx, userID)
	defer unlock()

	now := time.Now()
	interval := evt.Object.Metadata.StringOr("interval", defaultInterval)
	periodEnd := now.AddDate(0, 1, 0)
	if interval == "year" {
		periodEnd = now.AddDate(1, 0, 0)
	}
	planID := evt.Object.Metadata.Int64Or("planId", defaultPlanID)
	credits := evt.Object.Metadata.Int64Or("credit", defaultSubscriptionCredits)

	err := uc.withTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		existing, err := uc.subs.FindByUser(ctx, tx, userID)
		if err != nil {
			return fmt.Errorf("find subscriptions for user %s: %w", userID, err)
		}

		var sub *model.UserSubscription
		if len(existing) == 0 {
			sub, err = model.NewUserSubscription(uuid.NewString(), userID, planID, now, periodEnd)
			if err != nil {
				return err
			}
		} else {
			sub = existing[0]
			sub.PlanID = planID
			sub.Status = model.SubscriptionStatusActive
			sub.CurrentPeriodStart = now
			sub.CurrentPeriodEnd = periodEnd
			sub.UpdatedAt = now
		}
		sub.ProviderSubscriptionID = evt.Object.ID
		sub.ProviderCustomerID = evt.Object.Customer.ID
		if err := uc.subs.Save(ctx, tx, sub); err != nil {
			return fmt.Errorf("save subscription for user %s: %w", userID, err)
		}

		usage, err := uc.credits.FindByUser(ctx, tx, userID)
		switch {
		case err == nil:
			usage.UsedCredits = 0
			usage.TotalCredits = credits
			usage.PeriodStart = now
			usage.PeriodEnd = periodEnd
			usage.UpdatedAt = now
			if err := uc.credits.Update(ctx, tx, usage); err != nil {
				return fmt.Errorf("reset credit usage for user %s: %w", userID, err)
			}
		case err == domain.ErrNotFound:
			fresh, err := model.NewCreditUsage(uuid.NewString(), userID, credits, now, periodEnd)
			if err != nil {
				return err
			}
			if err := uc.credits.Save(ctx, tx, fresh); err != nil {
				return fmt.Errorf("create credit usage for user %s: %w", userID, err)
			}
		default:
			return fmt.Errorf("find credit usage for user %s: %w", userID, err)
		}

		// Subscription payment rows are updated, not created: the row is keyed
		// by the provider subscription id and a missing row is a no-op.
		payment := &model.PaymentHistory{
			UserID:                 userID,
			PlanID:                 planID,
			Amount:                 evt.Object.Metadata.Int64Or("price", 0),
			Currency:               "USD",
			Interval:               interval,
			Status:                 model.PaymentStatusCompleted,
			ProviderSubscriptionID: evt.Object.ID,
			UpdatedAt:              now,
		}
		if err := uc.payments.UpdateByProviderSubscriptionID(ctx, tx, payment); err != nil {
			return fmt.Errorf("update payment history for subscription %s: %w", evt.Object.ID, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	uc.log.Info().
		Str("event_id", evt.ID).
		Str("user_id", userID).
		Int64("plan_id", planID).
		Str("interval", interval).
		Time("period_end", periodEnd).
		Msg("subscription renewal reconciled")
	metrics.IncWebhookEvent(evt.EventType, "processed")
	metrics.AddCreditsGranted("subscription", credits)
	return nil
}

// setSubscriptionStatus applies a status-only transition keyed by the provider
// subscription id. Period and credit records are untouched: cancellation takes
// effect at period end by convention.
func (uc *reconcileUC) setSubscriptionStatus(ctx context.Context, evt *model.WebhookEvent, status model.SubscriptionStatus) error {
	if evt.Object.ID == "" {
		return fmt.Errorf("%w: %s event %q has no subscription id", domain.ErrMalformedEvent, evt.EventType, evt.ID)
	}
	if err := uc.subs.UpdateStatusByProviderSubscriptionID(ctx, repository.NoTX, evt.Object.ID, status); err != nil {
		return fmt.Errorf("set subscription %s status to %s: %w", evt.Object.ID, status, err)
	}
	uc.log.Info().
		Str("event_id", evt.ID).
		Str("provider_subscription_id", evt.Object.ID).
		Str("status", string(status)).
		Msg("subscription status updated")
	metrics.IncWebhookEvent(evt.EventType, "processed")
	return nil
}

// lockUser takes a best-effort per-user lock and returns its release func.
// Lock failures are logged and processing continues: the baseline semantics
// make no cross-event ordering guarantee.
func (uc *reconcileUC) lockUser(ctx context.Context, userID string) func() {
	if uc.locker == nil {
		return func() {}
	}
	key := "billing:lock:user:" + userID
	token, err := uc.locker.TryLock(ctx, key, userLockTTL)
	if err != nil {
		uc.log.Warn().Err(err).Str("user_id", userID).Msg("could not acquire user lock, proceeding unlocked")
		return func() {}
	}
	return func() {
		if err := uc.locker.Unlock(ctx, key, token); err != nil {
			uc.log.Warn().Err(err).Str("user_id", userID).Msg("failed to release user lock")
		}
	}
}
