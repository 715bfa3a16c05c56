package model

import (
	"time"

	"billing-service/internal/domain"
)

// CreditUsage tracks consumed vs. allotted usage units for one user over a
// billing period. One-time purchases top up TotalCredits and extend the period;
// subscription renewals reset the record to a fresh period with zero usage.
type CreditUsage struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	UsedCredits  int64     `json:"used_credits"`
	TotalCredits int64     `json:"total_credits"`
	PeriodStart  time.Time `json:"period_start"`
	PeriodEnd    time.Time `json:"period_end"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func NewCreditUsage(id, userID string, total int64, start, end time.Time) (*CreditUsage, error) {
	if id == "" || userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &CreditUsage{
		ID:           id,
		UserID:       userID,
		UsedCredits:  0,
		TotalCredits: total,
		PeriodStart:  start,
		PeriodEnd:    end,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (c *CreditUsage) Remaining() int64 {
	if c.TotalCredits < c.UsedCredits {
		return 0
	}
	return c.TotalCredits - c.UsedCredits
}
