package draft

import (
	"context"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/johnquangdev/meeting-followup/errors"
	"github.com/johnquangdev/meeting-followup/internal/domain/entities"
)

// UsageCounter tracks per-account monthly draft generation counts. Backed
// by Redis in production; keyed by account and calendar month so quotas
// reset naturally.
type UsageCounter interface {
	// GetUsage returns the count for an account in a month key ("2026-08")
	GetUsage(ctx context.Context, accountID, month string) (int, error)

	// IncrementUsage adds one to the count and returns the new value
	IncrementUsage(ctx context.Context, accountID, month string) (int, error)
}

// QuotaStatus is the result of a quota check
type QuotaStatus struct {
	Allowed bool `json:"allowed"`
	Used    int  `json:"used"`
	Limit   int  `json:"limit"`
}

// QuotaService enforces the free-tier monthly generation cap. Paid tiers
// are unlimited. Checked before the generation call so a blocked account
// never costs an external request.
type QuotaService struct {
	counter   UsageCounter
	freeLimit int
	logger    *zap.Logger
	now       func() time.Time
}

// NewQuotaService constructs a quota service with the free-tier cap
func NewQuotaService(counter UsageCounter, freeLimit int, logger *zap.Logger) *QuotaService {
	return &QuotaService{
		counter:   counter,
		freeLimit: freeLimit,
		logger:    logger,
		now:       time.Now,
	}
}

// Check reports whether the account may generate another draft this month.
func (s *QuotaService) Check(ctx context.Context, account *entities.Account) (QuotaStatus, error) {
	if account != nil && account.Plan == entities.PlanTierPaid {
		return QuotaStatus{Allowed: true, Limit: -1}, nil
	}

	accountID := ""
	if account != nil {
		accountID = account.ID
	}
	used, err := s.counter.GetUsage(ctx, accountID, s.monthKey())
	if err != nil {
		return QuotaStatus{}, apperrors.ErrCache("get usage", err)
	}
	return QuotaStatus{
		Allowed: used < s.freeLimit,
		Used:    used,
		Limit:   s.freeLimit,
	}, nil
}

// Consume records one successful generation against the account's month.
func (s *QuotaService) Consume(ctx context.Context, account *entities.Account) error {
	if account != nil && account.Plan == entities.PlanTierPaid {
		return nil
	}
	accountID := ""
	if account != nil {
		accountID = account.ID
	}
	if _, err := s.counter.IncrementUsage(ctx, accountID, s.monthKey()); err != nil {
		// Generation already happened; losing one count beats failing the job.
		s.logger.Error("failed to record quota usage",
			zap.String("account_id", accountID), zap.Error(err))
	}
	return nil
}

func (s *QuotaService) monthKey() string {
	return s.now().UTC().Format("2006-01")
}
