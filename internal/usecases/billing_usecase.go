package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"project_outreach/internal/apperrors"
	"project_outreach/internal/entities"
	"project_outreach/internal/interfaces"
	"project_outreach/internal/repository"

	"go.uber.org/zap"
)

// BillingUsecase applies plan changes coming from billing events.
type BillingUsecase struct {
	accounts interfaces.AccountStore
	now      func() time.Time
	log      *zap.Logger
}

func NewBillingUsecase(accounts interfaces.AccountStore, log *zap.Logger) *BillingUsecase {
	return &BillingUsecase{accounts: accounts, now: time.Now, log: log}
}

// ChangePlan sets the plan and its quota and restarts the period now,
// which zeroes usage since usage only counts records after the start.
func (u *BillingUsecase) ChangePlan(ctx context.Context, accountID string, plan entities.Plan) (*entities.Account, error) {
	acc, err := u.accounts.GetByID(ctx, accountID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound()
	}
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}

	start := u.now().UTC()
	quota := plan.MonthlyQuota()
	if err := u.accounts.UpdatePlan(ctx, acc.ID, plan, quota, start); err != nil {
		return nil, fmt.Errorf("update plan: %w", err)
	}

	u.log.Info("plan changed",
		zap.String("account_id", acc.ID),
		zap.String("from", string(acc.Plan)),
		zap.String("to", string(plan)),
		zap.Int("quota", quota),
	)
	acc.Plan = plan
	acc.MonthlyQuota = quota
	acc.PeriodStart = &start
	return acc, nil
}
