package usecases

import (
	"context"
	"fmt"

	"project_outreach/internal/apperrors"
	"project_outreach/internal/entities"
	"project_outreach/internal/interfaces"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AccountResolver maps a caller and a vertical onto one tenant account.
type AccountResolver struct {
	accounts interfaces.AccountStore
	log      *zap.Logger
}

func NewAccountResolver(accounts interfaces.AccountStore, log *zap.Logger) *AccountResolver {
	return &AccountResolver{accounts: accounts, log: log}
}

// owned returns the account requestedID names if the caller owns it.
// Ids that are malformed or belong to someone else yield nil, never an
// error, so a stale id reveals nothing about other tenants.
func (r *AccountResolver) owned(ctx context.Context, userID string, v entities.Vertical, requestedID string) (*entities.Account, error) {
	if requestedID == "" {
		return nil, nil
	}
	if _, err := uuid.Parse(requestedID); err != nil {
		return nil, nil
	}
	return r.accounts.FindOwned(ctx, requestedID, userID, v)
}

func (r *AccountResolver) find(ctx context.Context, userID string, v entities.Vertical, requestedID string) (*entities.Account, error) {
	if userID == "" {
		return nil, apperrors.NotFound()
	}
	acc, err := r.owned(ctx, userID, v, requestedID)
	if err != nil {
		return nil, fmt.Errorf("find requested account: %w", err)
	}
	if acc != nil {
		return acc, nil
	}
	acc, err = r.accounts.FindFirst(ctx, userID, v)
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}
	return acc, nil
}

// Lookup is the read path: it never creates. A caller without an
// account for v gets the generic not-found error.
func (r *AccountResolver) Lookup(ctx context.Context, userID string, v entities.Vertical, requestedID string) (*entities.Account, error) {
	acc, err := r.find(ctx, userID, v, requestedID)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, apperrors.NotFound()
	}
	return acc, nil
}

// Resolve is Lookup that creates the account when the caller has none.
func (r *AccountResolver) Resolve(ctx context.Context, userID string, v entities.Vertical, requestedID string) (*entities.Account, error) {
	acc, err := r.find(ctx, userID, v, requestedID)
	if err != nil {
		return nil, err
	}
	if acc != nil {
		return acc, nil
	}
	acc, _, err = r.Ensure(ctx, userID, v)
	return acc, err
}

// Ensure is the onboarding factory. Concurrent calls for the same
// (user, vertical) converge on one row; created is true only for the
// caller whose insert won.
func (r *AccountResolver) Ensure(ctx context.Context, userID string, v entities.Vertical) (acc *entities.Account, created bool, err error) {
	if userID == "" {
		return nil, false, apperrors.NotFound()
	}
	acc, err = r.accounts.FindFirst(ctx, userID, v)
	if err != nil {
		return nil, false, fmt.Errorf("find account: %w", err)
	}
	if acc != nil {
		return acc, false, nil
	}

	created, err = r.accounts.Create(ctx, entities.NewAccount(uuid.NewString(), userID, v))
	if err != nil {
		return nil, false, fmt.Errorf("create account: %w", err)
	}

	// re-read: a concurrent insert may have won the unique index
	acc, err = r.accounts.FindFirst(ctx, userID, v)
	if err != nil {
		return nil, false, fmt.Errorf("reload account: %w", err)
	}
	if acc == nil {
		return nil, false, apperrors.New(apperrors.ErrCodeInternal, "account vanished after create")
	}
	if created {
		r.log.Info("account created",
			zap.String("account_id", acc.ID),
			zap.String("user_id", userID),
			zap.String("vertical", string(v)),
		)
	}
	return acc, created, nil
}
