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

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Authorization is a point-in-time grant. Nothing is reserved: two
// grants may be issued against the same Used figure.
type Authorization struct {
	Remaining int
	Used      int
}

type UsageReport struct {
	AccountID   string        `json:"account_id"`
	Plan        entities.Plan `json:"plan"`
	Quota       int           `json:"quota"`
	Used        int           `json:"used"`
	Remaining   int           `json:"remaining"`
	PeriodStart time.Time     `json:"period_start"`
	NextResetAt time.Time     `json:"next_reset_at"`
}

// QuotaGuard enforces the monthly SMS allowance. Usage is derived from
// broadcast records, never stored as a counter.
type QuotaGuard struct {
	accounts   interfaces.AccountStore
	broadcasts interfaces.BroadcastStore
	autoRoll   bool
	now        func() time.Time
	log        *zap.Logger
}

func NewQuotaGuard(accounts interfaces.AccountStore, broadcasts interfaces.BroadcastStore, autoRoll bool, log *zap.Logger) *QuotaGuard {
	return &QuotaGuard{
		accounts:   accounts,
		broadcasts: broadcasts,
		autoRoll:   autoRoll,
		now:        time.Now,
		log:        log,
	}
}

func startOfMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// addMonths clamps to the last day of the target month, so Jan 31 plus
// one month is Feb 28 (or 29) rather than early March.
func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := first.AddDate(0, 1, -1).Day(); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// periodStart returns the start of the quota period in force at now.
// With auto-roll on, a stored start more than a month old is moved
// forward by whole months and persisted.
func (g *QuotaGuard) periodStart(ctx context.Context, acc *entities.Account, now time.Time) time.Time {
	if acc.PeriodStart == nil {
		return startOfMonth(now)
	}
	start := *acc.PeriodStart
	if !g.autoRoll || now.Before(addMonths(start, 1)) {
		return start
	}

	k := 1
	for !now.Before(addMonths(start, k+1)) {
		k++
	}
	rolled := addMonths(start, k)
	if err := g.accounts.UpdatePeriodStart(ctx, acc.ID, rolled); err != nil {
		// the rolled value is still correct for this call
		g.log.Warn("could not persist rolled period start",
			zap.String("account_id", acc.ID),
			zap.Error(err),
		)
	} else {
		g.log.Info("quota period rolled forward",
			zap.String("account_id", acc.ID),
			zap.Time("from", start),
			zap.Time("to", rolled),
		)
	}
	return rolled
}

func (g *QuotaGuard) load(ctx context.Context, accountID string) (*entities.Account, error) {
	acc, err := g.accounts.GetByID(ctx, accountID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound()
	}
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	return acc, nil
}

func (g *QuotaGuard) used(ctx context.Context, acc *entities.Account, now time.Time) (int, time.Time, error) {
	start := g.periodStart(ctx, acc, now)
	used, err := g.broadcasts.SumSucceededSince(ctx, acc.ID, entities.ChannelSMS, start)
	if err != nil {
		return 0, start, fmt.Errorf("sum usage: %w", err)
	}
	return used, start, nil
}

// Authorize checks that accountID may send requested more SMS this
// period.
func (g *QuotaGuard) Authorize(ctx context.Context, accountID string, requested int) (auth Authorization, err error) {
	ctx, span := tracer.Start(ctx, "quota.authorize", trace.WithAttributes(
		attribute.String("account_id", accountID),
		attribute.Int("requested", requested),
	))
	defer func() {
		decision := "granted"
		if err != nil {
			decision = string(apperrors.CodeOf(err))
			span.SetStatus(codes.Error, err.Error())
		}
		QuotaDecisions.WithLabelValues(decision).Inc()
		span.End()
	}()

	acc, err := g.load(ctx, accountID)
	if err != nil {
		return Authorization{}, err
	}
	if acc.MonthlyQuota <= 0 {
		return Authorization{}, apperrors.NotAllowed(fmt.Sprintf("The %s plan does not include SMS. Upgrade to send messages.", acc.Plan))
	}

	used, _, err := g.used(ctx, acc, g.now())
	if err != nil {
		return Authorization{}, err
	}
	remaining := acc.MonthlyQuota - used
	span.SetAttributes(attribute.Int("used", used), attribute.Int("remaining", remaining))

	if remaining <= 0 || remaining < requested {
		return Authorization{}, apperrors.LimitExceeded(remaining)
	}
	return Authorization{Remaining: remaining, Used: used}, nil
}

func (g *QuotaGuard) Usage(ctx context.Context, accountID string) (*UsageReport, error) {
	acc, err := g.load(ctx, accountID)
	if err != nil {
		return nil, err
	}
	used, start, err := g.used(ctx, acc, g.now())
	if err != nil {
		return nil, err
	}

	remaining := 0
	if acc.MonthlyQuota > 0 {
		remaining = max(acc.MonthlyQuota-used, 0)
	}
	return &UsageReport{
		AccountID:   acc.ID,
		Plan:        acc.Plan,
		Quota:       acc.MonthlyQuota,
		Used:        used,
		Remaining:   remaining,
		PeriodStart: start,
		NextResetAt: addMonths(start, 1),
	}, nil
}
