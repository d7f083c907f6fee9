package interfaces

import (
	"context"
	"errors"
	"time"

	"project_outreach/internal/entities"
)

// ChannelSender delivers one message. A nil error means the provider
// accepted it.
type ChannelSender interface {
	Send(ctx context.Context, msg entities.OutboundMessage) error
	Provider() string
}

// SenderProvisioner lazily assigns a sending number to a tenant.
type SenderProvisioner interface {
	SenderNumber(ctx context.Context, accountID string) (string, error)
}

// ErrLockBusy is returned by TenantLocker.Acquire when the lock stayed
// held for the whole wait budget.
var ErrLockBusy = errors.New("tenant lock busy")

// SendPacer throttles sends per tenant.
type SendPacer interface {
	Wait(ctx context.Context, key string) error
}

// TenantLocker serializes quota-gated dispatches for one tenant. The
// returned release func is safe to call once.
type TenantLocker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

type AccountStore interface {
	// FindOwned returns the live account with id owned by (userID,
	// vertical), or nil when there is none.
	FindOwned(ctx context.Context, id, userID string, v entities.Vertical) (*entities.Account, error)
	// FindFirst returns the live account for (userID, vertical), or nil.
	FindFirst(ctx context.Context, userID string, v entities.Vertical) (*entities.Account, error)
	// Create inserts a unless a live account for the same (user,
	// vertical) exists. created reports whether the insert happened.
	Create(ctx context.Context, a *entities.Account) (created bool, err error)
	GetByID(ctx context.Context, id string) (*entities.Account, error)
	UpdatePlan(ctx context.Context, id string, plan entities.Plan, quota int, periodStart time.Time) error
	UpdatePeriodStart(ctx context.Context, id string, periodStart time.Time) error
}

// CandidateQuery selects the contacts a dispatch may reach.
type CandidateQuery struct {
	AccountID string
	Channel   entities.Channel
	Limit     int
	// After resumes a scan past the last contact of the previous page.
	After *CandidateCursor
}

// CandidateCursor is the sort key of one contact in candidate order.
type CandidateCursor struct {
	SpendCents int64
	Visits     int
	ID         string
}

type ContactStore interface {
	Create(ctx context.Context, c *entities.Contact) error
	// CreateMany inserts all of contacts or none of them.
	CreateMany(ctx context.Context, contacts []entities.Contact) (int, error)
	// ListReachable returns contacts with an address on q.Channel,
	// ordered by spend desc, visits desc, id asc.
	ListReachable(ctx context.Context, q CandidateQuery) ([]entities.Contact, error)
	// ListByAccount returns a page of contacts ordered like
	// ListReachable.
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]entities.Contact, error)
}

type BroadcastStore interface {
	// Insert stores r and fills in its ID and CreatedAt.
	Insert(ctx context.Context, r *entities.BroadcastRecord) error
	// SumSucceededSince totals Succeeded over ch records created at or
	// after since.
	SumSucceededSince(ctx context.Context, accountID string, ch entities.Channel, since time.Time) (int, error)
	// ListPage returns up to take records older than cursor (newest
	// first) and whether more exist.
	ListPage(ctx context.Context, accountID, cursor string, take int) ([]entities.BroadcastRecord, bool, error)
}

type ChannelMappingStore interface {
	Find(ctx context.Context, accountID, segment string) (*entities.ChannelMapping, error)
	Upsert(ctx context.Context, m *entities.ChannelMapping) error
	List(ctx context.Context, accountID string) ([]entities.ChannelMapping, error)
}

type TemplateStore interface {
	// List returns the tenant's templates plus the shared defaults,
	// defaults first, then newest first.
	List(ctx context.Context, accountID string) ([]entities.Template, error)
	Get(ctx context.Context, id string) (*entities.Template, error)
	Create(ctx context.Context, t *entities.Template) error
}

// SegmentConfigStore holds per-tenant threshold overrides as partial
// JSON documents.
type SegmentConfigStore interface {
	Get(ctx context.Context, accountID string) ([]byte, error)
	Set(ctx context.Context, accountID string, overrides []byte) error
}
