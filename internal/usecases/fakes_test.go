package usecases

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"project_outreach/internal/config"
	"project_outreach/internal/entities"
	"project_outreach/internal/interfaces"
	"project_outreach/internal/repository"
	"project_outreach/internal/segments"

	"github.com/google/uuid"
	"go.uber.org/zap/zaptest"
)

var testNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

type fakeAccounts struct {
	mu       sync.Mutex
	accounts []*entities.Account
	creates  int
	rolled   []time.Time
}

func (f *fakeAccounts) live(userID string, v entities.Vertical) *entities.Account {
	for _, a := range f.accounts {
		if a.UserID == userID && a.Vertical == v && a.RetiredAt == nil {
			return a
		}
	}
	return nil
}

func (f *fakeAccounts) FindOwned(_ context.Context, id, userID string, v entities.Vertical) (*entities.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.ID == id && a.UserID == userID && a.Vertical == v && a.RetiredAt == nil {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeAccounts) FindFirst(_ context.Context, userID string, v entities.Vertical) (*entities.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a := f.live(userID, v); a != nil {
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeAccounts) Create(_ context.Context, a *entities.Account) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.live(a.UserID, a.Vertical) != nil {
		return false, nil
	}
	cp := *a
	cp.CreatedAt = testNow
	f.accounts = append(f.accounts, &cp)
	f.creates++
	return true, nil
}

func (f *fakeAccounts) GetByID(_ context.Context, id string) (*entities.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.ID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeAccounts) UpdatePlan(_ context.Context, id string, plan entities.Plan, quota int, start time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.ID == id {
			a.Plan, a.MonthlyQuota, a.PeriodStart = plan, quota, &start
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeAccounts) UpdatePeriodStart(_ context.Context, id string, start time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.ID == id {
			a.PeriodStart = &start
			f.rolled = append(f.rolled, start)
			return nil
		}
	}
	return repository.ErrNotFound
}

// add stores a ready-made account and returns a copy of it.
func (f *fakeAccounts) add(a *entities.Account) *entities.Account {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts = append(f.accounts, a)
	cp := *a
	return &cp
}

type fakeContacts struct {
	mu             sync.Mutex
	contacts       []entities.Contact
	reachableCalls int
}

func (f *fakeContacts) Create(_ context.Context, c *entities.Contact) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.CreatedAt, c.UpdatedAt = testNow, testNow
	f.contacts = append(f.contacts, *c)
	return nil
}

func (f *fakeContacts) CreateMany(_ context.Context, contacts []entities.Contact) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range contacts {
		c.CreatedAt, c.UpdatedAt = testNow, testNow
		f.contacts = append(f.contacts, c)
	}
	return len(contacts), nil
}

func (f *fakeContacts) sorted(accountID string) []entities.Contact {
	var out []entities.Contact
	for _, c := range f.contacts {
		if c.AccountID == accountID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.LifetimeSpendCents != b.LifetimeSpendCents {
			return a.LifetimeSpendCents > b.LifetimeSpendCents
		}
		if a.Visits != b.Visits {
			return a.Visits > b.Visits
		}
		return a.ID < b.ID
	})
	return out
}

func (f *fakeContacts) ListReachable(_ context.Context, q interfaces.CandidateQuery) ([]entities.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reachableCalls++
	var out []entities.Contact
	for _, c := range f.sorted(q.AccountID) {
		if q.After != nil && !afterCursor(c, q.After) {
			continue
		}
		if c.AddressFor(q.Channel) != "" && len(out) < q.Limit {
			out = append(out, c)
		}
	}
	return out, nil
}

func afterCursor(c entities.Contact, cur *interfaces.CandidateCursor) bool {
	if c.LifetimeSpendCents != cur.SpendCents {
		return c.LifetimeSpendCents < cur.SpendCents
	}
	if c.Visits != cur.Visits {
		return c.Visits < cur.Visits
	}
	return c.ID > cur.ID
}

func (f *fakeContacts) ListByAccount(_ context.Context, accountID string, limit, offset int) ([]entities.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := f.sorted(accountID)
	if offset >= len(all) {
		return []entities.Contact{}, nil
	}
	return all[offset:min(offset+limit, len(all))], nil
}

type fakeBroadcasts struct {
	mu        sync.Mutex
	records   []entities.BroadcastRecord
	insertErr error
}

func (f *fakeBroadcasts) Insert(_ context.Context, r *entities.BroadcastRecord) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	r.ID = uuid.NewString()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = testNow
	}
	f.records = append(f.records, *r)
	return nil
}

func (f *fakeBroadcasts) SumSucceededSince(_ context.Context, accountID string, ch entities.Channel, since time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, r := range f.records {
		if r.AccountID == accountID && r.Channel == ch && !r.CreatedAt.Before(since) {
			total += r.Succeeded
		}
	}
	return total, nil
}

func (f *fakeBroadcasts) ListPage(_ context.Context, accountID, cursor string, take int) ([]entities.BroadcastRecord, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var mine []entities.BroadcastRecord
	for i := len(f.records) - 1; i >= 0; i-- {
		if f.records[i].AccountID == accountID {
			mine = append(mine, f.records[i])
		}
	}
	if cursor != "" {
		for i, r := range mine {
			if r.ID == cursor {
				mine = mine[i+1:]
				break
			}
		}
	}
	if len(mine) > take {
		return mine[:take], true, nil
	}
	return mine, false, nil
}

func (f *fakeBroadcasts) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

type fakeMappings struct {
	mu       sync.Mutex
	mappings map[string]entities.ChannelMapping
}

func (f *fakeMappings) Find(_ context.Context, accountID, segment string) (*entities.ChannelMapping, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.mappings[accountID+"/"+segment]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (f *fakeMappings) Upsert(_ context.Context, m *entities.ChannelMapping) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mappings == nil {
		f.mappings = map[string]entities.ChannelMapping{}
	}
	m.UpdatedAt = testNow
	f.mappings[m.AccountID+"/"+m.Segment] = *m
	return nil
}

func (f *fakeMappings) List(_ context.Context, accountID string) ([]entities.ChannelMapping, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []entities.ChannelMapping{}
	for _, m := range f.mappings {
		if m.AccountID == accountID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Segment < out[j].Segment })
	return out, nil
}

type fakeSegmentConfigs struct {
	raw map[string][]byte
}

func (f *fakeSegmentConfigs) Get(_ context.Context, accountID string) ([]byte, error) {
	return f.raw[accountID], nil
}

func (f *fakeSegmentConfigs) Set(_ context.Context, accountID string, overrides []byte) error {
	if f.raw == nil {
		f.raw = map[string][]byte{}
	}
	f.raw[accountID] = overrides
	return nil
}

type fakeProvisioner struct {
	number string
	err    error
	calls  atomic.Int32
}

func (f *fakeProvisioner) SenderNumber(context.Context, string) (string, error) {
	f.calls.Add(1)
	return f.number, f.err
}

// fakeSender records sends. Addresses in fail are rejected. When gate
// is set every send waits for it to close (or for its context).
type fakeSender struct {
	mu       sync.Mutex
	sent     []entities.OutboundMessage
	fail     map[string]bool
	gate     chan struct{}
	inFlight atomic.Int32
	provider string
}

func (f *fakeSender) Provider() string {
	if f.provider == "" {
		return "fake"
	}
	return f.provider
}

func (f *fakeSender) Send(ctx context.Context, msg entities.OutboundMessage) error {
	if f.gate != nil {
		f.inFlight.Add(1)
		defer f.inFlight.Add(-1)
		select {
		case <-f.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[msg.To] {
		return errors.New("provider rejected " + msg.To)
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeSender) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func testBroadcastConfig() config.BroadcastConfig {
	return config.BroadcastConfig{
		DefaultMaxRecipients:  200,
		AbsoluteMaxRecipients: 500,
		MaxBodyLength:         1600,
		CandidateScanLimit:    5000,
		Workers:               8,
		SendTimeout:           time.Second,
		DeadlineBase:          5 * time.Second,
		DeadlinePerRecipient:  10 * time.Millisecond,
		RecordWriteTimeout:    time.Second,
		SendRatePerSecond:     1000,
		SendBurst:             1000,
	}
}

// harness wires a dispatcher over fakes.
type harness struct {
	accounts   *fakeAccounts
	contacts   *fakeContacts
	broadcasts *fakeBroadcasts
	mappings   *fakeMappings
	provision  *fakeProvisioner
	sms        *fakeSender
	telegram   *fakeSender
	quota      *QuotaGuard
	policy     *SegmentPolicy
	dispatcher *BroadcastDispatcher
}

func newHarness(t *testing.T, cfg config.BroadcastConfig, locker interfaces.TenantLocker) *harness {
	t.Helper()
	log := zaptest.NewLogger(t)
	h := &harness{
		accounts:   &fakeAccounts{},
		contacts:   &fakeContacts{},
		broadcasts: &fakeBroadcasts{},
		mappings:   &fakeMappings{},
		provision:  &fakeProvisioner{number: "+15550100"},
		sms:        &fakeSender{provider: "sns"},
		telegram:   &fakeSender{provider: "telegram"},
	}
	h.quota = NewQuotaGuard(h.accounts, h.broadcasts, false, log)
	h.quota.now = fixedClock
	h.policy = NewSegmentPolicy(segments.DefaultConfig(), &fakeSegmentConfigs{}, log)
	h.dispatcher = NewBroadcastDispatcher(DispatcherDeps{
		Broadcasts:  h.broadcasts,
		Mappings:    h.mappings,
		Provisioner: h.provision,
		Locker:      locker,
		Senders: map[entities.Channel]interfaces.ChannelSender{
			entities.ChannelSMS:      h.sms,
			entities.ChannelTelegram: h.telegram,
		},
		Audience: NewAudienceFinder(h.contacts, cfg.CandidateScanLimit),
		Quota:    h.quota,
		Policy:   h.policy,
	}, cfg, log)
	h.dispatcher.now = fixedClock
	return h
}

func (h *harness) account(v entities.Vertical, plan entities.Plan) *entities.Account {
	a := entities.NewAccount(uuid.NewString(), "user-"+uuid.NewString()[:8], v)
	a.Plan = plan
	a.MonthlyQuota = plan.MonthlyQuota()
	return h.accounts.add(a)
}

// whales adds n CREATOR contacts that classify as WHALE, with phones
// +1555000000, +1555000001, ... in descending spend order.
func (h *harness) whales(accountID string, n int) []string {
	phones := make([]string, n)
	for i := 0; i < n; i++ {
		phones[i] = fmt.Sprintf("+1555%06d", i)
		h.contacts.contacts = append(h.contacts.contacts, entities.Contact{
			ID:                 uuid.NewString(),
			AccountID:          accountID,
			DisplayName:        "Whale " + phones[i],
			Phone:              phones[i],
			LifetimeSpendCents: int64(1_000_000 - i),
		})
	}
	return phones
}

func (h *harness) seedUsage(accountID string, succeeded int, at time.Time) {
	h.broadcasts.records = append(h.broadcasts.records, entities.BroadcastRecord{
		ID:          uuid.NewString(),
		AccountID:   accountID,
		Channel:     entities.ChannelSMS,
		AudienceKey: "WHALE",
		Attempted:   succeeded,
		Succeeded:   succeeded,
		CreatedAt:   at,
	})
}

type fakeTemplates struct {
	mu        sync.Mutex
	templates []entities.Template
}

func (f *fakeTemplates) List(_ context.Context, accountID string) ([]entities.Template, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []entities.Template{}
	for _, t := range f.templates {
		if t.VisibleTo(accountID) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTemplates) Get(_ context.Context, id string) (*entities.Template, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.templates {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeTemplates) Create(_ context.Context, t *entities.Template) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t.CreatedAt = testNow
	f.templates = append(f.templates, *t)
	return nil
}
