package usecases

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"project_outreach/internal/apperrors"
	"project_outreach/internal/entities"
	"project_outreach/internal/segments"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newContactUsecase(t *testing.T) (*ContactUsecase, *fakeContacts) {
	contacts := &fakeContacts{}
	policy := NewSegmentPolicy(segments.DefaultConfig(), nil, zaptest.NewLogger(t))
	u := NewContactUsecase(contacts, policy, 5000)
	u.now = fixedClock
	return u, contacts
}

func TestContactUsecase_Summary(t *testing.T) {
	u, contacts := newContactUsecase(t)
	acc := &entities.Account{ID: "acc-1", Vertical: entities.VerticalVenue}

	for i := 0; i < 8; i++ {
		contacts.contacts = append(contacts.contacts, entities.Contact{
			ID: fmt.Sprintf("gold-%d", i), AccountID: acc.ID, DisplayName: "Gold", LifetimeSpendCents: 160_000 + int64(i),
		})
	}
	contacts.contacts = append(contacts.contacts,
		entities.Contact{ID: "plat", AccountID: acc.ID, Visits: 25},
		entities.Contact{ID: "none", AccountID: acc.ID},
		entities.Contact{ID: "elsewhere", AccountID: "acc-2", Visits: 25},
	)

	s, err := u.Summary(context.Background(), acc)
	require.NoError(t, err)
	assert.Equal(t, 10, s.Total)
	assert.Equal(t, []string{"ALL", "AT_RISK", "COLD", "BIRTHDAY_WEEK"}, s.Filters)

	byLabel := map[string]SegmentBucket{}
	var order []string
	for _, b := range s.Segments {
		byLabel[b.Segment] = b
		order = append(order, b.Segment)
	}
	assert.Equal(t, []string{"PLATINUM", "GOLD", "SILVER", "BRONZE", "NONE"}, order)
	assert.Equal(t, 8, byLabel["GOLD"].Count)
	assert.Len(t, byLabel["GOLD"].Contacts, summaryPreviewSize)
	assert.Equal(t, "gold-7", byLabel["GOLD"].Contacts[0].ID, "previews follow spend order")
	assert.Equal(t, 1, byLabel["PLATINUM"].Count)
	assert.Equal(t, 1, byLabel["NONE"].Count)
	assert.Empty(t, byLabel["SILVER"].Contacts)
}

func TestContactUsecase_SummaryCountsEveryPage(t *testing.T) {
	u, contacts := newContactUsecase(t)
	u.scanLimit = 4
	acc := &entities.Account{ID: "acc-1", Vertical: entities.VerticalVenue}

	for i := 0; i < 9; i++ {
		contacts.contacts = append(contacts.contacts, entities.Contact{
			ID: fmt.Sprintf("gold-%d", i), AccountID: acc.ID, LifetimeSpendCents: 160_000 + int64(i),
		})
	}
	contacts.contacts = append(contacts.contacts, entities.Contact{ID: "none", AccountID: acc.ID})

	s, err := u.Summary(context.Background(), acc)
	require.NoError(t, err)
	assert.Equal(t, 10, s.Total)
	for _, b := range s.Segments {
		switch b.Segment {
		case "GOLD":
			assert.Equal(t, 9, b.Count)
		case "NONE":
			assert.Equal(t, 1, b.Count)
		}
	}
}

func TestContactUsecase_ListComputesLabels(t *testing.T) {
	u, contacts := newContactUsecase(t)
	acc := &entities.Account{ID: "acc-1", Vertical: entities.VerticalEntertainer}
	last := testNow.AddDate(0, 0, -60)
	contacts.contacts = append(contacts.contacts, entities.Contact{
		ID: "c1", AccountID: acc.ID, Visits: 4, LastActivityAt: &last, StoredLabel: "WHALE",
	})

	views, err := u.List(context.Background(), acc, 50, 0)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "REGULAR", views[0].Segment)
	assert.Equal(t, segments.ActivityCold, views[0].Activity)
	assert.Equal(t, "WHALE", views[0].StoredLabel, "stored label is passed through for display")
}

func TestContactUsecase_Create(t *testing.T) {
	u, contacts := newContactUsecase(t)
	acc := &entities.Account{ID: "acc-1", Vertical: entities.VerticalCreator}
	joined := testNow.AddDate(0, 0, -2)

	v, err := u.Create(context.Background(), acc, NewContactInput{
		DisplayName: "  Sam  ",
		Phone:       "+14155550100",
		JoinedAt:    &joined,
	})
	require.NoError(t, err)
	assert.Equal(t, "NEW", v.Segment)
	assert.Equal(t, "Sam", v.DisplayName)
	require.Len(t, contacts.contacts, 1)
	assert.Equal(t, "NEW", contacts.contacts[0].StoredLabel)
	assert.Equal(t, acc.ID, contacts.contacts[0].AccountID)
}

func TestContactUsecase_CreateValidates(t *testing.T) {
	u, contacts := newContactUsecase(t)
	acc := &entities.Account{ID: "acc-1", Vertical: entities.VerticalCreator}

	bad := []NewContactInput{
		{DisplayName: ""},
		{DisplayName: "x", Phone: "555-0100"},
		{DisplayName: "x", LifetimeSpendCents: -1},
		{DisplayName: "x", Visits: -3},
	}
	for _, in := range bad {
		_, err := u.Create(context.Background(), acc, in)
		assert.Equal(t, apperrors.ErrCodeValidation, apperrors.CodeOf(err), "%+v", in)
	}
	assert.Empty(t, contacts.contacts)
}

func TestContactUsecase_Import(t *testing.T) {
	u, contacts := newContactUsecase(t)
	acc := &entities.Account{ID: "acc-1", Vertical: entities.VerticalCreator}

	csv := strings.Join([]string{
		"Name,Phone Number,Spend Cents,Visits,Tier,Birthday,Notes",
		"Ana,+14155550101,60000,2,,1990-03-18,x",
		"Bo,+14155550102,100,1,platinum,,y",
		"Cy,not-a-phone,5,1,,,z",
		"Di,+14155550103,abc,1,,,z",
		",+14155550104,1,1,,,z",
	}, "\n")

	report, err := u.Import(context.Background(), acc, strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 2, report.Imported)
	assert.Equal(t, 3, report.Skipped)
	require.Len(t, report.Errors, 3)
	assert.Equal(t, []int{4, 5, 6}, []int{report.Errors[0].Row, report.Errors[1].Row, report.Errors[2].Row})

	require.Len(t, contacts.contacts, 2)
	ana, bo := contacts.contacts[0], contacts.contacts[1]
	assert.Equal(t, "WHALE", ana.StoredLabel, "label computed when the file has none")
	require.NotNil(t, ana.SpecialDate)
	assert.Equal(t, time.March, ana.SpecialDate.Month())
	assert.Equal(t, "PLATINUM", bo.StoredLabel, "imported label kept for display")

	views, err := u.List(context.Background(), acc, 10, 0)
	require.NoError(t, err)
	for _, v := range views {
		if v.ID == bo.ID {
			assert.Equal(t, "LOW", v.Segment, "stored label never drives the computed segment")
		}
	}
}

func TestContactUsecase_ImportRejectsFile(t *testing.T) {
	u, contacts := newContactUsecase(t)
	acc := &entities.Account{ID: "acc-1", Vertical: entities.VerticalCreator}

	_, err := u.Import(context.Background(), acc, strings.NewReader(""))
	assert.Equal(t, apperrors.ErrCodeValidation, apperrors.CodeOf(err))

	_, err = u.Import(context.Background(), acc, strings.NewReader("phone,visits\n+14155550101,1"))
	assert.Equal(t, apperrors.ErrCodeValidation, apperrors.CodeOf(err))
	assert.Empty(t, contacts.contacts)
}

type fakeVerifier struct {
	title string
	err   error
}

func (f fakeVerifier) ChatTitle(context.Context, string) (string, error) { return f.title, f.err }

func TestChannelUsecase_Upsert(t *testing.T) {
	mappings := &fakeMappings{}
	policy := NewSegmentPolicy(segments.DefaultConfig(), nil, zaptest.NewLogger(t))
	u := NewChannelUsecase(mappings, policy, fakeVerifier{title: "Whales only"}, zaptest.NewLogger(t))
	acc := &entities.Account{ID: "acc-1", Vertical: entities.VerticalCreator}

	m, err := u.Upsert(context.Background(), acc, "whale", " -100123 ", "")
	require.NoError(t, err)
	assert.Equal(t, "WHALE", m.Segment)
	assert.Equal(t, "-100123", m.ChatID)
	assert.Equal(t, "Whales only", m.Title)

	_, err = u.Upsert(context.Background(), acc, "WHALE", "-100999", "VIP room")
	require.NoError(t, err)
	list, err := u.List(context.Background(), acc)
	require.NoError(t, err)
	require.Len(t, list, 1, "upsert replaces the existing binding")
	assert.Equal(t, "-100999", list[0].ChatID)
	assert.Equal(t, "VIP room", list[0].Title)
}

func TestChannelUsecase_UpsertEveryVertical(t *testing.T) {
	policy := NewSegmentPolicy(segments.DefaultConfig(), nil, zaptest.NewLogger(t))
	u := NewChannelUsecase(&fakeMappings{}, policy, nil, zaptest.NewLogger(t))

	for _, tc := range []struct {
		vertical entities.Vertical
		segment  string
	}{
		{entities.VerticalCreator, "GHOST"},
		{entities.VerticalVenue, "PLATINUM"},
		{entities.VerticalEntertainer, "REGULAR"},
	} {
		acc := &entities.Account{ID: "acc-" + string(tc.vertical), Vertical: tc.vertical}
		m, err := u.Upsert(context.Background(), acc, tc.segment, "-100555", "Room")
		require.NoError(t, err, tc.vertical)
		assert.Equal(t, tc.segment, m.Segment)
	}
}

func TestChannelUsecase_UpsertRejects(t *testing.T) {
	policy := NewSegmentPolicy(segments.DefaultConfig(), nil, zaptest.NewLogger(t))
	acc := &entities.Account{ID: "acc-1", Vertical: entities.VerticalCreator}

	u := NewChannelUsecase(&fakeMappings{}, policy, nil, zaptest.NewLogger(t))
	_, err := u.Upsert(context.Background(), acc, "CUSTOM", "-1", "")
	assert.Equal(t, apperrors.ErrCodeValidation, apperrors.CodeOf(err))
	_, err = u.Upsert(context.Background(), acc, "WHALE", "", "")
	assert.Equal(t, apperrors.ErrCodeValidation, apperrors.CodeOf(err))

	u = NewChannelUsecase(&fakeMappings{}, policy, fakeVerifier{err: fmt.Errorf("chat not found")}, zaptest.NewLogger(t))
	_, err = u.Upsert(context.Background(), acc, "WHALE", "-1", "")
	assert.Equal(t, apperrors.ErrCodeValidation, apperrors.CodeOf(err))
}

func TestBillingUsecase_ChangePlanResetsUsage(t *testing.T) {
	accounts, broadcasts := &fakeAccounts{}, &fakeBroadcasts{}
	log := zaptest.NewLogger(t)
	billing := NewBillingUsecase(accounts, log)
	billing.now = fixedClock
	guard := NewQuotaGuard(accounts, broadcasts, false, log)
	guard.now = func() time.Time { return testNow.Add(time.Minute) }

	acc := quotaAccount(accounts, 500, nil)
	record(broadcasts, acc.ID, entities.ChannelSMS, 120, testNow.Add(-time.Hour))

	updated, err := billing.ChangePlan(context.Background(), acc.ID, entities.PlanGrowth)
	require.NoError(t, err)
	assert.Equal(t, entities.PlanGrowth, updated.Plan)
	assert.Equal(t, 1000, updated.MonthlyQuota)
	require.NotNil(t, updated.PeriodStart)
	assert.Equal(t, testNow, *updated.PeriodStart)

	u, err := guard.Usage(context.Background(), acc.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, u.Used)
	assert.Equal(t, 1000, u.Remaining)

	_, err = billing.ChangePlan(context.Background(), "missing", entities.PlanGrowth)
	assert.Equal(t, apperrors.ErrCodeAuth, apperrors.CodeOf(err))
}

func TestBroadcastHistory_Page(t *testing.T) {
	broadcasts := &fakeBroadcasts{}
	h := NewBroadcastHistory(broadcasts)
	acc := &entities.Account{ID: "acc-1"}
	for i := 0; i < 5; i++ {
		record(broadcasts, acc.ID, entities.ChannelSMS, i, testNow.Add(time.Duration(i)*time.Minute))
	}

	page, err := h.Page(context.Background(), acc, "", 2)
	require.NoError(t, err)
	require.Len(t, page.Logs, 2)
	assert.Equal(t, 4, page.Logs[0].Succeeded, "newest first")
	require.NotNil(t, page.NextCursor)

	page, err = h.Page(context.Background(), acc, *page.NextCursor, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Logs[0].Succeeded)

	page, err = h.Page(context.Background(), acc, *page.NextCursor, 2)
	require.NoError(t, err)
	assert.Len(t, page.Logs, 1)
	assert.Nil(t, page.NextCursor)

	page, err = h.Page(context.Background(), acc, "", 0)
	require.NoError(t, err)
	assert.Len(t, page.Logs, 1, "take is clamped up to 1")

	_, err = h.Page(context.Background(), acc, "nope", 20)
	assert.Equal(t, apperrors.ErrCodeValidation, apperrors.CodeOf(err))
}

func TestSegmentPolicy_Overrides(t *testing.T) {
	store := &fakeSegmentConfigs{}
	policy := NewSegmentPolicy(segments.DefaultConfig(), store, zaptest.NewLogger(t))
	acc := &entities.Account{ID: "acc-1", Vertical: entities.VerticalCreator}
	fan := entities.Contact{ID: "f", LifetimeSpendCents: 25_000}

	c, err := policy.Classifier(context.Background(), acc)
	require.NoError(t, err)
	assert.NotEqual(t, "WHALE", c.Segment(&fan, testNow))

	cfg, err := policy.SetOverrides(context.Background(), acc.ID, []byte(`{"fan":{"whale_spend_cents":20000}}`))
	require.NoError(t, err)
	assert.EqualValues(t, 20_000, cfg.Fan.WhaleSpendCents)

	c, err = policy.Classifier(context.Background(), acc)
	require.NoError(t, err)
	assert.Equal(t, "WHALE", c.Segment(&fan, testNow))

	_, err = policy.SetOverrides(context.Background(), acc.ID, []byte(`{"fan":{"whale_spend_cents":1}}`))
	assert.Error(t, err, "whale below mid is rejected")

	store.raw[acc.ID] = []byte(`{"fan":{"whale_spend_cents":1}}`)
	cfg, err = policy.Config(context.Background(), acc.ID)
	require.NoError(t, err)
	assert.Equal(t, segments.DefaultConfig(), cfg, "invalid stored overrides fall back to defaults")
}
