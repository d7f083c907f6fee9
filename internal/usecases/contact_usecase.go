package usecases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"project_outreach/internal/apperrors"
	"project_outreach/internal/entities"
	"project_outreach/internal/interfaces"
	"project_outreach/internal/segments"

	"github.com/go-playground/validator/v10"
)

const summaryPreviewSize = 6

// ContactView is a contact with its labels computed at read time.
type ContactView struct {
	entities.Contact
	Segment          string            `json:"segment"`
	Activity         segments.Activity `json:"activity,omitempty"`
	UpcomingBirthday bool              `json:"upcoming_birthday,omitempty"`
}

type ContactPreview struct {
	ID                 string     `json:"id"`
	DisplayName        string     `json:"display_name"`
	LifetimeSpendCents int64      `json:"lifetime_spend_cents"`
	LastActivityAt     *time.Time `json:"last_activity_at,omitempty"`
}

type SegmentBucket struct {
	Segment  string           `json:"segment"`
	Count    int              `json:"count"`
	Contacts []ContactPreview `json:"contacts"`
}

type SegmentSummary struct {
	AccountID string          `json:"account_id"`
	Total     int             `json:"total"`
	Segments  []SegmentBucket `json:"segments"`
	Filters   []string        `json:"filters"`
}

// NewContactInput is manual contact entry.
type NewContactInput struct {
	DisplayName        string     `json:"display_name" validate:"required,max=120"`
	Phone              string     `json:"phone" validate:"omitempty,e164"`
	TelegramChatID     string     `json:"telegram_chat_id" validate:"omitempty,max=64"`
	LifetimeSpendCents int64      `json:"lifetime_spend_cents" validate:"gte=0"`
	Visits             int        `json:"visits" validate:"gte=0"`
	LastActivityAt     *time.Time `json:"last_activity_at"`
	JoinedAt           *time.Time `json:"joined_at"`
	SpecialDate        *time.Time `json:"special_date"`
}

type ContactUsecase struct {
	contacts  interfaces.ContactStore
	policy    *SegmentPolicy
	validate  *validator.Validate
	scanLimit int
	now       func() time.Time
}

// NewContactUsecase reads contacts scanLimit at a time when summarising.
func NewContactUsecase(contacts interfaces.ContactStore, policy *SegmentPolicy, scanLimit int) *ContactUsecase {
	if scanLimit <= 0 {
		scanLimit = defaultScanPageSize
	}
	return &ContactUsecase{
		contacts:  contacts,
		policy:    policy,
		validate:  validator.New(),
		scanLimit: scanLimit,
		now:       time.Now,
	}
}

func (u *ContactUsecase) view(c segments.Classifier, contact entities.Contact, now time.Time) ContactView {
	p := c.Profile(&contact, now)
	return ContactView{
		Contact:          contact,
		Segment:          p.Segment,
		Activity:         p.Activity,
		UpcomingBirthday: p.UpcomingBirthday,
	}
}

func (u *ContactUsecase) List(ctx context.Context, acc *entities.Account, limit, offset int) ([]ContactView, error) {
	c, err := u.policy.Classifier(ctx, acc)
	if err != nil {
		return nil, err
	}
	contacts, err := u.contacts.ListByAccount(ctx, acc.ID, limit, offset)
	if err != nil {
		return nil, err
	}

	now := u.now()
	views := make([]ContactView, 0, len(contacts))
	for _, contact := range contacts {
		views = append(views, u.view(c, contact, now))
	}
	return views, nil
}

// Summary counts contacts per segment and keeps the first few of each,
// in spend order, as previews.
func (u *ContactUsecase) Summary(ctx context.Context, acc *entities.Account) (*SegmentSummary, error) {
	c, err := u.policy.Classifier(ctx, acc)
	if err != nil {
		return nil, err
	}
	labels := c.Segments()
	buckets := make([]SegmentBucket, len(labels))
	index := make(map[string]int, len(labels))
	for i, l := range labels {
		buckets[i] = SegmentBucket{Segment: l, Contacts: []ContactPreview{}}
		index[l] = i
	}

	now := u.now()
	total := 0
	for offset := 0; ; offset += u.scanLimit {
		page, err := u.contacts.ListByAccount(ctx, acc.ID, u.scanLimit, offset)
		if err != nil {
			return nil, err
		}
		for i := range page {
			contact := &page[i]
			b := &buckets[index[c.Segment(contact, now)]]
			b.Count++
			if len(b.Contacts) < summaryPreviewSize {
				b.Contacts = append(b.Contacts, ContactPreview{
					ID:                 contact.ID,
					DisplayName:        contact.DisplayName,
					LifetimeSpendCents: contact.LifetimeSpendCents,
					LastActivityAt:     contact.LastActivityAt,
				})
			}
		}
		total += len(page)
		if len(page) < u.scanLimit {
			break
		}
	}

	filters := make([]string, 0, len(c.Filters()))
	for _, f := range c.Filters() {
		filters = append(filters, string(f))
	}
	return &SegmentSummary{
		AccountID: acc.ID,
		Total:     total,
		Segments:  buckets,
		Filters:   filters,
	}, nil
}

func (u *ContactUsecase) Create(ctx context.Context, acc *entities.Account, in NewContactInput) (*ContactView, error) {
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	in.Phone = strings.TrimSpace(in.Phone)
	in.TelegramChatID = strings.TrimSpace(in.TelegramChatID)
	if err := u.validate.Struct(in); err != nil {
		return nil, apperrors.Validation(fmt.Sprintf("Invalid contact: %v", err))
	}

	c, err := u.policy.Classifier(ctx, acc)
	if err != nil {
		return nil, err
	}

	contact := contactFromInput(acc.ID, in)
	now := u.now()
	contact.StoredLabel = c.Segment(&contact, now)

	if err := u.contacts.Create(ctx, &contact); err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}
	v := u.view(c, contact, now)
	return &v, nil
}
