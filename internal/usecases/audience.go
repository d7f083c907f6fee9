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
)

// AudienceSelector names a segment of one vertical plus an optional
// compound filter.
type AudienceSelector struct {
	Segment string
	Filter  segments.Filter
}

// ParseSelector normalises the wire form. It does not check the values
// against a vertical; see Validate.
func ParseSelector(segment, filter string) (AudienceSelector, error) {
	f, err := segments.ParseFilter(filter)
	if err != nil {
		return AudienceSelector{}, apperrors.Validation(err.Error())
	}
	seg := strings.ToUpper(strings.TrimSpace(segment))
	if seg == "" {
		return AudienceSelector{}, apperrors.Validation("segment is required")
	}
	return AudienceSelector{Segment: seg, Filter: f}, nil
}

// Key is the audience key stored on the broadcast record.
func (s AudienceSelector) Key() string {
	if s.Filter == "" || s.Filter == segments.FilterAll {
		return s.Segment
	}
	return s.Segment + ":" + string(s.Filter)
}

// Validate checks s against the labels and filters c supports.
func (s AudienceSelector) Validate(c segments.Classifier) error {
	if !segments.HasSegment(c, s.Segment) {
		return apperrors.Validation(fmt.Sprintf("Unknown segment %s. Expected one of %s.", s.Segment, strings.Join(c.Segments(), ", ")))
	}
	if !segments.SupportsFilter(c, s.Filter) {
		return apperrors.Validation(fmt.Sprintf("Filter %s is not available for this account.", s.Filter))
	}
	return nil
}

// Recipient is one resolved send target.
type Recipient struct {
	ContactID string
	Address   string
}

const defaultScanPageSize = 1000

// AudienceFinder turns a selector into recipients by re-classifying the
// tenant's reachable contacts. Stored labels play no part.
type AudienceFinder struct {
	contacts interfaces.ContactStore
	pageSize int
}

// NewAudienceFinder scans candidates pageSize at a time.
func NewAudienceFinder(contacts interfaces.ContactStore, pageSize int) *AudienceFinder {
	if pageSize <= 0 {
		pageSize = defaultScanPageSize
	}
	return &AudienceFinder{contacts: contacts, pageSize: pageSize}
}

// Find returns up to limit matching recipients in candidate order: spend
// desc, visits desc, id asc. It pages through the tenant's reachable
// contacts until limit is met or they run out. An empty result is a
// NO_RECIPIENTS error.
func (f *AudienceFinder) Find(ctx context.Context, accountID string, c segments.Classifier, sel AudienceSelector, ch entities.Channel, now time.Time, limit int) ([]Recipient, error) {
	q := interfaces.CandidateQuery{AccountID: accountID, Channel: ch, Limit: f.pageSize}

	var out []Recipient
	for len(out) < limit {
		page, err := f.contacts.ListReachable(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("list candidates: %w", err)
		}

		for i := range page {
			contact := &page[i]
			addr := contact.AddressFor(ch)
			if addr == "" || !segments.Matches(c, contact, sel.Segment, sel.Filter, now) {
				continue
			}
			out = append(out, Recipient{ContactID: contact.ID, Address: addr})
			if len(out) == limit {
				break
			}
		}

		if len(page) < q.Limit {
			break
		}
		last := page[len(page)-1]
		q.After = &interfaces.CandidateCursor{SpendCents: last.LifetimeSpendCents, Visits: last.Visits, ID: last.ID}
	}

	if len(out) == 0 {
		return nil, apperrors.NoRecipients(noRecipientsMessage(sel, ch))
	}
	return out, nil
}

func noRecipientsMessage(sel AudienceSelector, ch entities.Channel) string {
	switch sel.Filter {
	case segments.FilterBirthdayWeek:
		return fmt.Sprintf("No %s contacts with birthdays in the configured window.", sel.Segment)
	case segments.FilterAtRisk, segments.FilterCold:
		return fmt.Sprintf("No %s contacts are %s and reachable by %s.", sel.Segment, sel.Filter, ch)
	default:
		return fmt.Sprintf("No %s contacts are reachable by %s.", sel.Segment, ch)
	}
}
