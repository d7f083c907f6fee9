package usecases

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"project_outreach/internal/apperrors"
	"project_outreach/internal/entities"

	"github.com/google/uuid"
)

// MaxImportRows bounds one CSV upload.
const MaxImportRows = 10_000

type ImportRowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

type ImportReport struct {
	AccountID string           `json:"account_id"`
	Imported  int              `json:"imported"`
	Skipped   int              `json:"skipped"`
	Errors    []ImportRowError `json:"errors"`
}

var headerCleaner = regexp.MustCompile("[^a-z0-9_]+")

// headerAliases maps the column names exports commonly use onto contact
// fields.
var headerAliases = map[string]string{
	"name":                 "display_name",
	"display_name":         "display_name",
	"phone":                "phone",
	"phone_number":         "phone",
	"telegram":             "telegram_chat_id",
	"telegram_chat_id":     "telegram_chat_id",
	"spend_cents":          "lifetime_spend_cents",
	"lifetime_spend_cents": "lifetime_spend_cents",
	"visits":               "visits",
	"last_activity":        "last_activity_at",
	"last_activity_at":     "last_activity_at",
	"last_visit":           "last_activity_at",
	"joined":               "joined_at",
	"joined_at":            "joined_at",
	"special_date":         "special_date",
	"birthday":             "special_date",
	"renewal_date":         "special_date",
	"tier":                 "label",
	"segment":              "label",
	"label":                "label",
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.Trim(headerCleaner.ReplaceAllString(h, "_"), "_")
}

var importDateLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

func parseImportTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range importDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognized date %q", s)
}

type importRow struct {
	in    NewContactInput
	label string
}

func rowInput(fields map[string]string) (importRow, error) {
	var r importRow
	r.in.DisplayName = fields["display_name"]
	r.in.Phone = fields["phone"]
	r.in.TelegramChatID = fields["telegram_chat_id"]
	r.label = strings.ToUpper(fields["label"])

	if v := fields["lifetime_spend_cents"]; v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return r, fmt.Errorf("lifetime_spend_cents: %q is not a whole number", v)
		}
		r.in.LifetimeSpendCents = n
	}
	if v := fields["visits"]; v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return r, fmt.Errorf("visits: %q is not a whole number", v)
		}
		r.in.Visits = n
	}

	var err error
	if r.in.LastActivityAt, err = parseImportTime(fields["last_activity_at"]); err != nil {
		return r, fmt.Errorf("last_activity_at: %w", err)
	}
	if r.in.JoinedAt, err = parseImportTime(fields["joined_at"]); err != nil {
		return r, fmt.Errorf("joined_at: %w", err)
	}
	if r.in.SpecialDate, err = parseImportTime(fields["special_date"]); err != nil {
		return r, fmt.Errorf("special_date: %w", err)
	}
	return r, nil
}

// Import loads contacts from CSV with a header row. Rows that fail to
// parse or validate are reported and skipped; the rest are inserted
// together. A label column is kept as the stored label for display only.
func (u *ContactUsecase) Import(ctx context.Context, acc *entities.Account, data io.Reader) (*ImportReport, error) {
	reader := csv.NewReader(data)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, apperrors.Validation("CSV is empty")
	}
	if err != nil {
		return nil, apperrors.Validation(fmt.Sprintf("Failed to read CSV: %v", err))
	}

	columns := make([]string, len(header))
	known := false
	for i, h := range header {
		columns[i] = headerAliases[normalizeHeader(h)]
		if columns[i] == "display_name" {
			known = true
		}
	}
	if !known {
		return nil, apperrors.Validation("CSV needs a name or display_name column")
	}

	c, err := u.policy.Classifier(ctx, acc)
	if err != nil {
		return nil, err
	}

	report := &ImportReport{AccountID: acc.ID, Errors: []ImportRowError{}}
	now := u.now()
	var contacts []entities.Contact

	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.Validation(fmt.Sprintf("Failed to read CSV at row %d: %v", line, err))
		}
		if line-1 > MaxImportRows {
			return nil, apperrors.Validation(fmt.Sprintf("CSV has more than %d rows", MaxImportRows))
		}

		fields := make(map[string]string, len(columns))
		for i, v := range record {
			if i < len(columns) && columns[i] != "" {
				fields[columns[i]] = strings.TrimSpace(v)
			}
		}

		row, err := rowInput(fields)
		if err == nil {
			err = u.validate.Struct(row.in)
		}
		if err != nil {
			report.Skipped++
			report.Errors = append(report.Errors, ImportRowError{Row: line, Reason: err.Error()})
			continue
		}

		contact := contactFromInput(acc.ID, row.in)
		contact.StoredLabel = row.label
		if contact.StoredLabel == "" {
			contact.StoredLabel = c.Segment(&contact, now)
		}
		contacts = append(contacts, contact)
	}

	n, err := u.contacts.CreateMany(ctx, contacts)
	if err != nil {
		return nil, fmt.Errorf("import contacts: %w", err)
	}
	report.Imported = n
	return report, nil
}

func contactFromInput(accountID string, in NewContactInput) entities.Contact {
	return entities.Contact{
		ID:                 uuid.NewString(),
		AccountID:          accountID,
		DisplayName:        in.DisplayName,
		Phone:              in.Phone,
		TelegramChatID:     in.TelegramChatID,
		LifetimeSpendCents: in.LifetimeSpendCents,
		Visits:             in.Visits,
		LastActivityAt:     in.LastActivityAt,
		JoinedAt:           in.JoinedAt,
		SpecialDate:        in.SpecialDate,
	}
}
