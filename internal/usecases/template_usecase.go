package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"project_outreach/internal/apperrors"
	"project_outreach/internal/entities"
	"project_outreach/internal/interfaces"
	"project_outreach/internal/repository"
	"project_outreach/internal/segments"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type NewTemplateInput struct {
	Name    string `json:"name" validate:"required,max=100"`
	Segment string `json:"segment"`
	Body    string `json:"body" validate:"required"`
}

type TemplateList struct {
	AccountID string              `json:"account_id"`
	Templates []entities.Template `json:"templates"`
	Quick     []QuickTemplate     `json:"quick_templates"`
}

// TemplateUsecase manages saved broadcast bodies. A template may be
// bound to one segment of the tenant's vertical.
type TemplateUsecase struct {
	templates     interfaces.TemplateStore
	policy        *SegmentPolicy
	validate      *validator.Validate
	maxBodyLength int
	log           *zap.Logger
}

func NewTemplateUsecase(templates interfaces.TemplateStore, policy *SegmentPolicy, maxBodyLength int, log *zap.Logger) *TemplateUsecase {
	return &TemplateUsecase{
		templates:     templates,
		policy:        policy,
		validate:      validator.New(),
		maxBodyLength: maxBodyLength,
		log:           log,
	}
}

func (u *TemplateUsecase) List(ctx context.Context, acc *entities.Account) (*TemplateList, error) {
	templates, err := u.templates.List(ctx, acc.ID)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	quick := QuickTemplatesFor(acc.Vertical)
	if quick == nil {
		quick = []QuickTemplate{}
	}
	return &TemplateList{AccountID: acc.ID, Templates: templates, Quick: quick}, nil
}

// Create stores a tenant template. Tenants cannot create shared defaults.
func (u *TemplateUsecase) Create(ctx context.Context, acc *entities.Account, in NewTemplateInput) (*entities.Template, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Body = strings.TrimSpace(in.Body)
	in.Segment = strings.ToUpper(strings.TrimSpace(in.Segment))
	if err := u.validate.Struct(in); err != nil {
		return nil, apperrors.Validation(fmt.Sprintf("Invalid template: %v", err))
	}
	if n := utf8.RuneCountInString(in.Body); u.maxBodyLength > 0 && n > u.maxBodyLength {
		return nil, apperrors.Validation(fmt.Sprintf("Template body is %d characters; the limit is %d.", n, u.maxBodyLength))
	}

	if in.Segment != "" {
		c, err := u.policy.Classifier(ctx, acc)
		if err != nil {
			return nil, err
		}
		if err := (AudienceSelector{Segment: in.Segment, Filter: segments.FilterAll}).Validate(c); err != nil {
			return nil, err
		}
	}

	accountID := acc.ID
	t := &entities.Template{
		ID:        uuid.NewString(),
		AccountID: &accountID,
		Name:      in.Name,
		Segment:   in.Segment,
		Body:      in.Body,
	}
	if err := u.templates.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}
	u.log.Info("template created", zap.String("account_id", acc.ID), zap.String("template_id", t.ID))
	return t, nil
}

// Body returns the text of a template the tenant can see. id may name a
// quick template of the tenant's vertical. Anything else is AUTH.
func (u *TemplateUsecase) Body(ctx context.Context, acc *entities.Account, id string) (string, error) {
	if q, ok := findQuickTemplate(acc.Vertical, id); ok {
		return q.Body, nil
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", apperrors.NotFound()
	}

	t, err := u.templates.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return "", apperrors.NotFound()
	}
	if err != nil {
		return "", fmt.Errorf("load template: %w", err)
	}
	if !t.VisibleTo(acc.ID) {
		return "", apperrors.NotFound()
	}
	return t.Body, nil
}
