package usecases

import (
	"context"
	"fmt"

	"project_outreach/internal/entities"
	"project_outreach/internal/interfaces"
	"project_outreach/internal/segments"

	"go.uber.org/zap"
)

// SegmentPolicy picks the classifier for a tenant: the vertical decides
// the taxonomy, stored overrides adjust the thresholds.
type SegmentPolicy struct {
	defaults  segments.Config
	overrides interfaces.SegmentConfigStore
	log       *zap.Logger
}

func NewSegmentPolicy(defaults segments.Config, overrides interfaces.SegmentConfigStore, log *zap.Logger) *SegmentPolicy {
	return &SegmentPolicy{defaults: defaults, overrides: overrides, log: log}
}

// ClassifierFor returns the strategy for vertical v under cfg.
func ClassifierFor(v entities.Vertical, cfg segments.Config) segments.Classifier {
	switch v {
	case entities.VerticalEntertainer:
		return segments.NewTierSegmenter(cfg.Tier)
	case entities.VerticalVenue:
		return segments.NewVipSegmenter(cfg.Vip)
	default:
		return segments.NewFanSegmenter(cfg.Fan)
	}
}

// Config returns the thresholds in force for accountID. A stored
// override that no longer validates is ignored with a warning.
func (p *SegmentPolicy) Config(ctx context.Context, accountID string) (segments.Config, error) {
	if p.overrides == nil {
		return p.defaults, nil
	}
	raw, err := p.overrides.Get(ctx, accountID)
	if err != nil {
		return segments.Config{}, fmt.Errorf("load segment overrides: %w", err)
	}
	if len(raw) == 0 {
		return p.defaults, nil
	}
	cfg, err := p.defaults.Merge(raw)
	if err != nil {
		p.log.Warn("ignoring invalid segment overrides",
			zap.String("account_id", accountID),
			zap.Error(err),
		)
		return p.defaults, nil
	}
	return cfg, nil
}

func (p *SegmentPolicy) Classifier(ctx context.Context, account *entities.Account) (segments.Classifier, error) {
	cfg, err := p.Config(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	return ClassifierFor(account.Vertical, cfg), nil
}

// SetOverrides validates raw against the defaults before storing it and
// returns the effective thresholds.
func (p *SegmentPolicy) SetOverrides(ctx context.Context, accountID string, raw []byte) (segments.Config, error) {
	if p.overrides == nil {
		return segments.Config{}, fmt.Errorf("segment overrides are not enabled")
	}
	cfg, err := p.defaults.Merge(raw)
	if err != nil {
		return segments.Config{}, err
	}
	if err := p.overrides.Set(ctx, accountID, raw); err != nil {
		return segments.Config{}, fmt.Errorf("store segment overrides: %w", err)
	}
	return cfg, nil
}
