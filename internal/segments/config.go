package segments

import (
	"encoding/json"
	"fmt"

	"project_outreach/internal/apperrors"

	"github.com/go-playground/validator/v10"
)

// Config holds every threshold the classifiers use. Spend values are in
// minor currency units.
type Config struct {
	Fan  FanConfig  `mapstructure:"fan" json:"fan"`
	Tier TierConfig `mapstructure:"tier" json:"tier"`
	Vip  VipConfig  `mapstructure:"vip" json:"vip"`
}

type FanConfig struct {
	WhaleSpendCents    int64 `mapstructure:"whale_spend_cents" json:"whale_spend_cents" validate:"gtefield=MidSpendCents"`
	MidSpendCents      int64 `mapstructure:"mid_spend_cents" json:"mid_spend_cents" validate:"gt=0"`
	NewWindowDays      int   `mapstructure:"new_window_days" json:"new_window_days" validate:"gte=0"`
	ExpiringWindowDays int   `mapstructure:"expiring_window_days" json:"expiring_window_days" validate:"gte=0"`
	GhostAfterDays     int   `mapstructure:"ghost_after_days" json:"ghost_after_days" validate:"gt=0"`
}

type TierConfig struct {
	WhaleSpendCents   int64 `mapstructure:"whale_spend_cents" json:"whale_spend_cents" validate:"gtefield=RegularSpendCents"`
	RegularSpendCents int64 `mapstructure:"regular_spend_cents" json:"regular_spend_cents" validate:"gt=0"`
	WhaleVisits       int   `mapstructure:"whale_visits" json:"whale_visits" validate:"gtefield=RegularVisits"`
	RegularVisits     int   `mapstructure:"regular_visits" json:"regular_visits" validate:"gt=0"`
	ActiveWithinDays  int   `mapstructure:"active_within_days" json:"active_within_days" validate:"gte=0"`
	AtRiskWithinDays  int   `mapstructure:"at_risk_within_days" json:"at_risk_within_days" validate:"gtefield=ActiveWithinDays"`
}

type VipConfig struct {
	BronzeSpendCents   int64 `mapstructure:"bronze_spend_cents" json:"bronze_spend_cents" validate:"gt=0"`
	SilverSpendCents   int64 `mapstructure:"silver_spend_cents" json:"silver_spend_cents" validate:"gtefield=BronzeSpendCents"`
	GoldSpendCents     int64 `mapstructure:"gold_spend_cents" json:"gold_spend_cents" validate:"gtefield=SilverSpendCents"`
	PlatinumSpendCents int64 `mapstructure:"platinum_spend_cents" json:"platinum_spend_cents" validate:"gtefield=GoldSpendCents"`
	BronzeVisits       int   `mapstructure:"bronze_visits" json:"bronze_visits" validate:"gt=0"`
	SilverVisits       int   `mapstructure:"silver_visits" json:"silver_visits" validate:"gtefield=BronzeVisits"`
	GoldVisits         int   `mapstructure:"gold_visits" json:"gold_visits" validate:"gtefield=SilverVisits"`
	PlatinumVisits     int   `mapstructure:"platinum_visits" json:"platinum_visits" validate:"gtefield=GoldVisits"`
	ActiveWithinDays   int   `mapstructure:"active_within_days" json:"active_within_days" validate:"gte=0"`
	AtRiskWithinDays   int   `mapstructure:"at_risk_within_days" json:"at_risk_within_days" validate:"gtefield=ActiveWithinDays"`
	BirthdayWindowDays int   `mapstructure:"birthday_window_days" json:"birthday_window_days" validate:"gte=0,lte=366"`
}

func DefaultConfig() Config {
	return Config{
		Fan: FanConfig{
			WhaleSpendCents:    50_000,
			MidSpendCents:      10_000,
			NewWindowDays:      7,
			ExpiringWindowDays: 3,
			GhostAfterDays:     30,
		},
		Tier: TierConfig{
			WhaleSpendCents:   100_000,
			RegularSpendCents: 20_000,
			WhaleVisits:       10,
			RegularVisits:     3,
			ActiveWithinDays:  21,
			AtRiskWithinDays:  45,
		},
		Vip: VipConfig{
			BronzeSpendCents:   20_000,
			SilverSpendCents:   50_000,
			GoldSpendCents:     150_000,
			PlatinumSpendCents: 500_000,
			BronzeVisits:       3,
			SilverVisits:       6,
			GoldVisits:         10,
			PlatinumVisits:     20,
			ActiveWithinDays:   30,
			AtRiskWithinDays:   90,
			BirthdayWindowDays: 7,
		},
	}
}

var validate = validator.New()

// Validate checks that every threshold is sane and that ordered tiers
// are monotonic.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid segment config: %w", err)
	}
	return nil
}

// Merge overlays a partial JSON document on top of c. Keys missing from
// raw keep their current value. Bad input is a VALIDATION error.
func (c Config) Merge(raw []byte) (Config, error) {
	merged := c
	if len(raw) == 0 {
		return merged, nil
	}
	if err := json.Unmarshal(raw, &merged); err != nil {
		return c, apperrors.Wrap(apperrors.ErrCodeValidation, "Segment config must be a JSON object of thresholds.", err)
	}
	if err := merged.Validate(); err != nil {
		return c, apperrors.Wrap(apperrors.ErrCodeValidation, err.Error(), err)
	}
	return merged, nil
}
