package segments

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChain_FirstMatchWins(t *testing.T) {
	always := func(Attributes, time.Time) bool { return true }
	never := func(Attributes, time.Time) bool { return false }

	c := NewChain("D",
		Rule[string]{Label: "A", When: never},
		Rule[string]{Label: "B", When: always},
		Rule[string]{Label: "C", When: always},
	)

	assert.Equal(t, "B", c.Evaluate(Attributes{}, now))
	assert.Equal(t, []string{"A", "B", "C", "D"}, c.Labels())
}

func TestChain_FallbackWhenNothingMatches(t *testing.T) {
	c := NewChain[string]("LOW")
	assert.Equal(t, "LOW", c.Evaluate(Attributes{}, now))
	assert.Equal(t, []string{"LOW"}, c.Labels())
}

// Every classifier assigns exactly one of its own labels to any input.
func TestClassifiers_AreTotal(t *testing.T) {
	cfg := DefaultConfig()
	classifiers := map[string]Classifier{
		"fan":  NewFanSegmenter(cfg.Fan),
		"tier": NewTierSegmenter(cfg.Tier),
		"vip":  NewVipSegmenter(cfg.Vip),
	}

	var inputs []Attributes
	for _, spend := range []int64{0, 1, 10_000, 20_000, 50_000, 100_000, 150_000, 500_000} {
		for _, visits := range []int{0, 1, 3, 6, 10, 20} {
			for _, last := range []*time.Time{nil, daysAgo(0), daysAgo(25), daysAgo(60), daysAgo(400)} {
				inputs = append(inputs, Attributes{SpendCents: spend, Visits: visits, LastActivity: last})
			}
		}
	}

	for name, c := range classifiers {
		t.Run(name, func(t *testing.T) {
			for _, a := range inputs {
				label := c.Segment(contact{attrs: a}, now)
				require.True(t, HasSegment(c, label), "label %q not in %v", label, c.Segments())
				assert.Equal(t, label, c.Segment(contact{attrs: a}, now), "not deterministic")
			}
		})
	}
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter("")
	require.NoError(t, err)
	assert.Equal(t, FilterAll, f)

	f, err = ParseFilter("birthday_week")
	require.NoError(t, err)
	assert.Equal(t, FilterBirthdayWeek, f)

	_, err = ParseFilter("LAPSED")
	assert.Error(t, err)
}

func TestFilter_Accepts(t *testing.T) {
	p := Profile{Segment: "GOLD", Activity: ActivityAtRisk}

	assert.True(t, FilterAll.Accepts(p))
	assert.True(t, FilterAtRisk.Accepts(p))
	assert.False(t, FilterCold.Accepts(p))
	assert.False(t, FilterBirthdayWeek.Accepts(p))
	assert.False(t, FilterCold.Accepts(Profile{Activity: ActivityUnknown}))
}
