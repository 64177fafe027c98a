package trend

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/attune/internal/domain"
)

var start = domain.MustParseDate("2024-03-01")

func series(scores ...int) []domain.DailyEnergyReading {
	out := make([]domain.DailyEnergyReading, len(scores))
	for i, s := range scores {
		out[i] = domain.DailyEnergyReading{
			ProfileID: "u1",
			Date:      start.AddDays(i),
			Composite: s,
			Alignment: domain.AlignmentFor(s),
		}
	}
	return out
}

func rules(s Summary) []string {
	out := make([]string, len(s.Insights))
	for i, in := range s.Insights {
		out[i] = in.Rule
	}
	return out
}

func TestAggregate_RisingWeek(t *testing.T) {
	a := NewAggregator(DefaultConfig())

	s, err := a.Aggregate(series(40, 48, 56, 65, 73, 82, 90), WeekWindow)
	require.NoError(t, err)

	assert.Contains(t, rules(s), RuleRising)
	require.NotNil(t, s.BestDay)
	assert.Equal(t, "2024-03-07", s.BestDay.Date.String())
	assert.Equal(t, 90, s.BestDay.Composite)
	assert.Equal(t, "2024-03-01", s.WorstDay.Date.String())
	assert.Equal(t, 64.9, s.AverageComposite)

	got, err := s.CanonicalJSON()
	require.NoError(t, err)
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "rising_week", got)
}

func TestAggregate_Falling(t *testing.T) {
	a := NewAggregator(DefaultConfig())

	s, err := a.Aggregate(series(70, 66, 62, 60, 58, 55, 50), WeekWindow)
	require.NoError(t, err)

	assert.Equal(t, []string{RuleFalling, RuleStrongDays, RuleBestWeekday}, rules(s))
	assert.Equal(t, "Energy is falling: second half averaged 54.3 vs 66.0 in the first half.", s.Insights[0].Text)
}

func TestAggregate_FlatWeekIsQuiet(t *testing.T) {
	a := NewAggregator(DefaultConfig())

	s, err := a.Aggregate(series(60, 60, 60, 60, 60, 60, 60), WeekWindow)
	require.NoError(t, err)

	// Every weekday ties; the first one seen wins.
	assert.Equal(t, []string{RuleBestWeekday}, rules(s))
	assert.Equal(t, "Friday is your strongest day, averaging 60.0.", s.Insights[0].Text)
	assert.Equal(t, "2024-03-01", s.BestDay.Date.String(), "ties resolve to the earliest date")
	assert.Equal(t, "2024-03-01", s.WorstDay.Date.String())
}

func TestAggregate_TrimsToWindow(t *testing.T) {
	a := NewAggregator(DefaultConfig())
	scores := make([]int, 40)
	for i := range scores {
		scores[i] = 50
	}
	scores[0] = 99 // outside the last 30 days

	s, err := a.Aggregate(series(scores...), MonthWindow)
	require.NoError(t, err)
	assert.Equal(t, 30, s.Days)
	assert.Equal(t, 30, s.Window)
	assert.Equal(t, 50, s.BestDay.Composite)
	assert.Equal(t, "2024-03-11", s.BestDay.Date.String())
}

func TestAggregate_UnorderedInput(t *testing.T) {
	a := NewAggregator(DefaultConfig())
	readings := series(40, 48, 56, 65, 73, 82, 90)
	reversed := make([]domain.DailyEnergyReading, len(readings))
	for i, r := range readings {
		reversed[len(readings)-1-i] = r
	}

	s, err := a.Aggregate(reversed, WeekWindow)
	require.NoError(t, err)
	assert.Equal(t, RuleRising, s.Insights[0].Rule)
	assert.Equal(t, 40, reversed[len(reversed)-1].Composite, "input is not mutated")
}

func TestAggregate_InvalidWindow(t *testing.T) {
	a := NewAggregator(DefaultConfig())
	for _, w := range []int{0, 1, 14, 31, -7} {
		_, err := a.Aggregate(series(50), w)
		require.Error(t, err)
		assert.True(t, domain.IsValidationError(err))
	}
}

func TestAggregate_Empty(t *testing.T) {
	a := NewAggregator(DefaultConfig())

	s, err := a.Aggregate(nil, WeekWindow)
	require.NoError(t, err)
	assert.True(t, s.Insufficient)
	assert.Nil(t, s.BestDay)
	assert.Empty(t, s.Insights)

	got, err := s.CanonicalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"average_composite":0,"days":0,"insights":[],"insufficient":true,"window":7}`, string(got))
}

func TestAggregate_SingleReading(t *testing.T) {
	a := NewAggregator(DefaultConfig())

	s, err := a.Aggregate(series(30), WeekWindow)
	require.NoError(t, err)
	assert.Equal(t, []string{RuleChallenging}, rules(s))
	assert.Equal(t, 30.0, s.AverageComposite)
}

func TestAggregate_ConfigThresholds(t *testing.T) {
	a := NewAggregator(Config{TrendThreshold: 50, SwingRange: 100})

	s, err := a.Aggregate(series(40, 48, 56, 65, 73, 82, 90), WeekWindow)
	require.NoError(t, err)
	assert.NotContains(t, rules(s), RuleRising)
	assert.NotContains(t, rules(s), RuleWideSwing)
}

func TestSummarize_Forecast(t *testing.T) {
	a := NewAggregator(DefaultConfig())

	s := a.Summarize(series(50, 52, 75, 80, 81))
	assert.Equal(t, 5, s.Window)
	assert.Equal(t, 5, s.Days)
	assert.Equal(t, RuleRising, s.Insights[0].Rule)
	assert.Equal(t, "2024-03-05", s.BestDay.Date.String())
}
