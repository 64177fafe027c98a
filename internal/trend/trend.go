// Package trend summarizes sequences of daily readings into windowed trends
// and rule-based insights.
package trend

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/roach88/attune/internal/domain"
)

// Supported trend windows in days.
const (
	WeekWindow  = 7
	MonthWindow = 30
)

// ValidWindow reports whether w is a supported window.
func ValidWindow(w int) bool {
	return w == WeekWindow || w == MonthWindow
}

// Insight rule ids, in firing order.
const (
	RuleRising      = "rising_energy"
	RuleFalling     = "falling_energy"
	RuleStrongDays  = "strong_days"
	RuleChallenging = "challenging_days"
	RuleBestWeekday = "best_weekday"
	RuleWideSwing   = "wide_swing"
)

// Config holds the insight thresholds.
type Config struct {
	// TrendThreshold is the minimum half-over-half change in average
	// composite that counts as rising or falling.
	TrendThreshold float64
	// SwingRange is the max-min spread at which the wide swing rule fires.
	SwingRange int
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{TrendThreshold: 5, SwingRange: 30}
}

// DayScore identifies one day's composite.
type DayScore struct {
	Date      domain.Date `json:"date"`
	Composite int         `json:"composite"`
}

// Insight is one fired rule with its filled template.
type Insight struct {
	Rule string `json:"rule"`
	Text string `json:"text"`
}

// Summary is the aggregate of one window of readings.
type Summary struct {
	Window           int       `json:"window"`
	Days             int       `json:"days"`
	AverageComposite float64   `json:"average_composite"`
	BestDay          *DayScore `json:"best_day,omitempty"`
	WorstDay         *DayScore `json:"worst_day,omitempty"`
	Insights         []Insight `json:"insights"`
	// Insufficient is set when the window holds no readings.
	Insufficient bool `json:"insufficient"`
}

// Aggregator computes summaries under a fixed Config.
type Aggregator struct {
	cfg Config
}

// NewAggregator creates an aggregator.
func NewAggregator(cfg Config) *Aggregator {
	return &Aggregator{cfg: cfg}
}

// Aggregate orders readings by date and summarizes the last window of them.
// Window must be 7 or 30.
func (a *Aggregator) Aggregate(readings []domain.DailyEnergyReading, window int) (Summary, error) {
	if !ValidWindow(window) {
		return Summary{}, domain.NewValidationError("window", "window must be %d or %d, got %d", WeekWindow, MonthWindow, window)
	}
	sorted := sortByDate(readings)
	if len(sorted) > window {
		sorted = sorted[len(sorted)-window:]
	}
	s := a.summarize(sorted)
	s.Window = window
	return s, nil
}

// Summarize applies the same rules to every reading supplied, with no
// window cut. Forecasts use it over forward-computed readings.
func (a *Aggregator) Summarize(readings []domain.DailyEnergyReading) Summary {
	sorted := sortByDate(readings)
	s := a.summarize(sorted)
	s.Window = len(sorted)
	return s
}

func sortByDate(readings []domain.DailyEnergyReading) []domain.DailyEnergyReading {
	out := make([]domain.DailyEnergyReading, len(readings))
	copy(out, readings)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

func (a *Aggregator) summarize(readings []domain.DailyEnergyReading) Summary {
	s := Summary{Days: len(readings), Insights: []Insight{}}
	if len(readings) == 0 {
		s.Insufficient = true
		return s
	}

	best, worst := readings[0], readings[0]
	sum := 0
	for _, r := range readings {
		sum += r.Composite
		// Strict comparisons keep the earliest date on ties.
		if r.Composite > best.Composite {
			best = r
		}
		if r.Composite < worst.Composite {
			worst = r
		}
	}
	s.AverageComposite = round1(float64(sum) / float64(len(readings)))
	s.BestDay = &DayScore{Date: best.Date, Composite: best.Composite}
	s.WorstDay = &DayScore{Date: worst.Date, Composite: worst.Composite}

	s.Insights = a.insights(readings, best.Composite, worst.Composite)
	return s
}

// insights runs every rule independently; all that apply fire.
func (a *Aggregator) insights(readings []domain.DailyEnergyReading, hi, lo int) []Insight {
	out := []Insight{}
	n := len(readings)

	if n >= 2 {
		half := n / 2
		first := mean(readings[:half])
		second := mean(readings[n-half:])
		switch delta := second - first; {
		case delta >= a.cfg.TrendThreshold:
			out = append(out, Insight{RuleRising, fmt.Sprintf(
				"Energy is rising: second half averaged %s vs %s in the first half.", fmt1(second), fmt1(first))})
		case -delta >= a.cfg.TrendThreshold:
			out = append(out, Insight{RuleFalling, fmt.Sprintf(
				"Energy is falling: second half averaged %s vs %s in the first half.", fmt1(second), fmt1(first))})
		}
	}

	strong, challenging := 0, 0
	for _, r := range readings {
		switch domain.AlignmentFor(r.Composite) {
		case domain.AlignmentStrong:
			strong++
		case domain.AlignmentChallenging:
			challenging++
		}
	}
	if strong > 0 {
		out = append(out, Insight{RuleStrongDays, fmt.Sprintf(
			"Strong days: %d of %d (%d or higher).", strong, n, domain.StrongThreshold)})
	}
	if challenging > 0 {
		out = append(out, Insight{RuleChallenging, fmt.Sprintf(
			"Challenging days: %d of %d (below %d).", challenging, n, domain.ModerateThreshold)})
	}

	if wd, avg, ok := bestWeekday(readings); ok {
		out = append(out, Insight{RuleBestWeekday, fmt.Sprintf(
			"%s is your strongest day, averaging %s.", wd, fmt1(avg))})
	}

	if hi-lo >= a.cfg.SwingRange {
		out = append(out, Insight{RuleWideSwing, fmt.Sprintf(
			"Wide swing: scores ranged from %d to %d.", lo, hi)})
	}
	return out
}

// bestWeekday finds the weekday with the highest average composite. Ties
// resolve to the weekday seen first. It needs at least two distinct weekdays.
func bestWeekday(readings []domain.DailyEnergyReading) (time.Weekday, float64, bool) {
	type acc struct{ sum, count int }
	totals := make(map[time.Weekday]*acc, 7)
	order := make([]time.Weekday, 0, 7)
	for _, r := range readings {
		wd := r.Date.Weekday()
		if totals[wd] == nil {
			totals[wd] = &acc{}
			order = append(order, wd)
		}
		totals[wd].sum += r.Composite
		totals[wd].count++
	}
	if len(order) < 2 {
		return 0, 0, false
	}

	best, bestAvg := order[0], math.Inf(-1)
	for _, wd := range order {
		avg := float64(totals[wd].sum) / float64(totals[wd].count)
		if avg > bestAvg {
			best, bestAvg = wd, avg
		}
	}
	return best, bestAvg, true
}

func mean(readings []domain.DailyEnergyReading) float64 {
	sum := 0
	for _, r := range readings {
		sum += r.Composite
	}
	return float64(sum) / float64(len(readings))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func fmt1(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// CanonicalJSON returns the deterministic encoding of the summary.
func (s Summary) CanonicalJSON() ([]byte, error) {
	insights := make([]any, len(s.Insights))
	for i, in := range s.Insights {
		insights[i] = map[string]any{"rule": in.Rule, "text": in.Text}
	}
	obj := map[string]any{
		"window":            s.Window,
		"days":              s.Days,
		"average_composite": s.AverageComposite,
		"insights":          insights,
		"insufficient":      s.Insufficient,
	}
	if s.BestDay != nil {
		obj["best_day"] = map[string]any{"date": s.BestDay.Date.String(), "composite": s.BestDay.Composite}
	}
	if s.WorstDay != nil {
		obj["worst_day"] = map[string]any{"date": s.WorstDay.Date.String(), "composite": s.WorstDay.Composite}
	}
	return domain.MarshalCanonical(obj)
}
