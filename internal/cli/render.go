package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/roach88/attune/internal/domain"
	"github.com/roach88/attune/internal/engine"
	"github.com/roach88/attune/internal/trend"
)

func renderProfile(w io.Writer, p domain.BirthProfile) {
	fmt.Fprintf(w, "%s  %s  born %s", p.ID, p.Name, p.BirthDate)
	if p.BirthPlace != nil {
		fmt.Fprintf(w, "  in %s (%.4f, %.4f)", p.BirthPlace.Name, p.BirthPlace.Latitude, p.BirthPlace.Longitude)
	}
	fmt.Fprintln(w)
}

func renderReading(w io.Writer, r domain.DailyEnergyReading) {
	fmt.Fprintf(w, "%s  composite %d  confidence %d  %s\n", r.Date, r.Composite, r.Confidence, r.Alignment)
	if r.Incomplete {
		fmt.Fprintln(w, "  (incomplete: no model could compute)")
	}
	for _, m := range r.Models {
		marker := " "
		if m.ModelID == r.Dominant {
			marker = "*"
		}
		fmt.Fprintf(w, " %s %-12s %3d  %-20s weight %.2f\n", marker, m.ModelID, m.SubScore, m.Label, m.EffectiveWeight)
	}
	if len(r.Skipped) > 0 {
		ids := make([]string, len(r.Skipped))
		for i, id := range r.Skipped {
			ids[i] = string(id)
		}
		fmt.Fprintf(w, "  skipped: %s\n", strings.Join(ids, ", "))
	}
	if len(r.BestFor) > 0 {
		fmt.Fprintf(w, "  best for: %s\n", strings.Join(r.BestFor, ", "))
	}
	if len(r.Avoid) > 0 {
		fmt.Fprintf(w, "  avoid: %s\n", strings.Join(r.Avoid, ", "))
	}
}

func renderSummary(w io.Writer, s trend.Summary) {
	if s.Insufficient {
		fmt.Fprintln(w, "No readings in window.")
		return
	}
	fmt.Fprintf(w, "%d-day window, %d readings, average %.1f\n", s.Window, s.Days, s.AverageComposite)
	if s.BestDay != nil {
		fmt.Fprintf(w, "  best:  %s (%d)\n", s.BestDay.Date, s.BestDay.Composite)
	}
	if s.WorstDay != nil {
		fmt.Fprintf(w, "  worst: %s (%d)\n", s.WorstDay.Date, s.WorstDay.Composite)
	}
	for _, in := range s.Insights {
		fmt.Fprintf(w, "  - %s\n", in.Text)
	}
}

func renderForecast(w io.Writer, f engine.Forecast) {
	fmt.Fprintf(w, "Forecast for %s from %s (%d days)\n", f.ProfileID, f.From, f.Days)
	for _, r := range f.Readings {
		fmt.Fprintf(w, "  %s  %3d  %-11s %s\n", r.Date, r.Composite, r.Alignment, r.Dominant)
	}
	renderSummary(w, f.Summary)
}

func renderOutcome(w io.Writer, o domain.OutcomeRecord) {
	advice := "ignored advice"
	if o.FollowedAdvice {
		advice = "followed advice"
	}
	fmt.Fprintf(w, "%s  %s  %-14s %-8s score %3d  %s\n", o.ID, o.Date, o.ActivityType, o.Result, o.CompositeScoreAtLogging, advice)
}

func renderPersonalization(w io.Writer, p domain.PersonalizationProfile, refreshed bool) {
	if refreshed {
		fmt.Fprintln(w, "Recomputed.")
	}
	if p.Insufficient() {
		fmt.Fprintf(w, "Not enough outcomes yet (%d logged).\n", p.TotalOutcomesConsidered)
	} else {
		fmt.Fprintf(w, "Prediction accuracy %d%% over %d predictions (%d outcomes)\n",
			p.OverallAccuracy, p.PredictionsConsidered, p.TotalOutcomesConsidered)
	}
	for _, f := range p.Factors {
		state := "inactive"
		if f.Active() {
			state = "active"
		}
		fmt.Fprintf(w, "  %-12s delta %+.2f  n=%d  confidence %d  (%.0f%% vs %.0f%%)  %s\n",
			f.FactorID, f.WeightDelta, f.SampleSize, f.Confidence,
			f.SuccessRateHigh*100, f.SuccessRateBaseline*100, state)
	}
}
