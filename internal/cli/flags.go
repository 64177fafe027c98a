package cli

import (
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/attune/internal/domain"
	"github.com/roach88/attune/internal/engine"
)

// clock returns the override clock or the system clock.
func (o *RootOptions) clock() engine.Clock {
	if o.Clock != nil {
		return o.Clock
	}
	return engine.SystemClock{}
}

// parseDateFlag parses a YYYY-MM-DD flag value. Empty means today.
func parseDateFlag(opts *RootOptions, flag, value string) (domain.Date, error) {
	if value == "" {
		return domain.DateOf(opts.clock().Now()), nil
	}
	d, err := domain.ParseDate(value)
	if err != nil {
		return domain.Date{}, domain.NewValidationError(flag, "expected YYYY-MM-DD, got %q", value)
	}
	return d, nil
}

// envFlags are the optional caller environment flags shared by commands
// that compute readings.
type envFlags struct {
	Condition string
	TempC     float64
	Events    int
}

func (f *envFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Condition, "condition", "", "weather condition (sunny, cloudy, rain, ...)")
	cmd.Flags().Float64Var(&f.TempC, "temp", 0, "temperature in Celsius (requires --condition)")
	cmd.Flags().IntVar(&f.Events, "events", 0, "number of scheduled events")
}

// environment builds the caller environment from the flags that were set.
// Weather needs both --condition and --temp.
func (f *envFlags) environment(cmd *cobra.Command) (*domain.Environment, error) {
	hasCond := cmd.Flags().Changed("condition")
	hasTemp := cmd.Flags().Changed("temp")
	hasEvents := cmd.Flags().Changed("events")

	if hasCond != hasTemp {
		return nil, domain.NewValidationError("weather", "--condition and --temp must be given together")
	}
	if !hasCond && !hasEvents {
		return nil, nil
	}

	env := &domain.Environment{}
	if hasCond {
		if strings.TrimSpace(f.Condition) == "" {
			return nil, domain.NewValidationError("condition", "condition must not be empty")
		}
		if math.IsNaN(f.TempC) || math.IsInf(f.TempC, 0) {
			return nil, domain.NewValidationError("temp", "temperature must be finite")
		}
		env.Weather = &domain.Weather{Condition: f.Condition, TemperatureC: f.TempC}
	}
	if hasEvents {
		if f.Events < 0 {
			return nil, domain.NewValidationError("events", "scheduled events must not be negative")
		}
		events := f.Events
		env.ScheduledEvents = &events
	}
	return env, nil
}

// parseSignals parses repeated name=value pairs.
func parseSignals(pairs []string) (map[string]float64, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]float64, len(pairs))
	for _, p := range pairs {
		name, raw, ok := strings.Cut(p, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, domain.NewValidationError("signal", "expected name=value, got %q", p)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, domain.NewValidationError("signal", "signal %s: %q is not a number", name, raw)
		}
		out[name] = v
	}
	return out, nil
}
