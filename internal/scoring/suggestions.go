package scoring

import "github.com/roach88/attune/internal/domain"

type suggestion struct {
	bestFor []string
	avoid   []string
}

var alignmentSuggestions = map[domain.Alignment]suggestion{
	domain.AlignmentStrong: {
		bestFor: []string{"important meetings", "starting projects", "difficult conversations"},
		avoid:   []string{"idle scrolling"},
	},
	domain.AlignmentModerate: {
		bestFor: []string{"routine work", "planning", "light exercise"},
		avoid:   []string{"major commitments"},
	},
	domain.AlignmentChallenging: {
		bestFor: []string{"rest", "reflection", "admin tasks"},
		avoid:   []string{"high-stakes decisions", "confrontation"},
	},
}

// dominantSuggestions adds one activity per dominant model label. Labels
// without an entry add nothing.
var dominantSuggestions = map[string]suggestion{
	"new_beginnings":   {bestFor: []string{"launching"}},
	"expression":       {bestFor: []string{"creative work"}},
	"abundance":        {bestFor: []string{"negotiation"}},
	"master_builder":   {bestFor: []string{"long-term planning"}},
	"reflection":       {bestFor: []string{"journaling"}},
	"resonant":         {bestFor: []string{"personal goals"}},
	"discordant":       {avoid: []string{"forcing outcomes"}},
	"karmic_debt":      {avoid: []string{"repeating old patterns"}},
	"karmic_release":   {bestFor: []string{"letting go"}},
	"high_cycle":       {bestFor: []string{"intense workouts"}},
	"low_cycle":        {avoid: []string{"overexertion"}},
	"birth_weekday":    {bestFor: []string{"self-directed work"}},
	"full_moon":        {bestFor: []string{"social events"}},
	"new_moon":         {bestFor: []string{"setting intentions"}},
	"long_daylight":    {bestFor: []string{"outdoor activity"}},
	"short_daylight":   {avoid: []string{"late nights"}},
	"clear":            {bestFor: []string{"outdoor activity"}},
	"storm":            {avoid: []string{"travel"}},
	"opposing_weekday": {avoid: []string{"overcommitting"}},
}

// suggestionsFor derives bestFor/avoid. Output order is fixed: alignment
// entries first, then the dominant label's entries not already present.
func suggestionsFor(alignment domain.Alignment, dominantLabel string) (bestFor, avoid []string) {
	base := alignmentSuggestions[alignment]
	extra := dominantSuggestions[dominantLabel]
	return appendUnique(base.bestFor, extra.bestFor), appendUnique(base.avoid, extra.avoid)
}

func appendUnique(base, extra []string) []string {
	out := make([]string, 0, len(base)+len(extra))
	seen := make(map[string]bool, len(base)+len(extra))
	for _, s := range append(append([]string{}, base...), extra...) {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
