package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"time"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces RFC 8785-style canonical JSON.
// This is the ONLY serialization used for reading identity, cache keys and
// stored reading payloads.
//
// Differences from json.Marshal:
//  1. Object keys sorted by UTF-16 code units
//  2. No HTML escaping
//  3. Strings are NFC normalized
//  4. Floats use the shortest round-trip decimal form; NaN and Inf are errors
//  5. nil is forbidden
//
// Supported inputs: string, bool, int, int64, float64, []any, map[string]any.
func MarshalCanonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		return fmt.Errorf("null is forbidden in canonical JSON")
	case string:
		return writeCanonicalString(buf, val)
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case int:
		buf.WriteString(strconv.Itoa(val))
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return fmt.Errorf("non-finite float in canonical JSON: %v", val)
		}
		if val == 0 {
			// -0 and 0 serialize identically
			val = 0
		}
		buf.WriteString(strconv.FormatFloat(val, 'f', -1, 64))
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		slices.SortFunc(keys, compareKeysRFC8785)

		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonicalString(buf, k); err != nil {
				return fmt.Errorf("key %q: %w", k, err)
			}
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[k]); err != nil {
				return fmt.Errorf("value for key %q: %w", k, err)
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
	return nil
}

// writeCanonicalString writes an NFC-normalized JSON string without HTML
// escaping. U+2028 and U+2029 are emitted literally.
func writeCanonicalString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return err
	}
	out := bytes.TrimSuffix(tmp.Bytes(), []byte{'\n'})
	buf.Write(unescapeLineSeparators(out))
	return nil
}

// unescapeLineSeparators turns the encoder's \u2028 and \u2029 escapes back
// into literal characters. An escape is only real when preceded by an even
// number of backslashes.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] == '\\' && i+5 < len(data) && string(data[i+1:i+5]) == "u202" &&
			(data[i+5] == '8' || data[i+5] == '9') {
			backslashes := 0
			for j := len(out) - 1; j >= 0 && out[j] == '\\'; j-- {
				backslashes++
			}
			if backslashes%2 == 0 {
				if data[i+5] == '8' {
					out = append(out, "\u2028"...)
				} else {
					out = append(out, "\u2029"...)
				}
				i += 5
				continue
			}
		}
		out = append(out, data[i])
	}
	return out
}

// compareKeysRFC8785 orders keys by UTF-16 code units, which differs from
// Go's native UTF-8 byte order for characters outside the BMP.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}

func canonicalTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func stringsToAny[S ~string](in []S) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = string(s)
	}
	return out
}

func (m ModelReading) canonicalMap() map[string]any {
	return map[string]any{
		"model_id":         string(m.ModelID),
		"sub_score":        m.SubScore,
		"label":            m.Label,
		"weight":           m.Weight,
		"effective_weight": m.EffectiveWeight,
	}
}

// readingMap builds the canonical form of a reading. The id is omitted when
// computing the id itself.
func (r DailyEnergyReading) readingMap(withID bool) map[string]any {
	models := make([]any, len(r.Models))
	for i, m := range r.Models {
		models[i] = m.canonicalMap()
	}
	out := map[string]any{
		"profile_id":      r.ProfileID,
		"date":            r.Date.String(),
		"models":          models,
		"composite_score": r.Composite,
		"confidence":      r.Confidence,
		"alignment":       string(r.Alignment),
		"dominant_model":  string(r.Dominant),
		"best_for":        stringsToAny(r.BestFor),
		"avoid":           stringsToAny(r.Avoid),
		"skipped":         stringsToAny(r.Skipped),
		"incomplete":      r.Incomplete,
	}
	if withID {
		out["id"] = r.ID
	}
	return out
}

// CanonicalJSON returns the canonical bytes of the full reading, id included.
func (r DailyEnergyReading) CanonicalJSON() ([]byte, error) {
	return MarshalCanonical(r.readingMap(true))
}

// canonicalMap is the canonical form of a personalization snapshot.
func (p PersonalizationProfile) canonicalMap() map[string]any {
	factors := make([]any, len(p.Factors))
	for i, f := range p.Factors {
		factors[i] = map[string]any{
			"factor_id":             f.FactorID,
			"weight_delta":          f.WeightDelta,
			"sample_size":           f.SampleSize,
			"baseline_size":         f.BaselineSize,
			"success_rate_high":     f.SuccessRateHigh,
			"success_rate_baseline": f.SuccessRateBaseline,
			"confidence":            f.Confidence,
			"last_computed":         canonicalTime(f.LastComputed),
		}
	}
	return map[string]any{
		"profile_id":                p.ProfileID,
		"factors":                   factors,
		"overall_accuracy":          p.OverallAccuracy,
		"predictions_considered":    p.PredictionsConsidered,
		"total_outcomes_considered": p.TotalOutcomesConsidered,
		"computed_at":               canonicalTime(p.ComputedAt),
	}
}

// CanonicalJSON returns the canonical bytes of the personalization profile.
func (p PersonalizationProfile) CanonicalJSON() ([]byte, error) {
	return MarshalCanonical(p.canonicalMap())
}

func (p BirthProfile) canonicalMap() map[string]any {
	out := map[string]any{
		"id":         p.ID,
		"name":       p.Name,
		"birth_date": p.BirthDate.String(),
	}
	if p.BirthPlace != nil {
		out["birth_place"] = map[string]any{
			"name":      p.BirthPlace.Name,
			"latitude":  p.BirthPlace.Latitude,
			"longitude": p.BirthPlace.Longitude,
		}
	}
	return out
}

func (e *Environment) canonicalMap() map[string]any {
	out := map[string]any{}
	if e == nil {
		return out
	}
	if e.Weather != nil {
		out["weather"] = map[string]any{
			"condition":     e.Weather.Condition,
			"temperature_c": e.Weather.TemperatureC,
		}
	}
	if e.ScheduledEvents != nil {
		out["scheduled_events"] = *e.ScheduledEvents
	}
	return out
}
