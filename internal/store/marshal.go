package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/attune/internal/domain"
)

// marshalReading converts a reading to canonical JSON TEXT for storage.
// Canonical form keeps the stored payload byte-stable across rewrites.
func marshalReading(r domain.DailyEnergyReading) (string, error) {
	data, err := r.CanonicalJSON()
	if err != nil {
		return "", fmt.Errorf("marshal reading: %w", err)
	}
	return string(data), nil
}

func unmarshalReading(data string) (domain.DailyEnergyReading, error) {
	var r domain.DailyEnergyReading
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return domain.DailyEnergyReading{}, fmt.Errorf("unmarshal reading: %w", err)
	}
	return r, nil
}

// marshalSignals converts outcome signals to JSON TEXT.
// Go's json encoder sorts map keys, so equal maps give equal text.
func marshalSignals(signals map[string]float64) (string, error) {
	if len(signals) == 0 {
		return "{}", nil
	}
	return encodeJSON(signals)
}

func unmarshalSignals(data string) (map[string]float64, error) {
	if data == "" || data == "{}" {
		return nil, nil
	}
	var m map[string]float64
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil, fmt.Errorf("unmarshal signals: %w", err)
	}
	return m, nil
}

// marshalPersonalization converts a personalization profile to JSON TEXT.
// Uses encoding/json rather than canonical form so zero timestamps round-trip.
func marshalPersonalization(p domain.PersonalizationProfile) (string, error) {
	return encodeJSON(p)
}

func unmarshalPersonalization(data string) (domain.PersonalizationProfile, error) {
	var p domain.PersonalizationProfile
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return domain.PersonalizationProfile{}, fmt.Errorf("unmarshal personalization: %w", err)
	}
	if p.Factors == nil {
		p.Factors = []domain.AdjustmentFactor{}
	}
	return p, nil
}

func encodeJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encode json: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}
