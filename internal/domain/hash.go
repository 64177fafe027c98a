package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainReading  = "attune/reading/v1"
	DomainCacheKey = "attune/reading-key/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ReadingID computes the content-addressed id of a reading from every field
// except the id itself. Identical readings always share an id.
func ReadingID(r DailyEnergyReading) (string, error) {
	canonical, err := MarshalCanonical(r.readingMap(false))
	if err != nil {
		return "", fmt.Errorf("ReadingID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainReading, canonical), nil
}

// ReadingKey computes the cache key for the inputs that fully determine a
// reading. A changed personalization snapshot yields a new key, so stale
// cache entries are never served after a recompute.
func ReadingKey(profile BirthProfile, date Date, snapshot PersonalizationProfile, env *Environment) (string, error) {
	obj := map[string]any{
		"profile":         profile.canonicalMap(),
		"date":            date.String(),
		"personalization": snapshot.canonicalMap(),
		"environment":     env.canonicalMap(),
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("ReadingKey: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainCacheKey, canonical), nil
}
