// Package store provides SQLite-backed durable storage for Attune.
//
// The store holds four tables:
//   - Profiles: birth profiles, written only by explicit profile edits
//   - Readings: one DailyEnergyReading per (profile, date), upserted
//   - Outcomes: user-logged outcomes, append-only except for delete
//   - Personalization: one profile per user, replaced wholesale
//
// # Ordering
//
// All list queries order by a logical seq column, never by timestamps:
//
//	ORDER BY seq ASC, id COLLATE BINARY ASC
//
// Readings order by date instead, since a date is their natural key.
//
// # Payloads
//
// Readings are stored as canonical JSON together with their
// content-addressed id, so a stored payload can be re-hashed and compared.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
