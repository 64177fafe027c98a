// Package engine is the composite scoring and adaptive correlation facade.
//
// It wires the model registry, composite scorer, trend aggregator, outcome
// recorder, correlation analyzer and personalization store to one
// Repository and exposes the operations the HTTP API and the CLI call:
//
//	GetReading / GetTrend / GetForecast     scoring and aggregation
//	RecordOutcome / DeleteOutcome / ListOutcomes
//	GetPersonalization / Recompute / RefreshIfStale
//	SaveProfile / Profile / ListProfiles
//
// Data flow:
//
//	profile + date -> models -> scorer (reads personalization) -> reading
//	reading -> reading history -> trend aggregator
//	outcome -> recorder -> outcome history
//	recompute: both histories -> analyzer -> personalization store
//
// Readings are pure functions of (profile, date, personalization snapshot,
// environment) and are cached under the content hash of those inputs, so a
// recompute never has to invalidate the cache. Recomputes for one profile
// are serialized by the personalization store.
package engine
