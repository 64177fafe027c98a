// Package models is the fixed registry of deterministic life-pattern models.
//
// Every model is a pure function of (BirthProfile, Date, optional
// Environment) returning one domain.ModelReading. Models never depend on each
// other and never perform I/O. A model that cannot compute for its input
// returns ok=false; the scorer treats that as a soft-skip, not an error.
//
// Registration order is significant: it is the order of readings inside a
// DailyEnergyReading and the tie-break for the dominant model.
package models
