// Package harness runs YAML scenarios against a real attune engine.
//
// Each scenario gets a fresh in-memory database, a frozen clock and
// sequential outcome ids, so the resulting trace is byte-for-byte
// reproducible and can be compared against golden files.
//
// # Scenario Format
//
//	name: lunar_learning
//	description: "Outcomes on high lunar days teach a positive weight"
//	now: "2024-03-10T08:00:00Z"
//	setup:
//	  - action: save_profile
//	    args: { id: ada, name: Ada, birth_date: "1990-06-15" }
//	flow:
//	  - invoke: record_outcome
//	    args: { profile_id: ada, date: "2024-03-09", activity_type: run, result: success }
//	    expect:
//	      case: ok
//	  - invoke: recompute
//	    args: { profile_id: ada }
//	    expect:
//	      case: ok
//	      result: { total_outcomes_considered: 1, insufficient: true }
//	assertions:
//	  - type: trace_count
//	    action: record_outcome
//	    count: 1
//	  - type: final_state
//	    table: outcomes
//	    where: { id: outcome-1 }
//	    expect: { result: success }
//
// # Operations
//
// save_profile, reading, trend, forecast, record_outcome, delete_outcome,
// list_outcomes, personalization, recompute, refresh, models and
// advance_clock. Args use the JSON field names of the HTTP API. Dates are
// YYYY-MM-DD strings and default to the clock's current day.
//
// A completion's case is "ok" or the engine error kind: validation,
// not_found, insufficient_data or internal.
//
// # Assertion Types
//
//   - trace_contains: an operation appears in the trace with matching args
//   - trace_order: operations appear in the given order
//   - trace_count: an operation appears exactly N times
//   - final_state: a storage table row matches expected column values
package harness
