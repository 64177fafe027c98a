// Package domain provides the shared types for the attune scoring engine.
//
// All other internal packages import domain; domain imports nothing internal.
// This keeps the data model the foundational layer with no circular
// dependencies.
//
// Key design constraints:
//   - Scores and confidences are integers in [0, 100]
//   - Dates are civil days (no time-of-day, no zone) via Date
//   - Readings are serialized with canonical JSON so that identical inputs
//     produce byte-identical output
//   - All JSON tags use snake_case
package domain
