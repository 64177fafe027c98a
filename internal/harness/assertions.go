package harness

import (
	"context"
	"fmt"
	"maps"
	"reflect"
	"regexp"
	"slices"
	"strings"

	"github.com/roach88/attune/internal/store"
)

// stateTables are the tables final_state may read.
var stateTables = []string{"profiles", "readings", "outcomes", "personalization"}

// columnName guards column identifiers, which cannot be bound as parameters.
var columnName = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// AssertionError describes a failed assertion together with the trace it
// ran against.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

func (e *AssertionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s failed\n  expected: %s\n  actual:   %s\n", e.Type, e.Expected, e.Actual)
	if len(e.Trace) == 0 {
		return b.String()
	}
	b.WriteString("\ntrace:\n")
	for _, ev := range e.Trace {
		if ev.Type == EventInvocation {
			fmt.Fprintf(&b, "  %3d %s %v\n", ev.Seq, ev.Action, ev.Args)
		} else {
			fmt.Fprintf(&b, "  %3d   -> %s\n", ev.Seq, ev.Case)
		}
	}
	return b.String()
}

// invocations returns the invocation events of trace in order.
func invocations(trace []TraceEvent) []TraceEvent {
	var out []TraceEvent
	for _, ev := range trace {
		if ev.Type == EventInvocation {
			out = append(out, ev)
		}
	}
	return out
}

func assertTraceContains(trace []TraceEvent, a Assertion) error {
	for _, ev := range invocations(trace) {
		if ev.Action == a.Action && subsetMatch(ev.Args, a.Args) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("%s with args %v", a.Action, a.Args),
		Actual:   "not invoked",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the first invocation of each listed
// operation comes after the first invocation of the one before it.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	first := map[string]int64{}
	for _, ev := range invocations(trace) {
		if _, seen := first[ev.Action]; !seen {
			first[ev.Action] = ev.Seq
		}
	}

	for i, op := range a.Actions {
		seq, ok := first[op]
		if !ok {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("order %v", a.Actions),
				Actual:   op + " never invoked",
				Trace:    trace,
			}
		}
		if i > 0 && first[a.Actions[i-1]] >= seq {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("order %v", a.Actions),
				Actual:   fmt.Sprintf("%s at seq %d precedes %s at seq %d", op, seq, a.Actions[i-1], first[a.Actions[i-1]]),
				Trace:    trace,
			}
		}
	}
	return nil
}

func assertTraceCount(trace []TraceEvent, a Assertion) error {
	n := 0
	for _, ev := range invocations(trace) {
		if ev.Action == a.Action {
			n++
		}
	}
	if n == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceCount,
		Expected: fmt.Sprintf("%s invoked %d times", a.Action, a.Count),
		Actual:   fmt.Sprintf("invoked %d times", n),
		Trace:    trace,
	}
}

// assertFinalState reads the single row of a.Table selected by a.Where and
// compares the columns named in a.Expect.
func assertFinalState(ctx context.Context, st *store.Store, a Assertion) error {
	if !slices.Contains(stateTables, a.Table) {
		return fmt.Errorf("final_state: unknown table %q (want one of %v)", a.Table, stateTables)
	}
	where, args, err := buildWhereClause(a.Where)
	if err != nil {
		return err
	}
	query := "SELECT * FROM " + a.Table
	if where != "" {
		query += " WHERE " + where
	}

	row, columns, matched, err := selectOne(ctx, st, query, args)
	if err != nil {
		return fmt.Errorf("final_state %s: %w", a.Table, err)
	}
	selector := fmt.Sprintf("%s where %v", a.Table, a.Where)
	switch {
	case matched == 0:
		return &AssertionError{Type: AssertFinalState, Expected: "a row in " + selector, Actual: "no row"}
	case matched > 1:
		return &AssertionError{Type: AssertFinalState, Expected: "one row in " + selector, Actual: "several rows"}
	}

	for _, col := range slices.Sorted(maps.Keys(a.Expect)) {
		got, ok := row[col]
		if !ok {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("column %q", col),
				Actual:   fmt.Sprintf("no such column in %v", columns),
			}
		}
		if !stateValuesEqual(a.Expect[col], got) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%s.%s = %v", a.Table, col, a.Expect[col]),
				Actual:   fmt.Sprintf("%v", got),
			}
		}
	}
	return nil
}

// selectOne runs query and returns its first row by column name along with
// the number of matching rows, counting at most two.
func selectOne(ctx context.Context, st *store.Store, query string, args []any) (map[string]any, []string, int, error) {
	rows, err := st.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, 0, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, 0, err
	}
	if !rows.Next() {
		return nil, columns, 0, rows.Err()
	}
	values := make([]any, len(columns))
	dest := make([]any, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, nil, 0, err
	}
	row := make(map[string]any, len(columns))
	for i, col := range columns {
		row[col] = values[i]
	}
	if rows.Next() {
		return row, columns, 2, nil
	}
	return row, columns, 1, rows.Err()
}

// buildWhereClause renders where as "col = ?" terms joined by AND, in
// column order.
func buildWhereClause(where map[string]any) (string, []any, error) {
	var terms []string
	var args []any
	for _, col := range slices.Sorted(maps.Keys(where)) {
		if !columnName.MatchString(col) {
			return "", nil, fmt.Errorf("final_state: invalid column name %q", col)
		}
		terms = append(terms, col+" = ?")
		switch v := where[col].(type) {
		case string, int, int64, float64, bool:
			args = append(args, v)
		default:
			args = append(args, fmt.Sprint(v))
		}
	}
	return strings.Join(terms, " AND "), args, nil
}

// stateValuesEqual compares a YAML value with a SQLite column value.
// Booleans are stored as 0/1 and text may come back as bytes.
func stateValuesEqual(expected, actual any) bool {
	if b, ok := actual.([]byte); ok {
		actual = string(b)
	}
	if want, ok := expected.(bool); ok {
		if n, ok := actual.(int64); ok {
			return want == (n != 0)
		}
	}
	return valuesEqual(actual, expected)
}

// subsetMatch reports whether every key of expected is present in actual
// with an equal value.
func subsetMatch(actual any, expected map[string]any) bool {
	if len(expected) == 0 {
		return true
	}
	got, ok := asMap(actual)
	if !ok {
		return false
	}
	for k, want := range expected {
		v, ok := got[k]
		if !ok || !valuesEqual(v, want) {
			return false
		}
	}
	return true
}

// valuesEqual compares numbers by value, maps as subsets and slices
// element by element.
func valuesEqual(actual, expected any) bool {
	if actual == nil || expected == nil {
		return actual == nil && expected == nil
	}
	if a, ok := toFloat(actual); ok {
		e, ok := toFloat(expected)
		return ok && a == e
	}
	if want, ok := asMap(expected); ok {
		return subsetMatch(actual, want)
	}
	if want, ok := expected.([]any); ok {
		got, ok := actual.([]any)
		return ok && slices.EqualFunc(got, want, valuesEqual)
	}
	return reflect.DeepEqual(actual, expected)
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, s := range m {
			out[k] = s
		}
		return out, true
	}
	return nil, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// AssertionContext gives final_state assertions access to the run's store.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

// EvaluateAssertions returns one message per failed assertion.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var failures []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, a)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		case AssertFinalState:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("final_state requires database context")
			} else {
				err = assertFinalState(actx.Ctx, actx.Store, a)
			}
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			failures = append(failures, fmt.Sprintf("assertion[%d]: %v", i, err))
		}
	}
	return failures
}
