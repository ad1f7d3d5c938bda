// Package importer implements the CSV import mapping pipeline: columns
// of an uploaded spreadsheet are assigned to semantic roles, rows are
// reshaped into role-keyed records, and amounts/dates are normalized
// into storage units.
package importer

import (
	"fmt"
	"strings"
	"time"

	"finboard/internal/core"
)

// Roles a spreadsheet column can be mapped to. RoleSkip is the sentinel
// the client sends for "leave this column out"; it normalizes to
// unassigned.
const (
	RoleAmount = "amount"
	RolePayee  = "payee"
	RoleDate   = "date"
	RoleSkip   = "skip"
)

// Date layouts for the import pipeline: the expected input pattern and
// the canonical stored form (time-of-day discarded).
const (
	InputDateLayout  = "2006-01-02 15:04:05"
	OutputDateLayout = "2006-01-02"
)

// RequiredRoles must all be assigned before a mapping can be submitted.
var RequiredRoles = []string{RoleAmount, RoleDate, RolePayee}

func validRole(role string) bool {
	return role == RoleAmount || role == RolePayee || role == RoleDate
}

// Mapping tracks which column holds which role. At most one column may
// hold a given role at any time; assigning a role that another column
// already holds clears the earlier assignment (last writer wins).
type Mapping struct {
	roles map[int]string
}

func NewMapping() *Mapping {
	return &Mapping{roles: make(map[int]string)}
}

// Assign sets the role for a column. RoleSkip (or any unknown role)
// unassigns the column. Reassigning the same role to the same column is
// a no-op in effect.
func (m *Mapping) Assign(col int, role string) {
	if !validRole(role) {
		delete(m.roles, col)
		return
	}
	for other, r := range m.roles {
		if r == role && other != col {
			delete(m.roles, other)
		}
	}
	m.roles[col] = role
}

// Role reports the role assigned to a column, if any.
func (m *Mapping) Role(col int) (string, bool) {
	r, ok := m.roles[col]
	return r, ok
}

// Progress is the number of columns with a role assigned. The UI uses
// it to show how far along the mapping is.
func (m *Mapping) Progress() int {
	return len(m.roles)
}

// Ready reports whether every required role is assigned to some column.
// With exactly three roles and single-owner-per-role this is equivalent
// to Progress() >= len(RequiredRoles), but checking presence directly
// keeps the gate correct if the role set ever grows.
func (m *Mapping) Ready() bool {
	present := make(map[string]bool, len(m.roles))
	for _, r := range m.roles {
		present[r] = true
	}
	for _, required := range RequiredRoles {
		if !present[required] {
			return false
		}
	}
	return true
}

// Record is a materialized row keyed by role name. Only roles actually
// assigned to a column appear as keys.
type Record map[string]string

// Materialize reshapes raw data rows into role-keyed records. Cells in
// unassigned columns are nulled positionally first; a row whose every
// cell is null or blank is dropped entirely. The surviving cells are
// then keyed by their column's role, discarding unassigned positions.
func (m *Mapping) Materialize(rows [][]string) []Record {
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		empty := true
		for col, cell := range row {
			if _, ok := m.roles[col]; ok && cell != "" {
				empty = false
				break
			}
		}
		if empty {
			continue
		}
		rec := make(Record, len(m.roles))
		for col, cell := range row {
			if role, ok := m.roles[col]; ok {
				rec[role] = cell
			}
		}
		records = append(records, rec)
	}
	return records
}

// Normalized is the hand-off artifact to persistence: amount in
// milliunits and the date re-rendered in the canonical calendar form.
type Normalized struct {
	Amount int64
	Payee  string
	Date   string
}

// Normalize converts one record into storage units. It fails with a
// descriptive error when the amount is not numeric, the date does not
// match the expected input pattern, or the payee cell is blank.
func Normalize(rec Record) (Normalized, error) {
	amount, err := core.ToMilliunits(rec[RoleAmount])
	if err != nil {
		return Normalized{}, fmt.Errorf("amount %q: %w", rec[RoleAmount], err)
	}
	parsed, err := time.Parse(InputDateLayout, rec[RoleDate])
	if err != nil {
		return Normalized{}, fmt.Errorf("date %q: %w", rec[RoleDate], core.ErrInvalidDate)
	}
	payee := strings.TrimSpace(rec[RolePayee])
	if payee == "" {
		return Normalized{}, core.ErrEmptyPayee
	}
	return Normalized{
		Amount: amount,
		Payee:  payee,
		Date:   parsed.Format(OutputDateLayout),
	}, nil
}

// RowError ties a normalization failure to its 1-based data row.
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e RowError) Unwrap() error {
	return e.Err
}

// NormalizeAll normalizes every record, collecting per-row failures
// instead of stopping at the first. One bad row never silently corrupts
// or drops its neighbors; the caller decides what to do when the error
// list is non-empty.
func NormalizeAll(records []Record) ([]Normalized, []RowError) {
	out := make([]Normalized, 0, len(records))
	var failures []RowError
	for i, rec := range records {
		n, err := Normalize(rec)
		if err != nil {
			failures = append(failures, RowError{Row: i + 1, Err: err})
			continue
		}
		out = append(out, n)
	}
	return out, failures
}
