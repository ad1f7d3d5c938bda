package importer

import (
	"errors"
	"testing"

	"finboard/internal/core"
)

func TestAssignSingleOwnerPerRole(t *testing.T) {
	m := NewMapping()
	m.Assign(0, RoleAmount)
	m.Assign(2, RoleDate)

	// Moving amount to column 1 must clear column 0.
	m.Assign(1, RoleAmount)

	if _, ok := m.Role(0); ok {
		t.Fatal("column 0 should have been cleared")
	}
	if r, ok := m.Role(1); !ok || r != RoleAmount {
		t.Fatalf("column 1 expected amount, got %q (ok=%v)", r, ok)
	}
	if r, _ := m.Role(2); r != RoleDate {
		t.Fatalf("column 2 expected date, got %q", r)
	}
}

func TestAssignUniquenessUnderAnySequence(t *testing.T) {
	m := NewMapping()
	sequence := []struct {
		col  int
		role string
	}{
		{0, RoleAmount}, {1, RolePayee}, {2, RoleDate},
		{3, RoleAmount}, {0, RoleDate}, {1, RoleSkip},
		{4, RolePayee}, {2, RoleAmount},
	}
	for _, step := range sequence {
		m.Assign(step.col, step.role)
		seen := make(map[string]int)
		for col := 0; col < 6; col++ {
			if r, ok := m.Role(col); ok {
				seen[r]++
			}
		}
		for role, n := range seen {
			if n > 1 {
				t.Fatalf("after assign(%d,%q): role %q held by %d columns", step.col, step.role, role, n)
			}
		}
	}
}

func TestAssignSkipClears(t *testing.T) {
	m := NewMapping()
	m.Assign(0, RoleAmount)
	m.Assign(0, RoleSkip)
	if _, ok := m.Role(0); ok {
		t.Fatal("skip should unassign the column")
	}
	if m.Progress() != 0 {
		t.Fatalf("expected progress 0, got %d", m.Progress())
	}
}

func TestProgressAndReady(t *testing.T) {
	m := NewMapping()
	if m.Ready() {
		t.Fatal("empty mapping should not be ready")
	}
	m.Assign(0, RoleAmount)
	m.Assign(1, RoleDate)
	if m.Progress() != 2 {
		t.Fatalf("expected progress 2, got %d", m.Progress())
	}
	if m.Ready() {
		t.Fatal("mapping without payee should not be ready")
	}
	m.Assign(3, RolePayee)
	if !m.Ready() {
		t.Fatal("mapping with all required roles should be ready")
	}
}

func TestMaterializeDropsBlankRows(t *testing.T) {
	m := NewMapping()
	m.Assign(0, RoleDate)
	m.Assign(1, RolePayee)
	m.Assign(2, RoleAmount)

	rows := [][]string{
		{"2024-01-08 20:18:58", "Coffee Shop", "-4.50", "ignored"},
		{"", "", "", "still ignored"}, // blank in every assigned column
		{"2024-01-09 08:00:00", "Employer", "1200", ""},
	}

	records := m.Materialize(rows)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0][RolePayee] != "Coffee Shop" {
		t.Fatalf("unexpected payee %q", records[0][RolePayee])
	}
	if _, ok := records[0]["ignored"]; ok {
		t.Fatal("unassigned columns must not leak into records")
	}
}

func TestMaterializeOmitsUnassignedColumns(t *testing.T) {
	m := NewMapping()
	m.Assign(1, RoleAmount)

	records := m.Materialize([][]string{{"memo", "12.30", "extra"}})
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if len(records[0]) != 1 {
		t.Fatalf("expected only the amount key, got %v", records[0])
	}
	if records[0][RoleAmount] != "12.30" {
		t.Fatalf("unexpected amount %q", records[0][RoleAmount])
	}
}

func TestNormalize(t *testing.T) {
	rec := Record{
		RoleAmount: "-14.53",
		RoleDate:   "2024-01-08 20:18:58",
		RolePayee:  "Grocery Store",
	}
	n, err := Normalize(rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Amount != -14530 {
		t.Fatalf("expected -14530, got %d", n.Amount)
	}
	if n.Date != "2024-01-08" {
		t.Fatalf("expected 2024-01-08, got %q", n.Date)
	}

	rec[RoleAmount] = "100"
	if n, err = Normalize(rec); err != nil || n.Amount != 100000 {
		t.Fatalf("expected 100000, got %d (err=%v)", n.Amount, err)
	}
}

func TestNormalizeFailures(t *testing.T) {
	cases := []struct {
		name string
		rec  Record
		want error
	}{
		{"bad amount", Record{RoleAmount: "not-a-number", RoleDate: "2024-01-08 20:18:58", RolePayee: "p"}, core.ErrInvalidAmount},
		{"bad date", Record{RoleAmount: "1", RoleDate: "08/01/2024", RolePayee: "p"}, core.ErrInvalidDate},
		{"date without time", Record{RoleAmount: "1", RoleDate: "2024-01-08", RolePayee: "p"}, core.ErrInvalidDate},
		{"empty payee", Record{RoleAmount: "-4.50", RoleDate: "2024-01-08 20:18:58", RolePayee: ""}, core.ErrEmptyPayee},
		{"whitespace payee", Record{RoleAmount: "-4.50", RoleDate: "2024-01-08 20:18:58", RolePayee: "   "}, core.ErrEmptyPayee},
	}
	for _, tc := range cases {
		if _, err := Normalize(tc.rec); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestNormalizeAllCollectsFailures(t *testing.T) {
	records := []Record{
		{RoleAmount: "1.50", RoleDate: "2024-01-08 20:18:58", RolePayee: "a"},
		{RoleAmount: "oops", RoleDate: "2024-01-08 20:18:58", RolePayee: "b"},
		{RoleAmount: "2", RoleDate: "garbage", RolePayee: "c"},
		{RoleAmount: "-3.25", RoleDate: "2024-01-09 00:00:00", RolePayee: "d"},
	}
	out, failures := NormalizeAll(records)
	if len(out) != 2 {
		t.Fatalf("expected 2 normalized records, got %d", len(out))
	}
	if len(failures) != 2 {
		t.Fatalf("expected 2 failures, got %d", len(failures))
	}
	if failures[0].Row != 2 || failures[1].Row != 3 {
		t.Fatalf("unexpected failure rows: %+v", failures)
	}
}
