package records

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeValues struct {
	rows [][]any
	err  error
}

func (f fakeValues) Get(_ context.Context, _, _ string) ([][]any, error) { return f.rows, f.err }

func TestSheetsRoster_ParsesRows(t *testing.T) {
	r := &SheetsRoster{values: fakeValues{rows: [][]any{
		{"userID", "firstName", "lastName", "จันทร์", "อังคาร", "พุธ", "พฤหัส", "ศุกร์", "เสาร์", "อาทิตย์"},
		{"U1", "สมชาย", "ใจดี", "สีชมพู 1 เม็ด", "-", "สีชมพู 1 เม็ด"},
		{"", "ghost"},
		{"U2", "มานี"},
	}}}
	got, err := r.Roster(context.Background())
	if err != nil {
		t.Fatalf("roster: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 entries, got %d", len(got))
	}
	if got[0].Name() != "สมชาย ใจดี" || got[0].Schedule[1] != "-" || got[0].Schedule[3] != "" {
		t.Fatalf("unexpected first entry: %+v", got[0])
	}
	if got[1].Name() != "มานี" {
		t.Fatalf("unexpected second entry: %+v", got[1])
	}
}

func TestSheetsRoster_Errors(t *testing.T) {
	if _, err := (&SheetsRoster{values: fakeValues{err: errors.New("quota")}}).Roster(context.Background()); err == nil {
		t.Fatalf("expected read error")
	}
	if _, err := parseRosterRows([][]any{{"name"}}); err == nil {
		t.Fatalf("expected missing column error")
	}
}

func TestDayIndexAndSplitName(t *testing.T) {
	monday := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	if DayIndex(monday) != 0 || DayIndex(monday.AddDate(0, 0, 6)) != 6 {
		t.Fatalf("day index is not Monday-first")
	}
	if f, l := SplitName("  สมชาย  ใจ ดี "); f != "สมชาย" || l != "ใจ ดี" {
		t.Fatalf("unexpected split: %q %q", f, l)
	}
	if f, l := SplitName("single"); f != "single" || l != "" {
		t.Fatalf("unexpected split: %q %q", f, l)
	}
}
