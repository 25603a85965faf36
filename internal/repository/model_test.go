package repository

import (
	"testing"
	"time"
)

func TestMonthKeyPrevious(t *testing.T) {
	cases := []struct {
		in   MonthKey
		want MonthKey
	}{
		{MonthKey{2026, time.March}, MonthKey{2026, time.February}},
		{MonthKey{2026, time.January}, MonthKey{2025, time.December}},
	}
	for _, tc := range cases {
		if got := tc.in.Previous(); got != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.in, tc.want, got)
		}
	}
}

func TestAttendanceRecordMonth(t *testing.T) {
	got, err := AttendanceRecord{Date: "2026-11-02"}.Month()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.String() != "2026_11" {
		t.Fatalf("unexpected month key: %s", got)
	}
	if _, err := (AttendanceRecord{Date: "yesterday"}).Month(); err == nil {
		t.Fatal("expected error for invalid date")
	}
}
