package attendance

import (
	"testing"
	"time"
)

func Test_percent(t *testing.T) {
	tests := []struct {
		name  string
		part  int
		total int
		want  float64
	}{
		{name: "zero total", part: 0, total: 0, want: 0},
		{name: "zero part", part: 0, total: 10, want: 0},
		{name: "full", part: 10, total: 10, want: 100},
		{name: "rounds half-up", part: 7, total: 9, want: 77.78},
		{name: "two thirds", part: 2, total: 3, want: 66.67},
		{name: "one third", part: 1, total: 3, want: 33.33},
		{name: "exact threshold", part: 3, total: 4, want: 75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := percent(tt.part, tt.total); got != tt.want {
				t.Errorf("percent(%d, %d) = %v, want %v", tt.part, tt.total, got, tt.want)
			}
		})
	}
}

func TestMonthRange(t *testing.T) {
	tests := []struct {
		name     string
		month    int
		year     int
		wantFrom time.Time
		wantTo   time.Time
	}{
		{
			name: "mid-year", month: 3, year: 2026,
			wantFrom: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "december rolls into next year", month: 12, year: 2026,
			wantFrom: time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "february", month: 2, year: 2026,
			wantFrom: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to := MonthRange(tt.month, tt.year)
			if !from.Equal(tt.wantFrom) || !to.Equal(tt.wantTo) {
				t.Errorf("MonthRange(%d, %d) = (%v, %v), want (%v, %v)",
					tt.month, tt.year, from, to, tt.wantFrom, tt.wantTo)
			}
		})
	}
}

func TestDateOnly(t *testing.T) {
	loc := time.FixedZone("EAT", 3*3600)
	in := time.Date(2026, 3, 2, 1, 30, 0, 0, loc) // 2026-03-01 22:30 UTC
	want := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	if got := DateOnly(in); !got.Equal(want) {
		t.Errorf("DateOnly() = %v, want %v", got, want)
	}
}

func TestCorrectionStatus_Terminal(t *testing.T) {
	if CorrectionPending.Terminal() {
		t.Error("pending must not be terminal")
	}
	if !CorrectionApproved.Terminal() || !CorrectionRejected.Terminal() {
		t.Error("approved and rejected must be terminal")
	}
}
