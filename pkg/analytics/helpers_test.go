package analytics

import (
	"errors"
	"testing"
	"time"
)

func TestParseRange(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Range
		wantErr bool
	}{
		{name: "empty defaults to 30d", input: "", want: Range30d},
		{name: "7d", input: "7d", want: Range7d},
		{name: "30d", input: "30d", want: Range30d},
		{name: "all", input: "all", want: RangeAll},
		{name: "unknown", input: "90d", wantErr: true},
		{name: "case sensitive", input: "7D", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRange(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Errorf("ParseRange(%q) error = %v, want ErrValidation", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRange(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseRange(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRangeStart(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	start, bounded := Range7d.Start(now)
	if !bounded || !start.Equal(now.AddDate(0, 0, -7)) {
		t.Errorf("Range7d.Start() = %v, %v", start, bounded)
	}

	start, bounded = Range30d.Start(now)
	if !bounded || !start.Equal(now.AddDate(0, 0, -30)) {
		t.Errorf("Range30d.Start() = %v, %v", start, bounded)
	}

	if _, bounded := RangeAll.Start(now); bounded {
		t.Error("RangeAll.Start() bounded = true, want false")
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		input float64
		want  float64
	}{
		{1.5, 1.5},
		{2.0 / 3.0, 0.67},
		{1.0 / 3.0, 0.33},
		{2.675, 2.68}, // half rounds up
		{0, 0},
	}
	for _, tt := range tests {
		if got := round2(tt.input); got != tt.want {
			t.Errorf("round2(%v) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestFillTrend(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	counts := map[string]int64{
		"2026-08-29": 4,
		"2026-08-27": 1,
	}

	trend := fillTrend(counts, now, 3)
	want := []ViewTrendPoint{
		{Date: "2026-08-27", Views: 1},
		{Date: "2026-08-28", Views: 0},
		{Date: "2026-08-29", Views: 4},
	}

	if len(trend) != len(want) {
		t.Fatalf("fillTrend() returned %d points, want %d", len(trend), len(want))
	}
	for i := range want {
		if trend[i] != want[i] {
			t.Errorf("fillTrend()[%d] = %+v, want %+v", i, trend[i], want[i])
		}
	}
}
