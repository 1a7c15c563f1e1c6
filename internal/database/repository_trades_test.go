package database

import (
	"testing"
	"time"
)

func TestEndOfDay(t *testing.T) {
	dhaka := time.FixedZone("UTC+6", 6*60*60)

	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{
			name: "mid-day is pushed to the last instant",
			in:   time.Date(2026, time.March, 14, 9, 30, 15, 0, time.UTC),
			want: time.Date(2026, time.March, 14, 23, 59, 59, 999999999, time.UTC),
		},
		{
			name: "midnight stays on the same date",
			in:   time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC),
			want: time.Date(2026, time.March, 14, 23, 59, 59, 999999999, time.UTC),
		},
		{
			name: "last instant is idempotent",
			in:   time.Date(2026, time.March, 14, 23, 59, 59, 999999999, time.UTC),
			want: time.Date(2026, time.March, 14, 23, 59, 59, 999999999, time.UTC),
		},
		{
			name: "location is preserved",
			in:   time.Date(2026, time.December, 31, 12, 0, 0, 0, dhaka),
			want: time.Date(2026, time.December, 31, 23, 59, 59, 999999999, dhaka),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := endOfDay(tt.in)
			if !got.Equal(tt.want) {
				t.Errorf("endOfDay(%v) = %v, want %v", tt.in, got, tt.want)
			}
			if got.Location() != tt.in.Location() {
				t.Errorf("location = %v, want %v", got.Location(), tt.in.Location())
			}
		})
	}
}
