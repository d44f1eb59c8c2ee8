package period

import (
	"errors"
	"testing"
	"time"
)

func TestResolve(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		spec string
		want time.Time
	}{
		{"24h", now.Add(-24 * time.Hour)},
		{"1h", now.Add(-time.Hour)},
		{"0h", now},
		{"0d", now},
		{"7d", time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC)},
		{"30d", time.Date(2025, 2, 8, 12, 0, 0, 0, time.UTC)},
		{"007h", now.Add(-7 * time.Hour)},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := Resolve(tt.spec, now)
			if err != nil {
				t.Fatalf("Resolve(%q): unexpected error: %v", tt.spec, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Resolve(%q) = %v, want %v", tt.spec, got, tt.want)
			}
		})
	}
}

func TestResolve_InvalidFormat(t *testing.T) {
	now := time.Now()
	for _, spec := range []string{"7w", "abc", "", "-1h", "h", "24", "24H", "1.5h", " 24h", "24h ", "10m", "99999999999999999999h"} {
		t.Run(spec, func(t *testing.T) {
			_, err := Resolve(spec, now)
			if err == nil {
				t.Fatalf("Resolve(%q): expected error", spec)
			}
			if !errors.Is(err, ErrInvalidFormat) {
				t.Errorf("Resolve(%q): expected ErrInvalidFormat, got %v", spec, err)
			}
		})
	}
}

func TestParse_RoundTrip(t *testing.T) {
	w, err := Parse("48h")
	if err != nil {
		t.Fatal(err)
	}
	if w.Magnitude != 48 || w.Unit != Hour {
		t.Fatalf("unexpected window: %+v", w)
	}
	if w.String() != "48h" {
		t.Errorf("expected 48h, got %s", w.String())
	}
}
