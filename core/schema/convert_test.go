package schema

import (
	"testing"
	"time"
)

func TestParseBBox(t *testing.T) {
	tests := []struct {
		raw     string
		count   int
		wantErr bool
	}{
		{"-180,-90,180,90", 4, false},
		{"0,0,10,10", 4, false},
		{"0,0,-5,10,5,100", 6, false},
		{"0,0,10", 0, true},          // wrong count
		{"0,0,10,10,0", 0, true},     // wrong count
		{"10,0,-10,10", 0, true},     // xmax < xmin
		{"0,10,10,-10", 0, true},     // ymax < ymin
		{"-190,0,10,10", 0, true},    // out of bounds
		{"0,0,10,95", 0, true},       // out of bounds
		{"0,0,50,10,10,-5", 0, true}, // max elevation below min
		{"a,b,c,d", 0, true},
	}

	for _, tt := range tests {
		vals, err := ParseBBox(tt.raw)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseBBox(%q): expected error", tt.raw)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseBBox(%q): %v", tt.raw, err)
			continue
		}
		if len(vals) != tt.count {
			t.Errorf("ParseBBox(%q) = %v, want %d coordinates", tt.raw, vals, tt.count)
		}
	}
}

func TestParseInterval(t *testing.T) {
	instant, err := ParseInterval("2024-06-01T00:00:00Z")
	if err != nil {
		t.Fatalf("instant: %v", err)
	}
	if instant.Start == nil || instant.End == nil || !instant.Start.Equal(*instant.End) {
		t.Errorf("instant should have equal start and end: %+v", instant)
	}

	closed, err := ParseInterval("2024-01-01T00:00:00Z/2024-12-31T00:00:00Z")
	if err != nil {
		t.Fatalf("closed interval: %v", err)
	}
	if closed.Start == nil || closed.End == nil {
		t.Errorf("closed interval should have both ends: %+v", closed)
	}

	for _, raw := range []string{"../2024-12-31T00:00:00Z", "/2024-12-31T00:00:00Z"} {
		iv, err := ParseInterval(raw)
		if err != nil {
			t.Fatalf("open start %q: %v", raw, err)
		}
		if iv.Start != nil || iv.End == nil {
			t.Errorf("open start %q: %+v", raw, iv)
		}
	}

	openEnd, err := ParseInterval("2024-01-01T00:00:00Z/..")
	if err != nil {
		t.Fatalf("open end: %v", err)
	}
	if openEnd.Start == nil || openEnd.End != nil {
		t.Errorf("open end: %+v", openEnd)
	}

	for _, raw := range []string{
		"",
		"../..",
		"/",
		"not-a-date",
		"2024-12-31T00:00:00Z/2024-01-01T00:00:00Z", // end before start
		"2024-01-01T00:00:00Z/x/y",
	} {
		if _, err := ParseInterval(raw); err == nil {
			t.Errorf("ParseInterval(%q): expected error", raw)
		}
	}
}

func TestParseIntervalPreservesInstant(t *testing.T) {
	iv, err := ParseInterval("2024-06-01T12:30:00Z")
	if err != nil {
		t.Fatalf("ParseInterval: %v", err)
	}
	want := time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)
	if !iv.Start.Equal(want) {
		t.Errorf("start = %v, want %v", iv.Start, want)
	}
}

func TestSplitList(t *testing.T) {
	if got := SplitList(""); got != nil {
		t.Errorf("SplitList(\"\") = %v, want nil", got)
	}
	got := SplitList("a,b,c")
	if len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Errorf("SplitList = %v", got)
	}
}
