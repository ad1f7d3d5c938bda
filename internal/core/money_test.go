package core

import (
	"strconv"
	"testing"
)

func TestToMilliunits(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"-14.53", -14530, true},
		{"100", 100000, true},
		{"0.001", 1, true},
		{"1.0005", 1001, true}, // half away from zero on 4th digit
		{"-1.0005", -1001, true},
		{" 2.50 ", 2500, true},
		{"0", 0, true},
		{"", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
	}
	for _, tc := range cases {
		got, err := ToMilliunits(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

// Values with at most three fractional digits survive the round trip
// through milliunits exactly.
func TestMilliunitsRoundTrip(t *testing.T) {
	for _, s := range []string{"0.001", "1.5", "-14.53", "100", "-0.25", "3.999"} {
		m, err := ToMilliunits(s)
		if err != nil {
			t.Fatalf("%q: %v", s, err)
		}
		back := strconv.FormatFloat(FromMilliunits(m), 'f', -1, 64)
		m2, err := ToMilliunits(back)
		if err != nil {
			t.Fatalf("%q round trip: %v", s, err)
		}
		if m2 != m {
			t.Fatalf("%q round trip mismatch: %d != %d", s, m2, m)
		}
	}
}
