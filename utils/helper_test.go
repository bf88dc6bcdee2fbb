package utils

import "testing"

func TestParseDecimal(t *testing.T) {
	cases := []struct {
		in       string
		expected string
		wantErr  bool
	}{
		{"1234.50", "1234.5", false},
		{"  20000 ", "20000", false},
		{"-15.25", "-15.25", false},
		{"", "", true},
		{"abc", "", true},
	}
	for _, tc := range cases {
		d, err := ParseDecimal(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParseDecimal(%q) expected error, got %s", tc.in, d.String())
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseDecimal(%q) error: %v", tc.in, err)
		}
		if d.String() != tc.expected {
			t.Fatalf("ParseDecimal(%q) expected %s, got %s", tc.in, tc.expected, d.String())
		}
	}
}
