package workflow

import "testing"

func TestNormalizeTitle(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"", ""},
		{"   ", ""},
		{"DJ Orange", "dj orange"},
		{"  DJ Orange  ", "dj orange"},
		{"«Полночь»", "полночь"},
		{`"Midnight Drive"`, "midnight drive"},
		{"“Midnight Drive”", "midnight drive"},
		{"Midnight   Drive", "midnight drive"},
		{"Midnight Drive (Deluxe)", "midnight drive deluxe"},
		{"[Remastered] Midnight Drive", "remastered midnight drive"},
		{"\tDJ\n Orange ", "dj orange"},
	}
	for _, tc := range cases {
		if got := NormalizeTitle(tc.in); got != tc.expected {
			t.Fatalf("NormalizeTitle(%q) expected %q, got %q", tc.in, tc.expected, got)
		}
	}
}

func TestNormalizeTitle_Idempotent(t *testing.T) {
	inputs := []string{
		"", "  ", "DJ Orange", "«Альбом»", `mixed "QUOTES" (and) [brackets]`,
		"a   b    c", "“weird”  spacing\t here",
	}
	for _, in := range inputs {
		once := NormalizeTitle(in)
		twice := NormalizeTitle(once)
		if once != twice {
			t.Fatalf("NormalizeTitle not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}
