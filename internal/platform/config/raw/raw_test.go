package raw

import (
	"testing"
)

func TestGet(t *testing.T) {
	t.Setenv("LOG_LEVEL", " info ")

	lc := New().Prefix("LOG_")
	if got := lc.Get("LEVEL", "debug"); got != "info" {
		t.Fatalf("Get LEVEL = %q, want trimmed env value", got)
	}
	if got := lc.Get("FORMAT", "console"); got != "console" {
		t.Fatalf("Get FORMAT = %q, want default", got)
	}
}

func TestGetBool(t *testing.T) {
	lc := New().Prefix("LOG_")

	cases := []struct {
		name string
		val  string
		def  bool
		want bool
	}{
		{"true word", "true", false, true},
		{"one", "1", false, true},
		{"yes uppercased", "YES", false, true},
		{"false word", "false", true, false},
		{"zero", "0", true, false},
		{"no", "no", true, false},
		{"padded", "   true   ", false, true},
		{"missing keeps default", "", true, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.val != "" {
				t.Setenv("LOG_CALLER", tc.val)
			}
			if got := lc.GetBool("CALLER", tc.def); got != tc.want {
				t.Fatalf("GetBool(%q) = %v, want %v", tc.val, got, tc.want)
			}
		})
	}
}

func TestGetInt(t *testing.T) {
	lc := New().Prefix("LOG_")

	cases := []struct {
		name string
		val  string
		def  int
		want int
	}{
		{"numeric", "42", 0, 42},
		{"padded", "  7  ", 1, 7},
		{"trailing junk falls back", "12x", 9, 9},
		{"negative falls back", "-5", 3, 3}, // parser only accepts digits
		{"missing keeps default", "", 11, 11},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.val != "" {
				t.Setenv("LOG_SAMPLE_EVERY", tc.val)
			}
			if got := lc.GetInt("SAMPLE_EVERY", tc.def); got != tc.want {
				t.Fatalf("GetInt(%q) = %d, want %d", tc.val, got, tc.want)
			}
		})
	}
}

func TestPrefixesDoNotCollide(t *testing.T) {
	t.Setenv("LOG_LEVEL", "info")
	t.Setenv("CORE_LEVEL", "debug")
	t.Setenv("CORE_LOG_MODE", "console")

	root := New()
	if got := root.Prefix("LOG_").Get("LEVEL", ""); got != "info" {
		t.Fatalf("LOG_ view = %q", got)
	}
	if got := root.Prefix("CORE_").Get("LEVEL", ""); got != "debug" {
		t.Fatalf("CORE_ view = %q", got)
	}
	if got := root.Prefix("CORE_").Prefix("LOG_").Get("MODE", ""); got != "console" {
		t.Fatalf("nested view = %q", got)
	}
}
