package normalize

import "testing"

// Table covers each stage and combined pipelines over company names.
func TestCompany_Table(t *testing.T) {
	n := New()

	tests := []struct {
		name string
		in   string
		out  string
	}{
		{
			name: "identity ascii",
			in:   "acme distillery",
			out:  "acme distillery",
		},
		{
			name: "case fold and trim",
			in:   "  ACME Distillery  ",
			out:  "acme distillery",
		},
		{
			name: "legal suffix dropped",
			in:   "Acme Distillery LLC",
			out:  "acme distillery",
		},
		{
			name: "dotted suffix variant",
			in:   "Acme Distillery, L.L.C.",
			out:  "acme distillery",
		},
		{
			name: "inc variants",
			in:   "Acme Distillery Incorporated",
			out:  "acme distillery",
		},
		{
			name: "stacked suffixes",
			in:   "Smokestack Brewing Co., Ltd.",
			out:  "smokestack brewing",
		},
		{
			name: "ampersand folds to and",
			in:   "Barrel & Vine Imports",
			out:  "barrel and vine imports",
		},
		{
			name: "and spelled out compares equal",
			in:   "Barrel and Vine Imports",
			out:  "barrel and vine imports",
		},
		{
			name: "stray commas and spaces",
			in:   "Acme ,  Distillery ,LLC",
			out:  "acme distillery",
		},
		{
			name: "apostrophes vanish",
			in:   "O'Brien's Winery",
			out:  "obriens winery",
		},
		{
			name: "combining marks stripped",
			in:   "Château Beausejour",
			out:  "chateau beausejour",
		},
		{
			name: "fullwidth folded",
			in:   "ＡＣＭＥ Spirits",
			out:  "acme spirits",
		},
		{
			name: "utf8 repair drops invalid bytes",
			in:   string([]byte{0xff, 'a', 'c', 'm', 'e', 0x80}),
			out:  "acme",
		},
		{
			name: "suffix only name survives",
			in:   "Limited",
			out:  "limited",
		},
		{
			name: "idempotent",
			in:   n.Company("Acme Distillery, L.L.C."),
			out:  "acme distillery",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := n.Company(tc.in)
			if got != tc.out {
				t.Fatalf("Company(%q) = %q, want %q", tc.in, got, tc.out)
			}
			// Idempotence: normalizing the normalized form changes nothing
			if got2 := n.Company(got); got2 != got {
				t.Fatalf("Company not idempotent: %q -> %q", got, got2)
			}
		})
	}
}

func TestBrandAndProduct(t *testing.T) {
	n := New()

	// brands keep legal-ish words; only fold and punctuation apply
	if got := n.Brand("Smokestack  Reserve"); got != "smokestack reserve" {
		t.Fatalf("Brand = %q", got)
	}
	if got := n.Brand("Old Tom's"); got != "old toms" {
		t.Fatalf("Brand = %q", got)
	}
	if got := n.Product("Spiced — Original"); got != "spiced original" {
		t.Fatalf("Product = %q", got)
	}
	if got := n.ClassCode(" 80 "); got != "80" {
		t.Fatalf("ClassCode = %q", got)
	}
}

func TestCanonicalizeSuffix(t *testing.T) {
	tests := []struct {
		in   []string
		want int // tokens kept
	}{
		{[]string{"acme", "distillery", "llc"}, 2},
		{[]string{"acme", "l", "l", "c"}, 1},
		{[]string{"acme", "brewing", "co", "ltd"}, 2},
		{[]string{"acme"}, 1},
		{[]string{"limited"}, 1},
	}
	for _, tc := range tests {
		got := canonicalizeSuffix(tc.in)
		if len(got) != tc.want {
			t.Fatalf("canonicalizeSuffix(%v) kept %v, want %d tokens", tc.in, got, tc.want)
		}
	}
}

func TestPunctFold(t *testing.T) {
	in := "A&B, (very) fine-wines."
	want := "a and b very fine wines"
	got := New().fold(in)
	if got != want {
		t.Fatalf("fold(%q) = %q, want %q", in, got, want)
	}
}
