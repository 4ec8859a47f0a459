package classify

import (
	"errors"
	"testing"
	"time"

	"colasignal/internal/core/fingerprint"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func key(filing string, entity int64, brand, class, fanciful, date string) Key {
	return Key{
		FilingID:     filing,
		EntityID:     entity,
		ApprovalDate: day(date),
		BrandKey:     fingerprint.Brand(entity, brand),
		SKUKey:       fingerprint.SKU(entity, brand, class, fanciful),
	}
}

// The Acme Distillery sequence: four raw-name variants of one entity must
// yield NEW_COMPANY, REFILE, NEW_SKU, NEW_BRAND in order
func TestApply_AcmeSequence(t *testing.T) {
	c := New(NewMemoryState())

	steps := []struct {
		k    Key
		want Signal
	}{
		{key("A", 1, "smokestack", "80", "original", "2024-01-01"), SignalNewCompany},
		{key("B", 1, "smokestack", "80", "original", "2024-06-01"), SignalRefile},
		{key("C", 1, "smokestack", "80", "spiced", "2024-07-01"), SignalNewSKU},
		{key("D", 1, "firewater", "80", "original", "2024-08-01"), SignalNewBrand},
	}

	for i, st := range steps {
		out, err := c.Apply(st.k)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if out.Signal != st.want {
			t.Fatalf("step %d: signal = %s, want %s", i, out.Signal, st.want)
		}
	}
}

func TestApply_FirstOccurrenceUnique(t *testing.T) {
	c := New(NewMemoryState())

	newCompanies := 0
	for i, f := range []string{"A", "B", "C", "D", "E"} {
		out, err := c.Apply(key(f, 9, "smokestack", "80", "original", "2024-01-0"+string(rune('1'+i))))
		if err != nil {
			t.Fatal(err)
		}
		if out.Signal == SignalNewCompany {
			newCompanies++
		}
	}
	if newCompanies != 1 {
		t.Fatalf("entity earned NEW_COMPANY %d times", newCompanies)
	}
}

func TestApply_RefileCounter(t *testing.T) {
	c := New(NewMemoryState())

	dates := []string{"2024-01-01", "2024-02-01", "2024-03-01", "2024-04-01"}
	var got []int
	for i, d := range dates {
		out, err := c.Apply(key("F"+string(rune('0'+i)), 3, "smokestack", "80", "original", d))
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, out.RefileCount)
	}
	want := []int{0, 1, 2, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("refile counts = %v, want %v", got, want)
		}
	}
}

func TestApply_EntityIsolation(t *testing.T) {
	c := New(NewMemoryState())

	// identical brand/product text under two entities: both are first sights
	out1, _ := c.Apply(key("A", 1, "smokestack", "80", "original", "2024-01-01"))
	out2, _ := c.Apply(key("B", 2, "smokestack", "80", "original", "2024-01-02"))
	if out1.Signal != SignalNewCompany || out2.Signal != SignalNewCompany {
		t.Fatalf("signals = %s, %s; want both new_company", out1.Signal, out2.Signal)
	}
}

func TestApply_OutOfOrderRejected(t *testing.T) {
	c := New(NewMemoryState())

	if _, err := c.Apply(key("B", 1, "smokestack", "80", "original", "2024-06-01")); err != nil {
		t.Fatal(err)
	}
	_, err := c.Apply(key("A", 1, "smokestack", "80", "original", "2024-01-01"))
	if !errors.Is(err, ErrOutOfOrder) {
		t.Fatalf("err = %v, want ErrOutOfOrder", err)
	}

	// other entities are unaffected by one entity's cursor
	if _, err := c.Apply(key("C", 2, "smokestack", "80", "original", "2024-01-01")); err != nil {
		t.Fatalf("cross-entity ordering leaked: %v", err)
	}
}

func TestApply_SameDayTieBreak(t *testing.T) {
	c := New(NewMemoryState())

	// ties on approval date are ordered by filing id
	if _, err := c.Apply(key("A1", 1, "smokestack", "80", "original", "2024-01-01")); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Apply(key("A2", 1, "smokestack", "80", "spiced", "2024-01-01")); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Apply(key("A0", 1, "firewater", "80", "original", "2024-01-01")); !errors.Is(err, ErrOutOfOrder) {
		t.Fatalf("tie-break regression not rejected: %v", err)
	}
}

func TestApply_MissingDateRejected(t *testing.T) {
	c := New(NewMemoryState())
	_, err := c.Apply(Key{FilingID: "X", EntityID: 1})
	if err == nil {
		t.Fatal("dateless filing must not classify")
	}
}

func TestApply_PlaceholderFields(t *testing.T) {
	c := New(NewMemoryState())

	// missing brand and fanciful fold to the placeholder, so a repeat with
	// the same gaps is a refile, not a new sight
	out1, _ := c.Apply(key("A", 1, "", "80", "", "2024-01-01"))
	out2, _ := c.Apply(key("B", 1, "", "80", "", "2024-02-01"))
	if out1.Signal != SignalNewCompany || out2.Signal != SignalRefile {
		t.Fatalf("signals = %s, %s", out1.Signal, out2.Signal)
	}
}

// A replay over the same input from fresh state yields identical outcomes
func TestApply_DeterministicReplay(t *testing.T) {
	run := func() []Outcome {
		c := New(NewMemoryState())
		var out []Outcome
		for _, k := range []Key{
			key("A", 1, "smokestack", "80", "original", "2024-01-01"),
			key("B", 1, "smokestack", "80", "original", "2024-06-01"),
			key("C", 1, "smokestack", "80", "spiced", "2024-07-01"),
			key("D", 2, "smokestack", "80", "original", "2024-07-02"),
			key("E", 1, "firewater", "80", "original", "2024-08-01"),
		} {
			o, err := c.Apply(k)
			if err != nil {
				t.Fatal(err)
			}
			out = append(out, o)
		}
		return out
	}

	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("replay diverged at %d: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestMemoryState_Seeding(t *testing.T) {
	m := NewMemoryState()
	bk := fingerprint.Brand(1, "smokestack")
	sk := fingerprint.SKU(1, "smokestack", "80", "original")
	m.SeedEntity(1)
	m.SeedBrand(1, bk)
	m.SeedSKU(1, sk, 2)

	c := New(m)
	out, err := c.Apply(key("Z", 1, "smokestack", "80", "original", "2024-09-01"))
	if err != nil {
		t.Fatal(err)
	}
	if out.Signal != SignalRefile || out.RefileCount != 3 {
		t.Fatalf("seeded refile = %+v, want refile count 3", out)
	}
}
