package modkit

import (
	"testing"
)

func TestBuild_Defaults(t *testing.T) {
	t.Parallel()

	b := Build()
	if b.Name != "" || b.Ports != nil {
		t.Fatalf("empty Build should yield zero Built, got %+v", b)
	}
}

func TestBuild_NameAndPortsBundle(t *testing.T) {
	t.Parallel()

	type portsIn struct {
		Reader any
		Ledger any
	}
	in := portsIn{Reader: "reader", Ledger: "ledger"}

	b := Build(WithName("reclassify"), WithPorts(in))

	if b.Name != "reclassify" {
		t.Fatalf("Name = %q", b.Name)
	}
	got, ok := b.Ports.(portsIn)
	if !ok || got != in {
		t.Fatalf("Ports bundle lost its concrete type: %T", b.Ports)
	}
}

func TestBuild_LastOptionWins(t *testing.T) {
	t.Parallel()

	b := Build(WithName("audit"), WithName("review"))
	if b.Name != "review" {
		t.Fatalf("Name = %q, want review", b.Name)
	}
}
