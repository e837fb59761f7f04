package peptide

import (
	"errors"
	"testing"

	"github.com/ChrisMcGann/protinfer/pkg/core"
	"github.com/ChrisMcGann/protinfer/pkg/digestion"
)

func TestStripModifications(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"PEPTIDE", "PEPTIDE"},
		{"PEPM[Oxidation]K", "PEPMK"},
		{"[Acetyl]-PEPTIDE", "PEPTIDE"},
		{"C[+57.02]AK[Common Fixed:TMT6plex on K]", "CAK"},
	}
	for _, tt := range tests {
		if got := StripModifications(tt.in); got != tt.want {
			t.Errorf("StripModifications(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOf(t *testing.T) {
	a := Of(core.Candidate{FullSequence: "PEPM[Oxidation]K", DigestionAgent: "trypsin"})
	want := core.PeptideIdentity{Base: "PEPMK", Full: "PEPM[Oxidation]K", Agent: "trypsin"}
	if a != want {
		t.Errorf("Of() = %+v, want %+v", a, want)
	}

	b := Of(core.Candidate{BaseSequence: "PEPMK", DigestionAgent: "trypsin"})
	if b.Full != "PEPMK" {
		t.Errorf("Of() without full sequence: Full = %q", b.Full)
	}

	trypsin := Of(core.Candidate{FullSequence: "PEPMK", DigestionAgent: "trypsin"})
	argC := Of(core.Candidate{FullSequence: "PEPMK", DigestionAgent: "Arg-C"})
	if trypsin == argC {
		t.Error("same sequence from different agents must be different identities")
	}

	seen := map[core.PeptideIdentity]int{trypsin: 1}
	if _, ok := seen[argC]; ok {
		t.Error("identities collide as map keys")
	}
}

func equivalenceFixture(t *testing.T) (*digestion.Registry, *core.ProteinDB) {
	t.Helper()
	db, err := core.NewProteinDB([]*core.Protein{
		// 1-based:                  12345678901
		{Accession: "P1", Sequence: "MAAKCCCKDDR"},
		{Accession: "P2", Sequence: "MAACCCKDDR"},
	})
	if err != nil {
		t.Fatal(err)
	}
	return digestion.DefaultRegistry(), db
}

func psmWith(cands ...core.Candidate) *core.PSM {
	return &core.PSM{ID: "x", Candidates: cands}
}

func TestEquivalence(t *testing.T) {
	reg, db := equivalenceFixture(t)

	tryp := core.Candidate{FullSequence: "CCCK", DigestionAgent: "trypsin", ProteinAccession: "P1", Start: 5, End: 8}
	lysC := core.Candidate{FullSequence: "CCCK", DigestionAgent: "Lys-C", ProteinAccession: "P1", Start: 5, End: 8}
	psms := []*core.PSM{psmWith(tryp), psmWith(lysC)}

	t.Run("disabled", func(t *testing.T) {
		eq, err := NewEquivalence(reg, db, psms, false)
		if err != nil {
			t.Fatal(err)
		}
		if eq.Identify(tryp) == eq.Identify(lysC) {
			t.Error("identities merged while disabled")
		}
	})

	t.Run("same cleavage merges", func(t *testing.T) {
		eq, err := NewEquivalence(reg, db, psms, true)
		if err != nil {
			t.Fatal(err)
		}
		a, b := eq.Identify(tryp), eq.Identify(lysC)
		if a != b {
			t.Fatalf("Identify() = %v and %v, want one identity", a, b)
		}
		if a.Agent != "Lys-C+trypsin" {
			t.Errorf("merged agent = %q", a.Agent)
		}
		if eq.Merged() != 2 {
			t.Errorf("Merged() = %d, want 2", eq.Merged())
		}
	})

	t.Run("different span does not merge", func(t *testing.T) {
		other := lysC
		other.ProteinAccession, other.Start, other.End = "P2", 4, 7
		eq, err := NewEquivalence(reg, db, []*core.PSM{psmWith(tryp), psmWith(other)}, true)
		if err != nil {
			t.Fatal(err)
		}
		if eq.Identify(tryp) == eq.Identify(other) {
			t.Error("identities at different spans merged")
		}
	})

	t.Run("agent that does not cleave there", func(t *testing.T) {
		argC := tryp
		argC.DigestionAgent = "Arg-C"
		eq, err := NewEquivalence(reg, db, []*core.PSM{psmWith(tryp), psmWith(argC)}, true)
		if err != nil {
			t.Fatal(err)
		}
		if eq.Identify(tryp) == eq.Identify(argC) {
			t.Error("Arg-C cannot produce CCCK but was merged")
		}
	})

	t.Run("missing registry", func(t *testing.T) {
		_, err := NewEquivalence(nil, db, psms, true)
		var cfg *core.ConfigError
		if !errors.As(err, &cfg) {
			t.Errorf("NewEquivalence() error = %v, want ConfigError", err)
		}
	})

	t.Run("nil equivalence", func(t *testing.T) {
		var eq *Equivalence
		if eq.Identify(tryp) != Of(tryp) {
			t.Error("nil Equivalence changed an identity")
		}
	})
}
