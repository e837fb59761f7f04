package notch

import (
	"errors"
	"testing"

	"github.com/ChrisMcGann/protinfer/pkg/core"
)

func TestNotch(t *testing.T) {
	a := DefaultAcceptor()
	const m = 1000.0

	tests := []struct {
		name      string
		precursor float64
		want      int
	}{
		{"exact", m, 0},
		{"within tolerance", m + 0.005, 0},
		{"one isotope", m + core.C13MinusC12, 1},
		{"two isotopes", m + 2*core.C13MinusC12 - 0.003, 2},
		{"outside", m + 0.5, core.NotchAmbiguous},
		{"three isotopes", m + 3*core.C13MinusC12, core.NotchAmbiguous},
		{"no precursor", 0, core.NotchAmbiguous},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.Notch(tt.precursor, m); got != tt.want {
				t.Errorf("Notch(%v, %v) = %d, want %d", tt.precursor, m, got, tt.want)
			}
		})
	}
}

func TestAssign(t *testing.T) {
	mods := core.DefaultModDatabase()
	pep := core.NeutralMass("PEPTIDEK", nil)
	ox := core.NeutralMass("PEPMK", []core.Modification{{Mass: 15.994915}})

	psm := &core.PSM{
		ID:            "p1",
		PrecursorMass: pep + core.C13MinusC12,
		Candidates: []core.Candidate{
			{Notch: core.NotchAmbiguous, FullSequence: "PEPTIDEK"},
			{Notch: 0, FullSequence: "PEPTIDEK"},
			{Notch: core.NotchAmbiguous, FullSequence: "PEPM[Oxidation]K"},
		},
	}
	if err := DefaultAcceptor().Assign(psm, mods); err != nil {
		t.Fatalf("Assign() error = %v", err)
	}

	if got := psm.Candidates[0].Notch; got != 1 {
		t.Errorf("candidate 0 notch = %d, want 1", got)
	}
	if got := psm.Candidates[1].Notch; got != 0 {
		t.Errorf("candidate 1 notch = %d, want 0 (preset)", got)
	}
	if got := psm.Candidates[2].Notch; got != core.NotchAmbiguous {
		t.Errorf("candidate 2 notch = %d, want ambiguous (mass %v)", got, ox)
	}
	if got := psm.Notch(); got != core.NotchAmbiguous {
		t.Errorf("PSM notch = %d, want ambiguous", got)
	}
}

func TestAssignUnknownModification(t *testing.T) {
	psm := &core.PSM{
		ID:            "p1",
		PrecursorMass: 1000,
		Candidates:    []core.Candidate{{Notch: core.NotchAmbiguous, FullSequence: "PEP[Nope]K"}},
	}
	err := DefaultAcceptor().Assign(psm, core.DefaultModDatabase())
	var defect *core.DataDefectError
	if !errors.As(err, &defect) {
		t.Fatalf("Assign() error = %v, want DataDefectError", err)
	}
}
