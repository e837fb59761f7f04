// Package notch assigns precursor mass-offset bins ("notches") to candidates.
package notch

import (
	"fmt"
	"math"

	"github.com/ChrisMcGann/protinfer/pkg/core"
)

// Acceptor bins the difference between a precursor mass and a candidate mass into
// one of a fixed list of offsets. Notch i is Offsets[i].
type Acceptor struct {
	Offsets      []float64
	TolerancePPM float64
}

// DefaultAcceptor accepts the monoisotopic peak and the first two 13C isotope errors
// at 10 ppm.
func DefaultAcceptor() *Acceptor {
	return &Acceptor{
		Offsets:      []float64{0, core.C13MinusC12, 2 * core.C13MinusC12},
		TolerancePPM: 10,
	}
}

// Notch returns the notch of a mass pair, or core.NotchAmbiguous if no offset is
// within tolerance.
func (a *Acceptor) Notch(precursorMass, candidateMass float64) int {
	if candidateMass <= 0 || precursorMass <= 0 {
		return core.NotchAmbiguous
	}
	delta := precursorMass - candidateMass
	tol := candidateMass * a.TolerancePPM * 1e-6

	best, bestErr := core.NotchAmbiguous, math.Inf(1)
	for i, off := range a.Offsets {
		e := math.Abs(delta - off)
		if e <= tol && e < bestErr {
			best, bestErr = i, e
		}
	}
	return best
}

// Assign sets the notch of every candidate of psm whose notch is core.NotchAmbiguous.
// A PSM without a precursor mass is left unchanged.
func (a *Acceptor) Assign(psm *core.PSM, mods *core.ModDatabase) error {
	if psm.PrecursorMass <= 0 {
		return nil
	}
	for i := range psm.Candidates {
		c := &psm.Candidates[i]
		if c.Notch != core.NotchAmbiguous {
			continue
		}
		mass, err := core.CandidateMass(*c, mods)
		if err != nil {
			return &core.DataDefectError{
				PSM:       psm.Label(),
				Candidate: c.FullSequence,
				Message:   fmt.Sprintf("cannot compute mass: %v", err),
			}
		}
		c.Notch = a.Notch(psm.PrecursorMass, mass)
	}
	return nil
}
