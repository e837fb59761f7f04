package core

import "math"

// Atomic masses (monoisotopic)
const (
	MassH = 1.0078250321
	MassC = 12.0000000000
	MassN = 14.0030740052
	MassO = 15.9949146221
	MassS = 31.9720706900

	// Proton mass for charge calculations
	ProtonMass = 1.00727646688

	// Mass difference between 13C and 12C, the spacing of isotope notches
	C13MinusC12 = 1.00335483507
)

// AminoAcidComposition stores elemental composition
type AminoAcidComposition struct {
	C, H, N, O, S int
}

// AminoAcidMasses maps amino acid one-letter codes to elemental composition of the residue
var AminoAcidMasses = map[rune]AminoAcidComposition{
	'A': {C: 3, H: 5, N: 1, O: 1},
	'R': {C: 6, H: 12, N: 4, O: 1},
	'N': {C: 4, H: 6, N: 2, O: 2},
	'D': {C: 4, H: 5, N: 1, O: 3},
	'C': {C: 3, H: 5, N: 1, O: 1, S: 1},
	'E': {C: 5, H: 7, N: 1, O: 3},
	'Q': {C: 5, H: 8, N: 2, O: 2},
	'G': {C: 2, H: 3, N: 1, O: 1},
	'H': {C: 6, H: 7, N: 3, O: 1},
	'I': {C: 6, H: 11, N: 1, O: 1},
	'L': {C: 6, H: 11, N: 1, O: 1},
	'K': {C: 6, H: 12, N: 2, O: 1},
	'M': {C: 5, H: 9, N: 1, O: 1, S: 1},
	'F': {C: 9, H: 9, N: 1, O: 1},
	'P': {C: 5, H: 7, N: 1, O: 1},
	'S': {C: 3, H: 5, N: 1, O: 2},
	'T': {C: 4, H: 7, N: 1, O: 2},
	'W': {C: 11, H: 10, N: 2, O: 1},
	'Y': {C: 9, H: 9, N: 1, O: 2},
	'V': {C: 5, H: 9, N: 1, O: 1},
}

// NeutralMass computes the neutral monoisotopic mass of a peptide including modifications.
// Residues without a known composition contribute nothing.
func NeutralMass(sequence string, modifications []Modification) float64 {
	comp := AminoAcidComposition{H: 2, O: 1} // Water

	for _, aa := range sequence {
		if aaComp, ok := AminoAcidMasses[aa]; ok {
			comp.C += aaComp.C
			comp.H += aaComp.H
			comp.N += aaComp.N
			comp.O += aaComp.O
			comp.S += aaComp.S
		}
	}

	mass := float64(comp.C)*MassC +
		float64(comp.H)*MassH +
		float64(comp.N)*MassN +
		float64(comp.O)*MassO +
		float64(comp.S)*MassS

	for _, mod := range modifications {
		mass += mod.Mass
	}
	return mass
}

// CandidateMass returns the neutral mass of a candidate's modified sequence.
func CandidateMass(c Candidate, db *ModDatabase) (float64, error) {
	base, mods, err := db.ParseModifiedSequence(c.FullSequence)
	if err != nil {
		return 0, err
	}
	return NeutralMass(base, mods), nil
}

// RoundFloat rounds a float to n decimal places
func RoundFloat(val float64, precision int) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}
