// Package core provides the data model shared by FDR estimation, protein parsimony
// and protein group scoring.
package core

import (
	"fmt"
	"math"
)

// NotchAmbiguous marks a candidate or PSM whose mass-offset bin is unknown or not shared.
const NotchAmbiguous = -1

// Candidate is one peptide that could explain a spectrum.
type Candidate struct {
	Notch            int     // Mass-offset bin; NotchAmbiguous if unknown
	BaseSequence     string  // Unmodified amino acid sequence
	FullSequence     string  // Sequence with modifications, e.g. "PEPM[Oxidation]K"
	DigestionAgent   string  // Protease that produced the peptide
	ProteinAccession string  // Parent protein
	Start            int     // 1-based first residue in the parent protein
	End              int     // 1-based last residue in the parent protein
	Score            float64 // Fragment match score
}

// FdrStatistics holds the target-decoy statistics written onto a PSM or protein group.
type FdrStatistics struct {
	CumulativeTarget      float64
	CumulativeDecoy       float64
	CumulativeTargetNotch float64
	CumulativeDecoyNotch  float64
	QValue                float64
	QValueNotch           float64

	// QValueUndefined is set when the partition had decoys but no targets at or above
	// this rank; QValue is then 1 by convention rather than an estimate.
	QValueUndefined bool

	// Set by an external PEP model; never computed here.
	PEP       float64
	PEPQValue float64
}

// PSM is a scored peptide-spectrum match.
type PSM struct {
	ID            string
	File          string
	Scan          int
	Score         float64
	DeltaScore    float64
	PrecursorMass float64 // Neutral precursor mass, 0 if unknown
	Candidates    []Candidate

	Decoy       bool
	Contaminant bool

	Fdr *FdrStatistics
}

// Label returns a string identifying the PSM in error messages.
func (p *PSM) Label() string {
	if p.ID != "" {
		return p.ID
	}
	return fmt.Sprintf("%s#%d", p.File, p.Scan)
}

// Notch returns the notch shared by all candidates, or NotchAmbiguous.
func (p *PSM) Notch() int {
	if len(p.Candidates) == 0 {
		return NotchAmbiguous
	}
	n := p.Candidates[0].Notch
	for _, c := range p.Candidates[1:] {
		if c.Notch != n {
			return NotchAmbiguous
		}
	}
	return n
}

// BestMatches returns a copy of the PSM that keeps only candidates scoring within
// tolerance of the best candidate. The receiver is not modified.
func (p *PSM) BestMatches(tolerance float64) *PSM {
	out := *p
	if p.Fdr != nil {
		stats := *p.Fdr
		out.Fdr = &stats
	}
	if len(p.Candidates) == 0 {
		out.Candidates = nil
		return &out
	}

	best := math.Inf(-1)
	for _, c := range p.Candidates {
		if c.Score > best {
			best = c.Score
		}
	}

	out.Candidates = make([]Candidate, 0, len(p.Candidates))
	for _, c := range p.Candidates {
		if best-c.Score <= tolerance {
			out.Candidates = append(out.Candidates, c)
		}
	}
	return &out
}

// Classify sets Decoy and Contaminant from the parent proteins of the candidates.
// A PSM is a decoy if any candidate comes from a decoy protein, and a contaminant if
// it is not a decoy and any candidate comes from a contaminant.
func (p *PSM) Classify(db *ProteinDB) error {
	if err := p.checkCandidates(db); err != nil {
		return err
	}

	p.Decoy, p.Contaminant = false, false
	for _, c := range p.Candidates {
		prot, ok := db.Lookup(c.ProteinAccession)
		if !ok {
			continue
		}
		if prot.Decoy {
			p.Decoy = true
		}
		if prot.Contaminant {
			p.Contaminant = true
		}
	}
	if p.Decoy {
		p.Contaminant = false
	}
	return nil
}

// DecoyFraction returns the fraction of candidates that come from decoy proteins.
// Unknown accessions count as targets; call Classify first to surface them.
func (p *PSM) DecoyFraction(db *ProteinDB) float64 {
	if len(p.Candidates) == 0 {
		return 0
	}
	decoys := 0
	for _, c := range p.Candidates {
		if prot, ok := db.Lookup(c.ProteinAccession); ok && prot.Decoy {
			decoys++
		}
	}
	return float64(decoys) / float64(len(p.Candidates))
}

// checkCandidates reports candidates that cannot be traced to a known protein.
func (p *PSM) checkCandidates(db *ProteinDB) error {
	if len(p.Candidates) == 0 {
		return &DataDefectError{PSM: p.Label(), Message: "no candidate peptides"}
	}
	for i, c := range p.Candidates {
		if c.ProteinAccession == "" {
			return &DataDefectError{
				PSM:       p.Label(),
				Candidate: c.FullSequence,
				Message:   fmt.Sprintf("candidate %d has no protein", i),
			}
		}
		if db == nil {
			continue
		}
		if _, ok := db.Lookup(c.ProteinAccession); !ok {
			return &DataDefectError{
				PSM:       p.Label(),
				Candidate: c.FullSequence,
				Message:   fmt.Sprintf("unknown protein accession %q", c.ProteinAccession),
			}
		}
	}
	return nil
}

// Validate checks that every candidate of the PSM maps to a known protein.
func (p *PSM) Validate(db *ProteinDB) error {
	return p.checkCandidates(db)
}

// ResetFdr clears the FDR statistics but keeps any PEP annotation.
func (p *PSM) ResetFdr() {
	if p.Fdr == nil {
		return
	}
	p.Fdr = &FdrStatistics{PEP: p.Fdr.PEP, PEPQValue: p.Fdr.PEPQValue}
}
