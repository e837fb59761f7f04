// Package filter provides PSM threshold filtering applied between FDR estimation and
// protein parsimony.
package filter

import (
	"github.com/ChrisMcGann/protinfer/pkg/core"
)

// Config holds filtering configuration
type Config struct {
	MaxQValue        float64 // Keep PSMs with q-value at or below this (0 = no limit)
	MaxQValueNotch   float64 // Keep PSMs with notch q-value at or below this (0 = no limit)
	MaxPEPQValue     float64 // Keep PSMs with PEP q-value at or below this (0 = no limit)
	MinScore         float64 // Keep PSMs scoring at least this (0 = no limit)
	KeepDecoys       bool    // Keep decoy PSMs; parsimony needs them for protein-level FDR
	KeepContaminants bool    // Keep contaminant PSMs
}

// Apply returns the PSMs that pass every configured filter, in their original order.
// PSMs without FDR statistics fail any q-value filter.
func (c *Config) Apply(psms []*core.PSM) []*core.PSM {
	out := make([]*core.PSM, 0, len(psms))
	for _, psm := range psms {
		if c.Keep(psm) {
			out = append(out, psm)
		}
	}
	return out
}

// Keep reports whether a single PSM passes the filters.
func (c *Config) Keep(psm *core.PSM) bool {
	if psm == nil {
		return false
	}
	if psm.Decoy && !c.KeepDecoys {
		return false
	}
	if psm.Contaminant && !c.KeepContaminants {
		return false
	}
	if c.MinScore > 0 && psm.Score < c.MinScore {
		return false
	}

	if c.MaxQValue > 0 || c.MaxQValueNotch > 0 || c.MaxPEPQValue > 0 {
		if psm.Fdr == nil {
			return false
		}
		if c.MaxQValue > 0 && psm.Fdr.QValue > c.MaxQValue {
			return false
		}
		if c.MaxQValueNotch > 0 && psm.Fdr.QValueNotch > c.MaxQValueNotch {
			return false
		}
		// PEP is optional upstream; an unset PEP q-value does not exclude a PSM.
		if c.MaxPEPQValue > 0 && psm.Fdr.PEP != 0 && psm.Fdr.PEPQValue > c.MaxPEPQValue {
			return false
		}
	}
	return true
}
