package fdr

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ChrisMcGann/protinfer/pkg/core"
)

// PartitionBy selects how PSMs are split into independent competitions.
type PartitionBy int

const (
	ByFile PartitionBy = iota
	ByDigestionAgent
	ByFileAndDigestionAgent
)

func (p PartitionBy) String() string {
	switch p {
	case ByFile:
		return "file"
	case ByDigestionAgent:
		return "digestionAgent"
	case ByFileAndDigestionAgent:
		return "both"
	default:
		return fmt.Sprintf("PartitionBy(%d)", int(p))
	}
}

// ParsePartitionBy parses "file", "digestionAgent" or "both".
func ParsePartitionBy(s string) (PartitionBy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "file":
		return ByFile, nil
	case "digestionagent", "agent", "protease":
		return ByDigestionAgent, nil
	case "both":
		return ByFileAndDigestionAgent, nil
	default:
		return 0, fmt.Errorf("invalid partition mode '%s', must be file, digestionAgent or both", s)
	}
}

// FileParameters are the per-file settings needed to place a PSM in a partition.
type FileParameters struct {
	DigestionAgent string `yaml:"digestionAgent"`
}

// PartitionFunc returns the partition key of a PSM.
type PartitionFunc func(*core.PSM) (string, error)

// Partitioner builds a PartitionFunc. Every PSM's file must have an entry in params;
// a missing entry is a configuration error.
func Partitioner(mode PartitionBy, params map[string]FileParameters) PartitionFunc {
	return func(psm *core.PSM) (string, error) {
		fp, ok := params[psm.File]
		if !ok {
			return "", &core.ConfigError{
				Field:   "files",
				Key:     psm.File,
				Message: fmt.Sprintf("no parameters for file referenced by PSM %s", psm.Label()),
			}
		}
		switch mode {
		case ByFile:
			return psm.File, nil
		case ByDigestionAgent:
			return fp.DigestionAgent, nil
		default:
			return psm.File + "/" + fp.DigestionAgent, nil
		}
	}
}

// Calculator computes PSM-level q-values.
type Calculator struct {
	Partition PartitionFunc
	Estimator Estimator
	Proteins  *core.ProteinDB // Used to weight PSMs ambiguous between targets and decoys
}

// Run writes FDR statistics onto every PSM and returns the PSMs in the order used
// for competition. All partition keys are resolved before anything is written, so an
// error leaves the PSMs untouched. PEP fields are preserved.
func (c *Calculator) Run(psms []*core.PSM) ([]*core.PSM, error) {
	if len(psms) == 0 {
		return []*core.PSM{}, nil
	}
	if c.Partition == nil {
		return nil, &core.ConfigError{Field: "partition", Message: "no partition function"}
	}

	type entry struct {
		psm   *core.PSM
		key   string
		notch int
		order int
	}
	entries := make([]entry, len(psms))
	for i, psm := range psms {
		if psm == nil {
			return nil, &core.ConfigError{Field: "psms", Message: fmt.Sprintf("PSM %d is nil", i)}
		}
		if len(psm.Candidates) == 0 {
			return nil, &core.DataDefectError{PSM: psm.Label(), Message: "no candidate peptides"}
		}
		key, err := c.Partition(psm)
		if err != nil {
			return nil, err
		}
		notch := psm.Notch()
		if notch == core.NotchAmbiguous {
			notch = int(^uint(0) >> 1) // ambiguous notches sort last
		}
		entries[i] = entry{psm: psm, key: key, notch: notch, order: i}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.psm.Score != b.psm.Score {
			return a.psm.Score > b.psm.Score
		}
		if a.notch != b.notch {
			return a.notch < b.notch
		}
		return a.order < b.order
	})

	items := make([]Item, len(entries))
	for i, e := range entries {
		items[i] = Item{Partition: e.key, Notch: e.notch, Decoy: e.psm.Decoy, Weight: 1}
		if e.psm.Decoy && c.Proteins != nil {
			if f := e.psm.DecoyFraction(c.Proteins); f > 0 {
				items[i].Weight = f
			}
		}
	}

	stats := Competition{Estimator: c.Estimator}.Run(items)

	out := make([]*core.PSM, len(entries))
	for i, e := range entries {
		fdr := e.psm.Fdr
		if fdr == nil {
			fdr = &core.FdrStatistics{}
			e.psm.Fdr = fdr
		}
		s := stats[i]
		fdr.CumulativeTarget = s.CumulativeTarget
		fdr.CumulativeDecoy = s.CumulativeDecoy
		fdr.CumulativeTargetNotch = s.CumulativeTargetNotch
		fdr.CumulativeDecoyNotch = s.CumulativeDecoyNotch
		fdr.QValue = s.QValue
		fdr.QValueNotch = s.QValueNotch
		fdr.QValueUndefined = s.Undefined
		out[i] = e.psm
	}
	return out, nil
}
