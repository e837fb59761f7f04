// Package scoring scores protein groups from their supporting PSMs and runs
// protein-level target-decoy competition.
package scoring

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/ChrisMcGann/protinfer/pkg/core"
	"github.com/ChrisMcGann/protinfer/pkg/fdr"
	"github.com/ChrisMcGann/protinfer/pkg/peptide"
)

// Aggregation selects how PSM evidence becomes a group score.
type Aggregation int

const (
	// SumBestPerPeptide sums the best PSM score of every peptide of the group.
	SumBestPerPeptide Aggregation = iota
	// PeptideCountOnly counts the group's peptides.
	PeptideCountOnly
	// MultiFileMerge sums, per peptide, the best PSM score in every file.
	MultiFileMerge
)

func (a Aggregation) String() string {
	switch a {
	case SumBestPerPeptide:
		return "sumBestPerPeptide"
	case PeptideCountOnly:
		return "peptideCountOnly"
	case MultiFileMerge:
		return "multiFileMerge"
	default:
		return fmt.Sprintf("Aggregation(%d)", int(a))
	}
}

// ParseAggregation parses an aggregation name. The empty string selects the default.
func ParseAggregation(s string) (Aggregation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sumbestperpeptide":
		return SumBestPerPeptide, nil
	case "peptidecountonly":
		return PeptideCountOnly, nil
	case "multifilemerge":
		return MultiFileMerge, nil
	default:
		return 0, fmt.Errorf("invalid aggregation '%s', must be sumBestPerPeptide, peptideCountOnly or multiFileMerge", s)
	}
}

// ProteinPartition is the partition used when a Scorer has no Partition function.
const ProteinPartition = "protein"

// Scorer scores protein groups and computes their q-values.
type Scorer struct {
	Aggregation          Aggregation
	RequireUniquePeptide bool
	Identities           *peptide.Equivalence
	Estimator            fdr.Estimator
	Partition            func(*core.ProteinGroup) string
}

// evidence is the best PSM score per peptide, overall and per file.
type evidence struct {
	best   map[core.PeptideIdentity]float64
	byFile map[core.PeptideIdentity]map[string]float64
}

func (s *Scorer) collect(psms []*core.PSM) (*evidence, error) {
	ev := &evidence{
		best:   make(map[core.PeptideIdentity]float64),
		byFile: make(map[core.PeptideIdentity]map[string]float64),
	}
	for i, psm := range psms {
		if psm == nil {
			return nil, &core.ConfigError{Field: "psms", Message: fmt.Sprintf("PSM %d is nil", i)}
		}
		for _, c := range psm.Candidates {
			id := s.Identities.Identify(c)
			if b, ok := ev.best[id]; !ok || psm.Score > b {
				ev.best[id] = psm.Score
			}
			files, ok := ev.byFile[id]
			if !ok {
				files = make(map[string]float64)
				ev.byFile[id] = files
			}
			if b, ok := files[psm.File]; !ok || psm.Score > b {
				files[psm.File] = psm.Score
			}
		}
	}
	return ev, nil
}

func (s *Scorer) score(g *core.ProteinGroup, ev *evidence) (float64, error) {
	values := make([]float64, 0, len(g.AllPeptides))
	for _, id := range g.AllPeptides {
		best, ok := ev.best[id]
		if !ok {
			return 0, &core.ConfigError{
				Field:   "groups",
				Key:     g.Name,
				Message: fmt.Sprintf("peptide %s has no supporting PSM", id),
			}
		}
		switch s.Aggregation {
		case PeptideCountOnly:
			values = append(values, 1)
		case MultiFileMerge:
			files := ev.byFile[id]
			names := make([]string, 0, len(files))
			for f := range files {
				names = append(names, f)
			}
			sort.Strings(names)
			for _, f := range names {
				values = append(values, files[f])
			}
		default:
			values = append(values, best)
		}
	}
	return floats.Sum(values), nil
}

// Run scores groups from psms, drops groups without a unique peptide when
// configured to, sorts by score descending then name, and writes protein-level
// FDR statistics. Group membership is never changed, so running it again on its
// own output yields the same result.
func (s *Scorer) Run(groups []*core.ProteinGroup, psms []*core.PSM) ([]*core.ProteinGroup, error) {
	ev, err := s.collect(psms)
	if err != nil {
		return nil, err
	}

	scores := make([]float64, len(groups))
	for i, g := range groups {
		if g == nil {
			return nil, &core.ConfigError{Field: "groups", Message: fmt.Sprintf("group %d is nil", i)}
		}
		if scores[i], err = s.score(g, ev); err != nil {
			return nil, err
		}
	}

	out := make([]*core.ProteinGroup, 0, len(groups))
	for i, g := range groups {
		if s.RequireUniquePeptide && len(g.UniquePeptides) == 0 {
			continue
		}
		g.Score = scores[i]
		out = append(out, g)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Name < out[j].Name
	})

	items := make([]fdr.Item, len(out))
	for i, g := range out {
		items[i] = fdr.Item{Partition: ProteinPartition, Decoy: g.Decoy, Weight: 1}
		if s.Partition != nil {
			items[i].Partition = s.Partition(g)
		}
	}
	stats := fdr.Competition{Estimator: s.Estimator}.Run(items)

	for i, g := range out {
		st := stats[i]
		if g.Fdr == nil {
			g.Fdr = &core.FdrStatistics{}
		}
		g.Fdr.CumulativeTarget = st.CumulativeTarget
		g.Fdr.CumulativeDecoy = st.CumulativeDecoy
		g.Fdr.CumulativeTargetNotch = st.CumulativeTargetNotch
		g.Fdr.CumulativeDecoyNotch = st.CumulativeDecoyNotch
		g.Fdr.QValue = st.QValue
		g.Fdr.QValueNotch = st.QValueNotch
		g.Fdr.QValueUndefined = st.Undefined
	}
	return out, nil
}
