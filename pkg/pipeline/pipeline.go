// Package pipeline runs PSM-level FDR, protein parsimony and protein group scoring
// as one inference run.
package pipeline

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/multierr"

	"github.com/ChrisMcGann/protinfer/pkg/config"
	"github.com/ChrisMcGann/protinfer/pkg/core"
	"github.com/ChrisMcGann/protinfer/pkg/fdr"
	"github.com/ChrisMcGann/protinfer/pkg/filter"
	"github.com/ChrisMcGann/protinfer/pkg/parsimony"
	"github.com/ChrisMcGann/protinfer/pkg/peptide"
	"github.com/ChrisMcGann/protinfer/pkg/scoring"
)

// Input is everything a run reads.
type Input struct {
	PSMs     []*core.PSM
	Proteins []*core.Protein
}

// Result is the output of a run.
type Result struct {
	PSMs       []*core.PSM          // Every PSM in competition order, with FDR statistics
	Accepted   []*core.PSM          // PSMs passing every filter, decoys included
	Groups     []*core.ProteinGroup // Scored groups, best first
	Merged     int                  // Identities unified across proteases
	Threshold  float64
	partitions []string // Partition key of each entry of PSMs
}

// Run executes one inference run. Data defects in the input are collected and
// returned together; nothing is computed when any are found.
//
// The PSMs of in are not modified. Run works on copies holding the best candidates,
// and those copies carry the FDR statistics in Result.PSMs.
func Run(ctx context.Context, in Input, opts *config.Options) (*Result, error) {
	if opts == nil {
		opts = config.Default()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	partitionBy, _ := opts.Partition()
	estimator, _ := opts.FdrEstimator()
	aggregation, _ := opts.Aggregation()
	tieBreak, _ := opts.TieBreakers()
	reg, err := opts.Registry()
	if err != nil {
		return nil, err
	}

	db, err := core.NewProteinDB(in.Proteins)
	if err != nil {
		return nil, err
	}

	psms, err := prepare(in.PSMs, db, opts)
	if err != nil {
		return nil, err
	}

	partition := fdr.Partitioner(partitionBy, opts.Files)
	calc := &fdr.Calculator{Partition: partition, Estimator: estimator, Proteins: db}
	ordered, err := calc.Run(psms)
	if err != nil {
		return nil, fmt.Errorf("PSM FDR: %w", err)
	}

	res := &Result{PSMs: ordered, Threshold: opts.QValueThreshold}
	res.partitions = make([]string, len(ordered))
	for i, psm := range ordered {
		if res.partitions[i], err = partition(psm); err != nil {
			return nil, err
		}
	}

	f := filter.Config{
		MaxQValue:        opts.QValueThreshold,
		MaxQValueNotch:   opts.QValueNotchThreshold,
		MaxPEPQValue:     opts.PEPQValueThreshold,
		MinScore:         opts.MinScore,
		KeepDecoys:       true,
		KeepContaminants: true,
	}
	res.Accepted = f.Apply(ordered)

	eq, err := peptide.NewEquivalence(reg, db, res.Accepted, opts.TreatSameCleavageAcrossProteasesAsSamePeptide)
	if err != nil {
		return nil, err
	}
	res.Merged = eq.Merged()

	resolver := &parsimony.Resolver{
		Proteins:       db,
		Identities:     eq,
		TieBreak:       tieBreak,
		UniquePerGroup: opts.UniquePeptidesPerGroup,
	}
	groups, err := resolver.Run(ctx, res.Accepted)
	if err != nil {
		return nil, fmt.Errorf("protein parsimony: %w", err)
	}

	scorer := &scoring.Scorer{
		Aggregation:          aggregation,
		RequireUniquePeptide: opts.RequireUniquePeptidePerGroup,
		Identities:           eq,
		Estimator:            estimator,
	}
	if res.Groups, err = scorer.Run(groups, res.Accepted); err != nil {
		return nil, fmt.Errorf("protein group scoring: %w", err)
	}

	return res, nil
}

// prepare copies each PSM with its best candidates, fills in digestion agents from
// the file parameters and classifies the copy against the protein database.
func prepare(psms []*core.PSM, db *core.ProteinDB, opts *config.Options) ([]*core.PSM, error) {
	var errs error
	out := make([]*core.PSM, 0, len(psms))
	for i, psm := range psms {
		if psm == nil {
			return nil, &core.ConfigError{Field: "psms", Message: fmt.Sprintf("PSM %d is nil", i)}
		}
		best := psm.BestMatches(opts.ScoreTolerance)
		if fp, ok := opts.Files[best.File]; ok {
			for j := range best.Candidates {
				if best.Candidates[j].DigestionAgent == "" {
					best.Candidates[j].DigestionAgent = fp.DigestionAgent
				}
			}
		}
		if err := best.Classify(db); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		for _, c := range best.Candidates {
			if c.DigestionAgent == "" {
				errs = multierr.Append(errs, &core.DataDefectError{
					PSM:       best.Label(),
					Candidate: c.FullSequence,
					Message:   "no digestion agent",
				})
				break
			}
		}
		out = append(out, best)
	}
	if errs != nil {
		return nil, errs
	}
	return out, nil
}

// Summary counts what a run accepted.
type Summary struct {
	PSMs              int
	TargetPSMs        int // Accepted targets
	DecoyPSMs         int // Accepted decoys
	Groups            int
	TargetGroups      int
	DecoyGroups       int
	ContaminantGroups int
	MergedIdentities  int
	Partitions        []fdr.PartitionSummary // Accepted PSMs per partition
}

// Summary counts the accepted PSMs, the same set parsimony saw, and the groups
// at or below the run's q-value threshold.
func (r *Result) Summary() Summary {
	s := Summary{
		PSMs:             len(r.PSMs),
		Groups:           len(r.Groups),
		MergedIdentities: r.Merged,
	}

	accepted := make(map[*core.PSM]bool, len(r.Accepted))
	for _, psm := range r.Accepted {
		accepted[psm] = true
		if psm.Decoy {
			s.DecoyPSMs++
		} else {
			s.TargetPSMs++
		}
	}

	// Rejected PSMs get an infinite q-value so Summarize leaves them out.
	items := make([]fdr.Item, len(r.PSMs))
	stats := make([]fdr.Stats, len(r.PSMs))
	for i, psm := range r.PSMs {
		items[i] = fdr.Item{Partition: r.partitions[i], Notch: psm.Notch(), Decoy: psm.Decoy, Weight: 1}
		stats[i] = fdr.Stats{QValue: math.Inf(1)}
		if accepted[psm] {
			stats[i].QValue = psm.Fdr.QValue
		}
	}
	s.Partitions = fdr.Summarize(items, stats, r.Threshold)

	for _, g := range r.Groups {
		if g.Fdr == nil || g.Fdr.QValue > r.Threshold {
			continue
		}
		switch {
		case g.Decoy:
			s.DecoyGroups++
		case g.Contaminant:
			s.ContaminantGroups++
			s.TargetGroups++
		default:
			s.TargetGroups++
		}
	}
	return s
}
