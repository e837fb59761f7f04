// Package fdr implements target-decoy competition and the PSM-level FDR calculator.
//
// Competition is shared by PSM-level and protein-level FDR: callers hand it items that
// are already in their final score-descending order and get back cumulative counts
// and q-values. A q-value never decreases as the score decreases within a partition.
package fdr

import (
	"fmt"
	"math"
	"strings"
)

// Estimator turns cumulative decoy and target counts into a raw FDR estimate.
type Estimator int

const (
	// DecoyOverTarget estimates FDR as min(1, decoys/targets).
	DecoyOverTarget Estimator = iota
	// DecoyOverTotal estimates FDR as decoys/(targets+decoys).
	DecoyOverTotal
)

func (e Estimator) String() string {
	switch e {
	case DecoyOverTarget:
		return "decoyOverTarget"
	case DecoyOverTotal:
		return "decoyOverTotal"
	default:
		return fmt.Sprintf("Estimator(%d)", int(e))
	}
}

// ParseEstimator parses an estimator name. The empty string selects the default.
func ParseEstimator(s string) (Estimator, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "decoyovertarget":
		return DecoyOverTarget, nil
	case "decoyovertotal":
		return DecoyOverTotal, nil
	default:
		return 0, fmt.Errorf("invalid estimator '%s', must be decoyOverTarget or decoyOverTotal", s)
	}
}

// Raw returns the FDR estimate for the given counts. With no decoys it is 0. With
// decoys but no targets the estimate is undefined and reported as 1, the largest
// possible q-value.
func (e Estimator) Raw(targets, decoys float64) (q float64, undefined bool) {
	if decoys <= 0 {
		return 0, false
	}
	if targets <= 0 {
		return 1, true
	}
	switch e {
	case DecoyOverTotal:
		return decoys / (targets + decoys), false
	default:
		return math.Min(1, decoys/targets), false
	}
}

// Item is one entry competing in target-decoy competition.
type Item struct {
	Partition string
	Notch     int
	Decoy     bool
	Weight    float64 // Added to the target or decoy count; 0 counts as 1
}

func (it Item) weight() float64 {
	if it.Weight == 0 {
		return 1
	}
	return it.Weight
}

// Stats is the outcome of competition for one item.
type Stats struct {
	CumulativeTarget      float64
	CumulativeDecoy       float64
	CumulativeTargetNotch float64
	CumulativeDecoyNotch  float64
	QValue                float64
	QValueNotch           float64

	// Undefined is set when the partition had decoys but no targets at this rank.
	Undefined bool
}

// Competition runs target-decoy competition with the configured estimator.
type Competition struct {
	Estimator Estimator
}

type counter struct {
	target, decoy, maxQ float64
}

type notchKey struct {
	partition string
	notch     int
}

// Run computes statistics for items in the order given. The caller is responsible
// for a deterministic score-descending order.
func (c Competition) Run(items []Item) []Stats {
	out := make([]Stats, len(items))

	partitions := make(map[string]*counter)
	for i, it := range items {
		cnt, ok := partitions[it.Partition]
		if !ok {
			cnt = &counter{}
			partitions[it.Partition] = cnt
		}
		if it.Decoy {
			cnt.decoy += it.weight()
		} else {
			cnt.target += it.weight()
		}
		raw, undefined := c.Estimator.Raw(cnt.target, cnt.decoy)
		cnt.maxQ = math.Max(cnt.maxQ, raw)

		out[i].CumulativeTarget = cnt.target
		out[i].CumulativeDecoy = cnt.decoy
		out[i].QValue = cnt.maxQ
		out[i].Undefined = undefined
	}

	notches := make(map[notchKey]*counter)
	for i, it := range items {
		key := notchKey{it.Partition, it.Notch}
		cnt, ok := notches[key]
		if !ok {
			cnt = &counter{}
			notches[key] = cnt
		}
		if it.Decoy {
			cnt.decoy += it.weight()
		} else {
			cnt.target += it.weight()
		}
		raw, _ := c.Estimator.Raw(cnt.target, cnt.decoy)
		cnt.maxQ = math.Max(cnt.maxQ, raw)

		out[i].CumulativeTargetNotch = cnt.target
		out[i].CumulativeDecoyNotch = cnt.decoy
		out[i].QValueNotch = cnt.maxQ
	}

	return out
}

// PartitionSummary counts items passing a q-value threshold in one partition.
type PartitionSummary struct {
	Partition string
	Targets   float64
	Decoys    float64
}

// Summarize returns per-partition target and decoy totals among items whose q-value
// is at or below threshold, ordered by first appearance.
func Summarize(items []Item, stats []Stats, threshold float64) []PartitionSummary {
	var out []PartitionSummary
	index := make(map[string]int)
	for i, it := range items {
		j, ok := index[it.Partition]
		if !ok {
			j = len(out)
			index[it.Partition] = j
			out = append(out, PartitionSummary{Partition: it.Partition})
		}
		if i >= len(stats) || stats[i].QValue > threshold {
			continue
		}
		if it.Decoy {
			out[j].Decoys += it.weight()
		} else {
			out[j].Targets += it.weight()
		}
	}
	return out
}
