// Package parsimony infers the smallest set of protein groups that explains a set of
// peptide-spectrum matches.
//
// Proteins that can produce exactly the same peptide identities are indistinguishable
// and are reported as a single group named by their sorted accessions joined with "|".
// Because identities include the digestion agent, the same amino acid sequence seen
// under two proteases counts as two peptides both for the cover and for uniqueness.
package parsimony

import (
	"container/heap"
	"context"
	"fmt"
	"strings"

	"github.com/ChrisMcGann/protinfer/pkg/core"
	"github.com/ChrisMcGann/protinfer/pkg/peptide"
)

// TieBreaker orders two protein classes that cover the same number of
// not-yet-covered peptides.
type TieBreaker int

const (
	// PreferSelected prefers a class already selected in this run.
	PreferSelected TieBreaker = iota
	// PreferMoreAgents prefers the class whose peptides span more digestion agents.
	PreferMoreAgents
	// PreferSmallerAccession prefers the lexicographically smallest group name.
	PreferSmallerAccession
)

// DefaultTieBreak is the tie-break order used when a Resolver has none configured.
var DefaultTieBreak = []TieBreaker{PreferSelected, PreferMoreAgents, PreferSmallerAccession}

func (t TieBreaker) String() string {
	switch t {
	case PreferSelected:
		return "selected"
	case PreferMoreAgents:
		return "agents"
	case PreferSmallerAccession:
		return "accession"
	default:
		return fmt.Sprintf("TieBreaker(%d)", int(t))
	}
}

// ParseTieBreak parses tie-breaker names ("selected", "agents", "accession").
func ParseTieBreak(names []string) ([]TieBreaker, error) {
	out := make([]TieBreaker, 0, len(names))
	for _, n := range names {
		switch strings.ToLower(strings.TrimSpace(n)) {
		case "selected":
			out = append(out, PreferSelected)
		case "agents":
			out = append(out, PreferMoreAgents)
		case "accession":
			out = append(out, PreferSmallerAccession)
		default:
			return nil, fmt.Errorf("invalid tie breaker '%s', must be selected, agents or accession", n)
		}
	}
	return out, nil
}

// Resolver runs protein parsimony. It is threshold-agnostic: callers filter PSMs
// by q-value before calling Run.
type Resolver struct {
	Proteins   *core.ProteinDB
	Identities *peptide.Equivalence // nil: identities are used as-is
	TieBreak   []TieBreaker         // nil: DefaultTieBreak

	// UniquePerGroup counts a peptide as unique when it maps to a single selected
	// group. By default it must map to a single selected protein, so peptides of a
	// group of indistinguishable proteins are never unique.
	UniquePerGroup bool
}

// Run selects protein groups for psms. The context is checked once per greedy
// iteration; on cancellation no groups are returned. Groups are ordered by name.
func (r *Resolver) Run(ctx context.Context, psms []*core.PSM) ([]*core.ProteinGroup, error) {
	if r.Proteins == nil {
		return nil, &core.ConfigError{Field: "proteins", Message: "no protein database"}
	}
	if len(psms) == 0 {
		return []*core.ProteinGroup{}, nil
	}

	g, err := buildGraph(r.Proteins, r.Identities, psms)
	if err != nil {
		return nil, err
	}
	classes, pepClasses := g.classes()

	tieBreak := r.TieBreak
	if tieBreak == nil {
		tieBreak = DefaultTieBreak
	}
	sel := &selection{
		classes:  classes,
		tieBreak: tieBreak,
		count:    make([]int, len(classes)),
		selected: make([]bool, len(classes)),
	}
	for i, c := range classes {
		sel.count[i] = len(c.peps)
	}
	if err := sel.cover(ctx, len(g.peptides), pepClasses); err != nil {
		return nil, err
	}

	return buildGroups(g, classes, pepClasses, sel.selected, r.UniquePerGroup), nil
}

// selection is the state of the greedy cover.
type selection struct {
	classes  []class
	tieBreak []TieBreaker
	count    []int // not-yet-covered peptides per class
	selected []bool

	queue []candidate
}

// candidate is a queued class with the uncovered count it had when queued.
type candidate struct {
	class int32
	count int
}

// better reports whether class a with count ca should be chosen over class b
// with count cb.
func (s *selection) better(a int32, ca int, b int32, cb int) bool {
	if ca != cb {
		return ca > cb
	}
	for _, t := range s.tieBreak {
		switch t {
		case PreferSelected:
			if s.selected[a] != s.selected[b] {
				return s.selected[a]
			}
		case PreferMoreAgents:
			if s.classes[a].agents != s.classes[b].agents {
				return s.classes[a].agents > s.classes[b].agents
			}
		case PreferSmallerAccession:
			if s.classes[a].name != s.classes[b].name {
				return s.classes[a].name < s.classes[b].name
			}
		}
	}
	return a < b
}

func (s *selection) Len() int { return len(s.queue) }
func (s *selection) Less(i, j int) bool {
	return s.better(s.queue[i].class, s.queue[i].count, s.queue[j].class, s.queue[j].count)
}
func (s *selection) Swap(i, j int) { s.queue[i], s.queue[j] = s.queue[j], s.queue[i] }
func (s *selection) Push(x any)    { s.queue = append(s.queue, x.(candidate)) }
func (s *selection) Pop() any {
	n := len(s.queue)
	x := s.queue[n-1]
	s.queue = s.queue[:n-1]
	return x
}

// cover repeatedly selects the class covering the most uncovered peptides. Counts
// only go down, so a popped class whose queued count is stale is pushed back with
// its current count; the first class popped with a current count is the best one.
func (s *selection) cover(ctx context.Context, numPeptides int, pepClasses [][]int32) error {
	covered := make([]bool, numPeptides)
	remaining := numPeptides

	s.queue = make([]candidate, 0, len(s.classes))
	for i := range s.classes {
		s.queue = append(s.queue, candidate{class: int32(i), count: s.count[i]})
	}
	heap.Init(s)

	for remaining > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		var best int32 = -1
		for s.Len() > 0 {
			c := heap.Pop(s).(candidate)
			if c.count != s.count[c.class] {
				heap.Push(s, candidate{class: c.class, count: s.count[c.class]})
				continue
			}
			best = c.class
			break
		}
		if best < 0 || s.count[best] == 0 {
			return fmt.Errorf("parsimony: %d peptides left uncovered", remaining)
		}

		s.selected[best] = true
		for _, p := range s.classes[best].peps {
			if covered[p] {
				continue
			}
			covered[p] = true
			remaining--
			for _, c := range pepClasses[p] {
				s.count[c]--
			}
		}
	}
	return nil
}

// buildGroups turns the selected classes into protein groups and marks unique
// peptides: those with a single selected owner, where an owner is a protein or,
// with perGroup, a class.
func buildGroups(g *graph, classes []class, pepClasses [][]int32, selected []bool, perGroup bool) []*core.ProteinGroup {
	owners := make([]int, len(g.peptides))
	for p, cs := range pepClasses {
		for _, c := range cs {
			if !selected[c] {
				continue
			}
			if perGroup {
				owners[p]++
			} else {
				owners[p] += len(classes[c].members)
			}
		}
	}

	var groups []*core.ProteinGroup
	for ci, c := range classes {
		if !selected[ci] {
			continue
		}
		grp := &core.ProteinGroup{
			Name:        c.name,
			Accessions:  make([]string, len(c.members)),
			Decoy:       true,
			AllPeptides: make([]core.PeptideIdentity, 0, len(c.peps)),
		}
		for i, m := range c.members {
			prot := g.proteins[m]
			grp.Accessions[i] = prot.Accession
			if !prot.Decoy {
				grp.Decoy = false
			}
			if prot.Contaminant {
				grp.Contaminant = true
			}
		}
		for _, p := range c.peps {
			id := g.peptides[p]
			grp.AllPeptides = append(grp.AllPeptides, id)
			if owners[p] == 1 {
				grp.UniquePeptides = append(grp.UniquePeptides, id)
			}
		}
		core.SortIdentities(grp.AllPeptides)
		core.SortIdentities(grp.UniquePeptides)
		groups = append(groups, grp)
	}
	return groups
}
