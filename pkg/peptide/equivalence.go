package peptide

import (
	"sort"
	"strings"

	"github.com/ChrisMcGann/protinfer/pkg/core"
	"github.com/ChrisMcGann/protinfer/pkg/digestion"
)

// SequenceLookup resolves a protein accession to its amino acid sequence.
type SequenceLookup interface {
	Sequence(accession string) (string, bool)
}

// Equivalence maps identities onto a canonical identity. Identities that share a
// modified sequence but come from different agents are unified when every place
// they were observed is the same protein span and every involved agent cleaves at
// both ends of that span. The unified identity's agent is the sorted agent names
// joined with "+".
//
// A nil Equivalence maps every identity to itself.
type Equivalence struct {
	alias map[core.PeptideIdentity]core.PeptideIdentity
}

type location struct {
	accession  string
	start, end int
}

// NewEquivalence builds the equivalence for a PSM set. When enabled is false the
// result is the identity mapping.
func NewEquivalence(reg *digestion.Registry, seqs SequenceLookup, psms []*core.PSM, enabled bool) (*Equivalence, error) {
	eq := &Equivalence{alias: make(map[core.PeptideIdentity]core.PeptideIdentity)}
	if !enabled {
		return eq, nil
	}
	if reg == nil {
		return nil, &core.ConfigError{Field: "registry", Message: "a digestion registry is required for cross-protease equivalence"}
	}
	if seqs == nil {
		return nil, &core.ConfigError{Field: "proteins", Message: "protein sequences are required for cross-protease equivalence"}
	}

	locs := make(map[core.PeptideIdentity]map[location]struct{})
	for _, psm := range psms {
		for _, c := range psm.Candidates {
			id := Of(c)
			set, ok := locs[id]
			if !ok {
				set = make(map[location]struct{})
				locs[id] = set
			}
			set[location{c.ProteinAccession, c.Start, c.End}] = struct{}{}
		}
	}

	byFull := make(map[string][]core.PeptideIdentity)
	for id := range locs {
		byFull[id.Full] = append(byFull[id.Full], id)
	}
	fulls := make([]string, 0, len(byFull))
	for f, ids := range byFull {
		if len(ids) > 1 {
			fulls = append(fulls, f)
		}
	}
	sort.Strings(fulls)

	for _, f := range fulls {
		ids := byFull[f]
		core.SortIdentities(ids)

		parent := make([]int, len(ids))
		for i := range parent {
			parent[i] = i
		}
		var find func(int) int
		find = func(i int) int {
			for parent[i] != i {
				parent[i] = parent[parent[i]]
				i = parent[i]
			}
			return i
		}

		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				if ids[i].Agent == ids[j].Agent || ids[i].Base != ids[j].Base {
					continue
				}
				if sameCleavage(reg, seqs, ids[i], ids[j], locs[ids[i]], locs[ids[j]]) {
					if ri, rj := find(i), find(j); ri != rj {
						parent[rj] = ri
					}
				}
			}
		}

		members := make(map[int][]int)
		for i := range ids {
			r := find(i)
			members[r] = append(members[r], i)
		}
		for _, idx := range members {
			if len(idx) < 2 {
				continue
			}
			agents := make([]string, 0, len(idx))
			for _, i := range idx {
				agents = append(agents, ids[i].Agent)
			}
			sort.Strings(agents)
			canonical := core.PeptideIdentity{
				Base:  ids[idx[0]].Base,
				Full:  f,
				Agent: strings.Join(agents, digestion.AgentSeparator),
			}
			for _, i := range idx {
				eq.alias[ids[i]] = canonical
			}
		}
	}

	return eq, nil
}

// sameCleavage reports whether two identities were seen at exactly the same protein
// spans and both agents generate every one of those spans.
func sameCleavage(reg *digestion.Registry, seqs SequenceLookup, a, b core.PeptideIdentity, la, lb map[location]struct{}) bool {
	if len(la) != len(lb) {
		return false
	}
	agentA, okA := reg.Lookup(a.Agent)
	agentB, okB := reg.Lookup(b.Agent)
	if !okA || !okB {
		return false
	}
	for loc := range la {
		if _, ok := lb[loc]; !ok {
			return false
		}
		seq, ok := seqs.Sequence(loc.accession)
		if !ok {
			return false
		}
		if !agentA.Produces(seq, loc.start, loc.end) || !agentB.Produces(seq, loc.start, loc.end) {
			return false
		}
	}
	return true
}

// Canonical returns the identity that id is counted as.
func (e *Equivalence) Canonical(id core.PeptideIdentity) core.PeptideIdentity {
	if e == nil {
		return id
	}
	if c, ok := e.alias[id]; ok {
		return c
	}
	return id
}

// Identify returns the canonical identity of a candidate.
func (e *Equivalence) Identify(c core.Candidate) core.PeptideIdentity {
	return e.Canonical(Of(c))
}

// Merged returns the number of identities that were unified with another one.
func (e *Equivalence) Merged() int {
	if e == nil {
		return 0
	}
	return len(e.alias)
}
