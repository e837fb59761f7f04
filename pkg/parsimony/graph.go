package parsimony

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"github.com/ChrisMcGann/protinfer/pkg/core"
	"github.com/ChrisMcGann/protinfer/pkg/digestion"
	"github.com/ChrisMcGann/protinfer/pkg/peptide"
)

// graph is the peptide-protein relation stored as index lists. Peptides and
// proteins are interned into arenas and referred to by int32 handles.
type graph struct {
	peptides []core.PeptideIdentity
	pepIndex map[core.PeptideIdentity]int32

	proteins  []*core.Protein
	protIndex map[string]int32

	pepProts [][]int32 // peptide -> proteins, sorted
	protPeps [][]int32 // protein -> peptides, sorted
}

// buildGraph records, for every candidate of every PSM, which proteins can produce
// its peptide. Every data defect found is reported; no graph is returned if any.
func buildGraph(db *core.ProteinDB, eq *peptide.Equivalence, psms []*core.PSM) (*graph, error) {
	g := &graph{
		pepIndex:  make(map[core.PeptideIdentity]int32),
		protIndex: make(map[string]int32),
	}
	edges := make(map[[2]int32]struct{})

	var errs error
	for i, psm := range psms {
		if psm == nil {
			return nil, &core.ConfigError{Field: "psms", Message: fmt.Sprintf("PSM %d is nil", i)}
		}
		if err := psm.Validate(db); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		for _, c := range psm.Candidates {
			prot, _ := db.Lookup(c.ProteinAccession)
			pi := g.internPeptide(eq.Identify(c))
			ri := g.internProtein(prot)
			edges[[2]int32{pi, ri}] = struct{}{}
		}
	}
	if errs != nil {
		return nil, errs
	}

	g.pepProts = make([][]int32, len(g.peptides))
	g.protPeps = make([][]int32, len(g.proteins))
	for e := range edges {
		g.pepProts[e[0]] = append(g.pepProts[e[0]], e[1])
		g.protPeps[e[1]] = append(g.protPeps[e[1]], e[0])
	}
	for _, l := range g.pepProts {
		sortInt32(l)
	}
	for _, l := range g.protPeps {
		sortInt32(l)
	}
	return g, nil
}

func (g *graph) internPeptide(id core.PeptideIdentity) int32 {
	if i, ok := g.pepIndex[id]; ok {
		return i
	}
	i := int32(len(g.peptides))
	g.peptides = append(g.peptides, id)
	g.pepIndex[id] = i
	return i
}

func (g *graph) internProtein(p *core.Protein) int32 {
	if i, ok := g.protIndex[p.Accession]; ok {
		return i
	}
	i := int32(len(g.proteins))
	g.proteins = append(g.proteins, p)
	g.protIndex[p.Accession] = i
	return i
}

// class is a set of proteins with identical peptide lists.
type class struct {
	members []int32 // protein handles, sorted by accession
	peps    []int32
	name    string
	agents  int
}

// classes collapses proteins with identical peptide lists. The result is ordered
// by class name.
func (g *graph) classes() ([]class, [][]int32) {
	byKey := make(map[string]int)
	var out []class
	for pi, peps := range g.protPeps {
		key := peptideKey(peps)
		ci, ok := byKey[key]
		if !ok {
			ci = len(out)
			byKey[key] = ci
			out = append(out, class{peps: peps})
		}
		out[ci].members = append(out[ci].members, int32(pi))
	}

	for i := range out {
		c := &out[i]
		sort.Slice(c.members, func(a, b int) bool {
			return g.proteins[c.members[a]].Accession < g.proteins[c.members[b]].Accession
		})
		accs := make([]string, len(c.members))
		for j, m := range c.members {
			accs[j] = g.proteins[m].Accession
		}
		c.name = core.GroupName(accs)
		c.agents = g.agentCount(c.peps)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].name < out[b].name })

	pepClasses := make([][]int32, len(g.peptides))
	for ci, c := range out {
		for _, p := range c.peps {
			pepClasses[p] = append(pepClasses[p], int32(ci))
		}
	}
	return out, pepClasses
}

// agentCount counts the distinct digestion agents among peptides. Agents of
// identities unified across proteases are counted individually.
func (g *graph) agentCount(peps []int32) int {
	seen := make(map[string]struct{})
	for _, p := range peps {
		for _, a := range strings.Split(g.peptides[p].Agent, digestion.AgentSeparator) {
			seen[a] = struct{}{}
		}
	}
	return len(seen)
}

func peptideKey(peps []int32) string {
	var b strings.Builder
	for i, p := range peps {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(int(p)))
	}
	return b.String()
}

func sortInt32(s []int32) {
	sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })
}
