// Package digestion describes the proteases (digestion agents) that produce peptides and
// answers whether a peptide's termini are consistent with an agent's cleavage rule.
package digestion

import (
	"fmt"
	"strings"
)

// AgentSeparator joins the names of agents unified into one peptide identity.
const AgentSeparator = "+"

// Site is one cleavage motif of an agent.
type Site struct {
	Residue   byte   // Residue the motif anchors on
	CTerminal bool   // Cut after Residue ("K|") rather than before it ("|D")
	BlockedBy string // Residues on the other side of the cut that prevent cleavage
}

// Agent is a named protease with its cleavage motifs.
type Agent struct {
	Name  string
	Sites []Site
}

// ParseMotif parses a comma-separated motif list such as "K|[P],R|[P]" or "|D".
func ParseMotif(motif string) ([]Site, error) {
	var sites []Site
	for _, part := range strings.Split(motif, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		bar := strings.IndexByte(part, '|')
		if bar < 0 {
			return nil, fmt.Errorf("motif '%s' has no cleavage marker '|'", part)
		}
		left, right := part[:bar], part[bar+1:]

		var site Site
		var anchor, blocked string
		switch {
		case left != "" && !strings.HasPrefix(left, "["):
			site.CTerminal = true
			anchor, blocked = left, right
		case right != "" && !strings.HasPrefix(right, "["):
			anchor, blocked = right, left
		default:
			return nil, fmt.Errorf("motif '%s' has no anchor residue", part)
		}

		if len(anchor) != 1 {
			return nil, fmt.Errorf("motif '%s' must anchor on a single residue", part)
		}
		site.Residue = anchor[0]

		if blocked != "" {
			if !strings.HasPrefix(blocked, "[") || !strings.HasSuffix(blocked, "]") {
				return nil, fmt.Errorf("motif '%s' has a malformed restriction", part)
			}
			site.BlockedBy = blocked[1 : len(blocked)-1]
		}
		sites = append(sites, site)
	}
	if len(sites) == 0 {
		return nil, fmt.Errorf("empty motif")
	}
	return sites, nil
}

// NewAgent creates an agent from a motif string.
func NewAgent(name, motif string) (*Agent, error) {
	if name == "" {
		return nil, fmt.Errorf("digestion agent needs a name")
	}
	if strings.Contains(name, AgentSeparator) {
		return nil, fmt.Errorf("agent name '%s' contains '%s'", name, AgentSeparator)
	}
	sites, err := ParseMotif(motif)
	if err != nil {
		return nil, fmt.Errorf("agent %s: %w", name, err)
	}
	return &Agent{Name: name, Sites: sites}, nil
}

// CleavesBetween reports whether the agent cuts between seq[i-1] and seq[i].
func (a *Agent) CleavesBetween(seq string, i int) bool {
	if i <= 0 || i >= len(seq) {
		return false
	}
	before, after := seq[i-1], seq[i]
	for _, s := range a.Sites {
		if s.CTerminal {
			if before == s.Residue && strings.IndexByte(s.BlockedBy, after) < 0 {
				return true
			}
		} else if after == s.Residue && strings.IndexByte(s.BlockedBy, before) < 0 {
			return true
		}
	}
	return false
}

// Produces reports whether a peptide spanning the 1-based residues start..end of
// the protein sequence has termini the agent could have generated. Protein termini
// and removal of an initiator methionine are always accepted.
func (a *Agent) Produces(protein string, start, end int) bool {
	if start < 1 || end > len(protein) || start > end {
		return false
	}

	nTermOK := start == 1 ||
		(start == 2 && protein[0] == 'M') ||
		a.CleavesBetween(protein, start-1)
	if !nTermOK {
		return false
	}

	return end == len(protein) || a.CleavesBetween(protein, end)
}
