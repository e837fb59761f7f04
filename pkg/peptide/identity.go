// Package peptide builds peptide identities from candidate matches. An identity is the
// join key between PSMs and proteins: base sequence, modified sequence and digestion
// agent. Two candidates with the same sequence from different agents are different
// peptides unless an Equivalence says otherwise.
package peptide

import (
	"strings"

	"github.com/ChrisMcGann/protinfer/pkg/core"
)

// Of returns the identity of a candidate.
func Of(c core.Candidate) core.PeptideIdentity {
	full := c.FullSequence
	base := c.BaseSequence
	if base == "" {
		base = StripModifications(full)
	}
	if full == "" {
		full = base
	}
	return core.PeptideIdentity{Base: base, Full: full, Agent: c.DigestionAgent}
}

// StripModifications removes bracketed modifications from a sequence,
// e.g. "[Acetyl]-PEPM[Oxidation]K" becomes "PEPMK".
func StripModifications(full string) string {
	if strings.IndexByte(full, '[') < 0 {
		return full
	}
	var b strings.Builder
	depth := 0
	for i := 0; i < len(full); i++ {
		switch ch := full[i]; {
		case ch == '[':
			depth++
		case ch == ']':
			if depth > 0 {
				depth--
			}
		case depth > 0:
		case ch == '-' && (b.Len() == 0 || i == len(full)-1):
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}
