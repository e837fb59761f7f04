package core

import (
	"sort"
	"strings"
)

// PeptideIdentity is the key that decides whether two candidates are the same
// analytical peptide. Sequences produced by different digestion agents are
// different identities.
type PeptideIdentity struct {
	Base  string
	Full  string
	Agent string
}

// String renders the identity as "FULL@agent".
func (id PeptideIdentity) String() string {
	return id.Full + "@" + id.Agent
}

// Compare orders identities by base sequence, full sequence, then agent.
func (id PeptideIdentity) Compare(other PeptideIdentity) int {
	if c := strings.Compare(id.Base, other.Base); c != 0 {
		return c
	}
	if c := strings.Compare(id.Full, other.Full); c != 0 {
		return c
	}
	return strings.Compare(id.Agent, other.Agent)
}

// SortIdentities sorts ids in place using Compare.
func SortIdentities(ids []PeptideIdentity) {
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].Compare(ids[j]) < 0
	})
}
