package core

import (
	"fmt"
	"sort"
	"strings"
)

// Protein is a database entry that candidate peptides can be traced back to.
type Protein struct {
	Accession   string
	Sequence    string // Optional; needed only for cleavage-site checks
	Decoy       bool
	Contaminant bool
}

// ProteinDB is a read-only accession lookup.
type ProteinDB struct {
	proteins []*Protein
	index    map[string]int
}

// NewProteinDB indexes proteins by accession. Duplicate or empty accessions are
// configuration errors.
func NewProteinDB(proteins []*Protein) (*ProteinDB, error) {
	db := &ProteinDB{
		proteins: make([]*Protein, 0, len(proteins)),
		index:    make(map[string]int, len(proteins)),
	}
	for i, p := range proteins {
		if p == nil || p.Accession == "" {
			return nil, &ConfigError{Field: "proteins", Message: fmt.Sprintf("entry %d has no accession", i)}
		}
		if _, dup := db.index[p.Accession]; dup {
			return nil, &ConfigError{Field: "proteins", Message: fmt.Sprintf("duplicate accession %q", p.Accession)}
		}
		db.index[p.Accession] = len(db.proteins)
		db.proteins = append(db.proteins, p)
	}
	return db, nil
}

// Lookup returns the protein with the given accession.
func (db *ProteinDB) Lookup(accession string) (*Protein, bool) {
	if db == nil {
		return nil, false
	}
	i, ok := db.index[accession]
	if !ok {
		return nil, false
	}
	return db.proteins[i], true
}

// Sequence returns the amino acid sequence of a protein, if known.
func (db *ProteinDB) Sequence(accession string) (string, bool) {
	p, ok := db.Lookup(accession)
	if !ok || p.Sequence == "" {
		return "", false
	}
	return p.Sequence, true
}

// Len returns the number of proteins.
func (db *ProteinDB) Len() int {
	if db == nil {
		return 0
	}
	return len(db.proteins)
}

// ProteinGroup is one or more indistinguishable proteins reported together.
type ProteinGroup struct {
	Name           string
	Accessions     []string
	Decoy          bool
	Contaminant    bool
	AllPeptides    []PeptideIdentity // Sorted
	UniquePeptides []PeptideIdentity // Sorted subset of AllPeptides
	Score          float64
	Fdr            *FdrStatistics
}

// GroupName joins sorted accessions with "|".
func GroupName(accessions []string) string {
	sorted := append([]string(nil), accessions...)
	sort.Strings(sorted)
	return strings.Join(sorted, "|")
}

// HasPeptide reports whether id is one of the group's peptides.
func (g *ProteinGroup) HasPeptide(id PeptideIdentity) bool {
	i := sort.Search(len(g.AllPeptides), func(i int) bool {
		return g.AllPeptides[i].Compare(id) >= 0
	})
	return i < len(g.AllPeptides) && g.AllPeptides[i] == id
}

// IsUnique reports whether id maps to this group and no other surviving group.
func (g *ProteinGroup) IsUnique(id PeptideIdentity) bool {
	i := sort.Search(len(g.UniquePeptides), func(i int) bool {
		return g.UniquePeptides[i].Compare(id) >= 0
	})
	return i < len(g.UniquePeptides) && g.UniquePeptides[i] == id
}
