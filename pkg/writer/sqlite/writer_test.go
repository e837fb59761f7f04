package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ChrisMcGann/protinfer/pkg/core"
)

func TestWriteAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.db")

	w, err := NewWriter(path)
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}

	psms := []*core.PSM{
		{
			File: "a.raw", Scan: 7, Score: 21,
			Candidates: []core.Candidate{
				{FullSequence: "AAAK", ProteinAccession: "P1"},
				{FullSequence: "AAAK", ProteinAccession: "P2"},
			},
			Fdr: &core.FdrStatistics{QValue: 0.001, QValueNotch: 0.002},
		},
		{
			ID: "d1", File: "a.raw", Scan: 8, Score: 3, Decoy: true,
			Candidates: []core.Candidate{{FullSequence: "KAAA", ProteinAccession: "DECOY_P1"}},
			Fdr:        &core.FdrStatistics{QValue: 1, QValueUndefined: true},
		},
	}
	for _, p := range psms {
		if err := w.WritePSM(p); err != nil {
			t.Fatalf("WritePSM() error = %v", err)
		}
	}

	aaak := core.PeptideIdentity{Base: "AAAK", Full: "AAAK", Agent: "trypsin"}
	cccr := core.PeptideIdentity{Base: "CCCR", Full: "CCCR", Agent: "Arg-C"}
	group := &core.ProteinGroup{
		Name:           "P1|P2",
		Accessions:     []string{"P1", "P2"},
		AllPeptides:    []core.PeptideIdentity{aaak, cccr},
		UniquePeptides: []core.PeptideIdentity{cccr},
		Score:          21,
		Fdr:            &core.FdrStatistics{QValue: 0},
	}
	if err := w.WriteGroup(group); err != nil {
		t.Fatalf("WriteGroup() error = %v", err)
	}
	if err := w.Finalize("test run", "qValueThreshold: 0.01\n"); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer r.Close()

	gotPSMs, err := r.PSMs()
	if err != nil {
		t.Fatalf("PSMs() error = %v", err)
	}
	wantPSMs := []PSMRecord{
		{Label: "a.raw#7", File: "a.raw", Score: 21, QValue: 0.001, QValueNotch: 0.002},
		{Label: "d1", File: "a.raw", Score: 3, Decoy: true, QValue: 1, Undefined: true},
	}
	if diff := cmp.Diff(wantPSMs, gotPSMs); diff != "" {
		t.Errorf("PSMs() mismatch (-want +got):\n%s", diff)
	}

	gotGroups, err := r.Groups()
	if err != nil {
		t.Fatalf("Groups() error = %v", err)
	}
	wantGroups := []GroupRecord{{Name: "P1|P2", Score: 21, NumPeptides: 2, NumUniquePeptides: 1}}
	if diff := cmp.Diff(wantGroups, gotGroups); diff != "" {
		t.Errorf("Groups() mismatch (-want +got):\n%s", diff)
	}

	h, err := r.Header()
	if err != nil {
		t.Fatalf("Header() error = %v", err)
	}
	if h.Version != SchemaVersion || h.Description != "test run" || h.Options != "qValueThreshold: 0.01\n" {
		t.Errorf("Header() = %+v", h)
	}

	var peptides, unique int
	if err := r.db.QueryRow(`SELECT COUNT(*), SUM(IsUnique) FROM GroupPeptideTable`).Scan(&peptides, &unique); err != nil {
		t.Fatalf("count peptides: %v", err)
	}
	if peptides != 2 || unique != 1 {
		t.Errorf("GroupPeptideTable has %d peptides, %d unique; want 2, 1", peptides, unique)
	}

	var proteins string
	if err := r.db.QueryRow(`SELECT Proteins FROM PsmTable WHERE PsmId = 1`).Scan(&proteins); err != nil {
		t.Fatalf("read proteins: %v", err)
	}
	if proteins != "P1;P2" {
		t.Errorf("Proteins = %q, want %q", proteins, "P1;P2")
	}
}

func TestOpenMissing(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "missing.db")); err == nil {
		t.Error("Open() of missing file succeeded")
	}
}
