package fasta

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ChrisMcGann/protinfer/pkg/core"
)

func TestReader(t *testing.T) {
	input := `;comment
>sp|P12345|ALBU_HUMAN Serum albumin
MKWVTFISLL
FLFSSAYS*

>DECOY_sp|P12345|ALBU_HUMAN
SYASSFLFLL
>CONTAM_Q9 keratin
mkk aa
>plain
`
	r := NewReader(strings.NewReader(input), Options{DecoyPrefix: "DECOY_", ContaminantPrefix: "CONTAM_"})
	got, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}

	want := []*core.Protein{
		{Accession: "P12345", Sequence: "MKWVTFISLLFLFSSAYS"},
		{Accession: "DECOY_P12345", Sequence: "SYASSFLFLL", Decoy: true},
		{Accession: "CONTAM_Q9", Sequence: "MKKAA", Contaminant: true},
		{Accession: "plain"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ReadAll() mismatch (-want +got):\n%s", diff)
	}
}

func TestReaderErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"sequence first", "MKK\n>P1\nAAA\n", "line 1: sequence before first header"},
		{"empty header", ">P1\nAAA\n>\nKKK\n", "line 3: header has no accession"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(strings.NewReader(tt.input), Options{})
			for r.Next() {
			}
			if r.Err() == nil || !strings.Contains(r.Err().Error(), tt.want) {
				t.Errorf("Err() = %v, want containing %q", r.Err(), tt.want)
			}
		})
	}
}

func TestParseAccession(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{">sp|P02768|ALBU_HUMAN Serum albumin", "P02768"},
		{">tr|A0A024R161|A0A024R161_HUMAN", "A0A024R161"},
		{">rev_sp|P02768|ALBU_HUMAN", "rev_P02768"},
		{">ENSP00000295897 albumin", "ENSP00000295897"},
		{">gi|123", "gi|123"},
		{">", ""},
	}
	for _, tt := range tests {
		if got := ParseAccession(tt.header); got != tt.want {
			t.Errorf("ParseAccession(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}
