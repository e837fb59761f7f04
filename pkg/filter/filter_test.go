package filter

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ChrisMcGann/protinfer/pkg/core"
)

func TestApply(t *testing.T) {
	psms := []*core.PSM{
		{ID: "good", Score: 20, Fdr: &core.FdrStatistics{QValue: 0.001, QValueNotch: 0.002}},
		{ID: "high-q", Score: 15, Fdr: &core.FdrStatistics{QValue: 0.05}},
		{ID: "decoy", Score: 14, Decoy: true, Fdr: &core.FdrStatistics{QValue: 0.005}},
		{ID: "contaminant", Score: 13, Contaminant: true, Fdr: &core.FdrStatistics{QValue: 0.005}},
		{ID: "no-stats", Score: 12},
		{ID: "low-score", Score: 2, Fdr: &core.FdrStatistics{}},
		{ID: "bad-pep", Score: 11, Fdr: &core.FdrStatistics{PEP: 0.5, PEPQValue: 0.2}},
		{ID: "notch", Score: 11, Fdr: &core.FdrStatistics{QValueNotch: 0.5}},
	}

	tests := []struct {
		name string
		cfg  Config
		want []string
	}{
		{
			name: "q-value only",
			cfg:  Config{MaxQValue: 0.01},
			want: []string{"good", "low-score", "bad-pep", "notch"},
		},
		{
			name: "keep decoys and contaminants",
			cfg:  Config{MaxQValue: 0.01, KeepDecoys: true, KeepContaminants: true},
			want: []string{"good", "decoy", "contaminant", "low-score", "bad-pep", "notch"},
		},
		{
			name: "all filters",
			cfg:  Config{MaxQValue: 0.01, MaxQValueNotch: 0.01, MaxPEPQValue: 0.01, MinScore: 5},
			want: []string{"good"},
		},
		{
			name: "no filters",
			cfg:  Config{},
			want: []string{"good", "high-q", "no-stats", "low-score", "bad-pep", "notch"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, p := range tt.cfg.Apply(psms) {
				got = append(got, p.ID)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Apply() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
