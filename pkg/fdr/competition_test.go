package fdr

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEstimatorRaw(t *testing.T) {
	tests := []struct {
		name          string
		est           Estimator
		targets       float64
		decoys        float64
		want          float64
		wantUndefined bool
	}{
		{"empty", DecoyOverTarget, 0, 0, 0, false},
		{"targets only", DecoyOverTarget, 5, 0, 0, false},
		{"decoys only", DecoyOverTarget, 0, 2, 1, true},
		{"ratio", DecoyOverTarget, 4, 1, 0.25, false},
		{"capped", DecoyOverTarget, 1, 3, 1, false},
		{"total ratio", DecoyOverTotal, 3, 1, 0.25, false},
		{"total decoys only", DecoyOverTotal, 0, 1, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, undefined := tt.est.Raw(tt.targets, tt.decoys)
			if got != tt.want || undefined != tt.wantUndefined {
				t.Errorf("Raw(%v, %v) = %v, %v; want %v, %v", tt.targets, tt.decoys, got, undefined, tt.want, tt.wantUndefined)
			}
		})
	}
}

func TestParseEstimator(t *testing.T) {
	for in, want := range map[string]Estimator{
		"":                DecoyOverTarget,
		"decoyOverTarget": DecoyOverTarget,
		"DecoyOverTotal":  DecoyOverTotal,
	} {
		got, err := ParseEstimator(in)
		if err != nil || got != want {
			t.Errorf("ParseEstimator(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseEstimator("bogus"); err == nil {
		t.Error("expected error for unknown estimator")
	}
}

func TestCompetitionRunningMaximum(t *testing.T) {
	// A decoy early on raises the q-value; later targets keep it.
	items := []Item{
		{Partition: "p"},
		{Partition: "p", Decoy: true},
		{Partition: "p"},
		{Partition: "p"},
		{Partition: "p"},
	}
	stats := Competition{}.Run(items)

	want := []float64{0, 1, 0.5, 0.5, 0.5}
	var got []float64
	for _, s := range stats {
		got = append(got, s.QValue)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("q-values mismatch (-want +got):\n%s", diff)
	}
	if stats[4].CumulativeTarget != 4 || stats[4].CumulativeDecoy != 1 {
		t.Errorf("final counts = %v/%v, want 4/1", stats[4].CumulativeTarget, stats[4].CumulativeDecoy)
	}
}

func TestCompetitionNotchPass(t *testing.T) {
	items := []Item{
		{Partition: "a", Notch: 0},
		{Partition: "a", Notch: 1, Decoy: true},
		{Partition: "a", Notch: 0},
	}
	stats := Competition{}.Run(items)

	var q, notchQ []float64
	for _, s := range stats {
		q = append(q, s.QValue)
		notchQ = append(notchQ, s.QValueNotch)
	}
	if diff := cmp.Diff([]float64{0, 1, 1}, q); diff != "" {
		t.Errorf("q-values mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{0, 1, 0}, notchQ); diff != "" {
		t.Errorf("notch q-values mismatch (-want +got):\n%s", diff)
	}
	if !stats[1].Undefined {
		t.Error("q-value before any target should be marked undefined")
	}
	if stats[2].CumulativeTargetNotch != 2 || stats[2].CumulativeDecoyNotch != 0 {
		t.Errorf("notch counts = %v/%v, want 2/0", stats[2].CumulativeTargetNotch, stats[2].CumulativeDecoyNotch)
	}
}

func TestCompetitionWeights(t *testing.T) {
	items := []Item{
		{Partition: "p"},
		{Partition: "p"},
		{Partition: "p", Decoy: true, Weight: 0.5},
	}
	stats := Competition{}.Run(items)
	if stats[2].CumulativeDecoy != 0.5 {
		t.Errorf("CumulativeDecoy = %v, want 0.5", stats[2].CumulativeDecoy)
	}
	if stats[2].QValue != 0.25 {
		t.Errorf("QValue = %v, want 0.25", stats[2].QValue)
	}
}

func TestSummarize(t *testing.T) {
	items := []Item{
		{Partition: "a"},
		{Partition: "b"},
		{Partition: "a", Decoy: true},
		{Partition: "a"},
	}
	stats := Competition{}.Run(items)
	got := Summarize(items, stats, 0.01)
	want := []PartitionSummary{
		{Partition: "a", Targets: 1},
		{Partition: "b", Targets: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Summarize() mismatch (-want +got):\n%s", diff)
	}
}
