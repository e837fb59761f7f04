package cmd

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ChrisMcGann/protinfer/pkg/pipeline"
)

// writeMetrics writes the counts of a run to path in the Prometheus text format
func writeMetrics(path string, res *pipeline.Result, elapsed time.Duration) error {
	reg := prometheus.NewRegistry()
	sum := res.Summary()

	psms := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "protinfer_psms",
		Help: "PSMs by kind; accepted kinds count PSMs at or below the q-value threshold.",
	}, []string{"kind"})
	partitions := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "protinfer_partition_psms_accepted",
		Help: "Accepted PSMs per FDR partition.",
	}, []string{"partition", "kind"})
	groups := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "protinfer_protein_groups",
		Help: "Protein groups by kind; accepted kinds count groups at or below the q-value threshold.",
	}, []string{"kind"})
	merged := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "protinfer_merged_identities",
		Help: "Peptide identities unified across digestion agents.",
	})
	threshold := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "protinfer_q_value_threshold",
		Help: "q-value threshold of the run.",
	})
	duration := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "protinfer_run_duration_seconds",
		Help: "Wall time of the run.",
	})
	reg.MustRegister(psms, partitions, groups, merged, threshold, duration)

	psms.WithLabelValues("total").Set(float64(sum.PSMs))
	psms.WithLabelValues("target").Set(float64(sum.TargetPSMs))
	psms.WithLabelValues("decoy").Set(float64(sum.DecoyPSMs))
	for _, p := range sum.Partitions {
		partitions.WithLabelValues(p.Partition, "target").Set(p.Targets)
		partitions.WithLabelValues(p.Partition, "decoy").Set(p.Decoys)
	}
	groups.WithLabelValues("total").Set(float64(sum.Groups))
	groups.WithLabelValues("target").Set(float64(sum.TargetGroups))
	groups.WithLabelValues("decoy").Set(float64(sum.DecoyGroups))
	groups.WithLabelValues("contaminant").Set(float64(sum.ContaminantGroups))
	merged.Set(float64(sum.MergedIdentities))
	threshold.Set(res.Threshold)
	duration.Set(elapsed.Seconds())

	return prometheus.WriteToTextfile(path, reg)
}
