package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/protinfer/pkg/config"
	"github.com/ChrisMcGann/protinfer/pkg/core"
	"github.com/ChrisMcGann/protinfer/pkg/notch"
	"github.com/ChrisMcGann/protinfer/pkg/pipeline"
	"github.com/ChrisMcGann/protinfer/pkg/reader/psmtsv"
	"github.com/ChrisMcGann/protinfer/pkg/writer/sqlite"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Estimate FDR, infer protein groups and write a result database",
	Long: `Read PSMs and a protein database, compute PSM-level q-values, resolve protein
groups by parsimony, score them with protein-level FDR and write everything to a
SQLite database.

Examples:
  # Single file, options from YAML
  protinfer run --psms psms.tsv --fasta db.fasta --config run.yaml --out results.db

  # Two proteases, FDR per protease, peptides shared across proteases unified
  protinfer run -i psms.tsv -d db.fasta -c run.yaml -o results.db \
    --partition-by digestionAgent --cross-protease --metrics-out run.prom`,
	RunE: runInference,
}

func runInference(cmd *cobra.Command, args []string) error {
	start := time.Now()

	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	modDB, err := loadModDatabase()
	if err != nil {
		return err
	}

	fmt.Printf("Reading %s and %s...\n", psmFile, fastaFile)
	proteins, err := readProteins(opts)
	if err != nil {
		return err
	}
	psms, err := readPSMs(opts, modDB)
	if err != nil {
		return err
	}
	fmt.Printf("Loaded %d proteins, %d PSMs\n", len(proteins), len(psms))
	fmt.Printf("FDR partition: %s\n", opts.FdrPartitionBy)
	fmt.Printf("Group score: %s\n", opts.GroupScoreAggregation)
	fmt.Printf("q-value threshold: %g\n", opts.QValueThreshold)

	res, err := pipeline.Run(cmd.Context(), pipeline.Input{PSMs: psms, Proteins: proteins}, opts)
	if err != nil {
		return err
	}

	if err := writeResults(res, opts); err != nil {
		return err
	}

	sum := res.Summary()
	fmt.Printf("\nInference complete!\n")
	fmt.Printf("PSMs: %d (%d target, %d decoy at q <= %g)\n", sum.PSMs, sum.TargetPSMs, sum.DecoyPSMs, opts.QValueThreshold)
	for _, p := range sum.Partitions {
		fmt.Printf("  %s: %.0f target, %.0f decoy\n", p.Partition, p.Targets, p.Decoys)
	}
	fmt.Printf("Protein groups: %d (%d target, %d decoy at q <= %g)\n", sum.Groups, sum.TargetGroups, sum.DecoyGroups, opts.QValueThreshold)
	if sum.MergedIdentities > 0 {
		fmt.Printf("Peptides unified across proteases: %d\n", sum.MergedIdentities)
	}
	fmt.Printf("Output: %s\n", outputFile)

	if metricsOut != "" {
		if err := writeMetrics(metricsOut, res, time.Since(start)); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to write metrics: %v\n", err)
		}
	}
	return nil
}

// readPSMs streams the PSM table, assigning missing notches
func readPSMs(opts *config.Options, modDB *core.ModDatabase) ([]*core.PSM, error) {
	f, err := os.Open(psmFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open PSM file: %w", err)
	}
	defer f.Close()

	acceptor := notch.DefaultAcceptor()
	acceptor.TolerancePPM = opts.NotchTolerancePPM
	r := psmtsv.NewReader(f, modDB, acceptor)

	var psms []*core.PSM
	for r.Next() {
		psms = append(psms, r.PSM())
		if len(psms)%100000 == 0 {
			fmt.Printf("Read %d PSMs...\n", len(psms))
		}
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("error reading PSM file: %w", err)
	}
	return psms, nil
}

// writeResults writes every PSM and reported group to the output database
func writeResults(res *pipeline.Result, opts *config.Options) error {
	writer, err := sqlite.NewWriter(outputFile)
	if err != nil {
		return fmt.Errorf("failed to create output database: %w", err)
	}

	for _, psm := range res.PSMs {
		if err := writer.WritePSM(psm); err != nil {
			writer.Close()
			return err
		}
	}
	for _, g := range res.Groups {
		if err := writer.WriteGroup(g); err != nil {
			writer.Close()
			return err
		}
	}

	yamlOpts, err := opts.Marshal()
	if err != nil {
		writer.Close()
		return fmt.Errorf("failed to encode options: %w", err)
	}
	if err := writer.Finalize(fmt.Sprintf("protinfer %s", rootCmd.Version), string(yamlOpts)); err != nil {
		return fmt.Errorf("failed to finalize database: %w", err)
	}
	return nil
}
