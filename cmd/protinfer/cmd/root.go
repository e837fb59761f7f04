// Package cmd provides CLI command implementations
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/protinfer/pkg/config"
	"github.com/ChrisMcGann/protinfer/pkg/core"
	"github.com/ChrisMcGann/protinfer/pkg/reader/fasta"
)

var (
	// Input flags shared by run and validate
	psmFile    string
	fastaFile  string
	configFile string
	modsCSV    string
	agentsCSV  string

	// Flags for run command
	outputFile    string
	metricsOut    string
	partitionBy   string
	estimator     string
	aggregation   string
	qValue        float64
	minScore      float64
	notchPPM      float64
	requireUnique bool
	crossProtease bool

	// Flags for summarize command
	summaryQValue float64
)

var rootCmd = &cobra.Command{
	Use:   "protinfer",
	Short: "protinfer - PSM FDR estimation and protein inference",
	Long: `protinfer estimates target-decoy FDR for peptide-spectrum matches, resolves
the minimal set of protein groups that explains the accepted peptides and scores
those groups with protein-level FDR.

Supports:
- FDR partitioned by file, digestion agent, or both
- Notch-aware q-values for precursor mass-offset searches
- Multi-protease experiments with per-protease peptide identities
- SQLite result databases`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(summarizeCmd)

	for _, c := range []*cobra.Command{runCmd, validateCmd} {
		c.Flags().StringVarP(&psmFile, "psms", "i", "", "PSM table (TSV, one row per candidate) (required)")
		c.Flags().StringVarP(&fastaFile, "fasta", "d", "", "Protein database in FASTA format (required)")
		c.Flags().StringVarP(&configFile, "config", "c", "", "Run options in YAML")
		c.Flags().StringVar(&modsCSV, "mods", "", "Path to extra modification CSV (mod,massshift,aa)")
		c.Flags().StringVar(&agentsCSV, "agents", "", "Path to extra digestion agent CSV (name,motif)")
		c.MarkFlagRequired("psms")
		c.MarkFlagRequired("fasta")
	}

	// Run command flags; when set they override the config file
	runCmd.Flags().StringVarP(&outputFile, "out", "o", "", "Output database file (required)")
	runCmd.Flags().StringVar(&metricsOut, "metrics-out", "", "Write run metrics in Prometheus text format to this file")
	runCmd.Flags().StringVar(&partitionBy, "partition-by", "", "FDR partition: file, digestionAgent, or both")
	runCmd.Flags().StringVar(&estimator, "estimator", "", "FDR estimator: decoyOverTarget or decoyOverTotal")
	runCmd.Flags().StringVar(&aggregation, "aggregation", "", "Group score: sumBestPerPeptide, peptideCountOnly, or multiFileMerge")
	runCmd.Flags().Float64Var(&qValue, "q-value", 0.01, "PSM q-value threshold for protein inference")
	runCmd.Flags().Float64Var(&minScore, "min-score", 0, "Minimum PSM score for protein inference (0 = no limit)")
	runCmd.Flags().Float64Var(&notchPPM, "notch-ppm", 10, "Precursor tolerance (ppm) for assigning missing notches")
	runCmd.Flags().BoolVar(&requireUnique, "require-unique", false, "Report only groups with a unique peptide")
	runCmd.Flags().BoolVar(&crossProtease, "cross-protease", false, "Treat the same cleavage from different proteases as one peptide")
	runCmd.MarkFlagRequired("out")

	summarizeCmd.Flags().Float64Var(&summaryQValue, "q-value", 0.01, "q-value threshold for counts")
}

// loadOptions reads the config file if given and applies command line overrides
func loadOptions(cmd *cobra.Command) (*config.Options, error) {
	opts := config.Default()
	if configFile != "" {
		var err error
		if opts, err = config.Load(configFile); err != nil {
			return nil, err
		}
		fmt.Printf("Loaded options from %s (%d files)\n", configFile, len(opts.Files))
	}

	flags := cmd.Flags()
	if flags.Changed("agents") {
		opts.AgentsFile = agentsCSV
	}
	if flags.Changed("partition-by") {
		opts.FdrPartitionBy = partitionBy
	}
	if flags.Changed("estimator") {
		opts.Estimator = estimator
	}
	if flags.Changed("aggregation") {
		opts.GroupScoreAggregation = aggregation
	}
	if flags.Changed("q-value") {
		opts.QValueThreshold = qValue
	}
	if flags.Changed("min-score") {
		opts.MinScore = minScore
	}
	if flags.Changed("notch-ppm") {
		opts.NotchTolerancePPM = notchPPM
	}
	if flags.Changed("require-unique") {
		opts.RequireUniquePeptidePerGroup = requireUnique
	}
	if flags.Changed("cross-protease") {
		opts.TreatSameCleavageAcrossProteasesAsSamePeptide = crossProtease
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

// loadModDatabase returns the default modifications plus any from --mods
func loadModDatabase() (*core.ModDatabase, error) {
	modDB := core.DefaultModDatabase()
	if modsCSV == "" {
		return modDB, nil
	}

	f, err := os.Open(modsCSV)
	if err != nil {
		return nil, fmt.Errorf("failed to open modification CSV: %w", err)
	}
	defer f.Close()

	if err := modDB.LoadFromCSV(f); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", modsCSV, err)
	}
	return modDB, nil
}

// readProteins reads the FASTA database
func readProteins(opts *config.Options) ([]*core.Protein, error) {
	f, err := os.Open(fastaFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open FASTA file: %w", err)
	}
	defer f.Close()

	r := fasta.NewReader(f, fasta.Options{
		DecoyPrefix:       opts.DecoyPrefix,
		ContaminantPrefix: opts.ContaminantPrefix,
	})
	proteins, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error reading FASTA file: %w", err)
	}
	return proteins, nil
}
