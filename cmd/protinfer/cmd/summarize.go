package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"

	"github.com/ChrisMcGann/protinfer/pkg/writer/sqlite"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize [file]",
	Short: "Summarize a result database",
	Long:  `Print counts and score statistics of the PSMs and protein groups in a result database.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSummarize(args[0])
	},
}

func runSummarize(path string) error {
	results, err := sqlite.Open(path)
	if err != nil {
		return err
	}
	defer results.Close()

	header, err := results.Header()
	if err != nil {
		return err
	}
	psms, err := results.PSMs()
	if err != nil {
		return err
	}
	groups, err := results.Groups()
	if err != nil {
		return err
	}

	fmt.Printf("%s (schema %d, created %s)\n", header.Description, header.Version, header.CreationDate)

	var psmScores []float64
	targets, decoys := 0, 0
	perFile := make(map[string]int)
	for _, p := range psms {
		if p.QValue > summaryQValue {
			continue
		}
		if p.Decoy {
			decoys++
			continue
		}
		targets++
		perFile[p.File]++
		psmScores = append(psmScores, p.Score)
	}
	fmt.Printf("\nPSMs: %d (%d target, %d decoy at q <= %g)\n", len(psms), targets, decoys, summaryQValue)
	files := make([]string, 0, len(perFile))
	for f := range perFile {
		files = append(files, f)
	}
	sort.Strings(files)
	for _, f := range files {
		fmt.Printf("  %s: %d\n", f, perFile[f])
	}
	printScoreStats("PSM score", psmScores)

	var groupScores, peptides []float64
	gTargets, gDecoys, unique := 0, 0, 0
	for _, g := range groups {
		if g.QValue > summaryQValue {
			continue
		}
		if g.Decoy {
			gDecoys++
			continue
		}
		gTargets++
		if g.NumUniquePeptides > 0 {
			unique++
		}
		groupScores = append(groupScores, g.Score)
		peptides = append(peptides, float64(g.NumPeptides))
	}
	fmt.Printf("\nProtein groups: %d (%d target, %d decoy at q <= %g)\n", len(groups), gTargets, gDecoys, summaryQValue)
	fmt.Printf("  with a unique peptide: %d\n", unique)
	printScoreStats("Group score", groupScores)
	printScoreStats("Peptides per group", peptides)
	return nil
}

// printScoreStats prints mean, standard deviation and quartiles
func printScoreStats(label string, x []float64) {
	if len(x) == 0 {
		return
	}
	sort.Float64s(x)
	mean, std := stat.MeanStdDev(x, nil)
	q1 := stat.Quantile(0.25, stat.Empirical, x, nil)
	med := stat.Quantile(0.5, stat.Empirical, x, nil)
	q3 := stat.Quantile(0.75, stat.Empirical, x, nil)
	fmt.Printf("  %s: mean %.2f, sd %.2f, quartiles %.2f / %.2f / %.2f\n", label, mean, std, q1, med, q3)
}
