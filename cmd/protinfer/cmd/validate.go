package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/ChrisMcGann/protinfer/pkg/core"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check inputs for data defects without running inference",
	Long: `Read the PSM table, protein database and options, and report every PSM whose
candidates cannot be traced to a known protein or whose file has no parameters.`,
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	modDB, err := loadModDatabase()
	if err != nil {
		return err
	}

	proteins, err := readProteins(opts)
	if err != nil {
		return err
	}
	db, err := core.NewProteinDB(proteins)
	if err != nil {
		return err
	}
	psms, err := readPSMs(opts, modDB)
	if err != nil {
		return err
	}

	var defects error
	missingFiles := make(map[string]bool)
	decoys, ambiguous := 0, 0
	for _, psm := range psms {
		if err := psm.Validate(db); err != nil {
			defects = multierr.Append(defects, err)
			continue
		}
		if _, ok := opts.Files[psm.File]; !ok && !missingFiles[psm.File] {
			missingFiles[psm.File] = true
			defects = multierr.Append(defects, &core.ConfigError{
				Field:   "files",
				Key:     psm.File,
				Message: "no parameters for file",
			})
		}
		if err := psm.Classify(db); err == nil && psm.Decoy {
			decoys++
		}
		if psm.Notch() == core.NotchAmbiguous {
			ambiguous++
		}
	}

	errs := multierr.Errors(defects)
	for _, err := range errs {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	fmt.Printf("Proteins: %d\n", db.Len())
	fmt.Printf("PSMs: %d (%d decoy, %d with ambiguous notch)\n", len(psms), decoys, ambiguous)
	if len(errs) > 0 {
		return fmt.Errorf("found %d problems", len(errs))
	}
	fmt.Printf("No problems found\n")
	return nil
}
