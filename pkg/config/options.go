// Package config loads and validates run options from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ChrisMcGann/protinfer/pkg/core"
	"github.com/ChrisMcGann/protinfer/pkg/digestion"
	"github.com/ChrisMcGann/protinfer/pkg/fdr"
	"github.com/ChrisMcGann/protinfer/pkg/parsimony"
	"github.com/ChrisMcGann/protinfer/pkg/scoring"
)

// Options are the settings of one inference run.
type Options struct {
	FdrPartitionBy                                string                        `yaml:"fdrPartitionBy"`
	Estimator                                     string                        `yaml:"estimator"`
	QValueThreshold                               float64                       `yaml:"qValueThreshold"`
	QValueNotchThreshold                          float64                       `yaml:"qValueNotchThreshold"`
	PEPQValueThreshold                            float64                       `yaml:"pepQValueThreshold"`
	MinScore                                      float64                       `yaml:"minScore"`
	RequireUniquePeptidePerGroup                  bool                          `yaml:"requireUniquePeptidePerGroup"`
	UniquePeptidesPerGroup                        bool                          `yaml:"uniquePeptidesPerGroup"`
	GroupScoreAggregation                         string                        `yaml:"groupScoreAggregation"`
	TreatSameCleavageAcrossProteasesAsSamePeptide bool                          `yaml:"treatSameCleavageAcrossProteasesAsSamePeptide"`
	TieBreak                                      []string                      `yaml:"tieBreak"`
	ScoreTolerance                                float64                       `yaml:"scoreTolerance"`
	NotchTolerancePPM                             float64                       `yaml:"notchTolerancePPM"`
	DecoyPrefix                                   string                        `yaml:"decoyPrefix"`
	ContaminantPrefix                             string                        `yaml:"contaminantPrefix"`
	Files                                         map[string]fdr.FileParameters `yaml:"files"`
	AgentsFile                                    string                        `yaml:"agentsFile"` // CSV of name,motif added to the built-in proteases
	Agents                                        map[string]string             `yaml:"agents"`     // Name -> motif, added after AgentsFile
}

// Default returns options with every default applied.
func Default() *Options {
	return &Options{
		FdrPartitionBy:        fdr.ByFile.String(),
		Estimator:             fdr.DecoyOverTarget.String(),
		QValueThreshold:       0.01,
		GroupScoreAggregation: scoring.SumBestPerPeptide.String(),
		ScoreTolerance:        0,
		NotchTolerancePPM:     10,
		DecoyPrefix:           "DECOY_",
		ContaminantPrefix:     "CONTAM_",
		Files:                 map[string]fdr.FileParameters{},
	}
}

// Load reads options from a YAML file.
func Load(path string) (*Options, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	opts, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return opts, nil
}

// Read decodes options from YAML on top of the defaults and validates them.
// Unknown keys are rejected.
func Read(r io.Reader) (*Options, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading config: %w", err)
	}

	opts := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(opts); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	if opts.Files == nil {
		opts.Files = map[string]fdr.FileParameters{}
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

// Marshal renders the options as YAML.
func (o *Options) Marshal() ([]byte, error) {
	return yaml.Marshal(o)
}

// Validate checks every option. Errors are *core.ConfigError.
func (o *Options) Validate() error {
	if _, err := o.Partition(); err != nil {
		return &core.ConfigError{Field: "fdrPartitionBy", Message: err.Error()}
	}
	if _, err := o.FdrEstimator(); err != nil {
		return &core.ConfigError{Field: "estimator", Message: err.Error()}
	}
	if _, err := o.Aggregation(); err != nil {
		return &core.ConfigError{Field: "groupScoreAggregation", Message: err.Error()}
	}
	if _, err := o.TieBreakers(); err != nil {
		return &core.ConfigError{Field: "tieBreak", Message: err.Error()}
	}
	// The PSM threshold always applies; only the optional filters use 0 for "off".
	if o.QValueThreshold <= 0 || o.QValueThreshold > 1 {
		return &core.ConfigError{Field: "qValueThreshold", Message: fmt.Sprintf("%v is outside (0, 1]", o.QValueThreshold)}
	}
	if o.QValueNotchThreshold < 0 || o.QValueNotchThreshold > 1 {
		return &core.ConfigError{Field: "qValueNotchThreshold", Message: fmt.Sprintf("%v is outside [0, 1]", o.QValueNotchThreshold)}
	}
	if o.PEPQValueThreshold < 0 || o.PEPQValueThreshold > 1 {
		return &core.ConfigError{Field: "pepQValueThreshold", Message: fmt.Sprintf("%v is outside [0, 1]", o.PEPQValueThreshold)}
	}
	if o.MinScore < 0 {
		return &core.ConfigError{Field: "minScore", Message: "must not be negative"}
	}
	if o.ScoreTolerance < 0 {
		return &core.ConfigError{Field: "scoreTolerance", Message: "must not be negative"}
	}
	if o.NotchTolerancePPM < 0 {
		return &core.ConfigError{Field: "notchTolerancePPM", Message: "must not be negative"}
	}

	reg, err := o.Registry()
	if err != nil {
		return err
	}
	for _, file := range o.FileNames() {
		agent := o.Files[file].DigestionAgent
		if agent == "" {
			return &core.ConfigError{Field: "files", Key: file, Message: "no digestion agent"}
		}
		if _, ok := reg.Lookup(agent); !ok {
			return &core.ConfigError{Field: "files", Key: file, Message: fmt.Sprintf("unknown digestion agent '%s' (known: %s)", agent, strings.Join(reg.Names(), ", "))}
		}
	}
	return nil
}

// Partition returns the parsed FDR partition mode.
func (o *Options) Partition() (fdr.PartitionBy, error) {
	return fdr.ParsePartitionBy(o.FdrPartitionBy)
}

// FdrEstimator returns the parsed FDR estimator.
func (o *Options) FdrEstimator() (fdr.Estimator, error) {
	return fdr.ParseEstimator(o.Estimator)
}

// Aggregation returns the parsed group score aggregation.
func (o *Options) Aggregation() (scoring.Aggregation, error) {
	return scoring.ParseAggregation(o.GroupScoreAggregation)
}

// TieBreakers returns the parsed parsimony tie-break order, nil for the default.
func (o *Options) TieBreakers() ([]parsimony.TieBreaker, error) {
	if len(o.TieBreak) == 0 {
		return nil, nil
	}
	return parsimony.ParseTieBreak(o.TieBreak)
}

// Registry returns the built-in proteases plus the agents from AgentsFile and Agents.
func (o *Options) Registry() (*digestion.Registry, error) {
	reg := digestion.DefaultRegistry()
	if o.AgentsFile != "" {
		f, err := os.Open(o.AgentsFile)
		if err != nil {
			return nil, &core.ConfigError{Field: "agentsFile", Key: o.AgentsFile, Message: err.Error()}
		}
		err = reg.LoadFromCSV(f)
		f.Close()
		if err != nil {
			return nil, &core.ConfigError{Field: "agentsFile", Key: o.AgentsFile, Message: err.Error()}
		}
	}

	names := make([]string, 0, len(o.Agents))
	for name := range o.Agents {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		a, err := digestion.NewAgent(name, o.Agents[name])
		if err == nil {
			err = reg.Add(a)
		}
		if err != nil {
			return nil, &core.ConfigError{Field: "agents", Key: name, Message: err.Error()}
		}
	}
	return reg, nil
}

// FileNames returns the configured file names in sorted order.
func (o *Options) FileNames() []string {
	names := make([]string, 0, len(o.Files))
	for name := range o.Files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
