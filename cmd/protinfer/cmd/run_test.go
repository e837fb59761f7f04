package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ChrisMcGann/protinfer/pkg/writer/sqlite"
)

const testFASTA = `>sp|P1|ONE_HUMAN
MABCKXYZK
>sp|P2|TWO_HUMAN
MABCKEFGRHIJR
>DECOY_sp|P1|ONE_HUMAN
KZYXKCBAM
`

const testPSMs = "File\tScan\tScore\tFullSequence\tProtein\tStart\tEnd\n" +
	"run1.raw\t1\t30\tABCK\tP1\t2\t5\n" +
	"run1.raw\t1\t30\tABCK\tP2\t2\t5\n" +
	"run1.raw\t2\t28\tXYZK\tP1\t6\t9\n" +
	"run1.raw\t3\t26\tEFGR\tP2\t6\t9\n" +
	"run1.raw\t4\t5\tKCBA\tDECOY_P1\t5\t8\n"

const testConfig = `files:
  run1.raw:
    digestionAgent: trypsin
`

func writeInputs(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range map[string]string{
		"db.fasta": testFASTA,
		"psms.tsv": testPSMs,
		"run.yaml": testConfig,
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	psmFile = filepath.Join(dir, "psms.tsv")
	fastaFile = filepath.Join(dir, "db.fasta")
	configFile = filepath.Join(dir, "run.yaml")
	modsCSV = ""
	return dir
}

func TestRunInference(t *testing.T) {
	dir := writeInputs(t)
	outputFile = filepath.Join(dir, "results.db")
	metricsOut = filepath.Join(dir, "run.prom")
	runCmd.SetContext(context.Background())

	if err := runInference(runCmd, nil); err != nil {
		t.Fatalf("runInference() error = %v", err)
	}

	results, err := sqlite.Open(outputFile)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer results.Close()

	psms, err := results.PSMs()
	if err != nil {
		t.Fatal(err)
	}
	if len(psms) != 4 {
		t.Errorf("got %d PSMs, want 4", len(psms))
	}
	groups, err := results.Groups()
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, g := range groups {
		names = append(names, g.Name)
	}
	if got := strings.Join(names, ","); got != "P1,P2" {
		t.Errorf("groups = %s, want P1,P2", got)
	}

	metrics, err := os.ReadFile(metricsOut)
	if err != nil {
		t.Fatalf("metrics not written: %v", err)
	}
	for _, want := range []string{
		`protinfer_psms{kind="total"} 4`,
		`protinfer_psms{kind="target"} 3`,
		`protinfer_protein_groups{kind="target"} 2`,
		`protinfer_partition_psms_accepted{kind="target",partition="run1.raw"} 3`,
	} {
		if !strings.Contains(string(metrics), want) {
			t.Errorf("metrics missing %q:\n%s", want, metrics)
		}
	}

	if err := runSummarize(outputFile); err != nil {
		t.Errorf("runSummarize() error = %v", err)
	}
}

func TestLoadOptionsAgents(t *testing.T) {
	dir := writeInputs(t)
	if err := os.WriteFile(configFile, []byte("files:\n  run1.raw:\n    digestionAgent: pepsin\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadOptions(validateCmd); err == nil {
		t.Fatal("loadOptions() accepted unknown agent pepsin")
	}

	csv := filepath.Join(dir, "agents.csv")
	if err := os.WriteFile(csv, []byte("name,motif\npepsin,\"F|;L|\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := validateCmd.Flags().Set("agents", csv); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { validateCmd.Flags().Set("agents", "") })

	opts, err := loadOptions(validateCmd)
	if err != nil {
		t.Fatalf("loadOptions() error = %v", err)
	}
	if opts.AgentsFile != csv {
		t.Errorf("AgentsFile = %q, want %q", opts.AgentsFile, csv)
	}
}

func TestRunValidate(t *testing.T) {
	writeInputs(t)
	if err := runValidate(validateCmd, nil); err != nil {
		t.Errorf("runValidate() error = %v", err)
	}

	bad := filepath.Join(t.TempDir(), "bad.tsv")
	tsv := testPSMs + "run2.raw\t9\t12\tQQQK\tP9\t1\t4\n"
	if err := os.WriteFile(bad, []byte(tsv), 0o644); err != nil {
		t.Fatal(err)
	}
	psmFile = bad
	err := runValidate(validateCmd, nil)
	if err == nil || !strings.Contains(err.Error(), "found 1 problems") {
		t.Errorf("runValidate() error = %v, want 1 problem", err)
	}
}
