// Package psmtsv provides a streaming reader for tab-separated PSM tables with one
// row per candidate peptide.
package psmtsv

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/protinfer/pkg/core"
	"github.com/ChrisMcGann/protinfer/pkg/notch"
)

// Column names. Lookup is case-insensitive.
const (
	ColFile           = "File"
	ColScan           = "Scan"
	ColID             = "PSMID"
	ColScore          = "Score"
	ColDeltaScore     = "DeltaScore"
	ColPrecursorMass  = "PrecursorMass"
	ColNotch          = "Notch"
	ColBaseSequence   = "BaseSequence"
	ColFullSequence   = "FullSequence"
	ColDigestionAgent = "DigestionAgent"
	ColProtein        = "Protein"
	ColStart          = "Start"
	ColEnd            = "End"
	ColCandidateScore = "CandidateScore"
	ColPEP            = "PEP"
	ColPEPQValue      = "PEPQValue"
)

var requiredColumns = []string{ColFile, ColScan, ColScore, ColFullSequence, ColProtein}

// row is one parsed candidate line.
type row struct {
	line      int
	file      string
	scan      int
	id        string
	score     float64
	delta     float64
	precursor float64
	pep       float64
	pepQ      float64
	hasPEP    bool
	candidate core.Candidate
}

func (r *row) key() string {
	return r.file + "\x00" + strconv.Itoa(r.scan) + "\x00" + r.id
}

func (r *row) label() string {
	if r.id != "" {
		return r.id
	}
	return r.file + "#" + strconv.Itoa(r.scan)
}

// Reader provides streaming access to PSM tables. Consecutive rows with the same
// file, scan and PSM ID are candidates of one PSM; the rows of a PSM must not be
// split across the table.
type Reader struct {
	scanner    *bufio.Scanner
	modDB      *core.ModDatabase
	acceptor   *notch.Acceptor
	lineNum    int
	columns    map[string]int
	pending    *row
	seen       map[string]int // PSM key -> line of its first row
	currentPSM *core.PSM
	err        error
}

// NewReader creates a new PSM table reader. Candidates with a blank notch are
// assigned one by acceptor; with a nil acceptor they stay ambiguous.
func NewReader(r io.Reader, modDB *core.ModDatabase, acceptor *notch.Acceptor) *Reader {
	if modDB == nil {
		modDB = core.DefaultModDatabase()
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	return &Reader{
		scanner:  scanner,
		modDB:    modDB,
		acceptor: acceptor,
		seen:     make(map[string]int),
	}
}

// Next advances to the next PSM. Returns false when no more PSMs or error.
func (r *Reader) Next() bool {
	r.currentPSM = nil
	if r.err != nil {
		return false
	}

	psm, err := r.readPSM()
	if err != nil {
		if err != io.EOF {
			r.err = err
		}
		return false
	}

	r.currentPSM = psm
	return true
}

// PSM returns the current PSM
func (r *Reader) PSM() *core.PSM {
	return r.currentPSM
}

// Err returns any error encountered during reading
func (r *Reader) Err() error {
	return r.err
}

// ReadAll reads every remaining PSM.
func (r *Reader) ReadAll() ([]*core.PSM, error) {
	var psms []*core.PSM
	for r.Next() {
		psms = append(psms, r.PSM())
	}
	return psms, r.Err()
}

// readPSM collects the rows of one PSM.
func (r *Reader) readPSM() (*core.PSM, error) {
	first := r.pending
	r.pending = nil
	if first == nil {
		var err error
		if first, err = r.readRow(); err != nil {
			return nil, err
		}
	}

	if line, ok := r.seen[first.key()]; ok {
		return nil, fmt.Errorf("line %d: PSM %s reappears after line %d (rows of a PSM must be consecutive)", first.line, first.label(), line)
	}
	r.seen[first.key()] = first.line

	psm := &core.PSM{
		ID:            first.id,
		File:          first.file,
		Scan:          first.scan,
		Score:         first.score,
		DeltaScore:    first.delta,
		PrecursorMass: first.precursor,
		Candidates:    []core.Candidate{first.candidate},
	}
	if first.hasPEP {
		psm.Fdr = &core.FdrStatistics{PEP: first.pep, PEPQValue: first.pepQ}
	}

	for {
		next, err := r.readRow()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if next.key() != first.key() {
			r.pending = next
			break
		}
		if next.score != first.score {
			return nil, fmt.Errorf("line %d: PSM %s has conflicting scores %v and %v", next.line, psm.Label(), first.score, next.score)
		}
		psm.Candidates = append(psm.Candidates, next.candidate)
	}

	if r.acceptor != nil {
		if err := r.acceptor.Assign(psm, r.modDB); err != nil {
			return nil, fmt.Errorf("line %d: %w", first.line, err)
		}
	}
	return psm, nil
}

// readRow reads the next data line, parsing the header first if needed.
func (r *Reader) readRow() (*row, error) {
	for r.scanner.Scan() {
		r.lineNum++
		line := strings.TrimRight(r.scanner.Text(), "\r")

		// Skip comments and empty lines
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if r.columns == nil {
			if err := r.parseHeader(fields); err != nil {
				return nil, fmt.Errorf("line %d: %w", r.lineNum, err)
			}
			continue
		}

		rw, err := r.parseRow(fields)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", r.lineNum, err)
		}
		return rw, nil
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// parseHeader maps column names to positions
func (r *Reader) parseHeader(fields []string) error {
	columns := make(map[string]int, len(fields))
	for i, name := range fields {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := columns[strings.ToLower(name)]; !ok {
			return fmt.Errorf("missing required column '%s'", name)
		}
	}
	r.columns = columns
	return nil
}

// field returns the trimmed value of a column, or "" if the column is absent.
func (r *Reader) field(fields []string, name string) string {
	i, ok := r.columns[strings.ToLower(name)]
	if !ok || i >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[i])
}

func (r *Reader) parseRow(fields []string) (*row, error) {
	rw := &row{
		line: r.lineNum,
		file: r.field(fields, ColFile),
		id:   r.field(fields, ColID),
	}
	if rw.file == "" {
		return nil, fmt.Errorf("empty %s", ColFile)
	}

	var err error
	if rw.scan, err = strconv.Atoi(r.field(fields, ColScan)); err != nil {
		return nil, fmt.Errorf("invalid scan: %w", err)
	}
	if rw.score, err = parseFloat(r.field(fields, ColScore)); err != nil {
		return nil, fmt.Errorf("invalid score: %w", err)
	}
	if rw.delta, err = parseOptionalFloat(r.field(fields, ColDeltaScore)); err != nil {
		return nil, fmt.Errorf("invalid delta score: %w", err)
	}
	if rw.precursor, err = parseOptionalFloat(r.field(fields, ColPrecursorMass)); err != nil {
		return nil, fmt.Errorf("invalid precursor mass: %w", err)
	}
	if s := r.field(fields, ColPEP); s != "" {
		rw.hasPEP = true
		if rw.pep, err = parseFloat(s); err != nil {
			return nil, fmt.Errorf("invalid PEP: %w", err)
		}
		if rw.pepQ, err = parseOptionalFloat(r.field(fields, ColPEPQValue)); err != nil {
			return nil, fmt.Errorf("invalid PEP q-value: %w", err)
		}
	}

	c, err := r.parseCandidate(fields, rw.score)
	if err != nil {
		return nil, err
	}
	rw.candidate = c
	return rw, nil
}

// parseCandidate reads the candidate columns. A blank base sequence is derived from
// the full sequence; a blank candidate score is the PSM score.
func (r *Reader) parseCandidate(fields []string, psmScore float64) (core.Candidate, error) {
	c := core.Candidate{
		Notch:            core.NotchAmbiguous,
		FullSequence:     r.field(fields, ColFullSequence),
		BaseSequence:     r.field(fields, ColBaseSequence),
		DigestionAgent:   r.field(fields, ColDigestionAgent),
		ProteinAccession: r.field(fields, ColProtein),
		Score:            psmScore,
	}
	if c.FullSequence == "" {
		return c, fmt.Errorf("empty %s", ColFullSequence)
	}
	if c.BaseSequence == "" {
		base, _, err := r.modDB.ParseModifiedSequence(c.FullSequence)
		if err != nil {
			return c, err
		}
		c.BaseSequence = base
	}

	var err error
	if s := r.field(fields, ColNotch); s != "" {
		if c.Notch, err = strconv.Atoi(s); err != nil {
			return c, fmt.Errorf("invalid notch: %w", err)
		}
		if c.Notch < 0 {
			c.Notch = core.NotchAmbiguous
		}
	}
	if s := r.field(fields, ColStart); s != "" {
		if c.Start, err = strconv.Atoi(s); err != nil {
			return c, fmt.Errorf("invalid start: %w", err)
		}
	}
	if s := r.field(fields, ColEnd); s != "" {
		if c.End, err = strconv.Atoi(s); err != nil {
			return c, fmt.Errorf("invalid end: %w", err)
		}
	}
	if s := r.field(fields, ColCandidateScore); s != "" {
		if c.Score, err = parseFloat(s); err != nil {
			return c, fmt.Errorf("invalid candidate score: %w", err)
		}
	}
	return c, nil
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

func parseOptionalFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}
