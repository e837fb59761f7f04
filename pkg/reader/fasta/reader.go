// Package fasta provides a streaming reader for FASTA protein databases
package fasta

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/ChrisMcGann/protinfer/pkg/core"
)

// Options control how headers are turned into proteins.
type Options struct {
	DecoyPrefix       string // Accession prefix marking decoys, e.g. "DECOY_"
	ContaminantPrefix string // Accession prefix marking contaminants, e.g. "CONTAM_"
}

// Reader provides streaming access to FASTA files
type Reader struct {
	scanner        *bufio.Scanner
	opts           Options
	lineNum        int
	pendingHeader  string
	pendingLine    int
	currentProtein *core.Protein
	err            error
}

// NewReader creates a new FASTA reader
func NewReader(r io.Reader, opts Options) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	return &Reader{
		scanner: scanner,
		opts:    opts,
	}
}

// Next advances to the next protein. Returns false when no more proteins or error.
func (r *Reader) Next() bool {
	r.currentProtein = nil
	if r.err != nil {
		return false
	}

	prot, err := r.readProtein()
	if err != nil {
		if err != io.EOF {
			r.err = err
		}
		return false
	}

	r.currentProtein = prot
	return true
}

// Protein returns the current protein
func (r *Reader) Protein() *core.Protein {
	return r.currentProtein
}

// Err returns any error encountered during reading
func (r *Reader) Err() error {
	return r.err
}

// ReadAll reads every remaining protein.
func (r *Reader) ReadAll() ([]*core.Protein, error) {
	var proteins []*core.Protein
	for r.Next() {
		proteins = append(proteins, r.Protein())
	}
	return proteins, r.Err()
}

// readProtein reads a header and the sequence lines that follow it
func (r *Reader) readProtein() (*core.Protein, error) {
	header, headerLine := r.pendingHeader, r.pendingLine
	r.pendingHeader = ""

	var seq strings.Builder
	for r.scanner.Scan() {
		r.lineNum++
		line := strings.TrimSpace(r.scanner.Text())

		// Skip comments and empty lines
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}

		if strings.HasPrefix(line, ">") {
			if header != "" {
				r.pendingHeader, r.pendingLine = line, r.lineNum
				return r.newProtein(header, headerLine, seq.String())
			}
			header, headerLine = line, r.lineNum
			continue
		}

		if header == "" {
			return nil, fmt.Errorf("line %d: sequence before first header", r.lineNum)
		}
		seq.WriteString(strings.ToUpper(strings.ReplaceAll(line, " ", "")))
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}

	if header != "" {
		return r.newProtein(header, headerLine, seq.String())
	}
	return nil, io.EOF
}

func (r *Reader) newProtein(header string, line int, seq string) (*core.Protein, error) {
	acc := ParseAccession(header)
	if acc == "" {
		return nil, fmt.Errorf("line %d: header has no accession", line)
	}
	seq = strings.TrimSuffix(seq, "*")

	prot := &core.Protein{Accession: acc, Sequence: seq}
	if r.opts.DecoyPrefix != "" && strings.HasPrefix(acc, r.opts.DecoyPrefix) {
		prot.Decoy = true
	}
	if !prot.Decoy && r.opts.ContaminantPrefix != "" && strings.HasPrefix(acc, r.opts.ContaminantPrefix) {
		prot.Contaminant = true
	}
	return prot, nil
}

// ParseAccession extracts the accession from a header line. UniProt headers
// ("sp|P12345|NAME_HUMAN ...") yield the middle field; anything else yields the
// first word. A decoy or contaminant prefix in front of a UniProt header is kept,
// e.g. ">DECOY_sp|P12345|X" gives "DECOY_P12345".
func ParseAccession(header string) string {
	header = strings.TrimSpace(strings.TrimPrefix(header, ">"))
	word := header
	if i := strings.IndexAny(header, " \t"); i >= 0 {
		word = header[:i]
	}

	parts := strings.Split(word, "|")
	if len(parts) < 3 {
		return word
	}
	db := parts[0]
	for _, known := range []string{"sp", "tr"} {
		if db == known {
			return parts[1]
		}
		if strings.HasSuffix(db, known) {
			return db[:len(db)-len(known)] + parts[1]
		}
	}
	return word
}
