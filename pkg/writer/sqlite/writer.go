// Package sqlite provides SQLite storage for inference results
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ChrisMcGann/protinfer/pkg/core"
)

const (
	// Date format for HeaderTable (ISO 8601)
	headerDateFormat = "2006-01-02"

	// SchemaVersion is written to HeaderTable.version
	SchemaVersion = 1
)

// Writer handles writing PSMs and protein groups to SQLite database files
type Writer struct {
	db          *sql.DB
	outputPath  string
	psmStmt     *sql.Stmt
	groupStmt   *sql.Stmt
	peptideStmt *sql.Stmt
	psmID       int
	groupID     int
}

// NewWriter creates a new SQLite writer
func NewWriter(outputPath string) (*Writer, error) {
	db, err := sql.Open("sqlite3", outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	w := &Writer{
		db:         db,
		outputPath: outputPath,
		psmID:      1,
		groupID:    1,
	}

	if err := w.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	if err := w.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}

	return w, nil
}

// createTables creates the required database schema
func (w *Writer) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS PsmTable (
		PsmId INTEGER PRIMARY KEY,
		Label TEXT,
		File TEXT,
		Scan INTEGER,
		Score DOUBLE,
		DeltaScore DOUBLE,
		Notch INTEGER,
		Decoy BOOL,
		Contaminant BOOL,
		CumulativeTarget DOUBLE,
		CumulativeDecoy DOUBLE,
		QValue DOUBLE,
		QValueUndefined BOOL,
		CumulativeTargetNotch DOUBLE,
		CumulativeDecoyNotch DOUBLE,
		QValueNotch DOUBLE,
		PEP DOUBLE,
		PEPQValue DOUBLE,
		Peptides TEXT,
		Proteins TEXT
	);

	CREATE TABLE IF NOT EXISTS ProteinGroupTable (
		GroupId INTEGER PRIMARY KEY,
		Name TEXT,
		Accessions TEXT,
		Decoy BOOL,
		Contaminant BOOL,
		Score DOUBLE,
		CumulativeTarget DOUBLE,
		CumulativeDecoy DOUBLE,
		QValue DOUBLE,
		QValueUndefined BOOL,
		NumPeptides INTEGER,
		NumUniquePeptides INTEGER
	);

	CREATE TABLE IF NOT EXISTS GroupPeptideTable (
		GroupId INTEGER REFERENCES ProteinGroupTable(GroupId),
		Peptide TEXT,
		BaseSequence TEXT,
		DigestionAgent TEXT,
		IsUnique BOOL
	);

	CREATE TABLE IF NOT EXISTS HeaderTable (
		version INTEGER NOT NULL DEFAULT 0,
		CreationDate TEXT,
		Description TEXT,
		Options TEXT
	);
	`

	_, err := w.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	return nil
}

// prepareStatements prepares SQL statements for batch insertion
func (w *Writer) prepareStatements() error {
	var err error

	w.psmStmt, err = w.db.Prepare(`
		INSERT INTO PsmTable (
			PsmId, Label, File, Scan, Score, DeltaScore, Notch, Decoy, Contaminant,
			CumulativeTarget, CumulativeDecoy, QValue, QValueUndefined,
			CumulativeTargetNotch, CumulativeDecoyNotch, QValueNotch,
			PEP, PEPQValue, Peptides, Proteins
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare PSM statement: %w", err)
	}

	w.groupStmt, err = w.db.Prepare(`
		INSERT INTO ProteinGroupTable (
			GroupId, Name, Accessions, Decoy, Contaminant, Score,
			CumulativeTarget, CumulativeDecoy, QValue, QValueUndefined, NumPeptides, NumUniquePeptides
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare group statement: %w", err)
	}

	w.peptideStmt, err = w.db.Prepare(`
		INSERT INTO GroupPeptideTable (GroupId, Peptide, BaseSequence, DigestionAgent, IsUnique)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare peptide statement: %w", err)
	}

	return nil
}

// WritePSM writes a single PSM to the database
func (w *Writer) WritePSM(psm *core.PSM) error {
	fdr := psm.Fdr
	if fdr == nil {
		fdr = &core.FdrStatistics{}
	}

	_, err := w.psmStmt.Exec(
		w.psmID,                        // PsmId
		psm.Label(),                    // Label
		psm.File,                       // File
		psm.Scan,                       // Scan
		psm.Score,                      // Score
		psm.DeltaScore,                 // DeltaScore
		psm.Notch(),                    // Notch
		psm.Decoy,                      // Decoy
		psm.Contaminant,                // Contaminant
		fdr.CumulativeTarget,           // CumulativeTarget
		fdr.CumulativeDecoy,            // CumulativeDecoy
		fdr.QValue,                     // QValue
		fdr.QValueUndefined,            // QValueUndefined
		fdr.CumulativeTargetNotch,      // CumulativeTargetNotch
		fdr.CumulativeDecoyNotch,       // CumulativeDecoyNotch
		fdr.QValueNotch,                // QValueNotch
		fdr.PEP,                        // PEP
		fdr.PEPQValue,                  // PEPQValue
		joinCandidates(psm, peptideOf), // Peptides
		joinCandidates(psm, proteinOf), // Proteins
	)
	if err != nil {
		return fmt.Errorf("failed to insert PSM %s: %w", psm.Label(), err)
	}

	w.psmID++
	return nil
}

// WriteGroup writes a protein group and its peptides to the database
func (w *Writer) WriteGroup(g *core.ProteinGroup) error {
	fdr := g.Fdr
	if fdr == nil {
		fdr = &core.FdrStatistics{}
	}

	_, err := w.groupStmt.Exec(
		w.groupID,                       // GroupId
		g.Name,                          // Name
		strings.Join(g.Accessions, ";"), // Accessions
		g.Decoy,                         // Decoy
		g.Contaminant,                   // Contaminant
		g.Score,                         // Score
		fdr.CumulativeTarget,            // CumulativeTarget
		fdr.CumulativeDecoy,             // CumulativeDecoy
		fdr.QValue,                      // QValue
		fdr.QValueUndefined,             // QValueUndefined
		len(g.AllPeptides),              // NumPeptides
		len(g.UniquePeptides),           // NumUniquePeptides
	)
	if err != nil {
		return fmt.Errorf("failed to insert group %s: %w", g.Name, err)
	}

	for _, id := range g.AllPeptides {
		if _, err := w.peptideStmt.Exec(w.groupID, id.Full, id.Base, id.Agent, g.IsUnique(id)); err != nil {
			return fmt.Errorf("failed to insert peptide %s of group %s: %w", id, g.Name, err)
		}
	}

	w.groupID++
	return nil
}

func peptideOf(c core.Candidate) string { return c.FullSequence }
func proteinOf(c core.Candidate) string { return c.ProteinAccession }

// joinCandidates joins distinct candidate values in candidate order
func joinCandidates(psm *core.PSM, value func(core.Candidate) string) string {
	seen := make(map[string]bool, len(psm.Candidates))
	var parts []string
	for _, c := range psm.Candidates {
		v := value(c)
		if seen[v] {
			continue
		}
		seen[v] = true
		parts = append(parts, v)
	}
	return strings.Join(parts, ";")
}

// Finalize writes the header table and closes the database. options is stored
// verbatim, typically the run options as YAML.
func (w *Writer) Finalize(description, options string) error {
	_, err := w.db.Exec(`
		INSERT INTO HeaderTable (version, CreationDate, Description, Options)
		VALUES (?, ?, ?, ?)
	`, SchemaVersion, time.Now().Format(headerDateFormat), description, options)
	if err != nil {
		return fmt.Errorf("failed to insert header: %w", err)
	}

	return w.Close()
}

// Close closes the prepared statements and the database without writing a header
func (w *Writer) Close() error {
	for _, stmt := range []*sql.Stmt{w.psmStmt, w.groupStmt, w.peptideStmt} {
		if stmt != nil {
			stmt.Close()
		}
	}

	if err := w.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}
