package sqlite

import (
	"database/sql"
	"fmt"
	"os"
)

// PSMRecord is a row of PsmTable
type PSMRecord struct {
	Label       string
	File        string
	Score       float64
	Decoy       bool
	Contaminant bool
	QValue      float64
	QValueNotch float64
	Undefined   bool
}

// GroupRecord is a row of ProteinGroupTable
type GroupRecord struct {
	Name              string
	Decoy             bool
	Contaminant       bool
	Score             float64
	QValue            float64
	Undefined         bool
	NumPeptides       int
	NumUniquePeptides int
}

// Header is the row of HeaderTable
type Header struct {
	Version      int
	CreationDate string
	Description  string
	Options      string
}

// Results reads a database written by Writer
type Results struct {
	db *sql.DB
}

// Open opens an existing result database read-only
func Open(path string) (*Results, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &Results{db: db}, nil
}

// Header returns the header row
func (r *Results) Header() (*Header, error) {
	h := &Header{}
	err := r.db.QueryRow(`SELECT version, CreationDate, Description, Options FROM HeaderTable LIMIT 1`).
		Scan(&h.Version, &h.CreationDate, &h.Description, &h.Options)
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	return h, nil
}

// PSMs returns every PSM in insertion order
func (r *Results) PSMs() ([]PSMRecord, error) {
	rows, err := r.db.Query(`
		SELECT Label, File, Score, Decoy, Contaminant, QValue, QValueNotch, QValueUndefined
		FROM PsmTable ORDER BY PsmId
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query PSMs: %w", err)
	}
	defer rows.Close()

	var out []PSMRecord
	for rows.Next() {
		var p PSMRecord
		if err := rows.Scan(&p.Label, &p.File, &p.Score, &p.Decoy, &p.Contaminant, &p.QValue, &p.QValueNotch, &p.Undefined); err != nil {
			return nil, fmt.Errorf("failed to read PSM: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Groups returns every protein group in insertion order
func (r *Results) Groups() ([]GroupRecord, error) {
	rows, err := r.db.Query(`
		SELECT Name, Decoy, Contaminant, Score, QValue, QValueUndefined, NumPeptides, NumUniquePeptides
		FROM ProteinGroupTable ORDER BY GroupId
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query groups: %w", err)
	}
	defer rows.Close()

	var out []GroupRecord
	for rows.Next() {
		var g GroupRecord
		if err := rows.Scan(&g.Name, &g.Decoy, &g.Contaminant, &g.Score, &g.QValue, &g.Undefined, &g.NumPeptides, &g.NumUniquePeptides); err != nil {
			return nil, fmt.Errorf("failed to read group: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Close closes the database
func (r *Results) Close() error {
	return r.db.Close()
}
