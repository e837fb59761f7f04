package core

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Modification is a mass shift at a residue position.
type Modification struct {
	Mass     float64
	Position int    // 0-based residue position; -1 for N-term
	Name     string // e.g. "Carbamidomethyl", "Oxidation"
}

// ModDatabase stores modification definitions
type ModDatabase struct {
	mods map[string]float64 // name -> mass shift
}

// NewModDatabase creates an empty modification database
func NewModDatabase() *ModDatabase {
	return &ModDatabase{
		mods: make(map[string]float64),
	}
}

// LoadFromCSV loads modifications from a CSV file (format: mod,massshift,aa)
func (db *ModDatabase) LoadFromCSV(r io.Reader) error {
	scanner := bufio.NewScanner(r)

	// Skip header line
	scanner.Scan()

	lineNum := 1
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Split(line, ",")
		if len(parts) < 2 {
			return fmt.Errorf("line %d: invalid format, expected at least 2 comma-separated fields", lineNum)
		}

		modName := strings.TrimSpace(parts[0])
		massStr := strings.TrimSpace(parts[1])

		mass, err := strconv.ParseFloat(massStr, 64)
		if err != nil {
			return fmt.Errorf("line %d: invalid mass value '%s': %w", lineNum, massStr, err)
		}

		db.mods[modName] = mass
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading CSV: %w", err)
	}

	return nil
}

// GetMass returns the mass shift for a modification name
func (db *ModDatabase) GetMass(name string) (float64, bool) {
	mass, ok := db.mods[name]
	return mass, ok
}

// Add adds or updates a modification
func (db *ModDatabase) Add(name string, mass float64) {
	db.mods[name] = mass
}

// ParseModifiedSequence splits a sequence in bracket notation into its base sequence
// and modifications. Brackets hold either a name known to the database or a signed
// mass, e.g. "[Acetyl]PEPM[Oxidation]K" or "PEPM[+15.9949]K". A bracket before the
// first residue is an N-terminal modification.
func (db *ModDatabase) ParseModifiedSequence(full string) (string, []Modification, error) {
	var base strings.Builder
	var mods []Modification

	for i := 0; i < len(full); i++ {
		ch := full[i]
		if ch != '[' {
			if ch == '-' && base.Len() == 0 {
				continue // "[Acetyl]-PEPTIDE"
			}
			base.WriteByte(ch)
			continue
		}

		end := strings.IndexByte(full[i:], ']')
		if end < 0 {
			return "", nil, fmt.Errorf("unterminated modification in %q", full)
		}
		label := full[i+1 : i+end]
		i += end

		mass, err := strconv.ParseFloat(label, 64)
		if err != nil {
			var ok bool
			mass, ok = db.GetMass(label)
			if !ok {
				return "", nil, fmt.Errorf("unknown modification '%s' in %q", label, full)
			}
		}

		mods = append(mods, Modification{
			Mass:     mass,
			Position: base.Len() - 1,
			Name:     label,
		})
	}

	return base.String(), mods, nil
}

// DefaultModDatabase returns a ModDatabase pre-loaded with common modifications
func DefaultModDatabase() *ModDatabase {
	db := NewModDatabase()

	// Common modifications from unimod
	db.Add("Acetyl", 42.010565)
	db.Add("Amidated", -0.984016)
	db.Add("Carbamidomethyl", 57.021464)
	db.Add("Carbamyl", 43.005814)
	db.Add("Deamidated", 0.984016)
	db.Add("Phospho", 79.966331)
	db.Add("Dehydrated", -18.010565)
	db.Add("Glu->pyro-Glu", -18.010565)
	db.Add("Gln->pyro-Glu", -17.026549)
	db.Add("Methyl", 14.01565)
	db.Add("Oxidation", 15.994915)
	db.Add("Dimethyl", 28.0313)
	db.Add("Trimethyl", 42.04695)
	db.Add("HexNAc", 203.079373)
	db.Add("TMT6plex", 229.162932)
	db.Add("TMTPro", 304.207146)
	db.Add("iTRAQ4plex", 144.102063)

	return db
}
