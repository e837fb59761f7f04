package digestion

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Registry maps agent names to agents. A registry belongs to a single run.
// Names are unique ignoring case.
type Registry struct {
	agents map[string]*Agent
	folded map[string]*Agent
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		agents: make(map[string]*Agent),
		folded: make(map[string]*Agent),
	}
}

// Add adds an agent, replacing one registered under exactly the same name. A name
// that differs from a registered one only by case is rejected.
func (r *Registry) Add(a *Agent) error {
	key := strings.ToLower(a.Name)
	if prev, ok := r.folded[key]; ok && prev.Name != a.Name {
		return fmt.Errorf("agent %s clashes with registered agent %s", a.Name, prev.Name)
	}
	r.agents[a.Name] = a
	r.folded[key] = a
	return nil
}

// Lookup finds an agent by name, falling back to a case-insensitive match.
func (r *Registry) Lookup(name string) (*Agent, bool) {
	if r == nil {
		return nil, false
	}
	if a, ok := r.agents[name]; ok {
		return a, true
	}
	a, ok := r.folded[strings.ToLower(name)]
	return a, ok
}

// Names returns the registered agent names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.agents))
	for n := range r.agents {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// LoadFromCSV loads agents from CSV (format: name,motif). Motifs with several
// sites must be quoted or use ';' as the separator.
func (r *Registry) LoadFromCSV(rd io.Reader) error {
	scanner := bufio.NewScanner(rd)

	// Skip header line
	scanner.Scan()

	lineNum := 1
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		comma := strings.IndexByte(line, ',')
		if comma < 0 {
			return fmt.Errorf("line %d: invalid format, expected name,motif", lineNum)
		}
		name := strings.TrimSpace(line[:comma])
		motif := strings.Trim(strings.TrimSpace(line[comma+1:]), "\"")
		motif = strings.ReplaceAll(motif, ";", ",")

		agent, err := NewAgent(name, motif)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNum, err)
		}
		if err := r.Add(agent); err != nil {
			return fmt.Errorf("line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading CSV: %w", err)
	}
	return nil
}

// DefaultRegistry returns a registry with common proteases.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, def := range []struct{ name, motif string }{
		{"trypsin", "K|[P],R|[P]"},
		{"Lys-C", "K|"},
		{"Arg-C", "R|"},
		{"Glu-C", "E|"},
		{"Asp-N", "|D"},
		{"chymotrypsin", "F|[P],W|[P],Y|[P]"},
	} {
		a, err := NewAgent(def.name, def.motif)
		if err == nil {
			err = r.Add(a)
		}
		if err != nil {
			panic(err)
		}
	}
	return r
}
