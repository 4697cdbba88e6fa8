// Package countries resolves divergent country spellings to the canonical name
// used as the join key across datasets.
package countries

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed countries.yaml
var defaultYAML []byte

// Table is a versioned, read-only raw -> canonical name mapping.
type Table struct {
	Version  string            `yaml:"version"`
	Mappings map[string]string `yaml:"mappings"`
}

// Entry is one mapping row.
type Entry struct {
	Raw       string `json:"raw"`
	Canonical string `json:"canonical"`
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
	defaultErr   error
)

// Default returns the embedded table, parsed and validated once.
func Default() (*Table, error) {
	defaultOnce.Do(func() {
		defaultTable, defaultErr = Parse(defaultYAML)
	})
	return defaultTable, defaultErr
}

// Load reads a table from a YAML file. An empty path yields the embedded default.
func Load(path string) (*Table, error) {
	if path == "" {
		return Default()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read country table: %w", err)
	}
	t, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Parse decodes and validates a YAML table. Keys and values are trimmed.
func Parse(b []byte) (*Table, error) {
	var raw Table
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("parse country table: %w", err)
	}
	t := &Table{Version: strings.TrimSpace(raw.Version), Mappings: make(map[string]string, len(raw.Mappings))}
	for k, v := range raw.Mappings {
		t.Mappings[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// ErrChain is returned when a canonical name is itself remapped.
var ErrChain = errors.New("country table chains mappings")

// Validate rejects empty names and chains. A chain-free table makes
// Standardize idempotent.
func (t *Table) Validate() error {
	if t == nil {
		return errors.New("country table is nil")
	}
	if t.Version == "" {
		return errors.New("country table has no version")
	}
	var chains []string
	for k, v := range t.Mappings {
		if k == "" || v == "" {
			return fmt.Errorf("country table has an empty name (%q -> %q)", k, v)
		}
		if next, ok := t.Mappings[v]; ok && next != v {
			chains = append(chains, fmt.Sprintf("%s -> %s -> %s", k, v, next))
		}
	}
	if len(chains) > 0 {
		sort.Strings(chains)
		return fmt.Errorf("%w: %s", ErrChain, strings.Join(chains, "; "))
	}
	return nil
}

// Standardize trims name and substitutes its canonical spelling if one is known.
func (t *Table) Standardize(name string) string {
	s := strings.TrimSpace(name)
	if v, ok := t.Mappings[s]; ok {
		return v
	}
	return s
}

// Len returns the number of mappings.
func (t *Table) Len() int { return len(t.Mappings) }

// Entries returns the mappings sorted by raw name.
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, len(t.Mappings))
	for k, v := range t.Mappings {
		out = append(out, Entry{Raw: k, Canonical: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Raw < out[j].Raw })
	return out
}
