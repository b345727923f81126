// Package taxonomy holds the fixed Schedule E expense categories.
//
// The table is loaded once from an embedded YAML document and never mutated,
// so a *Taxonomy is safe for concurrent reads without locking.
package taxonomy

import (
	_ "embed"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"rentaltax/internal/core"
)

//go:embed categories.yaml
var defaultDocument string

type document struct {
	Categories []core.CategoryDefinition `yaml:"categories"`
}

// Taxonomy is an immutable lookup table keyed by id and by sort order.
type Taxonomy struct {
	ordered     []core.CategoryDefinition
	byID        map[string]core.CategoryDefinition
	bySortOrder map[int]core.CategoryDefinition
}

var (
	defaultOnce sync.Once
	defaultTax  *Taxonomy
)

// Default returns the embedded Schedule E taxonomy. It panics if the embedded
// document is invalid, which is a build defect rather than a runtime condition.
func Default() *Taxonomy {
	defaultOnce.Do(func() {
		t, err := Load(strings.NewReader(defaultDocument))
		if err != nil {
			panic(fmt.Sprintf("taxonomy: embedded categories invalid: %v", err))
		}
		defaultTax = t
	})
	return defaultTax
}

// Load parses a taxonomy document and checks that ids and sort orders are unique.
func Load(r io.Reader) (*Taxonomy, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode taxonomy: %w", err)
	}
	return New(doc.Categories)
}

// New builds a Taxonomy from category definitions.
func New(defs []core.CategoryDefinition) (*Taxonomy, error) {
	if len(defs) == 0 {
		return nil, fmt.Errorf("taxonomy has no categories")
	}

	t := &Taxonomy{
		ordered:     make([]core.CategoryDefinition, 0, len(defs)),
		byID:        make(map[string]core.CategoryDefinition, len(defs)),
		bySortOrder: make(map[int]core.CategoryDefinition, len(defs)),
	}
	for _, d := range defs {
		d.ID = strings.TrimSpace(d.ID)
		if d.ID == "" {
			return nil, fmt.Errorf("category %q has empty id", d.Name)
		}
		if _, dup := t.byID[d.ID]; dup {
			return nil, fmt.Errorf("duplicate category id %q", d.ID)
		}
		if _, dup := t.bySortOrder[d.SortOrder]; dup {
			return nil, fmt.Errorf("duplicate sort order %d (category %q)", d.SortOrder, d.ID)
		}
		t.byID[d.ID] = d
		t.bySortOrder[d.SortOrder] = d
		t.ordered = append(t.ordered, d)
	}
	sort.SliceStable(t.ordered, func(i, j int) bool {
		return t.ordered[i].SortOrder < t.ordered[j].SortOrder
	})
	return t, nil
}

func (t *Taxonomy) ByID(id string) (core.CategoryDefinition, bool) {
	d, ok := t.byID[id]
	return d, ok
}

func (t *Taxonomy) BySortOrder(n int) (core.CategoryDefinition, bool) {
	d, ok := t.bySortOrder[n]
	return d, ok
}

// All returns a copy of every category in sort order.
func (t *Taxonomy) All() []core.CategoryDefinition {
	return append([]core.CategoryDefinition(nil), t.ordered...)
}

func (t *Taxonomy) Len() int {
	return len(t.ordered)
}

// ParseLineNumber extracts N from "Line N". It returns nil when the schedule
// line has no numeric suffix.
func ParseLineNumber(scheduleLine string) *int {
	s := strings.TrimSpace(scheduleLine)
	const prefix = "line "
	if len(s) <= len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s[len(prefix):]))
	if err != nil {
		return nil
	}
	return &n
}
