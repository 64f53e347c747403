package query

import (
	"encoding/json"
	"fmt"
)

// HierarchyEntry is one class and its direct superclasses, as reported by
// the server. Hierarchy replies are association lists of these entries;
// the same class may appear more than once.
type HierarchyEntry struct {
	Class        string
	Superclasses []string
}

// decodeHierarchyEntries decodes a hierarchy-style response: a JSON array
// of single-entry objects mapping one class name to its superclass list.
func decodeHierarchyEntries(response json.RawMessage) ([]HierarchyEntry, error) {
	var raw []map[string][]string
	if err := json.Unmarshal(response, &raw); err != nil {
		return nil, fmt.Errorf("decoding hierarchy entries: %w", err)
	}
	entries := make([]HierarchyEntry, 0, len(raw))
	for i, mapping := range raw {
		if len(mapping) != 1 {
			return nil, fmt.Errorf("hierarchy entry %d has %d keys, want exactly 1", i, len(mapping))
		}
		for class, superclasses := range mapping {
			entries = append(entries, HierarchyEntry{Class: class, Superclasses: superclasses})
		}
	}
	return entries, nil
}

// ClassHierarchy is a direct-edge view of the program's class graph: each
// class maps to its direct superclasses, and the derived reverse index
// maps each class to its direct subclasses. It holds one level only, not
// a transitive closure; callers needing ancestry chains traverse it
// themselves. Immutable once built.
type ClassHierarchy struct {
	hierarchy        map[string][]string
	reverseHierarchy map[string][]string

	// order records the first-seen order of class names so the reverse
	// index is derived deterministically.
	order []string
}

// NewClassHierarchy folds an ordered entry list into a hierarchy. When a
// class appears more than once the later entry replaces the earlier one
// wholesale; the server should not produce duplicates, but its reply type
// cannot rule them out, so the last occurrence wins.
func NewClassHierarchy(entries []HierarchyEntry) *ClassHierarchy {
	hierarchy := make(map[string][]string, len(entries))
	order := make([]string, 0, len(entries))
	for _, entry := range entries {
		if _, seen := hierarchy[entry.Class]; !seen {
			order = append(order, entry.Class)
		}
		hierarchy[entry.Class] = entry.Superclasses
	}

	reverse := make(map[string][]string, len(hierarchy))
	for _, class := range order {
		reverse[class] = []string{}
	}
	for _, class := range order {
		for _, superclass := range hierarchy[class] {
			if _, seen := reverse[superclass]; !seen {
				order = append(order, superclass)
			}
			reverse[superclass] = append(reverse[superclass], class)
		}
	}

	return &ClassHierarchy{hierarchy: hierarchy, reverseHierarchy: reverse, order: order}
}

// Hierarchy returns the class to direct-superclasses mapping.
func (h *ClassHierarchy) Hierarchy() map[string][]string {
	return h.hierarchy
}

// ReverseHierarchy returns the class to direct-subclasses mapping. Every
// class name appearing anywhere in the hierarchy has an entry, empty when
// nothing subclasses it.
func (h *ClassHierarchy) ReverseHierarchy() map[string][]string {
	return h.reverseHierarchy
}

// Superclasses returns the direct superclasses of name, or an empty slice
// when the class is unknown.
func (h *ClassHierarchy) Superclasses(name string) []string {
	if superclasses, ok := h.hierarchy[name]; ok {
		return superclasses
	}
	return []string{}
}

// Subclasses returns the direct subclasses of name, or an empty slice
// when the class is unknown.
func (h *ClassHierarchy) Subclasses(name string) []string {
	if subclasses, ok := h.reverseHierarchy[name]; ok {
		return subclasses
	}
	return []string{}
}
