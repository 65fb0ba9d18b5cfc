package dataset

import (
	"fmt"
	"sort"
	"strings"
)

// RelationKind is the categorical type of a relation.
type RelationKind string

const (
	Dependency     RelationKind = "dependency"
	Similarity     RelationKind = "similarity"
	Derivation     RelationKind = "derivation"
	Usage          RelationKind = "usage"
	Composition    RelationKind = "composition"
	Classification RelationKind = "classification"
)

// AllRelations is the wildcard accepted by RelationSet.
const AllRelations = "all"

// RelationKinds lists every kind in display order.
var RelationKinds = []RelationKind{Dependency, Similarity, Derivation, Usage, Composition, Classification}

// Valid reports whether k is one of the known kinds.
func (k RelationKind) Valid() bool {
	for _, known := range RelationKinds {
		if k == known {
			return true
		}
	}
	return false
}

// ParseRelationKind accepts a kind name in any case.
func ParseRelationKind(s string) (RelationKind, error) {
	k := RelationKind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("unknown relation kind %q", s)
	}
	return k, nil
}

// RelationSet is the set of relation kinds selected for display. The zero
// value selects nothing; use AllRelationSet for the wildcard.
type RelationSet struct {
	all   bool
	kinds map[RelationKind]struct{}
}

// AllRelationSet selects every kind.
func AllRelationSet() RelationSet {
	return RelationSet{all: true}
}

// NewRelationSet builds a set from kind names; "all" selects everything.
func NewRelationSet(names ...string) (RelationSet, error) {
	set := RelationSet{kinds: make(map[RelationKind]struct{}, len(names))}
	for _, name := range names {
		if strings.EqualFold(strings.TrimSpace(name), AllRelations) {
			set.all = true
			continue
		}
		k, err := ParseRelationKind(name)
		if err != nil {
			return RelationSet{}, err
		}
		set.kinds[k] = struct{}{}
	}
	return set, nil
}

// Contains reports whether k is selected.
func (s RelationSet) Contains(k RelationKind) bool {
	if s.all {
		return true
	}
	_, ok := s.kinds[k]
	return ok
}

// All reports whether the wildcard is selected.
func (s RelationSet) All() bool { return s.all }

// Names returns the selected kinds, or ["all"].
func (s RelationSet) Names() []string {
	if s.all {
		return []string{AllRelations}
	}
	names := make([]string, 0, len(s.kinds))
	for k := range s.kinds {
		names = append(names, string(k))
	}
	sort.Strings(names)
	return names
}
