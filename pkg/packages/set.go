package packages

import (
	"sort"
)

// Set holds at most one requirement per module, merging on Add.
type Set struct {
	byName map[string]Package
}

// NewSet creates an empty set.
func NewSet() *Set {
	return &Set{byName: make(map[string]Package)}
}

// Add merges p into the set.
func (s *Set) Add(p Package) error {
	cur, ok := s.byName[p.Name]
	if !ok {
		s.byName[p.Name] = p
		return nil
	}
	merged, err := Merge(cur, p)
	if err != nil {
		return err
	}
	s.byName[p.Name] = merged
	return nil
}

// Get returns the requirement on module name.
func (s *Set) Get(name string) (Package, bool) {
	p, ok := s.byName[name]
	return p, ok
}

// Len returns the number of modules.
func (s *Set) Len() int {
	return len(s.byName)
}

// List returns the requirements sorted by module path.
func (s *Set) List() []Package {
	out := make([]Package, 0, len(s.byName))
	for _, p := range s.byName {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Libraries returns the sorted union of every package's libraries.
func Libraries(pkgs []Package) []string {
	var all []string
	for _, p := range pkgs {
		all = append(all, p.Libraries...)
	}
	return normalizeLibs(all)
}
