// Package packages models Go module requirements declared by devices and
// merges them into a single set.
package packages

import (
	"fmt"
	"sort"
	"strings"

	mm "github.com/Masterminds/semver/v3"

	ferrors "github.com/conduit-lang/foundry/pkg/errors"
)

// Package is a module requirement. Min is inclusive and Max exclusive; a nil
// bound is unbounded.
type Package struct {
	Name      string
	Min       *mm.Version
	Max       *mm.Version
	Pin       string
	Libraries []string
	BuildOnly bool
}

// Option configures a package.
type Option func(*Package) error

// Min sets the inclusive lower bound.
func Min(v string) Option {
	return func(p *Package) error {
		parsed, err := parseVersion(v)
		if err != nil {
			return err
		}
		p.Min = parsed
		return nil
	}
}

// Max sets the exclusive upper bound.
func Max(v string) Option {
	return func(p *Package) error {
		parsed, err := parseVersion(v)
		if err != nil {
			return err
		}
		p.Max = parsed
		return nil
	}
}

// Pin replaces the module with target, a directory or "module version".
func Pin(target string) Option {
	return func(p *Package) error {
		p.Pin = target
		return nil
	}
}

// Libs sets the import paths the generated program uses from the module.
func Libs(paths ...string) Option {
	return func(p *Package) error {
		p.Libraries = append(p.Libraries, paths...)
		return nil
	}
}

// BuildOnly marks the module as a tool dependency.
func BuildOnly() Option {
	return func(p *Package) error {
		p.BuildOnly = true
		return nil
	}
}

// New creates a package requirement.
func New(name string, opts ...Option) (Package, error) {
	if name == "" {
		return Package{}, ferrors.Config(ferrors.CodeConfig, "package name is required")
	}
	p := Package{Name: name}
	for _, opt := range opts {
		if err := opt(&p); err != nil {
			return Package{}, ferrors.WrapConfig(ferrors.CodeConfig, err, "package %s", name)
		}
	}
	if p.Min != nil && p.Max != nil && p.Min.Compare(p.Max) >= 0 {
		return Package{}, ferrors.Config(ferrors.CodeConstraint, "package %s: empty version range %s", name, p.Constraint())
	}
	p.Libraries = normalizeLibs(p.Libraries)
	return p, nil
}

// Must is like New but panics on error. It is meant for package-level device
// declarations.
func Must(name string, opts ...Option) Package {
	p, err := New(name, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

func parseVersion(raw string) (*mm.Version, error) {
	v, err := mm.StrictNewVersion(strings.TrimPrefix(raw, "v"))
	if err != nil {
		return nil, fmt.Errorf("parse version %q: %w", raw, err)
	}
	return v, nil
}

func goVersion(v *mm.Version) string {
	return "v" + v.String()
}

// Constraint renders the version range, e.g. ">= v1.2.0, < v2.0.0".
func (p Package) Constraint() string {
	var parts []string
	if p.Min != nil {
		parts = append(parts, ">= "+goVersion(p.Min))
	}
	if p.Max != nil {
		parts = append(parts, "< "+goVersion(p.Max))
	}
	if len(parts) == 0 {
		return "*"
	}
	return strings.Join(parts, ", ")
}

// Satisfies reports whether the module version v lies in the range.
func (p Package) Satisfies(v string) (bool, error) {
	parsed, err := mm.NewVersion(strings.TrimPrefix(v, "v"))
	if err != nil {
		return false, ferrors.WrapConfig(ferrors.CodeMalformedValue, err, "module %s", p.Name)
	}
	if p.Min != nil && parsed.Compare(p.Min) < 0 {
		return false, nil
	}
	if p.Max != nil && parsed.Compare(p.Max) >= 0 {
		return false, nil
	}
	return true, nil
}

func (p Package) String() string {
	s := p.Name + " " + p.Constraint()
	if p.Pin != "" {
		s += " => " + p.Pin
	}
	return s
}

// Merge unifies two requirements on the same module. The range is the
// intersection of both ranges; an empty intersection or two different pins
// are configuration errors.
func Merge(a, b Package) (Package, error) {
	if a.Name != b.Name {
		return Package{}, ferrors.Config(ferrors.CodeConfig, "cannot merge packages %s and %s", a.Name, b.Name)
	}

	out := Package{
		Name:      a.Name,
		Min:       a.Min,
		Max:       a.Max,
		Pin:       a.Pin,
		Libraries: normalizeLibs(append(append([]string(nil), a.Libraries...), b.Libraries...)),
		BuildOnly: a.BuildOnly && b.BuildOnly,
	}
	if b.Min != nil && (out.Min == nil || b.Min.Compare(out.Min) > 0) {
		out.Min = b.Min
	}
	if b.Max != nil && (out.Max == nil || b.Max.Compare(out.Max) < 0) {
		out.Max = b.Max
	}
	if out.Min != nil && out.Max != nil && out.Min.Compare(out.Max) >= 0 {
		return Package{}, ferrors.Config(ferrors.CodeConstraint,
			"incompatible constraints for %s: %s and %s", a.Name, a.Constraint(), b.Constraint())
	}

	switch {
	case a.Pin == "":
		out.Pin = b.Pin
	case b.Pin != "" && a.Pin != b.Pin:
		return Package{}, ferrors.Config(ferrors.CodePinConflict,
			"conflicting pins for %s: %s and %s", a.Name, a.Pin, b.Pin)
	}
	return out, nil
}

func normalizeLibs(libs []string) []string {
	if len(libs) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(libs))
	out := make([]string, 0, len(libs))
	for _, l := range libs {
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}
