package packages

import (
	"io"
	"strings"

	mm "github.com/Masterminds/semver/v3"
	"golang.org/x/mod/modfile"

	ferrors "github.com/conduit-lang/foundry/pkg/errors"
)

// toolDirective is the first go version understanding tool lines.
var toolDirective = mm.MustParse("1.24")

// WriteManifest writes a go.mod for module requiring pkgs. The output is
// deterministic: packages are listed by module path. Requirements without a
// lower bound are left to go mod tidy. A replace block is written only when
// at least one package is pinned.
func WriteManifest(w io.Writer, module, goDirective string, pkgs []Package) error {
	sorted := NewSet()
	for _, p := range pkgs {
		if err := sorted.Add(p); err != nil {
			return err
		}
	}
	list := sorted.List()

	f := new(modfile.File)
	f.Syntax = new(modfile.FileSyntax)
	addComments(f, "// Code generated by foundry. DO NOT EDIT.")
	if err := f.AddModuleStmt(module); err != nil {
		return ferrors.WrapConfig(ferrors.CodeConfig, err, "module %s", module)
	}
	if err := f.AddGoStmt(goDirective); err != nil {
		return ferrors.WrapConfig(ferrors.CodeConfig, err, "go directive")
	}

	var floating, tools, pinned []Package
	for _, p := range list {
		if p.Min != nil {
			f.AddNewRequire(p.Name, goVersion(p.Min), false)
			if p.Max != nil {
				r := f.Require[len(f.Require)-1]
				r.Syntax.Suffix = append(r.Syntax.Suffix, modfile.Comment{Token: "// < " + goVersion(p.Max), Suffix: true})
			}
		} else {
			floating = append(floating, p)
		}
		if p.BuildOnly {
			tools = append(tools, p)
		}
		if p.Pin != "" {
			pinned = append(pinned, p)
		}
	}

	if len(floating) > 0 {
		lines := []string{"// Resolved by go mod tidy:"}
		for _, p := range floating {
			lines = append(lines, "//\t"+p.Name+" "+p.Constraint())
		}
		addComments(f, lines...)
	}

	if len(tools) > 0 {
		if v, err := mm.NewVersion(goDirective); err != nil || v.LessThan(toolDirective) {
			return ferrors.Config(ferrors.CodeConfig,
				"tool dependency %s needs go %s or later, go directive is %s", tools[0].Name, toolDirective, goDirective)
		}
		for _, p := range tools {
			paths := p.Libraries
			if len(paths) == 0 {
				paths = []string{p.Name}
			}
			for _, path := range paths {
				if err := f.AddTool(path); err != nil {
					return ferrors.WrapConfig(ferrors.CodeConfig, err, "tool %s", path)
				}
			}
		}
	}

	for _, p := range pinned {
		target, version := splitPin(p.Pin)
		if err := f.AddReplace(p.Name, "", target, version); err != nil {
			return ferrors.WrapConfig(ferrors.CodePinConflict, err, "pin of %s", p.Name)
		}
	}

	data, err := f.Format()
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// splitPin splits a pin into a directory, or a module path and version.
func splitPin(pin string) (target, version string) {
	if modfile.IsDirectoryPath(pin) {
		return pin, ""
	}
	if i := strings.LastIndexByte(pin, ' '); i > 0 {
		return strings.TrimSpace(pin[:i]), pin[i+1:]
	}
	return pin, ""
}

func addComments(f *modfile.File, lines ...string) {
	var c []modfile.Comment
	for _, l := range lines {
		c = append(c, modfile.Comment{Token: l})
	}
	f.Syntax.Stmt = append(f.Syntax.Stmt, &modfile.CommentBlock{Comments: modfile.Comments{Before: c}})
}
