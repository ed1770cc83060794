// Package ooxml reads Office Open XML packages (DOCX, PPTX): the ZIP
// container, part relationships, and the shared document properties.
package ooxml

import (
	"archive/zip"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Package is an OOXML file with all parts read into memory. Packages of
// this scope are small enough that buffering beats re-opening the ZIP
// for every relationship lookup.
type Package struct {
	Path  string
	parts map[string][]byte
}

// Open reads every part of the ZIP container at path.
func Open(path string) (*Package, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()

	pkg := &Package{Path: path, parts: make(map[string][]byte, len(r.File))}
	for _, f := range r.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open part %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read part %s: %w", f.Name, err)
		}
		pkg.parts[f.Name] = data
	}
	return pkg, nil
}

// Part returns the raw bytes of a part by its full name.
func (p *Package) Part(name string) ([]byte, bool) {
	data, ok := p.parts[name]
	return data, ok
}

// HasPart reports whether the package contains the named part.
func (p *Package) HasPart(name string) bool {
	_, ok := p.parts[name]
	return ok
}

// PartsWithPrefix returns the names of all parts under a prefix, sorted.
func (p *Package) PartsWithPrefix(prefix string) []string {
	var names []string
	for name := range p.parts {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
