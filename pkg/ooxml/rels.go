package ooxml

import (
	"encoding/xml"
	"fmt"
	"path"
)

// Relationship is one entry of a part's .rels file. Target is resolved
// to a full part name unless TargetMode is "External".
type Relationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr"`
}

// IsExternal reports whether the relationship points outside the package.
func (r Relationship) IsExternal() bool {
	return r.TargetMode == "External"
}

type relationshipsXML struct {
	Relationships []Relationship `xml:"Relationship"`
}

// Relationships parses the .rels part belonging to partName and returns
// the relationships keyed by ID. A part without a .rels file yields an
// empty map.
func (p *Package) Relationships(partName string) (map[string]Relationship, error) {
	data, ok := p.Part(relsPath(partName))
	if !ok {
		return map[string]Relationship{}, nil
	}

	var parsed relationshipsXML
	if err := xml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse %s: %w", relsPath(partName), err)
	}

	rels := make(map[string]Relationship, len(parsed.Relationships))
	base := path.Dir(partName)
	for _, rel := range parsed.Relationships {
		if !rel.IsExternal() {
			rel.Target = resolveTarget(base, rel.Target)
		}
		rels[rel.ID] = rel
	}
	return rels, nil
}

// relsPath maps "word/document.xml" to "word/_rels/document.xml.rels".
func relsPath(partName string) string {
	return path.Join(path.Dir(partName), "_rels", path.Base(partName)+".rels")
}

// resolveTarget normalizes a relationship target relative to the part's
// directory, handling "../media/image1.png" style references.
func resolveTarget(base, target string) string {
	if path.IsAbs(target) {
		return target[1:]
	}
	return path.Clean(path.Join(base, target))
}
