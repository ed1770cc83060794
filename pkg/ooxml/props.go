package ooxml

import (
	"encoding/xml"
	"time"
)

// CoreProperties are the Dublin Core document properties shared by all
// OOXML formats (docProps/core.xml).
type CoreProperties struct {
	Title          string
	Creator        string
	LastModifiedBy string
	Created        *time.Time
	Modified       *time.Time
}

type corePropsXML struct {
	Title          string `xml:"title"`
	Creator        string `xml:"creator"`
	LastModifiedBy string `xml:"lastModifiedBy"`
	Created        string `xml:"created"`
	Modified       string `xml:"modified"`
}

// AppProperties are the extended properties (docProps/app.xml). Pages is
// populated for DOCX, Slides for PPTX; both are 0 when absent.
type AppProperties struct {
	Pages  int `xml:"Pages"`
	Slides int `xml:"Slides"`
}

// CoreProperties parses docProps/core.xml. A package without the part
// yields zero-value properties.
func (p *Package) CoreProperties() (CoreProperties, error) {
	var props CoreProperties
	data, ok := p.Part("docProps/core.xml")
	if !ok {
		return props, nil
	}

	var parsed corePropsXML
	if err := xml.Unmarshal(data, &parsed); err != nil {
		return props, err
	}

	props.Title = parsed.Title
	props.Creator = parsed.Creator
	props.LastModifiedBy = parsed.LastModifiedBy
	props.Created = parseW3CDate(parsed.Created)
	props.Modified = parseW3CDate(parsed.Modified)
	return props, nil
}

// AppProperties parses docProps/app.xml. A package without the part
// yields zero counts.
func (p *Package) AppProperties() (AppProperties, error) {
	var props AppProperties
	data, ok := p.Part("docProps/app.xml")
	if !ok {
		return props, nil
	}
	if err := xml.Unmarshal(data, &props); err != nil {
		return AppProperties{}, err
	}
	return props, nil
}

// parseW3CDate handles the dcterms:W3CDTF timestamps found in core.xml.
func parseW3CDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
