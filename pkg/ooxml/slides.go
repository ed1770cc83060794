package ooxml

import (
	"regexp"
	"sort"
	"strconv"
)

var slidePartRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// SlideParts returns the PPTX slide part names ordered by slide number.
// Lexicographic order would put slide10 before slide2.
func (p *Package) SlideParts() []string {
	type numbered struct {
		name string
		n    int
	}
	var slides []numbered
	for name := range p.parts {
		m := slidePartRe.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		slides = append(slides, numbered{name: name, n: n})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].n < slides[j].n })

	names := make([]string, len(slides))
	for i, s := range slides {
		names[i] = s.name
	}
	return names
}
