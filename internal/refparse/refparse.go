// Package refparse extracts structured identifiers from raw citation strings.
//
// Each raw reference yields exactly one outcome: a DOI and/or PMID when
// either pattern matches, otherwise a free-text title. Parsing is pure and
// total; no input raises an error.
package refparse

import (
	"regexp"
	"strings"

	"github.com/dimarzo/citegraph/internal/doi"
)

var (
	pmidPattern = regexp.MustCompile(`\bPMID[:\s]?(\d+)\b`)
	doiPattern  = regexp.MustCompile(`10\.\d{4,9}/[^\s:,;)]+`)

	// gluedPMID locates a PMID citation absorbed into a DOI capture: the
	// literal token followed by digits, or dangling at the end. A bare
	// "PMID" mid-suffix is part of the DOI.
	gluedPMID = regexp.MustCompile(`PMID(:?\d|$)`)
)

// Entry is one raw citation string plus its parse result. Exactly one of
// {DOI and/or PMID set} or {Title set} holds; a blank input yields an
// entry whose Title is the empty string.
type Entry struct {
	Raw   string `json:"raw"`
	DOI   string `json:"doi,omitempty"`
	PMID  string `json:"pmid,omitempty"`
	Title string `json:"title,omitempty"`
}

// HasIdentifier reports whether the entry carries a DOI or PMID.
func (e Entry) HasIdentifier() bool {
	return e.DOI != "" || e.PMID != ""
}

// Parse extracts a DOI, a PMID, or a fallback title from one raw citation
// string. When both a DOI and a PMID appear in the text, both are recorded.
// The DOI match stops at whitespace or one of `:,;)`. A PMID citation
// glued onto the DOI (the literal PMID token followed by digits, or
// dangling at the end) is split off; a bare "PMID" mid-suffix stays part
// of the DOI.
func Parse(raw string) Entry {
	entry := Entry{Raw: raw}

	if m := pmidPattern.FindStringSubmatch(raw); m != nil {
		entry.PMID = m[1]
	}
	if d := findDOI(raw); d != "" {
		entry.DOI = d
	}
	if entry.HasIdentifier() {
		return entry
	}

	entry.Title = fallbackTitle(raw)
	return entry
}

// findDOI returns the first canonicalizable DOI in text, or "".
func findDOI(text string) string {
	for _, match := range doiPattern.FindAllString(text, -1) {
		// A PMID citation glued onto the DOI belongs to the next token.
		if loc := gluedPMID.FindStringIndex(match); loc != nil && loc[0] > 0 {
			match = match[:loc[0]]
		}
		match = strings.TrimRight(match, ".,;:)")

		canon, err := doi.Canonicalize(match)
		if err != nil {
			continue
		}
		return canon
	}
	return ""
}

// fallbackTitle takes the substring after the first closing parenthesis
// (typically the author/year marker); without one, the whole trimmed
// string is the title.
func fallbackTitle(raw string) string {
	if i := strings.Index(raw, ")"); i >= 0 {
		return strings.TrimSpace(raw[i+1:])
	}
	return strings.TrimSpace(raw)
}
