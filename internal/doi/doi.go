// Package doi canonicalizes DOI strings into one comparable form.
package doi

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrMalformed indicates a string that does not have the DOI shape after
// canonicalization. Callers treat it as "not an identifier" and skip the
// item rather than aborting a batch.
var ErrMalformed = errors.New("malformed DOI")

// shapePattern matches a bare DOI: 10.<4-9 digit registrant>/<suffix>.
var shapePattern = regexp.MustCompile(`^10\.\d{4,9}/\S+$`)

// resolverPrefixes are stripped, longest first, before validation.
var resolverPrefixes = []string{
	"https://dx.doi.org/",
	"http://dx.doi.org/",
	"https://doi.org/",
	"http://doi.org/",
	"dx.doi.org/",
	"doi.org/",
}

// Canonicalize normalizes a raw identifier string into the canonical DOI
// form: resolver host and doi: prefix stripped, surrounding whitespace and
// quotes trimmed, lowercased. Two identifiers are equal iff their canonical
// forms are equal, and Canonicalize is idempotent.
func Canonicalize(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, `"'`)
	s = strings.TrimSpace(s)

	lower := strings.ToLower(s)
	for _, prefix := range resolverPrefixes {
		if strings.HasPrefix(lower, prefix) {
			s = s[len(prefix):]
			lower = lower[len(prefix):]
			break
		}
	}
	if strings.HasPrefix(lower, "doi:") {
		s = s[len("doi:"):]
	}

	s = strings.ToLower(strings.TrimSpace(s))
	if !shapePattern.MatchString(s) {
		return "", fmt.Errorf("%w: %q", ErrMalformed, raw)
	}
	return s, nil
}

// IsValid reports whether raw canonicalizes to a well-formed DOI.
func IsValid(raw string) bool {
	_, err := Canonicalize(raw)
	return err == nil
}
