package refparse

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantDOI   string
		wantPMID  string
		wantTitle string
	}{
		{
			name:     "pmid and doi both present",
			raw:      "Smith J (2020) PMID:12345 10.1000/xyz123",
			wantPMID: "12345",
			wantDOI:  "10.1000/xyz123",
		},
		{
			name:    "doi only",
			raw:     "Jones K (2019) Some title. 10.1186/1756-8722-6-59",
			wantDOI: "10.1186/1756-8722-6-59",
		},
		{
			name:     "pmid only",
			raw:      "Brown L (2018) Another title. PMID: 99887",
			wantPMID: "99887",
		},
		{
			name:    "pmid glued to doi is split off",
			raw:     "Lee M (2017) 10.1000/abcPMID:4242",
			wantDOI: "10.1000/abc",
		},
		{
			name:    "mid-suffix pmid letters stay in the doi",
			raw:     "Lee M (2017) 10.1000/abPMIDcd more text",
			wantDOI: "10.1000/abpmidcd",
		},
		{
			name:    "dangling pmid token is split off",
			raw:     "Lee M (2017) 10.1000/abPMID",
			wantDOI: "10.1000/ab",
		},
		{
			name:    "doi with trailing period",
			raw:     "White P (2016) Results. 10.1000/abc.",
			wantDOI: "10.1000/abc",
		},
		{
			name:    "doi uppercased in source",
			raw:     "Green A (2015) 10.1000/ABC",
			wantDOI: "10.1000/abc",
		},
		{
			name:      "title after author year marker",
			raw:       "Black D (2014) The shape of citation graphs",
			wantTitle: "The shape of citation graphs",
		},
		{
			name:      "no parenthesis falls back to whole string",
			raw:       "An untitled technical report",
			wantTitle: "An untitled technical report",
		},
		{
			name:      "empty input",
			raw:       "",
			wantTitle: "",
		},
		{
			name:      "whitespace only",
			raw:       "   ",
			wantTitle: "",
		},
		{
			name:      "malformed doi candidate falls back to title",
			raw:       "Gray E (2013) see 10.12/x for details",
			wantTitle: "see 10.12/x for details",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.raw)
			if got.Raw != tt.raw {
				t.Errorf("Raw = %q, want %q", got.Raw, tt.raw)
			}
			if got.DOI != tt.wantDOI {
				t.Errorf("DOI = %q, want %q", got.DOI, tt.wantDOI)
			}
			if got.PMID != tt.wantPMID {
				t.Errorf("PMID = %q, want %q", got.PMID, tt.wantPMID)
			}
			if got.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", got.Title, tt.wantTitle)
			}
			if got.HasIdentifier() && got.Title != "" {
				t.Error("entry has both identifier and title")
			}
		})
	}
}

func TestParseExactlyOneOutcome(t *testing.T) {
	// Any string yields either identifiers or a title, never both, never a panic.
	inputs := []string{
		"",
		")",
		"(((",
		"PMID:",
		"10.",
		"PMID:1 10.1000/a PMID:2",
		"\t\n",
	}
	for _, raw := range inputs {
		e := Parse(raw)
		if e.HasIdentifier() && e.Title != "" {
			t.Errorf("Parse(%q): both identifier and title set", raw)
		}
	}
}
