package corpus

import (
	"strings"
	"testing"
)

func TestRead(t *testing.T) {
	csv := `id,title
doi:10.1000/a,First
10.1000/B,Second
not-a-doi,Broken
,Empty
`
	c, err := Read(strings.NewReader(csv))
	if err != nil {
		t.Fatal(err)
	}

	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
	if !c.Contains("10.1000/a") {
		t.Error("missing 10.1000/a (doi: prefix should be stripped)")
	}
	if !c.Contains("10.1000/b") {
		t.Error("missing 10.1000/b (case should be folded)")
	}
	if c.Contains("10.1000/z") {
		t.Error("contains 10.1000/z unexpectedly")
	}
	if c.Skipped() != 2 {
		t.Errorf("Skipped() = %d, want 2", c.Skipped())
	}
}

func TestReadNoIDColumn(t *testing.T) {
	if _, err := Read(strings.NewReader("journal,title\nx,y\n")); err == nil {
		t.Error("expected error for missing id column")
	}
}

func TestContainsAcceptsAnyForm(t *testing.T) {
	c := FromIDs("10.1000/a")
	for _, form := range []string{"DOI:10.1000/A", "https://doi.org/10.1000/a", "10.1000/a"} {
		if !c.Contains(form) {
			t.Errorf("Contains(%q) = false, want true", form)
		}
	}
	if c.Contains("garbage") {
		t.Error("Contains(garbage) = true")
	}
}
