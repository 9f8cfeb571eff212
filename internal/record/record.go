// Package record defines the bibliographic record type shared across the
// pipeline.
package record

// Record holds the bibliographic metadata gathered for one identifier.
// Fields that a source does not supply are empty strings or empty slices,
// never nulls; a partial record is valid and is completed by later fetches
// through Merge.
type Record struct {
	DOI       string   `json:"doi"`
	Title     string   `json:"title"`
	Publisher string   `json:"publisher"`
	Issue     string   `json:"issue"`
	Volume    string   `json:"volume"`
	Page      string   `json:"page"`
	Type      string   `json:"type"`
	Editor    string   `json:"editor"`
	Venue     string   `json:"venue"`
	Authors   []string `json:"authors"`
	Created   string   `json:"created"` // RFC 3339 creation timestamp from the source

	// References holds the raw citation strings attached to this record,
	// in source order.
	References []string `json:"references,omitempty"`
}

// Merge copies non-empty fields of src into empty fields of dst. An empty
// incoming field never clobbers existing data, so repeated partial fetches
// only ever add information.
func Merge(dst *Record, src Record) {
	mergeString(&dst.DOI, src.DOI)
	mergeString(&dst.Title, src.Title)
	mergeString(&dst.Publisher, src.Publisher)
	mergeString(&dst.Issue, src.Issue)
	mergeString(&dst.Volume, src.Volume)
	mergeString(&dst.Page, src.Page)
	mergeString(&dst.Type, src.Type)
	mergeString(&dst.Editor, src.Editor)
	mergeString(&dst.Venue, src.Venue)
	mergeString(&dst.Created, src.Created)
	if len(dst.Authors) == 0 && len(src.Authors) > 0 {
		dst.Authors = append([]string(nil), src.Authors...)
	}
	if len(dst.References) == 0 && len(src.References) > 0 {
		dst.References = append([]string(nil), src.References...)
	}
}

func mergeString(dst *string, src string) {
	if *dst == "" && src != "" {
		*dst = src
	}
}
