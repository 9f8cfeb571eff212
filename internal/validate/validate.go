// Package validate cross-checks a DOI's metadata between two independent
// sources. The agreement heuristic is a pluggable policy, not a verdict:
// callers decide what to do with a failed check.
package validate

import (
	"context"
	"strings"

	"github.com/dimarzo/citegraph/internal/record"
)

// Checks holds the field-level comparison results for one DOI.
type Checks struct {
	Title     bool
	Author    bool
	Publisher bool
}

// Policy decides, from the field-level checks, whether two records describe
// the same work.
type Policy func(Checks) bool

// DefaultPolicy accepts when the titles agree, or when both the author and
// publisher checks agree.
func DefaultPolicy(c Checks) bool {
	return c.Title || (c.Author && c.Publisher)
}

// Compare computes the field-level checks between a local and a remote
// record. Titles and publishers compare case-insensitively; the author
// check passes when the local author string appears within the remote
// author join, and vacuously when the local side has no authors.
func Compare(local, remote record.Record) Checks {
	localAuthors := strings.ToLower(strings.Join(local.Authors, ", "))
	remoteAuthors := strings.ToLower(strings.Join(remote.Authors, ", "))

	return Checks{
		Title:     equalFold(local.Title, remote.Title),
		Author:    localAuthors == "" || strings.Contains(remoteAuthors, localAuthors),
		Publisher: equalFold(local.Publisher, remote.Publisher),
	}
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// MetadataSource looks up a bibliographic record by DOI.
type MetadataSource interface {
	Metadata(ctx context.Context, id string) (record.Record, error)
}

// Outcome is the validation result for one DOI.
type Outcome struct {
	DOI    string `json:"doi"`
	Valid  bool   `json:"valid"`
	Checks Checks `json:"checks"`

	// Err is set when either source failed for this DOI; the item is a
	// skip, not a batch failure.
	Err error `json:"-"`
}

// Validator fetches both sides of the cross-check and applies a policy.
type Validator struct {
	Local  MetadataSource
	Remote MetadataSource
	Policy Policy
}

// ValidateAll cross-checks each DOI, isolating per-item failures.
func (v *Validator) ValidateAll(ctx context.Context, ids []string) []Outcome {
	policy := v.Policy
	if policy == nil {
		policy = DefaultPolicy
	}

	outcomes := make([]Outcome, 0, len(ids))
	for _, id := range ids {
		local, err := v.Local.Metadata(ctx, id)
		if err != nil {
			outcomes = append(outcomes, Outcome{DOI: id, Err: err})
			continue
		}
		remote, err := v.Remote.Metadata(ctx, id)
		if err != nil {
			outcomes = append(outcomes, Outcome{DOI: id, Err: err})
			continue
		}

		checks := Compare(local, remote)
		outcomes = append(outcomes, Outcome{DOI: id, Valid: policy(checks), Checks: checks})
	}
	return outcomes
}
