// Package opencitations queries the OpenCitations Index SPARQL endpoint for
// citation relations and the OpenCitations Meta API for per-identifier
// metadata.
package opencitations

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/dimarzo/citegraph/internal/doi"
	"github.com/dimarzo/citegraph/internal/record"
)

const (
	// SPARQLEndpoint is the OpenCitations Index SPARQL endpoint.
	SPARQLEndpoint = "https://opencitations.net/index/sparql"

	// MetaEndpoint is the OpenCitations Meta metadata API base URL.
	MetaEndpoint = "https://opencitations.net/meta/api/v1/metadata/doi:"

	// DefaultTimeout bounds each request round trip.
	DefaultTimeout = 10 * time.Second

	// DefaultSpacing is the minimum interval between requests to the host.
	DefaultSpacing = time.Second
)

// Direction selects which side of the citation relation to fetch for a seed.
type Direction int

const (
	// Citing fetches entities that cite the seed.
	Citing Direction = iota
	// Cited fetches entities that the seed cites.
	Cited
)

// String returns the direction name used in logs and artifacts.
func (d Direction) String() string {
	if d == Citing {
		return "citing"
	}
	return "cited"
}

// Relation is one (citation, other entity) row returned by the index.
type Relation struct {
	CitationURI string `json:"citation"`
	OtherEntity string `json:"other_entity"`
}

// Client is a rate-limited HTTP client for the OpenCitations endpoints.
// The index and the Meta API are throttled independently.
type Client struct {
	httpClient  *http.Client
	limiter     *rate.Limiter
	metaLimiter *rate.Limiter
	sparqlURL   string
	metaURL     string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithEndpoint sets a custom SPARQL endpoint (for testing).
func WithEndpoint(u string) ClientOption {
	return func(c *Client) {
		c.sparqlURL = u
	}
}

// WithMetaEndpoint sets a custom Meta API base URL (for testing).
func WithMetaEndpoint(u string) ClientOption {
	return func(c *Client) {
		c.metaURL = u
	}
}

// WithSpacing sets the minimum inter-request spacing for the SPARQL
// endpoint.
func WithSpacing(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.limiter = rate.NewLimiter(rate.Every(d), 1)
		}
	}
}

// WithMetaSpacing sets the minimum inter-request spacing for the Meta API.
func WithMetaSpacing(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.metaLimiter = rate.NewLimiter(rate.Every(d), 1)
		}
	}
}

// NewClient creates an OpenCitations client with default endpoints,
// timeout, and spacing.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: DefaultTimeout},
		limiter:     rate.NewLimiter(rate.Every(DefaultSpacing), 1),
		metaLimiter: rate.NewLimiter(rate.Every(DefaultSpacing), 1),
		sparqlURL:   SPARQLEndpoint,
		metaURL:     MetaEndpoint,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EntityURI converts a seed into the URI placed in the graph pattern.
// Absolute URLs pass through unchanged; anything else must be a DOI and is
// expanded to its resolver URL.
func EntityURI(seed string) (string, error) {
	if strings.HasPrefix(seed, "http://") || strings.HasPrefix(seed, "https://") {
		return seed, nil
	}
	canon, err := doi.Canonicalize(seed)
	if err != nil {
		return "", err
	}
	return "https://doi.org/" + canon, nil
}

const (
	citingQuery = `PREFIX cito:<http://purl.org/spar/cito/>
SELECT ?citation ?other_entity WHERE {
  ?citation a cito:Citation .
  ?citation cito:hasCitingEntity ?other_entity .
  ?citation cito:hasCitedEntity <%s>
}`

	citedQuery = `PREFIX cito:<http://purl.org/spar/cito/>
SELECT ?citation ?other_entity WHERE {
  ?citation a cito:Citation .
  ?citation cito:hasCitedEntity ?other_entity .
  ?citation cito:hasCitingEntity <%s>
}`
)

// sparqlResponse is the SPARQL 1.1 JSON results envelope, reduced to the
// two variables our queries bind.
type sparqlResponse struct {
	Results struct {
		Bindings []map[string]struct {
			Value string `json:"value"`
		} `json:"bindings"`
	} `json:"results"`
}

// Citations queries the index for relations of the seed in the given
// direction. One call is one network round trip; the caller treats any
// error as a skipped item.
func (c *Client) Citations(ctx context.Context, seed string, dir Direction) ([]Relation, error) {
	entity, err := EntityURI(seed)
	if err != nil {
		return nil, err
	}

	tmpl := citingQuery
	if dir == Cited {
		tmpl = citedQuery
	}
	query := fmt.Sprintf(tmpl, entity)

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.sparqlURL, strings.NewReader(query))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/sparql-query")
	req.Header.Set("Accept", "application/sparql-results+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Endpoint: "index", Identifier: seed}
	}

	var parsed sparqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: parsing SPARQL results: %v", ErrInvalidResponse, err)
	}

	relations := make([]Relation, 0, len(parsed.Results.Bindings))
	for _, binding := range parsed.Results.Bindings {
		relations = append(relations, Relation{
			CitationURI: binding["citation"].Value,
			OtherEntity: binding["other_entity"].Value,
		})
	}
	return relations, nil
}

// Metadata looks up a DOI in the OpenCitations Meta API. Absent fields are
// empty strings; an empty result set maps to ErrNotFound.
func (c *Client) Metadata(ctx context.Context, id string) (record.Record, error) {
	canon, err := doi.Canonicalize(id)
	if err != nil {
		return record.Record{}, err
	}

	if err := c.metaLimiter.Wait(ctx); err != nil {
		return record.Record{}, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.metaURL+url.PathEscape(canon), nil)
	if err != nil {
		return record.Record{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return record.Record{}, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return record.Record{}, fmt.Errorf("%w: %s", ErrNotFound, canon)
	}
	if resp.StatusCode != http.StatusOK {
		return record.Record{}, &APIError{StatusCode: resp.StatusCode, Endpoint: "meta", Identifier: canon}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return record.Record{}, fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	var entries []metaEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return record.Record{}, fmt.Errorf("%w: parsing metadata: %v", ErrInvalidResponse, err)
	}
	if len(entries) == 0 {
		return record.Record{}, fmt.Errorf("%w: %s", ErrNotFound, canon)
	}

	return entries[0].toRecord(canon), nil
}

// metaEntry mirrors one element of the Meta API response array.
type metaEntry struct {
	Title     string `json:"title"`
	Author    string `json:"author"`
	PubDate   string `json:"pub_date"`
	Venue     string `json:"venue"`
	Volume    string `json:"volume"`
	Issue     string `json:"issue"`
	Page      string `json:"page"`
	Type      string `json:"type"`
	Publisher string `json:"publisher"`
	Editor    string `json:"editor"`
}

func (m metaEntry) toRecord(canon string) record.Record {
	rec := record.Record{
		DOI:       canon,
		Title:     m.Title,
		Publisher: m.Publisher,
		Issue:     m.Issue,
		Volume:    m.Volume,
		Page:      m.Page,
		Type:      m.Type,
		Editor:    m.Editor,
		Venue:     m.Venue,
		Created:   m.PubDate,
	}
	for _, a := range strings.Split(m.Author, ";") {
		if a = strings.TrimSpace(a); a != "" {
			rec.Authors = append(rec.Authors, a)
		}
	}
	return rec
}
