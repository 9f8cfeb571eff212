// Package crossref fetches bibliographic metadata and raw reference lists
// from the Crossref works API.
package crossref

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
	// WorksEndpoint is the Crossref works API base URL.
	WorksEndpoint = "https://api.crossref.org/works/"

	// DefaultTimeout bounds each request round trip.
	DefaultTimeout = 10 * time.Second

	// DefaultSpacing is the minimum interval between requests to the host.
	DefaultSpacing = 100 * time.Millisecond

	// maxRetries bounds the backoff loop on HTTP 429.
	maxRetries = 3
)

// retryBaseDelay is the base duration for exponential backoff on HTTP 429.
// Tests override this to avoid real sleeps.
var retryBaseDelay = time.Second

// Client is a rate-limited HTTP client for the Crossref works API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	mailto     string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom works API base URL (for testing).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithMailto sets the contact address sent with each request; Crossref
// routes such traffic to its polite pool.
func WithMailto(addr string) ClientOption {
	return func(c *Client) {
		c.mailto = addr
	}
}

// WithSpacing sets the minimum inter-request spacing.
func WithSpacing(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.limiter = rate.NewLimiter(rate.Every(d), 1)
		}
	}
}

// NewClient creates a Crossref client with default endpoint, timeout, and
// spacing.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Every(DefaultSpacing), 1),
		baseURL:    WorksEndpoint,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// worksResponse mirrors the subset of the works API payload we consume.
type worksResponse struct {
	Message struct {
		DOI       string   `json:"DOI"`
		Title     []string `json:"title"`
		Publisher string   `json:"publisher"`
		Issue     string   `json:"issue"`
		Volume    string   `json:"volume"`
		Page      string   `json:"page"`
		Type      string   `json:"type"`
		Created   struct {
			DateTime string `json:"date-time"`
		} `json:"created"`
		ContainerTitle []string `json:"container-title"`
		Author         []struct {
			Given  string `json:"given"`
			Family string `json:"family"`
		} `json:"author"`
		Editor []struct {
			Given  string `json:"given"`
			Family string `json:"family"`
		} `json:"editor"`
		Reference []struct {
			DOI          string `json:"DOI"`
			Unstructured string `json:"unstructured"`
			ArticleTitle string `json:"article-title"`
			Author       string `json:"author"`
			Year         string `json:"year"`
		} `json:"reference"`
	} `json:"message"`
}

// Work fetches the record and the raw reference strings for a DOI. Absent
// fields come back as empty strings and empty slices. The reference list
// preserves source order; each entry is the unstructured citation text when
// present, otherwise assembled from the structured fields, otherwise the
// bare referenced DOI.
func (c *Client) Work(ctx context.Context, id string) (record.Record, []string, error) {
	canon, err := doi.Canonicalize(id)
	if err != nil {
		return record.Record{}, nil, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return record.Record{}, nil, fmt.Errorf("rate limiter: %w", err)
	}

	reqURL := c.baseURL + url.PathEscape(canon)
	if c.mailto != "" {
		reqURL += "?mailto=" + url.QueryEscape(c.mailto)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return record.Record{}, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.mailto != "" {
		req.Header.Set("User-Agent", "citegraph (mailto:"+c.mailto+")")
	}

	resp, err := c.doWithRetry(ctx, req)
	if err != nil {
		return record.Record{}, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return record.Record{}, nil, fmt.Errorf("%w: %s", ErrNotFound, canon)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return record.Record{}, nil, fmt.Errorf("%w: %s", ErrRateLimited, canon)
	}
	if resp.StatusCode != http.StatusOK {
		return record.Record{}, nil, &APIError{StatusCode: resp.StatusCode, DOI: canon}
	}

	var parsed worksResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return record.Record{}, nil, fmt.Errorf("%w: parsing work: %v", ErrInvalidResponse, err)
	}

	return toRecord(canon, parsed), rawReferences(parsed), nil
}

// doWithRetry executes the request, retrying on HTTP 429 with bounded
// exponential backoff. The delay doubles each attempt and waits are
// context-cancellable. Any other outcome returns immediately.
func (c *Client) doWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		resp, err := c.httpClient.Do(req.Clone(ctx))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
		}
		if resp.StatusCode != http.StatusTooManyRequests || attempt >= maxRetries {
			return resp, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		backoff := retryBaseDelay << attempt
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}

func toRecord(canon string, w worksResponse) record.Record {
	m := w.Message
	rec := record.Record{
		DOI:       canon,
		Publisher: m.Publisher,
		Issue:     m.Issue,
		Volume:    m.Volume,
		Page:      m.Page,
		Type:      m.Type,
		Created:   m.Created.DateTime,
	}
	if len(m.Title) > 0 {
		rec.Title = m.Title[0]
	}
	if len(m.ContainerTitle) > 0 {
		rec.Venue = m.ContainerTitle[0]
	}
	for _, a := range m.Author {
		if name := strings.TrimSpace(a.Given + " " + a.Family); name != "" {
			rec.Authors = append(rec.Authors, name)
		}
	}
	var editors []string
	for _, e := range m.Editor {
		if name := strings.TrimSpace(e.Given + " " + e.Family); name != "" {
			editors = append(editors, name)
		}
	}
	rec.Editor = strings.Join(editors, "; ")
	rec.References = rawReferences(w)
	return rec
}

func rawReferences(w worksResponse) []string {
	refs := make([]string, 0, len(w.Message.Reference))
	for _, r := range w.Message.Reference {
		switch {
		case r.Unstructured != "":
			refs = append(refs, r.Unstructured)
		case r.ArticleTitle != "" || r.Author != "" || r.Year != "":
			parts := make([]string, 0, 3)
			if r.Author != "" {
				parts = append(parts, r.Author)
			}
			if r.Year != "" {
				parts = append(parts, "("+r.Year+")")
			}
			if r.ArticleTitle != "" {
				parts = append(parts, r.ArticleTitle)
			}
			if r.DOI != "" {
				parts = append(parts, r.DOI)
			}
			refs = append(refs, strings.Join(parts, " "))
		case r.DOI != "":
			refs = append(refs, r.DOI)
		}
	}
	return refs
}
