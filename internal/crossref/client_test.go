package crossref

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const workPayload = `{
	"message": {
		"DOI": "10.1000/abc",
		"title": ["A Title"],
		"publisher": "Pub House",
		"issue": "2",
		"volume": "7",
		"page": "10-20",
		"type": "journal-article",
		"created": {"date-time": "2020-03-01T00:00:00Z"},
		"container-title": ["Journal of Tests"],
		"author": [
			{"given": "Jane", "family": "Roe"},
			{"given": "John", "family": "Doe"}
		],
		"reference": [
			{"unstructured": "Smith J (2020) PMID:12345 10.1000/xyz123"},
			{"author": "Brown L", "year": "2018", "article-title": "Structured only", "DOI": "10.1000/q"},
			{"DOI": "10.1000/bare"}
		]
	}
}`

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	c := NewClient(
		WithBaseURL(srv.URL+"/works/"),
		WithSpacing(time.Microsecond),
		WithHTTPClient(srv.Client()),
	)
	return c, srv
}

func TestWork(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, workPayload)
	})
	defer srv.Close()

	rec, refs, err := c.Work(context.Background(), "DOI:10.1000/ABC")
	if err != nil {
		t.Fatal(err)
	}

	if rec.DOI != "10.1000/abc" {
		t.Errorf("DOI = %q, want canonical form", rec.DOI)
	}
	if rec.Title != "A Title" || rec.Venue != "Journal of Tests" || rec.Publisher != "Pub House" {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.Created != "2020-03-01T00:00:00Z" {
		t.Errorf("Created = %q", rec.Created)
	}
	if len(rec.Authors) != 2 || rec.Authors[0] != "Jane Roe" {
		t.Errorf("Authors = %v", rec.Authors)
	}

	want := []string{
		"Smith J (2020) PMID:12345 10.1000/xyz123",
		"Brown L (2018) Structured only 10.1000/q",
		"10.1000/bare",
	}
	if len(refs) != len(want) {
		t.Fatalf("got %d references, want %d", len(refs), len(want))
	}
	for i := range want {
		if refs[i] != want[i] {
			t.Errorf("refs[%d] = %q, want %q", i, refs[i], want[i])
		}
	}
}

func TestWorkAbsentFieldsAreEmpty(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"message": {"DOI": "10.1000/abc"}}`)
	})
	defer srv.Close()

	rec, refs, err := c.Work(context.Background(), "10.1000/abc")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Title != "" || rec.Publisher != "" || len(rec.Authors) != 0 {
		t.Errorf("absent fields not empty: %+v", rec)
	}
	if len(refs) != 0 {
		t.Errorf("refs = %v, want empty", refs)
	}
}

func TestWorkNotFound(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	defer srv.Close()

	_, _, err := c.Work(context.Background(), "10.1000/missing")
	if !IsNotFound(err) {
		t.Errorf("IsNotFound(%v) = false", err)
	}
}

func TestWorkMalformedDOI(t *testing.T) {
	c := NewClient()
	if _, _, err := c.Work(context.Background(), "garbage"); err == nil {
		t.Error("expected error for malformed DOI")
	}
}

func TestWorkRetriesOn429(t *testing.T) {
	oldDelay := retryBaseDelay
	retryBaseDelay = time.Millisecond
	defer func() { retryBaseDelay = oldDelay }()

	var calls int
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		io.WriteString(w, workPayload)
	})
	defer srv.Close()

	rec, _, err := c.Work(context.Background(), "10.1000/abc")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Title != "A Title" {
		t.Errorf("Title = %q after retries", rec.Title)
	}
	if calls != 3 {
		t.Errorf("server saw %d calls, want 3", calls)
	}
}

func TestWorkRetriesExhausted(t *testing.T) {
	oldDelay := retryBaseDelay
	retryBaseDelay = time.Millisecond
	defer func() { retryBaseDelay = oldDelay }()

	var calls int
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
	})
	defer srv.Close()

	_, _, err := c.Work(context.Background(), "10.1000/abc")
	if err == nil || !strings.Contains(err.Error(), "rate limit") {
		t.Errorf("error = %v, want rate limit error", err)
	}
	if calls != maxRetries+1 {
		t.Errorf("server saw %d calls, want %d", calls, maxRetries+1)
	}
}

func TestWorkMailtoParam(t *testing.T) {
	var gotURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.String()
		io.WriteString(w, `{"message": {"DOI": "10.1000/abc"}}`)
	}))
	defer srv.Close()

	c := NewClient(
		WithBaseURL(srv.URL+"/works/"),
		WithSpacing(time.Microsecond),
		WithMailto("ops@example.org"),
	)
	if _, _, err := c.Work(context.Background(), "10.1000/abc"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(gotURL, "mailto=ops%40example.org") {
		t.Errorf("request URL %q missing mailto param", gotURL)
	}
}
