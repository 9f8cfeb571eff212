package main

import (
	"bufio"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/dimarzo/citegraph/internal/config"
	"github.com/dimarzo/citegraph/internal/crossref"
	"github.com/dimarzo/citegraph/internal/opencitations"
	"github.com/dimarzo/citegraph/internal/pipeline"
)

// loadConfig reads the --config file, falling back to defaults. Exits
// with ExitConfigError on an unreadable or invalid file.
func loadConfig() *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(ExitConfigError)
	}
	return cfg
}

// newOpenCitationsClient builds the index/Meta client from configuration.
func newOpenCitationsClient(cfg *config.Config) *opencitations.Client {
	opts := []opencitations.ClientOption{
		opencitations.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		opencitations.WithSpacing(cfg.Spacing.SPARQL),
		opencitations.WithMetaSpacing(cfg.Spacing.Meta),
	}
	if cfg.Endpoints.SPARQL != "" {
		opts = append(opts, opencitations.WithEndpoint(cfg.Endpoints.SPARQL))
	}
	if cfg.Endpoints.Meta != "" {
		opts = append(opts, opencitations.WithMetaEndpoint(cfg.Endpoints.Meta))
	}
	return opencitations.NewClient(opts...)
}

// newCrossrefClient builds the works-API client from configuration.
func newCrossrefClient(cfg *config.Config) *crossref.Client {
	opts := []crossref.ClientOption{
		crossref.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		crossref.WithSpacing(cfg.Spacing.Crossref),
	}
	if cfg.Endpoints.Crossref != "" {
		opts = append(opts, crossref.WithBaseURL(cfg.Endpoints.Crossref))
	}
	if cfg.Mailto != "" {
		opts = append(opts, crossref.WithMailto(cfg.Mailto))
	}
	return crossref.NewClient(opts...)
}

// newRunner builds a pipeline runner from configuration. Flags override
// the file's workers and artifacts directory when set.
func newRunner(cfg *config.Config, workers int, artifacts string) *pipeline.Runner {
	if workers <= 0 {
		workers = cfg.Workers
	}
	if artifacts == "" {
		artifacts = cfg.ArtifactsDir
	}

	return &pipeline.Runner{
		Relations:    newOpenCitationsClient(cfg),
		Metadata:     newCrossrefClient(cfg),
		Workers:      workers,
		ArtifactsDir: artifacts,
	}
}

// readSeeds loads seed identifiers/URLs from a file, one per line.
// Blank lines and #-comments are ignored.
func readSeeds(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening seeds file: %w", err)
	}
	defer f.Close()

	var seeds []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		seeds = append(seeds, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading seeds file: %w", err)
	}
	if len(seeds) == 0 {
		return nil, fmt.Errorf("seeds file %s is empty", path)
	}
	return seeds, nil
}
