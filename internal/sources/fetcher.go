package sources

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/time/rate"

	"covidcli/internal/config"
	"covidcli/internal/dataset"
	apperrors "covidcli/internal/errors"
)

// Fetcher downloads raw source CSVs to the raw data directory. Extraction
// failures are fatal to the pipeline, so every error here is surfaced.
type Fetcher struct {
	client  *http.Client
	limiter *rate.Limiter
	rawDir  string
	logger  *slog.Logger
}

// NewFetcher creates a fetcher with the configured timeout. Downloads are
// rate limited to one request per second to stay polite with the upstream
// mirrors.
func NewFetcher(cfg config.SourcesConfig, rawDir string, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		client:  &http.Client{Timeout: cfg.FetchTimeout},
		limiter: rate.NewLimiter(rate.Limit(1), 1),
		rawDir:  rawDir,
		logger:  logger,
	}
}

// FetchAll downloads every descriptor's CSV in order. The first failure
// aborts: a missing source invalidates the whole analysis.
func (f *Fetcher) FetchAll(ctx context.Context, descriptors []Descriptor) error {
	for _, d := range descriptors {
		if _, err := f.Fetch(ctx, d); err != nil {
			return fmt.Errorf("fetch %s: %w", d.Name, err)
		}
	}
	return nil
}

// Fetch downloads one source CSV and writes it under the raw data directory.
// It returns the path of the written file.
func (f *Fetcher) Fetch(ctx context.Context, d Descriptor) (string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return "", err
	}

	f.logger.InfoContext(ctx, "downloading source data",
		slog.String("source", d.Name),
		slog.String("url", d.URL),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.URL, nil)
	if err != nil {
		return "", apperrors.NewNetworkError("build request", err).WithContext("source", d.Name)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", apperrors.NewNetworkError("download source CSV", err).WithContext("source", d.Name)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apperrors.NewNetworkError(
			fmt.Sprintf("unexpected status %d from %s", resp.StatusCode, d.Name), nil,
		).WithContext("url", d.URL)
	}

	if err := os.MkdirAll(f.rawDir, 0755); err != nil {
		return "", apperrors.NewStorageError("create raw data directory", err)
	}

	path := filepath.Join(f.rawDir, d.Filename)
	file, err := os.Create(path)
	if err != nil {
		return "", apperrors.NewStorageError("create raw CSV file", err)
	}
	defer file.Close()

	written, err := io.Copy(file, resp.Body)
	if err != nil {
		return "", apperrors.NewStorageError("write raw CSV file", err)
	}

	f.logger.InfoContext(ctx, "source data saved",
		slog.String("source", d.Name),
		slog.String("path", path),
		slog.Int64("bytes", written),
	)

	return path, nil
}

// Load decodes a previously fetched source CSV into observations for the
// given country spelling.
func Load(rawDir string, d Descriptor, country string) ([]dataset.Observation, error) {
	path := filepath.Join(rawDir, d.Filename)
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFoundError("raw source CSV not found, run the fetcher first", err).
				WithContext("path", path)
		}
		return nil, apperrors.NewStorageError("open raw CSV file", err)
	}
	defer file.Close()

	return d.Schema.Decode(file, country)
}
