// Package datasource fetches the bulletin collection and shares it between views.
package datasource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"cvedash/internal/metrics"
	"cvedash/internal/model"
	"cvedash/internal/telemetry"
)

// ErrUnexpectedStatus is returned when the backend answers with a non-200 status.
var ErrUnexpectedStatus = errors.New("unexpected status from backend")

// Source produces the full record collection.
type Source interface {
	Fetch(ctx context.Context) ([]model.VulnerabilityRecord, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]model.VulnerabilityRecord, error)

func (f SourceFunc) Fetch(ctx context.Context) ([]model.VulnerabilityRecord, error) {
	return f(ctx)
}

// HTTPSource reads the collection from the /fetch_data endpoint.
type HTTPSource struct {
	HTTPClient *http.Client
	URL        string
	Metrics    *metrics.Metrics
}

func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		HTTPClient: &http.Client{Timeout: timeout},
		URL:        url,
	}
}

func (s *HTTPSource) Fetch(ctx context.Context) ([]model.VulnerabilityRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", s.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}

	return decode(resp.Body, s.URL, s.Metrics)
}

// FileSource reads a JSON snapshot of the collection from disk.
type FileSource struct {
	Path    string
	Metrics *metrics.Metrics
}

func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (s *FileSource) Fetch(ctx context.Context) ([]model.VulnerabilityRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()
	return decode(f, s.Path, s.Metrics)
}

func decode(r io.Reader, origin string, m *metrics.Metrics) ([]model.VulnerabilityRecord, error) {
	res, err := model.DecodeRecords(r)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", origin, err)
	}
	if res.Skipped > 0 {
		telemetry.LogInfo("Skipped non-object elements", "origin", origin, "skipped", res.Skipped)
		m.AddSkipped(res.Skipped)
	}
	telemetry.LogDebug("Decoded collection", "origin", origin, "records", len(res.Records))
	return res.Records, nil
}
