// Package source fetches the published outage page and extracts the day
// tables of one queue.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kilianp07/svitlo/core/schedule"
	"github.com/kilianp07/svitlo/infra/logger"
)

const (
	DefaultBaseURL   = "https://svitlo.live"
	DefaultTimeout   = 20 * time.Second
	DefaultUserAgent = "Mozilla/5.0 (compatible; svitlo)"
)

// ErrFetch reports a network failure or a non-200 answer.
var ErrFetch = errors.New("schedule fetch failed")

// Config selects the page and queue to read.
type Config struct {
	BaseURL        string `json:"base_url"`
	Region         string `json:"region"`
	Queue          string `json:"queue"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	UserAgent      string `json:"user_agent"`
}

// Fetcher downloads and tokenizes the schedule page.
type Fetcher struct {
	client    *http.Client
	url       string
	queue     string
	userAgent string
	loc       *time.Location
	log       logger.Logger
}

// NewFetcher creates a fetcher for cfg. loc is the zone the page's
// last-modified stamp is expressed in.
func NewFetcher(cfg Config, loc *time.Location) *Fetcher {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if loc == nil {
		loc = time.Local
	}
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		url:       strings.TrimSuffix(cfg.BaseURL, "/") + "/" + cfg.Region,
		queue:     cfg.Queue,
		userAgent: cfg.UserAgent,
		loc:       loc,
		log:       logger.New("source"),
	}
}

// URL is the page address reported as the status source.
func (f *Fetcher) URL() string { return f.url }

// Fetch downloads the page and extracts the queue's tables.
func (f *Fetcher) Fetch(ctx context.Context) (schedule.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return schedule.Document{}, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	resp, err := f.client.Do(req)
	if err != nil {
		return schedule.Document{}, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return schedule.Document{}, fmt.Errorf("%w: HTTP %d for %s", ErrFetch, resp.StatusCode, f.url)
	}
	doc, err := Extract(resp.Body, f.queue, f.loc)
	if err != nil {
		return schedule.Document{}, err
	}
	f.log.Debugw("schedule fetched", map[string]any{"url": f.url, "tables": len(doc.Tables)})
	return doc, nil
}
