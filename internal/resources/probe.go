// Package resources verifies candidate resource links and extracts page
// metadata for them.
package resources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const (
	probeTimeout = 10 * time.Second
	userAgent    = "roadmap-agent/1.0"
)

// PageInfo is the metadata extracted from a probed page.
type PageInfo struct {
	Title        string
	Description  string
	ThumbnailURL string
}

// Prober fetches candidate URLs to confirm they resolve and to pull page
// titles and thumbnails.
type Prober struct {
	client *http.Client
	logger *zap.Logger
}

// NewProber creates a prober with a bounded-timeout HTTP client.
func NewProber(logger *zap.Logger) *Prober {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Prober{
		client: &http.Client{Timeout: probeTimeout},
		logger: logger.Named("prober"),
	}
}

// NewProberWithClient creates a prober using the given HTTP client. Used by
// tests to point at a local server.
func NewProberWithClient(client *http.Client, logger *zap.Logger) *Prober {
	p := NewProber(logger)
	if client != nil {
		p.client = client
	}
	return p
}

// Probe fetches rawURL and returns its page metadata. A non-2xx/3xx status,
// unsupported scheme, or transport failure is an error; the caller treats
// probe errors as "drop this link".
func (p *Prober) Probe(ctx context.Context, rawURL string) (PageInfo, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return PageInfo{}, fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return PageInfo{}, fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return PageInfo{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return PageInfo{}, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return PageInfo{}, fmt.Errorf("fetch %s returned status %d", rawURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		// The link resolves even if we can't parse the body.
		p.logger.Debug("failed to parse page", zap.String("url", rawURL), zap.Error(err))
		return PageInfo{}, nil
	}

	return extractPageInfo(doc), nil
}

// extractPageInfo pulls title, description and thumbnail from a parsed page,
// preferring OpenGraph tags over plain HTML ones.
func extractPageInfo(doc *goquery.Document) PageInfo {
	info := PageInfo{}

	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		info.Title = strings.TrimSpace(og)
	}
	if info.Title == "" {
		info.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	if og, ok := doc.Find(`meta[property="og:description"]`).Attr("content"); ok {
		info.Description = strings.TrimSpace(og)
	} else if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		info.Description = strings.TrimSpace(desc)
	}

	if og, ok := doc.Find(`meta[property="og:image"]`).Attr("content"); ok {
		info.ThumbnailURL = strings.TrimSpace(og)
	}

	return info
}
