package locator

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"PolicyScanner/internal/discovery"
)

const defaultSearchEndpoint = "https://html.duckduckgo.com/html/"

// SearchEngine is the last-resort strategy: a site-scoped DuckDuckGo query
// for policy terms, taking the top result's address.
type SearchEngine struct {
	client   *http.Client
	endpoint string
}

var _ discovery.Strategy = (*SearchEngine)(nil)

// NewSearchEngine wires an HTTP client and search endpoint; empty endpoint
// falls back to the DuckDuckGo HTML frontend.
func NewSearchEngine(client *http.Client, endpoint string) *SearchEngine {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if endpoint == "" {
		endpoint = defaultSearchEndpoint
	}
	return &SearchEngine{client: client, endpoint: endpoint}
}

// Name identifies the strategy in cascade logs.
func (s *SearchEngine) Name() string {
	return "search"
}

// Locate queries the search engine scoped to the target domain and returns
// the first result link.
func (s *SearchEngine) Locate(ctx context.Context, target discovery.Target) (string, bool, error) {
	query := fmt.Sprintf("site:%s privacy policy", target.Domain)
	searchURL := s.endpoint + "?q=" + url.QueryEscape(query)

	doc, err := fetchDocument(ctx, s.client, searchURL)
	if err != nil {
		return "", false, err
	}

	href, ok := doc.Find("a.result__a").First().Attr("href")
	if !ok || href == "" {
		return "", false, nil
	}

	resolved, err := resolveResultLink(href)
	if err != nil {
		return "", false, err
	}
	return resolved, resolved != "", nil
}

// resolveResultLink unwraps DuckDuckGo redirect links, which carry the real
// destination in the uddg query parameter.
func resolveResultLink(href string) (string, error) {
	parsed, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("parse result link: %w", err)
	}

	if uddg := parsed.Query().Get("uddg"); uddg != "" {
		return uddg, nil
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href, nil
	}
	return "", nil
}
