package locator

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"PolicyScanner/internal/discovery"
)

const userAgent = "PolicyScanner/1.0"

// policyKeywords is the vocabulary matched against link text and hrefs.
var policyKeywords = []string{"privacy", "terms", "legal", "policy", "tos", "conditions"}

// LinkScan fetches the site's front page and looks for an outbound link
// whose visible text or destination mentions a policy keyword.
type LinkScan struct {
	client *http.Client
}

var _ discovery.Strategy = (*LinkScan)(nil)

// NewLinkScan wires an HTTP client; a nil client gets a 5s timeout default.
func NewLinkScan(client *http.Client) *LinkScan {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &LinkScan{client: client}
}

// Name identifies the strategy in cascade logs.
func (l *LinkScan) Name() string {
	return "linkscan"
}

// Locate scans anchor tags on the front page and returns the first keyword
// match resolved to an absolute http(s) URL.
func (l *LinkScan) Locate(ctx context.Context, target discovery.Target) (string, bool, error) {
	doc, err := fetchDocument(ctx, l.client, target.BaseURL)
	if err != nil {
		return "", false, err
	}

	base, err := url.Parse(target.BaseURL)
	if err != nil {
		return "", false, fmt.Errorf("parse base url: %w", err)
	}

	var match string
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		text := strings.ToLower(a.Text())

		if !containsKeyword(text) && !containsKeyword(strings.ToLower(href)) {
			return true
		}

		ref, err := url.Parse(href)
		if err != nil {
			return true
		}
		resolved := base.ResolveReference(ref)
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return true
		}

		match = resolved.String()
		return false
	})

	return match, match != "", nil
}

func containsKeyword(s string) bool {
	for _, keyword := range policyKeywords {
		if strings.Contains(s, keyword) {
			return true
		}
	}
	return false
}

// fetchDocument downloads pageURL and parses it into a goquery document.
// Shared by the strategies that need page content.
func fetchDocument(ctx context.Context, client *http.Client, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned %s", pageURL, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}
