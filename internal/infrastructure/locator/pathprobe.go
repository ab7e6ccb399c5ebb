package locator

import (
	"context"
	"net/http"
	"strings"
	"time"

	"PolicyScanner/internal/discovery"
)

// wellKnownPaths are probed in order; earlier paths are the more common
// conventions.
var wellKnownPaths = []string{
	"/privacy",
	"/privacy-policy",
	"/privacy_policy",
	"/legal",
	"/legal/privacy",
	"/terms",
	"/terms-of-service",
	"/tos",
}

// PathProbe issues lightweight existence probes against well-known policy
// paths. No body is fetched; the first success status wins.
type PathProbe struct {
	client *http.Client
	paths  []string
}

var _ discovery.Strategy = (*PathProbe)(nil)

// NewPathProbe wires an HTTP client; a nil client gets a short 3s timeout
// so a dead path never stalls the cascade.
func NewPathProbe(client *http.Client) *PathProbe {
	if client == nil {
		client = &http.Client{Timeout: 3 * time.Second}
	}
	return &PathProbe{client: client, paths: wellKnownPaths}
}

// Name identifies the strategy in cascade logs.
func (p *PathProbe) Name() string {
	return "pathprobe"
}

// Locate HEAD-requests each candidate path. A failed or timed-out probe is
// skipped, not retried.
func (p *PathProbe) Locate(ctx context.Context, target discovery.Target) (string, bool, error) {
	base := strings.TrimSuffix(target.BaseURL, "/")

	for _, path := range p.paths {
		probeURL := base + path

		req, err := http.NewRequestWithContext(ctx, http.MethodHead, probeURL, nil)
		if err != nil {
			continue
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := p.client.Do(req)
		if err != nil {
			continue
		}
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return probeURL, true, nil
		}
	}

	return "", false, nil
}
