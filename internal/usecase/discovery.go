package usecase

import (
	"context"
	"log/slog"

	"PolicyScanner/internal/discovery"
)

// Discovery resolves a site's policy document through the cascade.
type Discovery struct {
	cascade *discovery.Cascade
	logger  *slog.Logger
}

// NewDiscovery wraps the cascade for the request handler.
func NewDiscovery(cascade *discovery.Cascade, logger *slog.Logger) *Discovery {
	return &Discovery{cascade: cascade, logger: logger}
}

// Find returns the policy URL for the raw site input, or false when every
// strategy came up empty. Unparsable input counts as not found.
func (d *Discovery) Find(ctx context.Context, site string) (string, bool) {
	target, err := discovery.NewTarget(site)
	if err != nil {
		if d.logger != nil {
			d.logger.Warn("cannot normalize site", "site", site, "error", err)
		}
		return "", false
	}

	return d.cascade.Locate(ctx, target)
}
