package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
)

// Target is a normalized site to resolve.
type Target struct {
	BaseURL string // scheme plus host, no trailing slash
	Domain  string // bare host
}

// NewTarget normalizes raw input such as "example.com" or a full URL.
func NewTarget(raw string) (Target, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return Target{}, fmt.Errorf("invalid site %q: %w", raw, err)
	}
	if parsed.Host == "" {
		parsed, err = url.Parse("https://" + raw)
		if err != nil || parsed.Host == "" {
			return Target{}, fmt.Errorf("cannot extract host from %q", raw)
		}
	}

	scheme := parsed.Scheme
	if scheme != "http" && scheme != "https" {
		scheme = "https"
	}

	return Target{
		BaseURL: scheme + "://" + parsed.Host,
		Domain:  parsed.Host,
	}, nil
}

// Strategy is a single policy-location approach. found=false with a nil
// error means the strategy ran cleanly and had no answer; that outcome is
// distinct from an error.
type Strategy interface {
	Name() string
	Locate(ctx context.Context, target Target) (policyURL string, found bool, err error)
}

// Cascade tries strategies in fixed order and returns the first confident
// match. Earlier strategies are cheaper or more reliable and always win; a
// later strategy only runs when every earlier one came up empty.
type Cascade struct {
	strategies []Strategy
	logger     *slog.Logger
}

// NewCascade fixes the strategy order for the lifetime of the cascade.
func NewCascade(logger *slog.Logger, strategies ...Strategy) *Cascade {
	return &Cascade{strategies: strategies, logger: logger}
}

// Locate resolves target to a policy URL, or reports not found once every
// strategy is exhausted. A strategy error is absorbed: it counts as no
// match for that strategy only and never aborts the cascade. Not found is
// an expected outcome, so Locate has no error return.
func (c *Cascade) Locate(ctx context.Context, target Target) (string, bool) {
	for _, strategy := range c.strategies {
		policyURL, found, err := strategy.Locate(ctx, target)
		if err != nil {
			c.log(slog.LevelWarn, "strategy failed, trying next",
				"strategy", strategy.Name(), "domain", target.Domain, "error", err)
			continue
		}
		if found {
			c.log(slog.LevelInfo, "policy located",
				"strategy", strategy.Name(), "domain", target.Domain, "url", policyURL)
			return policyURL, true
		}
		c.log(slog.LevelDebug, "strategy had no match",
			"strategy", strategy.Name(), "domain", target.Domain)
	}

	c.log(slog.LevelInfo, "policy not found", "domain", target.Domain)
	return "", false
}

func (c *Cascade) log(level slog.Level, msg string, args ...any) {
	if c.logger != nil {
		c.logger.Log(context.Background(), level, msg, args...)
	}
}
