package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/singleflight"

	"PolicyScanner/internal/cache"
	"PolicyScanner/internal/domain"
	"PolicyScanner/internal/ports"
)

// AnalyzerDeps wires collaborators into the cache-aside cycle. Fetcher and
// Repository are optional; a nil value disables that collaborator.
type AnalyzerDeps struct {
	Cache      ports.AnalysisCache
	Evaluator  ports.Evaluator
	Fetcher    ports.ContentFetcher
	Repository ports.AnalysisRepository
	Logger     *slog.Logger
}

// Analyzer runs the read/compute/write cycle over the result cache.
type Analyzer struct {
	cache      ports.AnalysisCache
	evaluator  ports.Evaluator
	fetcher    ports.ContentFetcher
	repository ports.AnalysisRepository
	logger     *slog.Logger
	flight     singleflight.Group
}

// NewAnalyzer constructs the orchestration component.
func NewAnalyzer(deps AnalyzerDeps) *Analyzer {
	return &Analyzer{
		cache:      deps.Cache,
		evaluator:  deps.Evaluator,
		fetcher:    deps.Fetcher,
		repository: deps.Repository,
		logger:     deps.Logger,
	}
}

// Analyze returns the cached result for text when present, otherwise
// evaluates, caches, and returns. When text is empty and a source URL plus
// fetcher are available, the document is fetched and extracted first.
// Evaluator failures propagate typed; a stale cache entry is never
// substituted and nothing is retried silently. Concurrent misses on the
// same key coalesce into a single evaluator call.
func (a *Analyzer) Analyze(ctx context.Context, text, sourceURL string) (domain.AnalysisResult, error) {
	if strings.TrimSpace(text) == "" && sourceURL != "" && a.fetcher != nil {
		a.log(slog.LevelInfo, "fetching policy content", "url", sourceURL)
		extracted, err := a.fetcher.Extract(ctx, sourceURL)
		if err != nil {
			return domain.AnalysisResult{}, fmt.Errorf("%w: fetch %s: %v", domain.ErrInvalidInput, sourceURL, err)
		}
		text = extracted
	}

	if strings.TrimSpace(text) == "" {
		return domain.AnalysisResult{}, fmt.Errorf("%w: policy text is empty", domain.ErrInvalidInput)
	}

	key := cache.DeriveKey(text)

	if result, ok := a.cache.Get(key); ok {
		a.log(slog.LevelInfo, "cache hit", "key", key[:12], "score", result.Score)
		return result, nil
	}

	a.log(slog.LevelInfo, "cache miss", "key", key[:12], "provider", a.evaluator.Provider())

	value, err, shared := a.flight.Do(key, func() (any, error) {
		result, err := a.evaluator.Analyze(ctx, text, sourceURL)
		if err != nil {
			return nil, err
		}
		if err := result.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
		}

		a.cache.Set(key, result)
		a.record(ctx, key, result)
		return result, nil
	})
	if err != nil {
		return domain.AnalysisResult{}, err
	}
	if shared {
		a.log(slog.LevelDebug, "coalesced concurrent evaluation", "key", key[:12])
	}

	return value.(domain.AnalysisResult), nil
}

// record mirrors the result into the optional history store. A repository
// failure never fails the analysis that produced the result.
func (a *Analyzer) record(ctx context.Context, key string, result domain.AnalysisResult) {
	if a.repository == nil {
		return
	}

	err := a.repository.SaveAnalysis(ctx, domain.AnalysisRecord{
		Key:       key,
		SourceURL: result.SourceURL,
		Score:     result.Score,
		Summary:   result.Summary,
		RedFlags:  result.RedFlags,
		Provider:  a.evaluator.Provider(),
		CreatedAt: result.Timestamp,
	})
	if err != nil {
		a.log(slog.LevelWarn, "cannot persist analysis record", "key", key[:12], "error", err)
	}
}

func (a *Analyzer) log(level slog.Level, msg string, args ...any) {
	if a.logger != nil {
		a.logger.Log(context.Background(), level, msg, args...)
	}
}
