package ports

import (
	"context"

	"PolicyScanner/internal/domain"
)

// Evaluator scores a policy document, remotely or via the local heuristic.
type Evaluator interface {
	Analyze(ctx context.Context, text, sourceURL string) (domain.AnalysisResult, error)
	Provider() string
}

// AnalysisCache deduplicates evaluations keyed by derived content hash.
type AnalysisCache interface {
	Get(key string) (domain.AnalysisResult, bool)
	Set(key string, result domain.AnalysisResult)
	Clear()
	Size() int
}

// ContentFetcher downloads a document and extracts its plain text.
type ContentFetcher interface {
	Extract(ctx context.Context, pageURL string) (string, error)
}

// AnalysisRepository mirrors completed analyses for audit and reporting.
type AnalysisRepository interface {
	SaveAnalysis(ctx context.Context, record domain.AnalysisRecord) error
}
