package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"PolicyScanner/internal/cache"
	"PolicyScanner/internal/domain"
)

type stubEvaluator struct {
	result domain.AnalysisResult
	err    error
	calls  atomic.Int64
	block  chan struct{} // when set, Analyze waits until closed
}

func (s *stubEvaluator) Provider() string { return "stub" }

func (s *stubEvaluator) Analyze(_ context.Context, _, _ string) (domain.AnalysisResult, error) {
	s.calls.Add(1)
	if s.block != nil {
		<-s.block
	}
	return s.result, s.err
}

type stubFetcher struct {
	text string
	err  error
}

func (s *stubFetcher) Extract(_ context.Context, _ string) (string, error) {
	return s.text, s.err
}

type recordingRepo struct {
	mu      sync.Mutex
	records []domain.AnalysisRecord
}

func (r *recordingRepo) SaveAnalysis(_ context.Context, rec domain.AnalysisRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return nil
}

func testResult(score int) domain.AnalysisResult {
	return domain.AnalysisResult{
		Score:     score,
		Summary:   "summary",
		RedFlags:  []string{},
		Timestamp: time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
	}
}

func newAnalyzer(t *testing.T, eval *stubEvaluator, opts ...func(*AnalyzerDeps)) *Analyzer {
	t.Helper()
	deps := AnalyzerDeps{
		Cache:     cache.New(t.TempDir()+"/cache.json", cache.DefaultTTL, nil),
		Evaluator: eval,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	return NewAnalyzer(deps)
}

func TestAnalyzeEmptyTextRejected(t *testing.T) {
	t.Parallel()

	a := newAnalyzer(t, &stubEvaluator{result: testResult(50)})
	_, err := a.Analyze(context.Background(), "   \n\t ", "")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAnalyzeCacheAside(t *testing.T) {
	t.Parallel()

	eval := &stubEvaluator{result: testResult(77)}
	a := newAnalyzer(t, eval)

	first, err := a.Analyze(context.Background(), "some policy text", "https://example.com")
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := a.Analyze(context.Background(), "some policy text", "https://example.com")
	if err != nil {
		t.Fatalf("second call: %v", err)
	}

	if eval.calls.Load() != 1 {
		t.Fatalf("evaluator called %d times, want 1", eval.calls.Load())
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("cached result differs (-first +second):\n%s", diff)
	}
}

func TestAnalyzeNormalizedTextSharesKey(t *testing.T) {
	t.Parallel()

	eval := &stubEvaluator{result: testResult(70)}
	a := newAnalyzer(t, eval)

	if _, err := a.Analyze(context.Background(), "Policy Text", ""); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if _, err := a.Analyze(context.Background(), "  policy text  ", ""); err != nil {
		t.Fatalf("second call: %v", err)
	}

	if eval.calls.Load() != 1 {
		t.Fatalf("normalized-equal inputs must share a key, evaluator ran %d times", eval.calls.Load())
	}
}

func TestAnalyzeEvaluatorFailurePropagates(t *testing.T) {
	t.Parallel()

	eval := &stubEvaluator{err: fmt.Errorf("%w: connection refused", domain.ErrRemoteUnavailable)}
	a := newAnalyzer(t, eval)

	_, err := a.Analyze(context.Background(), "text", "")
	if !errors.Is(err, domain.ErrRemoteUnavailable) {
		t.Fatalf("expected ErrRemoteUnavailable, got %v", err)
	}

	// A later attempt goes back to the evaluator: the failure was not cached.
	_, _ = a.Analyze(context.Background(), "text", "")
	if eval.calls.Load() != 2 {
		t.Fatalf("failed evaluation must not be cached, evaluator ran %d times", eval.calls.Load())
	}
}

func TestAnalyzeInvalidEvaluatorResultRejected(t *testing.T) {
	t.Parallel()

	eval := &stubEvaluator{result: testResult(250)}
	a := newAnalyzer(t, eval)

	_, err := a.Analyze(context.Background(), "text", "")
	if !errors.Is(err, domain.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse for out-of-range score, got %v", err)
	}
}

func TestAnalyzeFetchesWhenTextMissing(t *testing.T) {
	t.Parallel()

	eval := &stubEvaluator{result: testResult(65)}
	a := newAnalyzer(t, eval, func(d *AnalyzerDeps) {
		d.Fetcher = &stubFetcher{text: "extracted policy body"}
	})

	result, err := a.Analyze(context.Background(), "", "https://example.com/privacy")
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	if result.Score != 65 {
		t.Fatalf("unexpected score %d", result.Score)
	}
}

func TestAnalyzeFetchFailureIsInvalidInput(t *testing.T) {
	t.Parallel()

	a := newAnalyzer(t, &stubEvaluator{result: testResult(65)}, func(d *AnalyzerDeps) {
		d.Fetcher = &stubFetcher{err: errors.New("connection reset")}
	})

	_, err := a.Analyze(context.Background(), "", "https://example.com/privacy")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAnalyzeRecordsHistory(t *testing.T) {
	t.Parallel()

	repo := &recordingRepo{}
	a := newAnalyzer(t, &stubEvaluator{result: testResult(88)}, func(d *AnalyzerDeps) {
		d.Repository = repo
	})

	if _, err := a.Analyze(context.Background(), "history text", "https://example.com"); err != nil {
		t.Fatalf("Analyze error: %v", err)
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()
	if len(repo.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(repo.records))
	}
	if repo.records[0].Key != cache.DeriveKey("history text") {
		t.Fatal("record keyed by something other than the derived hash")
	}
	if repo.records[0].Provider != "stub" {
		t.Fatalf("unexpected provider %q", repo.records[0].Provider)
	}
}

func TestAnalyzeCoalescesConcurrentMisses(t *testing.T) {
	t.Parallel()

	eval := &stubEvaluator{result: testResult(60), block: make(chan struct{})}
	a := newAnalyzer(t, eval)

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := a.Analyze(context.Background(), "identical text", ""); err != nil {
				errs <- err
			}
		}()
	}

	// Give every goroutine time to reach the in-flight call, then release.
	time.Sleep(50 * time.Millisecond)
	close(eval.block)
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatalf("concurrent call failed: %v", err)
	}
	if calls := eval.calls.Load(); calls != 1 {
		t.Fatalf("expected coalesced single evaluation, got %d", calls)
	}
}
