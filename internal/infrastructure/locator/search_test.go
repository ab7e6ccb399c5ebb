package locator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"PolicyScanner/internal/discovery"
)

func TestSearchEngineTakesTopResult(t *testing.T) {
	t.Parallel()

	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		_, _ = w.Write([]byte(`
		<html><body>
		  <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fprivacy">Privacy Policy</a>
		  <a class="result__a" href="https://example.com/other">Other</a>
		</body></html>`))
	}))
	defer server.Close()

	engine := NewSearchEngine(server.Client(), server.URL)
	url, found, err := engine.Locate(context.Background(), discovery.Target{Domain: "example.com"})
	if err != nil {
		t.Fatalf("Locate error: %v", err)
	}
	if !found || url != "https://example.com/privacy" {
		t.Fatalf("unexpected outcome: %q %v", url, found)
	}
	if gotQuery != "site:example.com privacy policy" {
		t.Fatalf("unexpected query: %q", gotQuery)
	}
}

func TestSearchEnginePlainResultLink(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><a class="result__a" href="https://example.com/generated-policy">Privacy</a></body></html>`))
	}))
	defer server.Close()

	engine := NewSearchEngine(server.Client(), server.URL)
	url, found, err := engine.Locate(context.Background(), discovery.Target{Domain: "example.com"})
	if err != nil {
		t.Fatalf("Locate error: %v", err)
	}
	if !found || url != "https://example.com/generated-policy" {
		t.Fatalf("unexpected outcome: %q %v", url, found)
	}
}

func TestSearchEngineNoResults(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><p>No results.</p></body></html>`))
	}))
	defer server.Close()

	engine := NewSearchEngine(server.Client(), server.URL)
	_, found, err := engine.Locate(context.Background(), discovery.Target{Domain: "example.com"})
	if err != nil {
		t.Fatalf("Locate error: %v", err)
	}
	if found {
		t.Fatal("expected no match")
	}
}
