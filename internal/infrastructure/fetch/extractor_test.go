package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestExtractStripsScriptsAndStyles(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`
		<html><head><style>body { color: red; }</style></head>
		<body>
		  <script>var tracking = true;</script>
		  <h1>Privacy   Policy</h1>
		  <p>We collect data.</p>
		</body></html>`))
	}))
	defer server.Close()

	text, err := NewExtractor(server.Client()).Extract(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}

	if text != "Privacy Policy We collect data." {
		t.Fatalf("unexpected text: %q", text)
	}
	if strings.Contains(text, "tracking") || strings.Contains(text, "color") {
		t.Fatal("script or style content leaked into extraction")
	}
}

func TestExtractNonOKStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	if _, err := NewExtractor(server.Client()).Extract(context.Background(), server.URL); err == nil {
		t.Fatal("expected error on non-200 status")
	}
}
