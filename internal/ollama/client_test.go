package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, baseURL string, opts Options) *Client {
	t.Helper()

	return NewClient(baseURL, opts, slog.Default())
}

func TestIsReachableTrueOnOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, Options{})

	if !client.IsReachable(context.Background()) {
		t.Fatalf("expected backend to be reachable")
	}
}

func TestIsReachableFalseOnNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, Options{})

	if client.IsReachable(context.Background()) {
		t.Fatalf("expected non-200 backend to be unreachable")
	}
}

func TestIsReachableFalseOnRefusedConnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := newTestClient(t, url, Options{})

	if client.IsReachable(context.Background()) {
		t.Fatalf("expected refused connection to yield false, not an error")
	}
}

func TestIsReachableFalseOnSlowBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, Options{ProbeTimeout: 30 * time.Millisecond})

	if client.IsReachable(context.Background()) {
		t.Fatalf("expected probe timeout to yield false")
	}
}

func TestListModelsPreservesOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"models":[{"name":"m1"},{"name":"m2"},{"name":"m3"}]}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, Options{})

	models := client.ListModels(context.Background())
	want := []string{"m1", "m2", "m3"}

	if len(models) != len(want) {
		t.Fatalf("unexpected model count: got %d want %d", len(models), len(want))
	}

	for i := range want {
		if models[i] != want[i] {
			t.Fatalf("unexpected model at index %d: got %q want %q", i, models[i], want[i])
		}
	}
}

func TestListModelsEmptyOnMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json at all`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, Options{})

	if models := client.ListModels(context.Background()); len(models) != 0 {
		t.Fatalf("expected no models for malformed body, got %v", models)
	}
}

func TestListModelsEmptyWhenUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := newTestClient(t, url, Options{})

	if models := client.ListModels(context.Background()); len(models) != 0 {
		t.Fatalf("expected no models for unreachable backend, got %v", models)
	}
}

func TestGenerateSendsNonStreamingRequestWithSamplingOptions(t *testing.T) {
	var got generateRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}

		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}

		_, _ = w.Write([]byte(`{"response":"A greeting."}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, Options{})

	summary, err := client.Generate(context.Background(), "m1", "summarize this")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary != "A greeting." {
		t.Fatalf("unexpected summary: %q", summary)
	}

	if got.Model != "m1" {
		t.Fatalf("unexpected model: %q", got.Model)
	}

	if got.Prompt != "summarize this" {
		t.Fatalf("unexpected prompt: %q", got.Prompt)
	}

	if got.Stream {
		t.Fatalf("expected non-streaming request")
	}

	if got.Options.Temperature != DefaultTemperature {
		t.Fatalf("unexpected temperature: %v", got.Options.Temperature)
	}

	if got.Options.TopP != DefaultTopP {
		t.Fatalf("unexpected top_p: %v", got.Options.TopP)
	}
}

func TestGenerateFallbackWhenResponseFieldAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"done":true}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, Options{})

	summary, err := client.Generate(context.Background(), "m1", "p")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary != NoSummaryFallback {
		t.Fatalf("unexpected summary: %q", summary)
	}
}

func TestGenerateBackendErrorOnNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, Options{})

	_, err := client.Generate(context.Background(), "m1", "p")

	var backendErr *BackendError
	if !errors.As(err, &backendErr) {
		t.Fatalf("expected BackendError, got %v", err)
	}

	if backendErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("unexpected status code: %d", backendErr.StatusCode)
	}
}

func TestGenerateBackendErrorOnMalformed200Body(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{{{`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, Options{})

	_, err := client.Generate(context.Background(), "m1", "p")

	var backendErr *BackendError
	if !errors.As(err, &backendErr) {
		t.Fatalf("expected BackendError, got %v", err)
	}

	if backendErr.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status code: %d", backendErr.StatusCode)
	}
}

func TestGenerateTimeoutWithoutRetry(t *testing.T) {
	var calls atomic.Int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		time.Sleep(500 * time.Millisecond)
		_, _ = w.Write([]byte(`{"response":"too late"}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, Options{GenerateTimeout: 50 * time.Millisecond})

	_, err := client.Generate(context.Background(), "m1", "p")

	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("expected TimeoutError, got %v", err)
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("expected exactly one request, got %d", got)
	}
}

func TestGenerateNetworkErrorOnRefusedConnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := newTestClient(t, url, Options{})

	_, err := client.Generate(context.Background(), "m1", "p")

	var networkErr *NetworkError
	if !errors.As(err, &networkErr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
}
