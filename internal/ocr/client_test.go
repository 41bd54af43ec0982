package ocr

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Kanjirito/mokuro/internal/services"
)

func writePageImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "001.jpg")
	if err := os.WriteFile(path, []byte("page-bytes"), 0o644); err != nil {
		t.Fatalf("write page image: %v", err)
	}
	return path
}

func TestClientRecognizePage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ocr" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart form: %v", err)
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			t.Fatalf("image part missing: %v", err)
		}
		defer file.Close()
		if header.Filename != "001.jpg" {
			t.Fatalf("expected filename 001.jpg, got %q", header.Filename)
		}
		data, err := io.ReadAll(file)
		if err != nil {
			t.Fatalf("read image part: %v", err)
		}
		if string(data) != "page-bytes" {
			t.Fatalf("unexpected image payload %q", data)
		}
		if got := r.FormValue("model"); got != DefaultModel {
			t.Fatalf("expected default model, got %q", got)
		}
		if got := r.FormValue("force_cpu"); got != "true" {
			t.Fatalf("expected force_cpu true, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"version": "0.2.1",
			"img_width": 1536,
			"img_height": 2048,
			"blocks": [
				{"box": [100, 200, 300, 400], "vertical": true, "font_size": 32, "lines": ["ｷｭｰ", "Ｈｅｌｌｏ"]}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, ForceCPU: true})
	result, err := client.RecognizePage(context.Background(), writePageImage(t))
	if err != nil {
		t.Fatalf("RecognizePage returned error: %v", err)
	}
	if result.ImgWidth != 1536 || result.ImgHeight != 2048 {
		t.Fatalf("unexpected page dimensions %dx%d", result.ImgWidth, result.ImgHeight)
	}
	if len(result.Blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(result.Blocks))
	}
	block := result.Blocks[0]
	if block.Box != [4]int{100, 200, 300, 400} {
		t.Fatalf("unexpected box %v", block.Box)
	}
	if !block.Vertical {
		t.Fatal("expected vertical block")
	}
	if block.Lines[0] != "キュー" {
		t.Fatalf("expected half-width katakana folded wide, got %q", block.Lines[0])
	}
	if block.Lines[1] != "Hello" {
		t.Fatalf("expected full-width latin folded narrow, got %q", block.Lines[1])
	}
	if got := result.CharCount(); got != 8 {
		t.Fatalf("expected 8 chars, got %d", got)
	}
}

func TestClientRetriesOnHTTP429(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate limited"}`))
			return
		}
		_, _ = w.Write([]byte(`{"img_width":1,"img_height":1,"blocks":[]}`))
	}))
	defer server.Close()

	var slept []time.Duration
	client := NewClient(
		Config{BaseURL: server.URL},
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
		WithRetryBackoff(0, 10*time.Second),
		WithRetryMaxAttempts(5),
	)
	if _, err := client.RecognizePage(context.Background(), writePageImage(t)); err != nil {
		t.Fatalf("RecognizePage returned error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
	if len(slept) != 1 || slept[0] != time.Second {
		t.Fatalf("expected single sleep of 1s, got %v", slept)
	}
}

func TestClientRecognizePageExhaustsRetries(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(
		Config{BaseURL: server.URL},
		WithSleeper(func(time.Duration) {}),
		WithRetryBackoff(time.Millisecond, time.Millisecond),
		WithRetryMaxAttempts(2),
	)
	_, err := client.RecognizePage(context.Background(), writePageImage(t))
	if err == nil {
		t.Fatal("expected recognize to fail")
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
	if !strings.Contains(err.Error(), "failed after 2 attempts") {
		t.Fatalf("expected exhaustion message, got %v", err)
	}
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !services.Retryable(err) {
		t.Fatalf("expected retryable error, got %v", err)
	}
}

func TestClientRecognizePageClientErrorIsPermanent(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"unsupported image"}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL}, WithRetryMaxAttempts(5))
	_, err := client.RecognizePage(context.Background(), writePageImage(t))
	if err == nil {
		t.Fatal("expected recognize to fail")
	}
	if calls != 1 {
		t.Fatalf("expected single call, got %d", calls)
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool marker, got %v", err)
	}
	if services.Retryable(err) {
		t.Fatalf("expected permanent error, got %v", err)
	}
}

func TestClientRecognizePageMissingImage(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:1"})
	_, err := client.RecognizePage(context.Background(), filepath.Join(t.TempDir(), "missing.jpg"))
	if err == nil {
		t.Fatal("expected recognize to fail")
	}
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation marker, got %v", err)
	}
}

func TestClientHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestClientHealthCheckFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"model not loaded"}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	err := client.HealthCheck(context.Background())
	if err == nil {
		t.Fatal("expected health check to fail")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool marker, got %v", err)
	}
}

func TestClientHealthCheckUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	err := client.HealthCheck(context.Background())
	if err == nil {
		t.Fatal("expected health check to fail")
	}
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient(Config{})
	if client.BaseURL() != DefaultBaseURL {
		t.Fatalf("expected default base url, got %q", client.BaseURL())
	}
	if client.Model() != DefaultModel {
		t.Fatalf("expected default model, got %q", client.Model())
	}

	client = NewClient(Config{BaseURL: "http://localhost:9999///", Model: "  custom-model  "})
	if client.BaseURL() != "http://localhost:9999" {
		t.Fatalf("expected trailing slashes trimmed, got %q", client.BaseURL())
	}
	if client.Model() != "custom-model" {
		t.Fatalf("expected trimmed model, got %q", client.Model())
	}
}
