package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/Kanjirito/mokuro/internal/config"
	"github.com/Kanjirito/mokuro/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckOCRService_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithOCRBaseURL(srv.URL))
	result := CheckOCRService(context.Background(), cfg.OCR)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckOCRService_Down(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	url := srv.URL
	srv.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithOCRBaseURL(url))
	result := CheckOCRService(context.Background(), cfg.OCR)
	if result.Passed {
		t.Fatal("expected failure for unreachable service")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckOCRService_MissingURL(t *testing.T) {
	result := CheckOCRService(context.Background(), config.OCR{})
	if result.Passed {
		t.Fatal("expected failure for missing URL")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(context.Background(), nil, nil, false)
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_ChecksVolumes(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()

	volumes := []string{t.TempDir(), t.TempDir()}
	results := RunAll(context.Background(), &cfg, volumes, false)
	// Data directory plus one check per volume
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for _, r := range results {
		if !r.Passed {
			t.Errorf("check %q failed: %s", r.Name, r.Detail)
		}
	}
}

func TestRunAll_IncludesOCRWhenEnabled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	cfg.OCR.BaseURL = srv.URL

	results := RunAll(context.Background(), &cfg, nil, true)
	found := false
	for _, r := range results {
		if r.Name == "OCR service" {
			found = true
			if !r.Passed {
				t.Errorf("OCR check failed: %s", r.Detail)
			}
		}
	}
	if !found {
		t.Fatal("expected OCR service check in results")
	}
}

func TestFailures(t *testing.T) {
	results := []Result{
		{Name: "a", Passed: true},
		{Name: "b", Passed: false, Detail: "broken"},
		{Name: "c", Passed: true},
	}
	failed := Failures(results)
	if len(failed) != 1 || failed[0].Name != "b" {
		t.Fatalf("unexpected failures: %#v", failed)
	}
}
