package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"github.com/Kanjirito/mokuro/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("MOKURO_CONFIG", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "mokuro")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.LogDir != filepath.Join(wantData, "logs") {
		t.Fatalf("unexpected log dir: %q", cfg.Paths.LogDir)
	}
	if cfg.OCR.BaseURL != "http://127.0.0.1:8765" {
		t.Fatalf("unexpected OCR base url: %q", cfg.OCR.BaseURL)
	}
	if cfg.OCR.Model != "kha-white/manga-ocr-base" {
		t.Fatalf("unexpected OCR model: %q", cfg.OCR.Model)
	}
	if cfg.OCR.ForceCPU {
		t.Fatal("expected force_cpu disabled by default")
	}
	if cfg.Runner.Jobs != 1 {
		t.Fatalf("unexpected jobs default: %d", cfg.Runner.Jobs)
	}
	if cfg.Runner.DisableConfirmation {
		t.Fatal("expected confirmation enabled by default")
	}
	if !cfg.Output.AsOneFile {
		t.Fatal("expected as_one_file enabled by default")
	}
	if !cfg.Reader.RightToLeft || !cfg.Reader.DoublePageView || !cfg.Reader.DisplayOCR {
		t.Fatal("unexpected reader toggle defaults")
	}
	if cfg.Reader.HasCover || cfg.Reader.EInkMode {
		t.Fatal("unexpected reader toggle defaults")
	}
	if cfg.Reader.BackgroundColor != "#C4C3D0" {
		t.Fatalf("unexpected background color: %q", cfg.Reader.BackgroundColor)
	}
	if cfg.Reader.DefaultZoomMode != "fit to screen" {
		t.Fatalf("unexpected zoom mode: %q", cfg.Reader.DefaultZoomMode)
	}
	if cfg.LedgerPath() != filepath.Join(wantData, "ledger.db") {
		t.Fatalf("unexpected ledger path: %q", cfg.LedgerPath())
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "mokuro.toml")

	type payload struct {
		OCR struct {
			BaseURL  string `toml:"base_url"`
			Model    string `toml:"model"`
			ForceCPU bool   `toml:"force_cpu"`
		} `toml:"ocr"`
		Runner struct {
			Jobs                int  `toml:"jobs"`
			DisableConfirmation bool `toml:"disable_confirmation"`
		} `toml:"runner"`
		Reader struct {
			RightToLeft bool `toml:"right_to_left"`
		} `toml:"reader"`
	}
	custom := payload{}
	custom.OCR.BaseURL = "http://ocr.local:9000/"
	custom.OCR.Model = "custom/model"
	custom.OCR.ForceCPU = true
	custom.Runner.Jobs = 4
	custom.Runner.DisableConfirmation = true
	custom.Reader.RightToLeft = false
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.OCR.BaseURL != "http://ocr.local:9000" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.OCR.BaseURL)
	}
	if cfg.OCR.Model != "custom/model" {
		t.Fatalf("expected model override, got %q", cfg.OCR.Model)
	}
	if !cfg.OCR.ForceCPU {
		t.Fatal("expected force_cpu override")
	}
	if cfg.Runner.Jobs != 4 {
		t.Fatalf("expected jobs override, got %d", cfg.Runner.Jobs)
	}
	if !cfg.Runner.DisableConfirmation {
		t.Fatal("expected disable_confirmation override")
	}
	if cfg.Reader.RightToLeft {
		t.Fatal("expected right_to_left override to stick")
	}
	if !cfg.Reader.DoublePageView {
		t.Fatal("expected untouched reader defaults to survive")
	}
}

func TestLoadConfigPathEnvFallback(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "from-env.toml")
	if err := os.WriteFile(configPath, []byte("[runner]\njobs = 3\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("MOKURO_CONFIG", configPath)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected env config resolved, got %q exists=%v", resolved, exists)
	}
	if cfg.Runner.Jobs != 3 {
		t.Fatalf("expected jobs from env config, got %d", cfg.Runner.Jobs)
	}
}

func TestOCRURLEnvFallback(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "mokuro.toml")
	if err := os.WriteFile(configPath, []byte("[ocr]\nbase_url = \"\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("MOKURO_OCR_URL", "http://env.local:8765")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.OCR.BaseURL != "http://env.local:8765" {
		t.Fatalf("expected OCR url from env, got %q", cfg.OCR.BaseURL)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "kha-white/manga-ocr-base") {
		t.Fatalf("sample config missing model default: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Reader.BackgroundColor != "#C4C3D0" {
		t.Fatalf("unexpected sample background color: %q", cfg.Reader.BackgroundColor)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cfg := config.Default()
	cfg.OCR.BaseURL = "ftp://nope"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-http OCR url")
	}

	cfg = config.Default()
	cfg.Runner.Jobs = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative jobs")
	}

	cfg = config.Default()
	cfg.OCR.TimeoutSeconds = -5
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative timeout")
	}

	cfg = config.Default()
	cfg.Reader.FontSize = "huge"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-numeric font size")
	}

	cfg = config.Default()
	cfg.Reader.BackgroundColor = "C4C3D0"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for background color without #")
	}
}

func TestExpandPathTilde(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	got, err := config.ExpandPath("~/manga/vol1")
	if err != nil {
		t.Fatalf("ExpandPath returned error: %v", err)
	}
	if got != filepath.Join(tempHome, "manga", "vol1") {
		t.Fatalf("unexpected expansion: %q", got)
	}

	got, err = config.ExpandPath("~")
	if err != nil {
		t.Fatalf("ExpandPath returned error: %v", err)
	}
	if got != tempHome {
		t.Fatalf("expected bare tilde to expand to home, got %q", got)
	}
}
