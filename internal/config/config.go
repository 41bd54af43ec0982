package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// OCR contains connection settings for the manga-ocr inference service.
type OCR struct {
	BaseURL           string `toml:"base_url"`
	Model             string `toml:"model"`
	ForceCPU          bool   `toml:"force_cpu"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
	MaxAttempts       int    `toml:"max_attempts"`
	RetryDelaySeconds int    `toml:"retry_delay_seconds"`
}

// Runner contains batch execution settings.
type Runner struct {
	Jobs                int  `toml:"jobs"`
	DisableConfirmation bool `toml:"disable_confirmation"`
}

// Output contains artifact generation settings.
type Output struct {
	AsOneFile bool `toml:"as_one_file"`
}

// Reader contains the viewer defaults embedded in generated artifacts.
type Reader struct {
	RightToLeft        bool   `toml:"right_to_left"`
	DoublePageView     bool   `toml:"double_page_view"`
	HasCover           bool   `toml:"has_cover"`
	CtrlToPan          bool   `toml:"ctrl_to_pan"`
	DisplayOCR         bool   `toml:"display_ocr"`
	TextBoxBorders     bool   `toml:"textbox_borders"`
	EditableText       bool   `toml:"editable_text"`
	FontSize           string `toml:"font_size"`
	EInkMode           bool   `toml:"eink_mode"`
	ToggleOCRTextBoxes bool   `toml:"toggle_ocr_textboxes"`
	BackgroundColor    string `toml:"background_color"`
	DefaultZoomMode    string `toml:"default_zoom_mode"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for mokuro.
//
// Configuration sections by subsystem:
//   - Paths: data directory (run ledger, lock file) and log directory
//   - OCR: manga-ocr inference service connection settings
//   - Runner: batch parallelism and confirmation behaviour
//   - Output: artifact layout (single file vs sidecars)
//   - Reader: viewer defaults embedded in generated artifacts
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	OCR     OCR     `toml:"ocr"`
	Runner  Runner  `toml:"runner"`
	Output  Output  `toml:"output"`
	Reader  Reader  `toml:"reader"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/mokuro/config.toml")
}

// Load locates, parses, and validates a configuration file. An empty path
// falls back to MOKURO_CONFIG, then the default locations. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		path = strings.TrimSpace(os.Getenv("MOKURO_CONFIG"))
	}
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/mokuro/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("mokuro.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a run needs before any volume is
// touched.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LedgerPath returns the location of the run ledger database.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.Paths.DataDir, "ledger.db")
}

// LockPath returns the location of the run lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "mokuro.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
