package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeOCR()
	c.normalizeRunner()
	c.normalizeReader()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeOCR() {
	c.OCR.BaseURL = strings.TrimSpace(c.OCR.BaseURL)
	if c.OCR.BaseURL == "" {
		if value, ok := os.LookupEnv("MOKURO_OCR_URL"); ok {
			c.OCR.BaseURL = strings.TrimSpace(value)
		}
	}
	if c.OCR.BaseURL == "" {
		c.OCR.BaseURL = defaultOCRBaseURL
	}
	c.OCR.BaseURL = strings.TrimRight(c.OCR.BaseURL, "/")
	c.OCR.Model = strings.TrimSpace(c.OCR.Model)
	if c.OCR.Model == "" {
		c.OCR.Model = defaultOCRModel
	}
	if c.OCR.TimeoutSeconds <= 0 {
		c.OCR.TimeoutSeconds = defaultOCRTimeoutSeconds
	}
	if c.OCR.MaxAttempts <= 0 {
		c.OCR.MaxAttempts = defaultOCRMaxAttempts
	}
	if c.OCR.RetryDelaySeconds <= 0 {
		c.OCR.RetryDelaySeconds = defaultOCRRetrySeconds
	}
}

func (c *Config) normalizeRunner() {
	if c.Runner.Jobs == 0 {
		c.Runner.Jobs = defaultRunnerJobs
	}
}

func (c *Config) normalizeReader() {
	c.Reader.FontSize = strings.TrimSpace(c.Reader.FontSize)
	if c.Reader.FontSize == "" {
		c.Reader.FontSize = defaultFontSize
	}
	c.Reader.BackgroundColor = strings.TrimSpace(c.Reader.BackgroundColor)
	if c.Reader.BackgroundColor == "" {
		c.Reader.BackgroundColor = defaultBackgroundColor
	}
	c.Reader.DefaultZoomMode = strings.TrimSpace(c.Reader.DefaultZoomMode)
	if c.Reader.DefaultZoomMode == "" {
		c.Reader.DefaultZoomMode = defaultZoomMode
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
