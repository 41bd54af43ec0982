package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateOCR(); err != nil {
		return err
	}
	if err := c.validateRunner(); err != nil {
		return err
	}
	if err := c.validateReader(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateOCR() error {
	parsed, err := url.Parse(c.OCR.BaseURL)
	if err != nil {
		return fmt.Errorf("ocr.base_url is not a valid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("ocr.base_url must use http or https, got %q", c.OCR.BaseURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("ocr.base_url must include a host, got %q", c.OCR.BaseURL)
	}
	return ensurePositiveMap(map[string]int{
		"ocr.timeout_seconds":     c.OCR.TimeoutSeconds,
		"ocr.max_attempts":        c.OCR.MaxAttempts,
		"ocr.retry_delay_seconds": c.OCR.RetryDelaySeconds,
	})
}

func (c *Config) validateRunner() error {
	if c.Runner.Jobs < 1 {
		return errors.New("runner.jobs must be at least 1")
	}
	return nil
}

func (c *Config) validateReader() error {
	size := c.Reader.FontSize
	if size != "auto" {
		if _, err := strconv.Atoi(size); err != nil {
			return fmt.Errorf("reader.font_size must be %q or a number, got %q", "auto", size)
		}
	}
	if !strings.HasPrefix(c.Reader.BackgroundColor, "#") {
		return fmt.Errorf("reader.background_color must be a hex color, got %q", c.Reader.BackgroundColor)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
