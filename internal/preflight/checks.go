package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"github.com/Kanjirito/mokuro/internal/config"
	"github.com/Kanjirito/mokuro/internal/ocr"
)

// CheckOCRService verifies that the manga-ocr inference service is reachable.
// It uses a 10-second timeout and a single attempt (no retries).
func CheckOCRService(ctx context.Context, cfg config.OCR) Result {
	const name = "OCR service"

	if strings.TrimSpace(cfg.BaseURL) == "" {
		return Result{Name: name, Detail: "missing url"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client := ocr.NewClient(ocr.Config{
		BaseURL:        cfg.BaseURL,
		Model:          cfg.Model,
		ForceCPU:       cfg.ForceCPU,
		TimeoutSeconds: cfg.TimeoutSeconds,
	}, ocr.WithRetryMaxAttempts(1))

	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeOCRError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s reachable", client.BaseURL())}
}

// CheckOCRFromConfig evaluates OCR service status for display.
func CheckOCRFromConfig(cfg *config.Config) Result {
	if cfg == nil {
		return Result{Name: "OCR service", Detail: "Unknown"}
	}
	return CheckOCRService(context.Background(), cfg.OCR)
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	fail := func(problem string) Result {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %s)", path, problem)}
	}

	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		return fail("does not exist")
	case err != nil:
		return fail(fmt.Sprintf("stat: %v", err))
	case !info.IsDir():
		return fail("is not a directory")
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return fail(fmt.Sprintf("insufficient permissions: %v", err))
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// summarizeOCRError produces a human-readable summary for OCR health check failures.
func summarizeOCRError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (OCR service unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (OCR service unreachable)"
	}
	return err.Error()
}
