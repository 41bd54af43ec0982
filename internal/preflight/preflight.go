package preflight

import (
	"context"
	"fmt"

	"github.com/Kanjirito/mokuro/internal/config"
	"github.com/Kanjirito/mokuro/internal/volume"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Failures filters results down to the checks that did not pass.
func Failures(results []Result) []Result {
	var failed []Result
	for _, result := range results {
		if !result.Passed {
			failed = append(failed, result)
		}
	}
	return failed
}

// RunAll executes the checks a batch run depends on: the data directory,
// write access to every volume in the working set, and the OCR service when
// inference is enabled.
func RunAll(ctx context.Context, cfg *config.Config, volumes []string, ocrEnabled bool) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Data directory", cfg.Paths.DataDir))

	for _, path := range volumes {
		name := fmt.Sprintf("Volume %s", volume.Name(path))
		results = append(results, CheckDirectoryAccess(name, path))
	}

	if ocrEnabled {
		results = append(results, CheckOCRService(ctx, cfg.OCR))
	}

	return results
}
