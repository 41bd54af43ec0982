package overlay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Kanjirito/mokuro/internal/fileutil"
	"github.com/Kanjirito/mokuro/internal/logging"
	"github.com/Kanjirito/mokuro/internal/ocr"
	"github.com/Kanjirito/mokuro/internal/reader"
	"github.com/Kanjirito/mokuro/internal/services"
	"github.com/Kanjirito/mokuro/internal/volume"
)

// PageRecognizer is the slice of the OCR client the generator needs.
type PageRecognizer interface {
	RecognizePage(ctx context.Context, imagePath string) (*ocr.PageResult, error)
}

// Options fixes the run-level behavior shared by every volume.
type Options struct {
	// DisableOCR synthesizes empty results for uncached pages instead of
	// calling the inference service. Cached sidecars are still reused.
	DisableOCR bool
	// AsOneFile embeds page data in the artifact. When false the artifact
	// carries img_path entries only and the sidecars stay authoritative.
	AsOneFile bool
	// Reader is embedded in every artifact as default_state.
	Reader reader.Defaults
	// Progress, when set, is invoked after each finished page with the
	// volume path, the 1-based page number, and the page total. It must
	// tolerate concurrent calls when volumes run in parallel.
	Progress func(volumePath string, page, total int)
}

// Generator produces overlay artifacts one volume directory at a time.
type Generator struct {
	client PageRecognizer
	logger *slog.Logger
	opts   Options
}

// New builds a generator with the run's fixed options.
func New(client PageRecognizer, logger *slog.Logger, opts Options) *Generator {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "overlay")
	if opts.DisableOCR {
		logger.Info("running with OCR disabled")
	}
	return &Generator{client: client, logger: logger, opts: opts}
}

// Process generates the overlay artifact for one volume directory and
// reports how many pages completed. An error covers this volume only; the
// caller decides whether the batch continues.
func (g *Generator) Process(ctx context.Context, volumePath string) (int, error) {
	log := logging.WithContext(ctx, g.logger)

	info, err := os.Stat(volumePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, services.Wrap(services.ErrNotFound, "overlay", "stat volume", fmt.Sprintf("Volume directory %s not found", volumePath), err)
		}
		return 0, services.Wrap(services.ErrValidation, "overlay", "stat volume", fmt.Sprintf("Failed to inspect %s", volumePath), err)
	}
	if !info.IsDir() {
		return 0, services.Wrap(services.ErrValidation, "overlay", "stat volume", fmt.Sprintf("%s is not a directory", volumePath), nil)
	}

	pages, err := listPageImages(volumePath)
	if err != nil {
		return 0, err
	}
	if len(pages) == 0 {
		return 0, services.Wrap(services.ErrValidation, "overlay", "scan volume", fmt.Sprintf("No page images in %s", volumePath), nil)
	}

	ocrDir := filepath.Join(filepath.Dir(volumePath), volume.OCRDirName, volume.Name(volumePath))
	if err := fileutil.EnsureDir(ocrDir); err != nil {
		return 0, services.Wrap(services.ErrTransient, "overlay", "prepare sidecars", "Failed to create sidecar directory", err)
	}

	results := make([]*ocr.PageResult, len(pages))
	done := 0
	for i, page := range pages {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		result, err := g.processPage(ctx, log, volumePath, ocrDir, page)
		if err != nil {
			return done, err
		}
		results[i] = result
		done++
		if g.opts.Progress != nil {
			g.opts.Progress(volumePath, done, len(pages))
		}
	}

	artifact, err := g.assembleArtifact(volumePath, pages, results)
	if err != nil {
		return done, err
	}
	target := ArtifactPath(volumePath)
	if err := fileutil.WriteJSONAtomic(target, artifact); err != nil {
		return done, services.Wrap(services.ErrTransient, "overlay", "persist artifact", fmt.Sprintf("Failed to write %s", target), err)
	}
	log.Debug("artifact written",
		logging.String("artifact", target),
		logging.Int("pages", len(pages)),
		logging.Int("chars", artifact.Chars))
	return done, nil
}

// processPage returns the OCR result for one page, preferring the cached
// sidecar and writing a fresh sidecar when the result had to be produced.
func (g *Generator) processPage(ctx context.Context, log *slog.Logger, volumePath, ocrDir, page string) (*ocr.PageResult, error) {
	sidecar := filepath.Join(ocrDir, pageStem(page)+".json")

	cached, err := readSidecar(sidecar)
	if err == nil {
		log.Debug("reusing cached ocr result", logging.String(logging.FieldPage, page))
		return cached, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, services.Wrap(services.ErrValidation, "overlay", "cache read", fmt.Sprintf("Invalid cached result for %s", page), err)
	}

	var result *ocr.PageResult
	if g.opts.DisableOCR {
		result = &ocr.PageResult{Version: FormatVersion, Blocks: []ocr.Block{}}
	} else {
		result, err = g.client.RecognizePage(ctx, filepath.Join(volumePath, page))
		if err != nil {
			return nil, err
		}
		result.Version = FormatVersion
	}
	if err := fileutil.WriteJSONAtomic(sidecar, result); err != nil {
		return nil, services.Wrap(services.ErrTransient, "overlay", "persist sidecar", fmt.Sprintf("Failed to write result for %s", page), err)
	}
	return result, nil
}

func (g *Generator) assembleArtifact(volumePath string, pageNames []string, results []*ocr.PageResult) (*Artifact, error) {
	parent := filepath.Dir(volumePath)
	titleID, err := titleUUID(parent)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "overlay", "persist title uuid", "Failed to persist title identifier", err)
	}
	chars := 0
	pages := make([]Page, len(pageNames))
	for i, name := range pageNames {
		chars += results[i].CharCount()
		page := Page{ImgPath: name}
		if g.opts.AsOneFile {
			page.PageResult = results[i]
		}
		pages[i] = page
	}
	return &Artifact{
		Version:      FormatVersion,
		Title:        filepath.Base(parent),
		TitleUUID:    titleID,
		Volume:       volume.Name(volumePath),
		VolumeUUID:   volumeUUID(ArtifactPath(volumePath)),
		DefaultState: g.opts.Reader,
		Chars:        chars,
		Pages:        pages,
	}, nil
}

func readSidecar(path string) (*ocr.PageResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var result ocr.PageResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode sidecar %s: %w", filepath.Base(path), err)
	}
	return &result, nil
}
