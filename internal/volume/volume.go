package volume

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Kanjirito/mokuro/internal/config"
	"github.com/Kanjirito/mokuro/internal/natsort"
	"github.com/Kanjirito/mokuro/internal/services"
)

// OCRDirName is the reserved sidecar directory that holds per-page OCR
// results. The parent scan never treats it as a volume.
const OCRDirName = "_ocr"

// Name returns the display name for a volume path.
func Name(path string) string {
	return filepath.Base(path)
}

// Resolve builds the working set for a run from explicit paths and an
// optional parent directory whose immediate child directories are added.
// The returned paths are absolute, deduplicated, and naturally sorted.
func Resolve(explicit []string, parentDir string) ([]string, error) {
	paths := make([]string, 0, len(explicit))
	seen := make(map[string]struct{}, len(explicit))

	add := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		paths = append(paths, path)
	}

	for _, raw := range explicit {
		expanded, err := config.ExpandPath(raw)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "resolver", "expand", fmt.Sprintf("path %q", raw), err)
		}
		add(expanded)
	}

	if strings.TrimSpace(parentDir) != "" {
		expanded, err := config.ExpandPath(parentDir)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "resolver", "expand", fmt.Sprintf("parent directory %q", parentDir), err)
		}
		entries, err := os.ReadDir(expanded)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, services.Wrap(services.ErrNotFound, "resolver", "scan", fmt.Sprintf("parent directory %q", expanded), err)
			}
			return nil, services.Wrap(services.ErrValidation, "resolver", "scan", fmt.Sprintf("parent directory %q", expanded), err)
		}
		for _, entry := range entries {
			child := filepath.Join(expanded, entry.Name())
			isDir := entry.IsDir()
			if !isDir && entry.Type()&os.ModeSymlink != 0 {
				if info, statErr := os.Stat(child); statErr == nil {
					isDir = info.IsDir()
				}
			}
			if !isDir {
				continue
			}
			if stem(entry.Name()) == OCRDirName {
				continue
			}
			add(child)
		}
	}

	natsort.Strings(paths)
	return paths, nil
}

// stem strips the final extension so the reserved sidecar name is excluded
// regardless of any suffix a copy tool may have appended.
func stem(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
