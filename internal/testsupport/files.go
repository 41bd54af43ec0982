package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/Kanjirito/mokuro/internal/ocr"
)

// WriteVolume creates a volume directory under parent populated with the
// given page image names and returns its path.
func WriteVolume(t testing.TB, parent, name string, pages ...string) string {
	t.Helper()

	dir := filepath.Join(parent, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir volume %s: %v", dir, err)
	}
	for _, page := range pages {
		target := filepath.Join(dir, page)
		if err := os.WriteFile(target, []byte("fake image bytes"), 0o644); err != nil {
			t.Fatalf("write page %s: %v", target, err)
		}
	}
	return dir
}

// WriteSidecar persists a cached OCR result for one page of a volume, the
// way a previous run would have left it. Sidecars live in the _ocr directory
// next to the volume, under a subdirectory named after the volume.
func WriteSidecar(t testing.TB, volumeDir, stem string, result ocr.PageResult) {
	t.Helper()

	ocrDir := filepath.Join(filepath.Dir(volumeDir), "_ocr", filepath.Base(volumeDir))
	if err := os.MkdirAll(ocrDir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", ocrDir, err)
	}
	data, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("marshal sidecar: %v", err)
	}
	target := filepath.Join(ocrDir, stem+".json")
	if err := os.WriteFile(target, data, 0o644); err != nil {
		t.Fatalf("write sidecar %s: %v", target, err)
	}
}
