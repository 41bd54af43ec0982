package overlay

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Kanjirito/mokuro/internal/natsort"
	"github.com/Kanjirito/mokuro/internal/services"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

// listPageImages returns the volume's page image names (relative to the
// volume directory) in natural reading order. Hidden files and anything
// without a recognized image extension are skipped; subdirectories are never
// descended into.
func listPageImages(volumePath string) ([]string, error) {
	entries, err := os.ReadDir(volumePath)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "overlay", "scan volume", fmt.Sprintf("Failed to list images in %s", volumePath), err)
	}
	var pages []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if !imageExtensions[strings.ToLower(filepath.Ext(name))] {
			continue
		}
		pages = append(pages, name)
	}
	natsort.Strings(pages)
	return pages, nil
}

// pageStem strips the image extension, giving the sidecar base name.
func pageStem(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
