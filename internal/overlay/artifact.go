package overlay

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/Kanjirito/mokuro/internal/fileutil"
	"github.com/Kanjirito/mokuro/internal/ocr"
	"github.com/Kanjirito/mokuro/internal/reader"
	"github.com/Kanjirito/mokuro/internal/volume"
)

// FormatVersion tags page sidecars and volume artifacts.
const FormatVersion = "0.2.1"

// titleUUIDFile persists the series identifier inside the parent's _ocr
// directory so every volume of a title shares it across runs.
const titleUUIDFile = ".title_uuid"

// Page is one page entry in a volume artifact. When page data is not
// embedded the entry carries only img_path and the sidecar stays
// authoritative; the nil embedded result marshals to nothing.
type Page struct {
	*ocr.PageResult
	ImgPath string `json:"img_path"`
}

// Artifact is the volume-level overlay document written next to the volume
// directory as <volume>.mokuro.
type Artifact struct {
	Version      string          `json:"version"`
	Title        string          `json:"title"`
	TitleUUID    string          `json:"title_uuid"`
	Volume       string          `json:"volume"`
	VolumeUUID   string          `json:"volume_uuid"`
	DefaultState reader.Defaults `json:"default_state"`
	Chars        int             `json:"chars"`
	Pages        []Page          `json:"pages"`
}

// ArtifactPath returns where the volume's .mokuro document lives.
func ArtifactPath(volumePath string) string {
	return filepath.Join(filepath.Dir(volumePath), volume.Name(volumePath)+".mokuro")
}

// titleUUID returns the stable series identifier for the parent directory,
// minting and persisting one on first use. The parent's _ocr directory must
// already exist.
func titleUUID(parentDir string) (string, error) {
	path := filepath.Join(parentDir, volume.OCRDirName, titleUUIDFile)
	data, err := os.ReadFile(path)
	if err == nil {
		if id := strings.TrimSpace(string(data)); id != "" {
			return id, nil
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}
	id := uuid.New().String()
	if err := fileutil.WriteFileAtomic(path, []byte(id+"\n"), 0o644); err != nil {
		return "", err
	}
	return id, nil
}

// volumeUUID keeps a volume's identifier stable across re-runs by reading it
// back from an existing artifact; a missing or unreadable artifact mints a
// fresh one.
func volumeUUID(artifactPath string) string {
	data, err := os.ReadFile(artifactPath)
	if err != nil {
		return uuid.New().String()
	}
	var existing struct {
		VolumeUUID string `json:"volume_uuid"`
	}
	if err := json.Unmarshal(data, &existing); err != nil || strings.TrimSpace(existing.VolumeUUID) == "" {
		return uuid.New().String()
	}
	return existing.VolumeUUID
}
