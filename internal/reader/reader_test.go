package reader_test

import (
	"encoding/json"
	"testing"

	"github.com/Kanjirito/mokuro/internal/config"
	"github.com/Kanjirito/mokuro/internal/reader"
)

func TestNewMatchesCanonicalDefaults(t *testing.T) {
	d := reader.New()
	if d.PageIdx != 0 || d.Page2Idx != -1 {
		t.Fatalf("unexpected page indexes: %d %d", d.PageIdx, d.Page2Idx)
	}
	if d.DefaultZoomMode != "fit to screen" {
		t.Fatalf("unexpected zoom mode: %q", d.DefaultZoomMode)
	}
	if !d.R2L || !d.DoublePageView || !d.DisplayOCR {
		t.Fatal("unexpected toggle defaults")
	}
	if d.HasCover || d.CtrlToPan || d.TextBoxBorders || d.EditableText || d.EInkMode || d.ToggleOCRTextBoxes {
		t.Fatal("unexpected toggle defaults")
	}
	if d.FontSize != "auto" {
		t.Fatalf("unexpected font size: %q", d.FontSize)
	}
	if d.BackgroundColor != "#C4C3D0" {
		t.Fatalf("unexpected background color: %q", d.BackgroundColor)
	}
}

func TestJSONKeys(t *testing.T) {
	data, err := json.Marshal(reader.New())
	if err != nil {
		t.Fatalf("marshal defaults: %v", err)
	}
	var keys map[string]any
	if err := json.Unmarshal(data, &keys); err != nil {
		t.Fatalf("unmarshal defaults: %v", err)
	}
	want := []string{
		"page_idx", "page2_idx", "defaultZoomMode", "r2l", "doublePageView",
		"hasCover", "ctrlToPan", "displayOCR", "textBoxBorders", "editableText",
		"fontSize", "eInkMode", "toggleOCRTextBoxes", "backgroundColor",
	}
	for _, key := range want {
		if _, ok := keys[key]; !ok {
			t.Errorf("missing key %q in marshaled defaults", key)
		}
	}
	if len(keys) != len(want) {
		t.Fatalf("unexpected key count: got %d want %d", len(keys), len(want))
	}
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default().Reader
	cfg.RightToLeft = false
	cfg.EInkMode = true
	cfg.FontSize = "16"
	cfg.BackgroundColor = "#000000"

	d := reader.FromConfig(cfg)
	if d.R2L {
		t.Fatal("expected r2l override")
	}
	if !d.EInkMode {
		t.Fatal("expected eink override")
	}
	if d.FontSize != "16" {
		t.Fatalf("unexpected font size: %q", d.FontSize)
	}
	if d.BackgroundColor != "#000000" {
		t.Fatalf("unexpected background color: %q", d.BackgroundColor)
	}
	if d.Page2Idx != -1 {
		t.Fatalf("expected page2_idx to stay -1, got %d", d.Page2Idx)
	}
	if !d.DoublePageView {
		t.Fatal("expected untouched defaults to survive")
	}
}
