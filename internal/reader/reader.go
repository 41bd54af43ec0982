// Package reader defines the viewer state stamped into generated volume
// artifacts. The JSON keys follow the mokuro reader format, so generated
// files stay interchangeable with artifacts produced by other tools.
package reader

import "github.com/Kanjirito/mokuro/internal/config"

// Defaults is the initial viewer state for a volume. Values are fixed at
// construction; the batch pipeline passes copies around and never mutates
// them after a run starts.
type Defaults struct {
	PageIdx            int    `json:"page_idx"`
	Page2Idx           int    `json:"page2_idx"`
	DefaultZoomMode    string `json:"defaultZoomMode"`
	R2L                bool   `json:"r2l"`
	DoublePageView     bool   `json:"doublePageView"`
	HasCover           bool   `json:"hasCover"`
	CtrlToPan          bool   `json:"ctrlToPan"`
	DisplayOCR         bool   `json:"displayOCR"`
	TextBoxBorders     bool   `json:"textBoxBorders"`
	EditableText       bool   `json:"editableText"`
	FontSize           string `json:"fontSize"`
	EInkMode           bool   `json:"eInkMode"`
	ToggleOCRTextBoxes bool   `json:"toggleOCRTextBoxes"`
	BackgroundColor    string `json:"backgroundColor"`
}

// New returns the canonical viewer defaults.
func New() Defaults {
	return Defaults{
		PageIdx:         0,
		Page2Idx:        -1,
		DefaultZoomMode: "fit to screen",
		R2L:             true,
		DoublePageView:  true,
		DisplayOCR:      true,
		FontSize:        "auto",
		BackgroundColor: "#C4C3D0",
	}
}

// FromConfig builds viewer defaults from the reader configuration section.
func FromConfig(cfg config.Reader) Defaults {
	d := New()
	d.DefaultZoomMode = cfg.DefaultZoomMode
	d.R2L = cfg.RightToLeft
	d.DoublePageView = cfg.DoublePageView
	d.HasCover = cfg.HasCover
	d.CtrlToPan = cfg.CtrlToPan
	d.DisplayOCR = cfg.DisplayOCR
	d.TextBoxBorders = cfg.TextBoxBorders
	d.EditableText = cfg.EditableText
	d.FontSize = cfg.FontSize
	d.EInkMode = cfg.EInkMode
	d.ToggleOCRTextBoxes = cfg.ToggleOCRTextBoxes
	d.BackgroundColor = cfg.BackgroundColor
	return d
}
