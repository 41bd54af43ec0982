package ocr

import (
	"unicode/utf8"

	"golang.org/x/text/width"
)

// Block is one detected text region on a page, in image pixel coordinates.
type Block struct {
	Box         [4]int        `json:"box"`
	Vertical    bool          `json:"vertical"`
	FontSize    float64       `json:"font_size"`
	LinesCoords [][][]float64 `json:"lines_coords,omitempty"`
	Lines       []string      `json:"lines"`
}

// PageResult is the OCR output for one page image. The same shape is cached
// on disk as the per-page sidecar JSON.
type PageResult struct {
	Version   string  `json:"version"`
	ImgWidth  int     `json:"img_width"`
	ImgHeight int     `json:"img_height"`
	Blocks    []Block `json:"blocks"`
}

// CharCount returns the total number of characters across all lines.
func (p *PageResult) CharCount() int {
	total := 0
	for _, block := range p.Blocks {
		for _, line := range block.Lines {
			total += utf8.RuneCountInString(line)
		}
	}
	return total
}

// foldLines rewrites half-width katakana and full-width latin to their
// canonical width forms.
func (p *PageResult) foldLines() {
	for bi := range p.Blocks {
		lines := p.Blocks[bi].Lines
		for li := range lines {
			lines[li] = width.Fold.String(lines[li])
		}
	}
}
