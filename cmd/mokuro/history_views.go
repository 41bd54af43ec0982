package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/Kanjirito/mokuro/internal/ledger"
)

const errorColumnWidth = 60

func buildRunListRows(runs []ledger.Run) [][]string {
	if len(runs) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.ID,
			humanize.Time(run.StartedAt),
			formatRunVolumes(run),
			formatRunMode(run.OCRDisabled),
			run.Model,
		})
	}
	return rows
}

func buildVolumeRows(volumes []ledger.Volume) [][]string {
	if len(volumes) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(volumes))
	for i, vol := range volumes {
		title := strings.TrimSpace(vol.Title)
		if title == "" {
			title = filepath.Base(vol.Path)
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			title,
			formatStatusLabel(string(vol.Status)),
			fmt.Sprintf("%d", vol.Pages),
			formatVolumeDuration(vol.Duration),
			truncateDetail(vol.ErrorMessage, errorColumnWidth),
		})
	}
	return rows
}

func formatRunVolumes(run ledger.Run) string {
	if !run.Finished() {
		return "running"
	}
	return fmt.Sprintf("%d/%d", run.Succeeded, run.Total)
}

func formatRunMode(ocrDisabled bool) string {
	if ocrDisabled {
		return "no-ocr"
	}
	return "ocr"
}

func formatStatusLabel(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return ""
	}
	return strings.ToUpper(status[:1]) + strings.ToLower(status[1:])
}

func formatDisplayTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04")
}

func formatVolumeDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}

// truncateDetail shortens a cell by runes; error text may carry Japanese
// from the OCR service.
func truncateDetail(value string, limit int) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "-"
	}
	runes := []rune(value)
	if limit > 3 && len(runes) > limit {
		return string(runes[:limit-3]) + "..."
	}
	return value
}
