// Package report exports a transcription run as a spreadsheet.
package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
	"podcast-insights-go/internal/logger"
	"podcast-insights-go/internal/pipeline"
)

const (
	FilesSheet   = "files"
	SummarySheet = "summary"
)

var fileHeader = []any{"File", "Key", "Status", "Segments", "Language", "Audio (s)", "Elapsed (s)", "Output", "Error"}

// WriteXLSX saves one row per input file plus a status summary sheet.
func WriteXLSX(path string, r pipeline.Report, log *logger.Logger) error {
	if log == nil {
		log = logger.Discard()
	}
	log = log.Component("report").With("path", path)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", FilesSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	if err := f.SetSheetRow(FilesSheet, "A1", &fileHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, res := range r.Files {
		errText := ""
		if res.Err != nil {
			errText = res.Err.Error()
		}
		row := []any{
			res.Path,
			res.Key,
			string(res.Status),
			res.Segments,
			res.Language,
			res.Audio.Seconds(),
			res.Elapsed.Seconds(),
			res.Output,
			errText,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(FilesSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(fileHeader), 1)
	_ = f.SetCellStyle(FilesSheet, "A1", last, bold)
	_ = f.SetColWidth(FilesSheet, "A", "A", 40)
	_ = f.SetColWidth(FilesSheet, "H", "I", 50)

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("add summary sheet: %w", err)
	}
	summary := [][]any{
		{"Status", "Files"},
		{string(pipeline.StatusProcessed), r.Count(pipeline.StatusProcessed)},
		{string(pipeline.StatusSkipped), r.Count(pipeline.StatusSkipped)},
		{string(pipeline.StatusFailed), r.Count(pipeline.StatusFailed)},
		{"total", len(r.Files)},
	}
	for i, row := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}
	_ = f.SetCellStyle(SummarySheet, "A1", "B1", bold)

	if err := f.SaveAs(path); err != nil {
		log.WithError(err).Error("save failed")
		return fmt.Errorf("save report: %w", err)
	}
	log.WithField("files", len(r.Files)).Info("run report written")
	return nil
}
