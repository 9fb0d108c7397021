package export

import (
	"fmt"
	"math"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

const (
	manifestSheets     = "Sheets"
	manifestPlacements = "Placements"
	manifestRejected   = "Rejected"
)

// ExportManifest writes an .xlsx workbook listing every sheet and every
// stamp placement of the report, in pixels and millimetres.
func ExportManifest(path string, report Report) error {
	if len(report.Sheets) == 0 {
		return fmt.Errorf("no sheets to export")
	}
	ppm := report.Settings.PixelsPerMM
	if ppm <= 0 {
		return fmt.Errorf("pixels per mm must be > 0, got %g", ppm)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), manifestSheets); err != nil {
		return err
	}
	if _, err := f.NewSheet(manifestPlacements); err != nil {
		return err
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E6E6E6"}},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	sheetRows := [][]any{{"Sheet", "ID", "File", "Strategy", "Collection", "Canvas W", "Canvas H", "Rows", "Stamps", "Fill %", "Created"}}
	placementRows := [][]any{{"Sheet", "File", "Stamp", "X px", "Y px", "W px", "H px", "X mm", "Y mm", "W mm", "H mm"}}

	for i, sheet := range report.Sheets {
		file := filepath.Base(sheet.Path)
		sheetRows = append(sheetRows, []any{
			i + 1, sheet.ID, file, string(sheet.Strategy), sheet.Collection,
			sheet.Canvas.Width, sheet.Canvas.Height, sheet.Rows, len(sheet.Placements),
			round1(sheet.Efficiency()), sheet.CreatedAt.Format("2006-01-02 15:04:05"),
		})
		for _, p := range sheet.Placements {
			placementRows = append(placementRows, []any{
				i + 1, file, p.StampID, p.X, p.Y, p.Width, p.Height,
				round1(float64(p.X) / ppm), round1(float64(p.Y) / ppm),
				round1(float64(p.Width) / ppm), round1(float64(p.Height) / ppm),
			})
		}
	}

	if err := writeRows(f, manifestSheets, sheetRows, header); err != nil {
		return err
	}
	if err := writeRows(f, manifestPlacements, placementRows, header); err != nil {
		return err
	}

	if len(report.Rejected) > 0 {
		if _, err := f.NewSheet(manifestRejected); err != nil {
			return err
		}
		rows := [][]any{{"Stamp", "Reason"}}
		for _, id := range report.Rejected {
			rows = append(rows, []any{id, "too large for the paper"})
		}
		if err := writeRows(f, manifestRejected, rows, header); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save manifest: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	if len(rows) == 0 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, headerStyle)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
