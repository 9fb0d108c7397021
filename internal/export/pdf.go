// Package export turns finished sheets into print and archive documents:
// a print-ready PDF, QR-coded stamp labels and a spreadsheet manifest.
package export

import (
	"bytes"
	"fmt"
	"image/color"
	"path/filepath"

	"github.com/go-pdf/fpdf"

	"github.com/piwi3910/StampPaper/internal/model"
	"github.com/piwi3910/StampPaper/internal/raster"
)

// Report is the batch of sheets written by one layout run.
type Report struct {
	Settings model.Settings
	Sheets   []model.SheetResult
	Rejected []string // IDs of stamps too large for the paper
}

// StampCount returns the number of stamps placed across all sheets.
func (r Report) StampCount() int {
	total := 0
	for _, s := range r.Sheets {
		total += len(s.Placements)
	}
	return total
}

// AverageFill returns the mean fill percentage of the sheets.
func (r Report) AverageFill() float64 {
	if len(r.Sheets) == 0 {
		return 0
	}
	var sum float64
	for _, s := range r.Sheets {
		sum += s.Efficiency()
	}
	return sum / float64(len(r.Sheets))
}

// Summary page layout (A4 portrait in mm).
const (
	pageWidth    = 210.0
	pageHeight   = 297.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
)

// pdfJPEGQuality is used for the page images; the sheet JPEGs on disk keep
// the configured quality.
const pdfJPEGQuality = 92

// ExportPDF writes one page per sheet at the physical paper size, the sheet
// raster covering the whole page, followed by an A4 summary page.
func ExportPDF(path string, report Report) error {
	if len(report.Sheets) == 0 {
		return fmt.Errorf("no sheets to export")
	}
	bg, err := raster.ParseColor(report.Settings.Background)
	if err != nil {
		return err
	}

	s := report.Settings
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: s.PaperWidth, Ht: s.PaperHeight},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle("Stamp sheets", true)

	for i, sheet := range report.Sheets {
		pdf.AddPage()
		if err := renderSheetPage(pdf, sheet, s, bg, i); err != nil {
			return fmt.Errorf("failed to render sheet %d: %w", i+1, err)
		}
	}

	pdf.AddPageFormat("P", fpdf.SizeType{Wd: pageWidth, Ht: pageHeight})
	renderSummaryPage(pdf, report)

	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}

// renderSheetPage composites the placements again and embeds the result, so
// the PDF does not depend on the JPEG files still being on disk.
func renderSheetPage(pdf *fpdf.Fpdf, sheet model.SheetResult, s model.Settings, bg color.Color, n int) error {
	canvas := raster.NewCanvas(sheet.Canvas, bg)
	for _, it := range sheet.Placements {
		if it.Image != nil {
			raster.Paste(canvas, it.Image, it.X, it.Y)
		}
	}

	var buf bytes.Buffer
	if err := raster.EncodeJPEG(&buf, canvas, pdfJPEGQuality); err != nil {
		return err
	}

	name := fmt.Sprintf("sheet_%d_%s", n, sheet.ID)
	opts := fpdf.ImageOptions{ImageType: "JPG"}
	pdf.RegisterImageOptionsReader(name, opts, &buf)
	pdf.ImageOptions(name, 0, 0, s.PaperWidth, s.PaperHeight, false, opts, 0, "")
	return pdf.Error()
}

// renderSummaryPage draws the final summary page with overall statistics.
func renderSummaryPage(pdf *fpdf.Fpdf, report Report) {
	s := report.Settings

	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, "Stamp Sheet Summary", "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	y := marginTop + 18

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Overall Statistics", "", 0, "L", false, 0, "")
	y += 9

	summaryItems := []struct {
		label string
		value string
	}{
		{"Sheets Written", fmt.Sprintf("%d", len(report.Sheets))},
		{"Stamps Placed", fmt.Sprintf("%d", report.StampCount())},
		{"Average Fill", fmt.Sprintf("%.1f%%", report.AverageFill())},
		{"Rejected Stamps", fmt.Sprintf("%d", len(report.Rejected))},
		{"Strategy", s.Strategy.String()},
		{"Paper", fmt.Sprintf("%.1f x %.1f mm @ %.2f px/mm", s.PaperWidth, s.PaperHeight, s.PixelsPerMM)},
		{"Margins", fmt.Sprintf("%.1f mm / %.1f mm", s.MarginX, s.MarginY)},
	}

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range summaryItems {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(50, 6, item.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(80, 6, item.value, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		y += 7
	}

	y += 5

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Sheet Breakdown", "", 0, "L", false, 0, "")
	y += 9

	colWidths := []float64{15, 55, 25, 20, 25, 40}
	headers := []string{"#", "File", "Canvas", "Rows", "Stamps", "Fill"}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	xPos := marginLeft
	for i, header := range headers {
		pdf.SetXY(xPos, y)
		pdf.CellFormat(colWidths[i], 6, header, "1", 0, "C", true, 0, "")
		xPos += colWidths[i]
	}
	y += 6

	pdf.SetFont("Helvetica", "", 9)
	for i, sheet := range report.Sheets {
		if y > pageHeight-marginBottom-20 {
			pdf.AddPageFormat("P", fpdf.SizeType{Wd: pageWidth, Ht: pageHeight})
			y = marginTop
		}
		rows := "-"
		if sheet.Strategy == model.StrategyFlow {
			rows = fmt.Sprintf("%d", sheet.Rows)
		}
		rowData := []string{
			fmt.Sprintf("%d", i+1),
			filepath.Base(sheet.Path),
			fmt.Sprintf("%dx%d", sheet.Canvas.Width, sheet.Canvas.Height),
			rows,
			fmt.Sprintf("%d", len(sheet.Placements)),
			fmt.Sprintf("%.1f%%", sheet.Efficiency()),
		}

		if i%2 == 0 {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}

		xPos = marginLeft
		for j, cell := range rowData {
			pdf.SetXY(xPos, y)
			pdf.CellFormat(colWidths[j], 6, cell, "1", 0, "C", true, 0, "")
			xPos += colWidths[j]
		}
		y += 6
	}

	if len(report.Rejected) > 0 {
		y += 8
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetTextColor(200, 0, 0)
		pdf.SetXY(marginLeft, y)
		pdf.CellFormat(150, 7, "WARNING: Stamps too large for the paper", "", 0, "L", false, 0, "")
		y += 8

		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(0, 0, 0)
		for _, id := range report.Rejected {
			if y > pageHeight-marginBottom-5 {
				break
			}
			pdf.SetXY(marginLeft+5, y)
			pdf.CellFormat(150, 5, "- "+id, "", 0, "L", false, 0, "")
			y += 5
		}
	}

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, "Generated by StampPaper", "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}
