package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/piwi3910/StampPaper/internal/model"
)

// LabelInfo holds the data encoded into each stamp label's QR code. It tells
// where a stamp ended up once the sheets are printed and filed.
type LabelInfo struct {
	StampID    string  `json:"stamp"`
	Width      float64 `json:"width_mm"`
	Height     float64 `json:"height_mm"`
	SheetIndex int     `json:"sheet"`
	SheetID    string  `json:"sheet_id"`
	SheetFile  string  `json:"file"`
	Collection int     `json:"collection,omitempty"`
	X          float64 `json:"x_mm"` // from the left paper edge
	Y          float64 `json:"y_mm"` // from the top paper edge
}

// Label layout constants for Avery 5160-compatible labels (3 columns, 10 rows per page).
// Each label cell is approximately 66.7mm x 25.4mm on US Letter paper.
const (
	labelMarginTop  = 12.7 // mm
	labelMarginLeft = 4.8  // mm
	labelWidth      = 66.7 // mm per label
	labelHeight     = 25.4 // mm per label
	labelCols       = 3
	labelRows       = 10
	labelsPerPage   = labelCols * labelRows
	qrSize          = 20.0 // QR code size in mm
	labelPadding    = 2.0  // mm internal padding
)

// ExportLabels generates a PDF of QR-coded labels, one per placed stamp,
// on a standard label sheet (Avery 5160 / 3 columns x 10 rows on US Letter).
// Positions are converted to millimetres with pixelsPerMM.
func ExportLabels(path string, sheets []model.SheetResult, pixelsPerMM float64) error {
	if len(sheets) == 0 {
		return fmt.Errorf("no sheets to generate labels for")
	}
	if pixelsPerMM <= 0 {
		return fmt.Errorf("pixels per mm must be > 0, got %g", pixelsPerMM)
	}

	labels := CollectLabelInfos(sheets, pixelsPerMM)
	if len(labels) == 0 {
		return fmt.Errorf("no stamps placed to generate labels for")
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)

	for i, label := range labels {
		// New page every labelsPerPage labels
		if i%labelsPerPage == 0 {
			pdf.AddPage()
		}

		posOnPage := i % labelsPerPage
		col := posOnPage % labelCols
		row := posOnPage / labelCols

		x := labelMarginLeft + float64(col)*labelWidth
		y := labelMarginTop + float64(row)*labelHeight

		if err := renderLabel(pdf, x, y, i, label); err != nil {
			return fmt.Errorf("failed to render label for stamp %s: %w", label.StampID, err)
		}
	}

	return pdf.OutputFileAndClose(path)
}

// renderLabel draws a single label at the given position.
func renderLabel(pdf *fpdf.Fpdf, x, y float64, n int, info LabelInfo) error {
	// Light border as a cutting guide
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, labelWidth, labelHeight, "D")

	// QR payload is the label info as JSON
	qrData, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal label info: %w", err)
	}

	// Generate QR code PNG bytes
	qrPNG, err := qrcode.Encode(string(qrData), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}

	// Image names must be unique within the document
	imgName := fmt.Sprintf("qr_%d_%s", n, info.StampID)
	pdf.RegisterImageOptionsReader(imgName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))

	// QR code on the right side of the label
	qrX := x + labelWidth - qrSize - labelPadding
	qrY := y + (labelHeight-qrSize)/2
	pdf.ImageOptions(imgName, qrX, qrY, qrSize, qrSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	// Text area (left side of label)
	textX := x + labelPadding
	textW := labelWidth - qrSize - 3*labelPadding

	// Stamp ID (bold, truncated to fit)
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(textX, y+labelPadding)
	pdf.CellFormat(textW, 4.5, truncate(pdf, "Stamp "+info.StampID, textW), "", 1, "L", false, 0, "")

	// Dimensions
	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(textX, y+labelPadding+5)
	dims := fmt.Sprintf("%.1f x %.1f mm", info.Width, info.Height)
	pdf.CellFormat(textW, 3.5, dims, "", 1, "L", false, 0, "")

	// Sheet file and position on the sheet
	pdf.SetFont("Helvetica", "", 6)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(textX, y+labelPadding+9)
	pdf.CellFormat(textW, 3, truncate(pdf, info.SheetFile, textW), "", 1, "L", false, 0, "")

	pdf.SetXY(textX, y+labelPadding+12.5)
	pos := fmt.Sprintf("@ (%.0f, %.0f) mm", info.X, info.Y)
	pdf.CellFormat(textW, 3, pos, "", 0, "L", false, 0, "")

	// Reset text color
	pdf.SetTextColor(0, 0, 0)
	return pdf.Error()
}

// truncate shortens s with a trailing ellipsis until it fits in w mm.
func truncate(pdf *fpdf.Fpdf, s string, w float64) string {
	if pdf.GetStringWidth(s) <= w {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > w {
		s = s[:len(s)-1]
	}
	return s + "..."
}

// CollectLabelInfos extracts one label per placed stamp, in sheet order.
func CollectLabelInfos(sheets []model.SheetResult, pixelsPerMM float64) []LabelInfo {
	var labels []LabelInfo
	for i, sheet := range sheets {
		for _, p := range sheet.Placements {
			labels = append(labels, LabelInfo{
				StampID:    p.StampID,
				Width:      float64(p.Width) / pixelsPerMM,
				Height:     float64(p.Height) / pixelsPerMM,
				SheetIndex: i + 1,
				SheetID:    sheet.ID,
				SheetFile:  filepath.Base(sheet.Path),
				Collection: sheet.Collection,
				X:          float64(p.X) / pixelsPerMM,
				Y:          float64(p.Y) / pixelsPerMM,
			})
		}
	}
	return labels
}
