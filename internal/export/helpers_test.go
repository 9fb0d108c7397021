package export

import (
	"image"
	"image/color"
	"path/filepath"
	"time"

	"github.com/piwi3910/StampPaper/internal/model"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func placed(id string, x, y, w, h int) model.PlacedItem {
	return model.PlacedItem{
		StampID: id,
		Image:   solid(w, h, color.NRGBA{R: 180, G: 40, B: 40, A: 255}),
		X:       x, Y: y, Width: w, Height: h,
	}
}

// buildTestReport returns two small flow sheets at 2 px/mm on a 100x150 mm paper.
func buildTestReport(dir string) Report {
	s := model.DefaultSettings()
	s.PaperWidth = 100
	s.PaperHeight = 150
	s.PixelsPerMM = 2
	canvas := s.Canvas()

	first := model.NewSheetResult(model.StrategyFlow, canvas)
	first.Path = filepath.Join(dir, "StampPaper0.jpg")
	first.Rows = 2
	first.CreatedAt = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	first.Placements = []model.PlacedItem{
		placed("a1b2c3d4", 10, 20, 60, 80),
		placed("e5f6a7b8", 70, 20, 40, 80),
		placed("c9d0e1f2", 30, 150, 100, 50),
	}

	second := model.NewSheetResult(model.StrategyFlow, canvas)
	second.Index = 1
	second.Path = filepath.Join(dir, "StampPaper1.jpg")
	second.Rows = 1
	second.Placements = []model.PlacedItem{placed("0a1b2c3d", 50, 100, 100, 100)}

	return Report{
		Settings: s,
		Sheets:   []model.SheetResult{first, second},
	}
}
