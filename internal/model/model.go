package model

import (
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"
)

// Strategy selects the sheet layout algorithm.
type Strategy string

const (
	StrategyFlow    Strategy = "flow"    // Greedy row flow with vertical justification
	StrategyBinPack Strategy = "binpack" // Incremental re-solve with the rectangle packer
)

func (s Strategy) String() string {
	switch s {
	case StrategyBinPack:
		return "Incremental Bin Packer"
	default:
		return "Flow-Row Packer"
	}
}

// Strategies lists every supported strategy in display order.
var Strategies = []Strategy{StrategyFlow, StrategyBinPack}

// ParseStrategy resolves a strategy name as written in config files and flags.
func ParseStrategy(name string) (Strategy, error) {
	for _, s := range Strategies {
		if string(s) == name {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown strategy %q (want flow or binpack)", name)
}

// Status is the answer returned to the controller after each submission.
// The string values double as the commands sent back to the rig.
type Status string

const (
	StatusRetry    Status = "retry"    // Keep accumulating
	StatusComplete Status = "complete" // A sheet was finalized and written
)

// Canvas is the pixel area of one physical paper sheet.
type Canvas struct {
	Width  int `json:"width"`  // px
	Height int `json:"height"` // px
}

// Area returns the canvas area in square pixels.
func (c Canvas) Area() int {
	return c.Width * c.Height
}

// Stamp is one accepted stamp image. The engine keeps a reference to Image
// until the sheet holding it is written; it never copies the pixels.
type Stamp struct {
	ID    string      `json:"id"`
	Image image.Image `json:"-"`
}

func NewStamp(img image.Image) Stamp {
	return Stamp{
		ID:    uuid.New().String()[:8],
		Image: img,
	}
}

// Width returns the stamp width in pixels, 0 when there is no image.
func (s Stamp) Width() int {
	if s.Image == nil {
		return 0
	}
	return s.Image.Bounds().Dx()
}

// Height returns the stamp height in pixels, 0 when there is no image.
func (s Stamp) Height() int {
	if s.Image == nil {
		return 0
	}
	return s.Image.Bounds().Dy()
}

// PlacedItem is a stamp composited onto a finished sheet.
type PlacedItem struct {
	StampID string      `json:"stamp_id"`
	Image   image.Image `json:"-"`
	X       int         `json:"x"` // px from left edge
	Y       int         `json:"y"` // px from top edge
	Width   int         `json:"width"`
	Height  int         `json:"height"`
}

// Bounds returns the item rectangle in canvas coordinates.
func (p PlacedItem) Bounds() image.Rectangle {
	return image.Rect(p.X, p.Y, p.X+p.Width, p.Y+p.Height)
}

// SheetResult describes one written sheet.
type SheetResult struct {
	ID         string       `json:"id"`
	Index      int          `json:"index"` // StampPaper{Index} or Picture{Index}
	Collection int          `json:"collection"`
	Path       string       `json:"path"`
	Strategy   Strategy     `json:"strategy"`
	Canvas     Canvas       `json:"canvas"`
	Rows       int          `json:"rows,omitempty"` // flow only
	Placements []PlacedItem `json:"placements"`
	CreatedAt  time.Time    `json:"created_at"`
}

func NewSheetResult(strategy Strategy, canvas Canvas) SheetResult {
	return SheetResult{
		ID:        uuid.New().String()[:8],
		Strategy:  strategy,
		Canvas:    canvas,
		CreatedAt: time.Now().UTC(),
	}
}

// UsedArea returns the total area covered by placed stamps.
func (sr SheetResult) UsedArea() int {
	var total int
	for _, p := range sr.Placements {
		total += p.Width * p.Height
	}
	return total
}

// TotalArea returns the canvas area.
func (sr SheetResult) TotalArea() int {
	return sr.Canvas.Area()
}

// Efficiency returns the fill percentage of the sheet.
func (sr SheetResult) Efficiency() float64 {
	ta := sr.TotalArea()
	if ta == 0 {
		return 0
	}
	return float64(sr.UsedArea()) / float64(ta) * 100.0
}
