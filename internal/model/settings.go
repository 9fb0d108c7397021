package model

import (
	"errors"
	"fmt"
)

// Settings holds the paper format and layout configuration. It is read once
// when a packer is constructed.
type Settings struct {
	Strategy Strategy `json:"strategy" toml:"strategy"`

	// Physical paper
	PaperWidth  float64 `json:"paper_width" toml:"paper_width"`     // mm
	PaperHeight float64 `json:"paper_height" toml:"paper_height"`   // mm
	PixelsPerMM float64 `json:"pixels_per_mm" toml:"pixels_per_mm"` // raster scale

	// Minimum gaps
	MarginX float64 `json:"margin_x" toml:"margin_x"` // mm, horizontal slack left in every row
	MarginY float64 `json:"margin_y" toml:"margin_y"` // mm, vertical slack per row

	// Output
	Background  string `json:"background" toml:"background"`     // hex colour of the blank sheet
	JPEGQuality int    `json:"jpeg_quality" toml:"jpeg_quality"` // 1-100
	OutputDir   string `json:"output_dir" toml:"output_dir"`
	Collection  int    `json:"collection" toml:"collection"` // bin packer collection{N} directory
}

func DefaultSettings() Settings {
	return Settings{
		Strategy:    StrategyFlow,
		PaperWidth:  210.0, // A4 portrait
		PaperHeight: 297.0,
		PixelsPerMM: 11.811, // 300 dpi
		MarginX:     4.0,
		MarginY:     2.0,
		Background:  "#FFFFFF",
		JPEGQuality: 95,
		OutputDir:   "output",
		Collection:  0,
	}
}

// Canvas returns the sheet size in pixels, truncated toward zero.
func (s Settings) Canvas() Canvas {
	return Canvas{
		Width:  int(s.PaperWidth * s.PixelsPerMM),
		Height: int(s.PaperHeight * s.PixelsPerMM),
	}
}

// MarginXPixels returns the minimum horizontal row slack in pixels.
func (s Settings) MarginXPixels() int {
	return int(s.MarginX * s.PixelsPerMM)
}

// MarginYPixels returns the per-row vertical margin in pixels.
func (s Settings) MarginYPixels() int {
	return int(s.MarginY * s.PixelsPerMM)
}

// Validate reports every problem with the settings at once.
func (s Settings) Validate() error {
	var errs []error
	if _, err := ParseStrategy(string(s.Strategy)); err != nil {
		errs = append(errs, err)
	}
	if s.PaperWidth <= 0 || s.PaperHeight <= 0 {
		errs = append(errs, fmt.Errorf("paper size must be > 0, got %.1fx%.1f mm", s.PaperWidth, s.PaperHeight))
	}
	if s.PixelsPerMM <= 0 {
		errs = append(errs, fmt.Errorf("pixels per mm must be > 0, got %g", s.PixelsPerMM))
	}
	if s.MarginX < 0 || s.MarginY < 0 {
		errs = append(errs, fmt.Errorf("margins must not be negative"))
	}
	c := s.Canvas()
	if c.Width <= s.MarginXPixels() || c.Height <= 2*s.MarginYPixels() {
		errs = append(errs, fmt.Errorf("margins leave no usable area on a %dx%d px canvas", c.Width, c.Height))
	}
	if s.JPEGQuality < 1 || s.JPEGQuality > 100 {
		errs = append(errs, fmt.Errorf("jpeg quality must be between 1 and 100, got %d", s.JPEGQuality))
	}
	if s.OutputDir == "" {
		errs = append(errs, fmt.Errorf("output dir must be set"))
	}
	if s.Collection < 0 {
		errs = append(errs, fmt.Errorf("collection must not be negative"))
	}
	return errors.Join(errs...)
}
