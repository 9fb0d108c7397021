// Package raster holds the pixel primitives used by the layout engine:
// allocating a blank sheet, copying stamps into it, and reading or writing
// image files.
//
// Coordinates are canvas pixels with (0,0) at the top-left corner.
package raster

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/piwi3910/StampPaper/internal/model"
)

// ParseColor converts a "#RRGGBB" string into an opaque colour.
func ParseColor(hex string) (color.NRGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid background colour %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}

// NewCanvas allocates a sheet filled with the background colour.
func NewCanvas(c model.Canvas, bg color.Color) *image.NRGBA {
	return imaging.New(c.Width, c.Height, bg)
}

// Paste copies src onto dst with its top-left corner at (x, y). Pixels that
// fall outside dst are clipped. dst is modified in place.
func Paste(dst draw.Image, src image.Image, x, y int) {
	b := src.Bounds()
	r := image.Rect(x, y, x+b.Dx(), y+b.Dy())
	draw.Draw(dst, r, src, b.Min, draw.Over)
}

// Load reads a stamp image from disk, honouring EXIF orientation.
func Load(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to load image %s: %w", path, err)
	}
	return img, nil
}

// SaveJPEG writes img to path as a JPEG with the given quality.
func SaveJPEG(img image.Image, path string, quality int) error {
	return imaging.Save(img, path, imaging.JPEGQuality(quality))
}

// EncodeJPEG writes img to w as a JPEG with the given quality.
func EncodeJPEG(w io.Writer, img image.Image, quality int) error {
	return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
}
