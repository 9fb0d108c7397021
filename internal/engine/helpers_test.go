package engine

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/charmbracelet/log"

	"github.com/piwi3910/StampPaper/internal/model"
)

var white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

// testSettings returns a 1 px/mm sheet so millimetres read as pixels.
func testSettings(w, h, marginX, marginY float64) model.Settings {
	s := model.DefaultSettings()
	s.PaperWidth = w
	s.PaperHeight = h
	s.PixelsPerMM = 1
	s.MarginX = marginX
	s.MarginY = marginY
	s.Background = "#FFFFFF"
	return s
}

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func stamp(id string, w, h int) model.Stamp {
	return model.Stamp{ID: id, Image: solid(w, h, color.NRGBA{R: 200, A: 255})}
}

func colorStamp(id string, w, h int, c color.NRGBA) model.Stamp {
	return model.Stamp{ID: id, Image: solid(w, h, c)}
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

// fakeStore keeps written images in memory and can be told to fail.
type fakeStore struct {
	fail        bool
	sheets      []*image.NRGBA
	pictures    map[string]*image.NRGBA
	lastPicture *image.NRGBA
	nextPicture int
}

func newFakeStore() *fakeStore {
	return &fakeStore{pictures: make(map[string]*image.NRGBA)}
}

func (f *fakeStore) WriteSheet(img image.Image) (string, int, error) {
	if f.fail {
		return "", 0, errors.New("disk full")
	}
	f.sheets = append(f.sheets, img.(*image.NRGBA))
	idx := len(f.sheets) - 1
	return fmt.Sprintf("out/StampPaper%d.jpg", idx), idx, nil
}

func (f *fakeStore) WritePicture(collection, picture int, img image.Image) (string, error) {
	if f.fail {
		return "", errors.New("disk full")
	}
	path := fmt.Sprintf("out/collection%d/Picture%d.jpg", collection, picture)
	f.pictures[path] = img.(*image.NRGBA)
	f.lastPicture = img.(*image.NRGBA)
	return path, nil
}

func (f *fakeStore) NextPictureIndex(int) (int, error) {
	if f.fail {
		return 0, errors.New("disk gone")
	}
	return f.nextPicture, nil
}
