// Package store writes finished sheets and live previews to the output
// directory and hands out collision-free sheet numbers.
package store

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/piwi3910/StampPaper/internal/raster"
)

var (
	sheetPattern   = regexp.MustCompile(`^StampPaper(\d+)\.jpg$`)
	picturePattern = regexp.MustCompile(`^Picture(\d+)\.jpg$`)
)

// SheetName returns the file name of flow sheet n.
func SheetName(n int) string {
	return fmt.Sprintf("StampPaper%d.jpg", n)
}

// PictureName returns the file name of bin packer picture n.
func PictureName(n int) string {
	return fmt.Sprintf("Picture%d.jpg", n)
}

// CollectionDir returns the directory holding the pictures of a collection.
func CollectionDir(outputDir string, collection int) string {
	return filepath.Join(outputDir, fmt.Sprintf("collection%d", collection))
}

// FileStore writes JPEG sheets below Dir.
type FileStore struct {
	Dir     string
	Quality int
}

func NewFileStore(dir string, quality int) *FileStore {
	return &FileStore{Dir: dir, Quality: quality}
}

// NextSheetIndex scans Dir for StampPaper{N}.jpg and returns max(N)+1, or 0
// when there is none. Files that do not match the pattern are ignored.
func (s *FileStore) NextSheetIndex() (int, error) {
	return nextIndex(s.Dir, sheetPattern)
}

// NextPictureIndex does the same as NextSheetIndex for Picture{N}.jpg files
// of one collection.
func (s *FileStore) NextPictureIndex(collection int) (int, error) {
	return nextIndex(CollectionDir(s.Dir, collection), picturePattern)
}

// WriteSheet writes img as the next StampPaper{N}.jpg and returns its path
// and index. The directory is rescanned on every call so that sheets written
// by earlier runs are never overwritten.
func (s *FileStore) WriteSheet(img image.Image) (string, int, error) {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return "", 0, fmt.Errorf("failed to create output directory: %w", err)
	}
	idx, err := s.NextSheetIndex()
	if err != nil {
		return "", 0, err
	}
	path := filepath.Join(s.Dir, SheetName(idx))
	if err := raster.SaveJPEG(img, path, s.Quality); err != nil {
		return "", 0, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, idx, nil
}

// WritePicture writes img to collection{c}/Picture{n}.jpg, replacing any
// previous attempt at the same path.
func (s *FileStore) WritePicture(collection, picture int, img image.Image) (string, error) {
	dir := CollectionDir(s.Dir, collection)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create collection directory: %w", err)
	}
	path := filepath.Join(dir, PictureName(picture))
	if err := raster.SaveJPEG(img, path, s.Quality); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

func nextIndex(dir string, pattern *regexp.Regexp) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	next := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := pattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue // overflowing digit runs
		}
		if n+1 > next {
			next = n + 1
		}
	}
	return next, nil
}
