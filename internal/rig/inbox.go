package rig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/piwi3910/StampPaper/internal/model"
	"github.com/piwi3910/StampPaper/internal/raster"
)

// ErrInboxEmpty is returned by Inbox.Next when no image is waiting.
var ErrInboxEmpty = errors.New("inbox is empty")

// ProcessedDir is the subdirectory consumed images are moved to.
const ProcessedDir = "processed"

var imageExts = []string{".jpg", ".jpeg", ".png", ".bmp", ".tif", ".tiff", ".gif"}

// IsImage reports whether path has an image file extension.
func IsImage(path string) bool {
	return slices.Contains(imageExts, strings.ToLower(filepath.Ext(path)))
}

// Inbox is a directory the vision side drops front-side stamp crops into.
// Images are consumed oldest name first.
type Inbox struct {
	Dir string
}

// Next loads the first waiting image. The file stays in the inbox until
// Done is called with the returned path.
func (in Inbox) Next() (model.Stamp, string, error) {
	entries, err := os.ReadDir(in.Dir)
	if err != nil {
		return model.Stamp{}, "", fmt.Errorf("failed to scan inbox: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !IsImage(e.Name()) {
			continue
		}
		path := filepath.Join(in.Dir, e.Name())
		img, err := raster.Load(path)
		if err != nil {
			return model.Stamp{}, path, err
		}
		return model.NewStamp(img), path, nil
	}
	return model.Stamp{}, "", ErrInboxEmpty
}

// Done moves a consumed image out of the inbox.
func (in Inbox) Done(path string) error {
	dir := filepath.Join(in.Dir, ProcessedDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create processed directory: %w", err)
	}
	if err := os.Rename(path, filepath.Join(dir, filepath.Base(path))); err != nil {
		return fmt.Errorf("failed to move %s: %w", path, err)
	}
	return nil
}
