package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/piwi3910/StampPaper/internal/importer"
	"github.com/piwi3910/StampPaper/internal/model"
	"github.com/piwi3910/StampPaper/internal/raster"
	"github.com/piwi3910/StampPaper/internal/rig"
)

// imagePaths expands directories to the image files they directly contain,
// sorted by name. Files named explicitly are kept as given.
func imagePaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		var found []string
		for _, e := range entries {
			if !e.IsDir() && rig.IsImage(e.Name()) {
				found = append(found, filepath.Join(arg, e.Name()))
			}
		}
		slices.Sort(found)
		paths = append(paths, found...)
	}
	return paths, nil
}

// stampID names a stamp after its file.
func stampID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// loadStamps decodes every image path into a stamp.
func loadStamps(paths []string) ([]model.Stamp, error) {
	stamps := make([]model.Stamp, 0, len(paths))
	for _, p := range paths {
		img, err := raster.Load(p)
		if err != nil {
			return nil, err
		}
		stamps = append(stamps, model.Stamp{ID: stampID(p), Image: img})
	}
	return stamps, nil
}

// loadList reads a CSV or Excel stamp list. Extra copies of a stamp share
// its image and get "-2", "-3", ... appended to the ID.
func loadList(path string, logger *log.Logger) ([]model.Stamp, error) {
	result := importer.Import(path)
	for _, w := range result.Warnings {
		logger.Debug("stamp list", "file", path, "note", w)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("stamp list %s: %w", path, errors.New(strings.Join(result.Errors, "; ")))
	}

	stamps := make([]model.Stamp, 0, result.Total())
	for _, e := range result.Entries {
		img, err := raster.Load(e.Path)
		if err != nil {
			return nil, err
		}
		id := e.ID
		if id == "" {
			id = stampID(e.Path)
		}
		for k := 0; k < e.Copies; k++ {
			st := model.Stamp{ID: id, Image: img}
			if k > 0 {
				st.ID = fmt.Sprintf("%s-%d", id, k+1)
			}
			stamps = append(stamps, st)
		}
	}
	return stamps, nil
}

// gatherStamps loads the stamp list, if any, followed by the images named on
// the command line. Stamp IDs are unique across both.
func gatherStamps(args []string, list string, logger *log.Logger) ([]model.Stamp, error) {
	var stamps []model.Stamp
	if list != "" {
		listed, err := loadList(list, logger)
		if err != nil {
			return nil, err
		}
		stamps = append(stamps, listed...)
	}
	paths, err := imagePaths(args)
	if err != nil {
		return nil, err
	}
	loaded, err := loadStamps(paths)
	if err != nil {
		return nil, err
	}
	stamps = append(stamps, loaded...)
	if len(stamps) == 0 {
		return nil, errors.New("no stamp images given")
	}
	uniqueIDs(stamps)
	return stamps, nil
}

// uniqueIDs appends "-2", "-3", ... to IDs already taken by an earlier stamp,
// so a.jpg and b/a.jpg become "a" and "a-2".
func uniqueIDs(stamps []model.Stamp) {
	seen := make(map[string]bool, len(stamps))
	for i := range stamps {
		id := stamps[i].ID
		for n := 2; seen[id]; n++ {
			id = fmt.Sprintf("%s-%d", stamps[i].ID, n)
		}
		seen[id] = true
		stamps[i].ID = id
	}
}
