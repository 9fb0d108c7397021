package engine

import (
	"fmt"
	"image"
	"io"

	"github.com/charmbracelet/log"

	"github.com/piwi3910/StampPaper/internal/model"
)

// ComparisonResult holds the dry-run outcome of one strategy.
type ComparisonResult struct {
	Strategy    model.Strategy
	Sheets      []model.SheetResult
	SheetsUsed  int
	Rejected    int     // stamps too large for the sheet
	AverageFill float64 // percent
}

// CompareStrategies lays the same stamps out with every strategy, flushing the
// last partial sheet, without writing any file. This shows how many sheets
// each strategy needs for a batch before committing to one.
func CompareStrategies(settings model.Settings, stamps []model.Stamp) ([]ComparisonResult, error) {
	results := make([]ComparisonResult, 0, len(model.Strategies))

	for _, strategy := range model.Strategies {
		s := settings
		s.Strategy = strategy

		packer, err := New(s, &memoryStore{})
		if err != nil {
			return nil, err
		}
		quiet(packer)

		result := ComparisonResult{Strategy: strategy}
		collect := func(_ model.Stamp, res Result) error {
			if res.Sheet != nil {
				result.Sheets = append(result.Sheets, *res.Sheet)
			}
			return nil
		}

		rejected, err := Feed(packer, stamps, collect)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", strategy, err)
		}
		res, err := packer.Flush()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", strategy, err)
		}
		if err := collect(model.Stamp{}, res); err != nil {
			return nil, err
		}

		result.Rejected = len(rejected)
		result.SheetsUsed = len(result.Sheets)
		if result.SheetsUsed > 0 {
			var fill float64
			for _, sh := range result.Sheets {
				fill += sh.Efficiency()
			}
			result.AverageFill = fill / float64(result.SheetsUsed)
		}
		results = append(results, result)
	}

	return results, nil
}

func quiet(p Packer) {
	SetLogger(p, log.New(io.Discard))
}

// memoryStore numbers sheets like the file store but keeps no pixels.
type memoryStore struct {
	sheets   int
	pictures map[int]int
}

func (m *memoryStore) WriteSheet(image.Image) (string, int, error) {
	idx := m.sheets
	m.sheets++
	return fmt.Sprintf("memory://StampPaper%d.jpg", idx), idx, nil
}

func (m *memoryStore) WritePicture(collection, picture int, _ image.Image) (string, error) {
	if m.pictures == nil {
		m.pictures = make(map[int]int)
	}
	if picture+1 > m.pictures[collection] {
		m.pictures[collection] = picture + 1
	}
	return fmt.Sprintf("memory://collection%d/Picture%d.jpg", collection, picture), nil
}

func (m *memoryStore) NextPictureIndex(collection int) (int, error) {
	return m.pictures[collection], nil
}
