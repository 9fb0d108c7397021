// Package engine lays stamps out on paper-sized sheets. Two strategies share
// the Packer interface: FlowPacker fills rows left to right and justifies
// them vertically, IncrementalPacker re-solves a rectangle packing after
// every stamp and rolls back to the last layout that held them all.
//
// Packers are not safe for concurrent use. A single control loop owns each
// packer and calls it synchronously.
package engine

import (
	"errors"
	"fmt"
	"image"

	"github.com/charmbracelet/log"

	"github.com/piwi3910/StampPaper/internal/model"
)

// Packer accepts stamps one at a time and writes a sheet whenever one fills up.
type Packer interface {
	// Submit places one stamp. On StatusComplete a sheet was written and
	// Result.Sheet describes it; any stamp that did not make it onto that
	// sheet is returned in Result.Carried and should be submitted again.
	Submit(stamp model.Stamp) (Result, error)

	// Flush writes the partially filled sheet, if any, and resets the packer.
	// It returns StatusRetry with no sheet when there is nothing to write.
	Flush() (Result, error)
}

// SheetWriter persists rasterized sheets.
type SheetWriter interface {
	WriteSheet(img image.Image) (path string, index int, err error)
	WritePicture(collection, picture int, img image.Image) (path string, err error)
	NextPictureIndex(collection int) (int, error)
}

// Result is the outcome of one Submit or Flush.
type Result struct {
	Status  model.Status
	Path    string             // written file; set for every bin packer attempt
	Sheet   *model.SheetResult // set on StatusComplete
	Carried []model.Stamp      // stamps left off the completed sheet
	Skipped []int              // rectangle IDs with no stamp (bin packer)
}

// New builds the packer selected by settings.Strategy.
func New(settings model.Settings, store SheetWriter) (Packer, error) {
	switch settings.Strategy {
	case model.StrategyBinPack:
		return NewIncrementalPacker(settings, store)
	case model.StrategyFlow:
		return NewFlowPacker(settings, store)
	default:
		return nil, fmt.Errorf("unknown strategy %q", settings.Strategy)
	}
}

// Feed submits stamps in order, resubmitting carried stamps ahead of the
// rest so that no stamp is dropped when a sheet completes. Stamps rejected
// with ErrInputTooLarge are collected and returned instead of aborting.
// fn, when non-nil, sees every successful result. An error from fn stops
// the feed once the stamps carried so far are back in the packer, and is
// returned after that.
func Feed(p Packer, stamps []model.Stamp, fn func(model.Stamp, Result) error) ([]model.Stamp, error) {
	var rejected []model.Stamp
	var fnErr error
	queue := append([]model.Stamp(nil), stamps...)
	carried := 0 // queued stamps the packer already held once

	for len(queue) > 0 {
		if fnErr != nil && carried == 0 {
			break
		}
		st := queue[0]
		queue = queue[1:]
		if carried > 0 {
			carried--
		}

		res, err := p.Submit(st)
		if errors.Is(err, model.ErrInputTooLarge) {
			rejected = append(rejected, st)
			continue
		}
		if err != nil {
			return rejected, errors.Join(fnErr, fmt.Errorf("stamp %s: %w", st.ID, err))
		}
		if len(res.Carried) > 0 {
			queue = append(append([]model.Stamp(nil), res.Carried...), queue...)
			carried += len(res.Carried)
		}
		if fn != nil {
			if err := fn(st, res); err != nil {
				fnErr = errors.Join(fnErr, err)
			}
		}
	}
	return rejected, fnErr
}

// SetLogger routes the packer's sheet and warning logs to l.
func SetLogger(p Packer, l *log.Logger) {
	switch pk := p.(type) {
	case *FlowPacker:
		pk.Logger = l
	case *IncrementalPacker:
		pk.Logger = l
	}
}

func loggerOrDefault(l *log.Logger) *log.Logger {
	if l != nil {
		return l
	}
	return log.Default()
}
