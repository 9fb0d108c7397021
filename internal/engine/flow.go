package engine

import (
	"fmt"
	"image"
	"image/color"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/piwi3910/StampPaper/internal/model"
	"github.com/piwi3910/StampPaper/internal/raster"
)

// SheetStatus is the lifecycle of a flow sheet.
type SheetStatus int

const (
	SheetInit         SheetStatus = iota // Nothing placed yet
	SheetAccumulating                    // Rows are being filled
	SheetComplete                        // The next stamp does not fit; rasterize
)

func (s SheetStatus) String() string {
	switch s {
	case SheetAccumulating:
		return "Accumulating"
	case SheetComplete:
		return "Complete"
	default:
		return "Init"
	}
}

// Row is a sealed run of stamps sharing a bottom edge.
type Row struct {
	Stamps    []model.Stamp
	Width     int // sum of stamp widths
	MaxHeight int // tallest stamp
}

// SheetState is the full flow layout of one sheet in progress. It is a value:
// Place returns a new state and never modifies the slices of the receiver,
// so a caller can keep the old state until the new one is committed.
type SheetState struct {
	CurrentWidth  int           // width of the open row
	CurrentHeight int           // total height of sealed rows
	RowHeight     int           // height of the open row
	Open          []model.Stamp // open row
	Rows          []Row         // sealed rows, top to bottom
	Status        SheetStatus
}

// FlowGeometry is the canvas and margins a SheetState is laid out against.
type FlowGeometry struct {
	Canvas  model.Canvas
	MarginX int // px of horizontal slack every row keeps
	MarginY int // px of vertical slack per row
}

func flowGeometry(s model.Settings) FlowGeometry {
	return FlowGeometry{
		Canvas:  s.Canvas(),
		MarginX: s.MarginXPixels(),
		MarginY: s.MarginYPixels(),
	}
}

// Check rejects stamps that could not be placed even on an empty sheet.
func (g FlowGeometry) Check(st model.Stamp) error {
	w, h := st.Width(), st.Height()
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: stamp %s has degenerate size %dx%d", model.ErrPackingFailure, st.ID, w, h)
	}
	if w > g.Canvas.Width-g.MarginX || h > g.Canvas.Height-g.MarginY {
		return fmt.Errorf("%w: stamp %s is %dx%d, usable area is %dx%d",
			model.ErrInputTooLarge, st.ID, w, h, g.Canvas.Width-g.MarginX, g.Canvas.Height-g.MarginY)
	}
	return nil
}

// Empty reports whether no stamp has been placed.
func (s SheetState) Empty() bool {
	return len(s.Open) == 0 && len(s.Rows) == 0
}

// Place adds st to the layout. When the sheet completes, the stamps that did
// not make it onto the sheet are returned in submission order: normally just
// st, or the whole open row plus st when st would have grown the open row
// past the bottom of the sheet. st must have passed g.Check.
func (s SheetState) Place(st model.Stamp, g FlowGeometry) (SheetState, []model.Stamp) {
	w, h := st.Width(), st.Height()
	next := s
	next.Status = SheetAccumulating

	if g.Canvas.Width-s.CurrentWidth-w >= g.MarginX {
		rowHeight := max(s.RowHeight, h)
		if g.Canvas.Height-s.CurrentHeight-rowHeight < g.MarginY*(len(s.Rows)+1) {
			carried := append(slices.Clone(s.Open), st)
			next.Open = nil
			next.CurrentWidth = 0
			next.RowHeight = 0
			next.Status = SheetComplete
			return next, carried
		}
		next.Open = append(slices.Clip(s.Open), st)
		next.CurrentWidth += w
		next.RowHeight = rowHeight
		return next, nil
	}

	next = next.seal()
	if g.Canvas.Height-next.CurrentHeight-h < g.MarginY*(len(next.Rows)+1) {
		next.Status = SheetComplete
		return next, []model.Stamp{st}
	}
	next.Open = []model.Stamp{st}
	next.CurrentWidth = w
	next.RowHeight = h
	return next, nil
}

// seal closes the open row.
func (s SheetState) seal() SheetState {
	if len(s.Open) == 0 {
		return s
	}
	s.Rows = append(slices.Clip(s.Rows), Row{
		Stamps:    s.Open,
		Width:     s.CurrentWidth,
		MaxHeight: s.RowHeight,
	})
	s.CurrentHeight += s.RowHeight
	s.Open = nil
	s.CurrentWidth = 0
	s.RowHeight = 0
	return s
}

// Layout positions every stamp of the sealed rows. The free height is split
// evenly above, between and below the rows, each row is centred horizontally
// and stamps in a row share its bottom edge.
func (s SheetState) Layout(g FlowGeometry) []model.PlacedItem {
	spacing := (g.Canvas.Height - s.CurrentHeight) / (len(s.Rows) + 1)

	var items []model.PlacedItem
	y := 0
	for _, row := range s.Rows {
		y += spacing
		x := (g.Canvas.Width - row.Width) / 2
		for _, st := range row.Stamps {
			w, h := st.Width(), st.Height()
			items = append(items, model.PlacedItem{
				StampID: st.ID,
				Image:   st.Image,
				X:       x,
				Y:       y + row.MaxHeight - h,
				Width:   w,
				Height:  h,
			})
			x += w
		}
		y += row.MaxHeight
	}
	return items
}

// FlowPacker fills a sheet row by row and writes StampPaper{N}.jpg whenever
// the next stamp would overflow it.
type FlowPacker struct {
	Logger *log.Logger

	geom  FlowGeometry
	bg    color.Color
	store SheetWriter
	state SheetState
}

func NewFlowPacker(settings model.Settings, store SheetWriter) (*FlowPacker, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	bg, err := raster.ParseColor(settings.Background)
	if err != nil {
		return nil, err
	}
	return &FlowPacker{
		geom:  flowGeometry(settings),
		bg:    bg,
		store: store,
	}, nil
}

// Geometry returns the canvas and margins in pixels.
func (p *FlowPacker) Geometry() FlowGeometry {
	return p.geom
}

// State returns a copy of the sheet in progress.
func (p *FlowPacker) State() SheetState {
	return p.state
}

// Submit places st. On a write failure the sheet in progress is kept
// unchanged and the error wraps model.ErrPersistence.
func (p *FlowPacker) Submit(st model.Stamp) (Result, error) {
	if err := p.geom.Check(st); err != nil {
		return Result{}, err
	}

	next, carried := p.state.Place(st, p.geom)
	if next.Status != SheetComplete {
		p.state = next
		return Result{Status: model.StatusRetry}, nil
	}

	res, err := p.finish(next)
	if err != nil {
		return Result{}, err
	}
	res.Carried = carried
	return res, nil
}

// Flush seals the open row and writes the sheet if anything was placed.
func (p *FlowPacker) Flush() (Result, error) {
	if p.state.Empty() {
		return Result{Status: model.StatusRetry}, nil
	}
	return p.finish(p.state.seal())
}

func (p *FlowPacker) finish(state SheetState) (Result, error) {
	canvas, items := renderFlowSheet(state, p.geom, p.bg)

	path, idx, err := p.store.WriteSheet(canvas)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", model.ErrPersistence, err)
	}

	sheet := model.NewSheetResult(model.StrategyFlow, p.geom.Canvas)
	sheet.Index = idx
	sheet.Path = path
	sheet.Rows = len(state.Rows)
	sheet.Placements = items

	loggerOrDefault(p.Logger).Info("sheet written", "path", path, "rows", sheet.Rows,
		"stamps", len(items), "fill", fmt.Sprintf("%.1f%%", sheet.Efficiency()))

	p.state = SheetState{}
	return Result{Status: model.StatusComplete, Path: path, Sheet: &sheet}, nil
}

func renderFlowSheet(state SheetState, g FlowGeometry, bg color.Color) (*image.NRGBA, []model.PlacedItem) {
	items := state.Layout(g)
	canvas := raster.NewCanvas(g.Canvas, bg)
	for _, it := range items {
		raster.Paste(canvas, it.Image, it.X, it.Y)
	}
	return canvas, items
}
