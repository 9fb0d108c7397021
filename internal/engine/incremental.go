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

// PackState is everything the incremental packer remembers about the sheet in
// progress. Sizes and Stamps are index aligned and ordered by submission.
// Previous is the solver output of the last attempt that placed every
// submitted stamp; it is empty only before the first such attempt.
type PackState struct {
	Sizes    [][2]int
	Stamps   []model.Stamp
	Previous []PackedRect
}

// With returns a copy of the state with st appended.
func (s PackState) With(st model.Stamp) PackState {
	return PackState{
		Sizes:    append(slices.Clip(s.Sizes), [2]int{st.Width(), st.Height()}),
		Stamps:   append(slices.Clip(s.Stamps), st),
		Previous: s.Previous,
	}
}

// Lookup finds the stamp a packed rectangle was made from. The rectangle ID
// is the submission index, so stamps of identical size are never confused.
func (s PackState) Lookup(r PackedRect) (model.Stamp, bool) {
	if r.RID < 0 || r.RID >= len(s.Stamps) {
		return model.Stamp{}, false
	}
	st := s.Stamps[r.RID]
	if st.Width() != r.W || st.Height() != r.H {
		return model.Stamp{}, false
	}
	return st, true
}

// solve packs every size into one canvas sized bin without rotation.
func solve(sizes [][2]int, canvas model.Canvas) ([]PackedRect, error) {
	solver := NewSolver()
	for _, sz := range sizes {
		solver.AddRect(sz[0], sz[1])
	}
	solver.AddBin(canvas.Width, canvas.Height)
	if err := solver.Pack(); err != nil {
		return nil, err
	}
	return solver.PlacedRects(), nil
}

// IncrementalPacker re-solves the whole sheet after every stamp. While all
// stamps fit, the newest full placement becomes the reference layout. When
// the solver drops a stamp the sheet is full: the reference layout is the
// final picture and the newest stamp starts the next sheet.
type IncrementalPacker struct {
	Logger *log.Logger

	canvas     model.Canvas
	bg         color.Color
	store      SheetWriter
	state      PackState
	collection int
	picture    int // next picture for Submit; -1 until the collection is scanned
	open       pictureRef
}

// pictureRef is where the open sheet's picture goes.
type pictureRef struct {
	collection int
	picture    int
	set        bool
}

func NewIncrementalPacker(settings model.Settings, store SheetWriter) (*IncrementalPacker, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	bg, err := raster.ParseColor(settings.Background)
	if err != nil {
		return nil, err
	}
	return &IncrementalPacker{
		canvas:     settings.Canvas(),
		bg:         bg,
		store:      store,
		collection: settings.Collection,
		picture:    -1,
	}, nil
}

// State returns the sheet in progress.
func (p *IncrementalPacker) State() PackState {
	return p.state
}

// Submit places st into the configured collection. Pictures are numbered
// after the highest Picture{N}.jpg already in the collection directory and
// the number advances with every completed sheet.
func (p *IncrementalPacker) Submit(st model.Stamp) (Result, error) {
	picture, err := p.nextPicture()
	if err != nil {
		return Result{}, err
	}
	res, err := p.SubmitPicture(st, p.collection, picture)
	if err == nil && res.Status == model.StatusComplete {
		p.picture++
	}
	return res, err
}

// SubmitPicture adds st and re-solves. The layout known to hold every
// earlier stamp is written to collection{collection}/Picture{picture}.jpg on
// every call. If st does not fit next to them, that picture is the finished
// sheet and st seeds the next one, which Flush numbers picture+1.
func (p *IncrementalPacker) SubmitPicture(st model.Stamp, collection, picture int) (Result, error) {
	if st.Width() > p.canvas.Width || st.Height() > p.canvas.Height {
		return Result{}, fmt.Errorf("%w: stamp %s is %dx%d, sheet is %dx%d",
			model.ErrInputTooLarge, st.ID, st.Width(), st.Height(), p.canvas.Width, p.canvas.Height)
	}

	next := p.state.With(st)
	placed, err := solve(next.Sizes, p.canvas)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", model.ErrPackingFailure, err)
	}

	canvas, items, skipped := p.render(p.state.Previous, next)
	path, err := p.store.WritePicture(collection, picture, canvas)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", model.ErrPersistence, err)
	}

	if len(placed) < len(next.Sizes) {
		sheet := model.NewSheetResult(model.StrategyBinPack, p.canvas)
		sheet.Index = picture
		sheet.Collection = collection
		sheet.Path = path
		sheet.Placements = items

		loggerOrDefault(p.Logger).Info("sheet written", "path", path,
			"stamps", len(items), "fill", fmt.Sprintf("%.1f%%", sheet.Efficiency()))

		p.state = p.seed(st)
		p.open = pictureRef{collection: collection, picture: picture + 1, set: true}
		return Result{Status: model.StatusComplete, Path: path, Sheet: &sheet, Skipped: skipped}, nil
	}

	next.Previous = placed
	p.state = next
	p.open = pictureRef{collection: collection, picture: picture, set: true}
	return Result{Status: model.StatusRetry, Path: path, Skipped: skipped}, nil
}

// Flush writes the reference layout as the final picture and resets. The
// picture goes where the open sheet's previews went.
func (p *IncrementalPacker) Flush() (Result, error) {
	if len(p.state.Previous) == 0 {
		return Result{Status: model.StatusRetry}, nil
	}
	collection, picture := p.open.collection, p.open.picture
	if !p.open.set {
		n, err := p.nextPicture()
		if err != nil {
			return Result{}, err
		}
		collection, picture = p.collection, n
	}

	canvas, items, skipped := p.render(p.state.Previous, p.state)
	path, err := p.store.WritePicture(collection, picture, canvas)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", model.ErrPersistence, err)
	}

	sheet := model.NewSheetResult(model.StrategyBinPack, p.canvas)
	sheet.Index = picture
	sheet.Collection = collection
	sheet.Path = path
	sheet.Placements = items

	p.state = PackState{}
	p.open = pictureRef{}
	if p.picture >= 0 && collection == p.collection && picture >= p.picture {
		p.picture = picture + 1
	}
	return Result{Status: model.StatusComplete, Path: path, Sheet: &sheet, Skipped: skipped}, nil
}

func (p *IncrementalPacker) nextPicture() (int, error) {
	if p.picture >= 0 {
		return p.picture, nil
	}
	n, err := p.store.NextPictureIndex(p.collection)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", model.ErrPersistence, err)
	}
	p.picture = n
	return n, nil
}

// seed starts a new sheet holding only st.
func (p *IncrementalPacker) seed(st model.Stamp) PackState {
	state := PackState{}.With(st)
	placed, err := solve(state.Sizes, p.canvas)
	if err != nil || len(placed) != 1 {
		loggerOrDefault(p.Logger).Error("could not seed next sheet", "stamp", st.ID, "err", err)
		return PackState{}
	}
	state.Previous = placed
	return state
}

// render composites rects using the stamps of state. The solver measures Y
// from the bottom edge, the raster from the top. Rectangles without a stamp
// are logged and left out.
func (p *IncrementalPacker) render(rects []PackedRect, state PackState) (*image.NRGBA, []model.PlacedItem, []int) {
	canvas := raster.NewCanvas(p.canvas, p.bg)
	var items []model.PlacedItem
	var skipped []int

	for _, r := range rects {
		st, ok := state.Lookup(r)
		if !ok {
			loggerOrDefault(p.Logger).Warn("skipping rectangle",
				"err", model.ErrPlacementLookup, "rid", r.RID, "size", fmt.Sprintf("%dx%d", r.W, r.H))
			skipped = append(skipped, r.RID)
			continue
		}
		y := p.canvas.Height - r.Y - r.H
		raster.Paste(canvas, st.Image, r.X, y)
		items = append(items, model.PlacedItem{
			StampID: st.ID,
			Image:   st.Image,
			X:       r.X,
			Y:       y,
			Width:   r.W,
			Height:  r.H,
		})
	}
	return canvas, items, skipped
}
