package engine

import (
	"image/color"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/StampPaper/internal/model"
	"github.com/piwi3910/StampPaper/internal/store"
)

// 400x300 px canvas, margin_x 8 px, margin_y 4 px.
func scenarioPacker(t *testing.T, sw SheetWriter) *FlowPacker {
	t.Helper()
	p, err := NewFlowPacker(testSettings(400, 300, 8, 4), sw)
	require.NoError(t, err)
	p.Logger = quietLogger()
	return p
}

func submitRetry(t *testing.T, p Packer, st model.Stamp) {
	t.Helper()
	res, err := p.Submit(st)
	require.NoError(t, err)
	require.Equal(t, model.StatusRetry, res.Status, "stamp %s", st.ID)
}

func TestFlow_ScenarioOneCenteredRow(t *testing.T) {
	fs := newFakeStore()
	p := scenarioPacker(t, fs)

	submitRetry(t, p, stamp("a", 100, 50))
	submitRetry(t, p, stamp("b", 100, 50))
	submitRetry(t, p, stamp("c", 100, 50))
	submitRetry(t, p, stamp("d", 150, 50))

	state := p.State()
	require.Len(t, state.Rows, 1)
	assert.Equal(t, 300, state.Rows[0].Width)
	assert.Equal(t, 50, state.Rows[0].MaxHeight)
	assert.Equal(t, 50, state.CurrentHeight)
	assert.Equal(t, 150, state.CurrentWidth)
	assert.Equal(t, SheetAccumulating, state.Status)

	res, err := p.Submit(stamp("e", 100, 280))
	require.NoError(t, err)
	require.Equal(t, model.StatusComplete, res.Status)
	require.NotNil(t, res.Sheet)

	assert.Equal(t, 1, res.Sheet.Rows)
	require.Len(t, res.Sheet.Placements, 3)
	// spacing = (300-50)/2 = 125, start_x = (400-300)/2 = 50
	for i, it := range res.Sheet.Placements {
		assert.Equal(t, 50+100*i, it.X)
		assert.Equal(t, 125, it.Y)
	}

	var carried []string
	for _, st := range res.Carried {
		carried = append(carried, st.ID)
	}
	assert.Equal(t, []string{"d", "e"}, carried)

	require.Len(t, fs.sheets, 1)
	sheet := fs.sheets[0]
	assert.Equal(t, white, sheet.NRGBAAt(49, 125))
	assert.NotEqual(t, white, sheet.NRGBAAt(50, 125))
	assert.NotEqual(t, white, sheet.NRGBAAt(349, 174))
	assert.Equal(t, white, sheet.NRGBAAt(350, 174))
	assert.Equal(t, white, sheet.NRGBAAt(200, 124))
	assert.Equal(t, white, sheet.NRGBAAt(200, 175))

	assert.True(t, p.State().Empty())
	assert.Equal(t, SheetInit, p.State().Status)
}

func TestFlow_ScenarioWritesStampPaper0(t *testing.T) {
	dir := t.TempDir()
	p := scenarioPacker(t, store.NewFileStore(dir, 90))

	for _, st := range []model.Stamp{
		stamp("a", 100, 50), stamp("b", 100, 50), stamp("c", 100, 50), stamp("d", 150, 50),
	} {
		submitRetry(t, p, st)
	}
	res, err := p.Submit(stamp("e", 100, 280))
	require.NoError(t, err)

	assert.Equal(t, model.StatusComplete, res.Status)
	assert.Equal(t, filepath.Join(dir, "StampPaper0.jpg"), res.Path)
	assert.FileExists(t, res.Path)
	assert.Equal(t, 0, res.Sheet.Index)
}

func TestFlow_VerticalOverflowSealsRowFirst(t *testing.T) {
	fs := newFakeStore()
	p := scenarioPacker(t, fs)

	// Row 1: 300x100, row 2: 300x150 (sealed when the third row starts).
	submitRetry(t, p, stamp("r1", 300, 100))
	submitRetry(t, p, stamp("r2", 300, 150))
	// 300-250-40 = 10 >= 4*3 fails, so the sheet completes with two rows.
	res, err := p.Submit(stamp("r3", 300, 40))
	require.NoError(t, err)

	require.Equal(t, model.StatusComplete, res.Status)
	assert.Equal(t, 2, res.Sheet.Rows)
	require.Len(t, res.Carried, 1)
	assert.Equal(t, "r3", res.Carried[0].ID)

	// spacing = (300-250)/3 = 16
	require.Len(t, res.Sheet.Placements, 2)
	assert.Equal(t, 16, res.Sheet.Placements[0].Y)
	assert.Equal(t, 16+100+16, res.Sheet.Placements[1].Y)
}

func TestFlow_BottomAlignment(t *testing.T) {
	p := scenarioPacker(t, newFakeStore())

	submitRetry(t, p, stamp("short", 80, 20))
	submitRetry(t, p, stamp("tall", 80, 60))
	submitRetry(t, p, stamp("mid", 80, 40))

	res, err := p.Flush()
	require.NoError(t, err)
	require.Equal(t, model.StatusComplete, res.Status)
	require.Len(t, res.Sheet.Placements, 3)

	bottom := res.Sheet.Placements[1].Y + res.Sheet.Placements[1].Height
	for _, it := range res.Sheet.Placements {
		assert.Equal(t, bottom, it.Y+it.Height, "stamp %s not on the row baseline", it.StampID)
	}
	// One row of height 60: spacing (300-60)/2 = 120
	assert.Equal(t, 120+60, bottom)
}

func TestFlow_OversizedStampRejected(t *testing.T) {
	p := scenarioPacker(t, newFakeStore())
	submitRetry(t, p, stamp("a", 100, 50))
	before := p.State()

	_, err := p.Submit(stamp("wide", 393, 10))
	assert.ErrorIs(t, err, model.ErrInputTooLarge)

	_, err = p.Submit(stamp("tall", 10, 297))
	assert.ErrorIs(t, err, model.ErrInputTooLarge)

	assert.Equal(t, before, p.State())
}

func TestFlow_WidestAcceptedStampStillPlaces(t *testing.T) {
	fs := newFakeStore()
	p := scenarioPacker(t, fs)

	submitRetry(t, p, stamp("a", 392, 10))
	res, err := p.Submit(stamp("b", 392, 10))
	require.NoError(t, err)
	assert.Equal(t, model.StatusRetry, res.Status)
	assert.Len(t, p.State().Rows, 1)
}

func TestFlow_DegenerateStamp(t *testing.T) {
	p := scenarioPacker(t, newFakeStore())
	_, err := p.Submit(model.Stamp{ID: "empty"})
	assert.ErrorIs(t, err, model.ErrPackingFailure)
	assert.True(t, p.State().Empty())
}

func TestFlow_PersistenceFailureKeepsState(t *testing.T) {
	fs := newFakeStore()
	p := scenarioPacker(t, fs)

	submitRetry(t, p, stamp("r1", 300, 100))
	submitRetry(t, p, stamp("r2", 300, 150))
	before := p.State()

	fs.fail = true
	res, err := p.Submit(stamp("r3", 300, 40))
	assert.ErrorIs(t, err, model.ErrPersistence)
	assert.Empty(t, res.Status)
	assert.Equal(t, before, p.State())
	assert.Len(t, before.Rows, 1, "failed submission must not leak rows into the kept state")

	fs.fail = false
	res, err = p.Submit(stamp("r3", 300, 40))
	require.NoError(t, err)
	assert.Equal(t, model.StatusComplete, res.Status)
	assert.Len(t, fs.sheets, 1)
}

func TestFlow_ResetStartsFromEmptySheet(t *testing.T) {
	fs := newFakeStore()
	p := scenarioPacker(t, fs)

	submitRetry(t, p, stamp("old1", 300, 100))
	submitRetry(t, p, stamp("old2", 300, 150))
	res, err := p.Submit(stamp("trigger", 300, 40))
	require.NoError(t, err)
	require.Equal(t, model.StatusComplete, res.Status)

	submitRetry(t, p, stamp("new1", 100, 50))
	submitRetry(t, p, stamp("new2", 100, 50))
	res, err = p.Flush()
	require.NoError(t, err)
	require.Equal(t, model.StatusComplete, res.Status)

	var ids []string
	for _, it := range res.Sheet.Placements {
		ids = append(ids, it.StampID)
	}
	assert.Equal(t, []string{"new1", "new2"}, ids)
}

func TestFlow_FlushEmptyIsNoop(t *testing.T) {
	fs := newFakeStore()
	p := scenarioPacker(t, fs)

	res, err := p.Flush()
	require.NoError(t, err)
	assert.Equal(t, model.StatusRetry, res.Status)
	assert.Nil(t, res.Sheet)
	assert.Empty(t, fs.sheets)
}

func TestFlow_CustomBackground(t *testing.T) {
	s := testSettings(50, 50, 0, 0)
	s.Background = "#000000"
	fs := newFakeStore()
	p, err := NewFlowPacker(s, fs)
	require.NoError(t, err)
	p.Logger = quietLogger()

	submitRetry(t, p, stamp("a", 10, 10))
	_, err = p.Flush()
	require.NoError(t, err)
	require.Len(t, fs.sheets, 1)
	assert.Equal(t, color.NRGBA{A: 255}, fs.sheets[0].NRGBAAt(0, 0))
}

func TestFlow_InvalidSettings(t *testing.T) {
	s := testSettings(400, 300, 8, 4)
	s.Background = "not-a-colour"
	_, err := NewFlowPacker(s, newFakeStore())
	assert.Error(t, err)

	s = testSettings(0, 300, 8, 4)
	_, err = NewFlowPacker(s, newFakeStore())
	assert.Error(t, err)
}

// Random sequences must keep every sealed row within the usable width, keep
// the vertical budget, and produce justified, baseline aligned layouts.
func TestFlow_RandomSequencesKeepInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	g := FlowGeometry{Canvas: model.Canvas{Width: 400, Height: 300}, MarginX: 8, MarginY: 4}

	for run := 0; run < 50; run++ {
		var state SheetState
		for i := 0; i < 200; i++ {
			st := stamp("s", 10+rng.Intn(150), 10+rng.Intn(120))
			require.NoError(t, g.Check(st))

			next, carried := state.Place(st, g)
			for _, row := range next.Rows {
				assert.LessOrEqual(t, row.Width, g.Canvas.Width-g.MarginX)
			}
			sum := 0
			for _, row := range next.Rows {
				sum += row.MaxHeight
			}
			assert.Equal(t, sum, next.CurrentHeight)
			assert.LessOrEqual(t, next.CurrentHeight+next.RowHeight, g.Canvas.Height)

			if next.Status == SheetComplete {
				require.NotEmpty(t, carried)
				require.NotEmpty(t, next.Rows)
				assertJustified(t, next, g)
				state = SheetState{}
				continue
			}
			assert.Empty(t, carried)
			state = next
		}
	}
}

func assertJustified(t *testing.T, s SheetState, g FlowGeometry) {
	t.Helper()
	items := s.Layout(g)
	spacing := (g.Canvas.Height - s.CurrentHeight) / (len(s.Rows) + 1)
	total := spacing*(len(s.Rows)+1) + s.CurrentHeight
	assert.LessOrEqual(t, total, g.Canvas.Height)
	assert.Greater(t, total, g.Canvas.Height-(len(s.Rows)+1))

	i := 0
	rowY := spacing
	for _, row := range s.Rows {
		for range row.Stamps {
			it := items[i]
			assert.Equal(t, rowY+row.MaxHeight, it.Y+it.Height)
			assert.GreaterOrEqual(t, it.X, 0)
			assert.LessOrEqual(t, it.X+it.Width, g.Canvas.Width)
			i++
		}
		rowY += row.MaxHeight + spacing
	}
	assert.Equal(t, len(items), i)
}

func TestSheetState_PlaceDoesNotMutateReceiver(t *testing.T) {
	g := FlowGeometry{Canvas: model.Canvas{Width: 400, Height: 300}, MarginX: 8, MarginY: 4}
	var s SheetState
	s, _ = s.Place(stamp("a", 100, 50), g)
	s, _ = s.Place(stamp("b", 100, 50), g)

	snapshot := SheetState{
		CurrentWidth: s.CurrentWidth, RowHeight: s.RowHeight, Status: s.Status,
		Open: append([]model.Stamp(nil), s.Open...),
	}
	_, _ = s.Place(stamp("c", 100, 50), g)
	_, _ = s.Place(stamp("d", 300, 50), g)

	assert.Equal(t, snapshot.Open, s.Open)
	assert.Equal(t, snapshot.CurrentWidth, s.CurrentWidth)
	assert.Empty(t, s.Rows)
}

func TestSheetStatusString(t *testing.T) {
	assert.Equal(t, "Init", SheetInit.String())
	assert.Equal(t, "Accumulating", SheetAccumulating.String())
	assert.Equal(t, "Complete", SheetComplete.String())
}
