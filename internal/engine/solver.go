package engine

import (
	"errors"
	"fmt"
	"sort"
)

// PackedRect is one rectangle placed by the Solver. X and Y are measured
// from the bottom-left corner of the bin. RID is the order in which the
// rectangle was added, starting at 0.
type PackedRect struct {
	Bin     int
	X, Y    int
	W, H    int
	Rotated bool
	RID     int
}

// Solver is an offline rectangle bin packer. Rectangles and bins are
// collected with AddRect and AddBin, then placed all at once by Pack.
// Rectangles are tried largest area first against each bin in turn; a
// rectangle that fits no bin is left out of PlacedRects.
//
// Rotation is never applied.
type Solver struct {
	rects  []size
	bins   []size
	placed []PackedRect
}

type size struct {
	w, h int
}

func NewSolver() *Solver {
	return &Solver{}
}

// AddRect queues a rectangle and returns its RID.
func (s *Solver) AddRect(w, h int) int {
	s.rects = append(s.rects, size{w, h})
	return len(s.rects) - 1
}

// AddBin adds a bin of the given size.
func (s *Solver) AddBin(w, h int) {
	s.bins = append(s.bins, size{w, h})
}

// Pack places the queued rectangles, replacing any earlier result.
func (s *Solver) Pack() error {
	s.placed = nil
	if len(s.bins) == 0 {
		return errors.New("no bin to pack into")
	}
	for i, b := range s.bins {
		if b.w <= 0 || b.h <= 0 {
			return fmt.Errorf("bin %d has degenerate size %dx%d", i, b.w, b.h)
		}
	}
	for i, r := range s.rects {
		if r.w <= 0 || r.h <= 0 {
			return fmt.Errorf("rectangle %d has degenerate size %dx%d", i, r.w, r.h)
		}
	}

	// Largest area first gives denser packings; the stable sort keeps
	// submission order for equal areas so results are reproducible.
	order := make([]int, len(s.rects))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		a, b := s.rects[order[i]], s.rects[order[j]]
		return a.w*a.h > b.w*b.h
	})

	packers := make([]*maxRectsPacker, len(s.bins))
	for i, b := range s.bins {
		packers[i] = newMaxRectsPacker(b.w, b.h)
	}

	for _, rid := range order {
		r := s.rects[rid]
		for bin, p := range packers {
			if x, y, ok := p.insert(r.w, r.h); ok {
				s.placed = append(s.placed, PackedRect{
					Bin: bin, X: x, Y: y, W: r.w, H: r.h, RID: rid,
				})
				break
			}
		}
	}
	return nil
}

// PlacedRects returns the rectangles placed by the last Pack, in placement order.
func (s *Solver) PlacedRects() []PackedRect {
	return s.placed
}

// maxRectsPacker keeps every maximal free rectangle of one bin and splits
// all of them around each placement.
type maxRectsPacker struct {
	freeRects []rect
}

type rect struct {
	x, y, w, h int
}

func newMaxRectsPacker(width, height int) *maxRectsPacker {
	return &maxRectsPacker{
		freeRects: []rect{{0, 0, width, height}},
	}
}

// insert places a w x h rectangle using Best Area Fit. Ties go to the free
// rectangle nearest the origin. Returns the position and whether it fit.
func (mp *maxRectsPacker) insert(w, h int) (int, int, bool) {
	bestIdx := -1
	bestAreaFit := 0

	for i, r := range mp.freeRects {
		if w > r.w || h > r.h {
			continue
		}
		areaFit := r.w*r.h - w*h
		if bestIdx < 0 || areaFit < bestAreaFit ||
			(areaFit == bestAreaFit && closerToOrigin(r, mp.freeRects[bestIdx])) {
			bestIdx = i
			bestAreaFit = areaFit
		}
	}

	if bestIdx < 0 {
		return 0, 0, false
	}

	chosen := mp.freeRects[bestIdx]
	mp.splitAroundPlacement(rect{x: chosen.x, y: chosen.y, w: w, h: h})
	return chosen.x, chosen.y, true
}

func closerToOrigin(a, b rect) bool {
	if a.y != b.y {
		return a.y < b.y
	}
	return a.x < b.x
}

// splitAroundPlacement removes all free rects that overlap the placed rect
// and replaces each with up to four maximal strips, then prunes contained rects.
func (mp *maxRectsPacker) splitAroundPlacement(placed rect) {
	var newRects []rect

	for _, r := range mp.freeRects {
		if !rectsOverlap(r, placed) {
			newRects = append(newRects, r)
			continue
		}
		// Left strip
		if placed.x > r.x {
			newRects = append(newRects, rect{x: r.x, y: r.y, w: placed.x - r.x, h: r.h})
		}
		// Right strip
		if placed.x+placed.w < r.x+r.w {
			newRects = append(newRects, rect{
				x: placed.x + placed.w, y: r.y,
				w: (r.x + r.w) - (placed.x + placed.w), h: r.h,
			})
		}
		// Lower strip
		if placed.y > r.y {
			newRects = append(newRects, rect{x: r.x, y: r.y, w: r.w, h: placed.y - r.y})
		}
		// Upper strip
		if placed.y+placed.h < r.y+r.h {
			newRects = append(newRects, rect{
				x: r.x, y: placed.y + placed.h,
				w: r.w, h: (r.y + r.h) - (placed.y + placed.h),
			})
		}
	}

	mp.freeRects = pruneContained(newRects)
}

// rectsOverlap reports whether two rectangles share area (touching edges do not count).
func rectsOverlap(a, b rect) bool {
	return a.x < b.x+b.w && a.x+a.w > b.x &&
		a.y < b.y+b.h && a.y+a.h > b.y
}

// pruneContained removes every rect fully contained within another. Of two
// identical rects the first is kept.
func pruneContained(rects []rect) []rect {
	if len(rects) <= 1 {
		return rects
	}
	kept := make([]rect, 0, len(rects))
	for i, a := range rects {
		contained := false
		for j, b := range rects {
			if i == j || !containsRect(b, a) {
				continue
			}
			if a != b || j < i {
				contained = true
				break
			}
		}
		if !contained {
			kept = append(kept, a)
		}
	}
	return kept
}

// containsRect reports whether outer fully contains inner.
func containsRect(outer, inner rect) bool {
	return outer.x <= inner.x && outer.y <= inner.y &&
		outer.x+outer.w >= inner.x+inner.w &&
		outer.y+outer.h >= inner.y+inner.h
}
