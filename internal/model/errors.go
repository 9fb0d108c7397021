package model

import "errors"

// Failure conditions reported by the layout engine. Callers match them with
// errors.Is; the engine wraps them with the underlying cause.
var (
	// ErrInputTooLarge means a stamp can never fit on an empty sheet.
	// The stamp is rejected before any layout state changes.
	ErrInputTooLarge = errors.New("stamp too large for sheet")

	// ErrPlacementLookup means a packed rectangle has no matching stamp.
	// The rectangle is left out of the raster.
	ErrPlacementLookup = errors.New("no stamp for placed rectangle")

	// ErrPersistence means a sheet or preview could not be written.
	// Layout state is kept so the submission can be repeated.
	ErrPersistence = errors.New("failed to persist sheet")

	// ErrPackingFailure means the rectangle solver rejected the input.
	ErrPackingFailure = errors.New("packing failed")
)
