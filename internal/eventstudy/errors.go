package eventstudy

import "errors"

// Per-trade failure kinds. All of them collapse to a nil CAR at the engine
// boundary; they stay distinct so logs and metrics can tell them apart.
var (
	// ErrInvalidInput marks a trade with no transaction date or an
	// unusable ticker. Common in disclosure data, not worth log noise.
	ErrInvalidInput = errors.New("eventstudy: invalid trade input")

	// ErrInsufficientData marks a return history below the minimum
	// observation floor or an empty estimation/event window slice.
	ErrInsufficientData = errors.New("eventstudy: insufficient return data")

	// ErrProvider wraps a price provider failure.
	ErrProvider = errors.New("eventstudy: price provider failure")
)
