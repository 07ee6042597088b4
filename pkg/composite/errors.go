package composite

import "errors"

var (
	// ErrSurfaceUnavailable is returned when there is no target to draw into.
	ErrSurfaceUnavailable = errors.New("composite: drawing surface unavailable")

	// ErrNoSource is returned when a request or bitmap background has no
	// usable image.
	ErrNoSource = errors.New("composite: empty source image")

	// ErrStale is returned by a Target for a render that was overtaken by a
	// newer submission before it could be drawn.
	ErrStale = errors.New("composite: render superseded by a newer request")
)
