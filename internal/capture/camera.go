package capture

import (
	"context"
	"image"
)

// Facing selects which camera to prefer on devices with several.
type Facing string

const (
	FacingEnvironment Facing = "environment"
	FacingUser        Facing = "user"
)

// Constraints are the requested stream properties.
type Constraints struct {
	Facing Facing
}

// DefaultConstraints prefers the rear camera, which faces the label.
var DefaultConstraints = Constraints{Facing: FacingEnvironment}

// Track is one media track of a stream. Stop releases it.
type Track interface {
	Stop() error
}

// Stream is an acquired camera stream.
type Stream interface {
	Tracks() []Track
	// Resolution is the native frame size; zero until frames are available.
	Resolution() (width, height int)
	Snapshot() (image.Image, error)
}

// Camera acquires streams. Acquire may block until the user grants access.
type Camera interface {
	Acquire(ctx context.Context, c Constraints) (Stream, error)
}
