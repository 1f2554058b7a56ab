package capture

import "errors"

var (
	// ErrCameraUnavailable means the camera could not be acquired.
	ErrCameraUnavailable = errors.New("camera unavailable")

	// ErrCaptureNotReady means there is no streaming camera with frames yet.
	ErrCaptureNotReady = errors.New("camera not ready")

	// ErrSessionBusy means Open was called while a stream is opening or open.
	ErrSessionBusy = errors.New("capture session busy")

	// ErrSessionClosed means the session was closed while the call was in flight.
	ErrSessionClosed = errors.New("capture session closed")
)
