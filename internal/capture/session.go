package capture

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.uber.org/multierr"

	"github.com/erazemk/inventario/internal/imaging"
)

// State is the lifecycle state of a Session.
type State int

const (
	StateIdle State = iota
	StateOpening
	StateStreaming
	StateCapturing
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOpening:
		return "opening"
	case StateStreaming:
		return "streaming"
	case StateCapturing:
		return "capturing"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Frame is a captured still image.
type Frame struct {
	Data   []byte
	MIME   string
	Width  int
	Height int
}

// acquisition is the cancellation token of a pending Open.
type acquisition struct {
	cancel context.CancelFunc
	closed bool
}

// Session owns at most one camera stream.
type Session struct {
	camera      Camera
	constraints Constraints

	mu      sync.Mutex
	state   State
	stream  Stream
	pending *acquisition
}

// NewSession creates an idle session over camera.
func NewSession(camera Camera, c Constraints) *Session {
	return &Session{camera: camera, constraints: c}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Open acquires a stream. It is valid from Idle and Error. If Close runs
// while the acquisition is pending, the late stream is stopped and Open
// returns ErrSessionClosed.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle && s.state != StateError {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: session is %s", ErrSessionBusy, state)
	}
	acqCtx, cancel := context.WithCancel(ctx)
	acq := &acquisition{cancel: cancel}
	s.pending = acq
	s.state = StateOpening
	s.mu.Unlock()

	stream, err := s.camera.Acquire(acqCtx, s.constraints)

	s.mu.Lock()
	defer s.mu.Unlock()
	cancel()

	if acq.closed {
		if stream != nil {
			if stopErr := stopTracks(stream); stopErr != nil {
				slog.Warn("failed to release late camera stream", "error", stopErr)
			}
		}
		return ErrSessionClosed
	}
	s.pending = nil

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			s.state = StateIdle
			return ctxErr
		}
		s.state = StateError
		slog.Warn("camera acquisition failed", "facing", s.constraints.Facing, "error", err)
		return fmt.Errorf("%w: %v", ErrCameraUnavailable, err)
	}

	s.stream = stream
	s.state = StateStreaming
	w, h := stream.Resolution()
	slog.Info("camera opened", "facing", s.constraints.Facing, "width", w, "height", h)
	return nil
}

// CaptureFrame grabs the current frame and encodes it as JPEG at the
// stream's native resolution.
func (s *Session) CaptureFrame(ctx context.Context) (Frame, error) {
	s.mu.Lock()
	if s.state != StateStreaming || s.stream == nil {
		s.mu.Unlock()
		return Frame{}, ErrCaptureNotReady
	}
	stream := s.stream
	if w, h := stream.Resolution(); w == 0 || h == 0 {
		s.mu.Unlock()
		return Frame{}, ErrCaptureNotReady
	}
	s.state = StateCapturing
	s.mu.Unlock()

	frame, err := snapshot(ctx, stream)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream != stream {
		return Frame{}, ErrSessionClosed
	}
	s.state = StateStreaming
	if err != nil {
		return Frame{}, err
	}
	return frame, nil
}

// Close stops every track and returns the session to Idle. It is safe to
// call in any state and more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending != nil {
		s.pending.closed = true
		s.pending.cancel()
		s.pending = nil
	}

	var err error
	if s.stream != nil {
		err = stopTracks(s.stream)
		s.stream = nil
		slog.Info("camera closed")
	}
	s.state = StateIdle
	return err
}

func snapshot(ctx context.Context, stream Stream) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	img, err := stream.Snapshot()
	if err != nil {
		return Frame{}, fmt.Errorf("taking snapshot: %w", err)
	}
	photo, err := imaging.EncodeFrame(img)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Data: photo.Data, MIME: photo.MIME, Width: photo.Width, Height: photo.Height}, nil
}

func stopTracks(stream Stream) error {
	var err error
	for _, t := range stream.Tracks() {
		err = multierr.Append(err, t.Stop())
	}
	if err != nil {
		return fmt.Errorf("stopping camera tracks: %w", err)
	}
	return nil
}
