package scanner

import (
	"context"
	"errors"
	"log/slog"

	"github.com/erazemk/inventario/internal/capture"
	"github.com/erazemk/inventario/internal/model"
	"github.com/erazemk/inventario/internal/recognition"
)

// User-facing messages shown in place of capture and recognition errors.
const (
	MsgCameraUnavailable = "No se pudo acceder a la cámara. Por favor, compruebe los permisos."
	MsgCameraNotReady    = "La cámara no está lista."
	MsgAnalysisFailed    = recognition.FailureMessage
)

// Target is what a scan result is used for.
type Target string

const (
	// TargetNewItem fills the pending item draft.
	TargetNewItem Target = "newItem"
	// TargetSearch uses the scanned serial number as the search query.
	TargetSearch Target = "search"
)

// Valid reports whether t is a known target.
func (t Target) Valid() bool {
	return t == TargetNewItem || t == TargetSearch
}

// Session is the camera side of a scan.
type Session interface {
	Open(ctx context.Context) error
	CaptureFrame(ctx context.Context) (capture.Frame, error)
	Close() error
}

// Recognizer turns a label photo into a candidate.
type Recognizer interface {
	Recognize(ctx context.Context, img recognition.Image) (recognition.Candidate, error)
}

// Result is a successful scan.
type Result struct {
	Target    Target                `json:"target"`
	Candidate recognition.Candidate `json:"candidate"`
	// Query is the search query for TargetSearch.
	Query string `json:"query,omitempty"`
}

// Error is a scan failure reduced to a message for the user. The session
// stays usable; the user may retry or dismiss.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// Scanner runs capture and recognition for one camera session.
type Scanner struct {
	session    Session
	recognizer Recognizer
}

// New creates a scanner. session may be nil when only ScanImage is used.
func New(session Session, recognizer Recognizer) *Scanner {
	return &Scanner{session: session, recognizer: recognizer}
}

// Start opens the camera.
func (s *Scanner) Start(ctx context.Context) error {
	if err := s.session.Open(ctx); err != nil {
		return userError(err)
	}
	return nil
}

// Stop releases the camera.
func (s *Scanner) Stop() error {
	return s.session.Close()
}

// Scan captures a frame and recognizes it. If ctx ends while recognition
// is in flight, the late result is discarded and ctx's error is returned.
func (s *Scanner) Scan(ctx context.Context, target Target) (Result, error) {
	frame, err := s.session.CaptureFrame(ctx)
	if err != nil {
		return Result{}, userError(err)
	}
	return s.ScanImage(ctx, recognition.Image{Data: frame.Data, MIME: frame.MIME}, target)
}

// ScanImage recognizes an already encoded photo.
func (s *Scanner) ScanImage(ctx context.Context, img recognition.Image, target Target) (Result, error) {
	if !target.Valid() {
		target = TargetNewItem
	}

	cand, err := s.recognizer.Recognize(ctx, img)
	if ctxErr := ctx.Err(); ctxErr != nil {
		slog.Info("discarding scan result, caller is gone", "target", target)
		return Result{}, ctxErr
	}
	if err != nil {
		return Result{}, userError(err)
	}

	res := Result{Target: target, Candidate: cand}
	if target == TargetSearch {
		res.Query = cand.SerialNumber
	}
	return res, nil
}

// ApplyCandidate copies every non-empty candidate field over the draft.
func ApplyCandidate(d model.Draft, c recognition.Candidate) model.Draft {
	if c.Name != "" {
		d.Name = c.Name
	}
	if c.Description != "" {
		d.Description = c.Description
	}
	if c.SerialNumber != "" {
		d.SerialNumber = c.SerialNumber
	}
	if c.DeviceType != "" {
		d.DeviceType = c.DeviceType
	}
	return d
}

// UserMessage returns the message shown to the user for err.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, capture.ErrCameraUnavailable):
		return MsgCameraUnavailable
	case errors.Is(err, capture.ErrCaptureNotReady),
		errors.Is(err, capture.ErrSessionBusy),
		errors.Is(err, capture.ErrSessionClosed):
		return MsgCameraNotReady
	default:
		return MsgAnalysisFailed
	}
}

func userError(err error) error {
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	slog.Warn("scan failed", "error", err)
	return &Error{Message: UserMessage(err), Err: err}
}
