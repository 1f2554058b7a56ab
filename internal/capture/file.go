package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"sync/atomic"

	"github.com/erazemk/inventario/internal/imaging"
)

// FileCamera serves a still image file as a single-frame stream.
type FileCamera struct {
	Path string
}

// Acquire decodes the file. A missing or unreadable file fails acquisition.
func (c FileCamera) Acquire(ctx context.Context, _ Constraints) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(c.Path)
	if err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	img, err := imaging.Decode(f)
	if err != nil {
		return nil, err
	}
	return &stillStream{img: img, track: &stillTrack{}}, nil
}

type stillStream struct {
	img   image.Image
	track *stillTrack
}

func (s *stillStream) Tracks() []Track { return []Track{s.track} }

func (s *stillStream) Resolution() (int, int) {
	if s.track.stopped.Load() {
		return 0, 0
	}
	b := s.img.Bounds()
	return b.Dx(), b.Dy()
}

func (s *stillStream) Snapshot() (image.Image, error) {
	if s.track.stopped.Load() {
		return nil, errors.New("stream stopped")
	}
	return s.img, nil
}

type stillTrack struct {
	stopped atomic.Bool
}

func (t *stillTrack) Stop() error {
	t.stopped.Store(true)
	return nil
}
