package imaging

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func createTestJPEG(w, h int) []byte {
	var buf bytes.Buffer
	jpeg.Encode(&buf, solid(w, h, color.RGBA{255, 0, 0, 255}), &jpeg.Options{Quality: 90})
	return buf.Bytes()
}

func createTestPNG(w, h int) []byte {
	var buf bytes.Buffer
	png.Encode(&buf, solid(w, h, color.RGBA{0, 0, 255, 255}))
	return buf.Bytes()
}

func TestPrepareLabelJPEG(t *testing.T) {
	photo, err := PrepareLabel(bytes.NewReader(createTestJPEG(100, 80)))
	if err != nil {
		t.Fatalf("PrepareLabel JPEG: %v", err)
	}
	if photo.MIME != MIMEJPEG {
		t.Errorf("expected %s, got %s", MIMEJPEG, photo.MIME)
	}
	if photo.Width != 100 || photo.Height != 80 {
		t.Errorf("expected 100x80, got %dx%d", photo.Width, photo.Height)
	}
	if len(photo.Data) == 0 {
		t.Error("expected non-empty data")
	}
}

func TestPrepareLabelPNGIsReencoded(t *testing.T) {
	photo, err := PrepareLabel(bytes.NewReader(createTestPNG(64, 64)))
	if err != nil {
		t.Fatalf("PrepareLabel PNG: %v", err)
	}
	if photo.MIME != MIMEJPEG {
		t.Errorf("expected JPEG output, got %s", photo.MIME)
	}
	if _, err := jpeg.Decode(bytes.NewReader(photo.Data)); err != nil {
		t.Errorf("output is not a valid JPEG: %v", err)
	}
}

func TestPrepareLabelDownscale(t *testing.T) {
	photo, err := PrepareLabel(bytes.NewReader(createTestJPEG(3200, 1600)))
	if err != nil {
		t.Fatalf("PrepareLabel large image: %v", err)
	}

	img, _, err := image.Decode(bytes.NewReader(photo.Data))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != MaxLabelDimension || b.Dy() != MaxLabelDimension/2 {
		t.Errorf("expected %dx%d, got %dx%d", MaxLabelDimension, MaxLabelDimension/2, b.Dx(), b.Dy())
	}
}

func TestEncodeFrameKeepsResolution(t *testing.T) {
	photo, err := EncodeFrame(solid(1920, 1080, color.White))
	if err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}
	if photo.Width != 1920 || photo.Height != 1080 {
		t.Errorf("expected native 1920x1080, got %dx%d", photo.Width, photo.Height)
	}

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(photo.Data))
	if err != nil {
		t.Fatalf("decoding config: %v", err)
	}
	if cfg.Width != 1920 || cfg.Height != 1080 {
		t.Errorf("encoded JPEG is %dx%d", cfg.Width, cfg.Height)
	}
}

func TestEncodeFrameEmptyImage(t *testing.T) {
	if _, err := EncodeFrame(image.NewRGBA(image.Rect(0, 0, 0, 0))); err == nil {
		t.Error("expected error for empty image")
	}
}

func TestDecodeRejectsUnsupportedFormats(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"text", []byte("not an image")},
		{"gif", []byte("GIF89a...")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(bytes.NewReader(tt.data))
			if !errors.Is(err, ErrUnsupportedFormat) {
				t.Errorf("expected ErrUnsupportedFormat, got %v", err)
			}
		})
	}
}

// pngHeader returns a PNG signature and IHDR chunk declaring w x h RGB pixels
// with no image data behind it.
func pngHeader(w, h uint32) []byte {
	ihdr := make([]byte, 17)
	copy(ihdr, "IHDR")
	binary.BigEndian.PutUint32(ihdr[4:], w)
	binary.BigEndian.PutUint32(ihdr[8:], h)
	ihdr[12] = 8 // bit depth
	ihdr[13] = 2 // truecolor

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	binary.Write(&buf, binary.BigEndian, uint32(13))
	buf.Write(ihdr)
	binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(ihdr))
	return buf.Bytes()
}

func TestDecodeRejectsOversizedDimensions(t *testing.T) {
	_, err := Decode(bytes.NewReader(pngHeader(10000, 10000)))
	if !errors.Is(err, ErrImageTooLarge) {
		t.Fatalf("expected ErrImageTooLarge, got %v", err)
	}

	_, err = PrepareLabel(bytes.NewReader(pngHeader(100000, 1000)))
	if !errors.Is(err, ErrImageTooLarge) {
		t.Errorf("PrepareLabel: expected ErrImageTooLarge, got %v", err)
	}
}
