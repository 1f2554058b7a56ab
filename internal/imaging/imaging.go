package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"

	"golang.org/x/image/draw"
)

// MaxLabelDimension is the longest side of a label photo sent for recognition.
const MaxLabelDimension = 1600

// JPEGQuality is the compression quality for JPEG output.
const JPEGQuality = 90

// MIMEJPEG is the MIME type of every encoded photo.
const MIMEJPEG = "image/jpeg"

// MaxPixels caps the decoded size of an input image.
const MaxPixels = 50_000_000

var (
	// ErrUnsupportedFormat is returned for input that is neither JPEG nor PNG.
	ErrUnsupportedFormat = errors.New("unsupported image format")
	// ErrImageTooLarge is returned when the header declares more than MaxPixels.
	ErrImageTooLarge = errors.New("image too large")
)

// allowedMIME lists the accepted input MIME types.
var allowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Photo is an encoded still image.
type Photo struct {
	Data   []byte
	MIME   string
	Width  int
	Height int
}

// Decode reads r, checks the format by sniffing the bytes and decodes it.
func Decode(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading image data: %w", err)
	}

	// Client headers and file extensions are not trusted.
	detected := http.DetectContentType(data)
	if !allowedMIME[detected] {
		return nil, fmt.Errorf("%w: %s (only JPEG and PNG accepted)", ErrUnsupportedFormat, detected)
	}

	// The header is checked first so a small compressed file cannot force a huge allocation.
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image header: %w", err)
	}
	if cfg.Width*cfg.Height > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return img, nil
}

// PrepareLabel decodes an uploaded label photo, downscales it to
// MaxLabelDimension and re-encodes it as JPEG.
func PrepareLabel(r io.Reader) (*Photo, error) {
	img, err := Decode(r)
	if err != nil {
		return nil, err
	}
	return EncodeFrame(downscale(img, MaxLabelDimension))
}

// EncodeFrame encodes img as JPEG at its own resolution.
func EncodeFrame(img image.Image) (*Photo, error) {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, errors.New("encoding JPEG: empty image")
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}

	return &Photo{
		Data:   buf.Bytes(),
		MIME:   MIMEJPEG,
		Width:  b.Dx(),
		Height: b.Dy(),
	}, nil
}

// downscale resizes the image so neither dimension exceeds maxDim, keeping
// the aspect ratio. Smaller images are returned as is.
func downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}

	newW, newH := maxDim, maxDim
	if w > h {
		newH = max(1, h*maxDim/w)
	} else {
		newW = max(1, w*maxDim/h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	// Catmull-Rom keeps small label text legible.
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

func init() {
	image.RegisterFormat("jpeg", "\xff\xd8", jpeg.Decode, jpeg.DecodeConfig)
	image.RegisterFormat("png", "\x89PNG", png.Decode, png.DecodeConfig)
}
