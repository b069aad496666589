package imagecodec

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // legacy photo blobs were stored as PNG
	"math"
	"sync"

	"golang.org/x/image/draw"
)

const (
	// Quality is the JPEG quality used for every encoded photo.
	Quality = 100
	// MaxPixels bounds the declared size of a blob Decode will expand.
	MaxPixels = 8192 * 8192
)

// ErrTooLarge is wrapped by a DecodeError for images above MaxPixels.
var ErrTooLarge = errors.New("image too large")

// DecodeError reports a stored blob that is not a readable image.
type DecodeError struct {
	Size int
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode image (%d bytes): %v", e.Size, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Codec converts between decoded bitmaps and the bytes kept in the store.
// It is safe for concurrent use.
type Codec struct {
	placeholderOnce sync.Once
	placeholder     image.Image
	encoded         []byte
	encodeErr       error
}

func New() *Codec {
	return &Codec{}
}

// Encode returns img as a JPEG at maximum quality.
func (c *Codec) Encode(img image.Image) ([]byte, error) {
	if img == nil {
		return nil, fmt.Errorf("encode image: nil image")
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: Quality}); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses a stored JPEG or PNG blob. Images declaring more than
// MaxPixels are refused before any pixel data is allocated.
func (c *Codec) Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, &DecodeError{Size: 0, Err: fmt.Errorf("empty data")}
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Size: len(data), Err: err}
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, &DecodeError{Size: len(data), Err: fmt.Errorf("%w: %dx%d", ErrTooLarge, cfg.Width, cfg.Height)}
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Size: len(data), Err: err}
	}
	return img, nil
}

// DecodeOrPlaceholder decodes data and falls back to the placeholder icon
// when it cannot. The decode error is still returned for logging.
func (c *Codec) DecodeOrPlaceholder(data []byte) (image.Image, error) {
	img, err := c.Decode(data)
	if err != nil {
		return c.Placeholder(), err
	}
	return img, nil
}

// ScaleToDisplayWidth resizes img to width pixels, keeping the aspect ratio.
// The height is rounded and never below 1. A non-positive width or an image
// that is already that wide is returned unchanged.
func ScaleToDisplayWidth(img image.Image, width int) image.Image {
	if img == nil || width <= 0 {
		return img
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 || b.Dx() == width {
		return img
	}

	size := DisplaySize(b, width)
	dst := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// DisplaySize is the size ScaleToDisplayWidth produces for an image with
// bounds b, computed without touching any pixels.
func DisplaySize(b image.Rectangle, width int) image.Point {
	if width <= 0 || b.Dx() == 0 || b.Dy() == 0 || b.Dx() == width {
		return b.Size()
	}
	height := int(math.Round(float64(b.Dy()) * float64(width) / float64(b.Dx())))
	if height < 1 {
		height = 1
	}
	return image.Pt(width, height)
}

// ScaleToDisplayWidth is the method form of the package function.
func (c *Codec) ScaleToDisplayWidth(img image.Image, width int) image.Image {
	return ScaleToDisplayWidth(img, width)
}

// Placeholder returns the "picture" icon shown when an entry has no photo.
func (c *Codec) Placeholder() image.Image {
	c.loadPlaceholder()
	return c.placeholder
}

// EncodedPlaceholder returns the placeholder icon encoded like any photo.
// The bytes are produced once and shared; callers must not modify them.
func (c *Codec) EncodedPlaceholder() ([]byte, error) {
	c.loadPlaceholder()
	return c.encoded, c.encodeErr
}

func (c *Codec) loadPlaceholder() {
	c.placeholderOnce.Do(func() {
		c.placeholder = drawPlaceholder(PlaceholderSize)
		c.encoded, c.encodeErr = c.Encode(c.placeholder)
	})
}
