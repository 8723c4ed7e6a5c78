// Package transcoder re-encodes uploaded images into fixed-width variants.
package transcoder

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // register webp decoder
)

var (
	ErrUnsupportedMedia = errors.New("unsupported media: not a decodable image")
	ErrTooManyPixels    = errors.New("image dimensions exceed the pixel limit")
	ErrEncode           = errors.New("failed to encode image")
)

// Target widths of the large, medium and small variants.
const (
	LargeWidth  = 800
	MediumWidth = 500
	SmallWidth  = 200
)

const DefaultQuality = 80

// DefaultMaxPixels caps width*height of a source image (0x3FFF * 0x3FFF).
const DefaultMaxPixels = 268402689

// Variant is one re-encoded image.
type Variant struct {
	// TargetWidth is the configured width; names of stored files are keyed by it.
	TargetWidth int
	// Width and Height are the actual pixel dimensions of Data.
	Width  int
	Height int
	Data   []byte
}

// Result is the set of variants produced from one upload.
type Result struct {
	Large       Variant
	Medium      Variant
	Small       Variant
	Extension   string
	ContentType string
}

// Variants returns the variants ordered large, medium, small.
func (r Result) Variants() []Variant {
	return []Variant{r.Large, r.Medium, r.Small}
}

// Transcoder is stateless and safe for concurrent use.
type Transcoder struct {
	quality   int
	widths    [3]int
	maxPixels int64
}

type Option func(*Transcoder)

// WithQuality sets the JPEG quality (1-100).
func WithQuality(q int) Option {
	return func(t *Transcoder) {
		if q >= 1 && q <= 100 {
			t.quality = q
		}
	}
}

// WithWidths overrides the large, medium and small target widths.
func WithWidths(large, medium, small int) Option {
	return func(t *Transcoder) {
		if large > 0 && medium > 0 && small > 0 {
			t.widths = [3]int{large, medium, small}
		}
	}
}

// WithMaxPixels overrides the source pixel limit. Non-positive values keep the default.
func WithMaxPixels(n int64) Option {
	return func(t *Transcoder) {
		if n > 0 {
			t.maxPixels = n
		}
	}
}

func New(opts ...Option) *Transcoder {
	t := &Transcoder{
		quality:   DefaultQuality,
		widths:    [3]int{LargeWidth, MediumWidth, SmallWidth},
		maxPixels: DefaultMaxPixels,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Transcoder) Extension() string { return ".jpg" }

// Transcode decodes raw and produces three JPEG variants. Each variant keeps the
// aspect ratio and is never wider than the source. Dimensions are read from the
// header first; sources above the pixel limit are rejected before any pixel is decoded.
func (t *Transcoder) Transcode(raw []byte) (Result, error) {
	if err := t.checkDimensions(raw); err != nil {
		return Result{}, err
	}
	src, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnsupportedMedia, err)
	}
	if b := src.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return Result{}, ErrUnsupportedMedia
	}
	// JPEG has no alpha channel; flatten transparent pixels onto white.
	flat := imaging.New(src.Bounds().Dx(), src.Bounds().Dy(), color.White)
	flat = imaging.Overlay(flat, src, image.Pt(0, 0), 1.0)

	var out [3]Variant
	for i, w := range t.widths {
		v, err := t.variant(flat, w)
		if err != nil {
			return Result{}, err
		}
		out[i] = v
	}
	return Result{
		Large:       out[0],
		Medium:      out[1],
		Small:       out[2],
		Extension:   t.Extension(),
		ContentType: "image/jpeg",
	}, nil
}

func (t *Transcoder) checkDimensions(raw []byte) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedMedia, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return ErrUnsupportedMedia
	}
	if int64(cfg.Width)*int64(cfg.Height) > t.maxPixels {
		return fmt.Errorf("%w: %w (%dx%d)", ErrUnsupportedMedia, ErrTooManyPixels, cfg.Width, cfg.Height)
	}
	return nil
}

func (t *Transcoder) variant(src *image.NRGBA, target int) (Variant, error) {
	img := src
	if src.Bounds().Dx() > target {
		img = imaging.Resize(src, target, 0, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(t.quality)); err != nil {
		return Variant{}, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return Variant{
		TargetWidth: target,
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		Data:        buf.Bytes(),
	}, nil
}
