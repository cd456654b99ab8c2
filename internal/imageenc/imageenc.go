// Package imageenc turns raw pictures into bounded inline JPEG payloads.
package imageenc

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"

	// Decoders for the formats a photo picker hands over
	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/orgball2608/news-mobile-core/pkg/errors"
)

const minQuality = 10

type Options struct {
	MaxWidth        int
	MaxHeight       int
	Quality         int // 1..100
	MaxPayloadBytes int // Ceiling for the base64 payload
	MaxPixels       int // Largest source image accepted, width*height
}

func DefaultOptions() Options {
	return Options{
		MaxWidth:        800,
		MaxHeight:       800,
		Quality:         50,
		MaxPayloadBytes: 1_000_000,
		MaxPixels:       40_000_000,
	}
}

type Encoder struct {
	opts Options
}

func New(opts Options) *Encoder {
	d := DefaultOptions()
	if opts.MaxWidth <= 0 {
		opts.MaxWidth = d.MaxWidth
	}
	if opts.MaxHeight <= 0 {
		opts.MaxHeight = d.MaxHeight
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = d.Quality
	}
	if opts.MaxPayloadBytes <= 0 {
		opts.MaxPayloadBytes = d.MaxPayloadBytes
	}
	if opts.MaxPixels <= 0 {
		opts.MaxPixels = d.MaxPixels
	}
	return &Encoder{opts: opts}
}

// Encode returns the base64 payload of raw, or false when raw cannot be
// turned into a payload that fits the ceiling.
func (e *Encoder) Encode(raw []byte) (string, bool) {
	payload, err := e.EncodeErr(raw)
	if err != nil {
		return "", false
	}
	return payload, true
}

// EncodeErr is Encode with the failure reason kept for logging.
func (e *Encoder) EncodeErr(raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", errors.WrapKind(errors.ErrEncodeFailure, errors.ErrInvalidInput, "empty image")
	}

	// Decoding allocates by declared size, so check the header first
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return "", errors.WrapKind(errors.ErrEncodeFailure, err, "failed to decode image")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > int64(e.opts.MaxPixels) {
		return "", errors.WrapKind(
			errors.ErrEncodeFailure,
			fmt.Errorf("image is %dx%d, limit is %d pixels", cfg.Width, cfg.Height, e.opts.MaxPixels),
			"image dimensions too large",
		)
	}

	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", errors.WrapKind(errors.ErrEncodeFailure, err, "failed to decode image")
	}

	img := e.fit(src)

	var buf bytes.Buffer
	for q := e.opts.Quality; ; q -= 10 {
		if q < minQuality {
			q = minQuality
		}

		buf.Reset()
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: q}); err != nil {
			return "", errors.WrapKind(errors.ErrEncodeFailure, err, "failed to encode jpeg")
		}

		if base64.StdEncoding.EncodedLen(buf.Len()) <= e.opts.MaxPayloadBytes {
			return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
		}
		if q == minQuality {
			break
		}
	}

	return "", errors.WrapKind(
		errors.ErrEncodeFailure,
		fmt.Errorf("payload exceeds %d bytes", e.opts.MaxPayloadBytes),
		"image too large",
	)
}

// fit scales src down into the bounding box keeping its aspect ratio. Smaller
// images are left alone.
func (e *Encoder) fit(src image.Image) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= e.opts.MaxWidth && h <= e.opts.MaxHeight {
		return src
	}

	scale := min(float64(e.opts.MaxWidth)/float64(w), float64(e.opts.MaxHeight)/float64(h))
	nw := max(1, int(float64(w)*scale))
	nh := max(1, int(float64(h)*scale))

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}
