// Package compress downsamples photos before they leave the device so that
// uploads stay small enough to embed as data URLs.
package compress

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

const (
	DefaultMaxWidth  = 800
	DefaultMaxHeight = 800
	DefaultQuality   = 70
)

type Options struct {
	MaxWidth  int
	MaxHeight int
	Quality   int
}

func DefaultOptions() Options {
	return Options{MaxWidth: DefaultMaxWidth, MaxHeight: DefaultMaxHeight, Quality: DefaultQuality}
}

// Result is always JPEG encoded.
type Result struct {
	Data   []byte
	MIME   string
	Width  int
	Height int
}

// JPEG decodes raw, shrinks it to fit inside the bounding box while keeping
// its aspect ratio, and re-encodes it as JPEG. Images already inside the box
// are re-encoded without resizing.
func JPEG(raw []byte, opts Options) (Result, error) {
	if opts.MaxWidth <= 0 || opts.MaxHeight <= 0 {
		opts.MaxWidth, opts.MaxHeight = DefaultMaxWidth, DefaultMaxHeight
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = DefaultQuality
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return Result{}, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > opts.MaxWidth || bounds.Dy() > opts.MaxHeight {
		img = imaging.Fit(img, opts.MaxWidth, opts.MaxHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(opts.Quality)); err != nil {
		return Result{}, fmt.Errorf("encode jpeg: %w", err)
	}

	size := img.Bounds().Size()
	return Result{
		Data:   buf.Bytes(),
		MIME:   "image/jpeg",
		Width:  size.X,
		Height: size.Y,
	}, nil
}
