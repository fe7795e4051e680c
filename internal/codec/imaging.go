package codec

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"

	"image-size-reducer/internal/format"

	"github.com/disintegration/imaging"
)

var ErrEmptyImage = errors.New("image has no pixels")

// ImagingCodec implements Codec on top of disintegration/imaging.
type ImagingCodec struct {
	filter imaging.ResampleFilter
}

// NewImagingCodec returns an ImagingCodec resampling with the named filter.
// Unknown names fall back to Lanczos.
func NewImagingCodec(filterName string) *ImagingCodec {
	return &ImagingCodec{filter: resampleFilter(filterName)}
}

// Decode decodes a JPEG or PNG stream without applying EXIF orientation.
func (c *ImagingCodec) Decode(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode error: %w", err)
	}
	return img, nil
}

// Encode writes img as JPEG with quality = intensity, or as PNG with a
// compression level derived from intensity in 0..9.
func (c *ImagingCodec) Encode(w io.Writer, img image.Image, f format.Format, intensity int) error {
	var err error
	switch f {
	case format.FormatJPEG:
		err = imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(clamp(intensity, 1, 100)))
	case format.FormatPNG:
		err = imaging.Encode(w, img, imaging.PNG, imaging.PNGCompressionLevel(PNGLevel(intensity)))
	default:
		return fmt.Errorf("unsupported format: %s", f)
	}
	if err != nil {
		return fmt.Errorf("encode error: %w", err)
	}
	return nil
}

// Scale resizes img to width; the height follows the aspect ratio.
func (c *ImagingCodec) Scale(img image.Image, width int) (image.Image, error) {
	if width < 1 {
		return nil, fmt.Errorf("invalid target width: %d", width)
	}
	scaled := imaging.Resize(img, width, 0, c.filter)
	if scaled.Bounds().Empty() {
		return nil, ErrEmptyImage
	}
	return scaled, nil
}

// PNGLevel maps a zlib-style level 0..9 onto the levels image/png exposes.
func PNGLevel(intensity int) png.CompressionLevel {
	switch {
	case intensity <= 0:
		return png.NoCompression
	case intensity <= 3:
		return png.BestSpeed
	case intensity <= 6:
		return png.DefaultCompression
	default:
		return png.BestCompression
	}
}

func resampleFilter(name string) imaging.ResampleFilter {
	switch strings.ToLower(name) {
	case "catmullrom":
		return imaging.CatmullRom
	case "linear":
		return imaging.Linear
	case "box":
		return imaging.Box
	case "nearest":
		return imaging.NearestNeighbor
	default:
		return imaging.Lanczos
	}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
