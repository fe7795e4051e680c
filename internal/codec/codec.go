package codec

import (
	"image"
	"io"

	"image-size-reducer/internal/format"
)

// Codec is the pixel-level collaborator of the reducer.
type Codec interface {
	// Decode reads a full image from r.
	Decode(r io.Reader) (image.Image, error)
	// Encode writes img in the given format at a codec-native intensity.
	Encode(w io.Writer, img image.Image, f format.Format, intensity int) error
	// Scale returns img resized to width, preserving the aspect ratio.
	Scale(img image.Image, width int) (image.Image, error)
}
