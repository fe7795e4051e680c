package codec

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"image-size-reducer/internal/format"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 7), G: uint8(y * 13), B: uint8((x + y) * 3), A: 255})
		}
	}
	return img
}

func TestEncodeJPEGQualityShrinksOutput(t *testing.T) {
	c := NewImagingCodec("")
	img := gradient(128, 128)

	var high, low bytes.Buffer
	require.NoError(t, c.Encode(&high, img, format.FormatJPEG, 95))
	require.NoError(t, c.Encode(&low, img, format.FormatJPEG, 10))
	assert.Less(t, low.Len(), high.Len())

	decoded, err := c.Decode(&low)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds().Size(), decoded.Bounds().Size())
}

func TestEncodePNGRoundTrip(t *testing.T) {
	c := NewImagingCodec("")
	img := gradient(40, 30)

	var buf bytes.Buffer
	require.NoError(t, c.Encode(&buf, img, format.FormatPNG, 9))

	decoded, err := c.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 40, decoded.Bounds().Dx())
	assert.Equal(t, 30, decoded.Bounds().Dy())
}

func TestEncodeUnsupportedFormat(t *testing.T) {
	var buf bytes.Buffer
	err := NewImagingCodec("").Encode(&buf, gradient(2, 2), format.FormatUnknown, 50)
	assert.Error(t, err)
	assert.Zero(t, buf.Len())
}

func TestDecodeGarbage(t *testing.T) {
	_, err := NewImagingCodec("").Decode(strings.NewReader("not an image"))
	assert.Error(t, err)
}

func TestScalePreservesAspectRatio(t *testing.T) {
	for _, filter := range []string{"lanczos", "catmullrom", "linear", "box", "nearest"} {
		t.Run(filter, func(t *testing.T) {
			scaled, err := NewImagingCodec(filter).Scale(gradient(200, 100), 50)
			require.NoError(t, err)
			assert.Equal(t, 50, scaled.Bounds().Dx())
			assert.Equal(t, 25, scaled.Bounds().Dy())
		})
	}
}

func TestScaleRejectsNonPositiveWidth(t *testing.T) {
	_, err := NewImagingCodec("").Scale(gradient(10, 10), 0)
	assert.Error(t, err)
}

func TestPNGLevel(t *testing.T) {
	assert.Equal(t, png.NoCompression, PNGLevel(0))
	assert.Equal(t, png.BestSpeed, PNGLevel(1))
	assert.Equal(t, png.BestSpeed, PNGLevel(3))
	assert.Equal(t, png.DefaultCompression, PNGLevel(4))
	assert.Equal(t, png.DefaultCompression, PNGLevel(6))
	assert.Equal(t, png.BestCompression, PNGLevel(7))
	assert.Equal(t, png.BestCompression, PNGLevel(9))
}
