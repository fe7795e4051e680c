package format

import "math"

// Format is an image format the reducer can re-encode.
type Format int

const (
	FormatUnknown Format = iota
	FormatJPEG
	FormatPNG
)

// IntensityScale translates a unit level into a codec-native intensity.
type IntensityScale int

const (
	// QualityScale is used by lossy codecs where a higher level means lower quality (0..100).
	QualityScale IntensityScale = iota
	// LevelScale is used by lossless codecs with a zlib-style compression level (0..9).
	LevelScale
)

// FromMIME returns the format declared by a MIME type, or FormatUnknown.
func FromMIME(mime string) Format {
	switch mime {
	case "image/jpeg":
		return FormatJPEG
	case "image/png":
		return FormatPNG
	default:
		return FormatUnknown
	}
}

// String returns the string representation of the Format.
func (f Format) String() string {
	switch f {
	case FormatJPEG:
		return "JPEG"
	case FormatPNG:
		return "PNG"
	default:
		return "Unknown"
	}
}

// MIME returns the canonical MIME type of the format.
func (f Format) MIME() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatPNG:
		return "image/png"
	default:
		return ""
	}
}

// IsSupported reports whether the reducer can encode this format.
func (f Format) IsSupported() bool {
	return f == FormatJPEG || f == FormatPNG
}

// Scale returns the intensity strategy of the format.
func (f Format) Scale() IntensityScale {
	if f == FormatPNG {
		return LevelScale
	}
	return QualityScale
}

// Intensity maps a level in [0, 1] to the native intensity of the format.
func (f Format) Intensity(level float64) int {
	return f.Scale().Intensity(level)
}

// Intensity maps a level in [0, 1] onto the native scale. Halves round away from zero.
func (s IntensityScale) Intensity(level float64) int {
	switch s {
	case LevelScale:
		return int(math.Round(level * 9))
	default:
		return int(math.Round((1 - level) * 100))
	}
}

// String returns a human-readable name of the scale.
func (s IntensityScale) String() string {
	switch s {
	case LevelScale:
		return "compression-level"
	default:
		return "quality"
	}
}
