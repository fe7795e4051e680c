package format

import (
	"fmt"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"
)

// Detection is the declared type of a file.
type Detection struct {
	MIME   string
	Format Format
}

// Detect reads the header of the file at path and returns its declared MIME type.
// An unrecognized type is not an error; the returned Format is FormatUnknown.
func Detect(fs afero.Fs, path string) (Detection, error) {
	file, err := fs.Open(path)
	if err != nil {
		return Detection{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	mtype, err := mimetype.DetectReader(file)
	if err != nil {
		return Detection{}, fmt.Errorf("failed to detect mime type: %w", err)
	}

	return Detection{
		MIME:   mtype.String(),
		Format: FromMIME(mtype.String()),
	}, nil
}
