package pdf

import (
	"fmt"
	"os"

	"github.com/a3tai/mcp-covid-qr/internal/errors"
)

// Validator checks an input file before any decoder touches it.
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a validator that rejects files larger than
// maxFileSize. File names are not checked; inputs are classified by their
// content.
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{maxFileSize: maxFileSize}
}

// ValidateFile stats path and applies ValidateFileInfo.
func (v *Validator) ValidateFile(path string) error {
	if path == "" {
		return errors.New(errors.KindUnsupportedInput, "path cannot be empty")
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return errors.WrapPath(err, errors.KindRasterIO, path, "file does not exist")
	}
	if err != nil {
		return errors.WrapPath(err, errors.KindRasterIO, path, "cannot access file")
	}

	return v.ValidateFileInfo(path, info)
}

// ValidateFileInfo performs basic validation on file info without opening
// the file.
func (v *Validator) ValidateFileInfo(path string, info os.FileInfo) error {
	if info.IsDir() {
		return errors.Newf(errors.KindUnsupportedInput, "path is a directory, not a file: %s", path)
	}

	if info.Size() == 0 {
		return errors.Newf(errors.KindUnsupportedInput, "file is empty: %s", path)
	}

	if v.maxFileSize > 0 && info.Size() > v.maxFileSize {
		return errors.Newf(errors.KindUnsupportedInput, "file too large: %d bytes (max: %d bytes)",
			info.Size(), v.maxFileSize)
	}

	return nil
}

// MaxFileSize returns the configured size limit in bytes.
func (v *Validator) MaxFileSize() int64 {
	return v.maxFileSize
}

func (v *Validator) String() string {
	return fmt.Sprintf("Validator{MaxFileSize: %d}", v.maxFileSize)
}
