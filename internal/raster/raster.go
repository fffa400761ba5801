// Package raster holds the 8-bit grayscale container every image source is
// reduced to before QR detection.
package raster

import (
	"fmt"
	"image"

	"github.com/a3tai/mcp-covid-qr/internal/errors"
)

// Image is an 8-bit grayscale raster, one byte per pixel, rows packed with no
// padding.
type Image struct {
	Width  int
	Height int
	Pix    []byte
}

// New builds an Image, failing with an image-conversion error unless
// len(pix) == width*height.
func New(width, height int, pix []byte) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Newf(errors.KindImageConversion,
			"invalid image dimensions %dx%d", width, height)
	}
	if len(pix) != width*height {
		return nil, errors.Newf(errors.KindImageConversion,
			"sample buffer holds %d bytes, %dx%d image needs %d", len(pix), width, height, width*height)
	}
	return &Image{Width: width, Height: height, Pix: pix}, nil
}

// Gray exposes the raster as an *image.Gray sharing the same buffer.
func (i *Image) Gray() *image.Gray {
	return &image.Gray{
		Pix:    i.Pix,
		Stride: i.Width,
		Rect:   image.Rect(0, 0, i.Width, i.Height),
	}
}

// String describes the raster dimensions.
func (i *Image) String() string {
	return fmt.Sprintf("%dx%d gray", i.Width, i.Height)
}
