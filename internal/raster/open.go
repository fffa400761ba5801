package raster

import (
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"os"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder

	"github.com/a3tai/mcp-covid-qr/internal/errors"
)

// Open decodes the image file at path into a grayscale raster.
func Open(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapPath(err, errors.KindRasterIO, path, "open image")
	}
	defer f.Close()

	img, err := Decode(f)
	if err != nil {
		if e, ok := err.(*errors.Error); ok && e.Path == "" {
			e.Path = path
		}
		return nil, err
	}
	return img, nil
}

// Decode reads any registered image format and converts it to grayscale.
// Transparent areas are composed over white.
func Decode(r io.Reader) (*Image, error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindRasterIO, "decode image")
	}
	return FromImage(src)
}

// FromImage converts an arbitrary image.Image into a raster.
func FromImage(src image.Image) (*Image, error) {
	b := src.Bounds()
	if g, ok := src.(*image.Gray); ok && g.Stride == b.Dx() && b.Min == (image.Point{}) {
		if n := b.Dx() * b.Dy(); len(g.Pix) >= n {
			return New(b.Dx(), b.Dy(), g.Pix[:n])
		}
	}

	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)

	return New(b.Dx(), b.Dy(), dst.Pix)
}
