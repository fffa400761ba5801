// Package pdf pulls embedded raster images out of PDF files.
package pdf

import (
	"fmt"
	"io"
	"iter"

	"github.com/a3tai/mcp-covid-qr/internal/errors"
	"github.com/a3tai/mcp-covid-qr/internal/raster"
)

// Logf receives debug messages about skipped pages.
type Logf func(format string, args ...any)

type options struct {
	backend Backend
	logf    Logf
}

// Option configures Open.
type Option func(*options)

// WithBackend selects the PDF library. The default is BackendPDFCPU.
func WithBackend(b Backend) Option {
	return func(o *options) {
		o.backend = b
	}
}

// WithLogf routes debug messages to logf, e.g. log.Printf.
func WithLogf(logf Logf) Option {
	return func(o *options) {
		o.logf = logf
	}
}

// Extractor walks the pages of a PDF and yields its alpha-free raster images
// one at a time. The cursor is the next page to load plus the images of the
// current page not yet handed out; nothing past the returned image is decoded.
type Extractor struct {
	path    string
	doc     document
	logf    Logf
	page    int
	pending []ImageObject
}

// Open reads the PDF at path. Malformed files fail with errors.KindRasterIO.
func Open(path string, opts ...Option) (*Extractor, error) {
	o := options{backend: DefaultBackend}
	for _, opt := range opts {
		opt(&o)
	}

	doc, err := openDocument(path, o.backend)
	if err != nil {
		return nil, errors.WrapPath(err, errors.KindRasterIO, path, "open PDF")
	}

	return &Extractor{
		path: path,
		doc:  doc,
		logf: o.logf,
		page: 1,
	}, nil
}

// PageCount returns the number of pages in the document.
func (e *Extractor) PageCount() int {
	if e.doc == nil {
		return 0
	}
	return e.doc.PageCount()
}

// Next decodes and returns the next image. It returns io.EOF once every page
// has been visited. Pages that cannot be resolved or have no resources are
// skipped; an image that fails to decode is returned as an error and the
// cursor moves past it.
func (e *Extractor) Next() (*raster.Image, error) {
	if e.doc == nil {
		return nil, io.EOF
	}

	for len(e.pending) == 0 {
		if e.page > e.doc.PageCount() {
			return nil, io.EOF
		}
		e.pending = e.loadPage(e.page)
		e.page++
	}

	obj := e.pending[0]
	e.pending = e.pending[1:]
	return e.decode(obj)
}

// Images returns a single-pass sequence over the remaining images. Breaking
// out of the loop stops all further decoding.
func (e *Extractor) Images() iter.Seq2[*raster.Image, error] {
	return func(yield func(*raster.Image, error) bool) {
		for {
			img, err := e.Next()
			if err == io.EOF {
				return
			}
			if !yield(img, err) {
				return
			}
		}
	}
}

// Close releases the underlying document. It is safe to call more than once.
func (e *Extractor) Close() error {
	if e.doc == nil {
		return nil
	}
	err := e.doc.Close()
	e.doc = nil
	e.pending = nil
	return err
}

func (e *Extractor) loadPage(page int) []ImageObject {
	objs, err := e.doc.PageImages(page)
	if err != nil {
		e.debugf("skipping page %d of %s: %v", page, e.path, err)
		return nil
	}

	kept := objs[:0]
	for _, obj := range objs {
		if obj.SoftMask {
			e.debugf("skipping image %s on page %d: has soft mask", obj.Name, page)
			continue
		}
		kept = append(kept, obj)
	}
	return kept
}

func (e *Extractor) decode(obj ImageObject) (*raster.Image, error) {
	data, err := obj.Decode()
	if err != nil {
		return nil, errors.WrapPath(err, errors.KindRasterIO, e.path,
			fmt.Sprintf("decode image %s on page %d", obj.Name, obj.Page))
	}

	if obj.BitsPerComponent == 1 {
		data = raster.UnpackLuma1(data, obj.Width)
	}

	img, err := raster.New(obj.Width, obj.Height, data)
	if err != nil {
		return nil, fmt.Errorf("image %s on page %d: %w", obj.Name, obj.Page, err)
	}
	return img, nil
}

func (e *Extractor) debugf(format string, args ...any) {
	if e.logf != nil {
		e.logf(format, args...)
	}
}
