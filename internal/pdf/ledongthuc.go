package pdf

import (
	"fmt"
	"io"
	"os"

	"github.com/ledongthuc/pdf"
)

// ledongthucDocument keeps the file open until Close; the reader pulls
// objects from it on demand.
type ledongthucDocument struct {
	file   *os.File
	reader *pdf.Reader
}

func openLedongthuc(path string) (doc document, err error) {
	defer recoverInto(&err, "open")

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, &BackendError{Backend: BackendLedongthuc, Op: "open", Err: err}
	}
	return &ledongthucDocument{file: f, reader: r}, nil
}

func (d *ledongthucDocument) PageCount() (n int) {
	defer func() {
		if recover() != nil {
			n = 0
		}
	}()
	return d.reader.NumPage()
}

func (d *ledongthucDocument) PageImages(page int) (images []ImageObject, err error) {
	defer recoverInto(&err, "page_images")

	p := d.reader.Page(page)
	if p.V.IsNull() {
		return nil, fmt.Errorf("page %d not found", page)
	}

	resources := p.Resources()
	if resources.IsNull() {
		return nil, fmt.Errorf("page %d has no resource dictionary", page)
	}

	xobjects := resources.Key("XObject")
	if xobjects.IsNull() || xobjects.Kind() != pdf.Dict {
		return nil, nil
	}

	for _, name := range xobjects.Keys() {
		obj := xobjects.Key(name)
		if obj.Kind() != pdf.Stream || obj.Key("Subtype").Name() != "Image" {
			continue
		}

		bpc := 8
		if v := obj.Key("BitsPerComponent"); !v.IsNull() {
			bpc = int(v.Int64())
		}

		images = append(images, ImageObject{
			Name:             name,
			Page:             page,
			Width:            int(obj.Key("Width").Int64()),
			Height:           int(obj.Key("Height").Int64()),
			BitsPerComponent: bpc,
			SoftMask:         !obj.Key("SMask").IsNull(),
			decode:           streamDecoder(obj),
		})
	}

	sortByName(images)
	return images, nil
}

// streamDecoder reads a stream through the library's filter chain. Unknown
// filters make the library panic, which surfaces here as an error.
func streamDecoder(v pdf.Value) func() ([]byte, error) {
	return func() (data []byte, err error) {
		defer recoverInto(&err, "decode_stream")

		rc := v.Reader()
		defer rc.Close()

		data, err = io.ReadAll(rc)
		if err != nil {
			return nil, &BackendError{Backend: BackendLedongthuc, Op: "decode_stream", Err: err}
		}
		return data, nil
	}
}

func (d *ledongthucDocument) Close() error {
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}

func recoverInto(err *error, op string) {
	if r := recover(); r != nil {
		*err = &BackendError{Backend: BackendLedongthuc, Op: op, Err: fmt.Errorf("%v", r)}
	}
}
