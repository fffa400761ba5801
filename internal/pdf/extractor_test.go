package pdf

import (
	"bytes"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-covid-qr/internal/errors"
	"github.com/a3tai/mcp-covid-qr/internal/raster"
	"github.com/a3tai/mcp-covid-qr/internal/testutil"
)

func gray8(name string, width, height int, fill byte) testutil.PDFImage {
	return testutil.PDFImage{
		Name:             name,
		Width:            width,
		Height:           height,
		BitsPerComponent: 8,
		Data:             bytes.Repeat([]byte{fill}, width*height),
	}
}

func drain(t *testing.T, e *Extractor) ([]*raster.Image, []error) {
	t.Helper()
	var images []*raster.Image
	var errs []error
	for img, err := range e.Images() {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		images = append(images, img)
	}
	return images, errs
}

func forEachBackend(t *testing.T, fn func(t *testing.T, backend Backend)) {
	for _, b := range Backends() {
		t.Run(string(b), func(t *testing.T) {
			fn(t, b)
		})
	}
}

func TestExtractorOneBitQR(t *testing.T) {
	forEachBackend(t, func(t *testing.T, backend Backend) {
		qr := testutil.QRImage(t, "1;aGVsbG8gd29ybGQ=", 150)
		require.NotZero(t, qr.Width%8, "fixture should exercise row padding")

		path := testutil.WritePDF(t, t.TempDir(), "qr.pdf", testutil.PDF{
			Pages: []testutil.PDFPage{{Images: []testutil.PDFImage{{
				Name:             "Im0",
				Width:            qr.Width,
				Height:           qr.Height,
				BitsPerComponent: 1,
				Data:             testutil.PackLuma1(qr),
			}}}},
		})

		e, err := Open(path, WithBackend(backend))
		require.NoError(t, err)
		defer e.Close()
		assert.Equal(t, 1, e.PageCount())

		img, err := e.Next()
		require.NoError(t, err)
		assert.Equal(t, qr.Width, img.Width)
		assert.Equal(t, qr.Height, img.Height)
		assert.Equal(t, qr.Pix, img.Pix)

		_, err = e.Next()
		assert.Equal(t, io.EOF, err)
	})
}

func TestExtractorSkipsSoftMaskedImages(t *testing.T) {
	forEachBackend(t, func(t *testing.T, backend Backend) {
		masked := gray8("Im0", 4, 4, 0x11)
		masked.SoftMask = true
		plain := gray8("Im1", 3, 2, 0x22)
		alsoMasked := gray8("Im2", 5, 5, 0x33)
		alsoMasked.SoftMask = true

		path := testutil.WritePDF(t, t.TempDir(), "masks.pdf", testutil.PDF{
			Pages: []testutil.PDFPage{
				{Images: []testutil.PDFImage{masked, plain}},
				{Images: []testutil.PDFImage{alsoMasked}},
			},
		})

		e, err := Open(path, WithBackend(backend))
		require.NoError(t, err)
		defer e.Close()

		images, errs := drain(t, e)
		assert.Empty(t, errs)
		require.Len(t, images, 1)
		assert.Equal(t, 3, images[0].Width)
		assert.Equal(t, bytes.Repeat([]byte{0x22}, 6), images[0].Pix)
	})
}

func TestExtractorOrderAndPages(t *testing.T) {
	forEachBackend(t, func(t *testing.T, backend Backend) {
		path := testutil.WritePDF(t, t.TempDir(), "order.pdf", testutil.PDF{
			Pages: []testutil.PDFPage{
				{Images: []testutil.PDFImage{gray8("ImB", 1, 1, 2), gray8("ImA", 1, 1, 1)}},
				{},
				{Images: []testutil.PDFImage{gray8("ImC", 1, 1, 3)}},
			},
		})

		e, err := Open(path, WithBackend(backend))
		require.NoError(t, err)
		defer e.Close()

		images, errs := drain(t, e)
		assert.Empty(t, errs)
		require.Len(t, images, 3)
		assert.Equal(t, []byte{1}, images[0].Pix)
		assert.Equal(t, []byte{2}, images[1].Pix)
		assert.Equal(t, []byte{3}, images[2].Pix)
	})
}

func TestExtractorInheritedResources(t *testing.T) {
	forEachBackend(t, func(t *testing.T, backend Backend) {
		path := testutil.WritePDF(t, t.TempDir(), "inherited.pdf", testutil.PDF{
			Pages:     []testutil.PDFPage{{}},
			Inherited: []testutil.PDFImage{gray8("Shared", 2, 2, 0x7f)},
		})

		e, err := Open(path, WithBackend(backend))
		require.NoError(t, err)
		defer e.Close()

		images, errs := drain(t, e)
		assert.Empty(t, errs)
		require.Len(t, images, 1)
		assert.Equal(t, []byte{0x7f, 0x7f, 0x7f, 0x7f}, images[0].Pix)
	})
}

func TestExtractorLengthMismatch(t *testing.T) {
	forEachBackend(t, func(t *testing.T, backend Backend) {
		short := gray8("Im0", 10, 10, 0)
		short.Data = short.Data[:50]

		path := testutil.WritePDF(t, t.TempDir(), "short.pdf", testutil.PDF{
			Pages: []testutil.PDFPage{{Images: []testutil.PDFImage{short, gray8("Im1", 2, 1, 9)}}},
		})

		e, err := Open(path, WithBackend(backend))
		require.NoError(t, err)
		defer e.Close()

		_, err = e.Next()
		require.Error(t, err)
		assert.Equal(t, errors.KindImageConversion, errors.KindOf(err))

		img, err := e.Next()
		require.NoError(t, err, "cursor stays usable after a bad image")
		assert.Equal(t, []byte{9, 9}, img.Pix)

		_, err = e.Next()
		assert.Equal(t, io.EOF, err)
	})
}

func TestExtractorStopsEarly(t *testing.T) {
	forEachBackend(t, func(t *testing.T, backend Backend) {
		path := testutil.WritePDF(t, t.TempDir(), "two.pdf", testutil.PDF{
			Pages: []testutil.PDFPage{
				{Images: []testutil.PDFImage{gray8("Im0", 1, 1, 1)}},
				{Images: []testutil.PDFImage{gray8("Im0", 1, 1, 2)}},
			},
		})

		var logged []string
		e, err := Open(path, WithBackend(backend), WithLogf(func(format string, args ...any) {
			logged = append(logged, format)
		}))
		require.NoError(t, err)
		defer e.Close()

		for img, err := range e.Images() {
			require.NoError(t, err)
			assert.Equal(t, []byte{1}, img.Pix)
			break
		}
		assert.Equal(t, 2, e.page, "second page not loaded yet")

		img, err := e.Next()
		require.NoError(t, err)
		assert.Equal(t, []byte{2}, img.Pix)
		assert.Empty(t, logged)
	})
}

func TestExtractorMalformedFile(t *testing.T) {
	forEachBackend(t, func(t *testing.T, backend Backend) {
		dir := t.TempDir()
		path := testutil.WriteFile(t, dir, "broken.pdf", []byte("%PDF-1.7\nthis is not a pdf\n"))

		_, err := Open(path, WithBackend(backend))
		require.Error(t, err)
		assert.Equal(t, errors.KindRasterIO, errors.KindOf(err))

		_, err = Open(filepath.Join(dir, "missing.pdf"), WithBackend(backend))
		assert.Equal(t, errors.KindRasterIO, errors.KindOf(err))
	})
}

func TestExtractorClose(t *testing.T) {
	path := testutil.WritePDF(t, t.TempDir(), "close.pdf", testutil.PDF{
		Pages: []testutil.PDFPage{{Images: []testutil.PDFImage{gray8("Im0", 1, 1, 1)}}},
	})

	e, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, e.Close())
	require.NoError(t, e.Close())

	_, err = e.Next()
	assert.Equal(t, io.EOF, err)
	assert.Zero(t, e.PageCount())
}

func TestBackendParity(t *testing.T) {
	qr := testutil.QRPDFImage(t, "Qr", "1;cGFyaXR5", 130)
	masked := gray8("Alpha", 3, 3, 1)
	masked.SoftMask = true

	path := testutil.WritePDF(t, t.TempDir(), "parity.pdf", testutil.PDF{
		Pages: []testutil.PDFPage{
			{Images: []testutil.PDFImage{qr, masked, gray8("Gray", 4, 2, 200)}},
			{},
		},
	})

	var results [][]*raster.Image
	for _, b := range Backends() {
		e, err := Open(path, WithBackend(b))
		require.NoError(t, err)
		images, errs := drain(t, e)
		require.NoError(t, e.Close())
		assert.Empty(t, errs)
		results = append(results, images)
	}

	require.Len(t, results, 2)
	assert.Equal(t, results[0], results[1])
	assert.Len(t, results[0], 2)
}

func TestParseBackend(t *testing.T) {
	tests := []struct {
		in      string
		want    Backend
		wantErr bool
	}{
		{in: "", want: BackendPDFCPU},
		{in: "pdfcpu", want: BackendPDFCPU},
		{in: " LEDONGTHUC ", want: BackendLedongthuc},
		{in: "mupdf", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBackend(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	path := testutil.WritePDF(t, t.TempDir(), "x.pdf", testutil.PDF{Pages: []testutil.PDFPage{{}}})
	_, err := Open(path, WithBackend("mupdf"))
	assert.Error(t, err)
}
