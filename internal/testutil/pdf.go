package testutil

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

// PDFImage is an image XObject. Data holds the unfiltered samples; the
// builder FlateDecode-compresses them.
type PDFImage struct {
	Name             string
	Width            int
	Height           int
	BitsPerComponent int
	Data             []byte
	// SoftMask attaches an 8-bit alpha image through /SMask.
	SoftMask bool
}

// PDFPage lists the images on one page. A page with no images gets no
// /Resources entry and inherits the page tree's, if any.
type PDFPage struct {
	Images []PDFImage
}

// PDF describes a document with a single-level page tree.
type PDF struct {
	Pages []PDFPage
	// Inherited images go in the /Resources of the /Pages node.
	Inherited []PDFImage
}

type pdfWriter struct {
	objects [][]byte
}

func (w *pdfWriter) reserve() int {
	w.objects = append(w.objects, nil)
	return len(w.objects)
}

func (w *pdfWriter) set(num int, body []byte) {
	w.objects[num-1] = body
}

func (w *pdfWriter) add(body []byte) int {
	num := w.reserve()
	w.set(num, body)
	return num
}

func (w *pdfWriter) stream(dict string, data []byte) int {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "<< %s /Length %d >>\nstream\n", dict, len(data))
	buf.Write(data)
	buf.WriteString("\nendstream")
	return w.add(buf.Bytes())
}

func (w *pdfWriter) image(t testing.TB, img PDFImage) int {
	t.Helper()

	bpc := img.BitsPerComponent
	if bpc == 0 {
		bpc = 8
	}

	mask := ""
	if img.SoftMask {
		alpha := bytes.Repeat([]byte{0xff}, img.Width*img.Height)
		num := w.stream(fmt.Sprintf(
			"/Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace /DeviceGray /BitsPerComponent 8 /Filter /FlateDecode",
			img.Width, img.Height), deflate(t, alpha))
		mask = fmt.Sprintf(" /SMask %d 0 R", num)
	}

	return w.stream(fmt.Sprintf(
		"/Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace /DeviceGray /BitsPerComponent %d /Filter /FlateDecode%s",
		img.Width, img.Height, bpc, mask), deflate(t, img.Data))
}

func (w *pdfWriter) resources(t testing.TB, images []PDFImage) string {
	t.Helper()

	refs := make(map[string]int, len(images))
	for _, img := range images {
		refs[img.Name] = w.image(t, img)
	}
	names := make([]string, 0, len(refs))
	for name := range refs {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	buf.WriteString("/Resources << /XObject <<")
	for _, name := range names {
		fmt.Fprintf(&buf, " /%s %d 0 R", name, refs[name])
	}
	buf.WriteString(" >> >>")
	return buf.String()
}

// Bytes serialises the document with a classic cross-reference table.
func (p PDF) Bytes(t testing.TB) []byte {
	t.Helper()

	w := &pdfWriter{}
	catalog := w.reserve()
	pages := w.reserve()

	inherited := ""
	if len(p.Inherited) > 0 {
		inherited = " " + w.resources(t, p.Inherited)
	}

	kids := make([]int, 0, len(p.Pages))
	for _, page := range p.Pages {
		resources := ""
		if len(page.Images) > 0 {
			resources = " " + w.resources(t, page.Images)
		}
		content := w.stream("", []byte("q Q"))
		kids = append(kids, w.add(fmt.Appendf(nil,
			"<< /Type /Page /Parent %d 0 R /MediaBox [0 0 612 792]%s /Contents %d 0 R >>",
			pages, resources, content)))
	}

	var kidRefs bytes.Buffer
	for i, k := range kids {
		if i > 0 {
			kidRefs.WriteByte(' ')
		}
		fmt.Fprintf(&kidRefs, "%d 0 R", k)
	}
	w.set(catalog, fmt.Appendf(nil, "<< /Type /Catalog /Pages %d 0 R >>", pages))
	w.set(pages, fmt.Appendf(nil, "<< /Type /Pages /Kids [%s] /Count %d%s >>", kidRefs.String(), len(kids), inherited))

	var out bytes.Buffer
	out.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")
	offsets := make([]int, len(w.objects))
	for i, body := range w.objects {
		offsets[i] = out.Len()
		fmt.Fprintf(&out, "%d 0 obj\n", i+1)
		out.Write(body)
		out.WriteString("\nendobj\n")
	}

	xref := out.Len()
	fmt.Fprintf(&out, "xref\n0 %d\n", len(w.objects)+1)
	out.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&out, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&out, "trailer\n<< /Size %d /Root %d 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(w.objects)+1, catalog, xref)

	return out.Bytes()
}

// WritePDF stores the document in dir and returns its path.
func WritePDF(t testing.TB, dir, name string, p PDF) string {
	t.Helper()
	return WriteFile(t, dir, name, p.Bytes(t))
}

// QRPDFImage packs a QR raster as a 1-bit image XObject.
func QRPDFImage(t testing.TB, name, text string, size int) PDFImage {
	t.Helper()
	img := QRImage(t, text, size)
	return PDFImage{
		Name:             name,
		Width:            img.Width,
		Height:           img.Height,
		BitsPerComponent: 1,
		Data:             PackLuma1(img),
	}
}

func deflate(t testing.TB, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	_, err := zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}
