package pdf

import (
	"fmt"
	"sort"
	"strings"
)

// Backend names the PDF library used to walk the object model.
type Backend string

const (
	BackendPDFCPU     Backend = "pdfcpu"
	BackendLedongthuc Backend = "ledongthuc"

	DefaultBackend = BackendPDFCPU
)

// Backends lists the supported backends.
func Backends() []Backend {
	return []Backend{BackendPDFCPU, BackendLedongthuc}
}

// ParseBackend resolves a backend name; an empty name is DefaultBackend.
func ParseBackend(name string) (Backend, error) {
	switch Backend(strings.ToLower(strings.TrimSpace(name))) {
	case "":
		return DefaultBackend, nil
	case BackendPDFCPU:
		return BackendPDFCPU, nil
	case BackendLedongthuc:
		return BackendLedongthuc, nil
	default:
		return "", fmt.Errorf("unknown PDF backend %q (must be one of: pdfcpu, ledongthuc)", name)
	}
}

// ImageObject is an image XObject found in a page's resources. Its samples
// are only read when Decode is called.
type ImageObject struct {
	Name             string
	Page             int
	Width            int
	Height           int
	BitsPerComponent int
	SoftMask         bool

	decode func() ([]byte, error)
}

// Decode returns the filter-decoded sample bytes of the image.
func (o ImageObject) Decode() ([]byte, error) {
	if o.decode == nil {
		return nil, fmt.Errorf("image %s has no stream", o.Name)
	}
	return o.decode()
}

// document is the part of a PDF library the extractor depends on.
type document interface {
	// PageCount returns the number of pages; pages are numbered from 1.
	PageCount() int
	// PageImages returns the image XObjects in the page's (possibly
	// inherited) resources.
	PageImages(page int) ([]ImageObject, error)
	Close() error
}

type openFunc func(path string) (document, error)

var backends = map[Backend]openFunc{
	BackendPDFCPU:     openPDFCPU,
	BackendLedongthuc: openLedongthuc,
}

func openDocument(path string, backend Backend) (document, error) {
	open, ok := backends[backend]
	if !ok {
		return nil, fmt.Errorf("unknown PDF backend %q", backend)
	}
	return open(path)
}

func sortByName(objs []ImageObject) {
	sort.Slice(objs, func(i, j int) bool { return objs[i].Name < objs[j].Name })
}

// BackendError records which library operation failed.
type BackendError struct {
	Backend Backend
	Op      string
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Backend, e.Op, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}
