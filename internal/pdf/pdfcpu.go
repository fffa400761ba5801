package pdf

import (
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// maxTreeDepth bounds the walk up the page tree when resolving inherited
// resources.
const maxTreeDepth = 32

type pdfcpuDocument struct {
	ctx *model.Context
}

func openPDFCPU(path string) (document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(file, conf)
	if err != nil {
		return nil, &BackendError{Backend: BackendPDFCPU, Op: "read", Err: err}
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, &BackendError{Backend: BackendPDFCPU, Op: "page_count", Err: err}
	}

	return &pdfcpuDocument{ctx: ctx}, nil
}

func (d *pdfcpuDocument) PageCount() int {
	return d.ctx.PageCount
}

func (d *pdfcpuDocument) PageImages(page int) ([]ImageObject, error) {
	pageDict, _, _, err := d.ctx.PageDict(page, false)
	if err != nil {
		return nil, err
	}
	if pageDict == nil {
		return nil, fmt.Errorf("page %d not found", page)
	}

	resources, err := d.resources(pageDict)
	if err != nil {
		return nil, err
	}
	if resources == nil {
		return nil, fmt.Errorf("page %d has no resource dictionary", page)
	}

	xobjObj, found := resources.Find("XObject")
	if !found {
		return nil, nil
	}
	xobjects, err := d.ctx.DereferenceDict(xobjObj)
	if err != nil || xobjects == nil {
		return nil, err
	}

	var images []ImageObject
	for name, obj := range xobjects {
		sd, _, err := d.ctx.DereferenceStreamDict(obj)
		if err != nil || sd == nil {
			continue
		}
		if subtype := sd.Subtype(); subtype == nil || *subtype != "Image" {
			continue
		}

		_, hasMask := sd.Find("SMask")
		images = append(images, ImageObject{
			Name:             name,
			Page:             page,
			Width:            d.intEntry(sd.Dict, "Width", 0),
			Height:           d.intEntry(sd.Dict, "Height", 0),
			BitsPerComponent: d.intEntry(sd.Dict, "BitsPerComponent", 8),
			SoftMask:         hasMask,
			decode:           d.decoder(sd),
		})
	}

	sortByName(images)
	return images, nil
}

// resources returns the page's resource dictionary, walking up the page tree
// for an inherited one.
func (d *pdfcpuDocument) resources(node types.Dict) (types.Dict, error) {
	for depth := 0; node != nil && depth < maxTreeDepth; depth++ {
		if obj, found := node.Find("Resources"); found {
			return d.ctx.DereferenceDict(obj)
		}
		parent, found := node.Find("Parent")
		if !found {
			return nil, nil
		}
		next, err := d.ctx.DereferenceDict(parent)
		if err != nil {
			return nil, err
		}
		node = next
	}
	return nil, nil
}

func (d *pdfcpuDocument) intEntry(dict types.Dict, key string, def int) int {
	obj, found := dict.Find(key)
	if !found {
		return def
	}
	i, err := d.ctx.DereferenceInteger(obj)
	if err != nil || i == nil {
		return def
	}
	return i.Value()
}

func (d *pdfcpuDocument) decoder(sd *types.StreamDict) func() ([]byte, error) {
	return func() ([]byte, error) {
		if err := sd.Decode(); err != nil {
			return nil, &BackendError{Backend: BackendPDFCPU, Op: "decode_stream", Err: err}
		}
		return sd.Content, nil
	}
}

func (d *pdfcpuDocument) Close() error {
	d.ctx = nil
	return nil
}
