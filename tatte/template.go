package tatte

import (
	"errors"
	"fmt"
)

// MaxTemplateSize bounds a single template allocation.
const MaxTemplateSize = 1 << 30

// ErrTemplateTooLarge is returned by Resize when the requested size cannot be allocated.
var ErrTemplateTooLarge = errors.New("template size exceeds limit")

// TemplateRole is the intended use of a template.
type TemplateRole int

const (
	// Enrollment templates are enrolled into the gallery.
	Enrollment TemplateRole = iota
	// Identification templates are searched against the gallery.
	Identification
)

func (r TemplateRole) String() string {
	switch r {
	case Enrollment:
		return "enrollment"
	case Identification:
		return "identification"
	default:
		return fmt.Sprintf("TemplateRole(%d)", int(r))
	}
}

// GalleryType describes how enrollment templates relate to subjects.
type GalleryType int

const (
	// Consolidated galleries hold one template per subject.
	Consolidated GalleryType = iota
	// Unconsolidated galleries may hold several templates per subject.
	Unconsolidated
)

func (g GalleryType) String() string {
	switch g {
	case Consolidated:
		return "consolidated"
	case Unconsolidated:
		return "unconsolidated"
	default:
		return fmt.Sprintf("GalleryType(%d)", int(g))
	}
}

// ParseGalleryType accepts "consolidated" or "unconsolidated".
func ParseGalleryType(s string) (GalleryType, error) {
	switch s {
	case "consolidated", "":
		return Consolidated, nil
	case "unconsolidated":
		return Unconsolidated, nil
	}
	return 0, fmt.Errorf("unknown gallery type %q", s)
}

// Template is an opaque per-subject feature blob plus one bounding box per
// input image. The container owns its buffer; accessors hand out copies.
// A Template must not be mutated concurrently; once populated it is safe
// for concurrent readers.
type Template struct {
	data  []byte
	boxes []BoundingBox
}

// NewTemplate returns a template holding a copy of data.
func NewTemplate(data []byte) (*Template, error) {
	t := &Template{}
	buf, err := t.Resize(uint64(len(data)))
	if err != nil {
		return nil, err
	}
	copy(buf, data)
	return t, nil
}

// Resize (re)allocates an owned buffer of exactly size bytes and returns it
// for in-place population. Size 0 releases the buffer, leaving a blank
// template. Previous contents are discarded.
func (t *Template) Resize(size uint64) ([]byte, error) {
	if size > MaxTemplateSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTemplateTooLarge, size)
	}
	if size == 0 {
		t.data = nil
		return nil, nil
	}
	t.data = make([]byte, size)
	return t.data, nil
}

// AddBoundingBox appends one box. Callers add exactly one per input image, in input order.
func (t *Template) AddBoundingBox(bb BoundingBox) {
	t.boxes = append(t.boxes, bb)
}

// Bytes returns a copy of the template payload.
func (t *Template) Bytes() []byte {
	if len(t.data) == 0 {
		return nil
	}
	out := make([]byte, len(t.data))
	copy(out, t.data)
	return out
}

// Size returns the payload length in bytes.
func (t *Template) Size() uint64 {
	return uint64(len(t.data))
}

// BoundingBoxes returns a copy of the recorded boxes.
func (t *Template) BoundingBoxes() []BoundingBox {
	out := make([]BoundingBox, len(t.boxes))
	copy(out, t.boxes)
	return out
}

// TemplateResult is the output of CreateTemplate: the template and one
// quality value on [0,1] per input image.
type TemplateResult struct {
	Template *Template
	Quality  []float64
}
