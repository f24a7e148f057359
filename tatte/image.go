package tatte

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
)

// ImageType labels the kind of imagery passed to an implementation.
type ImageType int

const (
	// Tattoo is a photograph of a tattoo.
	Tattoo ImageType = iota
	// Sketch is a drawing of a tattoo.
	Sketch
	// Unknown is imagery of unspecified kind.
	Unknown
)

func (t ImageType) String() string {
	switch t {
	case Tattoo:
		return "tattoo"
	case Sketch:
		return "sketch"
	case Unknown:
		return "unknown"
	default:
		return fmt.Sprintf("ImageType(%d)", int(t))
	}
}

// Valid bit depths.
const (
	DepthGray uint8 = 8
	DepthRGB  uint8 = 24
)

var (
	ErrInvalidDepth  = errors.New("image depth must be 8 or 24")
	ErrBufferSize    = errors.New("image buffer length does not match width*height*depth/8")
	ErrEmptyImage    = errors.New("image has zero width or height")
	ErrImageTooLarge = errors.New("image dimensions exceed 65535")
)

// Image is a single raster. For depth 24 Data holds RGBRGB..., for depth 8
// one intensity byte per pixel, rows top to bottom.
//
// The zero value has depth 0 and type Tattoo and does not validate. Use
// NewImage for an empty 24-bit image of unknown type.
type Image struct {
	Width  uint16
	Height uint16
	Depth  uint8
	Type   ImageType
	Data   []byte
}

// NewImage returns an empty image with depth 24 and type Unknown.
func NewImage() Image {
	return Image{Depth: DepthRGB, Type: Unknown}
}

// Size returns the expected length of the pixel buffer in bytes.
func (img Image) Size() int {
	return int(img.Width) * int(img.Height) * int(img.Depth/8)
}

// Validate checks depth and buffer length.
func (img Image) Validate() error {
	if img.Depth != DepthGray && img.Depth != DepthRGB {
		return fmt.Errorf("%w: got %d", ErrInvalidDepth, img.Depth)
	}
	if img.Width == 0 || img.Height == 0 {
		return ErrEmptyImage
	}
	if len(img.Data) != img.Size() {
		return fmt.Errorf("%w: have %d, want %d", ErrBufferSize, len(img.Data), img.Size())
	}
	return nil
}

// ToImage converts the raster to an image.Image. The pixel data is copied.
func (img Image) ToImage() (image.Image, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	w, h := int(img.Width), int(img.Height)
	if img.Depth == DepthGray {
		g := image.NewGray(image.Rect(0, 0, w, h))
		copy(g.Pix, img.Data)
		return g, nil
	}
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	for i, j := 0, 0; i < len(img.Data); i, j = i+3, j+4 {
		rgba.Pix[j] = img.Data[i]
		rgba.Pix[j+1] = img.Data[i+1]
		rgba.Pix[j+2] = img.Data[i+2]
		rgba.Pix[j+3] = 0xff
	}
	return rgba, nil
}

// FromImage builds an Image of the given depth from src.
func FromImage(src image.Image, depth uint8, typ ImageType) (Image, error) {
	if depth != DepthGray && depth != DepthRGB {
		return Image{}, fmt.Errorf("%w: got %d", ErrInvalidDepth, depth)
	}
	b := src.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return Image{}, ErrEmptyImage
	}
	if b.Dx() > 0xffff || b.Dy() > 0xffff {
		return Image{}, ErrImageTooLarge
	}
	out := Image{Width: uint16(b.Dx()), Height: uint16(b.Dy()), Depth: depth, Type: typ}
	if depth == DepthGray {
		g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(g, g.Bounds(), src, b.Min, draw.Src)
		out.Data = g.Pix
		return out, nil
	}
	out.Data = make([]byte, 0, out.Size())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.RGBAModel.Convert(src.At(x, y)).(color.RGBA)
			out.Data = append(out.Data, c.R, c.G, c.B)
		}
	}
	return out, nil
}

// MultiTattoo is a set of images of the same tattoo from one subject.
type MultiTattoo []Image

// Homogeneous reports whether all images share one ImageType.
func (m MultiTattoo) Homogeneous() bool {
	for i := 1; i < len(m); i++ {
		if m[i].Type != m[0].Type {
			return false
		}
	}
	return true
}

// BoundingBox is a detected tattoo region. X and Y are the top-left corner.
// Confidence lies on [0,1].
type BoundingBox struct {
	X          uint16  `json:"x"`
	Y          uint16  `json:"y"`
	Width      uint16  `json:"width"`
	Height     uint16  `json:"height"`
	Confidence float64 `json:"confidence"`
}

// IsZero reports whether nothing was localized.
func (bb BoundingBox) IsZero() bool {
	return bb.Width == 0 && bb.Height == 0
}

// Within reports whether the box lies inside the extents of img.
func (bb BoundingBox) Within(img Image) bool {
	return int(bb.X)+int(bb.Width) <= int(img.Width) &&
		int(bb.Y)+int(bb.Height) <= int(img.Height)
}
