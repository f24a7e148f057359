// Package imageio decodes raster files into tatte images.
package imageio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"tatte-go/tatte"

	"github.com/disintegration/imaging"
	"github.com/spakin/netpbm"
)

// ErrUnsupportedFormat is returned for files with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported image format")

var netpbmExt = map[string]bool{".pbm": true, ".pgm": true, ".ppm": true, ".pnm": true, ".pam": true}

var rasterExt = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true, ".tif": true, ".tiff": true,
}

// Supported reports whether name has an extension Decode understands.
func Supported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return netpbmExt[ext] || rasterExt[ext]
}

// Decode reads one raster. name selects the decoder by extension.
func Decode(r io.Reader, name string) (image.Image, error) {
	ext := strings.ToLower(filepath.Ext(name))
	switch {
	case netpbmExt[ext]:
		img, err := netpbm.Decode(r, &netpbm.DecodeOptions{Target: netpbm.PNM})
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		return img, nil
	case rasterExt[ext]:
		img, err := imaging.Decode(r, imaging.AutoOrientation(true))
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		return img, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
}

// DecodeBytes decodes data and converts it to a tatte image.
func DecodeBytes(data []byte, name string, depth uint8, typ tatte.ImageType) (tatte.Image, error) {
	img, err := Decode(bytes.NewReader(data), name)
	if err != nil {
		return tatte.Image{}, err
	}
	return tatte.FromImage(img, depth, typ)
}

// Load reads the file at path as a tatte image of the given depth.
func Load(path string, depth uint8, typ tatte.ImageType) (tatte.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return tatte.Image{}, err
	}
	defer f.Close()

	img, err := Decode(f, path)
	if err != nil {
		return tatte.Image{}, err
	}
	out, err := tatte.FromImage(img, depth, typ)
	if err != nil {
		return tatte.Image{}, fmt.Errorf("convert %s: %w", path, err)
	}
	return out, nil
}

// LoadDir loads every supported file in dir, sorted by file name.
func LoadDir(dir string, depth uint8, typ tatte.ImageType) (tatte.MultiTattoo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && Supported(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	images := make(tatte.MultiTattoo, 0, len(names))
	for _, name := range names {
		img, err := Load(filepath.Join(dir, name), depth, typ)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, nil
}

// TypeFromName maps "sketch", "tattoo" and anything else to an ImageType.
func TypeFromName(s string) tatte.ImageType {
	switch strings.ToLower(s) {
	case "tattoo":
		return tatte.Tattoo
	case "sketch":
		return tatte.Sketch
	default:
		return tatte.Unknown
	}
}
