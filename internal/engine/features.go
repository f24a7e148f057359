package engine

import (
	"errors"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var errFlat = errors.New("image has no texture")

// grayPixels returns the luminance of an NRGBA image produced by imaging.Grayscale.
func grayPixels(img *image.NRGBA) []float64 {
	b := img.Bounds()
	out := make([]float64, 0, b.Dx()*b.Dy())
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+b.Dx()*4]
		for x := 0; x < len(row); x += 4 {
			out = append(out, float64(row[x]))
		}
	}
	return out
}

// workImage converts src to grayscale, shrunk to fit within size x size.
func workImage(src image.Image, size int) *image.NRGBA {
	gray := imaging.Grayscale(src)
	b := gray.Bounds()
	if b.Dx() <= size && b.Dy() <= size {
		return gray
	}
	return imaging.Fit(gray, size, size, imaging.Box)
}

// quality maps pixel spread to [0,1].
func quality(pixels []float64) float64 {
	if len(pixels) < 2 {
		return 0
	}
	_, sd := stat.MeanStdDev(pixels, nil)
	return math.Max(0, math.Min(1, sd/128))
}

// featureVector resamples gray to grid x grid and returns the zero-mean,
// unit-norm luminance vector.
func featureVector(gray *image.NRGBA, grid int) ([]float64, error) {
	small := imaging.Resize(gray, grid, grid, imaging.Box)
	v := grayPixels(small)
	floats.AddConst(-stat.Mean(v, nil), v)
	n := floats.Norm(v, 2)
	if n < 1e-9 {
		return nil, errFlat
	}
	floats.Scale(1/n, v)
	return v, nil
}

// combine averages unit vectors and renormalises the result.
func combine(vectors [][]float64) ([]float64, error) {
	if len(vectors) == 0 {
		return nil, errFlat
	}
	acc := make([]float64, len(vectors[0]))
	for _, v := range vectors {
		floats.Add(acc, v)
	}
	n := floats.Norm(acc, 2)
	if n < 1e-9 {
		return nil, errFlat
	}
	floats.Scale(1/n, acc)
	return acc, nil
}

// similarity maps the cosine of two unit vectors onto [0,1].
func similarity(a, b []float64) float64 {
	s := (floats.Dot(a, b) + 1) / 2
	return math.Max(0, math.Min(1, s))
}
