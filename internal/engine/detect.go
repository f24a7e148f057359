package engine

import (
	"image"
	"math"
	"sort"

	"tatte-go/tatte"
)

type region struct {
	x0, y0, x1, y1 int
	area           int
}

// darkRegions finds 4-connected components of pixels darker than threshold.
func darkRegions(gray *image.NRGBA, threshold float64) []region {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	pass := func(x, y int) bool {
		return float64(gray.Pix[y*gray.Stride+x*4]) < threshold
	}

	seen := make([]bool, w*h)
	var regions []region
	var queue []image.Point
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			if seen[idx] {
				continue
			}
			seen[idx] = true
			if !pass(x, y) {
				continue
			}
			r := region{x0: x, y0: y, x1: x, y1: y}
			queue = append(queue[:0], image.Point{X: x, Y: y})
			for len(queue) > 0 {
				pt := queue[0]
				queue = queue[1:]
				r.area++
				r.x0, r.x1 = min(r.x0, pt.X), max(r.x1, pt.X)
				r.y0, r.y1 = min(r.y0, pt.Y), max(r.y1, pt.Y)
				for _, n := range [4]image.Point{pt.Add(image.Pt(0, -1)), pt.Add(image.Pt(0, 1)), pt.Add(image.Pt(-1, 0)), pt.Add(image.Pt(1, 0))} {
					if n.X < 0 || n.Y < 0 || n.X >= w || n.Y >= h {
						continue
					}
					nIdx := n.Y*w + n.X
					if seen[nIdx] {
						continue
					}
					seen[nIdx] = true
					if pass(n.X, n.Y) {
						queue = append(queue, n)
					}
				}
			}
			regions = append(regions, r)
		}
	}
	return regions
}

// localize returns the dark regions of gray as boxes in the coordinates of
// a srcW x srcH source image, strongest first.
func localize(gray *image.NRGBA, srcW, srcH int, s *Settings) []tatte.BoundingBox {
	b := gray.Bounds()
	total := float64(b.Dx() * b.Dy())
	if total == 0 {
		return nil
	}
	sx := float64(srcW) / float64(b.Dx())
	sy := float64(srcH) / float64(b.Dy())

	var boxes []tatte.BoundingBox
	for _, r := range darkRegions(gray, s.DetectThreshold) {
		frac := float64(r.area) / total
		if frac < s.MinRegionFraction {
			continue
		}
		x0 := int(math.Floor(float64(r.x0) * sx))
		y0 := int(math.Floor(float64(r.y0) * sy))
		x1 := min(srcW, int(math.Ceil(float64(r.x1+1)*sx)))
		y1 := min(srcH, int(math.Ceil(float64(r.y1+1)*sy)))
		boxes = append(boxes, tatte.BoundingBox{
			X:          uint16(x0),
			Y:          uint16(y0),
			Width:      uint16(x1 - x0),
			Height:     uint16(y1 - y0),
			Confidence: math.Min(1, frac*4),
		})
	}
	sort.SliceStable(boxes, func(i, j int) bool {
		return boxes[i].Confidence > boxes[j].Confidence
	})
	return boxes
}
