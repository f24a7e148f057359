package engine

import (
	log "github.com/sirupsen/logrus"

	"tatte-go/tatte"
)

// failed returns a result with one zero box and one zero quality per image.
func failed(n int) tatte.TemplateResult {
	t := &tatte.Template{}
	q := make([]float64, n)
	for i := 0; i < n; i++ {
		t.AddBoundingBox(tatte.BoundingBox{})
	}
	return tatte.TemplateResult{Template: t, Quality: q}
}

// CreateTemplate builds a normalised luminance template from images.
func (r *Reference) CreateTemplate(images tatte.MultiTattoo, role tatte.TemplateRole) (tatte.TemplateResult, tatte.ReturnStatus) {
	s := r.settingsFor(role)
	if s == nil {
		return failed(len(images)), tatte.Statusf(tatte.ConfigError, "template creation not initialized for %v", role)
	}
	if len(images) == 0 || len(images) > s.MaxImages {
		return failed(len(images)), tatte.Statusf(tatte.NumDataError, "got %d images, support 1..%d", len(images), s.MaxImages)
	}
	if !images.Homogeneous() {
		return failed(len(images)), tatte.Status(tatte.RefuseInput, "images of mixed type")
	}
	if images[0].Type == tatte.Sketch && !s.SupportSketch {
		return failed(len(images)), tatte.Status(tatte.ImageTypeNotSupported, "sketches are not supported")
	}

	res := tatte.TemplateResult{Template: &tatte.Template{}, Quality: make([]float64, len(images))}
	vectors := make([][]float64, 0, len(images))
	for i, img := range images {
		src, err := img.ToImage()
		if err != nil {
			return failed(len(images)), tatte.Statusf(tatte.ParseError, "image %d: %v", i, err)
		}
		gray := workImage(src, s.WorkSize)
		res.Quality[i] = quality(grayPixels(gray))

		box := tatte.BoundingBox{}
		if boxes := localize(gray, int(img.Width), int(img.Height), s); len(boxes) > 0 {
			box = boxes[0]
		}
		res.Template.AddBoundingBox(box)

		v, err := featureVector(gray, s.GridSize)
		if err != nil {
			log.Debugf("Image %d contributes no features: %v", i, err)
			continue
		}
		vectors = append(vectors, v)
	}

	features, err := combine(vectors)
	if err != nil {
		return res, tatte.Status(tatte.ExtractError, err.Error())
	}
	payload, err := encodeRecord(role, len(images), s.GridSize, features)
	if err != nil {
		return res, tatte.Status(tatte.VendorError, err.Error())
	}
	buf, err := res.Template.Resize(uint64(len(payload)))
	if err != nil {
		return res, tatte.Status(tatte.VendorError, err.Error())
	}
	copy(buf, payload)
	return res, tatte.OK()
}
