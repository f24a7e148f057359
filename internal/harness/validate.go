package harness

import (
	"fmt"

	"tatte-go/tatte"
)

func checkBox(i int, bb tatte.BoundingBox, img tatte.Image) []string {
	var out []string
	if !bb.Within(img) {
		out = append(out, fmt.Sprintf("box %d (%d,%d %dx%d) exceeds %dx%d image",
			i, bb.X, bb.Y, bb.Width, bb.Height, img.Width, img.Height))
	}
	if bb.Confidence < 0 || bb.Confidence > 1 {
		out = append(out, fmt.Sprintf("box %d confidence %g outside [0,1]", i, bb.Confidence))
	}
	return out
}

// checkTemplate validates CreateTemplate output for images.
func checkTemplate(images tatte.MultiTattoo, res tatte.TemplateResult) []string {
	var out []string
	if res.Template == nil {
		return []string{"nil template"}
	}
	boxes := res.Template.BoundingBoxes()
	if len(boxes) != len(images) {
		out = append(out, fmt.Sprintf("%d bounding boxes for %d images", len(boxes), len(images)))
	} else {
		for i, bb := range boxes {
			out = append(out, checkBox(i, bb, images[i])...)
		}
	}
	if len(res.Quality) != len(images) {
		out = append(out, fmt.Sprintf("%d quality values for %d images", len(res.Quality), len(images)))
	}
	for i, q := range res.Quality {
		if q < 0 || q > 1 {
			out = append(out, fmt.Sprintf("quality %d is %g, outside [0,1]", i, q))
		}
	}
	return out
}

// checkCandidates validates IdentifyTemplate output. enrolled may be nil to
// skip the template ID check.
func checkCandidates(cands []tatte.Candidate, k uint32, st tatte.ReturnStatus, enrolled map[string]bool) []string {
	var out []string
	if !st.OK() {
		if len(cands) > 0 {
			out = append(out, fmt.Sprintf("%d candidates returned with status %s", len(cands), st.Code))
		}
		return out
	}
	if uint32(len(cands)) > k {
		out = append(out, fmt.Sprintf("%d candidates for k=%d", len(cands), k))
	}
	if !tatte.CandidatesSorted(cands) {
		out = append(out, "candidates not in non-increasing similarity order")
	}
	for i, c := range cands {
		if !c.IsAssigned {
			if c.SimilarityScore != tatte.UnassignedScore {
				out = append(out, fmt.Sprintf("unassigned candidate %d has score %g", i, c.SimilarityScore))
			}
			continue
		}
		if enrolled != nil && !enrolled[c.TemplateID] {
			out = append(out, fmt.Sprintf("candidate %d names unknown template %q", i, c.TemplateID))
		}
	}
	return out
}

// checkDetection validates DetectTattoo output for img.
func checkDetection(img tatte.Image, det tatte.Detection, st tatte.ReturnStatus) []string {
	if !st.OK() {
		if det.Detected || det.Confidence != 0 || len(det.BoundingBoxes) > 0 {
			return []string{fmt.Sprintf("non-empty output with status %s", st.Code)}
		}
		return nil
	}
	var out []string
	if det.Confidence < 0 || det.Confidence > 1 {
		out = append(out, fmt.Sprintf("confidence %g outside [0,1]", det.Confidence))
	}
	for i, bb := range det.BoundingBoxes {
		out = append(out, checkBox(i, bb, img)...)
	}
	return out
}
