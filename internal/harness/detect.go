package harness

import (
	"context"
	"fmt"

	"tatte-go/tatte"
)

// DetectResult is the detection output for one image.
type DetectResult struct {
	ImageID   string
	Status    tatte.ReturnStatus
	Detection tatte.Detection
}

// Detect runs DetectTattoo on every image of every subject. Image IDs are
// "<subject>/<index>".
func (h *Harness) Detect(ctx context.Context, subjects []Subject) ([]DetectResult, error) {
	if st := h.impl.InitializeDetection(h.opts.ConfigDir); !st.OK() {
		return nil, fmt.Errorf("initialize detection: %w", st.Err())
	}

	type item struct {
		id  string
		img tatte.Image
	}
	var items []item
	for _, s := range subjects {
		for i, img := range s.Images {
			items = append(items, item{id: fmt.Sprintf("%s/%d", s.ID, i), img: img})
		}
	}

	prog := h.startPhase("detect", len(items))
	results := make([]DetectResult, len(items))
	errs := make(chan error, len(items))
	for i := range items {
		i := i
		go func() {
			errs <- h.pool.Run(ctx, items[i].id, func() {
				det, st := h.impl.DetectTattoo(items[i].img)
				results[i] = DetectResult{ImageID: items[i].id, Status: st, Detection: det}
				prog.tick()
			})
		}()
	}
	var firstErr error
	for range items {
		if err := <-errs; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}

	for i, r := range results {
		prog.phase.record(r.Status)
		h.report.violate(r.ImageID, "DetectTattoo", checkDetection(items[i].img, r.Detection, r.Status)...)
	}
	prog.finish()
	return results, nil
}
