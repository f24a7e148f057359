package harness

import (
	"context"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"tatte-go/internal/edb"
	"tatte-go/tatte"
)

// Outcome is the result of CreateTemplate for one subject.
type Outcome struct {
	SubjectID string
	Status    tatte.ReturnStatus
	Result    tatte.TemplateResult
}

// createTemplates runs CreateTemplate for every subject on the pool and
// validates each result. Outcomes keep subject order.
func (h *Harness) createTemplates(ctx context.Context, phase string, subjects []Subject, role tatte.TemplateRole) ([]Outcome, error) {
	prog := h.startPhase(phase, len(subjects))
	outcomes := make([]Outcome, len(subjects))
	errs := make(chan error, len(subjects))

	for i := range subjects {
		i := i
		go func() {
			s := subjects[i]
			errs <- h.pool.Run(ctx, s.ID, func() {
				res, st := h.impl.CreateTemplate(s.Images, role)
				outcomes[i] = Outcome{SubjectID: s.ID, Status: st, Result: res}
				prog.tick()
			})
		}()
	}
	var firstErr error
	for range subjects {
		if err := <-errs; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}

	for i, o := range outcomes {
		prog.phase.record(o.Status)
		h.report.violate(o.SubjectID, "CreateTemplate", checkTemplate(subjects[i].Images, o.Result)...)
		if !o.Status.OK() {
			log.WithFields(log.Fields{
				"subject": o.SubjectID,
				"role":    role,
				"status":  o.Status.String(),
			}).Warn("Template creation failed")
		}
	}
	prog.finish()
	return outcomes, nil
}

// Enroll creates enrollment templates for subjects, writes the enrollment
// database in subject order and finalizes it. Failed templates are written
// too, possibly with zero length. A failed finalization is an error.
func (h *Harness) Enroll(ctx context.Context, subjects []Subject) ([]Outcome, error) {
	if st := h.impl.InitializeTemplateCreation(h.opts.ConfigDir, tatte.Enrollment); !st.OK() {
		return nil, fmt.Errorf("initialize enrollment: %w", st.Err())
	}
	if err := os.MkdirAll(h.opts.Enrollment.Dir, 0750); err != nil {
		return nil, fmt.Errorf("enrollment directory: %w", err)
	}

	outcomes, err := h.createTemplates(ctx, "enroll", subjects, tatte.Enrollment)
	if err != nil {
		return nil, err
	}

	w, err := edb.Create(h.opts.Enrollment.EDBPath(), h.opts.Enrollment.ManifestPath())
	if err != nil {
		return nil, err
	}
	for _, o := range outcomes {
		var data []byte
		if o.Result.Template != nil {
			data = o.Result.Template.Bytes()
		}
		if err := w.Append(o.SubjectID, data); err != nil {
			w.Close()
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"edb":       h.opts.Enrollment.EDBPath(),
		"templates": w.Count(),
	}).Info("Wrote enrollment database")

	prog := h.startPhase("finalize", 1)
	st := h.impl.FinalizeEnrollment(h.opts.Enrollment.Dir, h.opts.Enrollment.EDBName, h.opts.Enrollment.ManifestName, h.opts.GalleryType)
	prog.phase.record(st)
	prog.finish()
	if !st.OK() {
		return outcomes, fmt.Errorf("finalize enrollment: %w", st.Err())
	}
	return outcomes, nil
}
