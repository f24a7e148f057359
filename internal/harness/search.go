package harness

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"tatte-go/internal/edb"
	"tatte-go/tatte"
)

// SearchResult is the candidate list for one probe. Probes whose template
// creation failed carry that status and no candidates.
type SearchResult struct {
	ProbeID    string
	Status     tatte.ReturnStatus
	Candidates []tatte.Candidate
}

// Search creates identification templates for probes and searches the
// finalized gallery for the k most similar templates of each.
func (h *Harness) Search(ctx context.Context, probes []Subject, k uint32) ([]SearchResult, error) {
	if st := h.impl.InitializeTemplateCreation(h.opts.ConfigDir, tatte.Identification); !st.OK() {
		return nil, fmt.Errorf("initialize probe templates: %w", st.Err())
	}
	outcomes, err := h.createTemplates(ctx, "probe", probes, tatte.Identification)
	if err != nil {
		return nil, err
	}

	if st := h.impl.InitializeIdentification(h.opts.ConfigDir, h.opts.Enrollment.Dir); !st.OK() {
		return nil, fmt.Errorf("initialize identification: %w", st.Err())
	}
	enrolled := h.enrolledIDs()

	results := make([]SearchResult, len(outcomes))
	var searchable []int
	for i, o := range outcomes {
		results[i] = SearchResult{ProbeID: o.SubjectID, Status: o.Status}
		if o.Status.OK() && o.Result.Template != nil {
			searchable = append(searchable, i)
		}
	}

	prog := h.startPhase("search", len(searchable))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.pool.WorkerCount())
	for _, i := range searchable {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			cands, st := h.impl.IdentifyTemplate(outcomes[i].Result.Template, k)
			results[i].Status = st
			results[i].Candidates = cands
			prog.tick()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, i := range searchable {
		r := results[i]
		prog.phase.record(r.Status)
		h.report.violate(r.ProbeID, "IdentifyTemplate", checkCandidates(r.Candidates, k, r.Status, enrolled)...)
	}
	prog.finish()
	return results, nil
}

// enrolledIDs reads the manifest so candidates can be checked against it.
// It returns nil when the manifest is gone, which finalization permits.
func (h *Harness) enrolledIDs() map[string]bool {
	entries, err := edb.ReadManifest(h.opts.Enrollment.ManifestPath())
	if err != nil {
		log.Debugf("Manifest unavailable, skipping candidate ID checks: %v", err)
		return nil
	}
	ids := make(map[string]bool, len(entries))
	for _, e := range entries {
		ids[e.TemplateID] = true
	}
	return ids
}
