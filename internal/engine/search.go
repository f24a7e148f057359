package engine

import (
	"fmt"
	"path/filepath"

	"github.com/emirpasic/gods/trees/binaryheap"
	log "github.com/sirupsen/logrus"

	"tatte-go/internal/gallery"
	"tatte-go/tatte"
)

type indexed struct {
	position   int
	templateID string
	features   []float64
}

// index is the in-memory search gallery, in enrollment order.
type index struct {
	galleryType tatte.GalleryType
	grid        int
	entries     []indexed
	blank       int
}

type scored struct {
	position   int
	templateID string
	score      float64
}

// worseFirst orders the heap so the root is the weakest candidate kept.
func worseFirst(a, b interface{}) int {
	x, y := a.(scored), b.(scored)
	switch {
	case x.score < y.score:
		return -1
	case x.score > y.score:
		return 1
	case x.position > y.position:
		return -1
	case x.position < y.position:
		return 1
	}
	return 0
}

// InitializeIdentification loads the finalized gallery read-only.
func (r *Reference) InitializeIdentification(configDir, enrollmentDir string) tatte.ReturnStatus {
	if _, err := LoadSettings(configDir); err != nil {
		return tatte.Status(tatte.ConfigError, err.Error())
	}
	idx, err := loadIndex(filepath.Join(enrollmentDir, GalleryFile))
	if err != nil {
		return tatte.Status(tatte.EnrollDirError, err.Error())
	}
	r.mu.Lock()
	r.search = idx
	r.mu.Unlock()

	log.WithFields(log.Fields{
		"entries": len(idx.entries),
		"blank":   idx.blank,
		"type":    idx.galleryType,
	}).Info("Identification initialized")
	return tatte.OK()
}

func loadIndex(path string) (*index, error) {
	store, err := gallery.OpenReadOnly(path)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	meta, err := store.Meta()
	if err != nil {
		return nil, err
	}
	gt, err := tatte.ParseGalleryType(meta.GalleryType)
	if err != nil {
		return nil, err
	}
	rows, err := store.Entries()
	if err != nil {
		return nil, fmt.Errorf("failed to load gallery %s: %w", store.Path(), err)
	}
	log.Debugf("Loaded %d gallery rows from %s", len(rows), store.Path())

	idx := &index{galleryType: gt, entries: make([]indexed, 0, len(rows))}
	for _, row := range rows {
		if row.Blank {
			idx.blank++
			continue
		}
		rec, err := decodeRecord(row.Payload)
		if err != nil {
			return nil, fmt.Errorf("gallery entry %s: %w", row.TemplateID, err)
		}
		idx.grid = rec.Grid
		idx.entries = append(idx.entries, indexed{
			position:   row.Position,
			templateID: row.TemplateID,
			features:   rec.vector(),
		})
	}
	return idx, nil
}

// IdentifyTemplate ranks gallery templates by similarity to probe.
func (r *Reference) IdentifyTemplate(probe *tatte.Template, k uint32) ([]tatte.Candidate, tatte.ReturnStatus) {
	r.mu.RLock()
	idx := r.search
	r.mu.RUnlock()
	if idx == nil {
		return nil, tatte.Status(tatte.ConfigError, "identification not initialized")
	}
	if probe == nil || probe.Size() == 0 {
		return nil, tatte.Status(tatte.TemplateFormatError, "blank probe template")
	}
	rec, err := decodeRecord(probe.Bytes())
	if err != nil {
		return nil, tatte.Status(tatte.TemplateFormatError, err.Error())
	}
	if idx.grid != 0 && rec.Grid != idx.grid {
		return nil, tatte.Statusf(tatte.TemplateFormatError, "probe grid %d, gallery uses %d", rec.Grid, idx.grid)
	}
	if k == 0 {
		return []tatte.Candidate{}, tatte.OK()
	}
	return idx.topK(rec.vector(), int(k)), tatte.OK()
}

func (idx *index) topK(probe []float64, k int) []tatte.Candidate {
	// Best score per template id; an id's rank position is its first enrollment.
	best := make(map[string]int, len(idx.entries))
	var all []scored
	for _, e := range idx.entries {
		sc := scored{position: e.position, templateID: e.templateID, score: similarity(probe, e.features)}
		if i, ok := best[e.templateID]; ok {
			if sc.score > all[i].score {
				all[i].score = sc.score
			}
			continue
		}
		best[e.templateID] = len(all)
		all = append(all, sc)
	}

	heap := binaryheap.NewWith(worseFirst)
	for _, sc := range all {
		heap.Push(sc)
		if heap.Size() > k {
			heap.Pop()
		}
	}

	out := make([]tatte.Candidate, heap.Size())
	for i := len(out) - 1; i >= 0; i-- {
		v, _ := heap.Pop()
		sc := v.(scored)
		out[i] = tatte.Candidate{IsAssigned: true, TemplateID: sc.templateID, SimilarityScore: sc.score}
	}
	return out
}
