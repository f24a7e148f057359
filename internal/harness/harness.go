// Package harness drives a tatte.Interface through enrollment, search and
// detection, checking every output against the interface contract.
package harness

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"tatte-go/config"
	"tatte-go/internal/events"
	"tatte-go/internal/utils"
	"tatte-go/tatte"
)

// Options configure a Harness.
type Options struct {
	Engine       string
	ConfigDir    string
	Enrollment   config.EnrollmentConfig
	GalleryType  tatte.GalleryType
	Workers      int
	CollectStats bool
}

// OptionsFromConfig derives Options from the loaded configuration.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	gt, err := tatte.ParseGalleryType(cfg.Enrollment.GalleryType)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Engine:       cfg.Engine.Name,
		ConfigDir:    cfg.Engine.ConfigDir,
		Enrollment:   cfg.Enrollment,
		GalleryType:  gt,
		Workers:      cfg.Harness.Workers,
		CollectStats: cfg.Harness.CollectStats,
	}, nil
}

// Harness runs one evaluation against an implementation.
type Harness struct {
	impl   tatte.Interface
	opts   Options
	pool   *WorkerPool
	events events.Publisher
	report *Report
}

// New creates a harness. pub may be nil.
func New(impl tatte.Interface, opts Options, pub events.Publisher) *Harness {
	if pub == nil {
		pub = events.Nop{}
	}
	runID := uuid.New().String()
	log.WithFields(log.Fields{
		"run_id": runID,
		"engine": opts.Engine,
	}).Info("Starting harness run")

	return &Harness{
		impl:   impl,
		opts:   opts,
		pool:   NewWorkerPool(opts.Workers),
		events: pub,
		report: &Report{
			RunID:      runID,
			Engine:     opts.Engine,
			APIVersion: fmt.Sprintf("%d.%d", tatte.APIMajorVersion, tatte.APIMinorVersion),
		},
	}
}

// Report returns the run report, with a fresh stats snapshot when enabled.
func (h *Harness) Report() *Report {
	if h.opts.CollectStats {
		stats := utils.Snapshot(h.pool)
		log.WithFields(log.Fields{
			"cpu":          fmt.Sprintf("%.1f%%", stats.CPUUsage),
			"memory_alloc": utils.FormatBytes(stats.MemoryAlloc),
			"memory_sys":   utils.FormatBytes(stats.MemorySys),
			"goroutines":   stats.GoRoutines,
		}).Info("Run resource usage")
		h.report.mu.Lock()
		h.report.Stats = stats
		h.report.mu.Unlock()
	}
	return h.report
}

// Close stops the worker pool.
func (h *Harness) Close() {
	h.pool.Shutdown()
}

// progress publishes phase events: one at start, roughly every tenth
// completion and one at the end.
type progress struct {
	h     *Harness
	phase *Phase
	done  atomic.Int64
	step  int64
}

func (h *Harness) startPhase(name string, total int) *progress {
	p := &progress{h: h, phase: h.report.begin(name, total), step: int64(max(1, total/10))}
	p.publish("started", 0, nil)
	log.Infof("Phase %s started (%d items)", name, total)
	return p
}

func (p *progress) tick() {
	n := p.done.Add(1)
	if n%p.step == 0 && int(n) < p.phase.Total {
		p.publish("progress", int(n), nil)
	}
}

func (p *progress) finish() {
	p.phase.Duration = time.Since(p.phase.Started)
	fields := map[string]interface{}{
		"succeeded": p.phase.Succeeded,
		"codes":     p.phase.Codes,
	}
	p.publish("finished", p.phase.Total, fields)
	log.WithFields(log.Fields{
		"phase":     p.phase.Name,
		"duration":  p.phase.Duration,
		"succeeded": p.phase.Succeeded,
		"total":     p.phase.Total,
	}).Info("Phase finished")
}

func (p *progress) publish(kind string, done int, fields map[string]interface{}) {
	err := p.h.events.Publish(events.Event{
		RunID:     p.h.report.RunID,
		Phase:     p.phase.Name,
		Kind:      kind,
		Done:      done,
		Total:     p.phase.Total,
		Fields:    fields,
		Timestamp: time.Now(),
	})
	if err != nil {
		log.Warnf("Failed to publish %s event: %v", kind, err)
	}
}
