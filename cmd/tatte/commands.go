package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"tatte-go/config"
	"tatte-go/internal/api"
	"tatte-go/internal/events"
	"tatte-go/internal/harness"
	"tatte-go/internal/imageio"
	"tatte-go/tatte"
)

// run sets up the implementation, the event publisher and the harness,
// calls fn and writes the report.
func run(c *cli.Context, cfg *config.Config, fn func(ctx context.Context, h *harness.Harness) error) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	impl, err := tatte.GetImplementation(cfg.Engine.Name)
	if err != nil {
		return err
	}
	opts, err := harness.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}
	pub, err := events.New(cfg.MQTT)
	if err != nil {
		log.Warnf("Failed to initialize MQTT events: %v. Continuing without them.", err)
		pub = events.Nop{}
	}
	defer pub.Close()

	h := harness.New(impl, opts, pub)
	defer h.Close()

	runErr := fn(ctx, h)
	if err := writeReport(c, h.Report()); err != nil {
		log.Errorf("Failed to write report: %v", err)
	}
	return runErr
}

func writeReport(c *cli.Context, report *harness.Report) error {
	var w io.Writer = c.App.Writer
	if path := c.String(flagReport); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func loadSubjects(c *cli.Context, cfg *config.Config, flag string) ([]harness.Subject, error) {
	subjects, err := harness.LoadSubjects(c.String(flag), uint8(cfg.Harness.Depth), imageio.TypeFromName(c.String(flagType)))
	if err != nil {
		return nil, err
	}
	log.Infof("Loaded %d subjects from %s", len(subjects), c.String(flag))
	return subjects, nil
}

func enrollAction(c *cli.Context, cfg *config.Config) error {
	subjects, err := loadSubjects(c, cfg, flagSubjects)
	if err != nil {
		return err
	}
	return run(c, cfg, func(ctx context.Context, h *harness.Harness) error {
		if _, err := h.Enroll(ctx, subjects); err != nil {
			return err
		}
		log.WithFields(log.Fields{
			"edb":      cfg.Enrollment.EDBPath(),
			"manifest": cfg.Enrollment.ManifestPath(),
		}).Info("Enrollment finalized")
		return nil
	})
}

func searchAction(c *cli.Context, cfg *config.Config) error {
	probes, err := loadSubjects(c, cfg, flagProbes)
	if err != nil {
		return err
	}
	k := uint32(cfg.Harness.CandidateListLength)
	if c.IsSet(flagK) {
		k = uint32(c.Uint(flagK))
	}
	return run(c, cfg, func(ctx context.Context, h *harness.Harness) error {
		results, err := h.Search(ctx, probes, k)
		if err != nil {
			return err
		}
		for _, r := range results {
			fields := log.Fields{"probe": r.ProbeID, "status": r.Status.String()}
			if len(r.Candidates) > 0 {
				fields["top"] = r.Candidates[0].TemplateID
				fields["score"] = r.Candidates[0].SimilarityScore
			}
			log.WithFields(fields).Info("Search result")
		}
		return nil
	})
}

func detectAction(c *cli.Context, cfg *config.Config) error {
	subjects, err := loadSubjects(c, cfg, flagImages)
	if err != nil {
		return err
	}
	return run(c, cfg, func(ctx context.Context, h *harness.Harness) error {
		results, err := h.Detect(ctx, subjects)
		if err != nil {
			return err
		}
		for _, r := range results {
			log.WithFields(log.Fields{
				"image":      r.ImageID,
				"status":     r.Status.String(),
				"detected":   r.Detection.Detected,
				"confidence": r.Detection.Confidence,
			}).Info("Detection result")
		}
		return nil
	})
}

func serveAction(c *cli.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	impl, err := tatte.GetImplementation(cfg.Engine.Name)
	if err != nil {
		return err
	}
	return api.NewServer(cfg, impl).Run(ctx)
}

func implementationsAction(c *cli.Context) error {
	for _, name := range tatte.Implementations() {
		fmt.Fprintln(c.App.Writer, name)
	}
	return nil
}

func versionAction(c *cli.Context) error {
	fmt.Fprintf(c.App.Writer, "%d.%d\n", tatte.APIMajorVersion, tatte.APIMinorVersion)
	return nil
}
