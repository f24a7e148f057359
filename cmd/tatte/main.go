// Command tatte drives a registered recognition implementation through
// enrollment, search and detection, or serves it over HTTP.
package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"tatte-go/config"
	_ "tatte-go/internal/engine"
	"tatte-go/internal/logger"
)

const (
	flagConfig   = "config"
	flagDebug    = "debug"
	flagSubjects = "subjects"
	flagProbes   = "probes"
	flagImages   = "images"
	flagType     = "type"
	flagK        = "k"
	flagReport   = "report"
)

func main() {
	var cfg *config.Config

	reportFlag := &cli.StringFlag{
		Name:  flagReport,
		Usage: "write the run report as JSON to `FILE` (default stdout)",
	}
	typeFlag := &cli.StringFlag{
		Name:  flagType,
		Value: "tattoo",
		Usage: "image type: tattoo, sketch or unknown",
	}

	app := &cli.App{
		Name:  "tatte",
		Usage: "exercise a tattoo recognition implementation",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Value:   "config/config.yaml",
				Usage:   "load configuration from `FILE`",
			},
			&cli.BoolFlag{
				Name:  flagDebug,
				Usage: "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			var err error
			cfg, err = config.Load(c.String(flagConfig))
			if err != nil {
				return err
			}
			if c.Bool(flagDebug) {
				cfg.Log.Level = "debug"
			}
			if err := config.EnsureDirectories(cfg); err != nil {
				return err
			}
			if err := logger.Init(cfg.Log); err != nil {
				log.Errorf("Failed to initialize logger completely: %v", err)
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "enroll",
				Usage: "create enrollment templates and finalize the gallery",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: flagSubjects, Required: true, Usage: "subject `DIR`"},
					typeFlag,
					reportFlag,
				},
				Action: func(c *cli.Context) error { return enrollAction(c, cfg) },
			},
			{
				Name:  "search",
				Usage: "search probes against the finalized gallery",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: flagProbes, Required: true, Usage: "probe `DIR`"},
					&cli.UintFlag{Name: flagK, Usage: "candidate list length (default from config)"},
					typeFlag,
					reportFlag,
				},
				Action: func(c *cli.Context) error { return searchAction(c, cfg) },
			},
			{
				Name:  "detect",
				Usage: "run tattoo detection on images",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: flagImages, Required: true, Usage: "image `DIR`"},
					typeFlag,
					reportFlag,
				},
				Action: func(c *cli.Context) error { return detectAction(c, cfg) },
			},
			{
				Name:   "serve",
				Usage:  "serve detection and identification over HTTP",
				Action: func(c *cli.Context) error { return serveAction(c, cfg) },
			},
			{
				Name:   "implementations",
				Usage:  "list registered implementations",
				Action: implementationsAction,
			},
			{
				Name:   "version",
				Usage:  "print the interface version",
				Action: versionAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
