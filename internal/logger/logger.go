package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"tatte-go/config"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	log "github.com/sirupsen/logrus"
)

// Init initializes the global logger based on the provided configuration.
func Init(cfg config.LogConfig) error {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		log.Warnf("Invalid log level '%s', defaulting to 'info': %v", cfg.Level, err)
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{
			FullTimestamp: true,
		})
	}

	writers := []io.Writer{os.Stdout}

	if cfg.File != "" {
		w, err := openLogFile(cfg)
		if err != nil {
			// Keep logging to stdout.
			log.SetOutput(os.Stdout)
			return err
		}
		writers = append(writers, w)
	}

	log.SetOutput(io.MultiWriter(writers...))
	log.Debug("Logger initialized")
	return nil
}

func openLogFile(cfg config.LogConfig) (io.Writer, error) {
	logDir := filepath.Dir(cfg.File)
	if err := os.MkdirAll(logDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create log directory '%s': %w", logDir, err)
	}

	if cfg.MaxAgeDays > 0 {
		rl, err := rotatelogs.New(
			cfg.File+".%Y%m%d",
			rotatelogs.WithLinkName(cfg.File),
			rotatelogs.WithRotationTime(24*time.Hour),
			rotatelogs.WithMaxAge(time.Duration(cfg.MaxAgeDays)*24*time.Hour),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to set up log rotation for '%s': %w", cfg.File, err)
		}
		return rl, nil
	}

	file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0660)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file '%s': %w", cfg.File, err)
	}
	return file, nil
}
