package main

import (
	"io"
	"os"

	"github.com/bio-routing/framehouse/cmd/framehouse/config"
	"github.com/pkg/errors"
	"gopkg.in/natefinch/lumberjack.v2"

	log "github.com/sirupsen/logrus"
)

func setupLogging(cfg *config.Log) error {
	if cfg == nil {
		return nil
	}

	lvl, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return errors.Wrap(err, "Invalid log level")
	}
	log.SetLevel(lvl)

	log.SetFormatter(formatter(cfg.Format))
	log.SetOutput(output(cfg))
	return nil
}

func formatter(format string) log.Formatter {
	if format == "json" {
		return &log.JSONFormatter{}
	}

	return &log.TextFormatter{
		FullTimestamp: true,
	}
}

func output(cfg *config.Log) io.Writer {
	if cfg.File == "" {
		return os.Stderr
	}

	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSize,    // megabytes
		MaxBackups: cfg.MaxBackups, // number of backups
		MaxAge:     cfg.MaxAge,     // days
		Compress:   cfg.Compress,
	}
}
