package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/bio-routing/framehouse/cmd/framehouse/config"
	"github.com/bio-routing/framehouse/pkg/framehouse"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	log "github.com/sirupsen/logrus"
)

var configFilePath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Collect sampled frames via sflow",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(configFilePath)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&configFilePath, "config", "c", "config.yaml", "Config file path (YAML)")
}

func serve(path string) error {
	cfg, err := config.GetConfig(path)
	if err != nil {
		return errors.Wrap(err, "Unable to get config")
	}

	err = setupLogging(cfg.Log)
	if err != nil {
		return errors.Wrap(err, "Unable to set up logging")
	}

	fh, err := framehouse.New(&framehouse.Config{
		ChCfg:             cfg.GetClickhouseConfig(),
		SNMP:              cfg.GetSNMPConfig(),
		ListenSflow:       cfg.ListenSFlow,
		ListenHTTP:        cfg.ListenHTTP,
		Workers:           cfg.Workers,
		ARPWidths:         cfg.GetARPWidths(),
		IPv4Options:       cfg.GetIPv4Options(),
		AggregationWindow: cfg.GetAggregationWindow(),
	})
	if err != nil {
		return errors.Wrap(err, "Unable to start framehouse")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigCh
		log.WithField("signal", s.String()).Info("Shutting down")
		fh.Stop()
	}()

	fh.Run()
	return nil
}
