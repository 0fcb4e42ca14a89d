package framehouse

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/bio-routing/framehouse/pkg/clickhousegw"
	"github.com/bio-routing/framehouse/pkg/intfmapper"
	"github.com/bio-routing/framehouse/pkg/models/frame"
	"github.com/bio-routing/framehouse/pkg/packet/packet"
	"github.com/bio-routing/framehouse/pkg/servers/sflow"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	log "github.com/sirupsen/logrus"
)

// Storage persists aggregated frame summaries
type Storage interface {
	InsertFrames(frames []*frame.Frame) error
}

// Framehouse is a clickhouse based frame collector
type Framehouse struct {
	cfg      *Config
	registry *prometheus.Registry
	sfs      *sflow.SflowServer
	ifMapper *intfmapper.IntfMapper
	storage  Storage
	framesRX chan []*frame.Frame
	stopCh   chan struct{}
}

// Config is a framehouse instances configuration
type Config struct {
	ChCfg             *clickhousegw.ClickhouseConfig
	SNMP              *intfmapper.SNMPConfig
	ListenSflow       string
	ListenHTTP        string
	Workers           int
	ARPWidths         packet.ARPWidthMode
	IPv4Options       packet.IPv4OptionMode
	AggregationWindow time.Duration
}

// New creates a new framehouse instance
func New(cfg *Config) (*Framehouse, error) {
	fh := &Framehouse{
		cfg:      cfg,
		registry: prometheus.NewRegistry(),
		framesRX: make(chan []*frame.Frame, 1024),
		stopCh:   make(chan struct{}),
		ifMapper: intfmapper.New(cfg.SNMP),
	}

	fh.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var chgw *clickhousegw.ClickHouseGateway
	if cfg.ChCfg != nil {
		var err error
		chgw, err = clickhousegw.New(cfg.ChCfg)
		if err != nil {
			return nil, errors.Wrap(err, "Unable to create clickhouse wrapper")
		}
		fh.storage = chgw
	}

	dec := &packet.Decoder{
		ARPWidths:   cfg.ARPWidths,
		IPv4Options: cfg.IPv4Options,
	}

	sfs, err := sflow.New(cfg.ListenSflow, cfg.Workers, dec, fh.framesRX, cfg.AggregationWindow, fh.ifMapper, fh.registry)
	if err != nil {
		if chgw != nil {
			chgw.Close()
		}
		return nil, errors.Wrap(err, "Unable to start sflow server")
	}
	fh.sfs = sfs

	log.WithFields(log.Fields{
		"address":      cfg.ListenSflow,
		"workers":      cfg.Workers,
		"arp_widths":   cfg.ARPWidths.String(),
		"ipv4_options": cfg.IPv4Options.String(),
	}).Info("Listening for sflow packets")

	return fh, nil
}

// Stop stops the sflow server and ends Run. The open aggregation window is flushed and stored first.
func (f *Framehouse) Stop() {
	f.sfs.Stop()
	f.ifMapper.Stop()
	close(f.stopCh)
}

// Run runs framehouse
func (f *Framehouse) Run() {
	go func() {
		err := http.ListenAndServe(f.cfg.ListenHTTP, f.handler())
		if err != nil {
			log.WithError(err).Error("HTTP server failed")
		}
	}()
	log.WithField("address", f.cfg.ListenHTTP).Info("Listening for HTTP requests")

	f.processBatches()
}

func (f *Framehouse) processBatches() {
	for {
		select {
		case <-f.stopCh:
			f.drain()
			return
		case batch := <-f.framesRX:
			f.store(batch)
		}
	}
}

// drain stores the batches still queued at shutdown
func (f *Framehouse) drain() {
	for {
		select {
		case batch := <-f.framesRX:
			f.store(batch)
		default:
			return
		}
	}
}

func (f *Framehouse) store(batch []*frame.Frame) {
	if len(batch) == 0 {
		return
	}

	if f.storage == nil {
		log.WithField("frames", len(batch)).Debug("No storage configured, dropping aggregated frames")
		return
	}

	err := f.storage.InsertFrames(batch)
	if err != nil {
		log.WithError(err).Error("Insert failed")
	}
}

func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Errorf("PANIC: %v\n%s", err, debug.Stack())
				http.Error(w,
					fmt.Sprintf("Internal server error: %v", err),
					http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (f *Framehouse) handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", recoveryMiddleware(promhttp.HandlerFor(f.registry, promhttp.HandlerOpts{})))
	return mux
}
