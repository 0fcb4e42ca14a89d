package config

import (
	"os"
	"runtime"
	"time"

	"github.com/bio-routing/framehouse/pkg/clickhousegw"
	"github.com/bio-routing/framehouse/pkg/intfmapper"
	"github.com/bio-routing/framehouse/pkg/packet/packet"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const (
	listenSFlowDefault       = ":6343"
	listenHTTPDefault        = ":9991"
	aggregationWindowDefault = 10
	logLevelDefault          = "info"
	logFormatDefault         = "text"
)

// Config represents a config file
type Config struct {
	ListenSFlow       string      `yaml:"listen_sflow"`
	ListenHTTP        string      `yaml:"listen_http"`
	Workers           int         `yaml:"workers"`
	ARPWidths         string      `yaml:"arp_widths"`
	IPv4Options       string      `yaml:"ipv4_options"`
	AggregationWindow uint64      `yaml:"aggregation_window"`
	Clickhouse        *Clickhouse `yaml:"clickhouse"`
	SNMP              *SNMP       `yaml:"snmp"`
	Log               *Log        `yaml:"log"`
	arpWidths         packet.ARPWidthMode
	ipv4Options       packet.IPv4OptionMode
}

// Clickhouse represents a clickhouse client config
type Clickhouse struct {
	Address  string `yaml:"address"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	Cluster  string `yaml:"cluster"`
	Sharded  bool   `yaml:"sharded"`
}

// SNMP represents the credentials used to poll interface names from agents
type SNMP struct {
	Version           uint8  `yaml:"version"`
	Community         string `yaml:"community"`
	User              string `yaml:"user"`
	AuthPassphrase    string `yaml:"auth_passphrase"`
	PrivacyPassphrase string `yaml:"privacy_passphrase"`
}

// Log represents the logging config
type Log struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	Compress   bool   `yaml:"compress"`
}

func (c *Config) load() error {
	if c.ListenSFlow == "" {
		c.ListenSFlow = listenSFlowDefault
	}

	if c.ListenHTTP == "" {
		c.ListenHTTP = listenHTTPDefault
	}

	if c.Workers < 0 {
		return errors.Errorf("Invalid number of workers: %d", c.Workers)
	}

	if c.Workers == 0 {
		c.Workers = runtime.NumCPU()
	}

	if c.AggregationWindow == 0 {
		c.AggregationWindow = aggregationWindowDefault
	}

	m, err := packet.ParseARPWidthMode(c.ARPWidths)
	if err != nil {
		return errors.Wrap(err, "Invalid arp_widths")
	}
	c.arpWidths = m

	om, err := packet.ParseIPv4OptionMode(c.IPv4Options)
	if err != nil {
		return errors.Wrap(err, "Invalid ipv4_options")
	}
	c.ipv4Options = om

	if c.Log == nil {
		c.Log = &Log{}
	}

	err = c.Log.load()
	if err != nil {
		return errors.Wrap(err, "Invalid log config")
	}

	if c.Clickhouse != nil {
		err := c.Clickhouse.load()
		if err != nil {
			return errors.Wrap(err, "Invalid clickhouse config")
		}
	}

	if c.SNMP != nil {
		err := c.SNMP.load()
		if err != nil {
			return errors.Wrap(err, "Invalid snmp config")
		}
	}

	return nil
}

func (s *SNMP) load() error {
	if s.Version == 0 {
		s.Version = 2
	}

	switch s.Version {
	case 2:
		if s.Community == "" {
			return errors.New("Community is missing")
		}
	case 3:
		if s.User == "" {
			return errors.New("User is missing")
		}
	default:
		return errors.Errorf("Unsupported version %d", s.Version)
	}

	return nil
}

func (l *Log) load() error {
	if l.Level == "" {
		l.Level = logLevelDefault
	}

	if l.Format == "" {
		l.Format = logFormatDefault
	}

	if l.Format != "text" && l.Format != "json" {
		return errors.Errorf("Unknown log format %q", l.Format)
	}

	return nil
}

func (c *Clickhouse) load() error {
	if c.Address == "" {
		return errors.New("Address is missing")
	}

	if c.Database == "" {
		return errors.New("Database is missing")
	}

	if c.Sharded && c.Cluster == "" {
		return errors.New("Sharded setup requires a cluster")
	}

	return nil
}

// GetARPWidths gets the configured ARP address width policy
func (c *Config) GetARPWidths() packet.ARPWidthMode {
	return c.arpWidths
}

// GetIPv4Options gets the configured IPv4 options walk policy
func (c *Config) GetIPv4Options() packet.IPv4OptionMode {
	return c.ipv4Options
}

// GetAggregationWindow gets the aggregation window
func (c *Config) GetAggregationWindow() time.Duration {
	return time.Duration(c.AggregationWindow) * time.Second
}

// GetClickhouseConfig converts the clickhouse section into a gateway config. Returns nil if it's absent.
func (c *Config) GetClickhouseConfig() *clickhousegw.ClickhouseConfig {
	if c.Clickhouse == nil {
		return nil
	}

	return &clickhousegw.ClickhouseConfig{
		Address:  c.Clickhouse.Address,
		User:     c.Clickhouse.User,
		Password: c.Clickhouse.Password,
		Database: c.Clickhouse.Database,
		Cluster:  c.Clickhouse.Cluster,
		Sharded:  c.Clickhouse.Sharded,
	}
}

// GetSNMPConfig converts the snmp section into an interface mapper config. Returns nil if it's absent.
func (c *Config) GetSNMPConfig() *intfmapper.SNMPConfig {
	if c.SNMP == nil {
		return nil
	}

	return &intfmapper.SNMPConfig{
		Version:           c.SNMP.Version,
		Community:         c.SNMP.Community,
		User:              c.SNMP.User,
		AuthPassphrase:    c.SNMP.AuthPassphrase,
		PrivacyPassphrase: c.SNMP.PrivacyPassphrase,
	}
}

// GetConfig gets the configuration
func GetConfig(fp string) (*Config, error) {
	fc, err := os.ReadFile(fp)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to read file")
	}

	return parse(fc)
}

func parse(fc []byte) (*Config, error) {
	c := &Config{}
	err := yaml.UnmarshalStrict(fc, c)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to unmarshal")
	}

	err = c.load()
	if err != nil {
		return nil, errors.Wrap(err, "Unable to load config")
	}

	return c, nil
}
