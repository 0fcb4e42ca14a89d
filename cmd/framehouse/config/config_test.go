package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/bio-routing/framehouse/pkg/clickhousegw"
	"github.com/bio-routing/framehouse/pkg/intfmapper"
	"github.com/bio-routing/framehouse/pkg/packet/packet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantFail bool
		expected *Config
	}{
		{
			name:  "Defaults",
			input: "",
			expected: &Config{
				ListenSFlow:       ":6343",
				ListenHTTP:        ":9991",
				Workers:           runtime.NumCPU(),
				AggregationWindow: 10,
				Log: &Log{
					Level:  "info",
					Format: "text",
				},
				arpWidths:   packet.ARPWidthsByProtocolType,
				ipv4Options: packet.IPv4OptionsTLV,
			},
		},
		{
			name: "Full",
			input: `
listen_sflow: "127.0.0.1:7000"
listen_http: ":8080"
workers: 2
arp_widths: header
ipv4_options: single_byte_nop
aggregation_window: 60
clickhouse:
  address: "localhost:9000"
  user: default
  database: framehouse
snmp:
  community: public
log:
  level: debug
  format: json
  file: /var/log/framehouse.log
  max_size: 100
`,
			expected: &Config{
				ListenSFlow:       "127.0.0.1:7000",
				ListenHTTP:        ":8080",
				Workers:           2,
				ARPWidths:         "header",
				IPv4Options:       "single_byte_nop",
				AggregationWindow: 60,
				Clickhouse: &Clickhouse{
					Address:  "localhost:9000",
					User:     "default",
					Database: "framehouse",
				},
				SNMP: &SNMP{
					Version:   2,
					Community: "public",
				},
				Log: &Log{
					Level:   "debug",
					Format:  "json",
					File:    "/var/log/framehouse.log",
					MaxSize: 100,
				},
				arpWidths:   packet.ARPWidthsByHeaderLengths,
				ipv4Options: packet.IPv4OptionsSingleByteNOP,
			},
		},
		{
			name:     "Unknown ARP width mode",
			input:    "arp_widths: foo",
			wantFail: true,
		},
		{
			name:     "Unknown IPv4 option mode",
			input:    "ipv4_options: foo",
			wantFail: true,
		},
		{
			name:     "Unknown log format",
			input:    "log:\n  format: xml",
			wantFail: true,
		},
		{
			name:     "Negative workers",
			input:    "workers: -1",
			wantFail: true,
		},
		{
			name:     "Clickhouse without address",
			input:    "clickhouse:\n  database: foo",
			wantFail: true,
		},
		{
			name:     "Sharded clickhouse without cluster",
			input:    "clickhouse:\n  address: localhost:9000\n  database: foo\n  sharded: true",
			wantFail: true,
		},
		{
			name:     "Clickhouse host key",
			input:    "clickhouse:\n  host: ch1\n  address: ch1:9000\n  database: foo",
			wantFail: true,
		},
		{
			name:     "SNMPv2c without community",
			input:    "snmp:\n  version: 2",
			wantFail: true,
		},
		{
			name:     "SNMPv3 without user",
			input:    "snmp:\n  version: 3\n  auth_passphrase: foo",
			wantFail: true,
		},
		{
			name:     "Unsupported SNMP version",
			input:    "snmp:\n  version: 1\n  community: public",
			wantFail: true,
		},
		{
			name:     "Unknown key",
			input:    "listen_frames: :6344",
			wantFail: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c, err := parse([]byte(test.input))
			if test.wantFail {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, test.expected, c)
		})
	}
}

func TestGetters(t *testing.T) {
	c, err := parse([]byte("aggregation_window: 30\nclickhouse:\n  address: ch:9000\n  database: db\n  cluster: c1\n  sharded: true"))
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, c.GetAggregationWindow())
	assert.Equal(t, packet.ARPWidthsByProtocolType, c.GetARPWidths())
	assert.Equal(t, packet.IPv4OptionsTLV, c.GetIPv4Options())
	assert.Equal(t, &clickhousegw.ClickhouseConfig{
		Address:  "ch:9000",
		Database: "db",
		Cluster:  "c1",
		Sharded:  true,
	}, c.GetClickhouseConfig())

	c.Clickhouse = nil
	assert.Nil(t, c.GetClickhouseConfig())
	assert.Nil(t, c.GetSNMPConfig())

	c, err = parse([]byte("snmp:\n  version: 3\n  user: framehouse\n  auth_passphrase: a\n  privacy_passphrase: p"))
	require.NoError(t, err)
	assert.Equal(t, &intfmapper.SNMPConfig{
		Version:           3,
		User:              "framehouse",
		AuthPassphrase:    "a",
		PrivacyPassphrase: "p",
	}, c.GetSNMPConfig())
}

func TestGetConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workers: 3\n"), 0644))

	c, err := GetConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Workers)

	_, err = GetConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
