package clickhousegw

import (
	"database/sql"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/bio-routing/framehouse/pkg/models/frame"
	"github.com/stretchr/testify/assert"

	bnet "github.com/bio-routing/bio-rd/net"
)

func TestClickHouseGateway_getCreateTableSchemaDDL(t *testing.T) {
	zookeeperPathPrefix := time.Now().Unix()
	type fields struct {
		cfg *ClickhouseConfig
		db  *sql.DB
	}
	type args struct {
		isBaseTable         bool
		zookeeperPathPrefix int64
	}
	tests := []struct {
		name   string
		fields fields
		args   args
		want   string
	}{
		{
			name: "Test getCreateTableSchemaDDL for simple MergeTree",
			fields: fields{
				cfg: &ClickhouseConfig{
					Database: "test",
					Sharded:  false,
				},
			},
			args: args{
				isBaseTable:         true,
				zookeeperPathPrefix: zookeeperPathPrefix,
			},
			want: `
		CREATE TABLE IF NOT EXISTS frames (
			agent         IPv6,
			int_in        UInt32,
			int_out       UInt32,
			int_in_name   LowCardinality(String),
			int_out_name  LowCardinality(String),
			kind          LowCardinality(String),
			src_mac       String,
			dst_mac       String,
			ether_type    UInt16,
			vlan          UInt16,
			vlan_depth    UInt8,
			priority      UInt8,
			src_ip_addr   IPv6,
			dst_ip_addr   IPv6,
			ip_protocol   UInt8,
			tos           UInt8,
			ip_ttl        UInt8,
			arp_operation UInt16,
			timestamp     DateTime,
			size          UInt64,
			packets       UInt64,
			samplerate    UInt64
		) ENGINE = MergeTree()
		PARTITION BY toStartOfTenMinutes(timestamp)
		ORDER BY (timestamp)
		TTL timestamp + INTERVAL 14 DAY
		SETTINGS index_granularity = 8192
	`,
		},
		{
			name: "Test getCreateTableSchemaDDL for sharded base table with engine ReplicatedMergeTree",
			fields: fields{
				cfg: &ClickhouseConfig{
					Database: "test",
					Cluster:  "test_cluster",
					Sharded:  true,
				},
			},
			args: args{
				isBaseTable:         true,
				zookeeperPathPrefix: zookeeperPathPrefix,
			},
			want: fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS _test.frames_base ON CLUSTER test_cluster (
			agent         IPv6,
			int_in        UInt32,
			int_out       UInt32,
			int_in_name   LowCardinality(String),
			int_out_name  LowCardinality(String),
			kind          LowCardinality(String),
			src_mac       String,
			dst_mac       String,
			ether_type    UInt16,
			vlan          UInt16,
			vlan_depth    UInt8,
			priority      UInt8,
			src_ip_addr   IPv6,
			dst_ip_addr   IPv6,
			ip_protocol   UInt8,
			tos           UInt8,
			ip_ttl        UInt8,
			arp_operation UInt16,
			timestamp     DateTime,
			size          UInt64,
			packets       UInt64,
			samplerate    UInt64
		) ENGINE = ReplicatedMergeTree('/clickhouse/tables/{shard}/test/frames_%d', '{replica}')
		PARTITION BY toStartOfTenMinutes(timestamp)
		ORDER BY (timestamp)
		TTL timestamp + INTERVAL 14 DAY
		SETTINGS index_granularity = 8192
	`, zookeeperPathPrefix),
		},
		{
			name: "Test getCreateTableSchemaDDL for Distributed Table",
			fields: fields{
				cfg: &ClickhouseConfig{
					Database: "test",
					Sharded:  true,
					Cluster:  "test_cluster",
				},
			},
			args: args{
				isBaseTable:         false,
				zookeeperPathPrefix: zookeeperPathPrefix,
			},
			want: `
		CREATE TABLE IF NOT EXISTS frames ON CLUSTER test_cluster (
			agent         IPv6,
			int_in        UInt32,
			int_out       UInt32,
			int_in_name   LowCardinality(String),
			int_out_name  LowCardinality(String),
			kind          LowCardinality(String),
			src_mac       String,
			dst_mac       String,
			ether_type    UInt16,
			vlan          UInt16,
			vlan_depth    UInt8,
			priority      UInt8,
			src_ip_addr   IPv6,
			dst_ip_addr   IPv6,
			ip_protocol   UInt8,
			tos           UInt8,
			ip_ttl        UInt8,
			arp_operation UInt16,
			timestamp     DateTime,
			size          UInt64,
			packets       UInt64,
			samplerate    UInt64
		) ENGINE = Distributed(test_cluster, _test, frames_base, rand())
	`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &ClickHouseGateway{
				cfg: tt.fields.cfg,
				db:  tt.fields.db,
			}
			if got := c.getCreateTableSchemaDDL(tt.args.isBaseTable, tt.args.zookeeperPathPrefix); got != tt.want {
				t.Errorf("getCreateTableSchemaDDL() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRow(t *testing.T) {
	fr := &frame.Frame{
		Agent:        bnet.IPv4FromOctets(192, 0, 2, 100),
		IntIn:        3,
		IntOut:       7,
		IntInName:    "xe-0/0/3",
		Kind:         frame.KindARP,
		SrcMAC:       "00:01:00:01:00:01",
		DstMAC:       "ff:ff:ff:ff:ff:ff",
		EtherType:    0x0806,
		VLAN:         10,
		VLANDepth:    1,
		Priority:     5,
		SrcAddr:      bnet.IPv4FromOctets(192, 0, 2, 1),
		DstAddr:      bnet.IPv4FromOctets(192, 0, 2, 2),
		ARPOperation: 1,
		Timestamp:    1600000000,
		Size:         46,
		Packets:      1,
		Samplerate:   1024,
	}

	r := row(fr)
	assert.Len(t, r, 22)
	assert.True(t, net.ParseIP("192.0.2.100").Equal(r[0].(net.IP)))
	assert.Equal(t, uint32(3), r[1])
	assert.Equal(t, uint32(7), r[2])
	assert.Equal(t, "xe-0/0/3", r[3])
	assert.Equal(t, "", r[4])
	assert.Equal(t, frame.KindARP, r[5])
	assert.Equal(t, uint16(0x0806), r[8])
	assert.Equal(t, uint16(10), r[9])
	assert.True(t, net.ParseIP("192.0.2.1").Equal(r[12].(net.IP)))
	assert.Equal(t, uint16(1), r[17])
	assert.Equal(t, int64(1600000000), r[18])
	assert.Equal(t, uint64(46), r[19])
	assert.Equal(t, uint64(1024), r[21])
}

func TestDSN(t *testing.T) {
	cfg := &ClickhouseConfig{
		Address:  "localhost:9000",
		User:     "default",
		Password: "secret",
		Database: "frames",
	}

	assert.Equal(t, "tcp://localhost:9000?username=default&password=secret&database=frames&read_timeout=10&write_timeout=20", cfg.DSN())
}
