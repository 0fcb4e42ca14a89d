package clickhousegw

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/bio-routing/framehouse/pkg/models/frame"
	"github.com/pkg/errors"

	"github.com/ClickHouse/clickhouse-go"
	log "github.com/sirupsen/logrus"
)

const (
	tableName = "frames"
)

// ClickHouseGateway stores frame summaries in clickhouse
type ClickHouseGateway struct {
	cfg *ClickhouseConfig
	db  *sql.DB
}

// ClickhouseConfig represents a clickhouse client config
type ClickhouseConfig struct {
	Address  string
	User     string
	Password string
	Database string
	Cluster  string
	Sharded  bool
}

// DSN gets the data source name of the config
func (cfg *ClickhouseConfig) DSN() string {
	return fmt.Sprintf("tcp://%s?username=%s&password=%s&database=%s&read_timeout=10&write_timeout=20", cfg.Address, cfg.User, cfg.Password, cfg.Database)
}

// New instantiates a new ClickHouseGateway and creates the schema if needed
func New(cfg *ClickhouseConfig) (*ClickHouseGateway, error) {
	c, err := sql.Open("clickhouse", cfg.DSN())
	if err != nil {
		return nil, errors.Wrap(err, "sql.Open failed")
	}

	if err := c.Ping(); err != nil {
		if exception, ok := err.(*clickhouse.Exception); ok {
			log.WithFields(log.Fields{
				"code":        exception.Code,
				"stack_trace": exception.StackTrace,
			}).Error(exception.Message)
		}
		return nil, errors.Wrap(err, "Ping failed")
	}

	chgw := &ClickHouseGateway{
		cfg: cfg,
		db:  c,
	}

	err = chgw.createFramesSchemaIfNotExists()
	if err != nil {
		return nil, errors.Wrap(err, "Unable to create frames schema")
	}

	return chgw, nil
}

// Close closes the database handle
func (c *ClickHouseGateway) Close() {
	c.db.Close()
}

func (c *ClickHouseGateway) createFramesSchemaIfNotExists() error {
	zookeeperPathPrefix := time.Now().Unix()

	if c.cfg.Sharded {
		_, err := c.db.Exec(c.getCreateTableSchemaDDL(true, zookeeperPathPrefix))
		if err != nil {
			return errors.Wrap(err, "Unable to create base table")
		}
	}

	_, err := c.db.Exec(c.getCreateTableSchemaDDL(false, zookeeperPathPrefix))
	if err != nil {
		return errors.Wrap(err, "Query failed")
	}

	return nil
}

// getCreateTableSchemaDDL gets the DDL of the frames table. Sharded setups get a replicated
// base table per shard and a distributed table on top of it.
func (c *ClickHouseGateway) getCreateTableSchemaDDL(isBaseTable bool, zookeeperPathPrefix int64) string {
	if !c.cfg.Sharded {
		return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (%s
		) ENGINE = MergeTree()
		PARTITION BY toStartOfTenMinutes(timestamp)
		ORDER BY (timestamp)
		TTL timestamp + INTERVAL 14 DAY
		SETTINGS index_granularity = 8192
	`, tableName, columns)
	}

	if isBaseTable {
		return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS _%s.%s_base ON CLUSTER %s (%s
		) ENGINE = ReplicatedMergeTree('/clickhouse/tables/{shard}/%s/%s_%d', '{replica}')
		PARTITION BY toStartOfTenMinutes(timestamp)
		ORDER BY (timestamp)
		TTL timestamp + INTERVAL 14 DAY
		SETTINGS index_granularity = 8192
	`, c.cfg.Database, tableName, c.cfg.Cluster, columns, c.cfg.Database, tableName, zookeeperPathPrefix)
	}

	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s ON CLUSTER %s (%s
		) ENGINE = Distributed(%s, _%s, %s_base, rand())
	`, tableName, c.cfg.Cluster, columns, c.cfg.Cluster, c.cfg.Database, tableName)
}

const columns = `
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
			samplerate    UInt64`

const insertQuery = "INSERT INTO frames (agent, int_in, int_out, int_in_name, int_out_name, kind, src_mac, dst_mac, ether_type, vlan, vlan_depth, priority, src_ip_addr, dst_ip_addr, ip_protocol, tos, ip_ttl, arp_operation, timestamp, size, packets, samplerate) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"

func row(fr *frame.Frame) []interface{} {
	return []interface{}{
		fr.Agent.ToNetIP(),
		fr.IntIn,
		fr.IntOut,
		fr.IntInName,
		fr.IntOutName,
		fr.Kind,
		fr.SrcMAC,
		fr.DstMAC,
		fr.EtherType,
		fr.VLAN,
		fr.VLANDepth,
		fr.Priority,
		fr.SrcAddr.ToNetIP(),
		fr.DstAddr.ToNetIP(),
		fr.Protocol,
		fr.TOS,
		fr.TTL,
		fr.ARPOperation,
		fr.Timestamp,
		fr.Size,
		fr.Packets,
		fr.Samplerate,
	}
}

// InsertFrames inserts frame summaries into clickhouse in one transaction
func (c *ClickHouseGateway) InsertFrames(frames []*frame.Frame) error {
	if len(frames) == 0 {
		return nil
	}

	tx, err := c.db.Begin()
	if err != nil {
		return errors.Wrap(err, "Begin failed")
	}

	stmt, err := tx.Prepare(insertQuery)
	if err != nil {
		tx.Rollback()
		return errors.Wrap(err, "Prepare failed")
	}

	defer stmt.Close()

	for _, fr := range frames {
		_, err := stmt.Exec(row(fr)...)
		if err != nil {
			tx.Rollback()
			return errors.Wrap(err, "Exec failed")
		}
	}

	err = tx.Commit()
	if err != nil {
		return errors.Wrap(err, "Commit failed")
	}

	return nil
}
