package intfmapper

import (
	"sync"
	"time"

	bnet "github.com/bio-routing/bio-rd/net"
	log "github.com/sirupsen/logrus"
)

const (
	defaultInterval = time.Minute * 2
)

// SNMPConfig holds the credentials used to poll interface names from agents
type SNMPConfig struct {
	Version           uint8
	Community         string
	User              string
	AuthPassphrase    string
	PrivacyPassphrase string
}

// IntfMapper resolves interface indexes of sflow agents to interface names.
// Agents are polled via SNMP from the first time they are seen.
type IntfMapper struct {
	snmpCfg   *SNMPConfig
	interval  time.Duration
	walk      walkFunc
	devices   map[string]*device
	devicesMu sync.RWMutex
}

type walkFunc func(addr bnet.IP, snmpCfg *SNMPConfig) ([]*netIf, error)

// New creates a new IntfMapper. A nil config disables polling and Resolve always returns "".
func New(snmpCfg *SNMPConfig) *IntfMapper {
	return &IntfMapper{
		snmpCfg:  snmpCfg,
		interval: defaultInterval,
		walk:     walkIfNames,
		devices:  make(map[string]*device),
	}
}

// AddDevice starts polling an agent unless it's polled already
func (im *IntfMapper) AddDevice(addr bnet.IP) {
	if im.snmpCfg == nil {
		return
	}

	im.devicesMu.Lock()
	defer im.devicesMu.Unlock()

	key := addr.String()
	if _, exists := im.devices[key]; exists {
		return
	}

	log.WithField("agent", key).Info("Polling interface names")
	im.devices[key] = newDevice(addr, im.snmpCfg, im.interval, im.walk)
}

// Resolve gets the name of an agents interface. Returns "" if it's unknown.
func (im *IntfMapper) Resolve(agent bnet.IP, ifID uint32) string {
	if im.snmpCfg == nil {
		return ""
	}

	im.devicesMu.RLock()
	d, exists := im.devices[agent.String()]
	im.devicesMu.RUnlock()

	if !exists {
		im.AddDevice(agent)
		return ""
	}

	return d.resolve(ifID)
}

// Stop stops polling all agents
func (im *IntfMapper) Stop() {
	im.devicesMu.Lock()
	defer im.devicesMu.Unlock()

	for _, d := range im.devices {
		d.stop()
	}
	im.devices = make(map[string]*device)
}
