package intfmapper

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gosnmp/gosnmp"
	"github.com/pkg/errors"

	bnet "github.com/bio-routing/bio-rd/net"
	log "github.com/sirupsen/logrus"
)

const (
	ifNameOID = "1.3.6.1.2.1.31.1.1.1.1"
	snmpPort  = 161
	timeout   = time.Second * 30
)

type device struct {
	addr           bnet.IP
	snmpCfg        *SNMPConfig
	walk           walkFunc
	interfacesByID map[uint32]*netIf
	interfacesMu   sync.RWMutex
	stopCh         chan struct{}
	wg             sync.WaitGroup
	ticker         *time.Ticker
}

type netIf struct {
	id   uint32
	name string
}

func newDevice(addr bnet.IP, snmpCfg *SNMPConfig, interval time.Duration, walk walkFunc) *device {
	d := &device{
		addr:           addr,
		snmpCfg:        snmpCfg,
		walk:           walk,
		interfacesByID: make(map[uint32]*netIf),
		stopCh:         make(chan struct{}),
		ticker:         time.NewTicker(interval),
	}

	d.startCollector()
	return d
}

func (d *device) update(interfaces []*netIf) {
	interfacesByID := make(map[uint32]*netIf)
	for _, ifa := range interfaces {
		interfacesByID[ifa.id] = ifa
	}

	d.interfacesMu.Lock()
	defer d.interfacesMu.Unlock()

	d.interfacesByID = interfacesByID
}

func (d *device) startCollector() {
	d.wg.Add(1)
	go d.collector()
}

func (d *device) stop() {
	close(d.stopCh)
	d.ticker.Stop()
	d.wg.Wait()
}

func (d *device) collector() {
	defer d.wg.Done()

	for {
		interfaces, err := d.walk(d.addr, d.snmpCfg)
		if err != nil {
			log.WithError(err).WithField("agent", d.addr.String()).Warning("Collecting interface names failed")
		} else {
			d.update(interfaces)
		}

		select {
		case <-d.stopCh:
			return
		case <-d.ticker.C:
		}
	}
}

func (d *device) resolve(ifID uint32) string {
	d.interfacesMu.RLock()
	defer d.interfacesMu.RUnlock()

	ifa, exists := d.interfacesByID[ifID]
	if !exists {
		return ""
	}

	return ifa.name
}

func newClient(addr bnet.IP, snmpCfg *SNMPConfig) *gosnmp.GoSNMP {
	s := &gosnmp.GoSNMP{
		Target:                  addr.String(),
		Port:                    snmpPort,
		Community:               snmpCfg.Community,
		Version:                 gosnmp.Version2c,
		Timeout:                 timeout,
		Retries:                 0,
		ExponentialTimeout:      false,
		UseUnconnectedUDPSocket: true,
	}

	if snmpCfg.Version == 3 {
		s.Community = ""
		s.Version = gosnmp.Version3
		s.SecurityModel = gosnmp.UserSecurityModel
		s.MsgFlags = gosnmp.AuthPriv
		s.SecurityParameters = &gosnmp.UsmSecurityParameters{
			UserName:                 snmpCfg.User,
			AuthenticationProtocol:   gosnmp.SHA,
			AuthenticationPassphrase: snmpCfg.AuthPassphrase,
			PrivacyProtocol:          gosnmp.AES,
			PrivacyPassphrase:        snmpCfg.PrivacyPassphrase,
		}
	}

	return s
}

// walkIfNames walks the ifName table of an agent
func walkIfNames(addr bnet.IP, snmpCfg *SNMPConfig) ([]*netIf, error) {
	s := newClient(addr, snmpCfg)
	err := s.Connect()
	if err != nil {
		return nil, errors.Wrap(err, "Unable to connect")
	}

	defer s.Conn.Close()

	interfaces := make([]*netIf, 0)
	err = s.BulkWalk(ifNameOID, func(pdu gosnmp.SnmpPDU) error {
		ifa, err := netIfFromPDU(pdu)
		if err != nil {
			return err
		}

		interfaces = append(interfaces, ifa)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "BulkWalk failed for "+addr.String())
	}

	return interfaces, nil
}

func netIfFromPDU(pdu gosnmp.SnmpPDU) (*netIf, error) {
	oid := strings.Split(pdu.Name, ".")
	id, err := strconv.ParseUint(oid[len(oid)-1], 10, 32)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to convert interface id")
	}

	if pdu.Type != gosnmp.OctetString {
		return nil, errors.Errorf("Unexpected PDU type: %d", pdu.Type)
	}

	name, ok := pdu.Value.([]byte)
	if !ok {
		return nil, errors.Errorf("Unexpected PDU value: %T", pdu.Value)
	}

	return &netIf{
		id:   uint32(id),
		name: string(name),
	}, nil
}
