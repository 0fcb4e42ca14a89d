package packet

import (
	"fmt"

	"github.com/bio-routing/tflow2/convert"
)

const (
	// SizeOfEtherType is the size of an EtherType field in bytes
	SizeOfEtherType = 2
)

// EtherType identifies the protocol encapsulated in an Ethernet frame
type EtherType uint16

// EtherType values as assigned by IANA/IEEE
const (
	EtherTypeIPv4             EtherType = 0x0800
	EtherTypeARP              EtherType = 0x0806
	EtherTypeWakeOnLAN        EtherType = 0x0842
	EtherTypeTRILL            EtherType = 0x22F3
	EtherTypeDECnet           EtherType = 0x6003
	EtherTypeRARP             EtherType = 0x8035
	EtherTypeAppleTalk        EtherType = 0x809B
	EtherTypeAARP             EtherType = 0x80F3
	EtherTypeVLAN             EtherType = 0x8100
	EtherTypeIPX              EtherType = 0x8137
	EtherTypeQNX              EtherType = 0x8204
	EtherTypeIPv6             EtherType = 0x86DD
	EtherTypeFlowControl      EtherType = 0x8808
	EtherTypeCobraNet         EtherType = 0x8819
	EtherTypeMPLS             EtherType = 0x8847
	EtherTypeMPLSMulticast    EtherType = 0x8848
	EtherTypePPPoEDiscovery   EtherType = 0x8863
	EtherTypePPPoESession     EtherType = 0x8864
	EtherTypeProviderBridging EtherType = 0x88A8
	EtherTypeLLDP             EtherType = 0x88CC
	EtherTypePTP              EtherType = 0x88F7
	EtherTypeCFM              EtherType = 0x8902
	EtherTypeQinQ             EtherType = 0x9100
)

var etherTypeNames = map[EtherType]string{
	EtherTypeIPv4:             "IPv4",
	EtherTypeARP:              "ARP",
	EtherTypeWakeOnLAN:        "WakeOnLAN",
	EtherTypeTRILL:            "TRILL",
	EtherTypeDECnet:           "DECnet",
	EtherTypeRARP:             "RARP",
	EtherTypeAppleTalk:        "AppleTalk",
	EtherTypeAARP:             "AARP",
	EtherTypeVLAN:             "VLAN",
	EtherTypeIPX:              "IPX",
	EtherTypeQNX:              "QNX",
	EtherTypeIPv6:             "IPv6",
	EtherTypeFlowControl:      "FlowControl",
	EtherTypeCobraNet:         "CobraNet",
	EtherTypeMPLS:             "MPLS",
	EtherTypeMPLSMulticast:    "MPLSMulticast",
	EtherTypePPPoEDiscovery:   "PPPoEDiscovery",
	EtherTypePPPoESession:     "PPPoESession",
	EtherTypeProviderBridging: "ProviderBridging",
	EtherTypeLLDP:             "LLDP",
	EtherTypePTP:              "PTP",
	EtherTypeCFM:              "CFM",
	EtherTypeQinQ:             "QinQ",
}

// Name gets the symbolic name of an EtherType. Unknown codes have no name.
func (e EtherType) Name() (string, bool) {
	n, ok := etherTypeNames[e]
	return n, ok
}

func (e EtherType) String() string {
	if n, ok := e.Name(); ok {
		return n
	}

	return fmt.Sprintf("0x%04x", uint16(e))
}

// ParseEtherType reads a big endian EtherType from the first two bytes of b.
// Any code is accepted, the only failure is a buffer shorter than two bytes.
func ParseEtherType(b []byte) (EtherType, error) {
	if len(b) < SizeOfEtherType {
		return 0, tooShort("EtherType", SizeOfEtherType, len(b))
	}

	return EtherType(convert.Uint16b(b[:SizeOfEtherType])), nil
}
