package packet

import (
	"net"
)

const (
	// SizeOfEthernetAddrs is the size of the destination and source MAC addresses in bytes
	SizeOfEthernetAddrs = 12

	macLen = 6
)

// EthernetHeader holds the MAC addresses of an Ethernet II frame.
// Both addresses are views into the decoded buffer.
type EthernetHeader struct {
	Destination net.HardwareAddr
	Source      net.HardwareAddr
}

// DecodeEthernet decodes the MAC addresses at the start of buf.
// The EtherType is not part of the result as it follows any 802.1Q tags.
func DecodeEthernet(buf []byte) (*EthernetHeader, error) {
	if len(buf) < SizeOfEthernetAddrs {
		return nil, tooShort("Ethernet header", SizeOfEthernetAddrs, len(buf))
	}

	return &EthernetHeader{
		Destination: net.HardwareAddr(buf[0:macLen:macLen]),
		Source:      net.HardwareAddr(buf[macLen:SizeOfEthernetAddrs:SizeOfEthernetAddrs]),
	}, nil
}
