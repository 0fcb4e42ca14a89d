package packet

import (
	"fmt"
	"net"

	"github.com/bio-routing/tflow2/convert"
	"github.com/pkg/errors"
)

const (
	// SizeOfARPHeader is the size of the fixed ARP header in bytes
	SizeOfARPHeader = 8

	// ARPHardwareTypeEthernet is the ARP hardware type of Ethernet
	ARPHardwareTypeEthernet = 1

	arpFallbackAddrLen = 6
	arpIPv4AddrLen     = 4
)

// ARPOperation is an ARP opcode
type ARPOperation uint16

// ARP opcodes
const (
	ARPRequest   ARPOperation = 1
	ARPReply     ARPOperation = 2
	RARPRequest  ARPOperation = 3
	RARPReply    ARPOperation = 4
	InARPRequest ARPOperation = 8
	InARPReply   ARPOperation = 9
	ARPNAK       ARPOperation = 10
)

var arpOperationNames = map[ARPOperation]string{
	ARPRequest:   "request",
	ARPReply:     "reply",
	RARPRequest:  "rarp-request",
	RARPReply:    "rarp-reply",
	InARPRequest: "inarp-request",
	InARPReply:   "inarp-reply",
	ARPNAK:       "arp-nak",
}

func (o ARPOperation) String() string {
	if n, ok := arpOperationNames[o]; ok {
		return n
	}

	return fmt.Sprintf("op(%d)", uint16(o))
}

// ARPWidthMode selects how the address widths of an ARP body are determined
type ARPWidthMode int

const (
	// ARPWidthsByProtocolType uses 6 byte hardware addresses and 4 byte protocol addresses
	// if the protocol type is IPv4, 6 byte protocol addresses otherwise. The header's
	// own length fields are ignored.
	ARPWidthsByProtocolType ARPWidthMode = iota

	// ARPWidthsByHeaderLengths uses the header's hardware and protocol address lengths
	ARPWidthsByHeaderLengths
)

func (m ARPWidthMode) String() string {
	switch m {
	case ARPWidthsByProtocolType:
		return "protocol_type"
	case ARPWidthsByHeaderLengths:
		return "header"
	}

	return fmt.Sprintf("ARPWidthMode(%d)", int(m))
}

// ParseARPWidthMode parses the string form of an ARPWidthMode
func ParseARPWidthMode(s string) (ARPWidthMode, error) {
	switch s {
	case "", "protocol_type":
		return ARPWidthsByProtocolType, nil
	case "header":
		return ARPWidthsByHeaderLengths, nil
	}

	return 0, errors.Errorf("unknown ARP width mode %q", s)
}

// ARPHeader is the fixed part of an ARP packet
type ARPHeader struct {
	HardwareType    uint16
	ProtocolType    uint16
	HardwareAddrLen uint8
	ProtocolAddrLen uint8
	Operation       ARPOperation
}

// ARPAddrPair is the hardware and protocol address of one ARP party
type ARPAddrPair struct {
	HardwareAddr net.HardwareAddr
	ProtocolAddr []byte
}

// IP gets the protocol address as net.IP if it is an IPv4 address
func (a ARPAddrPair) IP() net.IP {
	if len(a.ProtocolAddr) != net.IPv4len {
		return nil
	}

	return net.IP(a.ProtocolAddr)
}

// ARPPacket is a decoded ARP packet
type ARPPacket struct {
	LinkHeader
	Header ARPHeader
	Sender ARPAddrPair
	Target ARPAddrPair
}

// Protocol gets the EtherType of the packet
func (p *ARPPacket) Protocol() EtherType {
	return EtherTypeARP
}

// DecodeARP decodes an ARP packet from a complete Ethernet frame
func DecodeARP(buf []byte) (*ARPPacket, error) {
	return defaultDecoder.DecodeARP(buf)
}

// DecodeARPPayload decodes an ARP packet from its payload, given the already decoded
// Ethernet header and 802.1q tags
func DecodeARPPayload(eth *EthernetHeader, vlans []Dot1Q, payload []byte) (*ARPPacket, error) {
	return decodeARPPayload(LinkHeader{Ethernet: eth, VLANs: vlans}, payload, defaultDecoder.ARPWidths)
}

func decodeARPHeader(buf []byte) (ARPHeader, error) {
	if len(buf) < SizeOfARPHeader {
		return ARPHeader{}, tooShort("ARP header", SizeOfARPHeader, len(buf))
	}

	return ARPHeader{
		HardwareType:    convert.Uint16b(buf[0:2]),
		ProtocolType:    convert.Uint16b(buf[2:4]),
		HardwareAddrLen: buf[4],
		ProtocolAddrLen: buf[5],
		Operation:       ARPOperation(convert.Uint16b(buf[6:8])),
	}, nil
}

func (h ARPHeader) addrWidths(mode ARPWidthMode) (int, int) {
	if mode == ARPWidthsByHeaderLengths {
		return int(h.HardwareAddrLen), int(h.ProtocolAddrLen)
	}

	if EtherType(h.ProtocolType) == EtherTypeIPv4 {
		return arpFallbackAddrLen, arpIPv4AddrLen
	}

	return arpFallbackAddrLen, arpFallbackAddrLen
}

func decodeARPPayload(link LinkHeader, payload []byte, mode ARPWidthMode) (*ARPPacket, error) {
	hdr, err := decodeARPHeader(payload)
	if err != nil {
		return nil, err
	}

	hw, proto := hdr.addrWidths(mode)
	body := payload[SizeOfARPHeader:]
	need := 2 * (hw + proto)
	if len(body) < need {
		return nil, tooShort("ARP body", need, len(body))
	}

	// sender hw, sender proto, target hw, target proto
	off := 0
	next := func(n int) []byte {
		b := body[off : off+n : off+n]
		off += n
		return b
	}

	p := &ARPPacket{
		LinkHeader: link,
		Header:     hdr,
	}
	p.Sender.HardwareAddr = net.HardwareAddr(next(hw))
	p.Sender.ProtocolAddr = next(proto)
	p.Target.HardwareAddr = net.HardwareAddr(next(hw))
	p.Target.ProtocolAddr = next(proto)

	return p, nil
}
