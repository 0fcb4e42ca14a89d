package frame

import (
	"fmt"

	"github.com/bio-routing/framehouse/pkg/packet/packet"
	"github.com/pkg/errors"

	bnet "github.com/bio-routing/bio-rd/net"
)

// Kinds of decoded frames
const (
	KindARP     = "arp"
	KindIPv4    = "ipv4"
	KindUnknown = "unknown"
)

// Frame is an owned summary of a decoded frame. Unlike the decoded packet it
// does not reference the capture buffer.
type Frame struct {
	Agent        bnet.IP
	IntIn        uint32
	IntOut       uint32
	IntInName    string
	IntOutName   string
	Kind         string
	SrcMAC       string
	DstMAC       string
	EtherType    uint16
	VLAN         uint16
	VLANDepth    uint8
	Priority     uint8
	SrcAddr      bnet.IP
	DstAddr      bnet.IP
	Protocol     uint8
	TOS          uint8
	TTL          uint8
	ARPOperation uint16
	Timestamp    int64
	Size         uint64
	Packets      uint64
	Samplerate   uint64
}

// FromPacket copies everything of interest out of a decoded packet
func FromPacket(agent bnet.IP, p packet.Packet, size int) (*Frame, error) {
	link := p.Link()
	fr := &Frame{
		Agent:     agent,
		SrcMAC:    link.Ethernet.Source.String(),
		DstMAC:    link.Ethernet.Destination.String(),
		EtherType: uint16(p.Protocol()),
		VLANDepth: uint8(len(link.VLANs)),
		Size:      uint64(size),
		Packets:   1,
	}

	if outer, ok := link.OuterVLAN(); ok {
		fr.VLAN = outer.ID
		fr.Priority = uint8(outer.Priority)
	}

	switch pkt := p.(type) {
	case *packet.ARPPacket:
		fr.Kind = KindARP
		fr.ARPOperation = uint16(pkt.Header.Operation)

		err := fr.setAddrs(pkt.Sender.IP(), pkt.Target.IP())
		if err != nil {
			return nil, errors.Wrap(err, "Unable to convert ARP protocol addresses")
		}
	case *packet.IPv4Packet:
		fr.Kind = KindIPv4
		fr.Protocol = uint8(pkt.Header.Protocol)
		fr.TOS = pkt.Header.DSCP<<2 | pkt.Header.ECN
		fr.TTL = pkt.Header.TTL

		err := fr.setAddrs(pkt.Header.Src, pkt.Header.Dst)
		if err != nil {
			return nil, errors.Wrap(err, "Unable to convert IPv4 addresses")
		}
	default:
		fr.Kind = KindUnknown
	}

	return fr, nil
}

// setAddrs sets source and destination address. nil addresses are skipped.
func (fr *Frame) setAddrs(src []byte, dst []byte) error {
	if src != nil {
		a, err := bnet.IPFromBytes(src)
		if err != nil {
			return errors.Wrap(err, "Invalid source address")
		}
		fr.SrcAddr = a
	}

	if dst != nil {
		a, err := bnet.IPFromBytes(dst)
		if err != nil {
			return errors.Wrap(err, "Invalid destination address")
		}
		fr.DstAddr = a
	}

	return nil
}

// Add adds up two frame summaries
func (fr *Frame) Add(a *Frame) {
	fr.Size += a.Size
	fr.Packets += a.Packets
}

// Dump dumps the frame
func (fr *Frame) Dump() {
	fmt.Printf("--------------------------------\n")
	fmt.Printf("Frame dump:\n")
	fmt.Printf("Agent: %s\n", fr.Agent.String())
	fmt.Printf("IntIn: %d (%s)\n", fr.IntIn, fr.IntInName)
	fmt.Printf("IntOut: %d (%s)\n", fr.IntOut, fr.IntOutName)
	fmt.Printf("Kind: %s\n", fr.Kind)
	fmt.Printf("SrcMAC: %s\n", fr.SrcMAC)
	fmt.Printf("DstMAC: %s\n", fr.DstMAC)
	fmt.Printf("EtherType: %s\n", packet.EtherType(fr.EtherType))
	fmt.Printf("VLAN: %d (depth %d, priority %d)\n", fr.VLAN, fr.VLANDepth, fr.Priority)
	fmt.Printf("SrcAddr: %s\n", fr.SrcAddr.String())
	fmt.Printf("DstAddr: %s\n", fr.DstAddr.String())
	fmt.Printf("Protocol: %s\n", packet.IPProtocol(fr.Protocol))
	fmt.Printf("ARP operation: %d\n", fr.ARPOperation)
	fmt.Printf("Packets: %d\n", fr.Packets)
	fmt.Printf("Bytes: %d\n", fr.Size)
	fmt.Printf("Samplerate: %d\n", fr.Samplerate)
	fmt.Printf("--------------------------------\n")
}
