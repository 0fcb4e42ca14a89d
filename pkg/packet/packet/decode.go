// Package packet decodes Ethernet II frames, stacked 802.1q tags, ARP and IPv4 headers
// into read only views over the original buffer.
//
// Decoded values reference the decoded buffer instead of copying it. The buffer must not
// be modified or reused while anything decoded from it is in use.
package packet

import (
	"github.com/pkg/errors"
)

// Packet is a decoded frame. It is one of *ARPPacket, *IPv4Packet or *UnknownPacket.
type Packet interface {
	Link() *LinkHeader
	Protocol() EtherType
}

// UnknownPacket is a frame with an EtherType that is not decoded any further
type UnknownPacket struct {
	LinkHeader
	Type EtherType
}

// Protocol gets the EtherType of the packet
func (p *UnknownPacket) Protocol() EtherType {
	return p.Type
}

// Decoder decodes frames. The zero value is ready to use.
type Decoder struct {
	ARPWidths   ARPWidthMode
	IPv4Options IPv4OptionMode
}

var defaultDecoder = NewDecoder()

// NewDecoder creates a decoder using the default ARP width and IPv4 option policies
func NewDecoder() *Decoder {
	return &Decoder{
		ARPWidths:   ARPWidthsByProtocolType,
		IPv4Options: IPv4OptionsTLV,
	}
}

// Decode decodes a frame using the default decoder
func Decode(buf []byte) (Packet, error) {
	return defaultDecoder.Decode(buf)
}

// Decode decodes a raw frame starting at the destination MAC address.
// Frames with an EtherType other than ARP or IPv4 are returned as *UnknownPacket.
func (d *Decoder) Decode(buf []byte) (Packet, error) {
	link, et, off, err := splitLink(buf)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to decode link layer")
	}

	switch et {
	case EtherTypeARP:
		p, err := decodeARPPayload(link, buf[off:], d.ARPWidths)
		if err != nil {
			return nil, errors.Wrap(err, "Unable to decode ARP packet")
		}

		return p, nil
	case EtherTypeIPv4:
		p, err := decodeIPv4Payload(link, buf[off:], d.IPv4Options)
		if err != nil {
			return nil, errors.Wrap(err, "Unable to decode IPv4 packet")
		}

		return p, nil
	}

	return &UnknownPacket{
		LinkHeader: link,
		Type:       et,
	}, nil
}

// DecodeARP decodes an ARP packet from a complete frame
func (d *Decoder) DecodeARP(buf []byte) (*ARPPacket, error) {
	link, et, off, err := splitLink(buf)
	if err != nil {
		return nil, err
	}

	if et != EtherTypeARP {
		return nil, errors.Wrapf(ErrNotARP, "EtherType is %s", et)
	}

	return decodeARPPayload(link, buf[off:], d.ARPWidths)
}

// DecodeIPv4 decodes an IPv4 header from a complete frame
func (d *Decoder) DecodeIPv4(buf []byte) (*IPv4Packet, error) {
	link, et, off, err := splitLink(buf)
	if err != nil {
		return nil, err
	}

	if et != EtherTypeIPv4 {
		return nil, errors.Wrapf(ErrNotIPv4, "EtherType is %s", et)
	}

	return decodeIPv4Payload(link, buf[off:], d.IPv4Options)
}

// DecodeIPv4Header decodes an IPv4 header including its options from buf
func (d *Decoder) DecodeIPv4Header(buf []byte) (*IPv4Header, error) {
	return decodeIPv4Header(buf, d.IPv4Options)
}
