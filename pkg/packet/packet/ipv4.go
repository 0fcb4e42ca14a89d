package packet

import (
	"net"

	"github.com/bio-routing/tflow2/convert"
	"github.com/pkg/errors"
)

const (
	// SizeOfIPv4Header is the size of an IPv4 header without options in bytes
	SizeOfIPv4Header = 20

	ipv4MinIHL = 5
	ipv4MaxIHL = 15
)

// IPv4 header flags
const (
	IPv4DontFragment  = 0x2
	IPv4MoreFragments = 0x1
)

// IPv4Header is a decoded IPv4 header. Addresses and option values are views into
// the decoded buffer.
type IPv4Header struct {
	Version        uint8
	IHL            uint8
	DSCP           uint8
	ECN            uint8
	TotalLength    uint16
	ID             uint16
	Flags          uint8
	FragmentOffset uint16
	TTL            uint8
	Protocol       IPProtocol
	Checksum       uint16
	Src            net.IP
	Dst            net.IP

	// Options is empty unless the header carries at least one option before EOL
	Options []IPv4Option
}

// HeaderLen gets the header length in bytes
func (h *IPv4Header) HeaderLen() int {
	return int(h.IHL) * 4
}

// DontFragment tells if the DF flag is set
func (h *IPv4Header) DontFragment() bool {
	return h.Flags&IPv4DontFragment != 0
}

// MoreFragments tells if the MF flag is set
func (h *IPv4Header) MoreFragments() bool {
	return h.Flags&IPv4MoreFragments != 0
}

// IPv4Packet is a decoded IPv4 packet header along with its link layer
type IPv4Packet struct {
	LinkHeader
	Header *IPv4Header
}

// Protocol gets the EtherType of the packet
func (p *IPv4Packet) Protocol() EtherType {
	return EtherTypeIPv4
}

// DecodeIPv4 decodes the IPv4 header of a complete Ethernet frame
func DecodeIPv4(buf []byte) (*IPv4Packet, error) {
	return defaultDecoder.DecodeIPv4(buf)
}

// DecodeIPv4Payload decodes an IPv4 header from the payload of a frame, given the already
// decoded Ethernet header and 802.1q tags
func DecodeIPv4Payload(eth *EthernetHeader, vlans []Dot1Q, payload []byte) (*IPv4Packet, error) {
	return decodeIPv4Payload(LinkHeader{Ethernet: eth, VLANs: vlans}, payload, defaultDecoder.IPv4Options)
}

func decodeIPv4Payload(link LinkHeader, payload []byte, mode IPv4OptionMode) (*IPv4Packet, error) {
	hdr, err := decodeIPv4Header(payload, mode)
	if err != nil {
		return nil, err
	}

	return &IPv4Packet{
		LinkHeader: link,
		Header:     hdr,
	}, nil
}

// DecodeIPv4Header decodes an IPv4 header including its options from buf.
// The checksum is reported but not verified.
func DecodeIPv4Header(buf []byte) (*IPv4Header, error) {
	return defaultDecoder.DecodeIPv4Header(buf)
}

func decodeIPv4Header(buf []byte, mode IPv4OptionMode) (*IPv4Header, error) {
	if len(buf) < SizeOfIPv4Header {
		return nil, tooShort("IPv4 header", SizeOfIPv4Header, len(buf))
	}

	ihl := buf[0] & 0x0f
	if ihl < ipv4MinIHL || ihl > ipv4MaxIHL {
		return nil, errors.Wrapf(ErrInvalidHeaderLength, "IHL %d out of range", ihl)
	}

	hdrLen := int(ihl) * 4
	if hdrLen > len(buf) {
		return nil, errors.Wrapf(ErrInvalidHeaderLength, "header length %d exceeds buffer of %d bytes", hdrLen, len(buf))
	}

	h := &IPv4Header{
		Version:        buf[0] >> 4,
		IHL:            ihl,
		DSCP:           buf[1] >> 2,
		ECN:            buf[1] & 0x03,
		TotalLength:    convert.Uint16b(buf[2:4]),
		ID:             convert.Uint16b(buf[4:6]),
		Flags:          buf[6] >> 5,
		FragmentOffset: convert.Uint16b(buf[6:8]) & 0x1fff,
		TTL:            buf[8],
		Protocol:       IPProtocol(buf[9]),
		Checksum:       convert.Uint16b(buf[10:12]),
		Src:            net.IP(buf[12:16:16]),
		Dst:            net.IP(buf[16:20:20]),
	}

	if ihl > ipv4MinIHL {
		opts, err := decodeIPv4Options(buf[SizeOfIPv4Header:hdrLen], mode)
		if err != nil {
			return nil, err
		}

		h.Options = opts
	}

	return h, nil
}
