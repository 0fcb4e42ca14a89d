package packet

// LinkHeader is the layer 2 part shared by all decoded packets
type LinkHeader struct {
	Ethernet *EthernetHeader

	// VLANs holds the 802.1q tags outer first. It is nil for untagged frames.
	VLANs []Dot1Q
}

// Link gets the layer 2 part of a packet
func (l *LinkHeader) Link() *LinkHeader {
	return l
}

// OuterVLAN gets the outermost 802.1q tag, if any
func (l *LinkHeader) OuterVLAN() (Dot1Q, bool) {
	if len(l.VLANs) == 0 {
		return Dot1Q{}, false
	}

	return l.VLANs[0], true
}

// splitLink decodes the MAC addresses, the 802.1q stack and the EtherType of a frame
// and returns them along with the offset of the payload in buf.
func splitLink(buf []byte) (LinkHeader, EtherType, int, error) {
	eth, err := DecodeEthernet(buf)
	if err != nil {
		return LinkHeader{}, 0, 0, err
	}

	vlans, n, err := DecodeDot1QStack(buf[SizeOfEthernetAddrs:])
	if err != nil {
		return LinkHeader{}, 0, 0, err
	}

	off := SizeOfEthernetAddrs + n
	et, err := ParseEtherType(buf[off:])
	if err != nil {
		return LinkHeader{}, 0, 0, err
	}

	return LinkHeader{
		Ethernet: eth,
		VLANs:    vlans,
	}, et, off + SizeOfEtherType, nil
}
