package packet

import (
	"fmt"

	"github.com/pkg/errors"
)

const (
	sizeOfIPv4OptionHeader = 2
)

// IPv4Option is a single entry of the IPv4 options region
type IPv4Option struct {
	Copied bool
	Class  uint8
	Number IPv4OptionNumber

	// Length is the total length of the option including type and length bytes
	Length uint8

	// Value holds Length-2 bytes
	Value []byte
}

// IPv4OptionMode selects how the NOP option is laid out in the options region
type IPv4OptionMode int

const (
	// IPv4OptionsTLV reads a length byte for every option except EOL, NOP included
	IPv4OptionsTLV IPv4OptionMode = iota

	// IPv4OptionsSingleByteNOP treats NOP as a single byte without length, as RFC 791 does
	IPv4OptionsSingleByteNOP
)

func (m IPv4OptionMode) String() string {
	switch m {
	case IPv4OptionsTLV:
		return "tlv"
	case IPv4OptionsSingleByteNOP:
		return "single_byte_nop"
	}

	return fmt.Sprintf("IPv4OptionMode(%d)", int(m))
}

// ParseIPv4OptionMode parses the string form of an IPv4OptionMode
func ParseIPv4OptionMode(s string) (IPv4OptionMode, error) {
	switch s {
	case "", "tlv":
		return IPv4OptionsTLV, nil
	case "single_byte_nop":
		return IPv4OptionsSingleByteNOP, nil
	}

	return 0, errors.Errorf("unknown IPv4 option mode %q", s)
}

// decodeIPv4Options walks the options region of an IPv4 header until EOL or the end
// of the region. Padding after EOL is ignored.
func decodeIPv4Options(buf []byte, mode IPv4OptionMode) ([]IPv4Option, error) {
	if len(buf)%4 != 0 {
		return nil, errors.Wrapf(ErrInvalidOptions, "options length %d is not a multiple of 4", len(buf))
	}

	var opts []IPv4Option

	off := 0
	for off < len(buf) {
		t := buf[off]
		opt := IPv4Option{
			Copied: t&0x80 != 0,
			Class:  (t >> 5) & 0x03,
			Number: IPv4OptionNumber(t & 0x1f),
		}

		if opt.Number == IPv4OptionEOL {
			break
		}

		if opt.Number == IPv4OptionNOP && mode == IPv4OptionsSingleByteNOP {
			opt.Length = 1
			opts = append(opts, opt)
			off++
			continue
		}

		if off+sizeOfIPv4OptionHeader > len(buf) {
			return nil, errors.Wrapf(ErrInvalidOptions, "option %s at offset %d has no length", opt.Number, off)
		}

		opt.Length = buf[off+1]
		end := off + int(opt.Length)
		if opt.Length < sizeOfIPv4OptionHeader || end > len(buf) {
			return nil, errors.Wrapf(ErrInvalidOptions, "option %s at offset %d has invalid length %d", opt.Number, off, opt.Length)
		}

		opt.Value = buf[off+sizeOfIPv4OptionHeader : end : end]
		opts = append(opts, opt)
		off = end
	}

	return opts, nil
}
