package packet

import (
	"github.com/pkg/errors"
)

var (
	// ErrTooShort is returned when a buffer ends before a fixed width field
	ErrTooShort = errors.New("buffer too short")

	// ErrInvalidHeaderLength is returned when an IPv4 IHL is out of range or exceeds the buffer
	ErrInvalidHeaderLength = errors.New("invalid IPv4 header length")

	// ErrInvalidOptions is returned for a malformed IPv4 options region
	ErrInvalidOptions = errors.New("invalid IPv4 options")

	// ErrNotARP is returned when a frame carries an EtherType other than ARP
	ErrNotARP = errors.New("not an ARP packet")

	// ErrNotIPv4 is returned when a frame carries an EtherType other than IPv4
	ErrNotIPv4 = errors.New("not an IPv4 packet")
)

func tooShort(what string, need int, got int) error {
	return errors.Wrapf(ErrTooShort, "%s needs %d bytes, got %d", what, need, got)
}
