// Package pcap reads raw Ethernet frames from pcap files
package pcap

import (
	"io"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/pkg/errors"
)

// ErrLinkType is returned for captures that do not contain Ethernet frames
var ErrLinkType = errors.New("unsupported link type")

// FrameHandler is called for every frame of a capture. data is only valid during the call.
type FrameHandler func(ci gopacket.CaptureInfo, data []byte) error

// Source is a pcap capture
type Source struct {
	r *pcapgo.Reader
}

// New creates a source reading from r
func New(r io.Reader) (*Source, error) {
	pr, err := pcapgo.NewReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to read pcap header")
	}

	if pr.LinkType() != layers.LinkTypeEthernet {
		return nil, errors.Wrapf(ErrLinkType, "%s", pr.LinkType())
	}

	return &Source{
		r: pr,
	}, nil
}

// Walk calls h for every frame until the capture ends or h returns an error
func (s *Source) Walk(h FrameHandler) (int, error) {
	n := 0
	for {
		data, ci, err := s.r.ZeroCopyReadPacketData()
		if err == io.EOF {
			return n, nil
		}

		if err != nil {
			return n, errors.Wrapf(err, "Unable to read frame %d", n+1)
		}

		n++
		err = h(ci, data)
		if err != nil {
			return n, err
		}
	}
}

// WalkFile opens a capture file and walks all of its frames
func WalkFile(path string, h FrameHandler) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrap(err, "Unable to open file")
	}
	defer f.Close()

	s, err := New(f)
	if err != nil {
		return 0, errors.Wrapf(err, "Unable to read %q", path)
	}

	return s.Walk(h)
}
