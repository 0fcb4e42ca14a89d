package aggregator

import (
	"time"

	"github.com/bio-routing/framehouse/pkg/models/frame"

	bnet "github.com/bio-routing/bio-rd/net"
)

const (
	// DefaultWindow is the aggregation window used if none is given
	DefaultWindow = 10 * time.Second
)

// Key identifies frames that are summed up within a window
type Key struct {
	Agent        bnet.IP
	IntIn        uint32
	IntOut       uint32
	SrcMAC       string
	DstMAC       string
	EtherType    uint16
	VLAN         uint16
	Src          bnet.IP
	Dst          bnet.IP
	Protocol     uint8
	ARPOperation uint16
}

// Aggregator sums up frame summaries per Key and window
type Aggregator struct {
	data      map[Key]*frame.Frame
	window    time.Duration
	stopCh    chan struct{}
	doneCh    chan struct{}
	ingress   chan *frame.Frame
	output    chan []*frame.Frame
	lastFlush time.Time
	timeNow   func() time.Time
}

// New creates an aggregator and starts its service routine.
// Aggregated frames are sent to output once per window.
func New(output chan []*frame.Frame, window time.Duration) *Aggregator {
	if window <= 0 {
		window = DefaultWindow
	}

	a := &Aggregator{
		data:    make(map[Key]*frame.Frame),
		window:  window,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
		ingress: make(chan *frame.Frame),
		output:  output,
		timeNow: time.Now,
	}

	go a.service()
	return a
}

// Stop stops the service routine. The open window is flushed to output.
func (a *Aggregator) Stop() {
	close(a.stopCh)
	<-a.doneCh
}

// FrameToKey gets the aggregation key of a frame
func FrameToKey(fr *frame.Frame) Key {
	return Key{
		Agent:        fr.Agent,
		IntIn:        fr.IntIn,
		IntOut:       fr.IntOut,
		SrcMAC:       fr.SrcMAC,
		DstMAC:       fr.DstMAC,
		EtherType:    fr.EtherType,
		VLAN:         fr.VLAN,
		Src:          fr.SrcAddr,
		Dst:          fr.DstAddr,
		Protocol:     fr.Protocol,
		ARPOperation: fr.ARPOperation,
	}
}

// IsStopped tells if Stop was called
func (a *Aggregator) IsStopped() bool {
	select {
	case <-a.stopCh:
		return true
	default:
		return false
	}
}

func (a *Aggregator) service() {
	defer close(a.doneCh)

	for {
		select {
		case <-a.stopCh:
			if len(a.data) > 0 {
				a.flush()
			}
			return
		case fr := <-a.ingress:
			a.Ingest(fr)
		}
	}
}

// Ingest adds a frame to the current window, flushing the previous one if it has passed
func (a *Aggregator) Ingest(fr *frame.Frame) {
	normalizedIngestTime := a.timeNow().Truncate(a.window)

	timeSinceLastFlush := normalizedIngestTime.Sub(a.lastFlush)
	if timeSinceLastFlush >= a.window {
		a.flush()
		a.lastFlush = normalizedIngestTime
	}

	fr.Timestamp = normalizedIngestTime.Unix()
	a.add(fr)
}

func (a *Aggregator) add(fr *frame.Frame) {
	k := FrameToKey(fr)

	if _, exists := a.data[k]; !exists {
		a.data[k] = fr
		return
	}

	a.data[k].Add(fr)
}

// GetIngress gets the channel frames are fed into
func (a *Aggregator) GetIngress() chan<- *frame.Frame {
	return a.ingress
}

func (a *Aggregator) flush() {
	s := make([]*frame.Frame, len(a.data))

	i := 0
	for _, fr := range a.data {
		s[i] = fr
		i++
	}

	a.output <- s
	a.data = make(map[Key]*frame.Frame)
}
