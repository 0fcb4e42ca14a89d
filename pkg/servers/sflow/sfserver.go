// Package sflow provides sflow collection services via UDP and passes frame summaries into the aggregator layer
package sflow

import (
	"io"
	"net"
	"sync"
	"time"

	"github.com/bio-routing/framehouse/pkg/models/frame"
	"github.com/bio-routing/framehouse/pkg/packet/packet"
	"github.com/bio-routing/framehouse/pkg/packet/sflow"
	"github.com/bio-routing/framehouse/pkg/servers/aggregator"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	bnet "github.com/bio-routing/bio-rd/net"
	log "github.com/sirupsen/logrus"
)

const (
	maxDatagramSize = 8960
)

// Decode error reasons
const (
	ReasonTooShort            = "too_short"
	ReasonInvalidHeaderLength = "invalid_header_length"
	ReasonInvalidOptions      = "invalid_options"
	ReasonInvalidAddress      = "invalid_address"
	ReasonOther               = "other"
)

var labels = []string{
	"agent",
}

// InterfaceResolver resolves interface indexes of an agent to names
type InterfaceResolver interface {
	Resolve(agent bnet.IP, ifID uint32) string
}

// SflowServer represents a sflow Collector instance
type SflowServer struct {
	aggregator          *aggregator.Aggregator
	decoder             *packet.Decoder
	ifResolver          InterfaceResolver
	conn                *net.UDPConn
	wg                  sync.WaitGroup
	stopCh              chan struct{}
	packetsReceived     *prometheus.CounterVec
	packetDecodeErrors  *prometheus.CounterVec
	flowSamplesReceived *prometheus.CounterVec
	flowNoRawPktHeader  *prometheus.CounterVec
	flowUnknownProtocol *prometheus.CounterVec
	framesDecoded       *prometheus.CounterVec
	frameDecodeErrors   *prometheus.CounterVec
}

// New creates and starts a new `SflowServer` instance
func New(listen string, numReaders int, decoder *packet.Decoder, output chan []*frame.Frame, window time.Duration, ifResolver InterfaceResolver, reg prometheus.Registerer) (*SflowServer, error) {
	sfs := newSflowServer(decoder, output, window, reg)
	sfs.ifResolver = ifResolver

	addr, err := net.ResolveUDPAddr("udp", listen)
	if err != nil {
		sfs.aggregator.Stop()
		return nil, errors.Wrap(err, "Unable to resolve UDP address")
	}

	con, err := net.ListenUDP("udp", addr)
	if err != nil {
		sfs.aggregator.Stop()
		return nil, errors.Wrap(err, "ListenUDP failed")
	}
	sfs.conn = con

	sfs.startService(numReaders)
	return sfs, nil
}

func newSflowServer(decoder *packet.Decoder, output chan []*frame.Frame, window time.Duration, reg prometheus.Registerer) *SflowServer {
	if decoder == nil {
		decoder = packet.NewDecoder()
	}

	factory := promauto.With(reg)
	return &SflowServer{
		aggregator: aggregator.New(output, window),
		decoder:    decoder,
		packetsReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "framehouse",
			Subsystem: "sflow",
			Name:      "received_packets",
			Help:      "Received sflow packets",
		}, labels),
		packetDecodeErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "framehouse",
			Subsystem: "sflow",
			Name:      "packet_decode_errors",
			Help:      "sflow packets that could not be decoded",
		}, labels),
		flowSamplesReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "framehouse",
			Subsystem: "sflow",
			Name:      "flow_samples_received",
			Help:      "Flow samples received",
		}, labels),
		flowNoRawPktHeader: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "framehouse",
			Subsystem: "sflow",
			Name:      "flow_samples_no_raw_pkt_header",
			Help:      "Flow samples without raw packet header",
		}, labels),
		flowUnknownProtocol: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "framehouse",
			Subsystem: "sflow",
			Name:      "flow_samples_unknown_protocol",
			Help:      "Flow samples with a header protocol other than Ethernet",
		}, labels),
		framesDecoded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "framehouse",
			Subsystem: "sflow",
			Name:      "decoded_frames",
			Help:      "Successfully decoded sampled frames",
		}, []string{"agent", "kind"}),
		frameDecodeErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "framehouse",
			Subsystem: "sflow",
			Name:      "decode_errors",
			Help:      "Sampled frames that could not be decoded",
		}, []string{"agent", "reason"}),
		stopCh: make(chan struct{}),
	}
}

// Addr gets the address the server is listening on
func (sfs *SflowServer) Addr() net.Addr {
	return sfs.conn.LocalAddr()
}

func (sfs *SflowServer) startService(numReaders int) {
	if numReaders < 1 {
		numReaders = 1
	}

	for i := 0; i < numReaders; i++ {
		sfs.wg.Add(1)
		go func() {
			defer sfs.wg.Done()
			err := sfs.packetWorker()
			if err != nil {
				log.WithError(err).Error("packetWorker failed")
			}
		}()
	}
}

// Stop closes the socket, stops the workers and flushes the open aggregation window
func (sfs *SflowServer) Stop() {
	log.Info("Stopping SflowServer")
	close(sfs.stopCh)
	sfs.conn.Close()
	sfs.wg.Wait()
	sfs.aggregator.Stop()
}

// packetWorker reads sflow packets from the socket into a reused buffer
func (sfs *SflowServer) packetWorker() error {
	buffer := make([]byte, maxDatagramSize)
	for {
		if sfs.stopped() {
			return nil
		}

		length, remote, err := sfs.conn.ReadFromUDP(buffer)
		if err == io.EOF {
			return nil
		}

		if err != nil {
			if sfs.stopped() {
				return nil
			}

			return errors.Wrap(err, "ReadFromUDP failed")
		}

		remote4 := remote.IP.To4()
		if remote4 != nil {
			remote.IP = remote4
		}

		remoteAddr, err := bnet.IPFromBytes([]byte(remote.IP))
		if err != nil {
			return errors.Wrapf(err, "Unable to convert net.IP to bnet.IP: %q", remote)
		}

		sfs.packetsReceived.WithLabelValues(remoteAddr.String()).Inc()
		for _, fr := range sfs.processPacket(remoteAddr, buffer[:length]) {
			select {
			case sfs.aggregator.GetIngress() <- fr:
			case <-sfs.stopCh:
				return nil
			}
		}
	}
}

func (sfs *SflowServer) stopped() bool {
	select {
	case <-sfs.stopCh:
		return true
	default:
		return false
	}
}

// processPacket decodes a raw sflow packet and the sampled frame of each flow sample.
// The returned summaries do not reference buffer.
func (sfs *SflowServer) processPacket(agent bnet.IP, buffer []byte) []*frame.Frame {
	agentStr := agent.String()

	p, err := sflow.Decode(buffer)
	if err != nil {
		sfs.packetDecodeErrors.WithLabelValues(agentStr).Inc()
		log.WithError(err).WithField("agent", agentStr).Debug("Unable to decode sflow packet")
		return nil
	}

	ret := make([]*frame.Frame, 0, len(p.FlowSamples))
	for _, fs := range p.FlowSamples {
		sfs.flowSamplesReceived.WithLabelValues(agentStr).Inc()

		if fs.RawPacketHeader == nil {
			sfs.flowNoRawPktHeader.WithLabelValues(agentStr).Inc()
			continue
		}

		if fs.RawPacketHeader.HeaderProtocol != sflow.HeaderProtocolEthernet {
			sfs.flowUnknownProtocol.WithLabelValues(agentStr).Inc()
			continue
		}

		fr := sfs.processFrame(agent, agentStr, fs.Data, int(fs.RawPacketHeader.FrameLength))
		if fr == nil {
			continue
		}

		fr.IntIn = fs.FlowSampleHeader.InputIf
		fr.IntOut = fs.FlowSampleHeader.OutputIf
		if sfs.ifResolver != nil {
			fr.IntInName = sfs.ifResolver.Resolve(agent, fr.IntIn)
			fr.IntOutName = sfs.ifResolver.Resolve(agent, fr.IntOut)
		}
		fr.Samplerate = uint64(fs.FlowSampleHeader.SamplingRate)
		ret = append(ret, fr)
	}

	return ret
}

// processFrame decodes a sampled frame and copies it into a summary. Returns nil if the frame is undecodable.
func (sfs *SflowServer) processFrame(agent bnet.IP, agentStr string, data []byte, frameLength int) *frame.Frame {
	p, err := sfs.decoder.Decode(data)
	if err != nil {
		sfs.frameDecodeErrors.WithLabelValues(agentStr, Reason(err)).Inc()
		log.WithError(err).WithField("agent", agentStr).Debug("Unable to decode sampled frame")
		return nil
	}

	fr, err := frame.FromPacket(agent, p, frameLength)
	if err != nil {
		sfs.frameDecodeErrors.WithLabelValues(agentStr, ReasonInvalidAddress).Inc()
		log.WithError(err).WithField("agent", agentStr).Debug("Unable to summarize frame")
		return nil
	}

	fr.Timestamp = time.Now().Unix()
	sfs.framesDecoded.WithLabelValues(agentStr, fr.Kind).Inc()
	return fr
}

// Reason maps a frame decode error to the label used in the decode_errors counter
func Reason(err error) string {
	switch errors.Cause(err) {
	case packet.ErrTooShort:
		return ReasonTooShort
	case packet.ErrInvalidHeaderLength:
		return ReasonInvalidHeaderLength
	case packet.ErrInvalidOptions:
		return ReasonInvalidOptions
	}

	return ReasonOther
}
