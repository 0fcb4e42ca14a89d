// Copyright 2017 EXARING AG. All Rights Reserved.
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//     http://www.apache.org/licenses/LICENSE-2.0
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package sflow decodes sflow version 5 datagrams. Decoded samples reference the datagram buffer.
package sflow

import (
	"net"

	"github.com/bio-routing/tflow2/convert"
	"github.com/pkg/errors"
)

var (
	// ErrTooShort is returned when the datagram ends inside a field
	ErrTooShort = errors.New("sflow datagram too short")

	// ErrUnsupportedVersion is returned for datagrams other than version 5
	ErrUnsupportedVersion = errors.New("unsupported sflow version")

	// ErrUnknownAddressType is returned for address types other than IPv4 and IPv6
	ErrUnknownAddressType = errors.New("unknown address type")
)

const (
	sizeOfFlowSampleHeader         = 8 * 4
	sizeOfExpandedFlowSampleHeader = 11 * 4
	sizeOfRawPacketHeader          = 4 * 4
	sizeOfExtendedSwitchData       = 4 * 4

	ifIndexMask = 0x3fffffff
)

// reader reads big endian fields from the front of a buffer
type reader struct {
	buf []byte
	off int
}

func (r *reader) uint32(what string) (uint32, error) {
	b, err := r.bytes(what, 4)
	if err != nil {
		return 0, err
	}

	return convert.Uint32b(b), nil
}

func (r *reader) bytes(what string, n int) ([]byte, error) {
	if n < 0 || n > len(r.buf)-r.off {
		return nil, errors.Wrapf(ErrTooShort, "%s needs %d bytes at offset %d, %d left", what, n, r.off, len(r.buf)-r.off)
	}

	b := r.buf[r.off : r.off+n : r.off+n]
	r.off += n
	return b, nil
}

func (r *reader) address(what string, addrType uint32) (net.IP, error) {
	switch addrType {
	case AddressTypeIPv4:
		b, err := r.bytes(what, net.IPv4len)
		return net.IP(b), err
	case AddressTypeIPv6:
		b, err := r.bytes(what, net.IPv6len)
		return net.IP(b), err
	}

	return nil, errors.Wrapf(ErrUnknownAddressType, "%s has address type %d", what, addrType)
}

// Decode decodes an sflow datagram
func Decode(buf []byte) (*Packet, error) {
	r := &reader{buf: buf}

	h, err := decodeHeader(r)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to decode header")
	}

	p := &Packet{
		Header:      h,
		FlowSamples: make([]*FlowSample, 0),
	}

	for i := uint32(0); i < h.NumSamples; i++ {
		format, err := r.uint32("sample format")
		if err != nil {
			return nil, errors.Wrapf(err, "Unable to decode sample %d", i)
		}

		length, err := r.uint32("sample length")
		if err != nil {
			return nil, errors.Wrapf(err, "Unable to decode sample %d", i)
		}

		body, err := r.bytes("sample", int(length))
		if err != nil {
			return nil, errors.Wrapf(err, "Unable to decode sample %d", i)
		}

		// enterprise specific samples
		if format>>12 != 0 {
			continue
		}

		var fs *FlowSample
		switch format & 0xfff {
		case sampleFormatFlow:
			fs, err = decodeFlowSample(body, false)
		case sampleFormatExpandedFlow:
			fs, err = decodeFlowSample(body, true)
		default:
			continue
		}

		if err != nil {
			return nil, errors.Wrapf(err, "Unable to decode flow sample %d", i)
		}

		p.FlowSamples = append(p.FlowSamples, fs)
	}

	return p, nil
}

func decodeHeader(r *reader) (*Header, error) {
	h := &Header{}

	var err error
	h.Version, err = r.uint32("version")
	if err != nil {
		return nil, err
	}

	if h.Version != Version5 {
		return nil, errors.Wrapf(ErrUnsupportedVersion, "version %d", h.Version)
	}

	h.AgentAddressType, err = r.uint32("agent address type")
	if err != nil {
		return nil, err
	}

	h.AgentAddress, err = r.address("agent address", h.AgentAddressType)
	if err != nil {
		return nil, err
	}

	fields := []*uint32{&h.SubAgentID, &h.SequenceNumber, &h.SysUpTime, &h.NumSamples}
	for _, f := range fields {
		*f, err = r.uint32("header")
		if err != nil {
			return nil, err
		}
	}

	return h, nil
}

func decodeFlowSampleHeader(r *reader, expanded bool) (*FlowSampleHeader, error) {
	size := sizeOfFlowSampleHeader
	if expanded {
		size = sizeOfExpandedFlowSampleHeader
	}

	b, err := r.bytes("flow sample header", size)
	if err != nil {
		return nil, err
	}

	w := func(i int) uint32 {
		return convert.Uint32b(b[i*4 : i*4+4])
	}

	if expanded {
		return &FlowSampleHeader{
			SequenceNumber: w(0),
			SourceIDType:   w(1),
			SourceIDIndex:  w(2),
			SamplingRate:   w(3),
			SamplePool:     w(4),
			DroppedPackets: w(5),
			InputIf:        w(7),
			OutputIf:       w(9),
			FlowRecords:    w(10),
		}, nil
	}

	return &FlowSampleHeader{
		SequenceNumber: w(0),
		SourceIDType:   w(1) >> 24,
		SourceIDIndex:  w(1) & 0x00ffffff,
		SamplingRate:   w(2),
		SamplePool:     w(3),
		DroppedPackets: w(4),
		InputIf:        w(5) & ifIndexMask,
		OutputIf:       w(6) & ifIndexMask,
		FlowRecords:    w(7),
	}, nil
}

func decodeFlowSample(buf []byte, expanded bool) (*FlowSample, error) {
	r := &reader{buf: buf}

	fsh, err := decodeFlowSampleHeader(r, expanded)
	if err != nil {
		return nil, err
	}

	fs := &FlowSample{
		FlowSampleHeader: fsh,
	}

	for i := uint32(0); i < fsh.FlowRecords; i++ {
		format, err := r.uint32("record format")
		if err != nil {
			return nil, errors.Wrapf(err, "Unable to decode flow record %d", i)
		}

		length, err := r.uint32("record length")
		if err != nil {
			return nil, errors.Wrapf(err, "Unable to decode flow record %d", i)
		}

		data, err := r.bytes("flow record", int(length))
		if err != nil {
			return nil, errors.Wrapf(err, "Unable to decode flow record %d", i)
		}

		switch format {
		case recordFormatRawPacketHeader:
			err = fs.decodeRawPacketHeader(data)
		case recordFormatExtendedSwitch:
			err = fs.decodeExtendedSwitchData(data)
		case recordFormatExtendedRouter:
			err = fs.decodeExtendedRouterData(data)
		}

		if err != nil {
			return nil, errors.Wrapf(err, "Unable to decode flow record %d", i)
		}
	}

	return fs, nil
}

func (fs *FlowSample) decodeRawPacketHeader(buf []byte) error {
	r := &reader{buf: buf}

	b, err := r.bytes("raw packet header", sizeOfRawPacketHeader)
	if err != nil {
		return err
	}

	rph := &RawPacketHeader{
		HeaderProtocol: convert.Uint32b(b[0:4]),
		FrameLength:    convert.Uint32b(b[4:8]),
		PayloadRemoved: convert.Uint32b(b[8:12]),
		HeaderLength:   convert.Uint32b(b[12:16]),
	}

	data, err := r.bytes("sampled header", int(rph.HeaderLength))
	if err != nil {
		return err
	}

	fs.RawPacketHeader = rph
	fs.Data = data
	return nil
}

func (fs *FlowSample) decodeExtendedSwitchData(buf []byte) error {
	r := &reader{buf: buf}

	b, err := r.bytes("extended switch data", sizeOfExtendedSwitchData)
	if err != nil {
		return err
	}

	fs.ExtendedSwitchData = &ExtendedSwitchData{
		IncomingVLAN:     convert.Uint32b(b[0:4]),
		IncomingPriority: convert.Uint32b(b[4:8]),
		OutgoingVLAN:     convert.Uint32b(b[8:12]),
		OutgoingPriority: convert.Uint32b(b[12:16]),
	}
	return nil
}

func (fs *FlowSample) decodeExtendedRouterData(buf []byte) error {
	r := &reader{buf: buf}

	erd := &ExtendedRouterData{}

	var err error
	erd.AddressType, err = r.uint32("next hop address type")
	if err != nil {
		return err
	}

	erd.NextHop, err = r.address("next hop", erd.AddressType)
	if err != nil {
		return err
	}

	erd.NextHopSourceMask, err = r.uint32("source mask")
	if err != nil {
		return err
	}

	erd.NextHopDestinationMask, err = r.uint32("destination mask")
	if err != nil {
		return err
	}

	fs.ExtendedRouterData = erd
	return nil
}
