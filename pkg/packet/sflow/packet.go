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

package sflow

import (
	"net"
)

const (
	// Version5 is the only supported sflow version
	Version5 = 5

	// HeaderProtocolEthernet is the raw packet header protocol of Ethernet frames
	HeaderProtocolEthernet = 1
)

// Agent address types
const (
	AddressTypeIPv4 = 1
	AddressTypeIPv6 = 2
)

// Sample formats
const (
	sampleFormatFlow            = 1
	sampleFormatExpandedFlow    = 3
	recordFormatRawPacketHeader = 1
	recordFormatExtendedSwitch  = 1001
	recordFormatExtendedRouter  = 1002
)

// Packet is a decoded representation of a single sflow UDP packet.
type Packet struct {
	Header *Header

	// FlowSamples holds flow samples and expanded flow samples. Counter samples are skipped.
	FlowSamples []*FlowSample
}

// Header is an sflow version 5 header
type Header struct {
	Version          uint32
	AgentAddressType uint32
	AgentAddress     net.IP
	SubAgentID       uint32
	SequenceNumber   uint32
	SysUpTime        uint32
	NumSamples       uint32
}

// FlowSample is an sflow version 5 flow sample
type FlowSample struct {
	FlowSampleHeader *FlowSampleHeader
	RawPacketHeader  *RawPacketHeader

	// Data is the sampled frame header. It is a view into the decoded datagram.
	Data               []byte
	ExtendedSwitchData *ExtendedSwitchData
	ExtendedRouterData *ExtendedRouterData
}

// FlowSampleHeader is an sflow version 5 flow sample header. Compact and expanded
// flow samples decode into the same form.
type FlowSampleHeader struct {
	SequenceNumber uint32
	SourceIDType   uint32
	SourceIDIndex  uint32
	SamplingRate   uint32
	SamplePool     uint32
	DroppedPackets uint32
	InputIf        uint32
	OutputIf       uint32
	FlowRecords    uint32
}

// RawPacketHeader is a raw packet header
type RawPacketHeader struct {
	HeaderProtocol uint32
	FrameLength    uint32
	PayloadRemoved uint32
	HeaderLength   uint32
}

// ExtendedRouterData represents sflow version 5 extended router data
type ExtendedRouterData struct {
	AddressType            uint32
	NextHop                net.IP
	NextHopSourceMask      uint32
	NextHopDestinationMask uint32
}

// ExtendedSwitchData represents sflow version 5 extended switch data
type ExtendedSwitchData struct {
	IncomingVLAN     uint32
	IncomingPriority uint32
	OutgoingVLAN     uint32
	OutgoingPriority uint32
}
