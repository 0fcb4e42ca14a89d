package frame

import (
	"testing"

	"github.com/bio-routing/framehouse/pkg/packet/packet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bnet "github.com/bio-routing/bio-rd/net"
)

func TestFromPacket(t *testing.T) {
	agent := must[bnet.IP](t)(bnet.IPFromString("192.0.2.1"))

	tests := []struct {
		name     string
		input    []byte
		expected *Frame
	}{
		{
			name: "Tagged ARP request",
			input: []byte{
				0x11, 0x12, 0x13, 0x14, 0x15, 0x16,
				0x01, 0x02, 0x03, 0x04, 0x05, 0x06,
				0x81, 0x00, 0xa0, 0x0a,
				0x08, 0x06,
				0x00, 0x01, 0x08, 0x00, 0x06, 0x04, 0x00, 0x01,
				0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x01, 0x01, 0x01, 0x01,
				0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x02, 0x02, 0x02, 0x02,
			},
			expected: &Frame{
				Agent:        agent,
				Kind:         KindARP,
				SrcMAC:       "01:02:03:04:05:06",
				DstMAC:       "11:12:13:14:15:16",
				EtherType:    0x0806,
				VLAN:         10,
				VLANDepth:    1,
				Priority:     5,
				SrcAddr:      must[bnet.IP](t)(bnet.IPFromString("1.1.1.1")),
				DstAddr:      must[bnet.IP](t)(bnet.IPFromString("2.2.2.2")),
				ARPOperation: 1,
				Size:         46,
				Packets:      1,
			},
		},
		{
			name: "Untagged IPv4",
			input: []byte{
				0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
				0x00, 0x01, 0x00, 0x01, 0x00, 0x01,
				0x08, 0x00,
				0x45, 0xb8, 0x05, 0xbf, 0xe5, 0x46, 0x40, 0x00, 0x3e, 0x11,
				0xce, 0x9f, 0xac, 0x10, 0x00, 0x53, 0xc0, 0xa8, 0x16, 0x47,
			},
			expected: &Frame{
				Agent:     agent,
				Kind:      KindIPv4,
				SrcMAC:    "00:01:00:01:00:01",
				DstMAC:    "ff:ff:ff:ff:ff:ff",
				EtherType: 0x0800,
				SrcAddr:   must[bnet.IP](t)(bnet.IPFromString("172.16.0.83")),
				DstAddr:   must[bnet.IP](t)(bnet.IPFromString("192.168.22.71")),
				Protocol:  17,
				TOS:       0xb8,
				TTL:       62,
				Size:      34,
				Packets:   1,
			},
		},
		{
			name: "LLDP",
			input: []byte{
				0x01, 0x80, 0xc2, 0x00, 0x00, 0x0e,
				0x00, 0x01, 0x00, 0x01, 0x00, 0x01,
				0x88, 0xcc,
			},
			expected: &Frame{
				Agent:     agent,
				Kind:      KindUnknown,
				SrcMAC:    "00:01:00:01:00:01",
				DstMAC:    "01:80:c2:00:00:0e",
				EtherType: 0x88cc,
				Size:      14,
				Packets:   1,
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			p, err := packet.Decode(test.input)
			require.NoError(t, err)

			fr, err := FromPacket(agent, p, len(test.input))
			require.NoError(t, err)

			// summaries must not reference the buffer
			for i := range test.input {
				test.input[i] = 0
			}

			assert.Equal(t, test.expected, fr)
		})
	}
}

func TestAdd(t *testing.T) {
	a := &Frame{Size: 100, Packets: 1}
	a.Add(&Frame{Size: 60, Packets: 2})

	assert.Equal(t, uint64(160), a.Size)
	assert.Equal(t, uint64(3), a.Packets)
}

func must[T any](t testing.TB) func(res T, err error) T {
	return func(res T, err error) T {
		if err != nil {
			t.Error(err)
		}
		return res
	}
}
