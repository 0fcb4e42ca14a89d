package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/bio-routing/framehouse/pkg/packet/packet"
	"github.com/bio-routing/framehouse/pkg/source/pcap"
	"github.com/google/gopacket"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	decodePcap      string
	decodeHex       string
	decodeARPWidths string
	decodeIPv4Opts  string
)

var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Decode frames from a pcap file or a hex string",
	Example: `  framehouse decode --pcap capture.pcap
  framehouse decode --hex "ffffffffffff 000100010001 0806 ..." --arp-widths header`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := packet.ParseARPWidthMode(decodeARPWidths)
		if err != nil {
			return err
		}

		optMode, err := packet.ParseIPv4OptionMode(decodeIPv4Opts)
		if err != nil {
			return err
		}

		dec := &packet.Decoder{
			ARPWidths:   mode,
			IPv4Options: optMode,
		}

		switch {
		case decodePcap != "" && decodeHex != "":
			return errors.New("--pcap and --hex are mutually exclusive")
		case decodePcap != "":
			return decodeFile(cmd.OutOrStdout(), dec, decodePcap)
		case decodeHex != "":
			return decodeHexString(cmd.OutOrStdout(), dec, decodeHex)
		}

		return errors.New("either --pcap or --hex is required")
	},
}

func init() {
	decodeCmd.Flags().StringVar(&decodePcap, "pcap", "", "pcap file containing Ethernet frames")
	decodeCmd.Flags().StringVar(&decodeHex, "hex", "", "hex encoded frame, whitespace and colons are ignored")
	decodeCmd.Flags().StringVar(&decodeIPv4Opts, "ipv4-options", packet.IPv4OptionsTLV.String(), "IPv4 options walk policy (tlv|single_byte_nop)")
	decodeCmd.Flags().StringVar(&decodeARPWidths, "arp-widths", packet.ARPWidthsByProtocolType.String(), "ARP address widths policy (protocol_type|header)")
}

func decodeHexString(w io.Writer, dec *packet.Decoder, s string) error {
	buf, err := parseHex(s)
	if err != nil {
		return err
	}

	p, err := dec.Decode(buf)
	if err != nil {
		return errors.Wrap(err, "Unable to decode frame")
	}

	fmt.Fprintln(w, describe(p))
	return nil
}

func parseHex(s string) ([]byte, error) {
	s = strings.NewReplacer(" ", "", ":", "", "\t", "", "\n", "").Replace(s)
	s = strings.TrimPrefix(s, "0x")

	buf, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(err, "Invalid hex string")
	}

	return buf, nil
}

func decodeFile(w io.Writer, dec *packet.Decoder, path string) error {
	failed := 0
	n, err := pcap.WalkFile(path, func(ci gopacket.CaptureInfo, data []byte) error {
		p, err := dec.Decode(data)
		if err != nil {
			failed++
			fmt.Fprintf(w, "%s error: %v\n", ci.Timestamp.UTC().Format("15:04:05.000000"), err)
			return nil
		}

		fmt.Fprintf(w, "%s %s\n", ci.Timestamp.UTC().Format("15:04:05.000000"), describe(p))
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%d frames, %d undecodable\n", n, failed)
	return nil
}

func describe(p packet.Packet) string {
	l := p.Link()

	b := &strings.Builder{}
	fmt.Fprintf(b, "%s > %s", l.Ethernet.Source, l.Ethernet.Destination)
	for _, v := range l.VLANs {
		fmt.Fprintf(b, " vlan %d %s", v.ID, v.Priority)
		if v.DropEligible {
			b.WriteString(" DE")
		}
	}
	fmt.Fprintf(b, " %s", p.Protocol())

	switch pkt := p.(type) {
	case *packet.ARPPacket:
		fmt.Fprintf(b, " %s sender %s/%s target %s/%s",
			pkt.Header.Operation,
			pkt.Sender.HardwareAddr, protocolAddr(pkt.Sender),
			pkt.Target.HardwareAddr, protocolAddr(pkt.Target))
	case *packet.IPv4Packet:
		h := pkt.Header
		fmt.Fprintf(b, " %s > %s %s ttl %d id %d len %d", h.Src, h.Dst, h.Protocol, h.TTL, h.ID, h.TotalLength)
		if h.DontFragment() {
			b.WriteString(" DF")
		}
		if h.MoreFragments() {
			b.WriteString(" MF")
		}
		for _, o := range h.Options {
			fmt.Fprintf(b, " %s", o.Number)
		}
	}

	return b.String()
}

func protocolAddr(a packet.ARPAddrPair) string {
	if ip := a.IP(); ip != nil {
		return ip.String()
	}

	return hex.EncodeToString(a.ProtocolAddr)
}
