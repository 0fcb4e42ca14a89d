package packet

import "fmt"

// IPProtocol is an IPv4 next level protocol number as assigned by IANA
type IPProtocol uint8

// Well known IP protocol numbers
const (
	IPProtocolHOPOPT   IPProtocol = 0
	IPProtocolICMP     IPProtocol = 1
	IPProtocolIGMP     IPProtocol = 2
	IPProtocolGGP      IPProtocol = 3
	IPProtocolIPIP     IPProtocol = 4
	IPProtocolST       IPProtocol = 5
	IPProtocolTCP      IPProtocol = 6
	IPProtocolCBT      IPProtocol = 7
	IPProtocolEGP      IPProtocol = 8
	IPProtocolIGP      IPProtocol = 9
	IPProtocolPUP      IPProtocol = 12
	IPProtocolUDP      IPProtocol = 17
	IPProtocolRDP      IPProtocol = 27
	IPProtocolDCCP     IPProtocol = 33
	IPProtocolIPv6     IPProtocol = 41
	IPProtocolRSVP     IPProtocol = 46
	IPProtocolGRE      IPProtocol = 47
	IPProtocolESP      IPProtocol = 50
	IPProtocolAH       IPProtocol = 51
	IPProtocolICMPv6   IPProtocol = 58
	IPProtocolEIGRP    IPProtocol = 88
	IPProtocolOSPF     IPProtocol = 89
	IPProtocolEtherIP  IPProtocol = 97
	IPProtocolPIM      IPProtocol = 103
	IPProtocolIPComp   IPProtocol = 108
	IPProtocolVRRP     IPProtocol = 112
	IPProtocolL2TP     IPProtocol = 115
	IPProtocolSCTP     IPProtocol = 132
	IPProtocolUDPLite  IPProtocol = 136
	IPProtocolMPLSInIP IPProtocol = 137
	IPProtocolReserved IPProtocol = 255
)

var ipProtocolNames = map[IPProtocol]string{
	IPProtocolHOPOPT:   "HOPOPT",
	IPProtocolICMP:     "ICMP",
	IPProtocolIGMP:     "IGMP",
	IPProtocolGGP:      "GGP",
	IPProtocolIPIP:     "IPv4",
	IPProtocolST:       "ST",
	IPProtocolTCP:      "TCP",
	IPProtocolCBT:      "CBT",
	IPProtocolEGP:      "EGP",
	IPProtocolIGP:      "IGP",
	IPProtocolPUP:      "PUP",
	IPProtocolUDP:      "UDP",
	IPProtocolRDP:      "RDP",
	IPProtocolDCCP:     "DCCP",
	IPProtocolIPv6:     "IPv6",
	IPProtocolRSVP:     "RSVP",
	IPProtocolGRE:      "GRE",
	IPProtocolESP:      "ESP",
	IPProtocolAH:       "AH",
	IPProtocolICMPv6:   "IPv6-ICMP",
	IPProtocolEIGRP:    "EIGRP",
	IPProtocolOSPF:     "OSPFIGP",
	IPProtocolEtherIP:  "ETHERIP",
	IPProtocolPIM:      "PIM",
	IPProtocolIPComp:   "IPComp",
	IPProtocolVRRP:     "VRRP",
	IPProtocolL2TP:     "L2TP",
	IPProtocolSCTP:     "SCTP",
	IPProtocolUDPLite:  "UDPLite",
	IPProtocolMPLSInIP: "MPLS-in-IP",
	IPProtocolReserved: "Reserved",
}

// Name gets the IANA keyword of an IP protocol number
func (p IPProtocol) Name() (string, bool) {
	n, ok := ipProtocolNames[p]
	return n, ok
}

func (p IPProtocol) String() string {
	if n, ok := p.Name(); ok {
		return n
	}

	return fmt.Sprintf("%d", uint8(p))
}

// IPv4OptionNumber is the 5 bit number of an IPv4 option
type IPv4OptionNumber uint8

// IPv4 option numbers as listed in the IANA ip-parameters registry
const (
	IPv4OptionEOL    IPv4OptionNumber = 0
	IPv4OptionNOP    IPv4OptionNumber = 1
	IPv4OptionSEC    IPv4OptionNumber = 2
	IPv4OptionLSR    IPv4OptionNumber = 3
	IPv4OptionTS     IPv4OptionNumber = 4
	IPv4OptionESEC   IPv4OptionNumber = 5
	IPv4OptionCIPSO  IPv4OptionNumber = 6
	IPv4OptionRR     IPv4OptionNumber = 7
	IPv4OptionSID    IPv4OptionNumber = 8
	IPv4OptionSSR    IPv4OptionNumber = 9
	IPv4OptionZSU    IPv4OptionNumber = 10
	IPv4OptionMTUP   IPv4OptionNumber = 11
	IPv4OptionMTUR   IPv4OptionNumber = 12
	IPv4OptionFINN   IPv4OptionNumber = 13
	IPv4OptionVISA   IPv4OptionNumber = 14
	IPv4OptionENCODE IPv4OptionNumber = 15
	IPv4OptionIMITD  IPv4OptionNumber = 16
	IPv4OptionEIP    IPv4OptionNumber = 17
	IPv4OptionTR     IPv4OptionNumber = 18
	IPv4OptionADDEXT IPv4OptionNumber = 19
	IPv4OptionRTRALT IPv4OptionNumber = 20
	IPv4OptionSDB    IPv4OptionNumber = 21
	IPv4OptionDPS    IPv4OptionNumber = 23
	IPv4OptionUMP    IPv4OptionNumber = 24
	IPv4OptionQS     IPv4OptionNumber = 25
	IPv4OptionEXP    IPv4OptionNumber = 30
)

var ipv4OptionNames = map[IPv4OptionNumber]string{
	IPv4OptionEOL:    "EOL",
	IPv4OptionNOP:    "NOP",
	IPv4OptionSEC:    "SEC",
	IPv4OptionLSR:    "LSR",
	IPv4OptionTS:     "TS",
	IPv4OptionESEC:   "E-SEC",
	IPv4OptionCIPSO:  "CIPSO",
	IPv4OptionRR:     "RR",
	IPv4OptionSID:    "SID",
	IPv4OptionSSR:    "SSR",
	IPv4OptionZSU:    "ZSU",
	IPv4OptionMTUP:   "MTUP",
	IPv4OptionMTUR:   "MTUR",
	IPv4OptionFINN:   "FINN",
	IPv4OptionVISA:   "VISA",
	IPv4OptionENCODE: "ENCODE",
	IPv4OptionIMITD:  "IMITD",
	IPv4OptionEIP:    "EIP",
	IPv4OptionTR:     "TR",
	IPv4OptionADDEXT: "ADDEXT",
	IPv4OptionRTRALT: "RTRALT",
	IPv4OptionSDB:    "SDB",
	IPv4OptionDPS:    "DPS",
	IPv4OptionUMP:    "UMP",
	IPv4OptionQS:     "QS",
	IPv4OptionEXP:    "EXP",
}

func (n IPv4OptionNumber) String() string {
	if s, ok := ipv4OptionNames[n]; ok {
		return s
	}

	return fmt.Sprintf("opt(%d)", uint8(n))
}
