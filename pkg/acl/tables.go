package acl

import "net/netip"

// This file is the single home for the vendor lookup tables. Both the
// parsers and the renderers import these; nothing else defines protocol,
// port, or ordering constants.

// protocolNames holds the canonical display name per protocol number.
var protocolNames = map[uint8]string{
	0:   "hop-by-hop",
	1:   "icmp",
	2:   "igmp",
	4:   "ipip",
	6:   "tcp",
	8:   "egp",
	9:   "igrp",
	17:  "udp",
	41:  "ipv6",
	44:  "fragment",
	46:  "rsvp",
	47:  "gre",
	50:  "esp",
	51:  "ah",
	58:  "icmp6",
	60:  "dstopts",
	88:  "eigrp",
	89:  "ospf",
	94:  "nos",
	103: "pim",
	112: "vrrp",
	132: "sctp",
}

// protocolNumbers resolves protocol names, including the per-vendor aliases
// (IOS says "ahp" and "ipinip" where JunOS says "ah" and "ipip").
var protocolNumbers = map[string]uint8{
	"ahp":    51,
	"icmpv6": 58,
	"ipinip": 4,
	"igrp":   9,
}

func init() {
	for num, name := range protocolNames {
		protocolNumbers[name] = num
	}
}

// portNumbers resolves the service names the dialects accept in port
// positions. Output is always numeric, so no reverse table exists.
var portNumbers = map[string]int{
	"afs":            1483,
	"bgp":            179,
	"biff":           512,
	"bootpc":         68,
	"bootps":         67,
	"chargen":        19,
	"cmd":            514,
	"cvspserver":     2401,
	"daytime":        13,
	"dhcp":           67,
	"discard":        9,
	"dnsix":          90,
	"domain":         53,
	"echo":           7,
	"eklogin":        2105,
	"ekshell":        2106,
	"exec":           512,
	"finger":         79,
	"ftp":            21,
	"ftp-data":       20,
	"gopher":         70,
	"hostname":       101,
	"http":           80,
	"https":          443,
	"ident":          113,
	"imap":           143,
	"irc":            194,
	"isakmp":         500,
	"kerberos-sec":   88,
	"klogin":         543,
	"kshell":         544,
	"ldap":           389,
	"ldp":            646,
	"login":          513,
	"lpd":            515,
	"mobile-ip":      434,
	"mobileip-agent": 434,
	"mobilip-mn":     435,
	"msdp":           639,
	"nameserver":     42,
	"netbios-dgm":    138,
	"netbios-ns":     137,
	"netbios-ssn":    139,
	"nfsd":           2049,
	"nntp":           119,
	"ntalk":          518,
	"ntp":            123,
	"pop2":           109,
	"pop3":           110,
	"pptp":           1723,
	"printer":        515,
	"radacct":        1813,
	"radius":         1812,
	"rip":            520,
	"rkinit":         2108,
	"smtp":           25,
	"snmp":           161,
	"snmp-trap":      162,
	"snmptrap":       162,
	"snpp":           444,
	"socks":          1080,
	"ssh":            22,
	"sunrpc":         111,
	"syslog":         514,
	"tacacs":         49,
	"tacacs-ds":      65,
	"talk":           517,
	"telnet":         23,
	"tftp":           69,
	"time":           37,
	"timed":          525,
	"uucp":           540,
	"who":            513,
	"whois":          43,
	"www":            80,
	"xdmcp":          177,
}

// icmpTypeNames resolves the JunOS icmp-type names.
var icmpTypeNames = map[string]int{
	"echo-reply":           0,
	"echo-request":         8,
	"info-reply":           16,
	"info-request":         15,
	"mask-reply":           18,
	"mask-request":         17,
	"parameter-problem":    12,
	"redirect":             5,
	"router-advertisement": 9,
	"router-solicit":       10,
	"source-quench":        4,
	"time-exceeded":        11,
	"timestamp":            13,
	"timestamp-reply":      14,
	"unreachable":          3,
}

// icmpCodeNames resolves the JunOS icmp-code names. Codes are only unique
// per type, so several names share a number; output is numeric.
var icmpCodeNames = map[string]int{
	"communication-prohibited-by-filtering": 13,
	"destination-host-prohibited":           10,
	"destination-host-unknown":              7,
	"destination-network-prohibited":        9,
	"destination-network-unknown":           6,
	"fragmentation-needed":                  4,
	"host-precedence-violation":             14,
	"host-unreachable":                      1,
	"host-unreachable-for-tos":              12,
	"ip-header-bad":                         0,
	"network-unreachable":                   0,
	"network-unreachable-for-tos":           11,
	"port-unreachable":                      3,
	"precedence-cutoff-in-effect":           15,
	"protocol-unreachable":                  2,
	"redirect-for-host":                     1,
	"redirect-for-network":                  0,
	"redirect-for-tos-and-host":             3,
	"redirect-for-tos-and-net":              2,
	"required-option-missing":               1,
	"source-host-isolated":                  8,
	"source-route-failed":                   5,
	"ttl-eq-zero-during-reassembly":         1,
	"ttl-eq-zero-during-transit":            0,
}

// icmpMessage is an IOS ICMP message name resolution: always a type, and
// for the more specific names a code as well.
type icmpMessage struct {
	Type    int
	Code    int
	HasCode bool
}

// iosICMPMessages resolves the classic IOS ICMP message keywords to their
// type or (type, code) pair.
var iosICMPMessages = map[string]icmpMessage{
	"administratively-prohibited": {Type: 3, Code: 13, HasCode: true},
	"alternate-address":           {Type: 6},
	"conversion-error":            {Type: 31},
	"dod-host-prohibited":         {Type: 3, Code: 10, HasCode: true},
	"dod-net-prohibited":          {Type: 3, Code: 9, HasCode: true},
	"echo":                        {Type: 8},
	"echo-reply":                  {Type: 0},
	"general-parameter-problem":   {Type: 12, Code: 0, HasCode: true},
	"host-isolated":               {Type: 3, Code: 8, HasCode: true},
	"host-precedence-unreachable": {Type: 3, Code: 14, HasCode: true},
	"host-redirect":               {Type: 5, Code: 1, HasCode: true},
	"host-tos-redirect":           {Type: 5, Code: 3, HasCode: true},
	"host-tos-unreachable":        {Type: 3, Code: 12, HasCode: true},
	"host-unknown":                {Type: 3, Code: 7, HasCode: true},
	"host-unreachable":            {Type: 3, Code: 1, HasCode: true},
	"information-reply":           {Type: 16},
	"information-request":         {Type: 15},
	"mask-reply":                  {Type: 18},
	"mask-request":                {Type: 17},
	"mobile-redirect":             {Type: 32},
	"net-redirect":                {Type: 5, Code: 0, HasCode: true},
	"net-tos-redirect":            {Type: 5, Code: 2, HasCode: true},
	"net-tos-unreachable":         {Type: 3, Code: 11, HasCode: true},
	"net-unreachable":             {Type: 3, Code: 0, HasCode: true},
	"network-unknown":             {Type: 3, Code: 6, HasCode: true},
	"no-room-for-option":          {Type: 12, Code: 2, HasCode: true},
	"option-missing":              {Type: 12, Code: 1, HasCode: true},
	"packet-too-big":              {Type: 3, Code: 4, HasCode: true},
	"parameter-problem":           {Type: 12},
	"port-unreachable":            {Type: 3, Code: 3, HasCode: true},
	"precedence-unreachable":      {Type: 3, Code: 15, HasCode: true},
	"protocol-unreachable":        {Type: 3, Code: 2, HasCode: true},
	"reassembly-timeout":          {Type: 11, Code: 1, HasCode: true},
	"redirect":                    {Type: 5},
	"router-advertisement":        {Type: 9},
	"router-solicitation":         {Type: 10},
	"source-quench":               {Type: 4},
	"source-route-failed":         {Type: 3, Code: 5, HasCode: true},
	"time-exceeded":               {Type: 11},
	"timestamp-reply":             {Type: 14},
	"timestamp-request":           {Type: 13},
	"traceroute":                  {Type: 30},
	"ttl-exceeded":                {Type: 11, Code: 0, HasCode: true},
	"unreachable":                 {Type: 3},
}

// dscpNames resolves the symbolic DSCP code points.
var dscpNames = map[string]int{
	"be":   0,
	"cs0":  0,
	"cs1":  8,
	"cs2":  16,
	"cs3":  24,
	"cs4":  32,
	"cs5":  40,
	"cs6":  48,
	"cs7":  56,
	"af11": 10,
	"af12": 12,
	"af13": 14,
	"af21": 18,
	"af22": 20,
	"af23": 22,
	"af31": 26,
	"af32": 28,
	"af33": 30,
	"af41": 34,
	"af42": 36,
	"af43": 38,
	"ef":   46,
}

// precedenceNames is the accepted precedence keyword set, spanning both the
// IOS and JunOS spellings. Precedence values are stored as the names given,
// not resolved to numbers.
var precedenceNames = map[string]int{
	"routine":          0,
	"priority":         1,
	"immediate":        2,
	"flash":            3,
	"flash-override":   4,
	"critical":         5,
	"critical-ecp":     5,
	"internet":         6,
	"internet-control": 6,
	"network":          7,
	"net-control":      7,
}

// ipOptionNames resolves the symbolic IP option names.
var ipOptionNames = map[string]int{
	"loose-source-route":  131,
	"record-route":        7,
	"router-alert":        148,
	"strict-source-route": 137,
	"timestamp":           68,
}

// tcpFlagNames is the accepted single-flag keyword set for tcp-flags
// expressions. Composite expressions like "(ack | rst)" are stored verbatim.
var tcpFlagNames = map[string]bool{
	"ack":    true,
	"fin":    true,
	"push":   true,
	"rst":    true,
	"syn":    true,
	"urgent": true,
}

// tcpFlagsEstablished is the flag expression the IOS "established" keyword
// and the JunOS "tcp-established" keyword stand for; tcpFlagsInitial is the
// "tcp-initial" expansion.
const (
	tcpFlagsEstablished = "(ack | rst)"
	tcpFlagsInitial     = "(syn & !ack)"
)

// tcpFlagSpecials maps the tcp-flags keyword shorthands to the expression
// they expand to. Both the JunOS match keywords and direct tcp-flags
// arguments resolve through it; the expansion is what gets stored.
var tcpFlagSpecials = map[string]string{
	"tcp-established": tcpFlagsEstablished,
	"tcp-initial":     tcpFlagsInitial,
}

// junosRejectReasons is the accepted argument set for "reject <reason>".
var junosRejectReasons = map[string]bool{
	"administratively-prohibited": true,
	"bad-host-tos":                true,
	"bad-network-tos":             true,
	"fragmentation-needed":        true,
	"host-prohibited":             true,
	"host-unknown":                true,
	"host-unreachable":            true,
	"network-prohibited":          true,
	"network-unknown":             true,
	"network-unreachable":         true,
	"port-unreachable":            true,
	"precedence-cutoff":           true,
	"precedence-violation":        true,
	"protocol-unreachable":        true,
	"source-host-isolated":        true,
	"source-route-failed":         true,
	"tcp-reset":                   true,
}

// junosMatchOrderList fixes the order match clauses render in: roughly the
// IP header layout with protocol pushed behind the addresses, the unsplit
// key of each family before its source/destination splits, and source
// before destination. Each key's except twin sorts immediately after it.
var junosMatchOrderList = []MatchKind{
	MatchPacketLength,
	MatchFragmentOffset,
	MatchFirstFragment,
	MatchIsFragment,
	MatchPrefixList,
	MatchAddress,
	MatchSourcePrefixList,
	MatchSourceAddress,
	MatchDestinationPrefixList,
	MatchDestinationAddress,
	MatchProtocol,
	MatchIPOptions,
	MatchTCPFlags,
	MatchPort,
	MatchSourcePort,
	MatchDestinationPort,
	MatchICMPCode,
	MatchICMPType,
	MatchDSCP,
	MatchPrecedence,
}

var junosMatchOrder = map[MatchKey]int{}

func init() {
	for i, kind := range junosMatchOrderList {
		junosMatchOrder[MatchKey{Kind: kind}] = i * 2
		junosMatchOrder[MatchKey{Kind: kind, Except: true}] = i*2 + 1
	}
}

// inverseMasks maps each of the 33 Cisco wildcard masks to its prefix
// length (0.0.0.0 is /32, 255.255.255.255 is /0).
var inverseMasks = map[netip.Addr]int{}

func init() {
	for bits := 0; bits <= 32; bits++ {
		inv := uint32(0xffffffff) >> uint(bits)
		addr := netip.AddrFrom4([4]byte{
			byte(inv >> 24), byte(inv >> 16), byte(inv >> 8), byte(inv),
		})
		inverseMasks[addr] = bits
	}
}

// inverseMaskFor returns the wildcard mask for a prefix length.
func inverseMaskFor(bits int) netip.Addr {
	inv := uint32(0xffffffff) >> uint(bits)
	return netip.AddrFrom4([4]byte{
		byte(inv >> 24), byte(inv >> 16), byte(inv >> 8), byte(inv),
	})
}
