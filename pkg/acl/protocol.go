package acl

import (
	"fmt"
	"strconv"
)

// Protocol is an IP protocol held as its IANA number. The zero value is
// protocol 0 (hop-by-hop). Display prefers the canonical name when the
// number has one, so Protocol(6).String() == "tcp".
type Protocol uint8

// ParseProtocol resolves a protocol name or a literal number in 0-255.
func ParseProtocol(s string) (Protocol, error) {
	if n, ok := protocolNumbers[s]; ok {
		return Protocol(n), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: protocol %q", ErrUnknownMatchArg, s)
	}
	if n < 0 || n > 255 {
		return 0, fmt.Errorf("%w: protocol %d", ErrBadMatchArgRange, n)
	}
	return Protocol(n), nil
}

func (p Protocol) String() string {
	if name, ok := protocolNames[uint8(p)]; ok {
		return name
	}
	return strconv.Itoa(int(p))
}

// Value returns the IANA number.
func (p Protocol) Value() int { return int(p) }
