package layer

import (
	"net/netip"
)

// IPv6Address is a raw 16 byte address taken off the wire. Any bit pattern
// is accepted.
type IPv6Address [16]byte

func addressAt(data []byte, off int) IPv6Address {
	var a IPv6Address
	copy(a[:], data[off:off+16])
	return a
}

// Addr converts a to a netip.Addr.
func (a IPv6Address) Addr() netip.Addr {
	return netip.AddrFrom16(a)
}

// String returns the RFC 5952 text form, e.g. "2001:db8:2::1".
func (a IPv6Address) String() string {
	return a.Addr().String()
}

func (a IPv6Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}
