package layer

import "encoding/binary"

/*
0                   1                   2                   3
0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1

+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
|     Type      |     Code      |          Checksum             |
+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
|                             MTU                               |
+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
|                    As much of invoking packet                 |
+               as possible without the ICMPv6 packet           +
|               exceeding the minimum IPv6 MTU [IPv6]           |

	RFC4443 Section 3.2: Packet Too Big Message
*/

// PacketTooBig is the payload of type 2. The invoking packet that follows
// the MTU is not decoded.
type PacketTooBig struct {
	MTU uint32 `json:"mtu"`
}

func (*PacketTooBig) icmpv6Payload() {}

// Destination Unreachable (type 1) and Time Exceeded (type 3) carry an
// unused 32 bit word in place of the MTU and decode to Empty.

func decodePacketTooBig(data []byte) (ICMPv6Payload, int, error) {
	if err := need(data, ICMPv6HeaderLen); err != nil {
		return nil, 0, err
	}
	return &PacketTooBig{MTU: binary.BigEndian.Uint32(data[4:8])}, ICMPv6HeaderLen, nil
}
