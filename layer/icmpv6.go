package layer

import (
	"encoding/binary"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/ipv6"
)

/*
0                   1                   2                   3
0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1

+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
|     Type      |     Code      |          Checksum             |
+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
|                                                               |
+                         Message Body                          +
|                                                               |

	RFC4443 Section 2.1: Message General Format
*/

// IANA assigned protocol number for ICMPv6.
const IPProtoICMPv6 uint8 = 58

// ICMPv6HeaderLen is the smallest buffer the decoder accepts: the common
// header plus the 4 byte type-specific word every message carries.
const ICMPv6HeaderLen = 8

const icmpv6CommonLen = 4

// message types
type ICMPv6Type uint8

const (
	ICMPv6DestinationUnreachable ICMPv6Type = 1
	ICMPv6PacketTooBig           ICMPv6Type = 2
	ICMPv6TimeExceeded           ICMPv6Type = 3
	ICMPv6EchoRequest            ICMPv6Type = 128
	ICMPv6EchoReply              ICMPv6Type = 129
	ICMPv6RouterSolicitation     ICMPv6Type = 133
	ICMPv6RouterAdvertisement    ICMPv6Type = 134
	ICMPv6NeighborSolicitation   ICMPv6Type = 135
	ICMPv6NeighborAdvertisement  ICMPv6Type = 136
	ICMPv6Redirect               ICMPv6Type = 137
)

// ICMPv6Payload is the type-specific part of an ICMPv6 message. The set of
// implementations is closed: Empty, *EchoRequest, *EchoReply, *PacketTooBig,
// *RouterAdvertisement, *NeighborSolicitation, *NeighborAdvertisement,
// *Redirect and *Unsupported.
type ICMPv6Payload interface {
	icmpv6Payload()
}

// Empty is the payload of messages whose content is fully described by the
// type and code.
type Empty struct{}

func (Empty) icmpv6Payload() {}

// ICMPv6 is a decoded ICMPv6 message.
type ICMPv6 struct {
	Type     ICMPv6Type
	Code     uint8
	Checksum uint16
	Payload  ICMPv6Payload
}

// NewICMPv6 is the registry Creator for ICMPv6.
func NewICMPv6() Layer {
	return &ICMPv6{}
}

func (i *ICMPv6) Name() string      { return "ICMPV6" }
func (i *ICMPv6) ShortName() string { return "icmpv6" }

// DecodeBytes decodes data as one ICMPv6 message. ICMPv6 is a leaf, so next
// is always nil.
func (i *ICMPv6) DecodeBytes(data []byte) (Layer, int, error) {
	if len(data) < ICMPv6HeaderLen {
		err := newTooShort(i.Name(), ICMPv6HeaderLen, data)
		log.WithError(err).Debug("rejecting short ICMPv6 message")
		return nil, 0, err
	}

	typ := ICMPv6Type(data[0])
	payload, consumed, err := decodeICMPv6Payload(typ, data)
	if err != nil {
		log.WithFields(logrus.Fields{
			"type":      typ,
			"available": len(data),
		}).WithError(err).Debug("ICMPv6 body truncated")
		return nil, 0, err
	}

	*i = ICMPv6{
		Type:     typ,
		Code:     data[1],
		Checksum: binary.BigEndian.Uint16(data[2:4]),
		Payload:  payload,
	}
	return nil, consumed, nil
}

// decodeICMPv6Payload picks the body layout from the message type and returns
// the payload with the number of bytes consumed, common header included.
func decodeICMPv6Payload(t ICMPv6Type, data []byte) (ICMPv6Payload, int, error) {
	switch t {
	case ICMPv6DestinationUnreachable, ICMPv6TimeExceeded, ICMPv6RouterSolicitation:
		return Empty{}, ICMPv6HeaderLen, nil
	case ICMPv6PacketTooBig:
		return decodePacketTooBig(data)
	case ICMPv6EchoRequest:
		return decodeEchoRequest(data)
	case ICMPv6EchoReply:
		return decodeEchoReply(data)
	case ICMPv6RouterAdvertisement:
		return decodeRouterAdvertisement(data)
	case ICMPv6NeighborSolicitation:
		return decodeNeighborSolicitation(data)
	case ICMPv6NeighborAdvertisement:
		return decodeNeighborAdvertisement(data)
	case ICMPv6Redirect:
		return decodeRedirect(data)
	default:
		log.WithField("type", t).Debug("unsupported ICMPv6 type, keeping raw body")
		return decodeUnsupported(data)
	}
}

// need checks that data holds a fixed layout of n bytes.
func need(data []byte, n int) error {
	if len(data) < n {
		return newTooShort("ICMPV6", n, data)
	}
	return nil
}

// Supported reports whether t has a dedicated body layout.
func (t ICMPv6Type) Supported() bool {
	switch t {
	case ICMPv6DestinationUnreachable, ICMPv6PacketTooBig, ICMPv6TimeExceeded,
		ICMPv6EchoRequest, ICMPv6EchoReply, ICMPv6RouterSolicitation,
		ICMPv6RouterAdvertisement, ICMPv6NeighborSolicitation,
		ICMPv6NeighborAdvertisement, ICMPv6Redirect:
		return true
	}
	return false
}

// String returns the IANA name of the type, or "unsupported" for types
// without a dedicated layout.
func (t ICMPv6Type) String() string {
	if !t.Supported() {
		return "unsupported"
	}
	return ipv6.ICMPType(t).String()
}

// TypeName returns the name of the message type, see ICMPv6Type.String.
func (i *ICMPv6) TypeName() string {
	return i.Type.String()
}

func (i *ICMPv6) String() string {
	return fmt.Sprintf("ICMPv6: type=%d (%s), code=%d, checksum=0x%04x",
		uint8(i.Type), i.Type, i.Code, i.Checksum)
}
