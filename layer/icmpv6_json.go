package layer

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// icmpv6Header is the part of the JSON form shared by every message type.
// Variant fields are promoted next to it, never nested.
type icmpv6Header struct {
	Type     uint8  `json:"type"`
	Code     uint8  `json:"code"`
	Checksum string `json:"checksum"`
}

func lowerHexUint16(v uint16) string {
	return fmt.Sprintf("0x%04x", v)
}

// MarshalJSON renders the message as a flat object: type, code and checksum
// followed by the fields of the payload.
func (i *ICMPv6) MarshalJSON() ([]byte, error) {
	h := icmpv6Header{
		Type:     uint8(i.Type),
		Code:     i.Code,
		Checksum: lowerHexUint16(i.Checksum),
	}

	switch p := i.Payload.(type) {
	case nil, Empty:
		return json.Marshal(h)
	case *EchoRequest:
		return json.Marshal(struct {
			icmpv6Header
			Echo
		}{h, p.Echo})
	case *EchoReply:
		return json.Marshal(struct {
			icmpv6Header
			Echo
		}{h, p.Echo})
	case *PacketTooBig:
		return json.Marshal(struct {
			icmpv6Header
			*PacketTooBig
		}{h, p})
	case *RouterAdvertisement:
		return json.Marshal(struct {
			icmpv6Header
			*RouterAdvertisement
		}{h, p})
	case *NeighborSolicitation:
		return json.Marshal(struct {
			icmpv6Header
			*NeighborSolicitation
		}{h, p})
	case *NeighborAdvertisement:
		return json.Marshal(struct {
			icmpv6Header
			*NeighborAdvertisement
		}{h, p})
	case *Redirect:
		return json.Marshal(struct {
			icmpv6Header
			*Redirect
		}{h, p})
	case *Unsupported:
		return json.Marshal(struct {
			icmpv6Header
			Unsupported string `json:"unsupported,omitempty"`
		}{h, hex.EncodeToString(p.Remainder)})
	default:
		return nil, fmt.Errorf("unknown ICMPv6 payload %T", p)
	}
}
