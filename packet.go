// Package dissect walks captured frames layer by layer. Link and IPv6
// headers are decoded with gopacket; the IPv6 next header is handed to the
// decoder registered for it in package layer.
package dissect

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/blockcast/go-dissect/layer"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/samber/oops"
)

// Encap is the framing of the first byte of a captured frame.
type Encap int

const (
	EncapEthernet Encap = iota
	EncapIPv6
)

var ErrNotIPv6 = errors.New("frame does not carry IPv6")

func (e Encap) String() string {
	switch e {
	case EncapEthernet:
		return "ethernet"
	case EncapIPv6:
		return "ipv6"
	}
	return fmt.Sprintf("encap(%d)", int(e))
}

// ParseEncap maps a configuration string to an Encap.
func ParseEncap(s string) (Encap, error) {
	switch s {
	case "ethernet", "eth":
		return EncapEthernet, nil
	case "ipv6", "raw":
		return EncapIPv6, nil
	}
	return 0, fmt.Errorf("unknown encapsulation %q", s)
}

// EncapForLinkType maps a capture file link type to an Encap.
func EncapForLinkType(lt layers.LinkType) (Encap, error) {
	switch lt {
	case layers.LinkTypeEthernet:
		return EncapEthernet, nil
	case layers.LinkTypeRaw, layers.LinkTypeIPv6:
		return EncapIPv6, nil
	}
	return 0, fmt.Errorf("unsupported link type %s", lt)
}

func (e Encap) firstLayer() gopacket.LayerType {
	if e == EncapIPv6 {
		return layers.LayerTypeIPv6
	}
	return layers.LayerTypeEthernet
}

// Packet is a dissected frame.
type Packet struct {
	Ethernet   *layers.Ethernet
	IPv6       *layers.IPv6
	NextHeader layers.IPProtocol
	// Layers holds the registry decoded layers, outermost first.
	Layers []layer.Layer
	// Unprocessed aliases the bytes no layer claimed.
	Unprocessed []byte
}

// FromBytes dissects one frame. Decoded layers reference data, so the caller
// must not reuse the buffer while the Packet is in use. When a registry layer
// fails, the packet decoded so far is returned along with the error.
func FromBytes(data []byte, encap Encap) (*Packet, error) {
	if err := layer.RegisterDefaults(); err != nil {
		return nil, err
	}

	var (
		eth layers.Ethernet
		ip6 layers.IPv6
	)
	parser := gopacket.NewDecodingLayerParser(encap.firstLayer(), &eth, &ip6)
	decoded := make([]gopacket.LayerType, 0, 2)
	if err := parser.DecodeLayers(data, &decoded); err != nil {
		if _, ok := err.(gopacket.UnsupportedLayerType); !ok {
			return nil, oops.In("dissect").With("encap", encap.String()).Wrapf(err, "decoding frame")
		}
	}

	p := &Packet{}
	for _, lt := range decoded {
		switch lt {
		case layers.LayerTypeEthernet:
			p.Ethernet = &eth
		case layers.LayerTypeIPv6:
			p.IPv6 = &ip6
		}
	}
	if p.IPv6 == nil {
		return nil, ErrNotIPv6
	}

	// gopacket strips a hop-by-hop header from Payload itself.
	p.NextHeader = ip6.NextHeader
	payload := ip6.Payload
	if hbh := ip6.HopByHop; hbh != nil {
		p.NextHeader = hbh.NextHeader
	}

	create, ok := layer.LookupNextHeader(uint8(p.NextHeader))
	if !ok {
		log.WithField("next_header", p.NextHeader).Debug("no decoder registered")
		p.Unprocessed = payload
		return p, nil
	}

	for l := create(); l != nil; {
		next, n, err := l.DecodeBytes(payload)
		if err != nil {
			p.Unprocessed = payload
			return p, oops.In("dissect").With("layer", l.ShortName()).Wrapf(err, "decoding %s", l.Name())
		}
		p.Layers = append(p.Layers, l)
		payload = payload[n:]
		l = next
	}
	if len(payload) > 0 {
		p.Unprocessed = payload
	}
	return p, nil
}

// ICMPv6 returns the ICMPv6 layer of the packet, if any.
func (p *Packet) ICMPv6() (*layer.ICMPv6, bool) {
	for _, l := range p.Layers {
		if icmp, ok := l.(*layer.ICMPv6); ok {
			return icmp, true
		}
	}
	return nil, false
}

func (p *Packet) MarshalJSON() ([]byte, error) {
	out := struct {
		Src         string        `json:"src,omitempty"`
		Dst         string        `json:"dst,omitempty"`
		HopLimit    uint8         `json:"hop_limit"`
		NextHeader  uint8         `json:"next_header"`
		Layers      []layer.Layer `json:"layers"`
		Unprocessed string        `json:"unprocessed,omitempty"`
	}{
		NextHeader:  uint8(p.NextHeader),
		Layers:      p.Layers,
		Unprocessed: hex.EncodeToString(p.Unprocessed),
	}
	if out.Layers == nil {
		out.Layers = []layer.Layer{}
	}
	if p.IPv6 != nil {
		out.Src = p.IPv6.SrcIP.String()
		out.Dst = p.IPv6.DstIP.String()
		out.HopLimit = p.IPv6.HopLimit
	}
	return json.Marshal(out)
}
