package dissect_test

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"net"
	"reflect"
	"sync"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	dissect "github.com/blockcast/go-dissect"
	"github.com/blockcast/go-dissect/layer"
)

// Captured Ethernet frames.
const (
	echoRequestFrame = "0050568a22800050568a0fe986dd6000000000403a40" +
		"20010500010000000000000000000021" +
		"20010500010000000000000000000025" +
		"8000c92a0e2000011ccc534f000000001e030f0000000000" +
		"101112131415161718191a1b1c1d1e1f202122232425262728292a2b2c2d2e2f3031323334353637"
	redirectFrame = "000c29231687000c2925cfa186dd6e00000000a03aff" +
		"fe80000000000000020c29fffe25cfa1" +
		"20010db8000100009977f39e80cb4ea6" +
		"8900c07e00000000fe80000000000000020c29fffefc2c3b20010db8000200000000000000000001" +
		"0201000c29fc2c3b040e0000000000006008b92f00403a3f20010db8000100009977f39e80cb4ea6" +
		"20010db80002000000000000000000018000e7431d850001726bf85c000000009121080000000000" +
		"101112131415161718191a1b1c1d1e1f202122232425262728292a2b2c2d2e2f3031323334353637"
	neighborSolicitationFrame = "3333ff0000250050568a0fe986dd6000000000203aff" +
		"20010500010000000000000000000021" +
		"ff0200000000000000000001ff000025" +
		"8700c66e00000000200105000100000000000000000000250101" +
		"0050568a0fe9"
	unsupportedFrame = "0050568a0fe90050568a228086dd6000000000203aff" +
		"20010500010000000000000000000025" +
		"20010500010000000000000000000021" +
		"100029db600000002001050001000000000000000000002502010050568a2280"
)

func frame(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	return b
}

func serialize(t *testing.T, ls ...gopacket.SerializableLayer) []byte {
	t.Helper()
	buf := gopacket.NewSerializeBuffer()
	if err := gopacket.SerializeLayers(buf, gopacket.SerializeOptions{FixLengths: true}, ls...); err != nil {
		t.Fatalf("Error serializing layers: %v", err)
	}
	return buf.Bytes()
}

func ethernet(typ layers.EthernetType) *layers.Ethernet {
	return &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0x00, 0x50, 0x56, 0x8a, 0x0f, 0xe9},
		DstMAC:       net.HardwareAddr{0x33, 0x33, 0x00, 0x00, 0x00, 0x01},
		EthernetType: typ,
	}
}

func ipv6Header(next layers.IPProtocol) *layers.IPv6 {
	return &layers.IPv6{
		Version:    6,
		NextHeader: next,
		HopLimit:   255,
		SrcIP:      net.ParseIP("fe80::1"),
		DstIP:      net.ParseIP("ff02::1"),
	}
}

func ipv6Frame(t *testing.T, next layers.IPProtocol, payload []byte) []byte {
	t.Helper()
	return serialize(t, ethernet(layers.EthernetTypeIPv6), ipv6Header(next), gopacket.Payload(payload))
}

func ipv4Frame(t *testing.T) []byte {
	t.Helper()
	ip4 := &layers.IPv4{
		Version:  4,
		IHL:      5,
		TTL:      64,
		Protocol: layers.IPProtocolICMPv4,
		SrcIP:    net.IP{10, 0, 0, 1},
		DstIP:    net.IP{10, 0, 0, 2},
	}
	return serialize(t, ethernet(layers.EthernetTypeIPv4), ip4, gopacket.Payload([]byte{8, 0, 0, 0, 0, 1, 0, 1}))
}

func TestFromBytesEchoRequest(t *testing.T) {
	p, err := dissect.FromBytes(frame(t, echoRequestFrame), dissect.EncapEthernet)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Ethernet == nil || p.IPv6 == nil {
		t.Fatalf("missing link or network layer: %+v", p)
	}
	if len(p.Layers) != 1 {
		t.Fatalf("got %d registry layers, want 1", len(p.Layers))
	}
	icmp, ok := p.ICMPv6()
	if !ok {
		t.Fatalf("no ICMPv6 layer")
	}
	want := &layer.EchoRequest{Echo: layer.Echo{Identifier: 3616, SequenceNumber: 1}}
	if !reflect.DeepEqual(icmp.Payload, want) {
		t.Errorf("got %+v, want %+v", icmp.Payload, want)
	}
	if len(p.Unprocessed) != 56 {
		t.Errorf("unprocessed %d bytes, want 56", len(p.Unprocessed))
	}
	if p.IPv6.SrcIP.String() != "2001:500:100::21" {
		t.Errorf("src %s", p.IPv6.SrcIP)
	}
}

func TestFromBytesJSON(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		want  map[string]interface{}
	}{
		{
			name:  "redirect",
			frame: redirectFrame,
			want: map[string]interface{}{
				"type":                float64(137),
				"code":                float64(0),
				"checksum":            "0xc07e",
				"target_address":      "fe80::20c:29ff:fefc:2c3b",
				"destination_address": "2001:db8:2::1",
			},
		},
		{
			name:  "neighbor solicitation",
			frame: neighborSolicitationFrame,
			want: map[string]interface{}{
				"type":           float64(135),
				"code":           float64(0),
				"checksum":       "0xc66e",
				"target_address": "2001:500:100::25",
			},
		},
		{
			name:  "unsupported",
			frame: unsupportedFrame,
			want: map[string]interface{}{
				"type":        float64(16),
				"code":        float64(0),
				"checksum":    "0x29db",
				"unsupported": "600000002001050001000000000000000000002502010050568a2280",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := dissect.FromBytes(frame(t, tt.frame), dissect.EncapEthernet)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			b, err := json.Marshal(p)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var got struct {
				NextHeader uint8                    `json:"next_header"`
				Layers     []map[string]interface{} `json:"layers"`
			}
			if err := json.Unmarshal(b, &got); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.NextHeader != layer.IPProtoICMPv6 {
				t.Errorf("next_header %d", got.NextHeader)
			}
			if len(got.Layers) != 1 {
				t.Fatalf("got %d layers, want 1: %s", len(got.Layers), b)
			}
			if !reflect.DeepEqual(got.Layers[0], tt.want) {
				t.Errorf("got %v, want %v", got.Layers[0], tt.want)
			}
		})
	}
}

func TestFromBytesRedirectLeavesOptions(t *testing.T) {
	p, err := dissect.FromBytes(frame(t, redirectFrame), dissect.EncapEthernet)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 160 byte IPv6 payload, 40 claimed by the redirect.
	if len(p.Unprocessed) != 120 {
		t.Errorf("unprocessed %d bytes, want 120", len(p.Unprocessed))
	}
}

func TestFromBytesUnsupportedClaimsAll(t *testing.T) {
	p, err := dissect.FromBytes(frame(t, unsupportedFrame), dissect.EncapEthernet)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Unprocessed) != 0 {
		t.Errorf("unexpected unprocessed bytes %x", p.Unprocessed)
	}
}

func TestFromBytesRawIPv6(t *testing.T) {
	data := serialize(t, ipv6Header(layers.IPProtocolICMPv6), gopacket.Payload([]byte{129, 0, 0, 0, 0, 9, 0, 10}))
	p, err := dissect.FromBytes(data, dissect.EncapIPv6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Ethernet != nil {
		t.Errorf("unexpected ethernet layer")
	}
	icmp, ok := p.ICMPv6()
	if !ok {
		t.Fatalf("no ICMPv6 layer")
	}
	want := &layer.EchoReply{Echo: layer.Echo{Identifier: 9, SequenceNumber: 10}}
	if !reflect.DeepEqual(icmp.Payload, want) {
		t.Errorf("got %+v, want %+v", icmp.Payload, want)
	}
}

// Hop-by-hop headers carrying a router alert option, next header ICMPv6.
var (
	routerAlertHopByHop = []byte{0x3a, 0x00, 0x05, 0x02, 0x00, 0x00, 0x01, 0x00}
	paddedHopByHop      = []byte{
		0x3a, 0x01, 0x05, 0x02, 0x00, 0x00, 0x01, 0x08,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	}
)

func hopByHopFrame(t *testing.T, hbh, icmp []byte) []byte {
	t.Helper()
	payload := append(append([]byte{}, hbh...), icmp...)
	return ipv6Frame(t, layers.IPProtocolIPv6HopByHop, payload)
}

func TestFromBytesHopByHop(t *testing.T) {
	tests := []struct {
		name string
		hbh  []byte
		icmp []byte
		typ  layer.ICMPv6Type
		want layer.ICMPv6Payload
	}{
		{
			name: "mld report behind router alert",
			hbh:  routerAlertHopByHop,
			icmp: []byte{0x8f, 0x00, 0xab, 0xcd, 0x00, 0x00, 0x00, 0x00},
			typ:  143,
			want: &layer.Unsupported{Remainder: []byte{0x00, 0x00, 0x00, 0x00}},
		},
		{
			name: "echo request behind 16 byte header",
			hbh:  paddedHopByHop,
			icmp: []byte{0x80, 0x00, 0x00, 0x00, 0x00, 0x07, 0x00, 0x02},
			typ:  layer.ICMPv6EchoRequest,
			want: &layer.EchoRequest{Echo: layer.Echo{Identifier: 7, SequenceNumber: 2}},
		},
	}
	for _, tt := range tests {
		p, err := dissect.FromBytes(hopByHopFrame(t, tt.hbh, tt.icmp), dissect.EncapEthernet)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.name, err)
			continue
		}
		if p.NextHeader != layers.IPProtocolICMPv6 {
			t.Errorf("%s: next header %v, want ICMPv6", tt.name, p.NextHeader)
		}
		icmp, ok := p.ICMPv6()
		if !ok {
			t.Errorf("%s: no ICMPv6 layer", tt.name)
			continue
		}
		if icmp.Type != tt.typ {
			t.Errorf("%s: type %d, want %d", tt.name, icmp.Type, tt.typ)
		}
		if !reflect.DeepEqual(icmp.Payload, tt.want) {
			t.Errorf("%s: got %+v, want %+v", tt.name, icmp.Payload, tt.want)
		}
		// the whole ICMPv6 message was consumed
		if len(p.Unprocessed) != 0 {
			t.Errorf("%s: unprocessed %x", tt.name, p.Unprocessed)
		}
	}
}

func TestFromBytesHopByHopTruncated(t *testing.T) {
	// header length 2 announces 24 bytes, only 16 follow the IPv6 header
	hbh := []byte{0x3a, 0x02, 0x01, 0x04, 0x00, 0x00, 0x00, 0x00}
	data := hopByHopFrame(t, hbh, []byte{0x80, 0x00, 0x00, 0x00, 0x00, 0x07, 0x00, 0x02})
	if _, err := dissect.FromBytes(data, dissect.EncapEthernet); err == nil {
		t.Errorf("expected an error for a truncated hop-by-hop header")
	}

	// hop-by-hop header fills the payload, nothing left for ICMPv6
	p, err := dissect.FromBytes(hopByHopFrame(t, paddedHopByHop, nil), dissect.EncapEthernet)
	var tooShort *layer.TooShortError
	if !errors.As(err, &tooShort) {
		t.Fatalf("expected TooShortError, got %v", err)
	}
	if tooShort.Required != 8 || tooShort.Available != 0 {
		t.Errorf("got required %d available %d", tooShort.Required, tooShort.Available)
	}
	if p == nil || p.NextHeader != layers.IPProtocolICMPv6 {
		t.Errorf("expected the partially decoded packet with the error, got %+v", p)
	}
}

func TestFromBytesUnregisteredNextHeader(t *testing.T) {
	payload := []byte{0x12, 0x34, 0x00, 0x35, 0x00, 0x08, 0x00, 0x00}
	p, err := dissect.FromBytes(ipv6Frame(t, layers.IPProtocolUDP, payload), dissect.EncapEthernet)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Layers) != 0 {
		t.Errorf("unexpected layers %v", p.Layers)
	}
	if !reflect.DeepEqual(p.Unprocessed, payload) {
		t.Errorf("unprocessed %x, want %x", p.Unprocessed, payload)
	}
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got map[string]interface{}
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["unprocessed"] != hex.EncodeToString(payload) {
		t.Errorf("unprocessed %v", got["unprocessed"])
	}
	if l, ok := got["layers"].([]interface{}); !ok || len(l) != 0 {
		t.Errorf("layers %v, want empty list", got["layers"])
	}
}

func TestFromBytesTooShort(t *testing.T) {
	data := ipv6Frame(t, layers.IPProtocolICMPv6, []byte{128, 0, 0, 0})
	p, err := dissect.FromBytes(data, dissect.EncapEthernet)
	var tooShort *layer.TooShortError
	if !errors.As(err, &tooShort) {
		t.Fatalf("expected TooShortError, got %v", err)
	}
	if tooShort.Required != 8 || tooShort.Available != 4 {
		t.Errorf("got required %d available %d", tooShort.Required, tooShort.Available)
	}
	if p == nil || p.IPv6 == nil {
		t.Errorf("expected the partially decoded packet with the error")
	}
}

func TestFromBytesNotIPv6(t *testing.T) {
	_, err := dissect.FromBytes(ipv4Frame(t), dissect.EncapEthernet)
	if !errors.Is(err, dissect.ErrNotIPv6) {
		t.Errorf("expected ErrNotIPv6, got %v", err)
	}
}

func TestFromBytesMalformedFrame(t *testing.T) {
	if _, err := dissect.FromBytes([]byte{1, 2, 3}, dissect.EncapEthernet); err == nil {
		t.Errorf("expected error for 3 byte frame")
	}
}

func TestFromBytesConcurrent(t *testing.T) {
	data := frame(t, redirectFrame)
	want, err := dissect.FromBytes(data, dissect.EncapEthernet)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantJSON, _ := json.Marshal(want)

	var wg sync.WaitGroup
	errs := make(chan string, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			buf := append([]byte(nil), data...)
			p, err := dissect.FromBytes(buf, dissect.EncapEthernet)
			if err != nil {
				errs <- err.Error()
				return
			}
			got, _ := json.Marshal(p)
			if string(got) != string(wantJSON) {
				errs <- string(got)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Errorf("concurrent decode differs: %s", e)
	}
}

func TestParseEncap(t *testing.T) {
	for s, want := range map[string]dissect.Encap{
		"ethernet": dissect.EncapEthernet,
		"eth":      dissect.EncapEthernet,
		"ipv6":     dissect.EncapIPv6,
		"raw":      dissect.EncapIPv6,
	} {
		got, err := dissect.ParseEncap(s)
		if err != nil || got != want {
			t.Errorf("ParseEncap(%q) = %v, %v", s, got, err)
		}
	}
	if _, err := dissect.ParseEncap("ppp"); err == nil {
		t.Errorf("expected error for ppp")
	}

	if e, err := dissect.EncapForLinkType(layers.LinkTypeEthernet); err != nil || e != dissect.EncapEthernet {
		t.Errorf("EncapForLinkType(ethernet) = %v, %v", e, err)
	}
	if e, err := dissect.EncapForLinkType(layers.LinkTypeRaw); err != nil || e != dissect.EncapIPv6 {
		t.Errorf("EncapForLinkType(raw) = %v, %v", e, err)
	}
	if _, err := dissect.EncapForLinkType(layers.LinkTypePPP); err == nil {
		t.Errorf("expected error for PPP")
	}
}
