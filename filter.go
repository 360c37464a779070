package dissect

import (
	"github.com/samber/oops"
	"golang.org/x/net/bpf"

	"github.com/blockcast/go-dissect/layer"
)

const (
	etherTypeOffset    = 12
	ethernetHeaderLen  = 14
	ipv6HeaderLen      = 40
	ipv6NextHeaderOff  = 6
	hopByHopNextHeader = 0
	filterAcceptLength = 0xffff
)

// Filter is a classic BPF program accepting IPv6 frames whose next header is
// ICMPv6, directly or behind a single hop-by-hop header. Frames with any
// other extension header before ICMPv6 are rejected.
type Filter struct {
	vm *bpf.VM
}

// NewFilter assembles the filter for frames framed with encap.
func NewFilter(encap Encap) (*Filter, error) {
	prog := icmpv6Program(encap)
	vm, err := bpf.NewVM(prog)
	if err != nil {
		return nil, oops.In("filter").With("encap", encap.String()).Wrapf(err, "building bpf vm")
	}
	return &Filter{vm: vm}, nil
}

func icmpv6Program(encap Encap) []bpf.Instruction {
	if encap == EncapIPv6 {
		return []bpf.Instruction{
			bpf.LoadAbsolute{Off: 0, Size: 1},
			bpf.ALUOpConstant{Op: bpf.ALUOpAnd, Val: 0xf0},
			bpf.JumpIf{Cond: bpf.JumpEqual, Val: 0x60, SkipFalse: 6},
			bpf.LoadAbsolute{Off: ipv6NextHeaderOff, Size: 1},
			bpf.JumpIf{Cond: bpf.JumpEqual, Val: uint32(layer.IPProtoICMPv6), SkipTrue: 3},
			bpf.JumpIf{Cond: bpf.JumpEqual, Val: hopByHopNextHeader, SkipFalse: 3},
			// next header of the hop-by-hop header
			bpf.LoadAbsolute{Off: ipv6HeaderLen, Size: 1},
			bpf.JumpIf{Cond: bpf.JumpEqual, Val: uint32(layer.IPProtoICMPv6), SkipFalse: 1},
			bpf.RetConstant{Val: filterAcceptLength},
			bpf.RetConstant{Val: 0},
		}
	}
	return []bpf.Instruction{
		bpf.LoadAbsolute{Off: etherTypeOffset, Size: 2},
		bpf.JumpIf{Cond: bpf.JumpEqual, Val: 0x86dd, SkipFalse: 6},
		bpf.LoadAbsolute{Off: ethernetHeaderLen + ipv6NextHeaderOff, Size: 1},
		bpf.JumpIf{Cond: bpf.JumpEqual, Val: uint32(layer.IPProtoICMPv6), SkipTrue: 3},
		bpf.JumpIf{Cond: bpf.JumpEqual, Val: hopByHopNextHeader, SkipFalse: 3},
		bpf.LoadAbsolute{Off: ethernetHeaderLen + ipv6HeaderLen, Size: 1},
		bpf.JumpIf{Cond: bpf.JumpEqual, Val: uint32(layer.IPProtoICMPv6), SkipFalse: 1},
		bpf.RetConstant{Val: filterAcceptLength},
		bpf.RetConstant{Val: 0},
	}
}

// Match reports whether frame passes the filter.
func (f *Filter) Match(frame []byte) bool {
	n, err := f.vm.Run(frame)
	if err != nil {
		log.WithError(err).Debug("bpf filter failed")
		return false
	}
	return n > 0
}
