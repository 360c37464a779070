package dissect

import (
	"context"
	"errors"
	"sync"

	"github.com/google/gopacket"
	"go.uber.org/atomic"

	"github.com/blockcast/go-dissect/internal/metrics"
	"github.com/blockcast/go-dissect/layer"
)

// Frame is one captured frame queued for dissection.
type Frame struct {
	Seq  uint64
	Info gopacket.CaptureInfo
	Data []byte
}

// Result pairs a frame with its dissection. Packet may be set even when Err
// is, see FromBytes.
type Result struct {
	Frame  Frame
	Packet *Packet
	Err    error
}

type Stats struct {
	Seen     uint64
	Filtered uint64
	Decoded  uint64
	Failed   uint64
}

// Dissector decodes frames on a pool of goroutines. Every frame is decoded
// into fresh layer instances, so workers share nothing but the read-only
// registry.
type Dissector struct {
	Encap   Encap
	Workers int
	// Filter, when set, drops frames before they reach a worker.
	Filter  *Filter
	Metrics *metrics.Metrics

	seen     atomic.Uint64
	filtered atomic.Uint64
	decoded  atomic.Uint64
	failed   atomic.Uint64
}

type job struct {
	frame Frame
	done  chan Result
}

// Run dissects frames from in until it is closed or ctx is done. Results are
// delivered in input order; filtered frames produce no result. The returned
// channel is closed once every accepted frame has been reported.
func (d *Dissector) Run(ctx context.Context, in <-chan Frame) <-chan Result {
	workers := d.Workers
	if workers < 1 {
		workers = 1
	}
	work := make(chan job)
	order := make(chan job, workers*2)
	out := make(chan Result)

	go d.feed(ctx, in, work, order)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := range work {
				j.done <- d.dissect(j.frame)
			}
		}()
	}

	go func() {
		defer close(out)
		for j := range order {
			var r Result
			select {
			case r = <-j.done:
			case <-ctx.Done():
				return
			}
			select {
			case out <- r:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		log.WithField("stats", d.Stats()).Debug("dissector workers stopped")
	}()

	return out
}

func (d *Dissector) feed(ctx context.Context, in <-chan Frame, work, order chan<- job) {
	defer close(work)
	defer close(order)
	for {
		var f Frame
		var ok bool
		select {
		case f, ok = <-in:
			if !ok {
				return
			}
		case <-ctx.Done():
			return
		}

		d.seen.Inc()
		d.Metrics.ObserveFrame()
		if d.Filter != nil && !d.Filter.Match(f.Data) {
			d.filtered.Inc()
			d.Metrics.ObserveFiltered()
			continue
		}

		j := job{frame: f, done: make(chan Result, 1)}
		select {
		case order <- j:
		case <-ctx.Done():
			return
		}
		select {
		case work <- j:
		case <-ctx.Done():
			return
		}
	}
}

func (d *Dissector) dissect(f Frame) Result {
	p, err := FromBytes(f.Data, d.Encap)
	if err != nil {
		d.failed.Inc()
		d.Metrics.ObserveError(errorReason(err))
		return Result{Frame: f, Packet: p, Err: err}
	}
	d.decoded.Inc()
	for _, l := range p.Layers {
		d.Metrics.ObserveLayer(l.ShortName(), typeName(l))
		log.WithField("frame", f.Seq).Debug(l)
	}
	return Result{Frame: f, Packet: p}
}

// Stats returns a snapshot of the frame counters.
func (d *Dissector) Stats() Stats {
	return Stats{
		Seen:     d.seen.Load(),
		Filtered: d.filtered.Load(),
		Decoded:  d.decoded.Load(),
		Failed:   d.failed.Load(),
	}
}

func errorReason(err error) string {
	var tooShort *layer.TooShortError
	switch {
	case errors.As(err, &tooShort):
		return metrics.ReasonTooShort
	case errors.Is(err, ErrNotIPv6):
		return metrics.ReasonNotIPv6
	}
	return metrics.ReasonOther
}

func typeName(l layer.Layer) string {
	if t, ok := l.(interface{ TypeName() string }); ok {
		return t.TypeName()
	}
	return ""
}
