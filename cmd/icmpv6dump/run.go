package main

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"github.com/sirupsen/logrus"

	dissect "github.com/blockcast/go-dissect"
	"github.com/blockcast/go-dissect/internal/config"
	"github.com/blockcast/go-dissect/internal/metrics"
)

var log = logrus.WithField("component", "icmpv6dump")

const pcapngMagic = 0x0a0d0d0a

type source interface {
	gopacket.PacketDataSource
	LinkType() layers.LinkType
}

// openCapture sniffs the file magic and returns a pcap or pcapng reader.
func openCapture(r io.Reader) (source, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(4)
	if err != nil {
		return nil, oops.In("capture").Wrapf(err, "reading capture header")
	}
	if binary.LittleEndian.Uint32(magic) == pcapngMagic {
		ng, err := pcapgo.NewNgReader(br, pcapgo.DefaultNgReaderOptions)
		if err != nil {
			return nil, oops.In("capture").Wrapf(err, "opening pcapng")
		}
		return ng, nil
	}
	pr, err := pcapgo.NewReader(br)
	if err != nil {
		return nil, oops.In("capture").Wrapf(err, "opening pcap")
	}
	return pr, nil
}

type record struct {
	Frame  uint64          `json:"frame"`
	Time   time.Time       `json:"time"`
	Packet *dissect.Packet `json:"packet,omitempty"`
	Error  string          `json:"error,omitempty"`
}

type output struct {
	w      io.Writer
	pretty bool
}

func (o *output) write(r dissect.Result, all bool) error {
	if !all {
		if r.Err != nil {
			return nil
		}
		if _, ok := r.Packet.ICMPv6(); !ok {
			return nil
		}
	}
	rec := record{Frame: r.Frame.Seq, Time: r.Frame.Info.Timestamp, Packet: r.Packet}
	if r.Err != nil {
		rec.Error = r.Err.Error()
	}
	enc := json.NewEncoder(o.w)
	if o.pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(rec)
}

// run dissects every frame of the capture in r and writes one JSON record per
// ICMPv6 frame to out.
func run(ctx context.Context, cfg *config.Config, r io.Reader, out *output) error {
	src, err := openCapture(r)
	if err != nil {
		return err
	}

	encap, err := dissect.EncapForLinkType(src.LinkType())
	if cfg.Capture.Encap != "" {
		encap, err = dissect.ParseEncap(cfg.Capture.Encap)
	}
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	d := &dissect.Dissector{
		Encap:   encap,
		Workers: cfg.Decoder.Workers,
		Metrics: metrics.New(reg),
	}
	if cfg.Capture.Filter {
		if d.Filter, err = dissect.NewFilter(encap); err != nil {
			return err
		}
	}

	log.WithFields(logrus.Fields{
		"link_type": src.LinkType().String(),
		"encap":     encap.String(),
		"workers":   d.Workers,
		"filter":    cfg.Capture.Filter,
	}).Info("dissecting capture")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	frames := make(chan dissect.Frame, cfg.Decoder.QueueSize)
	readErr := make(chan error, 1)
	go func() {
		defer close(frames)
		var seq uint64
		for {
			data, ci, err := src.ReadPacketData()
			if errors.Is(err, io.EOF) {
				readErr <- nil
				return
			}
			if err != nil {
				readErr <- oops.In("capture").With("frame", seq).Wrapf(err, "reading frame")
				return
			}
			select {
			case frames <- dissect.Frame{Seq: seq, Info: ci, Data: data}:
			case <-ctx.Done():
				readErr <- ctx.Err()
				return
			}
			seq++
		}
	}()

	for res := range d.Run(ctx, frames) {
		if res.Err != nil {
			log.WithError(res.Err).WithField("frame", res.Frame.Seq).Warn("frame not decoded")
		}
		if err := out.write(res, cfg.Output.All); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
	}

	stats := d.Stats()
	log.WithFields(logrus.Fields{
		"seen":     stats.Seen,
		"filtered": stats.Filtered,
		"decoded":  stats.Decoded,
		"failed":   stats.Failed,
	}).Info("capture done")

	if cfg.Metrics.Textfile != "" {
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile, reg); err != nil {
			return oops.In("metrics").With("path", cfg.Metrics.Textfile).Wrapf(err, "writing textfile")
		}
	}

	select {
	case err := <-readErr:
		return err
	default:
		return ctx.Err()
	}
}
