package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/blockcast/go-dissect/internal/config"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	input := flag.String("r", "-", "pcap or pcapng file to read, - for stdin")
	encap := flag.String("encap", "", "Frame encapsulation (ethernet, ipv6), overrides the capture link type")
	workers := flag.Int("workers", 0, "Number of decoding workers")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
			os.Exit(1)
		}
	}
	if *encap != "" {
		cfg.Capture.Encap = *encap
	}
	if *workers > 0 {
		cfg.Decoder.Workers = *workers
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	if err := initLogger(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	in := os.Stdin
	if *input != "-" {
		f, err := os.Open(*input)
		if err != nil {
			logrus.WithError(err).WithField("file", *input).Fatal("cannot open capture")
		}
		defer f.Close()
		in = f
	}

	out := &output{w: os.Stdout, pretty: wantPretty(cfg.Output.Pretty, os.Stdout)}
	if err := run(ctx, cfg, in, out); err != nil {
		logrus.WithError(err).Error("icmpv6dump failed")
		stop()
		os.Exit(1)
	}
}

func initLogger(cfg config.LoggingConfig) error {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return err
	}
	logrus.SetLevel(level)
	logrus.SetOutput(os.Stderr)
	if cfg.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}

func wantPretty(mode string, f *os.File) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	return isTerminal(int(f.Fd()))
}
