// qngcli reads a number of bits from the QWQNG device once, or repeatedly at a
// fixed interval, and prints them as hex.
package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/Thiagojm/medqrng_go/medqrng"
)

func main() {
	bits := pflag.Int("bits", 1024, "number of bits to read per batch")
	interval := pflag.Duration("interval", 0, "interval between reads (e.g. 2s). 0 for one-shot")
	verbose := pflag.BoolP("verbose", "v", false, "log driver calls")
	pflag.Parse()

	logger := newLogger(*verbose)
	defer func() { _ = logger.Sync() }()

	if err := run(logger, *bits, *interval); err != nil {
		logger.Error("read failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(logger *zap.Logger, bits int, interval time.Duration) error {
	q, err := medqrng.Open(medqrng.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("open device: %w", err)
	}
	defer q.Close()

	if interval == 0 {
		data, err := q.ReadBits(bits)
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		fmt.Printf("read %d bits (%d bytes)\n", bits, len(data))
		fmt.Printf("%s\n", hex.EncodeToString(data))
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	logger.Info("reading; press Ctrl+C to stop", zap.Int("bits", bits), zap.Duration("interval", interval))
	err = q.CollectBitsAtInterval(ctx, bits, interval, func(b []byte) {
		fmt.Printf("%s  %d bits  %s\n", time.Now().Format(time.RFC3339), bits, hex.EncodeToString(b))
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("collect: %w", err)
	}
	return nil
}

func newLogger(verbose bool) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
