// qngcollect samples the QWQNG device at a fixed interval. Raw bytes go to a
// .bin file and a timestamp,ones line per sample goes to a .csv file, both
// named by the naming package so qngexcel can read them back.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/Thiagojm/medqrng_go/medqrng"
	"github.com/Thiagojm/medqrng_go/naming"
	"github.com/Thiagojm/medqrng_go/report"
)

func main() {
	bitsFlag := pflag.Int("bits", 2048, "number of bits per batch (required > 0)")
	intervalSec := pflag.Int("interval", 1, "interval between batches in seconds (required > 0)")
	outDir := pflag.String("outdir", "data", "output directory for files")
	verbose := pflag.BoolP("verbose", "v", false, "log driver calls")
	pflag.Parse()

	logger := newLogger(*verbose)
	defer func() { _ = logger.Sync() }()

	if err := run(logger, *bitsFlag, *intervalSec, *outDir); err != nil {
		logger.Error("collection stopped", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(logger *zap.Logger, bitCount, intervalSec int, outDir string) error {
	if bitCount <= 0 {
		return errors.New("--bits must be > 0")
	}
	if intervalSec <= 0 {
		return errors.New("--interval must be > 0")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating outdir: %w", err)
	}

	q, err := medqrng.Open(medqrng.WithLogger(logger))
	if err != nil {
		return err
	}
	defer q.Close()

	serial, err := q.DeviceID()
	if err != nil {
		return err
	}
	binPath, csvPath, err := naming.BuildBinCSVPaths(outDir, time.Now(), serial, bitCount, intervalSec)
	if err != nil {
		return fmt.Errorf("build filenames: %w", err)
	}

	binFile, err := os.OpenFile(binPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open bin file: %w", err)
	}
	defer func() { _ = binFile.Close() }()
	binBuf := bufio.NewWriter(binFile)
	defer binBuf.Flush()

	csvFile, err := os.OpenFile(csvPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open csv file: %w", err)
	}
	defer func() { _ = csvFile.Close() }()
	csvBuf := bufio.NewWriter(csvFile)
	defer csvBuf.Flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	interval := time.Duration(intervalSec) * time.Second
	logger.Info("collecting",
		zap.String("device", serial),
		zap.Int("bits", bitCount),
		zap.Duration("interval", interval),
		zap.String("bin", binPath),
		zap.String("csv", csvPath))

	sample := 0
	var writeErr error
	err = q.CollectBitsAtInterval(ctx, bitCount, interval, func(batch []byte) {
		if writeErr != nil {
			return
		}
		if _, err := binBuf.Write(batch); err != nil {
			writeErr = fmt.Errorf("write bin: %w", err)
			stop()
			return
		}
		_ = binBuf.Flush()

		ones := report.CountOnes(batch, bitCount)
		sample++
		ts := time.Now().Format(report.CSVTimeLayout)
		if _, err := fmt.Fprintf(csvBuf, "%s,%d\n", ts, ones); err != nil {
			writeErr = fmt.Errorf("write csv: %w", err)
			stop()
			return
		}
		_ = csvBuf.Flush()

		fmt.Printf("sample %d: ones=%d/%d at %s\n", sample, ones, bitCount, ts)
	})
	if writeErr != nil {
		return writeErr
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
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
