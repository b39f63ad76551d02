// Command rawlink-flash transfers a firmware image to a RawLink radio
// coprocessor and activates it.
//
// The image is streamed in chunks over the serial link. By default the
// image file length is sent up front; with -scan the file is treated as
// a raw partition dump of unknown length and the transfer stops at the
// erased tail instead.
//
// Usage:
//
//	rawlink-flash -image firmware.bin [flags]
//
// Flags:
//
//	-image string     Firmware image file path (required)
//	-config string    YAML configuration file path
//	-port string      Serial port device (default "/dev/ttyUSB0")
//	-baud int         Serial baud rate (default 921600)
//	-scan             Treat the image as a raw partition dump of unknown length
//	-chunk int        Image bytes per write command (default 1400)
//	-timeout duration Per-command response timeout (default 10s)
//	-no-activate      Transfer the image but do not activate it
//	-log string       CBOR protocol log file path
//
// Examples:
//
//	# Flash a built image
//	rawlink-flash -port /dev/ttyUSB0 -image firmware.bin
//
//	# Replay a partition dump, stopping at the erased tail
//	rawlink-flash -image partition.dump -scan
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rawlink-protocol/rawlink-go/pkg/connection"
	"github.com/rawlink-protocol/rawlink-go/pkg/log"
	"github.com/rawlink-protocol/rawlink-go/pkg/ota"
	"github.com/rawlink-protocol/rawlink-go/pkg/rpc"
	"github.com/rawlink-protocol/rawlink-go/pkg/transport"
)

var (
	configFile string
	imagePath  string
	port       string
	baud       int
	scan       bool
	chunkSize  int
	cmdTimeout time.Duration
	noActivate bool
	logFile    string
)

func init() {
	flag.StringVar(&configFile, "config", "", "YAML configuration file path")
	flag.StringVar(&imagePath, "image", "", "Firmware image file path (required)")
	flag.StringVar(&port, "port", "/dev/ttyUSB0", "Serial port device")
	flag.IntVar(&baud, "baud", transport.DefaultBaud, "Serial baud rate")
	flag.BoolVar(&scan, "scan", false, "Treat the image as a raw partition dump of unknown length")
	flag.IntVar(&chunkSize, "chunk", ota.DefaultChunkSize, "Image bytes per write command")
	flag.DurationVar(&cmdTimeout, "timeout", 10*time.Second, "Per-command response timeout")
	flag.BoolVar(&noActivate, "no-activate", false, "Transfer the image but do not activate it")
	flag.StringVar(&logFile, "log", "", "CBOR protocol log file path")
}

func main() {
	flag.Parse()
	stdlog.SetFlags(stdlog.Ltime | stdlog.Lmicroseconds)

	if imagePath == "" {
		flag.Usage()
		os.Exit(2)
	}
	if err := loadConfig(configFile); err != nil {
		stdlog.Fatalf("Config: %v", err)
	}

	src, closeSource, total, err := openSource(imagePath, scan)
	if err != nil {
		stdlog.Fatalf("Image: %v", err)
	}
	defer closeSource()

	logger, closeLogger, err := setupLogger(logFile)
	if err != nil {
		stdlog.Fatalf("Log file: %v", err)
	}
	defer closeLogger()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dial := func(ctx context.Context) (*transport.StreamLink, error) {
		return transport.OpenSerial(transport.SerialConfig{
			Port: port,
			Baud: baud,
		}, transport.WithLogger(logger))
	}
	link, err := connection.OpenWithRetry(ctx, dial, connection.RetryConfig{
		MaxAttempts: 5,
		OnRetry: func(attempt int, err error) {
			stdlog.Printf("Dial attempt %d failed: %v", attempt, err)
		},
	})
	if err != nil {
		stdlog.Fatalf("Open link: %v", err)
	}
	defer func() { _ = link.Close() }()
	stdlog.Printf("Link up: %s", link.ID())

	corr := rpc.New(link, rpc.WithTimeout(cmdTimeout), rpc.WithLogger(logger))
	engine := ota.NewEngine(corr,
		ota.WithChunkSize(chunkSize),
		ota.WithLogger(logger),
		ota.WithProgress(newProgressPrinter(total)),
	)

	if total > 0 {
		stdlog.Printf("Transferring %s (%d bytes)", imagePath, total)
	} else {
		stdlog.Printf("Transferring %s (length unknown, stopping at erased tail)", imagePath)
	}

	start := time.Now()
	if err := engine.Run(ctx, src); err != nil {
		var stepErr *ota.StepError
		if errors.As(err, &stepErr) {
			stdlog.Fatalf("Transfer failed at %s (offset %d): %v", stepErr.Step, stepErr.Offset, err)
		}
		stdlog.Fatalf("Transfer failed: %v", err)
	}
	sess := engine.Session()
	stdlog.Printf("Transfer complete: %d bytes in %s", sess.Offset(), time.Since(start).Round(time.Millisecond))

	if noActivate {
		stdlog.Println("Skipping activation (-no-activate)")
		return
	}

	if err := engine.Activate(ctx); err != nil {
		// The image is stored on the device even when activation is
		// refused, so report it as a warning rather than a failure.
		stdlog.Printf("Warning: activation failed: %v", err)
		stdlog.Println("Image stored; activation can be retried")
		return
	}
	stdlog.Println("Image activated, device rebooting")
}

// openSource opens the image file as a transfer source. total is 0 when
// the image length is not sent up front.
func openSource(path string, scan bool) (ota.Source, func(), uint32, error) {
	if scan {
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, 0, err
		}
		info, err := f.Stat()
		if err != nil {
			_ = f.Close()
			return nil, nil, 0, err
		}
		src := ota.NewRegionSource(f, uint32(info.Size()))
		return src, func() { _ = f.Close() }, 0, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, 0, err
	}
	if len(data) == 0 {
		return nil, nil, 0, fmt.Errorf("image file is empty")
	}
	return ota.NewBlobSource(data), func() {}, uint32(len(data)), nil
}

func setupLogger(path string) (log.Logger, func(), error) {
	if path == "" {
		return log.NoopLogger{}, func() {}, nil
	}
	fileLogger, err := log.NewFileLogger(path)
	if err != nil {
		return nil, nil, err
	}
	return fileLogger, func() { _ = fileLogger.Close() }, nil
}

// newProgressPrinter returns a progress callback that prints a line per
// 10% of a known-length transfer, or one line per megabyte otherwise.
func newProgressPrinter(total uint32) ota.ProgressFunc {
	var lastMark uint32
	return func(p ota.Progress) {
		if total > 0 {
			pct := uint32(uint64(p.Offset) * 100 / uint64(total))
			if pct/10 > lastMark || p.Offset == total {
				lastMark = pct / 10
				stdlog.Printf("  %3d%% (%d/%d bytes)", pct, p.Offset, total)
			}
			return
		}
		if p.Offset/(1<<20) > lastMark {
			lastMark = p.Offset / (1 << 20)
			stdlog.Printf("  %d bytes sent", p.Offset)
		}
	}
}
