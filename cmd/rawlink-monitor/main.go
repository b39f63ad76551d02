// Command rawlink-monitor captures WiFi frames through a RawLink radio
// coprocessor.
//
// It opens the radio link, enables promiscuous mode, applies channel and
// filter settings and prints one line per captured frame plus a periodic
// stats summary.
//
// Usage:
//
//	rawlink-monitor [flags]
//
// Flags:
//
//	-config string     YAML configuration file path
//	-port string       Serial port device (default "/dev/ttyUSB0")
//	-baud int          Serial baud rate (default 921600)
//	-channel int       Primary WiFi channel 1-14 (default 6)
//	-filter string     Comma-separated frame classes: mgmt,ctrl,data,misc,mpdu,ampdu,all (default "all")
//	-log string        CBOR protocol log file path
//	-stats duration    Stats summary interval (default 10s)
//	-interactive       Enable the interactive console
//	-debug             Print protocol events to stderr
//	-fake              Use an in-process fake radio instead of a serial port
//
// Examples:
//
//	# Capture management frames on channel 11
//	rawlink-monitor -port /dev/ttyUSB0 -channel 11 -filter mgmt
//
//	# Interactive session against the fake radio
//	rawlink-monitor -fake -interactive
//
// Interactive Commands:
//
//	channel <1-14> [above|below] - Tune the radio
//	filter <names>               - Set the capture filter
//	promisc on|off               - Toggle promiscuous mode
//	inject <hex>                 - Inject a raw 802.11 frame
//	stats                        - Show capture statistics
//	quit                         - Exit
package main

import (
	"context"
	"flag"
	"fmt"
	stdlog "log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rawlink-protocol/rawlink-go/cmd/rawlink-monitor/interactive"
	"github.com/rawlink-protocol/rawlink-go/pkg/connection"
	"github.com/rawlink-protocol/rawlink-go/pkg/log"
	"github.com/rawlink-protocol/rawlink-go/pkg/raw"
	"github.com/rawlink-protocol/rawlink-go/pkg/transport"
	"github.com/rawlink-protocol/rawlink-go/pkg/wire"
)

var config Config

func init() {
	flag.StringVar(&config.ConfigFile, "config", "", "YAML configuration file path")
	flag.StringVar(&config.Port, "port", "/dev/ttyUSB0", "Serial port device")
	flag.IntVar(&config.Baud, "baud", transport.DefaultBaud, "Serial baud rate")
	flag.IntVar(&config.Channel, "channel", 6, "Primary WiFi channel (1-14)")
	flag.StringVar(&config.Filter, "filter", "all", "Comma-separated frame classes to capture")
	flag.StringVar(&config.LogFile, "log", "", "CBOR protocol log file path")
	flag.DurationVar(&config.StatsInterval, "stats", 10*time.Second, "Stats summary interval")
	flag.BoolVar(&config.Interactive, "interactive", false, "Enable the interactive console")
	flag.BoolVar(&config.Debug, "debug", false, "Print protocol events to stderr")
	flag.BoolVar(&config.Fake, "fake", false, "Use an in-process fake radio")
}

func main() {
	flag.Parse()
	stdlog.SetFlags(stdlog.Ltime | stdlog.Lmicroseconds)

	if err := config.Load(); err != nil {
		stdlog.Fatalf("Config: %v", err)
	}

	mask, err := parseFilter(config.Filter)
	if err != nil {
		stdlog.Fatalf("Invalid filter: %v", err)
	}

	logger, closeLogger, err := setupLogger(config.LogFile, config.Debug)
	if err != nil {
		stdlog.Fatalf("Log file: %v", err)
	}
	defer closeLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	link, cleanup, err := openLink(ctx, logger)
	if err != nil {
		stdlog.Fatalf("Open link: %v", err)
	}
	defer cleanup()
	stdlog.Printf("Link up: %s", link.ID())

	client := raw.New(link, raw.WithLogger(logger))
	defer func() { _ = client.Close() }()

	if err := applyRadioConfig(ctx, client, mask); err != nil {
		stdlog.Fatalf("Radio setup: %v", err)
	}
	stdlog.Printf("Capturing on channel %d (filter: %s)", config.Channel, config.Filter)

	client.Captures().Subscribe(printFrame)

	go statsLoop(ctx, client)

	if config.Interactive {
		console, err := interactive.New(client)
		if err != nil {
			stdlog.Fatalf("Interactive console: %v", err)
		}
		// Route log output through readline so it does not mangle the prompt
		stdlog.SetOutput(console.Stdout())
		go console.Run(ctx, cancel)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		stdlog.Printf("Received signal: %v", sig)
	case <-ctx.Done():
	}

	stdlog.Println("Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := client.SetPromiscuous(shutdownCtx, false); err != nil {
		stdlog.Printf("Warning: failed to disable promiscuous mode: %v", err)
	}
	shutdownCancel()
	cancel()
}

// openLink dials the radio, or wires up the in-process fake.
func openLink(ctx context.Context, logger log.Logger) (*transport.StreamLink, func(), error) {
	if config.Fake {
		host, remote := transport.Pipe(transport.WithLogger(logger))
		radio := startFakeRadio(remote)
		return host, func() {
			radio.stop()
			_ = host.Close()
			_ = remote.Close()
		}, nil
	}

	dial := func(ctx context.Context) (*transport.StreamLink, error) {
		return transport.OpenSerial(transport.SerialConfig{
			Port: config.Port,
			Baud: config.Baud,
		}, transport.WithLogger(logger))
	}
	link, err := connection.OpenWithRetry(ctx, dial, connection.RetryConfig{
		MaxAttempts: 5,
		OnRetry: func(attempt int, err error) {
			stdlog.Printf("Dial attempt %d failed: %v", attempt, err)
		},
	})
	if err != nil {
		return nil, nil, err
	}
	return link, func() { _ = link.Close() }, nil
}

func applyRadioConfig(ctx context.Context, client *raw.Client, mask uint32) error {
	opCtx, opCancel := context.WithTimeout(ctx, 15*time.Second)
	defer opCancel()

	if err := client.SetChannel(opCtx, uint8(config.Channel), wire.SecondaryNone); err != nil {
		return fmt.Errorf("set channel: %w", err)
	}
	if err := client.SetFilter(opCtx, mask); err != nil {
		return fmt.Errorf("set filter: %w", err)
	}
	if err := client.SetPromiscuous(opCtx, true); err != nil {
		return fmt.Errorf("enable promiscuous: %w", err)
	}
	return nil
}

func setupLogger(path string, debug bool) (log.Logger, func(), error) {
	var loggers []log.Logger
	closer := func() {}

	if path != "" {
		fileLogger, err := log.NewFileLogger(path)
		if err != nil {
			return nil, nil, err
		}
		loggers = append(loggers, fileLogger)
		closer = func() { _ = fileLogger.Close() }
	}
	if debug {
		handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
		loggers = append(loggers, log.NewSlogAdapter(slog.New(handler)))
	}

	switch len(loggers) {
	case 0:
		return log.NoopLogger{}, closer, nil
	case 1:
		return loggers[0], closer, nil
	default:
		return log.NewMultiLogger(loggers...), closer, nil
	}
}

func printFrame(ev *wire.CaptureEvent) {
	stdlog.Printf("[%s] ch %2d rssi %4d dBm rate %3d len %4d",
		ev.Type, ev.Channel, ev.RSSI, ev.Rate, len(ev.Data))
}

func statsLoop(ctx context.Context, client *raw.Client) {
	if config.StatsInterval <= 0 {
		return
	}
	ticker := time.NewTicker(config.StatsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stdlog.Print(interactive.FormatStats(client))
		}
	}
}

func parseFilter(s string) (uint32, error) {
	var mask uint32
	for _, name := range strings.Split(s, ",") {
		name = strings.TrimSpace(strings.ToLower(name))
		if name == "" {
			continue
		}
		bit, ok := wire.FilterNames[name]
		if !ok {
			return 0, fmt.Errorf("unknown frame class %q", name)
		}
		mask |= bit
	}
	if mask == 0 {
		return 0, fmt.Errorf("empty filter")
	}
	return mask, nil
}
