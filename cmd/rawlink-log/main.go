// Command rawlink-log is a tool for viewing and analyzing RawLink protocol
// log files.
//
// Log files are created by rawlink-monitor and rawlink-flash with the -log
// flag.
//
// Usage:
//
//	rawlink-log <command> [flags] <file.rlog>
//
// Commands:
//
//	view     View log file in human-readable format
//	export   Export log file to JSONL format
//	filter   Filter log file and write to new file
//	stats    Show statistics about the log file
//
// Examples:
//
//	# View all events
//	rawlink-log view capture.rlog
//
//	# View only command-layer errors
//	rawlink-log view -layer command -category error capture.rlog
//
//	# Keep one link's events and save to a new file
//	rawlink-log filter -link ab12cd34 -o filtered.rlog capture.rlog
//
//	# Show statistics
//	rawlink-log stats capture.rlog
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rawlink-protocol/rawlink-go/pkg/log"
)

const usage = `rawlink-log - RawLink Protocol Log Analyzer

Usage:
  rawlink-log <command> [flags] <file.rlog>

Commands:
  view     View log file in human-readable format
  export   Export log file to JSONL format
  filter   Filter log file and write to new file
  stats    Show statistics about the log file

Use "rawlink-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "filter":
		runFilter(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}

// filterFlags registers the shared filter flags on fs and returns a
// builder that assembles the log.Filter after parsing.
func filterFlags(fs *flag.FlagSet) func() (log.Filter, error) {
	link := fs.String("link", "", "Filter by link ID")
	layer := fs.String("layer", "", "Filter by layer (transport, command, transfer)")
	direction := fs.String("direction", "", "Filter by direction (in, out)")
	category := fs.String("category", "", "Filter by category (message, state, error)")

	return func() (log.Filter, error) {
		filter := log.Filter{LinkID: *link}

		if *layer != "" {
			l, err := parseLayer(*layer)
			if err != nil {
				return filter, err
			}
			filter.Layer = &l
		}
		if *direction != "" {
			d, err := parseDirection(*direction)
			if err != nil {
				return filter, err
			}
			filter.Direction = &d
		}
		if *category != "" {
			c, err := parseCategory(*category)
			if err != nil {
				return filter, err
			}
			filter.Category = &c
		}
		return filter, nil
	}
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	buildFilter := filterFlags(fs)
	parseArgs(fs, args, "view", "View log file in human-readable format")

	filter, err := buildFilter()
	if err != nil {
		fatal(err)
	}

	reader, err := log.NewFilteredReader(fs.Arg(0), filter)
	if err != nil {
		fatal(err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			return
		}
		if err != nil {
			fatal(err)
		}
		fmt.Println(formatEvent(event))
	}
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	output := fs.String("o", "", "Output file (default: stdout)")
	buildFilter := filterFlags(fs)
	parseArgs(fs, args, "export", "Export log file to JSONL format")

	filter, err := buildFilter()
	if err != nil {
		fatal(err)
	}

	reader, err := log.NewFilteredReader(fs.Arg(0), filter)
	if err != nil {
		fatal(err)
	}
	defer reader.Close()

	out := os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			fatal(err)
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	for {
		event, err := reader.Next()
		if err == io.EOF {
			return
		}
		if err != nil {
			fatal(err)
		}
		if err := enc.Encode(event); err != nil {
			fatal(err)
		}
	}
}

func runFilter(args []string) {
	fs := flag.NewFlagSet("filter", flag.ExitOnError)
	output := fs.String("o", "", "Output file (required)")
	buildFilter := filterFlags(fs)
	parseArgs(fs, args, "filter", "Filter log file and write to new file")

	if *output == "" {
		fatal(fmt.Errorf("output file (-o) required"))
	}

	filter, err := buildFilter()
	if err != nil {
		fatal(err)
	}

	reader, err := log.NewFilteredReader(fs.Arg(0), filter)
	if err != nil {
		fatal(err)
	}
	defer reader.Close()

	writer, err := log.NewFileLogger(*output)
	if err != nil {
		fatal(err)
	}
	defer writer.Close()

	kept := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			fatal(err)
		}
		writer.Log(event)
		kept++
	}
	fmt.Printf("Wrote %d events to %s\n", kept, *output)
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	parseArgs(fs, args, "stats", "Show statistics about the log file")

	reader, err := log.NewReader(fs.Arg(0))
	if err != nil {
		fatal(err)
	}
	defer reader.Close()

	events, err := reader.ReadAll()
	if err != nil {
		fatal(err)
	}
	if len(events) == 0 {
		fmt.Println("No events")
		return
	}

	byLayer := make(map[log.Layer]int)
	byCategory := make(map[log.Category]int)
	links := make(map[string]bool)
	for _, ev := range events {
		byLayer[ev.Layer]++
		byCategory[ev.Category]++
		if ev.LinkID != "" {
			links[ev.LinkID] = true
		}
	}

	first := events[0].Timestamp
	last := events[len(events)-1].Timestamp
	fmt.Printf("Events:   %d\n", len(events))
	fmt.Printf("Links:    %d\n", len(links))
	fmt.Printf("Span:     %s (%s to %s)\n",
		last.Sub(first).Round(1e6), first.Format("15:04:05.000"), last.Format("15:04:05.000"))
	fmt.Println("By layer:")
	for _, l := range []log.Layer{log.LayerTransport, log.LayerCommand, log.LayerTransfer} {
		if byLayer[l] > 0 {
			fmt.Printf("  %-10s %d\n", l, byLayer[l])
		}
	}
	fmt.Println("By category:")
	for _, c := range []log.Category{log.CategoryMessage, log.CategoryState, log.CategoryError} {
		if byCategory[c] > 0 {
			fmt.Printf("  %-10s %d\n", c, byCategory[c])
		}
	}
}

// parseArgs parses flags and enforces the trailing log file argument.
func parseArgs(fs *flag.FlagSet, args []string, name, summary string) {
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `rawlink-log %s - %s

Usage:
  rawlink-log %s [flags] <file.rlog>

Flags:
`, name, summary, name)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}
}

func formatEvent(ev log.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %-8.8s %-3s %-9s %-7s",
		ev.Timestamp.Format("15:04:05.000000"),
		ev.LinkID, ev.Direction, ev.Layer, ev.Category)

	switch {
	case ev.Frame != nil:
		fmt.Fprintf(&b, " %s size=%d", ev.Frame.Tag, ev.Frame.Size)
		if ev.Frame.Truncated {
			b.WriteString(" (truncated)")
		}
	case ev.Command != nil:
		fmt.Fprintf(&b, " %s", ev.Command.Tag)
		if ev.Command.Status != nil {
			fmt.Fprintf(&b, " status=%s", ev.Command.Status)
		}
		if ev.Command.RTT != nil {
			fmt.Fprintf(&b, " rtt=%s", ev.Command.RTT.Round(1e3))
		}
		if ev.Command.EchoedTag != nil && *ev.Command.EchoedTag != ev.Command.Tag {
			fmt.Fprintf(&b, " echoed=%s", ev.Command.EchoedTag)
		}
	case ev.Transfer != nil:
		fmt.Fprintf(&b, " session=%-8.8s state=%s offset=%d",
			ev.Transfer.SessionID, ev.Transfer.State, ev.Transfer.Offset)
		if ev.Transfer.ChunkLen > 0 {
			fmt.Fprintf(&b, " chunk=%d", ev.Transfer.ChunkLen)
		}
	case ev.StateChange != nil:
		fmt.Fprintf(&b, " %s %s -> %s",
			ev.StateChange.Entity, ev.StateChange.OldState, ev.StateChange.NewState)
		if ev.StateChange.Reason != "" {
			fmt.Fprintf(&b, " (%s)", ev.StateChange.Reason)
		}
	case ev.Error != nil:
		fmt.Fprintf(&b, " %s", ev.Error.Message)
		if ev.Error.Context != "" {
			fmt.Fprintf(&b, " (%s)", ev.Error.Context)
		}
	}
	return b.String()
}

func parseLayer(s string) (log.Layer, error) {
	switch strings.ToLower(s) {
	case "transport":
		return log.LayerTransport, nil
	case "command":
		return log.LayerCommand, nil
	case "transfer":
		return log.LayerTransfer, nil
	default:
		return 0, fmt.Errorf("unknown layer %q (transport, command, transfer)", s)
	}
}

func parseDirection(s string) (log.Direction, error) {
	switch strings.ToLower(s) {
	case "in":
		return log.DirectionIn, nil
	case "out":
		return log.DirectionOut, nil
	default:
		return 0, fmt.Errorf("unknown direction %q (in, out)", s)
	}
}

func parseCategory(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "message":
		return log.CategoryMessage, nil
	case "state":
		return log.CategoryState, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("unknown category %q (message, state, error)", s)
	}
}
