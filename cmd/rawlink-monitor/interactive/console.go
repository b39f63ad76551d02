// Package interactive provides the interactive command-line console for
// rawlink-monitor.
package interactive

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/rawlink-protocol/rawlink-go/pkg/raw"
	"github.com/rawlink-protocol/rawlink-go/pkg/wire"
)

// commandTimeout bounds each radio command issued from the console.
const commandTimeout = 5 * time.Second

// Console handles interactive mode for rawlink-monitor.
type Console struct {
	client *raw.Client
	rl     *readline.Instance
}

// New creates a console over client.
func New(client *raw.Client) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "rawlink> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	return &Console{client: client, rl: rl}, nil
}

// Stdout returns a writer that coordinates with the readline input.
// Use this for log output to avoid interfering with the command prompt.
func (c *Console) Stdout() io.Writer {
	return c.rl.Stdout()
}

// Run starts the interactive command loop.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			c.printHelp()

		case "channel", "ch":
			c.cmdChannel(ctx, args)

		case "filter", "f":
			c.cmdFilter(ctx, args)

		case "promisc", "p":
			c.cmdPromisc(ctx, args)

		case "inject":
			c.cmdInject(ctx, args)

		case "stats", "s":
			fmt.Fprintln(c.rl.Stdout(), FormatStats(c.client))

		case "quit", "exit", "q":
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return

		default:
			fmt.Fprintf(c.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.rl.Stdout(), `
RawLink Monitor Commands:
  Radio Control:
    channel <1-14> [above|below] - Tune the radio (with optional secondary position)
    filter <names>               - Set capture filter (mgmt,ctrl,data,misc,mpdu,ampdu,all)
    promisc on|off               - Toggle promiscuous capture

  Injection:
    inject <hex> [ap] [keepseq]  - Inject a raw 802.11 frame (hex bytes)

  General:
    stats                        - Show capture statistics
    help                         - Show this help
    quit                         - Exit`)
}

// cmdChannel handles the channel command.
func (c *Console) cmdChannel(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: channel <1-14> [above|below]")
		return
	}

	primary, err := strconv.ParseUint(args[0], 10, 8)
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Invalid channel: %v\n", err)
		return
	}

	secondary := wire.SecondaryNone
	if len(args) >= 2 {
		switch strings.ToLower(args[1]) {
		case "above":
			secondary = wire.SecondaryAbove
		case "below":
			secondary = wire.SecondaryBelow
		default:
			fmt.Fprintf(c.rl.Stdout(), "Unknown secondary position: %s (use above or below)\n", args[1])
			return
		}
	}

	opCtx, opCancel := context.WithTimeout(ctx, commandTimeout)
	defer opCancel()
	if err := c.client.SetChannel(opCtx, uint8(primary), secondary); err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Set channel failed: %v\n", err)
		return
	}
	fmt.Fprintf(c.rl.Stdout(), "Channel set to %d (%s)\n", primary, secondary)
}

// cmdFilter handles the filter command.
func (c *Console) cmdFilter(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: filter <names>")
		fmt.Fprintln(c.rl.Stdout(), "  Example: filter mgmt,data")
		return
	}

	var mask uint32
	for _, name := range strings.Split(strings.ToLower(strings.Join(args, ",")), ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		bit, ok := wire.FilterNames[name]
		if !ok {
			fmt.Fprintf(c.rl.Stdout(), "Unknown frame class: %s\n", name)
			return
		}
		mask |= bit
	}
	if mask == 0 {
		fmt.Fprintln(c.rl.Stdout(), "Empty filter")
		return
	}

	opCtx, opCancel := context.WithTimeout(ctx, commandTimeout)
	defer opCancel()
	if err := c.client.SetFilter(opCtx, mask); err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Set filter failed: %v\n", err)
		return
	}
	fmt.Fprintf(c.rl.Stdout(), "Filter set to 0x%08X\n", mask)
}

// cmdPromisc handles the promisc command.
func (c *Console) cmdPromisc(ctx context.Context, args []string) {
	if len(args) < 1 || (args[0] != "on" && args[0] != "off") {
		fmt.Fprintln(c.rl.Stdout(), "Usage: promisc on|off")
		return
	}
	enable := args[0] == "on"

	opCtx, opCancel := context.WithTimeout(ctx, commandTimeout)
	defer opCancel()
	if err := c.client.SetPromiscuous(opCtx, enable); err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Set promiscuous failed: %v\n", err)
		return
	}
	fmt.Fprintf(c.rl.Stdout(), "Promiscuous mode %s\n", args[0])
}

// cmdInject handles the inject command.
func (c *Console) cmdInject(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: inject <hex> [ap] [keepseq]")
		fmt.Fprintln(c.rl.Stdout(), "  Example: inject 80000000ffffffffffff")
		return
	}

	frame, err := hex.DecodeString(args[0])
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Invalid hex frame: %v\n", err)
		return
	}

	ifx := wire.InterfaceSTA
	overwriteSeq := true
	for _, arg := range args[1:] {
		switch strings.ToLower(arg) {
		case "ap":
			ifx = wire.InterfaceAP
		case "keepseq":
			overwriteSeq = false
		default:
			fmt.Fprintf(c.rl.Stdout(), "Unknown option: %s\n", arg)
			return
		}
	}

	opCtx, opCancel := context.WithTimeout(ctx, commandTimeout)
	defer opCancel()
	if err := c.client.Inject80211(opCtx, ifx, overwriteSeq, frame); err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Inject failed: %v\n", err)
		return
	}
	fmt.Fprintf(c.rl.Stdout(), "Injected %d bytes on %s\n", len(frame), ifx)
}

// FormatStats renders capture and command counters for display.
func FormatStats(client *raw.Client) string {
	caps := client.Captures()
	corr := client.Commands()

	var b strings.Builder
	fmt.Fprintf(&b, "captured %d (mgmt %d, ctrl %d, data %d, misc %d), dropped %d",
		caps.Total(),
		caps.Count(wire.PacketMgmt),
		caps.Count(wire.PacketCtrl),
		caps.Count(wire.PacketData),
		caps.Count(wire.PacketMisc),
		caps.Dropped())
	if late := corr.LateResponses(); late > 0 {
		fmt.Fprintf(&b, ", late responses %d", late)
	}
	if malformed := corr.Malformed(); malformed > 0 {
		fmt.Fprintf(&b, ", malformed responses %d", malformed)
	}
	return b.String()
}
