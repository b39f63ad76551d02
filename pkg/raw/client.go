package raw

import (
	"context"
	"time"

	"github.com/rawlink-protocol/rawlink-go/pkg/capture"
	"github.com/rawlink-protocol/rawlink-go/pkg/log"
	"github.com/rawlink-protocol/rawlink-go/pkg/rpc"
	"github.com/rawlink-protocol/rawlink-go/pkg/transport"
	"github.com/rawlink-protocol/rawlink-go/pkg/wire"
)

// Client drives the radio's raw WiFi control surface over one link.
type Client struct {
	link transport.Link
	corr *rpc.Correlator
	caps *capture.Dispatcher
}

// Option configures a Client.
type Option func(*options)

type options struct {
	rpcOpts     []rpc.Option
	captureOpts []capture.Option
}

// WithCallTimeout sets the per-command response timeout.
func WithCallTimeout(d time.Duration) Option {
	return func(o *options) {
		o.rpcOpts = append(o.rpcOpts, rpc.WithTimeout(d))
	}
}

// WithStrictMatch makes tag mismatches in command responses fail the
// call instead of being logged and tolerated.
func WithStrictMatch() Option {
	return func(o *options) {
		o.rpcOpts = append(o.rpcOpts, rpc.WithStrictMatch())
	}
}

// WithLogger sets the event logger for command and capture activity.
func WithLogger(l log.Logger) Option {
	return func(o *options) {
		o.rpcOpts = append(o.rpcOpts, rpc.WithLogger(l))
		o.captureOpts = append(o.captureOpts, capture.WithLogger(l))
	}
}

// New creates a Client on link. The client registers handlers for
// command responses and capture events immediately.
func New(link transport.Link, opts ...Option) *Client {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &Client{
		link: link,
		corr: rpc.New(link, o.rpcOpts...),
		caps: capture.New(link, o.captureOpts...),
	}
}

// SetPromiscuous enables or disables promiscuous capture on the radio.
func (c *Client) SetPromiscuous(ctx context.Context, enable bool) error {
	payload := wire.EncodeSetPromiscuous(&wire.SetPromiscuous{Enable: enable})
	return c.call(ctx, wire.TagSetPromiscuous, payload)
}

// SetChannel tunes the radio to the given primary channel (1 to 14)
// with the given secondary channel position.
func (c *Client) SetChannel(ctx context.Context, primary uint8, secondary wire.SecondaryChannel) error {
	payload, err := wire.EncodeSetChannel(&wire.SetChannel{
		Primary:   primary,
		Secondary: secondary,
	})
	if err != nil {
		return err
	}
	return c.call(ctx, wire.TagSetChannel, payload)
}

// SetFilter sets the capture filter bitmask. Use wire.FilterAll to
// capture every frame class the radio supports.
func (c *Client) SetFilter(ctx context.Context, mask uint32) error {
	payload := wire.EncodeSetFilter(&wire.SetFilter{FilterMask: mask})
	return c.call(ctx, wire.TagSetFilter, payload)
}

// Inject80211 transmits a raw 802.11 frame on the given interface.
// When overwriteSeq is true the radio rewrites the sequence number.
func (c *Client) Inject80211(ctx context.Context, ifx wire.Interface, overwriteSeq bool, frame []byte) error {
	payload, err := wire.EncodeInject80211(&wire.Inject80211{
		Ifx:          ifx,
		OverwriteSeq: overwriteSeq,
		Data:         frame,
	})
	if err != nil {
		return err
	}
	return c.call(ctx, wire.TagInject80211, payload)
}

// Captures returns the capture dispatcher for subscribing to frames.
func (c *Client) Captures() *capture.Dispatcher {
	return c.caps
}

// Commands returns the underlying correlator, exposing its diagnostic
// counters.
func (c *Client) Commands() *rpc.Correlator {
	return c.corr
}

// Close detaches the capture handler. The link stays open.
func (c *Client) Close() error {
	c.caps.Close()
	return nil
}

func (c *Client) call(ctx context.Context, tag wire.Tag, payload []byte) error {
	status, err := c.corr.Call(ctx, tag, payload)
	if err != nil {
		return err
	}
	return rpc.ErrorFromStatus(tag, status)
}
