package main

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rawlink-protocol/rawlink-go/pkg/transport"
	"github.com/rawlink-protocol/rawlink-go/pkg/wire"
)

// fakeRadio simulates the coprocessor on the far end of an in-memory
// pipe: it acknowledges every command and, while promiscuous mode is on,
// pushes synthetic capture events.
type fakeRadio struct {
	link *transport.StreamLink

	promiscuous atomic.Bool
	channel     atomic.Uint32

	stopOnce sync.Once
	done     chan struct{}
}

func startFakeRadio(link *transport.StreamLink) *fakeRadio {
	r := &fakeRadio{
		link: link,
		done: make(chan struct{}),
	}
	r.channel.Store(1)

	for _, tag := range []wire.Tag{
		wire.TagSetPromiscuous,
		wire.TagSetChannel,
		wire.TagSetFilter,
		wire.TagInject80211,
		wire.TagOTABegin,
		wire.TagOTAWrite,
		wire.TagOTAEnd,
		wire.TagOTAActivate,
	} {
		link.Handle(tag, r.onCommand)
	}

	go r.captureLoop()
	return r
}

func (r *fakeRadio) stop() {
	r.stopOnce.Do(func() { close(r.done) })
}

func (r *fakeRadio) onCommand(tag wire.Tag, payload []byte) {
	status := wire.StatusOK

	switch tag {
	case wire.TagSetPromiscuous:
		if m, err := wire.DecodeSetPromiscuous(payload); err == nil {
			r.promiscuous.Store(m.Enable)
		} else {
			status = wire.StatusInvalidArg
		}
	case wire.TagSetChannel:
		if m, err := wire.DecodeSetChannel(payload); err == nil && m.Validate() == nil {
			r.channel.Store(uint32(m.Primary))
		} else {
			status = wire.StatusInvalidArg
		}
	}

	_ = r.link.Send(wire.TagCmdResponse, wire.EncodeCmdResponse(&wire.CmdResponse{
		EchoedTag: tag,
		Status:    status,
	}))
}

func (r *fakeRadio) captureLoop() {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	types := []wire.PacketType{wire.PacketMgmt, wire.PacketCtrl, wire.PacketData}

	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			if !r.promiscuous.Load() {
				continue
			}
			frame := make([]byte, 24+rand.Intn(200))
			rand.Read(frame)
			_ = r.link.Send(wire.TagCaptureEvent, wire.EncodeCaptureEvent(&wire.CaptureEvent{
				Type:    types[rand.Intn(len(types))],
				RSSI:    int8(-30 - rand.Intn(60)),
				Channel: uint8(r.channel.Load()),
				Rate:    uint8(rand.Intn(12)),
				Data:    frame,
			}))
		}
	}
}
