package ota

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rawlink-protocol/rawlink-go/pkg/wire"
)

type recordedCall struct {
	tag     wire.Tag
	payload []byte
}

// fakeCaller scripts the remote side of the transfer sequence.
type fakeCaller struct {
	mu       sync.Mutex
	calls    []recordedCall
	statuses map[wire.Tag]wire.Status

	// failWriteAt fails the Nth write (1-based) with failStatus.
	failWriteAt int
	failStatus  wire.Status
	writes      int
}

func newFakeCaller() *fakeCaller {
	return &fakeCaller{statuses: make(map[wire.Tag]wire.Status)}
}

func (f *fakeCaller) Call(ctx context.Context, tag wire.Tag, payload []byte) (wire.Status, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, recordedCall{tag: tag, payload: append([]byte(nil), payload...)})

	if tag == wire.TagOTAWrite {
		f.writes++
		if f.failWriteAt > 0 && f.writes == f.failWriteAt {
			return f.failStatus, nil
		}
	}
	if status, ok := f.statuses[tag]; ok {
		return status, nil
	}
	return wire.StatusOK, nil
}

func (f *fakeCaller) tags() []wire.Tag {
	f.mu.Lock()
	defer f.mu.Unlock()
	tags := make([]wire.Tag, len(f.calls))
	for i, c := range f.calls {
		tags[i] = c.tag
	}
	return tags
}

func patternImage(size int, b byte) []byte {
	return bytes.Repeat([]byte{b}, size)
}

func TestRunChunksWholeImage(t *testing.T) {
	caller := newFakeCaller()

	var reports []Progress
	e := NewEngine(caller, WithProgress(func(p Progress) {
		reports = append(reports, p)
	}))

	// 17600 bytes: 12 full chunks of 1400 plus a final 800-byte chunk
	image := patternImage(17600, 0xAB)
	require.NoError(t, e.Run(context.Background(), NewBlobSource(image)))

	tags := caller.tags()
	require.Len(t, tags, 14)
	assert.Equal(t, wire.TagOTABegin, tags[0])
	assert.Equal(t, wire.TagOTAEnd, tags[13])
	for _, tag := range tags[1:13] {
		assert.Equal(t, wire.TagOTAWrite, tag)
	}

	begin, err := wire.DecodeOTABegin(caller.calls[0].payload)
	require.NoError(t, err)
	assert.Equal(t, uint32(17600), begin.ImageLen)

	// Every chunk but the last is full size
	for i, c := range caller.calls[1:13] {
		w, err := wire.DecodeOTAWrite(c.payload)
		require.NoError(t, err)
		if i < 11 {
			assert.Len(t, w.Data, DefaultChunkSize)
		} else {
			assert.Len(t, w.Data, 800)
		}
	}

	require.Len(t, reports, 12)
	assert.Equal(t, uint32(17600), reports[11].Offset)
	assert.Equal(t, uint32(17600), reports[11].Total)

	assert.Equal(t, StateEnded, e.Session().State())
	assert.Equal(t, uint32(17600), e.Session().Offset())
}

func TestRunWriteFailureHalts(t *testing.T) {
	caller := newFakeCaller()
	caller.failWriteAt = 5
	caller.failStatus = wire.StatusNoMem

	e := NewEngine(caller)
	err := e.Run(context.Background(), NewBlobSource(patternImage(17600, 0xAB)))

	var serr *StepError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, StepWrite, serr.Step)
	assert.Equal(t, uint32(4*DefaultChunkSize), serr.Offset)
	assert.Equal(t, wire.StatusNoMem, serr.Status)

	// Exactly 5 writes went out and nothing after the failed one
	assert.Equal(t, 5, caller.writes)
	for _, tag := range caller.tags() {
		assert.NotEqual(t, wire.TagOTAEnd, tag)
	}
	assert.Equal(t, StateFailed, e.Session().State())
}

func TestRunBeginRejected(t *testing.T) {
	caller := newFakeCaller()
	caller.statuses[wire.TagOTABegin] = wire.StatusInvalidState

	e := NewEngine(caller)
	err := e.Run(context.Background(), NewBlobSource(patternImage(2800, 0xAB)))

	var serr *StepError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, StepBegin, serr.Step)
	assert.Equal(t, uint32(0), serr.Offset)
	assert.Equal(t, 0, caller.writes)
	assert.Equal(t, StateFailed, e.Session().State())
}

func TestRunStopsAtErasedTail(t *testing.T) {
	caller := newFakeCaller()
	e := NewEngine(caller)

	// A flash region dump: 8400 image bytes, erased to 28000
	region := append(patternImage(8400, 0xAB), patternImage(28000-8400, 0xFF)...)
	src := NewRegionSource(bytes.NewReader(region), 28000)
	require.NoError(t, e.Run(context.Background(), src))

	begin, err := wire.DecodeOTABegin(caller.calls[0].payload)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), begin.ImageLen, "unknown length announced as 0")

	assert.Equal(t, 6, caller.writes)
	assert.Equal(t, uint32(8400), e.Session().Offset())
	assert.Equal(t, StateEnded, e.Session().State())
}

func TestRunGuardKeepsEarlyErasedChunks(t *testing.T) {
	caller := newFakeCaller()
	e := NewEngine(caller)

	// An image that legitimately starts with two erased-looking chunks.
	// The guard keeps the scan from truncating it there.
	region := append(patternImage(2800, 0xFF), patternImage(5600, 0xAB)...)
	region = append(region, patternImage(14000, 0xFF)...)
	src := NewRegionSource(bytes.NewReader(region), uint32(len(region)))
	require.NoError(t, e.Run(context.Background(), src))

	assert.Equal(t, 6, caller.writes)
	assert.Equal(t, uint32(8400), e.Session().Offset())
}

func TestRunEmptyImage(t *testing.T) {
	caller := newFakeCaller()
	e := NewEngine(caller)

	require.NoError(t, e.Run(context.Background(), NewBlobSource(nil)))

	assert.Equal(t, []wire.Tag{wire.TagOTABegin, wire.TagOTAEnd}, caller.tags())
	assert.Equal(t, StateEnded, e.Session().State())
}

func TestActivate(t *testing.T) {
	caller := newFakeCaller()
	e := NewEngine(caller)

	require.NoError(t, e.Run(context.Background(), NewBlobSource(patternImage(1400, 0xAB))))
	require.NoError(t, e.Activate(context.Background()))

	assert.Equal(t, StateActivated, e.Session().State())
	tags := caller.tags()
	assert.Equal(t, wire.TagOTAActivate, tags[len(tags)-1])
}

func TestActivateWithoutTransfer(t *testing.T) {
	e := NewEngine(newFakeCaller())

	err := e.Activate(context.Background())
	var aerr *ActivateError
	require.ErrorAs(t, err, &aerr)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestActivateFailureKeepsImageStored(t *testing.T) {
	caller := newFakeCaller()
	e := NewEngine(caller)

	require.NoError(t, e.Run(context.Background(), NewBlobSource(patternImage(1400, 0xAB))))

	caller.statuses[wire.TagOTAActivate] = wire.StatusFail
	err := e.Activate(context.Background())

	var aerr *ActivateError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, wire.StatusFail, aerr.Status)
	assert.Equal(t, StateEnded, e.Session().State(), "failed activation must not fail the session")

	// A later attempt can still succeed
	delete(caller.statuses, wire.TagOTAActivate)
	require.NoError(t, e.Activate(context.Background()))
	assert.Equal(t, StateActivated, e.Session().State())
}

func TestRunCancelled(t *testing.T) {
	caller := newFakeCaller()
	e := NewEngine(caller)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := e.Run(ctx, NewBlobSource(patternImage(2800, 0xAB)))
	var serr *StepError
	require.ErrorAs(t, err, &serr)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, StateFailed, e.Session().State())
}
