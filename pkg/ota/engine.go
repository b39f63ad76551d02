package ota

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rawlink-protocol/rawlink-go/pkg/log"
	"github.com/rawlink-protocol/rawlink-go/pkg/wire"
)

// Caller issues one command and returns the remote's status.
// *rpc.Correlator satisfies it.
type Caller interface {
	Call(ctx context.Context, tag wire.Tag, payload []byte) (wire.Status, error)
}

// Engine drives the firmware transfer sequence over a command caller.
type Engine struct {
	caller Caller
	cfg    config

	mu      sync.Mutex
	session *Session
}

// NewEngine creates a transfer engine.
func NewEngine(caller Caller, opts ...Option) *Engine {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Engine{caller: caller, cfg: cfg}
}

// Session returns the most recent transfer session, or nil before the
// first Run.
func (e *Engine) Session() *Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session
}

// Run transfers the image from src: begin, write every chunk in order,
// end. It halts on the first failed step and returns a *StepError; the
// session is then failed and a new Run starts over from the beginning.
//
// When src reports an unknown length, the transfer is announced as
// open-ended and stops at the first fully erased chunk past the guard
// threshold.
func (e *Engine) Run(ctx context.Context, src Source) error {
	sess := newSession()
	e.mu.Lock()
	e.session = sess
	e.mu.Unlock()

	total := src.Size()
	if err := e.step(ctx, sess, StepBegin, wire.TagOTABegin,
		wire.EncodeOTABegin(&wire.OTABegin{ImageLen: total})); err != nil {
		return err
	}
	_ = sess.transition(StateBegun)
	e.logTransfer(sess, 0)

	scan := total == 0
	buf := make([]byte, e.cfg.chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			sess.fail()
			return &StepError{Step: StepWrite, Offset: sess.Offset(), Err: err}
		}

		n, rerr := io.ReadFull(src, buf)
		if n > 0 {
			chunk := buf[:n]
			if scan && sess.Offset() >= e.cfg.guard && allBytes(chunk, e.cfg.erasePattern) {
				break
			}

			payload, perr := wire.EncodeOTAWrite(&wire.OTAWrite{Data: chunk})
			if perr != nil {
				sess.fail()
				return &StepError{Step: StepWrite, Offset: sess.Offset(), Err: perr}
			}
			if err := e.step(ctx, sess, StepWrite, wire.TagOTAWrite, payload); err != nil {
				return err
			}
			if sess.State() == StateBegun {
				_ = sess.transition(StateWriting)
			}
			offset := sess.advance(n)
			e.logTransfer(sess, n)
			if e.cfg.progress != nil {
				e.cfg.progress(Progress{
					SessionID: sess.ID(),
					Offset:    offset,
					Total:     total,
					ChunkLen:  n,
				})
			}
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) || errors.Is(rerr, io.ErrUnexpectedEOF) {
				break
			}
			sess.fail()
			return &StepError{Step: StepWrite, Offset: sess.Offset(), Err: fmt.Errorf("read image: %w", rerr)}
		}
	}

	if err := e.step(ctx, sess, StepEnd, wire.TagOTAEnd, nil); err != nil {
		return err
	}
	_ = sess.transition(StateEnded)
	e.logTransfer(sess, 0)
	return nil
}

// Activate marks the transferred image as the boot image. It requires a
// session that Run completed. Activation failure leaves the session in
// its ended state: the image is stored on the remote and a later
// activation attempt may still succeed.
func (e *Engine) Activate(ctx context.Context) error {
	e.mu.Lock()
	sess := e.session
	e.mu.Unlock()

	if sess == nil || sess.State() != StateEnded {
		return &ActivateError{Err: fmt.Errorf("%w: no completed transfer", ErrInvalidTransition)}
	}

	status, err := e.caller.Call(ctx, wire.TagOTAActivate, nil)
	if err != nil {
		return &ActivateError{Err: err}
	}
	if !status.IsOK() {
		return &ActivateError{Status: status}
	}
	_ = sess.transition(StateActivated)
	e.logTransfer(sess, 0)
	return nil
}

func (e *Engine) step(ctx context.Context, sess *Session, step Step, tag wire.Tag, payload []byte) error {
	status, err := e.caller.Call(ctx, tag, payload)
	if err != nil {
		sess.fail()
		e.logTransfer(sess, 0)
		return &StepError{Step: step, Offset: sess.Offset(), Err: err}
	}
	if !status.IsOK() {
		sess.fail()
		e.logTransfer(sess, 0)
		return &StepError{Step: step, Offset: sess.Offset(), Status: status}
	}
	return nil
}

func (e *Engine) logTransfer(sess *Session, chunkLen int) {
	e.cfg.logger.Log(log.Event{
		Timestamp: time.Now(),
		Direction: log.DirectionOut,
		Layer:     log.LayerTransfer,
		Category:  log.CategoryState,
		Transfer: &log.TransferEvent{
			SessionID: sess.ID(),
			State:     sess.State().String(),
			Offset:    uint64(sess.Offset()),
			ChunkLen:  chunkLen,
		},
	})
}

func allBytes(b []byte, pattern byte) bool {
	for _, c := range b {
		if c != pattern {
			return false
		}
	}
	return true
}
