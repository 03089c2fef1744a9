package badge

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ternbach/badgelink/internal/badge/protocol"
)

type sessionState int

const (
	stateIdle sessionState = iota
	stateAwaitStartAck
	stateSendChunks
	stateAwaitCompleteAck
	stateSettle
	stateDone
	stateFailed
)

func (s sessionState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateAwaitStartAck:
		return "await-start-ack"
	case stateSendChunks:
		return "send-chunks"
	case stateAwaitCompleteAck:
		return "await-complete-ack"
	case stateSettle:
		return "settle"
	case stateDone:
		return "done"
	case stateFailed:
		return "failed"
	default:
		return fmt.Sprintf("sessionState(%d)", int(s))
	}
}

// session is one upload from announcement to applied settings. All
// packets are encrypted up front so the state machine only writes and
// waits. Sessions never retry; any unexpected reply, timeout, or write
// failure is terminal.
type session struct {
	b        *Badge
	total    int
	start    []byte   // announces the transfer and its size
	chunks   [][]byte // encrypted bitmap data
	complete []byte   // ends the transfer
	settle   [][]byte // mode, speed, brightness for the new image

	state sessionState
	next  int // next chunk to write
	err   error
}

func (b *Badge) newSession(payload []byte, settings DisplaySettings) (*session, error) {
	start, err := b.enc.DataStart(len(payload))
	if err != nil {
		return nil, err
	}
	raw := protocol.SplitPayload(payload)
	chunks := make([][]byte, len(raw))
	for i, c := range raw {
		if chunks[i], err = b.enc.EncodeChunk(c); err != nil {
			return nil, err
		}
	}
	complete, err := b.enc.DataComplete()
	if err != nil {
		return nil, err
	}
	mode, err := b.enc.Mode(settings.Mode)
	if err != nil {
		return nil, err
	}
	speed, err := b.enc.Speed(settings.Speed)
	if err != nil {
		return nil, err
	}
	light, err := b.enc.Light(settings.Brightness)
	if err != nil {
		return nil, err
	}
	return &session{
		b:        b,
		total:    len(payload),
		start:    start,
		chunks:   chunks,
		complete: complete,
		settle:   [][]byte{mode, speed, light},
	}, nil
}

// run drives the session to a terminal state. Stale notifications are
// discarded first so an old ack cannot satisfy this session.
func (s *session) run(ctx context.Context) error {
	s.b.drainNotifications()
	for {
		switch s.state {
		case stateIdle:
			s.announce()
		case stateAwaitStartAck:
			s.awaitAck(ctx, protocol.AckDataStart, stateSendChunks)
		case stateSendChunks:
			s.sendChunks(ctx)
		case stateAwaitCompleteAck:
			s.awaitAck(ctx, protocol.AckDataComplete, stateSettle)
		case stateSettle:
			s.applySettings()
		case stateDone:
			slog.Info("[BADGE] upload complete", "bytes", s.total, "chunks", len(s.chunks))
			return nil
		case stateFailed:
			slog.Warn("[BADGE] upload failed", "error", s.err)
			return s.err
		}
	}
}

func (s *session) fail(err error) {
	s.state = stateFailed
	s.err = err
}

func (s *session) announce() {
	if err := s.b.transport.WriteCommand(s.start); err != nil {
		s.fail(fmt.Errorf("badge: announce upload: %w", err))
		return
	}
	slog.Debug("[BADGE] upload announced", "bytes", s.total, "chunks", len(s.chunks))
	s.state = stateAwaitStartAck
}

func (s *session) awaitAck(ctx context.Context, want protocol.Ack, then sessionState) {
	resp, err := s.b.awaitResponse(ctx)
	if err != nil {
		s.fail(err)
		return
	}
	if resp.Ack != want {
		s.fail(fmt.Errorf("badge: waiting for %v: %w", want,
			&protocol.UnexpectedResponseError{Token: resp.Token}))
		return
	}
	s.state = then
}

// sendChunks streams the bitmap, pausing after every packet so the
// badge can keep up, then signals completion.
func (s *session) sendChunks(ctx context.Context) {
	for ; s.next < len(s.chunks); s.next++ {
		if err := s.b.transport.WriteImage(s.chunks[s.next]); err != nil {
			s.fail(fmt.Errorf("badge: write chunk %d of %d: %w", s.next+1, len(s.chunks), err))
			return
		}
		if !s.pause(ctx) {
			return
		}
	}
	if err := s.b.transport.WriteCommand(s.complete); err != nil {
		s.fail(fmt.Errorf("badge: finish upload: %w", err))
		return
	}
	s.state = stateAwaitCompleteAck
}

// pause sleeps the inter-chunk delay, honoring cancellation. A false
// return means the session has failed.
func (s *session) pause(ctx context.Context) bool {
	timer := time.NewTimer(s.b.opts.InterChunkDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		s.fail(fmt.Errorf("badge: upload: %w", ctx.Err()))
		return false
	case <-timer.C:
		return true
	}
}

func (s *session) applySettings() {
	for _, packet := range s.settle {
		if err := s.b.transport.WriteCommand(packet); err != nil {
			s.fail(fmt.Errorf("badge: apply display settings: %w", err))
			return
		}
	}
	s.state = stateDone
}
