// Package badge drives an encrypted BLE LED name badge.
//
// Settings commands (power, mode, speed, brightness) are single
// fire-and-forget packets. Bitmap uploads run a handshake: the host
// announces the transfer size, waits for the badge to acknowledge,
// streams the data in encrypted chunks, and signals completion. The
// badge acknowledges both the announcement and the completion over its
// notify characteristic.
package badge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/ternbach/badgelink/internal/badge/crypto"
	"github.com/ternbach/badgelink/internal/badge/protocol"
	"github.com/ternbach/badgelink/internal/font"
)

var (
	// ErrBusy means another upload or query is already in flight.
	ErrBusy = errors.New("badge: another operation is in progress")
	// ErrTimeout means the badge did not reply in time.
	ErrTimeout = errors.New("badge: timed out waiting for badge")
	// ErrClosed means the transport shut down mid-operation.
	ErrClosed = errors.New("badge: transport closed")
)

// Transport moves encrypted packets between host and badge. The badge
// exposes two write targets: a command characteristic for control
// packets and a dedicated one for image data.
type Transport interface {
	// WriteCommand sends one packet over the command characteristic.
	WriteCommand(packet []byte) error
	// WriteImage sends one packet over the image upload characteristic.
	WriteImage(packet []byte) error
	// Notifications returns the stream of raw badge replies. The channel
	// closes when the transport shuts down.
	Notifications() <-chan []byte
}

// Options configures badge behavior.
type Options struct {
	Key             []byte        // AES-128 key, defaults to protocol.DefaultKey
	AckTimeout      time.Duration // max wait for an upload acknowledgment
	InterChunkDelay time.Duration // pause after each image packet
	Font            *font.Font    // glyphs used by DisplayText
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		Key:             protocol.DefaultKey,
		AckTimeout:      5 * time.Second,
		InterChunkDelay: 10 * time.Millisecond,
		Font:            font.Builtin(),
	}
}

// DisplaySettings are applied once an upload completes, in the order
// mode, speed, brightness.
type DisplaySettings struct {
	Mode       protocol.Mode
	Speed      uint8
	Brightness uint8
}

// DefaultDisplaySettings returns the usual marquee: scroll left at
// moderate speed and brightness.
func DefaultDisplaySettings() DisplaySettings {
	return DisplaySettings{
		Mode:       protocol.ModeScrollLeft,
		Speed:      50,
		Brightness: 128,
	}
}

// Badge is a connected LED name badge. Fire-and-forget setting commands
// may be issued at any time; uploads and queries are single-flight.
type Badge struct {
	transport Transport
	enc       *protocol.Encoder
	dec       *protocol.Decoder
	opts      Options

	busy atomic.Bool
}

// New wraps a transport in a badge controller. Zero option fields take
// their defaults.
func New(transport Transport, opts Options) (*Badge, error) {
	if opts.Key == nil {
		opts.Key = protocol.DefaultKey
	}
	if opts.AckTimeout <= 0 {
		opts.AckTimeout = 5 * time.Second
	}
	if opts.InterChunkDelay <= 0 {
		opts.InterChunkDelay = 10 * time.Millisecond
	}
	if opts.Font == nil {
		opts.Font = font.Builtin()
	}
	cipher, err := crypto.New(opts.Key)
	if err != nil {
		return nil, err
	}
	return &Badge{
		transport: transport,
		enc:       protocol.NewEncoder(cipher),
		dec:       protocol.NewDecoder(cipher),
		opts:      opts,
	}, nil
}

// PowerOn lights the display.
func (b *Badge) PowerOn() error {
	packet, err := b.enc.LEDOn()
	if err != nil {
		return err
	}
	return b.writeCommand("power on", packet)
}

// PowerOff blanks the display without losing stored images.
func (b *Badge) PowerOff() error {
	packet, err := b.enc.LEDOff()
	if err != nil {
		return err
	}
	return b.writeCommand("power off", packet)
}

// SetMode selects how the badge animates its current image.
func (b *Badge) SetMode(mode protocol.Mode) error {
	packet, err := b.enc.Mode(mode)
	if err != nil {
		return err
	}
	return b.writeCommand("set mode", packet)
}

// SetSpeed sets the scroll or animation speed.
func (b *Badge) SetSpeed(speed uint8) error {
	packet, err := b.enc.Speed(speed)
	if err != nil {
		return err
	}
	return b.writeCommand("set speed", packet)
}

// SetBrightness sets the LED brightness.
func (b *Badge) SetBrightness(level uint8) error {
	packet, err := b.enc.Light(level)
	if err != nil {
		return err
	}
	return b.writeCommand("set brightness", packet)
}

// ShowImage displays the stored image in the given slot.
func (b *Badge) ShowImage(id uint8) error {
	packet, err := b.enc.ShowImage(id)
	if err != nil {
		return err
	}
	return b.writeCommand("show image", packet)
}

// PlayAnimation starts one of the badge's built-in animations.
func (b *Badge) PlayAnimation(id uint8) error {
	packet, err := b.enc.Animation(id)
	if err != nil {
		return err
	}
	return b.writeCommand("play animation", packet)
}

// PlaySequence cycles through the given stored images in order.
func (b *Badge) PlaySequence(ids ...uint8) error {
	packet, err := b.enc.Play(ids)
	if err != nil {
		return err
	}
	return b.writeCommand("play sequence", packet)
}

// DeleteImages removes the given stored images from the badge.
func (b *Badge) DeleteImages(ids ...uint8) error {
	packet, err := b.enc.Delete(ids)
	if err != nil {
		return err
	}
	return b.writeCommand("delete images", packet)
}

// CheckImages asks the badge about its stored images and returns the
// reply token verbatim.
func (b *Badge) CheckImages(ctx context.Context) (string, error) {
	if !b.busy.CompareAndSwap(false, true) {
		return "", ErrBusy
	}
	defer b.busy.Store(false)

	packet, err := b.enc.Check()
	if err != nil {
		return "", err
	}
	b.drainNotifications()
	if err := b.writeCommand("check images", packet); err != nil {
		return "", err
	}
	resp, err := b.awaitResponse(ctx)
	if err != nil {
		return "", err
	}
	return resp.Token, nil
}

// UploadAndDisplay transfers a bitmap payload to the badge and applies
// the display settings once the badge acknowledges it. Only one upload
// or query may run at a time; concurrent calls fail with ErrBusy.
//
// Cancellation is honored between packets and while waiting for
// acknowledgments. A packet already written is never revoked, so a
// canceled upload may leave the badge holding a partial image.
func (b *Badge) UploadAndDisplay(ctx context.Context, payload []byte, settings DisplaySettings) error {
	if !b.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer b.busy.Store(false)

	sess, err := b.newSession(payload, settings)
	if err != nil {
		return err
	}
	return sess.run(ctx)
}

// DisplayText renders text with the configured font and uploads it.
func (b *Badge) DisplayText(ctx context.Context, text string, settings DisplaySettings) error {
	segs, err := b.opts.Font.RenderText(text)
	if err != nil {
		return err
	}
	return b.UploadAndDisplay(ctx, font.Payload(segs), settings)
}

func (b *Badge) writeCommand(op string, packet []byte) error {
	if err := b.transport.WriteCommand(packet); err != nil {
		return fmt.Errorf("badge: %s: %w", op, err)
	}
	return nil
}

// awaitResponse blocks for the next badge reply, bounded by the ack
// timeout and the context.
func (b *Badge) awaitResponse(ctx context.Context) (protocol.Response, error) {
	timer := time.NewTimer(b.opts.AckTimeout)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return protocol.Response{}, fmt.Errorf("badge: await response: %w", ctx.Err())
	case <-timer.C:
		return protocol.Response{}, ErrTimeout
	case frame, ok := <-b.transport.Notifications():
		if !ok {
			return protocol.Response{}, ErrClosed
		}
		resp, err := b.dec.Decode(frame)
		if err != nil {
			return protocol.Response{}, fmt.Errorf("badge: await response: %w", err)
		}
		return resp, nil
	}
}

// drainNotifications discards replies left over from earlier traffic so
// they cannot satisfy the next wait.
func (b *Badge) drainNotifications() {
	for {
		select {
		case frame, ok := <-b.transport.Notifications():
			if !ok {
				return
			}
			slog.Debug("[BADGE] dropping stale notification", "len", len(frame))
		default:
			return
		}
	}
}
