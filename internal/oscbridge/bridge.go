// Package oscbridge exposes badge control over OSC/UDP so creative
// tools can drive a badge without speaking BLE themselves. The bridge
// keeps at most one badge link, remembers display settings sent while
// disconnected, and answers every request on a reply endpoint.
package oscbridge

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hypebeast/go-osc/osc"

	"github.com/ternbach/badgelink/internal/badge"
	"github.com/ternbach/badgelink/internal/badge/protocol"
	"github.com/ternbach/badgelink/internal/font"
)

// Controller is the slice of the badge API the bridge drives.
// *badge.Badge satisfies it.
type Controller interface {
	PowerOn() error
	PowerOff() error
	SetMode(mode protocol.Mode) error
	SetSpeed(v uint8) error
	SetBrightness(v uint8) error
	PlayAnimation(id uint8) error
	UploadAndDisplay(ctx context.Context, payload []byte, settings badge.DisplaySettings) error
	DisplayText(ctx context.Context, text string, settings badge.DisplaySettings) error
}

// Link is one live badge connection handed to the bridge by its
// Connector.
type Link struct {
	Badge     Controller
	Address   string
	Connected func() bool
	Close     func() error
}

// Connector dials a badge on behalf of a /badge/connect request.
type Connector func(ctx context.Context, address string) (*Link, error)

// ReplySender delivers reply messages to the controlling client.
// *osc.Client satisfies it.
type ReplySender interface {
	Send(packet osc.Packet) error
}

// Options configures a Bridge.
type Options struct {
	// ConnectTimeout bounds /badge/connect.
	ConnectTimeout time.Duration
	// UploadTimeout bounds text and image uploads.
	UploadTimeout time.Duration
	// Settings seeds the display settings applied to uploads until the
	// client overrides them.
	Settings badge.DisplaySettings
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		ConnectTimeout: 15 * time.Second,
		UploadTimeout:  30 * time.Second,
		Settings:       badge.DefaultDisplaySettings(),
	}
}

// Bridge routes OSC messages to a badge. It implements osc.Dispatcher;
// hand it to an osc.Server. The OSC server dispatches packets on
// separate goroutines, so the bridge serializes access to its link and
// settings; concurrent uploads are rejected by the badge controller
// itself.
type Bridge struct {
	connect Connector
	reply   ReplySender
	opts    Options

	mu       sync.Mutex
	link     *Link
	settings badge.DisplaySettings
}

// New returns a Bridge that dials badges through connect and answers on
// reply. Zero option fields take their defaults.
func New(connect Connector, reply ReplySender, opts Options) *Bridge {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 15 * time.Second
	}
	if opts.UploadTimeout <= 0 {
		opts.UploadTimeout = 30 * time.Second
	}
	var zero badge.DisplaySettings
	if opts.Settings == zero {
		opts.Settings = badge.DefaultDisplaySettings()
	}
	return &Bridge{
		connect:  connect,
		reply:    reply,
		opts:     opts,
		settings: opts.Settings,
	}
}

// Dispatch implements osc.Dispatcher. Bundles are flattened in order.
func (b *Bridge) Dispatch(packet osc.Packet) {
	switch p := packet.(type) {
	case *osc.Message:
		b.handle(p)
	case *osc.Bundle:
		for _, msg := range p.Messages {
			b.handle(msg)
		}
		for _, bundle := range p.Bundles {
			b.Dispatch(bundle)
		}
	}
}

func (b *Bridge) handle(msg *osc.Message) {
	slog.Debug("[OSC] message", "address", msg.Address, "args", len(msg.Arguments))
	switch msg.Address {
	case "/badge/connect":
		b.handleConnect(msg)
	case "/badge/disconnect":
		b.handleDisconnect(msg)
	case "/badge/status":
		b.handleStatus(msg)
	case "/badge/text":
		b.handleText(msg)
	case "/badge/image":
		b.handleImage(msg)
	case "/badge/image/json":
		b.handleImageJSON(msg)
	case "/badge/brightness":
		b.handleBrightness(msg)
	case "/badge/speed":
		b.handleSpeed(msg)
	case "/badge/scroll":
		b.handleScroll(msg)
	case "/badge/on":
		b.handlePower(msg, true)
	case "/badge/off":
		b.handlePower(msg, false)
	case "/badge/animation":
		b.handleAnimation(msg)
	default:
		slog.Warn("[OSC] unknown address", "address", msg.Address)
		b.sendError("unknown command: " + msg.Address)
	}
}

// AnnounceStarted tells the reply endpoint the bridge is listening.
func (b *Bridge) AnnounceStarted(port int) {
	b.send("/badge/server/started", int32(port))
}

// Close drops the active badge link, if any.
func (b *Bridge) Close() error {
	b.mu.Lock()
	link := b.link
	b.link = nil
	b.mu.Unlock()
	if link == nil {
		return nil
	}
	return link.Close()
}

func (b *Bridge) handleConnect(msg *osc.Message) {
	address, ok := stringArg(msg, 0)
	if !ok {
		b.sendError("missing badge address")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.opts.ConnectTimeout)
	defer cancel()

	// Replace any existing link.
	b.mu.Lock()
	old := b.link
	b.link = nil
	b.mu.Unlock()
	if old != nil {
		old.Close()
	}

	slog.Info("[OSC] connecting", "address", address)
	link, err := b.connect(ctx, address)
	if err != nil {
		slog.Error("[OSC] connect failed", "address", address, "error", err)
		b.sendError(err.Error())
		return
	}

	b.mu.Lock()
	b.link = link
	b.mu.Unlock()
	b.send("/badge/connected", address)
}

func (b *Bridge) handleDisconnect(msg *osc.Message) {
	b.mu.Lock()
	link := b.link
	b.link = nil
	b.mu.Unlock()

	if link != nil {
		slog.Info("[OSC] disconnecting", "address", link.Address)
		if err := link.Close(); err != nil {
			b.sendError(err.Error())
			return
		}
	}
	b.send("/badge/disconnected", "OK")
}

func (b *Bridge) handleStatus(msg *osc.Message) {
	if link := b.activeLink(); link != nil {
		b.send("/badge/status", "connected", link.Address)
		return
	}
	b.send("/badge/status", "disconnected")
}

func (b *Bridge) handleText(msg *osc.Message) {
	link := b.activeLink()
	if link == nil {
		b.sendError("not connected to badge")
		return
	}
	text, ok := stringArg(msg, 0)
	if !ok {
		b.sendError("missing text argument")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.opts.UploadTimeout)
	defer cancel()

	slog.Info("[OSC] sending text", "text", text)
	if err := link.Badge.DisplayText(ctx, text, b.currentSettings()); err != nil {
		slog.Error("[OSC] send text failed", "error", err)
		b.sendError(err.Error())
		return
	}
	b.send("/badge/text/ok", text)
}

func (b *Bridge) handleImage(msg *osc.Message) {
	link := b.activeLink()
	if link == nil {
		b.sendError("not connected to badge")
		return
	}
	if len(msg.Arguments) == 0 {
		b.sendError("missing image data")
		return
	}
	payload := make([]byte, 0, len(msg.Arguments))
	for i := range msg.Arguments {
		n, ok := intArg(msg, i)
		if !ok || n < 0 || n > 255 {
			b.sendError(fmt.Sprintf("invalid image byte at index %d", i))
			return
		}
		payload = append(payload, byte(n))
	}
	b.upload(link, payload)
}

func (b *Bridge) handleImageJSON(msg *osc.Message) {
	link := b.activeLink()
	if link == nil {
		b.sendError("not connected to badge")
		return
	}
	raw, ok := stringArg(msg, 0)
	if !ok {
		b.sendError("missing JSON data")
		return
	}
	payload, err := font.ParseEditorExport([]byte(raw))
	if err != nil {
		b.sendError(err.Error())
		return
	}
	b.upload(link, payload)
}

func (b *Bridge) upload(link *Link, payload []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), b.opts.UploadTimeout)
	defer cancel()

	slog.Info("[OSC] uploading image", "bytes", len(payload))
	if err := link.Badge.UploadAndDisplay(ctx, payload, b.currentSettings()); err != nil {
		slog.Error("[OSC] upload failed", "error", err)
		b.sendError(err.Error())
		return
	}
	b.send("/badge/image/ok", int32(len(payload)))
}

func (b *Bridge) handleBrightness(msg *osc.Message) {
	n, ok := intArg(msg, 0)
	if !ok {
		b.sendError("missing or invalid brightness value")
		return
	}
	v := clampByte(n)

	b.mu.Lock()
	b.settings.Brightness = v
	link := b.connectedLink()
	b.mu.Unlock()

	if link == nil {
		b.send("/badge/brightness/stored", int32(v))
		return
	}
	if err := link.Badge.SetBrightness(v); err != nil {
		b.sendError(err.Error())
		return
	}
	b.send("/badge/brightness/ok", int32(v))
}

func (b *Bridge) handleSpeed(msg *osc.Message) {
	n, ok := intArg(msg, 0)
	if !ok {
		b.sendError("missing or invalid speed value")
		return
	}
	v := clampByte(n)

	b.mu.Lock()
	b.settings.Speed = v
	link := b.connectedLink()
	b.mu.Unlock()

	if link == nil {
		b.send("/badge/speed/stored", int32(v))
		return
	}
	if err := link.Badge.SetSpeed(v); err != nil {
		b.sendError(err.Error())
		return
	}
	b.send("/badge/speed/ok", int32(v))
}

func (b *Bridge) handleScroll(msg *osc.Message) {
	name, ok := stringArg(msg, 0)
	if !ok {
		b.sendError("missing scroll mode")
		return
	}
	mode, err := protocol.ParseMode(strings.ToLower(name))
	if err != nil {
		b.sendError("invalid scroll mode; valid: static, left, right, up, down, snow")
		return
	}

	b.mu.Lock()
	b.settings.Mode = mode
	link := b.connectedLink()
	b.mu.Unlock()

	if link == nil {
		b.send("/badge/scroll/stored", mode.String())
		return
	}
	if err := link.Badge.SetMode(mode); err != nil {
		b.sendError(err.Error())
		return
	}
	b.send("/badge/scroll/ok", mode.String())
}

func (b *Bridge) handlePower(msg *osc.Message, on bool) {
	link := b.activeLink()
	if link == nil {
		b.sendError("not connected to badge")
		return
	}
	if on {
		if err := link.Badge.PowerOn(); err != nil {
			b.sendError(err.Error())
			return
		}
		b.send("/badge/on/ok", "OK")
		return
	}
	if err := link.Badge.PowerOff(); err != nil {
		b.sendError(err.Error())
		return
	}
	b.send("/badge/off/ok", "OK")
}

func (b *Bridge) handleAnimation(msg *osc.Message) {
	link := b.activeLink()
	if link == nil {
		b.sendError("not connected to badge")
		return
	}
	n, ok := intArg(msg, 0)
	if !ok || n < 0 || n > 255 {
		b.sendError("missing or invalid animation ID")
		return
	}
	if err := link.Badge.PlayAnimation(byte(n)); err != nil {
		b.sendError(err.Error())
		return
	}
	b.send("/badge/animation/ok", int32(n))
}

// activeLink returns the current link if its connection is up.
func (b *Bridge) activeLink() *Link {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connectedLink()
}

// connectedLink is activeLink without locking; callers hold b.mu.
func (b *Bridge) connectedLink() *Link {
	if b.link == nil {
		return nil
	}
	if b.link.Connected != nil && !b.link.Connected() {
		return nil
	}
	return b.link
}

func (b *Bridge) currentSettings() badge.DisplaySettings {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.settings
}

func (b *Bridge) send(address string, args ...interface{}) {
	if b.reply == nil {
		return
	}
	if err := b.reply.Send(osc.NewMessage(address, args...)); err != nil {
		slog.Error("[OSC] reply failed", "address", address, "error", err)
	}
}

func (b *Bridge) sendError(message string) {
	b.send("/badge/error", message)
}

func clampByte(n int) uint8 {
	if n < 0 {
		return 0
	}
	if n > 255 {
		return 255
	}
	return uint8(n)
}

// stringArg returns argument i as a string. Non-string OSC values are
// formatted, matching how loosely typed creative tools send arguments.
func stringArg(msg *osc.Message, i int) (string, bool) {
	if i >= len(msg.Arguments) || msg.Arguments[i] == nil {
		return "", false
	}
	if s, ok := msg.Arguments[i].(string); ok {
		return s, true
	}
	return fmt.Sprint(msg.Arguments[i]), true
}

// intArg returns argument i as an int, accepting the integer, float,
// and numeric-string forms OSC clients produce.
func intArg(msg *osc.Message, i int) (int, bool) {
	if i >= len(msg.Arguments) {
		return 0, false
	}
	switch v := msg.Arguments[i].(type) {
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case float32:
		return int(v), true
	case float64:
		return int(v), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
