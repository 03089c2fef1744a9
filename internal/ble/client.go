package ble

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var (
	// ErrNotConnected means a write was attempted with no active link.
	ErrNotConnected = errors.New("ble: not connected")
	// ErrClosed means the client was shut down.
	ErrClosed = errors.New("ble: client closed")
)

// ClientOptions configures the badge link.
type ClientOptions struct {
	// NotifyBuffer is how many undelivered notifications to hold before
	// the oldest is dropped.
	NotifyBuffer int
	// AutoReconnect redials with backoff when the link drops.
	AutoReconnect bool
	// ReconnectMax caps the reconnect backoff, in seconds.
	ReconnectMax int
	// OnReconnect runs after a successful automatic redial.
	OnReconnect func()
}

// DefaultClientOptions returns sensible defaults.
func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		NotifyBuffer: 16,
		ReconnectMax: 30,
	}
}

// Client owns one badge link: the command and image characteristics for
// writes, and the notify characteristic feeding the Notifications
// stream. It satisfies the badge controller's transport contract.
type Client struct {
	adapter Adapter
	address string
	opts    ClientOptions

	mu          sync.Mutex
	conn        Connection
	commandChar Characteristic
	imageChar   Characteristic
	closed      bool

	notify chan []byte
}

// NewClient creates a client for the badge at the given address. The
// client is idle until Connect.
func NewClient(adapter Adapter, address string, opts ClientOptions) *Client {
	if opts.NotifyBuffer <= 0 {
		opts.NotifyBuffer = 16
	}
	if opts.ReconnectMax <= 0 {
		opts.ReconnectMax = 30
	}
	return &Client{
		adapter: adapter,
		address: address,
		opts:    opts,
		notify:  make(chan []byte, opts.NotifyBuffer),
	}
}

// Connect powers the adapter, dials the badge, and subscribes to its
// notifications.
func (c *Client) Connect(ctx context.Context) error {
	if err := c.adapter.Enable(); err != nil {
		return fmt.Errorf("ble: enable adapter: %w", err)
	}
	if err := c.dial(ctx); err != nil {
		return err
	}
	slog.Info("[BLE] connected", "address", c.address)
	return nil
}

func (c *Client) dial(ctx context.Context) error {
	conn, err := c.adapter.Connect(ctx, c.address)
	if err != nil {
		return err
	}
	if err := c.attach(conn); err != nil {
		conn.Disconnect()
		return err
	}
	conn.OnDisconnect(c.handleDisconnect)
	return nil
}

// attach discovers the badge characteristics and rebinds the client to
// this connection.
func (c *Client) attach(conn Connection) error {
	command, err := conn.DiscoverCharacteristic(ServiceUUID, CommandCharUUID)
	if err != nil {
		return fmt.Errorf("ble: discover command characteristic: %w", err)
	}
	image, err := conn.DiscoverCharacteristic(ServiceUUID, ImageCharUUID)
	if err != nil {
		return fmt.Errorf("ble: discover image characteristic: %w", err)
	}
	notify, err := conn.DiscoverCharacteristic(ServiceUUID, NotifyCharUUID)
	if err != nil {
		return fmt.Errorf("ble: discover notify characteristic: %w", err)
	}
	if err := notify.Subscribe(c.deliver); err != nil {
		return fmt.Errorf("ble: subscribe notifications: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.conn = conn
	c.commandChar = command
	c.imageChar = image
	return nil
}

// deliver queues one notification, dropping the oldest when the buffer
// is full. The badge only notifies during uploads and queries, so a
// full buffer means nobody is listening anyway.
func (c *Client) deliver(buf []byte) {
	cp := append([]byte(nil), buf...)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.notify <- cp:
		return
	default:
	}
	select {
	case <-c.notify:
		slog.Debug("[BLE] notification buffer full, dropped oldest")
	default:
	}
	select {
	case c.notify <- cp:
	default:
	}
}

// WriteCommand sends one packet to the command characteristic.
func (c *Client) WriteCommand(packet []byte) error {
	c.mu.Lock()
	char := c.commandChar
	c.mu.Unlock()
	if char == nil {
		return ErrNotConnected
	}
	if err := char.Write(packet); err != nil {
		return fmt.Errorf("ble: write command: %w", err)
	}
	return nil
}

// WriteImage sends one packet to the image upload characteristic.
func (c *Client) WriteImage(packet []byte) error {
	c.mu.Lock()
	char := c.imageChar
	c.mu.Unlock()
	if char == nil {
		return ErrNotConnected
	}
	if err := char.Write(packet); err != nil {
		return fmt.Errorf("ble: write image: %w", err)
	}
	return nil
}

// Notifications returns the stream of raw badge replies. The channel
// stays open across reconnects and closes on Close.
func (c *Client) Notifications() <-chan []byte {
	return c.notify
}

// Connected reports whether a link is currently up.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Close tears down the link and closes the notification stream.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.conn != nil {
		c.conn.Disconnect()
		c.conn = nil
	}
	c.commandChar = nil
	c.imageChar = nil
	close(c.notify)
	return nil
}

func (c *Client) handleDisconnect() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.commandChar = nil
	c.imageChar = nil
	reconnect := c.opts.AutoReconnect
	c.mu.Unlock()

	if !reconnect {
		slog.Warn("[BLE] disconnected", "address", c.address)
		return
	}
	slog.Warn("[BLE] disconnected, reconnecting", "address", c.address)
	go c.reconnectLoop()
}

// reconnectLoop redials with exponential backoff until it succeeds or
// the client closes.
func (c *Client) reconnectLoop() {
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(attempt-1, c.opts.ReconnectMax)
			slog.Info("[BLE] reconnect backoff", "attempt", attempt+1, "delay", delay)
			time.Sleep(delay)
		}

		c.mu.Lock()
		closed := c.closed
		c.mu.Unlock()
		if closed {
			return
		}

		if err := c.dial(context.Background()); err != nil {
			slog.Warn("[BLE] reconnect failed", "error", err, "attempt", attempt+1)
			continue
		}
		slog.Info("[BLE] reconnected", "address", c.address)
		if c.opts.OnReconnect != nil {
			c.opts.OnReconnect()
		}
		return
	}
}

// backoffDelay returns the reconnection delay for attempt n, capped at
// maxSeconds.
func backoffDelay(attempt int, maxSeconds int) time.Duration {
	delay := time.Duration(1<<uint(attempt)) * time.Second
	max := time.Duration(maxSeconds) * time.Second
	if delay > max {
		return max
	}
	return delay
}
