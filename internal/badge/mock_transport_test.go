package badge

import (
	"sync"
	"testing"
)

// mockTransport records writes per characteristic and lets tests script
// badge replies from write hooks.
type mockTransport struct {
	mu       sync.Mutex
	commands [][]byte
	images   [][]byte
	order    []string // "cmd" and "img" in arrival order

	commandErr error
	imageErr   error

	// onCommand and onImage run after the nth successful write of their
	// kind, outside the transport lock.
	onCommand func(n int, packet []byte)
	onImage   func(n int, packet []byte)

	notify chan []byte
}

func newMockTransport() *mockTransport {
	return &mockTransport{notify: make(chan []byte, 8)}
}

func (m *mockTransport) WriteCommand(packet []byte) error {
	m.mu.Lock()
	if m.commandErr != nil {
		err := m.commandErr
		m.mu.Unlock()
		return err
	}
	cp := append([]byte(nil), packet...)
	m.commands = append(m.commands, cp)
	m.order = append(m.order, "cmd")
	n := len(m.commands)
	hook := m.onCommand
	m.mu.Unlock()
	if hook != nil {
		hook(n, cp)
	}
	return nil
}

func (m *mockTransport) WriteImage(packet []byte) error {
	m.mu.Lock()
	if m.imageErr != nil {
		err := m.imageErr
		m.mu.Unlock()
		return err
	}
	cp := append([]byte(nil), packet...)
	m.images = append(m.images, cp)
	m.order = append(m.order, "img")
	n := len(m.images)
	hook := m.onImage
	m.mu.Unlock()
	if hook != nil {
		hook(n, cp)
	}
	return nil
}

func (m *mockTransport) Notifications() <-chan []byte { return m.notify }

// push queues a raw notification frame as if the badge had sent it.
func (m *mockTransport) push(frame []byte) { m.notify <- frame }

func (m *mockTransport) commandWrites() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.commands...)
}

func (m *mockTransport) imageWrites() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.images...)
}

func (m *mockTransport) writeOrder() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.order...)
}

func TestMockTransportImplementsInterface(t *testing.T) {
	var _ Transport = (*mockTransport)(nil)
}
