package badge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/ternbach/badgelink/internal/badge/crypto"
	"github.com/ternbach/badgelink/internal/badge/protocol"
)

func testOptions() Options {
	opts := DefaultOptions()
	opts.InterChunkDelay = time.Nanosecond
	return opts
}

func testCipher(t *testing.T) *crypto.Cipher {
	t.Helper()
	c, err := crypto.New(protocol.DefaultKey)
	if err != nil {
		t.Fatalf("crypto.New() error = %v", err)
	}
	return c
}

// ackFrame builds the framed notification a badge sends for a token.
func ackFrame(t *testing.T, token string) []byte {
	t.Helper()
	block := make([]byte, crypto.BlockSize)
	copy(block, token)
	ct, err := testCipher(t).Encrypt(block)
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	frame := append([]byte{0x12, 0x02}, ct...)
	return append(frame, 0x01)
}

func decryptPacket(t *testing.T, packet []byte) []byte {
	t.Helper()
	pt, err := testCipher(t).Decrypt(packet)
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	return pt
}

// scriptAcks makes the mock reply like a healthy badge: DATSOK to an
// announcement, DATCPOK to a completion, silence to everything else.
func scriptAcks(t *testing.T, m *mockTransport) {
	t.Helper()
	c := testCipher(t)
	m.onCommand = func(_ int, packet []byte) {
		pt, err := c.Decrypt(packet)
		if err != nil {
			t.Errorf("command write is not one encrypted block: %v", err)
			return
		}
		switch {
		case string(pt[1:5]) == "DATS":
			m.push(ackFrame(t, "DATSOK"))
		case string(pt[1:6]) == "DATCP":
			m.push(ackFrame(t, "DATCPOK"))
		}
	}
}

func TestUploadAndDisplay(t *testing.T) {
	m := newMockTransport()
	scriptAcks(t, m)
	b, err := New(m, testOptions())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// 54 bytes of payload splits into chunks of 15, 15, 15 and 9.
	payload := make([]byte, 54)
	for i := range payload {
		payload[i] = byte(i)
	}
	if err := b.UploadAndDisplay(context.Background(), payload, DefaultDisplaySettings()); err != nil {
		t.Fatalf("UploadAndDisplay() error = %v", err)
	}

	wantOrder := []string{"cmd", "img", "img", "img", "img", "cmd", "cmd", "cmd", "cmd"}
	if diff := cmp.Diff(wantOrder, m.writeOrder()); diff != "" {
		t.Errorf("write order mismatch (-want +got):\n%s", diff)
	}

	cmds := m.commandWrites()
	if len(cmds) != 5 {
		t.Fatalf("got %d command writes, want 5", len(cmds))
	}
	// Announcement carries the payload size big-endian after the name.
	ann := decryptPacket(t, cmds[0])
	wantAnn := []byte{0x08, 'D', 'A', 'T', 'S', 0x00, 0x36, 0x00, 0x00}
	if diff := cmp.Diff(wantAnn, ann[:9]); diff != "" {
		t.Errorf("announcement mismatch (-want +got):\n%s", diff)
	}
	if got := string(decryptPacket(t, cmds[1])[1:6]); got != "DATCP" {
		t.Errorf("second command = %q, want DATCP", got)
	}

	// Settings follow in mode, speed, brightness order.
	for i, want := range []string{"MODE", "SPEED", "LIGHT"} {
		pt := decryptPacket(t, cmds[2+i])
		if got := string(pt[1 : 1+len(want)]); got != want {
			t.Errorf("settle command %d = %q, want %q", i, got, want)
		}
	}

	imgs := m.imageWrites()
	wantLens := []byte{15, 15, 15, 9}
	for i, img := range imgs {
		if len(img) != crypto.BlockSize {
			t.Fatalf("chunk %d is %d bytes on the wire, want %d", i, len(img), crypto.BlockSize)
		}
		pt := decryptPacket(t, img)
		if pt[0] != wantLens[i] {
			t.Errorf("chunk %d length byte = %d, want %d", i, pt[0], wantLens[i])
		}
	}
}

func TestUploadEmptyPayload(t *testing.T) {
	m := newMockTransport()
	scriptAcks(t, m)
	b, err := New(m, testOptions())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := b.UploadAndDisplay(context.Background(), nil, DefaultDisplaySettings()); err != nil {
		t.Fatalf("UploadAndDisplay() error = %v", err)
	}
	if got := len(m.imageWrites()); got != 0 {
		t.Errorf("got %d image writes, want 0", got)
	}
	ann := decryptPacket(t, m.commandWrites()[0])
	if ann[5] != 0 || ann[6] != 0 {
		t.Errorf("announcement size bytes = %02x %02x, want 00 00", ann[5], ann[6])
	}
}

func TestUploadUnexpectedReply(t *testing.T) {
	m := newMockTransport()
	m.onCommand = func(n int, _ []byte) {
		if n == 1 {
			m.push(ackFrame(t, "BLEH"))
		}
	}
	b, err := New(m, testOptions())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	err = b.UploadAndDisplay(context.Background(), make([]byte, 20), DefaultDisplaySettings())
	var unexpected *protocol.UnexpectedResponseError
	if !errors.As(err, &unexpected) {
		t.Fatalf("UploadAndDisplay() error = %v, want UnexpectedResponseError", err)
	}
	if unexpected.Token != "BLEH" {
		t.Errorf("Token = %q, want BLEH", unexpected.Token)
	}
	if got := len(m.imageWrites()); got != 0 {
		t.Errorf("got %d image writes after rejected announcement, want 0", got)
	}
}

func TestUploadAckTimeout(t *testing.T) {
	m := newMockTransport()
	opts := testOptions()
	opts.AckTimeout = 50 * time.Millisecond
	b, err := New(m, opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	err = b.UploadAndDisplay(context.Background(), make([]byte, 20), DefaultDisplaySettings())
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("UploadAndDisplay() error = %v, want ErrTimeout", err)
	}
	if got := len(m.commandWrites()); got != 1 {
		t.Errorf("got %d command writes, want 1 (announcement only)", got)
	}
	if got := len(m.imageWrites()); got != 0 {
		t.Errorf("got %d image writes, want 0", got)
	}
}

func TestUploadCanceledBetweenChunks(t *testing.T) {
	m := newMockTransport()
	ctx, cancel := context.WithCancel(context.Background())
	m.onCommand = func(n int, _ []byte) {
		if n == 1 {
			m.push(ackFrame(t, "DATSOK"))
		}
	}
	m.onImage = func(n int, _ []byte) {
		if n == 2 {
			cancel()
		}
	}
	opts := testOptions()
	opts.InterChunkDelay = 5 * time.Millisecond
	b, err := New(m, opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	err = b.UploadAndDisplay(ctx, make([]byte, 60), DefaultDisplaySettings())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("UploadAndDisplay() error = %v, want context.Canceled", err)
	}
	// The write in flight completes, nothing after it is issued.
	if got := len(m.imageWrites()); got != 2 {
		t.Errorf("got %d image writes, want 2", got)
	}
	if got := len(m.commandWrites()); got != 1 {
		t.Errorf("got %d command writes, want 1 (no completion after cancel)", got)
	}
}

func TestUploadBusy(t *testing.T) {
	m := newMockTransport()
	started := make(chan struct{})
	m.onCommand = func(n int, _ []byte) {
		if n == 1 {
			close(started)
		}
	}
	b, err := New(m, testOptions())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- b.UploadAndDisplay(ctx, make([]byte, 20), DefaultDisplaySettings())
	}()
	<-started

	if err := b.UploadAndDisplay(ctx, make([]byte, 20), DefaultDisplaySettings()); !errors.Is(err, ErrBusy) {
		t.Errorf("concurrent UploadAndDisplay() error = %v, want ErrBusy", err)
	}
	if _, err := b.CheckImages(ctx); !errors.Is(err, ErrBusy) {
		t.Errorf("CheckImages() during upload error = %v, want ErrBusy", err)
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("canceled upload error = %v, want context.Canceled", err)
	}

	// The controller is free again once the session ends.
	scriptAcks(t, m)
	if err := b.UploadAndDisplay(context.Background(), nil, DefaultDisplaySettings()); err != nil {
		t.Errorf("UploadAndDisplay() after session end error = %v, want nil", err)
	}
}

func TestUploadStaleAckDrained(t *testing.T) {
	m := newMockTransport()
	// A leftover ack from a previous session must not satisfy this one.
	m.push(ackFrame(t, "DATSOK"))
	opts := testOptions()
	opts.AckTimeout = 50 * time.Millisecond
	b, err := New(m, opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	err = b.UploadAndDisplay(context.Background(), make([]byte, 20), DefaultDisplaySettings())
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("UploadAndDisplay() error = %v, want ErrTimeout", err)
	}
}

func TestUploadTransportClosed(t *testing.T) {
	m := newMockTransport()
	m.onCommand = func(n int, _ []byte) {
		if n == 1 {
			close(m.notify)
		}
	}
	b, err := New(m, testOptions())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	err = b.UploadAndDisplay(context.Background(), make([]byte, 20), DefaultDisplaySettings())
	if !errors.Is(err, ErrClosed) {
		t.Errorf("UploadAndDisplay() error = %v, want ErrClosed", err)
	}
}

func TestSessionStateString(t *testing.T) {
	states := []sessionState{
		stateIdle, stateAwaitStartAck, stateSendChunks,
		stateAwaitCompleteAck, stateSettle, stateDone, stateFailed,
	}
	seen := map[string]bool{}
	for _, s := range states {
		name := s.String()
		if name == "" || seen[name] {
			t.Errorf("state %d has empty or duplicate name %q", int(s), name)
		}
		seen[name] = true
	}
}
