package badge

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ternbach/badgelink/internal/badge/protocol"
	"github.com/ternbach/badgelink/internal/font"
)

func TestSettingCommands(t *testing.T) {
	tests := []struct {
		name string
		call func(b *Badge) error
		want []byte // plaintext block prefix
	}{
		{"power on", (*Badge).PowerOn, []byte{0x05, 'L', 'E', 'D', 'O', 'N'}},
		{"power off", (*Badge).PowerOff, []byte{0x06, 'L', 'E', 'D', 'O', 'F', 'F'}},
		{"mode", func(b *Badge) error { return b.SetMode(protocol.ModeSnow) },
			[]byte{0x05, 'M', 'O', 'D', 'E', 7}},
		{"speed", func(b *Badge) error { return b.SetSpeed(96) },
			[]byte{0x06, 'S', 'P', 'E', 'E', 'D', 0x60}},
		{"brightness", func(b *Badge) error { return b.SetBrightness(128) },
			[]byte{0x06, 'L', 'I', 'G', 'H', 'T', 0x80}},
		{"show image", func(b *Badge) error { return b.ShowImage(2) },
			[]byte{0x05, 'I', 'M', 'A', 'G', 2}},
		{"play animation", func(b *Badge) error { return b.PlayAnimation(3) },
			[]byte{0x05, 'A', 'N', 'I', 'M', 3}},
		{"play sequence", func(b *Badge) error { return b.PlaySequence(1, 2) },
			[]byte{0x07, 'P', 'L', 'A', 'Y', 2, 1, 2}},
		{"delete images", func(b *Badge) error { return b.DeleteImages(4) },
			[]byte{0x06, 'D', 'E', 'L', 'E', 1, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMockTransport()
			b, err := New(m, testOptions())
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if err := tt.call(b); err != nil {
				t.Fatalf("%s error = %v", tt.name, err)
			}
			cmds := m.commandWrites()
			if len(cmds) != 1 {
				t.Fatalf("got %d command writes, want 1", len(cmds))
			}
			pt := decryptPacket(t, cmds[0])
			if !bytes.HasPrefix(pt, tt.want) {
				t.Errorf("plaintext = % x, want prefix % x", pt, tt.want)
			}
			for _, pad := range pt[len(tt.want):] {
				if pad != 0 {
					t.Errorf("plaintext = % x, want zero padding after payload", pt)
					break
				}
			}
		})
	}
}

func TestSettingCommandWriteError(t *testing.T) {
	m := newMockTransport()
	m.commandErr = errors.New("gatt write failed")
	b, err := New(m, testOptions())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := b.PowerOn(); err == nil {
		t.Error("PowerOn() error = nil, want transport error")
	}
}

func TestCheckImages(t *testing.T) {
	m := newMockTransport()
	m.onCommand = func(_ int, _ []byte) {
		m.push(ackFrame(t, "CHECOK"))
	}
	b, err := New(m, testOptions())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	token, err := b.CheckImages(context.Background())
	if err != nil {
		t.Fatalf("CheckImages() error = %v", err)
	}
	if token != "CHECOK" {
		t.Errorf("CheckImages() = %q, want CHECOK", token)
	}
	pt := decryptPacket(t, m.commandWrites()[0])
	if !bytes.HasPrefix(pt, []byte{0x04, 'C', 'H', 'E', 'C'}) {
		t.Errorf("query plaintext = % x, want CHEC", pt)
	}
}

func TestCheckImagesTimeout(t *testing.T) {
	m := newMockTransport()
	opts := testOptions()
	opts.AckTimeout = 50 * time.Millisecond
	b, err := New(m, opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := b.CheckImages(context.Background()); !errors.Is(err, ErrTimeout) {
		t.Errorf("CheckImages() error = %v, want ErrTimeout", err)
	}
}

func TestDisplayText(t *testing.T) {
	m := newMockTransport()
	scriptAcks(t, m)
	b, err := New(m, testOptions())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := b.DisplayText(context.Background(), "Badger", DefaultDisplaySettings()); err != nil {
		t.Fatalf("DisplayText() error = %v", err)
	}

	// Six characters make 54 payload bytes: three full chunks and a
	// 9-byte tail.
	imgs := m.imageWrites()
	if len(imgs) != 4 {
		t.Fatalf("got %d image writes, want 4", len(imgs))
	}
	ann := decryptPacket(t, m.commandWrites()[0])
	if ann[5] != 0x00 || ann[6] != 0x36 {
		t.Errorf("announced size bytes = %02x %02x, want 00 36", ann[5], ann[6])
	}
}

func TestDisplayTextUnsupportedRune(t *testing.T) {
	m := newMockTransport()
	b, err := New(m, testOptions())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	err = b.DisplayText(context.Background(), "héllo", DefaultDisplaySettings())
	var unsupported *font.UnsupportedCharError
	if !errors.As(err, &unsupported) {
		t.Fatalf("DisplayText() error = %v, want UnsupportedCharError", err)
	}
	if got := len(m.commandWrites()) + len(m.imageWrites()); got != 0 {
		t.Errorf("got %d writes for unrenderable text, want 0", got)
	}
}

func TestNewRejectsBadKey(t *testing.T) {
	opts := testOptions()
	opts.Key = []byte{1, 2, 3}
	if _, err := New(newMockTransport(), opts); err == nil {
		t.Error("New() with 3-byte key: error = nil, want error")
	}
}

func TestNewDefaults(t *testing.T) {
	b, err := New(newMockTransport(), Options{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if b.opts.AckTimeout != 5*time.Second {
		t.Errorf("AckTimeout = %v, want 5s", b.opts.AckTimeout)
	}
	if b.opts.InterChunkDelay != 10*time.Millisecond {
		t.Errorf("InterChunkDelay = %v, want 10ms", b.opts.InterChunkDelay)
	}
	if b.opts.Font == nil {
		t.Error("Font = nil, want builtin font")
	}
	if !bytes.Equal(b.opts.Key, protocol.DefaultKey) {
		t.Error("Key does not default to the shared badge key")
	}
}
