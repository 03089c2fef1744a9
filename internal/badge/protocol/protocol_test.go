package protocol

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ternbach/badgelink/internal/badge/crypto"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex %q: %v", s, err)
	}
	return b
}

func newTestCipher(t *testing.T) *crypto.Cipher {
	t.Helper()
	c, err := crypto.New(DefaultKey)
	if err != nil {
		t.Fatalf("crypto.New() error = %v", err)
	}
	return c
}

// TestCommandVectors checks every command packet against ciphertext captured
// from the vendor app driving a real badge.
func TestCommandVectors(t *testing.T) {
	e := NewEncoder(newTestCipher(t))
	tests := []struct {
		name  string
		build func() ([]byte, error)
		want  string
	}{
		{"LEDON", e.LEDOn, "ebd372ed98857317f2f54cd2130fdc9c"},
		{"LEDOFF", e.LEDOff, "cbb1fdbfc560d5e453c2cbd928b53fab"},
		{"MODE static", func() ([]byte, error) { return e.Mode(ModeStatic) }, "c525a8e825a9f13b6c5ee00b48fa1d52"},
		{"MODE left", func() ([]byte, error) { return e.Mode(ModeScrollLeft) }, "0adbfdd9e856e54e61f3c9d35452d5d0"},
		{"MODE right", func() ([]byte, error) { return e.Mode(ModeScrollRight) }, "fdc28903b4aa1f8b586b4d899bc27a94"},
		{"SPEED 50", func() ([]byte, error) { return e.Speed(50) }, "4e9ae0e7d5e04af7491651e2e57610a7"},
		{"SPEED 96", func() ([]byte, error) { return e.Speed(96) }, "7fac1269170d8885458fa51cfe710841"},
		{"LIGHT 50", func() ([]byte, error) { return e.Light(50) }, "12be7e044087149279944078890f457a"},
		{"LIGHT 128", func() ([]byte, error) { return e.Light(128) }, "9ea72be6b666e290d7ee1ee0d5cdec8e"},
		{"DATS 9", func() ([]byte, error) { return e.DataStart(9) }, "361d18ea05dc95e06047553f10edb8e9"},
		{"DATS 54", func() ([]byte, error) { return e.DataStart(54) }, "1e5d8435b17b37e01cb9a328c53d9afa"},
		{"DATCP", e.DataComplete, "8ac86ae07a1436224437d4d2c1cf4503"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.build()
			if err != nil {
				t.Fatalf("build error = %v", err)
			}
			if diff := cmp.Diff(mustHex(t, tt.want), got); diff != "" {
				t.Errorf("packet mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMarshalBlockShape(t *testing.T) {
	// DATS for a 54-byte transfer: length 8, "DATS", big-endian 0x0036,
	// two reserved zeros, zero pad to 16.
	block, err := MarshalBlock([]byte{'D', 'A', 'T', 'S', 0x00, 0x36, 0x00, 0x00})
	if err != nil {
		t.Fatalf("MarshalBlock() error = %v", err)
	}
	want := mustHex(t, "08444154530036000000000000000000")
	if diff := cmp.Diff(want, block); diff != "" {
		t.Errorf("block mismatch (-want +got):\n%s", diff)
	}
}

func TestMarshalBlockBounds(t *testing.T) {
	if _, err := MarshalBlock(make([]byte, MaxPayload)); err != nil {
		t.Errorf("MarshalBlock(15 bytes) error = %v, want nil", err)
	}
	if _, err := MarshalBlock(nil); err != nil {
		t.Errorf("MarshalBlock(nil) error = %v, want nil", err)
	}
	if _, err := MarshalBlock(make([]byte, MaxPayload+1)); !errors.Is(err, ErrPayloadTooLarge) {
		t.Errorf("MarshalBlock(16 bytes) error = %v, want ErrPayloadTooLarge", err)
	}
}

func TestDataStartRange(t *testing.T) {
	e := NewEncoder(newTestCipher(t))
	for _, total := range []int{0, 1, 0xFFFF} {
		if _, err := e.DataStart(total); err != nil {
			t.Errorf("DataStart(%d) error = %v, want nil", total, err)
		}
	}
	for _, total := range []int{-1, 0x10000} {
		if _, err := e.DataStart(total); !errors.Is(err, ErrPayloadTooLarge) {
			t.Errorf("DataStart(%d) error = %v, want ErrPayloadTooLarge", total, err)
		}
	}
}

func TestPlayArgumentLayout(t *testing.T) {
	cipher := newTestCipher(t)
	e := NewEncoder(cipher)

	pkt, err := e.Play([]uint8{1, 2, 3})
	if err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	block, err := cipher.Decrypt(pkt)
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	want := mustHex(t, "08504c41590301020300000000000000")
	if diff := cmp.Diff(want, block); diff != "" {
		t.Errorf("PLAY block mismatch (-want +got):\n%s", diff)
	}
}

func TestPlayTooManyImages(t *testing.T) {
	e := NewEncoder(newTestCipher(t))
	// "PLAY" + count byte leaves room for 10 ids.
	if _, err := e.Play(make([]uint8, 10)); err != nil {
		t.Errorf("Play(10 ids) error = %v, want nil", err)
	}
	if _, err := e.Play(make([]uint8, 11)); !errors.Is(err, ErrPayloadTooLarge) {
		t.Errorf("Play(11 ids) error = %v, want ErrPayloadTooLarge", err)
	}
}

func TestDeleteArgumentLayout(t *testing.T) {
	cipher := newTestCipher(t)
	e := NewEncoder(cipher)

	pkt, err := e.Delete([]uint8{7})
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	block, err := cipher.Decrypt(pkt)
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	want := mustHex(t, "0644454c450107000000000000000000")
	if diff := cmp.Diff(want, block); diff != "" {
		t.Errorf("DELE block mismatch (-want +got):\n%s", diff)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"static", ModeStatic},
		{"LEFT", ModeScrollLeft},
		{"right", ModeScrollRight},
		{"up", ModeScrollUp},
		{"down", ModeScrollDown},
		{"snow", ModeSnow},
		{"1", ModeStatic},
		{"4", ModeScrollRight},
		{"42", Mode(42)},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if err != nil {
			t.Errorf("ParseMode(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	for _, in := range []string{"", "sideways", "300", "-1"} {
		if _, err := ParseMode(in); err == nil {
			t.Errorf("ParseMode(%q) expected error, got nil", in)
		}
	}
}

func TestModeString(t *testing.T) {
	if got := ModeScrollLeft.String(); got != "left" {
		t.Errorf("ModeScrollLeft.String() = %q, want %q", got, "left")
	}
	if got := Mode(9).String(); got != "mode(9)" {
		t.Errorf("Mode(9).String() = %q, want %q", got, "mode(9)")
	}
}
