// Package protocol implements the badge wire protocol: command packets,
// payload chunking, and notification decoding. Everything the badge accepts
// on its command channel is a single AES-128-ECB encrypted 16-byte block of
// the form [length][payload][zero pad], where payload is the ASCII command
// name followed by its argument bytes.
//
// The protocol was reverse engineered from BTSnoop captures. DATS's two
// trailing zero bytes and the notification trailer byte appear in every
// capture but their meaning is unconfirmed; they are carried as observed.
package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ternbach/badgelink/internal/badge/crypto"
)

// DefaultKey is the AES-128 key baked into "idealLED" family badges and
// their vendor app. All captured traffic decrypts under it. Treat as
// read-only.
var DefaultKey = []byte{
	0x34, 0x52, 0x2A, 0x5B, 0x7A, 0x6E, 0x49, 0x2C,
	0x08, 0x09, 0x0A, 0x9D, 0x8D, 0x2A, 0x23, 0xF8,
}

// ShiningMasksKey is the key used by the related "Shining Masks" badge
// family. The codec is otherwise identical; pass this key at construction
// to drive those devices. Treat as read-only.
var ShiningMasksKey = []byte{
	0x32, 0x67, 0x2F, 0x79, 0x74, 0xAD, 0x43, 0x45,
	0x1D, 0x9C, 0x6C, 0x89, 0x4A, 0x0E, 0x87, 0x64,
}

// MaxPayload is the most payload bytes (command name plus arguments, or
// chunk data) that fit in a block after the length prefix.
const MaxPayload = crypto.BlockSize - 1

// ErrPayloadTooLarge is returned when a command's name and arguments exceed
// MaxPayload bytes, or a transfer length exceeds the 16-bit DATS field.
var ErrPayloadTooLarge = errors.New("protocol: payload too large")

// MarshalBlock builds the 16-byte plaintext block [len][payload][zero pad].
func MarshalBlock(payload []byte) ([]byte, error) {
	if len(payload) > MaxPayload {
		return nil, fmt.Errorf("protocol: %d byte payload exceeds %d: %w", len(payload), MaxPayload, ErrPayloadTooLarge)
	}
	block := make([]byte, crypto.BlockSize)
	block[0] = byte(len(payload))
	copy(block[1:], payload)
	return block, nil
}

// Mode selects how the badge displays the current image. The badge accepts
// values outside the named set without complaint; their behavior is
// unverified.
type Mode uint8

const (
	ModeStatic      Mode = 1
	ModeScrollLeft  Mode = 3
	ModeScrollRight Mode = 4
	ModeScrollUp    Mode = 5
	ModeScrollDown  Mode = 6
	ModeSnow        Mode = 7
)

func (m Mode) String() string {
	switch m {
	case ModeStatic:
		return "static"
	case ModeScrollLeft:
		return "left"
	case ModeScrollRight:
		return "right"
	case ModeScrollUp:
		return "up"
	case ModeScrollDown:
		return "down"
	case ModeSnow:
		return "snow"
	default:
		return "mode(" + strconv.Itoa(int(m)) + ")"
	}
}

// ParseMode converts a mode name (static, left, right, up, down, snow) or a
// numeric string to a Mode. Numeric values outside the named set are passed
// through.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "static":
		return ModeStatic, nil
	case "left":
		return ModeScrollLeft, nil
	case "right":
		return ModeScrollRight, nil
	case "up":
		return ModeScrollUp, nil
	case "down":
		return ModeScrollDown, nil
	case "snow":
		return ModeSnow, nil
	}
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("protocol: unknown mode %q", s)
	}
	return Mode(n), nil
}

// Command names as they appear on the wire.
const (
	cmdLEDOn        = "LEDON"
	cmdLEDOff       = "LEDOFF"
	cmdMode         = "MODE"
	cmdSpeed        = "SPEED"
	cmdLight        = "LIGHT"
	cmdShowImage    = "IMAG"
	cmdAnimation    = "ANIM"
	cmdPlay         = "PLAY"
	cmdDelete       = "DELE"
	cmdCheck        = "CHEC"
	cmdDataStart    = "DATS"
	cmdDataComplete = "DATCP"
)

// Encoder builds encrypted command packets. Each method corresponds to one
// badge command and fixes its argument shape; commands outside this set
// cannot be expressed. An Encoder is safe for concurrent use.
type Encoder struct {
	cipher *crypto.Cipher
}

// NewEncoder returns an Encoder producing packets under the given cipher.
func NewEncoder(c *crypto.Cipher) *Encoder {
	return &Encoder{cipher: c}
}

func (e *Encoder) build(name string, args ...byte) ([]byte, error) {
	payload := make([]byte, 0, len(name)+len(args))
	payload = append(payload, name...)
	payload = append(payload, args...)
	block, err := MarshalBlock(payload)
	if err != nil {
		return nil, err
	}
	return e.cipher.Encrypt(block)
}

// LEDOn builds the display-on packet.
func (e *Encoder) LEDOn() ([]byte, error) { return e.build(cmdLEDOn) }

// LEDOff builds the display-off packet.
func (e *Encoder) LEDOff() ([]byte, error) { return e.build(cmdLEDOff) }

// Mode builds the display mode packet.
func (e *Encoder) Mode(m Mode) ([]byte, error) { return e.build(cmdMode, byte(m)) }

// Speed builds the scroll speed packet. The full byte range passes through
// unclamped.
func (e *Encoder) Speed(v uint8) ([]byte, error) { return e.build(cmdSpeed, v) }

// Light builds the brightness packet. The full byte range passes through
// unclamped.
func (e *Encoder) Light(v uint8) ([]byte, error) { return e.build(cmdLight, v) }

// ShowImage builds the packet displaying a stored image by id.
func (e *Encoder) ShowImage(id uint8) ([]byte, error) { return e.build(cmdShowImage, id) }

// Animation builds the packet starting one of the badge's built-in
// animations.
func (e *Encoder) Animation(id uint8) ([]byte, error) { return e.build(cmdAnimation, id) }

// Play builds the packet playing a sequence of stored images in order. The
// argument bytes are a count followed by the ids.
func (e *Encoder) Play(ids []uint8) ([]byte, error) {
	args := make([]byte, 0, len(ids)+1)
	args = append(args, byte(len(ids)))
	args = append(args, ids...)
	return e.build(cmdPlay, args...)
}

// Delete builds the packet deleting stored images. Argument shape matches
// Play.
func (e *Encoder) Delete(ids []uint8) ([]byte, error) {
	args := make([]byte, 0, len(ids)+1)
	args = append(args, byte(len(ids)))
	args = append(args, ids...)
	return e.build(cmdDelete, args...)
}

// Check builds the packet asking the badge to report its stored images.
// The badge answers on the notification channel.
func (e *Encoder) Check() ([]byte, error) { return e.build(cmdCheck) }

// DataStart builds the packet opening a transfer of total payload bytes.
// The length travels big endian in a 16-bit field; the two trailing zeros
// are reserved bytes of unknown meaning.
func (e *Encoder) DataStart(total int) ([]byte, error) {
	if total < 0 || total > 0xFFFF {
		return nil, fmt.Errorf("protocol: transfer length %d outside 16-bit range: %w", total, ErrPayloadTooLarge)
	}
	return e.build(cmdDataStart, byte(total>>8), byte(total), 0x00, 0x00)
}

// DataComplete builds the packet closing a transfer.
func (e *Encoder) DataComplete() ([]byte, error) { return e.build(cmdDataComplete) }
