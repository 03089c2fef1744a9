package protocol

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ternbach/badgelink/internal/badge/crypto"
)

// Ack identifies a recognized badge acknowledgement.
type Ack int

const (
	AckNone         Ack = iota // token not recognized
	AckDataStart               // DATSOK: ready to receive chunks
	AckDataComplete            // DATCPOK: transfer accepted
)

func (a Ack) String() string {
	switch a {
	case AckDataStart:
		return "DATSOK"
	case AckDataComplete:
		return "DATCPOK"
	default:
		return "none"
	}
}

// Acknowledgement tokens as sent by the badge.
const (
	tokenDataStartOK    = "DATSOK"
	tokenDataCompleteOK = "DATCPOK"
)

// framedLen is the size of the framed notification form:
// [length][type][ciphertext:16][trailer]. The length byte counts the 18
// bytes that follow it, matching every captured frame.
const framedLen = 2 + crypto.BlockSize + 1

// ErrMalformedFrame is returned when a notification cannot be sliced into
// either known frame shape.
var ErrMalformedFrame = errors.New("protocol: malformed notification frame")

// UnexpectedResponseError reports a badge reply that decoded cleanly but
// does not carry the acknowledgement a transfer was waiting for.
type UnexpectedResponseError struct {
	Token string
}

func (e *UnexpectedResponseError) Error() string {
	return fmt.Sprintf("protocol: unexpected badge response %q", e.Token)
}

// Response is a decoded badge notification. Token holds the ASCII payload
// after padding strip even when it is not a recognized acknowledgement.
type Response struct {
	Ack   Ack
	Token string
}

// Decoder decrypts and classifies notification frames. A Decoder is safe
// for concurrent use.
type Decoder struct {
	cipher *crypto.Cipher
}

// NewDecoder returns a Decoder for notifications under the given cipher.
func NewDecoder(c *crypto.Cipher) *Decoder {
	return &Decoder{cipher: c}
}

// Decode parses one notification frame. Two shapes appear in captures: the
// framed form [length][type][ciphertext:16][trailer], and a bare 16-byte
// ciphertext. The type and trailer bytes are opaque and ignored.
func (d *Decoder) Decode(frame []byte) (Response, error) {
	var ciphertext []byte
	switch len(frame) {
	case crypto.BlockSize:
		ciphertext = frame
	case framedLen:
		if int(frame[0]) != framedLen-1 {
			return Response{}, fmt.Errorf("protocol: frame length byte %d, want %d: %w", frame[0], framedLen-1, ErrMalformedFrame)
		}
		ciphertext = frame[2 : 2+crypto.BlockSize]
	default:
		return Response{}, fmt.Errorf("protocol: %d byte frame: %w", len(frame), ErrMalformedFrame)
	}

	plain, err := d.cipher.Decrypt(ciphertext)
	if err != nil {
		return Response{}, fmt.Errorf("protocol: decrypt notification: %w", err)
	}

	token := string(bytes.TrimRight(plain, "\x00"))
	resp := Response{Token: token}
	switch token {
	case tokenDataStartOK:
		resp.Ack = AckDataStart
	case tokenDataCompleteOK:
		resp.Ack = AckDataComplete
	}
	return resp, nil
}
