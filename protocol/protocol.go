// Package protocol implements WIND's wire framing (spec.md §4.1/§6): each
// message on the wire is a 4-byte big-endian length prefix followed by
// exactly that many bytes of serialized envelope.
//
// Narrowed from the teacher's 14-byte multiplexing header (magic/version/
// codec/msgtype/seq) down to the spec's bare length prefix: WIND has no
// connection multiplexing (spec.md §4.6/§9 — RPC is connection-per-call),
// so there is no sequence number to carry at the framing layer, and the
// envelope's own discriminant (message.Envelope.Type) replaces the
// teacher's msgtype/codec-type header bytes one layer up.
package protocol

import (
	"encoding/binary"
	"io"

	"github.com/mvishiu11/WIND/internal/werr"
)

// LengthPrefixSize is the size in bytes of the frame's length prefix.
const LengthPrefixSize = 4

// MaxFrameSize is the hard cap on a single frame's payload, per spec.md §3/§6.
const MaxFrameSize = 16 * 1024 * 1024

// EncodeFrame writes [4-byte big-endian length][payload] to w.
func EncodeFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return werr.Framing(werr.CodeMessageTooLarge, "payload exceeds 16 MiB frame cap", nil)
	}
	var lenBuf [LengthPrefixSize]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return werr.Transport("write frame length", err)
	}
	if len(payload) == 0 {
		return nil
	}
	if _, err := w.Write(payload); err != nil {
		return werr.Transport("write frame body", err)
	}
	return nil
}

// DecodeFrame reads exactly 4 bytes of length prefix, validates it against
// MaxFrameSize, and only then allocates and reads the payload — the decoder
// must not allocate the payload buffer until the length is validated
// (spec.md §4.1).
func DecodeFrame(r io.Reader) ([]byte, error) {
	var lenBuf [LengthPrefixSize]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, werr.Framing(werr.CodeTruncated, "truncated frame length prefix", err)
		}
		return nil, werr.Transport("read frame length", err)
	}

	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > MaxFrameSize {
		return nil, werr.Framing(werr.CodeMessageTooLarge, "advertised frame length exceeds 16 MiB cap", nil)
	}
	if n == 0 {
		return []byte{}, nil
	}

	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, werr.Framing(werr.CodeTruncated, "truncated frame body", err)
		}
		return nil, werr.Transport("read frame body", err)
	}
	return payload, nil
}
