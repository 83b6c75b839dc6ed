package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/mvishiu11/WIND/internal/werr"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte("hello world")
	if err := EncodeFrame(&buf, payload); err != nil {
		t.Fatalf("EncodeFrame failed: %v", err)
	}

	decoded, err := DecodeFrame(&buf)
	if err != nil {
		t.Fatalf("DecodeFrame failed: %v", err)
	}
	if !bytes.Equal(decoded, payload) {
		t.Errorf("payload mismatch: got %q, want %q", decoded, payload)
	}
}

func TestEncodeRejectsOversizePayload(t *testing.T) {
	var buf bytes.Buffer
	oversized := make([]byte, MaxFrameSize+1)
	err := EncodeFrame(&buf, oversized)
	if err == nil {
		t.Fatal("expected MessageTooLarge error for oversized payload")
	}
	if !errors.Is(err, werr.Framing(werr.CodeMessageTooLarge, "", nil)) {
		t.Errorf("expected MessageTooLarge, got %v", err)
	}
}

func TestDecodeRejectsOversizeLengthWithoutAllocating(t *testing.T) {
	var buf bytes.Buffer
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], MaxFrameSize+1)
	buf.Write(lenBuf[:])
	// Deliberately do not write MaxFrameSize+1 bytes of body: if DecodeFrame
	// allocated before validating, io.ReadFull would simply block/EOF on
	// this truncated body, masking the real bug. Here it must reject the
	// length before ever trying to read a body at all.
	_, err := DecodeFrame(&buf)
	if err == nil {
		t.Fatal("expected MessageTooLarge error for oversized length prefix")
	}
	if !errors.Is(err, werr.Framing(werr.CodeMessageTooLarge, "", nil)) {
		t.Errorf("expected MessageTooLarge, got %v", err)
	}
}

func TestDecodeEmptyPayload(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeFrame(&buf, []byte{}); err != nil {
		t.Fatalf("EncodeFrame failed: %v", err)
	}
	decoded, err := DecodeFrame(&buf)
	if err != nil {
		t.Fatalf("DecodeFrame failed: %v", err)
	}
	if len(decoded) != 0 {
		t.Errorf("expected empty payload, got length %d", len(decoded))
	}
}

func TestDecodeTruncatedLengthPrefix(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0x00, 0x00})
	_, err := DecodeFrame(buf)
	if err == nil {
		t.Fatal("expected Truncated error for short length prefix")
	}
	if !errors.Is(err, werr.Framing(werr.CodeTruncated, "", nil)) {
		t.Errorf("expected Truncated, got %v", err)
	}
}

func TestDecodeTruncatedBody(t *testing.T) {
	var buf bytes.Buffer
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], 10)
	buf.Write(lenBuf[:])
	buf.Write([]byte("short"))
	_, err := DecodeFrame(&buf)
	if err == nil {
		t.Fatal("expected Truncated error for short body")
	}
	if !errors.Is(err, werr.Framing(werr.CodeTruncated, "", nil)) {
		t.Errorf("expected Truncated, got %v", err)
	}
}

func TestDecodeLargeBody(t *testing.T) {
	var buf bytes.Buffer
	largeBody := make([]byte, 1024*1024)
	for i := range largeBody {
		largeBody[i] = byte(i % 256)
	}
	if err := EncodeFrame(&buf, largeBody); err != nil {
		t.Fatalf("EncodeFrame failed: %v", err)
	}
	decoded, err := DecodeFrame(&buf)
	if err != nil {
		t.Fatalf("DecodeFrame failed: %v", err)
	}
	if !bytes.Equal(decoded, largeBody) {
		t.Error("large body content mismatch")
	}
}

// chunkedReader exercises DecodeFrame against a reader that returns data a
// byte at a time, confirming io.ReadFull semantics are relied upon rather
// than a single Read call.
type chunkedReader struct {
	data []byte
}

func (c *chunkedReader) Read(p []byte) (int, error) {
	if len(c.data) == 0 {
		return 0, io.EOF
	}
	n := copy(p, c.data[:1])
	c.data = c.data[1:]
	return n, nil
}

func TestDecodeFromChunkedReader(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte("chunked")
	if err := EncodeFrame(&buf, payload); err != nil {
		t.Fatalf("EncodeFrame failed: %v", err)
	}
	decoded, err := DecodeFrame(&chunkedReader{data: buf.Bytes()})
	if err != nil {
		t.Fatalf("DecodeFrame failed: %v", err)
	}
	if !bytes.Equal(decoded, payload) {
		t.Errorf("payload mismatch: got %q, want %q", decoded, payload)
	}
}
