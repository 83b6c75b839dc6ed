package message

import (
	"testing"

	"github.com/mvishiu11/WIND/value"
)

func TestNewEnvelopeStampsID(t *testing.T) {
	e1 := NewEnvelope(PayloadPing, PingPayload{})
	e2 := NewEnvelope(PayloadPing, PingPayload{})
	if e1.ID == e2.ID {
		t.Fatal("expected distinct envelope IDs")
	}
	if e1.TimestampUs == 0 {
		t.Fatal("expected a nonzero sender-local timestamp")
	}
}

func TestRpcResultVariants(t *testing.T) {
	ok := Ok(value.F64(15.0))
	if ok.IsErr {
		t.Fatal("Ok result must not be IsErr")
	}
	errv := Err("method not found")
	if !errv.IsErr || errv.Err != "method not found" {
		t.Fatalf("unexpected error result: %+v", errv)
	}
}

func TestDefaultQosBufferDepth(t *testing.T) {
	q := DefaultQos()
	if q.BufferDepth != 1024 {
		t.Fatalf("expected default buffer depth 1024, got %d", q.BufferDepth)
	}
	if q.Reliability != ReliabilityBestEffort {
		t.Fatal("expected default reliability BestEffort")
	}
}
