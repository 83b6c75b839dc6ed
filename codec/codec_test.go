package codec

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/mvishiu11/WIND/internal/werr"
	"github.com/mvishiu11/WIND/message"
	"github.com/mvishiu11/WIND/value"
)

func roundTripValue(t *testing.T, v value.V) value.V {
	t.Helper()
	var buf bytes.Buffer
	EncodeValue(&buf, v)
	got, err := DecodeValue(&cursor{data: buf.Bytes()})
	if err != nil {
		t.Fatalf("DecodeValue: %v", err)
	}
	return got
}

func TestValueRoundTrip(t *testing.T) {
	cases := []value.V{
		value.Bool(true),
		value.Bool(false),
		value.I32(-7),
		value.I64(1 << 40),
		value.F32(1.5),
		value.F64(23.5),
		value.String("SENSOR/A/TEMP"),
		value.Bytes([]byte{1, 2, 3}),
		value.Array(value.I32(1), value.String("x")),
		value.Map([]string{"a", "b"}, []value.V{value.I32(1), value.Bool(true)}),
	}
	for _, v := range cases {
		got := roundTripValue(t, v)
		if !value.Equal(got, v) {
			t.Errorf("round trip mismatch: got %+v, want %+v", got, v)
		}
	}
}

func TestValueRoundTripNestedContainers(t *testing.T) {
	v := value.Array(
		value.Map([]string{"k"}, []value.V{value.Array(value.F64(1), value.F64(2))}),
	)
	got := roundTripValue(t, v)
	if !value.Equal(got, v) {
		t.Errorf("nested round trip mismatch: got %+v, want %+v", got, v)
	}
}

func roundTripEnvelope(t *testing.T, e message.Envelope) message.Envelope {
	t.Helper()
	encoded, err := EncodeEnvelope(e)
	if err != nil {
		t.Fatalf("EncodeEnvelope: %v", err)
	}
	decoded, err := DecodeEnvelope(encoded)
	if err != nil {
		t.Fatalf("DecodeEnvelope: %v", err)
	}
	return decoded
}

func TestEnvelopeRoundTripPing(t *testing.T) {
	e := message.NewEnvelope(message.PayloadPing, message.PingPayload{})
	got := roundTripEnvelope(t, e)
	if got.ID != e.ID || got.TimestampUs != e.TimestampUs || got.Type != e.Type {
		t.Errorf("envelope header mismatch: got %+v, want %+v", got, e)
	}
}

func TestEnvelopeRoundTripRegisterService(t *testing.T) {
	e := message.NewEnvelope(message.PayloadRegisterService, message.RegisterServicePayload{
		Name:     "SENSOR/A/TEMP",
		Endpoint: "127.0.0.1:9000",
		Kind:     message.KindPublisher,
		Tags:     []string{"lab", "temp"},
		TtlSecs:  60,
	})
	got := roundTripEnvelope(t, e)
	p, ok := got.Payload.(message.RegisterServicePayload)
	if !ok {
		t.Fatalf("wrong payload type: %T", got.Payload)
	}
	want := e.Payload.(message.RegisterServicePayload)
	if p.Name != want.Name || p.Endpoint != want.Endpoint || p.Kind != want.Kind || p.TtlSecs != want.TtlSecs {
		t.Errorf("payload mismatch: got %+v, want %+v", p, want)
	}
	if len(p.Tags) != len(want.Tags) {
		t.Fatalf("tags length mismatch: got %v, want %v", p.Tags, want.Tags)
	}
}

func TestEnvelopeRoundTripPublish(t *testing.T) {
	e := message.NewEnvelope(message.PayloadPublish, message.PublishPayload{
		Service:  "SENSOR/A/TEMP",
		Value:    value.F64(23.5),
		Sequence: 42,
		SchemaID: "",
	})
	got := roundTripEnvelope(t, e)
	p := got.Payload.(message.PublishPayload)
	if p.Service != "SENSOR/A/TEMP" || !value.Equal(p.Value, value.F64(23.5)) || p.Sequence != 42 {
		t.Errorf("publish round trip mismatch: %+v", p)
	}
}

func TestEnvelopeRoundTripSubscribeAckWithAndWithoutCurrentValue(t *testing.T) {
	v := value.F64(23.5)
	withValue := message.NewEnvelope(message.PayloadSubscribeAck, message.SubscribeAckPayload{Ok: true, CurrentValue: &v})
	got := roundTripEnvelope(t, withValue)
	p := got.Payload.(message.SubscribeAckPayload)
	if p.CurrentValue == nil || !value.Equal(*p.CurrentValue, v) {
		t.Fatalf("expected current value to round trip, got %+v", p)
	}

	withoutValue := message.NewEnvelope(message.PayloadSubscribeAck, message.SubscribeAckPayload{Ok: true, CurrentValue: nil})
	got2 := roundTripEnvelope(t, withoutValue)
	p2 := got2.Payload.(message.SubscribeAckPayload)
	if p2.CurrentValue != nil {
		t.Fatalf("expected nil current value to round trip as nil, got %+v", p2.CurrentValue)
	}
}

func TestEnvelopeRoundTripRpcCallAndResponse(t *testing.T) {
	callID := uuid.New()
	call := message.NewEnvelope(message.PayloadRpcCall, message.RpcCallPayload{
		CallID: callID, Service: "CALC", Method: "add",
		Params: value.Map([]string{"a", "b"}, []value.V{value.F64(10), value.F64(5)}),
	})
	gotCall := roundTripEnvelope(t, call)
	cp := gotCall.Payload.(message.RpcCallPayload)
	if cp.CallID != callID || cp.Service != "CALC" || cp.Method != "add" {
		t.Errorf("call round trip mismatch: %+v", cp)
	}

	resp := message.NewEnvelope(message.PayloadRpcResponse, message.RpcResponsePayload{
		CallID: callID, Result: message.Ok(value.F64(15.0)),
	})
	gotResp := roundTripEnvelope(t, resp)
	rp := gotResp.Payload.(message.RpcResponsePayload)
	if rp.CallID != callID || rp.Result.IsErr || !value.Equal(rp.Result.Ok, value.F64(15.0)) {
		t.Errorf("response round trip mismatch: %+v", rp)
	}

	errResp := message.NewEnvelope(message.PayloadRpcResponse, message.RpcResponsePayload{
		CallID: callID, Result: message.Err("method not found"),
	})
	gotErr := roundTripEnvelope(t, errResp)
	ep := gotErr.Payload.(message.RpcResponsePayload)
	if !ep.Result.IsErr || ep.Result.Err != "method not found" {
		t.Errorf("error response round trip mismatch: %+v", ep)
	}
}

func TestEnvelopeRoundTripServicesDiscovered(t *testing.T) {
	e := message.NewEnvelope(message.PayloadServicesDiscovered, message.ServicesDiscoveredPayload{
		Services: []message.ServiceInfo{
			{Name: "SENSOR/A/TEMP", Endpoint: "127.0.0.1:9000", Kind: message.KindPublisher, Tags: nil, RegisteredAtUs: 100},
			{Name: "SENSOR/B/TEMP", Endpoint: "127.0.0.1:9001", Kind: message.KindPublisher, Tags: []string{"x"}, RegisteredAtUs: 200},
		},
	})
	got := roundTripEnvelope(t, e)
	p := got.Payload.(message.ServicesDiscoveredPayload)
	if len(p.Services) != 2 || p.Services[1].Name != "SENSOR/B/TEMP" {
		t.Errorf("unexpected services list: %+v", p.Services)
	}
}

func TestDecodeEnvelopeMalformedTruncated(t *testing.T) {
	_, err := DecodeEnvelope([]byte{1, 2, 3})
	if err == nil {
		t.Fatal("expected Malformed error for truncated envelope")
	}
	if !errors.Is(err, werr.Framing(werr.CodeMalformed, "", nil)) {
		t.Errorf("expected Malformed error, got %v", err)
	}
}
