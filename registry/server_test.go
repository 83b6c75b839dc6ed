package registry

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/mvishiu11/WIND/codec"
	"github.com/mvishiu11/WIND/message"
	"github.com/mvishiu11/WIND/protocol"
)

func startTestServer(t *testing.T) (*Server, net.Addr, func()) {
	t.Helper()
	store := NewStore(nil)
	srv := NewServer(store, nil)
	ctx, cancel := context.WithCancel(context.Background())

	ready := make(chan struct{})
	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe(ctx, "127.0.0.1:0", time.Hour)
	}()
	// ListenAndServe binds synchronously-ish; poll until the listener exists.
	for i := 0; i < 100 && srv.Addr() == nil; i++ {
		time.Sleep(time.Millisecond)
	}
	close(ready)
	<-ready
	if srv.Addr() == nil {
		t.Fatal("server never bound a listener")
	}
	return srv, srv.Addr(), func() { cancel() }
}

func sendRecv(t *testing.T, addr net.Addr, env message.Envelope) message.Envelope {
	t.Helper()
	conn, err := net.Dial("tcp", addr.String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	out, err := codec.EncodeEnvelope(env)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := protocol.EncodeFrame(conn, out); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	payload, err := protocol.DecodeFrame(conn)
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	resp, err := codec.DecodeEnvelope(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp
}

func TestRegistryServerPingPong(t *testing.T) {
	_, addr, stop := startTestServer(t)
	defer stop()

	resp := sendRecv(t, addr, message.NewEnvelope(message.PayloadPing, message.PingPayload{}))
	if resp.Type != message.PayloadPong {
		t.Fatalf("expected Pong, got type %v", resp.Type)
	}
}

func TestRegistryServerRegisterAndDiscover(t *testing.T) {
	_, addr, stop := startTestServer(t)
	defer stop()

	regResp := sendRecv(t, addr, message.NewEnvelope(message.PayloadRegisterService, message.RegisterServicePayload{
		Name: "SENSOR/A/TEMP", Endpoint: "127.0.0.1:9000", Kind: message.KindPublisher, TtlSecs: 60,
	}))
	if regResp.Type != message.PayloadServiceRegistered {
		t.Fatalf("expected ServiceRegistered, got type %v", regResp.Type)
	}

	discResp := sendRecv(t, addr, message.NewEnvelope(message.PayloadDiscoverServices, message.DiscoverServicesPayload{Pattern: "SENSOR/A/TEMP"}))
	sd, ok := discResp.Payload.(message.ServicesDiscoveredPayload)
	if !ok || len(sd.Services) != 1 {
		t.Fatalf("expected one discovered service, got %+v", discResp.Payload)
	}
}

func TestRegistryServerUnsupportedPayloadReturnsError(t *testing.T) {
	_, addr, stop := startTestServer(t)
	defer stop()

	resp := sendRecv(t, addr, message.NewEnvelope(message.PayloadSubscribe, message.SubscribePayload{Service: "X"}))
	if resp.Type != message.PayloadError {
		t.Fatalf("expected Error for Subscribe sent to registry, got type %v", resp.Type)
	}
	errPayload := resp.Payload.(message.ErrorPayload)
	if errPayload.Code != "UnsupportedOnRegistry" {
		t.Fatalf("unexpected error code: %s", errPayload.Code)
	}
}

func TestRegistryServerConnectionCloseDoesNotUnregister(t *testing.T) {
	srv, addr, stop := startTestServer(t)
	defer stop()

	conn, err := net.Dial("tcp", addr.String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	env := message.NewEnvelope(message.PayloadRegisterService, message.RegisterServicePayload{
		Name: "SENSOR/A/TEMP", Endpoint: "127.0.0.1:9000", Kind: message.KindPublisher, TtlSecs: 60,
	})
	out, _ := codec.EncodeEnvelope(env)
	protocol.EncodeFrame(conn, out)
	protocol.DecodeFrame(conn) // drain the ack
	conn.Close()

	if len(srv.Store.Lookup("SENSOR/A/TEMP")) != 1 {
		t.Fatal("expected registration to survive the registering connection's close")
	}
}
