package registry

import (
	"context"
	"testing"
	"time"

	"github.com/mvishiu11/WIND/message"
)

func TestRegisterAndDiscoverRoundTrip(t *testing.T) {
	_, addr, stop := startTestServer(t)
	defer stop()

	err := Register(context.Background(), addr.String(), message.ServiceInfo{
		Name: "SENSOR/A/TEMP", Endpoint: "127.0.0.1:9000", Kind: message.KindPublisher,
	}, time.Minute, 3, nil)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	found, err := Discover(context.Background(), addr.String(), "SENSOR/A/TEMP", 3, nil)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(found) != 1 || found[0].Name != "SENSOR/A/TEMP" {
		t.Fatalf("unexpected discover result: %+v", found)
	}
}

func TestUnregisterRemovesEntryViaClient(t *testing.T) {
	_, addr, stop := startTestServer(t)
	defer stop()

	if err := Register(context.Background(), addr.String(), message.ServiceInfo{
		Name: "SENSOR/A/TEMP", Endpoint: "127.0.0.1:9000", Kind: message.KindPublisher,
	}, time.Minute, 3, nil); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := Unregister(context.Background(), addr.String(), "SENSOR/A/TEMP", 3, nil); err != nil {
		t.Fatalf("Unregister: %v", err)
	}
	found, err := Discover(context.Background(), addr.String(), "SENSOR/A/TEMP", 3, nil)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(found) != 0 {
		t.Fatalf("expected no entries after unregister, got %+v", found)
	}
}

func TestRunHeartbeatRenewsRegistration(t *testing.T) {
	_, addr, stop := startTestServer(t)
	defer stop()

	info := message.ServiceInfo{Name: "SENSOR/A/TEMP", Endpoint: "127.0.0.1:9000", Kind: message.KindPublisher}
	if err := Register(context.Background(), addr.String(), info, 50*time.Millisecond, 3, nil); err != nil {
		t.Fatalf("Register: %v", err)
	}

	hbStop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		RunHeartbeat(addr.String(), info, 50*time.Millisecond, 10*time.Millisecond, 3, nil, hbStop)
		close(done)
	}()
	defer func() {
		close(hbStop)
		<-done
	}()

	time.Sleep(120 * time.Millisecond)
	found, err := Discover(context.Background(), addr.String(), "SENSOR/A/TEMP", 3, nil)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(found) != 1 {
		t.Fatal("expected heartbeat to keep the registration alive past its original ttl")
	}
}
