package registry

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/mvishiu11/WIND/connection"
	"github.com/mvishiu11/WIND/internal/werr"
	"github.com/mvishiu11/WIND/message"
)

// Client-side helpers against a registry endpoint (spec.md §4.7's
// "discover(pattern)" plus the Register/Unregister calls publisher.start and
// rpc_server.start make). Shared by publisher/ and rpcserver/ so both
// producer roles announce themselves identically, and by client/ for
// discovery.

// Register performs one RegisterService/ServiceRegistered round trip
// against the registry at addr. A non-ServiceRegistered reply (or a
// transport failure) is wrapped as a Registration error — per spec.md §7
// these are fatal at publisher.start/rpc_server.start.
func Register(ctx context.Context, addr string, info message.ServiceInfo, ttl time.Duration, maxTries int, log *zap.Logger) error {
	conn := connection.New(addr, maxTries, log)
	defer conn.Close()

	req := message.NewEnvelope(message.PayloadRegisterService, message.RegisterServicePayload{
		Name:     info.Name,
		Endpoint: info.Endpoint,
		Kind:     info.Kind,
		Tags:     info.Tags,
		TtlSecs:  uint64(math.Ceil(ttl.Seconds())),
	})
	if err := conn.Send(ctx, req); err != nil {
		return werr.Registration(werr.CodeRegistryUnreachable, "register "+info.Name, err)
	}
	resp, err := conn.Receive(ctx)
	if err != nil {
		return werr.Registration(werr.CodeRegistryUnreachable, "await ServiceRegistered for "+info.Name, err)
	}
	switch resp.Payload.(type) {
	case message.ServiceRegisteredPayload:
		return nil
	case message.ErrorPayload:
		return werr.Registration(werr.CodeRegistryRejected, "registry rejected "+info.Name, nil)
	default:
		return werr.Registration(werr.CodeRegistryRejected, "unexpected reply registering "+info.Name, nil)
	}
}

// Unregister performs a best-effort UnregisterService round trip. Errors are
// not fatal — callers (typically a shutdown path) should log and continue.
func Unregister(ctx context.Context, addr, name string, maxTries int, log *zap.Logger) error {
	conn := connection.New(addr, maxTries, log)
	defer conn.Close()

	req := message.NewEnvelope(message.PayloadUnregisterService, message.UnregisterServicePayload{Name: name})
	if err := conn.Send(ctx, req); err != nil {
		return werr.Registration(werr.CodeRegistryUnreachable, "unregister "+name, err)
	}
	_, err := conn.Receive(ctx)
	return err
}

// Discover performs one DiscoverServices/ServicesDiscovered round trip,
// backing client.discover(pattern) (spec.md §4.7).
func Discover(ctx context.Context, addr, pattern string, maxTries int, log *zap.Logger) ([]message.ServiceInfo, error) {
	conn := connection.New(addr, maxTries, log)
	defer conn.Close()

	req := message.NewEnvelope(message.PayloadDiscoverServices, message.DiscoverServicesPayload{Pattern: pattern})
	if err := conn.Send(ctx, req); err != nil {
		return nil, werr.Discovery(werr.CodeServiceNotFound, "discover "+pattern)
	}
	resp, err := conn.Receive(ctx)
	if err != nil {
		return nil, werr.Discovery(werr.CodeServiceNotFound, "await ServicesDiscovered for "+pattern)
	}
	sd, ok := resp.Payload.(message.ServicesDiscoveredPayload)
	if !ok {
		return nil, werr.Discovery(werr.CodeServiceNotFound, "unexpected reply discovering "+pattern)
	}
	return sd.Services, nil
}

// RunHeartbeat re-registers info every interval until stop is closed. Per
// spec.md §4.4/§4.5/§9, re-registration is the only renewal mechanism —
// there is no dedicated heartbeat wire message. A failed re-register is
// logged and retried on the next tick rather than treated as fatal: only the
// initial Register at start() is fatal.
func RunHeartbeat(addr string, info message.ServiceInfo, ttl, interval time.Duration, maxTries int, log *zap.Logger, stop <-chan struct{}) {
	if log == nil {
		log = zap.NewNop()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := Register(ctx, addr, info, ttl, maxTries, log)
			cancel()
			if err != nil {
				log.Warn("heartbeat re-register failed, will retry", zap.String("name", info.Name), zap.Error(err))
			}
		}
	}
}
