// Package client implements WIND's client façade (spec.md §4.7):
// discover/subscribe/call against a registry endpoint, each interaction
// opening a fresh connection rather than sharing a pool.
//
// Grounded on BX-D-mini-RPC/client/client.go's discovery -> dial -> send ->
// await-response call shape, narrowed to exact-name discovery and
// connection-per-interaction (no balancer, no shared transport map — the
// teacher's round-robin/pool machinery is dropped, see DESIGN.md).
package client

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mvishiu11/WIND/connection"
	"github.com/mvishiu11/WIND/internal/werr"
	"github.com/mvishiu11/WIND/message"
	"github.com/mvishiu11/WIND/registry"
	"github.com/mvishiu11/WIND/value"
)

// Client is a façade over one registry endpoint.
type Client struct {
	registryAddr    string
	connectMaxTries int
	rpcTimeout      time.Duration
	log             *zap.Logger
}

// New constructs a Client. rpcTimeout <= 0 falls back to the spec.md §6
// default of 10s; connectMaxTries <= 0 falls back to 10 (§4.6). A nil
// logger falls back to Nop.
func New(registryAddr string, rpcTimeout time.Duration, connectMaxTries int, log *zap.Logger) *Client {
	if rpcTimeout <= 0 {
		rpcTimeout = 10 * time.Second
	}
	if connectMaxTries <= 0 {
		connectMaxTries = 10
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{registryAddr: registryAddr, rpcTimeout: rpcTimeout, connectMaxTries: connectMaxTries, log: log}
}

// Discover opens a fresh connection to the registry and exchanges one
// DiscoverServices/ServicesDiscovered round trip.
func (c *Client) Discover(ctx context.Context, pattern string) ([]message.ServiceInfo, error) {
	return registry.Discover(ctx, c.registryAddr, pattern, c.connectMaxTries, c.log)
}

func (c *Client) discoverExact(ctx context.Context, service string) (message.ServiceInfo, error) {
	found, err := registry.Discover(ctx, c.registryAddr, service, c.connectMaxTries, c.log)
	if err != nil {
		return message.ServiceInfo{}, err
	}
	if len(found) == 0 {
		return message.ServiceInfo{}, werr.Discovery(werr.CodeServiceNotFound, service)
	}
	return found[0], nil
}

// Subscription is a live stream opened by Subscribe. Callers must call
// Close when done to release the connection and, with it, the publisher's
// subscriber slot.
type Subscription struct {
	conn          *connection.Connection
	cachedCurrent *value.V
	yieldedCached bool
	periodic      bool
}

// Close releases the subscription's connection.
func (s *Subscription) Close() error { return s.conn.Close() }

// Next blocks for the next V in the stream, matching spec.md §4.7 step 4-5:
// the cached current_value is yielded first (when the mode isn't
// Periodic), then subsequent Publish frames are decoded and yielded in
// order.
func (s *Subscription) Next(ctx context.Context) (value.V, error) {
	if !s.yieldedCached {
		s.yieldedCached = true
		if !s.periodic && s.cachedCurrent != nil {
			return *s.cachedCurrent, nil
		}
	}
	for {
		env, err := s.conn.Receive(ctx)
		if err != nil {
			return value.V{}, err
		}
		pub, ok := env.Payload.(message.PublishPayload)
		if !ok {
			continue
		}
		return pub.Value, nil
	}
}

// Subscribe implements spec.md §4.7's subscribe(service, mode, qos): exact
// discovery, a fresh connection to the publisher, a Subscribe/SubscribeAck
// exchange, then a Subscription the caller drains with Next.
func (c *Client) Subscribe(ctx context.Context, service string, mode message.SubscriptionMode, qos message.QosParams) (*Subscription, error) {
	info, err := c.discoverExact(ctx, service)
	if err != nil {
		return nil, err
	}

	conn := connection.New(info.Endpoint, c.connectMaxTries, c.log)
	req := message.NewEnvelope(message.PayloadSubscribe, message.SubscribePayload{Service: service, Mode: mode, Qos: qos})
	if err := conn.Send(ctx, req); err != nil {
		conn.Close()
		return nil, err
	}
	env, err := conn.Receive(ctx)
	if err != nil {
		conn.Close()
		return nil, err
	}
	ack, ok := env.Payload.(message.SubscribeAckPayload)
	if !ok || !ack.Ok {
		conn.Close()
		return nil, werr.Protocol(werr.CodeUnsupportedPayload, "expected a successful SubscribeAck")
	}

	return &Subscription{conn: conn, cachedCurrent: ack.CurrentValue, periodic: mode.Mode == message.ModePeriodic}, nil
}

// Call implements spec.md §4.7's call(service, method, params, timeout):
// exact discovery, a fresh connection to the RPC server, an RpcCall with a
// fresh call_id, and an await bounded by timeout (falling back to the
// client's configured rpcTimeout when timeout <= 0).
func (c *Client) Call(ctx context.Context, service, method string, params value.V, timeout time.Duration) (value.V, error) {
	if timeout <= 0 {
		timeout = c.rpcTimeout
	}
	info, err := c.discoverExact(ctx, service)
	if err != nil {
		return value.V{}, err
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn := connection.New(info.Endpoint, c.connectMaxTries, c.log)
	defer conn.Close()

	callID := uuid.New()
	req := message.NewEnvelope(message.PayloadRpcCall, message.RpcCallPayload{
		CallID: callID, Service: service, Method: method, Params: params,
	})
	if err := conn.Send(callCtx, req); err != nil {
		return value.V{}, err
	}

	env, err := conn.Receive(callCtx)
	if err != nil {
		if callCtx.Err() != nil {
			return value.V{}, werr.Timeout("rpc call " + service + "." + method)
		}
		return value.V{}, err
	}
	resp, ok := env.Payload.(message.RpcResponsePayload)
	if !ok {
		return value.V{}, werr.Protocol(werr.CodeUnsupportedPayload, "expected RpcResponse")
	}
	if resp.CallID != callID {
		return value.V{}, werr.Protocol(werr.CodeUnsupportedPayload, "RpcResponse call_id does not match the RpcCall")
	}
	if resp.Result.IsErr {
		code := werr.CodeHandlerError
		if resp.Result.Err == "method not found" {
			code = werr.CodeMethodNotFound
		}
		return value.V{}, werr.RpcHandler(code, resp.Result.Err)
	}
	return resp.Result.Ok, nil
}
