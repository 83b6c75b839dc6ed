// Package rpcserver implements the RPC server role of spec.md §4.5: a
// method table dispatched serially per connection, fronted by a TCP accept
// loop, registering and re-registering with the registry like a publisher.
//
// Grounded on BX-D-mini-RPC/server/server.go + server/service.go's
// service/method-table organization, narrowed in two ways the teacher
// doesn't do: dispatch is serial per connection (the teacher spawns
// `go svr.handleRequest(...)` per request; spec.md §4.5 requires one
// outstanding call per connection), and methods are registered as plain
// `func(context.Context, value.V) message.RpcResult` values rather than reflected onto
// arbitrary Go method signatures — WIND's wire payload is already the
// universal value.V type, so there is no Args/Reply struct pair to
// reflect into (see DESIGN.md).
package rpcserver

import (
	"context"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/mvishiu11/WIND/codec"
	"github.com/mvishiu11/WIND/internal/werr"
	"github.com/mvishiu11/WIND/message"
	"github.com/mvishiu11/WIND/protocol"
	"github.com/mvishiu11/WIND/registry"
	"github.com/mvishiu11/WIND/value"
)

// Handler answers one RpcCall's params with a Result<V, string>. Handler
// errors (message.Err(...)) are first-class response values per spec.md
// §7 — they never abort the connection.
type Handler func(ctx context.Context, params value.V) message.RpcResult

// Server holds a read-mostly method table and fronts it with a TCP server.
type Server struct {
	mu      sync.RWMutex
	methods map[string]Handler

	listener net.Listener
	log      *zap.Logger
	limiter  *rate.Limiter // nil means unlimited
}

// NewServer constructs an empty Server. A nil logger falls back to Nop.
func NewServer(log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{methods: make(map[string]Handler), log: log}
}

// RegisterFunc binds one service.method qualified name to h. Per spec.md
// §4.5, registration is dynamic at server start and safe to call again
// later only under this internal lock (there is no explicit "freeze"
// step — the lock alone is the guard the spec allows for).
func (s *Server) RegisterFunc(service, method string, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.methods[service+"."+method] = h
}

// RegisterService binds every entry of methods under the "service."
// prefix, mirroring BX-D-mini-RPC/server/server.go's bulk
// Register(rcvr) call site ergonomics without the reflection machinery.
func (s *Server) RegisterService(service string, methods map[string]Handler) {
	for name, h := range methods {
		s.RegisterFunc(service, name, h)
	}
}

// SetRateLimit enables a token-bucket limiter shared across all connections,
// adapted from BX-D-mini-RPC/middleware/rate_limit_middleware.go. A
// rejected call returns RpcResponse{result: Err("rate limit exceeded")}
// rather than closing the connection, since rate limiting is not a
// transport failure.
func (s *Server) SetRateLimit(r float64, burst int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limiter = rate.NewLimiter(rate.Limit(r), burst)
}

// Addr returns the bound listener address, or nil before ListenAndServe
// binds it.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// ListenAndServe binds bindAddr, registers info with the registry at
// registryAddr (fatal on failure per spec.md §7's Registration category),
// then runs the accept loop and a heartbeat re-registration loop
// (interval, required for RPC-server parity per spec.md §9) until ctx is
// cancelled.
func (s *Server) ListenAndServe(ctx context.Context, bindAddr, registryAddr string, info message.ServiceInfo, ttl, heartbeatInterval time.Duration, connectMaxTries int) error {
	ln, err := net.Listen("tcp", bindAddr)
	if err != nil {
		return werr.Transport("listen on rpc server bind address", err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	info.Endpoint = ln.Addr().String()
	info.Kind = message.KindRpcServer

	regCtx, regCancel := context.WithTimeout(ctx, 5*time.Second)
	err = registry.Register(regCtx, registryAddr, info, ttl, connectMaxTries, s.log)
	regCancel()
	if err != nil {
		ln.Close()
		return err
	}
	s.log.Info("rpc server registered", zap.String("name", info.Name), zap.String("endpoint", info.Endpoint))

	group, gctx := errgroup.WithContext(ctx)
	stopHeartbeat := make(chan struct{})

	group.Go(func() error {
		registry.RunHeartbeat(registryAddr, info, ttl, heartbeatInterval, connectMaxTries, s.log, stopHeartbeat)
		return nil
	})

	group.Go(func() error {
		<-gctx.Done()
		close(stopHeartbeat)
		return ln.Close()
	})

	group.Go(func() error {
		for {
			conn, err := ln.Accept()
			if err != nil {
				select {
				case <-gctx.Done():
					return nil
				default:
					return werr.Transport("accept rpc connection", err)
				}
			}
			go s.handleConn(conn)
		}
	})

	return group.Wait()
}

// handleConn runs the serial per-connection loop required by spec.md §4.5:
// decode one frame, fully resolve a response if it was an RpcCall, write
// the response, then decode the next frame. No request is dispatched to a
// new goroutine, unlike BX-D-mini-RPC/server/server.go's handleRequest.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	for {
		payload, err := protocol.DecodeFrame(conn)
		if err != nil {
			return
		}
		env, err := codec.DecodeEnvelope(payload)
		if err != nil {
			return
		}

		resp, ok := s.handle(env)
		if !ok {
			return
		}

		out, err := codec.EncodeEnvelope(resp)
		if err != nil {
			s.log.Error("failed to encode rpc response", zap.Error(err))
			return
		}
		if err := protocol.EncodeFrame(conn, out); err != nil {
			return
		}
	}
}

// handle dispatches one request envelope. Every payload (unknown method,
// handler error, rate limiting and unsupported payloads included) yields a
// well-formed response envelope, so the bool return is always true; decode
// failures close the connection in handleConn before handle is reached.
func (s *Server) handle(env message.Envelope) (message.Envelope, bool) {
	switch p := env.Payload.(type) {
	case message.PingPayload:
		return message.NewEnvelope(message.PayloadPong, message.PongPayload{}), true

	case message.RpcCallPayload:
		return s.handleCall(p), true

	case message.HeartbeatPayload:
		// Reserved per spec.md §9 — unhandled, reply UnsupportedPayload.
		return message.NewEnvelope(message.PayloadError, message.ErrorPayload{
			Code: werr.CodeUnsupportedPayload, Message: "heartbeat payload is reserved",
		}), true

	default:
		return message.NewEnvelope(message.PayloadError, message.ErrorPayload{
			Code: werr.CodeUnsupportedPayload, Message: "payload not supported by the rpc server",
		}), true
	}
}

func (s *Server) handleCall(call message.RpcCallPayload) message.Envelope {
	s.mu.RLock()
	limiter := s.limiter
	h, ok := s.methods[call.Service+"."+call.Method]
	s.mu.RUnlock()

	if limiter != nil && !limiter.Allow() {
		return message.NewEnvelope(message.PayloadRpcResponse, message.RpcResponsePayload{
			CallID: call.CallID,
			Result: message.Err("rate limit exceeded"),
		})
	}
	if !ok {
		return message.NewEnvelope(message.PayloadRpcResponse, message.RpcResponsePayload{
			CallID: call.CallID,
			Result: message.Err("method not found"),
		})
	}

	result := h(context.Background(), call.Params)
	return message.NewEnvelope(message.PayloadRpcResponse, message.RpcResponsePayload{
		CallID:   call.CallID,
		Result:   result,
		SchemaID: call.SchemaID,
	})
}
