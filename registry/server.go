package registry

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mvishiu11/WIND/codec"
	"github.com/mvishiu11/WIND/internal/werr"
	"github.com/mvishiu11/WIND/message"
	"github.com/mvishiu11/WIND/protocol"
)

// Server binds a TCP endpoint and fronts a Store with the request dispatch
// described in spec.md §4.3: decode -> handle -> encode response -> loop,
// each request handled independently of connection identity.
//
// Grounded on BX-D-mini-RPC/server/server.go's Serve/handleConn accept-loop
// shape, narrowed to the registry's four handled payloads with no
// middleware chain (the registry has nothing to wrap) and an errgroup
// supervising the accept loop and the TTL sweeper together.
type Server struct {
	Store *Store

	listener net.Listener
	log      *zap.Logger
}

// NewServer constructs a Server over store. A nil logger falls back to Nop.
func NewServer(store *Store, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{Store: store, log: log}
}

// ListenAndServe binds addr, starts the sweeper at sweepInterval, and runs
// the accept loop until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string, sweepInterval time.Duration) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return werr.Transport("listen on registry bind address", err)
	}
	s.listener = ln
	s.log.Info("registry server listening", zap.String("addr", ln.Addr().String()))

	group, gctx := errgroup.WithContext(ctx)
	stopSweep := make(chan struct{})

	group.Go(func() error {
		s.Store.RunSweeper(sweepInterval, stopSweep)
		return nil
	})

	group.Go(func() error {
		<-gctx.Done()
		close(stopSweep)
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
					return werr.Transport("accept registry connection", err)
				}
			}
			go s.handleConn(conn)
		}
	})

	return group.Wait()
}

// Addr returns the bound listener address, useful when the server was
// started on an ephemeral port.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

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

		resp := s.handle(env)

		out, err := codec.EncodeEnvelope(resp)
		if err != nil {
			s.log.Error("failed to encode registry response", zap.Error(err))
			return
		}
		if err := protocol.EncodeFrame(conn, out); err != nil {
			return
		}
	}
}

// handle dispatches one request envelope, per spec.md §4.3. Unknown or
// unsupported payloads (e.g. Heartbeat, Subscribe) get
// Error{code=UnsupportedOnRegistry}.
func (s *Server) handle(env message.Envelope) message.Envelope {
	switch p := env.Payload.(type) {
	case message.PingPayload:
		return message.NewEnvelope(message.PayloadPong, message.PongPayload{})

	case message.RegisterServicePayload:
		info := message.ServiceInfo{
			Name:           p.Name,
			Endpoint:       p.Endpoint,
			Kind:           p.Kind,
			Tags:           p.Tags,
			RegisteredAtUs: env.TimestampUs,
		}
		s.Store.Register(info, time.Duration(p.TtlSecs)*time.Second)
		return message.NewEnvelope(message.PayloadServiceRegistered, message.ServiceRegisteredPayload{Name: p.Name})

	case message.UnregisterServicePayload:
		s.Store.Unregister(p.Name)
		return message.NewEnvelope(message.PayloadServiceUnregistered, message.ServiceUnregisteredPayload{Name: p.Name})

	case message.DiscoverServicesPayload:
		services := s.Store.Lookup(p.Pattern)
		return message.NewEnvelope(message.PayloadServicesDiscovered, message.ServicesDiscoveredPayload{Services: services})

	default:
		return message.NewEnvelope(message.PayloadError, message.ErrorPayload{
			Code:    "UnsupportedOnRegistry",
			Message: "payload not supported by the registry server",
		})
	}
}
