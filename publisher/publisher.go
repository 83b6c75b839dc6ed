// Package publisher implements WIND's fan-out engine, spec.md §4.4: a
// named, registered TCP endpoint that holds the last-published value and
// streams updates to any number of subscribers, each filtered by its own
// delivery mode (Once/OnChange/Periodic).
//
// There is no direct teacher equivalent for this component —
// BX-D-mini-RPC is purely request/response. The accept-loop/per-connection
// task shape is grounded on BX-D-mini-RPC/server/server.go's
// Serve/handleConn structure; the broadcast-fan-out-to-many-slow-readers
// idea is grounded on other_examples/c337f856_adred-codev-ws_poc__ws-internal-shared-broadcast.go.go
// and other_examples/8020159e_wyf-ACCEPT-eth2030__pkg-rpc-subscription_manager.go.go.
// golang.org/x/sync/errgroup supervises the accept/heartbeat/shutdown
// trio, same as registry/server.go and rpcserver/server.go.
package publisher

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mvishiu11/WIND/codec"
	"github.com/mvishiu11/WIND/internal/werr"
	"github.com/mvishiu11/WIND/message"
	"github.com/mvishiu11/WIND/protocol"
	"github.com/mvishiu11/WIND/registry"
	"github.com/mvishiu11/WIND/value"
)

// Publisher is one named update stream.
type Publisher struct {
	name             string
	bindEndpoint     string
	registryEndpoint string
	log              *zap.Logger

	mu           sync.RWMutex
	currentValue *value.V
	sequence     uint64

	clientsMu sync.RWMutex
	clients   map[string]*slot

	listener net.Listener
}

// New constructs a Publisher named name, to be bound at bindAddr and
// registered against the registry at registryAddr. A nil logger falls
// back to Nop.
func New(name, bindAddr, registryAddr string, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{
		name:             name,
		bindEndpoint:     bindAddr,
		registryEndpoint: registryAddr,
		log:              log,
		clients:          make(map[string]*slot),
	}
}

// Addr returns the bound listener address, or nil before Start binds it.
func (p *Publisher) Addr() net.Addr {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.listener == nil {
		return nil
	}
	return p.listener.Addr()
}

// Start binds the listener, registers with the registry (fatal on
// rejection, per spec.md §7's Registration category), and spawns the
// accept, heartbeat, and shutdown-supervisor tasks described in
// spec.md §4.4. It blocks until ctx is cancelled or a task errors.
func (p *Publisher) Start(ctx context.Context, ttl, heartbeatInterval time.Duration, connectMaxTries int) error {
	ln, err := net.Listen("tcp", p.bindEndpoint)
	if err != nil {
		return werr.Transport("listen on publisher bind address", err)
	}
	p.mu.Lock()
	p.listener = ln
	p.mu.Unlock()

	info := message.ServiceInfo{Name: p.name, Endpoint: ln.Addr().String(), Kind: message.KindPublisher}
	regCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err = registry.Register(regCtx, p.registryEndpoint, info, ttl, connectMaxTries, p.log)
	cancel()
	if err != nil {
		ln.Close()
		return err
	}
	p.log.Info("publisher registered", zap.String("name", p.name), zap.String("endpoint", info.Endpoint))

	group, gctx := errgroup.WithContext(ctx)
	stopHeartbeat := make(chan struct{})

	group.Go(func() error {
		registry.RunHeartbeat(p.registryEndpoint, info, ttl, heartbeatInterval, connectMaxTries, p.log, stopHeartbeat)
		return nil
	})

	group.Go(func() error {
		<-gctx.Done()
		close(stopHeartbeat)
		p.closeAllClients()
		unregCtx, unregCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer unregCancel()
		if err := registry.Unregister(unregCtx, p.registryEndpoint, p.name, connectMaxTries, p.log); err != nil {
			p.log.Warn("best-effort unregister failed on shutdown", zap.String("name", p.name), zap.Error(err))
		}
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
					return werr.Transport("accept publisher connection", err)
				}
			}
			go p.handleConn(conn)
		}
	})

	return group.Wait()
}

func (p *Publisher) closeAllClients() {
	p.clientsMu.Lock()
	defer p.clientsMu.Unlock()
	for _, s := range p.clients {
		s.conn.Close()
	}
}

// Publish sets current_value, increments sequence, and fans the update
// out to every connected slot per spec.md §4.4: BestEffort drops the
// oldest queued update for a full slot; Reliable blocks until the slot's
// queue frees capacity.
func (p *Publisher) Publish(v value.V) {
	p.mu.Lock()
	vCopy := v
	p.currentValue = &vCopy
	p.sequence++
	seq := p.sequence
	p.mu.Unlock()

	u := update{value: v, sequence: seq}

	p.clientsMu.RLock()
	slots := make([]*slot, 0, len(p.clients))
	for _, s := range p.clients {
		slots = append(slots, s)
	}
	p.clientsMu.RUnlock()

	for _, s := range slots {
		if s.qos.Reliability == message.ReliabilityReliable {
			s.bus <- u
			continue
		}
		select {
		case s.bus <- u:
		default:
			select {
			case <-s.bus:
			default:
			}
			select {
			case s.bus <- u:
			default:
			}
		}
	}
}

// handleConn is one client task: reads the initial Subscribe, replies
// SubscribeAck, then runs the dual-input loop spec.md §4.4 describes —
// subscriber frames (only Unsubscribe/close are actionable) on one side,
// mode-filtered broadcast updates on the other.
func (p *Publisher) handleConn(conn net.Conn) {
	defer conn.Close()

	payload, err := protocol.DecodeFrame(conn)
	if err != nil {
		return
	}
	env, err := codec.DecodeEnvelope(payload)
	if err != nil {
		return
	}
	sub, ok := env.Payload.(message.SubscribePayload)
	if !ok {
		resp := message.NewEnvelope(message.PayloadError, message.ErrorPayload{
			Code: werr.CodeUnsupportedPayload, Message: "expected Subscribe on a publisher connection",
		})
		if out, err := codec.EncodeEnvelope(resp); err == nil {
			protocol.EncodeFrame(conn, out)
		}
		return
	}

	bufDepth := sub.Qos.BufferDepth
	if bufDepth <= 0 {
		bufDepth = message.DefaultQos().BufferDepth
	}

	s := &slot{id: uuid.NewString(), conn: conn, mode: sub.Mode, qos: sub.Qos, bus: make(chan update, bufDepth)}

	p.clientsMu.Lock()
	p.clients[s.id] = s
	p.clientsMu.Unlock()
	defer func() {
		p.clientsMu.Lock()
		delete(p.clients, s.id)
		p.clientsMu.Unlock()
	}()

	p.mu.RLock()
	cur := p.currentValue
	p.mu.RUnlock()

	ack := message.SubscribeAckPayload{Ok: true, SchemaID: sub.SchemaID}
	if cur != nil {
		v := *cur
		ack.CurrentValue = &v
	}
	ackOut, err := codec.EncodeEnvelope(message.NewEnvelope(message.PayloadSubscribeAck, ack))
	if err != nil {
		return
	}
	if err := protocol.EncodeFrame(conn, ackOut); err != nil {
		return
	}

	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			payload, err := protocol.DecodeFrame(conn)
			if err != nil {
				return
			}
			e, err := codec.DecodeEnvelope(payload)
			if err != nil {
				return
			}
			if _, ok := e.Payload.(message.UnsubscribePayload); ok {
				return
			}
		}
	}()

	for {
		select {
		case <-readDone:
			return
		case u, ok := <-s.bus:
			if !ok {
				return
			}
			nowUs := uint64(time.Now().UnixMicro())
			if !shouldDeliver(s, u.value, nowUs) {
				continue
			}

			pub := message.PublishPayload{Service: p.name, Value: u.value, Sequence: u.sequence, SchemaID: sub.SchemaID}
			out, err := codec.EncodeEnvelope(message.NewEnvelope(message.PayloadPublish, pub))
			if err != nil {
				continue
			}
			if err := protocol.EncodeFrame(conn, out); err != nil {
				return
			}
			vCopy := u.value
			s.lastSentValue = &vCopy
			s.lastSentAtUs = nowUs
			if s.mode.Mode == message.ModeOnce {
				s.exhaustedOnce = true
				return
			}
		}
	}
}
