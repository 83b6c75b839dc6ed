// Package message defines WIND's envelope and payload variants — the
// "what" exchanged over every framed connection (registry, publisher, RPC).
package message

import (
	"time"

	"github.com/google/uuid"

	"github.com/mvishiu11/WIND/value"
)

// PayloadType discriminates the Envelope's Payload.
type PayloadType byte

const (
	PayloadPing PayloadType = iota
	PayloadPong
	PayloadRegisterService
	PayloadServiceRegistered
	PayloadUnregisterService
	PayloadServiceUnregistered
	PayloadDiscoverServices
	PayloadServicesDiscovered
	PayloadSubscribe
	PayloadSubscribeAck
	PayloadUnsubscribe
	PayloadPublish
	PayloadRpcCall
	PayloadRpcResponse
	PayloadError
	// PayloadHeartbeat is reserved: defined on the wire but unhandled by any
	// server in this spec (spec.md §9). The RPC server and publisher reply
	// Error{UnsupportedPayload}; the registry replies Error{UnsupportedOnRegistry}.
	PayloadHeartbeat
)

// ServiceKind distinguishes the two producer roles in the registry.
type ServiceKind byte

const (
	KindPublisher ServiceKind = iota
	KindRpcServer
)

func (k ServiceKind) String() string {
	if k == KindRpcServer {
		return "RpcServer"
	}
	return "Publisher"
}

// Mode discriminates SubscriptionMode.
type Mode byte

const (
	ModeOnce Mode = iota
	ModeOnChange
	ModePeriodic
)

// SubscriptionMode is the per-subscriber server-side delivery filter.
type SubscriptionMode struct {
	Mode     Mode
	PeriodUs uint64 // only meaningful when Mode == ModePeriodic
}

// Reliability discriminates QosParams.Reliability.
type Reliability byte

const (
	ReliabilityBestEffort Reliability = iota
	ReliabilityReliable
)

// Durability discriminates QosParams.Durability. Declarative only per
// spec.md §3 — no runtime path interprets it.
type Durability byte

const (
	DurabilityVolatile Durability = iota
	DurabilityPersistent
)

// QosParams carries delivery-quality knobs. BufferDepth sets the per-slot
// channel capacity and Reliability chooses between blocking (Reliable) and
// dropping the oldest queued update (BestEffort) when that channel is full;
// Durability is declarative.
type QosParams struct {
	Reliability Reliability
	Durability  Durability
	BufferDepth int
}

// DefaultQos mirrors spec.md §6's qos.buffer_depth default of 1024.
func DefaultQos() QosParams {
	return QosParams{Reliability: ReliabilityBestEffort, Durability: DurabilityVolatile, BufferDepth: 1024}
}

// ServiceInfo describes one live registry entry as returned by discovery.
type ServiceInfo struct {
	Name           string
	Endpoint       string
	Kind           ServiceKind
	Tags           []string
	RegisteredAtUs uint64
}

// Envelope is the outer wrapper for every message exchanged on the wire.
type Envelope struct {
	ID          uuid.UUID
	TimestampUs uint64
	Type        PayloadType
	Payload     any // one of the Payload* structs below, matching Type
}

// NewEnvelope stamps a fresh ID and sender-local timestamp.
func NewEnvelope(t PayloadType, payload any) Envelope {
	return Envelope{
		ID:          uuid.New(),
		TimestampUs: uint64(time.Now().UnixMicro()),
		Type:        t,
		Payload:     payload,
	}
}

// Payload variants, discriminated by Envelope.Type.

type PingPayload struct{}
type PongPayload struct{}

type RegisterServicePayload struct {
	Name     string
	Endpoint string
	Kind     ServiceKind
	Tags     []string
	TtlSecs  uint64
}

type ServiceRegisteredPayload struct {
	Name string
}

type UnregisterServicePayload struct {
	Name string
}

type ServiceUnregisteredPayload struct {
	Name string
}

type DiscoverServicesPayload struct {
	Pattern string
}

type ServicesDiscoveredPayload struct {
	Services []ServiceInfo
}

type SubscribePayload struct {
	Service string
	Mode    SubscriptionMode
	Qos     QosParams
	SchemaID string // empty means absent
}

type SubscribeAckPayload struct {
	Ok           bool
	CurrentValue *value.V // nil means absent
	SchemaID     string
}

type UnsubscribePayload struct {
	Service string
}

type PublishPayload struct {
	Service  string
	Value    value.V
	Sequence uint64
	SchemaID string
}

type RpcCallPayload struct {
	CallID   uuid.UUID
	Service  string
	Method   string
	Params   value.V
	SchemaID string
}

// RpcResult is Result<V, string>: exactly one of Ok/Err is meaningful,
// discriminated by IsErr.
type RpcResult struct {
	IsErr bool
	Ok    value.V
	Err   string
}

func Ok(v value.V) RpcResult   { return RpcResult{Ok: v} }
func Err(msg string) RpcResult { return RpcResult{IsErr: true, Err: msg} }

type RpcResponsePayload struct {
	CallID   uuid.UUID
	Result   RpcResult
	SchemaID string
}

type ErrorPayload struct {
	Code    string
	Message string
}

type HeartbeatPayload struct{}
