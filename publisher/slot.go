package publisher

import (
	"net"

	"github.com/mvishiu11/WIND/message"
	"github.com/mvishiu11/WIND/value"
)

// update is one (value, sequence) pair carried on a slot's bus channel —
// spec.md §4.4's broadcast_tx item, narrowed to per-slot delivery: rather
// than one shared broadcast channel fed by many receiver registrations
// (as other_examples/8020159e_wyf-ACCEPT-eth2030__pkg-rpc-subscription_manager.go.go
// models it), each slot owns its own bounded channel and publish() fans
// values out by iterating the client map directly. This keeps the
// BestEffort drop-oldest / Reliable backpressure policy (§5) a per-slot
// decision driven by that slot's own QosParams, since Subscribe carries
// qos per subscriber rather than publisher-wide.
type update struct {
	value    value.V
	sequence uint64
}

// slot is spec.md §4.4's SubscriberSlot. Only the owning client task
// (the goroutine running in (*Publisher).handleConn) mutates
// lastSentValue/lastSentAtUs/exhaustedOnce, so no lock guards them; bus
// is safe for concurrent send (from publish) and receive (from the
// owning task) because it's a channel.
type slot struct {
	id   string
	conn net.Conn
	mode message.SubscriptionMode
	qos  message.QosParams
	bus  chan update

	lastSentValue *value.V
	lastSentAtUs  uint64
	exhaustedOnce bool
}
