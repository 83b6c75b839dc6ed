package codec

import (
	"bytes"

	"github.com/google/uuid"

	"github.com/mvishiu11/WIND/internal/werr"
	"github.com/mvishiu11/WIND/message"
	"github.com/mvishiu11/WIND/value"
)

func writeUUID(buf *bytes.Buffer, u uuid.UUID) {
	buf.Write(u[:])
}

func (c *cursor) readUUID() (uuid.UUID, error) {
	b, err := c.readBytes(16)
	if err != nil {
		return uuid.UUID{}, err
	}
	var u uuid.UUID
	copy(u[:], b)
	return u, nil
}

func writeTags(buf *bytes.Buffer, tags []string) {
	writeU32(buf, uint32(len(tags)))
	for _, t := range tags {
		writeString(buf, t)
	}
}

func (c *cursor) readTags() ([]string, error) {
	n, err := c.readU32()
	if err != nil {
		return nil, err
	}
	tags := make([]string, 0, n)
	for i := uint32(0); i < n; i++ {
		s, err := c.readString()
		if err != nil {
			return nil, err
		}
		tags = append(tags, s)
	}
	return tags, nil
}

func writeServiceInfo(buf *bytes.Buffer, s message.ServiceInfo) {
	writeString(buf, s.Name)
	writeString(buf, s.Endpoint)
	buf.WriteByte(byte(s.Kind))
	writeTags(buf, s.Tags)
	writeU64(buf, s.RegisteredAtUs)
}

func (c *cursor) readServiceInfo() (message.ServiceInfo, error) {
	name, err := c.readString()
	if err != nil {
		return message.ServiceInfo{}, err
	}
	endpoint, err := c.readString()
	if err != nil {
		return message.ServiceInfo{}, err
	}
	kindByte, err := c.readByte()
	if err != nil {
		return message.ServiceInfo{}, err
	}
	tags, err := c.readTags()
	if err != nil {
		return message.ServiceInfo{}, err
	}
	registeredAt, err := c.readU64()
	if err != nil {
		return message.ServiceInfo{}, err
	}
	return message.ServiceInfo{
		Name:           name,
		Endpoint:       endpoint,
		Kind:           message.ServiceKind(kindByte),
		Tags:           tags,
		RegisteredAtUs: registeredAt,
	}, nil
}

func writeSubscriptionMode(buf *bytes.Buffer, m message.SubscriptionMode) {
	buf.WriteByte(byte(m.Mode))
	writeU64(buf, m.PeriodUs)
}

func (c *cursor) readSubscriptionMode() (message.SubscriptionMode, error) {
	modeByte, err := c.readByte()
	if err != nil {
		return message.SubscriptionMode{}, err
	}
	period, err := c.readU64()
	if err != nil {
		return message.SubscriptionMode{}, err
	}
	return message.SubscriptionMode{Mode: message.Mode(modeByte), PeriodUs: period}, nil
}

func writeQos(buf *bytes.Buffer, q message.QosParams) {
	buf.WriteByte(byte(q.Reliability))
	buf.WriteByte(byte(q.Durability))
	writeU32(buf, uint32(q.BufferDepth))
}

func (c *cursor) readQos() (message.QosParams, error) {
	rel, err := c.readByte()
	if err != nil {
		return message.QosParams{}, err
	}
	dur, err := c.readByte()
	if err != nil {
		return message.QosParams{}, err
	}
	depth, err := c.readU32()
	if err != nil {
		return message.QosParams{}, err
	}
	return message.QosParams{
		Reliability: message.Reliability(rel),
		Durability:  message.Durability(dur),
		BufferDepth: int(depth),
	}, nil
}

// EncodeEnvelope produces the deterministic binary encoding of e.
//
// Wire shape: [16-byte ID][8-byte TimestampUs][1-byte Type][payload bytes].
func EncodeEnvelope(e message.Envelope) ([]byte, error) {
	var buf bytes.Buffer
	writeUUID(&buf, e.ID)
	writeU64(&buf, e.TimestampUs)
	buf.WriteByte(byte(e.Type))

	switch p := e.Payload.(type) {
	case message.PingPayload, message.PongPayload, message.HeartbeatPayload:
		// no body
	case message.RegisterServicePayload:
		writeString(&buf, p.Name)
		writeString(&buf, p.Endpoint)
		buf.WriteByte(byte(p.Kind))
		writeTags(&buf, p.Tags)
		writeU64(&buf, p.TtlSecs)
	case message.ServiceRegisteredPayload:
		writeString(&buf, p.Name)
	case message.UnregisterServicePayload:
		writeString(&buf, p.Name)
	case message.ServiceUnregisteredPayload:
		writeString(&buf, p.Name)
	case message.DiscoverServicesPayload:
		writeString(&buf, p.Pattern)
	case message.ServicesDiscoveredPayload:
		writeU32(&buf, uint32(len(p.Services)))
		for _, s := range p.Services {
			writeServiceInfo(&buf, s)
		}
	case message.SubscribePayload:
		writeString(&buf, p.Service)
		writeSubscriptionMode(&buf, p.Mode)
		writeQos(&buf, p.Qos)
		writeString(&buf, p.SchemaID)
	case message.SubscribeAckPayload:
		if p.Ok {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
		if p.CurrentValue != nil {
			buf.WriteByte(1)
			EncodeValue(&buf, *p.CurrentValue)
		} else {
			buf.WriteByte(0)
		}
		writeString(&buf, p.SchemaID)
	case message.UnsubscribePayload:
		writeString(&buf, p.Service)
	case message.PublishPayload:
		writeString(&buf, p.Service)
		EncodeValue(&buf, p.Value)
		writeU64(&buf, p.Sequence)
		writeString(&buf, p.SchemaID)
	case message.RpcCallPayload:
		writeUUID(&buf, p.CallID)
		writeString(&buf, p.Service)
		writeString(&buf, p.Method)
		EncodeValue(&buf, p.Params)
		writeString(&buf, p.SchemaID)
	case message.RpcResponsePayload:
		writeUUID(&buf, p.CallID)
		if p.Result.IsErr {
			buf.WriteByte(1)
			writeString(&buf, p.Result.Err)
		} else {
			buf.WriteByte(0)
			EncodeValue(&buf, p.Result.Ok)
		}
		writeString(&buf, p.SchemaID)
	case message.ErrorPayload:
		writeString(&buf, p.Code)
		writeString(&buf, p.Message)
	default:
		return nil, werr.Protocol(werr.CodeUnsupportedPayload, "unknown payload type for encoding")
	}

	if buf.Len() > 1<<24 {
		// Individual envelopes are also bounded by the frame cap (§4.1);
		// the framing layer enforces the hard 16 MiB limit on encode, this
		// is a defense against building an unreasonably large buffer first.
		return nil, werr.Framing(werr.CodeMessageTooLarge, "encoded envelope exceeds frame cap", nil)
	}
	return buf.Bytes(), nil
}

// DecodeEnvelope reverses EncodeEnvelope.
func DecodeEnvelope(data []byte) (message.Envelope, error) {
	c := &cursor{data: data}

	id, err := c.readUUID()
	if err != nil {
		return message.Envelope{}, err
	}
	ts, err := c.readU64()
	if err != nil {
		return message.Envelope{}, err
	}
	typeByte, err := c.readByte()
	if err != nil {
		return message.Envelope{}, err
	}
	t := message.PayloadType(typeByte)

	var payload any
	switch t {
	case message.PayloadPing:
		payload = message.PingPayload{}
	case message.PayloadPong:
		payload = message.PongPayload{}
	case message.PayloadHeartbeat:
		payload = message.HeartbeatPayload{}
	case message.PayloadRegisterService:
		name, err := c.readString()
		if err != nil {
			return message.Envelope{}, err
		}
		endpoint, err := c.readString()
		if err != nil {
			return message.Envelope{}, err
		}
		kindByte, err := c.readByte()
		if err != nil {
			return message.Envelope{}, err
		}
		tags, err := c.readTags()
		if err != nil {
			return message.Envelope{}, err
		}
		ttl, err := c.readU64()
		if err != nil {
			return message.Envelope{}, err
		}
		payload = message.RegisterServicePayload{
			Name: name, Endpoint: endpoint, Kind: message.ServiceKind(kindByte), Tags: tags, TtlSecs: ttl,
		}
	case message.PayloadServiceRegistered:
		name, err := c.readString()
		if err != nil {
			return message.Envelope{}, err
		}
		payload = message.ServiceRegisteredPayload{Name: name}
	case message.PayloadUnregisterService:
		name, err := c.readString()
		if err != nil {
			return message.Envelope{}, err
		}
		payload = message.UnregisterServicePayload{Name: name}
	case message.PayloadServiceUnregistered:
		name, err := c.readString()
		if err != nil {
			return message.Envelope{}, err
		}
		payload = message.ServiceUnregisteredPayload{Name: name}
	case message.PayloadDiscoverServices:
		pattern, err := c.readString()
		if err != nil {
			return message.Envelope{}, err
		}
		payload = message.DiscoverServicesPayload{Pattern: pattern}
	case message.PayloadServicesDiscovered:
		n, err := c.readU32()
		if err != nil {
			return message.Envelope{}, err
		}
		services := make([]message.ServiceInfo, 0, n)
		for i := uint32(0); i < n; i++ {
			si, err := c.readServiceInfo()
			if err != nil {
				return message.Envelope{}, err
			}
			services = append(services, si)
		}
		payload = message.ServicesDiscoveredPayload{Services: services}
	case message.PayloadSubscribe:
		service, err := c.readString()
		if err != nil {
			return message.Envelope{}, err
		}
		mode, err := c.readSubscriptionMode()
		if err != nil {
			return message.Envelope{}, err
		}
		qos, err := c.readQos()
		if err != nil {
			return message.Envelope{}, err
		}
		schemaID, err := c.readString()
		if err != nil {
			return message.Envelope{}, err
		}
		payload = message.SubscribePayload{Service: service, Mode: mode, Qos: qos, SchemaID: schemaID}
	case message.PayloadSubscribeAck:
		okByte, err := c.readByte()
		if err != nil {
			return message.Envelope{}, err
		}
		presentByte, err := c.readByte()
		if err != nil {
			return message.Envelope{}, err
		}
		var current *value.V
		if presentByte != 0 {
			v, err := DecodeValue(c)
			if err != nil {
				return message.Envelope{}, err
			}
			current = &v
		}
		schemaID, err := c.readString()
		if err != nil {
			return message.Envelope{}, err
		}
		payload = message.SubscribeAckPayload{Ok: okByte != 0, CurrentValue: current, SchemaID: schemaID}
	case message.PayloadUnsubscribe:
		service, err := c.readString()
		if err != nil {
			return message.Envelope{}, err
		}
		payload = message.UnsubscribePayload{Service: service}
	case message.PayloadPublish:
		service, err := c.readString()
		if err != nil {
			return message.Envelope{}, err
		}
		v, err := DecodeValue(c)
		if err != nil {
			return message.Envelope{}, err
		}
		seq, err := c.readU64()
		if err != nil {
			return message.Envelope{}, err
		}
		schemaID, err := c.readString()
		if err != nil {
			return message.Envelope{}, err
		}
		payload = message.PublishPayload{Service: service, Value: v, Sequence: seq, SchemaID: schemaID}
	case message.PayloadRpcCall:
		callID, err := c.readUUID()
		if err != nil {
			return message.Envelope{}, err
		}
		service, err := c.readString()
		if err != nil {
			return message.Envelope{}, err
		}
		method, err := c.readString()
		if err != nil {
			return message.Envelope{}, err
		}
		params, err := DecodeValue(c)
		if err != nil {
			return message.Envelope{}, err
		}
		schemaID, err := c.readString()
		if err != nil {
			return message.Envelope{}, err
		}
		payload = message.RpcCallPayload{CallID: callID, Service: service, Method: method, Params: params, SchemaID: schemaID}
	case message.PayloadRpcResponse:
		callID, err := c.readUUID()
		if err != nil {
			return message.Envelope{}, err
		}
		isErrByte, err := c.readByte()
		if err != nil {
			return message.Envelope{}, err
		}
		var result message.RpcResult
		if isErrByte != 0 {
			s, err := c.readString()
			if err != nil {
				return message.Envelope{}, err
			}
			result = message.Err(s)
		} else {
			v, err := DecodeValue(c)
			if err != nil {
				return message.Envelope{}, err
			}
			result = message.Ok(v)
		}
		schemaID, err := c.readString()
		if err != nil {
			return message.Envelope{}, err
		}
		payload = message.RpcResponsePayload{CallID: callID, Result: result, SchemaID: schemaID}
	case message.PayloadError:
		code, err := c.readString()
		if err != nil {
			return message.Envelope{}, err
		}
		msg, err := c.readString()
		if err != nil {
			return message.Envelope{}, err
		}
		payload = message.ErrorPayload{Code: code, Message: msg}
	default:
		return message.Envelope{}, werr.Framing(werr.CodeMalformed, "unknown payload type tag", nil)
	}

	return message.Envelope{ID: id, TimestampUs: ts, Type: t, Payload: payload}, nil
}
