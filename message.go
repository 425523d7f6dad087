package inspectbridge

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// Message is one decoded inbound envelope from the inspection peer.
//
// ID is nil when the peer does not expect a reply; its absence is a
// type-level fact the dispatcher handles, not a runtime surprise.
type Message struct {
	Method string
	Params map[string]any
	ID     *int64
}

// DecodeMessage parses a raw JSON frame into a Message. Transports that
// receive undecoded bytes use this at the edge; transports that already
// carry structured values use MessageFromPayload instead.
func DecodeMessage(data []byte) (Message, error) {
	if !gjson.ValidBytes(data) {
		return Message{}, fmt.Errorf("message frame is not valid JSON")
	}
	frame := gjson.ParseBytes(data)

	method := frame.Get("method")
	if !method.Exists() || method.Type != gjson.String {
		return Message{}, fmt.Errorf("message frame has no method field")
	}

	msg := Message{Method: method.String()}
	if params := frame.Get("params"); params.IsObject() {
		if m, ok := params.Value().(map[string]any); ok {
			msg.Params = m
		}
	}
	if id := frame.Get("id"); id.Exists() {
		v := id.Int()
		msg.ID = &v
	}
	return msg, nil
}

// MessageFromPayload converts an already-decoded structured value into a
// Message. Numeric ids arrive as float64 from JSON-shaped decoders and as
// int64 from others; both are accepted.
func MessageFromPayload(payload map[string]any) (Message, error) {
	method, ok := payload["method"].(string)
	if !ok || method == "" {
		return Message{}, fmt.Errorf("payload has no method field")
	}

	msg := Message{Method: method}
	if params, ok := payload["params"].(map[string]any); ok {
		msg.Params = params
	}
	if raw, ok := payload["id"]; ok {
		switch v := raw.(type) {
		case int64:
			msg.ID = &v
		case int:
			id := int64(v)
			msg.ID = &id
		case float64:
			id := int64(v)
			msg.ID = &id
		default:
			return Message{}, fmt.Errorf("payload id has unsupported type %T", raw)
		}
	}
	return msg, nil
}

// stringParam extracts a required string parameter from a params object.
func stringParam(params map[string]any, key string) (string, error) {
	v, ok := params[key]
	if !ok {
		return "", fmt.Errorf("missing param %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("param %q is %T, want string", key, v)
	}
	return s, nil
}

// Outbound envelope shapes. These mirror the wire protocol exactly; see the
// package documentation for the full set.

func refreshPluginsMessage() map[string]any {
	return map[string]any{"method": "refreshPlugins"}
}

func errorEnvelope(message string) map[string]any {
	return map[string]any{
		"error": map[string]any{
			"message":    message,
			"stacktrace": "<none>",
		},
	}
}

func unknownMethodPayload(method string) map[string]any {
	return map[string]any{"message": "Received unknown method: " + method}
}
