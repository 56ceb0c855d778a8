package hub

import (
	"encoding/json"

	"github.com/vango-dev/composables/internal/errors"
	"github.com/vango-dev/composables/pkg/opt"
	"github.com/vango-dev/composables/pkg/storage"
)

// MessageType identifies a hub message.
type MessageType string

const (
	// TypeChange carries one storage change.
	TypeChange MessageType = "change"
)

// ServerOrigin is the origin of changes made through the REST API.
const ServerOrigin = "server"

// Message is the JSON frame exchanged over the websocket. A null value is
// encoded as JSON null.
type Message struct {
	Type     MessageType `json:"type"`
	Origin   string      `json:"origin"`
	Area     string      `json:"area"`
	Key      string      `json:"key,omitempty"`
	All      bool        `json:"all,omitempty"`
	OldValue *string     `json:"oldValue"`
	NewValue *string     `json:"newValue"`
}

// FromEvent converts a change made in the window origin into a message.
func FromEvent(origin string, ev storage.ChangeEvent) Message {
	return Message{
		Type:     TypeChange,
		Origin:   origin,
		Area:     ev.Area,
		Key:      ev.Key,
		All:      ev.AllKeys,
		OldValue: ev.OldValue.Ptr(),
		NewValue: ev.NewValue.Ptr(),
	}
}

// Event converts the message back into a change event for Tracked.Apply.
func (m Message) Event() storage.ChangeEvent {
	return storage.ChangeEvent{
		Key:      m.Key,
		AllKeys:  m.All,
		OldValue: opt.FromPtr(m.OldValue),
		NewValue: opt.FromPtr(m.NewValue),
		Area:     m.Area,
		Remote:   true,
	}
}

// Encode marshals m.
func Encode(m Message) ([]byte, error) {
	return json.Marshal(m)
}

// Decode unmarshals and validates a message. Malformed frames fail with
// E302.
func Decode(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, errors.New("E302").Wrap(err)
	}
	switch {
	case m.Type != TypeChange:
		return Message{}, errors.New("E302").WithDetailf("unknown type %q", m.Type)
	case m.Area == "":
		return Message{}, errors.New("E302").WithDetail("missing area")
	case m.Key == "" && !m.All:
		return Message{}, errors.New("E302").WithDetail("missing key")
	}
	return m, nil
}
