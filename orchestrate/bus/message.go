package bus

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Message is the envelope carried by every transport. Data holds the JSON
// encoding of the typed payload; Type tags the payload schema so receivers
// can ignore messages they do not understand.
type Message struct {
	ID        string          `json:"id"`
	Channel   string          `json:"channel"`
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage encodes payload as JSON and wraps it in a Message tagged with
// msgType. The channel is filled in by Publish.
func NewMessage(msgType string, payload any) (Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("failed to encode %s payload: %w", msgType, err)
	}

	return Message{
		ID:        generateID(),
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now(),
	}, nil
}

// Decode unmarshals the payload into v.
func (m Message) Decode(v any) error {
	if len(m.Data) == 0 {
		return fmt.Errorf("message %s has no payload", m.ID)
	}
	if err := json.Unmarshal(m.Data, v); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", m.Type, err)
	}
	return nil
}

func (m Message) String() string {
	return fmt.Sprintf("Message{ID: %s, Channel: %s, Type: %s}", m.ID, m.Channel, m.Type)
}

// stamp fills in the fields a transport owns before the message leaves.
func (m Message) stamp(channel string) Message {
	m.Channel = channel
	if m.ID == "" {
		m.ID = generateID()
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}
	return m
}

func encode(m Message) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode message: %w", err)
	}
	return data, nil
}

func decode(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("failed to decode message: %w", err)
	}
	return m, nil
}

func generateID() string {
	return uuid.Must(uuid.NewV7()).String()
}
