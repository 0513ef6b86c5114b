package network

import (
	"encoding/json"
	"fmt"
)

// MessageType тип сообщения WebSocket
type MessageType string

const (
	MsgTypeSnapshot MessageType = "snapshot" // сервер -> клиент
	MsgTypeInput    MessageType = "input"    // клиент -> сервер
	MsgTypePing     MessageType = "ping"
	MsgTypePong     MessageType = "pong"
	MsgTypeError    MessageType = "error"
)

// Message конверт всех JSON сообщений
type Message struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// ErrorMessage полезная нагрузка MsgTypeError
type ErrorMessage struct {
	Content string `json:"content"`
}

// NewMessage упаковывает payload в конверт
func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	msg := &Message{Type: msgType}
	if payload == nil {
		return msg, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации %s: %w", msgType, err)
	}
	msg.Data = data
	return msg, nil
}

// Decode распаковывает Data в out
func (m *Message) Decode(out interface{}) error {
	if len(m.Data) == 0 {
		return fmt.Errorf("сообщение %s без данных", m.Type)
	}
	return json.Unmarshal(m.Data, out)
}

func encodeMessage(msgType MessageType, payload interface{}) ([]byte, error) {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(msg)
}
