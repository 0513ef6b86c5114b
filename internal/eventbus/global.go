package eventbus

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Типы игровых событий (subject events.<type> в JetStream)
const (
	TypeTileActivated     = "tile.activated"
	TypeEntityDamaged     = "entity.damaged"
	TypeEntityDied        = "entity.died"
	TypePlayerAttack      = "player.attack"
	TypeInventorySelected = "inventory.selected"
)

// DefaultSource имя источника событий игрового сервера
const DefaultSource = "frozen-forest"

// NewEnvelope упаковывает payload в JSON-конверт с новым UUID
func NewEnvelope(eventType string, frame uint64, payload any) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return &Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    DefaultSource,
		EventType: eventType,
		Version:   1,
		Frame:     frame,
		Payload:   data,
	}, nil
}

// Decode распаковывает полезную нагрузку конверта
func (e *Envelope) Decode(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.EventType, err)
	}
	return nil
}
