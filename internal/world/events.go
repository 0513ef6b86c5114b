package world

import (
	"github.com/annel0/frozen-forest/internal/vec"
)

// EventType определяет тип события мира
type EventType uint8

const (
	EventTypeTileHover     EventType = iota // Указатель над закрытым тайлом
	EventTypeTileActivated                  // Закрытый тайл открыт
	EventTypeTileSpawned                    // Создан закрытый тайл на границе
)

func (t EventType) String() string {
	switch t {
	case EventTypeTileHover:
		return "tile.hover"
	case EventTypeTileActivated:
		return "tile.activated"
	case EventTypeTileSpawned:
		return "tile.spawned"
	default:
		return "unknown"
	}
}

// Event интерфейс событий мира
type Event interface {
	GetType() EventType
}

// TileHoverEvent: указатель находится над закрытым тайлом в этом кадре.
// Одно событие на тайл за кадр, между кадрами не дедуплицируется.
type TileHoverEvent struct {
	Coord vec.Vec2
}

// GetType возвращает тип события
func (e TileHoverEvent) GetType() EventType {
	return EventTypeTileHover
}

// TileActivatedEvent тайл перешёл из закрытого в открытый
type TileActivatedEvent struct {
	Coord vec.Vec2 `json:"coord"`
}

// GetType возвращает тип события
func (e TileActivatedEvent) GetType() EventType {
	return EventTypeTileActivated
}

// TileSpawnedEvent на границе создан закрытый тайл
type TileSpawnedEvent struct {
	Coord vec.Vec2 `json:"coord"`
}

// GetType возвращает тип события
func (e TileSpawnedEvent) GetType() EventType {
	return EventTypeTileSpawned
}
