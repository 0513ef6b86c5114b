// Package protocol описывает снимок состояния мира для REST, WebSocket и хранилища.
package protocol

// TileState состояние тайла в снимке
type TileState struct {
	X    int32 `json:"x"`
	Y    int32 `json:"y"`
	Open bool  `json:"open"`
}

// EntityState состояние сущности в снимке
type EntityState struct {
	ID        uint64  `json:"id"`
	Type      string  `json:"type"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	VX        float64 `json:"vx"`
	VY        float64 `json:"vy"`
	Health    float64 `json:"health,omitempty"`
	MaxHealth float64 `json:"max_health,omitempty"`
}

// Snapshot полное состояние мира на кадр Frame
type Snapshot struct {
	Frame          uint64        `json:"frame"`
	Seed           int64         `json:"seed"`
	Tiles          []TileState   `json:"tiles"`
	Entities       []EntityState `json:"entities"`
	PlayerID       uint64        `json:"player_id,omitempty"`
	HealthFraction float64       `json:"health_fraction"`
	SelectedSlot   int32         `json:"selected_slot"`
	CameraX        float64       `json:"camera_x"`
	CameraY        float64       `json:"camera_y"`
}

// OpenTiles количество открытых тайлов в снимке
func (s *Snapshot) OpenTiles() int {
	n := 0
	for _, t := range s.Tiles {
		if t.Open {
			n++
		}
	}
	return n
}
