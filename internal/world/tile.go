package world

import (
	"sort"

	"github.com/annel0/frozen-forest/internal/vec"
)

// TileState состояние тайла
type TileState uint8

const (
	TileClosed TileState = iota // Закрытый тайл: есть коллайдер, нет декораций
	TileOpen                    // Открытый тайл: есть декорации, нет коллайдера
)

func (s TileState) String() string {
	if s == TileOpen {
		return "open"
	}
	return "closed"
}

// Decoration под-тайл земли открытого тайла
type Decoration struct {
	Offset vec.Vec2Float `json:"offset"` // Смещение нижнего левого угла от начала тайла
	Size   float64       `json:"size"`
	Frame  int           `json:"frame"` // Индекс кадра в атласе земли
}

// Tile клетка мира. Идентичность = координата сетки.
type Tile struct {
	Coord       vec.Vec2      `json:"coord"`
	State       TileState     `json:"state"`
	Origin      vec.Vec2Float `json:"origin"`
	BodyID      uint64        `json:"-"`
	Decorations []Decoration  `json:"decorations,omitempty"`
}

// IsOpen проверяет, открыт ли тайл
func (t *Tile) IsOpen() bool {
	return t.State == TileOpen
}

// CoordOf возвращает координату тайла, покрывающего позицию: floor(pos / tileSize).
// Тайл c покрывает [c*T, (c+1)*T) по каждой оси.
func CoordOf(pos vec.Vec2Float, tileSize float64) vec.Vec2 {
	return pos.FloorDiv(tileSize)
}

// OriginOf возвращает мировую позицию нижнего левого угла тайла
func OriginOf(c vec.Vec2, tileSize float64) vec.Vec2Float {
	return vec.FromVec2(c).Mul(tileSize)
}

// TileRegistry явный реестр тайлов по координатам
type TileRegistry struct {
	tiles  map[vec.Vec2]*Tile
	open   int
	closed int
}

// NewTileRegistry создаёт пустой реестр
func NewTileRegistry() *TileRegistry {
	return &TileRegistry{tiles: make(map[vec.Vec2]*Tile)}
}

// Get возвращает тайл по координате
func (r *TileRegistry) Get(c vec.Vec2) (*Tile, bool) {
	t, ok := r.tiles[c]
	return t, ok
}

// Has проверяет наличие тайла
func (r *TileRegistry) Has(c vec.Vec2) bool {
	_, ok := r.tiles[c]
	return ok
}

// Put добавляет или заменяет тайл
func (r *TileRegistry) Put(t *Tile) {
	if old, ok := r.tiles[t.Coord]; ok {
		r.count(old.State, -1)
	}
	r.tiles[t.Coord] = t
	r.count(t.State, 1)
}

// Delete удаляет тайл
func (r *TileRegistry) Delete(c vec.Vec2) {
	if old, ok := r.tiles[c]; ok {
		r.count(old.State, -1)
		delete(r.tiles, c)
	}
}

func (r *TileRegistry) count(s TileState, d int) {
	if s == TileOpen {
		r.open += d
	} else {
		r.closed += d
	}
}

// Len общее количество тайлов
func (r *TileRegistry) Len() int {
	return len(r.tiles)
}

// Counts возвращает количество открытых и закрытых тайлов
func (r *TileRegistry) Counts() (open, closed int) {
	return r.open, r.closed
}

// Tiles возвращает тайлы, упорядоченные по (X, Y)
func (r *TileRegistry) Tiles() []*Tile {
	out := make([]*Tile, 0, len(r.tiles))
	for _, t := range r.tiles {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Coord.X != out[j].Coord.X {
			return out[i].Coord.X < out[j].Coord.X
		}
		return out[i].Coord.Y < out[j].Coord.Y
	})
	return out
}

// Clear удаляет все тайлы
func (r *TileRegistry) Clear() {
	r.tiles = make(map[vec.Vec2]*Tile)
	r.open = 0
	r.closed = 0
}
