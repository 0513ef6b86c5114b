package world

import (
	"errors"
	"fmt"

	"github.com/annel0/frozen-forest/internal/logging"
	"github.com/annel0/frozen-forest/internal/physics"
	"github.com/annel0/frozen-forest/internal/vec"
)

// TileBodyFlag старший бит ID физических тел тайлов, чтобы они не пересекались с ID сущностей
const TileBodyFlag uint64 = 1 << 62

var (
	ErrTileNotFound    = errors.New("tile not found")
	ErrTileAlreadyOpen = errors.New("tile already open")
)

// Settings параметры тайлового мира
type Settings struct {
	Seed              int64
	TileSize          float64
	SubTiles          int
	GroundTileCount   int
	InitialHalfExtent int
	InitialOpenRadius float64
}

// IsTileBody проверяет, принадлежит ли физическое тело тайлу
func IsTileBody(id uint64) bool {
	return id&TileBodyFlag != 0
}

// World управляет тайлами «тумана войны»: реестр, наведение, открытие и граница.
// Все методы вызываются из игрового цикла.
type World struct {
	settings   Settings
	registry   *TileRegistry
	physics    *physics.World
	decor      *DecorationGenerator
	bodyTiles  map[uint64]vec.Vec2 // ID тела закрытого тайла -> координата
	nextBodyID uint64
	logger     *logging.Logger
}

// NewWorld создаёт мир тайлов поверх физического мира. Тайлы не создаются до InitArea.
func NewWorld(settings Settings, phys *physics.World) *World {
	return &World{
		settings:  settings,
		registry:  NewTileRegistry(),
		physics:   phys,
		decor:     NewDecorationGenerator(settings.Seed, settings.TileSize, settings.SubTiles, settings.GroundTileCount),
		bodyTiles: make(map[uint64]vec.Vec2),
		logger:    logging.GetWorldLogger(),
	}
}

// Settings возвращает параметры мира
func (w *World) Settings() Settings {
	return w.settings
}

// Registry возвращает реестр тайлов
func (w *World) Registry() *TileRegistry {
	return w.registry
}

// Tile возвращает тайл по координате или ErrTileNotFound
func (w *World) Tile(c vec.Vec2) (*Tile, error) {
	t, ok := w.registry.Get(c)
	if !ok {
		return nil, fmt.Errorf("%w: (%d,%d)", ErrTileNotFound, c.X, c.Y)
	}
	return t, nil
}

// CoordOf координата тайла для мировой позиции
func (w *World) CoordOf(pos vec.Vec2Float) vec.Vec2 {
	return CoordOf(pos, w.settings.TileSize)
}

// InitArea создаёт стартовую область: в квадрате ±InitialHalfExtent тайлы дальше
// InitialOpenRadius от начала координат закрыты, остальные открыты.
func (w *World) InitArea() {
	n := w.settings.InitialHalfExtent
	for x := -n; x <= n; x++ {
		for y := -n; y <= n; y++ {
			c := vec.Vec2{X: x, Y: y}
			if c.Length() > w.settings.InitialOpenRadius {
				w.SpawnClosed(c)
			} else {
				w.SpawnOpen(c)
			}
		}
	}

	open, closed := w.registry.Counts()
	w.logger.Info("🌲 Стартовая область создана: %d открытых, %d закрытых тайлов", open, closed)
}

// SpawnClosed создаёт закрытый тайл с коллайдером. Существующий тайл не трогается.
func (w *World) SpawnClosed(c vec.Vec2) bool {
	if w.registry.Has(c) {
		return false
	}

	w.nextBodyID++
	bodyID := TileBodyFlag | w.nextBodyID
	origin := OriginOf(c, w.settings.TileSize)
	center, shape := physics.BoxAt(origin, w.settings.TileSize, w.settings.TileSize)

	w.physics.Add(&physics.Body{
		ID:       bodyID,
		Position: center,
		Kind:     physics.Static,
		Shape:    shape,
		Layers:   physics.NewCollisionLayers(physics.LayerClosedTile, physics.LayerAll),
	})
	w.bodyTiles[bodyID] = c
	w.registry.Put(&Tile{Coord: c, State: TileClosed, Origin: origin, BodyID: bodyID})
	return true
}

// SpawnOpen создаёт открытый тайл с декорациями, заменяя закрытый, если он есть
func (w *World) SpawnOpen(c vec.Vec2) {
	if old, ok := w.registry.Get(c); ok {
		if old.IsOpen() {
			return
		}
		w.removeBody(old)
	}

	w.registry.Put(&Tile{
		Coord:       c,
		State:       TileOpen,
		Origin:      OriginOf(c, w.settings.TileSize),
		Decorations: w.decor.Generate(c),
	})
}

func (w *World) removeBody(t *Tile) {
	if t.BodyID == 0 {
		return
	}
	w.physics.Remove(t.BodyID)
	delete(w.bodyTiles, t.BodyID)
	t.BodyID = 0
}

// Hover возвращает события наведения для закрытых тайлов под указателем.
// Без указателя событий нет. Открытые тайлы не имеют коллайдера и не попадают в выборку.
func (w *World) Hover(pointer *vec.Vec2Float) []TileHoverEvent {
	if pointer == nil {
		return nil
	}

	var events []TileHoverEvent
	for _, id := range w.physics.PointQuery(*pointer, physics.LayerClosedTile) {
		c, ok := w.bodyTiles[id]
		if !ok {
			w.logger.Warn("Тело %d в слое закрытых тайлов без тайла, пропускаем", id)
			continue
		}
		events = append(events, TileHoverEvent{Coord: c})
	}
	return events
}

// Activate открывает тайлы из событий наведения, если в этом кадре было подтверждение.
// Без подтверждения события просто отбрасываются. Повторы одной координаты открывают тайл один раз.
func (w *World) Activate(hovers []TileHoverEvent, confirm bool) []TileActivatedEvent {
	if !confirm || len(hovers) == 0 {
		return nil
	}

	var activated []TileActivatedEvent
	seen := make(map[vec.Vec2]struct{}, len(hovers))

	for _, h := range hovers {
		if _, dup := seen[h.Coord]; dup {
			continue
		}
		seen[h.Coord] = struct{}{}

		if err := w.open(h.Coord); err != nil {
			// Устаревшее событие: тайл исчез или уже открыт
			w.logger.Debug("Пропуск активации (%d,%d): %v", h.Coord.X, h.Coord.Y, err)
			continue
		}
		activated = append(activated, TileActivatedEvent{Coord: h.Coord})
	}
	return activated
}

func (w *World) open(c vec.Vec2) error {
	t, err := w.Tile(c)
	if err != nil {
		return err
	}
	if t.IsOpen() {
		return ErrTileAlreadyOpen
	}
	w.SpawnOpen(c)
	return nil
}

// ExpandFrontier создаёт закрытые тайлы у всех отсутствующих соседей открытых тайлов
func (w *World) ExpandFrontier(activated []TileActivatedEvent) []TileSpawnedEvent {
	var spawned []TileSpawnedEvent
	for _, a := range activated {
		count := 0
		for _, n := range a.Coord.Neighbors() {
			if w.SpawnClosed(n) {
				spawned = append(spawned, TileSpawnedEvent{Coord: n})
				count++
			}
		}
		logging.LogTileActivation(a.Coord.X, a.Coord.Y, count)
	}
	return spawned
}

// TileRecord сохраняемое состояние тайла
type TileRecord struct {
	Coord vec.Vec2
	Open  bool
}

// Export возвращает состояние всех тайлов в порядке (X, Y)
func (w *World) Export() []TileRecord {
	tiles := w.registry.Tiles()
	out := make([]TileRecord, 0, len(tiles))
	for _, t := range tiles {
		out = append(out, TileRecord{Coord: t.Coord, Open: t.IsOpen()})
	}
	return out
}

// Restore заменяет все тайлы сохранёнными. Декорации пересчитываются из сида.
func (w *World) Restore(records []TileRecord) {
	for _, t := range w.registry.Tiles() {
		w.removeBody(t)
	}
	w.registry.Clear()

	for _, r := range records {
		if r.Open {
			w.SpawnOpen(r.Coord)
		} else {
			w.SpawnClosed(r.Coord)
		}
	}

	open, closed := w.registry.Counts()
	w.logger.Info("💾 Мир восстановлен: %d открытых, %d закрытых тайлов", open, closed)
}
