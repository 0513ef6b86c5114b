package physics

import (
	"errors"
	"sort"

	"github.com/annel0/frozen-forest/internal/vec"
)

// BodyKind тип твёрдого тела
type BodyKind int

const (
	// Static тело не двигается интегратором и не выталкивается
	Static BodyKind = iota
	// Dynamic тело интегрируется и выталкивается из статичных тел
	Dynamic
)

var ErrBodyNotFound = errors.New("body not found")

// Body физическое тело. ID совпадает с ID сущности-владельца.
type Body struct {
	ID       uint64
	Position vec.Vec2Float
	Velocity vec.Vec2Float
	Damping  float64
	Kind     BodyKind
	Sensor   bool
	Shape    Shape
	Layers   CollisionLayers
}

// AABB ограничивающий прямоугольник тела
func (b *Body) AABB() (vec.Vec2Float, vec.Vec2Float) {
	return b.Shape.AABB(b.Position)
}

// World хранит тела и рассчитывает контакты. Используется только из игрового цикла.
type World struct {
	bodies    map[uint64]*Body
	index     *SpatialIndex
	colliding map[uint64][]uint64
}

// NewWorld создаёт физический мир с ячейкой индекса cellSize
func NewWorld(cellSize float64) *World {
	return &World{
		bodies:    make(map[uint64]*Body),
		index:     NewSpatialIndex(cellSize),
		colliding: make(map[uint64][]uint64),
	}
}

// Add добавляет тело (или заменяет тело с тем же ID)
func (w *World) Add(b *Body) {
	w.bodies[b.ID] = b
	min, max := b.AABB()
	w.index.Insert(b.ID, min, max)
}

// Remove удаляет тело. Отсутствующий ID игнорируется.
func (w *World) Remove(id uint64) {
	if _, ok := w.bodies[id]; !ok {
		return
	}
	delete(w.bodies, id)
	w.index.Remove(id)
	delete(w.colliding, id)
}

// Get возвращает тело по ID
func (w *World) Get(id uint64) (*Body, bool) {
	b, ok := w.bodies[id]
	return b, ok
}

// SetVelocity задаёт скорость тела
func (w *World) SetVelocity(id uint64, v vec.Vec2Float) error {
	b, ok := w.bodies[id]
	if !ok {
		return ErrBodyNotFound
	}
	b.Velocity = v
	return nil
}

// Len количество тел
func (w *World) Len() int {
	return len(w.bodies)
}

// Index пространственный индекс мира (для статистики)
func (w *World) Index() *SpatialIndex {
	return w.index
}

// PointQuery возвращает ID тел, чьи слои пересекаются с mask и форма содержит точку.
func (w *World) PointQuery(point vec.Vec2Float, mask Layer) []uint64 {
	result := make([]uint64, 0)
	for _, id := range w.index.QueryPoint(point) {
		b := w.bodies[id]
		if b == nil || !b.Layers.Memberships.Has(mask) {
			continue
		}
		if b.Shape.Contains(b.Position, point) {
			result = append(result, id)
		}
	}
	return result
}

// Colliding возвращает ID тел, пересекавшихся с телом на последнем шаге (сенсоры включены)
func (w *World) Colliding(id uint64) []uint64 {
	return w.colliding[id]
}

// Step продвигает симуляцию на dt секунд:
// интегрирование и затухание скоростей, сбор контактов, выталкивание твёрдых тел.
func (w *World) Step(dt float64) {
	ids := w.sortedIDs()

	for _, id := range ids {
		b := w.bodies[id]
		if b.Kind != Dynamic {
			continue
		}
		b.Position = b.Position.Add(b.Velocity.Mul(dt))
		if b.Damping > 0 {
			b.Velocity = b.Velocity.Mul(1 / (1 + dt*b.Damping))
		}
		w.reindex(b)
	}

	// Контакты собираются до выталкивания, иначе касающиеся тела их теряют
	w.colliding = w.collectContacts(ids)

	for _, id := range ids {
		b := w.bodies[id]
		if b.Kind != Dynamic || b.Sensor {
			continue
		}
		w.resolve(b)
	}
}

func (w *World) collectContacts(ids []uint64) map[uint64][]uint64 {
	contacts := make(map[uint64][]uint64)
	for _, id := range ids {
		b := w.bodies[id]
		min, max := b.AABB()
		for _, otherID := range w.index.QueryRect(min, max) {
			// Каждую пару рассматриваем один раз
			if otherID <= id {
				continue
			}
			other := w.bodies[otherID]
			// Два статичных тела не дают контактов
			if b.Kind == Static && other.Kind == Static {
				continue
			}
			if !b.Layers.Interacts(other.Layers) {
				continue
			}
			if Overlaps(b.Shape, b.Position, other.Shape, other.Position) {
				contacts[id] = append(contacts[id], otherID)
				contacts[otherID] = append(contacts[otherID], id)
			}
		}
	}
	for id := range contacts {
		sort.Slice(contacts[id], func(i, j int) bool { return contacts[id][i] < contacts[id][j] })
	}
	return contacts
}

func (w *World) resolve(b *Body) {
	min, max := b.AABB()
	for _, otherID := range w.index.QueryRect(min, max) {
		if otherID == b.ID {
			continue
		}
		other := w.bodies[otherID]
		if other.Sensor || !b.Layers.Interacts(other.Layers) {
			continue
		}
		push, ok := Penetration(b.Shape, b.Position, other.Shape, other.Position)
		if !ok {
			continue
		}
		if other.Kind == Static {
			b.Position = b.Position.Add(push)
		} else {
			// Два динамических тела расталкиваются поровну
			half := push.Mul(0.5)
			b.Position = b.Position.Add(half)
			other.Position = other.Position.Sub(half)
			w.reindex(other)
		}
		w.reindex(b)
	}
}

func (w *World) reindex(b *Body) {
	min, max := b.AABB()
	w.index.Insert(b.ID, min, max)
}

func (w *World) sortedIDs() []uint64 {
	ids := make([]uint64, 0, len(w.bodies))
	for id := range w.bodies {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
