package entity

import (
	"errors"
	"fmt"
	"sort"

	"github.com/annel0/frozen-forest/internal/logging"
	"github.com/annel0/frozen-forest/internal/physics"
	"github.com/annel0/frozen-forest/internal/vec"
)

var (
	ErrEntityNotFound  = errors.New("entity not found")
	ErrNoActivePlayer  = errors.New("no active player")
	ErrAmbiguousPlayer = errors.New("more than one player")
)

// EntityManager хранит сущности и их физические тела.
// Создание, удаление и изменение компонентов откладываются в Commands и применяются в Apply.
type EntityManager struct {
	entities     map[uint64]*Entity
	physics      *physics.World
	nextEntityID uint64
	commands     Commands
	logger       *logging.Logger
}

// NewEntityManager создаёт новый менеджер сущностей
func NewEntityManager(phys *physics.World) *EntityManager {
	em := &EntityManager{
		entities:     make(map[uint64]*Entity),
		physics:      phys,
		nextEntityID: 1,
		logger:       logging.GetGameLogger(),
	}
	em.commands.reserve = em.allocateID
	return em
}

// Commands буфер отложенных изменений до ближайшей точки синхронизации
func (em *EntityManager) Commands() *Commands {
	return &em.commands
}

// GetEntity возвращает сущность по ID. Удалённая сущность не находится.
func (em *EntityManager) GetEntity(entityID uint64) (*Entity, bool) {
	e, ok := em.entities[entityID]
	return e, ok
}

// MustEntity возвращает сущность или ErrEntityNotFound
func (em *EntityManager) MustEntity(entityID uint64) (*Entity, error) {
	e, ok := em.entities[entityID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrEntityNotFound, entityID)
	}
	return e, nil
}

// Len количество сущностей
func (em *EntityManager) Len() int {
	return len(em.entities)
}

// All возвращает сущности в порядке ID
func (em *EntityManager) All() []*Entity {
	out := make([]*Entity, 0, len(em.entities))
	for _, e := range em.entities {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Each вызывает fn для активных сущностей типа t в порядке ID
func (em *EntityManager) Each(t EntityType, fn func(e *Entity)) {
	for _, e := range em.All() {
		if e.Active && e.Type == t {
			fn(e)
		}
	}
}

// CountByType количество сущностей каждого типа
func (em *EntityManager) CountByType() map[EntityType]int {
	out := make(map[EntityType]int)
	for _, e := range em.entities {
		out[e.Type]++
	}
	return out
}

// Player возвращает единственного игрока
func (em *EntityManager) Player() (*Entity, error) {
	var player *Entity
	for _, e := range em.entities {
		if e.Type != EntityTypePlayer || !e.Active {
			continue
		}
		if player != nil {
			return nil, ErrAmbiguousPlayer
		}
		player = e
	}
	if player == nil {
		return nil, ErrNoActivePlayer
	}
	return player, nil
}

// PlayerPosition реализует WorldAPI для ИИ мобов
func (em *EntityManager) PlayerPosition() (vec.Vec2Float, bool) {
	p, err := em.Player()
	if err != nil {
		return vec.Zero, false
	}
	return p.Position, true
}

// SyncFromPhysics копирует позиции и скорости тел в сущности после шага физики
func (em *EntityManager) SyncFromPhysics() {
	for _, e := range em.entities {
		e.syncFromBody()
	}
}

// Apply применяет отложенные команды: создание, изменения, удаление
func (em *EntityManager) Apply() {
	cmds := em.commands
	em.commands = Commands{reserve: em.commands.reserve}

	for _, e := range cmds.spawns {
		em.insert(e)
	}

	for _, m := range cmds.modifies {
		e, ok := em.entities[m.id]
		if !ok {
			em.logger.Debug("Пропуск изменения: %v %d", ErrEntityNotFound, m.id)
			continue
		}
		m.fn(e)
	}

	for _, id := range cmds.despawns {
		em.remove(id)
	}
}

// Spawn сразу добавляет сущность (инициализация мира, восстановление). Возвращает ID.
func (em *EntityManager) Spawn(e *Entity) uint64 {
	if e.ID == 0 {
		e.ID = em.allocateID()
	}
	em.insert(e)
	return e.ID
}

func (em *EntityManager) insert(e *Entity) {
	if e.ID >= em.nextEntityID {
		em.nextEntityID = e.ID + 1
	}
	em.entities[e.ID] = e
	if e.Body != nil {
		e.Body.ID = e.ID
		e.Body.Position = e.Position
		e.Body.Velocity = e.Velocity
		em.physics.Add(e.Body)
	}
}

func (em *EntityManager) remove(id uint64) {
	e, ok := em.entities[id]
	if !ok {
		// Повторное удаление в одном кадре допустимо
		return
	}
	e.Active = false
	if e.Body != nil {
		em.physics.Remove(id)
	}
	delete(em.entities, id)
}

func (em *EntityManager) allocateID() uint64 {
	id := em.nextEntityID
	em.nextEntityID++
	return id
}

type modify struct {
	id uint64
	fn func(e *Entity)
}

// Commands буфер отложенных команд
type Commands struct {
	spawns   []*Entity
	modifies []modify
	despawns []uint64
	reserve  func() uint64
}

// Spawn откладывает создание сущности. ID выдаётся сразу.
func (c *Commands) Spawn(e *Entity) uint64 {
	if c.reserve != nil && e.ID == 0 {
		e.ID = c.reserve()
	}
	c.spawns = append(c.spawns, e)
	return e.ID
}

// Modify откладывает изменение компонентов сущности (insert/remove)
func (c *Commands) Modify(id uint64, fn func(e *Entity)) {
	c.modifies = append(c.modifies, modify{id: id, fn: fn})
}

// Despawn откладывает удаление сущности
func (c *Commands) Despawn(id uint64) {
	c.despawns = append(c.despawns, id)
}

// Pending количество отложенных команд
func (c *Commands) Pending() int {
	return len(c.spawns) + len(c.modifies) + len(c.despawns)
}
