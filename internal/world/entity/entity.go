package entity

import (
	"github.com/annel0/frozen-forest/internal/physics"
	"github.com/annel0/frozen-forest/internal/vec"
)

// Entity сущность с типизированными необязательными компонентами (nil = компонента нет).
// Позиция и скорость копируются из физического тела после шага физики.
type Entity struct {
	ID       uint64
	Type     EntityType
	Position vec.Vec2Float
	Velocity vec.Vec2Float
	Active   bool

	Body *physics.Body // nil для сущностей без коллайдера

	Health         *Health
	Damage         float64
	AttackableFrom []EntityType // от кого сущность может получить урон
	AttackTimer    *Timer       // повторяющийся таймер урона при контакте
	DamageCooldown *Timer       // неуязвимость после урона
	DespawnTimer   *Timer       // удаление по истечении
	AttackCooldown *Timer       // кулдаун атаки игрока
	HitOnce        *HitOnce
	Fireball       bool
	Mob            *Mob
}

// NewEntity создаёт сущность без компонентов
func NewEntity(entityType EntityType, position vec.Vec2Float) *Entity {
	return &Entity{
		Type:     entityType,
		Position: position,
		Active:   true,
	}
}

// WithBody прикрепляет физическое тело. Позиция тела берётся из сущности.
func (e *Entity) WithBody(kind physics.BodyKind, shape physics.Shape, layers physics.CollisionLayers) *Entity {
	e.Body = &physics.Body{
		Position: e.Position,
		Velocity: e.Velocity,
		Kind:     kind,
		Shape:    shape,
		Layers:   layers,
	}
	return e
}

// IsAttackableFrom проверяет, может ли сущность получить урон от типа t
func (e *Entity) IsAttackableFrom(t EntityType) bool {
	if e.Health == nil {
		return false
	}
	for _, from := range e.AttackableFrom {
		if from == t {
			return true
		}
	}
	return false
}

// SetVelocity задаёт скорость сущности и её тела
func (e *Entity) SetVelocity(v vec.Vec2Float) {
	e.Velocity = v
	if e.Body != nil {
		e.Body.Velocity = v
	}
}

// syncFromBody копирует позицию и скорость из физического тела
func (e *Entity) syncFromBody() {
	if e.Body == nil {
		return
	}
	e.Position = e.Body.Position
	e.Velocity = e.Body.Velocity
}

// Update обновляет ИИ моба
func (e *Entity) Update(worldAPI WorldAPI) {
	if e.Mob == nil || e.Mob.State == nil {
		return
	}
	newState := e.Mob.State.Update(e, worldAPI)
	if newState != e.Mob.State {
		e.Mob.State.Exit(e)
		e.Mob.State = newState
		e.Mob.State.Enter(e)
	}
}

// SetState устанавливает новое состояние ИИ
func (e *Entity) SetState(state State) {
	if e.Mob == nil {
		return
	}
	if e.Mob.State != nil {
		e.Mob.State.Exit(e)
	}

	e.Mob.State = state

	if e.Mob.State != nil {
		e.Mob.State.Enter(e)
	}
}
