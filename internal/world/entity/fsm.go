package entity

import (
	"github.com/annel0/frozen-forest/internal/vec"
)

// State представляет состояние конечного автомата ИИ
type State interface {
	Name() string
	Enter(entity *Entity)
	Update(entity *Entity, worldAPI WorldAPI) State
	Exit(entity *Entity)
}

// WorldAPI то, что ИИ видит в мире
type WorldAPI interface {
	// PlayerPosition позиция единственного игрока; false если игрока нет
	PlayerPosition() (vec.Vec2Float, bool)
}

// === Конкретные состояния ===

// IdleState - моб стоит, пока нет игрока
type IdleState struct{}

// NewIdleState создаёт новое состояние бездействия
func NewIdleState() *IdleState {
	return &IdleState{}
}

func (s *IdleState) Name() string { return "idle" }

func (s *IdleState) Enter(entity *Entity) {
	// Останавливаем движение
	entity.SetVelocity(vec.Zero)
}

func (s *IdleState) Update(entity *Entity, worldAPI WorldAPI) State {
	if _, ok := worldAPI.PlayerPosition(); ok {
		return NewChaseState()
	}
	return s
}

func (s *IdleState) Exit(entity *Entity) {}

// ChaseState - моб бежит к игроку
type ChaseState struct{}

// NewChaseState создаёт новое состояние преследования
func NewChaseState() *ChaseState {
	return &ChaseState{}
}

func (s *ChaseState) Name() string { return "chase" }

func (s *ChaseState) Enter(entity *Entity) {}

func (s *ChaseState) Update(entity *Entity, worldAPI WorldAPI) State {
	target, ok := worldAPI.PlayerPosition()
	if !ok {
		return NewIdleState()
	}

	// Скорость пересчитывается каждый кадр: направление на игрока * скорость моба
	dir := target.Sub(entity.Position).Normalized()
	entity.SetVelocity(dir.Mul(entity.Mob.Speed))
	return s
}

func (s *ChaseState) Exit(entity *Entity) {}
