package entity

// EntityType тип сущности, используется в AttackableFrom
type EntityType uint8

const (
	EntityTypePlayer EntityType = iota
	EntityTypeMob
	EntityTypeWall
	EntityTypeSpell  // Снаряды игрока (огненный шар)
	EntityTypeAttack // Короткоживущие зоны урона: удар, взрыв
)

func (t EntityType) String() string {
	switch t {
	case EntityTypePlayer:
		return "player"
	case EntityTypeMob:
		return "mob"
	case EntityTypeWall:
		return "wall"
	case EntityTypeSpell:
		return "spell"
	case EntityTypeAttack:
		return "attack"
	default:
		return "unknown"
	}
}

// Health здоровье сущности
type Health struct {
	Current float64
	Max     float64
}

// Fraction доля оставшегося здоровья для полоски HP
func (h Health) Fraction() float64 {
	if h.Max <= 0 {
		return 0
	}
	f := h.Current / h.Max
	if f < 0 {
		return 0
	}
	return f
}

// HitOnce атака, которая наносит урон каждой цели не более одного раза за время жизни
type HitOnce struct {
	// Source тип, от имени которого наносится урон (проверяется в AttackableFrom цели)
	Source  EntityType
	Damaged map[uint64]struct{}
}

// NewHitOnce создаёт атаку от имени source
func NewHitOnce(source EntityType) *HitOnce {
	return &HitOnce{Source: source, Damaged: make(map[uint64]struct{})}
}

// Mark отмечает цель. Возвращает false, если цель уже получала урон от этой атаки.
func (h *HitOnce) Mark(id uint64) bool {
	if _, ok := h.Damaged[id]; ok {
		return false
	}
	h.Damaged[id] = struct{}{}
	return true
}

// Mob компонент моба с конечным автоматом ИИ
type Mob struct {
	Speed float64
	State State
}
