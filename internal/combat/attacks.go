package combat

import (
	"github.com/annel0/frozen-forest/internal/physics"
	"github.com/annel0/frozen-forest/internal/vec"
	"github.com/annel0/frozen-forest/internal/world/entity"
)

// Размеры капсулы удара и взрыва
const (
	attackCapsuleHeight = 18.0
	attackCapsuleRadius = 6.0
	// fireballOffset расстояние от центра игрока до точки появления шара
	fireballOffset = 50.0
)

// NewMeleeAttack создаёт сенсор удара на расстоянии 2r от игрока в направлении dir
func NewMeleeAttack(playerPos, dir vec.Vec2Float, playerRadius, damage, lifetime float64) *entity.Entity {
	dir = dir.Normalized()
	pos := playerPos.Add(dir.Mul(playerRadius * 2))

	e := entity.NewEntity(entity.EntityTypeAttack, pos).WithBody(
		physics.Static,
		physics.Capsule(attackCapsuleHeight, attackCapsuleRadius, dir.Angle()),
		physics.NewCollisionLayers(physics.LayerPlayer, physics.LayerMob),
	)
	e.Body.Sensor = true
	e.Damage = damage
	e.HitOnce = entity.NewHitOnce(entity.EntityTypePlayer)
	e.DespawnTimer = entity.NewTimer(lifetime, entity.TimerOnce)
	return e
}

// NewFireball создаёт огненный шар, летящий из игрока в направлении dir
func NewFireball(playerPos, dir vec.Vec2Float, speed, radius, damage float64) *entity.Entity {
	dir = dir.Normalized()
	e := entity.NewEntity(entity.EntityTypeSpell, playerPos.Add(dir.Mul(fireballOffset)))
	e.Velocity = dir.Mul(speed)
	e.WithBody(
		physics.Dynamic,
		physics.Circle(radius),
		physics.NewCollisionLayers(physics.LayerFireball, physics.LayerAll),
	)
	e.Damage = damage
	e.Fireball = true
	return e
}

// NewExplosion создаёт сенсор взрыва огненного шара в точке pos
func NewExplosion(pos vec.Vec2Float, damage, lifetime float64) *entity.Entity {
	e := entity.NewEntity(entity.EntityTypeAttack, pos).WithBody(
		physics.Static,
		physics.Capsule(attackCapsuleHeight, attackCapsuleRadius, 0),
		physics.NewCollisionLayers(physics.LayerFireball, physics.LayerMob),
	)
	e.Body.Sensor = true
	e.Damage = damage
	e.HitOnce = entity.NewHitOnce(entity.EntityTypePlayer)
	e.DespawnTimer = entity.NewTimer(lifetime, entity.TimerOnce)
	return e
}
