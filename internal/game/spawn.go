package game

import (
	"github.com/annel0/frozen-forest/internal/config"
	"github.com/annel0/frozen-forest/internal/physics"
	"github.com/annel0/frozen-forest/internal/vec"
	"github.com/annel0/frozen-forest/internal/world/entity"
)

// Параметры стены
const (
	wallSize   = 100.0
	wallHealth = 20.0
)

// NewPlayer собирает сущность игрока
func NewPlayer(gp config.GameplayConfig, pos vec.Vec2Float) *entity.Entity {
	e := entity.NewEntity(entity.EntityTypePlayer, pos).WithBody(
		physics.Dynamic,
		physics.Circle(gp.PlayerRadius),
		physics.NewCollisionLayers(physics.LayerPlayer|physics.LayerEntity, physics.LayerAll),
	)
	e.Body.Damping = gp.LinearDamping
	e.Health = &entity.Health{Current: float64(gp.MaxPlayerHealth), Max: float64(gp.MaxPlayerHealth)}
	e.AttackableFrom = []entity.EntityType{entity.EntityTypeMob}
	e.Damage = float64(gp.PlayerDamage)
	e.AttackCooldown = entity.NewElapsedTimer(gp.PlayerAttackCooldown)
	return e
}

// NewMob собирает моба. ИИ стартует в состоянии покоя.
func NewMob(gp config.GameplayConfig, pos vec.Vec2Float) *entity.Entity {
	e := entity.NewEntity(entity.EntityTypeMob, pos).WithBody(
		physics.Dynamic,
		physics.Box(gp.MobWidth, gp.MobHeight),
		physics.NewCollisionLayers(physics.LayerMob|physics.LayerEntity, physics.LayerAll),
	)
	e.Health = &entity.Health{Current: float64(gp.MobHealth), Max: float64(gp.MobHealth)}
	e.AttackableFrom = []entity.EntityType{entity.EntityTypePlayer}
	e.Damage = float64(gp.MobDamage)
	e.AttackTimer = entity.NewTimer(gp.MobAttackCooldown, entity.TimerRepeating)
	e.Mob = &entity.Mob{Speed: gp.MobSpeed}
	e.SetState(entity.NewIdleState())
	return e
}

// wallCenter центр стены, которая появляется в новом мире
var wallCenter = vec.Vec2Float{X: 100, Y: 100}

// NewWallAt собирает стену с центром в center
func NewWallAt(center vec.Vec2Float) *entity.Entity {
	return NewWall(center.Sub(vec.Vec2Float{X: wallSize / 2, Y: wallSize / 2}))
}

// NewWall собирает разрушаемую стену с левым нижним углом в min
func NewWall(min vec.Vec2Float) *entity.Entity {
	center, shape := physics.BoxAt(min, wallSize, wallSize)
	e := entity.NewEntity(entity.EntityTypeWall, center).WithBody(
		physics.Static,
		shape,
		physics.NewCollisionLayers(physics.LayerWall, physics.LayerAll),
	)
	e.Health = &entity.Health{Current: wallHealth, Max: wallHealth}
	e.AttackableFrom = []entity.EntityType{entity.EntityTypeMob}
	return e
}
