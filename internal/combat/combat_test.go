package combat

import (
	"testing"

	"github.com/annel0/frozen-forest/internal/physics"
	"github.com/annel0/frozen-forest/internal/vec"
	"github.com/annel0/frozen-forest/internal/world/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	phys   *physics.World
	em     *entity.EntityManager
	combat *System
}

func newFixture() *fixture {
	phys := physics.NewWorld(240)
	em := entity.NewEntityManager(phys)
	return &fixture{
		phys:   phys,
		em:     em,
		combat: NewSystem(em, phys, Settings{DamageCooldown: 0.3, ExplosionLifetime: 0.2}),
	}
}

func (f *fixture) player(pos vec.Vec2Float, health float64) *entity.Entity {
	e := entity.NewEntity(entity.EntityTypePlayer, pos).WithBody(physics.Dynamic, physics.Circle(25),
		physics.NewCollisionLayers(physics.LayerPlayer|physics.LayerEntity, physics.LayerAll))
	e.Health = &entity.Health{Current: health, Max: health}
	e.AttackableFrom = []entity.EntityType{entity.EntityTypeMob}
	e.Damage = 1
	f.em.Spawn(e)
	return e
}

func (f *fixture) mob(pos vec.Vec2Float, health float64) *entity.Entity {
	e := entity.NewEntity(entity.EntityTypeMob, pos).WithBody(physics.Dynamic, physics.Box(25, 50),
		physics.NewCollisionLayers(physics.LayerMob|physics.LayerEntity, physics.LayerAll))
	e.Health = &entity.Health{Current: health, Max: health}
	e.AttackableFrom = []entity.EntityType{entity.EntityTypePlayer}
	e.Damage = 1
	e.AttackTimer = entity.NewTimer(1, entity.TimerRepeating)
	f.em.Spawn(e)
	return e
}

func TestMobDamagesPlayerOnTimer(t *testing.T) {
	f := newFixture()
	player := f.player(vec.Zero, 10)
	f.mob(vec.Vec2Float{X: 20}, 10)

	f.phys.Step(0)
	assert.Empty(t, f.combat.CollisionDamage(0.5), "таймер атаки ещё не сработал")

	// Контакты живут до следующего шага физики
	events := f.combat.CollisionDamage(0.5)
	require.Len(t, events, 1)
	assert.Equal(t, player.ID, events[0].Target)

	deaths := f.combat.ApplyDamage(events)
	assert.Empty(t, deaths)
	assert.Equal(t, 9.0, player.Health.Current)

	f.em.Apply()
	assert.NotNil(t, player.DamageCooldown, "после урона включается кулдаун")
}

func TestDamageDedupAndCooldown(t *testing.T) {
	f := newFixture()
	mob := f.mob(vec.Vec2Float{X: 1000}, 10)

	events := []DamageEvent{{Target: mob.ID, Damage: 3}, {Target: mob.ID, Damage: 3}}
	f.combat.ApplyDamage(events)
	assert.Equal(t, 7.0, mob.Health.Current, "одно событие на цель за кадр")

	f.em.Apply()
	f.combat.ApplyDamage([]DamageEvent{{Target: mob.ID, Damage: 3}})
	assert.Equal(t, 7.0, mob.Health.Current, "кулдаун даёт неуязвимость")

	f.combat.TickCooldowns(0.3)
	f.em.Apply()
	assert.Nil(t, mob.DamageCooldown)

	f.combat.ApplyDamage([]DamageEvent{{Target: mob.ID, Damage: 3}})
	assert.Equal(t, 4.0, mob.Health.Current)
}

func TestLethalDamageDespawnsAtSyncPoint(t *testing.T) {
	f := newFixture()
	mob := f.mob(vec.Vec2Float{X: 500}, 5)

	deaths := f.combat.ApplyDamage([]DamageEvent{{Target: mob.ID, Damage: 5}})
	require.Len(t, deaths, 1)
	f.combat.RemoveDead(deaths)

	_, ok := f.em.GetEntity(mob.ID)
	assert.True(t, ok, "удаление отложено")
	f.em.Apply()
	_, ok = f.em.GetEntity(mob.ID)
	assert.False(t, ok)

	// Урон по уже удалённой цели игнорируется
	assert.NotPanics(t, func() {
		f.combat.ApplyDamage([]DamageEvent{{Target: mob.ID, Damage: 1}})
	})
}

func TestMeleeHitsEachMobOnce(t *testing.T) {
	f := newFixture()
	player := f.player(vec.Zero, 10)
	mob := f.mob(vec.Vec2Float{X: 50}, 10)

	f.em.Spawn(NewMeleeAttack(player.Position, vec.UnitX, 25, player.Damage, 0.2))

	f.phys.Step(0)
	events := f.combat.HitOnceDamage()
	require.Len(t, events, 1)
	assert.Equal(t, mob.ID, events[0].Target)

	f.phys.Step(0)
	assert.Empty(t, f.combat.HitOnceDamage(), "повторного урона от той же атаки нет")
}

func TestMeleeDoesNotHitPlayer(t *testing.T) {
	f := newFixture()
	player := f.player(vec.Zero, 10)
	attack := NewMeleeAttack(vec.Vec2Float{X: -50}, vec.UnitX, 25, 1, 0.2)
	f.em.Spawn(attack)

	f.phys.Step(0)
	assert.Empty(t, f.combat.HitOnceDamage())
	assert.Equal(t, 10.0, player.Health.Current)
}

func TestFireballExplodesOnContact(t *testing.T) {
	f := newFixture()
	mob := f.mob(vec.Vec2Float{X: 100}, 10)
	fireball := NewFireball(vec.Zero, vec.UnitX, 600, 10, 5)
	f.em.Spawn(fireball)
	assert.Equal(t, 50.0, fireball.Position.X)

	f.phys.Step(0.05) // шар долетает до моба
	f.em.SyncFromPhysics()
	explosions := f.combat.FireballContacts()
	require.Len(t, explosions, 1)
	f.em.Apply()

	_, ok := f.em.GetEntity(fireball.ID)
	assert.False(t, ok, "шар исчезает при контакте")

	f.phys.Step(0)
	events := f.combat.HitOnceDamage()
	require.Len(t, events, 1)
	assert.Equal(t, mob.ID, events[0].Target)
	assert.Equal(t, 5.0, events[0].Damage)
}

func TestDespawnTimer(t *testing.T) {
	f := newFixture()
	attack := NewMeleeAttack(vec.Zero, vec.UnitX, 25, 1, 0.2)
	f.em.Spawn(attack)

	f.combat.TickDespawnTimers(0.1)
	f.em.Apply()
	_, ok := f.em.GetEntity(attack.ID)
	assert.True(t, ok)

	f.combat.TickDespawnTimers(0.1)
	f.em.Apply()
	_, ok = f.em.GetEntity(attack.ID)
	assert.False(t, ok)
}
