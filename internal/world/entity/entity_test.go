package entity

import (
	"testing"

	"github.com/annel0/frozen-forest/internal/physics"
	"github.com/annel0/frozen-forest/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMob(pos vec.Vec2Float) *Entity {
	e := NewEntity(EntityTypeMob, pos).WithBody(physics.Dynamic, physics.Box(25, 50),
		physics.NewCollisionLayers(physics.LayerMob|physics.LayerEntity, physics.LayerAll))
	e.Mob = &Mob{Speed: 200, State: NewIdleState()}
	return e
}

func TestTimerRepeating(t *testing.T) {
	timer := NewTimer(1, TimerRepeating)

	timer.Tick(0.6)
	assert.False(t, timer.Finished())
	timer.Tick(0.6)
	assert.True(t, timer.Finished(), "таймер сработал на 1.2с")
	assert.InDelta(t, 0.2, timer.Elapsed, 1e-9)
	timer.Tick(0.1)
	assert.False(t, timer.Finished(), "повторяющийся таймер завершён только в кадре срабатывания")
}

func TestTimerOnce(t *testing.T) {
	timer := NewTimer(0.3, TimerOnce)
	timer.Tick(0.3)
	assert.True(t, timer.JustFinished())
	timer.Tick(0.1)
	assert.True(t, timer.Finished())
	assert.False(t, timer.JustFinished())

	timer.Reset()
	assert.False(t, timer.Finished())

	ready := NewElapsedTimer(0.5)
	assert.True(t, ready.Finished(), "кулдаун готов сразу")
}

func TestZeroDurationRepeatingFiresEveryTick(t *testing.T) {
	timer := NewTimer(0, TimerRepeating)
	for i := 0; i < 3; i++ {
		timer.Tick(1.0 / 60)
		assert.True(t, timer.Finished())
	}
}

func TestDeferredDespawn(t *testing.T) {
	phys := physics.NewWorld(240)
	em := NewEntityManager(phys)
	id := em.Spawn(newMob(vec.Zero))

	em.Commands().Despawn(id)
	em.Commands().Despawn(id)

	_, ok := em.GetEntity(id)
	assert.True(t, ok, "до точки синхронизации сущность существует")

	em.Apply()
	_, ok = em.GetEntity(id)
	assert.False(t, ok)
	assert.Equal(t, 0, phys.Len(), "тело удалено вместе с сущностью")

	_, err := em.MustEntity(id)
	assert.ErrorIs(t, err, ErrEntityNotFound)
}

func TestDeferredSpawnReservesID(t *testing.T) {
	phys := physics.NewWorld(240)
	em := NewEntityManager(phys)

	id := em.Commands().Spawn(newMob(vec.Vec2Float{X: 10}))
	require.NotZero(t, id)
	_, ok := em.GetEntity(id)
	assert.False(t, ok)

	em.Apply()
	e, ok := em.GetEntity(id)
	require.True(t, ok)
	body, ok := phys.Get(id)
	require.True(t, ok)
	assert.Equal(t, e.Body, body)

	next := em.Spawn(NewEntity(EntityTypeWall, vec.Zero))
	assert.Greater(t, next, id)
}

func TestModifyOnDespawnedIsSkipped(t *testing.T) {
	em := NewEntityManager(physics.NewWorld(240))
	id := em.Spawn(newMob(vec.Zero))

	em.Commands().Despawn(id)
	em.Apply()

	called := false
	em.Commands().Modify(id, func(e *Entity) { called = true })
	assert.NotPanics(t, em.Apply)
	assert.False(t, called)
}

func TestPlayerSingleton(t *testing.T) {
	em := NewEntityManager(physics.NewWorld(240))

	_, err := em.Player()
	assert.ErrorIs(t, err, ErrNoActivePlayer)

	em.Spawn(NewEntity(EntityTypePlayer, vec.Zero))
	p, err := em.Player()
	require.NoError(t, err)
	assert.Equal(t, EntityTypePlayer, p.Type)

	em.Spawn(NewEntity(EntityTypePlayer, vec.Zero))
	_, err = em.Player()
	assert.ErrorIs(t, err, ErrAmbiguousPlayer)
}

func TestMobFSMChasesPlayer(t *testing.T) {
	em := NewEntityManager(physics.NewWorld(240))
	mob := newMob(vec.Vec2Float{X: 100})
	em.Spawn(mob)

	mob.Update(em)
	assert.Equal(t, "idle", mob.Mob.State.Name(), "без игрока моб стоит")

	em.Spawn(NewEntity(EntityTypePlayer, vec.Zero))
	mob.Update(em)
	require.Equal(t, "chase", mob.Mob.State.Name())
	mob.Update(em)

	assert.InDelta(t, -200, mob.Velocity.X, 1e-9)
	assert.InDelta(t, 0, mob.Velocity.Y, 1e-9)
	assert.Equal(t, mob.Velocity, mob.Body.Velocity, "скорость передаётся телу")
}

func TestAttackableFrom(t *testing.T) {
	e := NewEntity(EntityTypeMob, vec.Zero)
	e.AttackableFrom = []EntityType{EntityTypePlayer}
	assert.False(t, e.IsAttackableFrom(EntityTypePlayer), "без здоровья урон не наносится")

	e.Health = &Health{Current: 10, Max: 10}
	assert.True(t, e.IsAttackableFrom(EntityTypePlayer))
	assert.False(t, e.IsAttackableFrom(EntityTypeMob))
	assert.Equal(t, 1.0, e.Health.Fraction())
}
