package game

import (
	"context"
	"sync"
	"testing"

	"github.com/annel0/frozen-forest/internal/config"
	"github.com/annel0/frozen-forest/internal/eventbus"
	"github.com/annel0/frozen-forest/internal/input"
	"github.com/annel0/frozen-forest/internal/inventory"
	"github.com/annel0/frozen-forest/internal/protocol"
	"github.com/annel0/frozen-forest/internal/vec"
	"github.com/annel0/frozen-forest/internal/world"
	"github.com/annel0/frozen-forest/internal/world/entity"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dt = 1.0 / 60

func newTestGame(t *testing.T) *Game {
	t.Helper()
	return New(config.Default(), Options{})
}

// pointerAt переводит мировую точку в координаты окна для камеры в начале координат
func pointerAt(g *Game, p vec.Vec2Float) *vec.Vec2Float {
	cam := g.Camera()
	return &vec.Vec2Float{
		X: p.X - cam.Position.X + cam.Width/2,
		Y: cam.Position.Y + cam.Height/2 - p.Y,
	}
}

// tileCenter центр тайла c в мировых координатах
func tileCenter(g *Game, c vec.Vec2) vec.Vec2Float {
	size := g.Config().World.TileSize
	return world.OriginOf(c, size).Add(vec.Vec2Float{X: size / 2, Y: size / 2})
}

func click(p *vec.Vec2Float) input.Frame {
	return input.Frame{Pointer: p, JustClicked: []input.MouseButton{input.MouseLeft}}
}

func TestNewGameSpawnsPlayerAndArea(t *testing.T) {
	g := newTestGame(t)

	player, err := g.Entities().Player()
	require.NoError(t, err)
	assert.Equal(t, vec.Zero, player.Position)
	assert.Equal(t, 1.0, g.HealthFraction())
	assert.Equal(t, 121, g.World().Registry().Len())

	var walls []*entity.Entity
	g.Entities().Each(entity.EntityTypeWall, func(e *entity.Entity) { walls = append(walls, e) })
	require.Len(t, walls, 1)
	assert.Equal(t, vec.Vec2Float{X: 100, Y: 100}, walls[0].Position)
	assert.Equal(t, 20.0, walls[0].Health.Current)
}

func TestClickOnClosedTileOpensItAndExpandsFrontier(t *testing.T) {
	g := newTestGame(t)
	target := vec.Vec2{X: 5, Y: 0}

	tile, err := g.World().Tile(target)
	require.NoError(t, err)
	require.False(t, tile.IsOpen())

	report := g.Step(dt, click(pointerAt(g, tileCenter(g, target))))
	require.Len(t, report.Activated, 1)
	assert.Equal(t, target, report.Activated[0].Coord)

	tile, err = g.World().Tile(target)
	require.NoError(t, err)
	assert.True(t, tile.IsOpen())

	for _, n := range target.Neighbors() {
		assert.True(t, g.World().Registry().Has(n), "сосед (%d,%d) должен существовать", n.X, n.Y)
	}
	assert.Len(t, report.Spawned, 3, "новые только (6,-1), (6,0), (6,1)")
}

func TestHoverWithoutClickChangesNothing(t *testing.T) {
	g := newTestGame(t)
	target := vec.Vec2{X: 5, Y: 0}
	open, closed := g.World().Registry().Counts()

	for i := 0; i < 10; i++ {
		report := g.Step(dt, input.Frame{Pointer: pointerAt(g, tileCenter(g, target))})
		assert.Len(t, report.Hovered, 1)
		assert.Empty(t, report.Activated)
	}

	o, c := g.World().Registry().Counts()
	assert.Equal(t, open, o)
	assert.Equal(t, closed, c)
}

func TestClickOnOpenTileIsNoop(t *testing.T) {
	g := newTestGame(t)
	before := g.World().Registry().Len()

	report := g.Step(dt, click(pointerAt(g, tileCenter(g, vec.Vec2{X: 1, Y: 1}))))
	assert.Empty(t, report.Hovered, "открытые тайлы не дают наведения")
	assert.Empty(t, report.Activated)
	assert.Equal(t, before, g.World().Registry().Len())
}

func TestKeyboardMovesPlayer(t *testing.T) {
	g := newTestGame(t)

	g.Step(dt, input.Frame{Pressed: []input.Key{input.KeyD}})
	player, err := g.Entities().Player()
	require.NoError(t, err)
	assert.Greater(t, player.Position.X, 0.0)
	assert.Zero(t, player.Position.Y)

	g.Step(dt, input.Frame{})
	assert.Zero(t, player.Velocity.X, "без клавиш игрок стоит")
}

func TestMeleeAttackRespectsCooldown(t *testing.T) {
	g := newTestGame(t)
	p := pointerAt(g, vec.Vec2Float{X: 100})

	report := g.Step(dt, click(p))
	require.Len(t, report.Attacks, 1)
	assert.Equal(t, inventory.AttackMelee, report.Attacks[0].Attack)
	assert.Equal(t, 1, g.Entities().CountByType()[entity.EntityTypeAttack])

	report = g.Step(dt, click(p))
	assert.Empty(t, report.Attacks, "кулдаун ещё не прошёл")

	// Удар живёт 0.2 с
	for i := 0; i < 15; i++ {
		g.Step(dt, input.Frame{})
	}
	assert.Zero(t, g.Entities().CountByType()[entity.EntityTypeAttack])
}

func TestEmptySlotDoesNotAttack(t *testing.T) {
	g := newTestGame(t)
	g.Step(dt, input.Frame{JustPressed: []input.Key{input.KeyDigit3}})
	require.Equal(t, 2, g.Inventory().Selected())

	report := g.Step(dt, click(pointerAt(g, vec.Vec2Float{X: 100})))
	assert.Empty(t, report.Attacks)
}

func TestInventorySelectionFromInput(t *testing.T) {
	g := newTestGame(t)

	g.Step(dt, input.Frame{JustPressed: []input.Key{input.KeyDigit2}})
	assert.Equal(t, 1, g.Inventory().Selected())

	g.Step(dt, input.Frame{Wheel: -1})
	assert.Equal(t, 0, g.Inventory().Selected())

	g.Step(dt, input.Frame{Wheel: -1})
	assert.Equal(t, 4, g.Inventory().Selected())

	assert.ErrorIs(t, g.SelectSlot(7), inventory.ErrInvalidSlot)
	assert.Equal(t, 4, g.Inventory().Selected())
}

func TestFireballFlies(t *testing.T) {
	g := newTestGame(t)
	require.NoError(t, g.SelectSlot(1))

	report := g.Step(dt, click(pointerAt(g, vec.Vec2Float{X: 300})))
	require.Len(t, report.Attacks, 1)
	assert.Equal(t, inventory.AttackFireball, report.Attacks[0].Attack)

	var fireball *entity.Entity
	g.Entities().Each(entity.EntityTypeSpell, func(e *entity.Entity) { fireball = e })
	require.NotNil(t, fireball)
	assert.Greater(t, fireball.Position.X, 50.0)
	assert.Greater(t, fireball.Velocity.X, 0.0)
}

func TestMobDamagesPlayerOnContact(t *testing.T) {
	g := newTestGame(t)
	g.Entities().Spawn(NewMob(g.Config().Gameplay, vec.Vec2Float{X: 40}))

	damaged := false
	for i := 0; i < 150 && !damaged; i++ {
		g.Step(dt, input.Frame{})
		damaged = g.HealthFraction() < 1
	}
	assert.True(t, damaged)
}

func TestPlayerDeathLeavesGameRunning(t *testing.T) {
	g := newTestGame(t)
	player, err := g.Entities().Player()
	require.NoError(t, err)
	player.Health.Current = 1
	g.Entities().Spawn(NewMob(g.Config().Gameplay, vec.Vec2Float{X: 40}))

	var deaths int
	for i := 0; i < 200; i++ {
		deaths += len(g.Step(dt, input.Frame{}).Deaths)
		if _, err := g.Entities().Player(); err != nil {
			break
		}
	}

	_, err = g.Entities().Player()
	assert.ErrorIs(t, err, ErrNoActivePlayer)
	assert.Equal(t, 1, deaths)
	assert.Zero(t, g.HealthFraction())

	// Системы без игрока просто пропускают работу
	assert.NotPanics(t, func() {
		g.Step(dt, click(pointerAt(g, vec.Vec2Float{X: 100})))
		g.Step(dt, input.Frame{Pressed: []input.Key{input.KeyW}})
	})
}

func TestAmbiguousPlayer(t *testing.T) {
	g := newTestGame(t)
	g.Entities().Spawn(NewPlayer(g.Config().Gameplay, vec.Vec2Float{X: 100}))

	_, err := g.Entities().Player()
	assert.ErrorIs(t, err, ErrAmbiguousPlayer)
	assert.NotPanics(t, func() { g.Step(dt, input.Frame{Pressed: []input.Key{input.KeyA}}) })
}

func TestMobWaveSpawnsAtBottomEdge(t *testing.T) {
	g := newTestGame(t)

	spawned := 0
	for i := 0; i < 10; i++ {
		spawned += g.Step(0.5, input.Frame{}).MobsSpawned
	}
	assert.Equal(t, 2, spawned)
	assert.Equal(t, 2, g.Entities().CountByType()[entity.EntityTypeMob])
}

func TestWallIsAttackableFromMob(t *testing.T) {
	wall := NewWall(vec.Vec2Float{X: 100, Y: 100})
	assert.Equal(t, vec.Vec2Float{X: 150, Y: 150}, wall.Position)
	assert.True(t, wall.IsAttackableFrom(entity.EntityTypeMob))
	assert.False(t, wall.IsAttackableFrom(entity.EntityTypePlayer))
}

func TestSnapshotRestore(t *testing.T) {
	g := newTestGame(t)
	target := vec.Vec2{X: 5, Y: 0}
	g.Step(dt, click(pointerAt(g, tileCenter(g, target))))
	require.NoError(t, g.SelectSlot(1))
	g.Step(dt, input.Frame{Pressed: []input.Key{input.KeyW}})

	snap := g.Snapshot()
	decoded, err := protocol.Unmarshal(protocol.Marshal(snap))
	require.NoError(t, err)

	restored := newTestGame(t)
	require.NoError(t, restored.Restore(decoded))

	tile, err := restored.World().Tile(target)
	require.NoError(t, err)
	assert.True(t, tile.IsOpen())
	assert.Equal(t, g.World().Registry().Len(), restored.World().Registry().Len())
	assert.Equal(t, 1, restored.Inventory().Selected())
	assert.Equal(t, snap.Frame, restored.Frame())

	player, err := restored.Entities().Player()
	require.NoError(t, err)
	assert.InDelta(t, snap.Entities[0].Y, player.Position.Y, 1e-9)
	assert.Equal(t, 1, restored.Entities().CountByType()[entity.EntityTypeWall], "стена не дублируется")
}

func TestRestoreRejectsOtherSeed(t *testing.T) {
	g := newTestGame(t)
	snap := g.Snapshot()
	snap.Seed++
	assert.ErrorIs(t, g.Restore(snap), ErrSeedMismatch)
}

func TestEventsArePublished(t *testing.T) {
	bus := eventbus.NewMemoryBus(64)
	var mu sync.Mutex
	types := map[string]int{}
	_, err := bus.Subscribe(context.Background(), eventbus.Filter{}, func(ctx context.Context, ev *eventbus.Envelope) {
		mu.Lock()
		types[ev.EventType]++
		mu.Unlock()
	})
	require.NoError(t, err)

	g := New(config.Default(), Options{Bus: bus})
	g.Step(dt, click(pointerAt(g, tileCenter(g, vec.Vec2{X: 5, Y: 0}))))
	g.Step(dt, input.Frame{JustPressed: []input.Key{input.KeyDigit2}})
	require.NoError(t, bus.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, types[eventbus.TypeTileActivated])
	assert.Equal(t, 1, types[eventbus.TypePlayerAttack])
	assert.Equal(t, 1, types[eventbus.TypeInventorySelected])
}

func TestMetricsObserveFrames(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	g := New(config.Default(), Options{Metrics: m})

	g.Step(dt, input.Frame{})
	g.Step(dt, input.Frame{})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.frames))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.playerHealth))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.entities.WithLabelValues("player")))
}
