// Package game собирает системы в покадровый игровой цикл.
package game

import (
	"context"
	"math/rand"
	"time"

	"github.com/annel0/frozen-forest/internal/combat"
	"github.com/annel0/frozen-forest/internal/config"
	"github.com/annel0/frozen-forest/internal/eventbus"
	"github.com/annel0/frozen-forest/internal/input"
	"github.com/annel0/frozen-forest/internal/inventory"
	"github.com/annel0/frozen-forest/internal/logging"
	"github.com/annel0/frozen-forest/internal/physics"
	"github.com/annel0/frozen-forest/internal/vec"
	"github.com/annel0/frozen-forest/internal/world"
	"github.com/annel0/frozen-forest/internal/world/entity"
)

var (
	ErrNoActivePlayer  = entity.ErrNoActivePlayer
	ErrAmbiguousPlayer = entity.ErrAmbiguousPlayer
)

// PlayerMoveEvent направление движения с клавиатуры (не нормализовано)
type PlayerMoveEvent struct {
	Direction vec.Vec2Float
}

// PlayerAttackEvent атака из выбранного слота в направлении курсора
type PlayerAttackEvent struct {
	Attack    inventory.AttackType `json:"attack"`
	Direction vec.Vec2Float        `json:"direction"`
}

// FrameReport что произошло за кадр
type FrameReport struct {
	Frame       uint64
	Hovered     []world.TileHoverEvent
	Activated   []world.TileActivatedEvent
	Spawned     []world.TileSpawnedEvent
	Attacks     []PlayerAttackEvent
	Damage      []combat.DamageEvent // применённый урон
	Deaths      []combat.DeathEvent
	Explosions  []combat.ExplosionEvent
	MobsSpawned int
}

// Options внешние зависимости игры. Нулевые значения допустимы.
type Options struct {
	Bus     eventbus.EventBus
	Metrics *Metrics
}

// Game состояние симуляции. Не потокобезопасен, принадлежит горутине цикла (см. Runner).
type Game struct {
	cfg *config.Config

	physics   *physics.World
	world     *world.World
	entities  *entity.EntityManager
	combat    *combat.System
	inventory *inventory.Inventory
	camera    *input.Camera

	spawnTimer *entity.Timer
	rng        *rand.Rand
	frame      uint64

	bus     eventbus.EventBus
	metrics *Metrics
	pending []*eventbus.Envelope
	logger  *logging.Logger
}

// New создаёт игру: начальная область тайлов и игрок в начале координат
func New(cfg *config.Config, opts Options) *Game {
	phys := physics.NewWorld(cfg.World.TileSize)
	em := entity.NewEntityManager(phys)

	g := &Game{
		cfg:      cfg,
		physics:  phys,
		entities: em,
		world: world.NewWorld(world.Settings{
			Seed:              cfg.World.Seed,
			TileSize:          cfg.World.TileSize,
			SubTiles:          cfg.World.SubTiles,
			GroundTileCount:   cfg.World.GroundTileCount,
			InitialHalfExtent: cfg.World.InitialHalfExtent,
			InitialOpenRadius: cfg.World.InitialOpenRadius,
		}, phys),
		combat: combat.NewSystem(em, phys, combat.Settings{
			DamageCooldown:    cfg.Gameplay.DamageCooldown,
			ExplosionLifetime: cfg.Gameplay.ExplosionLifetime,
		}),
		inventory:  inventory.New(),
		camera:     input.NewCamera(cfg.World.ViewportWidth, cfg.World.ViewportHeight),
		spawnTimer: entity.NewTimer(cfg.Gameplay.MobSpawnInterval, entity.TimerRepeating),
		rng:        rand.New(rand.NewSource(cfg.World.Seed)),
		bus:        opts.Bus,
		metrics:    opts.Metrics,
		logger:     logging.GetGameLogger(),
	}

	g.world.InitArea()
	g.entities.Spawn(NewPlayer(cfg.Gameplay, vec.Zero))
	g.entities.Spawn(NewWallAt(wallCenter))

	open, closed := g.world.Registry().Counts()
	g.logger.Info("🌲 Игра создана: seed=%d, тайлов %d открытых / %d закрытых", cfg.World.Seed, open, closed)
	return g
}

// Config конфигурация игры
func (g *Game) Config() *config.Config { return g.cfg }

// World тайловый мир
func (g *Game) World() *world.World { return g.world }

// Entities менеджер сущностей
func (g *Game) Entities() *entity.EntityManager { return g.entities }

// Physics физический мир
func (g *Game) Physics() *physics.World { return g.physics }

// Inventory инвентарь игрока
func (g *Game) Inventory() *inventory.Inventory { return g.inventory }

// Camera камера
func (g *Game) Camera() *input.Camera { return g.camera }

// Frame номер следующего кадра
func (g *Game) Frame() uint64 { return g.frame }

// HealthFraction доля здоровья игрока; 0 если игрока нет
func (g *Game) HealthFraction() float64 {
	p, err := g.entities.Player()
	if err != nil || p.Health == nil {
		return 0
	}
	return p.Health.Fraction()
}

// SelectSlot выбирает слот инвентаря вне кадра (REST)
func (g *Game) SelectSlot(i int) error {
	if err := g.inventory.Select(i); err != nil {
		return err
	}
	g.emit(eventbus.TypeInventorySelected, 1, selectedPayload(g.inventory))
	g.flush()
	return nil
}

// Step выполняет один кадр длительностью dt секунд
func (g *Game) Step(dt float64, in input.Frame) *FrameReport {
	started := time.Now()
	report := &FrameReport{Frame: g.frame}

	// 1. Ввод
	g.selectSlot(in)
	move := PlayerMoveEvent{Direction: in.MoveDirection()}
	var pointer *vec.Vec2Float
	if in.Pointer != nil {
		p := g.camera.ViewportToWorld(*in.Pointer)
		pointer = &p
	}
	confirm := in.IsJustClicked(input.MouseLeft)

	// 2. Тайлы: наведение -> открытие -> граница
	report.Hovered = g.world.Hover(pointer)
	report.Activated = g.world.Activate(report.Hovered, confirm)
	report.Spawned = g.world.ExpandFrontier(report.Activated)
	g.emitActivations(report)
	g.entities.Apply()

	// 3. Управление
	g.movePlayer(move)
	g.entities.Each(entity.EntityTypeMob, func(e *entity.Entity) { e.Update(g.entities) })
	if ev, ok := g.playerAttack(dt, confirm, pointer); ok {
		report.Attacks = append(report.Attacks, ev)
	}
	report.MobsSpawned = g.spawnMobs(dt)
	g.entities.Apply()

	// 4. Физика
	g.physics.Step(dt)
	g.entities.SyncFromPhysics()

	// 5. Бой
	damage := append(g.combat.CollisionDamage(dt), g.combat.HitOnceDamage()...)
	report.Explosions = g.combat.FireballContacts()
	resolved := g.combat.Resolve(damage)
	report.Damage, report.Deaths = resolved.Applied, resolved.Deaths
	g.combat.RemoveDead(report.Deaths)
	g.emitCombat(report)
	g.entities.Apply()

	// 6. Таймеры и камера
	g.combat.TickCooldowns(dt)
	g.combat.TickDespawnTimers(dt)
	if p, err := g.entities.Player(); err == nil {
		g.camera.Follow(p.Position, p.Velocity, dt)
	}
	g.entities.Apply()

	g.frame++
	g.flush()
	g.metrics.observe(g, report, time.Since(started).Seconds())
	return report
}

// selectSlot: клавиши 1..5 выбирают слот, колесо прокручивает
func (g *Game) selectSlot(in input.Frame) {
	changed := false
	for i, k := range input.DigitKeys {
		if !in.IsJustPressed(k) {
			continue
		}
		if err := g.inventory.Select(i); err != nil {
			g.logger.Warn("⚠️ Выбор слота %d: %v", i, err)
			continue
		}
		changed = true
	}
	if g.inventory.Scroll(in.Wheel) {
		changed = true
	}
	if changed {
		g.emit(eventbus.TypeInventorySelected, 1, selectedPayload(g.inventory))
	}
}

// movePlayer: скорость = normalize(направление) * скорость игрока
func (g *Game) movePlayer(move PlayerMoveEvent) {
	player, err := g.entities.Player()
	if err != nil {
		return
	}
	player.SetVelocity(move.Direction.Normalized().Mul(g.cfg.Gameplay.PlayerSpeed))
}

// playerAttack тикает кулдаун и по клику запускает атаку выбранного слота
func (g *Game) playerAttack(dt float64, confirm bool, pointer *vec.Vec2Float) (PlayerAttackEvent, bool) {
	player, err := g.entities.Player()
	if err != nil || player.AttackCooldown == nil {
		return PlayerAttackEvent{}, false
	}
	player.AttackCooldown.Tick(dt)

	if !confirm || !player.AttackCooldown.Finished() || pointer == nil {
		return PlayerAttackEvent{}, false
	}

	attack := g.inventory.SelectedAttack()
	if attack == inventory.AttackNone {
		return PlayerAttackEvent{}, false
	}

	gp := g.cfg.Gameplay
	dir := pointer.Sub(player.Position).Normalized()
	cmds := g.entities.Commands()
	switch attack {
	case inventory.AttackMelee:
		cmds.Spawn(combat.NewMeleeAttack(player.Position, dir, gp.PlayerRadius, float64(gp.PlayerDamage), gp.MeleeLifetime))
	case inventory.AttackFireball:
		cmds.Spawn(combat.NewFireball(player.Position, dir, gp.FireballSpeed, gp.FireballRadius, float64(gp.FireballDamage)))
	}
	player.AttackCooldown.Reset()

	ev := PlayerAttackEvent{Attack: attack, Direction: dir}
	g.emit(eventbus.TypePlayerAttack, 1, ev)
	return ev, true
}

// spawnMobs по таймеру создаёт волну мобов у нижнего края экрана
func (g *Game) spawnMobs(dt float64) int {
	g.spawnTimer.Tick(dt)
	if !g.spawnTimer.JustFinished() {
		return 0
	}

	gp := g.cfg.Gameplay
	cmds := g.entities.Commands()
	left := g.camera.Position.X - g.camera.Width/2
	bottom := g.camera.Position.Y - g.camera.Height/2
	for i := 0; i < gp.MobsPerWave; i++ {
		pos := vec.Vec2Float{X: left + g.rng.Float64()*g.camera.Width, Y: bottom + 50}
		cmds.Spawn(NewMob(gp, pos))
	}
	g.logger.Debug("👾 Волна из %d мобов", gp.MobsPerWave)
	return gp.MobsPerWave
}

// emit откладывает событие для шины до конца кадра
func (g *Game) emit(eventType string, priority int, payload any) {
	if g.bus == nil {
		return
	}
	ev, err := eventbus.NewEnvelope(eventType, g.frame, payload)
	if err != nil {
		g.logger.Warn("Событие %s не собрано: %v", eventType, err)
		return
	}
	ev.Priority = priority
	g.pending = append(g.pending, ev)
}

// flush публикует накопленные события. Ошибки шины не прерывают кадр.
func (g *Game) flush() {
	if g.bus == nil || len(g.pending) == 0 {
		return
	}
	for _, ev := range g.pending {
		if err := g.bus.Publish(context.Background(), ev); err != nil {
			g.logger.Warn("Публикация %s: %v", ev.EventType, err)
		}
	}
	g.pending = g.pending[:0]
}

type tilePayload struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type damagePayload struct {
	Entity uint64  `json:"entity"`
	Damage float64 `json:"damage"`
	Source string  `json:"source"`
}

type deathPayload struct {
	Entity uint64        `json:"entity"`
	Type   string        `json:"type"`
	Pos    vec.Vec2Float `json:"position"`
}

type slotPayload struct {
	Slot   int    `json:"slot"`
	Attack string `json:"attack"`
}

func selectedPayload(inv *inventory.Inventory) slotPayload {
	return slotPayload{Slot: inv.Selected(), Attack: inv.SelectedAttack().String()}
}

func (g *Game) emitActivations(report *FrameReport) {
	for _, a := range report.Activated {
		g.emit(eventbus.TypeTileActivated, 2, tilePayload{X: a.Coord.X, Y: a.Coord.Y})
	}
}

func (g *Game) emitCombat(report *FrameReport) {
	for _, d := range report.Damage {
		g.emit(eventbus.TypeEntityDamaged, 3, damagePayload{Entity: d.Target, Damage: d.Damage, Source: d.Source.String()})
	}
	for _, d := range report.Deaths {
		g.emit(eventbus.TypeEntityDied, 4, deathPayload{Entity: d.Entity, Type: d.Type.String(), Pos: d.Position})
	}
}
