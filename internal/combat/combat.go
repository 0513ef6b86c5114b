// Package combat наносит урон по контактам физики и ведёт здоровье, кулдауны и смерти.
package combat

import (
	"github.com/annel0/frozen-forest/internal/logging"
	"github.com/annel0/frozen-forest/internal/physics"
	"github.com/annel0/frozen-forest/internal/vec"
	"github.com/annel0/frozen-forest/internal/world/entity"
)

// DamageEvent урон цели в этом кадре
type DamageEvent struct {
	Target uint64            `json:"target"`
	Damage float64           `json:"damage"`
	Source entity.EntityType `json:"-"`
}

// DeathEvent смертельный урон. Сущность будет удалена в точке синхронизации.
type DeathEvent struct {
	Entity   uint64            `json:"entity"`
	Type     entity.EntityType `json:"-"`
	Position vec.Vec2Float     `json:"position"`
}

// ExplosionEvent огненный шар коснулся чего-либо
type ExplosionEvent struct {
	Position vec.Vec2Float `json:"position"`
}

// Settings параметры боя
type Settings struct {
	DamageCooldown    float64
	ExplosionLifetime float64
}

// System система боя. Работает только из игрового цикла.
type System struct {
	entities *entity.EntityManager
	physics  *physics.World
	settings Settings
	logger   *logging.Logger
}

// NewSystem создаёт систему боя
func NewSystem(em *entity.EntityManager, phys *physics.World, settings Settings) *System {
	return &System{
		entities: em,
		physics:  phys,
		settings: settings,
		logger:   logging.GetCombatLogger(),
	}
}

// CollisionDamage: каждая уязвимая сущность в контакте с атакующим, от типа которого она
// принимает урон, тикает его таймер атаки; урон наносится при срабатывании таймера.
func (s *System) CollisionDamage(dt float64) []DamageEvent {
	var events []DamageEvent
	for _, target := range s.entities.All() {
		if target.Health == nil || len(target.AttackableFrom) == 0 {
			continue
		}
		for _, otherID := range s.physics.Colliding(target.ID) {
			attacker, ok := s.entities.GetEntity(otherID)
			if !ok || attacker.AttackTimer == nil || attacker.Type == entity.EntityTypePlayer {
				continue
			}
			if !target.IsAttackableFrom(attacker.Type) {
				continue
			}

			attacker.AttackTimer.Tick(dt)
			if !attacker.AttackTimer.Finished() {
				continue
			}
			events = append(events, DamageEvent{Target: target.ID, Damage: attacker.Damage, Source: attacker.Type})
		}
	}
	return events
}

// HitOnceDamage наносит урон атак (удар, взрыв) каждой задетой цели один раз
func (s *System) HitOnceDamage() []DamageEvent {
	var events []DamageEvent
	for _, attack := range s.entities.All() {
		if attack.HitOnce == nil {
			continue
		}
		for _, otherID := range s.physics.Colliding(attack.ID) {
			target, ok := s.entities.GetEntity(otherID)
			if !ok || !target.IsAttackableFrom(attack.HitOnce.Source) {
				continue
			}
			if !attack.HitOnce.Mark(otherID) {
				continue
			}
			events = append(events, DamageEvent{Target: otherID, Damage: attack.Damage, Source: attack.HitOnce.Source})
		}
	}
	return events
}

// FireballContacts: шар с любым контактом умирает и оставляет взрыв
func (s *System) FireballContacts() []ExplosionEvent {
	var events []ExplosionEvent
	cmds := s.entities.Commands()
	for _, e := range s.entities.All() {
		if !e.Fireball || len(s.physics.Colliding(e.ID)) == 0 {
			continue
		}
		// Точка контакта: передний край шара по направлению полёта
		contact := e.Position
		if e.Body != nil {
			contact = contact.Add(e.Velocity.Normalized().Mul(e.Body.Shape.Radius))
		}
		cmds.Despawn(e.ID)
		cmds.Spawn(NewExplosion(contact, e.Damage, s.settings.ExplosionLifetime))
		events = append(events, ExplosionEvent{Position: contact})
	}
	return events
}

// DamageResult итог применения урона за кадр
type DamageResult struct {
	Applied []DamageEvent // урон, который действительно снял здоровье или убил
	Deaths  []DeathEvent
}

// ApplyDamage применяет урон и возвращает смерти (см. Resolve)
func (s *System) ApplyDamage(events []DamageEvent) []DeathEvent {
	return s.Resolve(events).Deaths
}

// Resolve применяет урон. На цель приходится не больше одного события за кадр,
// цели с кулдауном неуязвимы. Смертельный урон превращается в DeathEvent.
func (s *System) Resolve(events []DamageEvent) DamageResult {
	var res DamageResult
	seen := make(map[uint64]struct{}, len(events))
	cmds := s.entities.Commands()

	for _, ev := range events {
		if _, dup := seen[ev.Target]; dup {
			continue
		}
		seen[ev.Target] = struct{}{}

		target, err := s.entities.MustEntity(ev.Target)
		if err != nil {
			s.logger.Debug("Урон по устаревшей цели: %v", err)
			continue
		}
		if target.Health == nil || target.DamageCooldown != nil {
			continue
		}

		res.Applied = append(res.Applied, ev)
		if target.Health.Current-ev.Damage <= 0 {
			target.Health.Current = 0
			res.Deaths = append(res.Deaths, DeathEvent{Entity: target.ID, Type: target.Type, Position: target.Position})
			continue
		}

		target.Health.Current -= ev.Damage
		cooldown := s.settings.DamageCooldown
		cmds.Modify(target.ID, func(e *entity.Entity) {
			e.DamageCooldown = entity.NewTimer(cooldown, entity.TimerOnce)
		})
	}
	return res
}

// RemoveDead откладывает удаление погибших
func (s *System) RemoveDead(deaths []DeathEvent) {
	cmds := s.entities.Commands()
	for _, d := range deaths {
		s.logger.Info("💀 %s %d погиб в (%.0f, %.0f)", d.Type, d.Entity, d.Position.X, d.Position.Y)
		cmds.Despawn(d.Entity)
	}
}

// TickCooldowns тикает кулдауны урона и снимает завершённые
func (s *System) TickCooldowns(dt float64) {
	cmds := s.entities.Commands()
	for _, e := range s.entities.All() {
		if e.DamageCooldown == nil {
			continue
		}
		e.DamageCooldown.Tick(dt)
		if e.DamageCooldown.Finished() {
			cmds.Modify(e.ID, func(e *entity.Entity) { e.DamageCooldown = nil })
		}
	}
}

// TickDespawnTimers удаляет сущности с истёкшим таймером жизни
func (s *System) TickDespawnTimers(dt float64) {
	cmds := s.entities.Commands()
	for _, e := range s.entities.All() {
		if e.DespawnTimer == nil {
			continue
		}
		e.DespawnTimer.Tick(dt)
		if e.DespawnTimer.JustFinished() {
			cmds.Despawn(e.ID)
		}
	}
}
