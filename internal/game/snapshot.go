package game

import (
	"errors"
	"fmt"

	"github.com/annel0/frozen-forest/internal/protocol"
	"github.com/annel0/frozen-forest/internal/vec"
	"github.com/annel0/frozen-forest/internal/world"
	"github.com/annel0/frozen-forest/internal/world/entity"
)

var ErrSeedMismatch = errors.New("snapshot seed differs from world seed")

// Snapshot собирает снимок состояния мира
func (g *Game) Snapshot() *protocol.Snapshot {
	snap := &protocol.Snapshot{
		Frame:          g.frame,
		Seed:           g.cfg.World.Seed,
		HealthFraction: g.HealthFraction(),
		SelectedSlot:   int32(g.inventory.Selected()),
		CameraX:        g.camera.Position.X,
		CameraY:        g.camera.Position.Y,
	}

	for _, r := range g.world.Export() {
		snap.Tiles = append(snap.Tiles, protocol.TileState{X: int32(r.Coord.X), Y: int32(r.Coord.Y), Open: r.Open})
	}

	for _, e := range g.entities.All() {
		st := protocol.EntityState{
			ID:   e.ID,
			Type: e.Type.String(),
			X:    e.Position.X,
			Y:    e.Position.Y,
			VX:   e.Velocity.X,
			VY:   e.Velocity.Y,
		}
		if e.Health != nil {
			st.Health = e.Health.Current
			st.MaxHealth = e.Health.Max
		}
		if e.Type == entity.EntityTypePlayer {
			snap.PlayerID = e.ID
		}
		snap.Entities = append(snap.Entities, st)
	}
	return snap
}

// Restore заменяет состояние снимком: тайлы, игрок, мобы, стены, слот и камера.
// Короткоживущие атаки и снаряды не восстанавливаются.
func (g *Game) Restore(snap *protocol.Snapshot) error {
	if snap.Seed != g.cfg.World.Seed {
		return fmt.Errorf("%w: %d != %d", ErrSeedMismatch, snap.Seed, g.cfg.World.Seed)
	}

	records := make([]world.TileRecord, 0, len(snap.Tiles))
	for _, t := range snap.Tiles {
		records = append(records, world.TileRecord{Coord: vec.Vec2{X: int(t.X), Y: int(t.Y)}, Open: t.Open})
	}
	g.world.Restore(records)

	cmds := g.entities.Commands()
	for _, e := range g.entities.All() {
		cmds.Despawn(e.ID)
	}
	g.entities.Apply()

	gp := g.cfg.Gameplay
	for _, st := range snap.Entities {
		pos := vec.Vec2Float{X: st.X, Y: st.Y}
		var e *entity.Entity
		switch st.Type {
		case entity.EntityTypePlayer.String():
			e = NewPlayer(gp, pos)
		case entity.EntityTypeMob.String():
			e = NewMob(gp, pos)
		case entity.EntityTypeWall.String():
			e = NewWallAt(pos)
		default:
			continue
		}
		if e.Health != nil && st.MaxHealth > 0 {
			e.Health.Current, e.Health.Max = st.Health, st.MaxHealth
		}
		e.ID = st.ID
		g.entities.Spawn(e)
	}

	if _, err := g.entities.Player(); errors.Is(err, ErrNoActivePlayer) {
		g.entities.Spawn(NewPlayer(gp, vec.Zero))
	}

	if err := g.inventory.Select(int(snap.SelectedSlot)); err != nil {
		g.logger.Warn("⚠️ Слот из снимка: %v", err)
	}
	g.camera.Position = vec.Vec2Float{X: snap.CameraX, Y: snap.CameraY}
	g.frame = snap.Frame

	g.logger.Info("💾 Состояние восстановлено: кадр %d, %d сущностей", snap.Frame, g.entities.Len())
	return nil
}
