package physics

// Layer битовая маска физического слоя
type Layer uint32

const (
	LayerPlayer Layer = 1 << iota
	LayerMob
	LayerEntity
	LayerWall
	LayerFireball
	LayerSpell
	LayerClosedTile

	LayerNone Layer = 0
	LayerAll  Layer = ^Layer(0)
)

// Has проверяет пересечение масок
func (l Layer) Has(other Layer) bool {
	return l&other != 0
}

func (l Layer) String() string {
	names := []struct {
		layer Layer
		name  string
	}{
		{LayerPlayer, "player"},
		{LayerMob, "mob"},
		{LayerEntity, "entity"},
		{LayerWall, "wall"},
		{LayerFireball, "fireball"},
		{LayerSpell, "spell"},
		{LayerClosedTile, "closed_tile"},
	}
	if l == LayerAll {
		return "all"
	}
	out := ""
	for _, n := range names {
		if l.Has(n.layer) {
			if out != "" {
				out += "|"
			}
			out += n.name
		}
	}
	if out == "" {
		return "none"
	}
	return out
}

// CollisionLayers описывает в каких слоях тело состоит и с какими взаимодействует.
type CollisionLayers struct {
	Memberships Layer
	Filters     Layer
}

// NewCollisionLayers создаёт набор слоёв
func NewCollisionLayers(memberships, filters Layer) CollisionLayers {
	return CollisionLayers{Memberships: memberships, Filters: filters}
}

// Interacts: тела взаимодействуют только если каждое принимает слои другого.
func (c CollisionLayers) Interacts(other CollisionLayers) bool {
	return c.Memberships.Has(other.Filters) && other.Memberships.Has(c.Filters)
}
