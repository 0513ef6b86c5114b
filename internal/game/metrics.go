package game

import (
	"github.com/annel0/frozen-forest/internal/world/entity"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics метрики симуляции
type Metrics struct {
	frames       prometheus.Counter
	stepDuration prometheus.Histogram
	tiles        *prometheus.GaugeVec
	entities     *prometheus.GaugeVec
	activations  prometheus.Counter
	deaths       *prometheus.CounterVec
	playerHealth prometheus.Gauge
}

// NewMetrics создаёт метрики и регистрирует их в reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		frames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "game",
			Name:      "frames_total",
			Help:      "Количество выполненных кадров симуляции.",
		}),
		stepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "game",
			Name:      "step_duration_seconds",
			Help:      "Время выполнения одного кадра.",
			Buckets:   []float64{.0001, .0005, .001, .0025, .005, .01, .016, .033},
		}),
		tiles: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "game",
			Name:      "tiles",
			Help:      "Количество тайлов по состоянию.",
		}, []string{"state"}),
		entities: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "game",
			Name:      "entities",
			Help:      "Количество сущностей по типу.",
		}, []string{"type"}),
		activations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "game",
			Name:      "tile_activations_total",
			Help:      "Количество открытых игроком тайлов.",
		}),
		deaths: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "game",
			Name:      "deaths_total",
			Help:      "Количество погибших сущностей по типу.",
		}, []string{"type"}),
		playerHealth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "game",
			Name:      "player_health_fraction",
			Help:      "Доля здоровья игрока.",
		}),
	}
	reg.MustRegister(m.frames, m.stepDuration, m.tiles, m.entities, m.activations, m.deaths, m.playerHealth)
	return m
}

// observe переносит итоги кадра в метрики
func (m *Metrics) observe(g *Game, report *FrameReport, seconds float64) {
	if m == nil {
		return
	}
	m.frames.Inc()
	m.stepDuration.Observe(seconds)

	open, closed := g.world.Registry().Counts()
	m.tiles.WithLabelValues("open").Set(float64(open))
	m.tiles.WithLabelValues("closed").Set(float64(closed))

	counts := g.entities.CountByType()
	for _, t := range []entity.EntityType{
		entity.EntityTypePlayer, entity.EntityTypeMob, entity.EntityTypeWall,
		entity.EntityTypeSpell, entity.EntityTypeAttack,
	} {
		m.entities.WithLabelValues(t.String()).Set(float64(counts[t]))
	}

	m.activations.Add(float64(len(report.Activated)))
	for _, d := range report.Deaths {
		m.deaths.WithLabelValues(d.Type.String()).Inc()
	}
	m.playerHealth.Set(g.HealthFraction())
}
