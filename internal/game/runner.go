package game

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/annel0/frozen-forest/internal/input"
	"github.com/annel0/frozen-forest/internal/logging"
	"github.com/annel0/frozen-forest/internal/observability"
	"github.com/annel0/frozen-forest/internal/protocol"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var ErrRunnerStopped = errors.New("runner stopped")

// Persister сохраняет снимки мира
type Persister interface {
	Persist(ctx context.Context, snap *protocol.Snapshot) error
}

// SnapshotListener получает снимки каждые N кадров (WebSocket хаб)
type SnapshotListener func(snap *protocol.Snapshot)

// RunnerOptions параметры цикла
type RunnerOptions struct {
	TickRate      int           // кадров в секунду
	SaveInterval  time.Duration // 0: без периодического сохранения
	Persister     Persister
	SnapshotEvery int // кадров между снимками для слушателей
}

// Runner крутит Game.Step на своей горутине. Остальные горутины
// передают ввод через Submit и читают состояние через Snapshot.
type Runner struct {
	game *Game
	opts RunnerOptions

	mu       sync.Mutex // защищает game
	inputMu  sync.Mutex
	input    input.Frame
	snapMu   sync.RWMutex
	snapshot *protocol.Snapshot

	listenersMu sync.RWMutex
	listeners   []SnapshotListener

	stopped chan struct{}
	tracer  trace.Tracer
	logger  *logging.Logger
}

// NewRunner создаёт цикл для игры
func NewRunner(g *Game, opts RunnerOptions) *Runner {
	if opts.TickRate <= 0 {
		opts.TickRate = 60
	}
	if opts.SnapshotEvery <= 0 {
		opts.SnapshotEvery = 1
	}
	r := &Runner{
		game:    g,
		opts:    opts,
		stopped: make(chan struct{}),
		tracer:  observability.Tracer("game"),
		logger:  logging.GetServerLogger(),
	}
	r.snapshot = g.Snapshot()
	return r
}

// Submit добавляет ввод к следующему кадру
func (r *Runner) Submit(f input.Frame) {
	r.inputMu.Lock()
	r.input = r.input.Merge(f)
	r.inputMu.Unlock()
}

// Snapshot последний опубликованный снимок
func (r *Runner) Snapshot() *protocol.Snapshot {
	r.snapMu.RLock()
	defer r.snapMu.RUnlock()
	return r.snapshot
}

// OnSnapshot подписывает слушателя на снимки
func (r *Runner) OnSnapshot(l SnapshotListener) {
	r.listenersMu.Lock()
	r.listeners = append(r.listeners, l)
	r.listenersMu.Unlock()
}

// Do выполняет fn над игрой между кадрами
func (r *Runner) Do(fn func(g *Game) error) error {
	select {
	case <-r.stopped:
		return ErrRunnerStopped
	default:
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	err := fn(r.game)
	r.publish(r.game.Snapshot())
	return err
}

// View читает состояние игры между кадрами
func (r *Runner) View(fn func(g *Game)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.game)
}

// Tick выполняет один кадр с накопленным вводом
func (r *Runner) Tick(ctx context.Context, dt float64) *FrameReport {
	r.inputMu.Lock()
	in := r.input
	r.input = input.Frame{Pointer: in.Pointer, Pressed: in.Pressed, Buttons: in.Buttons}
	r.inputMu.Unlock()

	_, span := r.tracer.Start(ctx, "game.step")
	defer span.End()

	r.mu.Lock()
	report := r.game.Step(dt, in)
	var snap *protocol.Snapshot
	if report.Frame%uint64(r.opts.SnapshotEvery) == 0 {
		snap = r.game.Snapshot()
	}
	r.mu.Unlock()

	span.SetAttributes(
		attribute.Int64("game.frame", int64(report.Frame)),
		attribute.Int("game.tiles.activated", len(report.Activated)),
		attribute.Int("game.deaths", len(report.Deaths)),
	)

	if snap != nil {
		r.publish(snap)
	}
	return report
}

// Save сохраняет текущее состояние через Persister
func (r *Runner) Save(ctx context.Context) error {
	if r.opts.Persister == nil {
		return nil
	}
	ctx, span := r.tracer.Start(ctx, "game.save")
	defer span.End()

	r.mu.Lock()
	snap := r.game.Snapshot()
	r.mu.Unlock()

	if err := r.opts.Persister.Persist(ctx, snap); err != nil {
		span.RecordError(err)
		return err
	}
	r.logger.Debug("💾 Снимок кадра %d сохранён", snap.Frame)
	return nil
}

// Run крутит цикл до отмены контекста и делает финальное сохранение
func (r *Runner) Run(ctx context.Context) error {
	defer close(r.stopped)

	frame := time.Second / time.Duration(r.opts.TickRate)
	dt := frame.Seconds()
	ticker := time.NewTicker(frame)
	defer ticker.Stop()

	var saveC <-chan time.Time
	if r.opts.SaveInterval > 0 && r.opts.Persister != nil {
		saveTicker := time.NewTicker(r.opts.SaveInterval)
		defer saveTicker.Stop()
		saveC = saveTicker.C
	}

	r.logger.Info("▶️ Игровой цикл запущен: %d кадров/с", r.opts.TickRate)
	for {
		select {
		case <-ctx.Done():
			saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := r.Save(saveCtx); err != nil {
				r.logger.Error("❌ Финальное сохранение: %v", err)
				return err
			}
			r.logger.Info("⏹️ Игровой цикл остановлен")
			return nil
		case <-ticker.C:
			r.Tick(ctx, dt)
		case <-saveC:
			if err := r.Save(ctx); err != nil {
				r.logger.Error("❌ Периодическое сохранение: %v", err)
			}
		}
	}
}

func (r *Runner) publish(snap *protocol.Snapshot) {
	r.snapMu.Lock()
	r.snapshot = snap
	r.snapMu.Unlock()

	r.listenersMu.RLock()
	defer r.listenersMu.RUnlock()
	for _, l := range r.listeners {
		l(snap)
	}
}
