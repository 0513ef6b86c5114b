package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/annel0/frozen-forest/internal/input"
	"github.com/annel0/frozen-forest/internal/protocol"
	"github.com/annel0/frozen-forest/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memPersister struct {
	mu    sync.Mutex
	snaps []*protocol.Snapshot
}

func (p *memPersister) Persist(ctx context.Context, snap *protocol.Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snaps = append(p.snaps, snap)
	return nil
}

func (p *memPersister) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.snaps)
}

func TestRunnerTickAppliesSubmittedInput(t *testing.T) {
	g := newTestGame(t)
	r := NewRunner(g, RunnerOptions{TickRate: 60})
	target := vec.Vec2{X: 5, Y: 0}

	var seen []*protocol.Snapshot
	r.OnSnapshot(func(s *protocol.Snapshot) { seen = append(seen, s) })

	// Клик и движение пришли в разных сообщениях до кадра
	r.Submit(click(pointerAt(g, tileCenter(g, target))))
	r.Submit(input.Frame{Pressed: []input.Key{input.KeyW}})

	report := r.Tick(context.Background(), dt)
	require.Len(t, report.Activated, 1)
	require.Len(t, seen, 1)
	assert.Equal(t, uint64(1), r.Snapshot().Frame)

	// Клик не повторяется в следующем кадре
	report = r.Tick(context.Background(), dt)
	assert.Empty(t, report.Activated)
	assert.Empty(t, report.Attacks)
}

func TestRunnerPointerLeftStopsHoverAndClicks(t *testing.T) {
	g := newTestGame(t)
	r := NewRunner(g, RunnerOptions{TickRate: 60})
	target := vec.Vec2{X: 5, Y: 0}

	r.Submit(input.Frame{Pointer: pointerAt(g, tileCenter(g, target))})
	report := r.Tick(context.Background(), dt)
	require.Len(t, report.Hovered, 1)
	assert.Equal(t, target, report.Hovered[0].Coord)

	// Указатель переносится между кадрами, пока курсор в окне
	report = r.Tick(context.Background(), dt)
	assert.Len(t, report.Hovered, 1)

	r.Submit(input.Frame{PointerLeft: true})
	report = r.Tick(context.Background(), dt)
	assert.Empty(t, report.Hovered)

	r.Submit(input.Frame{JustClicked: []input.MouseButton{input.MouseLeft}})
	report = r.Tick(context.Background(), dt)
	assert.Empty(t, report.Hovered)
	assert.Empty(t, report.Activated)
	assert.Empty(t, report.Attacks)
}

func TestRunnerDoAndView(t *testing.T) {
	g := newTestGame(t)
	r := NewRunner(g, RunnerOptions{})

	require.NoError(t, r.Do(func(g *Game) error { return g.SelectSlot(1) }))
	assert.Equal(t, int32(1), r.Snapshot().SelectedSlot)

	var selected int
	r.View(func(g *Game) { selected = g.Inventory().Selected() })
	assert.Equal(t, 1, selected)
}

func TestRunnerRunSavesOnShutdown(t *testing.T) {
	g := newTestGame(t)
	p := &memPersister{}
	r := NewRunner(g, RunnerOptions{TickRate: 120, Persister: p, SaveInterval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	assert.Eventually(t, func() bool {
		var frame uint64
		r.View(func(g *Game) { frame = g.Frame() })
		return frame > 3
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, 1, p.count())

	assert.ErrorIs(t, r.Do(func(g *Game) error { return nil }), ErrRunnerStopped)
}
