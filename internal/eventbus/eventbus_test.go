package eventbus

import (
	"context"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tilePayload struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func TestMemoryBusFilterAndOrder(t *testing.T) {
	bus := NewMemoryBus(16)
	defer bus.Close()

	var mu sync.Mutex
	var got []uint64
	_, err := bus.Subscribe(context.Background(), Filter{Types: []string{TypeTileActivated}}, func(ctx context.Context, ev *Envelope) {
		mu.Lock()
		got = append(got, ev.Frame)
		mu.Unlock()
	})
	require.NoError(t, err)

	for i := uint64(1); i <= 3; i++ {
		ev, err := NewEnvelope(TypeTileActivated, i, tilePayload{X: 2})
		require.NoError(t, err)
		require.NoError(t, bus.Publish(context.Background(), ev))
	}
	other, err := NewEnvelope(TypeEntityDied, 4, nil)
	require.NoError(t, err)
	require.NoError(t, bus.Publish(context.Background(), other))

	require.NoError(t, bus.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []uint64{1, 2, 3}, got)
	assert.Equal(t, uint64(4), bus.Metrics().Published)
	assert.Equal(t, uint64(3), bus.Metrics().Consumed)
}

func TestPublishAfterClose(t *testing.T) {
	bus := NewMemoryBus(1)
	require.NoError(t, bus.Close())

	ev, err := NewEnvelope(TypePlayerAttack, 1, nil)
	require.NoError(t, err)
	assert.ErrorIs(t, bus.Publish(context.Background(), ev), ErrBusClosed)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewMemoryBus(4)
	var count int
	var mu sync.Mutex
	sub, err := bus.Subscribe(context.Background(), Filter{}, func(ctx context.Context, ev *Envelope) {
		mu.Lock()
		count++
		mu.Unlock()
	})
	require.NoError(t, err)
	sub.Unsubscribe()

	ev, _ := NewEnvelope(TypeEntityDamaged, 1, nil)
	require.NoError(t, bus.Publish(context.Background(), ev))
	require.NoError(t, bus.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.Zero(t, count)
}

func TestEnvelopeDecode(t *testing.T) {
	ev, err := NewEnvelope(TypeTileActivated, 7, tilePayload{X: 2, Y: -1})
	require.NoError(t, err)
	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, DefaultSource, ev.Source)

	var p tilePayload
	require.NoError(t, ev.Decode(&p))
	assert.Equal(t, tilePayload{X: 2, Y: -1}, p)
	assert.Equal(t, "tile.activated", TypeFromSubject(Subject(TypeTileActivated)))
}

func TestMetricsExporterCollect(t *testing.T) {
	bus := NewMemoryBus(4)
	reg := prometheus.NewRegistry()
	me := NewMetricsExporter(bus, reg)

	ev, _ := NewEnvelope(TypeEntityDied, 1, nil)
	require.NoError(t, bus.Publish(context.Background(), ev))
	require.NoError(t, bus.Close())

	prev := me.collect(Stats{})
	assert.Equal(t, 1.0, testutil.ToFloat64(me.published))

	// Повторный сбор без новых событий не меняет счётчики
	me.collect(prev)
	assert.Equal(t, 1.0, testutil.ToFloat64(me.published))
}
