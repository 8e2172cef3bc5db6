package eventbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type actorPayload struct {
	EntityID uint64 `json:"entity_id"`
	Kind     string `json:"kind"`
}

func TestNewEnvelope(t *testing.T) {
	ev, err := NewEnvelope("sim", "actor.died", actorPayload{EntityID: 7, Kind: "octorok"})
	require.NoError(t, err)

	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, "actor.died", ev.EventType)
	assert.Equal(t, 1, ev.Version)

	var got actorPayload
	require.NoError(t, ev.Decode(&got))
	assert.Equal(t, actorPayload{EntityID: 7, Kind: "octorok"}, got)

	other, err := NewEnvelope("sim", "actor.died", nil)
	require.NoError(t, err)
	assert.NotEqual(t, ev.ID, other.ID, "Каждый конверт получает свой UUID")
}

func TestMemoryBus_FilteredDelivery(t *testing.T) {
	bus := NewMemoryBus(16)

	var mu sync.Mutex
	var got []string
	var wg sync.WaitGroup
	wg.Add(2)

	_, err := bus.Subscribe(context.Background(), Filter{Types: []string{"actor.died"}}, func(ctx context.Context, ev *Envelope) {
		mu.Lock()
		got = append(got, ev.EventType)
		mu.Unlock()
		wg.Done()
	})
	require.NoError(t, err)

	for _, typ := range []string{"actor.died", "path.resolved", "actor.died"} {
		ev, err := NewEnvelope("sim", typ, nil)
		require.NoError(t, err)
		require.NoError(t, bus.Publish(context.Background(), ev))
	}

	waitOrFail(t, &wg)
	mu.Lock()
	assert.Equal(t, []string{"actor.died", "actor.died"}, got, "Подписчик получает только свой тип")
	mu.Unlock()

	require.NoError(t, bus.Close())
	ev, _ := NewEnvelope("sim", "actor.died", nil)
	assert.ErrorIs(t, bus.Publish(context.Background(), ev), ErrClosed)
	assert.Equal(t, uint64(3), bus.Metrics().Published)
}

func TestMetricsExporter_CollectAddsDeltas(t *testing.T) {
	bus := NewMemoryBus(4)
	defer bus.Close()

	reg := prometheus.NewRegistry()
	me := NewMetricsExporter(bus, reg)

	ev, _ := NewEnvelope("sim", "actor.died", nil)
	require.NoError(t, bus.Publish(context.Background(), ev))
	me.Collect()
	assert.Equal(t, 1.0, testutil.ToFloat64(me.messages.WithLabelValues("published")))

	require.NoError(t, bus.Publish(context.Background(), ev))
	me.Collect()
	me.Collect()
	assert.Equal(t, 2.0, testutil.ToFloat64(me.messages.WithLabelValues("published")), "Повторный снимок не удваивает счётчик")
}

func TestMemoryBus_PreservesOrderPerSubscriber(t *testing.T) {
	bus := NewMemoryBus(64)

	var got []int
	_, err := bus.Subscribe(context.Background(), Filter{}, func(ctx context.Context, ev *Envelope) {
		var n int
		assert.NoError(t, ev.Decode(&n))
		got = append(got, n)
	})
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		ev, err := NewEnvelope("sim", "actor.spawned", i)
		require.NoError(t, err)
		require.NoError(t, bus.Publish(context.Background(), ev))
	}

	// Close дожидается обработки принятых событий
	require.NoError(t, bus.Close())
	require.Len(t, got, 20)
	for i, n := range got {
		assert.Equal(t, i, n, "События доставляются в порядке публикации")
	}
}

func TestMemoryBus_DropsLowPriorityWhenFull(t *testing.T) {
	bus := NewMemoryBus(1)
	defer bus.Close()

	block := make(chan struct{})
	_, err := bus.Subscribe(context.Background(), Filter{}, func(ctx context.Context, ev *Envelope) {
		<-block
	})
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		ev, _ := NewEnvelope("sim", "path.resolved", nil)
		require.NoError(t, bus.Publish(context.Background(), ev), "Низкий приоритет не блокирует публикацию")
	}
	close(block)
	assert.Greater(t, bus.Metrics().Dropped, uint64(0))
}

func TestFilter_Match(t *testing.T) {
	ev := &Envelope{EventType: "actor.died", Source: "overworld/a"}
	assert.True(t, Filter{}.Match(ev))
	assert.True(t, Filter{Types: []string{"path.resolved", "actor.died"}}.Match(ev))
	assert.False(t, Filter{Types: []string{"path.resolved"}}.Match(ev))
	assert.False(t, Filter{Sources: []string{"overworld/b"}}.Match(ev))
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "overworld.actor.died", Subject("actor.died"))
}

func waitOrFail(t *testing.T, wg *sync.WaitGroup) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("события не доставлены вовремя")
	}
}

func TestMemoryBus_CloseDrainsAcceptedEvents(t *testing.T) {
	bus := NewMemoryBus(16)

	var mu sync.Mutex
	delivered := 0
	_, err := bus.Subscribe(context.Background(), Filter{}, func(ctx context.Context, ev *Envelope) {
		mu.Lock()
		delivered++
		mu.Unlock()
	})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		ev, err := NewEnvelope("sim", "actor.spawned", nil)
		require.NoError(t, err)
		require.NoError(t, bus.Publish(context.Background(), ev))
	}
	require.NoError(t, bus.Close())

	mu.Lock()
	assert.Equal(t, 5, delivered, "Close доставляет уже принятые события")
	mu.Unlock()

	ev, err := NewEnvelope("sim", "actor.spawned", nil)
	require.NoError(t, err)
	assert.ErrorIs(t, bus.Publish(context.Background(), ev), ErrClosed)
	_, err = bus.Subscribe(context.Background(), Filter{}, func(context.Context, *Envelope) {})
	assert.ErrorIs(t, err, ErrClosed)
	assert.NoError(t, bus.Close(), "Повторный Close безопасен")
}
