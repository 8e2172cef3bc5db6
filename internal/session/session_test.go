package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/annel0/overworld/internal/entity"
	"github.com/annel0/overworld/internal/eventbus"
	"github.com/annel0/overworld/internal/physics"
	"github.com/annel0/overworld/internal/storage"
	"github.com/annel0/overworld/internal/vec"
	"github.com/annel0/overworld/internal/world"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testFactory собирает две карты: луг с дверью в пещеру и пещеру
func testFactory(mapName string, player *entity.Entity, place string) (*world.Level, error) {
	l := world.NewLevel(world.LevelConfig{Name: mapName, Width: 160, Height: 160})

	switch mapName {
	case "meadow":
		l.AddLocation(&world.Location{Rect: physics.Rect{X: 0, Y: 0, W: 16, H: 16}, Name: "start"})
		l.AddTrigger(&world.Trigger{Rect: physics.Rect{X: 144, Y: 0, W: 16, H: 16}, Name: "door", Map: "cave", Place: "entrance"})
		l.AddTrigger(&world.Trigger{Rect: physics.Rect{X: 0, Y: 144, W: 16, H: 16}, Name: "broken", Map: "cave", Place: "nowhere"})
	case "cave":
		l.AddLocation(&world.Location{Rect: physics.Rect{X: 64, Y: 64, W: 16, H: 16}, Name: "entrance"})
	default:
		return nil, fmt.Errorf("unknown map %q", mapName)
	}

	player.ID = 0
	if err := l.PlacePlayer(player, place); err != nil {
		return nil, err
	}
	return l, nil
}

func newPlayer() *entity.Entity {
	p := entity.New("link", entity.TraitCollidable|entity.TraitMortal, vec.Vec2Float{}, vec.Vec2Float{X: 16, Y: 16})
	p.Health = 3
	entity.NewMotion(p, nil)
	return p
}

func TestSession_NewPlacesPlayer(t *testing.T) {
	player := newPlayer()
	s, err := New(Options{Factory: testFactory, Player: player, StartMap: "meadow", StartPlace: "start"})
	require.NoError(t, err)

	assert.Equal(t, "meadow", s.Level().Name())
	assert.Same(t, player, s.Level().MainPlayer())
	assert.NotEmpty(t, s.ID())

	require.NoError(t, s.Step(context.Background(), 0.016))
	st := s.Status()
	assert.Equal(t, uint64(1), st.Tick)
	assert.Equal(t, 1, st.Alive)
	assert.True(t, st.PlayerAlive)

	_, err = New(Options{Factory: testFactory, Player: newPlayer(), StartMap: "meadow", StartPlace: "nowhere"})
	assert.ErrorIs(t, err, world.ErrLocationNotFound)

	_, err = New(Options{Player: newPlayer()})
	assert.Error(t, err, "Без фабрики уровней сессия не создаётся")
}

func TestSession_TransitionSwapsLevelAndPublishes(t *testing.T) {
	bus := eventbus.NewMemoryBus(64)
	defer bus.Close()

	var mu sync.Mutex
	var got []*eventbus.Envelope
	delivered := make(chan struct{}, 1)
	_, err := bus.Subscribe(context.Background(), eventbus.Filter{Types: []string{"level.transition"}}, func(ctx context.Context, ev *eventbus.Envelope) {
		mu.Lock()
		got = append(got, ev)
		mu.Unlock()
		delivered <- struct{}{}
	})
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	player := newPlayer()
	s, err := New(Options{Factory: testFactory, Player: player, StartMap: "meadow", StartPlace: "start", Bus: bus, Registerer: reg})
	require.NoError(t, err)
	meadow := s.Level()

	player.Position = vec.Vec2Float{X: 144, Y: 0}
	require.NoError(t, s.Step(context.Background(), 0.016))

	assert.Equal(t, "cave", s.Level().Name())
	assert.Same(t, player, s.Level().MainPlayer())
	assert.Equal(t, vec.Vec2Float{X: 64, Y: 64}, player.Position)
	assert.Same(t, s.Level(), player.Space().(*world.Level), "Игрок привязан к новому уровню")
	assert.Equal(t, 0, meadow.Finder().Pending())
	assert.Equal(t, 1.0, testutil.ToFloat64(s.transitions))

	select {
	case <-delivered:
	case <-time.After(2 * time.Second):
		t.Fatal("событие перехода не доставлено")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	var payload TransitionPayload
	require.NoError(t, got[0].Decode(&payload))
	assert.Equal(t, TransitionPayload{From: "meadow", Tick: 1, Map: "cave", Place: "entrance"}, payload)
	assert.Equal(t, s.ID(), got[0].CorrelationID)
}

func TestSession_TransitionToMissingPlaceIsFatal(t *testing.T) {
	player := newPlayer()
	s, err := New(Options{Factory: testFactory, Player: player, StartMap: "meadow", StartPlace: "start"})
	require.NoError(t, err)

	player.Position = vec.Vec2Float{X: 0, Y: 144}
	err = s.Step(context.Background(), 0.016)
	assert.ErrorIs(t, err, world.ErrLocationNotFound)
}

func TestSession_RespawnsMainPlayer(t *testing.T) {
	player := newPlayer()
	s, err := New(Options{
		Factory: testFactory, Player: player,
		StartMap: "meadow", StartPlace: "start", RespawnPlace: "start",
	})
	require.NoError(t, err)

	player.Position = vec.Vec2Float{X: 64, Y: 64}
	player.Damage(10)

	require.NoError(t, s.Step(context.Background(), 0.016)) // в умирающие
	assert.False(t, player.IsAlive())
	require.NoError(t, s.Step(context.Background(), 0.016)) // удаление и возрождение

	assert.True(t, player.IsAlive())
	assert.Equal(t, 3, player.Health, "Здоровье восстанавливается до исходного")
	assert.Equal(t, vec.Vec2Float{}, player.Position)
	assert.Equal(t, 1, s.Level().AliveCount())
}

func TestSession_RunStopsOnCancel(t *testing.T) {
	s, err := New(Options{Factory: testFactory, Player: newPlayer(), StartMap: "meadow", StartPlace: "start", TickRate: 200})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	require.NoError(t, s.Run(ctx))
	assert.Greater(t, s.Status().Tick, uint64(0), "За время работы должны пройти тики")
}

func TestSession_CheckpointsSavedAndRestored(t *testing.T) {
	repo := storage.NewMemoryCheckpointRepo()
	player := newPlayer()
	s, err := New(Options{
		Factory: testFactory, Player: player,
		StartMap: "meadow", StartPlace: "start",
		Checkpoints: repo, Slot: "hero",
	})
	require.NoError(t, err)

	player.Position = vec.Vec2Float{X: 144, Y: 0}
	require.NoError(t, s.Step(context.Background(), 0.016))
	require.Equal(t, "cave", s.Level().Name())

	cp, found, err := repo.Load(context.Background(), "hero")
	require.NoError(t, err)
	require.True(t, found, "Переход записывает точку сохранения")
	assert.Equal(t, "cave", cp.Map)
	assert.Equal(t, "entrance", cp.Place)

	// Новая сессия продолжает с сохранённой карты
	cp.Health = 2
	require.NoError(t, repo.Save(context.Background(), cp))
	resumed := newPlayer()
	s2, err := New(Options{
		Factory: testFactory, Player: resumed,
		StartMap: "meadow", StartPlace: "start",
		Checkpoints: repo, Slot: "hero",
	})
	require.NoError(t, err)
	assert.Equal(t, "cave", s2.Level().Name())
	assert.Equal(t, 2, resumed.Health)

	// Слот с несуществующей картой: старт с начальной
	require.NoError(t, repo.Save(context.Background(), &storage.Checkpoint{Slot: "hero", Map: "atlantis", Place: "gate"}))
	s3, err := New(Options{
		Factory: testFactory, Player: newPlayer(),
		StartMap: "meadow", StartPlace: "start",
		Checkpoints: repo, Slot: "hero",
	})
	require.NoError(t, err)
	assert.Equal(t, "meadow", s3.Level().Name())
}
