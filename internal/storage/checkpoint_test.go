package storage

import (
	"context"
	"sync"
	"testing"

	"github.com/annel0/overworld/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCheckpoint(slot string) *Checkpoint {
	return &Checkpoint{
		Slot:     slot,
		Map:      "cave",
		Place:    "entrance",
		Position: vec.Vec2Float{X: 64, Y: 128},
		Health:   5,
		Tick:     42,
	}
}

// exerciseRepo общий сценарий для всех реализаций
func exerciseRepo(t *testing.T, repo CheckpointRepo) {
	ctx := context.Background()

	_, found, err := repo.Load(ctx, "slot1")
	require.NoError(t, err)
	assert.False(t, found, "Несохранённый слот не должен находиться")

	require.NoError(t, repo.Save(ctx, sampleCheckpoint("slot1")))

	cp, found, err := repo.Load(ctx, "slot1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "cave", cp.Map)
	assert.Equal(t, "entrance", cp.Place)
	assert.Equal(t, vec.Vec2Float{X: 64, Y: 128}, cp.Position)
	assert.Equal(t, 5, cp.Health)
	assert.Equal(t, uint64(42), cp.Tick)

	// Перезапись
	next := sampleCheckpoint("slot1")
	next.Map = "overworld"
	next.Place = "start"
	require.NoError(t, repo.Save(ctx, next))
	cp, _, err = repo.Load(ctx, "slot1")
	require.NoError(t, err)
	assert.Equal(t, "overworld", cp.Map)

	require.NoError(t, repo.Delete(ctx, "slot1"))
	_, found, err = repo.Load(ctx, "slot1")
	require.NoError(t, err)
	assert.False(t, found)

	assert.Error(t, repo.Delete(ctx, "slot1"), "Удаление отсутствующего слота")
	assert.ErrorIs(t, repo.Save(ctx, &Checkpoint{Slot: "x"}), ErrInvalidCheckpoint)
}

func TestMemoryCheckpointRepo(t *testing.T) {
	repo := NewMemoryCheckpointRepo()
	exerciseRepo(t, repo)
	assert.Equal(t, 0, repo.Count())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, repo.Save(ctx, sampleCheckpoint("slot2")), context.Canceled)
}

func TestBadgerCheckpointRepo_InMemory(t *testing.T) {
	repo, err := NewBadgerCheckpointRepo("")
	require.NoError(t, err)
	defer repo.Close()

	exerciseRepo(t, repo)
}

func TestBadgerCheckpointRepo_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	repo, err := NewBadgerCheckpointRepo(dir)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, sampleCheckpoint("hero")))
	require.NoError(t, repo.Close())
	require.NoError(t, repo.Close(), "Повторное закрытие безопасно")

	_, _, err = repo.Load(ctx, "hero")
	assert.Error(t, err, "Закрытое хранилище")

	reopened, err := NewBadgerCheckpointRepo(dir)
	require.NoError(t, err)
	defer reopened.Close()

	cp, found, err := reopened.Load(ctx, "hero")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "entrance", cp.Place)
}

func TestCheckpoint_Validate(t *testing.T) {
	var nilCp *Checkpoint
	assert.ErrorIs(t, nilCp.Validate(), ErrInvalidCheckpoint)
	assert.ErrorIs(t, (&Checkpoint{Map: "a", Place: "b"}).Validate(), ErrInvalidCheckpoint)

	cp := sampleCheckpoint("s")
	cp.Health = -1
	assert.ErrorIs(t, cp.Validate(), ErrInvalidCheckpoint)
	assert.NoError(t, sampleCheckpoint("s").Validate())
}

func TestOpen_FallsBackToMemory(t *testing.T) {
	ctx := context.Background()

	repo, err := Open(ctx, Options{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryCheckpointRepo{}, repo)

	// Недоступный Redis: fallback вместо ошибки
	repo, err = Open(ctx, Options{Backend: BackendRedis, RedisAddr: "127.0.0.1:1"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryCheckpointRepo{}, repo)

	repo, err = Open(ctx, Options{Backend: BackendBadger})
	require.NoError(t, err)
	assert.IsType(t, &BadgerCheckpointRepo{}, repo)
	assert.NoError(t, repo.Close())

	_, err = Open(ctx, Options{Backend: "floppy"})
	assert.Error(t, err)
}

func TestMemoryCheckpointRepo_ConcurrentAccess(t *testing.T) {
	repo := NewMemoryCheckpointRepo()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cp := sampleCheckpoint("shared")
			cp.Tick = uint64(i)
			assert.NoError(t, repo.Save(ctx, cp))
			_, _, err := repo.Load(ctx, "shared")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, repo.Count())
}
