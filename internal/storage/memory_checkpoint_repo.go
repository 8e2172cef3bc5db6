package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// MemoryCheckpointRepo хранит точки сохранения в памяти.
// Используется как fallback, когда внешнее хранилище недоступно.
// ВНИМАНИЕ: Данные теряются при перезапуске!
type MemoryCheckpointRepo struct {
	mu   sync.RWMutex
	data map[string]Checkpoint
}

// NewMemoryCheckpointRepo создает репозиторий в памяти
func NewMemoryCheckpointRepo() *MemoryCheckpointRepo {
	return &MemoryCheckpointRepo{data: make(map[string]Checkpoint)}
}

func (r *MemoryCheckpointRepo) Save(ctx context.Context, cp *Checkpoint) error {
	if err := cp.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[cp.Slot] = *cp
	return nil
}

func (r *MemoryCheckpointRepo) Load(ctx context.Context, slot string) (*Checkpoint, bool, error) {
	if slot == "" {
		return nil, false, errors.New("empty slot")
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	cp, ok := r.data[slot]
	if !ok {
		return nil, false, nil
	}
	return &cp, true, nil
}

func (r *MemoryCheckpointRepo) Delete(ctx context.Context, slot string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.data[slot]; !ok {
		return fmt.Errorf("checkpoint %s not found", slot)
	}
	delete(r.data, slot)
	return nil
}

// Count возвращает количество слотов (для отладки)
func (r *MemoryCheckpointRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.data)
}

func (r *MemoryCheckpointRepo) Close() error { return nil }
