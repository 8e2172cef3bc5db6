package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/dgraph-io/badger/v3"
)

const badgerKeyPrefix = "checkpoint:"

// BadgerCheckpointRepo хранит точки сохранения в локальной BadgerDB
type BadgerCheckpointRepo struct {
	db      *badger.DB
	mutex   sync.RWMutex
	isReady bool
}

// NewBadgerCheckpointRepo открывает базу в dataPath/checkpoints.
// Пустой dataPath - база в памяти.
func NewBadgerCheckpointRepo(dataPath string) (*BadgerCheckpointRepo, error) {
	var opts badger.Options
	if dataPath == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(filepath.Join(dataPath, "checkpoints"))
	}
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}
	return &BadgerCheckpointRepo{db: db, isReady: true}, nil
}

func (r *BadgerCheckpointRepo) Save(ctx context.Context, cp *Checkpoint) error {
	if err := cp.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("ошибка сериализации слота %s: %w", cp.Slot, err)
	}

	r.mutex.RLock()
	defer r.mutex.RUnlock()
	if !r.isReady {
		return errors.New("хранилище закрыто")
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(badgerKeyPrefix+cp.Slot), data)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}
	return nil
}

func (r *BadgerCheckpointRepo) Load(ctx context.Context, slot string) (*Checkpoint, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	r.mutex.RLock()
	defer r.mutex.RUnlock()
	if !r.isReady {
		return nil, false, errors.New("хранилище закрыто")
	}

	var data []byte
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerKeyPrefix + slot))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("ошибка чтения слота %s: %w", slot, err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, false, fmt.Errorf("ошибка десериализации слота %s: %w", slot, err)
	}
	return &cp, true, nil
}

func (r *BadgerCheckpointRepo) Delete(ctx context.Context, slot string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mutex.RLock()
	defer r.mutex.RUnlock()
	if !r.isReady {
		return errors.New("хранилище закрыто")
	}

	return r.db.Update(func(txn *badger.Txn) error {
		key := []byte(badgerKeyPrefix + slot)
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("checkpoint %s not found", slot)
			}
			return err
		}
		return txn.Delete(key)
	})
}

// Close закрывает базу. Повторный вызов безопасен.
func (r *BadgerCheckpointRepo) Close() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if !r.isReady {
		return nil
	}
	r.isReady = false
	return r.db.Close()
}
