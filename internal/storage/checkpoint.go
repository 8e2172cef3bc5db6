package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/annel0/overworld/internal/vec"
)

// ErrInvalidCheckpoint возвращается при попытке сохранить неполную точку сохранения
var ErrInvalidCheckpoint = errors.New("invalid checkpoint")

// Checkpoint точка сохранения главного игрока. Уровни собираются заново,
// поэтому игрок восстанавливается по карте и точке появления, а не по
// точным координатам.
type Checkpoint struct {
	Slot     string        `json:"slot"`
	Map      string        `json:"map"`
	Place    string        `json:"place"`
	Position vec.Vec2Float `json:"position"`
	Health   int           `json:"health"`
	Tick     uint64        `json:"tick"`
	SavedAt  time.Time     `json:"saved_at"`
}

// Validate проверяет обязательные поля
func (c *Checkpoint) Validate() error {
	switch {
	case c == nil:
		return fmt.Errorf("%w: nil", ErrInvalidCheckpoint)
	case c.Slot == "":
		return fmt.Errorf("%w: empty slot", ErrInvalidCheckpoint)
	case c.Map == "" || c.Place == "":
		return fmt.Errorf("%w: slot %s has no map or place", ErrInvalidCheckpoint, c.Slot)
	case c.Health < 0:
		return fmt.Errorf("%w: slot %s has negative health %d", ErrInvalidCheckpoint, c.Slot, c.Health)
	}
	return nil
}

// CheckpointRepo хранилище точек сохранения, ключ - имя слота
type CheckpointRepo interface {
	// Save сохраняет или перезаписывает слот
	Save(ctx context.Context, cp *Checkpoint) error

	// Load загружает слот. false - слот ещё не сохранялся.
	Load(ctx context.Context, slot string) (*Checkpoint, bool, error)

	// Delete удаляет слот (сброс прогресса)
	Delete(ctx context.Context, slot string) error

	Close() error
}
