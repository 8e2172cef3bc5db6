package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/annel0/overworld/internal/vec"
	_ "github.com/go-sql-driver/mysql"
)

// MariaCheckpointRepo хранит точки сохранения в таблице player_checkpoints
// MariaDB/MySQL
type MariaCheckpointRepo struct {
	db *sql.DB
}

// NewMariaCheckpointRepo подключается к базе и создаёт таблицу, если её нет.
// dsn: user:pass@tcp(host:port)/dbname?parseTime=true
func NewMariaCheckpointRepo(ctx context.Context, dsn string) (*MariaCheckpointRepo, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к MariaDB: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось проверить соединение с MariaDB: %w", err)
	}

	repo := &MariaCheckpointRepo{db: db}
	if err := repo.createTable(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *MariaCheckpointRepo) createTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS player_checkpoints (
			slot       VARCHAR(64)  PRIMARY KEY,
			map        VARCHAR(64)  NOT NULL,
			place      VARCHAR(64)  NOT NULL,
			x          DOUBLE       NOT NULL,
			y          DOUBLE       NOT NULL,
			health     INT          NOT NULL,
			tick       BIGINT       NOT NULL,
			saved_at   TIMESTAMP    DEFAULT CURRENT_TIMESTAMP
			           ON UPDATE    CURRENT_TIMESTAMP
		) ENGINE=InnoDB
	`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ошибка создания таблицы player_checkpoints: %w", err)
	}
	return nil
}

// Save использует INSERT ... ON DUPLICATE KEY UPDATE
func (r *MariaCheckpointRepo) Save(ctx context.Context, cp *Checkpoint) error {
	if err := cp.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO player_checkpoints (slot, map, place, x, y, health, tick)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			map = VALUES(map),
			place = VALUES(place),
			x = VALUES(x),
			y = VALUES(y),
			health = VALUES(health),
			tick = VALUES(tick),
			saved_at = CURRENT_TIMESTAMP
	`
	_, err := r.db.ExecContext(ctx, query, cp.Slot, cp.Map, cp.Place, cp.Position.X, cp.Position.Y, cp.Health, cp.Tick)
	if err != nil {
		return fmt.Errorf("ошибка сохранения слота %s: %w", cp.Slot, err)
	}
	return nil
}

func (r *MariaCheckpointRepo) Load(ctx context.Context, slot string) (*Checkpoint, bool, error) {
	query := `SELECT map, place, x, y, health, tick, saved_at FROM player_checkpoints WHERE slot = ?`

	cp := &Checkpoint{Slot: slot}
	var pos vec.Vec2Float
	err := r.db.QueryRowContext(ctx, query, slot).Scan(&cp.Map, &cp.Place, &pos.X, &pos.Y, &cp.Health, &cp.Tick, &cp.SavedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("ошибка загрузки слота %s: %w", slot, err)
	}
	cp.Position = pos
	return cp, true, nil
}

func (r *MariaCheckpointRepo) Delete(ctx context.Context, slot string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM player_checkpoints WHERE slot = ?`, slot)
	if err != nil {
		return fmt.Errorf("ошибка удаления слота %s: %w", slot, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ошибка получения количества затронутых строк: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("checkpoint %s not found", slot)
	}
	return nil
}

// Close закрывает соединение с базой данных
func (r *MariaCheckpointRepo) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
