package storage

import (
	"context"
	"fmt"

	"github.com/annel0/overworld/internal/logging"
)

// Backend тип хранилища точек сохранения
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendBadger Backend = "badger"
	BackendRedis  Backend = "redis"
	BackendMaria  Backend = "mysql"
	BackendMongo  Backend = "mongo"
)

// Options параметры подключения к хранилищу
type Options struct {
	Backend   Backend
	Path      string // badger: каталог данных
	RedisAddr string
	RedisPass string
	DSN       string // mysql
	MongoURI  string
}

// Open открывает хранилище выбранного типа. Если внешнее хранилище
// недоступно, используется хранилище в памяти.
func Open(ctx context.Context, opts Options) (CheckpointRepo, error) {
	logger := logging.GetComponentLogger("storage")

	var (
		repo CheckpointRepo
		err  error
	)
	switch opts.Backend {
	case "", BackendMemory:
		logger.Info("💾 Точки сохранения: in-memory")
		return NewMemoryCheckpointRepo(), nil
	case BackendBadger:
		repo, err = NewBadgerCheckpointRepo(opts.Path)
	case BackendRedis:
		cfg := DefaultRedisConfig()
		if opts.RedisAddr != "" {
			cfg.Addr = opts.RedisAddr
		}
		cfg.Password = opts.RedisPass
		repo, err = NewRedisCheckpointRepo(ctx, cfg)
	case BackendMaria:
		repo, err = NewMariaCheckpointRepo(ctx, opts.DSN)
	case BackendMongo:
		repo, err = NewMongoCheckpointRepo(ctx, MongoConfig{URI: opts.MongoURI})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}

	if err != nil {
		logger.Warn("⚠️ Хранилище %s недоступно (%v), используется in-memory", opts.Backend, err)
		return NewMemoryCheckpointRepo(), nil
	}
	logger.Info("💾 Точки сохранения: %s", opts.Backend)
	return repo, nil
}
