package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/annel0/overworld/internal/entity"
	"github.com/annel0/overworld/internal/eventbus"
	"github.com/annel0/overworld/internal/logging"
	"github.com/annel0/overworld/internal/observability"
	"github.com/annel0/overworld/internal/pathfinding"
	"github.com/annel0/overworld/internal/storage"
	"github.com/annel0/overworld/internal/vec"
	"github.com/annel0/overworld/internal/world"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// LevelFactory собирает уровень по имени карты и размещает на нём игрока
// в точке place. Идентификатор игрока назначается заново.
type LevelFactory func(mapName string, player *entity.Entity, place string) (*world.Level, error)

// Options параметры сессии
type Options struct {
	TickRate     int // Тиков в секунду
	Factory      LevelFactory
	Player       *entity.Entity
	StartMap     string
	StartPlace   string
	RespawnPlace string // Пусто - без возрождения главного игрока
	PlayerHealth int

	Bus         eventbus.EventBus     // Может быть nil
	Registerer  prometheus.Registerer // Может быть nil
	Monitor     *observability.ProcessMonitor
	StatusEvery time.Duration

	// Точки сохранения: старт с сохранённой карты, запись при переходах и
	// возрождении. Может быть nil.
	Checkpoints storage.CheckpointRepo
	Slot        string
}

// Status снимок состояния сессии для отладочного API
type Status struct {
	SessionID    string                     `json:"session_id"`
	Map          string                     `json:"map"`
	Tick         uint64                     `json:"tick"`
	Alive        int                        `json:"alive"`
	Dying        int                        `json:"dying"`
	Paths        pathfinding.Stats          `json:"paths"`
	Player       vec.Vec2Float              `json:"player"`
	PlayerAlive  bool                       `json:"player_alive"`
	StaticIndex  string                     `json:"static_index"`
	DynamicIndex string                     `json:"dynamic_index"`
	Process      observability.ProcessStats `json:"process"`
	UpdatedAt    time.Time                  `json:"updated_at"`
}

// Session ведёт симуляцию текущего уровня с фиксированной частотой тиков
// и заменяет уровень при переходе между картами
type Session struct {
	id   string
	opts Options

	level        *world.Level
	levelMetrics *world.Metrics

	tickDuration prometheus.Histogram
	transitions  prometheus.Counter

	tracer trace.Tracer
	logger *logging.Logger

	ctx        context.Context // Контекст текущего Step для публикации событий
	lastStatus time.Time

	mu     sync.RWMutex
	status Status
}

// New создаёт сессию и собирает стартовый уровень
func New(opts Options) (*Session, error) {
	if opts.Factory == nil {
		return nil, errors.New("session: level factory is required")
	}
	if opts.Player == nil {
		return nil, errors.New("session: player is required")
	}
	if opts.TickRate <= 0 {
		opts.TickRate = 60
	}
	if opts.PlayerHealth <= 0 {
		opts.PlayerHealth = opts.Player.Health
	}

	s := &Session{
		id:     uuid.NewString(),
		opts:   opts,
		tracer: observability.Tracer(),
		logger: logging.GetSessionLogger(),
		ctx:    context.Background(),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "overworld",
			Name:      "tick_duration_seconds",
			Help:      "Длительность одного тика симуляции.",
			Buckets:   []float64{0.0005, 0.001, 0.002, 0.004, 0.008, 0.016, 0.033, 0.066},
		}),
		transitions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "overworld",
			Name:      "level_transitions_total",
			Help:      "Выполненные переходы между картами.",
		}),
	}

	if opts.Registerer != nil {
		opts.Registerer.MustRegister(s.tickDuration, s.transitions)
		s.levelMetrics = world.NewMetrics(opts.Registerer)
	}

	level, err := s.buildStartLevel()
	if err != nil {
		return nil, err
	}
	s.attach(level)

	s.logger.Info("🎮 Сессия %s запущена на карте %s", s.id, level.Name())
	return s, nil
}

// buildStartLevel собирает стартовый уровень, предпочитая сохранённую точку
func (s *Session) buildStartLevel() (*world.Level, error) {
	opts := s.opts
	if cp := s.loadCheckpoint(); cp != nil {
		level, err := opts.Factory(cp.Map, opts.Player, cp.Place)
		if err == nil {
			if cp.Health > 0 {
				opts.Player.Health = cp.Health
			}
			s.logger.Info("💾 Игрок восстановлен из слота %s: %s/%s", cp.Slot, cp.Map, cp.Place)
			return level, nil
		}
		s.logger.Warn("Слот %s не восстановлен (%v), старт с %s", cp.Slot, err, opts.StartMap)
	}

	level, err := opts.Factory(opts.StartMap, opts.Player, opts.StartPlace)
	if err != nil {
		return nil, fmt.Errorf("build start map %s: %w", opts.StartMap, err)
	}
	return level, nil
}

func (s *Session) loadCheckpoint() *storage.Checkpoint {
	if s.opts.Checkpoints == nil || s.opts.Slot == "" {
		return nil
	}
	cp, found, err := s.opts.Checkpoints.Load(context.Background(), s.opts.Slot)
	if err != nil {
		s.logger.Error("Ошибка чтения слота %s: %v", s.opts.Slot, err)
		return nil
	}
	if !found {
		return nil
	}
	return cp
}

// saveCheckpoint записывает текущую карту и точку появления главного игрока
func (s *Session) saveCheckpoint(ctx context.Context, place string) {
	if s.opts.Checkpoints == nil || s.opts.Slot == "" {
		return
	}
	p := s.level.MainPlayer()
	if p == nil {
		return
	}
	cp := &storage.Checkpoint{
		Slot:     s.opts.Slot,
		Map:      s.level.Name(),
		Place:    place,
		Position: p.Position,
		Health:   p.Health,
		Tick:     s.level.Tick(),
		SavedAt:  time.Now(),
	}
	if err := s.opts.Checkpoints.Save(ctx, cp); err != nil {
		s.logger.Error("Ошибка сохранения слота %s: %v", s.opts.Slot, err)
	}
}

// ID возвращает идентификатор сессии
func (s *Session) ID() string { return s.id }

// Level возвращает текущий уровень. Только для потока тика.
func (s *Session) Level() *world.Level { return s.level }

// Status возвращает последний снимок состояния. Безопасен из любой горутины.
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Run выполняет тики с частотой TickRate до отмены ctx или фатальной ошибки
func (s *Session) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(s.opts.TickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Сессия %s остановлена на тике %d", s.id, s.level.Tick())
			return nil
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			if err := s.Step(ctx, dt); err != nil {
				return err
			}
		}
	}
}

// Step выполняет один тик: обновление уровня, возрождение главного игрока,
// переход между картами и обновление метрик
func (s *Session) Step(ctx context.Context, dt float64) error {
	ctx, span := s.tracer.Start(ctx, "session.tick", trace.WithAttributes(
		attribute.String("map", s.level.Name()),
		attribute.Int64("tick", int64(s.level.Tick()+1)),
	))
	defer span.End()

	s.ctx = ctx
	start := time.Now()

	s.level.Update(dt)
	s.respawnIfFinalized()

	if err := s.handleTransition(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	s.tickDuration.Observe(time.Since(start).Seconds())
	if s.levelMetrics != nil {
		s.levelMetrics.Observe(s.level)
	}

	span.SetAttributes(
		attribute.Int("alive", s.level.AliveCount()),
		attribute.Int("paths_pending", s.level.Finder().Pending()),
	)

	s.refreshStatus()
	return nil
}

// attach делает уровень текущим и подписывает на него метрики и шину событий
func (s *Session) attach(level *world.Level) {
	s.level = level
	if s.levelMetrics != nil {
		s.levelMetrics.Attach(level)
	}
	if s.opts.Bus != nil {
		level.Subscribe(s.publish)
	}
	s.refreshStatus()
}

// respawnIfFinalized возвращает главного игрока после завершения его смерти
func (s *Session) respawnIfFinalized() {
	if s.opts.RespawnPlace == "" {
		return
	}
	p := s.level.MainPlayer()
	if p == nil || p.IsAlive() {
		return
	}
	if _, onLevel := s.level.Entity(p.ID); onLevel {
		return
	}
	if _, ok := s.level.Location(s.opts.RespawnPlace); !ok {
		return
	}

	if err := s.level.RespawnPlayer(s.opts.RespawnPlace, s.opts.PlayerHealth); err != nil {
		s.logger.Error("Не удалось возродить игрока: %v", err)
		return
	}
	s.logger.Info("Игрок возрождён в %s", s.opts.RespawnPlace)
	s.saveCheckpoint(s.ctx, s.opts.RespawnPlace)
}

// handleTransition заменяет уровень, если он запросил переход. Отсутствие
// точки появления на целевой карте фатально.
func (s *Session) handleTransition() error {
	if !s.level.TransitionRequested() {
		return nil
	}

	data, _ := s.level.TransitionData()
	s.level.ClearTransition()

	player := s.level.MainPlayer()
	if player == nil {
		s.logger.Warn("Переход на %s без главного игрока проигнорирован", data.Map)
		return nil
	}

	// Хитбоксы текущего занятия принадлежат старому уровню
	if player.Motion != nil {
		player.Motion.Reset()
	}

	next, err := s.opts.Factory(data.Map, player, data.Place)
	if err != nil {
		if errors.Is(err, world.ErrLocationNotFound) {
			return fmt.Errorf("transition to %s/%s: %w", data.Map, data.Place, err)
		}
		// Карта не собралась: остаёмся на текущей
		s.logger.Error("Переход на %s не выполнен: %v", data.Map, err)
		return nil
	}

	prev := s.level
	prev.Close()
	s.attach(next)
	s.transitions.Inc()
	s.saveCheckpoint(s.ctx, data.Place)

	s.logger.Info("🚪 Переход %s → %s/%s", prev.Name(), data.Map, data.Place)
	return nil
}

// refreshStatus обновляет снимок состояния для других горутин
func (s *Session) refreshStatus() {
	l := s.level
	st := Status{
		SessionID: s.id,
		Map:       l.Name(),
		Tick:      l.Tick(),
		Alive:     l.AliveCount(),
		Dying:     l.DyingCount(),
		Paths:     l.Finder().Stats(),
		UpdatedAt: time.Now(),
	}
	if p := l.MainPlayer(); p != nil {
		st.Player = p.Position
		st.PlayerAlive = p.IsAlive()
	}

	report := s.opts.StatusEvery > 0 && time.Since(s.lastStatus) >= s.opts.StatusEvery
	if report {
		st.StaticIndex, st.DynamicIndex = l.IndexStats()
		if s.opts.Monitor != nil {
			st.Process = s.opts.Monitor.Snapshot()
		}
		s.lastStatus = st.UpdatedAt
	}

	s.mu.Lock()
	if !report {
		// Тяжёлые поля обновляются только в статусных отчётах
		st.StaticIndex, st.DynamicIndex = s.status.StaticIndex, s.status.DynamicIndex
		st.Process = s.status.Process
	}
	s.status = st
	s.mu.Unlock()

	if report {
		s.logger.Info("📊 %s тик %d: живых %d, умирающих %d, путей в очереди %d, CPU %.1f%%, память %.1f MB, аптайм %s",
			st.Map, st.Tick, st.Alive, st.Dying, st.Paths.Pending,
			st.Process.CPUPercent, st.Process.HeapMB, observability.FormatUptime(st.Process.Uptime))
	}
}
