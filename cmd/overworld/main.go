package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/overworld/internal/asset"
	"github.com/annel0/overworld/internal/auth"
	"github.com/annel0/overworld/internal/config"
	"github.com/annel0/overworld/internal/debugapi"
	"github.com/annel0/overworld/internal/eventbus"
	"github.com/annel0/overworld/internal/gen"
	"github.com/annel0/overworld/internal/logging"
	"github.com/annel0/overworld/internal/observability"
	"github.com/annel0/overworld/internal/session"
	"github.com/annel0/overworld/internal/storage"
	"github.com/annel0/overworld/internal/vec"
	"github.com/annel0/overworld/internal/world"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config (defaults to $OVERWORLD_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	// === ЛОГИРОВАНИЕ ===
	logging.SetDefaultLevel(logging.ParseLevel(cfg.Logging.Level))
	if cfg.Logging.Dir != "" {
		logging.EnableFileLogging(cfg.Logging.Dir)
	}
	if err := logging.InitDefaultLogger("overworld"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	logging.GetLoggerManager().Configure(cfg.Logging.Components)
	defer logging.CloseDefaultLogger()
	defer logging.GetLoggerManager().CloseAll()

	logging.Info("🎮 Запуск симуляции overworld (tick rate %d)", cfg.Sim.TickRate)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// === ТЕЛЕМЕТРИЯ ===
	if cfg.Telemetry.Enabled {
		shutdown, err := observability.InitTelemetry(ctx, observability.TelemetryOptions{
			ServiceName: cfg.Telemetry.ServiceName,
			Endpoint:    cfg.Telemetry.Endpoint,
			Insecure:    cfg.Telemetry.Insecure,
			SampleRatio: cfg.Telemetry.SampleRatio,
			TickRate:    cfg.Sim.TickRate,
		})
		if err != nil {
			logging.Error("❌ OpenTelemetry не инициализирован: %v", err)
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logging.Error("Ошибка остановки OpenTelemetry: %v", err)
				}
			}()
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// === ШИНА СОБЫТИЙ ===
	bus := newEventBus(cfg)
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error("Ошибка закрытия шины событий: %v", err)
		}
	}()
	if _, err := eventbus.StartLoggingListener(ctx, bus); err != nil {
		logging.Error("LoggingListener не запущен: %v", err)
	}
	busMetrics := eventbus.NewMetricsExporter(bus, reg)
	busMetrics.Start(time.Second)
	defer busMetrics.Stop()

	// === РЕЕСТР ВИДОВ И КАРТЫ ===
	registry, err := loadRegistry(cfg.Sim.Species)
	if err != nil {
		logging.Fatal("❌ Ошибка загрузки реестра видов: %v", err)
	}

	builder := gen.NewBuilder(registry, world.LevelConfig{
		Resolution:      cfg.Pathfinding.Resolution,
		MaxNodesPerTick: cfg.Pathfinding.MaxNodesPerTick,
		MaxObjects:      cfg.Spatial.MaxObjects,
		MaxLevels:       cfg.Spatial.MaxLevels,
	}, demoMaps()...)

	player, err := registry.Spawn(cfg.Sim.PlayerKind, vec.Vec2Float{})
	if err != nil {
		logging.Fatal("❌ Не удалось создать игрока: %v", err)
	}

	// === ТОЧКИ СОХРАНЕНИЯ ===
	checkpoints, err := storage.Open(ctx, storage.Options{
		Backend:   storage.Backend(cfg.Storage.Backend),
		Path:      cfg.Storage.Path,
		RedisAddr: cfg.Storage.RedisAddr,
		RedisPass: cfg.Storage.RedisPass,
		DSN:       cfg.Storage.DSN,
		MongoURI:  cfg.Storage.MongoURI,
	})
	if err != nil {
		logging.Fatal("❌ Ошибка открытия хранилища: %v", err)
	}
	defer func() {
		if err := checkpoints.Close(); err != nil {
			logging.Error("Ошибка закрытия хранилища: %v", err)
		}
	}()

	monitor, err := observability.NewProcessMonitor()
	if err != nil {
		logging.Warn("Статистика процесса недоступна: %v", err)
	}

	sess, err := session.New(session.Options{
		TickRate:     cfg.Sim.TickRate,
		Factory:      builder.Build,
		Player:       player,
		StartMap:     cfg.Sim.StartMap,
		StartPlace:   cfg.Sim.StartPlace,
		RespawnPlace: cfg.Sim.RespawnPlace,
		Bus:          bus,
		Registerer:   reg,
		Monitor:      monitor,
		StatusEvery:  time.Duration(cfg.Sim.StatusEvery) * time.Second,
		Checkpoints:  checkpoints,
		Slot:         cfg.Storage.Slot,
	})
	if err != nil {
		logging.Fatal("❌ Ошибка создания сессии: %v", err)
	}

	// === HTTP ===
	var signer *auth.Signer
	if secret := cfg.Server.GetDebugSecret(); secret != "" {
		if signer, err = auth.NewSigner(secret); err != nil {
			logging.Fatal("❌ Некорректный секрет debug API: %v", err)
		}
		logging.Info("🔐 /level требует токен оператора")
	}

	debug := debugapi.NewServer(debugapi.Config{
		Port:       cfg.Server.GetDebugPort(),
		Source:     sess,
		Registerer: reg,
		Gatherer:   reg,
		Signer:     signer,
	})
	debug.Start()

	metricsAddr := fmt.Sprintf(":%d", cfg.Server.GetMetricsPort())
	metricsSrv := &http.Server{Addr: metricsAddr, Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logging.Info("📈 Prometheus /metrics доступен по адресу %s", metricsAddr)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("Ошибка Prometheus HTTP сервера: %v", err)
		}
	}()

	logging.Info("✅ Симуляция запущена")
	logging.Info("   ❤️  Health check: http://localhost:%d/health", cfg.Server.GetDebugPort())
	logging.Info("   🗺️  Уровень: http://localhost:%d/level", cfg.Server.GetDebugPort())

	runErr := sess.Run(ctx)

	// === GRACEFUL SHUTDOWN ===
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := debug.Shutdown(shutdownCtx); err != nil {
		logging.Error("❌ Ошибка остановки debug API: %v", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logging.Error("❌ Ошибка остановки сервера метрик: %v", err)
	}

	if runErr != nil {
		// Карта без точки появления игрока: продолжать бессмысленно
		logging.Fatal("❌ Симуляция остановлена: %v", runErr)
	}
	logging.Info("👋 Симуляция остановлена")
}

// newEventBus подключается к NATS JetStream или, если адрес не задан
// или недоступен, использует шину в памяти
func newEventBus(cfg *config.Config) eventbus.EventBus {
	if url := cfg.EventBus.GetURL(); url != "" {
		retention := time.Duration(cfg.EventBus.Retention) * time.Hour
		js, err := eventbus.NewJetStreamBus(url, cfg.EventBus.Stream, retention)
		if err == nil {
			logging.Info("📨 EventBus: NATS JetStream %s (stream %s)", url, cfg.EventBus.Stream)
			return js
		}
		logging.Warn("NATS недоступен (%v), используется шина в памяти", err)
	}
	logging.Info("📨 EventBus: in-memory (buffer %d)", cfg.EventBus.Buffer)
	return eventbus.NewMemoryBus(cfg.EventBus.Buffer)
}

func loadRegistry(path string) (*asset.Registry, error) {
	if path == "" {
		return asset.ParseRegistry([]byte(defaultSpecies))
	}
	return asset.LoadRegistry(path)
}
