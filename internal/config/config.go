package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации симуляции.
// Отсутствующие секции заменяются значениями по умолчанию через геттеры.
type Config struct {
	Sim         SimConfig         `yaml:"sim"`
	Pathfinding PathfindingConfig `yaml:"pathfinding"`
	Spatial     SpatialConfig     `yaml:"spatial"`
	EventBus    EventBusConfig    `yaml:"eventbus"`
	Storage     StorageConfig     `yaml:"storage"`
	Server      ServerConfig      `yaml:"server"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
	Logging     LoggingConfig     `yaml:"logging"`
}

type SimConfig struct {
	TickRate     int    `yaml:"tick_rate"` // Тиков в секунду
	Species      string `yaml:"species_file"`
	StartMap     string `yaml:"start_map"`
	StartPlace   string `yaml:"start_place"`
	PlayerKind   string `yaml:"player_species"`
	StatusEvery  int    `yaml:"status_every_seconds"`
	RespawnPlace string `yaml:"respawn_place"`
}

type PathfindingConfig struct {
	Resolution      int `yaml:"resolution"`
	MaxNodesPerTick int `yaml:"max_nodes_per_tick"`
}

type SpatialConfig struct {
	MaxObjects int `yaml:"max_objects"`
	MaxLevels  int `yaml:"max_levels"`
}

type EventBusConfig struct {
	URL       string `yaml:"url"` // Пусто - шина в памяти
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
	Buffer    int    `yaml:"buffer"`
}

// StorageConfig хранилище точек сохранения игрока
type StorageConfig struct {
	Backend   string `yaml:"backend"` // memory | badger | redis | mysql | mongo
	Path      string `yaml:"path"`    // badger
	RedisAddr string `yaml:"redis_addr"`
	RedisPass string `yaml:"redis_password"`
	DSN       string `yaml:"dsn"` // mysql
	MongoURI  string `yaml:"mongo_uri"`
	Slot      string `yaml:"slot"`
}

type ServerConfig struct {
	DebugPort   int    `yaml:"debug_port"`
	MetricsPort int    `yaml:"metrics_port"`
	DebugSecret string `yaml:"debug_secret"` // base64, пусто - /level без авторизации
}

type TelemetryConfig struct {
	Enabled     bool    `yaml:"enabled"`
	ServiceName string  `yaml:"service_name"`
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"` // Пусто - только консоль
	// Пороги отдельных компонентов, например pathfinding: debug
	Components map[string]string `yaml:"components"`
}

// Default возвращает конфигурацию со значениями по умолчанию
func Default() *Config {
	return &Config{
		Sim: SimConfig{
			TickRate:    60,
			StartMap:    "overworld",
			StartPlace:  "start",
			PlayerKind:  "link",
			StatusEvery: 10,
		},
		Pathfinding: PathfindingConfig{
			Resolution:      16,
			MaxNodesPerTick: 600,
		},
		Spatial: SpatialConfig{
			MaxObjects: 10,
			MaxLevels:  5,
		},
		EventBus: EventBusConfig{
			Stream:    "OVERWORLD",
			Retention: 24,
			Buffer:    1024,
		},
		Storage: StorageConfig{
			Backend: "memory",
			Path:    "data",
			Slot:    "default",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "overworld",
			SampleRatio: 0.1,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// GetDebugPort возвращает порт отладочного HTTP сервера
func (s *ServerConfig) GetDebugPort() int {
	return getPortWithEnvFallback(s.DebugPort, "OVERWORLD_DEBUG_PORT", 8090)
}

// GetMetricsPort возвращает порт Prometheus метрик
func (s *ServerConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(s.MetricsPort, "OVERWORLD_METRICS_PORT", 2112)
}

// GetDebugSecret возвращает секрет токенов операторов с fallback на
// OVERWORLD_DEBUG_SECRET
func (s *ServerConfig) GetDebugSecret() string {
	if s.DebugSecret != "" {
		return s.DebugSecret
	}
	return os.Getenv("OVERWORLD_DEBUG_SECRET")
}

// GetURL возвращает адрес NATS с fallback на OVERWORLD_NATS_URL
func (e *EventBusConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	return os.Getenv("OVERWORLD_NATS_URL")
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", используется OVERWORLD_CONFIG; если и он пуст,
// возвращаются значения по умолчанию.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("OVERWORLD_CONFIG")
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate проверяет согласованность значений
func (c *Config) Validate() error {
	if c.Sim.TickRate <= 0 {
		return fmt.Errorf("sim.tick_rate must be positive, got %d", c.Sim.TickRate)
	}
	if c.Pathfinding.Resolution <= 0 {
		return fmt.Errorf("pathfinding.resolution must be positive, got %d", c.Pathfinding.Resolution)
	}
	if c.Pathfinding.MaxNodesPerTick <= 0 {
		return fmt.Errorf("pathfinding.max_nodes_per_tick must be positive, got %d", c.Pathfinding.MaxNodesPerTick)
	}
	if c.Spatial.MaxObjects <= 0 || c.Spatial.MaxLevels < 0 {
		return fmt.Errorf("spatial limits are invalid: max_objects=%d max_levels=%d", c.Spatial.MaxObjects, c.Spatial.MaxLevels)
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry.sample_ratio must be within [0,1], got %g", c.Telemetry.SampleRatio)
	}
	switch c.Storage.Backend {
	case "", "memory", "badger", "redis", "mysql", "mongo":
	default:
		return fmt.Errorf("storage.backend %q is not supported", c.Storage.Backend)
	}
	return nil
}
