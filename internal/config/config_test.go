package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
sim:
  tick_rate: 30
  start_map: cave
pathfinding:
  max_nodes_per_tick: 100
eventbus:
  url: nats://localhost:4222
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.Sim.TickRate)
	assert.Equal(t, "cave", cfg.Sim.StartMap)
	assert.Equal(t, "start", cfg.Sim.StartPlace, "Незаданные поля сохраняют значения по умолчанию")
	assert.Equal(t, 100, cfg.Pathfinding.MaxNodesPerTick)
	assert.Equal(t, 16, cfg.Pathfinding.Resolution)
	assert.Equal(t, "nats://localhost:4222", cfg.EventBus.GetURL())
	assert.Equal(t, "memory", cfg.Storage.Backend)
}

func TestLoad_EmptyPathUsesEnvOrDefaults(t *testing.T) {
	t.Setenv("OVERWORLD_CONFIG", "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	path := writeConfig(t, "sim:\n  tick_rate: 20\n")
	t.Setenv("OVERWORLD_CONFIG", path)
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Sim.TickRate)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "sim: ["))
	assert.Error(t, err, "Некорректный YAML")

	_, err = Load(writeConfig(t, "pathfinding:\n  resolution: -1\n"))
	assert.Error(t, err, "Отрицательный размер клетки недопустим")

	_, err = Load(writeConfig(t, "storage:\n  backend: floppy\n"))
	assert.Error(t, err, "Неизвестное хранилище")

	_, err = Load(writeConfig(t, "telemetry:\n  sample_ratio: 1.5\n"))
	assert.Error(t, err, "Доля сэмплирования больше единицы")
}

func TestServerConfig_PortFallbacks(t *testing.T) {
	s := ServerConfig{DebugPort: 9000}
	assert.Equal(t, 9000, s.GetDebugPort())

	t.Setenv("OVERWORLD_METRICS_PORT", "9100")
	assert.Equal(t, 9100, s.GetMetricsPort())

	t.Setenv("OVERWORLD_METRICS_PORT", "not-a-port")
	assert.Equal(t, 2112, s.GetMetricsPort())
}
