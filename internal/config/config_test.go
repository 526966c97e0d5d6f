package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("без файла", func(t *testing.T) {
		t.Setenv("BOTSIM_CONFIG", "")
		cfg, err := Load("")
		require.NoError(t, err)
		require.NotNil(t, cfg)
		assert.Equal(t, 32, cfg.Planner.GetStackCapacity())
		assert.Equal(t, 192, cfg.Planner.GetMaxSimulatedSteps())
		assert.Equal(t, 48, cfg.Planner.GetDefaultStepMillis())
		assert.Len(t, cfg.Planner.GetStepMillis(), 2)
		assert.Equal(t, "botsim", cfg.Telemetry.GetServiceName())
		assert.Equal(t, "data/replay", cfg.Replay.GetPath())
	})

	t.Run("из файла", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "botsim.yaml")
		data := `
planner:
  stack_capacity: 16
  step_millis:
    - below_depth: 2
      millis: 8
sim:
  map: maps/arena.txt
  bots: 2
metrics:
  enabled: true
  addr: ":9100"
replay:
  enabled: true
`
		require.NoError(t, os.WriteFile(path, []byte(data), 0644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 16, cfg.Planner.GetStackCapacity())
		assert.Equal(t, []StepMillisRule{{BelowDepth: 2, Millis: 8}}, cfg.Planner.GetStepMillis())
		assert.Equal(t, "maps/arena.txt", cfg.Sim.Map)
		assert.Equal(t, 2, cfg.Sim.GetBots())
		assert.True(t, cfg.Metrics.Enabled)
		assert.Equal(t, ":9100", cfg.Metrics.GetAddr())
		assert.True(t, cfg.Replay.Enabled)
	})

	t.Run("путь из окружения", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "env.yaml")
		require.NoError(t, os.WriteFile(path, []byte("sim:\n  ticks: 50\n"), 0644))
		t.Setenv("BOTSIM_CONFIG", path)

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, 50, cfg.Sim.GetTicks())
	})

	t.Run("ошибки", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)

		bad := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(bad, []byte("planner: [1, 2"), 0644))
		_, err = Load(bad)
		assert.Error(t, err)
	})
}

func TestEnvFallback(t *testing.T) {
	t.Setenv("BOTSIM_BOTS", "7")
	t.Setenv("BOTSIM_METRICS_ADDR", ":9999")
	t.Setenv("BOTSIM_LOG_LEVEL", "debug")

	var cfg Config
	assert.Equal(t, 7, cfg.Sim.GetBots(), "Значение из окружения")
	assert.Equal(t, ":9999", cfg.Metrics.GetAddr())
	assert.Equal(t, "debug", cfg.Logging.GetLevel())

	cfg.Sim.Bots = 3
	assert.Equal(t, 3, cfg.Sim.GetBots(), "Конфиг важнее окружения")

	t.Setenv("BOTSIM_TICKS", "abc")
	assert.Equal(t, 600, cfg.Sim.GetTicks(), "Некорректное значение заменяется умолчанием")
}
