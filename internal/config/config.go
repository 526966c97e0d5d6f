package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации симулятора.
// Незаданные поля заменяются значениями по умолчанию через геттеры.
type Config struct {
	Planner   PlannerConfig   `yaml:"planner"`
	Sim       SimConfig       `yaml:"sim"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Replay    ReplayConfig    `yaml:"replay"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type PlannerConfig struct {
	StackCapacity     int `yaml:"stack_capacity"`
	MaxSimulatedSteps int `yaml:"max_simulated_steps"`
	// StepMillis расписание длительности шагов по глубине стека
	StepMillis                []StepMillisRule `yaml:"step_millis"`
	DefaultStepMillis         int              `yaml:"default_step_millis"`
	CachedPlanOriginTolerance float64          `yaml:"cached_plan_origin_tolerance"`
	TriggerRadius             float64          `yaml:"trigger_radius"`
	CollisionRegionExtent     float64          `yaml:"collision_region_extent"`
}

type StepMillisRule struct {
	BelowDepth int `yaml:"below_depth"`
	Millis     int `yaml:"millis"`
}

type SimConfig struct {
	// Map путь к ASCII-карте; пустой путь означает генерацию уровня
	Map         string        `yaml:"map"`
	Terrain     TerrainConfig `yaml:"terrain"`
	Bots        int           `yaml:"bots"`
	Ticks       int           `yaml:"ticks"`
	FrameMillis int           `yaml:"frame_millis"`
	Seed        int64         `yaml:"seed"`
}

type TerrainConfig struct {
	Width  int   `yaml:"width"`
	Height int   `yaml:"height"`
	Seed   int64 `yaml:"seed"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

type ReplayConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type LoggingConfig struct {
	Level   string `yaml:"level"`
	ToFiles bool   `yaml:"to_files"`
	Dir     string `yaml:"dir"`
}

// GetStackCapacity ёмкость спекулятивного стека
func (p *PlannerConfig) GetStackCapacity() int {
	return positiveOr(p.StackCapacity, 32)
}

// GetMaxSimulatedSteps предел вызовов движка за поиск
func (p *PlannerConfig) GetMaxSimulatedSteps() int {
	return positiveOr(p.MaxSimulatedSteps, 192)
}

// GetStepMillis расписание длительности шагов
func (p *PlannerConfig) GetStepMillis() []StepMillisRule {
	if len(p.StepMillis) > 0 {
		return p.StepMillis
	}
	return []StepMillisRule{{BelowDepth: 4, Millis: 16}, {BelowDepth: 12, Millis: 32}}
}

// GetDefaultStepMillis длительность шагов глубже расписания
func (p *PlannerConfig) GetDefaultStepMillis() int {
	return positiveOr(p.DefaultStepMillis, 48)
}

// GetCachedPlanOriginTolerance допустимое расхождение позиции с кешированным планом
func (p *PlannerConfig) GetCachedPlanOriginTolerance() float64 {
	if p.CachedPlanOriginTolerance > 0 {
		return p.CachedPlanOriginTolerance
	}
	return 8
}

// GetTriggerRadius радиус поиска ближайших триггеров
func (p *PlannerConfig) GetTriggerRadius() float64 {
	if p.TriggerRadius > 0 {
		return p.TriggerRadius
	}
	return 384
}

// GetCollisionRegionExtent полуразмер региона кешей столкновений
func (p *PlannerConfig) GetCollisionRegionExtent() float64 {
	if p.CollisionRegionExtent > 0 {
		return p.CollisionRegionExtent
	}
	return 512
}

// GetBots число ботов
func (s *SimConfig) GetBots() int {
	return getIntWithEnvFallback(s.Bots, "BOTSIM_BOTS", 4)
}

// GetTicks число тиков прогона
func (s *SimConfig) GetTicks() int {
	return getIntWithEnvFallback(s.Ticks, "BOTSIM_TICKS", 600)
}

// GetFrameMillis длительность реального тика
func (s *SimConfig) GetFrameMillis() int {
	return positiveOr(s.FrameMillis, 16)
}

// GetWidth ширина генерируемого уровня в клетках
func (t *TerrainConfig) GetWidth() int {
	return positiveOr(t.Width, 48)
}

// GetHeight высота генерируемого уровня в клетках
func (t *TerrainConfig) GetHeight() int {
	return positiveOr(t.Height, 32)
}

// GetAddr адрес эндпоинта /metrics с приоритетом: config -> env -> default
func (m *MetricsConfig) GetAddr() string {
	if m.Addr != "" {
		return m.Addr
	}
	if env := os.Getenv("BOTSIM_METRICS_ADDR"); env != "" {
		return env
	}
	return ":2112"
}

// GetServiceName имя сервиса в трассировке
func (t *TelemetryConfig) GetServiceName() string {
	if t.ServiceName != "" {
		return t.ServiceName
	}
	return "botsim"
}

// GetPath директория базы реплеев
func (r *ReplayConfig) GetPath() string {
	if r.Path != "" {
		return r.Path
	}
	return "data/replay"
}

// GetLevel уровень логирования с приоритетом: config -> env -> info
func (l *LoggingConfig) GetLevel() string {
	if l.Level != "" {
		return l.Level
	}
	if env := os.Getenv("BOTSIM_LOG_LEVEL"); env != "" {
		return env
	}
	return "info"
}

func positiveOr(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

// getIntWithEnvFallback возвращает значение с приоритетом: config -> env -> default
func getIntWithEnvFallback(configVal int, envVar string, def int) int {
	if configVal > 0 {
		return configVal
	}
	if envVal := os.Getenv(envVar); envVal != "" {
		if v, err := strconv.Atoi(envVal); err == nil && v > 0 {
			return v
		}
	}
	return def
}

// Load читает YAML файл конфигурации.
// Если path == "", пытается прочитать путь из ENV BOTSIM_CONFIG; если и он
// не задан, возвращает пустую конфигурацию, все значения берутся из геттеров.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("BOTSIM_CONFIG")
		if path == "" {
			return &Config{}, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: чтение %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: разбор %s: %w", path, err)
	}
	return &cfg, nil
}
