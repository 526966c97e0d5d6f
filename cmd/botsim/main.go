package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/botplanner/internal/config"
	"github.com/annel0/botplanner/internal/logging"
	"github.com/annel0/botplanner/internal/observability"
	"github.com/annel0/botplanner/internal/planner"
	"github.com/annel0/botplanner/internal/replay"
	"github.com/annel0/botplanner/internal/sim"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (или BOTSIM_CONFIG)")
	mapPath := flag.String("map", "", "ASCII-карта уровня, переопределяет sim.map")
	hold := flag.Bool("hold", false, "не завершаться после прогона, пока открыт /metrics")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}
	if *mapPath != "" {
		cfg.Sim.Map = *mapPath
	}

	if err := initLogging(&cfg.Logging); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()

	logging.Info("🤖 Запуск симулятора ботов: ботов=%d, тиков=%d, тик=%dмс",
		cfg.Sim.GetBots(), cfg.Sim.GetTicks(), cfg.Sim.GetFrameMillis())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Канал для получения сигналов ОС
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info("📡 Получен сигнал %v, завершение работы...", sig)
		cancel()
	}()

	level, err := loadLevel(&cfg.Sim)
	if err != nil {
		logging.Error("❌ Ошибка загрузки уровня: %v", err)
		return
	}
	logging.Info("🗺️  Уровень готов: областей=%d, jumppad=%d", level.NumAreas(), len(level.Jumppads()))

	// === НАБЛЮДАЕМОСТЬ ===
	var exporter *planner.MetricsExporter
	if cfg.Metrics.Enabled {
		exporter = planner.NewMetricsExporter(prometheus.NewRegistry())
		exporter.StartHTTP(cfg.Metrics.GetAddr())
	}

	if cfg.Telemetry.Enabled {
		shutdown, err := observability.InitTelemetry(ctx, cfg.Telemetry.GetServiceName())
		if err != nil {
			logging.Error("❌ Ошибка инициализации OpenTelemetry: %v", err)
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logging.Error("Ошибка остановки OpenTelemetry: %v", err)
				}
			}()
		}
	}

	var recorder *replay.Recorder
	if cfg.Replay.Enabled {
		recorder, err = replay.Open(cfg.Replay.GetPath())
		if err != nil {
			logging.Error("❌ Ошибка открытия реплея: %v", err)
			return
		}
		defer recorder.Close()
	}

	// === ПРОГОН ===
	w := newWorld(level, worldConfig{
		Settings:    settingsFromConfig(&cfg.Planner),
		Bots:        cfg.Sim.GetBots(),
		FrameMillis: cfg.Sim.GetFrameMillis(),
		Seed:        uint64(cfg.Sim.Seed),
		Exporter:    exporter,
		Recorder:    recorder,
	})

	metrics := newProcessMetrics()
	started := time.Now()
	ticks := w.Run(ctx, cfg.Sim.GetTicks())
	logging.Info("✅ Прогон завершён: тиков=%d за %s", ticks, time.Since(started).Round(time.Millisecond))

	w.LogSummary()
	metrics.Log()
	if recorder != nil {
		logging.Info("💾 Реплей прогона %s сохранён в %s", recorder.RunID(), cfg.Replay.GetPath())
	}

	if *hold && exporter != nil && ctx.Err() == nil {
		logging.Info("⏳ Ожидание сигнала завершения, метрики доступны...")
		<-ctx.Done()
	}
	logging.Info("👋 Симулятор остановлен")
}

// initLogging настраивает глобальный логгер и уровни компонентов
func initLogging(cfg *config.LoggingConfig) error {
	if cfg.Dir != "" {
		logging.SetLogDir(cfg.Dir)
	}
	manager := logging.GetLoggerManager()
	manager.EnableFiles(cfg.ToFiles)
	if cfg.ToFiles {
		if err := logging.InitDefaultLogger("botsim"); err != nil {
			return err
		}
	}

	level := logging.ParseLevel(cfg.GetLevel())
	logging.GetPlannerLogger()
	logging.GetSimLogger()
	logging.GetReplayLogger()
	for _, component := range []string{"planner", "sim", "replay"} {
		if err := manager.SetLogLevel(component, level, logging.TRACE); err != nil {
			return err
		}
	}
	return nil
}

// loadLevel читает карту из файла либо генерирует уровень
func loadLevel(cfg *config.SimConfig) (*sim.Level, error) {
	if cfg.Map != "" {
		f, err := os.Open(cfg.Map)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return sim.ParseLevel(f)
	}
	seed := cfg.Terrain.Seed
	if seed == 0 {
		seed = cfg.Seed
	}
	logging.Debug("Генерация уровня %dx%d (seed=%d)", cfg.Terrain.GetWidth(), cfg.Terrain.GetHeight(), seed)
	return sim.NewGenerator(seed).GenerateLevel(cfg.Terrain.GetWidth(), cfg.Terrain.GetHeight())
}

// settingsFromConfig переводит конфигурацию в параметры поиска
func settingsFromConfig(cfg *config.PlannerConfig) planner.Settings {
	settings := planner.DefaultSettings()
	settings.StackCapacity = cfg.GetStackCapacity()
	settings.MaxSimulatedSteps = cfg.GetMaxSimulatedSteps()
	settings.StepMillis = settings.StepMillis[:0:0]
	for _, rule := range cfg.GetStepMillis() {
		settings.StepMillis = append(settings.StepMillis, planner.StepMillisRule{
			BelowDepth: rule.BelowDepth,
			Millis:     rule.Millis,
		})
	}
	settings.DefaultStepMillis = cfg.GetDefaultStepMillis()
	settings.CachedPlanOriginTolerance = cfg.GetCachedPlanOriginTolerance()
	settings.TriggerRadius = cfg.GetTriggerRadius()
	settings.CollisionRegionExtent = cfg.GetCollisionRegionExtent()
	return settings
}
