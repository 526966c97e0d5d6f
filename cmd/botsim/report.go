package main

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/annel0/botplanner/internal/logging"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"
)

// processMetrics потребление ресурсов процессом за прогон
type processMetrics struct {
	StartTime time.Time
}

func newProcessMetrics() *processMetrics {
	return &processMetrics{StartTime: time.Now()}
}

// Uptime время работы в читаемом виде
func (pm *processMetrics) Uptime() string {
	return formatUptime(time.Since(pm.StartTime))
}

func formatUptime(uptime time.Duration) string {
	hours := int(uptime.Hours())
	minutes := int(uptime.Minutes()) % 60
	seconds := int(uptime.Seconds()) % 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%dч %dм %dс", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dм %dс", minutes, seconds)
	case uptime >= time.Second:
		return fmt.Sprintf("%dс", seconds)
	default:
		return fmt.Sprintf("%dмс", uptime.Milliseconds())
	}
}

// CPUUsage использование CPU процессом в процентах
func (pm *processMetrics) CPUUsage() (float64, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0, err
	}

	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		// Если не удалось получить метрику процесса, попробуем системную
		cpuPercents, err := cpu.Percent(100*time.Millisecond, false)
		if err != nil || len(cpuPercents) == 0 {
			return 0, err
		}
		return cpuPercents[0], nil
	}
	return cpuPercent, nil
}

// RSSMegabytes резидентная память процесса в MB
func (pm *processMetrics) RSSMegabytes() (float64, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0, err
	}
	info, err := proc.MemoryInfo()
	if err != nil {
		return 0, err
	}
	return float64(info.RSS) / 1024 / 1024, nil
}

// Log печатает сводку потребления ресурсов
func (pm *processMetrics) Log() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	logging.Info("🖥️  Ресурсы за %s: heap=%.1fMB, GC=%d, горутин=%d",
		pm.Uptime(), float64(m.Alloc)/1024/1024, m.NumGC, runtime.NumGoroutine())

	if cpuPercent, err := pm.CPUUsage(); err != nil {
		logging.Warn("Не удалось получить загрузку CPU: %v", err)
	} else {
		logging.Info("   CPU: %.1f%%", cpuPercent)
	}
	if rss, err := pm.RSSMegabytes(); err != nil {
		logging.Warn("Не удалось получить RSS: %v", err)
	} else {
		logging.Info("   RSS: %.1fMB", rss)
	}
}
