package observability

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"
)

// ProcessStats снимок потребления ресурсов процессом симуляции
type ProcessStats struct {
	Uptime     time.Duration
	CPUPercent float64
	RSSMB      float64 // Резидентная память по данным ОС
	HeapMB     float64 // Куча Go
	Goroutines int
}

// ProcessMonitor снимает статистику текущего процесса
type ProcessMonitor struct {
	start time.Time
	proc  *process.Process
}

// NewProcessMonitor создаёт монитор текущего процесса
func NewProcessMonitor() (*ProcessMonitor, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("open process: %w", err)
	}
	return &ProcessMonitor{start: time.Now(), proc: proc}, nil
}

// Snapshot возвращает текущую статистику. Ошибки ОС не фатальны:
// недоступные значения остаются нулевыми.
func (pm *ProcessMonitor) Snapshot() ProcessStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	stats := ProcessStats{
		Uptime:     time.Since(pm.start),
		HeapMB:     float64(m.Alloc) / 1024 / 1024,
		Goroutines: runtime.NumGoroutine(),
	}

	if pct, err := pm.proc.CPUPercent(); err == nil {
		stats.CPUPercent = pct
	} else if pcts, err := cpu.Percent(100*time.Millisecond, false); err == nil && len(pcts) > 0 {
		// Если не удалось получить метрику процесса, берём системную
		stats.CPUPercent = pcts[0]
	}

	if mem, err := pm.proc.MemoryInfo(); err == nil && mem != nil {
		stats.RSSMB = float64(mem.RSS) / 1024 / 1024
	}
	return stats
}

// FormatUptime форматирует время работы как в статусных сообщениях сервера
func FormatUptime(uptime time.Duration) string {
	days := int(uptime.Hours()) / 24
	hours := int(uptime.Hours()) % 24
	minutes := int(uptime.Minutes()) % 60
	seconds := int(uptime.Seconds()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dд %dч %dм %dс", days, hours, minutes, seconds)
	case hours > 0:
		return fmt.Sprintf("%dч %dм %dс", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dм %dс", minutes, seconds)
	default:
		return fmt.Sprintf("%dс", seconds)
	}
}
