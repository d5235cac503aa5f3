package internal

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/process"
)

// MonitorWorker periodically logs the relay process's CPU and memory usage.
type MonitorWorker struct {
	log      *slog.Logger
	interval time.Duration
}

func NewMonitorWorker(log *slog.Logger, interval time.Duration) *MonitorWorker {
	return &MonitorWorker{log: log, interval: interval}
}

func (w *MonitorWorker) Run(ctx context.Context) error {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping monitor worker")
			return nil
		case <-ticker.C:
			cpu, err := p.CPUPercent()
			if err != nil {
				w.log.Debug("cpu sample failed", "error", err)
				continue
			}
			mem, err := p.MemoryInfo()
			if err != nil {
				w.log.Debug("memory sample failed", "error", err)
				continue
			}
			w.log.Info("relay health",
				"cpu_percent", cpu,
				"rss_mb", mem.RSS/1024/1024,
				"goroutines", runtime.NumGoroutine())
		}
	}
}
