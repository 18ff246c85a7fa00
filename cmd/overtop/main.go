package main

import (
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/google/overtop/internal/config"
	"github.com/google/overtop/internal/logger"
	"github.com/google/overtop/internal/metrics"
	"github.com/google/overtop/internal/sensors"
	"github.com/google/overtop/internal/ui"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		logger.Init(false, false)
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger.Init(cfg.Debug, cfg.Verbose)

	var cpu, gpu, net sensors.Sampler
	if cfg.Mock {
		logger.Info().Msg("Using synthesized sensor data")
		cpu = metrics.NewMockCPU()
		gpu = metrics.NewMockGPU()
		net = metrics.NewMockNet()
	} else {
		cpu = metrics.NewCPUProvider()
		gpu = metrics.NewGPUProvider()
		net = metrics.NewNetProvider()
	}

	agg := sensors.NewAggregator(cpu, gpu, net)
	if err := agg.Start(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start sensor aggregator")
	}
	defer agg.Stop()

	sched := sensors.NewScheduler(agg)
	sched.Start(cfg.Period())
	defer sched.Stop()

	// The overlay owns the terminal from here on; move logs to a file so
	// they don't tear the display.
	logPath := filepath.Join(os.TempDir(), "overtop.log")
	if f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
		defer f.Close()
		logger.SetOutput(f)
	} else {
		logger.Warn().Err(err).Str("path", logPath).Msg("log file unavailable, keeping stderr")
	}

	program := tea.NewProgram(
		ui.NewRootModel(agg, cfg.Period()),
		tea.WithAltScreen(),
	)
	if _, err := program.Run(); err != nil {
		logger.Fatal().Err(err).Msg("UI error")
	}
}
