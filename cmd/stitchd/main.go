package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"codeberg.org/voltshift/stitchd/internal/config"
	"codeberg.org/voltshift/stitchd/internal/fan"
	"codeberg.org/voltshift/stitchd/internal/keyboard"
	"codeberg.org/voltshift/stitchd/internal/logger"
	"codeberg.org/voltshift/stitchd/internal/metrics"
	"codeberg.org/voltshift/stitchd/internal/pid"
	"codeberg.org/voltshift/stitchd/internal/profiles"
	"codeberg.org/voltshift/stitchd/internal/service"
	"codeberg.org/voltshift/stitchd/internal/suspend"
)

var (
	cfg            *config.Config
	coordinator    *profiles.Coordinator
	fanEngine      *fan.Engine
	keyboardEngine *keyboard.Engine
	busService     *service.Service
	collector      metrics.MetricsCollector
	sampler        *metrics.Sampler
)

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Debug, cfg.Verbose, logger.IsService())

	if !cfg.Debug && !cfg.Verbose {
		if level, err := logger.ParseLevel(cfg.LogLevel); err == nil {
			logger.SetLogLevel(level)
		}
	}

	logger.Debug().Msg("Config loaded")
}

func main() {
	if err := pid.Write(); err != nil {
		logger.Fatal().Err(err).Msg("failed to write PID file")
	}
	defer func() {
		if err := pid.Remove(); err != nil {
			logger.Error().Err(err).Msg("failed to remove PID file")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	if err := setup(); err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize stitchd")
	}

	notifySystemd(daemon.SdNotifyReady)
	logger.Info().Msg("stitchd running")

	<-ctx.Done()
	cleanup()
}

// setup wires hardware, storage, suspend handling, metrics, and the bus
// surface in dependency order
func setup() error {
	log := logger.Default()

	// Suspend fan-out first; engines subscribe before any event can arrive
	hub := suspend.NewHub()
	fanWatcher := hub.Subscribe()
	keyboardWatcher := hub.Subscribe()

	producer, err := suspend.NewProducer(suspend.DefaultConfig(), suspend.NewLogin1Source(), hub)
	if err != nil {
		return err
	}
	go producer.Run()

	fanCfg := fan.Config{
		Interval:   cfg.Interval,
		Hysteresis: cfg.Hysteresis,
		Monitor:    cfg.Monitor,
		Sensor:     cfg.FanSensor,
		PWM:        cfg.FanPWM,
	}

	fanDevice, err := fan.NewSysfsController(fanCfg)
	if err != nil {
		return err
	}

	fanEngine, err = fan.NewEngine(fanCfg, fanDevice, fanWatcher, log)
	if err != nil {
		return err
	}

	keyboardCfg := keyboard.Config{
		Monitor: cfg.Monitor,
		Device:  cfg.KeyboardDevice,
	}

	var backlight keyboard.Backlight
	backlight, err = keyboard.NewSysfsBacklight(keyboardCfg)
	if err != nil {
		logger.Warn().Err(err).Msg("No keyboard backlight; lighting profiles stored but not applied")
		backlight = keyboard.NullBacklight{}
		keyboardCfg.Monitor = true
	}

	keyboardEngine, err = keyboard.NewEngine(keyboardCfg, backlight, keyboardWatcher, log)
	if err != nil {
		return err
	}

	profilesCfg := profiles.DefaultConfig()
	profilesCfg.DBPath = filepath.Join(cfg.StateDir, "profiles.db")
	profilesCfg.DefaultFan = fan.DefaultCurveJSON()
	profilesCfg.DefaultKeyboard = keyboard.DefaultProfileJSON()

	coordinator, err = profiles.NewCoordinator(profilesCfg, fanEngine, keyboardEngine, log)
	if err != nil {
		return err
	}

	if err := coordinator.EnsureDefaults(); err != nil {
		return err
	}

	fanEngine.Start()
	keyboardEngine.Start()

	if err := coordinator.Reload(); err != nil {
		// Profiles are intact; hardware apply retries on the next reload
		logger.Error().Err(err).Msg("Initial profile apply failed")
	}

	setupMetrics(log)

	busService, err = service.New(coordinator, fanEngine, keyboardEngine, log)
	if err != nil {
		return err
	}

	return nil
}

func setupMetrics(log logger.Logger) {
	metricsCfg := metrics.DefaultConfig()
	metricsCfg.Enabled = cfg.Metrics
	metricsCfg.DBPath = cfg.MetricsDB
	metricsCfg.Interval = cfg.MetricsInterval
	metricsCfg.BatchSize = cfg.MetricsBatchSize
	metricsCfg.RetentionDays = cfg.MetricsRetentionDays

	var err error
	collector, err = metrics.NewService(metricsCfg)
	if err != nil {
		logger.Error().Err(err).Msg("Metrics disabled; failed to initialize")
		collector = nil
		return
	}

	if !cfg.Metrics {
		return
	}

	sampler = metrics.NewSampler(metricsCfg, collector, snapshotCollector(), log)
	sampler.Start()
}

// snapshotCollector bundles the live state sources into one sample
func snapshotCollector() metrics.CollectFunc {
	return func() *metrics.MetricsSnapshot {
		state := fanEngine.State()

		active, err := coordinator.ActiveProfileName()
		if err != nil {
			active = ""
		}

		return &metrics.MetricsSnapshot{
			Timestamp: time.Now(),
			Temperature: metrics.TempMetrics{
				Current: int(math.Round(state.Temperature)),
				Average: int(math.Round(state.AverageTemperature)),
			},
			FanSpeed: metrics.FanMetrics{
				Current: int(state.CurrentSpeed),
				Target:  int(state.TargetSpeed),
			},
			SystemState: metrics.StateMetrics{
				ActiveProfile: active,
				Overridden:    state.Overridden,
				Suspended:     state.Suspended,
			},
		}
	}
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

func notifySystemd(state string) {
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		logger.Debug().Err(err).Msg("Failed to notify systemd")
		return
	}
	if sent {
		logger.Debug().Str("state", state).Msg("Notified systemd")
	}
}

func cleanup() {
	notifySystemd(daemon.SdNotifyStopping)

	if busService != nil {
		if err := busService.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close bus service")
		}
	}

	if sampler != nil {
		sampler.Stop()
	}
	if collector != nil {
		if err := collector.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close metrics")
		}
	}

	if fanEngine != nil {
		fanEngine.Stop()
	}
	if keyboardEngine != nil {
		keyboardEngine.Stop()
	}

	if coordinator != nil {
		if err := coordinator.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close profile store")
		}
	}

	logger.Info().Msg("Exiting...")
}
