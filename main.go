package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/cinder/config"
	"github.com/pthm-cable/cinder/curve"
	"github.com/pthm-cable/cinder/engine"
	"github.com/pthm-cable/cinder/modules"
	"github.com/pthm-cable/cinder/renderer"
	"github.com/pthm-cable/cinder/telemetry"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxFrames := flag.Int("max-frames", 0, "Stop after N frames (0 = unlimited)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")

	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = cfg.System.Seed
	}
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	outDir := *outputDir
	if outDir == "" {
		outDir = cfg.Telemetry.OutputDir
	}

	sys, err := buildSystem(cfg, rngSeed)
	if err != nil {
		slog.Error("failed to build system", "error", err)
		os.Exit(1)
	}

	output, err := telemetry.NewOutputManager(outDir)
	if err != nil {
		slog.Error("failed to create output manager", "error", err)
		os.Exit(1)
	}
	defer output.Close()
	if err := output.WriteConfig(cfg); err != nil {
		slog.Error("failed to snapshot config", "error", err)
	}

	collector := telemetry.NewCollector(cfg.Telemetry.WindowFrames)
	perf := telemetry.NewPerfCollector(cfg.Telemetry.WindowFrames)
	sys.AddListener(func(ev engine.Event) {
		switch ev.Kind {
		case engine.EventBirth:
			collector.RecordBirth()
		case engine.EventDeath:
			collector.RecordDeath()
		case engine.EventCollision:
			collector.RecordCollision()
		}
	})

	if err := sys.Play(); err != nil {
		slog.Error("failed to start system", "error", err)
		os.Exit(1)
	}

	slog.Info("starting",
		"seed", rngSeed,
		"capacity", cfg.System.Capacity,
		"headless", *headless,
		"max_frames", *maxFrames,
	)

	l := &loop{
		sys:       sys,
		cfg:       cfg,
		collector: collector,
		perf:      perf,
		output:    output,
	}
	if *headless {
		l.runHeadless(*maxFrames)
		return
	}
	l.runDemo(*maxFrames)
}

// buildSystem assembles the system and its module pipeline from config.
func buildSystem(cfg *config.Config, seed int64) (*engine.System, error) {
	opts := engine.Options{
		Capacity:        cfg.System.Capacity,
		CellSize:        cfg.Derived.CellSize,
		Gravity:         cfg.Derived.Gravity,
		Seed:            seed,
		Duration:        cfg.Derived.Duration,
		EmitterPosition: cfg.System.Emitter.V(),
	}
	sys, err := engine.NewSystem(opts)
	if err != nil {
		return nil, err
	}

	if cfg.Emission.Enabled {
		mc, err := cfg.BuildEmission()
		if err != nil {
			return nil, fmt.Errorf("emission config: %w", err)
		}
		sys.AddModule(modules.NewEmission(mc))
	}
	if cfg.Velocity.Enabled {
		mc, err := cfg.BuildVelocity()
		if err != nil {
			return nil, fmt.Errorf("velocity config: %w", err)
		}
		sys.AddModule(modules.NewVelocity(mc))
	}
	if cfg.Color.Enabled {
		mc, err := cfg.BuildColor()
		if err != nil {
			return nil, fmt.Errorf("color config: %w", err)
		}
		sys.AddModule(modules.NewColor(mc))
	}
	if cfg.Size.Enabled {
		mc, err := cfg.BuildSize()
		if err != nil {
			return nil, fmt.Errorf("size config: %w", err)
		}
		sys.AddModule(modules.NewSize(mc))
	}
	if cfg.Limit.Enabled {
		mc, err := cfg.BuildLimit()
		if err != nil {
			return nil, fmt.Errorf("limit config: %w", err)
		}
		sys.AddModule(modules.NewLimitVelocity(mc))
	}
	if cfg.Rotation.Enabled {
		mc, err := cfg.BuildRotation()
		if err != nil {
			return nil, fmt.Errorf("rotation config: %w", err)
		}
		sys.AddModule(modules.NewRotation(mc))
	}
	if cfg.Noise.Enabled {
		mc, err := cfg.BuildNoise()
		if err != nil {
			return nil, fmt.Errorf("noise config: %w", err)
		}
		sys.AddModule(modules.NewNoise(mc))
	}
	if cfg.Collision.Enabled {
		mc, err := cfg.BuildCollision()
		if err != nil {
			return nil, fmt.Errorf("collision config: %w", err)
		}
		sys.AddModule(modules.NewCollision(mc))
	}
	if cfg.Trail.Enabled {
		mc, err := cfg.BuildTrail()
		if err != nil {
			return nil, fmt.Errorf("trail config: %w", err)
		}
		sys.AddModule(modules.NewTrail(mc))
	}
	if cfg.Light.Enabled {
		mc, err := cfg.BuildLight()
		if err != nil {
			return nil, fmt.Errorf("light config: %w", err)
		}
		sys.AddModule(modules.NewLight(mc))
	}
	if cfg.Texture.Enabled {
		mc, err := cfg.BuildTexture()
		if err != nil {
			return nil, fmt.Errorf("texture config: %w", err)
		}
		sys.AddModule(modules.NewTexture(mc))
	}

	return sys, nil
}

// loop drives the system frame by frame and feeds telemetry. Emission and
// fault counters live on the system as lifetime totals, so the loop keeps
// the last seen values to turn them into per-frame deltas.
type loop struct {
	sys       *engine.System
	cfg       *config.Config
	collector *telemetry.Collector
	perf      *telemetry.PerfCollector
	output    *telemetry.OutputManager

	lastEmitted uint64
	lastFaults  int
}

// step advances the system one frame with telemetry phases attributed at
// the orchestrator boundary.
func (l *loop) step(dt float32) {
	l.perf.StartFrame()
	l.perf.StartPhase(telemetry.PhaseModules)
	l.sys.Update(dt)
	l.perf.StartPhase(telemetry.PhaseTelemetry)

	stats := l.sys.Stats()
	if d := stats.Emitted - l.lastEmitted; d > 0 {
		l.collector.RecordEmitted(int(d))
		l.lastEmitted = stats.Emitted
	}
	if f := l.sys.Faults(); f > l.lastFaults {
		for i := l.lastFaults; i < f; i++ {
			l.collector.RecordFault()
		}
		l.lastFaults = f
	}

	l.collector.RecordFrame(l.sys.Buffer().Count(), float64(dt))
	if l.collector.ShouldFlush(stats.Frames) {
		window := l.collector.Flush(stats.Frames, l.sys.Buffer().Count(), float64(l.sys.Time()))
		window.LogStats()
		if err := l.output.WriteWindow(window); err != nil {
			slog.Error("failed to write window stats", "error", err)
		}
		if err := l.output.WritePerf(l.perf.Stats(), stats.Frames); err != nil {
			slog.Error("failed to write perf stats", "error", err)
		}
	}
	l.perf.EndFrame()
}

func (l *loop) runHeadless(maxFrames int) {
	dt := l.cfg.Derived.DT32
	for {
		l.step(dt)
		if maxFrames > 0 && int(l.sys.Stats().Frames) >= maxFrames {
			slog.Info("max frames reached", "frames", l.sys.Stats().Frames)
			return
		}
	}
}

func (l *loop) runDemo(maxFrames int) {
	sys, cfg := l.sys, l.cfg
	rl.InitWindow(int32(cfg.Demo.Width), int32(cfg.Demo.Height), "cinder")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Demo.TargetFPS))

	r := renderer.NewParticleRenderer()

	rate := float32(50)
	if em, ok := sys.Module(modules.TypeEmission).(*modules.Emission); ok && em != nil {
		if mc, err := cfg.BuildEmission(); err == nil {
			rate = mc.RateOverTime.Evaluate(0, 0)
		}
	}

	for !rl.WindowShouldClose() {
		rl.UpdateCamera(r.Camera(), rl.CameraOrbital)

		if sys.State() == engine.StatePlaying {
			l.step(rl.GetFrameTime())
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.Color{R: 12, G: 12, B: 18, A: 255})

		r.Draw(sys)

		// Control panel
		paused := sys.State() == engine.StatePaused
		label := "Pause"
		if paused {
			label = "Resume"
		}
		if gui.Button(rl.Rectangle{X: 10, Y: 10, Width: 90, Height: 24}, label) {
			if paused {
				if err := sys.Play(); err != nil {
					slog.Error("failed to resume", "error", err)
				}
			} else {
				sys.Pause()
			}
		}
		if gui.Button(rl.Rectangle{X: 110, Y: 10, Width: 90, Height: 24}, "Burst 100") {
			sys.Emit(100)
		}

		newRate := gui.SliderBar(
			rl.Rectangle{X: 10, Y: 44, Width: 190, Height: 20},
			"0", "500",
			rate, 0, 500,
		)
		if newRate != rate {
			rate = newRate
			if em, ok := sys.Module(modules.TypeEmission).(*modules.Emission); ok && em != nil {
				mc, err := cfg.BuildEmission()
				if err == nil {
					mc.RateOverTime = curve.Constant(rate)
					if err := em.Configure(mc); err != nil {
						slog.Error("failed to reconfigure emission", "error", err)
					}
				}
			}
		}

		rl.DrawText(fmt.Sprintf("particles: %d  faults: %d  rate: %.0f/s",
			sys.Buffer().Count(), sys.Faults(), rate), 10, 72, 16, rl.LightGray)
		rl.DrawFPS(int32(cfg.Demo.Width)-100, 10)

		rl.EndDrawing()

		if maxFrames > 0 && int(sys.Stats().Frames) >= maxFrames {
			break
		}
	}
}
