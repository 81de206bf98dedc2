package telemetry

import (
	"log/slog"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for one frame window.
type WindowStats struct {
	WindowStart uint64  `csv:"-"`
	WindowEnd   uint64  `csv:"window_end"`
	SimTimeSec  float64 `csv:"sim_time"`

	// Population at window end
	ParticleCount int `csv:"particles"`

	// Events during the window
	Emitted    int `csv:"emitted"`
	Births     int `csv:"births"`
	Deaths     int `csv:"deaths"`
	Collisions int `csv:"collisions"`
	Faults     int `csv:"faults"`

	// Particle count distribution over the window
	CountMean float64 `csv:"count_mean"`
	CountStd  float64 `csv:"count_std"`
	CountCV   float64 `csv:"count_cv"`

	// Frame wall time distribution
	FrameMeanSec float64 `csv:"frame_mean_sec"`
	FrameStdSec  float64 `csv:"frame_std_sec"`
}

// seriesStats returns mean, standard deviation, and coefficient of
// variation of a window series. Empty or constant series degrade to
// zeros rather than NaN.
func seriesStats(values []float64) (mean, std, cv float64) {
	if len(values) == 0 {
		return 0, 0, 0
	}
	mean = stat.Mean(values, nil)
	if len(values) > 1 {
		std = stat.StdDev(values, nil)
	}
	if mean != 0 {
		cv = std / mean
	}
	return mean, std, cv
}

// LogStats logs the window aggregates through slog.
func (w WindowStats) LogStats() {
	slog.Info("window",
		"window_end", w.WindowEnd,
		"sim_time", w.SimTimeSec,
		"particles", w.ParticleCount,
		"emitted", w.Emitted,
		"births", w.Births,
		"deaths", w.Deaths,
		"collisions", w.Collisions,
		"faults", w.Faults,
		"count_mean", w.CountMean,
		"count_cv", w.CountCV,
	)
}
