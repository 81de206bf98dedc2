package telemetry

// Collector accumulates effect events within fixed frame windows and
// produces WindowStats on flush.
type Collector struct {
	windowFrames uint64
	windowStart  uint64

	// Event counters for the current window
	emitted    int
	births     int
	deaths     int
	collisions int
	faults     int

	// Per-frame series for the current window
	counts     []float64
	frameTimes []float64
}

// NewCollector creates a collector flushing every windowFrames frames.
func NewCollector(windowFrames int) *Collector {
	if windowFrames < 1 {
		windowFrames = 60
	}
	return &Collector{
		windowFrames: uint64(windowFrames),
		counts:       make([]float64, 0, windowFrames),
		frameTimes:   make([]float64, 0, windowFrames),
	}
}

// RecordEmitted records n manually or rate-emitted particles.
func (c *Collector) RecordEmitted(n int) { c.emitted += n }

// RecordBirth records one spawn event.
func (c *Collector) RecordBirth() { c.births++ }

// RecordDeath records one expiry event.
func (c *Collector) RecordDeath() { c.deaths++ }

// RecordCollision records one plane contact.
func (c *Collector) RecordCollision() { c.collisions++ }

// RecordFault records one module fault.
func (c *Collector) RecordFault() { c.faults++ }

// RecordFrame appends this frame's particle count and wall time to the
// window series.
func (c *Collector) RecordFrame(particleCount int, frameSeconds float64) {
	c.counts = append(c.counts, float64(particleCount))
	c.frameTimes = append(c.frameTimes, frameSeconds)
}

// ShouldFlush reports whether the window that started at windowStart has
// elapsed by currentFrame.
func (c *Collector) ShouldFlush(currentFrame uint64) bool {
	return currentFrame-c.windowStart >= c.windowFrames
}

// Flush produces the window's stats and resets counters for the next one.
func (c *Collector) Flush(currentFrame uint64, particleCount int, simTime float64) WindowStats {
	countMean, countStd, countCV := seriesStats(c.counts)
	frameMean, frameStd, _ := seriesStats(c.frameTimes)

	stats := WindowStats{
		WindowStart:   c.windowStart,
		WindowEnd:     currentFrame,
		SimTimeSec:    simTime,
		ParticleCount: particleCount,
		Emitted:       c.emitted,
		Births:        c.births,
		Deaths:        c.deaths,
		Collisions:    c.collisions,
		Faults:        c.faults,
		CountMean:     countMean,
		CountStd:      countStd,
		CountCV:       countCV,
		FrameMeanSec:  frameMean,
		FrameStdSec:   frameStd,
	}

	c.windowStart = currentFrame
	c.emitted = 0
	c.births = 0
	c.deaths = 0
	c.collisions = 0
	c.faults = 0
	c.counts = c.counts[:0]
	c.frameTimes = c.frameTimes[:0]

	return stats
}
