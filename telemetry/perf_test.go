package telemetry

import (
	"math"
	"testing"
	"time"
)

func TestPerfCollectorBasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartFrame()
		pc.StartPhase(PhaseModules)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(PhaseIntegrate)
		time.Sleep(200 * time.Microsecond)
		pc.EndFrame()
	}

	stats := pc.Stats()

	if stats.AvgFrameDuration <= 0 {
		t.Error("expected positive average frame duration")
	}
	if _, ok := stats.PhaseAvg[PhaseModules]; !ok {
		t.Error("expected modules phase to be tracked")
	}
	if _, ok := stats.PhaseAvg[PhaseIntegrate]; !ok {
		t.Error("expected integrate phase to be tracked")
	}
}

func TestPerfCollectorRollingWindow(t *testing.T) {
	pc := NewPerfCollector(5)

	for i := 0; i < 10; i++ {
		pc.StartFrame()
		pc.StartPhase(PhaseGrid)
		pc.EndFrame()
	}

	stats := pc.Stats()
	if stats.AvgFrameDuration <= 0 {
		t.Error("expected positive average frame duration after window filled")
	}
	if stats.FramesPerSecond <= 0 {
		t.Error("expected positive frames per second")
	}
}

// spin burns wall time without yielding; sleeps this short are at the
// mercy of scheduler granularity.
func spin(d time.Duration) {
	start := time.Now()
	for time.Since(start) < d {
	}
}

func TestPerfCollectorPhasePercentages(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartFrame()
		pc.StartPhase("fast")
		spin(50 * time.Microsecond)
		pc.StartPhase("slow")
		spin(500 * time.Microsecond)
		pc.EndFrame()
	}

	stats := pc.Stats()
	if stats.PhasePct["slow"] <= stats.PhasePct["fast"] {
		t.Errorf("expected slow phase (%v%%) > fast phase (%v%%)",
			stats.PhasePct["slow"], stats.PhasePct["fast"])
	}
}

func TestPerfCollectorEmptyStats(t *testing.T) {
	pc := NewPerfCollector(10)

	stats := pc.Stats()
	if stats.AvgFrameDuration != 0 {
		t.Error("expected zero avg frame duration for empty collector")
	}
	if stats.PhaseAvg == nil || stats.PhasePct == nil {
		t.Error("expected non-nil phase maps")
	}
}

func TestCollectorWindowStats(t *testing.T) {
	c := NewCollector(4)

	counts := []int{10, 20, 30, 40}
	for frame, n := range counts {
		c.RecordFrame(n, 1.0/60)
		c.RecordBirth()
		if frame%2 == 0 {
			c.RecordDeath()
		}
	}
	c.RecordEmitted(7)
	c.RecordCollision()
	c.RecordFault()

	if !c.ShouldFlush(4) {
		t.Fatal("window of 4 frames should flush at frame 4")
	}
	stats := c.Flush(4, 40, 4.0/60)

	if stats.Births != 4 || stats.Deaths != 2 {
		t.Errorf("births/deaths = %d/%d, want 4/2", stats.Births, stats.Deaths)
	}
	if stats.Emitted != 7 || stats.Collisions != 1 || stats.Faults != 1 {
		t.Errorf("counters = %d/%d/%d, want 7/1/1",
			stats.Emitted, stats.Collisions, stats.Faults)
	}
	if math.Abs(stats.CountMean-25) > 1e-9 {
		t.Errorf("count mean = %f, want 25", stats.CountMean)
	}
	if stats.CountStd <= 0 {
		t.Error("varying series should have positive stddev")
	}
	if math.Abs(stats.CountCV-stats.CountStd/25) > 1e-9 {
		t.Errorf("cv = %f, want std/mean", stats.CountCV)
	}
}

func TestCollectorFlushResets(t *testing.T) {
	c := NewCollector(2)
	c.RecordBirth()
	c.RecordFrame(5, 1.0/60)
	c.Flush(2, 5, 2.0/60)

	if c.ShouldFlush(3) {
		t.Error("fresh window should not flush one frame in")
	}
	stats := c.Flush(4, 5, 4.0/60)
	if stats.Births != 0 {
		t.Errorf("births after reset = %d, want 0", stats.Births)
	}
	if stats.WindowStart != 2 {
		t.Errorf("window start = %d, want 2", stats.WindowStart)
	}
}

func TestCollectorConstantSeriesCV(t *testing.T) {
	c := NewCollector(3)
	for i := 0; i < 3; i++ {
		c.RecordFrame(100, 1.0/60)
	}
	stats := c.Flush(3, 100, 3.0/60)

	if stats.CountStd != 0 || stats.CountCV != 0 {
		t.Errorf("constant series std/cv = %f/%f, want 0/0",
			stats.CountStd, stats.CountCV)
	}
}
