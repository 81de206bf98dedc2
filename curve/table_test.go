package curve

import (
	"math"
	"testing"

	"github.com/pthm-cable/cinder/geom"
)

func TestTableFidelity(t *testing.T) {
	c := Linear(Key{0, 1}, Key{0.3, 4}, Key{0.7, 2}, Key{1, 5})
	tbl := BuildTable(&c, 256)

	// At table sample points direct and table evaluation must agree
	for i := 0; i < 256; i++ {
		x := float32(i) / 255
		direct := c.Evaluate(x, 0)
		sampled := tbl.Sample(x)
		if math.Abs(float64(direct-sampled)) > 1e-4 {
			t.Errorf("at t=%f: direct %f vs table %f", x, direct, sampled)
		}
	}
}

func TestTableInvalidate(t *testing.T) {
	c := Constant(3)
	tbl := BuildTable(&c, 16)
	if !tbl.Valid() {
		t.Fatal("freshly built table should be valid")
	}

	tbl.Invalidate()
	if tbl.Valid() {
		t.Error("invalidated table still reports valid")
	}

	// Descriptor changed: rebuild picks up the new shape
	c2 := Constant(7)
	tbl.Rebuild(&c2)
	if !tbl.Valid() {
		t.Error("rebuilt table should be valid")
	}
	if got := tbl.Sample(0.5); got != 7 {
		t.Errorf("Sample(0.5) = %f, expected 7 after rebuild", got)
	}
}

func TestColorTableFidelity(t *testing.T) {
	g := Blend(
		ColorKey{0, geom.Vec4{X: 1, W: 1}},
		ColorKey{1, geom.Vec4{Z: 1, W: 1}},
	)
	tbl := BuildColorTable(&g, 128)

	for i := 0; i < 128; i++ {
		x := float32(i) / 127
		direct := g.Evaluate(x, 0)
		sampled := tbl.Sample(x)
		if math.Abs(float64(direct.X-sampled.X)) > 1e-4 ||
			math.Abs(float64(direct.Z-sampled.Z)) > 1e-4 {
			t.Errorf("at t=%f: direct %v vs table %v", x, direct, sampled)
		}
	}
}

func TestTableBatch(t *testing.T) {
	c := Linear(Key{0, 0}, Key{1, 10})
	tbl := BuildTable(&c, 64)
	times := []float32{0, 0.25, 0.5, 1}
	out := make([]float32, len(times))
	tbl.SampleBatch(times, out)
	for i, x := range times {
		want := c.Evaluate(x, 0)
		if math.Abs(float64(out[i]-want)) > 1e-3 {
			t.Errorf("batch[%d] = %f, expected %f", i, out[i], want)
		}
	}
}
