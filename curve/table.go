package curve

import "github.com/pthm-cable/cinder/geom"

// DefaultTableSize is the resolution used when a caller does not specify
// one. 256 samples keeps interpolation error below visible thresholds for
// typical effect curves.
const DefaultTableSize = 256

// Table is a fixed-resolution precomputed sample array for a Curve.
// Sampling interpolates neighboring entries, trading a one-time build cost
// for O(1) evaluation. A table is only meaningful for the deterministic
// modes; random modes must evaluate directly.
//
// Tables are keyed to the descriptor they were built from: any change to
// the descriptor invalidates the table, and it must be rebuilt before
// reuse.
type Table struct {
	samples []float32
	valid   bool
}

// BuildTable precomputes n samples of c over [0,1]. n < 2 falls back to
// DefaultTableSize.
func BuildTable(c *Curve, n int) *Table {
	if n < 2 {
		n = DefaultTableSize
	}
	t := &Table{samples: make([]float32, n)}
	t.Rebuild(c)
	return t
}

// Rebuild re-samples the table from c, revalidating it.
func (t *Table) Rebuild(c *Curve) {
	n := len(t.samples)
	inv := 1 / float32(n-1)
	for i := range t.samples {
		t.samples[i] = c.Evaluate(float32(i)*inv, 0)
	}
	t.valid = true
}

// Invalidate marks the table stale. Sample must not be called again until
// Rebuild runs.
func (t *Table) Invalidate() {
	t.valid = false
}

// Valid reports whether the table matches its descriptor.
func (t *Table) Valid() bool {
	return t != nil && t.valid
}

// Sample returns the interpolated table value at normalized time x,
// clamped to [0,1].
func (t *Table) Sample(x float32) float32 {
	n := len(t.samples)
	if x <= 0 {
		return t.samples[0]
	}
	if x >= 1 {
		return t.samples[n-1]
	}
	// index = x * (N-1), lerp neighboring entries
	f := x * float32(n-1)
	i := int(f)
	u := f - float32(i)
	return t.samples[i] + (t.samples[i+1]-t.samples[i])*u
}

// SampleBatch resolves every time in one pass into out.
func (t *Table) SampleBatch(times []float32, out []float32) {
	for i, x := range times {
		out[i] = t.Sample(x)
	}
}

// ColorTable is the gradient counterpart of Table.
type ColorTable struct {
	samples []geom.Vec4
	valid   bool
}

// BuildColorTable precomputes n samples of g over [0,1].
func BuildColorTable(g *Gradient, n int) *ColorTable {
	if n < 2 {
		n = DefaultTableSize
	}
	t := &ColorTable{samples: make([]geom.Vec4, n)}
	t.Rebuild(g)
	return t
}

// Rebuild re-samples the table from g, revalidating it.
func (t *ColorTable) Rebuild(g *Gradient) {
	n := len(t.samples)
	inv := 1 / float32(n-1)
	for i := range t.samples {
		t.samples[i] = g.Evaluate(float32(i)*inv, 0)
	}
	t.valid = true
}

// Invalidate marks the table stale.
func (t *ColorTable) Invalidate() {
	t.valid = false
}

// Valid reports whether the table matches its descriptor.
func (t *ColorTable) Valid() bool {
	return t != nil && t.valid
}

// Sample returns the interpolated table color at normalized time x.
func (t *ColorTable) Sample(x float32) geom.Vec4 {
	n := len(t.samples)
	if x <= 0 {
		return t.samples[0]
	}
	if x >= 1 {
		return t.samples[n-1]
	}
	f := x * float32(n-1)
	i := int(f)
	u := f - float32(i)
	return t.samples[i].Lerp(t.samples[i+1], u)
}

// SampleBatch resolves every time in one pass into out.
func (t *ColorTable) SampleBatch(times []float32, out []geom.Vec4) {
	for i, x := range times {
		out[i] = t.Sample(x)
	}
}
