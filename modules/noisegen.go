package modules

import (
	"math"
	"math/rand"

	"github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/cinder/geom"
)

// NoiseField is a scalar 3D noise source in roughly [-1, 1].
type NoiseField interface {
	Sample(x, y, z float64) float64
}

// perlinNoise is classic gradient noise over a shuffled permutation
// table. The table is regenerated whenever the seed changes.
type perlinNoise struct {
	perm [512]int
}

func newPerlinNoise(seed int64) *perlinNoise {
	p := &perlinNoise{}
	rng := rand.New(rand.NewSource(seed))

	var perm [256]int
	for i := range perm {
		perm[i] = i
	}
	for i := len(perm) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		perm[i], perm[j] = perm[j], perm[i]
	}
	for i := 0; i < 256; i++ {
		p.perm[i] = perm[i]
		p.perm[i+256] = perm[i]
	}
	return p
}

func (p *perlinNoise) Sample(x, y, z float64) float64 {
	X := int(math.Floor(x)) & 255
	Y := int(math.Floor(y)) & 255
	Z := int(math.Floor(z)) & 255

	x -= math.Floor(x)
	y -= math.Floor(y)
	z -= math.Floor(z)

	u := fade(x)
	v := fade(y)
	w := fade(z)

	A := p.perm[X] + Y
	AA := p.perm[A] + Z
	AB := p.perm[A+1] + Z
	B := p.perm[X+1] + Y
	BA := p.perm[B] + Z
	BB := p.perm[B+1] + Z

	return lerp64(w, lerp64(v, lerp64(u, grad3(p.perm[AA], x, y, z),
		grad3(p.perm[BA], x-1, y, z)),
		lerp64(u, grad3(p.perm[AB], x, y-1, z),
			grad3(p.perm[BB], x-1, y-1, z))),
		lerp64(v, lerp64(u, grad3(p.perm[AA+1], x, y, z-1),
			grad3(p.perm[BA+1], x-1, y, z-1)),
			lerp64(u, grad3(p.perm[AB+1], x, y-1, z-1),
				grad3(p.perm[BB+1], x-1, y-1, z-1))))
}

func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp64(t, a, b float64) float64 {
	return a + t*(b-a)
}

func grad3(hash int, x, y, z float64) float64 {
	h := hash & 15
	u := x
	if h >= 8 {
		u = y
	}
	v := y
	if h >= 4 {
		if h == 12 || h == 14 {
			v = x
		} else {
			v = z
		}
	}
	if h&1 != 0 {
		u = -u
	}
	if h&2 != 0 {
		v = -v
	}
	return u + v
}

// simplexNoise wraps opensimplex for a smoother, cheaper lattice.
type simplexNoise struct {
	n opensimplex.Noise
}

func newSimplexNoise(seed int64) *simplexNoise {
	return &simplexNoise{n: opensimplex.New(seed)}
}

func (s *simplexNoise) Sample(x, y, z float64) float64 {
	return s.n.Eval3(x, y, z)
}

// worleyNoise is cellular noise: the distance to the nearest jittered
// feature point, remapped to roughly [-1, 1].
type worleyNoise struct {
	seed int64
}

func newWorleyNoise(seed int64) *worleyNoise {
	return &worleyNoise{seed: seed}
}

func (w *worleyNoise) Sample(x, y, z float64) float64 {
	cx := int64(math.Floor(x))
	cy := int64(math.Floor(y))
	cz := int64(math.Floor(z))

	minSq := math.MaxFloat64
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for dz := int64(-1); dz <= 1; dz++ {
				nx, ny, nz := cx+dx, cy+dy, cz+dz
				h := cellHash64(nx, ny, nz, w.seed)
				fx := float64(nx) + float64(h&0xffff)/65536.0
				fy := float64(ny) + float64((h>>16)&0xffff)/65536.0
				fz := float64(nz) + float64((h>>32)&0xffff)/65536.0
				ddx, ddy, ddz := x-fx, y-fy, z-fz
				if d := ddx*ddx + ddy*ddy + ddz*ddz; d < minSq {
					minSq = d
				}
			}
		}
	}
	// Nearest-point distance is in [0, ~1.7]; center it.
	return math.Sqrt(minSq)*2 - 1
}

func cellHash64(x, y, z, seed int64) uint64 {
	h := uint64(x)*0x9e3779b97f4a7c15 ^ uint64(y)*0xbf58476d1ce4e5b9 ^ uint64(z)*0x94d049bb133111eb ^ uint64(seed)
	h ^= h >> 30
	h *= 0xbf58476d1ce4e5b9
	h ^= h >> 27
	h *= 0x94d049bb133111eb
	h ^= h >> 31
	return h
}

// fbmField layers octaves of a base field with persistence-scaled
// amplitude and lacunarity-scaled frequency.
type fbmField struct {
	base        NoiseField
	octaves     int
	persistence float64
	lacunarity  float64
}

func (f *fbmField) Sample(x, y, z float64) float64 {
	sum := 0.0
	amp := 1.0
	freq := 1.0
	norm := 0.0
	for o := 0; o < f.octaves; o++ {
		sum += f.base.Sample(x*freq, y*freq, z*freq) * amp
		norm += amp
		amp *= f.persistence
		freq *= f.lacunarity
	}
	if norm == 0 {
		return 0
	}
	return sum / norm
}

// sampleVector evaluates three decorrelated components of the field by
// offsetting the sample position per axis.
func sampleVector(f NoiseField, x, y, z float64) geom.Vec3 {
	const off = 31.41592
	return geom.Vec3{
		X: float32(f.Sample(x, y, z)),
		Y: float32(f.Sample(x+off, y+off, z+off)),
		Z: float32(f.Sample(x-off, y-off, z-off)),
	}
}

// sampleCurl builds a divergence-free vector field as the curl of the
// offset vector potential, via central finite differences.
func sampleCurl(f NoiseField, x, y, z float64) geom.Vec3 {
	const eps = 1e-3

	dPzDy := (sampleVector(f, x, y+eps, z).Z - sampleVector(f, x, y-eps, z).Z) / (2 * eps)
	dPyDz := (sampleVector(f, x, y, z+eps).Y - sampleVector(f, x, y, z-eps).Y) / (2 * eps)
	dPxDz := (sampleVector(f, x, y, z+eps).X - sampleVector(f, x, y, z-eps).X) / (2 * eps)
	dPzDx := (sampleVector(f, x+eps, y, z).Z - sampleVector(f, x-eps, y, z).Z) / (2 * eps)
	dPyDx := (sampleVector(f, x+eps, y, z).Y - sampleVector(f, x-eps, y, z).Y) / (2 * eps)
	dPxDy := (sampleVector(f, x, y+eps, z).X - sampleVector(f, x, y-eps, z).X) / (2 * eps)

	return geom.Vec3{
		X: dPzDy - dPyDz,
		Y: dPxDz - dPzDx,
		Z: dPyDx - dPxDy,
	}
}
