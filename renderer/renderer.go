// Package renderer draws a particle system through raylib. It is a pure
// consumer of the buffer read contract: field slices over [0, count).
package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/cinder/engine"
	"github.com/pthm-cable/cinder/geom"
	"github.com/pthm-cable/cinder/modules"
)

// ParticleRenderer renders one system's particles, trails, and lights.
type ParticleRenderer struct {
	camera rl.Camera3D

	// scratch for trail point copies, reused across frames
	trailPts []geom.Vec3
}

// NewParticleRenderer creates a renderer with an orbiting default camera.
func NewParticleRenderer() *ParticleRenderer {
	return &ParticleRenderer{
		camera: rl.Camera3D{
			Position:   rl.Vector3{X: 8, Y: 6, Z: 8},
			Target:     rl.Vector3{Y: 1.5},
			Up:         rl.Vector3{Y: 1},
			Fovy:       45,
			Projection: rl.CameraPerspective,
		},
	}
}

// Camera exposes the camera for input handling.
func (r *ParticleRenderer) Camera() *rl.Camera3D { return &r.camera }

// Draw renders the system inside a 3D block.
func (r *ParticleRenderer) Draw(sys *engine.System) {
	rl.BeginMode3D(r.camera)

	rl.DrawGrid(16, 1)

	buf := sys.Buffer()
	pos := buf.Positions()
	sizes := buf.Sizes()
	colors := buf.Colors()

	for i := range pos {
		c := colors[i]
		col := rl.Color{
			R: uint8(c.X * 255),
			G: uint8(c.Y * 255),
			B: uint8(c.Z * 255),
			A: uint8(c.W * 255),
		}
		radius := (sizes[i].X + sizes[i].Y + sizes[i].Z) / 6
		if radius <= 0 {
			continue
		}
		rl.DrawSphereEx(vec3(pos[i]), radius, 6, 6, col)
	}

	r.drawTrails(sys)
	r.drawLights(sys)

	rl.EndMode3D()
}

// drawTrails renders each trailed particle's ring as a polyline.
func (r *ParticleRenderer) drawTrails(sys *engine.System) {
	tr, ok := sys.Module(modules.TypeTrail).(*modules.Trail)
	if !ok || tr == nil || !tr.Enabled() {
		return
	}

	buf := sys.Buffer()
	ids := buf.IDs()
	colors := buf.Colors()

	for i := range ids {
		r.trailPts = tr.Points(ids[i], r.trailPts[:0])
		if len(r.trailPts) < 2 {
			continue
		}
		c := colors[i]
		col := rl.Color{
			R: uint8(c.X * 255),
			G: uint8(c.Y * 255),
			B: uint8(c.Z * 255),
			A: uint8(c.W * 128),
		}
		for j := 1; j < len(r.trailPts); j++ {
			rl.DrawLine3D(vec3(r.trailPts[j-1]), vec3(r.trailPts[j]), col)
		}
	}
}

// drawLights renders light records as translucent range spheres.
func (r *ParticleRenderer) drawLights(sys *engine.System) {
	li, ok := sys.Module(modules.TypeLight).(*modules.Light)
	if !ok || li == nil || !li.Enabled() {
		return
	}

	for _, rec := range li.Lights() {
		a := rec.Intensity * 40
		if a > 255 {
			a = 255
		}
		col := rl.Color{
			R: uint8(rec.Color.X * 255),
			G: uint8(rec.Color.Y * 255),
			B: uint8(rec.Color.Z * 255),
			A: uint8(a),
		}
		rl.DrawSphereWires(vec3(rec.Position), rec.Range, 6, 6, col)
	}
}

func vec3(v geom.Vec3) rl.Vector3 {
	return rl.Vector3{X: v.X, Y: v.Y, Z: v.Z}
}
