package camera

import (
	"math"
	"testing"
)

func TestNew(t *testing.T) {
	cam := New(1280, 720)

	if cam.X != 0 || cam.Y != 0 {
		t.Errorf("expected camera at origin, got (%f, %f)", cam.X, cam.Y)
	}
	if cam.Zoom != 1.0 {
		t.Errorf("expected zoom 1.0, got %f", cam.Zoom)
	}
}

func TestWorldToScreenCentered(t *testing.T) {
	cam := New(1280, 720)

	// Camera center should map to screen center
	sx, sy := cam.WorldToScreen(0, 0)
	if math.Abs(float64(sx-640)) > 0.01 || math.Abs(float64(sy-360)) > 0.01 {
		t.Errorf("expected screen center (640, 360), got (%f, %f)", sx, sy)
	}
}

func TestScreenToWorldRoundtrip(t *testing.T) {
	cam := New(1280, 720)
	cam.X = 3.5
	cam.Y = -2
	cam.SetZoom(2.5)

	testCases := []struct{ sx, sy float32 }{
		{640, 360},  // center
		{100, 100},  // top-left
		{1200, 600}, // near bottom-right
	}

	for _, tc := range testCases {
		wx, wy := cam.ScreenToWorld(tc.sx, tc.sy)
		sx, sy := cam.WorldToScreen(wx, wy)
		if math.Abs(float64(sx-tc.sx)) > 0.01 || math.Abs(float64(sy-tc.sy)) > 0.01 {
			t.Errorf("roundtrip failed: (%f,%f) -> (%f,%f) -> (%f,%f)",
				tc.sx, tc.sy, wx, wy, sx, sy)
		}
	}
}

func TestPan(t *testing.T) {
	cam := New(1280, 720)
	cam.SetZoom(2)

	// Screen-pixel deltas shrink by zoom in world units.
	cam.Pan(-200, 100)

	if cam.X != -100 || cam.Y != 50 {
		t.Errorf("expected camera at (-100, 50), got (%f, %f)", cam.X, cam.Y)
	}
}

func TestZoomClamp(t *testing.T) {
	cam := New(1280, 720)

	cam.SetZoom(0.001)
	if cam.Zoom != cam.MinZoom {
		t.Errorf("expected zoom clamped to %f, got %f", cam.MinZoom, cam.Zoom)
	}

	cam.SetZoom(1000)
	if cam.Zoom != cam.MaxZoom {
		t.Errorf("expected zoom clamped to %f, got %f", cam.MaxZoom, cam.Zoom)
	}
}

func TestZoomAtKeepsCursorFixed(t *testing.T) {
	cam := New(1280, 720)
	cam.X = 10
	cam.Y = 5

	const sx, sy = 900, 200
	wx, wy := cam.ScreenToWorld(sx, sy)

	cam.ZoomAt(sx, sy, 2)

	sx2, sy2 := cam.WorldToScreen(wx, wy)
	if math.Abs(float64(sx2-sx)) > 0.01 || math.Abs(float64(sy2-sy)) > 0.01 {
		t.Errorf("world point drifted to (%f, %f), want (%f, %f)", sx2, sy2, float32(sx), float32(sy))
	}
	if cam.Zoom != 2 {
		t.Errorf("expected zoom 2, got %f", cam.Zoom)
	}
}

func TestVisibleWorldBounds(t *testing.T) {
	cam := New(800, 600)
	cam.SetZoom(2)

	minX, minY, maxX, maxY := cam.VisibleWorldBounds()
	if minX != -200 || maxX != 200 || minY != -150 || maxY != 150 {
		t.Errorf("bounds = (%f,%f)-(%f,%f), want (-200,-150)-(200,150)", minX, minY, maxX, maxY)
	}
}

func TestReset(t *testing.T) {
	cam := New(1280, 720)
	cam.X = 500
	cam.Y = 500
	cam.Zoom = 2.5

	cam.Reset()

	if cam.X != 0 || cam.Y != 0 {
		t.Errorf("expected origin, got (%f, %f)", cam.X, cam.Y)
	}
	if cam.Zoom != 1.0 {
		t.Errorf("expected zoom 1.0, got %f", cam.Zoom)
	}
}
