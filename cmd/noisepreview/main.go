// Noise field preview tool - interactive visualization with sliders.
//
// Renders the magnitude of the turbulence vector field on a pannable,
// zoomable slice of the z=0 plane.
//
// Usage: go run ./cmd/noisepreview
package main

import (
	"fmt"
	"image/color"
	"math"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/cinder/camera"
	"github.com/pthm-cable/cinder/curve"
	"github.com/pthm-cable/cinder/geom"
	"github.com/pthm-cable/cinder/modules"
)

const (
	windowWidth  = 1000
	windowHeight = 720
	previewSize  = 512
	panelWidth   = windowWidth - previewSize - 30
)

var typeNames = map[modules.NoiseType]string{
	modules.NoiseSimplex: "simplex",
	modules.NoisePerlin:  "perlin",
	modules.NoiseWorley:  "worley",
}

func main() {
	rl.InitWindow(windowWidth, windowHeight, "Noise Field Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	params := modules.DefaultNoiseConfig()
	params.Octaves = 3
	params.Strength = curve.Constant(1)

	field := modules.NewNoise(params)
	if err := field.Initialize(); err != nil {
		panic(err)
	}

	cam := camera.New(previewSize, previewSize)
	cam.SetZoom(32) // 16 world units across by default

	gridSize := 256
	magGrid := make([]float32, gridSize*gridSize)
	img := rl.GenImageColor(gridSize, gridSize, rl.Black)
	texture := rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	defer rl.UnloadTexture(texture)

	var time float32 = 0
	animating := false
	needsRegen := true

	for !rl.WindowShouldClose() {
		if animating {
			time += rl.GetFrameTime()
			needsRegen = true
		}

		// Pan with right mouse drag, zoom with the wheel, both restricted
		// to the preview rectangle.
		mouse := rl.GetMousePosition()
		overPreview := mouse.X >= 10 && mouse.X < 10+previewSize &&
			mouse.Y >= 10 && mouse.Y < 10+previewSize
		if overPreview {
			if rl.IsMouseButtonDown(rl.MouseRightButton) {
				d := rl.GetMouseDelta()
				cam.Pan(-d.X, -d.Y)
				needsRegen = true
			}
			if wheel := rl.GetMouseWheelMove(); wheel != 0 {
				factor := float32(math.Pow(1.2, float64(wheel)))
				cam.ZoomAt(mouse.X-10, mouse.Y-10, factor)
				needsRegen = true
			}
		}

		if needsRegen {
			sampleField(magGrid, gridSize, field, cam, time)
			updateTexture(texture, magGrid, gridSize)
			needsRegen = false
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		rl.DrawTexturePro(
			texture,
			rl.Rectangle{X: 0, Y: 0, Width: float32(gridSize), Height: float32(gridSize)},
			rl.Rectangle{X: 10, Y: 10, Width: previewSize, Height: previewSize},
			rl.Vector2{X: 0, Y: 0},
			0,
			rl.White,
		)
		rl.DrawRectangleLines(10, 10, previewSize, previewSize, rl.DarkGray)

		minX, minY, maxX, maxY := cam.VisibleWorldBounds()
		statsY := int32(previewSize + 25)
		rl.DrawText(fmt.Sprintf("View: (%.1f, %.1f) to (%.1f, %.1f)", minX, minY, maxX, maxY), 15, statsY, 16, rl.DarkGray)
		rl.DrawText(fmt.Sprintf("Time: %.1f   Right-drag pans, wheel zooms", time), 15, statsY+20, 16, rl.DarkGray)

		// Control panel
		panelX := float32(previewSize + 20)
		panelY := float32(10)

		rl.DrawText("Turbulence Parameters", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		next := params

		// Family and curl toggles
		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 26}, "Type: "+typeNames[params.Type]) {
			next.Type = (params.Type + 1) % 3
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 26}, toggleText(params.Curl, "Curl: on", "Curl: off")) {
			next.Curl = !params.Curl
		}
		panelY += 40

		// Frequency slider
		rl.DrawText("Frequency (world-to-noise scale)", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		next.Frequency = gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
			"0.05", "4.0",
			params.Frequency, 0.05, 4.0,
		)
		rl.DrawText(fmt.Sprintf("%.2f", params.Frequency), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
		panelY += 35

		// Octaves slider
		rl.DrawText("Octaves (fractal detail)", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		newOctaves := gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
			"1", "6",
			float32(params.Octaves), 1, 6,
		)
		next.Octaves = int(newOctaves)
		rl.DrawText(fmt.Sprintf("%d", params.Octaves), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
		panelY += 35

		// Persistence slider
		rl.DrawText("Persistence (amplitude decay)", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		next.Persistence = gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
			"0.2", "0.9",
			params.Persistence, 0.2, 0.9,
		)
		rl.DrawText(fmt.Sprintf("%.2f", params.Persistence), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
		panelY += 35

		// Lacunarity slider
		rl.DrawText("Lacunarity (frequency growth)", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		next.Lacunarity = gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
			"1.5", "4.0",
			params.Lacunarity, 1.5, 4.0,
		)
		rl.DrawText(fmt.Sprintf("%.2f", params.Lacunarity), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
		panelY += 35

		// Scroll speed slider
		rl.DrawText("Scroll speed (animation)", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		next.ScrollSpeed = gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
			"0", "2.0",
			params.ScrollSpeed, 0, 2.0,
		)
		rl.DrawText(fmt.Sprintf("%.2f", params.ScrollSpeed), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
		panelY += 45

		// Buttons
		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, toggleText(animating, "Stop", "Animate")) {
			animating = !animating
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Reset Time") {
			time = 0
			needsRegen = true
		}
		panelY += 45

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Random Seed") {
			next.Seed = int64(rl.GetRandomValue(0, 99999))
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Reset All") {
			next = modules.DefaultNoiseConfig()
			next.Octaves = 3
			next.Strength = curve.Constant(1)
			cam.Reset()
			cam.SetZoom(32)
			time = 0
			needsRegen = true
		}
		panelY += 55

		changed := next.Type != params.Type || next.Curl != params.Curl ||
			next.Seed != params.Seed || next.Frequency != params.Frequency ||
			next.Octaves != params.Octaves || next.Persistence != params.Persistence ||
			next.Lacunarity != params.Lacunarity || next.ScrollSpeed != params.ScrollSpeed
		if changed {
			if err := field.Configure(next); err == nil {
				params = next
				needsRegen = true
			}
		}

		// Output YAML matching the engine's noise config section
		rl.DrawText("YAML Config:", int32(panelX), int32(panelY), 16, rl.DarkGray)
		panelY += 25
		for _, line := range yamlLines(params) {
			rl.DrawText(line, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 16
		}

		rl.DrawText("Press C to copy YAML to clipboard", int32(panelX), int32(windowHeight-30), 12, rl.LightGray)
		if rl.IsKeyPressed(rl.KeyC) {
			yaml := ""
			for _, line := range yamlLines(params) {
				yaml += line + "\n"
			}
			rl.SetClipboardText(yaml)
		}

		rl.EndDrawing()
	}
}

func yamlLines(params modules.NoiseConfig) []string {
	return []string{
		"noise:",
		"  enabled: true",
		fmt.Sprintf("  type: %s", typeNames[params.Type]),
		fmt.Sprintf("  seed: %d", params.Seed),
		fmt.Sprintf("  frequency: %.2f", params.Frequency),
		fmt.Sprintf("  scroll_speed: %.2f", params.ScrollSpeed),
		fmt.Sprintf("  octaves: %d", params.Octaves),
		fmt.Sprintf("  persistence: %.2f", params.Persistence),
		fmt.Sprintf("  lacunarity: %.2f", params.Lacunarity),
		fmt.Sprintf("  curl: %t", params.Curl),
	}
}

func toggleText(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}

// sampleField fills the grid with field magnitudes over the camera's
// visible slice of the z=0 plane, normalized to [0, 1].
func sampleField(grid []float32, size int, field *modules.Noise, cam *camera.Camera, t float32) {
	cell := previewSize / float32(size)
	for y := 0; y < size; y++ {
		sy := (float32(y) + 0.5) * cell
		for x := 0; x < size; x++ {
			sx := (float32(x) + 0.5) * cell
			wx, wy := cam.ScreenToWorld(sx, sy)

			v := field.Sample(geom.Vec3{X: wx, Y: wy}, t)
			// Component magnitudes top out near sqrt(3) for raw fields
			// and a little above for curl.
			mag := float32(math.Sqrt(float64(v.Dot(v)))) / 2
			if mag > 1 {
				mag = 1
			}
			grid[y*size+x] = mag
		}
	}
}

// updateTexture updates the GPU texture from the grid values
func updateTexture(texture rl.Texture2D, grid []float32, size int) {
	pixels := make([]color.RGBA, size*size)
	for i, v := range grid {
		// Color gradient: dark blue -> cyan -> yellow -> white
		var r, g, b uint8
		if v < 0.25 {
			t := v / 0.25
			r = uint8(10 + t*30)
			g = uint8(20 + t*60)
			b = uint8(60 + t*100)
		} else if v < 0.5 {
			t := (v - 0.25) / 0.25
			r = uint8(40 + t*20)
			g = uint8(80 + t*120)
			b = uint8(160 + t*40)
		} else if v < 0.75 {
			t := (v - 0.5) / 0.25
			r = uint8(60 + t*140)
			g = uint8(200 - t*40)
			b = uint8(200 - t*150)
		} else {
			t := (v - 0.75) / 0.25
			r = uint8(200 + t*55)
			g = uint8(160 + t*95)
			b = uint8(50 + t*205)
		}
		pixels[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	rl.UpdateTexture(texture, pixels)
}
