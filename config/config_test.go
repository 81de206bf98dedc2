package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/cinder/curve"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load defaults: %v", err)
	}

	if cfg.System.Capacity <= 0 {
		t.Error("defaults must set a positive capacity")
	}
	if cfg.System.Gravity.Y >= 0 {
		t.Error("defaults must pull particles down")
	}
	if !cfg.Emission.Enabled {
		t.Error("emission should be enabled by default")
	}
	if cfg.Derived.DT32 <= 0 {
		t.Error("derived DT32 not computed")
	}
}

func TestLoadMergesUserFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "user.yaml")
	user := []byte("system:\n  capacity: 128\n  seed: 99\n")
	if err := os.WriteFile(path, user, 0644); err != nil {
		t.Fatalf("writing user config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.System.Capacity != 128 {
		t.Errorf("capacity = %d, want user override 128", cfg.System.Capacity)
	}
	if cfg.System.Seed != 99 {
		t.Errorf("seed = %d, want user override 99", cfg.System.Seed)
	}
	// Fields the user file does not name keep defaults.
	if cfg.Demo.TargetFPS != 60 {
		t.Errorf("target_fps = %d, want default 60", cfg.Demo.TargetFPS)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("Load should fail for a missing file")
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.System.Capacity = 777

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}

	back, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if back.System.Capacity != 777 {
		t.Errorf("capacity after round trip = %d, want 777", back.System.Capacity)
	}
}

func TestCurveSpecBuild(t *testing.T) {
	cases := []struct {
		name string
		spec CurveSpec
		mode curve.Mode
		bad  bool
	}{
		{"empty is constant", CurveSpec{Value: 3}, curve.ModeConstant, false},
		{"constant", CurveSpec{Mode: "constant", Value: 5}, curve.ModeConstant, false},
		{"curve", CurveSpec{Mode: "curve", Keys: []KeySpec{{0, 0}, {1, 1}}}, curve.ModeCurve, false},
		{"two constants", CurveSpec{Mode: "two_constants", Min: 1, Max: 2}, curve.ModeTwoConstants, false},
		{"curve without keys", CurveSpec{Mode: "curve"}, 0, true},
		{"unknown mode", CurveSpec{Mode: "wiggle"}, 0, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := tc.spec.Build()
			if tc.bad {
				if err == nil {
					t.Error("Build should fail")
				}
				return
			}
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			if c.Mode != tc.mode {
				t.Errorf("mode = %d, want %d", c.Mode, tc.mode)
			}
		})
	}
}

func TestBuildersFromDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	em, err := cfg.BuildEmission()
	if err != nil {
		t.Fatalf("BuildEmission: %v", err)
	}
	if em.RateOverTime.Evaluate(0, 0) != 50 {
		t.Errorf("default rate = %f, want 50", em.RateOverTime.Evaluate(0, 0))
	}
	if em.Lifetime.Mode != curve.ModeTwoConstants {
		t.Error("default lifetime should be a two-constants range")
	}

	vel, err := cfg.BuildVelocity()
	if err != nil {
		t.Fatalf("BuildVelocity: %v", err)
	}
	if vel.SpeedModifier.Evaluate(0.5, 0) != 1 {
		t.Error("default speed modifier must be a pass-through")
	}

	col, err := cfg.BuildColor()
	if err != nil {
		t.Fatalf("BuildColor: %v", err)
	}
	if !col.UseTable || len(col.Gradient.Keys) != 3 {
		t.Error("default color should tabulate a three-key gradient")
	}

	if _, err := cfg.BuildSize(); err != nil {
		t.Errorf("BuildSize: %v", err)
	}
	if _, err := cfg.BuildRotation(); err != nil {
		t.Errorf("BuildRotation: %v", err)
	}
	if _, err := cfg.BuildNoise(); err != nil {
		t.Errorf("BuildNoise: %v", err)
	}
	if _, err := cfg.BuildCollision(); err != nil {
		t.Errorf("BuildCollision: %v", err)
	}
}

func TestBuildRotationRejectsUnknownMode(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.Rotation.Mode = "spiral"
	if _, err := cfg.BuildRotation(); err == nil {
		t.Error("unknown rotation mode should be rejected")
	}
}
