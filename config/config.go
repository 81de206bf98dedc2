// Package config provides configuration loading and access for the
// particle engine.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/cinder/geom"
	"github.com/pthm-cable/cinder/modules"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all engine configuration parameters.
type Config struct {
	System    SystemConfig    `yaml:"system"`
	Emission  EmissionConfig  `yaml:"emission"`
	Velocity  VelocityConfig  `yaml:"velocity"`
	Color     ColorConfig     `yaml:"color"`
	Size      SizeConfig      `yaml:"size"`
	Limit     LimitConfig     `yaml:"limit_velocity"`
	Rotation  RotationConfig  `yaml:"rotation"`
	Noise     NoiseConfig     `yaml:"noise"`
	Collision CollisionConfig `yaml:"collision"`
	Trail     TrailConfig     `yaml:"trail"`
	Light     LightConfig     `yaml:"light"`
	Texture   TextureConfig   `yaml:"texture"`
	Demo      DemoConfig      `yaml:"demo"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// SystemConfig holds orchestrator-level parameters.
type SystemConfig struct {
	Capacity int     `yaml:"capacity"`
	CellSize float64 `yaml:"cell_size"`
	Gravity  Vec3    `yaml:"gravity"`
	Seed     int64   `yaml:"seed"`
	Duration float64 `yaml:"duration"` // loop length, 0 = non-looping
	Prewarm  bool    `yaml:"prewarm"`
	Emitter  Vec3    `yaml:"emitter"`
}

// Vec3 is the YAML form of a float32 vector.
type Vec3 struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

// V returns the engine-space vector.
func (v Vec3) V() geom.Vec3 {
	return geom.Vec3{X: float32(v.X), Y: float32(v.Y), Z: float32(v.Z)}
}

// BurstSpec is one burst timer in YAML form.
type BurstSpec struct {
	Time        float64 `yaml:"time"`
	Count       int     `yaml:"count"`
	Variance    int     `yaml:"variance"`
	Cycles      int     `yaml:"cycles"` // 0 = repeat forever
	Interval    float64 `yaml:"interval"`
	Probability float64 `yaml:"probability"`
}

// EmissionConfig holds the emission module section.
type EmissionConfig struct {
	Enabled   bool         `yaml:"enabled"`
	Rate      CurveSpec    `yaml:"rate"`
	Bursts    []BurstSpec  `yaml:"bursts"`
	Lifetime  CurveSpec    `yaml:"lifetime"`
	Speed     CurveSpec    `yaml:"speed"`
	Size      CurveSpec    `yaml:"size"`
	Color     GradientSpec `yaml:"color"`
	Direction Vec3         `yaml:"direction"`
	ConeAngle float64      `yaml:"cone_angle"` // radians
	Spread    float64      `yaml:"spread"`
}

// VelocityConfig holds the velocity module section.
type VelocityConfig struct {
	Enabled       bool      `yaml:"enabled"`
	LinearX       CurveSpec `yaml:"linear_x"`
	LinearY       CurveSpec `yaml:"linear_y"`
	LinearZ       CurveSpec `yaml:"linear_z"`
	OrbitalX      CurveSpec `yaml:"orbital_x"`
	OrbitalY      CurveSpec `yaml:"orbital_y"`
	OrbitalZ      CurveSpec `yaml:"orbital_z"`
	OrbitalCenter Vec3      `yaml:"orbital_center"`
	Radial        CurveSpec `yaml:"radial"`
	SpeedModifier CurveSpec `yaml:"speed_modifier"`
	InheritRatio  float64   `yaml:"inherit_ratio"`
	Damping       CurveSpec `yaml:"damping"`
}

// ColorConfig holds the color module section.
type ColorConfig struct {
	Enabled           bool         `yaml:"enabled"`
	Gradient          GradientSpec `yaml:"gradient"`
	UseTable          bool         `yaml:"use_table"`
	TableSize         int          `yaml:"table_size"`
	VelocityInfluence float64      `yaml:"velocity_influence"`
	VelocityRange     float64      `yaml:"velocity_range"`
	SizeInfluence     float64      `yaml:"size_influence"`
	Jitter            float64      `yaml:"jitter"`
}

// SizeConfig holds the size module section.
type SizeConfig struct {
	Enabled      bool      `yaml:"enabled"`
	Size         CurveSpec `yaml:"size"`
	SeparateAxes bool      `yaml:"separate_axes"`
	X            CurveSpec `yaml:"x"`
	Y            CurveSpec `yaml:"y"`
	Z            CurveSpec `yaml:"z"`
}

// LimitConfig holds the limit-velocity module section.
type LimitConfig struct {
	Enabled bool      `yaml:"enabled"`
	Limit   CurveSpec `yaml:"limit"`
	Dampen  float64   `yaml:"dampen"`
}

// RotationConfig holds the rotation module section.
type RotationConfig struct {
	Enabled bool      `yaml:"enabled"`
	Mode    string    `yaml:"mode"` // constant|curve|by_speed|by_position|velocity_aligned|orbital|damped
	X       CurveSpec `yaml:"x"`
	Y       CurveSpec `yaml:"y"`
	Z       CurveSpec `yaml:"z"`
	Damping float64   `yaml:"damping"`
}

// NoiseConfig holds the noise module section.
type NoiseConfig struct {
	Enabled     bool      `yaml:"enabled"`
	Type        string    `yaml:"type"` // perlin|simplex|worley
	Seed        int64     `yaml:"seed"`
	Frequency   float64   `yaml:"frequency"`
	Strength    CurveSpec `yaml:"strength"`
	ScrollSpeed float64   `yaml:"scroll_speed"`
	Octaves     int       `yaml:"octaves"`
	Persistence float64   `yaml:"persistence"`
	Lacunarity  float64   `yaml:"lacunarity"`
	Curl        bool      `yaml:"curl"`
	Additive    bool      `yaml:"additive"`
}

// PlaneSpec is one collision plane in YAML form.
type PlaneSpec struct {
	Point  Vec3 `yaml:"point"`
	Normal Vec3 `yaml:"normal"`
}

// CollisionConfig holds the collision module section.
type CollisionConfig struct {
	Enabled      bool        `yaml:"enabled"`
	Planes       []PlaneSpec `yaml:"planes"`
	Radius       float64     `yaml:"radius"`
	Bounce       float64     `yaml:"bounce"`
	Friction     float64     `yaml:"friction"`
	LifetimeLoss float64     `yaml:"lifetime_loss"`
}

// TrailConfig holds the trail module section.
type TrailConfig struct {
	Enabled           bool    `yaml:"enabled"`
	MaxPoints         int     `yaml:"max_points"`
	MinVertexDistance float64 `yaml:"min_vertex_distance"`
	Ratio             float64 `yaml:"ratio"`
}

// LightConfig holds the light module section.
type LightConfig struct {
	Enabled        bool      `yaml:"enabled"`
	Every          int       `yaml:"every"`
	MaxLights      int       `yaml:"max_lights"`
	Range          CurveSpec `yaml:"range"`
	Intensity      CurveSpec `yaml:"intensity"`
	DensityDimming float64   `yaml:"density_dimming"`
}

// TextureConfig holds the texture-sheet module section.
type TextureConfig struct {
	Enabled       bool      `yaml:"enabled"`
	TilesX        int       `yaml:"tiles_x"`
	TilesY        int       `yaml:"tiles_y"`
	FrameOverTime CurveSpec `yaml:"frame_over_time"`
	Cycles        int       `yaml:"cycles"`
}

// DemoConfig holds display settings for the demo window.
type DemoConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// TelemetryConfig holds stats collection settings.
type TelemetryConfig struct {
	WindowFrames int    `yaml:"window_frames"`
	OutputDir    string `yaml:"output_dir"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32      float32 // 1 / Demo.TargetFPS as float32
	Gravity   geom.Vec3
	CellSize  float32
	Duration  float32
	ScreenW32 float32
	ScreenH32 float32
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults
// if path is empty. Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded
// defaults. If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into the same struct so the file only overwrites the
		// fields it names.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()
	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	fps := c.Demo.TargetFPS
	if fps <= 0 {
		fps = 60
	}
	c.Derived.DT32 = 1 / float32(fps)
	c.Derived.Gravity = c.System.Gravity.V()
	c.Derived.CellSize = float32(c.System.CellSize)
	c.Derived.Duration = float32(c.System.Duration)
	c.Derived.ScreenW32 = float32(c.Demo.Width)
	c.Derived.ScreenH32 = float32(c.Demo.Height)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// BuildEmission converts the section into the module configuration.
func (c *Config) BuildEmission() (modules.EmissionConfig, error) {
	out := modules.DefaultEmissionConfig()
	var err error
	if out.RateOverTime, err = c.Emission.Rate.Build(); err != nil {
		return out, fmt.Errorf("emission rate: %w", err)
	}
	if out.Lifetime, err = c.Emission.Lifetime.Build(); err != nil {
		return out, fmt.Errorf("emission lifetime: %w", err)
	}
	if out.Speed, err = c.Emission.Speed.Build(); err != nil {
		return out, fmt.Errorf("emission speed: %w", err)
	}
	if out.Size, err = c.Emission.Size.Build(); err != nil {
		return out, fmt.Errorf("emission size: %w", err)
	}
	if out.Color, err = c.Emission.Color.Build(); err != nil {
		return out, fmt.Errorf("emission color: %w", err)
	}
	out.Direction = c.Emission.Direction.V()
	out.ConeAngle = float32(c.Emission.ConeAngle)
	out.Spread = float32(c.Emission.Spread)
	out.Prewarm = c.System.Prewarm
	out.Bursts = make([]modules.BurstConfig, len(c.Emission.Bursts))
	for i, b := range c.Emission.Bursts {
		out.Bursts[i] = modules.BurstConfig{
			Time:        float32(b.Time),
			Count:       b.Count,
			Variance:    b.Variance,
			Cycles:      b.Cycles,
			Interval:    float32(b.Interval),
			Probability: float32(b.Probability),
		}
	}
	return out, nil
}

// BuildVelocity converts the section into the module configuration.
func (c *Config) BuildVelocity() (modules.VelocityConfig, error) {
	out := modules.DefaultVelocityConfig()
	var err error
	if out.LinearX, err = c.Velocity.LinearX.Build(); err != nil {
		return out, fmt.Errorf("velocity linear_x: %w", err)
	}
	if out.LinearY, err = c.Velocity.LinearY.Build(); err != nil {
		return out, fmt.Errorf("velocity linear_y: %w", err)
	}
	if out.LinearZ, err = c.Velocity.LinearZ.Build(); err != nil {
		return out, fmt.Errorf("velocity linear_z: %w", err)
	}
	if out.OrbitalX, err = c.Velocity.OrbitalX.Build(); err != nil {
		return out, fmt.Errorf("velocity orbital_x: %w", err)
	}
	if out.OrbitalY, err = c.Velocity.OrbitalY.Build(); err != nil {
		return out, fmt.Errorf("velocity orbital_y: %w", err)
	}
	if out.OrbitalZ, err = c.Velocity.OrbitalZ.Build(); err != nil {
		return out, fmt.Errorf("velocity orbital_z: %w", err)
	}
	if out.Radial, err = c.Velocity.Radial.Build(); err != nil {
		return out, fmt.Errorf("velocity radial: %w", err)
	}
	if out.SpeedModifier, err = c.Velocity.SpeedModifier.Build(); err != nil {
		return out, fmt.Errorf("velocity speed_modifier: %w", err)
	}
	if out.Damping, err = c.Velocity.Damping.Build(); err != nil {
		return out, fmt.Errorf("velocity damping: %w", err)
	}
	out.OrbitalCenter = c.Velocity.OrbitalCenter.V()
	out.InheritRatio = float32(c.Velocity.InheritRatio)
	return out, nil
}

// BuildColor converts the section into the module configuration.
func (c *Config) BuildColor() (modules.ColorConfig, error) {
	out := modules.DefaultColorConfig()
	var err error
	if out.Gradient, err = c.Color.Gradient.Build(); err != nil {
		return out, fmt.Errorf("color gradient: %w", err)
	}
	out.UseTable = c.Color.UseTable
	out.TableSize = c.Color.TableSize
	out.VelocityInfluence = float32(c.Color.VelocityInfluence)
	out.VelocityRange = float32(c.Color.VelocityRange)
	out.SizeInfluence = float32(c.Color.SizeInfluence)
	out.Jitter = float32(c.Color.Jitter)
	return out, nil
}

// BuildSize converts the section into the module configuration.
func (c *Config) BuildSize() (modules.SizeConfig, error) {
	out := modules.DefaultSizeConfig()
	var err error
	if out.Size, err = c.Size.Size.Build(); err != nil {
		return out, fmt.Errorf("size curve: %w", err)
	}
	out.SeparateAxes = c.Size.SeparateAxes
	if out.SeparateAxes {
		if out.X, err = c.Size.X.Build(); err != nil {
			return out, fmt.Errorf("size x: %w", err)
		}
		if out.Y, err = c.Size.Y.Build(); err != nil {
			return out, fmt.Errorf("size y: %w", err)
		}
		if out.Z, err = c.Size.Z.Build(); err != nil {
			return out, fmt.Errorf("size z: %w", err)
		}
	}
	return out, nil
}

// BuildLimit converts the section into the module configuration.
func (c *Config) BuildLimit() (modules.LimitVelocityConfig, error) {
	out := modules.DefaultLimitVelocityConfig()
	var err error
	if out.Limit, err = c.Limit.Limit.Build(); err != nil {
		return out, fmt.Errorf("limit curve: %w", err)
	}
	out.Dampen = float32(c.Limit.Dampen)
	return out, nil
}

// BuildRotation converts the section into the module configuration.
func (c *Config) BuildRotation() (modules.RotationConfig, error) {
	out := modules.DefaultRotationConfig()
	switch c.Rotation.Mode {
	case "", "constant":
		out.Mode = modules.RotationConstant
	case "curve":
		out.Mode = modules.RotationCurve
	case "by_speed":
		out.Mode = modules.RotationBySpeed
	case "by_position":
		out.Mode = modules.RotationByPosition
	case "velocity_aligned":
		out.Mode = modules.RotationVelocityAligned
	case "orbital":
		out.Mode = modules.RotationOrbital
	case "damped":
		out.Mode = modules.RotationDamped
	default:
		return out, fmt.Errorf("unknown rotation mode %q", c.Rotation.Mode)
	}
	var err error
	if out.X, err = c.Rotation.X.Build(); err != nil {
		return out, fmt.Errorf("rotation x: %w", err)
	}
	if out.Y, err = c.Rotation.Y.Build(); err != nil {
		return out, fmt.Errorf("rotation y: %w", err)
	}
	if out.Z, err = c.Rotation.Z.Build(); err != nil {
		return out, fmt.Errorf("rotation z: %w", err)
	}
	out.Damping = float32(c.Rotation.Damping)
	return out, nil
}

// BuildNoise converts the section into the module configuration.
func (c *Config) BuildNoise() (modules.NoiseConfig, error) {
	out := modules.DefaultNoiseConfig()
	switch c.Noise.Type {
	case "", "simplex":
		out.Type = modules.NoiseSimplex
	case "perlin":
		out.Type = modules.NoisePerlin
	case "worley":
		out.Type = modules.NoiseWorley
	default:
		return out, fmt.Errorf("unknown noise type %q", c.Noise.Type)
	}
	var err error
	if out.Strength, err = c.Noise.Strength.Build(); err != nil {
		return out, fmt.Errorf("noise strength: %w", err)
	}
	out.Seed = c.Noise.Seed
	out.Frequency = float32(c.Noise.Frequency)
	out.ScrollSpeed = float32(c.Noise.ScrollSpeed)
	out.Octaves = c.Noise.Octaves
	out.Persistence = float32(c.Noise.Persistence)
	out.Lacunarity = float32(c.Noise.Lacunarity)
	out.Curl = c.Noise.Curl
	out.Additive = c.Noise.Additive
	return out, nil
}

// BuildCollision converts the section into the module configuration.
func (c *Config) BuildCollision() (modules.CollisionConfig, error) {
	out := modules.DefaultCollisionConfig()
	out.Planes = make([]modules.Plane, len(c.Collision.Planes))
	for i, p := range c.Collision.Planes {
		out.Planes[i] = modules.Plane{Point: p.Point.V(), Normal: p.Normal.V()}
	}
	out.Radius = float32(c.Collision.Radius)
	out.Bounce = float32(c.Collision.Bounce)
	out.Friction = float32(c.Collision.Friction)
	out.LifetimeLoss = float32(c.Collision.LifetimeLoss)
	return out, nil
}

// BuildTrail converts the section into the module configuration.
func (c *Config) BuildTrail() (modules.TrailConfig, error) {
	out := modules.DefaultTrailConfig()
	if c.Trail.MaxPoints > 0 {
		out.MaxPoints = c.Trail.MaxPoints
	}
	out.MinVertexDistance = float32(c.Trail.MinVertexDistance)
	out.Ratio = float32(c.Trail.Ratio)
	return out, nil
}

// BuildLight converts the section into the module configuration.
func (c *Config) BuildLight() (modules.LightConfig, error) {
	out := modules.DefaultLightConfig()
	if c.Light.Every > 0 {
		out.Every = c.Light.Every
	}
	if c.Light.MaxLights > 0 {
		out.MaxLights = c.Light.MaxLights
	}
	var err error
	if out.Range, err = c.Light.Range.Build(); err != nil {
		return out, fmt.Errorf("light range: %w", err)
	}
	if out.Intensity, err = c.Light.Intensity.Build(); err != nil {
		return out, fmt.Errorf("light intensity: %w", err)
	}
	out.DensityDimming = float32(c.Light.DensityDimming)
	return out, nil
}

// BuildTexture converts the section into the module configuration.
func (c *Config) BuildTexture() (modules.TextureConfig, error) {
	out := modules.DefaultTextureConfig()
	if c.Texture.TilesX > 0 {
		out.TilesX = c.Texture.TilesX
	}
	if c.Texture.TilesY > 0 {
		out.TilesY = c.Texture.TilesY
	}
	if c.Texture.Cycles > 0 {
		out.Cycles = c.Texture.Cycles
	}
	var err error
	if out.FrameOverTime, err = c.Texture.FrameOverTime.Build(); err != nil {
		return out, fmt.Errorf("texture frame_over_time: %w", err)
	}
	return out, nil
}
