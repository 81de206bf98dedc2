package modules

import (
	"fmt"

	"github.com/pthm-cable/cinder/curve"
)

// LimitVelocityConfig caps particle speed over lifetime.
type LimitVelocityConfig struct {
	// Limit is the maximum speed, sampled at normalized age.
	Limit curve.Curve

	// Dampen is the fraction of the excess removed per frame, [0,1].
	// 1 clamps hard, smaller values ease toward the limit.
	Dampen float32
}

// DefaultLimitVelocityConfig returns a generous hard clamp.
func DefaultLimitVelocityConfig() LimitVelocityConfig {
	return LimitVelocityConfig{Limit: curve.Constant(100), Dampen: 1}
}

// LimitVelocity dampens particles whose speed exceeds a curve-driven cap.
type LimitVelocity struct {
	Base
	cfg LimitVelocityConfig
}

// NewLimitVelocity creates a limit-velocity module with the given
// configuration.
func NewLimitVelocity(cfg LimitVelocityConfig) *LimitVelocity {
	return &LimitVelocity{
		Base: NewBase(TypeLimitVelocity, PriorityLimitVelocity, TypeVelocity),
		cfg:  cfg,
	}
}

// Initialize validates the configuration.
func (l *LimitVelocity) Initialize() error {
	if l.State() == StateDestroyed {
		return l.initErr(fmt.Errorf("module destroyed"))
	}
	if l.State() == StateInitialized {
		return nil
	}
	if err := validateLimit(&l.cfg); err != nil {
		return l.initErr(err)
	}
	l.finishInit()
	return nil
}

// Configure atomically replaces the configuration.
func (l *LimitVelocity) Configure(cfg any) error {
	next, ok := cfg.(LimitVelocityConfig)
	if !ok {
		return &ConfigError{Module: l.Type(), Err: fmt.Errorf("expected LimitVelocityConfig, got %T", cfg)}
	}
	if err := validateLimit(&next); err != nil {
		return &ConfigError{Module: l.Type(), Err: err}
	}
	l.cfg = next
	return nil
}

func validateLimit(cfg *LimitVelocityConfig) error {
	if cfg.Dampen < 0 || cfg.Dampen > 1 {
		return fmt.Errorf("dampen %f outside [0,1]", cfg.Dampen)
	}
	return nil
}

// Update is a no-op.
func (l *LimitVelocity) Update(ctx *Context, dt float32) error { return nil }

// Process eases over-limit particles back toward the cap.
func (l *LimitVelocity) Process(ctx *Context, dt float32) error {
	if !l.CanProcess(ctx.Buffer) {
		return nil
	}

	buf := ctx.Buffer
	vel := buf.Velocities()
	seeds := buf.Seeds()

	for i := range vel {
		limit := l.cfg.Limit.Evaluate(buf.NormalizedAge(i), seeds[i])
		if limit <= 0 {
			continue
		}
		speedSq := vel[i].LengthSq()
		if speedSq <= limit*limit {
			continue
		}
		speed := fastSqrt(speedSq)
		target := lerpf(speed, limit, l.cfg.Dampen)
		vel[i] = vel[i].Scale(target / speed)
	}
	return nil
}

// Reset is a no-op.
func (l *LimitVelocity) Reset() {}

// Destroy releases the module permanently.
func (l *LimitVelocity) Destroy() { l.markDestroyed() }
