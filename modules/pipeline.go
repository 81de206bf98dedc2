package modules

import (
	"fmt"
	"log/slog"
	"sort"
)

// Pipeline holds the ordered module set and enforces the failure-isolation
// discipline: a fault inside one module disables that module instead of
// aborting the frame.
type Pipeline struct {
	modules []Module
	faults  int
}

// NewPipeline creates an empty pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{}
}

// Add inserts a module, keeping ascending priority order. Insertion order
// breaks ties.
func (p *Pipeline) Add(m Module) {
	p.modules = append(p.modules, m)
	sort.SliceStable(p.modules, func(i, j int) bool {
		return p.modules[i].Priority() < p.modules[j].Priority()
	})
}

// Get returns the first module with the given type tag, or nil.
func (p *Pipeline) Get(typ string) Module {
	for _, m := range p.modules {
		if m.Type() == typ {
			return m
		}
	}
	return nil
}

// Modules returns the pipeline's modules in execution order.
func (p *Pipeline) Modules() []Module {
	return p.modules
}

// Initialize initializes every module, collecting failures. Modules that
// fail stay Uninitialized and are skipped at runtime.
func (p *Pipeline) Initialize() error {
	var firstErr error
	for _, m := range p.modules {
		if err := m.Initialize(); err != nil {
			slog.Error("module initialization failed",
				"module", m.Type(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Step runs one frame: every module's Update then Process in priority
// order. Any error returned or panic raised inside a module is caught
// here, logged, and converts into disabling that module; a single bad
// module degrades the effect, never the whole system.
func (p *Pipeline) Step(ctx *Context, dt float32) {
	for _, m := range p.modules {
		if m.State() != StateInitialized || !m.Enabled() {
			continue
		}
		if err := p.guard(m, func() error { return m.Update(ctx, dt) }); err != nil {
			p.disable(m, "update", err)
			continue
		}
		if err := p.guard(m, func() error { return m.Process(ctx, dt) }); err != nil {
			p.disable(m, "process", err)
		}
	}
}

// Reset resets every module's transient caches.
func (p *Pipeline) Reset() {
	for _, m := range p.modules {
		m.Reset()
	}
}

// Destroy destroys every module. The pipeline is unusable afterward.
func (p *Pipeline) Destroy() {
	for _, m := range p.modules {
		m.Destroy()
	}
	p.modules = nil
}

// guard runs fn, converting a panic into an error at the module boundary.
func (p *Pipeline) guard(m Module, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in module %s: %v", m.Type(), r)
		}
	}()
	return fn()
}

func (p *Pipeline) disable(m Module, phase string, err error) {
	slog.Error("module fault, disabling",
		"module", m.Type(), "phase", phase, "error", err)
	m.SetEnabled(false)
	p.faults++
}

// Faults returns the total number of module faults since construction.
func (p *Pipeline) Faults() int { return p.faults }
