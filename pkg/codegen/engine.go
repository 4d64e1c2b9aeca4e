package codegen

import (
	"fmt"
	"log/slog"

	"github.com/edp1096/lblmc-codegen/internal/consts"
	"github.com/edp1096/lblmc-codegen/pkg/ccode"
	"github.com/edp1096/lblmc-codegen/pkg/errs"
	"github.com/edp1096/lblmc-codegen/pkg/matrix"
)

// Stage is where an engine is in its lifecycle. Reset always returns it
// to Configured.
type Stage int

const (
	// Configured engines have nothing stamped yet.
	Configured Stage = iota
	// Stamped engines hold at least one component and accept more.
	Stamped
	// Emitted engines have produced code and accept no more stamps.
	Emitted
	// Failed engines hit a stamping error and may hold a partial network.
	// Only Reset leaves this stage.
	Failed
)

func (s Stage) String() string {
	switch s {
	case Configured:
		return "configured"
	case Stamped:
		return "stamped"
	case Emitted:
		return "emitted"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// Engine collects the stamps and code fragments of every component of one
// network and emits the simulation engine function.
//
// An Engine is not safe for concurrent use.
type Engine struct {
	name string
	size int
	opts Options
	log  *slog.Logger

	admittance *matrix.Admittance
	sources    *matrix.SourceRegistry
	inverse    *matrix.Admittance

	parameters    []ccode.Block
	fields        []ccode.Block
	inputs        []ccode.Param
	outputs       []ccode.Param
	outputsUpdate []ccode.Block
	updates       []ccode.Block

	components int
	stage      Stage
}

// NewEngine returns a Configured engine for a network of size solutions.
func NewEngine(name string, size int, opts ...Option) (*Engine, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{opts: o, log: o.Logger}
	if err := e.Reset(name, size); err != nil {
		return nil, err
	}
	return e, nil
}

// Reset drops every fragment and stamp and starts over with a fresh
// admittance matrix and source registry of the given size.
func (e *Engine) Reset(name string, size int) error {
	if !ccode.IsIdentifier(name) {
		return fmt.Errorf("model name %q is not a C identifier: %w", name, errs.ErrInvalidArgument)
	}
	if size < 1 {
		return fmt.Errorf("model %s: solution count %d must be positive: %w", name, size, errs.ErrInvalidArgument)
	}

	g, err := matrix.NewAdmittance(size)
	if err != nil {
		return err
	}
	s, err := matrix.NewSourceRegistry(size)
	if err != nil {
		return err
	}

	e.name, e.size = name, size
	e.admittance, e.sources, e.inverse = g, s, nil
	e.parameters, e.fields, e.outputsUpdate, e.updates = nil, nil, nil, nil
	e.inputs, e.outputs = nil, nil
	e.components = 0
	e.stage = Configured

	e.log.Debug("engine reset", "model", name, "solutions", size)
	return nil
}

// StampComponent stamps c and appends its fragments. selectors choose the
// outputs to declare; none means every output.
//
// A failed stamp moves the engine to Failed: it keeps whatever part of the
// network was stamped, so nothing is emitted from it until Reset.
func (e *Engine) StampComponent(c Component, selectors ...string) error {
	switch e.stage {
	case Emitted:
		return fmt.Errorf("model %s already emitted, reset before stamping: %w", e.name, errs.ErrInconsistentModel)
	case Failed:
		return fmt.Errorf("model %s: an earlier stamp failed, reset before stamping: %w", e.name, errs.ErrInconsistentModel)
	}
	if c == nil {
		return fmt.Errorf("model %s: nil component: %w", e.name, errs.ErrInvalidArgument)
	}

	name := c.GetName()
	if err := c.StampConductance(e.admittance); err != nil {
		e.stage = Failed
		return fmt.Errorf("stamping conductance of %s: %w", name, err)
	}

	before := e.sources.NumSources()
	if err := c.StampSources(e.sources); err != nil {
		e.stage = Failed
		return fmt.Errorf("stamping sources of %s: %w", name, err)
	}

	// the cached inverse belongs to the matrix before this stamp
	e.inverse = nil

	e.parameters = appendBlock(e.parameters, c.GenerateParameters())
	e.fields = appendBlock(e.fields, c.GenerateFields())
	e.inputs = append(e.inputs, c.GenerateInputs()...)

	if len(selectors) == 0 {
		selectors = []string{consts.AllOutputs}
	}
	for _, sel := range selectors {
		e.outputs = append(e.outputs, c.GenerateOutputs(sel)...)
		e.outputsUpdate = appendBlock(e.outputsUpdate, c.GenerateOutputsUpdateBody(sel))
	}

	e.updates = appendBlock(e.updates, c.GenerateUpdateBody())

	e.components++
	e.stage = Stamped

	e.log.Debug("component stamped", "component", name, "sources", e.sources.NumSources()-before)
	return nil
}

func appendBlock(list []ccode.Block, b ccode.Block) []ccode.Block {
	if len(b) == 0 {
		return list
	}
	return append(list, b)
}

// Inverse returns the inverted admittance matrix, computing it on first use
// after the last stamp. The stamped matrix itself is left as built.
func (e *Engine) Inverse() (*matrix.Admittance, error) {
	if e.stage == Failed {
		return nil, fmt.Errorf("model %s holds a partial network after a failed stamp: %w", e.name, errs.ErrInconsistentModel)
	}
	if e.inverse != nil {
		return e.inverse.Clone(), nil
	}

	inv := e.admittance.Clone()

	var err error
	switch e.opts.InversionMethod {
	case SparseLU:
		err = inv.InvertSelfSparse()
	default:
		err = inv.InvertSelf()
	}
	if err != nil {
		return nil, fmt.Errorf("inverting admittance matrix of %s: %w", e.name, err)
	}

	if cond := e.admittance.Condition(); cond > consts.IllConditioned {
		e.log.Warn("admittance matrix is ill-conditioned", "model", e.name, "cond", cond)
	}

	e.inverse = inv
	return inv.Clone(), nil
}

func (e *Engine) Name() string { return e.name }

func (e *Engine) Size() int { return e.size }

func (e *Engine) Stage() Stage { return e.stage }

func (e *Engine) Options() Options { return e.opts }

func (e *Engine) NumComponents() int { return e.components }

func (e *Engine) NumSources() int { return e.sources.NumSources() }

func (e *Engine) SourceEntries() []matrix.SourceEntry { return e.sources.Entries() }

// Admittance returns a copy of the stamped matrix.
func (e *Engine) Admittance() *matrix.Admittance { return e.admittance.Clone() }
