package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/edp1096/lblmc-codegen/pkg/ccode"
	"github.com/edp1096/lblmc-codegen/pkg/circuit"
	"github.com/edp1096/lblmc-codegen/pkg/codegen"
	"github.com/edp1096/lblmc-codegen/pkg/errs"
)

type SweepPoint struct {
	ZeroBound    float64
	Stats        codegen.SolverStats
	MaxDeviation float64 // largest |x_out - x_out(zero bound 0)| over all steps
}

// PruningSweep measures what pruning costs: for every zero bound it counts
// the kept solve terms and replays the engine against the unpruned one.
type PruningSweep struct {
	BaseAnalysis
	Bounds []float64
	Steps  int
	Inputs map[string]float64

	reference [][]float64
	points    []SweepPoint
}

func NewPruningSweep(bounds []float64, steps int) *PruningSweep {
	sorted := append([]float64(nil), bounds...)
	sort.Float64s(sorted)
	return &PruningSweep{
		BaseAnalysis: *NewBaseAnalysis(),
		Bounds:       sorted,
		Steps:        steps,
		Inputs:       make(map[string]float64),
	}
}

func (s *PruningSweep) Setup(ckt *circuit.Circuit) error {
	if s.Steps < 1 || len(s.Bounds) == 0 {
		return fmt.Errorf("sweep of %d bounds over %d steps: %w", len(s.Bounds), s.Steps, errs.ErrInvalidArgument)
	}
	for _, b := range s.Bounds {
		if b < 0 || math.IsNaN(b) {
			return fmt.Errorf("zero bound %v: %w", b, errs.ErrInvalidArgument)
		}
	}

	s.Circuit = ckt
	if err := ckt.SetupSolverCodeGenerator(); err != nil {
		return err
	}

	fn, err := ckt.Engine().BuildFunction(0)
	if err != nil {
		return err
	}
	s.reference, err = replay(fn, s.Inputs, s.Steps)
	return err
}

func (s *PruningSweep) Execute() error {
	if s.reference == nil {
		return fmt.Errorf("circuit not set: %w", errs.ErrInconsistentModel)
	}

	engine := s.Circuit.Engine()
	s.points = s.points[:0]
	for _, bound := range s.Bounds {
		solver, err := engine.Solver(bound)
		if err != nil {
			return err
		}
		fn, err := engine.BuildFunction(bound)
		if err != nil {
			return err
		}
		trace, err := replay(fn, s.Inputs, s.Steps)
		if err != nil {
			return fmt.Errorf("zero bound %g: %w", bound, err)
		}

		p := SweepPoint{ZeroBound: bound, Stats: solver.Stats(), MaxDeviation: maxDeviation(s.reference, trace)}
		s.points = append(s.points, p)

		s.results["ZERO_BOUND"] = append(s.results["ZERO_BOUND"], bound)
		s.results["KEPT"] = append(s.results["KEPT"], float64(p.Stats.Kept))
		s.results["DEVIATION"] = append(s.results["DEVIATION"], p.MaxDeviation)
	}
	return nil
}

func (s *PruningSweep) Points() []SweepPoint {
	return append([]SweepPoint(nil), s.points...)
}

// replay runs fn on a fresh machine and returns x_out per step. Inputs the
// function declares but inputs lacks are fed 0.
func replay(fn *ccode.Function, inputs map[string]float64, steps int) ([][]float64, error) {
	m, err := NewMachine(fn)
	if err != nil {
		return nil, err
	}

	in := fillInputs(fn, inputs)
	trace := make([][]float64, 0, steps)
	for k := 0; k < steps; k++ {
		step, err := m.Call(in)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", k+1, err)
		}
		trace = append(trace, step.XOut)
	}
	return trace, nil
}

func maxDeviation(a, b [][]float64) float64 {
	worst := 0.0
	for k := range a {
		for i := range a[k] {
			worst = math.Max(worst, math.Abs(a[k][i]-b[k][i]))
		}
	}
	return worst
}

// fillInputs returns a value for every input parameter of fn, 0 where
// inputs has none.
func fillInputs(fn *ccode.Function, inputs map[string]float64) map[string]float64 {
	in := make(map[string]float64, len(inputs))
	for _, p := range fn.Params {
		if p.Len == 0 && !p.Pointer {
			in[p.Name] = inputs[p.Name]
		}
	}
	return in
}
