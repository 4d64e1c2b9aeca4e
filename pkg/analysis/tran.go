package analysis

import (
	"fmt"
	"math"

	"github.com/edp1096/lblmc-codegen/pkg/circuit"
	"github.com/edp1096/lblmc-codegen/pkg/errs"
)

// Transient replays the emitted engine of a circuit for a fixed number of
// steps and records every node voltage and declared output per step.
type Transient struct {
	BaseAnalysis
	machine   *Machine
	timeStep  float64
	stopTime  float64
	zeroBound float64

	// Inputs feeds the engine's input parameters. Inputs left unset are 0.
	Inputs map[string]float64

	settled bool
	final   []float64
}

func NewTransient(tStep, tStop, zeroBound float64) *Transient {
	return &Transient{
		BaseAnalysis: *NewBaseAnalysis(),
		timeStep:     tStep,
		stopTime:     tStop,
		zeroBound:    zeroBound,
		Inputs:       make(map[string]float64),
	}
}

func (tr *Transient) Setup(ckt *circuit.Circuit) error {
	if !(tr.timeStep > 0) || tr.stopTime < tr.timeStep {
		return fmt.Errorf("transient step %g and stop %g: %w", tr.timeStep, tr.stopTime, errs.ErrInvalidArgument)
	}

	tr.Circuit = ckt
	if err := ckt.SetupSolverCodeGenerator(); err != nil {
		return err
	}
	fn, err := ckt.Engine().BuildFunction(tr.zeroBound)
	if err != nil {
		return err
	}

	for _, p := range fn.Params {
		if p.Len == 0 && !p.Pointer {
			if _, ok := tr.Inputs[p.Name]; !ok {
				tr.Inputs[p.Name] = 0
			}
		}
	}

	tr.machine, err = NewMachine(fn)
	return err
}

func (tr *Transient) Execute() error {
	if tr.machine == nil {
		return fmt.Errorf("circuit not set: %w", errs.ErrInconsistentModel)
	}

	names := tr.Circuit.NodeNames()
	steps := int(math.Round(tr.stopTime / tr.timeStep))

	var prev []float64
	for k := 1; k <= steps; k++ {
		step, err := tr.machine.Call(tr.Inputs)
		if err != nil {
			return fmt.Errorf("step %d: %w", k, err)
		}

		solution := make(map[string]float64, len(step.XOut)+len(step.Outputs))
		for i, v := range step.XOut {
			solution[nodeLabel(names, i+1)] = v
		}
		for name, v := range step.Outputs {
			solution[name] = v
		}
		tr.StoreTimeResult(float64(k)*tr.timeStep, solution)

		tr.settled = prev != nil && tr.CheckConvergence(prev, step.XOut)
		prev = step.XOut
	}

	tr.final = prev
	return nil
}

// Settled reports whether the last two steps agreed within tolerance.
func (tr *Transient) Settled() bool { return tr.settled }

// Final is x_out after the last step.
func (tr *Transient) Final() []float64 { return append([]float64(nil), tr.final...) }

func (tr *Transient) Machine() *Machine { return tr.machine }

func nodeLabel(names []string, idx int) string {
	if idx < len(names) && names[idx] != "" {
		return "V(" + names[idx] + ")"
	}
	return fmt.Sprintf("V(%d)", idx)
}
