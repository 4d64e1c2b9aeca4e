// Package analysis replays emitted simulation engines step by step.
//
// The generator never simulates; these analyses exist to check what it
// emits: transient replays of a network, pruning deviation sweeps, and the
// shared-state behaviour of the static variables in the emitted code.
package analysis

import (
	"math"

	"github.com/edp1096/lblmc-codegen/pkg/circuit"
)

type Analysis interface {
	Setup(ckt *circuit.Circuit) error
	Execute() error
	GetResults() map[string][]float64
}

type BaseAnalysis struct {
	Circuit     *circuit.Circuit
	results     map[string][]float64 // key: variable name, value: result by time
	convergence struct {
		abstol float64
		reltol float64
	}
}

func NewBaseAnalysis() *BaseAnalysis {
	ba := &BaseAnalysis{results: make(map[string][]float64)}

	ba.convergence.abstol = 1e-12
	ba.convergence.reltol = 1e-6

	return ba
}

// CheckConvergence reports whether two successive solutions agree within
// the absolute and relative tolerances.
func (a *BaseAnalysis) CheckConvergence(oldSol, newSol []float64) bool {
	if len(oldSol) != len(newSol) {
		return false
	}

	for i := range oldSol {
		diff := math.Abs(newSol[i] - oldSol[i])
		if diff > a.convergence.abstol &&
			diff > a.convergence.reltol*math.Abs(newSol[i]) {
			return false
		}
	}
	return true
}

func (a *BaseAnalysis) StoreTimeResult(time float64, solution map[string]float64) {
	// Ignore same time
	if n := len(a.results["TIME"]); n > 0 && a.results["TIME"][n-1] == time {
		return
	}

	a.results["TIME"] = append(a.results["TIME"], time)
	for name, value := range solution {
		a.results[name] = append(a.results[name], value)
	}
}

func (a *BaseAnalysis) GetResults() map[string][]float64 {
	return a.results
}
