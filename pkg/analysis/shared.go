package analysis

import (
	"fmt"

	"github.com/edp1096/lblmc-codegen/pkg/ccode"
	"github.com/edp1096/lblmc-codegen/pkg/errs"
)

// SharedStateDeviation drives two logical networks, fed inputs a and b,
// through one emitted engine. It alternates them on a single machine and
// also runs each on its own machine, then returns the largest difference
// between the two schedules. Anything but zero means the engine's static
// state leaked from one network into the other.
func SharedStateDeviation(fn *ccode.Function, a, b map[string]float64, steps int) (float64, error) {
	if steps < 1 {
		return 0, fmt.Errorf("shared state check over %d steps: %w", steps, errs.ErrInvalidArgument)
	}

	isolatedA, err := replay(fn, a, steps)
	if err != nil {
		return 0, err
	}
	isolatedB, err := replay(fn, b, steps)
	if err != nil {
		return 0, err
	}

	shared, err := NewMachine(fn)
	if err != nil {
		return 0, err
	}
	a, b = fillInputs(fn, a), fillInputs(fn, b)
	interleavedA := make([][]float64, 0, steps)
	interleavedB := make([][]float64, 0, steps)
	for k := 0; k < steps; k++ {
		sa, err := shared.Call(a)
		if err != nil {
			return 0, err
		}
		sb, err := shared.Call(b)
		if err != nil {
			return 0, err
		}
		interleavedA = append(interleavedA, sa.XOut)
		interleavedB = append(interleavedB, sb.XOut)
	}

	dev := maxDeviation(isolatedA, interleavedA)
	if d := maxDeviation(isolatedB, interleavedB); d > dev {
		dev = d
	}
	return dev, nil
}
