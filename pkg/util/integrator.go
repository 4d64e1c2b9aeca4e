package util

import (
	"fmt"
	"strings"

	"github.com/edp1096/lblmc-codegen/pkg/errs"
)

type IntegrationMethod int

const (
	TrapezoidalMethod IntegrationMethod = iota
	BackwardEulerMethod
	ForwardEulerMethod
)

var methodNames = map[IntegrationMethod]string{
	TrapezoidalMethod:   "trapezoidal",
	BackwardEulerMethod: "euler_backward",
	ForwardEulerMethod:  "euler_forward",
}

func (m IntegrationMethod) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("IntegrationMethod(%d)", int(m))
}

// ParseIntegrationMethod accepts the canonical names plus the short SPICE
// spellings "tr", "be" and "fe".
func ParseIntegrationMethod(s string) (IntegrationMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "trapezoidal", "tr", "trap":
		return TrapezoidalMethod, nil
	case "euler_backward", "be", "backward_euler", "gear":
		return BackwardEulerMethod, nil
	case "euler_forward", "fe", "forward_euler":
		return ForwardEulerMethod, nil
	}
	return 0, fmt.Errorf("unknown integration method %q: %w", s, errs.ErrInvalidArgument)
}

// GetIntegratorCoeff returns the factor a0 of the discretised derivative
// dx/dt ≈ a0·(x_n - x_{n-1}) + ...: 2/dt for trapezoidal, 1/dt for the
// Euler rules.
func GetIntegratorCoeff(method IntegrationMethod, dt float64) float64 {
	if method == TrapezoidalMethod {
		return 2.0 / dt
	}
	return 1.0 / dt
}

// InductorConductance is the companion conductance of an inductor,
// dt/(2L) trapezoidal or dt/L backward Euler.
func InductorConductance(method IntegrationMethod, inductance, dt float64) float64 {
	return 1.0 / (GetIntegratorCoeff(method, dt) * inductance)
}

// CapacitorConductance is the companion conductance of a capacitor,
// 2C/dt trapezoidal or C/dt backward Euler.
func CapacitorConductance(method IntegrationMethod, capacitance, dt float64) float64 {
	return GetIntegratorCoeff(method, dt) * capacitance
}
