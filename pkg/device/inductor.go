package device

import (
	"fmt"

	"github.com/edp1096/lblmc-codegen/internal/consts"
	"github.com/edp1096/lblmc-codegen/pkg/ccode"
	"github.com/edp1096/lblmc-codegen/pkg/errs"
	"github.com/edp1096/lblmc-codegen/pkg/matrix"
	"github.com/edp1096/lblmc-codegen/pkg/util"
)

const outputInductorCurrent = "l_current"

// Inductor is the latency-inserted companion model of an inductance: a
// fixed conductance plus a source updated from the previous step's solution.
type Inductor struct {
	BaseDevice
	timeStep float64
	method   util.IntegrationMethod
}

var (
	_ Device        = (*Inductor)(nil)
	_ TimeDependent = (*Inductor)(nil)
)

func NewInductor(name string, nodeNames []string, value, timeStep float64) (*Inductor, error) {
	base, err := newBaseDevice("inductor", name, nodeNames, value, 2)
	if err != nil {
		return nil, err
	}
	if err := requirePositive("inductor", name, "inductance", value); err != nil {
		return nil, err
	}
	if err := requirePositive("inductor", name, "time step", timeStep); err != nil {
		return nil, err
	}
	return &Inductor{BaseDevice: base, timeStep: timeStep, method: util.TrapezoidalMethod}, nil
}

func (l *Inductor) GetType() string { return "L" }

func (l *Inductor) TimeStep() float64 { return l.timeStep }

func (l *Inductor) IntegrationMethod() util.IntegrationMethod { return l.method }

func (l *Inductor) SetIntegrationMethod(m util.IntegrationMethod) error {
	if m != util.TrapezoidalMethod && m != util.BackwardEulerMethod {
		return fmt.Errorf("inductor %s: %s is not an implicit method: %w", l.Name, m, errs.ErrInvalidArgument)
	}
	l.method = m
	return nil
}

func (l *Inductor) SupportedOutputs() []string { return []string{outputInductorCurrent} }

// Conductance is HOL2 = dt/(2L) for trapezoidal, HOL = dt/L for backward Euler.
func (l *Inductor) Conductance() float64 {
	return util.InductorConductance(l.method, l.Value, l.timeStep)
}

func (l *Inductor) conductanceName() string {
	if l.method == util.TrapezoidalMethod {
		return "HOL2"
	}
	return "HOL"
}

func (l *Inductor) StampConductance(g matrix.ConductanceStamper) error {
	if err := g.StampConductance(l.Conductance(), l.Nodes[0], l.Nodes[1]); err != nil {
		return fmt.Errorf("inductor %s: %w", l.Name, err)
	}
	return nil
}

func (l *Inductor) StampSources(s matrix.SourceStamper) error {
	return l.insertSource(s)
}

func (l *Inductor) GenerateParameters() ccode.Block {
	return ccode.Block{
		l.parameter("DT", l.timeStep),
		l.parameter("IND", l.Value),
		l.parameter(l.conductanceName(), l.Conductance()),
	}
}

func (l *Inductor) GenerateFields() ccode.Block {
	return ccode.Block{
		l.field("epos_past"),
		l.field("eneg_past"),
		l.field("current_past"),
		l.field("current"),
		l.field("current_eq"),
		l.field("current_eq_past"),
	}
}

func (l *Inductor) GenerateOutputs(selector string) []ccode.Param {
	if !selects(selector, outputInductorCurrent) {
		return nil
	}
	return []ccode.Param{{Type: consts.RealType, Name: l.local(outputInductorCurrent), Pointer: true}}
}

func (l *Inductor) GenerateOutputsUpdateBody(selector string) ccode.Block {
	if !selects(selector, outputInductorCurrent) {
		return nil
	}
	return ccode.Block{
		ccode.Assign{LHS: ccode.Deref(l.local(outputInductorCurrent)), RHS: l.ident("current")},
	}
}

// GenerateUpdateBody advances the companion source from the previous step:
//
//	delta_v    = epos_past - eneg_past
//	current    = G*delta_v - current_eq_past
//	current_eq = -current - G*delta_v    (trapezoidal)
//	current_eq = -current                (backward Euler)
//
// and writes -current_eq into the source slot.
func (l *Inductor) GenerateUpdateBody() ccode.Block {
	var (
		g          = l.ident(l.conductanceName())
		deltaV     = l.ident("delta_v")
		current    = l.ident("current")
		currentEq  = l.ident("current_eq")
		currentEqP = l.ident("current_eq_past")
		eposP      = l.ident("epos_past")
		enegP      = l.ident("eneg_past")
	)

	nextEq := ccode.Expr(ccode.Minus(ccode.Neg{X: current}, ccode.Times(g, deltaV)))
	if l.method == util.BackwardEulerMethod {
		nextEq = ccode.Neg{X: current}
	}

	return ccode.Block{
		ccode.Assign{LHS: eposP, RHS: l.voltage(0)},
		ccode.Assign{LHS: enegP, RHS: l.voltage(1)},
		ccode.Assign{LHS: l.ident("current_past"), RHS: current},
		ccode.Assign{LHS: currentEqP, RHS: currentEq},
		ccode.Decl{Type: consts.RealType, Name: string(deltaV), Init: ccode.Minus(eposP, enegP)},
		ccode.Assign{LHS: current, RHS: ccode.Minus(ccode.Times(g, deltaV), currentEqP)},
		ccode.Assign{LHS: currentEq, RHS: nextEq},
		ccode.Assign{LHS: l.sourceSlot(), RHS: ccode.Neg{X: currentEq}},
	}
}
