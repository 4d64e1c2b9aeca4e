package device

import (
	"fmt"

	"github.com/edp1096/lblmc-codegen/internal/consts"
	"github.com/edp1096/lblmc-codegen/pkg/ccode"
	"github.com/edp1096/lblmc-codegen/pkg/errs"
	"github.com/edp1096/lblmc-codegen/pkg/matrix"
	"github.com/edp1096/lblmc-codegen/pkg/util"
)

const outputCapacitorVoltage = "c_voltage"

type Capacitor struct {
	BaseDevice
	timeStep float64
	method   util.IntegrationMethod
}

var (
	_ Device        = (*Capacitor)(nil)
	_ TimeDependent = (*Capacitor)(nil)
)

func NewCapacitor(name string, nodeNames []string, value, timeStep float64) (*Capacitor, error) {
	base, err := newBaseDevice("capacitor", name, nodeNames, value, 2)
	if err != nil {
		return nil, err
	}
	if err := requirePositive("capacitor", name, "capacitance", value); err != nil {
		return nil, err
	}
	if err := requirePositive("capacitor", name, "time step", timeStep); err != nil {
		return nil, err
	}
	return &Capacitor{BaseDevice: base, timeStep: timeStep, method: util.TrapezoidalMethod}, nil
}

func (c *Capacitor) GetType() string { return "C" }

func (c *Capacitor) TimeStep() float64 { return c.timeStep }

func (c *Capacitor) IntegrationMethod() util.IntegrationMethod { return c.method }

func (c *Capacitor) SetIntegrationMethod(m util.IntegrationMethod) error {
	if m != util.TrapezoidalMethod && m != util.BackwardEulerMethod {
		return fmt.Errorf("capacitor %s: %s is not an implicit method: %w", c.Name, m, errs.ErrInvalidArgument)
	}
	c.method = m
	return nil
}

func (c *Capacitor) SupportedOutputs() []string { return []string{outputCapacitorVoltage} }

// Conductance is 2C/dt for trapezoidal, C/dt for backward Euler.
func (c *Capacitor) Conductance() float64 {
	return util.CapacitorConductance(c.method, c.Value, c.timeStep)
}

func (c *Capacitor) StampConductance(g matrix.ConductanceStamper) error {
	if err := g.StampConductance(c.Conductance(), c.Nodes[0], c.Nodes[1]); err != nil {
		return fmt.Errorf("capacitor %s: %w", c.Name, err)
	}
	return nil
}

func (c *Capacitor) StampSources(s matrix.SourceStamper) error {
	return c.insertSource(s)
}

func (c *Capacitor) GenerateParameters() ccode.Block {
	return ccode.Block{
		c.parameter("DT", c.timeStep),
		c.parameter("CAP", c.Value),
		c.parameter("GEQ", c.Conductance()),
	}
}

func (c *Capacitor) GenerateFields() ccode.Block {
	return ccode.Block{
		c.field("epos_past"),
		c.field("eneg_past"),
		c.field("current"),
		c.field("current_eq"),
		c.field("current_eq_past"),
	}
}

func (c *Capacitor) GenerateOutputs(selector string) []ccode.Param {
	if !selects(selector, outputCapacitorVoltage) {
		return nil
	}
	return []ccode.Param{{Type: consts.RealType, Name: c.local(outputCapacitorVoltage), Pointer: true}}
}

func (c *Capacitor) GenerateOutputsUpdateBody(selector string) ccode.Block {
	if !selects(selector, outputCapacitorVoltage) {
		return nil
	}
	return ccode.Block{
		ccode.Assign{
			LHS: ccode.Deref(c.local(outputCapacitorVoltage)),
			RHS: ccode.Minus(c.ident("epos_past"), c.ident("eneg_past")),
		},
	}
}

// GenerateUpdateBody: current_eq is the history current flowing from the
// positive to the negative terminal, so its negative is injected.
func (c *Capacitor) GenerateUpdateBody() ccode.Block {
	var (
		g          = c.ident("GEQ")
		deltaV     = c.ident("delta_v")
		current    = c.ident("current")
		currentEq  = c.ident("current_eq")
		currentEqP = c.ident("current_eq_past")
		eposP      = c.ident("epos_past")
		enegP      = c.ident("eneg_past")
	)

	nextEq := ccode.Expr(ccode.Minus(ccode.Neg{X: ccode.Times(g, deltaV)}, current))
	if c.method == util.BackwardEulerMethod {
		nextEq = ccode.Neg{X: ccode.Times(g, deltaV)}
	}

	return ccode.Block{
		ccode.Assign{LHS: eposP, RHS: c.voltage(0)},
		ccode.Assign{LHS: enegP, RHS: c.voltage(1)},
		ccode.Assign{LHS: currentEqP, RHS: currentEq},
		ccode.Decl{Type: consts.RealType, Name: string(deltaV), Init: ccode.Minus(eposP, enegP)},
		ccode.Assign{LHS: current, RHS: ccode.Plus(ccode.Times(g, deltaV), currentEqP)},
		ccode.Assign{LHS: currentEq, RHS: nextEq},
		ccode.Assign{LHS: c.sourceSlot(), RHS: ccode.Neg{X: currentEq}},
	}
}
