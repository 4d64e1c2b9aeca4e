package device

import (
	"fmt"
	"math"

	"github.com/edp1096/lblmc-codegen/internal/consts"
	"github.com/edp1096/lblmc-codegen/pkg/ccode"
	"github.com/edp1096/lblmc-codegen/pkg/errs"
	"github.com/edp1096/lblmc-codegen/pkg/matrix"
	"github.com/edp1096/lblmc-codegen/pkg/util"
)

const inputSwitchState = "sw"

// SeriesRLSwitch is a series R-L branch behind an ideal switch, integrated
// explicitly with forward Euler. It stamps no conductance: the branch
// current of the previous step is injected as a source. An open switch
// forces the current to zero.
type SeriesRLSwitch struct {
	BaseDevice
	Resistance float64
	timeStep   float64
}

var (
	_ Device        = (*SeriesRLSwitch)(nil)
	_ TimeDependent = (*SeriesRLSwitch)(nil)
)

func NewSeriesRLSwitch(name string, nodeNames []string, inductance, resistance, timeStep float64) (*SeriesRLSwitch, error) {
	base, err := newBaseDevice("switch", name, nodeNames, inductance, 2)
	if err != nil {
		return nil, err
	}
	if err := requirePositive("switch", name, "inductance", inductance); err != nil {
		return nil, err
	}
	if err := requirePositive("switch", name, "time step", timeStep); err != nil {
		return nil, err
	}
	if resistance < 0 || math.IsNaN(resistance) || math.IsInf(resistance, 0) {
		return nil, fmt.Errorf("switch %s: resistance must be non-negative, got %v: %w", name, resistance, errs.ErrInvalidArgument)
	}
	return &SeriesRLSwitch{BaseDevice: base, Resistance: resistance, timeStep: timeStep}, nil
}

func (s *SeriesRLSwitch) GetType() string { return "S" }

func (s *SeriesRLSwitch) TimeStep() float64 { return s.timeStep }

func (s *SeriesRLSwitch) IntegrationMethod() util.IntegrationMethod { return util.ForwardEulerMethod }

func (s *SeriesRLSwitch) SetIntegrationMethod(m util.IntegrationMethod) error {
	if m != util.ForwardEulerMethod {
		return fmt.Errorf("switch %s: only %s is supported: %w", s.Name, util.ForwardEulerMethod, errs.ErrInvalidArgument)
	}
	return nil
}

func (s *SeriesRLSwitch) SupportedInputs() []string { return []string{inputSwitchState} }

func (s *SeriesRLSwitch) SupportedOutputs() []string { return []string{outputInductorCurrent} }

func (s *SeriesRLSwitch) StampConductance(matrix.ConductanceStamper) error { return nil }

func (s *SeriesRLSwitch) StampSources(st matrix.SourceStamper) error {
	return s.insertSource(st)
}

func (s *SeriesRLSwitch) GenerateParameters() ccode.Block {
	return ccode.Block{
		s.parameter("DT", s.timeStep),
		s.parameter("L", s.Value),
		s.parameter("R", s.Resistance),
		s.parameter("HOL", s.timeStep/s.Value),
	}
}

func (s *SeriesRLSwitch) GenerateFields() ccode.Block {
	return ccode.Block{
		s.field("current_past"),
		s.boolField("sw_past"),
	}
}

func (s *SeriesRLSwitch) GenerateInputs() []ccode.Param {
	return []ccode.Param{{Type: consts.BoolType, Name: s.local(inputSwitchState)}}
}

func (s *SeriesRLSwitch) GenerateOutputs(selector string) []ccode.Param {
	if !selects(selector, outputInductorCurrent) {
		return nil
	}
	return []ccode.Param{{Type: consts.RealType, Name: s.local(outputInductorCurrent), Pointer: true}}
}

func (s *SeriesRLSwitch) GenerateOutputsUpdateBody(selector string) ccode.Block {
	if !selects(selector, outputInductorCurrent) {
		return nil
	}
	return ccode.Block{
		ccode.Assign{LHS: ccode.Deref(s.local(outputInductorCurrent)), RHS: s.ident("current_past")},
	}
}

func (s *SeriesRLSwitch) GenerateUpdateBody() ccode.Block {
	var (
		current     = s.ident("current")
		currentPast = s.ident("current_past")
		swPast      = s.ident("sw_past")
	)

	// current_past + HOL*(epos - R*current_past - eneg)
	closed := ccode.Plus(currentPast, ccode.Times(s.ident("HOL"),
		ccode.Minus(ccode.Minus(s.voltage(0), ccode.Times(s.ident("R"), currentPast)), s.voltage(1))))

	return ccode.Block{
		ccode.Decl{Type: consts.RealType, Name: string(current), Init: ccode.Select{Cond: swPast, Then: closed, Else: ccode.Number(0)}},
		ccode.Assign{LHS: currentPast, RHS: current},
		ccode.Assign{LHS: swPast, RHS: s.ident(inputSwitchState)},
		ccode.Assign{LHS: s.sourceSlot(), RHS: ccode.Neg{X: current}},
	}
}
