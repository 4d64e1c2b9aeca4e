package device

import (
	"fmt"

	"github.com/edp1096/lblmc-codegen/pkg/ccode"
	"github.com/edp1096/lblmc-codegen/pkg/matrix"
)

// DefaultSourceResistance is the series resistance of a voltage source that
// does not name one.
const DefaultSourceResistance = 1e-3

// VoltageSource is a constant voltage behind a series resistance, stamped
// in its Norton form: conductance 1/r and an injected current V/r.
type VoltageSource struct {
	BaseDevice
	Resistance float64
}

var _ Device = (*VoltageSource)(nil)

func NewDCVoltageSource(name string, nodeNames []string, value, resistance float64) (*VoltageSource, error) {
	base, err := newBaseDevice("voltage source", name, nodeNames, value, 2)
	if err != nil {
		return nil, err
	}
	if err := requirePositive("voltage source", name, "series resistance", resistance); err != nil {
		return nil, err
	}
	return &VoltageSource{BaseDevice: base, Resistance: resistance}, nil
}

func (v *VoltageSource) GetType() string { return "V" }

func (v *VoltageSource) StampConductance(g matrix.ConductanceStamper) error {
	if err := g.StampConductance(1.0/v.Resistance, v.Nodes[0], v.Nodes[1]); err != nil {
		return fmt.Errorf("voltage source %s: %w", v.Name, err)
	}
	return nil
}

func (v *VoltageSource) StampSources(s matrix.SourceStamper) error {
	return v.insertSource(s)
}

func (v *VoltageSource) GenerateParameters() ccode.Block {
	return ccode.Block{
		v.parameter("V", v.Value),
		v.parameter("RS", v.Resistance),
		v.parameter("GS", 1.0/v.Resistance),
	}
}

func (v *VoltageSource) GenerateUpdateBody() ccode.Block {
	return ccode.Block{
		ccode.Assign{LHS: v.sourceSlot(), RHS: ccode.Times(v.ident("V"), v.ident("GS"))},
	}
}
