package device

import (
	"fmt"

	"github.com/edp1096/lblmc-codegen/pkg/matrix"
)

// Resistor is a plain conductance. It owns no source, state or output.
type Resistor struct {
	BaseDevice
}

var _ Device = (*Resistor)(nil)

func NewResistor(name string, nodeNames []string, value float64) (*Resistor, error) {
	base, err := newBaseDevice("resistor", name, nodeNames, value, 2)
	if err != nil {
		return nil, err
	}
	if err := requirePositive("resistor", name, "resistance", value); err != nil {
		return nil, err
	}
	return &Resistor{BaseDevice: base}, nil
}

func (r *Resistor) GetType() string { return "R" }

func (r *Resistor) StampConductance(g matrix.ConductanceStamper) error {
	if err := g.StampConductance(1.0/r.Value, r.Nodes[0], r.Nodes[1]); err != nil {
		return fmt.Errorf("resistor %s: %w", r.Name, err)
	}
	return nil
}
