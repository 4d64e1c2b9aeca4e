package device

import (
	"github.com/edp1096/lblmc-codegen/pkg/ccode"
	"github.com/edp1096/lblmc-codegen/pkg/matrix"
)

// CurrentSource injects a constant current into its first terminal and
// draws it from the second.
type CurrentSource struct {
	BaseDevice
}

var _ Device = (*CurrentSource)(nil)

func NewDCCurrentSource(name string, nodeNames []string, value float64) (*CurrentSource, error) {
	base, err := newBaseDevice("current source", name, nodeNames, value, 2)
	if err != nil {
		return nil, err
	}
	return &CurrentSource{BaseDevice: base}, nil
}

func (i *CurrentSource) GetType() string { return "I" }

func (i *CurrentSource) StampSources(s matrix.SourceStamper) error {
	return i.insertSource(s)
}

func (i *CurrentSource) GenerateParameters() ccode.Block {
	return ccode.Block{i.parameter("I", i.Value)}
}

func (i *CurrentSource) GenerateUpdateBody() ccode.Block {
	return ccode.Block{
		ccode.Assign{LHS: i.sourceSlot(), RHS: i.ident("I")},
	}
}
