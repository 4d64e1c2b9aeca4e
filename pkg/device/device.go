package device

import (
	"fmt"
	"math"

	"github.com/edp1096/lblmc-codegen/internal/consts"
	"github.com/edp1096/lblmc-codegen/pkg/ccode"
	"github.com/edp1096/lblmc-codegen/pkg/codegen"
	"github.com/edp1096/lblmc-codegen/pkg/errs"
	"github.com/edp1096/lblmc-codegen/pkg/matrix"
	"github.com/edp1096/lblmc-codegen/pkg/util"
)

type Device interface {
	codegen.Component

	GetType() string
	GetNodeNames() []string
	GetNodes() []int
	SetNodes(nodes []int) error
	GetValue() float64

	NumTerminals() int
	NumSources() int
	SourceIDs() []int

	SupportedInputs() []string
	SupportedOutputs() []string

	// Owner is the network holding the device, nil while unowned.
	Owner() Owner
	SetOwner(owner Owner)
}

// Owner is a network that holds devices, in practice a *circuit.Circuit.
// A device belongs to at most one owner at a time.
type Owner interface {
	Name() string
}

// TimeDependent devices discretise a derivative with a fixed time step.
type TimeDependent interface {
	TimeStep() float64
	IntegrationMethod() util.IntegrationMethod
	SetIntegrationMethod(m util.IntegrationMethod) error
}

type BaseDevice struct {
	Name      string
	Nodes     []int
	Value     float64
	NodeNames []string

	terminals int
	sourceIDs []int
	owner     Owner
}

func newBaseDevice(kind, name string, nodeNames []string, value float64, terminals int) (BaseDevice, error) {
	if !ccode.IsComponentName(name) {
		return BaseDevice{}, fmt.Errorf("%s %q: name must be a letter followed by letters or digits: %w", kind, name, errs.ErrInvalidArgument)
	}
	if nodeNames != nil && len(nodeNames) != terminals {
		return BaseDevice{}, fmt.Errorf("%s %s: %d node names for %d terminals: %w", kind, name, len(nodeNames), terminals, errs.ErrInvalidArgument)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return BaseDevice{}, fmt.Errorf("%s %s: value %v is not finite: %w", kind, name, value, errs.ErrInvalidArgument)
	}

	return BaseDevice{
		Name:      name,
		Nodes:     make([]int, terminals),
		Value:     value,
		NodeNames: nodeNames,
		terminals: terminals,
	}, nil
}

func (d *BaseDevice) GetName() string { return d.Name }

func (d *BaseDevice) GetNodes() []int { return d.Nodes }

func (d *BaseDevice) GetNodeNames() []string { return d.NodeNames }

func (d *BaseDevice) GetValue() float64 { return d.Value }

func (d *BaseDevice) NumTerminals() int { return d.terminals }

func (d *BaseDevice) NumSources() int { return len(d.sourceIDs) }

func (d *BaseDevice) SourceIDs() []int { return append([]int(nil), d.sourceIDs...) }

func (d *BaseDevice) SetNodes(nodes []int) error {
	if len(nodes) != d.terminals {
		return fmt.Errorf("%s: %d nodes for %d terminals: %w", d.Name, len(nodes), d.terminals, errs.ErrInvalidArgument)
	}
	for _, n := range nodes {
		if n < 0 {
			return fmt.Errorf("%s: negative node index %d: %w", d.Name, n, errs.ErrInvalidArgument)
		}
	}
	d.Nodes = append([]int(nil), nodes...)
	return nil
}

func (d *BaseDevice) Owner() Owner { return d.owner }

func (d *BaseDevice) SetOwner(owner Owner) { d.owner = owner }

func (d *BaseDevice) SupportedInputs() []string { return nil }

func (d *BaseDevice) SupportedOutputs() []string { return nil }

func (d *BaseDevice) StampConductance(matrix.ConductanceStamper) error { return nil }

func (d *BaseDevice) StampSources(matrix.SourceStamper) error { return nil }

func (d *BaseDevice) GenerateParameters() ccode.Block { return nil }

func (d *BaseDevice) GenerateFields() ccode.Block { return nil }

func (d *BaseDevice) GenerateInputs() []ccode.Param { return nil }

func (d *BaseDevice) GenerateOutputs(string) []ccode.Param { return nil }

func (d *BaseDevice) GenerateOutputsUpdateBody(string) ccode.Block { return nil }

func (d *BaseDevice) GenerateUpdateBody() ccode.Block { return nil }

// insertSource registers the single companion source between the first two
// terminals.
func (d *BaseDevice) insertSource(s matrix.SourceStamper) error {
	id, err := s.InsertSource(d.Nodes[0], d.Nodes[1])
	if err != nil {
		return fmt.Errorf("%s: %w", d.Name, err)
	}
	d.sourceIDs = []int{id}
	return nil
}

func (d *BaseDevice) local(name string) string { return ccode.Suffix(name, d.Name) }

func (d *BaseDevice) ident(name string) ccode.Ident { return ccode.Ident(d.local(name)) }

// sourceSlot is this device's b_components element. Slot 0 is used until
// StampSources assigned an id.
func (d *BaseDevice) sourceSlot() ccode.Index {
	id := 1
	if len(d.sourceIDs) > 0 {
		id = d.sourceIDs[0]
	}
	return ccode.At(consts.ComponentSources, id-1)
}

func (d *BaseDevice) voltage(terminal int) ccode.Index {
	return ccode.At(consts.SolutionVector, d.Nodes[terminal])
}

func (d *BaseDevice) parameter(name string, value float64) ccode.Decl {
	return ccode.Decl{Storage: ccode.ConstStatic, Type: consts.RealType, Name: d.local(name), Init: ccode.Number(value)}
}

func (d *BaseDevice) field(name string) ccode.Decl {
	return ccode.Decl{Storage: ccode.Static, Type: consts.RealType, Name: d.local(name), Init: ccode.Number(0)}
}

func (d *BaseDevice) boolField(name string) ccode.Decl {
	return ccode.Decl{Storage: ccode.Static, Type: consts.BoolType, Name: d.local(name), Init: ccode.Boolean(false)}
}

// selects reports whether selector picks output.
func selects(selector, output string) bool {
	return selector == consts.AllOutputs || selector == output
}

func requirePositive(kind, name, param string, v float64) error {
	if !(v > 0) || math.IsInf(v, 0) {
		return fmt.Errorf("%s %s: %s must be positive, got %v: %w", kind, name, param, v, errs.ErrInvalidArgument)
	}
	return nil
}
