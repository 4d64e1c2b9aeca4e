// Package codegen assembles stamped components into one straight-line
// simulation engine function.
package codegen

import (
	"github.com/edp1096/lblmc-codegen/pkg/ccode"
	"github.com/edp1096/lblmc-codegen/pkg/matrix"
)

// Component is the stamping and fragment-generation contract every network
// element fulfils.
//
// StampConductance and StampSources run exactly once per stamping pass.
// Running them twice without an engine reset counts the contributions twice.
// The Generate methods are pure: they depend only on the component's
// parameters, terminals and assigned source ids, and every identifier they
// produce carries the component name as suffix.
//
// GenerateOutputs and GenerateOutputsUpdateBody take a selector: "ALL"
// selects every output, an output name selects that output and anything
// else selects nothing.
type Component interface {
	GetName() string

	StampConductance(g matrix.ConductanceStamper) error
	StampSources(s matrix.SourceStamper) error

	GenerateParameters() ccode.Block
	GenerateFields() ccode.Block
	GenerateInputs() []ccode.Param
	GenerateOutputs(selector string) []ccode.Param
	GenerateOutputsUpdateBody(selector string) ccode.Block
	GenerateUpdateBody() ccode.Block
}
