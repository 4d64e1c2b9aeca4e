package consts

const (
	ReferenceNode    = 0     // Ground node, never a matrix row/column
	DefaultZeroBound = 1e-12 // Pruning threshold for the emitted solve
	PivotTolerance   = 1e-15 // Smallest accepted pivot magnitude during inversion
	IllConditioned   = 1e12  // Condition number above which the engine warns
)

// Identifiers reserved by the emitted simulation engine.
const (
	RealType         = "real"
	BoolType         = "bool"
	SolutionVector   = "x"
	SourceVector     = "b"
	ComponentSources = "b_components"
	InverseMatrix    = "inv_g"
	OutputVector     = "x_out"
	EngineSuffix     = "_simulationEngine"
	GuardSuffix      = "_SIMULATIONENGINE_HPP"
)

// AllOutputs selects every output a component declares.
const AllOutputs = "ALL"
