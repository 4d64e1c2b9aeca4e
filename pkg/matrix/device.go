package matrix

// ConductanceStamper receives conductance stamps. Node indices are 1-based,
// 0 is the reference node.
type ConductanceStamper interface {
	StampConductance(value float64, p, n int) error
}

// SourceStamper assigns companion current sources to terminal pairs and
// returns their 1-based source index.
type SourceStamper interface {
	InsertSource(p, n int) (int, error)
}
