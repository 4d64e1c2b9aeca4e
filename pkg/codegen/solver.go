package codegen

import (
	"fmt"
	"math"

	"github.com/edp1096/lblmc-codegen/internal/consts"
	"github.com/edp1096/lblmc-codegen/pkg/ccode"
	"github.com/edp1096/lblmc-codegen/pkg/errs"
)

// SolverStats counts multiply-add terms of the emitted solve.
type SolverStats struct {
	Total  int
	Kept   int
	Pruned int
}

// Solver emits the unrolled x = inv·b multiply, dropping terms whose
// coefficient magnitude does not exceed the zero bound.
type Solver struct {
	inv       []float64
	size      int
	zeroBound float64
}

func NewSolver(inv []float64, size int, zeroBound float64) (*Solver, error) {
	if size < 1 || len(inv) != size*size {
		return nil, fmt.Errorf("solver for %d coefficients as %dx%d: %w", len(inv), size, size, errs.ErrInvalidArgument)
	}
	if zeroBound < 0 || math.IsNaN(zeroBound) {
		return nil, fmt.Errorf("zero bound %v must be non-negative: %w", zeroBound, errs.ErrInvalidArgument)
	}

	return &Solver{inv: append([]float64(nil), inv...), size: size, zeroBound: zeroBound}, nil
}

// Keep reports whether term (i,j) survives pruning. A zero bound keeps every
// term, exact zeros included.
func (s *Solver) Keep(i, j int) bool {
	if s.zeroBound == 0 {
		return true
	}
	return math.Abs(s.inv[i*s.size+j]) > s.zeroBound
}

// Block emits x[i+1] = name[i][j]*b[j] + ... for every row. Rows with no
// kept term are set to 0.
func (s *Solver) Block(name string) ccode.Block {
	block := make(ccode.Block, 0, s.size)
	for i := 0; i < s.size; i++ {
		var terms []ccode.Signed
		for j := 0; j < s.size; j++ {
			if !s.Keep(i, j) {
				continue
			}
			terms = append(terms, ccode.Signed{
				X: ccode.Times(ccode.At(name, i, j), ccode.At(consts.SourceVector, j)),
			})
		}
		block = append(block, ccode.Assign{
			LHS: ccode.At(consts.SolutionVector, i+1),
			RHS: ccode.SignedSum(terms),
		})
	}
	return block
}

func (s *Solver) Stats() SolverStats {
	st := SolverStats{Total: s.size * s.size}
	for i := 0; i < s.size; i++ {
		for j := 0; j < s.size; j++ {
			if s.Keep(i, j) {
				st.Kept++
			}
		}
	}
	st.Pruned = st.Total - st.Kept
	return st
}
