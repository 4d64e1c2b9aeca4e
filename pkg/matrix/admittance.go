package matrix

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/edp1096/lblmc-codegen/internal/consts"
	"github.com/edp1096/lblmc-codegen/pkg/ccode"
	"github.com/edp1096/lblmc-codegen/pkg/errs"
)

// Admittance is the dense N×N nodal admittance matrix of a network.
// Row/column k-1 belongs to node k; the reference node has no row.
// Once inverted the matrix holds its inverse and rejects further stamps.
type Admittance struct {
	size     int
	g        *mat.Dense
	inverted bool
}

var _ ConductanceStamper = (*Admittance)(nil)

func NewAdmittance(size int) (*Admittance, error) {
	if size < 1 {
		return nil, fmt.Errorf("admittance matrix of size %d: size must be at least 1: %w", size, errs.ErrInvalidArgument)
	}
	return &Admittance{size: size, g: mat.NewDense(size, size, nil)}, nil
}

func (a *Admittance) Size() int { return a.size }

func (a *Admittance) Inverted() bool { return a.inverted }

// StampConductance adds a conductance between nodes p and n.
// Self terms go to the diagonal of every non-reference terminal, the mutual
// term is subtracted only when neither terminal is the reference.
func (a *Admittance) StampConductance(value float64, p, n int) error {
	if a.inverted {
		return fmt.Errorf("stamping conductance after inversion: %w", errs.ErrInconsistentModel)
	}
	if p < 0 || p > a.size || n < 0 || n > a.size {
		return fmt.Errorf("conductance terminals (%d,%d) outside 0..%d: %w", p, n, a.size, errs.ErrInvalidArgument)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("conductance %v between (%d,%d) is not finite: %w", value, p, n, errs.ErrInvalidArgument)
	}

	if p != consts.ReferenceNode {
		a.add(p, p, value)
		if n != consts.ReferenceNode {
			a.add(p, n, -value)
		}
	}
	if n != consts.ReferenceNode {
		if p != consts.ReferenceNode {
			a.add(n, p, -value)
		}
		a.add(n, n, value)
	}

	return nil
}

// add works on 1-based node indices.
func (a *Admittance) add(i, j int, value float64) {
	a.g.Set(i-1, j-1, a.g.At(i-1, j-1)+value)
}

// At returns the element at 0-based row i and column j.
func (a *Admittance) At(i, j int) float64 {
	return a.g.At(i, j)
}

// RawData returns a row-major copy of the matrix.
func (a *Admittance) RawData() []float64 {
	return mat.DenseCopyOf(a.g).RawMatrix().Data
}

// Matrix returns a copy of the matrix as a gonum matrix.
func (a *Admittance) Matrix() *mat.Dense {
	return mat.DenseCopyOf(a.g)
}

func (a *Admittance) Clone() *Admittance {
	return &Admittance{size: a.size, g: mat.DenseCopyOf(a.g), inverted: a.inverted}
}

// Condition returns the 2-norm condition number, +Inf when singular.
func (a *Admittance) Condition() float64 {
	return mat.Cond(a.g, 2)
}

// InvertSelf replaces the matrix by its inverse using Gauss-Jordan
// elimination with partial pivoting. A pivot smaller than
// consts.PivotTolerance fails with errs.ErrSingularMatrix and leaves the
// matrix untouched.
func (a *Admittance) InvertSelf() error {
	n := a.size

	work := mat.DenseCopyOf(a.g).RawMatrix()
	inv := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		inv.Set(i, i, 1)
	}
	out := inv.RawMatrix()

	w, ws := work.Data, work.Stride
	v, vs := out.Data, out.Stride

	for col := 0; col < n; col++ {
		pivotRow := col
		best := math.Abs(w[col*ws+col])
		for r := col + 1; r < n; r++ {
			if mag := math.Abs(w[r*ws+col]); mag > best {
				best, pivotRow = mag, r
			}
		}
		if best < consts.PivotTolerance || math.IsNaN(best) {
			return fmt.Errorf("pivot %g in column %d below tolerance %g: %w", best, col, consts.PivotTolerance, errs.ErrSingularMatrix)
		}

		if pivotRow != col {
			swapRows(w, ws, n, col, pivotRow)
			swapRows(v, vs, n, col, pivotRow)
		}

		scale := 1.0 / w[col*ws+col]
		for k := 0; k < n; k++ {
			w[col*ws+k] *= scale
			v[col*vs+k] *= scale
		}

		for r := 0; r < n; r++ {
			if r == col {
				continue
			}
			factor := w[r*ws+col]
			if factor == 0 {
				continue
			}
			for k := 0; k < n; k++ {
				w[r*ws+k] -= factor * w[col*ws+k]
				v[r*vs+k] -= factor * v[col*vs+k]
			}
		}
	}

	a.g = inv
	a.inverted = true
	return nil
}

// InvertSelfSparse replaces the matrix by its inverse computed with a sparse
// LU factorisation, one unit column solve per row.
func (a *Admittance) InvertSelfSparse() error {
	data, err := InvertSparse(a.RawData(), a.size)
	if err != nil {
		return err
	}

	a.g = mat.NewDense(a.size, a.size, data)
	a.inverted = true
	return nil
}

// Literal declares the matrix as a constant 2-D array named name.
func (a *Admittance) Literal(name string) ccode.Decl {
	return ccode.Decl{
		Storage: ccode.ConstStatic,
		Type:    consts.RealType,
		Name:    name,
		Dims:    []int{a.size, a.size},
		Values:  a.RawData(),
	}
}

// CLiteral renders Literal as text.
func (a *Admittance) CLiteral(name string) string {
	return ccode.RenderStmt(a.Literal(name))
}

func swapRows(data []float64, stride, n, i, j int) {
	for k := 0; k < n; k++ {
		data[i*stride+k], data[j*stride+k] = data[j*stride+k], data[i*stride+k]
	}
}
