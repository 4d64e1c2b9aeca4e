package matrix

import (
	"fmt"
	"math"
	"strings"

	"github.com/edp1096/sparse"
	"gonum.org/v1/gonum/mat"

	"github.com/edp1096/lblmc-codegen/pkg/errs"
)

// residualTolerance bounds max|A·A⁻¹ - I| for an accepted sparse inverse.
const residualTolerance = 1e-6

// SparseSystem wraps a real sparse matrix with 1-based node indexing.
type SparseSystem struct {
	Size   int
	matrix *sparse.Matrix
	config *sparse.Configuration
}

func NewSparseSystem(size int) (*SparseSystem, error) {
	if size < 1 {
		return nil, fmt.Errorf("sparse system of size %d: %w", size, errs.ErrInvalidArgument)
	}

	config := &sparse.Configuration{
		Real:                    true,
		Complex:                 false,
		SeparatedComplexVectors: false,
		Expandable:              true,
		Translate:               false,
		ModifiedNodal:           true,
		TiesMultiplier:          5,
		PrinterWidth:            140,
		Annotate:                0,
	}

	m, err := sparse.Create(int64(size), config)
	if err != nil {
		return nil, fmt.Errorf("creating sparse matrix: %v: %w", err, errs.ErrInvalidArgument)
	}

	return &SparseSystem{Size: size, matrix: m, config: config}, nil
}

// SetupElements allocates every element so the structure is fixed before
// values are loaded.
func (m *SparseSystem) SetupElements() {
	for i := 1; i <= m.Size; i++ {
		for j := 1; j <= m.Size; j++ {
			m.matrix.GetElement(int64(i), int64(j))
		}
	}
}

func (m *SparseSystem) AddElement(i, j int, value float64) error {
	if i <= 0 || j <= 0 || i > m.Size || j > m.Size {
		return fmt.Errorf("sparse index (%d,%d) outside 1..%d: %w", i, j, m.Size, errs.ErrInvalidArgument)
	}
	m.matrix.GetElement(int64(i), int64(j)).Real += value
	return nil
}

func (m *SparseSystem) Element(i, j int) float64 {
	return m.matrix.GetElement(int64(i), int64(j)).Real
}

func (m *SparseSystem) Factor() error {
	if err := m.matrix.Factor(); err != nil {
		return fmt.Errorf("matrix factorization failed: %v: %w", err, errs.ErrSingularMatrix)
	}
	return nil
}

// Solve solves against an already factored matrix. rhs and the returned
// solution are 1-based with length Size+1.
func (m *SparseSystem) Solve(rhs []float64) ([]float64, error) {
	solution, err := m.matrix.Solve(rhs)
	if err != nil {
		return nil, fmt.Errorf("matrix solve failed: %v: %w", err, errs.ErrSingularMatrix)
	}
	return solution, nil
}

func (m *SparseSystem) Destroy() {
	if m.matrix != nil {
		m.matrix.Destroy()
		m.matrix = nil
	}
}

// Summary describes the loaded matrix before factorization.
func (m *SparseSystem) Summary() string {
	var sb strings.Builder

	maxElement, minElement := 0.0, math.MaxFloat64
	elementCount := 0

	fmt.Fprintf(&sb, "Size of matrix = %d x %d\n", m.Size, m.Size)
	for i := 1; i <= m.Size; i++ {
		for j := 1; j <= m.Size; j++ {
			value := m.Element(i, j)
			if value == 0 {
				continue
			}
			elementCount++
			maxElement = math.Max(maxElement, value)
			minElement = math.Min(minElement, value)
		}
	}
	if elementCount == 0 {
		minElement = 0
	}

	fmt.Fprintf(&sb, "Largest element in matrix = %g\n", maxElement)
	fmt.Fprintf(&sb, "Smallest element in matrix = %g\n", minElement)
	fmt.Fprintf(&sb, "Density = %.2f%%\n", float64(elementCount)*100/float64(m.Size*m.Size))
	return sb.String()
}

// InvertSparse inverts the row-major n×n matrix data by factoring it once
// and solving one unit column per row. The result is row-major as well.
func InvertSparse(data []float64, n int) ([]float64, error) {
	if len(data) != n*n {
		return nil, fmt.Errorf("sparse inverse of %d values as %dx%d: %w", len(data), n, n, errs.ErrInvalidArgument)
	}

	sys, err := NewSparseSystem(n)
	if err != nil {
		return nil, err
	}
	defer sys.Destroy()

	sys.SetupElements()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if v := data[i*n+j]; v != 0 {
				if err := sys.AddElement(i+1, j+1, v); err != nil {
					return nil, err
				}
			}
		}
	}

	if err := sys.Factor(); err != nil {
		return nil, err
	}

	inv := make([]float64, n*n)
	for col := 1; col <= n; col++ {
		rhs := make([]float64, n+1)
		rhs[col] = 1

		solution, err := sys.Solve(rhs)
		if err != nil {
			return nil, err
		}
		for row := 1; row <= n; row++ {
			v := solution[row]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("non-finite inverse element (%d,%d): %w", row, col, errs.ErrSingularMatrix)
			}
			inv[(row-1)*n+(col-1)] = v
		}
	}

	if r := residual(data, inv, n); r > residualTolerance {
		return nil, fmt.Errorf("sparse inverse residual %g above %g: %w", r, residualTolerance, errs.ErrSingularMatrix)
	}

	return inv, nil
}

// residual returns max|A·B - I|.
func residual(a, b []float64, n int) float64 {
	var prod mat.Dense
	prod.Mul(mat.NewDense(n, n, a), mat.NewDense(n, n, b))

	worst := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			want := 0.0
			if i == j {
				want = 1
			}
			d := math.Abs(prod.At(i, j) - want)
			if math.IsNaN(d) {
				return math.Inf(1)
			}
			worst = math.Max(worst, d)
		}
	}
	return worst
}
