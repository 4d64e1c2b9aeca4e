package matrix

import (
	"fmt"

	"github.com/edp1096/lblmc-codegen/internal/consts"
	"github.com/edp1096/lblmc-codegen/pkg/ccode"
	"github.com/edp1096/lblmc-codegen/pkg/errs"
)

// SourceEntry is one companion current source between two terminals.
type SourceEntry struct {
	Positive int
	Negative int
	ID       int // 1-based
}

// Contribution is a signed reference to a source from one node row.
type Contribution struct {
	ID   int
	Sign int // +1 at the positive terminal, -1 at the negative one
}

// SourceRegistry records companion sources in insertion order and emits the
// per-row aggregation of their run-time values into b.
type SourceRegistry struct {
	size    int
	entries []SourceEntry
}

var _ SourceStamper = (*SourceRegistry)(nil)

func NewSourceRegistry(size int) (*SourceRegistry, error) {
	if size < 1 {
		return nil, fmt.Errorf("source registry of size %d: %w", size, errs.ErrInvalidArgument)
	}
	return &SourceRegistry{size: size}, nil
}

func (r *SourceRegistry) InsertSource(p, n int) (int, error) {
	if p < 0 || p > r.size || n < 0 || n > r.size {
		return 0, fmt.Errorf("source terminals (%d,%d) outside 0..%d: %w", p, n, r.size, errs.ErrInvalidArgument)
	}

	id := len(r.entries) + 1
	r.entries = append(r.entries, SourceEntry{Positive: p, Negative: n, ID: id})
	return id, nil
}

func (r *SourceRegistry) NumSources() int { return len(r.entries) }

func (r *SourceRegistry) Size() int { return r.size }

func (r *SourceRegistry) Entries() []SourceEntry {
	return append([]SourceEntry(nil), r.entries...)
}

// Contributions lists the sources touching node row (1-based) in id order.
func (r *SourceRegistry) Contributions(row int) []Contribution {
	var out []Contribution
	for _, e := range r.entries {
		if e.Positive == row {
			out = append(out, Contribution{ID: e.ID, Sign: +1})
		}
		if e.Negative == row {
			out = append(out, Contribution{ID: e.ID, Sign: -1})
		}
	}
	return out
}

// Aggregate emits b[row-1] = ±b_components[id-1] ... for every node row.
// Rows no source touches are set to 0.
func (r *SourceRegistry) Aggregate() ccode.Block {
	block := make(ccode.Block, 0, r.size)
	for row := 1; row <= r.size; row++ {
		var terms []ccode.Signed
		for _, c := range r.Contributions(row) {
			terms = append(terms, ccode.Signed{
				Negative: c.Sign < 0,
				X:        ccode.At(consts.ComponentSources, c.ID-1),
			})
		}
		block = append(block, ccode.Assign{
			LHS: ccode.At(consts.SourceVector, row-1),
			RHS: ccode.SignedSum(terms),
		})
	}
	return block
}
