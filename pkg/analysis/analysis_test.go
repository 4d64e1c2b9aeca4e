package analysis

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/edp1096/lblmc-codegen/pkg/errs"
)

var (
	_ Analysis = (*Transient)(nil)
	_ Analysis = (*PruningSweep)(nil)
)

const (
	dividerNetlist = "divider\nV1 in 0 10\nR1 in out 1k\nR2 out 0 1k\n.tran 1u 10u\n"
	rcNetlist      = "rc\nI1 out 0 1m\nR1 out 0 1k\nC1 out 0 1u\n.tran 10u 20m\n"
	// two isolated nodes, so the inverse has exact zeros off the diagonal
	isolatedNetlist = "isolated\nI1 a 0 1\nR1 a 0 1\nR2 b 0 2\n"
)

func TestCheckConvergence(t *testing.T) {
	a := NewBaseAnalysis()

	tests := []struct {
		name     string
		old, new []float64
		want     bool
	}{
		{"identical", []float64{1, 2}, []float64{1, 2}, true},
		{"within abstol", []float64{0}, []float64{1e-13}, true},
		{"within reltol", []float64{1e3}, []float64{1e3 + 1e-4}, true},
		{"outside both", []float64{1}, []float64{1.001}, false},
		{"length mismatch", []float64{1}, []float64{1, 2}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, a.CheckConvergence(tt.old, tt.new))
		})
	}
}

func TestStoreTimeResultSkipsRepeatedTime(t *testing.T) {
	a := NewBaseAnalysis()
	a.StoreTimeResult(1, map[string]float64{"V(1)": 3})
	a.StoreTimeResult(1, map[string]float64{"V(1)": 4})
	a.StoreTimeResult(2, map[string]float64{"V(1)": 5})

	res := a.GetResults()
	require.Equal(t, []float64{1, 2}, res["TIME"])
	require.Equal(t, []float64{3, 5}, res["V(1)"])
}

func TestTransientDivider(t *testing.T) {
	tr := NewTransient(1e-6, 1e-5, 0)
	require.NoError(t, tr.Setup(fromNetlist(t, dividerNetlist)))
	require.NoError(t, tr.Execute())

	final := tr.Final()
	require.Len(t, final, 2)
	require.InDelta(t, 10.0, final[0], 1e-4)
	require.InDelta(t, 5.0, final[1], 1e-4)
	require.True(t, tr.Settled())

	res := tr.GetResults()
	require.Len(t, res["TIME"], 10)
	require.InDelta(t, 1e-6, res["TIME"][0], 1e-18)
	require.Len(t, res["V(out)"], 10)
	require.Len(t, res["V(in)"], 10)
}

func TestTransientRCSettles(t *testing.T) {
	tr := NewTransient(1e-5, 2e-2, 0)
	require.NoError(t, tr.Setup(fromNetlist(t, rcNetlist)))
	require.NoError(t, tr.Execute())

	require.True(t, tr.Settled())
	require.InDelta(t, 1.0, tr.Final()[0], 1e-6)

	res := tr.GetResults()["V(out)"]
	require.Less(t, res[0], res[len(res)-1], "the capacitor charges towards I*R")
}

func TestTransientErrors(t *testing.T) {
	tr := NewTransient(0, 1, 0)
	require.ErrorIs(t, tr.Setup(fromNetlist(t, dividerNetlist)), errs.ErrInvalidArgument)

	tr = NewTransient(1, 0.5, 0)
	require.ErrorIs(t, tr.Setup(fromNetlist(t, dividerNetlist)), errs.ErrInvalidArgument)

	require.ErrorIs(t, NewTransient(1, 2, 0).Execute(), errs.ErrInconsistentModel)
}

func TestTransientFeedsInputs(t *testing.T) {
	ckt := fromNetlist(t, "sw\nI1 a 0 1\nS1 a 0 1m 1\nR1 a 0 10\n.tran 1u\n")

	open := NewTransient(1e-6, 1e-5, 0)
	require.NoError(t, open.Setup(ckt))
	require.Contains(t, open.Inputs, "sw_S1")
	require.NoError(t, open.Execute())
	require.InDelta(t, 10.0, open.Final()[0], 1e-9, "an open switch carries no current")
}

func TestPruningSweep(t *testing.T) {
	s := NewPruningSweep([]float64{1.5, 0, 1e-12}, 5)
	require.NoError(t, s.Setup(fromNetlist(t, isolatedNetlist)))
	require.NoError(t, s.Execute())

	points := s.Points()
	require.Len(t, points, 3)

	require.Equal(t, 0.0, points[0].ZeroBound)
	require.Equal(t, 4, points[0].Stats.Kept)
	require.Zero(t, points[0].MaxDeviation)

	require.Equal(t, 2, points[1].Stats.Kept)
	require.Equal(t, 2, points[1].Stats.Pruned)
	require.Zero(t, points[1].MaxDeviation, "exact zeros cost nothing")

	require.Equal(t, 1, points[2].Stats.Kept)
	require.InDelta(t, 1.0, points[2].MaxDeviation, 1e-12)

	for i := 1; i < len(points); i++ {
		require.LessOrEqual(t, points[i].Stats.Kept, points[i-1].Stats.Kept)
	}
	require.Equal(t, []float64{4, 2, 1}, s.GetResults()["KEPT"])
}

func TestPruningSweepErrors(t *testing.T) {
	require.ErrorIs(t, NewPruningSweep(nil, 5).Setup(fromNetlist(t, isolatedNetlist)), errs.ErrInvalidArgument)
	require.ErrorIs(t, NewPruningSweep([]float64{0}, 0).Setup(fromNetlist(t, isolatedNetlist)), errs.ErrInvalidArgument)
	require.ErrorIs(t, NewPruningSweep([]float64{-1}, 5).Setup(fromNetlist(t, isolatedNetlist)), errs.ErrInvalidArgument)
	require.ErrorIs(t, NewPruningSweep([]float64{0}, 5).Execute(), errs.ErrInconsistentModel)
}

func TestSharedStateDeviation(t *testing.T) {
	build := func(text string) func() (float64, error) {
		ckt := fromNetlist(t, text)
		require.NoError(t, ckt.SetupSolverCodeGenerator())
		fn, err := ckt.Engine().BuildFunction(0)
		require.NoError(t, err)
		return func() (float64, error) { return SharedStateDeviation(fn, nil, nil, 10) }
	}

	dev, err := build(rcNetlist)()
	require.NoError(t, err)
	require.Greater(t, dev, 0.0, "capacitor history is shared between callers")

	dev, err = build(dividerNetlist)()
	require.NoError(t, err)
	require.Zero(t, dev)

	ckt := fromNetlist(t, dividerNetlist)
	require.NoError(t, ckt.SetupSolverCodeGenerator())
	fn, err := ckt.Engine().BuildFunction(0)
	require.NoError(t, err)
	_, err = SharedStateDeviation(fn, nil, nil, 0)
	require.ErrorIs(t, err, errs.ErrInvalidArgument)
}
