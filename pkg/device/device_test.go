package device

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/edp1096/lblmc-codegen/pkg/ccode"
	"github.com/edp1096/lblmc-codegen/pkg/errs"
	"github.com/edp1096/lblmc-codegen/pkg/matrix"
	"github.com/edp1096/lblmc-codegen/pkg/util"
)

func lines(b ccode.Block) []string {
	return strings.Split(strings.TrimSuffix(b.String(), "\n"), "\n")
}

func placed(t *testing.T, d Device, nodes ...int) {
	t.Helper()
	require.NoError(t, d.SetNodes(nodes))
}

func TestNewDeviceValidation(t *testing.T) {
	tests := []struct {
		name string
		make func() error
	}{
		{"underscore in name", func() error { _, err := NewResistor("R_1", nil, 10); return err }},
		{"leading digit", func() error { _, err := NewResistor("1R", nil, 10); return err }},
		{"keyword name", func() error { _, err := NewResistor("int", nil, 10); return err }},
		{"zero resistance", func() error { _, err := NewResistor("R1", nil, 0); return err }},
		{"NaN resistance", func() error { _, err := NewResistor("R1", nil, math.NaN()); return err }},
		{"node name count", func() error { _, err := NewResistor("R1", []string{"a"}, 10); return err }},
		{"negative inductance", func() error { _, err := NewInductor("L1", nil, -1e-3, 1e-6); return err }},
		{"zero time step", func() error { _, err := NewInductor("L1", nil, 1e-3, 0); return err }},
		{"infinite capacitance", func() error { _, err := NewCapacitor("C1", nil, math.Inf(1), 1e-6); return err }},
		{"zero series resistance", func() error { _, err := NewDCVoltageSource("V1", nil, 5, 0); return err }},
		{"negative switch resistance", func() error { _, err := NewSeriesRLSwitch("S1", nil, 1e-3, -1, 1e-6); return err }},
		{"infinite current", func() error { _, err := NewDCCurrentSource("I1", nil, math.Inf(-1)); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, tt.make(), errs.ErrInvalidArgument)
		})
	}

	_, err := NewDCCurrentSource("I1", nil, -2)
	require.NoError(t, err, "a negative current is a direction, not an error")
	_, err = NewSeriesRLSwitch("S1", nil, 1e-3, 0, 1e-6)
	require.NoError(t, err)
}

func TestSetNodes(t *testing.T) {
	r, err := NewResistor("R1", []string{"in", "0"}, 10)
	require.NoError(t, err)

	require.ErrorIs(t, r.SetNodes([]int{1}), errs.ErrInvalidArgument)
	require.ErrorIs(t, r.SetNodes([]int{1, -1}), errs.ErrInvalidArgument)

	nodes := []int{2, 0}
	require.NoError(t, r.SetNodes(nodes))
	nodes[0] = 5
	require.Equal(t, []int{2, 0}, r.GetNodes())
	require.Equal(t, []string{"in", "0"}, r.GetNodeNames())
	require.Equal(t, 2, r.NumTerminals())
}

type network struct{ name string }

func (n *network) Name() string { return n.name }

func TestOwner(t *testing.T) {
	r, err := NewResistor("R1", nil, 10)
	require.NoError(t, err)
	require.Nil(t, r.Owner())

	owner := &network{name: "net"}
	r.SetOwner(owner)
	require.Same(t, owner, r.Owner())
	require.Equal(t, "net", r.Owner().Name())

	r.SetOwner(nil)
	require.Nil(t, r.Owner())
}

func TestResistor(t *testing.T) {
	r, err := NewResistor("R1", nil, 10)
	require.NoError(t, err)
	placed(t, r, 1, 0)

	g, err := matrix.NewAdmittance(1)
	require.NoError(t, err)
	require.NoError(t, r.StampConductance(g))
	require.InDelta(t, 0.1, g.At(0, 0), 1e-15)

	s, err := matrix.NewSourceRegistry(1)
	require.NoError(t, err)
	require.NoError(t, r.StampSources(s))
	require.Zero(t, s.NumSources())
	require.Zero(t, r.NumSources())

	require.Empty(t, r.GenerateParameters())
	require.Empty(t, r.GenerateFields())
	require.Empty(t, r.GenerateUpdateBody())
	require.Empty(t, r.GenerateOutputs("ALL"))
	require.Equal(t, "R", r.GetType())
}

func TestResistorOutOfRange(t *testing.T) {
	r, err := NewResistor("R1", nil, 10)
	require.NoError(t, err)
	placed(t, r, 2, 0)

	g, err := matrix.NewAdmittance(1)
	require.NoError(t, err)
	require.ErrorIs(t, r.StampConductance(g), errs.ErrInvalidArgument)
}

func TestInductorTrapezoidal(t *testing.T) {
	l, err := NewInductor("L1", nil, 1e-3, 1e-6)
	require.NoError(t, err)
	placed(t, l, 1, 0)
	require.Equal(t, util.TrapezoidalMethod, l.IntegrationMethod())
	require.InDelta(t, 5e-4, l.Conductance(), 1e-18)

	s, err := matrix.NewSourceRegistry(1)
	require.NoError(t, err)
	require.NoError(t, l.StampSources(s))
	require.Equal(t, []int{1}, l.SourceIDs())

	params := lines(l.GenerateParameters())
	require.Len(t, params, 3)
	require.True(t, strings.HasPrefix(params[2], "const static real HOL2_L1 = "))

	require.Equal(t, []string{
		"static real epos_past_L1 = 0.0000000000000000e+00;",
		"static real eneg_past_L1 = 0.0000000000000000e+00;",
		"static real current_past_L1 = 0.0000000000000000e+00;",
		"static real current_L1 = 0.0000000000000000e+00;",
		"static real current_eq_L1 = 0.0000000000000000e+00;",
		"static real current_eq_past_L1 = 0.0000000000000000e+00;",
	}, lines(l.GenerateFields()))

	require.Equal(t, []string{
		"epos_past_L1 = x[1];",
		"eneg_past_L1 = x[0];",
		"current_past_L1 = current_L1;",
		"current_eq_past_L1 = current_eq_L1;",
		"real delta_v_L1 = epos_past_L1 - eneg_past_L1;",
		"current_L1 = HOL2_L1*delta_v_L1 - current_eq_past_L1;",
		"current_eq_L1 = -current_L1 - HOL2_L1*delta_v_L1;",
		"b_components[0] = -current_eq_L1;",
	}, lines(l.GenerateUpdateBody()))
}

func TestInductorBackwardEuler(t *testing.T) {
	l, err := NewInductor("L2", nil, 1e-3, 1e-6)
	require.NoError(t, err)
	placed(t, l, 2, 1)

	require.ErrorIs(t, l.SetIntegrationMethod(util.ForwardEulerMethod), errs.ErrInvalidArgument)
	require.NoError(t, l.SetIntegrationMethod(util.BackwardEulerMethod))
	require.InDelta(t, 1e-3, l.Conductance(), 1e-15)

	// A source registered before this one shifts its slot.
	s, err := matrix.NewSourceRegistry(2)
	require.NoError(t, err)
	_, err = s.InsertSource(1, 0)
	require.NoError(t, err)
	require.NoError(t, l.StampSources(s))

	body := lines(l.GenerateUpdateBody())
	require.Equal(t, "epos_past_L2 = x[2];", body[0])
	require.Equal(t, "eneg_past_L2 = x[1];", body[1])
	require.Equal(t, "current_L2 = HOL_L2*delta_v_L2 - current_eq_past_L2;", body[5])
	require.Equal(t, "current_eq_L2 = -current_L2;", body[6])
	require.Equal(t, "b_components[1] = -current_eq_L2;", body[7])

	require.True(t, strings.HasPrefix(lines(l.GenerateParameters())[2], "const static real HOL_L2 = "))
}

func TestInductorOutputs(t *testing.T) {
	l, err := NewInductor("L1", nil, 1e-3, 1e-6)
	require.NoError(t, err)

	require.Equal(t, []string{"l_current"}, l.SupportedOutputs())
	require.Equal(t, []ccode.Param{{Type: "real", Name: "l_current_L1", Pointer: true}}, l.GenerateOutputs("ALL"))
	require.Equal(t, []ccode.Param{{Type: "real", Name: "l_current_L1", Pointer: true}}, l.GenerateOutputs("l_current"))
	require.Empty(t, l.GenerateOutputs("c_voltage"))

	require.Equal(t, "*l_current_L1 = current_L1;\n", l.GenerateOutputsUpdateBody("ALL").String())
	require.Empty(t, l.GenerateOutputsUpdateBody("none"))
}

func TestCapacitor(t *testing.T) {
	c, err := NewCapacitor("C1", nil, 1e-6, 1e-6)
	require.NoError(t, err)
	placed(t, c, 1, 2)
	require.InDelta(t, 2.0, c.Conductance(), 1e-12)

	g, err := matrix.NewAdmittance(2)
	require.NoError(t, err)
	require.NoError(t, c.StampConductance(g))
	require.InDeltaSlice(t, []float64{2, -2, -2, 2}, g.RawData(), 1e-12)

	s, err := matrix.NewSourceRegistry(2)
	require.NoError(t, err)
	require.NoError(t, c.StampSources(s))

	require.Equal(t, []string{
		"epos_past_C1 = x[1];",
		"eneg_past_C1 = x[2];",
		"current_eq_past_C1 = current_eq_C1;",
		"real delta_v_C1 = epos_past_C1 - eneg_past_C1;",
		"current_C1 = GEQ_C1*delta_v_C1 + current_eq_past_C1;",
		"current_eq_C1 = -(GEQ_C1*delta_v_C1) - current_C1;",
		"b_components[0] = -current_eq_C1;",
	}, lines(c.GenerateUpdateBody()))

	require.NoError(t, c.SetIntegrationMethod(util.BackwardEulerMethod))
	require.InDelta(t, 1.0, c.Conductance(), 1e-12)
	require.Equal(t, "current_eq_C1 = -(GEQ_C1*delta_v_C1);", lines(c.GenerateUpdateBody())[5])

	require.Equal(t, "*c_voltage_C1 = epos_past_C1 - eneg_past_C1;\n", c.GenerateOutputsUpdateBody("c_voltage").String())
	require.Empty(t, c.GenerateOutputs("l_current"))
}

func TestCurrentSource(t *testing.T) {
	i, err := NewDCCurrentSource("I1", nil, 0.5)
	require.NoError(t, err)
	placed(t, i, 0, 1)

	g, err := matrix.NewAdmittance(1)
	require.NoError(t, err)
	require.NoError(t, i.StampConductance(g))
	require.Zero(t, g.At(0, 0))

	s, err := matrix.NewSourceRegistry(1)
	require.NoError(t, err)
	require.NoError(t, i.StampSources(s))
	require.Equal(t, []matrix.SourceEntry{{Positive: 0, Negative: 1, ID: 1}}, s.Entries())

	require.Equal(t, "const static real I_I1 = 5.0000000000000000e-01;\n", i.GenerateParameters().String())
	require.Equal(t, "b_components[0] = I_I1;\n", i.GenerateUpdateBody().String())
}

func TestVoltageSource(t *testing.T) {
	v, err := NewDCVoltageSource("V1", nil, 10, 0.5)
	require.NoError(t, err)
	placed(t, v, 1, 0)

	g, err := matrix.NewAdmittance(1)
	require.NoError(t, err)
	require.NoError(t, v.StampConductance(g))
	require.Equal(t, 2.0, g.At(0, 0))

	s, err := matrix.NewSourceRegistry(1)
	require.NoError(t, err)
	require.NoError(t, v.StampSources(s))

	require.Equal(t, []string{
		"const static real V_V1 = 1.0000000000000000e+01;",
		"const static real RS_V1 = 5.0000000000000000e-01;",
		"const static real GS_V1 = 2.0000000000000000e+00;",
	}, lines(v.GenerateParameters()))
	require.Equal(t, "b_components[0] = V_V1*GS_V1;\n", v.GenerateUpdateBody().String())
}

func TestSeriesRLSwitch(t *testing.T) {
	sw, err := NewSeriesRLSwitch("S1", nil, 1e-3, 0.5, 1e-6)
	require.NoError(t, err)
	placed(t, sw, 1, 2)

	require.Equal(t, util.ForwardEulerMethod, sw.IntegrationMethod())
	require.NoError(t, sw.SetIntegrationMethod(util.ForwardEulerMethod))
	require.ErrorIs(t, sw.SetIntegrationMethod(util.TrapezoidalMethod), errs.ErrInvalidArgument)

	g, err := matrix.NewAdmittance(2)
	require.NoError(t, err)
	require.NoError(t, sw.StampConductance(g))
	require.Equal(t, make([]float64, 4), g.RawData())

	s, err := matrix.NewSourceRegistry(2)
	require.NoError(t, err)
	require.NoError(t, sw.StampSources(s))

	require.Equal(t, []string{"sw"}, sw.SupportedInputs())
	require.Equal(t, []ccode.Param{{Type: "bool", Name: "sw_S1"}}, sw.GenerateInputs())

	require.Equal(t, []string{
		"static real current_past_S1 = 0.0000000000000000e+00;",
		"static bool sw_past_S1 = false;",
	}, lines(sw.GenerateFields()))

	require.Equal(t, []string{
		"real current_S1 = (sw_past_S1 ? current_past_S1 + HOL_S1*(x[1] - R_S1*current_past_S1 - x[2]) : 0.0000000000000000e+00);",
		"current_past_S1 = current_S1;",
		"sw_past_S1 = sw_S1;",
		"b_components[0] = -current_S1;",
	}, lines(sw.GenerateUpdateBody()))

	require.Equal(t, "*l_current_S1 = current_past_S1;\n", sw.GenerateOutputsUpdateBody("ALL").String())
}
