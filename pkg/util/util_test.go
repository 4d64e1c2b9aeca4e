package util

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/edp1096/lblmc-codegen/pkg/errs"
)

func TestParseIntegrationMethod(t *testing.T) {
	tests := []struct {
		in   string
		want IntegrationMethod
	}{
		{"", TrapezoidalMethod},
		{"trapezoidal", TrapezoidalMethod},
		{" TR ", TrapezoidalMethod},
		{"euler_backward", BackwardEulerMethod},
		{"BE", BackwardEulerMethod},
		{"gear", BackwardEulerMethod},
		{"fe", ForwardEulerMethod},
		{"euler_forward", ForwardEulerMethod},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseIntegrationMethod(tt.in)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}

	_, err := ParseIntegrationMethod("runge_kutta")
	require.ErrorIs(t, err, errs.ErrInvalidArgument)
}

func TestIntegrationMethodString(t *testing.T) {
	require.Equal(t, "trapezoidal", TrapezoidalMethod.String())
	require.Equal(t, "euler_backward", BackwardEulerMethod.String())
	require.Equal(t, "euler_forward", ForwardEulerMethod.String())
	require.Equal(t, "IntegrationMethod(9)", IntegrationMethod(9).String())
}

func TestCompanionConductance(t *testing.T) {
	require.InDelta(t, 5e-4, InductorConductance(TrapezoidalMethod, 1e-3, 1e-6), 1e-18)
	require.InDelta(t, 1e-3, InductorConductance(BackwardEulerMethod, 1e-3, 1e-6), 1e-18)
	require.InDelta(t, 2.0, CapacitorConductance(TrapezoidalMethod, 1e-6, 1e-6), 1e-12)
	require.InDelta(t, 1.0, CapacitorConductance(BackwardEulerMethod, 1e-6, 1e-6), 1e-12)
	require.Equal(t, GetIntegratorCoeff(BackwardEulerMethod, 0.5), GetIntegratorCoeff(ForwardEulerMethod, 0.5))
}

func TestFormatValueFactor(t *testing.T) {
	tests := []struct {
		value float64
		want  string
	}{
		{0, "0.000 V"},
		{2.5e6, "2.500 MV"},
		{1500, "1.500 kV"},
		{5, "5.000 V"},
		{-0.25, "-250.000 mV"},
		{3.3e-6, "3.300 uV"},
		{4e-9, "4.000 nV"},
		{7e-12, "7.000 pV"},
		{1e-15, "1.000e-15 V"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, FormatValueFactor(tt.value, "V"))
	}
}

func TestFormatMagnitude(t *testing.T) {
	require.Equal(t, "     inf", FormatMagnitude(math.Inf(1)))
	require.Equal(t, "1.00e+03", FormatMagnitude(1000))
	require.Equal(t, "5.43e-05", FormatMagnitude(5.43e-5))
	require.Equal(t, "       0", FormatMagnitude(0))
}

func TestFormatPercent(t *testing.T) {
	require.Equal(t, "   -   ", FormatPercent(1, 0))
	require.Equal(t, " 50.00%", FormatPercent(2, 4))
	require.Equal(t, "100.00%", FormatPercent(9, 9))
}
