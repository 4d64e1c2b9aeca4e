package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/edp1096/lblmc-codegen/pkg/codegen"
	"github.com/edp1096/lblmc-codegen/pkg/errs"
)

// resetViper clears all viper state between tests to avoid cross-contamination.
func resetViper() {
	viper.Reset()
}

func TestLoad_Defaults(t *testing.T) {
	resetViper()

	cfg, err := Load()
	require.NoError(t, err)

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"ZeroBound", cfg.ZeroBound, 1e-12},
		{"Inversion", cfg.Inversion, "gauss-jordan"},
		{"IOSignalOutput", cfg.IOSignalOutput, false},
		{"Output", cfg.Output, ""},
		{"FixedPoint.Enable", cfg.FixedPoint.Enable, false},
		{"FixedPoint.WordWidth", cfg.FixedPoint.WordWidth, 32},
		{"FixedPoint.IntWidth", cfg.FixedPoint.IntWidth, 16},
		{"HLS.Enable", cfg.HLS.Enable, false},
		{"HLS.ClockPeriod", cfg.HLS.ClockPeriod, 10.0},
		{"Watch.Debounce", cfg.Watch.Debounce, 200 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.got)
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	tests := []struct {
		name   string
		envKey string
		envVal string
		field  func(Config) any
		want   any
	}{
		{
			name:   "zero_bound",
			envKey: "LBLMC_ZERO_BOUND",
			envVal: "1e-6",
			field:  func(c Config) any { return c.ZeroBound },
			want:   1e-6,
		},
		{
			name:   "inversion",
			envKey: "LBLMC_INVERSION",
			envVal: "sparse-lu",
			field:  func(c Config) any { return c.Inversion },
			want:   "sparse-lu",
		},
		{
			name:   "fixed_point_word_width",
			envKey: "LBLMC_FIXED_POINT_WORD_WIDTH",
			envVal: "24",
			field:  func(c Config) any { return c.FixedPoint.WordWidth },
			want:   24,
		},
		{
			name:   "hls_enable",
			envKey: "LBLMC_XILINX_HLS_ENABLE",
			envVal: "true",
			field:  func(c Config) any { return c.HLS.Enable },
			want:   true,
		},
		{
			name:   "watch_debounce",
			envKey: "LBLMC_WATCH_DEBOUNCE",
			envVal: "1s",
			field:  func(c Config) any { return c.Watch.Debounce },
			want:   time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetViper()
			viper.SetEnvPrefix("LBLMC")
			viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
			viper.AutomaticEnv()

			os.Setenv(tt.envKey, tt.envVal)
			defer os.Unsetenv(tt.envKey)

			cfg, err := Load()
			require.NoError(t, err)
			require.Equal(t, tt.want, tt.field(cfg))
		})
	}
}

func TestLoad_NegativeZeroBound(t *testing.T) {
	resetViper()
	viper.Set("zero_bound", -1.0)

	_, err := Load()
	require.Error(t, err)
}

func TestEngineOptions(t *testing.T) {
	resetViper()
	viper.Set("inversion", "sparse-lu")
	viper.Set("fixed_point.enable", true)
	viper.Set("xilinx_hls.enable", true)
	viper.Set("xilinx_hls.latency_enable", true)
	viper.Set("xilinx_hls.latency_min", 2)
	viper.Set("xilinx_hls.latency_max", 8)

	cfg, err := Load()
	require.NoError(t, err)

	options, err := cfg.EngineOptions(nil)
	require.NoError(t, err)

	opts := codegen.DefaultOptions()
	for _, o := range options {
		o(&opts)
	}
	require.Equal(t, codegen.SparseLU, opts.InversionMethod)
	require.True(t, opts.FixedPointEnable)
	require.True(t, opts.XilinxHLSEnable)
	require.True(t, opts.XilinxHLSLatencyEnable)
	require.Equal(t, 2, opts.XilinxHLSLatencyMin)
	require.Equal(t, 8, opts.XilinxHLSLatencyMax)
	require.NotNil(t, opts.Logger)
}

func TestEngineOptions_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
	}{
		{"unknown inversion", "inversion", "cholesky"},
		{"int width above word width", "fixed_point.int_width", 40},
		{"latency max below min", "xilinx_hls.latency_min", 5},
		{"zero clock period", "xilinx_hls.clock_period", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetViper()
			viper.Set(tt.key, tt.val)

			cfg, err := Load()
			require.NoError(t, err)

			_, err = cfg.EngineOptions(nil)
			require.ErrorIs(t, err, errs.ErrInvalidArgument)
		})
	}
}
