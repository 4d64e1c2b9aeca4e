package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/viper"

	"github.com/edp1096/lblmc-codegen/internal/consts"
	"github.com/edp1096/lblmc-codegen/pkg/codegen"
)

type FixedPointConfig struct {
	Enable    bool `mapstructure:"enable"`
	WordWidth int  `mapstructure:"word_width"`
	IntWidth  int  `mapstructure:"int_width"`
}

type HLSConfig struct {
	Enable        bool    `mapstructure:"enable"`
	Inline        bool    `mapstructure:"inline"`
	LatencyEnable bool    `mapstructure:"latency_enable"`
	LatencyMin    int     `mapstructure:"latency_min"`
	LatencyMax    int     `mapstructure:"latency_max"`
	ClockPeriod   float64 `mapstructure:"clock_period"`
}

type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// Config holds the generator settings.
// Values are populated from .lblmc.yaml, LBLMC_* env vars, and CLI flags.
type Config struct {
	ZeroBound      float64          `mapstructure:"zero_bound"`
	Inversion      string           `mapstructure:"inversion"`
	IOSignalOutput bool             `mapstructure:"io_signal_output"`
	Output         string           `mapstructure:"output"`
	Verbose        bool             `mapstructure:"verbose"`
	FixedPoint     FixedPointConfig `mapstructure:"fixed_point"`
	HLS            HLSConfig        `mapstructure:"xilinx_hls"`
	Watch          WatchConfig      `mapstructure:"watch"`
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() (Config, error) {
	viper.SetDefault("zero_bound", consts.DefaultZeroBound)
	viper.SetDefault("inversion", string(codegen.GaussJordan))
	viper.SetDefault("io_signal_output", false)
	viper.SetDefault("output", "")
	viper.SetDefault("verbose", false)
	viper.SetDefault("fixed_point.enable", false)
	viper.SetDefault("fixed_point.word_width", 32)
	viper.SetDefault("fixed_point.int_width", 16)
	viper.SetDefault("xilinx_hls.enable", false)
	viper.SetDefault("xilinx_hls.inline", false)
	viper.SetDefault("xilinx_hls.latency_enable", false)
	viper.SetDefault("xilinx_hls.latency_min", 0)
	viper.SetDefault("xilinx_hls.latency_max", 0)
	viper.SetDefault("xilinx_hls.clock_period", 10.0)
	viper.SetDefault("watch.debounce", 200*time.Millisecond)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding configuration: %w", err)
	}
	if cfg.ZeroBound < 0 {
		return Config{}, fmt.Errorf("zero_bound %g must not be negative", cfg.ZeroBound)
	}
	return cfg, nil
}

// EngineOptions translates the configuration into engine options.
func (c Config) EngineOptions(logger *slog.Logger) ([]codegen.Option, error) {
	method, err := codegen.ParseInversionMethod(c.Inversion)
	if err != nil {
		return nil, err
	}

	opts := codegen.DefaultOptions()
	opts.FixedPointEnable = c.FixedPoint.Enable
	opts.FixedPointWordWidth = c.FixedPoint.WordWidth
	opts.FixedPointIntWidth = c.FixedPoint.IntWidth
	opts.XilinxHLSEnable = c.HLS.Enable
	opts.XilinxHLSInline = c.HLS.Inline
	opts.XilinxHLSLatencyEnable = c.HLS.LatencyEnable
	opts.XilinxHLSLatencyMin = c.HLS.LatencyMin
	opts.XilinxHLSLatencyMax = c.HLS.LatencyMax
	opts.XilinxHLSClockPeriod = c.HLS.ClockPeriod
	opts.IOSignalOutputEnable = c.IOSignalOutput
	opts.InversionMethod = method
	opts.Logger = logger

	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return []codegen.Option{codegen.WithOptions(opts)}, nil
}
