package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/edp1096/lblmc-codegen/internal/config"
	"github.com/edp1096/lblmc-codegen/pkg/circuit"
	"github.com/edp1096/lblmc-codegen/pkg/netlist"
)

var rootCmd = &cobra.Command{
	Use:   "lblmc",
	Short: "Generate LB-LMC simulation engines from netlists",
	Long: `lblmc compiles a network of companion-model components into one
straight-line C++ function that advances the network by one time step.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default .lblmc.yaml)")
	pf.BoolP("verbose", "v", false, "verbose output")
	pf.Float64("zero-bound", 0, "prune inverse entries with magnitude at or below this bound")
	pf.String("inversion", "", "inversion method: gauss-jordan or sparse-lu")
	pf.Bool("fixed-point", false, "declare real as ap_fixed (Xilinx HLS only)")
	pf.Bool("hls", false, "emit Xilinx HLS annotations")
	pf.Bool("io-outputs", false, "expose component output signals as parameters")

	_ = viper.BindPFlag("verbose", pf.Lookup("verbose"))
	_ = viper.BindPFlag("zero_bound", pf.Lookup("zero-bound"))
	_ = viper.BindPFlag("inversion", pf.Lookup("inversion"))
	_ = viper.BindPFlag("fixed_point.enable", pf.Lookup("fixed-point"))
	_ = viper.BindPFlag("xilinx_hls.enable", pf.Lookup("hls"))
	_ = viper.BindPFlag("io_signal_output", pf.Lookup("io-outputs"))
}

func initConfig() {
	if cfgFile, _ := rootCmd.Flags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".lblmc")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
	}

	viper.SetEnvPrefix("LBLMC")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// It's fine if no config file is found; we use defaults.
	_ = viper.ReadInConfig()
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// network is a loaded netlist together with its stamped-ready circuit.
type network struct {
	cfg       config.Config
	data      *netlist.NetlistData
	ckt       *circuit.Circuit
	zeroBound float64
	log       *slog.Logger
}

// loadNetwork reads path and builds its circuit under the current
// configuration. A zero bound given on the command line wins over the
// netlist's own zero_bound option.
func loadNetwork(cmd *cobra.Command, path string) (*network, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger := newLogger(cfg.Verbose)

	data, err := netlist.Load(path)
	if err != nil {
		return nil, err
	}

	opts, err := cfg.EngineOptions(logger)
	if err != nil {
		return nil, err
	}
	ckt, err := circuit.FromNetlist(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	zeroBound := cfg.ZeroBound
	if !cmd.Flags().Changed("zero-bound") {
		if zeroBound, err = data.ZeroBound(cfg.ZeroBound); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	logger.Debug("network loaded", "file", path, "model", ckt.Name(),
		"nodes", ckt.NumSolutions(), "components", ckt.NumComponents())
	return &network{cfg: cfg, data: data, ckt: ckt, zeroBound: zeroBound, log: logger}, nil
}

// defaultOutput is <model>_simulationEngine.hpp.
func defaultOutput(model string) string {
	return model + "_simulationEngine.hpp"
}
