package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var generateCmd = &cobra.Command{
	Use:   "generate <netlist>",
	Short: "Emit the simulation engine of a netlist",
	Long: `Reads a SPICE-style (.cir, .net) or TOML (.toml) netlist and writes the
translation unit holding <model>_simulationEngine.

With --output -, the unit is printed instead of written.`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringP("output", "o", "", "output file (default <model>_simulationEngine.hpp)")
	_ = viper.BindPFlag("output", generateCmd.Flags().Lookup("output"))
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	nw, err := loadNetwork(cmd, args[0])
	if err != nil {
		return err
	}
	return generate(cmd, nw)
}

func generate(cmd *cobra.Command, nw *network) error {
	if err := nw.ckt.SetupSolverCodeGenerator(); err != nil {
		return err
	}

	output := nw.cfg.Output
	if output == "-" {
		unit, err := nw.ckt.GenerateTranslationUnit(nw.zeroBound)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), unit)
		return nil
	}
	if output == "" {
		output = defaultOutput(nw.ckt.Name())
	}

	if err := nw.ckt.GenerateSolverCodeAndExport(output, nw.zeroBound); err != nil {
		return err
	}

	engine := nw.ckt.Engine()
	solver, err := engine.Solver(nw.zeroBound)
	if err != nil {
		return err
	}
	stats := solver.Stats()
	fmt.Fprintf(cmd.ErrOrStderr(), "%s %s: %d nodes, %d sources, %d/%d solve terms kept\n",
		styleOK.Render(iconOK), output, engine.Size(), engine.NumSources(), stats.Kept, stats.Total)
	return nil
}
