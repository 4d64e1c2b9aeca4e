package main

import (
	"fmt"
	"math"
	"strconv"

	"github.com/spf13/cobra"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/edp1096/lblmc-codegen/pkg/analysis"
	"github.com/edp1096/lblmc-codegen/pkg/util"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep <netlist>",
	Short: "Trade solve terms against accuracy over a range of zero bounds",
	Long: `Builds the engine at every zero bound, counts the multiply-add terms
the pruned solve keeps and replays it against the unpruned engine.

With --plot, the kept terms are also drawn against the bound.`,
	Args: cobra.ExactArgs(1),
	RunE: runSweep,
}

func init() {
	sweepCmd.Flags().Float64Slice("bounds", []float64{0, 1e-12, 1e-9, 1e-6, 1e-3, 1e-1}, "zero bounds to try")
	sweepCmd.Flags().Int("steps", 200, "time steps replayed per bound")
	sweepCmd.Flags().StringToString("input", nil, "engine input values, e.g. sw_S1=1")
	sweepCmd.Flags().String("plot", "", "write a kept-terms plot (png, svg or pdf)")
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	bounds, _ := cmd.Flags().GetFloat64Slice("bounds")
	steps, _ := cmd.Flags().GetInt("steps")
	rawInputs, _ := cmd.Flags().GetStringToString("input")
	plotFile, _ := cmd.Flags().GetString("plot")

	inputs, err := parseInputs(rawInputs)
	if err != nil {
		return err
	}
	nw, err := loadNetwork(cmd, args[0])
	if err != nil {
		return err
	}

	sweep := analysis.NewPruningSweep(bounds, steps)
	sweep.Inputs = inputs
	if err := sweep.Setup(nw.ckt); err != nil {
		return err
	}
	if err := sweep.Execute(); err != nil {
		return err
	}

	points := sweep.Points()
	t := newTable("zero bound", "kept", "pruned", "kept %", "max deviation")
	for _, p := range points {
		t.Row(
			strconv.FormatFloat(p.ZeroBound, 'g', 3, 64),
			strconv.Itoa(p.Stats.Kept),
			strconv.Itoa(p.Stats.Pruned),
			util.FormatPercent(p.Stats.Kept, p.Stats.Total),
			util.FormatMagnitude(p.MaxDeviation),
		)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, styleTitle.Render(fmt.Sprintf("%s: %d nodes, %d steps", nw.ckt.Name(), nw.ckt.NumSolutions(), steps)))
	fmt.Fprintln(out, t.Render())

	if plotFile != "" {
		if err := plotSweep(plotFile, nw.ckt.Name(), points); err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), verdict(true, "plot written to "+plotFile))
	}
	return nil
}

// plotSweep draws kept terms over log10 of the zero bound. A zero bound has
// no logarithm and is left out.
func plotSweep(path, model string, points []analysis.SweepPoint) error {
	var pts plotter.XYs
	for _, p := range points {
		if p.ZeroBound <= 0 {
			continue
		}
		pts = append(pts, plotter.XY{X: math.Log10(p.ZeroBound), Y: float64(p.Stats.Kept)})
	}
	if len(pts) == 0 {
		return fmt.Errorf("plot %s: no positive zero bound to draw", path)
	}

	p := plot.New()
	p.Title.Text = model + " solve terms"
	p.X.Label.Text = "log10(zero bound)"
	p.Y.Label.Text = "kept terms"
	p.Add(plotter.NewGrid())

	if err := plotutil.AddLinePoints(p, "kept", pts); err != nil {
		return fmt.Errorf("plot %s: %w", path, err)
	}
	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("plot %s: %w", path, err)
	}
	return nil
}

func parseInputs(raw map[string]string) (map[string]float64, error) {
	inputs := make(map[string]float64, len(raw))
	for name, s := range raw {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			switch s {
			case "true", "on":
				v = 1
			case "false", "off":
				v = 0
			default:
				return nil, fmt.Errorf("input %s=%q: %w", name, s, err)
			}
		}
		inputs[name] = v
	}
	return inputs, nil
}
