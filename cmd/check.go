package main

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"

	"github.com/edp1096/lblmc-codegen/pkg/analysis"
	"github.com/edp1096/lblmc-codegen/pkg/util"
)

// inverseTolerance bounds the disagreement accepted between the two
// inversion methods.
const inverseTolerance = 1e-9

var checkCmd = &cobra.Command{
	Use:   "check <netlist>",
	Short: "Replay the generated engine and report on its numerics",
	Long: `Builds the engine of a netlist and runs it step by step without a C
compiler. Reports the final node voltages, whether they settled, how far the
Gauss-Jordan and sparse LU inverses disagree, and how much two networks
sharing the engine's static state drift from running alone.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().Int("steps", 0, "time steps to replay (default from .tran, else 1000)")
	checkCmd.Flags().StringToString("input", nil, "engine input values, e.g. sw_S1=1")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	steps, _ := cmd.Flags().GetInt("steps")
	rawInputs, _ := cmd.Flags().GetStringToString("input")

	inputs, err := parseInputs(rawInputs)
	if err != nil {
		return err
	}
	nw, err := loadNetwork(cmd, args[0])
	if err != nil {
		return err
	}

	tStep := nw.data.TranParam.TStep
	if tStep <= 0 {
		tStep = 1
	}
	if steps <= 0 {
		steps = 1000
		if nw.data.TranParam.TStop >= tStep {
			steps = int(math.Round(nw.data.TranParam.TStop / tStep))
		}
	}

	tran := analysis.NewTransient(tStep, float64(steps)*tStep, nw.zeroBound)
	for name, v := range inputs {
		tran.Inputs[name] = v
	}
	if err := tran.Setup(nw.ckt); err != nil {
		return err
	}
	if err := tran.Execute(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, styleTitle.Render(fmt.Sprintf("%s after %d steps of %s",
		nw.ckt.Name(), steps, util.FormatValueFactor(tStep, "s"))))

	t := newTable("node", "voltage")
	names := nw.ckt.NodeNames()
	for i, v := range tran.Final() {
		t.Row(names[i+1], util.FormatValueFactor(v, "V"))
	}
	fmt.Fprintln(out, t.Render())

	if outputs := finalOutputs(tran.GetResults()); len(outputs) > 0 {
		ot := newTable("output", "value")
		for _, o := range outputs {
			ot.Row(o.name, strconv.FormatFloat(o.value, 'g', 6, 64))
		}
		fmt.Fprintln(out, ot.Render())
	}

	fmt.Fprintln(out, verdict(tran.Settled(), "steady state reached"))

	diff, err := inverseDisagreement(nw)
	if err != nil {
		fmt.Fprintln(out, verdict(false, "inversion: "+err.Error()))
	} else {
		fmt.Fprintln(out, verdict(diff <= inverseTolerance,
			"gauss-jordan and sparse LU inverses agree to "+strconv.FormatFloat(diff, 'g', 3, 64)))
	}

	fn, err := nw.ckt.Engine().BuildFunction(nw.zeroBound)
	if err != nil {
		return err
	}
	dev, err := analysis.SharedStateDeviation(fn, tran.Inputs, tran.Inputs, min(steps, 100))
	if err != nil {
		return err
	}
	fmt.Fprintln(out, verdict(dev == 0, fmt.Sprintf(
		"two networks sharing the engine drift by %s %s", util.FormatMagnitude(dev),
		styleLabel.Render("(the engine keeps static state, one network per instance)"))))
	return nil
}

// inverseDisagreement is the largest elementwise difference between the
// Gauss-Jordan and sparse LU inverses of the stamped matrix.
func inverseDisagreement(nw *network) (float64, error) {
	gj := nw.ckt.Engine().Admittance()
	lu := gj.Clone()
	if err := gj.InvertSelf(); err != nil {
		return 0, err
	}
	if err := lu.InvertSelfSparse(); err != nil {
		return 0, err
	}
	return floats.Distance(gj.RawData(), lu.RawData(), math.Inf(1)), nil
}

type namedValue struct {
	name  string
	value float64
}

// finalOutputs picks the last value of every declared output signal.
func finalOutputs(results map[string][]float64) []namedValue {
	var outputs []namedValue
	for name, values := range results {
		if name == "TIME" || len(values) == 0 || strings.HasPrefix(name, "V(") {
			continue
		}
		outputs = append(outputs, namedValue{name: name, value: values[len(values)-1]})
	}
	sort.Slice(outputs, func(i, j int) bool { return outputs[i].name < outputs[j].name })
	return outputs
}
