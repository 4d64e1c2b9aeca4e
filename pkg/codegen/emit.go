package codegen

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/edp1096/lblmc-codegen/internal/consts"
	"github.com/edp1096/lblmc-codegen/pkg/ccode"
	"github.com/edp1096/lblmc-codegen/pkg/errs"
)

// FunctionName is the name of the emitted engine of model.
func FunctionName(model string) string {
	return model + consts.EngineSuffix
}

// Solver builds the pruned solve for the stamped network.
func (e *Engine) Solver(zeroBound float64) (*Solver, error) {
	switch e.stage {
	case Configured:
		return nil, fmt.Errorf("model %s has no stamped component: %w", e.name, errs.ErrInconsistentModel)
	case Failed:
		return nil, fmt.Errorf("model %s holds a partial network after a failed stamp: %w", e.name, errs.ErrInconsistentModel)
	}

	inv, err := e.Inverse()
	if err != nil {
		return nil, err
	}
	return NewSolver(inv.RawData(), e.size, zeroBound)
}

// BuildFunction assembles the engine function. The body runs, in order:
// platform pragmas, parameters, fields, solution declarations, the inverse
// literal, component updates, output updates, source aggregation, the
// pruned solve and the copy into x_out.
func (e *Engine) BuildFunction(zeroBound float64) (*ccode.Function, error) {
	solver, err := e.Solver(zeroBound)
	if err != nil {
		return nil, err
	}
	inv, err := e.Inverse()
	if err != nil {
		return nil, err
	}

	var body ccode.Block

	if e.opts.XilinxHLSEnable {
		body = append(body, ccode.Comment("clock period="+strconv.FormatFloat(e.opts.XilinxHLSClockPeriod, 'g', -1, 64)))
		if e.opts.XilinxHLSInline {
			body = append(body, ccode.Directive("#pragma HLS inline"))
		}
		if e.opts.XilinxHLSLatencyEnable {
			body = append(body, ccode.Directive(fmt.Sprintf("#pragma HLS latency min=%d max=%d",
				e.opts.XilinxHLSLatencyMin, e.opts.XilinxHLSLatencyMax)))
		}
		body = append(body, ccode.Blank{})
	}

	body = appendSection(body, "model parameters", e.parameters)
	body = appendSection(body, "component fields and states", e.fields)

	body = append(body, ccode.Comment("model solutions"), ccode.Blank{},
		ccode.Decl{Storage: ccode.Static, Type: consts.RealType, Name: consts.SourceVector, Dims: []int{e.size}},
		ccode.Decl{Storage: ccode.Static, Type: consts.RealType, Name: consts.SolutionVector, Dims: []int{e.size + 1}},
	)
	if n := e.sources.NumSources(); n > 0 {
		body = append(body, ccode.Decl{Type: consts.RealType, Name: consts.ComponentSources, Dims: []int{n}})
	}
	body = append(body, ccode.Blank{})

	body = append(body, ccode.Comment("inverted conductance matrix"), ccode.Blank{},
		inv.Literal(consts.InverseMatrix), ccode.Blank{})

	body = appendSection(body, "component source contribution updates", e.updates)
	if e.opts.IOSignalOutputEnable {
		body = appendSection(body, "model output signal updates", e.outputsUpdate)
	}

	body = append(body, ccode.Comment("aggregate component source contributions"), ccode.Blank{})
	body = append(body, e.sources.Aggregate()...)
	body = append(body, ccode.Blank{})

	body = append(body, ccode.Comment("model update solutions"), ccode.Blank{})
	body = append(body, solver.Block(consts.InverseMatrix)...)
	body = append(body, ccode.Blank{})

	for i := 0; i < e.size; i++ {
		body = append(body, ccode.Assign{
			LHS: ccode.At(consts.OutputVector, i),
			RHS: ccode.At(consts.SolutionVector, i+1),
		})
	}

	fn := &ccode.Function{
		Name:   FunctionName(e.name),
		Params: e.params(),
		Body:   body,
	}

	e.stage = Emitted

	st := solver.Stats()
	e.log.Info("simulation engine built",
		"model", e.name,
		"components", e.components,
		"sources", e.sources.NumSources(),
		"terms", st.Kept,
		"pruned", st.Pruned,
	)
	return fn, nil
}

func appendSection(body ccode.Block, title string, fragments []ccode.Block) ccode.Block {
	body = append(body, ccode.Comment(title), ccode.Blank{})
	for _, f := range fragments {
		body = append(body, f...)
		body = append(body, ccode.Blank{})
	}
	return body
}

// params is x_out, then outputs when output signals are enabled, then inputs.
func (e *Engine) params() []ccode.Param {
	params := []ccode.Param{{Type: consts.RealType, Name: consts.OutputVector, Len: e.size}}
	if e.opts.IOSignalOutputEnable {
		params = append(params, e.outputs...)
	}
	return append(params, e.inputs...)
}

// GenerateFunction renders the engine function definition.
func (e *Engine) GenerateFunction(zeroBound float64) (string, error) {
	fn, err := e.BuildFunction(zeroBound)
	if err != nil {
		return "", err
	}
	return fn.String(), nil
}

// GenerateTranslationUnit renders the complete header: banner, include
// guard, the real typedef and the inline engine function.
func (e *Engine) GenerateTranslationUnit(zeroBound float64) (string, error) {
	fn, err := e.GenerateFunction(zeroBound)
	if err != nil {
		return "", err
	}

	guard := e.name + consts.GuardSuffix

	var sb strings.Builder
	sb.WriteString("/**\n")
	sb.WriteString(" *\n")
	fmt.Fprintf(&sb, " * LB-LMC simulation engine for model %s\n", e.name)
	sb.WriteString(" *\n")
	sb.WriteString(" * Generated by lblmc-codegen. All engine state lives in static variables,\n")
	sb.WriteString(" * so this function simulates exactly one network instance and must not be\n")
	sb.WriteString(" * called concurrently.\n")
	sb.WriteString(" *\n")
	sb.WriteString(" */\n\n")

	fmt.Fprintf(&sb, "#ifndef %s\n", guard)
	fmt.Fprintf(&sb, "#define %s\n", guard)
	sb.WriteString("\n\n")

	sb.WriteString(e.typedef())
	sb.WriteString("\n")

	sb.WriteString("inline\n")
	sb.WriteString(fn)
	sb.WriteString("\n\n")

	sb.WriteString("\n#endif\n")
	return sb.String(), nil
}

func (e *Engine) typedef() string {
	switch {
	case e.opts.FixedPointEnable && e.opts.XilinxHLSEnable:
		return fmt.Sprintf("#include <ap_fixed.h>\ntypedef ap_fixed<%d, %d, AP_RND> %s;\n",
			e.opts.FixedPointWordWidth, e.opts.FixedPointIntWidth, consts.RealType)
	case e.opts.FixedPointEnable:
		return "//fixed point is only available with Xilinx HLS, falling back to double\n" +
			"typedef double " + consts.RealType + ";\n"
	default:
		return "typedef double " + consts.RealType + ";\n"
	}
}

// GenerateAndExport writes the translation unit to filename. The file is
// only created once the unit has been generated.
func (e *Engine) GenerateAndExport(filename string, zeroBound float64) (err error) {
	if strings.TrimSpace(filename) == "" {
		return fmt.Errorf("export of model %s: empty filename: %w", e.name, errs.ErrInvalidArgument)
	}

	unit, err := e.GenerateTranslationUnit(zeroBound)
	if err != nil {
		return err
	}

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("%w: creating %s: %w", errs.ErrIO, filename, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: closing %s: %w", errs.ErrIO, filename, cerr)
		}
	}()

	if _, err = io.WriteString(f, unit); err != nil {
		return fmt.Errorf("%w: writing %s: %w", errs.ErrIO, filename, err)
	}

	e.log.Info("simulation engine exported", "model", e.name, "file", filename, "bytes", len(unit))
	return nil
}
