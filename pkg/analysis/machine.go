package analysis

import (
	"fmt"

	"github.com/edp1096/lblmc-codegen/pkg/ccode"
	"github.com/edp1096/lblmc-codegen/pkg/errs"
)

type variable struct {
	dims []int
	data []float64
}

func newVariable(dims []int) *variable {
	n := 1
	for _, d := range dims {
		n *= d
	}
	return &variable{dims: append([]int(nil), dims...), data: make([]float64, n)}
}

func (v *variable) offset(name string, subs []int) (int, error) {
	if len(subs) != len(v.dims) {
		return 0, fmt.Errorf("%s: %d subscripts for %d dimensions: %w", name, len(subs), len(v.dims), errs.ErrInvalidArgument)
	}
	off := 0
	for k, s := range subs {
		if s < 0 || s >= v.dims[k] {
			return 0, fmt.Errorf("%s: subscript %d outside 0..%d: %w", name, s, v.dims[k]-1, errs.ErrInvalidArgument)
		}
		off = off*v.dims[k] + s
	}
	return off, nil
}

// Machine executes an emitted engine function. Static declarations are
// initialised on the first call and keep their values across calls, as
// they do in the compiled artifact; everything else lives for one call.
//
// Booleans are held as 0 and 1.
type Machine struct {
	fn          *ccode.Function
	statics     map[string]*variable
	initialized bool
}

// Step is the result of one call.
type Step struct {
	XOut    []float64
	Outputs map[string]float64
}

func NewMachine(fn *ccode.Function) (*Machine, error) {
	if fn == nil {
		return nil, fmt.Errorf("nil engine function: %w", errs.ErrInvalidArgument)
	}
	return &Machine{fn: fn, statics: make(map[string]*variable)}, nil
}

// Init runs the static declarations once. Call does this itself; it is
// exported so state can be preset before the first step.
func (m *Machine) Init() error {
	if m.initialized {
		return nil
	}

	env := &frame{m: m, locals: make(map[string]*variable)}
	for _, s := range m.fn.Body {
		d, ok := s.(ccode.Decl)
		if !ok || d.Storage == ccode.Auto {
			continue
		}
		if err := env.declare(d, m.statics); err != nil {
			return err
		}
	}

	m.initialized = true
	return nil
}

// Call runs the function body once. inputs supplies every non-output
// parameter; x_out and the output pointers are provided by the machine.
func (m *Machine) Call(inputs map[string]float64) (Step, error) {
	if err := m.Init(); err != nil {
		return Step{}, err
	}

	env := &frame{m: m, locals: make(map[string]*variable)}

	var outLen int
	var outputs []string
	for _, p := range m.fn.Params {
		switch {
		case p.Len > 0:
			env.locals[p.Name] = newVariable([]int{p.Len})
			outLen = p.Len
		case p.Pointer:
			env.locals[p.Name] = newVariable(nil)
			outputs = append(outputs, p.Name)
		default:
			v, ok := inputs[p.Name]
			if !ok {
				return Step{}, fmt.Errorf("missing input %s: %w", p.Name, errs.ErrInvalidArgument)
			}
			in := newVariable(nil)
			in.data[0] = v
			env.locals[p.Name] = in
		}
	}

	for _, s := range m.fn.Body {
		if err := env.exec(s); err != nil {
			return Step{}, err
		}
	}

	step := Step{Outputs: make(map[string]float64, len(outputs))}
	if xout, ok := env.locals["x_out"]; ok {
		step.XOut = append([]float64(nil), xout.data...)
	} else {
		step.XOut = make([]float64, outLen)
	}
	for _, name := range outputs {
		step.Outputs[name] = env.locals[name].data[0]
	}
	return step, nil
}

// Get reads a static variable.
func (m *Machine) Get(name string, subs ...int) (float64, error) {
	v, ok := m.statics[name]
	if !ok {
		return 0, fmt.Errorf("no static variable %s: %w", name, errs.ErrInvalidArgument)
	}
	off, err := v.offset(name, subs)
	if err != nil {
		return 0, err
	}
	return v.data[off], nil
}

// Set overwrites a static variable, initialising the machine first.
func (m *Machine) Set(name string, value float64, subs ...int) error {
	if err := m.Init(); err != nil {
		return err
	}
	v, ok := m.statics[name]
	if !ok {
		return fmt.Errorf("no static variable %s: %w", name, errs.ErrInvalidArgument)
	}
	off, err := v.offset(name, subs)
	if err != nil {
		return err
	}
	v.data[off] = value
	return nil
}

type frame struct {
	m      *Machine
	locals map[string]*variable
}

func (f *frame) lookup(name string) (*variable, error) {
	if v, ok := f.locals[name]; ok {
		return v, nil
	}
	if v, ok := f.m.statics[name]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("undeclared identifier %s: %w", name, errs.ErrInvalidArgument)
}

func (f *frame) declare(d ccode.Decl, scope map[string]*variable) error {
	v := newVariable(d.Dims)
	switch {
	case d.Init != nil:
		val, err := f.eval(d.Init)
		if err != nil {
			return fmt.Errorf("initialising %s: %w", d.Name, err)
		}
		v.data[0] = val
	case d.Values != nil:
		if len(d.Values) != len(v.data) {
			return fmt.Errorf("%s: %d initialisers for %d elements: %w", d.Name, len(d.Values), len(v.data), errs.ErrInvalidArgument)
		}
		copy(v.data, d.Values)
	}
	scope[d.Name] = v
	return nil
}

func (f *frame) exec(s ccode.Stmt) error {
	switch s := s.(type) {
	case ccode.Decl:
		if s.Storage != ccode.Auto {
			return nil
		}
		return f.declare(s, f.locals)
	case ccode.Assign:
		val, err := f.eval(s.RHS)
		if err != nil {
			return err
		}
		return f.store(s.LHS, val)
	}
	return nil
}

func (f *frame) store(lhs ccode.Expr, val float64) error {
	switch l := lhs.(type) {
	case ccode.Ident:
		v, err := f.lookup(string(l))
		if err != nil {
			return err
		}
		v.data[0] = val
	case ccode.Deref:
		v, err := f.lookup(string(l))
		if err != nil {
			return err
		}
		v.data[0] = val
	case ccode.Index:
		v, err := f.lookup(l.Name)
		if err != nil {
			return err
		}
		off, err := v.offset(l.Name, l.Subs)
		if err != nil {
			return err
		}
		v.data[off] = val
	default:
		return fmt.Errorf("expression %s is not assignable: %w", ccode.RenderExpr(lhs), errs.ErrInvalidArgument)
	}
	return nil
}

func (f *frame) eval(e ccode.Expr) (float64, error) {
	switch e := e.(type) {
	case ccode.Number:
		return float64(e), nil
	case ccode.Boolean:
		if e {
			return 1, nil
		}
		return 0, nil
	case ccode.Ident:
		v, err := f.lookup(string(e))
		if err != nil {
			return 0, err
		}
		return v.data[0], nil
	case ccode.Deref:
		v, err := f.lookup(string(e))
		if err != nil {
			return 0, err
		}
		return v.data[0], nil
	case ccode.Index:
		v, err := f.lookup(e.Name)
		if err != nil {
			return 0, err
		}
		off, err := v.offset(e.Name, e.Subs)
		if err != nil {
			return 0, err
		}
		return v.data[off], nil
	case ccode.Neg:
		x, err := f.eval(e.X)
		return -x, err
	case ccode.Binary:
		x, err := f.eval(e.X)
		if err != nil {
			return 0, err
		}
		y, err := f.eval(e.Y)
		if err != nil {
			return 0, err
		}
		switch e.Op {
		case ccode.Add:
			return x + y, nil
		case ccode.Sub:
			return x - y, nil
		default:
			return x * y, nil
		}
	case ccode.Select:
		c, err := f.eval(e.Cond)
		if err != nil {
			return 0, err
		}
		if c != 0 {
			return f.eval(e.Then)
		}
		return f.eval(e.Else)
	}
	return 0, fmt.Errorf("unsupported expression %T: %w", e, errs.ErrInvalidArgument)
}
