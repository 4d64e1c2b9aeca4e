// Package ccode holds the structured form of emitted C/C++ code.
//
// Components and the engine build fragments out of these nodes instead of
// text templates, so identifiers are never substituted by scanning strings.
// The renderer in render.go turns a fragment into deterministic text and the
// analysis package replays the very same nodes.
package ccode

// Op is a binary arithmetic operator.
type Op int

const (
	Add Op = iota
	Sub
	Mul
)

func (op Op) String() string {
	switch op {
	case Add:
		return "+"
	case Sub:
		return "-"
	default:
		return "*"
	}
}

// Expr is an expression node.
type Expr interface{ exprNode() }

// Ident is a scalar variable reference.
type Ident string

// Index is an array element reference, e.g. x[1] or inv_g[0][2].
type Index struct {
	Name string
	Subs []int
}

// Deref writes or reads through a pointer parameter, e.g. *l_current_L1.
type Deref string

// Number is a real literal.
type Number float64

// Boolean is a bool literal.
type Boolean bool

// Neg is unary minus.
type Neg struct{ X Expr }

// Binary is X op Y.
type Binary struct {
	Op   Op
	X, Y Expr
}

// Select is the branch-free conditional Cond ? Then : Else.
type Select struct {
	Cond, Then, Else Expr
}

func (Ident) exprNode()   {}
func (Index) exprNode()   {}
func (Deref) exprNode()   {}
func (Number) exprNode()  {}
func (Boolean) exprNode() {}
func (Neg) exprNode()     {}
func (Binary) exprNode()  {}
func (Select) exprNode()  {}

// At builds an Index expression.
func At(name string, subs ...int) Index { return Index{Name: name, Subs: subs} }

func Plus(x, y Expr) Expr  { return Binary{Op: Add, X: x, Y: y} }
func Minus(x, y Expr) Expr { return Binary{Op: Sub, X: x, Y: y} }
func Times(x, y Expr) Expr { return Binary{Op: Mul, X: x, Y: y} }

// Signed is one operand of a signed sum.
type Signed struct {
	Negative bool
	X        Expr
}

// SignedSum folds terms left to right: t0 ± t1 ± t2 ...
// A leading negative term becomes a unary minus. An empty sum is 0.
func SignedSum(terms []Signed) Expr {
	if len(terms) == 0 {
		return Number(0)
	}

	var sum Expr = terms[0].X
	if terms[0].Negative {
		sum = Neg{X: terms[0].X}
	}
	for _, t := range terms[1:] {
		if t.Negative {
			sum = Minus(sum, t.X)
		} else {
			sum = Plus(sum, t.X)
		}
	}
	return sum
}

// Storage is the storage class of a declaration.
type Storage int

const (
	Auto Storage = iota
	Static
	ConstStatic
)

// Stmt is a statement node.
type Stmt interface{ stmtNode() }

// Decl declares a scalar or array. Init initialises a scalar, Values
// initialises an array in row-major order. Both may be absent.
type Decl struct {
	Storage Storage
	Type    string
	Name    string
	Dims    []int
	Init    Expr
	Values  []float64
}

// Assign is LHS = RHS.
type Assign struct {
	LHS, RHS Expr
}

// Comment is a // line comment.
type Comment string

// Directive is a raw preprocessor or tool line such as "#pragma HLS inline".
type Directive string

// Blank is an empty line.
type Blank struct{}

func (Decl) stmtNode()      {}
func (Assign) stmtNode()    {}
func (Comment) stmtNode()   {}
func (Directive) stmtNode() {}
func (Blank) stmtNode()     {}

// Block is an ordered statement list.
type Block []Stmt

// Empty reports whether the block holds no statement that does anything,
// i.e. only comments and blank lines.
func (b Block) Empty() bool {
	for _, s := range b {
		switch s.(type) {
		case Comment, Blank:
		default:
			return false
		}
	}
	return true
}

// Param is one function parameter.
type Param struct {
	Type    string
	Name    string
	Pointer bool
	Len     int // >0 for array parameters
}

// Function is the emitted simulation engine.
type Function struct {
	Name   string
	Params []Param
	Body   Block
}

// Param returns the parameter named name, if any.
func (f *Function) Param(name string) (Param, bool) {
	for _, p := range f.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}
