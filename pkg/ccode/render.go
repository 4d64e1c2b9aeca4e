package ccode

import (
	"strconv"
	"strings"
)

// FormatNumber renders a real literal with 17 significant digits in
// scientific notation so the literal reproduces the float64 exactly.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'e', 16, 64)
}

const (
	precSelect = iota
	precSum
	precProduct
	precUnary
	precAtom
)

func precedence(e Expr) int {
	switch e := e.(type) {
	case Binary:
		if e.Op == Mul {
			return precProduct
		}
		return precSum
	case Neg:
		return precUnary
	case Select:
		return precSelect
	case Number:
		if e < 0 {
			return precUnary
		}
		return precAtom
	default:
		return precAtom
	}
}

// RenderExpr renders e with the minimum parentheses that keep evaluation
// order intact. Right operands of equal precedence are parenthesised since
// floating point addition and multiplication are not associative.
func RenderExpr(e Expr) string {
	var sb strings.Builder
	writeExpr(&sb, e)
	return sb.String()
}

func writeExpr(sb *strings.Builder, e Expr) {
	switch e := e.(type) {
	case Ident:
		sb.WriteString(string(e))
	case Index:
		sb.WriteString(e.Name)
		for _, s := range e.Subs {
			sb.WriteByte('[')
			sb.WriteString(strconv.Itoa(s))
			sb.WriteByte(']')
		}
	case Deref:
		sb.WriteByte('*')
		sb.WriteString(string(e))
	case Number:
		sb.WriteString(FormatNumber(float64(e)))
	case Boolean:
		if e {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case Neg:
		sb.WriteByte('-')
		writeOperand(sb, e.X, precUnary+1)
	case Binary:
		p := precedence(e)
		writeOperand(sb, e.X, p)
		switch e.Op {
		case Mul:
			sb.WriteByte('*')
		default:
			sb.WriteByte(' ')
			sb.WriteString(e.Op.String())
			sb.WriteByte(' ')
		}
		writeOperand(sb, e.Y, p+1)
	case Select:
		sb.WriteByte('(')
		writeOperand(sb, e.Cond, precSum)
		sb.WriteString(" ? ")
		writeOperand(sb, e.Then, precSum)
		sb.WriteString(" : ")
		writeOperand(sb, e.Else, precSum)
		sb.WriteByte(')')
	}
}

func writeOperand(sb *strings.Builder, e Expr, min int) {
	if precedence(e) < min {
		sb.WriteByte('(')
		writeExpr(sb, e)
		sb.WriteByte(')')
		return
	}
	writeExpr(sb, e)
}

// RenderStmt renders one statement without a trailing newline.
func RenderStmt(s Stmt) string {
	var sb strings.Builder
	writeStmt(&sb, s)
	return sb.String()
}

func writeStmt(sb *strings.Builder, s Stmt) {
	switch s := s.(type) {
	case Decl:
		writeDecl(sb, s)
	case Assign:
		writeExpr(sb, s.LHS)
		sb.WriteString(" = ")
		writeExpr(sb, s.RHS)
		sb.WriteByte(';')
	case Comment:
		sb.WriteString("//")
		sb.WriteString(string(s))
	case Directive:
		sb.WriteString(string(s))
	case Blank:
	}
}

func writeDecl(sb *strings.Builder, d Decl) {
	switch d.Storage {
	case Static:
		sb.WriteString("static ")
	case ConstStatic:
		sb.WriteString("const static ")
	}
	sb.WriteString(d.Type)
	sb.WriteByte(' ')
	sb.WriteString(d.Name)
	for _, n := range d.Dims {
		sb.WriteByte('[')
		sb.WriteString(strconv.Itoa(n))
		sb.WriteByte(']')
	}

	switch {
	case d.Init != nil:
		sb.WriteString(" = ")
		writeExpr(sb, d.Init)
	case d.Values != nil && len(d.Dims) == 2:
		rows, cols := d.Dims[0], d.Dims[1]
		sb.WriteString(" =\n{\n")
		for i := 0; i < rows; i++ {
			sb.WriteString("\t{")
			writeList(sb, d.Values[i*cols:(i+1)*cols])
			sb.WriteByte('}')
			if i < rows-1 {
				sb.WriteByte(',')
			}
			sb.WriteByte('\n')
		}
		sb.WriteByte('}')
	case d.Values != nil:
		sb.WriteString(" = {")
		writeList(sb, d.Values)
		sb.WriteByte('}')
	}
	sb.WriteByte(';')
}

func writeList(sb *strings.Builder, values []float64) {
	for i, v := range values {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(FormatNumber(v))
	}
}

// String renders the block, one statement per line.
func (b Block) String() string {
	var sb strings.Builder
	for _, s := range b {
		writeStmt(&sb, s)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// String renders the parameter as it appears in a parameter list.
func (p Param) String() string {
	var sb strings.Builder
	sb.WriteString(p.Type)
	if p.Pointer {
		sb.WriteByte('*')
	}
	sb.WriteByte(' ')
	sb.WriteString(p.Name)
	if p.Len > 0 {
		sb.WriteByte('[')
		sb.WriteString(strconv.Itoa(p.Len))
		sb.WriteByte(']')
	}
	return sb.String()
}

// String renders the full function definition.
func (f *Function) String() string {
	var sb strings.Builder
	sb.WriteString("void ")
	sb.WriteString(f.Name)
	sb.WriteString("\n(\n")
	for i, p := range f.Params {
		if i > 0 {
			sb.WriteString(",\n")
		}
		sb.WriteString(p.String())
	}
	sb.WriteString("\n)\n{\n")
	sb.WriteString(f.Body.String())
	sb.WriteString("}")
	return sb.String()
}
