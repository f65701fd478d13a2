// Package ast defines the syntax tree the inference engine consumes. The tree
// arrives already built (parsing lives in the front end, outside this module);
// nodes are immutable after construction and carry stable IDs suitable for use
// as memoization keys.
package ast

import (
	"fmt"
	"strings"

	"redshank/pkg/diag"
)

// NodeID is a stable identity for a node within one module tree. IDs are dense
// and assigned in construction order; they key the demand-driven query cache.
type NodeID uint32

// Node is the base interface for all AST nodes.
type Node interface {
	ID() NodeID
	Span() diag.Span
	String() string // Returns a string representation of the node (for debugging)
}

// Statement represents a statement node in the AST.
type Statement interface {
	Node
	statementNode() // Dummy method for distinguishing statement types
}

// Expression represents an expression node in the AST.
type Expression interface {
	Node
	expressionNode() // Dummy method for distinguishing expression types
}

// base carries the identity/position shared by every node.
type base struct {
	NodeID   NodeID
	NodeSpan diag.Span
}

func (b *base) ID() NodeID      { return b.NodeID }
func (b *base) Span() diag.Span { return b.NodeSpan }

// --- Module ---

// Module is the root node of a checked file.
type Module struct {
	base
	Name string
	Body []Statement
}

func (m *Module) statementNode() {}
func (m *Module) String() string {
	var out strings.Builder
	for _, s := range m.Body {
		out.WriteString(s.String())
		out.WriteString("\n")
	}
	return out.String()
}

// --- Expressions ---

// Name is an identifier reference.
type Name struct {
	base
	Ident string
}

func (n *Name) expressionNode() {}
func (n *Name) String() string  { return n.Ident }

// Attribute is a dotted access like x.attr.
type Attribute struct {
	base
	Object Expression
	Attr   string
}

func (a *Attribute) expressionNode() {}
func (a *Attribute) String() string  { return a.Object.String() + "." + a.Attr }

// LiteralKind tags the concrete value stored in a Literal.
type LiteralKind int

const (
	LitNone LiteralKind = iota
	LitBool
	LitInt
	LitStr
	LitBytes
)

// Literal is a constant expression: None, True/False, ints, strings, bytes.
type Literal struct {
	base
	Kind LiteralKind
	Bool bool
	Int  int64
	Str  string // also holds bytes payloads
}

func (l *Literal) expressionNode() {}
func (l *Literal) String() string {
	switch l.Kind {
	case LitNone:
		return "None"
	case LitBool:
		if l.Bool {
			return "True"
		}
		return "False"
	case LitInt:
		return fmt.Sprintf("%d", l.Int)
	case LitStr:
		return fmt.Sprintf("%q", l.Str)
	case LitBytes:
		return fmt.Sprintf("b%q", l.Str)
	default:
		return "<bad literal>"
	}
}

// BoolOpKind distinguishes `and` from `or`.
type BoolOpKind int

const (
	And BoolOpKind = iota
	Or
)

// BoolOp is a short-circuit chain: a and b and c. Values has at least two
// elements; the parser flattens same-operator chains.
type BoolOp struct {
	base
	Op     BoolOpKind
	Values []Expression
}

func (b *BoolOp) expressionNode() {}
func (b *BoolOp) String() string {
	op := " and "
	if b.Op == Or {
		op = " or "
	}
	parts := make([]string, len(b.Values))
	for i, v := range b.Values {
		parts[i] = v.String()
	}
	return "(" + strings.Join(parts, op) + ")"
}

// UnaryOpKind tags unary operators. Only Not matters to narrowing.
type UnaryOpKind int

const (
	Not UnaryOpKind = iota
	USub
)

// UnaryOp is `not x` or `-x`.
type UnaryOp struct {
	base
	Op      UnaryOpKind
	Operand Expression
}

func (u *UnaryOp) expressionNode() {}
func (u *UnaryOp) String() string {
	if u.Op == Not {
		return "(not " + u.Operand.String() + ")"
	}
	return "(-" + u.Operand.String() + ")"
}

// CmpOp tags comparison operators.
type CmpOp int

const (
	Eq CmpOp = iota
	NotEq
	Is
	IsNot
	In
	NotIn
	Lt
	LtE
	Gt
	GtE
)

func (op CmpOp) String() string {
	switch op {
	case Eq:
		return "=="
	case NotEq:
		return "!="
	case Is:
		return "is"
	case IsNot:
		return "is not"
	case In:
		return "in"
	case NotIn:
		return "not in"
	case Lt:
		return "<"
	case LtE:
		return "<="
	case Gt:
		return ">"
	case GtE:
		return ">="
	default:
		return "<bad cmpop>"
	}
}

// Compare is a (possibly chained) comparison: a is b is c carries one Left,
// two Ops and two Comparators. Chains desugar to `and` of adjacent pairs
// during narrowing.
type Compare struct {
	base
	Left        Expression
	Ops         []CmpOp
	Comparators []Expression
}

func (c *Compare) expressionNode() {}
func (c *Compare) String() string {
	var out strings.Builder
	out.WriteString(c.Left.String())
	for i, op := range c.Ops {
		out.WriteString(" " + op.String() + " ")
		out.WriteString(c.Comparators[i].String())
	}
	return out.String()
}

// Call is a function or constructor invocation.
type Call struct {
	base
	Func Expression
	Args []Expression
}

func (c *Call) expressionNode() {}
func (c *Call) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	return c.Func.String() + "(" + strings.Join(args, ", ") + ")"
}

// TupleExpr is a fixed-size tuple display.
type TupleExpr struct {
	base
	Elts []Expression
}

func (t *TupleExpr) expressionNode() {}
func (t *TupleExpr) String() string {
	parts := make([]string, len(t.Elts))
	for i, e := range t.Elts {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// ListExpr is a list display.
type ListExpr struct {
	base
	Elts []Expression
}

func (l *ListExpr) expressionNode() {}
func (l *ListExpr) String() string {
	parts := make([]string, len(l.Elts))
	for i, e := range l.Elts {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Conditional is a ternary: Then if Test else Else.
type Conditional struct {
	base
	Test Expression
	Then Expression
	Else Expression
}

func (c *Conditional) expressionNode() {}
func (c *Conditional) String() string {
	return "(" + c.Then.String() + " if " + c.Test.String() + " else " + c.Else.String() + ")"
}

// Comprehension is one `for target in iter if cond...` clause.
type Comprehension struct {
	Target *Name
	Iter   Expression
	Ifs    []Expression
}

// CompKind distinguishes list comprehensions from generator expressions; both
// introduce their own scope, generators additionally count as generator scopes
// for evaluation-timing purposes.
type CompKind int

const (
	ListComp CompKind = iota
	SetComp
	GeneratorComp
)

// CompExpr is a comprehension or generator expression.
type CompExpr struct {
	base
	Kind       CompKind
	Element    Expression
	Generators []Comprehension
}

func (c *CompExpr) expressionNode() {}
func (c *CompExpr) String() string {
	open, close := "[", "]"
	switch c.Kind {
	case SetComp:
		open, close = "{", "}"
	case GeneratorComp:
		open, close = "(", ")"
	}
	var out strings.Builder
	out.WriteString(open)
	out.WriteString(c.Element.String())
	for _, g := range c.Generators {
		out.WriteString(" for " + g.Target.String() + " in " + g.Iter.String())
		for _, cond := range g.Ifs {
			out.WriteString(" if " + cond.String())
		}
	}
	out.WriteString(close)
	return out.String()
}

// Lambda is an anonymous function expression. The body introduces a lazy
// scope just like a def.
type Lambda struct {
	base
	Params []*Param
	Body   Expression
}

func (l *Lambda) expressionNode() {}
func (l *Lambda) String() string {
	params := make([]string, len(l.Params))
	for i, p := range l.Params {
		params[i] = p.Name
	}
	return "lambda " + strings.Join(params, ", ") + ": " + l.Body.String()
}

// --- Statements ---

// Param is a function parameter with an optional annotation expression.
type Param struct {
	Name       string
	Annotation Expression // nil when unannotated
	Default    Expression // nil when required
}

// FunctionDef introduces a lazy scope and binds the function name in the
// enclosing scope.
type FunctionDef struct {
	base
	Name       string
	Params     []*Param
	Returns    Expression // return annotation, nil when absent
	Body       []Statement
	Decorators []Expression
}

func (f *FunctionDef) statementNode() {}
func (f *FunctionDef) String() string { return "def " + f.Name + "(...)" }

// ClassDef introduces an eager scope and binds the class name.
type ClassDef struct {
	base
	Name       string
	Bases      []Expression
	Body       []Statement
	Decorators []Expression
}

func (c *ClassDef) statementNode() {}
func (c *ClassDef) String() string { return "class " + c.Name }

// Assign binds Target (a Name or Attribute) to Value.
type Assign struct {
	base
	Target Expression
	Value  Expression
}

func (a *Assign) statementNode() {}
func (a *Assign) String() string { return a.Target.String() + " = " + a.Value.String() }

// AnnAssign is an annotated assignment; Value may be nil (a bare declaration).
type AnnAssign struct {
	base
	Target     Expression
	Annotation Expression
	Value      Expression
}

func (a *AnnAssign) statementNode() {}
func (a *AnnAssign) String() string {
	s := a.Target.String() + ": " + a.Annotation.String()
	if a.Value != nil {
		s += " = " + a.Value.String()
	}
	return s
}

// If covers the whole if/elif/else ladder: an elif is an If nested as the
// sole statement of Orelse.
type If struct {
	base
	Test   Expression
	Body   []Statement
	Orelse []Statement
}

func (i *If) statementNode() {}
func (i *If) String() string { return "if " + i.Test.String() + ": ..." }

// While is a while loop with an optional else clause.
type While struct {
	base
	Test   Expression
	Body   []Statement
	Orelse []Statement
}

func (w *While) statementNode() {}
func (w *While) String() string { return "while " + w.Test.String() + ": ..." }

// For is a for-in loop with an optional else clause.
type For struct {
	base
	Target *Name
	Iter   Expression
	Body   []Statement
	Orelse []Statement
}

func (f *For) statementNode() {}
func (f *For) String() string { return "for " + f.Target.String() + " in " + f.Iter.String() + ": ..." }

// Break exits the innermost loop.
type Break struct{ base }

func (b *Break) statementNode() {}
func (b *Break) String() string { return "break" }

// Continue restarts the innermost loop.
type Continue struct{ base }

func (c *Continue) statementNode() {}
func (c *Continue) String() string { return "continue" }

// Return exits the enclosing function; Value may be nil.
type Return struct {
	base
	Value Expression
}

func (r *Return) statementNode() {}
func (r *Return) String() string {
	if r.Value == nil {
		return "return"
	}
	return "return " + r.Value.String()
}

// ExprStmt is an expression evaluated for effect.
type ExprStmt struct {
	base
	Expr Expression
}

func (e *ExprStmt) statementNode() {}
func (e *ExprStmt) String() string { return e.Expr.String() }

// Global declares names as module-level targets inside a function scope.
type Global struct {
	base
	Names []string
}

func (g *Global) statementNode() {}
func (g *Global) String() string { return "global " + strings.Join(g.Names, ", ") }

// Import binds a module object under As (or the module's own name).
type Import struct {
	base
	Module string
	As     string
}

func (i *Import) statementNode() {}
func (i *Import) String() string {
	if i.As != "" && i.As != i.Module {
		return "import " + i.Module + " as " + i.As
	}
	return "import " + i.Module
}

// Pass does nothing.
type Pass struct{ base }

func (p *Pass) statementNode() {}
func (p *Pass) String() string { return "pass" }
