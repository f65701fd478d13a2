package ast

import "redshank/pkg/diag"

// Builder constructs trees with dense, construction-ordered node IDs. The
// front end that normally produces trees assigns IDs the same way; tests and
// the fixture decoder go through a Builder so every node has a usable
// memoization key.
type Builder struct {
	next NodeID
}

func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) alloc(span diag.Span) base {
	id := b.next
	b.next++
	return base{NodeID: id, NodeSpan: span}
}

// NodeCount returns how many IDs have been handed out so far.
func (b *Builder) NodeCount() int { return int(b.next) }

func (b *Builder) Module(name string, body ...Statement) *Module {
	return &Module{base: b.alloc(diag.Span{}), Name: name, Body: body}
}

func (b *Builder) Name(ident string) *Name {
	return &Name{base: b.alloc(diag.Span{}), Ident: ident}
}

func (b *Builder) NameAt(ident string, span diag.Span) *Name {
	return &Name{base: b.alloc(span), Ident: ident}
}

func (b *Builder) Attr(obj Expression, attr string) *Attribute {
	return &Attribute{base: b.alloc(diag.Span{}), Object: obj, Attr: attr}
}

func (b *Builder) None() *Literal {
	return &Literal{base: b.alloc(diag.Span{}), Kind: LitNone}
}

func (b *Builder) Bool(v bool) *Literal {
	return &Literal{base: b.alloc(diag.Span{}), Kind: LitBool, Bool: v}
}

func (b *Builder) Int(v int64) *Literal {
	return &Literal{base: b.alloc(diag.Span{}), Kind: LitInt, Int: v}
}

func (b *Builder) Str(v string) *Literal {
	return &Literal{base: b.alloc(diag.Span{}), Kind: LitStr, Str: v}
}

func (b *Builder) Bytes(v string) *Literal {
	return &Literal{base: b.alloc(diag.Span{}), Kind: LitBytes, Str: v}
}

func (b *Builder) And(values ...Expression) *BoolOp {
	return &BoolOp{base: b.alloc(diag.Span{}), Op: And, Values: values}
}

func (b *Builder) Or(values ...Expression) *BoolOp {
	return &BoolOp{base: b.alloc(diag.Span{}), Op: Or, Values: values}
}

func (b *Builder) Not(operand Expression) *UnaryOp {
	return &UnaryOp{base: b.alloc(diag.Span{}), Op: Not, Operand: operand}
}

func (b *Builder) Neg(operand Expression) *UnaryOp {
	return &UnaryOp{base: b.alloc(diag.Span{}), Op: USub, Operand: operand}
}

func (b *Builder) Compare(left Expression, op CmpOp, right Expression) *Compare {
	return &Compare{base: b.alloc(diag.Span{}), Left: left, Ops: []CmpOp{op}, Comparators: []Expression{right}}
}

// CompareChain builds a chained comparison like `a is b is c`.
func (b *Builder) CompareChain(left Expression, ops []CmpOp, comparators []Expression) *Compare {
	return &Compare{base: b.alloc(diag.Span{}), Left: left, Ops: ops, Comparators: comparators}
}

func (b *Builder) Call(fn Expression, args ...Expression) *Call {
	return &Call{base: b.alloc(diag.Span{}), Func: fn, Args: args}
}

func (b *Builder) Tuple(elts ...Expression) *TupleExpr {
	return &TupleExpr{base: b.alloc(diag.Span{}), Elts: elts}
}

func (b *Builder) List(elts ...Expression) *ListExpr {
	return &ListExpr{base: b.alloc(diag.Span{}), Elts: elts}
}

func (b *Builder) Conditional(test, then, els Expression) *Conditional {
	return &Conditional{base: b.alloc(diag.Span{}), Test: test, Then: then, Else: els}
}

func (b *Builder) Comp(kind CompKind, elem Expression, gens ...Comprehension) *CompExpr {
	return &CompExpr{base: b.alloc(diag.Span{}), Kind: kind, Element: elem, Generators: gens}
}

func (b *Builder) Lambda(params []*Param, body Expression) *Lambda {
	return &Lambda{base: b.alloc(diag.Span{}), Params: params, Body: body}
}

func (b *Builder) FuncDef(name string, params []*Param, body ...Statement) *FunctionDef {
	return &FunctionDef{base: b.alloc(diag.Span{}), Name: name, Params: params, Body: body}
}

func (b *Builder) ClassDef(name string, bases []Expression, body ...Statement) *ClassDef {
	return &ClassDef{base: b.alloc(diag.Span{}), Name: name, Bases: bases, Body: body}
}

func (b *Builder) Assign(target Expression, value Expression) *Assign {
	return &Assign{base: b.alloc(diag.Span{}), Target: target, Value: value}
}

func (b *Builder) AnnAssign(target Expression, annotation, value Expression) *AnnAssign {
	return &AnnAssign{base: b.alloc(diag.Span{}), Target: target, Annotation: annotation, Value: value}
}

func (b *Builder) If(test Expression, body []Statement, orelse ...Statement) *If {
	return &If{base: b.alloc(diag.Span{}), Test: test, Body: body, Orelse: orelse}
}

func (b *Builder) While(test Expression, body []Statement, orelse ...Statement) *While {
	return &While{base: b.alloc(diag.Span{}), Test: test, Body: body, Orelse: orelse}
}

func (b *Builder) For(target *Name, iter Expression, body []Statement, orelse ...Statement) *For {
	return &For{base: b.alloc(diag.Span{}), Target: target, Iter: iter, Body: body, Orelse: orelse}
}

func (b *Builder) Break() *Break       { return &Break{base: b.alloc(diag.Span{})} }
func (b *Builder) Continue() *Continue { return &Continue{base: b.alloc(diag.Span{})} }
func (b *Builder) Pass() *Pass         { return &Pass{base: b.alloc(diag.Span{})} }

func (b *Builder) Return(value Expression) *Return {
	return &Return{base: b.alloc(diag.Span{}), Value: value}
}

func (b *Builder) ExprStmt(e Expression) *ExprStmt {
	return &ExprStmt{base: b.alloc(diag.Span{}), Expr: e}
}

func (b *Builder) Global(names ...string) *Global {
	return &Global{base: b.alloc(diag.Span{}), Names: names}
}

func (b *Builder) Import(module, as string) *Import {
	return &Import{base: b.alloc(diag.Span{}), Module: module, As: as}
}
