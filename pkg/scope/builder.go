package scope

import (
	"redshank/pkg/ast"
)

// Build walks the module tree once and produces the scope table.
func Build(m *ast.Module) *Table {
	b := &builder{table: &Table{byNode: make(map[ast.NodeID]*Scope)}}
	root := b.newScope(ModuleScope, nil, m)
	b.table.Module = root
	b.walkStmts(root, m.Body, &walkState{})
	return b.table
}

type builder struct {
	table *Table
}

// walkState carries the per-scope position counter and the conditional
// nesting depth; a binding introduced under a conditional is possibly
// unbound at scope level.
type walkState struct {
	pos       int
	condDepth int
}

func (b *builder) newScope(kind Kind, parent *Scope, node ast.Node) *Scope {
	s := &Scope{
		Kind:    kind,
		Parent:  parent,
		Node:    node,
		Globals: make(map[string]bool),
		byName:  make(map[string][]*Binding),
	}
	if parent != nil {
		s.FuncDepth = parent.FuncDepth
		parent.Children = append(parent.Children, s)
	}
	if !kind.Eager() {
		s.FuncDepth++
	}
	b.table.byNode[node.ID()] = s
	return s
}

func (b *builder) addBinding(s *Scope, st *walkState, name string, kind BindingKind, node ast.Node) *Binding {
	bind := &Binding{
		Name:            name,
		Scope:           s,
		Node:            node,
		Kind:            kind,
		Pos:             st.pos,
		PossiblyUnbound: st.condDepth > 0,
	}
	st.pos++
	s.Bindings = append(s.Bindings, bind)
	s.byName[name] = append(s.byName[name], bind)
	return bind
}

func (b *builder) walkStmts(s *Scope, stmts []ast.Statement, st *walkState) {
	for _, stmt := range stmts {
		b.walkStmt(s, stmt, st)
	}
}

func (b *builder) walkStmt(s *Scope, stmt ast.Statement, st *walkState) {
	switch n := stmt.(type) {
	case *ast.Assign:
		b.walkExpr(s, n.Value, st)
		if target, ok := n.Target.(*ast.Name); ok {
			b.addBinding(s, st, target.Ident, AssignmentBinding, n)
		}
	case *ast.AnnAssign:
		if n.Value != nil {
			b.walkExpr(s, n.Value, st)
		}
		if target, ok := n.Target.(*ast.Name); ok {
			bind := b.addBinding(s, st, target.Ident, DeclarationBinding, n)
			bind.Annotated = true
			bind.Annotation = n.Annotation
			if n.Value == nil {
				// A bare declaration does not bind a value.
				bind.PossiblyUnbound = true
			}
		}
	case *ast.FunctionDef:
		for _, p := range n.Params {
			if p.Default != nil {
				b.walkExpr(s, p.Default, st)
			}
		}
		bind := b.addBinding(s, st, n.Name, FunctionBinding, n)
		child := b.newScope(FunctionScope, s, n)
		child.DefPos = bind.Pos
		childState := &walkState{}
		for _, p := range n.Params {
			b.addBinding(child, childState, p.Name, ParameterBinding, n)
		}
		b.walkStmts(child, n.Body, childState)
	case *ast.ClassDef:
		for _, base := range n.Bases {
			b.walkExpr(s, base, st)
		}
		bind := b.addBinding(s, st, n.Name, ClassBinding, n)
		child := b.newScope(ClassScope, s, n)
		child.DefPos = bind.Pos
		b.walkStmts(child, n.Body, &walkState{})
	case *ast.If:
		b.walkExpr(s, n.Test, st)
		st.condDepth++
		b.walkStmts(s, n.Body, st)
		b.walkStmts(s, n.Orelse, st)
		st.condDepth--
	case *ast.While:
		b.walkExpr(s, n.Test, st)
		st.condDepth++
		b.walkStmts(s, n.Body, st)
		b.walkStmts(s, n.Orelse, st)
		st.condDepth--
	case *ast.For:
		b.walkExpr(s, n.Iter, st)
		st.condDepth++
		b.addBinding(s, st, n.Target.Ident, LoopBinding, n)
		b.walkStmts(s, n.Body, st)
		b.walkStmts(s, n.Orelse, st)
		st.condDepth--
	case *ast.Return:
		if n.Value != nil {
			b.walkExpr(s, n.Value, st)
		}
	case *ast.ExprStmt:
		b.walkExpr(s, n.Expr, st)
	case *ast.Global:
		for _, name := range n.Names {
			s.Globals[name] = true
		}
	case *ast.Import:
		name := n.As
		if name == "" {
			name = n.Module
		}
		b.addBinding(s, st, name, ImportBinding, n)
	case *ast.Break, *ast.Continue, *ast.Pass:
		// No bindings.
	}
}

func (b *builder) walkExpr(s *Scope, expr ast.Expression, st *walkState) {
	switch n := expr.(type) {
	case *ast.Attribute:
		b.walkExpr(s, n.Object, st)
	case *ast.BoolOp:
		for _, v := range n.Values {
			b.walkExpr(s, v, st)
		}
	case *ast.UnaryOp:
		b.walkExpr(s, n.Operand, st)
	case *ast.Compare:
		b.walkExpr(s, n.Left, st)
		for _, c := range n.Comparators {
			b.walkExpr(s, c, st)
		}
	case *ast.Call:
		b.walkExpr(s, n.Func, st)
		for _, a := range n.Args {
			b.walkExpr(s, a, st)
		}
	case *ast.TupleExpr:
		for _, e := range n.Elts {
			b.walkExpr(s, e, st)
		}
	case *ast.ListExpr:
		for _, e := range n.Elts {
			b.walkExpr(s, e, st)
		}
	case *ast.Conditional:
		b.walkExpr(s, n.Test, st)
		b.walkExpr(s, n.Then, st)
		b.walkExpr(s, n.Else, st)
	case *ast.Lambda:
		child := b.newScope(FunctionScope, s, n)
		child.DefPos = st.pos
		childState := &walkState{}
		for _, p := range n.Params {
			b.addBinding(child, childState, p.Name, ParameterBinding, n)
		}
		b.walkExpr(child, n.Body, childState)
	case *ast.CompExpr:
		// The first iterable is evaluated in the enclosing scope; the element
		// and conditions live in the comprehension's own scope.
		kind := ComprehensionScope
		if n.Kind == ast.GeneratorComp {
			kind = GeneratorScope
		}
		if len(n.Generators) > 0 {
			b.walkExpr(s, n.Generators[0].Iter, st)
		}
		child := b.newScope(kind, s, n)
		child.DefPos = st.pos
		childState := &walkState{}
		for i, g := range n.Generators {
			b.addBinding(child, childState, g.Target.Ident, ComprehensionBinding, n)
			if i > 0 {
				b.walkExpr(child, g.Iter, childState)
			}
			for _, cond := range g.Ifs {
				b.walkExpr(child, cond, childState)
			}
		}
		b.walkExpr(child, n.Element, childState)
	}
}
