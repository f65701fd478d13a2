package scope

import (
	"testing"

	"redshank/pkg/ast"
)

func TestBuildModuleBindings(t *testing.T) {
	b := ast.NewBuilder()
	mod := b.Module("m",
		b.Assign(b.Name("x"), b.Int(1)),
		b.AnnAssign(b.Name("y"), b.Name("int"), b.Int(2)),
		b.Import("sys", ""),
		b.Import("collections", "c"),
	)
	table := Build(mod)
	root := table.Module
	if root.Kind != ModuleScope {
		t.Fatalf("root kind = %s, want module", root.Kind)
	}

	want := []struct {
		name string
		kind BindingKind
	}{
		{"x", AssignmentBinding},
		{"y", DeclarationBinding},
		{"sys", ImportBinding},
		{"c", ImportBinding},
	}
	if len(root.Bindings) != len(want) {
		t.Fatalf("got %d bindings, want %d", len(root.Bindings), len(want))
	}
	for i, w := range want {
		got := root.Bindings[i]
		if got.Name != w.name || got.Kind != w.kind {
			t.Errorf("binding %d = %s/%v, want %s/%v", i, got.Name, got.Kind, w.name, w.kind)
		}
		if got.Pos != i {
			t.Errorf("binding %s Pos = %d, want %d", got.Name, got.Pos, i)
		}
	}
	if !root.BindingsOf("y")[0].Annotated {
		t.Error("annotated assignment must produce an annotated binding")
	}
}

func TestPossiblyUnboundUnderConditionals(t *testing.T) {
	b := ast.NewBuilder()
	mod := b.Module("m",
		b.Assign(b.Name("a"), b.Int(1)),
		b.If(b.Name("cond"),
			[]ast.Statement{b.Assign(b.Name("p"), b.Int(2))},
			b.Assign(b.Name("q"), b.Int(3)),
		),
		b.While(b.Name("cond"),
			[]ast.Statement{b.Assign(b.Name("w"), b.Int(4))},
		),
		b.AnnAssign(b.Name("bare"), b.Name("int"), nil),
	)
	table := Build(mod)
	root := table.Module

	cases := map[string]bool{
		"a":    false,
		"p":    true, // only on the if path
		"q":    true, // only on the else path
		"w":    true, // loop body may not run
		"bare": true, // declaration without a value
	}
	for name, want := range cases {
		bindings := root.BindingsOf(name)
		if len(bindings) != 1 {
			t.Fatalf("%s: got %d bindings, want 1", name, len(bindings))
		}
		if bindings[0].PossiblyUnbound != want {
			t.Errorf("%s: PossiblyUnbound = %v, want %v", name, bindings[0].PossiblyUnbound, want)
		}
	}
}

func TestFunctionScopeShape(t *testing.T) {
	b := ast.NewBuilder()
	inner := b.FuncDef("inner", nil,
		b.Return(b.Name("p")),
	)
	outer := b.FuncDef("outer",
		[]*ast.Param{{Name: "p"}, {Name: "q"}},
		b.Assign(b.Name("local"), b.Int(1)),
		inner,
	)
	mod := b.Module("m",
		b.Assign(b.Name("x"), b.Int(1)),
		outer,
	)
	table := Build(mod)
	root := table.Module

	fn := table.ScopeOf(outer.ID())
	if fn == nil || fn.Kind != FunctionScope {
		t.Fatal("outer function scope missing")
	}
	if fn.Parent != root {
		t.Error("outer function scope must hang off the module scope")
	}
	// x has Pos 0, outer has Pos 1; eager hops from inside resolve against
	// module bindings with Pos < DefPos.
	if fn.DefPos != 1 {
		t.Errorf("outer DefPos = %d, want 1", fn.DefPos)
	}
	if fn.FuncDepth != 1 {
		t.Errorf("outer FuncDepth = %d, want 1", fn.FuncDepth)
	}

	params := fn.BindingsOf("p")
	if len(params) != 1 || params[0].Kind != ParameterBinding || params[0].PossiblyUnbound {
		t.Error("parameter p must produce one unconditional parameter binding")
	}

	nested := table.ScopeOf(inner.ID())
	if nested == nil || nested.FuncDepth != 2 {
		t.Fatal("inner function scope must sit at FuncDepth 2")
	}
	if nested.Parent != fn {
		t.Error("inner scope must hang off outer")
	}
}

func TestClassScopeDoesNotRaiseFuncDepth(t *testing.T) {
	b := ast.NewBuilder()
	method := b.FuncDef("method", []*ast.Param{{Name: "self"}},
		b.Pass(),
	)
	cls := b.ClassDef("C", nil,
		b.Assign(b.Name("attr"), b.Int(1)),
		method,
	)
	table := Build(b.Module("m", cls))

	cs := table.ScopeOf(cls.ID())
	if cs == nil || cs.Kind != ClassScope {
		t.Fatal("class scope missing")
	}
	if cs.FuncDepth != 0 {
		t.Errorf("class FuncDepth = %d, want 0", cs.FuncDepth)
	}
	if len(cs.BindingsOf("attr")) != 1 {
		t.Error("class body assignment must bind in the class scope")
	}
	ms := table.ScopeOf(method.ID())
	if ms == nil || ms.FuncDepth != 1 {
		t.Error("method scope must sit at FuncDepth 1")
	}
}

func TestLastBindingBefore(t *testing.T) {
	b := ast.NewBuilder()
	mod := b.Module("m",
		b.Assign(b.Name("x"), b.Int(1)), // Pos 0
		b.Assign(b.Name("x"), b.Int(2)), // Pos 1
		b.Assign(b.Name("x"), b.Int(3)), // Pos 2
	)
	root := Build(mod).Module

	if got := root.LastBindingBefore("x", 0); got != nil {
		t.Error("no binding precedes position 0")
	}
	if got := root.LastBindingBefore("x", 2); got == nil || got.Pos != 1 {
		t.Error("position 2 must see the Pos-1 binding")
	}
	if got := root.LastBindingBefore("x", -1); got == nil || got.Pos != 2 {
		t.Error("negative position must see the final binding")
	}
	if got := root.LastBindingBefore("missing", -1); got != nil {
		t.Error("unknown name must resolve to nil")
	}
}

func TestComprehensionScope(t *testing.T) {
	b := ast.NewBuilder()
	comp := b.Comp(ast.ListComp, b.Name("e"),
		ast.Comprehension{Target: b.Name("e"), Iter: b.Name("items"), Ifs: []ast.Expression{b.Name("e")}},
	)
	mod := b.Module("m",
		b.Assign(b.Name("items"), b.List(b.Int(1))),
		b.ExprStmt(comp),
	)
	table := Build(mod)

	cs := table.ScopeOf(comp.ID())
	if cs == nil || cs.Kind != ComprehensionScope {
		t.Fatal("comprehension scope missing")
	}
	if !cs.Kind.Eager() {
		t.Error("comprehension scopes resolve eagerly")
	}
	if len(cs.BindingsOf("e")) != 1 || cs.BindingsOf("e")[0].Kind != ComprehensionBinding {
		t.Error("comprehension target must bind inside the comprehension scope")
	}
	if len(table.Module.BindingsOf("e")) != 0 {
		t.Error("comprehension target must not leak into the module scope")
	}
}

func TestGlobalsDeclaration(t *testing.T) {
	b := ast.NewBuilder()
	fn := b.FuncDef("f", nil,
		b.Global("counter"),
		b.Assign(b.Name("counter"), b.Int(1)),
	)
	table := Build(b.Module("m", b.Assign(b.Name("counter"), b.Int(0)), fn))

	fs := table.ScopeOf(fn.ID())
	if fs == nil || !fs.IsGlobal("counter") {
		t.Fatal("global statement must mark the name in the function scope")
	}
	if table.Module.IsGlobal("counter") {
		t.Error("global marking must stay local to the declaring scope")
	}
}
