package ast

import (
	"strings"
	"testing"
)

func decode(t *testing.T, src string) *Module {
	t.Helper()
	m, err := DecodeYAML(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestDecodeStatements(t *testing.T) {
	m := decode(t, `
module: demo
body:
  - assign: {target: {name: x}, value: {int: 1}}
  - annassign: {target: {name: y}, annotation: {name: int}}
  - import: {module: sys}
  - expr: {call: {func: {name: print}, args: [{name: x}]}}
  - pass:
`)
	if m.Name != "demo" {
		t.Errorf("module name = %s, want demo", m.Name)
	}
	if len(m.Body) != 5 {
		t.Fatalf("got %d statements, want 5", len(m.Body))
	}

	assign, ok := m.Body[0].(*Assign)
	if !ok {
		t.Fatal("first statement must decode as an assignment")
	}
	if name, ok := assign.Target.(*Name); !ok || name.Ident != "x" {
		t.Error("assignment target must be the name x")
	}
	if lit, ok := assign.Value.(*Literal); !ok || lit.Kind != LitInt || lit.Int != 1 {
		t.Error("assignment value must be the literal 1")
	}

	ann, ok := m.Body[1].(*AnnAssign)
	if !ok || ann.Value != nil {
		t.Error("bare declaration must decode with a nil value")
	}
	imp, ok := m.Body[2].(*Import)
	if !ok || imp.Module != "sys" || imp.As != "" {
		t.Error("import must carry the module path")
	}
}

func TestDecodeControlFlow(t *testing.T) {
	m := decode(t, `
module: flow
body:
  - if:
      test: {compare: {left: {name: x}, ops: [is], comparators: [{none: }]}}
      then:
        - pass:
      else:
        - break:
  - while:
      test: {bool: true}
      body:
        - continue:
  - for:
      target: e
      iter: {tuple: [{int: 1}, {int: 2}]}
      body:
        - expr: {name: e}
`)
	ifStmt, ok := m.Body[0].(*If)
	if !ok {
		t.Fatal("first statement must decode as if")
	}
	cmp, ok := ifStmt.Test.(*Compare)
	if !ok || len(cmp.Ops) != 1 || cmp.Ops[0] != Is {
		t.Error("if test must decode as an `is` comparison")
	}
	if len(ifStmt.Orelse) != 1 {
		t.Error("else branch must decode")
	}

	forStmt, ok := m.Body[2].(*For)
	if !ok || forStmt.Target.Ident != "e" {
		t.Fatal("for must decode its target name")
	}
	if tup, ok := forStmt.Iter.(*TupleExpr); !ok || len(tup.Elts) != 2 {
		t.Error("for iterable must decode as a two-element tuple")
	}
}

func TestDecodeDefAndClass(t *testing.T) {
	m := decode(t, `
module: defs
body:
  - def:
      name: f
      params: [a, b]
      body:
        - return: {name: a}
  - class:
      name: C
      bases: [{name: object}]
      body:
        - assign: {target: {name: kind}, value: {str: leaf}}
`)
	fn, ok := m.Body[0].(*FunctionDef)
	if !ok || fn.Name != "f" || len(fn.Params) != 2 {
		t.Fatal("def must decode name and params")
	}
	ret, ok := fn.Body[0].(*Return)
	if !ok || ret.Value == nil {
		t.Error("return value must decode")
	}

	cls, ok := m.Body[1].(*ClassDef)
	if !ok || cls.Name != "C" || len(cls.Bases) != 1 {
		t.Fatal("class must decode name and bases")
	}
}

func TestDecodeBareReturn(t *testing.T) {
	m := decode(t, `
module: r
body:
  - def:
      name: f
      body:
        - return:
`)
	fn := m.Body[0].(*FunctionDef)
	ret, ok := fn.Body[0].(*Return)
	if !ok || ret.Value != nil {
		t.Error("bare return must decode with a nil value")
	}
}

func TestDecodeNodeIDsAreDense(t *testing.T) {
	m := decode(t, `
module: ids
body:
  - assign: {target: {name: x}, value: {int: 1}}
  - expr: {name: x}
`)
	seen := map[NodeID]bool{}
	var walkExpr func(e Expression)
	walkExpr = func(e Expression) {
		if e == nil {
			return
		}
		if seen[e.ID()] {
			t.Errorf("duplicate node ID %d", e.ID())
		}
		seen[e.ID()] = true
	}
	for _, s := range m.Body {
		switch n := s.(type) {
		case *Assign:
			walkExpr(n.Target)
			walkExpr(n.Value)
		case *ExprStmt:
			walkExpr(n.Expr)
		}
	}
	if len(seen) != 3 {
		t.Errorf("got %d distinct expression IDs, want 3", len(seen))
	}
}

func TestDecodeErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"unknown statement", "module: x\nbody:\n  - frobnicate: {}\n"},
		{"unknown expression", "module: x\nbody:\n  - expr: {wat: 1}\n"},
		{"unknown operator", `
module: x
body:
  - expr: {compare: {left: {name: a}, ops: ["~~"], comparators: [{name: b}]}}
`},
		{"op arity mismatch", `
module: x
body:
  - expr: {compare: {left: {name: a}, ops: ["=="], comparators: []}}
`},
	}
	for _, tc := range cases {
		if _, err := DecodeYAML(strings.NewReader(tc.src)); err == nil {
			t.Errorf("%s: decode must fail", tc.name)
		}
	}
}
