package checker

import (
	"testing"

	"redshank/pkg/ast"
	"redshank/pkg/diag"
	"redshank/pkg/types"
)

func TestFinalClassWithoutProtocolIsTruthy(t *testing.T) {
	b := ast.NewBuilder()
	call := b.Call(b.Name("bool"), b.Name("m"))
	marker := b.ClassDef("Marker", nil, b.Pass())
	marker.Decorators = []ast.Expression{b.Name("final")}
	mod := b.Module("m",
		marker,
		b.Assign(b.Name("m"), b.Call(b.Name("Marker"))),
		b.Assign(b.Name("t"), call),
	)
	c, _, sink := checkModule(t, mod)
	wantNoDiags(t, sink)

	if got := c.TypeOf(call.ID()); !got.Equals(types.TrueLiteral) {
		t.Errorf("bool(final instance) = %s, want Literal[True]", got.String())
	}
}

func TestOpenClassWithoutProtocolIsAmbiguous(t *testing.T) {
	b := ast.NewBuilder()
	call := b.Call(b.Name("bool"), b.Name("m"))
	mod := b.Module("m",
		b.ClassDef("Marker", nil, b.Pass()),
		b.Assign(b.Name("m"), b.Call(b.Name("Marker"))),
		b.Assign(b.Name("t"), call),
	)
	c, _, sink := checkModule(t, mod)
	wantNoDiags(t, sink)

	// A subclass could add a falsifying __bool__, so no verdict.
	if got := c.TypeOf(call.ID()); !got.Equals(types.BoolType) {
		t.Errorf("bool(open instance) = %s, want bool", got.String())
	}
}

func TestBadBoolProtocolReported(t *testing.T) {
	b := ast.NewBuilder()
	boolMethod := b.FuncDef("__bool__", []*ast.Param{{Name: "self"}}, b.Return(b.Int(3)))
	boolMethod.Returns = b.Name("int")
	mod := b.Module("m",
		b.ClassDef("Weird", nil, boolMethod),
		b.Assign(b.Name("w"), b.Call(b.Name("Weird"))),
		b.If(b.Name("w"), []ast.Statement{b.Pass()}),
	)
	_, _, sink := checkModule(t, mod)
	wantKinds(t, sink, diag.UnsupportedBoolConversion)
}

func TestNonCallableBoolMemberReported(t *testing.T) {
	b := ast.NewBuilder()
	mod := b.Module("m",
		b.ClassDef("Weird", nil,
			b.Assign(b.Name("__bool__"), b.Int(1)),
		),
		b.Assign(b.Name("w"), b.Call(b.Name("Weird"))),
		b.If(b.Name("w"), []ast.Statement{b.Pass()}),
	)
	_, _, sink := checkModule(t, mod)
	wantKinds(t, sink, diag.UnsupportedBoolConversion)
}

func TestTupleTruthinessIsStatic(t *testing.T) {
	b := ast.NewBuilder()
	nonEmpty := b.Call(b.Name("bool"), b.Tuple(b.Int(1)))
	empty := b.Call(b.Name("bool"), b.Tuple())
	mod := b.Module("m",
		b.Assign(b.Name("a"), nonEmpty),
		b.Assign(b.Name("b"), empty),
	)
	c, _, sink := checkModule(t, mod)
	wantNoDiags(t, sink)

	if got := c.TypeOf(nonEmpty.ID()); !got.Equals(types.TrueLiteral) {
		t.Errorf("bool((1,)) = %s, want Literal[True]", got.String())
	}
	if got := c.TypeOf(empty.ID()); !got.Equals(types.FalseLiteral) {
		t.Errorf("bool(()) = %s, want Literal[False]", got.String())
	}
}

func TestBuiltinValueTypesAreAmbiguous(t *testing.T) {
	b := ast.NewBuilder()
	intCall := b.Call(b.Name("bool"), b.Call(b.Name("len"), b.Str("a")))
	mod := b.Module("m",
		b.Assign(b.Name("a"), intCall),
	)
	c, _, sink := checkModule(t, mod)
	wantNoDiags(t, sink)

	// int truthiness depends on the value at runtime.
	if got := c.TypeOf(intCall.ID()); !got.Equals(types.BoolType) {
		t.Errorf("bool(int) = %s, want bool", got.String())
	}
}

func TestFalsySubsetLiterals(t *testing.T) {
	b := ast.NewBuilder()
	inElse := b.Name("n")
	mod := b.Module("m",
		b.Assign(b.Name("n"), b.Call(b.Name("len"), b.Str("abc"))),
		b.If(b.Name("n"),
			[]ast.Statement{b.Pass()},
			b.Assign(b.Name("z"), inElse),
		),
	)
	c, _, sink := checkModule(t, mod)
	wantNoDiags(t, sink)

	// The falsy subset of int is exactly 0.
	if got := c.TypeOf(inElse.ID()); !got.Equals(types.NewIntLiteral(0)) {
		t.Errorf("falsy int = %s, want Literal[0]", got.String())
	}
}

func TestTruthinessVerdictNegate(t *testing.T) {
	if AlwaysTrue.Negate() != AlwaysFalse || AlwaysFalse.Negate() != AlwaysTrue {
		t.Error("definite verdicts must flip")
	}
	if TruthAmbiguous.Negate() != TruthAmbiguous {
		t.Error("ambiguous must stay ambiguous")
	}
}
