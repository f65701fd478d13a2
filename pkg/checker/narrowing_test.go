package checker

import (
	"testing"

	"redshank/pkg/ast"
	"redshank/pkg/diag"
	"redshank/pkg/types"
)

// optional builds `if cond: x = <a> else: x = <b>` so x carries the union of
// both branch types afterwards.
func optional(b *ast.Builder, name string, a, bv ast.Expression) []ast.Statement {
	return []ast.Statement{
		b.Assign(b.Name("cond"), boolCond(b)),
		b.If(b.Name("cond"),
			[]ast.Statement{b.Assign(b.Name(name), a)},
			b.Assign(b.Name(name), bv),
		),
	}
}

func TestIsNoneNarrowing(t *testing.T) {
	b := ast.NewBuilder()
	inThen := b.Name("x")
	inElse := b.Name("x")
	body := optional(b, "x", b.Int(1), b.None())
	body = append(body,
		b.If(b.Compare(b.Name("x"), ast.Is, b.None()),
			[]ast.Statement{b.Assign(b.Name("a"), inThen)},
			b.Assign(b.Name("b"), inElse),
		),
	)
	c, _, sink := checkModule(t, b.Module("m", body...))
	wantNoDiags(t, sink)

	if got := c.TypeOf(inThen.ID()); !got.Equals(types.None) {
		t.Errorf("x under `x is None` = %s, want None", got.String())
	}
	if got := c.TypeOf(inElse.ID()); !got.Equals(types.NewIntLiteral(1)) {
		t.Errorf("x under `x is not None` = %s, want Literal[1]", got.String())
	}
}

func TestIsinstanceNarrowing(t *testing.T) {
	b := ast.NewBuilder()
	inThen := b.Name("x")
	inElse := b.Name("x")
	body := []ast.Statement{
		b.ClassDef("Animal", nil, b.Pass()),
		b.ClassDef("Dog", []ast.Expression{b.Name("Animal")}, b.Pass()),
	}
	body = append(body, optional(b, "x", b.Call(b.Name("Animal")), b.Call(b.Name("Dog")))...)
	body = append(body,
		b.If(b.Call(b.Name("isinstance"), b.Name("x"), b.Name("Dog")),
			[]ast.Statement{b.Assign(b.Name("a"), inThen)},
			b.Assign(b.Name("b"), inElse),
		),
	)
	c, table, sink := checkModule(t, b.Module("m", body...))
	wantNoDiags(t, sink)

	animal := c.BindingType(table.Module.BindingsOf("Animal")[0]).(*types.ClassType)
	dog := c.BindingType(table.Module.BindingsOf("Dog")[0]).(*types.ClassType)

	if got := c.TypeOf(inThen.ID()); !got.Equals(types.NewInstance(dog)) {
		t.Errorf("true branch x = %s, want Dog", got.String())
	}
	wantElse := types.NarrowAway(types.NewInstance(animal), types.NewInstance(dog))
	if got := c.TypeOf(inElse.ID()); !types.IsEquivalent(got, wantElse) {
		t.Errorf("false branch x = %s, want %s", got.String(), wantElse.String())
	}
}

func TestIsinstanceNoneAndTuple(t *testing.T) {
	b := ast.NewBuilder()
	inThen := b.Name("x")
	body := optional(b, "x", b.Int(1), b.Str("s"))
	// isinstance(x, (int, str)) covers the whole ambient type, so the else
	// branch is dead and the then branch leaves x untouched.
	body = append(body,
		b.If(b.Call(b.Name("isinstance"), b.Name("x"), b.Tuple(b.Name("int"), b.Name("str"))),
			[]ast.Statement{b.Assign(b.Name("a"), inThen)},
		),
	)
	c, _, sink := checkModule(t, b.Module("m", body...))
	wantNoDiags(t, sink)

	want := types.NewUnionType(types.NewIntLiteral(1), types.NewStrLiteral("s"))
	if got := c.TypeOf(inThen.ID()); !types.IsEquivalent(got, want) {
		t.Errorf("x under the covering test = %s, want %s", got.String(), want.String())
	}
}

func TestIsinstanceBadClassInfo(t *testing.T) {
	b := ast.NewBuilder()
	m := b.Module("m",
		b.Assign(b.Name("x"), b.Int(1)),
		b.If(b.Call(b.Name("isinstance"), b.Name("x"), b.Int(42)),
			[]ast.Statement{b.Pass()},
		),
	)
	_, _, sink := checkModule(t, m)
	wantKinds(t, sink, diag.InvalidArgumentType)
}

func TestShadowedIsinstanceDoesNotNarrow(t *testing.T) {
	b := ast.NewBuilder()
	inThen := b.Name("x")
	body := []ast.Statement{
		b.ClassDef("Animal", nil, b.Pass()),
		b.Assign(b.Name("isinstance"),
			b.Lambda([]*ast.Param{{Name: "a"}, {Name: "b"}}, b.Bool(true))),
		b.Assign(b.Name("x"), b.Call(b.Name("Animal"))),
		b.If(b.Call(b.Name("isinstance"), b.Name("x"), b.Name("Animal")),
			[]ast.Statement{b.Assign(b.Name("a"), inThen)},
		),
	}
	c, table, sink := checkModule(t, b.Module("m", body...))
	wantNoDiags(t, sink)

	animal := c.BindingType(table.Module.BindingsOf("Animal")[0]).(*types.ClassType)
	if got := c.TypeOf(inThen.ID()); !got.Equals(types.NewInstance(animal)) {
		t.Errorf("shadowed isinstance narrowed x to %s", got.String())
	}
}

func TestAndChainIntersects(t *testing.T) {
	b := ast.NewBuilder()
	inThen := b.Name("x")
	inElse := b.Name("x")
	body := []ast.Statement{
		b.ClassDef("Readable", nil, b.Pass()),
		b.ClassDef("Writable", nil, b.Pass()),
	}
	body = append(body, optional(b, "x", b.Call(b.Name("Readable")), b.Call(b.Name("Writable")))...)
	body = append(body,
		b.If(b.And(
			b.Call(b.Name("isinstance"), b.Name("x"), b.Name("Readable")),
			b.Call(b.Name("isinstance"), b.Name("x"), b.Name("Writable")),
		),
			[]ast.Statement{b.Assign(b.Name("a"), inThen)},
			b.Assign(b.Name("b"), inElse),
		),
	)
	c, table, sink := checkModule(t, b.Module("m", body...))
	wantNoDiags(t, sink)

	r := types.NewInstance(c.BindingType(table.Module.BindingsOf("Readable")[0]).(*types.ClassType))
	w := types.NewInstance(c.BindingType(table.Module.BindingsOf("Writable")[0]).(*types.ClassType))

	wantThen := types.Intersect(r, w)
	if got := c.TypeOf(inThen.ID()); !types.IsEquivalent(got, wantThen) {
		t.Errorf("true branch x = %s, want %s", got.String(), wantThen.String())
	}
	// not (A and B) decomposes arm by arm against the original type.
	ambient := types.NewUnionType(r, w)
	wantElse := types.NewUnionType(types.NarrowAway(ambient, r), types.NarrowAway(ambient, w))
	if got := c.TypeOf(inElse.ID()); !types.IsEquivalent(got, wantElse) {
		t.Errorf("false branch x = %s, want %s", got.String(), wantElse.String())
	}
}

func TestOrWithUnconstrainingArm(t *testing.T) {
	b := ast.NewBuilder()
	inThen := b.Name("x")
	inElse := b.Name("x")
	body := []ast.Statement{
		b.ClassDef("Animal", nil, b.Pass()),
		b.ClassDef("Dog", []ast.Expression{b.Name("Animal")}, b.Pass()),
	}
	body = append(body, optional(b, "x", b.Call(b.Name("Animal")), b.Call(b.Name("Dog")))...)
	// The second arm says nothing about x, so the disjunction drops the key.
	body = append(body,
		b.If(b.Or(
			b.Call(b.Name("isinstance"), b.Name("x"), b.Name("Dog")),
			boolCond(b),
		),
			[]ast.Statement{b.Assign(b.Name("a"), inThen)},
			b.Assign(b.Name("bb"), inElse),
		),
	)
	c, table, sink := checkModule(t, b.Module("m", body...))
	wantNoDiags(t, sink)

	animal := c.BindingType(table.Module.BindingsOf("Animal")[0]).(*types.ClassType)
	dog := c.BindingType(table.Module.BindingsOf("Dog")[0]).(*types.ClassType)
	if got := c.TypeOf(inThen.ID()); !got.Equals(types.NewInstance(animal)) {
		t.Errorf("x = %s, want the unnarrowed Animal", got.String())
	}
	// The false branch still conjoins every arm's falsy constraint.
	wantElse := types.NarrowAway(types.NewInstance(animal), types.NewInstance(dog))
	if got := c.TypeOf(inElse.ID()); !types.IsEquivalent(got, wantElse) {
		t.Errorf("false branch x = %s, want %s", got.String(), wantElse.String())
	}
}

func TestOrFalseBranchExcludesEveryArm(t *testing.T) {
	b := ast.NewBuilder()
	inThen := b.Name("x")
	inElse := b.Name("x")
	body := []ast.Statement{
		b.ClassDef("A", nil, b.Pass()),
		b.ClassDef("B", nil, b.Pass()),
		b.ClassDef("C", nil, b.Pass()),
		b.Assign(b.Name("c1"), boolCond(b)),
		b.Assign(b.Name("c2"), boolCond(b)),
		b.Assign(b.Name("flag"), boolCond(b)),
		b.If(b.Name("c1"),
			[]ast.Statement{b.Assign(b.Name("x"), b.Call(b.Name("A")))},
			b.If(b.Name("c2"),
				[]ast.Statement{b.Assign(b.Name("x"), b.Call(b.Name("B")))},
				b.Assign(b.Name("x"), b.Call(b.Name("C"))),
			),
		),
		b.If(b.Or(
			b.Call(b.Name("isinstance"), b.Name("x"), b.Name("A")),
			b.Call(b.Name("isinstance"), b.Name("x"), b.Name("B")),
			b.Name("flag"),
		),
			[]ast.Statement{b.Assign(b.Name("a"), inThen)},
			b.Assign(b.Name("bb"), inElse),
		),
	}
	c, table, sink := checkModule(t, b.Module("m", body...))
	wantNoDiags(t, sink)

	aInst := types.NewInstance(c.BindingType(table.Module.BindingsOf("A")[0]).(*types.ClassType))
	bInst := types.NewInstance(c.BindingType(table.Module.BindingsOf("B")[0]).(*types.ClassType))
	cInst := types.NewInstance(c.BindingType(table.Module.BindingsOf("C")[0]).(*types.ClassType))

	// `flag` constrains nothing about x, so the true branch keeps the full
	// union.
	ambient := types.NewUnionType(aInst, bInst, cInst)
	if got := c.TypeOf(inThen.ID()); !types.IsEquivalent(got, ambient) {
		t.Errorf("true branch x = %s, want %s", got.String(), ambient.String())
	}
	// All arms were falsy: x is a C that is neither an A nor a B.
	wantElse := types.Intersect(types.Intersect(cInst, types.Negate(aInst)), types.Negate(bInst))
	if got := c.TypeOf(inElse.ID()); !types.IsEquivalent(got, wantElse) {
		t.Errorf("false branch x = %s, want %s", got.String(), wantElse.String())
	}
}

func TestEqualityNarrowsSingleValuedUnions(t *testing.T) {
	b := ast.NewBuilder()
	inThen := b.Name("x")
	inElse := b.Name("x")
	body := optional(b, "x", b.Int(1), b.Int(2))
	body = append(body,
		b.If(b.Compare(b.Name("x"), ast.Eq, b.Int(1)),
			[]ast.Statement{b.Assign(b.Name("a"), inThen)},
			b.Assign(b.Name("b"), inElse),
		),
	)
	c, _, sink := checkModule(t, b.Module("m", body...))
	wantNoDiags(t, sink)

	if got := c.TypeOf(inThen.ID()); !got.Equals(types.NewIntLiteral(1)) {
		t.Errorf("x under `x == 1` = %s, want Literal[1]", got.String())
	}
	if got := c.TypeOf(inElse.ID()); !got.Equals(types.NewIntLiteral(2)) {
		t.Errorf("x under `x != 1` = %s, want Literal[2]", got.String())
	}
}

func TestEqualityDoesNotNarrowMultiValuedTypes(t *testing.T) {
	b := ast.NewBuilder()
	inThen := b.Name("y")
	m := b.Module("m",
		b.Assign(b.Name("y"), b.Call(b.Name("len"), b.Str("abc"))),
		b.If(b.Compare(b.Name("y"), ast.Eq, b.Int(1)),
			[]ast.Statement{b.Assign(b.Name("a"), inThen)},
		),
	)
	c, _, sink := checkModule(t, m)
	wantNoDiags(t, sink)

	// Two ints can compare equal without being the same value class-wide; int
	// is not a union of single values, so no narrowing applies.
	if got := c.TypeOf(inThen.ID()); !got.Equals(types.IntType) {
		t.Errorf("y under `y == 1` = %s, want int", got.String())
	}
}

func TestChainedComparisonComposes(t *testing.T) {
	b := ast.NewBuilder()
	inThen := b.Name("x")
	inAfter := b.Name("x")
	body := optional(b, "x", b.Bool(false), b.None())
	// `y is x is False` requires x to be both None (via y) and False: the
	// then branch is impossible.
	body = append(body,
		b.Assign(b.Name("y"), b.None()),
		b.If(b.CompareChain(b.Name("y"), []ast.CmpOp{ast.Is, ast.Is},
			[]ast.Expression{b.Name("x"), b.Bool(false)}),
			[]ast.Statement{b.Assign(b.Name("a"), inThen)},
		),
		b.Assign(b.Name("after"), inAfter),
	)
	c, _, sink := checkModule(t, b.Module("m", body...))
	wantNoDiags(t, sink)

	if got := c.TypeOf(inThen.ID()); got != types.Never {
		t.Errorf("x under the impossible chain = %s, want Never", got.String())
	}
	want := types.NewUnionType(types.FalseLiteral, types.None)
	if got := c.TypeOf(inAfter.ID()); !types.IsEquivalent(got, want) {
		t.Errorf("x after the dead branch = %s, want %s", got.String(), want.String())
	}
}

func TestMembershipNarrowing(t *testing.T) {
	b := ast.NewBuilder()
	inThen := b.Name("x")
	inElse := b.Name("x")
	body := optional(b, "x", b.Str("a"), b.Str("b"))
	body = append(body,
		b.If(b.Compare(b.Name("x"), ast.In, b.Tuple(b.Str("a"))),
			[]ast.Statement{b.Assign(b.Name("p"), inThen)},
			b.Assign(b.Name("q"), inElse),
		),
	)
	c, _, sink := checkModule(t, b.Module("m", body...))
	wantNoDiags(t, sink)

	if got := c.TypeOf(inThen.ID()); !got.Equals(types.NewStrLiteral("a")) {
		t.Errorf(`x under membership = %s, want Literal["a"]`, got.String())
	}
	if got := c.TypeOf(inElse.ID()); !got.Equals(types.NewStrLiteral("b")) {
		t.Errorf(`x under non-membership = %s, want Literal["b"]`, got.String())
	}
}

func TestAttributeNarrowingAndInvalidation(t *testing.T) {
	b := ast.NewBuilder()
	narrowed := b.Attr(b.Name("box"), "value")
	afterRebind := b.Attr(b.Name("box"), "value")
	m := b.Module("m",
		b.Assign(b.Name("cond"), boolCond(b)),
		b.ClassDef("Box", nil,
			b.If(b.Name("cond"),
				[]ast.Statement{b.Assign(b.Name("value"), b.Str("s"))},
				b.Assign(b.Name("value"), b.None()),
			),
		),
		b.Assign(b.Name("box"), b.Call(b.Name("Box"))),
		b.If(b.Compare(b.Attr(b.Name("box"), "value"), ast.IsNot, b.None()),
			[]ast.Statement{
				b.Assign(b.Name("v"), narrowed),
				b.Assign(b.Name("box"), b.Call(b.Name("Box"))),
				b.Assign(b.Name("w"), afterRebind),
			},
		),
	)
	c, _, sink := checkModule(t, m)
	wantNoDiags(t, sink)

	if got := c.TypeOf(narrowed.ID()); !got.Equals(types.NewStrLiteral("s")) {
		t.Errorf(`box.value while narrowed = %s, want Literal["s"]`, got.String())
	}
	// Rebinding the root drops every narrowing under it.
	want := types.NewUnionType(types.NewStrLiteral("s"), types.None)
	if got := c.TypeOf(afterRebind.ID()); !types.IsEquivalent(got, want) {
		t.Errorf("box.value after rebinding box = %s, want %s", got.String(), want.String())
	}
}

func TestBoolCallIsTransparentToNarrowing(t *testing.T) {
	b := ast.NewBuilder()
	inThen := b.Name("x")
	body := optional(b, "x", b.Int(1), b.None())
	body = append(body,
		b.If(b.Call(b.Name("bool"), b.Compare(b.Name("x"), ast.IsNot, b.None())),
			[]ast.Statement{b.Assign(b.Name("a"), inThen)},
		),
	)
	c, _, sink := checkModule(t, b.Module("m", body...))
	wantNoDiags(t, sink)

	if got := c.TypeOf(inThen.ID()); !got.Equals(types.NewIntLiteral(1)) {
		t.Errorf("x under bool(x is not None) = %s, want Literal[1]", got.String())
	}
}

func TestNotInverts(t *testing.T) {
	b := ast.NewBuilder()
	inThen := b.Name("x")
	body := optional(b, "x", b.Int(1), b.None())
	body = append(body,
		b.If(b.Not(b.Compare(b.Name("x"), ast.Is, b.None())),
			[]ast.Statement{b.Assign(b.Name("a"), inThen)},
		),
	)
	c, _, sink := checkModule(t, b.Module("m", body...))
	wantNoDiags(t, sink)

	if got := c.TypeOf(inThen.ID()); !got.Equals(types.NewIntLiteral(1)) {
		t.Errorf("x under `not (x is None)` = %s, want Literal[1]", got.String())
	}
}

func TestTruthinessNarrowsCondition(t *testing.T) {
	b := ast.NewBuilder()
	inThen := b.Name("x")
	inElse := b.Name("x")
	body := optional(b, "x", b.Int(1), b.None())
	body = append(body,
		b.If(b.Name("x"),
			[]ast.Statement{b.Assign(b.Name("a"), inThen)},
			b.Assign(b.Name("b"), inElse),
		),
	)
	c, _, sink := checkModule(t, b.Module("m", body...))
	wantNoDiags(t, sink)

	if got := c.TypeOf(inThen.ID()); !got.Equals(types.NewIntLiteral(1)) {
		t.Errorf("truthy x = %s, want Literal[1]", got.String())
	}
	if got := c.TypeOf(inElse.ID()); !got.Equals(types.None) {
		t.Errorf("falsy x = %s, want None", got.String())
	}
}

func TestNarrowingSurvivesMergeWhenAllPathsAgree(t *testing.T) {
	b := ast.NewBuilder()
	after := b.Name("x")
	body := optional(b, "x", b.Int(1), b.None())
	// Both the then branch (narrowed, then untouched) and the implicit else
	// carry a narrowing for x, so the merged state keeps their union.
	body = append(body,
		b.If(b.Compare(b.Name("x"), ast.Is, b.None()),
			[]ast.Statement{b.Assign(b.Name("note"), b.Int(0))},
			b.Assign(b.Name("note"), b.Int(1)),
		),
		b.Assign(b.Name("use"), after),
	)
	c, _, sink := checkModule(t, b.Module("m", body...))
	wantNoDiags(t, sink)

	want := types.NewUnionType(types.None, types.NewIntLiteral(1))
	if got := c.TypeOf(after.ID()); !types.IsEquivalent(got, want) {
		t.Errorf("x after the merge = %s, want %s", got.String(), want.String())
	}
}

func TestIssubclassNarrowing(t *testing.T) {
	b := ast.NewBuilder()
	inThen := b.Name("cls")
	body := []ast.Statement{
		b.ClassDef("Animal", nil, b.Pass()),
		b.ClassDef("Dog", []ast.Expression{b.Name("Animal")}, b.Pass()),
	}
	body = append(body, optional(b, "cls", b.Name("Animal"), b.Name("Dog"))...)
	body = append(body,
		b.If(b.Call(b.Name("issubclass"), b.Name("cls"), b.Name("Dog")),
			[]ast.Statement{b.Assign(b.Name("a"), inThen)},
		),
	)
	c, table, sink := checkModule(t, b.Module("m", body...))
	wantNoDiags(t, sink)

	dog := c.BindingType(table.Module.BindingsOf("Dog")[0]).(*types.ClassType)
	if got := c.TypeOf(inThen.ID()); !got.Equals(dog) {
		t.Errorf("cls under issubclass = %s, want the Dog class object", got.String())
	}
}
