package types

import "testing"

func TestNarrowBasics(t *testing.T) {
	optInt := NewUnionType(IntType, None)

	if got := Narrow(optInt, None); !got.Equals(None) {
		t.Errorf("narrow (int | None) to None = %s, want None", got.String())
	}
	if got := NarrowAway(optInt, None); !got.Equals(IntType) {
		t.Errorf("narrow (int | None) away from None = %s, want int", got.String())
	}
	if got := Narrow(IntType, StrType); got != Never {
		t.Errorf("narrow int to str = %s, want Never", got.String())
	}
	if got := Narrow(Unknown, IntType); !got.Equals(IntType) {
		t.Errorf("narrow Unknown to int = %s, want int", got.String())
	}
	if got := Narrow(IntType, nil); !got.Equals(IntType) {
		t.Errorf("nil test must pass the ambient through, got %s", got.String())
	}
}

// Narrowing a type by T and away from T must partition it: the union of the
// two halves covers exactly the original.
func TestNarrowPartition(t *testing.T) {
	dog := NewClass("Dog", []*ClassType{ObjectClass}, nil)

	cases := []struct {
		name    string
		ambient Type
		test    Type
	}{
		{"optional int by None", NewUnionType(IntType, None), None},
		{"int str none by str", NewUnionType(IntType, StrType, None), StrType},
		{"optional dog by dog", NewUnionType(NewInstance(dog), None), NewInstance(dog)},
		{"literal union by literal", NewUnionType(NewIntLiteral(1), NewIntLiteral(2)), NewIntLiteral(1)},
	}
	for _, tc := range cases {
		in := Narrow(tc.ambient, tc.test)
		out := NarrowAway(tc.ambient, tc.test)
		whole := NewUnionType(in, out)
		if !whole.Equals(tc.ambient) {
			t.Errorf("%s: %s ∪ %s = %s, want %s",
				tc.name, in.String(), out.String(), whole.String(), tc.ambient.String())
		}
	}
}

func TestNarrowIdempotent(t *testing.T) {
	ambient := NewUnionType(IntType, StrType, None)
	once := Narrow(ambient, StrType)
	twice := Narrow(once, StrType)
	if !twice.Equals(once) {
		t.Errorf("narrowing twice changed the result: %s then %s", once.String(), twice.String())
	}

	away := NarrowAway(ambient, None)
	awayTwice := NarrowAway(away, None)
	if !awayTwice.Equals(away) {
		t.Errorf("narrowing away twice changed the result: %s then %s", away.String(), awayTwice.String())
	}
}

func TestNarrowConstrainedTypeVar(t *testing.T) {
	tv := NewConstrainedTypeVar("T", IntType, StrType)

	// Narrowing keeps the value generic: the result is still a type variable,
	// its parameter restricted to the surviving constraints.
	got, ok := Narrow(tv, StrType).(*TypeParameterType)
	if !ok {
		t.Fatalf("narrow T(int, str) to str lost the type variable, got %s", Narrow(tv, StrType).String())
	}
	if got.Parameter.Name != "T" {
		t.Errorf("narrowed parameter name = %q, want T", got.Parameter.Name)
	}
	if len(got.Parameter.Constraints) != 1 || !got.Parameter.Constraints[0].Equals(StrType) {
		t.Errorf("narrowed constraints = %s, want exactly str", got.String())
	}

	if g := Narrow(tv, None); g != Never {
		t.Errorf("narrow T(int, str) to None = %s, want Never", g.String())
	}

	// A test that rules nothing out returns the variable itself.
	if g := Narrow(tv, NewUnionType(IntType, StrType)); g != Type(tv) {
		t.Errorf("vacuous narrowing replaced the type variable with %s", g.String())
	}
}

func TestNarrowInexpressibleComplement(t *testing.T) {
	// The complement of a callable is not expressible; the ambient must pass
	// through rather than narrow incorrectly.
	ambient := NewUnionType(IntType, None)
	if got := NarrowAway(ambient, NewCallable(IntType)); !got.Equals(ambient) {
		t.Errorf("inexpressible complement: got %s, want %s", got.String(), ambient.String())
	}
}

func TestWiden(t *testing.T) {
	if got := Widen(NewIntLiteral(3)); !got.Equals(IntType) {
		t.Errorf("widen Literal[3] = %s, want int", got.String())
	}
	if got := Widen(NewUnionType(NewIntLiteral(1), NewIntLiteral(2))); !got.Equals(IntType) {
		t.Errorf("widen Literal[1] | Literal[2] = %s, want int", got.String())
	}
	if got := Widen(NewUnionType(TrueLiteral, NewStrLiteral("x"))); !got.Equals(NewUnionType(BoolType, StrType)) {
		t.Errorf("widen Literal[True] | Literal[\"x\"] = %s, want bool | str", got.String())
	}
	if got := Widen(IntType); !got.Equals(IntType) {
		t.Errorf("widen int = %s, want int", got.String())
	}
}
