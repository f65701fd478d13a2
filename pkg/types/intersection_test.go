package types

import "testing"

func TestIntersectBasics(t *testing.T) {
	if got := Intersect(IntType, Never); got != Never {
		t.Errorf("int & Never = %s, want Never", got.String())
	}
	if got := Intersect(IntType, Unknown); !got.Equals(IntType) {
		t.Errorf("int & Unknown = %s, want int", got.String())
	}
	// Disjoint final instances have no common value.
	if got := Intersect(IntType, StrType); got != Never {
		t.Errorf("int & str = %s, want Never", got.String())
	}
}

func TestIntersectSubsumption(t *testing.T) {
	animal := NewClass("Animal", []*ClassType{ObjectClass}, nil)
	dog := NewClass("Dog", []*ClassType{animal}, nil)
	if got := Intersect(NewInstance(animal), NewInstance(dog)); !got.Equals(NewInstance(dog)) {
		t.Errorf("Animal & Dog = %s, want Dog", got.String())
	}
	if got := Intersect(IntType, ObjectInstance); !got.Equals(IntType) {
		t.Errorf("int & object = %s, want int", got.String())
	}
}

func TestIntersectDistributesOverUnion(t *testing.T) {
	animal := NewClass("Animal", []*ClassType{ObjectClass}, nil)
	sized := NewClass("Sized", []*ClassType{ObjectClass}, nil)
	a, s := NewInstance(animal), NewInstance(sized)

	got := Intersect(NewUnionType(a, StrType), s)
	// (Animal | str) & Sized: the str arm dies (str is final and unrelated),
	// leaving Animal & Sized.
	want := Intersect(a, s)
	if !got.Equals(want) {
		t.Errorf("(Animal | str) & Sized = %s, want %s", got.String(), want.String())
	}
}

func TestIntersectionNegativeSimplification(t *testing.T) {
	animal := NewClass("Animal", []*ClassType{ObjectClass}, nil)
	dog := NewClass("Dog", []*ClassType{animal}, nil)
	a, d := NewInstance(animal), NewInstance(dog)

	// Positive inside the negative leaves nothing.
	if got := NewIntersectionWith([]Type{d}, []Type{a}); got != Never {
		t.Errorf("Dog & ~Animal = %s, want Never", got.String())
	}
	// A negative disjoint from the positive is redundant.
	if got := NewIntersectionWith([]Type{a}, []Type{StrType}); !got.Equals(a) {
		t.Errorf("Animal & ~str = %s, want Animal", got.String())
	}
	// Negating everything leaves nothing.
	if got := NewIntersectionWith(nil, []Type{ObjectInstance}); got != Never {
		t.Errorf("~object = %s, want Never", got.String())
	}
	// Empty intersection is the top type.
	if got := NewIntersectionWith(nil, nil); !got.Equals(ObjectInstance) {
		t.Errorf("empty intersection = %s, want object", got.String())
	}
}

func TestNegateRoundTrip(t *testing.T) {
	animal := NewClass("Animal", []*ClassType{ObjectClass}, nil)
	cases := []Type{
		NewInstance(animal),
		NewIntLiteral(3),
		None,
		NewUnionType(IntType, None),
	}
	for _, typ := range cases {
		neg := Negate(typ)
		if neg == nil {
			t.Errorf("Negate(%s) not expressible", typ.String())
			continue
		}
		back := Negate(neg)
		if back == nil || !back.Equals(typ) {
			t.Errorf("Negate(Negate(%s)) = %v, want the original", typ.String(), back)
		}
	}
}

func TestNegateSpecials(t *testing.T) {
	if got := Negate(Never); !got.Equals(ObjectInstance) {
		t.Errorf("~Never = %s, want object", got.String())
	}
	if got := Negate(Unknown); got != Unknown {
		t.Errorf("~Unknown = %s, want Unknown", got.String())
	}
}

func TestNegateDeMorgan(t *testing.T) {
	animal := NewClass("Animal", []*ClassType{ObjectClass}, nil)
	sized := NewClass("Sized", []*ClassType{ObjectClass}, nil)
	a, s := NewInstance(animal), NewInstance(sized)

	// ~(A | B) == ~A & ~B
	left := Negate(NewUnionType(a, s))
	right := Intersect(Negate(a), Negate(s))
	if left == nil || !left.Equals(right) {
		t.Errorf("~(A | B) = %v, want %s", left, right.String())
	}

	// ~(A & B) == ~A | ~B
	left = Negate(Intersect(a, s))
	right = NewUnionType(Negate(a), Negate(s))
	if left == nil || !left.Equals(right) {
		t.Errorf("~(A & B) = %v, want %s", left, right.String())
	}
}
