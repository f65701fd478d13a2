package types

// Narrow restricts an ambient type by a test type: the result covers exactly
// the values of `ambient` that are also values of `test`. A nil test means
// "no constraint" and passes the ambient through unchanged.
//
// A union ambient narrows member-wise and re-unions; a constrained type
// variable distributes over its constraints and stays a type variable, its
// parameter carrying the surviving narrowed constraints. A provably
// impossible constraint yields Never: not an error, but a signal of dead
// code.
func Narrow(ambient, test Type) Type {
	if test == nil || ambient == nil {
		return ambient
	}
	if ambient == Never || test == Never {
		return Never
	}
	if ambient == Unknown {
		// Gradual ambient: adopt the test type wholesale.
		return test
	}
	if test == Unknown {
		return ambient
	}

	if union, ok := ambient.(*UnionType); ok {
		narrowed := make([]Type, 0, len(union.Types))
		for _, m := range union.Types {
			narrowed = append(narrowed, Narrow(m, test))
		}
		return NewUnionType(narrowed...)
	}

	if tv, ok := ambient.(*TypeParameterType); ok && len(tv.Parameter.Constraints) > 0 {
		narrowed := make([]Type, 0, len(tv.Parameter.Constraints))
		changed := false
		for _, c := range tv.Parameter.Constraints {
			n := Narrow(c, test)
			if !n.Equals(c) {
				changed = true
			}
			if n != Never {
				narrowed = append(narrowed, n)
			}
		}
		if len(narrowed) == 0 {
			return Never
		}
		if !changed {
			return tv
		}
		return &TypeParameterType{Parameter: &TypeParameter{
			Name:        tv.Parameter.Name,
			Bound:       tv.Parameter.Bound,
			Constraints: narrowed,
			Default:     tv.Parameter.Default,
		}}
	}

	if IsSubtype(ambient, test) {
		return ambient
	}
	if IsDisjoint(ambient, test) {
		return Never
	}
	if IsSubtype(test, ambient) {
		return test
	}
	return Intersect(ambient, test)
}

// NarrowAway removes the values of `test` from `ambient`: the false-branch
// counterpart of Narrow. When the complement of `test` is inexpressible the
// ambient passes through unchanged (no incorrect narrowing, best-effort
// precision).
func NarrowAway(ambient, test Type) Type {
	if test == nil || ambient == nil {
		return ambient
	}
	neg := Negate(test)
	if neg == nil {
		return ambient
	}
	return Narrow(ambient, neg)
}
