package types

// --- Subtyping and Assignability ---

// typePair keys the in-progress guard for recursive relation checks. The type
// graph may be cyclic (recursive generics, self-referential bounds); on
// re-entry the relation answers false for the inner occurrence and the outer
// call re-derives the final answer from the cycle's other members.
type typePair struct{ a, b Type }

// IsSubtype reports whether every value of `a` is also a value of `b`.
// This is the strict relation: Unknown is not a subtype of anything but
// itself, and nothing is a subtype of Unknown.
func IsSubtype(a, b Type) bool {
	return relate(a, b, false, make(map[typePair]bool))
}

// IsAssignable is the gradual relation used for assignment checking: like
// IsSubtype, but Unknown is compatible in both directions at every level.
func IsAssignable(source, target Type) bool {
	return relate(source, target, true, make(map[typePair]bool))
}

// IsEquivalent reports mutual subtyping.
func IsEquivalent(a, b Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Equals(b) {
		return true
	}
	return IsSubtype(a, b) && IsSubtype(b, a)
}

func relate(a, b Type, gradual bool, inProgress map[typePair]bool) bool {
	if a == nil || b == nil {
		return false
	}
	if gradual && (a == Unknown || b == Unknown) {
		return true
	}
	if a == Never {
		return true
	}
	if b == Never {
		return false
	}
	if a.Equals(b) {
		return true
	}
	if a == Unknown || b == Unknown {
		return false
	}

	pair := typePair{a, b}
	if inProgress[pair] {
		// Cycle: answer with the placeholder; the outer call decides.
		return false
	}
	inProgress[pair] = true
	defer delete(inProgress, pair)

	// Union on the left: every member must relate.
	if ua, ok := a.(*UnionType); ok {
		for _, m := range ua.Types {
			if !relate(m, b, gradual, inProgress) {
				return false
			}
		}
		return true
	}

	// Intersection on the right: a must satisfy every positive and avoid
	// every negative.
	if ib, ok := b.(*IntersectionType); ok {
		for _, p := range ib.Positive {
			if !relate(a, p, gradual, inProgress) {
				return false
			}
		}
		for _, n := range ib.Negative {
			if !IsDisjoint(a, n) {
				return false
			}
		}
		return true
	}

	// Union on the right: some member must accept a.
	if ub, ok := b.(*UnionType); ok {
		for _, m := range ub.Types {
			if relate(a, m, gradual, inProgress) {
				return true
			}
		}
		return false
	}

	// Intersection on the left: any positive member inside b suffices.
	if ia, ok := a.(*IntersectionType); ok {
		for _, p := range ia.Positive {
			if relate(p, b, gradual, inProgress) {
				return true
			}
		}
		// A purely negative intersection is only inside object.
		return isObjectInstance(b)
	}

	// object is the top of the value domain.
	if isObjectInstance(b) {
		return true
	}

	// Type variable on the left: judge by its bound or constraints.
	if tv, ok := a.(*TypeParameterType); ok {
		if tv.Parameter.Bound != nil {
			return relate(tv.Parameter.Bound, b, gradual, inProgress)
		}
		if len(tv.Parameter.Constraints) > 0 {
			for _, c := range tv.Parameter.Constraints {
				if !relate(c, b, gradual, inProgress) {
					return false
				}
			}
			return true
		}
		return false
	}
	if _, ok := b.(*TypeParameterType); ok {
		// Nothing but the variable itself (handled by Equals above) is known
		// to be inside an abstract type variable.
		return false
	}

	switch at := a.(type) {
	case *LiteralType:
		if bi, ok := b.(*InstanceType); ok && len(bi.TypeArgs) == 0 {
			return at.Class().IsSubclassOf(bi.Class)
		}
		return false
	case *InstanceType:
		bi, ok := b.(*InstanceType)
		if !ok {
			return false
		}
		if len(bi.TypeArgs) == 0 {
			return at.Class.IsSubclassOf(bi.Class)
		}
		// Generic target: same class, invariant arguments.
		if at.Class != bi.Class || len(at.TypeArgs) != len(bi.TypeArgs) {
			return false
		}
		for i, arg := range at.TypeArgs {
			if gradual {
				if !relate(arg, bi.TypeArgs[i], true, inProgress) || !relate(bi.TypeArgs[i], arg, true, inProgress) {
					return false
				}
			} else if !IsEquivalent(arg, bi.TypeArgs[i]) {
				return false
			}
		}
		return true
	case *TupleType:
		if bt, ok := b.(*TupleType); ok {
			if len(at.Elements) != len(bt.Elements) {
				return false
			}
			for i, e := range at.Elements {
				if !relate(e, bt.Elements[i], gradual, inProgress) {
					return false
				}
			}
			return true
		}
		if bi, ok := b.(*InstanceType); ok && len(bi.TypeArgs) == 0 {
			return TupleClass.IsSubclassOf(bi.Class)
		}
		return false
	case *CallableType:
		if bc, ok := b.(*CallableType); ok {
			as, bs := at.Sig, bc.Sig
			if len(as.ParameterTypes) != len(bs.ParameterTypes) || as.IsVariadic != bs.IsVariadic {
				return false
			}
			for i := range as.ParameterTypes {
				// Parameters are contravariant.
				if !relate(bs.ParameterTypes[i], as.ParameterTypes[i], gradual, inProgress) {
					return false
				}
			}
			return relate(as.ReturnType, bs.ReturnType, gradual, inProgress)
		}
		if bi, ok := b.(*InstanceType); ok && len(bi.TypeArgs) == 0 {
			return FunctionClass.IsSubclassOf(bi.Class)
		}
		return false
	case *ClassType:
		if bs, ok := b.(*SubclassOfType); ok {
			return at.IsSubclassOf(bs.Class)
		}
		if bi, ok := b.(*InstanceType); ok && len(bi.TypeArgs) == 0 {
			return TypeClass.IsSubclassOf(bi.Class)
		}
		return false
	case *SubclassOfType:
		if bs, ok := b.(*SubclassOfType); ok {
			return at.Class.IsSubclassOf(bs.Class)
		}
		if bi, ok := b.(*InstanceType); ok && len(bi.TypeArgs) == 0 {
			return TypeClass.IsSubclassOf(bi.Class)
		}
		return false
	case *ModuleType:
		if bi, ok := b.(*InstanceType); ok && len(bi.TypeArgs) == 0 {
			return ModuleClass.IsSubclassOf(bi.Class)
		}
		return false
	default:
		return false
	}
}

func isObjectInstance(t Type) bool {
	it, ok := t.(*InstanceType)
	return ok && it.Class == ObjectClass && len(it.TypeArgs) == 0
}
