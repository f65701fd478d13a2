package types

// IsDisjoint reports a statically provable empty intersection between two
// types. False means "not provably disjoint", never "provably overlapping":
// narrowing uses a true answer to emit Never, so only certain rules apply:
//
//   - Never is disjoint from everything, including itself.
//   - Unknown is disjoint from nothing.
//   - Two final classes with unrelated hierarchies are disjoint; a non-final
//     class is never provably disjoint from another class by hierarchy alone,
//     because a future subclass may inherit from both.
//   - Same final generic class: disjoint only when an invariant argument pair
//     is itself disjoint.
//   - Distinct literal values are disjoint; a literal and an instance type are
//     disjoint when the literal's class does not descend from the instance's.
func IsDisjoint(a, b Type) bool {
	return disjoint(a, b, make(map[typePair]bool))
}

func disjoint(a, b Type, inProgress map[typePair]bool) bool {
	if a == nil || b == nil {
		return false
	}
	if a == Never || b == Never {
		return true
	}
	if a == Unknown || b == Unknown {
		return false
	}
	if a.Equals(b) {
		return false
	}

	pair := typePair{a, b}
	if inProgress[pair] {
		// Cycle guard: claim no proof rather than recursing forever.
		return false
	}
	inProgress[pair] = true
	defer delete(inProgress, pair)

	// Unions: disjoint only if every member is.
	if ua, ok := a.(*UnionType); ok {
		for _, m := range ua.Types {
			if !disjoint(m, b, inProgress) {
				return false
			}
		}
		return true
	}
	if ub, ok := b.(*UnionType); ok {
		for _, m := range ub.Types {
			if !disjoint(a, m, inProgress) {
				return false
			}
		}
		return true
	}

	// Intersections: one disjoint positive member is proof; so is the other
	// side sitting entirely inside a negative member.
	if ia, ok := a.(*IntersectionType); ok {
		for _, p := range ia.Positive {
			if disjoint(p, b, inProgress) {
				return true
			}
		}
		for _, n := range ia.Negative {
			if IsSubtype(b, n) {
				return true
			}
		}
		return false
	}
	if ib, ok := b.(*IntersectionType); ok {
		return disjoint(ib, a, inProgress)
	}

	// A constrained or bounded type variable is disjoint when every one of
	// its possible instantiations is.
	if tv, ok := a.(*TypeParameterType); ok {
		if len(tv.Parameter.Constraints) > 0 {
			for _, c := range tv.Parameter.Constraints {
				if !disjoint(c, b, inProgress) {
					return false
				}
			}
			return true
		}
		if tv.Parameter.Bound != nil {
			return disjoint(tv.Parameter.Bound, b, inProgress)
		}
		return false
	}
	if _, ok := b.(*TypeParameterType); ok {
		return disjoint(b, a, inProgress)
	}

	// Normalize value-ish forms to instance types where possible.
	switch at := a.(type) {
	case *LiteralType:
		switch bt := b.(type) {
		case *LiteralType:
			// Equals already ruled out the same value.
			return true
		case *InstanceType:
			return !at.Class().IsSubclassOf(bt.Class)
		default:
			return disjoint(NewInstance(at.Class()), b, inProgress)
		}
	case *InstanceType:
		switch bt := b.(type) {
		case *LiteralType:
			return disjoint(b, a, inProgress)
		case *InstanceType:
			return instancesDisjoint(at, bt, inProgress)
		case *TupleType:
			return disjoint(a, NewInstance(TupleClass), inProgress)
		case *CallableType:
			return disjoint(a, NewInstance(FunctionClass), inProgress)
		case *ClassType, *SubclassOfType:
			return disjoint(a, NewInstance(TypeClass), inProgress)
		case *ModuleType:
			return disjoint(a, NewInstance(ModuleClass), inProgress)
		default:
			return false
		}
	case *TupleType:
		if bt, ok := b.(*TupleType); ok {
			if len(at.Elements) != len(bt.Elements) {
				return true
			}
			for i, e := range at.Elements {
				if disjoint(e, bt.Elements[i], inProgress) {
					return true
				}
			}
			return false
		}
		return disjoint(NewInstance(TupleClass), b, inProgress)
	case *CallableType:
		if _, ok := b.(*CallableType); ok {
			return false
		}
		return disjoint(NewInstance(FunctionClass), b, inProgress)
	case *ClassType:
		switch bt := b.(type) {
		case *ClassType:
			// Distinct class objects are distinct values.
			return true
		case *SubclassOfType:
			return !at.IsSubclassOf(bt.Class)
		default:
			return disjoint(NewInstance(TypeClass), b, inProgress)
		}
	case *SubclassOfType:
		switch bt := b.(type) {
		case *ClassType:
			return disjoint(b, a, inProgress)
		case *SubclassOfType:
			// type[A] and type[B] overlap when a common subclass can exist.
			if at.Class.Final {
				return !at.Class.IsSubclassOf(bt.Class)
			}
			if bt.Class.Final {
				return !bt.Class.IsSubclassOf(at.Class)
			}
			return false
		default:
			return disjoint(NewInstance(TypeClass), b, inProgress)
		}
	case *ModuleType:
		if bt, ok := b.(*ModuleType); ok {
			return at.ModuleName != bt.ModuleName
		}
		return disjoint(NewInstance(ModuleClass), b, inProgress)
	default:
		return false
	}
}

func instancesDisjoint(a, b *InstanceType, inProgress map[typePair]bool) bool {
	if a.Class == b.Class {
		// Same generic class: only invariant-argument disjointness proves
		// anything, and only for final classes (a subclass could redeclare
		// the parameter otherwise).
		if !a.Class.Final || len(a.TypeArgs) != len(b.TypeArgs) {
			return false
		}
		for i, arg := range a.TypeArgs {
			if disjoint(arg, b.TypeArgs[i], inProgress) {
				return true
			}
		}
		return false
	}
	if a.Class.IsSubclassOf(b.Class) || b.Class.IsSubclassOf(a.Class) {
		return false
	}
	if a.Class.Final || b.Class.Final {
		return true
	}
	// Unrelated but both extensible: a future subclass of both may exist.
	return false
}
