package types

// --- Intersection Types ---

// IntersectionType represents an intersection with positive and negative
// members: every positive must hold and every negative must not. An empty
// positive list with negatives means "everything except the negatives".
type IntersectionType struct {
	Positive []Type
	Negative []Type
}

func (it *IntersectionType) String() string {
	out := ""
	for i, t := range it.Positive {
		if i > 0 {
			out += " & "
		}
		out += t.String()
	}
	for i, t := range it.Negative {
		if i > 0 || len(it.Positive) > 0 {
			out += " & "
		}
		out += "~" + t.String()
	}
	if out == "" {
		return "object"
	}
	return out
}
func (it *IntersectionType) typeNode() {}
func (it *IntersectionType) Equals(other Type) bool {
	o, ok := other.(*IntersectionType)
	if !ok {
		return false
	}
	return typeSetEquals(it.Positive, o.Positive) && typeSetEquals(it.Negative, o.Negative)
}

// typeSetEquals compares two member slices as sets under structural equality.
func typeSetEquals(a, b []Type) bool {
	if len(a) != len(b) {
		return false
	}
	matched := make([]bool, len(b))
	for _, t1 := range a {
		found := false
		for j, t2 := range b {
			if !matched[j] && t1.Equals(t2) {
				matched[j] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Intersect builds the simplified intersection of two types.
func Intersect(a, b Type) Type {
	return NewIntersectionType(a, b)
}

// NewIntersectionType creates an intersection of positive members, flattening
// nested intersections (including their negative parts).
func NewIntersectionType(ts ...Type) Type {
	return NewIntersectionWith(ts, nil)
}

// NewIntersectionWith creates a simplified intersection from positive and
// negative member lists. Simplifications applied:
//   - nested intersections are flattened into both lists
//   - Never absorbs; Unknown is dropped when anything else remains
//   - duplicate members collapse; a positive subsumed by another positive is
//     dropped; provably disjoint positives collapse the whole thing to Never
//   - a negative disjoint from a positive is redundant and dropped; a positive
//     entirely inside a negative collapses to Never
//   - a positive union member distributes over the rest
//
// Simplification is best-effort: soundness is guaranteed, minimality is not.
func NewIntersectionWith(positive, negative []Type) Type {
	var pos, neg []Type

	var collect func(t Type, negated bool)
	collect = func(t Type, negated bool) {
		if t == nil {
			return
		}
		if inner, ok := t.(*IntersectionType); ok && !negated {
			for _, p := range inner.Positive {
				collect(p, false)
			}
			for _, n := range inner.Negative {
				collect(n, true)
			}
			return
		}
		if negated {
			neg = append(neg, t)
		} else {
			pos = append(pos, t)
		}
	}
	for _, t := range positive {
		collect(t, false)
	}
	for _, t := range negative {
		collect(t, true)
	}

	// Never absorbs.
	for _, p := range pos {
		if p == Never {
			return Never
		}
	}

	// Drop Unknown positives unless nothing else remains.
	filtered := pos[:0]
	sawUnknown := false
	for _, p := range pos {
		if p == Unknown {
			sawUnknown = true
			continue
		}
		filtered = append(filtered, p)
	}
	pos = filtered
	if len(pos) == 0 && sawUnknown && len(neg) == 0 {
		return Unknown
	}

	// Distribute a union positive over the rest: (A|B) & rest -> (A&rest)|(B&rest).
	for i, p := range pos {
		if union, ok := p.(*UnionType); ok {
			rest := make([]Type, 0, len(pos)-1)
			rest = append(rest, pos[:i]...)
			rest = append(rest, pos[i+1:]...)
			arms := make([]Type, 0, len(union.Types))
			for _, member := range union.Types {
				arms = append(arms, NewIntersectionWith(append([]Type{member}, rest...), neg))
			}
			return NewUnionType(arms...)
		}
	}

	pos = dedupeTypes(pos)
	neg = dedupeTypes(neg)

	// Positive subsumption: keep only the most specific members.
	kept := make([]Type, 0, len(pos))
	for i, p := range pos {
		redundant := false
		for j, q := range pos {
			if i == j {
				continue
			}
			if IsSubtype(q, p) && !IsSubtype(p, q) {
				redundant = true
				break
			}
			// For equivalent members keep the first occurrence only.
			if j < i && IsSubtype(q, p) && IsSubtype(p, q) {
				redundant = true
				break
			}
		}
		if !redundant {
			kept = append(kept, p)
		}
	}
	pos = kept

	// Disjoint positives have no common inhabitant.
	for i := 0; i < len(pos); i++ {
		for j := i + 1; j < len(pos); j++ {
			if IsDisjoint(pos[i], pos[j]) {
				return Never
			}
		}
	}

	// Negative simplification.
	keptNeg := make([]Type, 0, len(neg))
	for _, n := range neg {
		if n == Never || n == Unknown {
			continue
		}
		if inst, ok := n.(*InstanceType); ok && inst.Class == ObjectClass && len(inst.TypeArgs) == 0 {
			// ~object leaves nothing.
			return Never
		}
		redundant := false
		for _, p := range pos {
			if IsSubtype(p, n) {
				// P & ~N with P inside N is empty.
				return Never
			}
			if IsDisjoint(p, n) {
				redundant = true
				break
			}
		}
		if !redundant {
			keptNeg = append(keptNeg, n)
		}
	}
	neg = keptNeg

	switch {
	case len(pos) == 0 && len(neg) == 0:
		return ObjectInstance
	case len(pos) == 1 && len(neg) == 0:
		return pos[0]
	default:
		return &IntersectionType{Positive: pos, Negative: neg}
	}
}

func dedupeTypes(ts []Type) []Type {
	out := make([]Type, 0, len(ts))
	for _, t := range ts {
		dup := false
		for _, u := range out {
			if t.Equals(u) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, t)
		}
	}
	return out
}

// Negate returns the complement of a type where one is expressible, or nil
// where it is not (narrowing then leaves the branch unconstrained). The
// complement is expressible for class instances, literals, subclass-of types,
// and combinations of those through unions and intersections.
func Negate(t Type) Type {
	switch tt := t.(type) {
	case *Special:
		if tt == Never {
			return ObjectInstance
		}
		// ~Unknown is just as unknown.
		return Unknown
	case *InstanceType:
		if tt.Class == ObjectClass && len(tt.TypeArgs) == 0 {
			return Never
		}
		return &IntersectionType{Negative: []Type{tt}}
	case *LiteralType:
		return &IntersectionType{Negative: []Type{tt}}
	case *SubclassOfType:
		return &IntersectionType{Negative: []Type{tt}}
	case *UnionType:
		// ~(A | B) == ~A & ~B
		parts := make([]Type, 0, len(tt.Types))
		for _, m := range tt.Types {
			n := Negate(m)
			if n == nil {
				return nil
			}
			parts = append(parts, n)
		}
		return NewIntersectionType(parts...)
	case *IntersectionType:
		// ~(P1 & P2 & ~N) == ~P1 | ~P2 | N
		arms := make([]Type, 0, len(tt.Positive)+len(tt.Negative))
		for _, p := range tt.Positive {
			n := Negate(p)
			if n == nil {
				return nil
			}
			arms = append(arms, n)
		}
		arms = append(arms, tt.Negative...)
		return NewUnionType(arms...)
	default:
		return nil
	}
}
