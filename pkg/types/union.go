package types

// --- Union Types ---

// UnionType represents a union of multiple types (e.g., int | None).
// Member order is insertion order: irrelevant for equality, preserved for
// display. A UnionType always has at least two members; the constructor
// returns the sole member (or Never) for degenerate inputs.
type UnionType struct {
	Types []Type
}

func (ut *UnionType) String() string {
	typesStr := ""
	for i, t := range ut.Types {
		if i > 0 {
			typesStr += " | "
		}
		typesStr += t.String()
	}
	return typesStr
}
func (ut *UnionType) typeNode() {}
func (ut *UnionType) Equals(other Type) bool {
	otherUt, ok := other.(*UnionType)
	if !ok {
		return false
	}
	if ut == nil || otherUt == nil {
		return ut == otherUt
	}

	// Unions are equal if they contain the same set of unique types, regardless of order.
	if len(ut.Types) != len(otherUt.Types) {
		return false
	}

	matched := make([]bool, len(otherUt.Types))
	for _, t1 := range ut.Types {
		foundMatch := false
		for j, t2 := range otherUt.Types {
			if !matched[j] && t1.Equals(t2) {
				matched[j] = true
				foundMatch = true
				break
			}
		}
		if !foundMatch {
			return false
		}
	}
	// Lengths are equal and every member matched, so the sets are equal.
	return true
}

// ContainsType checks if the union contains a type that equals the given type.
func (ut *UnionType) ContainsType(target Type) bool {
	for _, t := range ut.Types {
		if t.Equals(target) {
			return true
		}
	}
	return false
}

// RemoveType returns the union with the specified member removed, collapsing
// to the single remaining member if only one remains.
func (ut *UnionType) RemoveType(target Type) Type {
	var remaining []Type
	for _, t := range ut.Types {
		if !t.Equals(target) {
			remaining = append(remaining, t)
		}
	}
	return NewUnionType(remaining...)
}

// NewUnionType creates a new union type from the given types.
// It flattens nested unions, removes duplicates using structural equality,
// and drops members subsumed by another member (Literal[1] | int collapses
// to int). It deliberately does NOT widen
// literal-only unions: Literal[True] | Literal[False] stays as written rather
// than becoming bool.
func NewUnionType(ts ...Type) Type {
	potentialMembers := make([]Type, 0, len(ts))

	var collectTypes func(t Type)
	collectTypes = func(t Type) {
		if t == nil {
			return
		}
		if union, ok := t.(*UnionType); ok {
			// Flatten nested unions
			for _, member := range union.Types {
				collectTypes(member)
			}
		} else if t != Never { // Never vanishes in unions
			potentialMembers = append(potentialMembers, t)
		}
	}

	for _, t := range ts {
		collectTypes(t)
	}

	// Filter for unique members using structural equality.
	uniqueMembers := make([]Type, 0, len(potentialMembers))
	for _, pm := range potentialMembers {
		isDuplicate := false
		for _, um := range uniqueMembers {
			if pm.Equals(um) {
				isDuplicate = true
				break
			}
		}
		if !isDuplicate {
			uniqueMembers = append(uniqueMembers, pm)
		}
	}

	// Drop members subsumed by another member: Literal[1] | int collapses to
	// int, A | (B & A) to A. The first of two equivalent members wins.
	simplified := make([]Type, 0, len(uniqueMembers))
	for i, m := range uniqueMembers {
		subsumed := false
		for j, other := range uniqueMembers {
			if i == j || !IsSubtype(m, other) {
				continue
			}
			if !IsSubtype(other, m) || j < i {
				subsumed = true
				break
			}
		}
		if !subsumed {
			simplified = append(simplified, m)
		}
	}

	switch len(simplified) {
	case 0:
		return Never
	case 1:
		return simplified[0]
	default:
		return &UnionType{Types: simplified}
	}
}
