package types

// --- Type Widening ---

// Widen converts literal types to the instance type of their class; other
// types are returned unchanged. Unions widen member-wise (the constructor
// re-simplifies, so Literal[1] | Literal[2] widens to plain int).
func Widen(t Type) Type {
	switch tt := t.(type) {
	case *LiteralType:
		return NewInstance(tt.Class())
	case *UnionType:
		widened := make([]Type, len(tt.Types))
		for i, m := range tt.Types {
			widened[i] = Widen(m)
		}
		return NewUnionType(widened...)
	default:
		return t
	}
}
