package types

import (
	"fmt"
	"strings"
)

// TypeParameter represents a type variable declaration: either bounded
// (T with an upper bound) or constrained (T restricted to a fixed set of
// types), optionally with a default.
type TypeParameter struct {
	Name        string
	Bound       Type   // upper bound, nil if unbounded
	Constraints []Type // fixed alternatives, empty if unconstrained
	Default     Type   // nil when no default
}

func (tp *TypeParameter) String() string {
	if tp.Bound != nil {
		return fmt.Sprintf("%s: %s", tp.Name, tp.Bound.String())
	}
	if len(tp.Constraints) > 0 {
		parts := make([]string, len(tp.Constraints))
		for i, c := range tp.Constraints {
			parts[i] = c.String()
		}
		return fmt.Sprintf("%s: (%s)", tp.Name, strings.Join(parts, ", "))
	}
	return tp.Name
}

// TypeParameterType is a reference to a type parameter inside a generic body.
// Two references are the same type only if they name the same parameter.
type TypeParameterType struct {
	Parameter *TypeParameter
}

func (t *TypeParameterType) String() string { return t.Parameter.Name }
func (t *TypeParameterType) typeNode()      {}
func (t *TypeParameterType) Equals(other Type) bool {
	o, ok := other.(*TypeParameterType)
	return ok && t.Parameter == o.Parameter
}

// NewTypeVar declares a bounded type variable and returns its reference type.
func NewTypeVar(name string, bound Type) *TypeParameterType {
	return &TypeParameterType{Parameter: &TypeParameter{Name: name, Bound: bound}}
}

// NewConstrainedTypeVar declares a constrained type variable.
func NewConstrainedTypeVar(name string, constraints ...Type) *TypeParameterType {
	return &TypeParameterType{Parameter: &TypeParameter{Name: name, Constraints: constraints}}
}
