package types

import "strings"

// Signature describes one callable shape.
type Signature struct {
	ParameterTypes []Type
	ReturnType     Type
	IsVariadic     bool // trailing parameter accepts any number of arguments
}

func (s *Signature) String() string {
	var params strings.Builder
	params.WriteString("(")
	for i, p := range s.ParameterTypes {
		if i > 0 {
			params.WriteString(", ")
		}
		if s.IsVariadic && i == len(s.ParameterTypes)-1 {
			params.WriteString("*")
		}
		if p != nil {
			params.WriteString(p.String())
		} else {
			params.WriteString("Unknown")
		}
	}
	params.WriteString(") -> ")
	if s.ReturnType != nil {
		params.WriteString(s.ReturnType.String())
	} else {
		params.WriteString("Unknown")
	}
	return params.String()
}

func (s *Signature) Equals(o *Signature) bool {
	if s == nil || o == nil {
		return s == o
	}
	if len(s.ParameterTypes) != len(o.ParameterTypes) || s.IsVariadic != o.IsVariadic {
		return false
	}
	for i, p := range s.ParameterTypes {
		if !p.Equals(o.ParameterTypes[i]) {
			return false
		}
	}
	return s.ReturnType.Equals(o.ReturnType)
}

// CallableType is the type of a function value.
type CallableType struct {
	Sig *Signature
}

func (ct *CallableType) String() string { return ct.Sig.String() }
func (ct *CallableType) typeNode()      {}
func (ct *CallableType) Equals(other Type) bool {
	o, ok := other.(*CallableType)
	return ok && ct.Sig.Equals(o.Sig)
}

// NewCallable builds a callable type from parameter types and a return type.
func NewCallable(ret Type, params ...Type) *CallableType {
	return &CallableType{Sig: &Signature{ParameterTypes: params, ReturnType: ret}}
}
