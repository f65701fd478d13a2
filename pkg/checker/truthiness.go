package checker

import (
	"redshank/pkg/ast"
	"redshank/pkg/diag"
	"redshank/pkg/types"
)

// Truthiness is the static verdict on how a type converts to bool.
type Truthiness int

const (
	TruthAmbiguous Truthiness = iota
	AlwaysTrue
	AlwaysFalse
)

func (t Truthiness) String() string {
	switch t {
	case AlwaysTrue:
		return "always true"
	case AlwaysFalse:
		return "always false"
	default:
		return "ambiguous"
	}
}

// Negate flips a definite verdict and leaves Ambiguous alone.
func (t Truthiness) Negate() Truthiness {
	switch t {
	case AlwaysTrue:
		return AlwaysFalse
	case AlwaysFalse:
		return AlwaysTrue
	default:
		return TruthAmbiguous
	}
}

// truthiness computes the verdict for a type. Instances go through the
// __bool__ then __len__ protocol; a class without either is always truthy
// only when it is final, since a subclass could add a falsifying __bool__.
// node anchors the diagnostic for a malformed protocol member.
func (c *Checker) truthiness(t types.Type, node ast.Node) Truthiness {
	switch tt := t.(type) {
	case *types.Special:
		// Unknown carries no information; Never has no values to convert.
		return TruthAmbiguous

	case *types.LiteralType:
		switch tt.Value.Kind {
		case types.BoolValue:
			return verdictOf(tt.Value.BoolVal)
		case types.IntValue:
			return verdictOf(tt.Value.IntVal != 0)
		case types.StrValue, types.BytesValue:
			return verdictOf(len(tt.Value.StrVal) > 0)
		default:
			// Enum members may define __bool__ on the enum class.
			return c.protocolTruthiness(tt.Class(), node)
		}

	case *types.UnionType:
		verdict := c.truthiness(tt.Types[0], node)
		for _, m := range tt.Types[1:] {
			if c.truthiness(m, node) != verdict {
				return TruthAmbiguous
			}
		}
		return verdict

	case *types.IntersectionType:
		// A value inhabits every positive member, so any definite verdict
		// among them applies; conflicting definite verdicts mean the
		// intersection is uninhabited and nothing can be concluded.
		verdict := TruthAmbiguous
		for _, p := range tt.Positive {
			v := c.truthiness(p, node)
			if v == TruthAmbiguous {
				continue
			}
			if verdict != TruthAmbiguous && verdict != v {
				return TruthAmbiguous
			}
			verdict = v
		}
		return verdict

	case *types.InstanceType:
		return c.protocolTruthiness(tt.Class, node)

	case *types.TupleType:
		// Fixed length, so emptiness is static.
		return verdictOf(len(tt.Elements) > 0)

	case *types.CallableType:
		return AlwaysTrue

	case *types.ClassType, *types.SubclassOfType:
		// Metaclasses can override __bool__.
		return TruthAmbiguous

	case *types.ModuleType:
		return AlwaysTrue

	case *types.TypeParameterType:
		if len(tt.Parameter.Constraints) > 0 {
			verdict := c.truthiness(tt.Parameter.Constraints[0], node)
			for _, ct := range tt.Parameter.Constraints[1:] {
				if c.truthiness(ct, node) != verdict {
					return TruthAmbiguous
				}
			}
			return verdict
		}
		if tt.Parameter.Bound != nil {
			return c.truthiness(tt.Parameter.Bound, node)
		}
		return TruthAmbiguous

	default:
		return TruthAmbiguous
	}
}

func verdictOf(b bool) Truthiness {
	if b {
		return AlwaysTrue
	}
	return AlwaysFalse
}

func (c *Checker) protocolTruthiness(class *types.ClassType, node ast.Node) Truthiness {
	if member, ok := class.LookupMember("__bool__"); ok {
		callable, ok := member.(*types.CallableType)
		if !ok {
			if node != nil {
				c.report(diag.UnsupportedBoolConversion, node,
					"__bool__ on `%s` is not callable", class.Name)
			}
			return TruthAmbiguous
		}
		ret := callable.Sig.ReturnType
		if !types.IsAssignable(ret, types.BoolType) {
			if node != nil {
				c.report(diag.UnsupportedBoolConversion, node,
					"__bool__ on `%s` returns `%s`, not `bool`", class.Name, ret.String())
			}
			return TruthAmbiguous
		}
		return c.literalReturnVerdict(ret)
	}
	if member, ok := class.LookupMember("__len__"); ok {
		callable, ok := member.(*types.CallableType)
		if !ok {
			if node != nil {
				c.report(diag.UnsupportedBoolConversion, node,
					"__len__ on `%s` is not callable", class.Name)
			}
			return TruthAmbiguous
		}
		if lit, ok := callable.Sig.ReturnType.(*types.LiteralType); ok && lit.Value.Kind == types.IntValue {
			return verdictOf(lit.Value.IntVal != 0)
		}
		return TruthAmbiguous
	}
	// No protocol member anywhere on the chain: object itself converts to
	// True, but only a final class forecloses a subclass overriding that.
	if class.Final {
		return AlwaysTrue
	}
	return TruthAmbiguous
}

// literalReturnVerdict extracts a definite verdict from a __bool__ return
// type: Literal[True], Literal[False], or a union collapsing to one verdict.
func (c *Checker) literalReturnVerdict(ret types.Type) Truthiness {
	switch rt := ret.(type) {
	case *types.LiteralType:
		if rt.Value.Kind == types.BoolValue {
			return verdictOf(rt.Value.BoolVal)
		}
	case *types.UnionType:
		verdict := c.literalReturnVerdict(rt.Types[0])
		if verdict == TruthAmbiguous {
			return TruthAmbiguous
		}
		for _, m := range rt.Types[1:] {
			if c.literalReturnVerdict(m) != verdict {
				return TruthAmbiguous
			}
		}
		return verdict
	}
	return TruthAmbiguous
}

// narrowToTruthy returns the subset of t that can convert to True.
func (c *Checker) narrowToTruthy(t types.Type) types.Type {
	if union, ok := t.(*types.UnionType); ok {
		kept := make([]types.Type, 0, len(union.Types))
		for _, m := range union.Types {
			kept = append(kept, c.narrowToTruthy(m))
		}
		return types.NewUnionType(kept...)
	}
	switch c.truthiness(t, nil) {
	case AlwaysFalse:
		return types.Never
	case AlwaysTrue:
		return t
	}
	// Ambiguous members with a known falsy singleton shrink to their truthy
	// remainder where one is expressible.
	if inst, ok := t.(*types.InstanceType); ok && len(inst.TypeArgs) == 0 {
		switch inst.Class {
		case types.BoolClass:
			return types.TrueLiteral
		}
	}
	return t
}

// narrowToFalsy returns the subset of t that can convert to False. For the
// builtin value types the falsy subset is a single literal, which buys exact
// types in else-branches.
func (c *Checker) narrowToFalsy(t types.Type) types.Type {
	if union, ok := t.(*types.UnionType); ok {
		kept := make([]types.Type, 0, len(union.Types))
		for _, m := range union.Types {
			kept = append(kept, c.narrowToFalsy(m))
		}
		return types.NewUnionType(kept...)
	}
	switch c.truthiness(t, nil) {
	case AlwaysTrue:
		return types.Never
	case AlwaysFalse:
		return t
	}
	if inst, ok := t.(*types.InstanceType); ok && len(inst.TypeArgs) == 0 {
		switch inst.Class {
		case types.BoolClass:
			return types.FalseLiteral
		case types.IntClass:
			return types.NewIntLiteral(0)
		case types.StrClass:
			return types.NewStrLiteral("")
		case types.BytesClass:
			return types.NewBytesLiteral("")
		}
	}
	return t
}
