package types

import "fmt"

// LiteralValueKind tags the payload of a LiteralValue.
type LiteralValueKind int

const (
	BoolValue LiteralValueKind = iota
	IntValue
	StrValue
	BytesValue
	EnumValue
)

// LiteralValue is the compile-time value inside a LiteralType. Enum members
// carry their owning class plus the member name.
type LiteralValue struct {
	Kind      LiteralValueKind
	BoolVal   bool
	IntVal    int64
	StrVal    string // string payload, bytes payload, or enum member name
	EnumClass *ClassType
}

func (v LiteralValue) String() string {
	switch v.Kind {
	case BoolValue:
		if v.BoolVal {
			return "True"
		}
		return "False"
	case IntValue:
		return fmt.Sprintf("%d", v.IntVal)
	case StrValue:
		return fmt.Sprintf("%q", v.StrVal)
	case BytesValue:
		return fmt.Sprintf("b%q", v.StrVal)
	case EnumValue:
		return v.EnumClass.Name + "." + v.StrVal
	default:
		return "<bad literal>"
	}
}

// EqualsValue is value identity, not type identity: True != 1 here even
// though they compare equal at runtime.
func (v LiteralValue) EqualsValue(o LiteralValue) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case BoolValue:
		return v.BoolVal == o.BoolVal
	case IntValue:
		return v.IntVal == o.IntVal
	case StrValue, BytesValue:
		return v.StrVal == o.StrVal
	case EnumValue:
		return v.EnumClass == o.EnumClass && v.StrVal == o.StrVal
	default:
		return false
	}
}

// LiteralType represents a type inhabited by exactly one value, e.g.
// Literal[True] or Literal["on"].
type LiteralType struct {
	Value LiteralValue
}

func (lt *LiteralType) String() string { return "Literal[" + lt.Value.String() + "]" }
func (lt *LiteralType) typeNode()      {}
func (lt *LiteralType) Equals(other Type) bool {
	o, ok := other.(*LiteralType)
	return ok && lt.Value.EqualsValue(o.Value)
}

// Class returns the class whose instance the literal value is.
func (lt *LiteralType) Class() *ClassType {
	switch lt.Value.Kind {
	case BoolValue:
		return BoolClass
	case IntValue:
		return IntClass
	case StrValue:
		return StrClass
	case BytesValue:
		return BytesClass
	case EnumValue:
		return lt.Value.EnumClass
	default:
		return ObjectClass
	}
}

// Convenience constructors, used heavily by inference and the tests.

func NewBoolLiteral(v bool) *LiteralType {
	if v {
		return TrueLiteral
	}
	return FalseLiteral
}

func NewIntLiteral(v int64) *LiteralType {
	return &LiteralType{Value: LiteralValue{Kind: IntValue, IntVal: v}}
}

func NewStrLiteral(v string) *LiteralType {
	return &LiteralType{Value: LiteralValue{Kind: StrValue, StrVal: v}}
}

func NewBytesLiteral(v string) *LiteralType {
	return &LiteralType{Value: LiteralValue{Kind: BytesValue, StrVal: v}}
}

func NewEnumLiteral(class *ClassType, member string) *LiteralType {
	return &LiteralType{Value: LiteralValue{Kind: EnumValue, EnumClass: class, StrVal: member}}
}

var (
	TrueLiteral  = &LiteralType{Value: LiteralValue{Kind: BoolValue, BoolVal: true}}
	FalseLiteral = &LiteralType{Value: LiteralValue{Kind: BoolValue, BoolVal: false}}
)
