package types

import (
	"fmt"
	"strings"
)

// Type is the interface implemented by all type representations.
type Type interface {
	// String returns a string representation of the type, suitable for debugging or printing.
	String() string
	// Equals checks if this type is structurally equivalent to another type.
	Equals(other Type) bool

	// typeNode() is a marker method to ensure only types defined in this package
	// can be assigned to the Type interface. This keeps the type domain closed.
	typeNode()
}

// --- Special Types ---

// Special represents a non-composite sentinel type: the gradual type and the
// empty type. Both are singletons, so pointer equality is sufficient.
type Special struct {
	Name string
}

func (s *Special) String() string { return s.Name }
func (s *Special) typeNode()      {}
func (s *Special) Equals(other Type) bool {
	return s == other
}

var (
	// Unknown is the gradual type: it stands for "no static information" and is
	// assignable in both directions.
	Unknown = &Special{Name: "Unknown"}
	// Never is the empty type. It absorbs under intersection and vanishes under
	// union; inferring it for an expression means the code is provably dead.
	Never = &Special{Name: "Never"}
)

// --- Class Types ---

// ClassType represents a class object: the type of the class itself, not of
// its instances. Classes are nominal and interned by the code that creates
// them, so pointer equality identifies a class.
type ClassType struct {
	Name       string
	Bases      []*ClassType
	Final      bool             // a @final class cannot be subclassed
	TypeParams []*TypeParameter // non-empty for generic classes
	Members    map[string]Type  // declared attributes and methods, including dunders
}

func (ct *ClassType) String() string { return fmt.Sprintf("<class %s>", ct.Name) }
func (ct *ClassType) typeNode()      {}
func (ct *ClassType) Equals(other Type) bool {
	o, ok := other.(*ClassType)
	return ok && ct == o
}

// IsSubclassOf walks the base-class graph. Every class other than object
// implicitly descends from object.
func (ct *ClassType) IsSubclassOf(other *ClassType) bool {
	if other == ObjectClass {
		return true
	}
	seen := make(map[*ClassType]bool)
	var walk func(c *ClassType) bool
	walk = func(c *ClassType) bool {
		if c == nil || seen[c] {
			return false
		}
		seen[c] = true
		if c == other {
			return true
		}
		for _, b := range c.Bases {
			if walk(b) {
				return true
			}
		}
		return false
	}
	return walk(ct)
}

// LookupMember finds a declared member on the class or its bases, first match
// wins (depth-first, declaration order).
func (ct *ClassType) LookupMember(name string) (Type, bool) {
	seen := make(map[*ClassType]bool)
	var walk func(c *ClassType) (Type, bool)
	walk = func(c *ClassType) (Type, bool) {
		if c == nil || seen[c] {
			return nil, false
		}
		seen[c] = true
		if c.Members != nil {
			if t, ok := c.Members[name]; ok {
				return t, true
			}
		}
		for _, b := range c.Bases {
			if t, ok := walk(b); ok {
				return t, true
			}
		}
		return nil, false
	}
	return walk(ct)
}

// NewClass creates a nominal class. Members may be nil.
func NewClass(name string, bases []*ClassType, members map[string]Type) *ClassType {
	if members == nil {
		members = make(map[string]Type)
	}
	return &ClassType{Name: name, Bases: bases, Members: members}
}

// NewFinalClass creates a class that cannot be subclassed.
func NewFinalClass(name string, bases []*ClassType, members map[string]Type) *ClassType {
	c := NewClass(name, bases, members)
	c.Final = true
	return c
}

// --- Instance Types ---

// InstanceType represents "an instance of class C", optionally with type
// arguments for generic classes.
type InstanceType struct {
	Class    *ClassType
	TypeArgs []Type
}

func (it *InstanceType) String() string {
	if len(it.TypeArgs) == 0 {
		return it.Class.Name
	}
	args := make([]string, len(it.TypeArgs))
	for i, a := range it.TypeArgs {
		args[i] = a.String()
	}
	return it.Class.Name + "[" + strings.Join(args, ", ") + "]"
}
func (it *InstanceType) typeNode() {}
func (it *InstanceType) Equals(other Type) bool {
	o, ok := other.(*InstanceType)
	if !ok || it.Class != o.Class || len(it.TypeArgs) != len(o.TypeArgs) {
		return false
	}
	for i, a := range it.TypeArgs {
		if !a.Equals(o.TypeArgs[i]) {
			return false
		}
	}
	return true
}

// NewInstance creates the instance type of a class.
func NewInstance(class *ClassType, args ...Type) *InstanceType {
	return &InstanceType{Class: class, TypeArgs: args}
}

// --- Subclass-of Types ---

// SubclassOfType is the metatype `type[C]`: any class object that is C or a
// subclass of C.
type SubclassOfType struct {
	Class *ClassType
}

func (st *SubclassOfType) String() string { return "type[" + st.Class.Name + "]" }
func (st *SubclassOfType) typeNode()      {}
func (st *SubclassOfType) Equals(other Type) bool {
	o, ok := other.(*SubclassOfType)
	return ok && st.Class == o.Class
}

// --- Module Types ---

// ModuleType is the type of an imported module object. Attribute lookups on
// it resolve through Attrs.
type ModuleType struct {
	ModuleName string
	Attrs      map[string]Type
}

func (mt *ModuleType) String() string { return fmt.Sprintf("<module %s>", mt.ModuleName) }
func (mt *ModuleType) typeNode()      {}
func (mt *ModuleType) Equals(other Type) bool {
	o, ok := other.(*ModuleType)
	return ok && mt.ModuleName == o.ModuleName
}

// --- Tuple Types ---

// TupleType is a fixed-length heterogeneous tuple. Membership narrowing uses
// the element types directly.
type TupleType struct {
	Elements []Type
}

func (tt *TupleType) String() string {
	if len(tt.Elements) == 0 {
		return "tuple[()]"
	}
	parts := make([]string, len(tt.Elements))
	for i, e := range tt.Elements {
		parts[i] = e.String()
	}
	return "tuple[" + strings.Join(parts, ", ") + "]"
}
func (tt *TupleType) typeNode() {}
func (tt *TupleType) Equals(other Type) bool {
	o, ok := other.(*TupleType)
	if !ok || len(tt.Elements) != len(o.Elements) {
		return false
	}
	for i, e := range tt.Elements {
		if !e.Equals(o.Elements[i]) {
			return false
		}
	}
	return true
}

// --- Known classes ---

// The builtin class registry. The declaration corpus layers richer signatures
// on top of these, but the algebra needs the skeleton (base links, finality)
// to decide subtyping and disjointness.
var (
	ObjectClass    = NewClass("object", nil, nil)
	TypeClass      = NewClass("type", []*ClassType{ObjectClass}, nil)
	IntClass       = NewClass("int", []*ClassType{ObjectClass}, nil)
	BoolClass      = NewFinalClass("bool", []*ClassType{IntClass}, nil)
	StrClass       = NewFinalClass("str", []*ClassType{ObjectClass}, nil)
	BytesClass     = NewFinalClass("bytes", []*ClassType{ObjectClass}, nil)
	NoneTypeClass  = NewFinalClass("NoneType", []*ClassType{ObjectClass}, nil)
	FunctionClass  = NewFinalClass("function", []*ClassType{ObjectClass}, nil)
	TupleClass     = NewClass("tuple", []*ClassType{ObjectClass}, nil)
	ListClass      = NewClass("list", []*ClassType{ObjectClass}, nil)
	SetClass       = NewClass("set", []*ClassType{ObjectClass}, nil)
	GeneratorClass = NewFinalClass("generator", []*ClassType{ObjectClass}, nil)
	ModuleClass    = NewFinalClass("module", []*ClassType{ObjectClass}, nil)

	// EnumClass is the base of user enums. A class deriving from it gets its
	// class-body assignments re-typed as enum member literals.
	EnumClass = NewClass("Enum", []*ClassType{ObjectClass}, nil)
)

// Common instance singletons.
var (
	ObjectInstance = NewInstance(ObjectClass)
	IntType        = NewInstance(IntClass)
	BoolType       = NewInstance(BoolClass)
	StrType        = NewInstance(StrClass)
	BytesType      = NewInstance(BytesClass)
	None           = NewInstance(NoneTypeClass)
)

// IsSingleValued reports whether the type has exactly one possible runtime
// value. Equality narrowing is gated on this: two values of a multi-valued
// type may compare equal without being the same value.
func IsSingleValued(t Type) bool {
	switch tt := t.(type) {
	case *LiteralType:
		return true
	case *InstanceType:
		// NoneType is a singleton class; its sole instance is None.
		return tt.Class == NoneTypeClass
	case *ClassType:
		// A class object is a single value.
		return true
	case *TupleType:
		for _, e := range tt.Elements {
			if !IsSingleValued(e) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
