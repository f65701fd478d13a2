package types

// Truthiness of builtin instances flows through the same dunder protocol as
// user classes, so the registry skeleton carries the relevant members. An
// init func rather than the var block: the signatures reference the instance
// singletons declared alongside the classes.
func init() {
	IntClass.Members = map[string]Type{
		"__bool__": NewCallable(BoolType),
	}
	StrClass.Members = map[string]Type{
		"__len__": NewCallable(IntType),
	}
	BytesClass.Members = map[string]Type{
		"__len__": NewCallable(IntType),
	}
	TupleClass.Members = map[string]Type{
		"__len__": NewCallable(IntType),
	}
	ListClass.Members = map[string]Type{
		"__len__": NewCallable(IntType),
	}
	SetClass.Members = map[string]Type{
		"__len__": NewCallable(IntType),
	}
	NoneTypeClass.Members = map[string]Type{
		"__bool__": NewCallable(FalseLiteral),
	}
}
