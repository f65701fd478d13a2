package checker

import (
	"redshank/pkg/ast"
	"redshank/pkg/decls"
	"redshank/pkg/diag"
	"redshank/pkg/types"
)

// moduleAttrDenylist holds implicit module attributes excluded from the
// last-resort namespace fallback: resolving them as bare names would mask
// genuine unresolved references far more often than it would help.
var moduleAttrDenylist = map[string]bool{
	"__dict__":    true,
	"__getattr__": true,
	"__init__":    true,
}

// implicitModuleAttrs is the attribute namespace every module object carries.
var implicitModuleAttrs = map[string]types.Type{
	"__name__":    types.StrType,
	"__doc__":     types.NewUnionType(types.StrType, types.None),
	"__file__":    types.NewUnionType(types.StrType, types.None),
	"__package__": types.NewUnionType(types.StrType, types.None),
	"__loader__":  types.Unknown,
	"__spec__":    types.Unknown,
}

// inferExpr computes and records the type of an expression under the current
// flow environment.
func (c *Checker) inferExpr(e ast.Expression, env *Environment) types.Type {
	switch n := e.(type) {
	case *ast.Name:
		return c.setExprType(e, c.inferName(n, env))
	case *ast.Attribute:
		return c.setExprType(e, c.inferAttribute(n, env))
	case *ast.Literal:
		return c.setExprType(e, literalType(n))
	case *ast.BoolOp:
		return c.setExprType(e, c.inferBoolOp(n, env))
	case *ast.UnaryOp:
		return c.setExprType(e, c.inferUnaryOp(n, env))
	case *ast.Compare:
		return c.setExprType(e, c.inferCompare(n, env))
	case *ast.Call:
		return c.setExprType(e, c.inferCall(n, env))
	case *ast.TupleExpr:
		elems := make([]types.Type, len(n.Elts))
		for i, el := range n.Elts {
			elems[i] = c.inferExpr(el, env)
		}
		return c.setExprType(e, &types.TupleType{Elements: elems})
	case *ast.ListExpr:
		if len(n.Elts) == 0 {
			return c.setExprType(e, types.NewInstance(types.ListClass, types.Unknown))
		}
		elems := make([]types.Type, len(n.Elts))
		for i, el := range n.Elts {
			elems[i] = c.inferExpr(el, env)
		}
		elem := types.Widen(types.NewUnionType(elems...))
		return c.setExprType(e, types.NewInstance(types.ListClass, elem))
	case *ast.Conditional:
		return c.setExprType(e, c.inferConditional(n, env))
	case *ast.CompExpr:
		return c.setExprType(e, c.inferComprehension(n, env))
	case *ast.Lambda:
		return c.setExprType(e, c.inferLambda(n, env))
	default:
		return c.setExprType(e, types.Unknown)
	}
}

func literalType(n *ast.Literal) types.Type {
	switch n.Kind {
	case ast.LitNone:
		return types.None
	case ast.LitBool:
		return types.NewBoolLiteral(n.Bool)
	case ast.LitInt:
		return types.NewIntLiteral(n.Int)
	case ast.LitStr:
		return types.NewStrLiteral(n.Str)
	case ast.LitBytes:
		return types.NewBytesLiteral(n.Str)
	default:
		return types.Unknown
	}
}

func (c *Checker) inferName(n *ast.Name, env *Environment) types.Type {
	if t, ok := env.NarrowedType(n.Ident); ok {
		return t
	}
	if info, ok := env.Resolve(n.Ident); ok {
		if info.PossiblyUnbound {
			c.report(diag.PossiblyUnresolvedRef, n, "`%s` may be unbound here", n.Ident)
			return types.NewUnionType(types.Unknown, info.Type)
		}
		return info.Type
	}
	if entry, ok := c.oracle.Lookup("builtins", n.Ident); ok {
		return entry.Type
	}
	// A module body runs as an attribute namespace of a module object: its
	// implicit attributes resolve as a last resort, minus the denylist.
	if !moduleAttrDenylist[n.Ident] {
		if t, ok := implicitModuleAttrs[n.Ident]; ok {
			return t
		}
	}
	c.report(diag.UnresolvedReference, n, "name `%s` is not defined", n.Ident)
	return types.Unknown
}

func (c *Checker) inferAttribute(n *ast.Attribute, env *Environment) types.Type {
	if key := narrowingKey(n); key != "" {
		if t, ok := env.NarrowedType(key); ok {
			c.inferExpr(n.Object, env)
			return t
		}
	}
	obj := c.inferExpr(n.Object, env)
	return c.attributeType(obj, n)
}

func (c *Checker) attributeType(obj types.Type, n *ast.Attribute) types.Type {
	switch ot := obj.(type) {
	case *types.Special:
		// No information to check against; Never propagates.
		if ot == types.Never {
			return types.Never
		}
		return types.Unknown

	case *types.ModuleType:
		if t, ok := ot.Attrs[n.Attr]; ok {
			return t
		}
		if t, ok := implicitModuleAttrs[n.Attr]; ok {
			return t
		}
		c.report(diag.UnresolvedReference, n, "module `%s` has no attribute `%s`", ot.ModuleName, n.Attr)
		return types.Unknown

	case *types.InstanceType:
		if t, ok := ot.Class.LookupMember(n.Attr); ok {
			return t
		}
		c.report(diag.UnresolvedReference, n, "`%s` has no attribute `%s`", ot.Class.Name, n.Attr)
		return types.Unknown

	case *types.LiteralType:
		if t, ok := ot.Class().LookupMember(n.Attr); ok {
			return t
		}
		c.report(diag.UnresolvedReference, n, "`%s` has no attribute `%s`", ot.Class().Name, n.Attr)
		return types.Unknown

	case *types.ClassType:
		if t, ok := ot.LookupMember(n.Attr); ok {
			return t
		}
		c.report(diag.UnresolvedReference, n, "class `%s` has no attribute `%s`", ot.Name, n.Attr)
		return types.Unknown

	case *types.SubclassOfType:
		if t, ok := ot.Class.LookupMember(n.Attr); ok {
			return t
		}
		c.report(diag.UnresolvedReference, n, "class `%s` has no attribute `%s`", ot.Class.Name, n.Attr)
		return types.Unknown

	case *types.UnionType:
		// Present on some members and absent on others is a partial miss.
		found := make([]types.Type, 0, len(ot.Types))
		missing := 0
		for _, m := range ot.Types {
			if t, ok := memberLookup(m, n.Attr); ok {
				found = append(found, t)
			} else if m == types.Unknown {
				found = append(found, types.Unknown)
			} else {
				missing++
			}
		}
		if len(found) == 0 {
			c.report(diag.UnresolvedReference, n, "`%s` has no attribute `%s`", ot.String(), n.Attr)
			return types.Unknown
		}
		if missing > 0 {
			c.report(diag.PossiblyUnboundAttribute, n,
				"attribute `%s` may be missing on `%s`", n.Attr, ot.String())
			found = append(found, types.Unknown)
		}
		return types.NewUnionType(found...)

	case *types.IntersectionType:
		for _, p := range ot.Positive {
			if t, ok := memberLookup(p, n.Attr); ok {
				return t
			}
		}
		return types.Unknown

	default:
		return types.Unknown
	}
}

// memberLookup is attributeType without diagnostics, for union members.
func memberLookup(t types.Type, attr string) (types.Type, bool) {
	switch tt := t.(type) {
	case *types.InstanceType:
		return tt.Class.LookupMember(attr)
	case *types.LiteralType:
		return tt.Class().LookupMember(attr)
	case *types.ClassType:
		return tt.LookupMember(attr)
	case *types.SubclassOfType:
		return tt.Class.LookupMember(attr)
	case *types.ModuleType:
		at, ok := tt.Attrs[attr]
		return at, ok
	case *types.IntersectionType:
		for _, p := range tt.Positive {
			if at, ok := memberLookup(p, attr); ok {
				return at, true
			}
		}
	}
	return nil, false
}

// inferBoolOp folds a short-circuit chain: operands with a definite verdict
// either drop out or cut the chain, ambiguous operands contribute their
// truthy (for or) or falsy (for and) subset, and the final operand always
// contributes its full type.
func (c *Checker) inferBoolOp(n *ast.BoolOp, env *Environment) types.Type {
	parts := make([]types.Type, 0, len(n.Values))
	for i, v := range n.Values {
		t := c.inferExpr(v, env)
		last := i == len(n.Values)-1
		if last {
			parts = append(parts, t)
			break
		}
		verdict := c.truthiness(t, v)
		if n.Op == ast.Or {
			switch verdict {
			case AlwaysTrue:
				// Later operands never evaluate.
				return types.NewUnionType(append(parts, t)...)
			case AlwaysFalse:
				continue
			default:
				parts = append(parts, c.narrowToTruthy(t))
			}
		} else {
			switch verdict {
			case AlwaysFalse:
				return types.NewUnionType(append(parts, t)...)
			case AlwaysTrue:
				continue
			default:
				parts = append(parts, c.narrowToFalsy(t))
			}
		}
	}
	return types.NewUnionType(parts...)
}

func (c *Checker) inferUnaryOp(n *ast.UnaryOp, env *Environment) types.Type {
	t := c.inferExpr(n.Operand, env)
	if n.Op == ast.Not {
		switch c.truthiness(t, n.Operand) {
		case AlwaysTrue:
			return types.FalseLiteral
		case AlwaysFalse:
			return types.TrueLiteral
		default:
			return types.BoolType
		}
	}
	// Unary minus.
	switch tt := t.(type) {
	case *types.LiteralType:
		switch tt.Value.Kind {
		case types.IntValue:
			return types.NewIntLiteral(-tt.Value.IntVal)
		case types.BoolValue:
			if tt.Value.BoolVal {
				return types.NewIntLiteral(-1)
			}
			return types.NewIntLiteral(0)
		}
	case *types.InstanceType:
		if tt.Class.IsSubclassOf(types.IntClass) {
			return types.IntType
		}
		c.report(diag.UnsupportedOperator, n, "unary `-` is not supported for `%s`", tt.Class.Name)
	}
	return types.Unknown
}

func (c *Checker) inferCompare(n *ast.Compare, env *Environment) types.Type {
	lt := c.inferExpr(n.Left, env)
	result := types.Type(types.BoolType)
	for i, op := range n.Ops {
		rt := c.inferExpr(n.Comparators[i], env)
		if len(n.Ops) == 1 {
			if folded, ok := foldComparison(op, lt, rt); ok {
				result = folded
			}
		}
		lt = rt
	}
	return result
}

// foldComparison decides identity and equality tests between single-valued
// operands at compile time.
func foldComparison(op ast.CmpOp, lt, rt types.Type) (types.Type, bool) {
	switch op {
	case ast.Is, ast.IsNot, ast.Eq, ast.NotEq:
	default:
		return nil, false
	}
	if !types.IsSingleValued(lt) || !types.IsSingleValued(rt) {
		return nil, false
	}
	var same bool
	if types.IsEquivalent(lt, rt) {
		same = true
	} else if types.IsDisjoint(lt, rt) {
		same = false
	} else {
		return nil, false
	}
	if op == ast.IsNot || op == ast.NotEq {
		same = !same
	}
	return types.NewBoolLiteral(same), true
}

func (c *Checker) inferConditional(n *ast.Conditional, env *Environment) types.Type {
	tSet, fSet := c.narrowCondition(n.Test, env)
	thenT := c.inferExpr(n.Then, envWith(env, tSet))
	elseT := c.inferExpr(n.Else, envWith(env, fSet))
	switch {
	case tSet.Unreachable():
		return elseT
	case fSet.Unreachable():
		return thenT
	default:
		return types.NewUnionType(thenT, elseT)
	}
}

// inferComprehension checks a comprehension inline: its scope is eager, so
// bindings resolve against the enclosing flow state at this point.
func (c *Checker) inferComprehension(n *ast.CompExpr, env *Environment) types.Type {
	sc := c.table.ScopeOf(n.ID())
	child := env
	if sc != nil {
		child = NewScopeEnvironment(env, sc)
	}
	for i, g := range n.Generators {
		iterEnv := child
		if i == 0 {
			iterEnv = env
		}
		iterT := c.inferExpr(g.Iter, iterEnv)
		elemT := c.iterElement(iterT, g.Iter)
		child.Define(g.Target.Ident, SymbolInfo{Type: elemT})
		if sc != nil {
			c.recordBinding(n, g.Target.Ident, sc, elemT)
		}
		for _, cond := range g.Ifs {
			tSet, _ := c.narrowCondition(cond, child)
			child = envWith(child, tSet)
		}
	}
	elem := types.Widen(c.inferExpr(n.Element, child))
	switch n.Kind {
	case ast.ListComp:
		return types.NewInstance(types.ListClass, elem)
	case ast.SetComp:
		return types.NewInstance(types.SetClass, elem)
	default:
		return types.NewInstance(types.GeneratorClass, elem)
	}
}

// inferLambda types the lambda's value and defers its body like a def.
func (c *Checker) inferLambda(n *ast.Lambda, env *Environment) types.Type {
	params := make([]types.Type, len(n.Params))
	for i, p := range n.Params {
		params[i] = types.Type(types.Unknown)
		if p.Annotation != nil {
			params[i] = c.resolveAnnotation(p.Annotation, env)
		}
	}
	if sc := c.table.ScopeOf(n.ID()); sc != nil {
		c.deferred = append(c.deferred, deferredBody{node: n, sc: sc})
	}
	return types.NewCallable(types.Unknown, params...)
}

func (c *Checker) inferCall(n *ast.Call, env *Environment) types.Type {
	if name, ok := n.Func.(*ast.Name); ok {
		switch c.specialOf(name, env) {
		case decls.SpecialBool:
			if len(n.Args) == 1 {
				c.inferExpr(n.Func, env)
				t := c.inferExpr(n.Args[0], env)
				switch c.truthiness(t, n.Args[0]) {
				case AlwaysTrue:
					return types.TrueLiteral
				case AlwaysFalse:
					return types.FalseLiteral
				default:
					return types.BoolType
				}
			}
		case decls.SpecialLen:
			if len(n.Args) == 1 {
				c.inferExpr(n.Func, env)
				t := c.inferExpr(n.Args[0], env)
				c.checkSized(t, n.Args[0])
				return types.IntType
			}
		}
	}
	ft := c.inferExpr(n.Func, env)
	args := make([]types.Type, len(n.Args))
	for i, a := range n.Args {
		args[i] = c.inferExpr(a, env)
	}
	return c.callResult(ft, n, args)
}

// checkSized reports len() applied to a type without a __len__ protocol.
func (c *Checker) checkSized(t types.Type, node ast.Node) {
	inst, ok := t.(*types.InstanceType)
	if !ok {
		return
	}
	if _, ok := inst.Class.LookupMember("__len__"); !ok {
		c.report(diag.InvalidArgumentType, node, "`%s` has no `__len__`", inst.Class.Name)
	}
}

func (c *Checker) callResult(ft types.Type, n *ast.Call, args []types.Type) types.Type {
	switch f := ft.(type) {
	case *types.Special:
		if f == types.Never {
			return types.Never
		}
		return types.Unknown

	case *types.CallableType:
		c.checkArguments(f.Sig, n, args, 0)
		if f.Sig.ReturnType == nil {
			return types.Unknown
		}
		return f.Sig.ReturnType

	case *types.ClassType:
		if init, ok := f.LookupMember("__init__"); ok {
			if callable, ok := init.(*types.CallableType); ok {
				// Skip the bound self parameter.
				c.checkArguments(callable.Sig, n, args, 1)
			}
		}
		return types.NewInstance(f)

	case *types.SubclassOfType:
		return types.NewInstance(f.Class)

	case *types.UnionType:
		results := make([]types.Type, 0, len(f.Types))
		for _, m := range f.Types {
			results = append(results, c.callResult(m, n, args))
		}
		return types.NewUnionType(results...)

	default:
		c.report(diag.UnsupportedOperator, n, "`%s` is not callable", ft.String())
		return types.Unknown
	}
}

// checkArguments validates a call against a signature. skip discounts leading
// parameters already bound (self on constructor calls).
func (c *Checker) checkArguments(sig *types.Signature, n *ast.Call, args []types.Type, skip int) {
	params := sig.ParameterTypes
	if skip < len(params) {
		params = params[skip:]
	} else {
		params = nil
	}
	if sig.IsVariadic {
		if len(params) > 0 {
			fixed := params[:len(params)-1]
			variadic := params[len(params)-1]
			for i, arg := range args {
				want := variadic
				if i < len(fixed) {
					want = fixed[i]
				}
				c.checkArgument(arg, want, n.Args[i])
			}
		}
		return
	}
	if len(args) != len(params) {
		c.report(diag.InvalidArgumentType, n, "expected %d arguments, got %d", len(params), len(args))
		return
	}
	for i, arg := range args {
		c.checkArgument(arg, params[i], n.Args[i])
	}
}

func (c *Checker) checkArgument(arg, want types.Type, node ast.Node) {
	if want == nil {
		return
	}
	if !types.IsAssignable(arg, want) {
		c.report(diag.InvalidArgumentType, node,
			"argument of type `%s` is not assignable to parameter of type `%s`", arg.String(), want.String())
	}
}

// iterElement returns the element type produced by iterating a value.
func (c *Checker) iterElement(t types.Type, node ast.Node) types.Type {
	switch tt := t.(type) {
	case *types.TupleType:
		if len(tt.Elements) == 0 {
			return types.Never
		}
		return types.NewUnionType(tt.Elements...)
	case *types.InstanceType:
		switch tt.Class {
		case types.ListClass, types.SetClass, types.GeneratorClass:
			if len(tt.TypeArgs) == 1 {
				return tt.TypeArgs[0]
			}
			return types.Unknown
		case types.StrClass:
			return types.StrType
		case types.BytesClass:
			return types.IntType
		case types.TupleClass:
			return types.Unknown
		}
		c.report(diag.UnsupportedOperator, node, "`%s` is not iterable", tt.Class.Name)
		return types.Unknown
	case *types.LiteralType:
		switch tt.Value.Kind {
		case types.StrValue:
			return types.StrType
		case types.BytesValue:
			return types.IntType
		}
		return types.Unknown
	case *types.UnionType:
		elems := make([]types.Type, 0, len(tt.Types))
		for _, m := range tt.Types {
			elems = append(elems, c.iterElement(m, node))
		}
		return types.NewUnionType(elems...)
	default:
		return types.Unknown
	}
}

// resolveAnnotation evaluates an annotation expression to the type it
// declares. Unsupported annotation forms stay gradual rather than erroring.
func (c *Checker) resolveAnnotation(e ast.Expression, env *Environment) types.Type {
	switch n := e.(type) {
	case *ast.Literal:
		if n.Kind == ast.LitNone {
			return types.None
		}
		return types.Unknown
	case *ast.Name, *ast.Attribute:
		t := c.inferExpr(e, env)
		switch tt := t.(type) {
		case *types.ClassType:
			return types.NewInstance(tt)
		case *types.SubclassOfType:
			return tt
		default:
			return types.Unknown
		}
	default:
		return types.Unknown
	}
}
