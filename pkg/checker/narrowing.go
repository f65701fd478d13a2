package checker

import (
	"github.com/hashicorp/go-set/v3"

	"redshank/pkg/ast"
	"redshank/pkg/decls"
	"redshank/pkg/diag"
	"redshank/pkg/types"
)

// ConstraintSet is the outcome of analyzing one side of a condition: for each
// narrowing key, the type the keyed expression has when the condition takes
// that side. unreachable marks a side the condition can never take.
type ConstraintSet struct {
	constraints map[string]types.Type
	unreachable bool
}

func newConstraintSet() *ConstraintSet {
	return &ConstraintSet{constraints: make(map[string]types.Type)}
}

func unreachableSet() *ConstraintSet {
	return &ConstraintSet{constraints: make(map[string]types.Type), unreachable: true}
}

// With returns a copy extended with one constraint.
func (cs *ConstraintSet) With(key string, t types.Type) *ConstraintSet {
	out := &ConstraintSet{
		constraints: make(map[string]types.Type, len(cs.constraints)+1),
		unreachable: cs.unreachable,
	}
	for k, v := range cs.constraints {
		out.constraints[k] = v
	}
	out.constraints[key] = t
	return out
}

// Get returns the constrained type for a key.
func (cs *ConstraintSet) Get(key string) (types.Type, bool) {
	t, ok := cs.constraints[key]
	return t, ok
}

// Unreachable reports whether this side of the condition is provably dead.
func (cs *ConstraintSet) Unreachable() bool { return cs.unreachable }

// keySet returns the constrained keys as a set.
func (cs *ConstraintSet) keySet() *set.Set[string] {
	s := set.New[string](len(cs.constraints))
	for k := range cs.constraints {
		s.Insert(k)
	}
	return s
}

// conjunction combines constraint sets that hold simultaneously: the key sets
// union, and a key constrained by both intersects.
func conjunction(a, b *ConstraintSet) *ConstraintSet {
	out := newConstraintSet()
	out.unreachable = a.unreachable || b.unreachable
	for k, t := range a.constraints {
		out.constraints[k] = t
	}
	for k, t := range b.constraints {
		if existing, ok := out.constraints[k]; ok {
			out.constraints[k] = types.Narrow(existing, t)
		} else {
			out.constraints[k] = t
		}
	}
	return out
}

// disjunction combines the arms of a logical decomposition: only a key every
// live arm constrains survives, with the arm types unioned. Statically dead
// arms contribute nothing; if every arm is dead the whole side is dead.
func disjunction(arms []*ConstraintSet) *ConstraintSet {
	live := arms[:0:0]
	for _, arm := range arms {
		if !arm.unreachable {
			live = append(live, arm)
		}
	}
	if len(live) == 0 {
		return unreachableSet()
	}
	shared := live[0].keySet()
	for _, arm := range live[1:] {
		shared = shared.Intersect(arm.keySet()).(*set.Set[string])
	}
	out := newConstraintSet()
	for _, key := range shared.Slice() {
		parts := make([]types.Type, 0, len(live))
		for _, arm := range live {
			parts = append(parts, arm.constraints[key])
		}
		out.constraints[key] = types.NewUnionType(parts...)
	}
	return out
}

// narrowingKey maps an expression to its narrowing key: a bare name, or a
// dotted attribute path rooted at one. Anything else is not narrowable.
func narrowingKey(e ast.Expression) string {
	switch n := e.(type) {
	case *ast.Name:
		return n.Ident
	case *ast.Attribute:
		base := narrowingKey(n.Object)
		if base == "" {
			return ""
		}
		return base + "." + n.Attr
	default:
		return ""
	}
}

// envWith overlays a constraint set's narrowings on an environment. Used to
// evaluate later operands of `and`/`or` under the earlier operands' outcome.
func envWith(env *Environment, cs *ConstraintSet) *Environment {
	if len(cs.constraints) == 0 {
		return env
	}
	overlay := NewEnclosedEnvironment(env)
	for k, t := range cs.constraints {
		overlay.SetNarrowing(k, t)
	}
	return overlay
}

// narrowCondition analyzes a condition and returns the constraint sets for
// its true and false outcomes.
func (c *Checker) narrowCondition(cond ast.Expression, env *Environment) (tSet, fSet *ConstraintSet) {
	switch n := cond.(type) {
	case *ast.UnaryOp:
		if n.Op == ast.Not {
			t, f := c.narrowCondition(n.Operand, env)
			c.inferExpr(cond, env)
			return f, t
		}

	case *ast.BoolOp:
		c.inferExpr(cond, env)
		if n.Op == ast.And {
			return c.narrowAnd(n.Values, env)
		}
		return c.narrowOr(n.Values, env)

	case *ast.Compare:
		c.inferExpr(cond, env)
		return c.narrowCompare(n, env)

	case *ast.Call:
		if t, f, ok := c.narrowCall(n, env); ok {
			return t, f
		}
	}
	return c.narrowAtom(cond, env)
}

// narrowAtom is the generic truthiness test: the condition's own type decides
// reachability, and when the condition is a narrowable expression its truthy
// and falsy subsets become constraints.
func (c *Checker) narrowAtom(cond ast.Expression, env *Environment) (tSet, fSet *ConstraintSet) {
	t := c.inferExpr(cond, env)
	tSet, fSet = newConstraintSet(), newConstraintSet()
	switch c.truthiness(t, cond) {
	case AlwaysTrue:
		fSet.unreachable = true
	case AlwaysFalse:
		tSet.unreachable = true
	default:
		if key := narrowingKey(cond); key != "" {
			tSet = tSet.With(key, c.narrowToTruthy(t))
			fSet = fSet.With(key, c.narrowToFalsy(t))
		}
	}
	return tSet, fSet
}

// narrowAnd handles `A and B and ...`. The true side is the conjunction of
// all operands' true sets, each later operand analyzed under the narrowings
// accumulated so far. The false side decomposes by De Morgan into
// `not A or not B or ...`, every arm against the original environment.
func (c *Checker) narrowAnd(values []ast.Expression, env *Environment) (tSet, fSet *ConstraintSet) {
	trueAcc := newConstraintSet()
	falseArms := make([]*ConstraintSet, 0, len(values))
	cur := env
	for _, v := range values {
		tv, fv := c.narrowCondition(v, cur)
		trueAcc = conjunction(trueAcc, tv)
		if cur == env {
			falseArms = append(falseArms, fv)
		} else {
			_, fOrig := c.narrowCondition(v, env)
			falseArms = append(falseArms, fOrig)
		}
		cur = envWith(env, trueAcc)
	}
	return trueAcc, disjunction(falseArms)
}

// narrowOr is the dual: the false side conjoins the operands' false sets
// (later operands run when earlier ones were falsy), the true side is the
// disjunction of the arms against the original environment.
func (c *Checker) narrowOr(values []ast.Expression, env *Environment) (tSet, fSet *ConstraintSet) {
	falseAcc := newConstraintSet()
	trueArms := make([]*ConstraintSet, 0, len(values))
	cur := env
	for _, v := range values {
		tv, fv := c.narrowCondition(v, cur)
		falseAcc = conjunction(falseAcc, fv)
		if cur == env {
			trueArms = append(trueArms, tv)
		} else {
			tOrig, _ := c.narrowCondition(v, env)
			trueArms = append(trueArms, tOrig)
		}
		cur = envWith(env, falseAcc)
	}
	return disjunction(trueArms), falseAcc
}

// narrowCompare handles comparisons. A chain `a op1 b op2 c` means
// `a op1 b and b op2 c`, so multi-op chains reuse the and-composition with
// each pair's true set threading into the next pair's environment.
func (c *Checker) narrowCompare(n *ast.Compare, env *Environment) (tSet, fSet *ConstraintSet) {
	if len(n.Ops) == 1 {
		return c.narrowComparePair(n.Left, n.Ops[0], n.Comparators[0], env)
	}
	trueAcc := newConstraintSet()
	falseArms := make([]*ConstraintSet, 0, len(n.Ops))
	cur := env
	left := n.Left
	for i, op := range n.Ops {
		right := n.Comparators[i]
		tv, _ := c.narrowComparePair(left, op, right, cur)
		_, fOrig := c.narrowComparePair(left, op, right, env)
		trueAcc = conjunction(trueAcc, tv)
		falseArms = append(falseArms, fOrig)
		cur = envWith(env, trueAcc)
		left = right
	}
	return trueAcc, disjunction(falseArms)
}

func (c *Checker) narrowComparePair(left ast.Expression, op ast.CmpOp, right ast.Expression, env *Environment) (tSet, fSet *ConstraintSet) {
	lt := c.inferExpr(left, env)
	rt := c.inferExpr(right, env)
	tSet, fSet = newConstraintSet(), newConstraintSet()

	switch op {
	case ast.Is, ast.IsNot:
		// Identity against a single-valued operand narrows the other side.
		// Both directions can fire on `x is y` when both are narrowable.
		tSet, fSet = c.narrowIdentity(left, lt, rt, tSet, fSet)
		tSet, fSet = c.narrowIdentity(right, rt, lt, tSet, fSet)
		if op == ast.IsNot {
			tSet, fSet = fSet, tSet
		}
		return tSet, fSet

	case ast.Eq, ast.NotEq:
		tSet, fSet = c.narrowEquality(left, lt, rt, tSet, fSet)
		tSet, fSet = c.narrowEquality(right, rt, lt, tSet, fSet)
		// Two single-valued operands decide the comparison statically.
		if types.IsSingleValued(lt) && types.IsSingleValued(rt) {
			if types.IsEquivalent(lt, rt) {
				fSet.unreachable = true
			} else if types.IsDisjoint(lt, rt) {
				tSet.unreachable = true
			}
		}
		if op == ast.NotEq {
			tSet, fSet = fSet, tSet
		}
		return tSet, fSet

	case ast.In, ast.NotIn:
		tSet, fSet = c.narrowMembership(left, lt, rt, tSet, fSet)
		if op == ast.NotIn {
			tSet, fSet = fSet, tSet
		}
		return tSet, fSet
	}
	// Ordering comparisons narrow nothing.
	return tSet, fSet
}

// narrowIdentity adds `is` constraints for one orientation: side's key gets
// the other operand's type when that type is single-valued.
func (c *Checker) narrowIdentity(side ast.Expression, sideType, otherType types.Type, tSet, fSet *ConstraintSet) (*ConstraintSet, *ConstraintSet) {
	key := narrowingKey(side)
	if key == "" || !types.IsSingleValued(otherType) {
		return tSet, fSet
	}
	narrowed := types.Narrow(sideType, otherType)
	tSet = tSet.With(key, narrowed)
	fSet = fSet.With(key, types.NarrowAway(sideType, otherType))
	if narrowed == types.Never {
		tSet.unreachable = true
	}
	return tSet, fSet
}

// narrowEquality adds `==` constraints for one orientation. Equality between
// values of a multi-valued type proves nothing about identity, so narrowing
// requires the side's own type to consist of single-valued members.
func (c *Checker) narrowEquality(side ast.Expression, sideType, otherType types.Type, tSet, fSet *ConstraintSet) (*ConstraintSet, *ConstraintSet) {
	key := narrowingKey(side)
	if key == "" || !types.IsSingleValued(otherType) || !allSingleValued(sideType) {
		return tSet, fSet
	}
	tSet = tSet.With(key, types.Narrow(sideType, otherType))
	fSet = fSet.With(key, types.NarrowAway(sideType, otherType))
	return tSet, fSet
}

func allSingleValued(t types.Type) bool {
	if union, ok := t.(*types.UnionType); ok {
		for _, m := range union.Types {
			if !types.IsSingleValued(m) {
				return false
			}
		}
		return true
	}
	return types.IsSingleValued(t)
}

// narrowMembership handles `x in container` where the container is a tuple of
// single-valued elements or a string/bytes literal. The true side restricts
// to the element union; the false side removes every element.
func (c *Checker) narrowMembership(side ast.Expression, sideType, containerType types.Type, tSet, fSet *ConstraintSet) (*ConstraintSet, *ConstraintSet) {
	key := narrowingKey(side)
	if key == "" {
		return tSet, fSet
	}
	elems, ok := membershipElements(containerType)
	if !ok {
		return tSet, fSet
	}
	elemUnion := types.NewUnionType(elems...)
	tSet = tSet.With(key, types.Narrow(sideType, elemUnion))
	fSet = fSet.With(key, types.NarrowAway(sideType, elemUnion))
	return tSet, fSet
}

func membershipElements(container types.Type) ([]types.Type, bool) {
	switch ct := container.(type) {
	case *types.TupleType:
		for _, e := range ct.Elements {
			if !types.IsSingleValued(e) {
				return nil, false
			}
		}
		return ct.Elements, true
	case *types.LiteralType:
		// Membership in a string literal is membership in its characters.
		if ct.Value.Kind != types.StrValue {
			return nil, false
		}
		elems := make([]types.Type, 0, len(ct.Value.StrVal))
		for _, r := range ct.Value.StrVal {
			elems = append(elems, types.NewStrLiteral(string(r)))
		}
		return elems, len(elems) > 0
	}
	return nil, false
}

// narrowCall recognizes the special builtins. Detection goes through the
// resolved declaration, so a shadowed name loses its narrowing power.
func (c *Checker) narrowCall(n *ast.Call, env *Environment) (tSet, fSet *ConstraintSet, handled bool) {
	name, ok := n.Func.(*ast.Name)
	if !ok {
		return nil, nil, false
	}
	special := c.specialOf(name, env)
	switch special {
	case decls.SpecialBool:
		// bool(x) is transparent to narrowing.
		if len(n.Args) == 1 {
			c.inferExpr(n, env)
			t, f := c.narrowCondition(n.Args[0], env)
			return t, f, true
		}
	case decls.SpecialIsInstance:
		if len(n.Args) == 2 {
			c.inferExpr(n, env)
			t, f := c.narrowIsInstance(n, env)
			return t, f, true
		}
	case decls.SpecialIsSubclass:
		if len(n.Args) == 2 {
			c.inferExpr(n, env)
			t, f := c.narrowIsSubclass(n, env)
			return t, f, true
		}
	}
	return nil, nil, false
}

// specialOf resolves a name to its declaration and returns the special tag,
// if any. A local binding of the name shadows the builtin.
func (c *Checker) specialOf(name *ast.Name, env *Environment) decls.Special {
	if _, bound := env.Resolve(name.Ident); bound {
		return decls.SpecialNone
	}
	if entry, ok := c.oracle.Lookup("builtins", name.Ident); ok {
		return entry.Special
	}
	return decls.SpecialNone
}

func (c *Checker) narrowIsInstance(n *ast.Call, env *Environment) (tSet, fSet *ConstraintSet) {
	tSet, fSet = newConstraintSet(), newConstraintSet()
	test, ok := c.instanceTestType(n.Args[1], env)
	if !ok {
		c.report(diag.InvalidArgumentType, n.Args[1],
			"second argument to isinstance must be a class or tuple of classes")
		return tSet, fSet
	}
	key := narrowingKey(n.Args[0])
	if key == "" {
		return tSet, fSet
	}
	ambient := c.inferExpr(n.Args[0], env)
	narrowed := types.Narrow(ambient, test)
	tSet = tSet.With(key, narrowed)
	fSet = fSet.With(key, types.NarrowAway(ambient, test))
	if narrowed == types.Never {
		tSet.unreachable = true
	}
	return tSet, fSet
}

func (c *Checker) narrowIsSubclass(n *ast.Call, env *Environment) (tSet, fSet *ConstraintSet) {
	tSet, fSet = newConstraintSet(), newConstraintSet()
	test, ok := c.subclassTestType(n.Args[1], env)
	if !ok {
		c.report(diag.InvalidArgumentType, n.Args[1],
			"second argument to issubclass must be a class or tuple of classes")
		return tSet, fSet
	}
	key := narrowingKey(n.Args[0])
	if key == "" {
		return tSet, fSet
	}
	ambient := c.inferExpr(n.Args[0], env)
	tSet = tSet.With(key, types.Narrow(ambient, test))
	fSet = fSet.With(key, types.NarrowAway(ambient, test))
	// A final generic class admits no subclass that could fail the runtime
	// check once the metatype matches the origin, so the test is decided.
	if sub, ok := test.(*types.SubclassOfType); ok && sub.Class.Final && len(sub.Class.TypeParams) > 0 {
		if types.IsSubtype(ambient, test) {
			fSet.unreachable = true
		}
	}
	return tSet, fSet
}

// instanceTestType evaluates the class-info argument of isinstance into the
// instance type it tests for: a class, None, a tuple of class infos, or a
// value whose type is a union of classes.
func (c *Checker) instanceTestType(e ast.Expression, env *Environment) (types.Type, bool) {
	if tup, ok := e.(*ast.TupleExpr); ok {
		parts := make([]types.Type, 0, len(tup.Elts))
		for _, el := range tup.Elts {
			p, ok := c.instanceTestType(el, env)
			if !ok {
				return nil, false
			}
			parts = append(parts, p)
		}
		return types.NewUnionType(parts...), true
	}
	t := c.inferExpr(e, env)
	return instanceOfClassInfo(t)
}

func instanceOfClassInfo(t types.Type) (types.Type, bool) {
	switch tt := t.(type) {
	case *types.ClassType:
		return types.NewInstance(tt), true
	case *types.SubclassOfType:
		// A dynamic class variable of metatype type[C] tests for C instances.
		return types.NewInstance(tt.Class), true
	case *types.InstanceType:
		if tt.Class == types.NoneTypeClass {
			return types.None, true
		}
	case *types.UnionType:
		parts := make([]types.Type, 0, len(tt.Types))
		for _, m := range tt.Types {
			p, ok := instanceOfClassInfo(m)
			if !ok {
				return nil, false
			}
			parts = append(parts, p)
		}
		return types.NewUnionType(parts...), true
	}
	return nil, false
}

// subclassTestType evaluates the class-info argument of issubclass into the
// metatype it tests for.
func (c *Checker) subclassTestType(e ast.Expression, env *Environment) (types.Type, bool) {
	if tup, ok := e.(*ast.TupleExpr); ok {
		parts := make([]types.Type, 0, len(tup.Elts))
		for _, el := range tup.Elts {
			p, ok := c.subclassTestType(el, env)
			if !ok {
				return nil, false
			}
			parts = append(parts, p)
		}
		return types.NewUnionType(parts...), true
	}
	t := c.inferExpr(e, env)
	switch tt := t.(type) {
	case *types.ClassType:
		return &types.SubclassOfType{Class: tt}, true
	case *types.SubclassOfType:
		return tt, true
	}
	return nil, false
}
