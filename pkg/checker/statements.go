package checker

import (
	"redshank/pkg/ast"
	"redshank/pkg/diag"
	"redshank/pkg/types"
)

// checkBlock checks statements in order. It reports true when the block
// provably terminates (return, break, continue, or a dead-end conditional)
// and the statements after it would be unreachable.
func (c *Checker) checkBlock(stmts []ast.Statement, env *Environment) bool {
	for _, stmt := range stmts {
		if c.checkStmt(stmt, env) {
			return true
		}
	}
	return false
}

func (c *Checker) checkStmt(stmt ast.Statement, env *Environment) bool {
	switch n := stmt.(type) {
	case *ast.Assign:
		c.checkAssign(n, env)
	case *ast.AnnAssign:
		c.checkAnnAssign(n, env)
	case *ast.If:
		return c.checkIf(n, env)
	case *ast.While:
		return c.checkWhile(n, env)
	case *ast.For:
		return c.checkFor(n, env)
	case *ast.Break:
		if len(c.breakStack) > 0 {
			top := len(c.breakStack) - 1
			c.breakStack[top] = append(c.breakStack[top], snapshotScope(env))
		}
		return true
	case *ast.Continue:
		return true
	case *ast.Return:
		if n.Value != nil {
			c.inferExpr(n.Value, env)
		}
		return true
	case *ast.FunctionDef:
		c.checkFunctionDef(n, env)
	case *ast.ClassDef:
		c.checkClassDef(n, env)
	case *ast.Import:
		c.checkImport(n, env)
	case *ast.ExprStmt:
		c.inferExpr(n.Expr, env)
	case *ast.Global, *ast.Pass:
		// Globals were recorded by the scope builder.
	}
	return false
}

func (c *Checker) checkAssign(n *ast.Assign, env *Environment) {
	t := c.inferExpr(n.Value, env)
	switch target := n.Target.(type) {
	case *ast.Name:
		info := SymbolInfo{Type: t}
		if prev, ok := env.Resolve(target.Ident); ok && prev.Declared != nil {
			if !types.IsAssignable(t, prev.Declared) {
				c.report(diag.InvalidAssignment, n,
					"cannot assign `%s` to `%s` declared as `%s`", t.String(), target.Ident, prev.Declared.String())
			}
			info.Declared = prev.Declared
		}
		env.Define(target.Ident, info)
		c.recordBinding(n, target.Ident, env.Scope(), t)
	case *ast.Attribute:
		obj := c.inferExpr(target.Object, env)
		if want, ok := memberLookup(obj, target.Attr); ok {
			if !types.IsAssignable(t, want) {
				c.report(diag.InvalidAssignment, n,
					"cannot assign `%s` to attribute `%s` of type `%s`", t.String(), target.Attr, want.String())
			}
		}
		if key := narrowingKey(target); key != "" {
			env.ClearNarrowings(key)
		}
	}
}

func (c *Checker) checkAnnAssign(n *ast.AnnAssign, env *Environment) {
	declared := c.resolveAnnotation(n.Annotation, env)
	target, isName := n.Target.(*ast.Name)
	if n.Value == nil {
		// A bare declaration constrains later assignments but binds nothing.
		if isName {
			env.Define(target.Ident, SymbolInfo{Type: declared, Declared: declared, PossiblyUnbound: true})
			c.recordBinding(n, target.Ident, env.Scope(), declared)
		}
		return
	}
	t := c.inferExpr(n.Value, env)
	if !types.IsAssignable(t, declared) {
		c.report(diag.InvalidAssignment, n,
			"cannot assign `%s` to target declared as `%s`", t.String(), declared.String())
		t = declared
	}
	if isName {
		env.Define(target.Ident, SymbolInfo{Type: t, Declared: declared})
		c.recordBinding(n, target.Ident, env.Scope(), t)
	}
}

// branch is one merge arm: the environment a control-flow path ended in.
type branch struct {
	env        *Environment
	terminated bool
}

func branchEnv(base *Environment, cs *ConstraintSet) *Environment {
	e := NewEnclosedEnvironment(base)
	for k, t := range cs.constraints {
		e.SetNarrowing(k, t)
	}
	return e
}

func (c *Checker) checkIf(n *ast.If, env *Environment) bool {
	tSet, fSet := c.narrowCondition(n.Test, env)
	thenEnv := branchEnv(env, tSet)
	elseEnv := branchEnv(env, fSet)

	// Statically dead branches are still checked for diagnostics, but their
	// outcome does not flow past the statement.
	thenTerm := c.checkBlock(n.Body, thenEnv) || tSet.Unreachable()
	elseTerm := c.checkBlock(n.Orelse, elseEnv) || fSet.Unreachable()

	live := make([]branch, 0, 2)
	if !thenTerm {
		live = append(live, branch{env: thenEnv})
	}
	if !elseTerm {
		// An absent else is the implicit empty branch carrying the false set.
		live = append(live, branch{env: elseEnv})
	}
	c.mergeBranches(env, live)
	return len(live) == 0
}

func (c *Checker) checkWhile(n *ast.While, env *Environment) bool {
	tSet, fSet := c.narrowCondition(n.Test, env)
	bodyEnv := branchEnv(env, tSet)

	c.breakStack = append(c.breakStack, nil)
	bodyTerm := c.checkBlock(n.Body, bodyEnv)
	breaks := c.breakStack[len(c.breakStack)-1]
	c.breakStack = c.breakStack[:len(c.breakStack)-1]

	elseEnv := branchEnv(env, fSet)
	elseTerm := c.checkBlock(n.Orelse, elseEnv)

	// Exits: the condition going false runs the else clause; a break skips
	// it. A body fallthrough loops back and is not an exit, but its bindings
	// are visible (possibly unbound) after the loop.
	exits := make([]branch, 0, 1+len(breaks))
	if !fSet.Unreachable() && !elseTerm {
		exits = append(exits, branch{env: elseEnv})
	}
	for _, be := range breaks {
		exits = append(exits, branch{env: be})
	}
	if len(exits) == 0 {
		// `while True` without a break: nothing after the loop runs.
		return true
	}
	merged := exits
	if !tSet.Unreachable() && !bodyTerm {
		merged = append(merged, branch{env: bodyEnv})
	}
	c.mergeBranches(env, merged)
	return false
}

func (c *Checker) checkFor(n *ast.For, env *Environment) bool {
	iterT := c.inferExpr(n.Iter, env)
	elemT := c.iterElement(iterT, n.Iter)

	bodyEnv := NewEnclosedEnvironment(env)
	bodyEnv.Define(n.Target.Ident, SymbolInfo{Type: elemT})
	c.recordBinding(n, n.Target.Ident, env.Scope(), elemT)

	c.breakStack = append(c.breakStack, nil)
	bodyTerm := c.checkBlock(n.Body, bodyEnv)
	breaks := c.breakStack[len(c.breakStack)-1]
	c.breakStack = c.breakStack[:len(c.breakStack)-1]

	// The else clause runs on exhaustion; the loop variable is unbound there
	// when the iterable was empty.
	elseEnv := NewEnclosedEnvironment(env)
	elseEnv.Define(n.Target.Ident, SymbolInfo{Type: elemT, PossiblyUnbound: true})
	elseTerm := c.checkBlock(n.Orelse, elseEnv)

	exits := make([]branch, 0, 1+len(breaks))
	if !elseTerm {
		exits = append(exits, branch{env: elseEnv})
	}
	for _, be := range breaks {
		exits = append(exits, branch{env: be})
	}
	if len(exits) == 0 {
		return true
	}
	merged := exits
	if !bodyTerm {
		merged = append(merged, branch{env: bodyEnv})
	}
	c.mergeBranches(env, merged)
	return false
}

func (c *Checker) checkFunctionDef(n *ast.FunctionDef, env *Environment) {
	for _, d := range n.Decorators {
		c.inferExpr(d, env)
	}
	params := make([]types.Type, len(n.Params))
	for i, p := range n.Params {
		params[i] = types.Type(types.Unknown)
		if p.Annotation != nil {
			params[i] = c.resolveAnnotation(p.Annotation, env)
		}
		if p.Default != nil {
			dt := c.inferExpr(p.Default, env)
			if p.Annotation != nil && !types.IsAssignable(dt, params[i]) {
				c.report(diag.InvalidAssignment, n,
					"default for `%s` is not assignable to its annotation", p.Name)
			}
		}
	}
	ret := types.Type(types.Unknown)
	if n.Returns != nil {
		ret = c.resolveAnnotation(n.Returns, env)
	}
	ft := types.NewCallable(ret, params...)
	env.Define(n.Name, SymbolInfo{Type: ft})
	c.recordBinding(n, n.Name, env.Scope(), ft)
	if sc := c.table.ScopeOf(n.ID()); sc != nil {
		c.deferred = append(c.deferred, deferredBody{node: n, sc: sc})
	}
}

func (c *Checker) checkClassDef(n *ast.ClassDef, env *Environment) {
	final := false
	for _, d := range n.Decorators {
		if isFinalDecorator(d) {
			final = true
			continue
		}
		c.inferExpr(d, env)
	}
	var bases []*types.ClassType
	for _, b := range n.Bases {
		bt := c.inferExpr(b, env)
		switch base := bt.(type) {
		case *types.ClassType:
			if base.Final {
				c.report(diag.InvalidArgumentType, b, "cannot subclass final class `%s`", base.Name)
				continue
			}
			bases = append(bases, base)
		case *types.Special:
			// Unknown base: class hierarchy is dynamic, nothing to record.
		default:
			c.report(diag.InvalidArgumentType, b, "class base must be a class, got `%s`", bt.String())
		}
	}
	if len(bases) == 0 {
		bases = []*types.ClassType{types.ObjectClass}
	}

	classEnv := env
	if sc := c.table.ScopeOf(n.ID()); sc != nil {
		classEnv = NewScopeEnvironment(env, sc)
	}
	c.checkBlock(n.Body, classEnv)

	cls := types.NewClass(n.Name, bases, nil)
	cls.Final = final
	for name, info := range classEnv.localSymbols() {
		cls.Members[name] = info.Type
	}
	if cls.IsSubclassOf(types.EnumClass) {
		// Class-body assignments of an enum are member literals, not plain
		// attributes.
		for name, t := range cls.Members {
			if _, isCallable := t.(*types.CallableType); !isCallable {
				cls.Members[name] = types.NewEnumLiteral(cls, name)
			}
		}
	}
	env.Define(n.Name, SymbolInfo{Type: cls})
	c.recordBinding(n, n.Name, env.Scope(), cls)
}

func isFinalDecorator(d ast.Expression) bool {
	switch dd := d.(type) {
	case *ast.Name:
		return dd.Ident == "final"
	case *ast.Attribute:
		return dd.Attr == "final"
	}
	return false
}

func (c *Checker) checkImport(n *ast.Import, env *Environment) {
	name := n.As
	if name == "" {
		name = n.Module
	}
	attrs, ok := c.oracle.ModuleAttrs(n.Module)
	if !ok {
		c.report(diag.UnresolvedReference, n, "cannot resolve module `%s`", n.Module)
		env.Define(name, SymbolInfo{Type: types.Unknown})
		c.recordBinding(n, name, env.Scope(), types.Unknown)
		return
	}
	mt := &types.ModuleType{ModuleName: n.Module, Attrs: attrs}
	env.Define(name, SymbolInfo{Type: mt})
	c.recordBinding(n, name, env.Scope(), mt)
}

// snapshotScope freezes the current scope's portion of the environment chain
// so a break's state survives later mutation of the live environments.
func snapshotScope(env *Environment) *Environment {
	var chain []*Environment
	for e := env; e != nil; e = e.outer {
		chain = append(chain, e)
		if e.scope != nil {
			break
		}
	}
	last := chain[len(chain)-1]
	snap := &Environment{
		scope:      last.scope,
		symbols:    make(map[string]SymbolInfo),
		narrowings: make(map[string]types.Type),
		cleared:    make(map[string]bool),
		outer:      last.outer,
	}
	for i := len(chain) - 1; i >= 0; i-- {
		e := chain[i]
		for k := range e.cleared {
			snap.cleared[k] = true
			for key := range snap.narrowings {
				if key == k || len(key) > len(k) && key[:len(k)] == k && key[len(k)] == '.' {
					delete(snap.narrowings, key)
				}
			}
		}
		for k, v := range e.symbols {
			snap.symbols[k] = v
		}
		for k, v := range e.narrowings {
			snap.narrowings[k] = v
		}
	}
	return snap
}

// mergeBranches folds the surviving branch environments back into the base.
// A name assigned on some live paths but not others becomes possibly unbound;
// a narrowing key survives only when every live path agrees it holds, with
// the per-path types unioned.
func (c *Checker) mergeBranches(base *Environment, live []branch) {
	if len(live) == 0 {
		return
	}

	assigned := make(map[string]bool)
	for _, br := range live {
		for name := range br.env.localSymbols() {
			assigned[name] = true
		}
	}
	for name := range assigned {
		parts := make([]types.Type, 0, len(live))
		possiblyUnbound := false
		var declared types.Type
		for _, br := range live {
			if info, ok := br.env.localSymbols()[name]; ok {
				parts = append(parts, info.Type)
				possiblyUnbound = possiblyUnbound || info.PossiblyUnbound
				if info.Declared != nil {
					declared = info.Declared
				}
			} else if info, ok := base.Resolve(name); ok {
				parts = append(parts, info.Type)
				possiblyUnbound = possiblyUnbound || info.PossiblyUnbound
				if info.Declared != nil {
					declared = info.Declared
				}
			} else {
				possiblyUnbound = true
			}
		}
		base.Define(name, SymbolInfo{
			Type:            types.NewUnionType(parts...),
			Declared:        declared,
			PossiblyUnbound: possiblyUnbound,
		})
	}

	candidates := make(map[string]bool)
	for _, br := range live {
		for key := range br.env.localNarrowings() {
			candidates[key] = true
		}
	}
	for key := range candidates {
		if rootAssigned(key, assigned) {
			continue
		}
		parts := make([]types.Type, 0, len(live))
		ok := true
		for _, br := range live {
			t, has := br.env.NarrowedType(key)
			if !has {
				ok = false
				break
			}
			parts = append(parts, t)
		}
		if ok {
			base.SetNarrowing(key, types.NewUnionType(parts...))
		}
	}
}

func rootAssigned(key string, assigned map[string]bool) bool {
	root := key
	for i := 0; i < len(key); i++ {
		if key[i] == '.' {
			root = key[:i]
			break
		}
	}
	return assigned[root]
}
