package checker

import (
	"redshank/pkg/scope"
	"redshank/pkg/types"
)

// Resolution is the outcome of resolving a name from inside a scope.
type Resolution struct {
	// Binding is the specific binding an eager lookup selected, or nil when
	// the lookup was lazy (several bindings union) or hit a fallback
	// namespace.
	Binding         *scope.Binding
	Type            types.Type
	PossiblyUnbound bool
	Builtin         bool
}

// Resolve looks a name up from inside scope s after checking has run.
//
// The walk outward is sticky-lazy: within the chain of eager scopes around s
// a name resolves against the enclosing scope's state at the nested scope's
// definition point, but once the walk crosses a function boundary every
// further hop sees only the final, public state of the enclosing scope. Class
// scopes are invisible to scopes nested inside them. Names that miss every
// scope fall back to the builtin namespace, then to the module object's
// implicit attributes minus a small denylist.
func (c *Checker) Resolve(s *scope.Scope, name string) (Resolution, bool) {
	if s.IsGlobal(name) {
		if res, ok := c.resolvePublic(c.table.Module, name); ok {
			return res, true
		}
		return c.resolveFallback(name)
	}

	child := (*scope.Scope)(nil)
	for cur := s; cur != nil; child, cur = cur, cur.Parent {
		if cur != s && cur.Kind == scope.ClassScope {
			// Invisible from nested scopes; the walk continues outward.
			continue
		}
		if len(cur.BindingsOf(name)) == 0 {
			continue
		}
		// The walk from s up to cur crossed a lazy scope exactly when the
		// precomputed depths differ.
		if cur == s || s.FuncDepth > cur.FuncDepth {
			if res, ok := c.resolvePublic(cur, name); ok {
				return res, true
			}
			continue
		}
		// Eager hop: only bindings before the nested scope's definition
		// point are visible.
		if b := cur.LastBindingBefore(name, child.DefPos); b != nil {
			return Resolution{
				Binding:         b,
				Type:            c.BindingType(b),
				PossiblyUnbound: b.PossiblyUnbound,
			}, true
		}
	}
	return c.resolveFallback(name)
}

// resolvePublic resolves against a scope's public state: the union of every
// binding's type. The name is possibly unbound when no unconditional binding
// exists.
func (c *Checker) resolvePublic(s *scope.Scope, name string) (Resolution, bool) {
	bindings := s.BindingsOf(name)
	if len(bindings) == 0 {
		return Resolution{}, false
	}
	parts := make([]types.Type, 0, len(bindings))
	unconditional := false
	for _, b := range bindings {
		parts = append(parts, c.BindingType(b))
		if !b.PossiblyUnbound {
			unconditional = true
		}
	}
	return Resolution{
		Type:            types.NewUnionType(parts...),
		PossiblyUnbound: !unconditional,
	}, true
}

func (c *Checker) resolveFallback(name string) (Resolution, bool) {
	if entry, ok := c.oracle.Lookup("builtins", name); ok {
		return Resolution{Type: entry.Type, Builtin: true}, true
	}
	if !moduleAttrDenylist[name] {
		if t, ok := implicitModuleAttrs[name]; ok {
			return Resolution{Type: t}, true
		}
	}
	return Resolution{}, false
}
