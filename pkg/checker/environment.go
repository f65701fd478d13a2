package checker

import (
	"strings"

	"redshank/pkg/scope"
	"redshank/pkg/types"
)

// SymbolInfo is the flow-sensitive state of one name.
type SymbolInfo struct {
	Type            types.Type
	Declared        types.Type // annotation-derived constraint, nil if none
	PossiblyUnbound bool
}

// Environment manages type information within scopes. Narrowed types live in
// a separate overlay map keyed by narrowing keys ("x", "x.attr") so that the
// true/false branches of a conditional can be materialized as cheap enclosed
// environments without touching the symbols beneath.
type Environment struct {
	scope      *scope.Scope // nil for branch overlays
	symbols    map[string]SymbolInfo
	narrowings map[string]types.Type
	cleared    map[string]bool // names whose narrowings were invalidated here
	outer      *Environment
}

// NewEnvironment creates a top-level environment for a scope.
func NewEnvironment(sc *scope.Scope) *Environment {
	return &Environment{
		scope:      sc,
		symbols:    make(map[string]SymbolInfo),
		narrowings: make(map[string]types.Type),
		cleared:    make(map[string]bool),
	}
}

// NewEnclosedEnvironment creates an overlay environment nested within an
// outer one. Overlays share the outer scope unless given their own.
func NewEnclosedEnvironment(outer *Environment) *Environment {
	return &Environment{
		symbols:    make(map[string]SymbolInfo),
		narrowings: make(map[string]types.Type),
		cleared:    make(map[string]bool),
		outer:      outer,
	}
}

// NewScopeEnvironment creates an environment for a nested scope, chained to
// the enclosing environment.
func NewScopeEnvironment(outer *Environment, sc *scope.Scope) *Environment {
	e := NewEnclosedEnvironment(outer)
	e.scope = sc
	return e
}

// Scope returns the nearest scope this environment belongs to.
func (e *Environment) Scope() *scope.Scope {
	for env := e; env != nil; env = env.outer {
		if env.scope != nil {
			return env.scope
		}
	}
	return nil
}

// Define sets the flow type of a name in this environment and invalidates any
// narrowing of the name or its attributes.
func (e *Environment) Define(name string, info SymbolInfo) {
	e.symbols[name] = info
	e.ClearNarrowings(name)
}

// Resolve looks up a name through the environment chain.
func (e *Environment) Resolve(name string) (SymbolInfo, bool) {
	for env := e; env != nil; env = env.outer {
		if info, ok := env.symbols[name]; ok {
			return info, true
		}
	}
	return SymbolInfo{}, false
}

// ResolveLocal looks the name up without walking outward past the current
// scope's environments.
func (e *Environment) ResolveLocal(name string) (SymbolInfo, bool) {
	sc := e.Scope()
	for env := e; env != nil; env = env.outer {
		if info, ok := env.symbols[name]; ok {
			return info, true
		}
		if env.scope != nil && env.scope == sc && env.outer != nil && env.outer.Scope() != sc {
			break
		}
	}
	return SymbolInfo{}, false
}

// SetNarrowing records a narrowed type for a key in this environment.
func (e *Environment) SetNarrowing(key string, t types.Type) {
	e.narrowings[key] = t
}

// NarrowedType returns the innermost visible narrowing for a key, honoring
// invalidations from intervening assignments.
func (e *Environment) NarrowedType(key string) (types.Type, bool) {
	root := key
	if i := strings.IndexByte(key, '.'); i >= 0 {
		root = key[:i]
	}
	for env := e; env != nil; env = env.outer {
		if t, ok := env.narrowings[key]; ok {
			return t, true
		}
		if env.cleared[root] {
			return nil, false
		}
		// A local rebinding of the root also invalidates older narrowings.
		if _, ok := env.symbols[root]; ok {
			return nil, false
		}
	}
	return nil, false
}

// ClearNarrowings drops narrowings for a name and for attribute keys rooted
// at it, shadowing any set in enclosing environments.
func (e *Environment) ClearNarrowings(name string) {
	for key := range e.narrowings {
		if key == name || strings.HasPrefix(key, name+".") {
			delete(e.narrowings, key)
		}
	}
	e.cleared[name] = true
}

// localSymbols returns the symbols defined directly in this environment.
func (e *Environment) localSymbols() map[string]SymbolInfo {
	return e.symbols
}

// localNarrowings returns the narrowings set directly in this environment.
func (e *Environment) localNarrowings() map[string]types.Type {
	return e.narrowings
}
