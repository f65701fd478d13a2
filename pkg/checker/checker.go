// Package checker infers types for a module and reports diagnostics. It walks
// each scope's statements in order, threading a flow-sensitive environment
// through branches, and defers function bodies so that names they close over
// resolve against the enclosing scope's final, public state.
package checker

import (
	"fmt"

	"redshank/pkg/ast"
	"redshank/pkg/decls"
	"redshank/pkg/diag"
	"redshank/pkg/scope"
	"redshank/pkg/types"
)

const checkerDebug = false

func debugPrintf(format string, args ...interface{}) {
	if checkerDebug {
		fmt.Printf(format, args...)
	}
}

type reportKey struct {
	node ast.NodeID
	kind diag.Kind
}

type deferredBody struct {
	node ast.Node // *ast.FunctionDef or *ast.Lambda
	sc   *scope.Scope
}

// Checker holds the state of one module check.
type Checker struct {
	table  *scope.Table
	oracle decls.Oracle
	sink   diag.Sink

	exprTypes    map[ast.NodeID]types.Type
	bindingTypes map[*scope.Binding]types.Type
	bindingIndex map[ast.NodeID][]*scope.Binding
	reported     map[reportKey]struct{}

	// Function and lambda bodies queue here and run after the pass that
	// defined them, so outer names resolve to their public types.
	deferred   []deferredBody
	publicEnvs map[*scope.Scope]*Environment

	// Innermost-first stack of break snapshots for enclosing loops.
	breakStack [][]*Environment

	moduleEnv *Environment
}

// NewChecker creates a checker over a built scope table. The oracle supplies
// builtin and module declarations; pass diag.Discard to drop diagnostics.
func NewChecker(table *scope.Table, oracle decls.Oracle, sink diag.Sink) *Checker {
	c := &Checker{
		table:        table,
		oracle:       oracle,
		sink:         sink,
		exprTypes:    make(map[ast.NodeID]types.Type),
		bindingTypes: make(map[*scope.Binding]types.Type),
		bindingIndex: make(map[ast.NodeID][]*scope.Binding),
		reported:     make(map[reportKey]struct{}),
		publicEnvs:   make(map[*scope.Scope]*Environment),
	}
	c.indexBindings(table.Module)
	return c
}

func (c *Checker) indexBindings(s *scope.Scope) {
	for _, b := range s.Bindings {
		if b.Node != nil {
			id := b.Node.ID()
			c.bindingIndex[id] = append(c.bindingIndex[id], b)
		}
	}
	for _, child := range s.Children {
		c.indexBindings(child)
	}
}

// Check runs inference over the module body, then drains the deferred queue.
// Deferred bodies may queue further nested bodies; FIFO order guarantees an
// enclosing body completes before any body nested inside it runs.
func (c *Checker) Check(m *ast.Module) {
	env := NewEnvironment(c.table.Module)
	c.moduleEnv = env
	c.checkBlock(m.Body, env)
	for len(c.deferred) > 0 {
		d := c.deferred[0]
		c.deferred = c.deferred[1:]
		c.checkDeferred(d)
	}
}

// TypeOf returns the inferred type of an expression node, or nil if the node
// was never reached.
func (c *Checker) TypeOf(id ast.NodeID) types.Type {
	return c.exprTypes[id]
}

// BindingType returns the type recorded for a binding, or Unknown if the
// binding was never executed on any checked path.
func (c *Checker) BindingType(b *scope.Binding) types.Type {
	if t, ok := c.bindingTypes[b]; ok {
		return t
	}
	return types.Unknown
}

func (c *Checker) setExprType(e ast.Expression, t types.Type) types.Type {
	c.exprTypes[e.ID()] = t
	return t
}

// recordBinding attaches the inferred type to the scope binding introduced by
// node for name, if any.
func (c *Checker) recordBinding(node ast.Node, name string, sc *scope.Scope, t types.Type) {
	if node == nil {
		return
	}
	for _, b := range c.bindingIndex[node.ID()] {
		if b.Name == name && b.Scope == sc {
			c.bindingTypes[b] = t
			return
		}
	}
}

// report emits a diagnostic at most once per (node, kind).
func (c *Checker) report(kind diag.Kind, node ast.Node, format string, args ...interface{}) {
	key := reportKey{node.ID(), kind}
	if _, dup := c.reported[key]; dup {
		return
	}
	c.reported[key] = struct{}{}
	c.sink.Report(diag.Diagnostic{
		Kind:    kind,
		Span:    node.Span(),
		Message: fmt.Sprintf(format, args...),
	})
}

// publicType is the flow-insensitive type of a name in a scope: the union of
// the types of all its bindings. Lazy lookups see this, never an intermediate
// flow state.
func (c *Checker) publicType(s *scope.Scope, name string) (types.Type, bool) {
	bindings := s.BindingsOf(name)
	if len(bindings) == 0 {
		return nil, false
	}
	parts := make([]types.Type, 0, len(bindings))
	for _, b := range bindings {
		parts = append(parts, c.BindingType(b))
	}
	return types.NewUnionType(parts...), true
}

// enclosingLexical returns the nearest ancestor usable for name lookup from a
// nested scope. Class scope names are invisible to scopes nested inside the
// class body, so class ancestors are skipped.
func enclosingLexical(s *scope.Scope) *scope.Scope {
	p := s.Parent
	for p != nil && p.Kind == scope.ClassScope {
		p = p.Parent
	}
	return p
}

// publicEnvFor builds (and caches) an environment exposing a scope's public
// symbol types, chained through its lexical ancestors. Deferred bodies check
// against these.
func (c *Checker) publicEnvFor(s *scope.Scope) *Environment {
	if s == nil {
		return nil
	}
	if env, ok := c.publicEnvs[s]; ok {
		return env
	}
	outer := c.publicEnvFor(enclosingLexical(s))
	var env *Environment
	if outer == nil {
		env = NewEnvironment(s)
	} else {
		env = NewScopeEnvironment(outer, s)
	}
	seen := make(map[string]bool)
	for _, b := range s.Bindings {
		if seen[b.Name] {
			continue
		}
		seen[b.Name] = true
		if t, ok := c.publicType(s, b.Name); ok {
			env.Define(b.Name, SymbolInfo{Type: t})
		}
	}
	c.publicEnvs[s] = env
	return env
}

func (c *Checker) checkDeferred(d deferredBody) {
	outer := c.publicEnvFor(enclosingLexical(d.sc))
	env := NewScopeEnvironment(outer, d.sc)
	switch fn := d.node.(type) {
	case *ast.FunctionDef:
		debugPrintf("// [checker] deferred body: %s\n", fn.Name)
		c.bindParams(fn.Params, env, outer)
		c.checkBlock(fn.Body, env)
	case *ast.Lambda:
		c.bindParams(fn.Params, env, outer)
		c.inferExpr(fn.Body, env)
	}
}

func (c *Checker) bindParams(params []*ast.Param, env, annEnv *Environment) {
	for _, p := range params {
		t := types.Type(types.Unknown)
		if p.Annotation != nil {
			t = c.resolveAnnotation(p.Annotation, annEnv)
		}
		env.Define(p.Name, SymbolInfo{Type: t})
		c.recordParamBinding(p.Name, env.Scope(), t)
	}
}

func (c *Checker) recordParamBinding(name string, sc *scope.Scope, t types.Type) {
	for _, b := range sc.BindingsOf(name) {
		if b.Kind == scope.ParameterBinding {
			c.bindingTypes[b] = t
		}
	}
}
