// Package scope builds the lexical scope tree and per-scope binding tables in
// a single pass over the syntax tree. Scopes and bindings are immutable once
// built; the checker reads them but records inferred types elsewhere.
package scope

import (
	"redshank/pkg/ast"
)

// Kind classifies a scope node.
type Kind int

const (
	ModuleScope Kind = iota
	FunctionScope
	ClassScope
	ComprehensionScope
	GeneratorScope
)

func (k Kind) String() string {
	switch k {
	case ModuleScope:
		return "module"
	case FunctionScope:
		return "function"
	case ClassScope:
		return "class"
	case ComprehensionScope:
		return "comprehension"
	case GeneratorScope:
		return "generator"
	default:
		return "unknown"
	}
}

// Eager reports whether lookups from inside this scope resolve against the
// enclosing scope's state at definition time. Function scopes are lazy: their
// lookups resolve at call time, against the final state.
func (k Kind) Eager() bool {
	return k != FunctionScope
}

// BindingKind records what syntactic form introduced a binding.
type BindingKind int

const (
	AssignmentBinding BindingKind = iota
	DeclarationBinding
	ParameterBinding
	ImportBinding
	FunctionBinding
	ClassBinding
	LoopBinding
	ComprehensionBinding
)

// Binding is one introduction of a name in a scope: the name, where, and how.
// Pos is the binding's position in the scope's straight-line statement order;
// the resolver compares it against a nested scope's definition position for
// eager lookups.
type Binding struct {
	Name            string
	Scope           *Scope
	Node            ast.Node
	Kind            BindingKind
	Pos             int
	PossiblyUnbound bool // introduced on not-all control-flow paths
	Annotated       bool // carries an explicit declared type
	Annotation      ast.Expression
}

// Scope is one node of the scope tree.
type Scope struct {
	Kind     Kind
	Parent   *Scope
	Node     ast.Node
	Bindings []*Binding // ordered by Pos
	Children []*Scope

	// DefPos is the position counter of the parent scope at the point this
	// scope's defining node appears. Eager lookups from inside resolve against
	// parent bindings with Pos < DefPos.
	DefPos int

	// FuncDepth counts function scopes on the chain from the module root to
	// this scope, inclusive. Walking outward from S to an ancestor A crosses a
	// lazy scope iff S.FuncDepth > A.FuncDepth; precomputing it keeps the
	// resolver a branch-light table walk.
	FuncDepth int

	// Globals lists names declared with an explicit global statement.
	Globals map[string]bool

	byName map[string][]*Binding
}

// BindingsOf returns every binding of name in this scope, in order.
func (s *Scope) BindingsOf(name string) []*Binding {
	return s.byName[name]
}

// LastBindingBefore returns the latest binding of name whose position is
// strictly below pos, or nil. Pass a negative pos for "any position".
func (s *Scope) LastBindingBefore(name string, pos int) *Binding {
	bindings := s.byName[name]
	var found *Binding
	for _, b := range bindings {
		if pos >= 0 && b.Pos >= pos {
			break
		}
		found = b
	}
	return found
}

// IsGlobal reports whether name is declared global in this scope.
func (s *Scope) IsGlobal(name string) bool {
	return s.Globals[name]
}

// Table is the result of building scopes for one module.
type Table struct {
	Module *Scope
	byNode map[ast.NodeID]*Scope
}

// ScopeOf returns the scope introduced by a node (a module, function, class,
// lambda or comprehension), or nil.
func (t *Table) ScopeOf(id ast.NodeID) *Scope {
	return t.byNode[id]
}
