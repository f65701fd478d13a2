package ast

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// DecodeYAML reads a module fixture. The format is a direct transcription of
// the tree: each node is a single-key mapping naming its kind. It exists so
// the checker can be driven without the (external) parser front end; test
// fixtures and the cmd/redshank tool both use it.
//
//	module: demo
//	body:
//	  - assign: {target: {name: x}, value: {int: 1}}
//	  - if:
//	      test: {call: {func: {name: isinstance}, args: [{name: x}, {name: int}]}}
//	      then:
//	        - expr: {name: x}
func DecodeYAML(r io.Reader) (*Module, error) {
	var doc struct {
		Module string      `yaml:"module"`
		Body   []yaml.Node `yaml:"body"`
	}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding module fixture: %w", err)
	}
	d := &decoder{b: NewBuilder()}
	body, err := d.stmts(doc.Body)
	if err != nil {
		return nil, err
	}
	name := doc.Module
	if name == "" {
		name = "main"
	}
	return d.b.Module(name, body...), nil
}

type decoder struct {
	b *Builder
}

// kind extracts the single operative key of a node mapping.
func (d *decoder) kind(n *yaml.Node) (string, *yaml.Node, error) {
	if n.Kind != yaml.MappingNode || len(n.Content) < 2 {
		return "", nil, fmt.Errorf("line %d: expected a single-key node mapping", n.Line)
	}
	return n.Content[0].Value, n.Content[1], nil
}

func (d *decoder) stmts(nodes []yaml.Node) ([]Statement, error) {
	out := make([]Statement, 0, len(nodes))
	for i := range nodes {
		s, err := d.stmt(&nodes[i])
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (d *decoder) stmt(n *yaml.Node) (Statement, error) {
	kind, body, err := d.kind(n)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "assign":
		var raw struct {
			Target yaml.Node `yaml:"target"`
			Value  yaml.Node `yaml:"value"`
		}
		if err := body.Decode(&raw); err != nil {
			return nil, err
		}
		target, err := d.expr(&raw.Target)
		if err != nil {
			return nil, err
		}
		value, err := d.expr(&raw.Value)
		if err != nil {
			return nil, err
		}
		return d.b.Assign(target, value), nil
	case "annassign":
		var raw struct {
			Target     yaml.Node  `yaml:"target"`
			Annotation yaml.Node  `yaml:"annotation"`
			Value      *yaml.Node `yaml:"value"`
		}
		if err := body.Decode(&raw); err != nil {
			return nil, err
		}
		target, err := d.expr(&raw.Target)
		if err != nil {
			return nil, err
		}
		ann, err := d.expr(&raw.Annotation)
		if err != nil {
			return nil, err
		}
		var value Expression
		if raw.Value != nil {
			if value, err = d.expr(raw.Value); err != nil {
				return nil, err
			}
		}
		return d.b.AnnAssign(target, ann, value), nil
	case "if":
		var raw struct {
			Test yaml.Node   `yaml:"test"`
			Then []yaml.Node `yaml:"then"`
			Else []yaml.Node `yaml:"else"`
		}
		if err := body.Decode(&raw); err != nil {
			return nil, err
		}
		test, err := d.expr(&raw.Test)
		if err != nil {
			return nil, err
		}
		then, err := d.stmts(raw.Then)
		if err != nil {
			return nil, err
		}
		orelse, err := d.stmts(raw.Else)
		if err != nil {
			return nil, err
		}
		return d.b.If(test, then, orelse...), nil
	case "while":
		var raw struct {
			Test yaml.Node   `yaml:"test"`
			Body []yaml.Node `yaml:"body"`
			Else []yaml.Node `yaml:"else"`
		}
		if err := body.Decode(&raw); err != nil {
			return nil, err
		}
		test, err := d.expr(&raw.Test)
		if err != nil {
			return nil, err
		}
		loopBody, err := d.stmts(raw.Body)
		if err != nil {
			return nil, err
		}
		orelse, err := d.stmts(raw.Else)
		if err != nil {
			return nil, err
		}
		return d.b.While(test, loopBody, orelse...), nil
	case "for":
		var raw struct {
			Target string      `yaml:"target"`
			Iter   yaml.Node   `yaml:"iter"`
			Body   []yaml.Node `yaml:"body"`
			Else   []yaml.Node `yaml:"else"`
		}
		if err := body.Decode(&raw); err != nil {
			return nil, err
		}
		iter, err := d.expr(&raw.Iter)
		if err != nil {
			return nil, err
		}
		loopBody, err := d.stmts(raw.Body)
		if err != nil {
			return nil, err
		}
		orelse, err := d.stmts(raw.Else)
		if err != nil {
			return nil, err
		}
		return d.b.For(d.b.Name(raw.Target), iter, loopBody, orelse...), nil
	case "def":
		var raw struct {
			Name   string      `yaml:"name"`
			Params []string    `yaml:"params"`
			Body   []yaml.Node `yaml:"body"`
		}
		if err := body.Decode(&raw); err != nil {
			return nil, err
		}
		params := make([]*Param, len(raw.Params))
		for i, p := range raw.Params {
			params[i] = &Param{Name: p}
		}
		fnBody, err := d.stmts(raw.Body)
		if err != nil {
			return nil, err
		}
		return d.b.FuncDef(raw.Name, params, fnBody...), nil
	case "class":
		var raw struct {
			Name  string      `yaml:"name"`
			Bases []yaml.Node `yaml:"bases"`
			Body  []yaml.Node `yaml:"body"`
		}
		if err := body.Decode(&raw); err != nil {
			return nil, err
		}
		bases := make([]Expression, 0, len(raw.Bases))
		for i := range raw.Bases {
			e, err := d.expr(&raw.Bases[i])
			if err != nil {
				return nil, err
			}
			bases = append(bases, e)
		}
		clsBody, err := d.stmts(raw.Body)
		if err != nil {
			return nil, err
		}
		return d.b.ClassDef(raw.Name, bases, clsBody...), nil
	case "return":
		if body.Kind == yaml.ScalarNode && body.Tag == "!!null" {
			return d.b.Return(nil), nil
		}
		value, err := d.expr(body)
		if err != nil {
			return nil, err
		}
		return d.b.Return(value), nil
	case "expr":
		e, err := d.expr(body)
		if err != nil {
			return nil, err
		}
		return d.b.ExprStmt(e), nil
	case "global":
		var names []string
		if err := body.Decode(&names); err != nil {
			return nil, err
		}
		return d.b.Global(names...), nil
	case "import":
		var raw struct {
			Module string `yaml:"module"`
			As     string `yaml:"as"`
		}
		if err := body.Decode(&raw); err != nil {
			return nil, err
		}
		return d.b.Import(raw.Module, raw.As), nil
	case "break":
		return d.b.Break(), nil
	case "continue":
		return d.b.Continue(), nil
	case "pass":
		return d.b.Pass(), nil
	default:
		return nil, fmt.Errorf("line %d: unknown statement kind %q", n.Line, kind)
	}
}

func (d *decoder) exprs(nodes []yaml.Node) ([]Expression, error) {
	out := make([]Expression, 0, len(nodes))
	for i := range nodes {
		e, err := d.expr(&nodes[i])
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (d *decoder) expr(n *yaml.Node) (Expression, error) {
	kind, body, err := d.kind(n)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "name":
		return d.b.Name(body.Value), nil
	case "attr":
		var raw struct {
			Object yaml.Node `yaml:"object"`
			Name   string    `yaml:"name"`
		}
		if err := body.Decode(&raw); err != nil {
			return nil, err
		}
		obj, err := d.expr(&raw.Object)
		if err != nil {
			return nil, err
		}
		return d.b.Attr(obj, raw.Name), nil
	case "none":
		return d.b.None(), nil
	case "bool":
		var v bool
		if err := body.Decode(&v); err != nil {
			return nil, err
		}
		return d.b.Bool(v), nil
	case "int":
		var v int64
		if err := body.Decode(&v); err != nil {
			return nil, err
		}
		return d.b.Int(v), nil
	case "str":
		return d.b.Str(body.Value), nil
	case "bytes":
		return d.b.Bytes(body.Value), nil
	case "and", "or":
		var raw []yaml.Node
		if err := body.Decode(&raw); err != nil {
			return nil, err
		}
		values, err := d.exprs(raw)
		if err != nil {
			return nil, err
		}
		if kind == "and" {
			return d.b.And(values...), nil
		}
		return d.b.Or(values...), nil
	case "not":
		operand, err := d.expr(body)
		if err != nil {
			return nil, err
		}
		return d.b.Not(operand), nil
	case "compare":
		var raw struct {
			Left        yaml.Node   `yaml:"left"`
			Ops         []string    `yaml:"ops"`
			Comparators []yaml.Node `yaml:"comparators"`
		}
		if err := body.Decode(&raw); err != nil {
			return nil, err
		}
		left, err := d.expr(&raw.Left)
		if err != nil {
			return nil, err
		}
		comparators, err := d.exprs(raw.Comparators)
		if err != nil {
			return nil, err
		}
		ops := make([]CmpOp, len(raw.Ops))
		for i, o := range raw.Ops {
			op, ok := cmpOpNames[o]
			if !ok {
				return nil, fmt.Errorf("line %d: unknown comparison operator %q", n.Line, o)
			}
			ops[i] = op
		}
		if len(ops) != len(comparators) || len(ops) == 0 {
			return nil, fmt.Errorf("line %d: comparison needs matching ops and comparators", n.Line)
		}
		return d.b.CompareChain(left, ops, comparators), nil
	case "call":
		var raw struct {
			Func yaml.Node   `yaml:"func"`
			Args []yaml.Node `yaml:"args"`
		}
		if err := body.Decode(&raw); err != nil {
			return nil, err
		}
		fn, err := d.expr(&raw.Func)
		if err != nil {
			return nil, err
		}
		args, err := d.exprs(raw.Args)
		if err != nil {
			return nil, err
		}
		return d.b.Call(fn, args...), nil
	case "tuple", "list":
		var raw []yaml.Node
		if err := body.Decode(&raw); err != nil {
			return nil, err
		}
		elts, err := d.exprs(raw)
		if err != nil {
			return nil, err
		}
		if kind == "tuple" {
			return d.b.Tuple(elts...), nil
		}
		return d.b.List(elts...), nil
	case "ifexp":
		var raw struct {
			Test yaml.Node `yaml:"test"`
			Then yaml.Node `yaml:"then"`
			Else yaml.Node `yaml:"else"`
		}
		if err := body.Decode(&raw); err != nil {
			return nil, err
		}
		test, err := d.expr(&raw.Test)
		if err != nil {
			return nil, err
		}
		then, err := d.expr(&raw.Then)
		if err != nil {
			return nil, err
		}
		els, err := d.expr(&raw.Else)
		if err != nil {
			return nil, err
		}
		return d.b.Conditional(test, then, els), nil
	default:
		return nil, fmt.Errorf("line %d: unknown expression kind %q", n.Line, kind)
	}
}

var cmpOpNames = map[string]CmpOp{
	"==":     Eq,
	"!=":     NotEq,
	"is":     Is,
	"is not": IsNot,
	"in":     In,
	"not in": NotIn,
	"<":      Lt,
	"<=":     LtE,
	">":      Gt,
	">=":     GtE,
}
