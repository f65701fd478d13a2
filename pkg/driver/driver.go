// Package driver assembles the pipeline: scope building, checking and
// diagnostic collection for one module tree.
package driver

import (
	"fmt"
	"io"

	"redshank/pkg/ast"
	"redshank/pkg/checker"
	"redshank/pkg/decls"
	"redshank/pkg/diag"
	"redshank/pkg/query"
	"redshank/pkg/scope"
)

// DefaultVersion is the language version the declaration corpus is filtered
// against when Options leaves it empty.
const DefaultVersion = "3.11"

// Options configures a check run. The zero value works: an embedded-corpus
// oracle at DefaultVersion and no shared cache.
type Options struct {
	Version string
	Oracle  decls.Oracle
	Cache   *query.Cache
}

// Result bundles everything a check produced.
type Result struct {
	Table       *scope.Table
	Checker     *checker.Checker
	Diagnostics []diag.Diagnostic
}

// Err aggregates the diagnostics into one error, nil when clean.
func (r *Result) Err() error {
	col := diag.NewCollector()
	for _, d := range r.Diagnostics {
		col.Report(d)
	}
	return col.Err()
}

// CheckModule builds scopes for the module and runs the checker over it. With
// a shared Cache the whole-module result is memoized by the module's node ID,
// so concurrent demand for the same tree checks it once.
func CheckModule(m *ast.Module, opts Options) (*Result, error) {
	oracle := opts.Oracle
	if oracle == nil {
		version := opts.Version
		if version == "" {
			version = DefaultVersion
		}
		corpus, err := decls.LoadEmbedded(version)
		if err != nil {
			return nil, fmt.Errorf("loading declarations: %w", err)
		}
		oracle = corpus
	}

	run := func() (any, error) {
		table := scope.Build(m)
		sink := diag.NewCollector()
		c := checker.NewChecker(table, oracle, sink)
		c.Check(m)
		return &Result{
			Table:       table,
			Checker:     c,
			Diagnostics: sink.Diagnostics(),
		}, nil
	}

	if opts.Cache == nil {
		res, err := run()
		if err != nil {
			return nil, err
		}
		return res.(*Result), nil
	}
	res, err := opts.Cache.Do(query.Key{Node: m.ID(), Aspect: "check"}, run)
	if err != nil {
		return nil, err
	}
	return res.(*Result), nil
}

// CheckYAML decodes a YAML tree fixture and checks it.
func CheckYAML(r io.Reader, opts Options) (*Result, error) {
	m, err := ast.DecodeYAML(r)
	if err != nil {
		return nil, fmt.Errorf("decoding module: %w", err)
	}
	return CheckModule(m, opts)
}
