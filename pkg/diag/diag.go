package diag

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Kind identifies a diagnostic category. The set of kinds emitted by the
// inference core is closed; surrounding layers own suppression policy and
// message presentation, we only produce the raw event stream.
type Kind string

const (
	UnresolvedReference       Kind = "unresolved-reference"
	PossiblyUnresolvedRef     Kind = "possibly-unresolved-reference"
	PossiblyUnboundAttribute  Kind = "possibly-unbound-attribute"
	UnsupportedBoolConversion Kind = "unsupported-bool-conversion"
	UnsupportedOperator       Kind = "unsupported-operator"
	InvalidAssignment         Kind = "invalid-assignment"
	InvalidArgumentType       Kind = "invalid-argument-type"
)

// Span is a half-open source region. Lines and columns are 1-based; a zero
// Span means the position is unknown (synthetic trees may not carry one).
type Span struct {
	Line      int `yaml:"line"`
	Column    int `yaml:"column"`
	EndLine   int `yaml:"end_line,omitempty"`
	EndColumn int `yaml:"end_column,omitempty"`
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d", s.Line, s.Column)
}

// IsZero reports whether the span carries no position information.
func (s Span) IsZero() bool {
	return s.Line == 0 && s.Column == 0
}

// Diagnostic is one structured event: a kind, a primary span, a formatted
// message and optional secondary spans pointing at related code.
type Diagnostic struct {
	Kind      Kind
	Span      Span
	Message   string
	Secondary []Span
}

func (d Diagnostic) Error() string {
	if d.Span.IsZero() {
		return fmt.Sprintf("%s: %s", d.Kind, d.Message)
	}
	return fmt.Sprintf("%s at %s: %s", d.Kind, d.Span, d.Message)
}

// Sink receives the event stream. Implementations must tolerate duplicate
// spans but the core guarantees at most one event per (kind, node).
type Sink interface {
	Report(d Diagnostic)
}

// Collector is the default Sink: it retains events in emission order.
type Collector struct {
	diags []Diagnostic
}

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) Report(d Diagnostic) {
	c.diags = append(c.diags, d)
}

// Diagnostics returns the collected events in emission order.
func (c *Collector) Diagnostics() []Diagnostic {
	return c.diags
}

// Count returns the number of collected events.
func (c *Collector) Count() int {
	return len(c.diags)
}

// Err aggregates every collected event into a single error, or nil when the
// collection is empty.
func (c *Collector) Err() error {
	var result *multierror.Error
	for _, d := range c.diags {
		result = multierror.Append(result, d)
	}
	return result.ErrorOrNil()
}

// Discard is a Sink that drops every event. Handy for callers that only want
// the inferred types.
type Discard struct{}

func (Discard) Report(Diagnostic) {}
