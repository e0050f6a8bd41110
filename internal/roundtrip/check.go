package roundtrip

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"mirror-generator/internal/plan"
)

// Config controls a round-trip run.
type Config struct {
	// Seed makes a run reproducible.
	Seed uint64
	// Samples is the number of values checked per node.
	Samples int
	// Depth bounds the nesting of optional and repeated parts.
	Depth int
	// Nodes restricts the run. Empty means every generated node.
	Nodes []string
	// Logger receives per-node results. Nil discards.
	Logger *slog.Logger
}

// DefaultConfig returns the default round-trip configuration.
func DefaultConfig() Config {
	return Config{Seed: 1, Samples: 20, Depth: 4}
}

// Failure is one value that did not survive the round trip.
type Failure struct {
	Node   string
	Sample int
	// Value is a dump of the original value.
	Value string
	// Diff is the difference between the original and rebuilt value.
	Diff string
	Err  error
}

func (f *Failure) String() string {
	if f.Err != nil {
		return fmt.Sprintf("%s sample %d: %v", f.Node, f.Sample, f.Err)
	}

	return fmt.Sprintf("%s sample %d: rebuilt value differs (-want +got):\n%s", f.Node, f.Sample, f.Diff)
}

// Result is the outcome for one node.
type Result struct {
	Node     string
	Samples  int
	Skipped  bool
	Failures []Failure
}

// Report is the outcome of a run.
type Report struct {
	Results []Result
}

// Failed reports whether any value failed.
func (r *Report) Failed() bool {
	for _, res := range r.Results {
		if len(res.Failures) > 0 {
			return true
		}
	}

	return false
}

// Failures returns every failure in node order.
func (r *Report) Failures() []Failure {
	var out []Failure
	for _, res := range r.Results {
		out = append(out, res.Failures...)
	}

	return out
}

var dumper = spew.ConfigState{
	Indent:                  "  ",
	SortKeys:                true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
}

// Equal compares original values, ignoring source positions and the
// difference between nil and empty sequences.
var Equal = cmp.Options{
	cmpopts.EquateEmpty(),
	cmp.Comparer(func(Position, Position) bool { return true }),
}

// Checker verifies that rebuilding a projection yields the original value.
type Checker struct {
	p      *plan.Plan
	interp *Interpreter
	enc    *Encoder
	logger *slog.Logger
}

// NewChecker creates a Checker for p.
func NewChecker(p *plan.Plan, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Checker{
		p:      p,
		interp: NewInterpreter(p),
		enc:    NewEncoder(p),
		logger: logger,
	}
}

// Check projects v, encodes the mirror, rebuilds it and compares the
// result with v.
func (c *Checker) Check(node string, v any) (diff string, err error) {
	m, err := c.interp.Project(node, v)
	if err != nil {
		return "", fmt.Errorf("projecting: %w", err)
	}

	if _, err := c.enc.Encode(m); err != nil {
		return "", fmt.Errorf("encoding: %w", err)
	}

	got, err := c.interp.Rebuild(node, m)
	if err != nil {
		return "", fmt.Errorf("rebuilding: %w", err)
	}

	return cmp.Diff(v, got, Equal), nil
}

// Run checks cfg.Samples synthesized values of every selected node.
func (c *Checker) Run(cfg Config) (*Report, error) {
	nodes := cfg.Nodes
	if len(nodes) == 0 {
		for _, s := range c.p.Structs {
			nodes = append(nodes, s.Name)
		}

		for _, e := range c.p.Enums {
			nodes = append(nodes, e.Name)
		}
	}

	synth := NewSynth(c.p, cfg.Seed, cfg.Depth)
	report := &Report{}

	for _, node := range nodes {
		_, isStruct := c.p.Struct(node)
		_, isEnum := c.p.Enum(node)

		if !isStruct && !isEnum {
			return nil, fmt.Errorf("node %s has no generated mirror", node)
		}

		res := Result{Node: node}

		for i := range cfg.Samples {
			v, err := synth.Node(node)
			if errors.Is(err, ErrInfeasible) {
				res.Skipped = true

				break
			}

			if err != nil {
				return nil, err
			}

			res.Samples++

			diff, err := c.Check(node, v)
			if err != nil || diff != "" {
				res.Failures = append(res.Failures, Failure{
					Node:   node,
					Sample: i,
					Value:  dumper.Sdump(v),
					Diff:   diff,
					Err:    err,
				})
			}
		}

		c.logger.Debug("round trip", "node", node, "samples", res.Samples,
			"failures", len(res.Failures), "skipped", res.Skipped)

		report.Results = append(report.Results, res)
	}

	return report, nil
}
