package evaluation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/loft/finassist/channel"
	"github.com/loft/finassist/core"
	"github.com/loft/finassist/logging"
)

// Case is one scripted conversation and what its last reply must satisfy.
type Case struct {
	Name          string   `yaml:"name"`
	Conversation  []string `yaml:"conversation"`
	ExpectedAgent string   `yaml:"expected_agent,omitempty"`
	MissingFields []string `yaml:"missing_fields,omitempty"`
	Contains      []string `yaml:"contains,omitempty"`
}

// Validate reports whether the case can be run.
func (c Case) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return core.NewError("evaluation.Case", core.ErrInvalidArgument, "name is required")
	}
	if len(c.Conversation) == 0 {
		return core.NewError("evaluation.Case", core.ErrInvalidArgument, fmt.Sprintf("case %q has no messages", c.Name))
	}
	for _, f := range c.MissingFields {
		if _, ok := FieldKeywords[f]; !ok {
			return core.NewError("evaluation.Case", core.ErrInvalidArgument, fmt.Sprintf("case %q names unknown field %q", c.Name, f))
		}
	}
	return nil
}

// Evaluators builds the checks the case asks for.
func (c Case) Evaluators() []Evaluator {
	var evs []Evaluator
	if c.ExpectedAgent != "" {
		evs = append(evs, RoutingEvaluator{Expected: c.ExpectedAgent})
	}
	for _, f := range c.MissingFields {
		evs = append(evs, FieldEvaluator{Field: f})
	}
	for _, p := range c.Contains {
		evs = append(evs, ContainsEvaluator{Phrase: p})
	}
	return evs
}

type caseFile struct {
	Cases []Case `yaml:"test_cases"`
}

// LoadCases decodes a YAML case file with a top-level test_cases list.
func LoadCases(r io.Reader) ([]Case, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f caseFile
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, core.NewError("evaluation.LoadCases", core.ErrInvalidArgument, "case file is empty")
		}
		return nil, core.NewError("evaluation.LoadCases", core.ErrInvalidArgument, err.Error())
	}

	for _, c := range f.Cases {
		if err := c.Validate(); err != nil {
			return nil, err
		}
	}

	return f.Cases, nil
}

// Failure records why a case did not pass.
type Failure struct {
	Name   string
	Reason string
}

// Report summarizes a suite run.
type Report struct {
	Total    int
	Passed   int
	Failures []Failure
}

// Failed is the number of failed cases.
func (r *Report) Failed() int { return len(r.Failures) }

// Percentage is the share of passed cases, 0 for an empty run.
func (r *Report) Percentage() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Passed) / float64(r.Total) * 100
}

// Write prints the summary in the same shape for every suite.
func (r *Report) Write(w io.Writer) error {
	var b strings.Builder

	b.WriteString("===== TEST SUMMARY =====\n")
	fmt.Fprintf(&b, "Total tests: %d\n", r.Total)
	fmt.Fprintf(&b, "Passed: %d\n", r.Passed)
	fmt.Fprintf(&b, "Failed: %d\n", r.Failed())
	fmt.Fprintf(&b, "Success rate: %.1f%%\n", r.Percentage())

	if len(r.Failures) > 0 {
		b.WriteString("\nFailed tests:\n")
		for _, f := range r.Failures {
			fmt.Fprintf(&b, "  - %s: %s\n", f.Name, f.Reason)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Suite runs cases against a turn runner. Every case gets a fresh identity,
// so no transcript leaks between cases.
type Suite struct {
	runner channel.TurnRunner
	logger logging.Logger
}

// NewSuite creates a suite over r. A nil logger discards output.
func NewSuite(r channel.TurnRunner, logger logging.Logger) *Suite {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Suite{runner: r, logger: logger}
}

// Run plays every case. Only context cancellation aborts the run; invalid
// cases and turn failures are recorded as failures.
func (s *Suite) Run(ctx context.Context, cases []Case) (*Report, error) {
	report := &Report{}

	for _, c := range cases {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		report.Total++

		reason, err := s.runCase(ctx, c)
		if err != nil {
			return report, err
		}
		if reason != "" {
			s.logger.Warn("evaluation.case.failed", "case", c.Name, "reason", reason)
			report.Failures = append(report.Failures, Failure{Name: c.Name, Reason: reason})
			continue
		}

		s.logger.Info("evaluation.case.passed", "case", c.Name)
		report.Passed++
	}

	return report, nil
}

func (s *Suite) runCase(ctx context.Context, c Case) (string, error) {
	if err := c.Validate(); err != nil {
		return err.Error(), nil
	}

	identity := "eval:" + uuid.NewString()
	inv := Invocation{Messages: c.Conversation}

	for _, msg := range c.Conversation {
		res, err := s.runner.Run(ctx, identity, msg)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return fmt.Sprintf("turn %q failed: %v", msg, err), nil
		}
		inv.FinalResponse = res.Reply
		inv.LastActiveAgent = res.LastActiveAgent
	}

	var reasons []string
	for _, ev := range c.Evaluators() {
		res, err := ev.Evaluate(inv)
		if err != nil {
			reasons = append(reasons, err.Error())
			continue
		}
		if !res.Passed {
			reasons = append(reasons, res.Reason)
		}
	}

	return strings.Join(reasons, "; "), nil
}
