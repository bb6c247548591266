// Package evaluation scores conversations against expected routing and
// replies. Cases run through the same runner the WhatsApp webhook uses, so a
// passing suite exercises the whole dispatch path.
package evaluation

import (
	"fmt"
	"strings"
)

// Invocation is what one evaluated conversation produced.
type Invocation struct {
	Messages        []string
	FinalResponse   string
	LastActiveAgent string
}

// Result is the verdict of one evaluator.
type Result struct {
	Passed bool
	Reason string
}

func pass() *Result { return &Result{Passed: true} }

func fail(format string, args ...any) *Result {
	return &Result{Reason: fmt.Sprintf(format, args...)}
}

// Evaluator judges an invocation.
type Evaluator interface {
	Evaluate(invocation Invocation) (*Result, error)
}

// FieldKeywords lists, per financing field, the words a reply asking for that
// field is expected to contain.
var FieldKeywords = map[string][]string{
	"full_name":      {"nome", "completo"},
	"cpf_number":     {"cpf", "documento"},
	"date_of_birth":  {"nascimento", "data"},
	"monthly_income": {"renda", "salário", "ganho"},
	"marital_status": {"civil", "casado", "solteiro"},
	"person_type":    {"pessoa", "física", "jurídica", "tipo"},
	"property_value": {"valor", "imóvel", "custa", "preço"},
	"state":          {"estado", "uf", "localização"},
	"city":           {"cidade", "município", "localização"},
}

// RoutingEvaluator checks which agent produced the final reply. Agent names
// compare case-insensitively and snake_case is accepted, so "simulator_agent"
// matches "Simulator Agent".
type RoutingEvaluator struct {
	Expected string
}

// Evaluate implements Evaluator.
func (e RoutingEvaluator) Evaluate(inv Invocation) (*Result, error) {
	want := normalizeAgent(e.Expected)
	if want == "" {
		return nil, fmt.Errorf("routing evaluator: expected agent is empty")
	}
	if !strings.Contains(normalizeAgent(inv.LastActiveAgent), want) {
		return fail("expected agent %q but got %q", e.Expected, inv.LastActiveAgent), nil
	}
	return pass(), nil
}

// FieldEvaluator checks that the reply asks for a missing field.
type FieldEvaluator struct {
	Field string
}

// Evaluate implements Evaluator.
func (e FieldEvaluator) Evaluate(inv Invocation) (*Result, error) {
	keywords, ok := FieldKeywords[e.Field]
	if !ok {
		return nil, fmt.Errorf("field evaluator: unknown field %q", e.Field)
	}
	if !containsAny(inv.FinalResponse, keywords) {
		return fail("reply did not ask for missing field %s", e.Field), nil
	}
	return pass(), nil
}

// ContainsEvaluator checks that the reply mentions a phrase, ignoring case.
type ContainsEvaluator struct {
	Phrase string
}

// Evaluate implements Evaluator.
func (e ContainsEvaluator) Evaluate(inv Invocation) (*Result, error) {
	if !containsAny(inv.FinalResponse, []string{e.Phrase}) {
		return fail("reply does not mention %q", e.Phrase), nil
	}
	return pass(), nil
}

func normalizeAgent(name string) string {
	return strings.ToLower(strings.TrimSpace(strings.ReplaceAll(name, "_", " ")))
}

func containsAny(text string, keywords []string) bool {
	text = strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
