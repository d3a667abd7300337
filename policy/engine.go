// Package policy evaluates the device admission rules with OPA.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
)

// Decision is the outcome of an admission evaluation.
type Decision struct {
	Allow  bool
	Reason string
}

// Input is the document the admission policy evaluates.
type Input struct {
	Fingerprint string `json:"fingerprint"`
	RecentCount int    `json:"recent_count"`
	Limit       int    `json:"limit"`
}

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.device_admission.decision"),
		rego.Module("device_admission.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Evaluate runs the admission policy. The policy must yield an object
// {"allow": bool, "reason": string}.
func (e *Engine) Evaluate(ctx context.Context, input Input) (Decision, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(map[string]any{
		"fingerprint":  input.Fingerprint,
		"recent_count": input.RecentCount,
		"limit":        input.Limit,
	}))
	if err != nil {
		return Decision{}, fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return Decision{}, fmt.Errorf("policy produced no decision")
	}

	obj, ok := results[0].Expressions[0].Value.(map[string]any)
	if !ok {
		return Decision{}, fmt.Errorf("unexpected decision type %T", results[0].Expressions[0].Value)
	}
	allow, ok := obj["allow"].(bool)
	if !ok {
		return Decision{}, fmt.Errorf("decision.allow is not a boolean")
	}
	reason, _ := obj["reason"].(string)
	return Decision{Allow: allow, Reason: reason}, nil
}

// DefaultPolicy denies a device once its trailing-window count reaches the limit.
const DefaultPolicy = `
package device_admission

import rego.v1

default decision := {"allow": true, "reason": "under_limit"}

decision := {"allow": false, "reason": "daily_limit_reached"} if {
	input.recent_count >= input.limit
}
`
