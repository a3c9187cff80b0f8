package release

import (
	"context"
	"fmt"
	"strings"
)

// Rule is one step of the release pipeline. Rules mutate the state's
// attributes in place. A rule that would require user interaction must
// check state.Passive and apply its default outcome instead.
type Rule interface {
	Name() string
	Apply(ctx context.Context, state *State) error
}

// Chain runs rules in their configured order and implements Runner.
type Chain struct {
	rules []Rule
}

func NewChain(rules ...Rule) *Chain {
	return &Chain{rules: rules}
}

func (c *Chain) RunPassive(ctx context.Context, state *State) error {
	for _, rule := range c.rules {
		if err := rule.Apply(ctx, state); err != nil {
			return fmt.Errorf("rule %q: %w", rule.Name(), err)
		}
	}
	return nil
}

// AttributeLimit keeps only the attributes the relying party's descriptor
// allows. A descriptor without a limit releases everything.
type AttributeLimit struct{}

func (AttributeLimit) Name() string { return "attribute-limit" }

func (AttributeLimit) Apply(_ context.Context, state *State) error {
	limit := state.Destination.AttributeLimit
	if len(limit) == 0 {
		return nil
	}
	allowed := make(map[string]bool, len(limit))
	for _, name := range limit {
		allowed[name] = true
	}
	for name := range state.Attributes {
		if !allowed[name] {
			delete(state.Attributes, name)
		}
	}
	return nil
}

// StaticAttributes injects fixed attribute values, overwriting any asserted
// value of the same name.
type StaticAttributes struct {
	Values map[string][]string
}

func (StaticAttributes) Name() string { return "static-attributes" }

func (r StaticAttributes) Apply(_ context.Context, state *State) error {
	for name, values := range r.Values {
		state.Attributes[name] = append([]string(nil), values...)
	}
	return nil
}

// ScopeFilter drops scoped attribute values whose scope is not on the
// allowed list. Unscoped values and attributes outside Attributes pass
// through untouched.
type ScopeFilter struct {
	// Attributes names the scoped attributes to check, e.g.
	// eduPersonPrincipalName.
	Attributes []string

	// AllowedScopes lists the scopes accepted for those attributes.
	AllowedScopes []string
}

func (ScopeFilter) Name() string { return "scope-filter" }

func (r ScopeFilter) Apply(_ context.Context, state *State) error {
	allowed := make(map[string]bool, len(r.AllowedScopes))
	for _, scope := range r.AllowedScopes {
		allowed[scope] = true
	}
	for _, name := range r.Attributes {
		values, ok := state.Attributes[name]
		if !ok {
			continue
		}
		kept := values[:0]
		for _, v := range values {
			if scope, scoped := splitScope(v); !scoped || allowed[scope] {
				kept = append(kept, v)
			}
		}
		if len(kept) == 0 {
			delete(state.Attributes, name)
			continue
		}
		state.Attributes[name] = kept
	}
	return nil
}

func splitScope(value string) (string, bool) {
	i := strings.LastIndexByte(value, '@')
	if i < 0 || i == len(value)-1 {
		return "", false
	}
	return value[i+1:], true
}

// ConsentPrompt is the interactive consent step of the live login flow. In a
// passive run it resolves to its default outcome: release unchanged, ask
// nobody.
type ConsentPrompt struct{}

func (ConsentPrompt) Name() string { return "consent-prompt" }

func (ConsentPrompt) Apply(_ context.Context, state *State) error {
	if state.Passive {
		return nil
	}
	return fmt.Errorf("consent prompt requires user interaction")
}
