package acl

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// ErrResourceRequired reports a programming mistake: a predicate-bearing
// rule was evaluated without a concrete resource to evaluate against.
var ErrResourceRequired = errors.New("acl: resource required to evaluate rule predicates")

// Predicate is a resource-level check layered on top of a role/action
// grant. Predicates may perform I/O (membership lookups and the like);
// request-scoped tenancy data travels on ctx.
type Predicate[R any] func(ctx context.Context, resource *R, actor Actor) (bool, error)

// Rule grants a set of actions to one role, optionally narrowed by
// predicates. A rule with predicates grants only if every predicate
// passes; a role may hold any number of rules and is allowed if any one
// of them grants.
type Rule[R any] struct {
	Role       Role
	Actions    []Action
	Predicates []Predicate[R]
}

func (r Rule[R]) allows(action Action) bool {
	for _, a := range r.Actions {
		if a == action || a == ActionManage {
			return true
		}
	}
	return false
}

// Grant builds an unconditional rule.
func Grant[R any](role Role, actions ...Action) Rule[R] {
	return Rule[R]{Role: role, Actions: actions}
}

// GrantWhen builds a rule narrowed by one or more predicates.
func GrantWhen[R any](role Role, actions []Action, predicates ...Predicate[R]) Rule[R] {
	return Rule[R]{Role: role, Actions: actions, Predicates: predicates}
}

// Policy is a frozen rule table for one resource type. The rule list is
// grouped by role at construction and never mutated afterwards, so a
// single policy value serves unlimited concurrent readers.
type Policy[R any] struct {
	rules map[Role][]Rule[R]
}

// NewPolicy freezes the given rules into an immutable policy. Rule order
// is preserved per role: the first granting rule wins.
func NewPolicy[R any](rules ...Rule[R]) *Policy[R] {
	byRole := make(map[Role][]Rule[R], len(rules))
	for _, r := range rules {
		byRole[r.Role] = append(byRole[r.Role], r)
	}
	return &Policy[R]{rules: byRole}
}

// Can reports whether the actor may perform action against resource.
// Rules for the actor's role are tried in registration order; a rule
// without predicates grants on an action match alone, a rule with
// predicates additionally requires every predicate to pass. Predicates of
// one rule run concurrently and all must resolve before the rule's
// verdict is known. Resource may be nil only when no rule matching the
// action carries predicates; a predicate rule whose actions do not cover
// the requested action is skipped, while a matching predicate rule with a
// nil resource fails with ErrResourceRequired.
func (p *Policy[R]) Can(ctx context.Context, actor Actor, action Action, resource *R) (bool, error) {
	for _, rule := range p.rules[actor.Role] {
		if len(rule.Predicates) == 0 {
			if rule.allows(action) {
				return true, nil
			}
			continue
		}
		if !rule.allows(action) {
			continue
		}
		if resource == nil {
			return false, ErrResourceRequired
		}
		ok, err := evalPredicates(ctx, rule.Predicates, resource, actor)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func evalPredicates[R any](ctx context.Context, predicates []Predicate[R], resource *R, actor Actor) (bool, error) {
	results := make([]bool, len(predicates))
	g, gctx := errgroup.WithContext(ctx)
	for i, pred := range predicates {
		i, pred := i, pred
		g.Go(func() error {
			ok, err := pred(gctx, resource, actor)
			results[i] = ok
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return false, err
	}
	for _, ok := range results {
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// Handle binds a policy to one actor for fluent evaluation. It is a thin
// wrapper over Can for call sites that check several actions in a row.
type Handle[R any] struct {
	policy *Policy[R]
	actor  Actor
	ctx    context.Context
}

// ForActor returns an evaluation handle bound to actor.
func (p *Policy[R]) ForActor(actor Actor) *Handle[R] {
	return &Handle[R]{policy: p, actor: actor}
}

// WithContext attaches the request-scoped context consulted by
// predicates. Returns the same handle for chaining.
func (h *Handle[R]) WithContext(ctx context.Context) *Handle[R] {
	h.ctx = ctx
	return h
}

// CanDoAction evaluates action against resource for the bound actor.
func (h *Handle[R]) CanDoAction(action Action, resource *R) (bool, error) {
	ctx := h.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	return h.policy.Can(ctx, h.actor, action, resource)
}
