package acl

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type note struct {
	ID       int64
	AuthorID int64
}

func ownNote(_ context.Context, n *note, actor Actor) (bool, error) {
	return n.AuthorID == actor.ID, nil
}

func TestAnyMatchingRuleGrants(t *testing.T) {
	policy := NewPolicy(
		Grant[note](RoleTeacher, ActionRead, ActionList),
		Grant[note](RoleTeacher, ActionCreate),
	)

	for _, action := range []Action{ActionRead, ActionList, ActionCreate} {
		ok, err := policy.Can(context.Background(), Actor{ID: 1, Role: RoleTeacher}, action, nil)
		if err != nil {
			t.Fatalf("%s: %v", action, err)
		}
		if !ok {
			t.Fatalf("expected %s to be granted", action)
		}
	}

	ok, err := policy.Can(context.Background(), Actor{ID: 1, Role: RoleTeacher}, ActionDelete, nil)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected Delete to be denied")
	}
}

func TestUnknownRoleDenied(t *testing.T) {
	policy := NewPolicy(Grant[note](RoleAdmin, ActionManage))

	ok, err := policy.Can(context.Background(), Actor{ID: 1, Role: RoleStudent}, ActionRead, nil)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("role without rules must be denied")
	}
}

func TestManageImpliesEveryAction(t *testing.T) {
	policy := NewPolicy(Grant[note](RoleFaculty, ActionManage))
	actor := Actor{ID: 7, Role: RoleFaculty}

	for _, action := range []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionList, ActionManage} {
		ok, err := policy.Can(context.Background(), actor, action, nil)
		if err != nil {
			t.Fatalf("%s: %v", action, err)
		}
		if !ok {
			t.Fatalf("Manage should imply %s", action)
		}
	}
}

func TestPredicatesAndTogether(t *testing.T) {
	tests := []struct {
		name  string
		first bool
		other bool
		want  bool
	}{
		{"both pass", true, true, true},
		{"first fails", false, true, false},
		{"second fails", true, false, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			policy := NewPolicy(GrantWhen(RoleStudent, []Action{ActionUpdate},
				func(context.Context, *note, Actor) (bool, error) { return tc.first, nil },
				func(context.Context, *note, Actor) (bool, error) { return tc.other, nil },
			))
			ok, err := policy.Can(context.Background(), Actor{ID: 1, Role: RoleStudent}, ActionUpdate, &note{})
			if err != nil {
				t.Fatal(err)
			}
			if ok != tc.want {
				t.Fatalf("got %v, want %v", ok, tc.want)
			}
		})
	}
}

func TestPredicatesRunConcurrently(t *testing.T) {
	var running atomic.Int32
	var peak atomic.Int32
	slow := func(context.Context, *note, Actor) (bool, error) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		running.Add(-1)
		return true, nil
	}
	policy := NewPolicy(GrantWhen(RoleStudent, []Action{ActionRead}, slow, slow, slow))

	ok, err := policy.Can(context.Background(), Actor{ID: 1, Role: RoleStudent}, ActionRead, &note{})
	if err != nil || !ok {
		t.Fatalf("got %v, %v", ok, err)
	}
	if peak.Load() < 2 {
		t.Fatalf("predicates did not overlap, peak concurrency %d", peak.Load())
	}
}

func TestPredicateRuleWithoutResource(t *testing.T) {
	policy := NewPolicy(GrantWhen(RoleStudent, []Action{ActionUpdate}, ownNote))

	_, err := policy.Can(context.Background(), Actor{ID: 1, Role: RoleStudent}, ActionUpdate, nil)
	if !errors.Is(err, ErrResourceRequired) {
		t.Fatalf("want ErrResourceRequired, got %v", err)
	}
}

func TestPredicateRuleSkippedForOtherActions(t *testing.T) {
	// A predicate rule that does not cover the requested action must be
	// skipped, not error, even with a nil resource: a student asking to
	// List a resource they may only Read-when-own is simply denied.
	policy := NewPolicy(GrantWhen(RoleStudent, []Action{ActionRead, ActionUpdate}, ownNote))
	student := Actor{ID: 1, Role: RoleStudent}

	ok, err := policy.Can(context.Background(), student, ActionList, nil)
	if err != nil {
		t.Fatalf("non-matching predicate rule must not error: %v", err)
	}
	if ok {
		t.Fatal("expected List to be denied")
	}

	ok, err = policy.Can(context.Background(), student, ActionCreate, nil)
	if err != nil {
		t.Fatalf("non-matching predicate rule must not error: %v", err)
	}
	if ok {
		t.Fatal("expected Create to be denied")
	}
}

func TestPredicateErrorPropagates(t *testing.T) {
	boom := errors.New("lookup failed")
	policy := NewPolicy(GrantWhen(RoleStudent, []Action{ActionRead},
		func(context.Context, *note, Actor) (bool, error) { return false, boom },
	))

	_, err := policy.Can(context.Background(), Actor{ID: 1, Role: RoleStudent}, ActionRead, &note{})
	if !errors.Is(err, boom) {
		t.Fatalf("want predicate error, got %v", err)
	}
}

func TestFirstGrantingRuleWins(t *testing.T) {
	var evaluated atomic.Bool
	policy := NewPolicy(
		Grant[note](RoleStudent, ActionRead),
		GrantWhen(RoleStudent, []Action{ActionRead}, func(context.Context, *note, Actor) (bool, error) {
			evaluated.Store(true)
			return true, nil
		}),
	)

	ok, err := policy.Can(context.Background(), Actor{ID: 1, Role: RoleStudent}, ActionRead, &note{})
	if err != nil || !ok {
		t.Fatalf("got %v, %v", ok, err)
	}
	if evaluated.Load() {
		t.Fatal("later rule evaluated after an earlier grant")
	}
}

func TestOwnershipScenarios(t *testing.T) {
	policy := NewPolicy(
		Grant[note](RoleAdmin, ActionManage),
		Grant[note](RoleStudent, ActionCreate, ActionRead, ActionList),
		GrantWhen(RoleStudent, []Action{ActionUpdate, ActionDelete}, ownNote),
	)
	student := Actor{ID: 1, Role: RoleStudent}

	ok, err := policy.Can(context.Background(), student, ActionUpdate, &note{AuthorID: 1})
	if err != nil || !ok {
		t.Fatalf("own note update: got %v, %v", ok, err)
	}

	ok, err = policy.Can(context.Background(), student, ActionUpdate, &note{AuthorID: 2})
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("update of another author's note must be denied")
	}
}

func TestFluentHandle(t *testing.T) {
	policy := NewPolicy(GrantWhen(RoleStudent, []Action{ActionUpdate}, ownNote))

	ok, err := policy.ForActor(Actor{ID: 5, Role: RoleStudent}).
		WithContext(context.Background()).
		CanDoAction(ActionUpdate, &note{AuthorID: 5})
	if err != nil || !ok {
		t.Fatalf("got %v, %v", ok, err)
	}
}
