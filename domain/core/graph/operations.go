package graph

import (
	"fmt"

	"github.com/google/uuid"
	pkgerrors "fsmviz/pkg/errors"
)

// The mutation operations below are pure functions of (snapshot, arguments).
// On success they return a new snapshot; on failure the receiver is left
// untouched and the error explains the rejection.

// AddState appends a new state. Fails with DuplicateState when the name is
// already present and with a validation error for illegal identifiers.
func (g *Graph) AddState(name string) (*Graph, error) {
	if err := ValidateStateName(name); err != nil {
		return nil, err
	}
	if g.HasState(name) {
		return nil, pkgerrors.NewConflictError(fmt.Sprintf("state %q already exists", name)).
			WithCode(pkgerrors.CodeDuplicateState)
	}

	next := g.clone()
	next.States = append(next.States, name)
	next.recomputeMetadata()
	return next, nil
}

// RemoveState removes a state together with every transition touching it.
// When the removed state was the reset state, the graph is left with no
// reset state configured; no replacement is chosen.
func (g *Graph) RemoveState(name string) (*Graph, error) {
	if !g.HasState(name) {
		return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("state %q", name)).
			WithCode(pkgerrors.CodeStateNotFound)
	}

	next := g.clone()

	states := next.States[:0]
	for _, s := range next.States {
		if s != name {
			states = append(states, s)
		}
	}
	next.States = states

	transitions := next.Transitions[:0]
	for _, t := range next.Transitions {
		if t.From != name && t.To != name {
			transitions = append(transitions, t)
		}
	}
	next.Transitions = transitions

	if next.ResetState == name {
		next.ResetState = ""
	}

	next.recomputeMetadata()
	return next, nil
}

// AddTransition appends a guarded transition between two existing states.
// The guard is normalized before storage.
func (g *Graph) AddTransition(from, to, cond string) (*Graph, error) {
	if !g.HasState(from) {
		return nil, unknownState(from)
	}
	if !g.HasState(to) {
		return nil, unknownState(to)
	}

	next := g.clone()
	next.Transitions = append(next.Transitions, Transition{
		ID:   uuid.New().String(),
		From: from,
		To:   to,
		Cond: NormalizeCond(cond),
	})
	next.recomputeMetadata()
	return next, nil
}

// RemoveTransition removes a transition by identity. Fails with NotFound
// when the reference is stale.
func (g *Graph) RemoveTransition(id string) (*Graph, error) {
	idx := g.transitionIndex(id)
	if idx < 0 {
		return nil, transitionNotFound(id)
	}

	next := g.clone()
	next.Transitions = append(next.Transitions[:idx], next.Transitions[idx+1:]...)
	next.recomputeMetadata()
	return next, nil
}

// SetCondition replaces the guard of an existing transition, applying the
// same normalization as AddTransition.
func (g *Graph) SetCondition(id, cond string) (*Graph, error) {
	idx := g.transitionIndex(id)
	if idx < 0 {
		return nil, transitionNotFound(id)
	}

	next := g.clone()
	next.Transitions[idx].Cond = NormalizeCond(cond)
	return next, nil
}

// SetResetState designates the entry state. Passing the "none" sentinel
// clears the designation.
func (g *Graph) SetResetState(name string) (*Graph, error) {
	if name == ResetNone {
		next := g.clone()
		next.ResetState = ""
		return next, nil
	}
	if !g.HasState(name) {
		return nil, unknownState(name)
	}

	next := g.clone()
	next.ResetState = name
	return next, nil
}

func (g *Graph) transitionIndex(id string) int {
	for i, t := range g.Transitions {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func transitionNotFound(id string) error {
	return pkgerrors.NewNotFoundError(fmt.Sprintf("transition %q", id)).
		WithCode(pkgerrors.CodeTransitionNotFound)
}
