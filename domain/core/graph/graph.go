// Package graph holds the canonical FSM graph model: an immutable snapshot
// of states and guarded transitions extracted from hardware-description
// source, plus validated copy-on-write mutation operations.
package graph

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	pkgerrors "fsmviz/pkg/errors"
)

// Unconditional is the canonical guard for an always-taken transition.
// It doubles as the wire representation, so "no guard" round-trips as "1".
const Unconditional = "1"

// ResetNone is the sentinel accepted by SetResetState to clear the reset state.
const ResetNone = "none"

var stateNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Transition is one guarded edge of the FSM graph.
// ID is assigned at construction and is the identity handle used by
// RemoveTransition and SetCondition; From/To/Cond are not required to be
// unique across the graph.
type Transition struct {
	ID   string `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
	Cond string `json:"cond"`
}

// Metadata carries derived counters, kept consistent by every operation.
type Metadata struct {
	NumStates      int `json:"num_states"`
	NumTransitions int `json:"num_transitions"`
}

// Graph is one immutable FSM snapshot. The annotation fields (Scope,
// EnumName, StateVar, NextStateVar) are owned by the source parser and are
// never recomputed here. Mutation methods return a fresh snapshot and never
// touch the receiver, so stale references held by a renderer stay valid.
type Graph struct {
	ID           string       `json:"graph_id"`
	Scope        string       `json:"scope"`
	EnumName     string       `json:"enum_name"`
	StateVar     string       `json:"state_var"`
	NextStateVar string       `json:"next_state_var,omitempty"`
	ResetState   string       `json:"reset_state,omitempty"`
	States       []string     `json:"states"`
	Transitions  []Transition `json:"transitions"`
	Metadata     Metadata     `json:"metadata"`
}

// Input describes a transition as emitted by the parser, before it gains
// an identity.
type Input struct {
	From string `json:"from"`
	To   string `json:"to"`
	Cond string `json:"cond"`
}

// NormalizeCond canonicalizes a guard expression: inner whitespace is
// collapsed, and an absent guard becomes the unconditional marker.
func NormalizeCond(cond string) string {
	cond = strings.Join(strings.Fields(cond), " ")
	if cond == "" {
		return Unconditional
	}
	return cond
}

// IsUnconditional reports whether cond is the canonical always-taken guard.
func IsUnconditional(cond string) bool {
	return NormalizeCond(cond) == Unconditional
}

// ValidateStateName checks that name is a legal enum-style identifier.
func ValidateStateName(name string) error {
	if name == "" {
		return pkgerrors.NewValidationError("state name cannot be empty").
			WithCode(pkgerrors.CodeInvalidName)
	}
	if !stateNamePattern.MatchString(name) {
		return pkgerrors.NewValidationError(fmt.Sprintf("state name %q is not a valid identifier", name)).
			WithCode(pkgerrors.CodeInvalidName)
	}
	return nil
}

// New builds a validated snapshot from parser output. Transition guards are
// normalized, duplicate (from, to, cond) triples are dropped (the parser may
// emit them), and metadata is computed. The input slices are copied.
func New(id, scope, enumName, stateVar, nextStateVar, resetState string, states []string, transitions []Input) (*Graph, error) {
	if id == "" {
		id = uuid.New().String()
	}

	g := &Graph{
		ID:           id,
		Scope:        scope,
		EnumName:     enumName,
		StateVar:     stateVar,
		NextStateVar: nextStateVar,
		ResetState:   resetState,
		States:       make([]string, 0, len(states)),
		Transitions:  make([]Transition, 0, len(transitions)),
	}

	seen := make(map[string]struct{}, len(states))
	for _, s := range states {
		if err := ValidateStateName(s); err != nil {
			return nil, err
		}
		if _, dup := seen[s]; dup {
			return nil, pkgerrors.NewConflictError(fmt.Sprintf("duplicate state %q", s)).
				WithCode(pkgerrors.CodeDuplicateState)
		}
		seen[s] = struct{}{}
		g.States = append(g.States, s)
	}

	seenEdges := make(map[[3]string]struct{}, len(transitions))
	for _, t := range transitions {
		cond := NormalizeCond(t.Cond)
		if _, ok := seen[t.From]; !ok {
			return nil, unknownState(t.From)
		}
		if _, ok := seen[t.To]; !ok {
			return nil, unknownState(t.To)
		}
		key := [3]string{t.From, t.To, cond}
		if _, dup := seenEdges[key]; dup {
			continue
		}
		seenEdges[key] = struct{}{}
		g.Transitions = append(g.Transitions, Transition{
			ID:   uuid.New().String(),
			From: t.From,
			To:   t.To,
			Cond: cond,
		})
	}

	if resetState != "" {
		if _, ok := seen[resetState]; !ok {
			return nil, unknownState(resetState)
		}
	}

	g.recomputeMetadata()
	return g, nil
}

// Validate re-checks every snapshot invariant. A snapshot built through New
// and the mutation operations always passes; this exists to guard graphs
// reconstructed from external storage.
func (g *Graph) Validate() error {
	seen := make(map[string]struct{}, len(g.States))
	for _, s := range g.States {
		if err := ValidateStateName(s); err != nil {
			return err
		}
		if _, dup := seen[s]; dup {
			return pkgerrors.NewConflictError(fmt.Sprintf("duplicate state %q", s)).
				WithCode(pkgerrors.CodeDuplicateState)
		}
		seen[s] = struct{}{}
	}

	for _, t := range g.Transitions {
		if _, ok := seen[t.From]; !ok {
			return unknownState(t.From)
		}
		if _, ok := seen[t.To]; !ok {
			return unknownState(t.To)
		}
		if t.Cond == "" {
			return pkgerrors.NewValidationError(
				fmt.Sprintf("transition %s -> %s has an empty guard", t.From, t.To))
		}
	}

	if g.ResetState != "" {
		if _, ok := seen[g.ResetState]; !ok {
			return unknownState(g.ResetState)
		}
	}

	if g.Metadata.NumStates != len(g.States) {
		return pkgerrors.NewValidationError("state count mismatch in metadata")
	}
	if g.Metadata.NumTransitions != len(g.Transitions) {
		return pkgerrors.NewValidationError("transition count mismatch in metadata")
	}

	return nil
}

// HasState reports whether name is one of the graph's states.
func (g *Graph) HasState(name string) bool {
	for _, s := range g.States {
		if s == name {
			return true
		}
	}
	return false
}

// TransitionByID returns the transition with the given identity, if present.
func (g *Graph) TransitionByID(id string) (Transition, bool) {
	for _, t := range g.Transitions {
		if t.ID == id {
			return t, true
		}
	}
	return Transition{}, false
}

// TransitionsTouching returns every transition whose endpoint includes name.
func (g *Graph) TransitionsTouching(name string) []Transition {
	var out []Transition
	for _, t := range g.Transitions {
		if t.From == name || t.To == name {
			out = append(out, t)
		}
	}
	return out
}

// clone deep-copies the snapshot so an operation can mutate freely.
func (g *Graph) clone() *Graph {
	c := *g
	c.States = make([]string, len(g.States))
	copy(c.States, g.States)
	c.Transitions = make([]Transition, len(g.Transitions))
	copy(c.Transitions, g.Transitions)
	return &c
}

func (g *Graph) recomputeMetadata() {
	g.Metadata.NumStates = len(g.States)
	g.Metadata.NumTransitions = len(g.Transitions)
}

func unknownState(name string) error {
	return pkgerrors.NewValidationError(fmt.Sprintf("state %q is not part of the graph", name)).
		WithCode(pkgerrors.CodeUnknownState)
}
