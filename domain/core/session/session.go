// Package session implements the interactive edit state machine. A Session
// value maps discrete user gestures (select, connect, delete, rename) onto
// validated graph mutations while tracking the current selection and at most
// one in-flight multi-step operation.
package session

import (
	"fmt"

	"fsmviz/domain/core/graph"
	pkgerrors "fsmviz/pkg/errors"
)

// Mode is the tagged discriminator of the session state.
type Mode string

const (
	// ModeIdle: nothing selected, nothing pending.
	ModeIdle Mode = "idle"

	// ModeNodeSelected: one state is selected.
	ModeNodeSelected Mode = "node_selected"

	// ModeEdgeSelected: one transition is selected.
	ModeEdgeSelected Mode = "edge_selected"

	// ModeAddingState: a state-name draft is open.
	ModeAddingState Mode = "adding_state"

	// ModeConnecting: a connection source is armed, waiting for a target.
	ModeConnecting Mode = "connecting"

	// ModeAwaitingCondition: a guard prompt is outstanding; the external UI
	// resumes the session with ProvideCondition or Cancel.
	ModeAwaitingCondition Mode = "awaiting_condition"
)

// conditionTarget distinguishes what an outstanding guard prompt resolves.
type conditionTarget int

const (
	condForNewTransition conditionTarget = iota
	condForExistingTransition
)

// Session is an immutable edit-session value. Every gesture method returns
// the successor session; on error the receiver is returned unchanged, so
// callers can always keep the result.
type Session struct {
	mode     Mode
	graph    *graph.Graph
	readOnly bool

	selectedState      string
	selectedTransition string

	draftName string

	connectSource string
	connectTarget string
	condTarget    conditionTarget
	condEditID    string

	// priorMode lets Cancel restore the pre-draft selection.
	priorMode       Mode
	priorState      string
	priorTransition string
}

// New starts an idle session over the given snapshot.
func New(g *graph.Graph) Session {
	return Session{mode: ModeIdle, graph: g}
}

// NewReadOnly starts a session in which every mutating gesture is rejected
// while selection and navigation keep working.
func NewReadOnly(g *graph.Graph) Session {
	return Session{mode: ModeIdle, graph: g, readOnly: true}
}

// Mode returns the current state machine mode.
func (s Session) Mode() Mode { return s.mode }

// Graph returns the snapshot the session currently operates on.
func (s Session) Graph() *graph.Graph { return s.graph }

// ReadOnly reports whether mutating gestures are disabled.
func (s Session) ReadOnly() bool { return s.readOnly }

// SelectedState returns the selected state name, or "" when none.
func (s Session) SelectedState() string {
	if s.mode == ModeNodeSelected || s.mode == ModeConnecting {
		return s.selectedState
	}
	return ""
}

// SelectedTransition returns the selected transition ID, or "" when none.
func (s Session) SelectedTransition() string {
	if s.mode == ModeEdgeSelected {
		return s.selectedTransition
	}
	return ""
}

// DraftName returns the open state-name draft, valid in ModeAddingState.
func (s Session) DraftName() string { return s.draftName }

// ConnectionSource returns the armed connection source, valid in
// ModeConnecting and ModeAwaitingCondition (new-transition prompts).
func (s Session) ConnectionSource() string { return s.connectSource }

// ClickState selects a state. While a connection is armed the click instead
// picks the target and suspends the session until the guard text arrives.
func (s Session) ClickState(name string) (Session, error) {
	if !s.graph.HasState(name) {
		return s, pkgerrors.NewNotFoundError(fmt.Sprintf("state %q", name)).
			WithCode(pkgerrors.CodeStateNotFound)
	}

	if s.mode == ModeConnecting {
		next := s.clearPending()
		next.mode = ModeAwaitingCondition
		next.connectSource = s.connectSource
		next.connectTarget = name
		next.condTarget = condForNewTransition
		return next, nil
	}

	next := s.clearPending()
	next.mode = ModeNodeSelected
	next.selectedState = name
	return next, nil
}

// ClickTransition selects a transition by identity.
func (s Session) ClickTransition(id string) (Session, error) {
	if _, ok := s.graph.TransitionByID(id); !ok {
		return s, pkgerrors.NewNotFoundError(fmt.Sprintf("transition %q", id)).
			WithCode(pkgerrors.CodeTransitionNotFound)
	}

	next := s.clearPending()
	next.mode = ModeEdgeSelected
	next.selectedTransition = id
	return next, nil
}

// ClickCanvas clears the selection and cancels any pending operation.
func (s Session) ClickCanvas() Session {
	next := s.clearPending()
	next.mode = ModeIdle
	return next
}

// BeginAddState opens an empty state-name draft. Any other pending
// operation is implicitly cancelled; the prior selection is remembered so
// Cancel can restore it.
func (s Session) BeginAddState() (Session, error) {
	if s.readOnly {
		return s, pkgerrors.NewReadOnlyError("add state")
	}

	next := s.clearPending().rememberPrior(s)
	next.mode = ModeAddingState
	next.draftName = ""
	return next, nil
}

// UpdateDraft replaces the draft text while the add-state prompt is open.
func (s Session) UpdateDraft(name string) (Session, error) {
	if s.mode != ModeAddingState {
		return s, invalidGesture("update draft", s.mode)
	}
	next := s
	next.draftName = name
	return next, nil
}

// ConfirmAddState commits the draft. A duplicate or invalid name reports a
// validation error and keeps the draft open for correction.
func (s Session) ConfirmAddState(name string) (Session, error) {
	if s.mode != ModeAddingState {
		return s, invalidGesture("confirm add state", s.mode)
	}

	updated, err := s.graph.AddState(name)
	if err != nil {
		if pkgerrors.IsValidation(err) || pkgerrors.IsConflict(err) {
			failed := s
			failed.draftName = name
			return failed, err
		}
		return s, err
	}

	next := s.clearPending()
	next.mode = ModeIdle
	next.graph = updated
	return next, nil
}

// BeginConnect arms a connection from the selected state.
func (s Session) BeginConnect() (Session, error) {
	if s.readOnly {
		return s, pkgerrors.NewReadOnlyError("begin connection")
	}
	if s.mode != ModeNodeSelected {
		return s, invalidGesture("begin connection", s.mode)
	}

	next := s.clearPending()
	next.mode = ModeConnecting
	next.selectedState = s.selectedState
	next.connectSource = s.selectedState
	return next, nil
}

// EditCondition opens a guard prompt for the selected transition. The
// session suspends until ProvideCondition or Cancel.
func (s Session) EditCondition() (Session, error) {
	if s.readOnly {
		return s, pkgerrors.NewReadOnlyError("edit condition")
	}
	if s.mode != ModeEdgeSelected {
		return s, invalidGesture("edit condition", s.mode)
	}

	next := s
	next.mode = ModeAwaitingCondition
	next.condTarget = condForExistingTransition
	next.condEditID = s.selectedTransition
	return next, nil
}

// ProvideCondition resumes a suspended guard prompt with the entered text.
// For a new connection the transition is created and the session returns to
// idle; for an edited transition it stays selected.
func (s Session) ProvideCondition(cond string) (Session, error) {
	if s.mode != ModeAwaitingCondition {
		return s, invalidGesture("provide condition", s.mode)
	}

	switch s.condTarget {
	case condForNewTransition:
		updated, err := s.graph.AddTransition(s.connectSource, s.connectTarget, cond)
		if err != nil {
			return s, err
		}
		next := s.clearPending()
		next.mode = ModeIdle
		next.graph = updated
		return next, nil

	default:
		updated, err := s.graph.SetCondition(s.condEditID, cond)
		if err != nil {
			return s, err
		}
		next := s.clearPending()
		next.mode = ModeEdgeSelected
		next.selectedTransition = s.condEditID
		next.graph = updated
		return next, nil
	}
}

// Cancel aborts any pending multi-step operation with zero side effects.
// An add-state draft restores the selection that preceded it; everything
// else returns to idle or the originating selection.
func (s Session) Cancel() Session {
	switch s.mode {
	case ModeAddingState:
		next := s.clearPending()
		next.mode = s.priorMode
		next.selectedState = s.priorState
		next.selectedTransition = s.priorTransition
		if next.mode == "" {
			next.mode = ModeIdle
		}
		return next

	case ModeConnecting:
		next := s.clearPending()
		next.mode = ModeNodeSelected
		next.selectedState = s.connectSource
		return next

	case ModeAwaitingCondition:
		next := s.clearPending()
		if s.condTarget == condForExistingTransition {
			next.mode = ModeEdgeSelected
			next.selectedTransition = s.condEditID
			return next
		}
		next.mode = ModeIdle
		return next

	default:
		next := s.clearPending()
		next.mode = ModeIdle
		return next
	}
}

// Delete removes the current selection: the selected state together with
// its transitions, or the selected transition.
func (s Session) Delete() (Session, error) {
	if s.readOnly {
		return s, pkgerrors.NewReadOnlyError("delete")
	}

	switch s.mode {
	case ModeNodeSelected:
		updated, err := s.graph.RemoveState(s.selectedState)
		if err != nil {
			return s, err
		}
		next := s.clearPending()
		next.mode = ModeIdle
		next.graph = updated
		return next, nil

	case ModeEdgeSelected:
		updated, err := s.graph.RemoveTransition(s.selectedTransition)
		if err != nil {
			return s, err
		}
		next := s.clearPending()
		next.mode = ModeIdle
		next.graph = updated
		return next, nil

	default:
		return s, invalidGesture("delete", s.mode)
	}
}

// SetReset designates the selected state as the reset state. The selection
// is preserved.
func (s Session) SetReset() (Session, error) {
	if s.readOnly {
		return s, pkgerrors.NewReadOnlyError("set reset state")
	}
	if s.mode != ModeNodeSelected {
		return s, invalidGesture("set reset state", s.mode)
	}

	updated, err := s.graph.SetResetState(s.selectedState)
	if err != nil {
		return s, err
	}

	next := s
	next.graph = updated
	return next, nil
}

// WithGraph rebases the session onto a newer snapshot, dropping any
// selection or pending operation that the new snapshot no longer supports.
func (s Session) WithGraph(g *graph.Graph) Session {
	next := s
	next.graph = g

	switch next.mode {
	case ModeNodeSelected:
		if !g.HasState(next.selectedState) {
			return New(g).withReadOnly(s.readOnly)
		}
	case ModeEdgeSelected:
		if _, ok := g.TransitionByID(next.selectedTransition); !ok {
			return New(g).withReadOnly(s.readOnly)
		}
	case ModeConnecting, ModeAwaitingCondition, ModeAddingState:
		return New(g).withReadOnly(s.readOnly)
	}
	return next
}

func (s Session) withReadOnly(ro bool) Session {
	s.readOnly = ro
	return s
}

// clearPending resets selection and pending-operation fields, keeping the
// graph and read-only flag.
func (s Session) clearPending() Session {
	return Session{
		graph:    s.graph,
		readOnly: s.readOnly,
	}
}

func (s Session) rememberPrior(prev Session) Session {
	switch prev.mode {
	case ModeIdle, ModeNodeSelected, ModeEdgeSelected:
		s.priorMode = prev.mode
		s.priorState = prev.SelectedState()
		s.priorTransition = prev.SelectedTransition()
	default:
		// A pending operation cannot be restored; fall back to idle.
		s.priorMode = ModeIdle
	}
	return s
}

func invalidGesture(gesture string, mode Mode) error {
	return pkgerrors.NewValidationError(
		fmt.Sprintf("gesture %q is not available in mode %q", gesture, mode)).
		WithCode(pkgerrors.CodeInvalidGesture)
}
