package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fsmviz/domain/core/graph"
	pkgerrors "fsmviz/pkg/errors"
)

func newSessionGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g, err := graph.New("fsm1", "top", "state_t", "state", "", "IDLE",
		[]string{"IDLE", "RUN", "DONE"},
		[]graph.Input{
			{From: "IDLE", To: "RUN", Cond: "start"},
			{From: "RUN", To: "DONE", Cond: "finished"},
		})
	require.NoError(t, err)
	return g
}

func TestSession_StartsIdle(t *testing.T) {
	s := New(newSessionGraph(t))
	assert.Equal(t, ModeIdle, s.Mode())
	assert.Empty(t, s.SelectedState())
	assert.Empty(t, s.SelectedTransition())
}

func TestSession_ClickState_Selects(t *testing.T) {
	s := New(newSessionGraph(t))

	s, err := s.ClickState("RUN")
	require.NoError(t, err)
	assert.Equal(t, ModeNodeSelected, s.Mode())
	assert.Equal(t, "RUN", s.SelectedState())
}

func TestSession_ClickState_UnknownKeepsSession(t *testing.T) {
	s := New(newSessionGraph(t))
	s, _ = s.ClickState("RUN")

	next, err := s.ClickState("MISSING")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateNotFound, pkgerrors.CodeOf(err))
	assert.Equal(t, ModeNodeSelected, next.Mode())
	assert.Equal(t, "RUN", next.SelectedState())
}

func TestSession_ClickTransition_Selects(t *testing.T) {
	g := newSessionGraph(t)
	s := New(g)

	s, err := s.ClickTransition(g.Transitions[0].ID)
	require.NoError(t, err)
	assert.Equal(t, ModeEdgeSelected, s.Mode())
	assert.Equal(t, g.Transitions[0].ID, s.SelectedTransition())
}

func TestSession_ClickCanvas_ClearsEverything(t *testing.T) {
	s := New(newSessionGraph(t))
	s, _ = s.ClickState("RUN")

	s = s.ClickCanvas()
	assert.Equal(t, ModeIdle, s.Mode())
	assert.Empty(t, s.SelectedState())
}

func TestSession_AddStateFlow(t *testing.T) {
	s := New(newSessionGraph(t))

	s, err := s.BeginAddState()
	require.NoError(t, err)
	assert.Equal(t, ModeAddingState, s.Mode())

	s, err = s.UpdateDraft("ERRO")
	require.NoError(t, err)
	assert.Equal(t, "ERRO", s.DraftName())

	s, err = s.ConfirmAddState("ERROR")
	require.NoError(t, err)
	assert.Equal(t, ModeIdle, s.Mode())
	assert.True(t, s.Graph().HasState("ERROR"))
}

func TestSession_ConfirmAddState_DuplicateKeepsDraftOpen(t *testing.T) {
	s := New(newSessionGraph(t))
	s, _ = s.BeginAddState()

	next, err := s.ConfirmAddState("RUN")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeDuplicateState, pkgerrors.CodeOf(err))
	assert.Equal(t, ModeAddingState, next.Mode())
	assert.Equal(t, "RUN", next.DraftName())
	assert.Same(t, s.Graph(), next.Graph(), "graph must be unchanged")
}

func TestSession_Cancel_AddState_RestoresPriorSelection(t *testing.T) {
	s := New(newSessionGraph(t))
	s, _ = s.ClickState("DONE")
	s, _ = s.BeginAddState()

	s = s.Cancel()
	assert.Equal(t, ModeNodeSelected, s.Mode())
	assert.Equal(t, "DONE", s.SelectedState())
}

func TestSession_Cancel_AddStateFromIdle(t *testing.T) {
	s := New(newSessionGraph(t))
	s, _ = s.BeginAddState()

	s = s.Cancel()
	assert.Equal(t, ModeIdle, s.Mode())
}

func TestSession_ConnectFlow_CreatesTransition(t *testing.T) {
	s := New(newSessionGraph(t))
	s, _ = s.ClickState("DONE")

	s, err := s.BeginConnect()
	require.NoError(t, err)
	assert.Equal(t, ModeConnecting, s.Mode())
	assert.Equal(t, "DONE", s.ConnectionSource())

	s, err = s.ClickState("IDLE")
	require.NoError(t, err)
	assert.Equal(t, ModeAwaitingCondition, s.Mode())

	before := len(s.Graph().Transitions)
	s, err = s.ProvideCondition("restart")
	require.NoError(t, err)
	assert.Equal(t, ModeIdle, s.Mode())
	require.Len(t, s.Graph().Transitions, before+1)

	added := s.Graph().Transitions[before]
	assert.Equal(t, "DONE", added.From)
	assert.Equal(t, "IDLE", added.To)
	assert.Equal(t, "restart", added.Cond)
}

func TestSession_ConnectFlow_EmptyGuardBecomesUnconditional(t *testing.T) {
	s := New(newSessionGraph(t))
	s, _ = s.ClickState("DONE")
	s, _ = s.BeginConnect()
	s, _ = s.ClickState("DONE") // self loop

	s, err := s.ProvideCondition("")
	require.NoError(t, err)
	added := s.Graph().Transitions[len(s.Graph().Transitions)-1]
	assert.Equal(t, graph.Unconditional, added.Cond)
}

func TestSession_Cancel_Connecting_KeepsSourceSelected(t *testing.T) {
	s := New(newSessionGraph(t))
	s, _ = s.ClickState("RUN")
	s, _ = s.BeginConnect()

	s = s.Cancel()
	assert.Equal(t, ModeNodeSelected, s.Mode())
	assert.Equal(t, "RUN", s.SelectedState())
}

func TestSession_Cancel_AwaitingCondition_NewTransition(t *testing.T) {
	g := newSessionGraph(t)
	s := New(g)
	s, _ = s.ClickState("RUN")
	s, _ = s.BeginConnect()
	s, _ = s.ClickState("IDLE")

	s = s.Cancel()
	assert.Equal(t, ModeIdle, s.Mode())
	assert.Equal(t, g, s.Graph(), "no transition may be created")
}

func TestSession_EditConditionFlow(t *testing.T) {
	g := newSessionGraph(t)
	s := New(g)
	id := g.Transitions[0].ID
	s, _ = s.ClickTransition(id)

	s, err := s.EditCondition()
	require.NoError(t, err)
	assert.Equal(t, ModeAwaitingCondition, s.Mode())

	s, err = s.ProvideCondition("x == 2")
	require.NoError(t, err)
	assert.Equal(t, ModeEdgeSelected, s.Mode())
	assert.Equal(t, id, s.SelectedTransition())

	tr, ok := s.Graph().TransitionByID(id)
	require.True(t, ok)
	assert.Equal(t, "x == 2", tr.Cond)
}

func TestSession_Cancel_EditCondition_KeepsEdgeSelected(t *testing.T) {
	g := newSessionGraph(t)
	s := New(g)
	id := g.Transitions[1].ID
	s, _ = s.ClickTransition(id)
	s, _ = s.EditCondition()

	s = s.Cancel()
	assert.Equal(t, ModeEdgeSelected, s.Mode())
	assert.Equal(t, id, s.SelectedTransition())
	assert.Equal(t, g, s.Graph())
}

func TestSession_Delete_SelectedState(t *testing.T) {
	s := New(newSessionGraph(t))
	s, _ = s.ClickState("RUN")

	s, err := s.Delete()
	require.NoError(t, err)
	assert.Equal(t, ModeIdle, s.Mode())
	assert.False(t, s.Graph().HasState("RUN"))
	assert.Empty(t, s.Graph().Transitions, "both transitions touched RUN")
}

func TestSession_Delete_SelectedTransition(t *testing.T) {
	g := newSessionGraph(t)
	s := New(g)
	id := g.Transitions[0].ID
	s, _ = s.ClickTransition(id)

	s, err := s.Delete()
	require.NoError(t, err)
	assert.Equal(t, ModeIdle, s.Mode())
	_, ok := s.Graph().TransitionByID(id)
	assert.False(t, ok)
}

func TestSession_Delete_RequiresSelection(t *testing.T) {
	s := New(newSessionGraph(t))

	_, err := s.Delete()
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeInvalidGesture, pkgerrors.CodeOf(err))
}

func TestSession_SetReset_KeepsSelection(t *testing.T) {
	s := New(newSessionGraph(t))
	s, _ = s.ClickState("DONE")

	s, err := s.SetReset()
	require.NoError(t, err)
	assert.Equal(t, ModeNodeSelected, s.Mode())
	assert.Equal(t, "DONE", s.SelectedState())
	assert.Equal(t, "DONE", s.Graph().ResetState)
}

func TestSession_ReadOnly_RejectsMutatingGestures(t *testing.T) {
	s := NewReadOnly(newSessionGraph(t))

	_, err := s.BeginAddState()
	assert.True(t, pkgerrors.IsReadOnly(err))

	s, err = s.ClickState("RUN")
	require.NoError(t, err, "selection still works")

	_, err = s.BeginConnect()
	assert.True(t, pkgerrors.IsReadOnly(err))

	_, err = s.Delete()
	assert.True(t, pkgerrors.IsReadOnly(err))

	_, err = s.SetReset()
	assert.True(t, pkgerrors.IsReadOnly(err))
}

func TestSession_InvalidGestureSequences(t *testing.T) {
	s := New(newSessionGraph(t))

	_, err := s.UpdateDraft("X")
	assert.Equal(t, pkgerrors.CodeInvalidGesture, pkgerrors.CodeOf(err))

	_, err = s.ConfirmAddState("X")
	assert.Equal(t, pkgerrors.CodeInvalidGesture, pkgerrors.CodeOf(err))

	_, err = s.BeginConnect()
	assert.Equal(t, pkgerrors.CodeInvalidGesture, pkgerrors.CodeOf(err))

	_, err = s.EditCondition()
	assert.Equal(t, pkgerrors.CodeInvalidGesture, pkgerrors.CodeOf(err))

	_, err = s.ProvideCondition("1")
	assert.Equal(t, pkgerrors.CodeInvalidGesture, pkgerrors.CodeOf(err))
}

func TestSession_BeginAddState_InterruptsConnection(t *testing.T) {
	s := New(newSessionGraph(t))
	s, _ = s.ClickState("RUN")
	s, _ = s.BeginConnect()

	s, err := s.BeginAddState()
	require.NoError(t, err)
	assert.Equal(t, ModeAddingState, s.Mode())

	// the interrupted connection cannot be restored
	s = s.Cancel()
	assert.Equal(t, ModeIdle, s.Mode())
}

func TestSession_WithGraph_RebasesSelection(t *testing.T) {
	g := newSessionGraph(t)
	s := New(g)
	s, _ = s.ClickState("RUN")

	bigger, err := g.AddState("EXTRA")
	require.NoError(t, err)
	s = s.WithGraph(bigger)
	assert.Equal(t, ModeNodeSelected, s.Mode())
	assert.Equal(t, "RUN", s.SelectedState())
	assert.Equal(t, bigger, s.Graph())
}

func TestSession_WithGraph_DropsStaleSelection(t *testing.T) {
	g := newSessionGraph(t)
	s := New(g)
	s, _ = s.ClickState("RUN")

	smaller, err := g.RemoveState("RUN")
	require.NoError(t, err)
	s = s.WithGraph(smaller)
	assert.Equal(t, ModeIdle, s.Mode())
}

func TestSession_WithGraph_DropsPendingOperations(t *testing.T) {
	g := newSessionGraph(t)
	s := NewReadOnly(g)
	s, _ = s.ClickState("RUN")

	writable := New(g)
	writable, _ = writable.ClickState("RUN")
	writable, _ = writable.BeginConnect()

	rebased := writable.WithGraph(g)
	assert.Equal(t, ModeIdle, rebased.Mode())
	assert.False(t, rebased.ReadOnly())

	roRebased := s.WithGraph(g)
	assert.True(t, roRebased.ReadOnly())
}
