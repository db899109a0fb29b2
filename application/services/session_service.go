package services

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"fsmviz/domain/core/session"
)

// SessionService keeps at most one edit session per graph. Gestures are
// applied synchronously; whenever a gesture commits a new snapshot, the
// working set is updated through the GraphService so persistence and
// derived data stay consistent.
type SessionService struct {
	mu       sync.Mutex
	sessions map[string]session.Session
	graphs   *GraphService
	readOnly bool
	logger   *zap.Logger
}

// NewSessionService creates a session manager over the graph working set.
func NewSessionService(graphs *GraphService, logger *zap.Logger) *SessionService {
	return &SessionService{
		sessions: make(map[string]session.Session),
		graphs:   graphs,
		logger:   logger,
	}
}

// NewReadOnlySessionService creates a session manager whose sessions reject
// mutating gestures.
func NewReadOnlySessionService(graphs *GraphService, logger *zap.Logger) *SessionService {
	s := NewSessionService(graphs, logger)
	s.readOnly = true
	return s
}

// Session returns the current session for a graph, creating an idle one over
// the latest snapshot on first use. Sessions created earlier are rebased if
// the working set holds a newer snapshot.
func (s *SessionService) Session(graphID string) (session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionLocked(graphID)
}

// Apply runs one gesture against a graph's session. The gesture callback
// receives the current session and returns its successor; a changed graph
// snapshot is committed to the working set. Gesture errors are returned to
// the caller with the session left as the gesture defined (e.g. an open
// draft survives a duplicate-name rejection).
func (s *SessionService) Apply(ctx context.Context, graphID string, gesture func(session.Session) (session.Session, error)) (session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.sessionLocked(graphID)
	if err != nil {
		return session.Session{}, err
	}

	next, gestureErr := gesture(current)
	s.sessions[graphID] = next

	if next.Graph() != current.Graph() {
		if err := s.graphs.Commit(ctx, next.Graph()); err != nil {
			// The graph vanished underneath the session; drop the session
			// so the next access starts clean.
			delete(s.sessions, graphID)
			return session.Session{}, err
		}
	}

	return next, gestureErr
}

// Reset discards the session for a graph, if any.
func (s *SessionService) Reset(graphID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, graphID)
}

func (s *SessionService) sessionLocked(graphID string) (session.Session, error) {
	g, err := s.graphs.Get(graphID)
	if err != nil {
		delete(s.sessions, graphID)
		return session.Session{}, err
	}

	sess, ok := s.sessions[graphID]
	if !ok {
		if s.readOnly {
			sess = session.NewReadOnly(g)
		} else {
			sess = session.New(g)
		}
		s.sessions[graphID] = sess
		return sess, nil
	}

	if sess.Graph() != g {
		sess = sess.WithGraph(g)
		s.sessions[graphID] = sess
	}
	return sess, nil
}
