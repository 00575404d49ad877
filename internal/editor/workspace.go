package editor

import (
	"context"
	"portfolio-site/internal/auth"
	"portfolio-site/internal/environment"
	"portfolio-site/internal/logging"
	"portfolio-site/internal/media"
	"portfolio-site/internal/metrics"
	"sync"
	"time"
)

// inlineFolder is the media folder of images embedded in rich text bodies
const inlineFolder = "uploads"

// Workspace holds the editing session of every signed-in operator, keyed by auth session id
type Workspace struct {
	*environment.Env
	Uploader    media.Uploader
	Invalidator Invalidator

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewWorkspace(env *environment.Env, uploader media.Uploader, invalidator Invalidator) *Workspace {
	return &Workspace{
		Env:         env,
		Uploader:    uploader,
		Invalidator: invalidator,
		sessions:    make(map[string]*Session),
	}
}

// Session returns the editing session of an authenticated operator.
// A saved session is replaced by a blank one of the same kind.
func (w *Workspace) Session(ac auth.Context) (*Session, error) {
	if !ac.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}

	w.mu.RLock()
	session, ok := w.sessions[ac.SessionID]
	w.mu.RUnlock()
	if ok && !session.isSaved() {
		return session, nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	kind := KindBlog
	if session, ok = w.sessions[ac.SessionID]; ok {
		if !session.isSaved() {
			return session, nil
		}
		kind = session.Snapshot().Kind
	}

	session, err := NewSession(w.Env, w.Uploader, w.Invalidator, kind)
	if err != nil {
		return nil, err
	}
	session.id = ac.SessionID
	session.expiresAt = ac.ExpiresAt
	w.sessions[ac.SessionID] = session

	w.LogDebugf(logging.GetLogTypeEditor(ac.SessionID), "started %s session for %s", kind, ac.Username)
	return session, nil
}

// Upload stores an image embedded in a rich text body and returns its URL.
// The operator's editing session is left as it is.
func (w *Workspace) Upload(ctx context.Context, ac auth.Context, file media.File) (string, error) {
	if !ac.IsAuthenticated() {
		return "", ErrUnauthenticated
	}

	url, err := w.Uploader.Upload(ctx, file, media.DatePath(inlineFolder, w.Now()))
	metrics.ObserveUpload(inlineFolder, err)
	if err != nil {
		w.LogWarnf(logging.GetLogTypeMedia(), "inline upload of %s failed: %v", file.Name, err)
		return "", err
	}
	return url, nil
}

// Drop discards the session of a signed-out operator
func (w *Workspace) Drop(sessionId string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.sessions, sessionId)
}

// Prune discards sessions whose token expired before now and returns how many were dropped
func (w *Workspace) Prune(now time.Time) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	pruned := 0
	for id, session := range w.sessions {
		if !session.expiresAt.IsZero() && session.expiresAt.Before(now) {
			delete(w.sessions, id)
			pruned++
		}
	}
	return pruned
}

func (w *Workspace) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.sessions)
}
