package editor

import (
	"context"
	"errors"
	"fmt"
	"portfolio-site/internal/database"
	"portfolio-site/internal/environment"
	"portfolio-site/internal/logging"
	"portfolio-site/internal/media"
	"portfolio-site/internal/metrics"
	"portfolio-site/internal/models"
	"slices"
	"sync"
	"time"

	"github.com/samber/lo"
)

var (
	ErrBusy            = errors.New("a save is in progress")
	ErrSaved           = errors.New("the session was saved; start a new one")
	ErrNotTagged       = errors.New("the active content type has no tags")
	ErrUnknownField    = errors.New("unknown field")
	ErrInvalidField    = errors.New("invalid field value")
	ErrUnknownKind     = errors.New("unknown content type")
	ErrDraftChanged    = errors.New("the draft changed while the image was uploading")
	ErrUnauthenticated = errors.New("editing requires an authenticated session")
)

// State of an editing session
type State int

const (
	Idle State = iota
	Loaded
	Saving
	Saved
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loaded:
		return "loaded"
	case Saving:
		return "saving"
	case Saved:
		return "saved"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Invalidator drops cached public content after a write
type Invalidator interface {
	ClearContent(ctx context.Context) error
}

// View is a snapshot of a session
type View struct {
	Kind     Kind  `json:"kind"`
	State    State `json:"state"`
	TargetId uint  `json:"targetId,omitempty"`
	Draft    Draft `json:"draft"`
}

// Session is the editing state of one operator. Idle means a blank draft without target id.
type Session struct {
	*environment.Env
	Uploader    media.Uploader
	Invalidator Invalidator

	id        string
	expiresAt time.Time

	mu       sync.Mutex
	state    State
	draft    Draft
	targetId uint

	// generation changes whenever the draft is replaced by a loaded or blank one
	generation uint64
}

// NewSession returns an idle session editing a blank draft of kind
func NewSession(env *environment.Env, uploader media.Uploader, invalidator Invalidator, kind Kind) (*Session, error) {
	draft, err := NewDraft(kind)
	if err != nil {
		return nil, err
	}
	return &Session{
		Env:         env,
		Uploader:    uploader,
		Invalidator: invalidator,
		state:       Idle,
		draft:       draft,
	}, nil
}

func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view()
}

func (s *Session) view() View {
	return View{Kind: s.draft.Kind(), State: s.state, TargetId: s.targetId, Draft: s.draft.clone()}
}

// mutable rejects changes while saving and after a successful save; callers hold mu
func (s *Session) mutable() error {
	switch s.state {
	case Saving:
		return ErrBusy
	case Saved:
		return ErrSaved
	}
	return nil
}

// Load copies the record with the given id of the active kind into a fresh draft
func (s *Session) Load(ctx context.Context, id uint) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mutable(); err != nil {
		return s.view(), err
	}

	var draft Draft
	switch s.draft.Kind() {
	case KindBlog:
		var post models.Post
		if err := s.FindPostById(ctx, id, &post); err != nil {
			return s.view(), fmt.Errorf("loading post %d: %w", id, err)
		}
		draft = blogDraftOf(post)
	case KindProject:
		var project models.Project
		if err := s.FindProjectById(ctx, id, &project); err != nil {
			return s.view(), fmt.Errorf("loading project %d: %w", id, err)
		}
		draft = projectDraftOf(project)
	case KindCtf:
		var ctf models.Ctf
		if err := s.FindCtfById(ctx, id, &ctf); err != nil {
			return s.view(), fmt.Errorf("loading ctf %d: %w", id, err)
		}
		draft = ctfDraftOf(ctf)
	}

	s.draft = draft
	s.targetId = id
	s.state = Loaded
	s.generation++
	s.LogDebugf(logging.GetLogTypeEditor(s.id), "loaded %s %d", draft.Kind(), id)
	return s.view(), nil
}

// Reset clears all fields and the target id of the active kind
func (s *Session) Reset() (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blank(s.draft.Kind())
}

// SwitchTab starts a blank draft of kind; nothing of the previous draft is kept
func (s *Session) SwitchTab(kind Kind) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blank(kind)
}

func (s *Session) blank(kind Kind) (View, error) {
	if err := s.mutable(); err != nil {
		return s.view(), err
	}
	draft, err := NewDraft(kind)
	if err != nil {
		return s.view(), err
	}
	s.draft = draft
	s.targetId = 0
	s.state = Idle
	s.generation++
	return s.view(), nil
}

// Edit sets fields of the active draft. On error the draft is left unchanged.
func (s *Session) Edit(fields map[string]any) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mutable(); err != nil {
		return s.view(), err
	}
	draft, err := decodeFields(s.draft, fields)
	if err != nil {
		return s.view(), err
	}
	s.draft = draft
	return s.view(), nil
}

// SelectTags replaces the tag selection of a blog or project draft
func (s *Session) SelectTags(ids []uint) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tagged, err := s.tagged()
	if err != nil {
		return s.view(), err
	}
	tagged.setSelectedTags(lo.Uniq(ids))
	return s.view(), nil
}

// ToggleTag adds the tag to the selection, or removes it if already selected
func (s *Session) ToggleTag(id uint) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tagged, err := s.tagged()
	if err != nil {
		return s.view(), err
	}
	selected := tagged.SelectedTags()
	if slices.Contains(selected, id) {
		tagged.setSelectedTags(lo.Without(selected, id))
	} else {
		tagged.setSelectedTags(append(slices.Clone(selected), id))
	}
	return s.view(), nil
}

func (s *Session) tagged() (Tagged, error) {
	if err := s.mutable(); err != nil {
		return nil, err
	}
	tagged, ok := s.draft.(Tagged)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotTagged, s.draft.Kind())
	}
	return tagged, nil
}

// Save inserts the draft, or updates the target record, and replaces the record's tag rows
// with the current selection. Both writes run in one transaction.
// On failure the session returns to its previous state with the draft untouched.
func (s *Session) Save(ctx context.Context) (View, error) {
	s.mu.Lock()
	if err := s.mutable(); err != nil {
		defer s.mu.Unlock()
		return s.view(), err
	}
	previous := s.state
	draft := s.draft.clone()
	targetId := s.targetId
	s.state = Saving
	s.mu.Unlock()

	operation := "insert"
	if targetId > 0 {
		operation = "update"
	}

	id, err := s.persist(ctx, draft, targetId)
	metrics.ObserveSave(string(draft.Kind()), operation, err)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.state = previous
		s.LogWarnf(logging.GetLogTypeEditor(s.id), "%s of %s failed: %v", operation, draft.Kind(), err)
		return s.view(), err
	}

	s.state = Saved
	s.targetId = id
	s.LogInfof(logging.GetLogTypeEditor(s.id), "saved %s %d (%s)", draft.Kind(), id, operation)

	if s.Invalidator != nil {
		if err = s.Invalidator.ClearContent(ctx); err != nil {
			s.LogErrorf(logging.GetLogTypeEditor(s.id), "clearing content cache failed: %v", err)
		}
	}
	return s.view(), nil
}

func (s *Session) persist(ctx context.Context, draft Draft, targetId uint) (uint, error) {
	var id uint

	err := s.WithinTransaction(ctx, func(repo database.Repository) error {
		switch d := draft.(type) {
		case *BlogDraft:
			post := d.record(s.Now())
			if err := write(ctx, targetId, &post, repo.InsertPost, repo.UpdatePost); err != nil {
				return err
			}
			id = post.ID
			return repo.ReplacePostTags(ctx, id, d.TagIds)
		case *ProjectDraft:
			project := d.record()
			if err := write(ctx, targetId, &project, repo.InsertProject, repo.UpdateProject); err != nil {
				return err
			}
			id = project.ID
			return repo.ReplaceProjectTags(ctx, id, d.TagIds)
		case *CtfDraft:
			ctf := d.record()
			if err := write(ctx, targetId, &ctf, repo.InsertCtf, repo.UpdateCtf); err != nil {
				return err
			}
			id = ctf.ID
			return nil
		}
		return fmt.Errorf("%w: %T", ErrUnknownKind, draft)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// write updates the record at targetId, or inserts it when no target is set
func write[T any](ctx context.Context, targetId uint, record *T,
	insert func(context.Context, *T) error,
	update func(context.Context, uint, *T) error) error {
	if targetId > 0 {
		return update(ctx, targetId, record)
	}
	return insert(ctx, record)
}

// Attach uploads file to the folder of the active kind and today's date and writes the returned
// URL into the draft's image field. On failure the field keeps its previous value.
func (s *Session) Attach(ctx context.Context, file media.File) (View, error) {
	s.mu.Lock()
	if err := s.mutable(); err != nil {
		defer s.mu.Unlock()
		return s.view(), err
	}
	generation := s.generation
	kind := s.draft.Kind()
	s.mu.Unlock()

	url, err := s.Uploader.Upload(ctx, file, media.DatePath(string(kind), s.Now()))
	metrics.ObserveUpload(string(kind), err)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.LogWarnf(logging.GetLogTypeMedia(), "upload of %s for %s failed: %v", file.Name, kind, err)
		return s.view(), err
	}
	if err = s.mutable(); err != nil {
		return s.view(), err
	}
	if s.generation != generation {
		return s.view(), ErrDraftChanged
	}

	*s.draft.ImageField() = url
	return s.view(), nil
}

func (s *Session) isSaved() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == Saved
}
