package editor

import (
	"context"
	"errors"
	"fmt"
	"portfolio-site/internal/database"
	"portfolio-site/internal/environment"
	"portfolio-site/internal/logging"
	"portfolio-site/internal/models"
	"slices"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

var (
	ErrEmptyTagName = errors.New("tag name must not be empty")
	ErrDuplicateTag = errors.New("tag already exists")
)

// TagService lists and creates tags for the editor's tag manager
type TagService struct {
	*environment.Env
	Invalidator Invalidator

	// Collator orders tag names locale-aware; it is not safe for concurrent use
	Collator   *collate.Collator
	collatorMu sync.Mutex
}

func NewTagService(env *environment.Env, invalidator Invalidator) *TagService {
	return &TagService{
		Env:         env,
		Invalidator: invalidator,
		Collator:    collate.New(language.English),
	}
}

// ListTags returns all tags ordered by name
func (t *TagService) ListTags(ctx context.Context) ([]models.Tag, error) {
	tags := make([]models.Tag, 0)
	if err := t.FindAllTags(ctx, &tags); err != nil {
		return nil, fmt.Errorf("fetching tags: %w", err)
	}

	t.collatorMu.Lock()
	defer t.collatorMu.Unlock()
	slices.SortStableFunc(tags, func(a, b models.Tag) int {
		return t.Collator.CompareString(a.Name, b.Name)
	})
	return tags, nil
}

// CreateTag inserts a tag named by the lower-cased name and returns the re-fetched tag list.
// A name that already exists fails with ErrDuplicateTag and inserts nothing.
func (t *TagService) CreateTag(ctx context.Context, name string, isCategory bool) ([]models.Tag, error) {
	name = cases.Lower(language.Und).String(strings.TrimSpace(name))
	if len(name) == 0 {
		return nil, ErrEmptyTagName
	}

	tag := models.Tag{Name: name, IsCategory: isCategory}
	err := t.InsertTag(ctx, &tag)
	if errors.Is(err, database.ErrDuplicate) {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateTag, name)
	}
	if err != nil {
		return nil, fmt.Errorf("creating tag %s: %w", name, err)
	}

	t.LogInfof(logging.GetLogTypeContent(), "created tag %s (%d)", tag.Name, tag.ID)
	if t.Invalidator != nil {
		if err = t.Invalidator.ClearContent(ctx); err != nil {
			t.LogErrorf(logging.GetLogTypeContent(), "clearing content cache failed: %v", err)
		}
	}

	return t.ListTags(ctx)
}
