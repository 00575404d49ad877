// Package listing holds the search and tag filter shared by all list endpoints.
package listing

import (
	"portfolio-site/internal/constants"
	"portfolio-site/internal/models"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/text/cases"
)

// Query is the visible-subset selection of a list view.
// An empty Tag behaves like constants.TagAll.
type Query struct {
	Term         string
	Tag          string
	FeaturedOnly bool
	// Limit keeps the first n matches; zero or less keeps all
	Limit int
}

// Entry is the filterable projection of a record
type Entry struct {
	Title    string
	Summary  string
	Tags     []string
	Featured bool
}

func PostEntry(p models.Post) Entry {
	return Entry{Title: p.Title, Summary: p.Excerpt, Tags: models.TagNames(p.Tags), Featured: true}
}

func ProjectEntry(p models.Project) Entry {
	return Entry{Title: p.Title, Summary: p.Description, Tags: models.TagNames(p.Tags), Featured: p.IsFeatured}
}

func CtfEntry(c models.Ctf) Entry {
	return Entry{Title: c.EventName, Summary: c.Description, Featured: c.IsFeatured}
}

// Matches reports whether e satisfies the conjunction of the substring, tag and featured predicates
func (q Query) Matches(e Entry) bool {
	if q.FeaturedOnly && !e.Featured {
		return false
	}
	if !matchesTag(e.Tags, q.Tag) {
		return false
	}
	if len(q.Term) == 0 {
		return true
	}

	fold := cases.Fold()
	term := fold.String(q.Term)
	return strings.Contains(fold.String(e.Title), term) ||
		strings.Contains(fold.String(e.Summary), term)
}

func matchesTag(tags []string, tag string) bool {
	if len(tag) == 0 || tag == constants.TagAll {
		return true
	}
	return lo.Contains(tags, tag)
}

// Filter returns the items matching q, in their original order, cut to q.Limit.
// The result is never nil.
func Filter[T any](items []T, q Query, entry func(T) Entry) []T {
	visible := lo.Filter(items, func(item T, _ int) bool {
		return q.Matches(entry(item))
	})
	if q.Limit > 0 && len(visible) > q.Limit {
		visible = visible[:q.Limit]
	}
	return visible
}

// TagChips returns constants.TagAll followed by the distinct tag names of items in first-seen order
func TagChips[T any](items []T, entry func(T) Entry) []string {
	names := lo.FlatMap(items, func(item T, _ int) []string {
		return entry(item).Tags
	})
	return append([]string{constants.TagAll}, lo.Uniq(names)...)
}
