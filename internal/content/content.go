// Package content serves the public portfolio data: blog posts, projects, competition logs, tags and the about section.
package content

import (
	"context"
	"fmt"
	"portfolio-site/internal/constants"
	"portfolio-site/internal/environment"
	"portfolio-site/internal/listing"
	"portfolio-site/internal/media"
	"portfolio-site/internal/models"
	"portfolio-site/internal/utils"

	"github.com/samber/lo"
)

// List is a filtered collection. Tags holds the filter chips of the unfiltered collection.
type List[T any] struct {
	Items []T      `json:"items"`
	Tags  []string `json:"tags,omitempty"`
}

type ContentService struct {
	*environment.Env
	Images media.ImageResolver
}

func (s *ContentService) presentPost(p models.Post) models.Post {
	if len(p.Excerpt) == 0 {
		p.Excerpt = utils.CreateExcerpt(p.Content, constants.ExcerptLength)
	}
	if p.Tags == nil {
		p.Tags = []models.Tag{}
	}
	p.Image = s.Images.Resolve(p.Image)
	return p
}

func (s *ContentService) presentProject(p models.Project) models.Project {
	if p.Tags == nil {
		p.Tags = []models.Tag{}
	}
	p.Image = s.Images.Resolve(p.Image)
	return p
}

func (s *ContentService) presentCtf(c models.Ctf) models.Ctf {
	c.Logo = s.Images.Resolve(c.Logo)
	return c
}

func (s *ContentService) Posts(ctx context.Context, q listing.Query) (List[models.Post], error) {
	var posts []models.Post
	if err := s.FindAllPosts(ctx, &posts); err != nil {
		return List[models.Post]{}, fmt.Errorf("fetching posts: %w", err)
	}
	posts = lo.Map(posts, func(p models.Post, _ int) models.Post { return s.presentPost(p) })

	return List[models.Post]{
		Items: listing.Filter(posts, q, listing.PostEntry),
		Tags:  listing.TagChips(posts, listing.PostEntry),
	}, nil
}

func (s *ContentService) Post(ctx context.Context, slug string) (models.Post, error) {
	var post models.Post
	if err := s.FindPostBySlug(ctx, slug, &post); err != nil {
		return post, fmt.Errorf("fetching post %s: %w", slug, err)
	}
	return s.presentPost(post), nil
}

func (s *ContentService) Projects(ctx context.Context, q listing.Query) (List[models.Project], error) {
	var projects []models.Project
	if err := s.FindAllProjects(ctx, &projects); err != nil {
		return List[models.Project]{}, fmt.Errorf("fetching projects: %w", err)
	}
	projects = lo.Map(projects, func(p models.Project, _ int) models.Project { return s.presentProject(p) })

	return List[models.Project]{
		Items: listing.Filter(projects, q, listing.ProjectEntry),
		Tags:  listing.TagChips(projects, listing.ProjectEntry),
	}, nil
}

func (s *ContentService) Project(ctx context.Context, id uint) (models.Project, error) {
	var project models.Project
	if err := s.FindProjectById(ctx, id, &project); err != nil {
		return project, fmt.Errorf("fetching project %d: %w", id, err)
	}
	return s.presentProject(project), nil
}

// Ctfs lists competition logs. They carry no tags, so a tag other than All matches nothing.
func (s *ContentService) Ctfs(ctx context.Context, q listing.Query) (List[models.Ctf], error) {
	var ctfs []models.Ctf
	if err := s.FindAllCtfs(ctx, &ctfs); err != nil {
		return List[models.Ctf]{}, fmt.Errorf("fetching ctfs: %w", err)
	}
	ctfs = lo.Map(ctfs, func(c models.Ctf, _ int) models.Ctf { return s.presentCtf(c) })

	return List[models.Ctf]{Items: listing.Filter(ctfs, q, listing.CtfEntry)}, nil
}

func (s *ContentService) Ctf(ctx context.Context, slug string) (models.Ctf, error) {
	var ctf models.Ctf
	if err := s.FindCtfBySlug(ctx, slug, &ctf); err != nil {
		return ctf, fmt.Errorf("fetching ctf %s: %w", slug, err)
	}
	return s.presentCtf(ctf), nil
}

// Tags returns all tags, or only the navigation categories
func (s *ContentService) Tags(ctx context.Context, categoriesOnly bool) ([]models.Tag, error) {
	tags := make([]models.Tag, 0)
	if err := s.FindAllTags(ctx, &tags); err != nil {
		return nil, fmt.Errorf("fetching tags: %w", err)
	}
	if categoriesOnly {
		tags = lo.Filter(tags, func(t models.Tag, _ int) bool { return t.IsCategory })
	}
	return tags, nil
}

func (s *ContentService) About(ctx context.Context) (models.About, error) {
	var about models.About
	if err := s.FindAbout(ctx, &about); err != nil {
		return about, fmt.Errorf("fetching about: %w", err)
	}
	about.ProfileImage = s.Images.Resolve(about.ProfileImage)
	if about.Socials == nil {
		about.Socials = []models.Social{}
	}
	return about, nil
}
