package database

import (
	"context"
	"errors"
	"fmt"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"portfolio-site/internal/models"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a lookup or update targets a record that does not exist
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write violates a unique constraint (slug, tag name, username)
	ErrDuplicate = errors.New("duplicate key")
)

// Repository defines data access methods for the portfolio content:
// blog posts, projects, competition logs, tags and their join rows,
// the about section and the admin users.
//
// @Summary Interface for portfolio data storage operations
type Repository interface {

	// WithinTransaction runs fn against a repository bound to a single store transaction.
	// The transaction is rolled back when fn returns an error.
	WithinTransaction(ctx context.Context, fn func(repo Repository) error) error

	// FindAllPosts fetches all blog posts with their tags, newest publication first.
	FindAllPosts(ctx context.Context, posts *[]models.Post) error

	// FindPostBySlug fetches a blog post and its tags by slug.
	//
	// Param slug path string true "Post slug"
	FindPostBySlug(ctx context.Context, slug string, post *models.Post) error

	// FindPostById fetches a blog post and its tags by id.
	FindPostById(ctx context.Context, id uint, post *models.Post) error

	InsertPost(ctx context.Context, post *models.Post) error

	// UpdatePost overwrites every column of the post with the given id.
	UpdatePost(ctx context.Context, id uint, post *models.Post) error

	// ReplacePostTags deletes all join rows of the post and inserts one row per tag id.
	ReplacePostTags(ctx context.Context, postId uint, tagIds []uint) error

	// FindAllProjects fetches all projects with their tags, newest first.
	FindAllProjects(ctx context.Context, projects *[]models.Project) error

	FindProjectById(ctx context.Context, id uint, project *models.Project) error

	InsertProject(ctx context.Context, project *models.Project) error

	UpdateProject(ctx context.Context, id uint, project *models.Project) error

	// ReplaceProjectTags deletes all join rows of the project and inserts one row per tag id.
	ReplaceProjectTags(ctx context.Context, projectId uint, tagIds []uint) error

	// FindAllCtfs fetches all competition log entries, latest event first.
	FindAllCtfs(ctx context.Context, ctfs *[]models.Ctf) error

	FindCtfBySlug(ctx context.Context, slug string, ctf *models.Ctf) error

	FindCtfById(ctx context.Context, id uint, ctf *models.Ctf) error

	InsertCtf(ctx context.Context, ctf *models.Ctf) error

	UpdateCtf(ctx context.Context, id uint, ctf *models.Ctf) error

	// FindAllTags fetches all tags ordered by name.
	FindAllTags(ctx context.Context, tags *[]models.Tag) error

	InsertTag(ctx context.Context, tag *models.Tag) error

	// FindAbout fetches the first about record with its social links.
	FindAbout(ctx context.Context, about *models.About) error

	// FindUserLoginCredentials fetches the user record with the specified username.
	//
	// Param username path string true "Username"
	FindUserLoginCredentials(ctx context.Context, username string, user *models.User) error

	InsertUser(ctx context.Context, user *models.User) error

	// InsertRevokedSession stores a signed-out session id; revoking an id twice is not an error.
	InsertRevokedSession(ctx context.Context, revoked *models.RevokedSession) error

	// FindRevokedSession fetches the revocation of the session id, ErrNotFound if it was never revoked.
	FindRevokedSession(ctx context.Context, sessionId string, revoked *models.RevokedSession) error

	// DeleteExpiredRevokedSessions deletes the revocations whose token expired before now.
	DeleteExpiredRevokedSessions(ctx context.Context, now time.Time) (int64, error)

	FindAllPostTags(ctx context.Context, postTags *[]models.PostTag) error

	FindAllProjectTags(ctx context.Context, projectTags *[]models.ProjectTag) error

	// DeleteOrphanedPostTags deletes, in one statement, every join row whose post or tag no longer exists.
	// It returns the number of deleted rows.
	DeleteOrphanedPostTags(ctx context.Context) (int64, error)

	// DeleteOrphanedProjectTags deletes, in one statement, every join row whose project or tag no longer exists.
	DeleteOrphanedProjectTags(ctx context.Context) (int64, error)
}

// NullRepository is a no-op implementation of the Repository interface.
// Useful for testing or default wiring when no database operations are required.
type NullRepository struct{}

func (n *NullRepository) WithinTransaction(ctx context.Context, fn func(repo Repository) error) error {
	return fn(n)
}

func (n *NullRepository) FindAllPosts(ctx context.Context, posts *[]models.Post) error {
	return nil
}

func (n *NullRepository) FindPostBySlug(ctx context.Context, slug string, post *models.Post) error {
	return nil
}

func (n *NullRepository) FindPostById(ctx context.Context, id uint, post *models.Post) error {
	return nil
}

func (n *NullRepository) InsertPost(ctx context.Context, post *models.Post) error {
	return nil
}

func (n *NullRepository) UpdatePost(ctx context.Context, id uint, post *models.Post) error {
	return nil
}

func (n *NullRepository) ReplacePostTags(ctx context.Context, postId uint, tagIds []uint) error {
	return nil
}

func (n *NullRepository) FindAllProjects(ctx context.Context, projects *[]models.Project) error {
	return nil
}

func (n *NullRepository) FindProjectById(ctx context.Context, id uint, project *models.Project) error {
	return nil
}

func (n *NullRepository) InsertProject(ctx context.Context, project *models.Project) error {
	return nil
}

func (n *NullRepository) UpdateProject(ctx context.Context, id uint, project *models.Project) error {
	return nil
}

func (n *NullRepository) ReplaceProjectTags(ctx context.Context, projectId uint, tagIds []uint) error {
	return nil
}

func (n *NullRepository) FindAllCtfs(ctx context.Context, ctfs *[]models.Ctf) error {
	return nil
}

func (n *NullRepository) FindCtfBySlug(ctx context.Context, slug string, ctf *models.Ctf) error {
	return nil
}

func (n *NullRepository) FindCtfById(ctx context.Context, id uint, ctf *models.Ctf) error {
	return nil
}

func (n *NullRepository) InsertCtf(ctx context.Context, ctf *models.Ctf) error {
	return nil
}

func (n *NullRepository) UpdateCtf(ctx context.Context, id uint, ctf *models.Ctf) error {
	return nil
}

func (n *NullRepository) FindAllTags(ctx context.Context, tags *[]models.Tag) error {
	return nil
}

func (n *NullRepository) InsertTag(ctx context.Context, tag *models.Tag) error {
	return nil
}

func (n *NullRepository) FindAbout(ctx context.Context, about *models.About) error {
	return nil
}

func (n *NullRepository) FindUserLoginCredentials(ctx context.Context, username string, user *models.User) error {
	return nil
}

func (n *NullRepository) InsertUser(ctx context.Context, user *models.User) error {
	return nil
}

func (n *NullRepository) InsertRevokedSession(ctx context.Context, revoked *models.RevokedSession) error {
	return nil
}

func (n *NullRepository) FindRevokedSession(ctx context.Context, sessionId string, revoked *models.RevokedSession) error {
	return ErrNotFound
}

func (n *NullRepository) DeleteExpiredRevokedSessions(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

func (n *NullRepository) FindAllPostTags(ctx context.Context, postTags *[]models.PostTag) error {
	return nil
}

func (n *NullRepository) FindAllProjectTags(ctx context.Context, projectTags *[]models.ProjectTag) error {
	return nil
}

func (n *NullRepository) DeleteOrphanedPostTags(ctx context.Context) (int64, error) {
	return 0, nil
}

func (n *NullRepository) DeleteOrphanedProjectTags(ctx context.Context) (int64, error) {
	return 0, nil
}

// ensure NullRepository implements Repository
var _ Repository = &NullRepository{}

// GormRepository provides a GORM-based implementation of the Repository interface.
type GormRepository struct {
	*gorm.DB
}

// ensure GormRepository implements Repository
var _ Repository = &GormRepository{}

// translate maps driver errors onto the package's sentinel errors
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, gorm.ErrDuplicatedKey), isUniqueViolation(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

// isUniqueViolation catches unique violations from connections opened without TranslateError
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}

func (g *GormRepository) WithinTransaction(ctx context.Context, fn func(repo Repository) error) error {
	return g.DB.
		WithContext(ctx).
		Transaction(func(tx *gorm.DB) error {
			return fn(&GormRepository{DB: tx})
		})
}

func (g *GormRepository) FindAllPosts(ctx context.Context, posts *[]models.Post) error {
	return g.DB.
		WithContext(ctx).
		Preload("Tags").
		Order("publication_date DESC").
		Order("id DESC").
		Find(posts).
		Error
}

func (g *GormRepository) FindPostBySlug(ctx context.Context, slug string, post *models.Post) error {
	return translate(g.DB.
		WithContext(ctx).
		Preload("Tags").
		Where("slug = ?", slug).
		Take(post).
		Error)
}

func (g *GormRepository) FindPostById(ctx context.Context, id uint, post *models.Post) error {
	return translate(g.DB.
		WithContext(ctx).
		Preload("Tags").
		Where("id = ?", id).
		Take(post).
		Error)
}

func (g *GormRepository) InsertPost(ctx context.Context, post *models.Post) error {
	return translate(g.DB.
		WithContext(ctx).
		Omit(clause.Associations).
		Create(post).
		Error)
}

func (g *GormRepository) UpdatePost(ctx context.Context, id uint, post *models.Post) error {
	post.ID = id
	return g.updateAllColumns(ctx, post)
}

func (g *GormRepository) ReplacePostTags(ctx context.Context, postId uint, tagIds []uint) error {
	db := g.DB.WithContext(ctx)

	err := db.
		Where("blog_post_id = ?", postId).
		Delete(&models.PostTag{}).
		Error
	if err != nil {
		return err
	}

	if len(tagIds) == 0 {
		return nil
	}

	rows := lo.Map(lo.Uniq(tagIds), func(tagId uint, _ int) models.PostTag {
		return models.PostTag{BlogPostID: postId, TagID: tagId}
	})
	return translate(db.Create(&rows).Error)
}

func (g *GormRepository) FindAllProjects(ctx context.Context, projects *[]models.Project) error {
	return g.DB.
		WithContext(ctx).
		Preload("Tags").
		Order("created_at DESC").
		Order("id DESC").
		Find(projects).
		Error
}

func (g *GormRepository) FindProjectById(ctx context.Context, id uint, project *models.Project) error {
	return translate(g.DB.
		WithContext(ctx).
		Preload("Tags").
		Where("id = ?", id).
		Take(project).
		Error)
}

func (g *GormRepository) InsertProject(ctx context.Context, project *models.Project) error {
	return translate(g.DB.
		WithContext(ctx).
		Omit(clause.Associations).
		Create(project).
		Error)
}

func (g *GormRepository) UpdateProject(ctx context.Context, id uint, project *models.Project) error {
	project.ID = id
	return g.updateAllColumns(ctx, project)
}

func (g *GormRepository) ReplaceProjectTags(ctx context.Context, projectId uint, tagIds []uint) error {
	db := g.DB.WithContext(ctx)

	err := db.
		Where("project_id = ?", projectId).
		Delete(&models.ProjectTag{}).
		Error
	if err != nil {
		return err
	}

	if len(tagIds) == 0 {
		return nil
	}

	rows := lo.Map(lo.Uniq(tagIds), func(tagId uint, _ int) models.ProjectTag {
		return models.ProjectTag{ProjectID: projectId, TagID: tagId}
	})
	return translate(db.Create(&rows).Error)
}

func (g *GormRepository) FindAllCtfs(ctx context.Context, ctfs *[]models.Ctf) error {
	return g.DB.
		WithContext(ctx).
		Order("event_date DESC").
		Order("id DESC").
		Find(ctfs).
		Error
}

func (g *GormRepository) FindCtfBySlug(ctx context.Context, slug string, ctf *models.Ctf) error {
	return translate(g.DB.
		WithContext(ctx).
		Where("slug = ?", slug).
		Take(ctf).
		Error)
}

func (g *GormRepository) FindCtfById(ctx context.Context, id uint, ctf *models.Ctf) error {
	return translate(g.DB.
		WithContext(ctx).
		Where("id = ?", id).
		Take(ctf).
		Error)
}

func (g *GormRepository) InsertCtf(ctx context.Context, ctf *models.Ctf) error {
	return translate(g.DB.
		WithContext(ctx).
		Create(ctf).
		Error)
}

func (g *GormRepository) UpdateCtf(ctx context.Context, id uint, ctf *models.Ctf) error {
	ctf.ID = id
	return g.updateAllColumns(ctx, ctf)
}

// updateAllColumns writes every column of record, zero values included,
// to the row identified by its primary key
func (g *GormRepository) updateAllColumns(ctx context.Context, record any) error {
	result := g.DB.
		WithContext(ctx).
		Model(record).
		Select("*").
		Omit("ID", "CreatedAt", clause.Associations).
		Updates(record)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (g *GormRepository) FindAllTags(ctx context.Context, tags *[]models.Tag) error {
	return g.DB.
		WithContext(ctx).
		Order("name").
		Find(tags).
		Error
}

func (g *GormRepository) InsertTag(ctx context.Context, tag *models.Tag) error {
	return translate(g.DB.
		WithContext(ctx).
		Create(tag).
		Error)
}

func (g *GormRepository) FindAbout(ctx context.Context, about *models.About) error {
	return translate(g.DB.
		WithContext(ctx).
		Preload("Socials", func(db *gorm.DB) *gorm.DB {
			return db.Order("id")
		}).
		Order("id").
		First(about).
		Error)
}

func (g *GormRepository) FindUserLoginCredentials(ctx context.Context, username string, user *models.User) error {
	return translate(g.DB.
		WithContext(ctx).
		Model(models.User{}).
		Where("username = ?", username).
		Take(user).
		Error)
}

func (g *GormRepository) InsertUser(ctx context.Context, user *models.User) error {
	return translate(g.DB.
		WithContext(ctx).
		Create(user).
		Error)
}

func (g *GormRepository) InsertRevokedSession(ctx context.Context, revoked *models.RevokedSession) error {
	return g.DB.
		WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(revoked).
		Error
}

func (g *GormRepository) FindRevokedSession(ctx context.Context, sessionId string, revoked *models.RevokedSession) error {
	return translate(g.DB.
		WithContext(ctx).
		Where("session_id = ?", sessionId).
		Take(revoked).
		Error)
}

func (g *GormRepository) DeleteExpiredRevokedSessions(ctx context.Context, now time.Time) (int64, error) {
	result := g.DB.
		WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&models.RevokedSession{})
	return result.RowsAffected, result.Error
}

func (g *GormRepository) FindAllPostTags(ctx context.Context, postTags *[]models.PostTag) error {
	return g.DB.
		WithContext(ctx).
		Find(postTags).
		Error
}

func (g *GormRepository) FindAllProjectTags(ctx context.Context, projectTags *[]models.ProjectTag) error {
	return g.DB.
		WithContext(ctx).
		Find(projectTags).
		Error
}

func (g *GormRepository) DeleteOrphanedPostTags(ctx context.Context) (int64, error) {
	return g.deleteOrphans(ctx, &models.PostTag{}, "blog_post_id", &models.Post{})
}

func (g *GormRepository) DeleteOrphanedProjectTags(ctx context.Context) (int64, error) {
	return g.deleteOrphans(ctx, &models.ProjectTag{}, "project_id", &models.Project{})
}

// deleteOrphans removes the join rows whose owner or tag is missing; both checks are subqueries of the delete itself

func (g *GormRepository) deleteOrphans(ctx context.Context, join any, ownerColumn string, owner any) (int64, error) {
	db := g.DB.WithContext(ctx)

	result := db.
		Where(ownerColumn+" NOT IN (?) OR tag_id NOT IN (?)",
			db.Model(owner).Select("id"),
			db.Model(&models.Tag{}).Select("id")).
		Delete(join)
	return result.RowsAffected, result.Error
}
