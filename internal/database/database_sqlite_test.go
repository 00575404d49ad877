package database_test

import (
	"context"
	"errors"
	"portfolio-site/internal/database"
	"portfolio-site/internal/models"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupSqliteRepository(t *testing.T) *database.GormRepository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Discard,
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	// every connection to :memory: is its own database
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err = models.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	return &database.GormRepository{DB: db}
}

func seedTags(t *testing.T, repo database.Repository, names ...string) []models.Tag {
	t.Helper()
	tags := make([]models.Tag, 0, len(names))
	for _, name := range names {
		tag := models.Tag{Name: name}
		if err := repo.InsertTag(context.Background(), &tag); err != nil {
			t.Fatalf("InsertTag(%s): %v", name, err)
		}
		tags = append(tags, tag)
	}
	return tags
}

func TestSqlite_PostRoundTripWithTags(t *testing.T) {
	ctx := context.Background()
	repo := setupSqliteRepository(t)
	tags := seedTags(t, repo, "red-team", "web", "dfir")

	post := models.Post{
		Title:           "SQLi Deep Dive",
		Slug:            "sqli-deep-dive",
		Content:         "<p>union select</p>",
		ReadTime:        7,
		PublicationDate: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		// associations are written through ReplacePostTags only
		Tags: []models.Tag{tags[2]},
	}
	if err := repo.InsertPost(ctx, &post); err != nil {
		t.Fatalf("InsertPost: %v", err)
	}
	if post.ID == 0 {
		t.Fatal("InsertPost did not capture the new id")
	}

	if err := repo.ReplacePostTags(ctx, post.ID, []uint{tags[0].ID, tags[1].ID}); err != nil {
		t.Fatalf("ReplacePostTags: %v", err)
	}

	var got models.Post
	if err := repo.FindPostBySlug(ctx, "sqli-deep-dive", &got); err != nil {
		t.Fatalf("FindPostBySlug: %v", err)
	}

	if diff := cmp.Diff([]uint{tags[0].ID, tags[1].ID}, models.TagIds(got.Tags)); diff != "" {
		t.Errorf("tag ids mismatch (-want +got):\n%s", diff)
	}
	if got.ReadTime != 7 || got.Title != post.Title {
		t.Errorf("unexpected post: %+v", got)
	}

	// replacing with an empty selection removes every join row
	if err := repo.ReplacePostTags(ctx, post.ID, nil); err != nil {
		t.Fatalf("ReplacePostTags(nil): %v", err)
	}
	var joins []models.PostTag
	if err := repo.FindAllPostTags(ctx, &joins); err != nil {
		t.Fatalf("FindAllPostTags: %v", err)
	}
	if len(joins) != 0 {
		t.Errorf("got %d join rows, want 0", len(joins))
	}
}

func TestSqlite_InsertPostKeepsZeroReadTime(t *testing.T) {
	ctx := context.Background()
	repo := setupSqliteRepository(t)

	post := models.Post{Title: "Note", Slug: "note", Content: "<p>x</p>", ReadTime: 0}
	if err := repo.InsertPost(ctx, &post); err != nil {
		t.Fatalf("InsertPost: %v", err)
	}

	var got models.Post
	if err := repo.FindPostById(ctx, post.ID, &got); err != nil {
		t.Fatalf("FindPostById: %v", err)
	}
	if got.ReadTime != 0 {
		t.Errorf("got read time %d, want 0", got.ReadTime)
	}
}

func TestSqlite_UpdateProjectWritesZeroValues(t *testing.T) {
	ctx := context.Background()
	repo := setupSqliteRepository(t)

	project := models.Project{Title: "ELK SIEM", Description: "lab", GithubLink: "https://github.com/x/elk", IsFeatured: true}
	if err := repo.InsertProject(ctx, &project); err != nil {
		t.Fatalf("InsertProject: %v", err)
	}

	update := models.Project{Title: "ELK SIEM v2", IsFeatured: false}
	if err := repo.UpdateProject(ctx, project.ID, &update); err != nil {
		t.Fatalf("UpdateProject: %v", err)
	}

	var got models.Project
	if err := repo.FindProjectById(ctx, project.ID, &got); err != nil {
		t.Fatalf("FindProjectById: %v", err)
	}
	if got.Title != "ELK SIEM v2" || got.IsFeatured || got.GithubLink != "" || got.Description != "" {
		t.Errorf("update did not overwrite all columns: %+v", got)
	}
	if !got.CreatedAt.Equal(project.CreatedAt) {
		t.Errorf("created_at changed from %v to %v", project.CreatedAt, got.CreatedAt)
	}
}

func TestSqlite_UpdateMissingRecord(t *testing.T) {
	repo := setupSqliteRepository(t)

	err := repo.UpdateCtf(context.Background(), 42, &models.Ctf{EventName: "ghost", Slug: "ghost"})
	if !errors.Is(err, database.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestSqlite_CtfDateAndNullableTeam(t *testing.T) {
	ctx := context.Background()
	repo := setupSqliteRepository(t)

	ctf := models.Ctf{
		EventName: "DEF CON Quals",
		Slug:      "defcon-quals",
		EventDate: datatypes.Date(time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC)),
		RankScore: "12th / 4210 pts",
	}
	if err := repo.InsertCtf(ctx, &ctf); err != nil {
		t.Fatalf("InsertCtf: %v", err)
	}

	var got models.Ctf
	if err := repo.FindCtfBySlug(ctx, "defcon-quals", &got); err != nil {
		t.Fatalf("FindCtfBySlug: %v", err)
	}
	if got.TeamName != nil {
		t.Errorf("got team %q, want nil", *got.TeamName)
	}
	if y, m, d := time.Time(got.EventDate).Date(); y != 2024 || m != time.May || d != 4 {
		t.Errorf("got event date %v", time.Time(got.EventDate))
	}
}

func TestSqlite_DuplicateTag(t *testing.T) {
	repo := setupSqliteRepository(t)
	seedTags(t, repo, "web")

	err := repo.InsertTag(context.Background(), &models.Tag{Name: "web"})
	if !errors.Is(err, database.ErrDuplicate) {
		t.Fatalf("got %v, want ErrDuplicate", err)
	}

	var tags []models.Tag
	if err = repo.FindAllTags(context.Background(), &tags); err != nil {
		t.Fatalf("FindAllTags: %v", err)
	}
	if len(tags) != 1 {
		t.Errorf("got %d tags, want 1", len(tags))
	}
}

func TestSqlite_WithinTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	repo := setupSqliteRepository(t)
	boom := errors.New("boom")

	err := repo.WithinTransaction(ctx, func(tx database.Repository) error {
		if err := tx.InsertPost(ctx, &models.Post{Title: "draft", Slug: "draft"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want boom", err)
	}

	var posts []models.Post
	if err = repo.FindAllPosts(ctx, &posts); err != nil {
		t.Fatalf("FindAllPosts: %v", err)
	}
	if len(posts) != 0 {
		t.Errorf("got %d posts after rollback, want 0", len(posts))
	}
}

func TestSqlite_DeleteOrphanedJoinRows(t *testing.T) {
	ctx := context.Background()
	repo := setupSqliteRepository(t)
	tags := seedTags(t, repo, "a", "b")

	kept := models.Project{Title: "kept"}
	gone := models.Project{Title: "gone"}
	for _, p := range []*models.Project{&kept, &gone} {
		if err := repo.InsertProject(ctx, p); err != nil {
			t.Fatalf("InsertProject: %v", err)
		}
		if err := repo.ReplaceProjectTags(ctx, p.ID, []uint{tags[0].ID, tags[1].ID}); err != nil {
			t.Fatalf("ReplaceProjectTags: %v", err)
		}
	}
	if err := repo.DB.Delete(&models.Project{}, gone.ID).Error; err != nil {
		t.Fatalf("deleting project: %v", err)
	}
	if err := repo.DB.Delete(&models.Tag{}, tags[1].ID).Error; err != nil {
		t.Fatalf("deleting tag: %v", err)
	}

	deleted, err := repo.DeleteOrphanedProjectTags(ctx)
	if err != nil {
		t.Fatalf("DeleteOrphanedProjectTags: %v", err)
	}
	if deleted != 3 {
		t.Errorf("got %d deleted rows, want 3", deleted)
	}

	var joins []models.ProjectTag
	if err = repo.FindAllProjectTags(ctx, &joins); err != nil {
		t.Fatalf("FindAllProjectTags: %v", err)
	}
	want := []models.ProjectTag{{ProjectID: kept.ID, TagID: tags[0].ID}}
	if diff := cmp.Diff(want, joins); diff != "" {
		t.Errorf("join rows mismatch (-want +got):\n%s", diff)
	}
}

func TestSqlite_RevokedSessions(t *testing.T) {
	ctx := context.Background()
	repo := setupSqliteRepository(t)
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	revocations := []models.RevokedSession{
		{SessionID: "expired", ExpiresAt: now.Add(-time.Minute)},
		{SessionID: "live", ExpiresAt: now.Add(time.Hour)},
		{SessionID: "live", ExpiresAt: now.Add(time.Hour)},
	}
	for i := range revocations {
		if err := repo.InsertRevokedSession(ctx, &revocations[i]); err != nil {
			t.Fatalf("InsertRevokedSession(%s): %v", revocations[i].SessionID, err)
		}
	}

	deleted, err := repo.DeleteExpiredRevokedSessions(ctx, now)
	if err != nil {
		t.Fatalf("DeleteExpiredRevokedSessions: %v", err)
	}
	if deleted != 1 {
		t.Errorf("got %d deleted revocations, want 1", deleted)
	}

	var got models.RevokedSession
	if err = repo.FindRevokedSession(ctx, "live", &got); err != nil {
		t.Fatalf("FindRevokedSession: %v", err)
	}
	if !got.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Errorf("got expiry %v", got.ExpiresAt)
	}
	if err = repo.FindRevokedSession(ctx, "expired", &got); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound for a pruned revocation", err)
	}
}

func TestSqlite_FindAbout(t *testing.T) {
	repo := setupSqliteRepository(t)

	about := models.About{
		FullName: "Jane Doe",
		Socials: []models.Social{
			{PlatformName: "github", URL: "https://github.com/jane"},
			{PlatformName: "mastodon", URL: "https://infosec.exchange/@jane"},
		},
	}
	if err := repo.DB.Create(&about).Error; err != nil {
		t.Fatalf("seeding about: %v", err)
	}

	var got models.About
	if err := repo.FindAbout(context.Background(), &got); err != nil {
		t.Fatalf("FindAbout: %v", err)
	}
	if got.FullName != "Jane Doe" || len(got.Socials) != 2 || got.Socials[0].PlatformName != "github" {
		t.Errorf("unexpected about: %+v", got)
	}
}
