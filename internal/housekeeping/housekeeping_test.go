package housekeeping_test

import (
	"context"
	"errors"
	"portfolio-site/internal/database"
	"portfolio-site/internal/environment"
	"portfolio-site/internal/housekeeping"
	"portfolio-site/internal/logging"
	"portfolio-site/internal/metrics"
	"portfolio-site/internal/models"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ####################### tests
func TestRun_DeletesOrphanedAssociations(t *testing.T) {
	mockRepo := &mockRepository{orphanedPostTags: 2, orphanedProjectTags: 1, expiredRevocations: 3}
	pruner := &mockPruner{pruned: 2}

	env := environment.Null().WithClock(time.Date(2024, 5, 1, 3, 0, 0, 0, time.UTC))
	env.Repository = mockRepo
	hk := &housekeeping.DefaultHousekeeper{Env: env, Sessions: pruner}

	before := testutil.ToFloat64(metrics.HousekeepingDeletedRows.WithLabelValues("blog_post_tags"))

	if err := hk.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if diff := cmp.Diff([]string{"blog_post_tags", "project_tags", "revoked_sessions"}, mockRepo.calls); diff != "" {
		t.Errorf("delete calls mismatch (-want +got):\n%s", diff)
	}
	if !pruner.at.Equal(time.Date(2024, 5, 1, 3, 0, 0, 0, time.UTC)) {
		t.Errorf("sessions pruned at %v", pruner.at)
	}
	if !mockRepo.revokedBefore.Equal(time.Date(2024, 5, 1, 3, 0, 0, 0, time.UTC)) {
		t.Errorf("revocations expired before %v", mockRepo.revokedBefore)
	}
	if got := testutil.ToFloat64(metrics.HousekeepingDeletedRows.WithLabelValues("blog_post_tags")) - before; got != 2 {
		t.Errorf("got %v deleted blog_post_tags rows counted, want 2", got)
	}
}

func TestRun_NothingToDelete(t *testing.T) {
	mockRepo := &mockRepository{}
	var core zapcore.Core

	env := &environment.Env{
		Repository: mockRepo,
		Logger: &logging.DefaultLogger{
			Logger: zap.New(core).Sugar(),
		},
		Now: time.Now,
	}
	hk := &housekeeping.DefaultHousekeeper{Env: env}

	before := testutil.ToFloat64(metrics.HousekeepingDeletedRows.WithLabelValues("project_tags"))
	if err := hk.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := testutil.ToFloat64(metrics.HousekeepingDeletedRows.WithLabelValues("project_tags")) - before; got != 0 {
		t.Errorf("got %v deleted project_tags rows counted, want 0", got)
	}
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name    string
		repo    *mockRepository
		wantErr string
	}{
		{
			name:    "post tags",
			repo:    &mockRepository{postTagsErr: errors.New("boom")},
			wantErr: "error deleting blog_post_tags rows: boom",
		},
		{
			name:    "project tags",
			repo:    &mockRepository{projectTagsErr: errors.New("delete fail")},
			wantErr: "error deleting project_tags rows: delete fail",
		},
		{
			name:    "revocations",
			repo:    &mockRepository{revocationsErr: errors.New("timeout")},
			wantErr: "error deleting revoked_sessions rows: timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := environment.Null()
			env.Repository = tt.repo
			hk := &housekeeping.DefaultHousekeeper{Env: env}

			err := hk.Run(context.Background())
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("got error %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

// A post saved while housekeeping runs keeps its tags; rows orphaned before the run are removed.
func TestRun_KeepsAssociationsSavedDuringRun(t *testing.T) {
	ctx := context.Background()
	repo := &savingRepository{GormRepository: setupSqliteRepository(t)}

	tags := []models.Tag{{Name: "red-team"}, {Name: "dfir"}}
	for i := range tags {
		if err := repo.InsertTag(ctx, &tags[i]); err != nil {
			t.Fatalf("InsertTag: %v", err)
		}
	}
	stale := models.Post{Title: "stale", Slug: "stale"}
	if err := repo.InsertPost(ctx, &stale); err != nil {
		t.Fatalf("InsertPost: %v", err)
	}
	if err := repo.ReplacePostTags(ctx, stale.ID, []uint{tags[0].ID}); err != nil {
		t.Fatalf("ReplacePostTags: %v", err)
	}
	if err := repo.DB.Delete(&models.Post{}, stale.ID).Error; err != nil {
		t.Fatalf("deleting post: %v", err)
	}

	repo.save = func(r database.Repository) error {
		post := models.Post{Title: "fresh", Slug: "fresh", ReadTime: 3}
		if err := r.InsertPost(ctx, &post); err != nil {
			return err
		}
		repo.saved = post.ID
		return r.ReplacePostTags(ctx, post.ID, []uint{tags[0].ID, tags[1].ID})
	}

	env := environment.Null()
	env.Repository = repo
	hk := &housekeeping.DefaultHousekeeper{Env: env}

	if err := hk.Run(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var rows []models.PostTag
	if err := repo.FindAllPostTags(ctx, &rows); err != nil {
		t.Fatalf("FindAllPostTags: %v", err)
	}
	want := []models.PostTag{
		{BlogPostID: repo.saved, TagID: tags[0].ID},
		{BlogPostID: repo.saved, TagID: tags[1].ID},
	}
	byTag := cmpopts.SortSlices(func(a, b models.PostTag) bool { return a.TagID < b.TagID })
	if diff := cmp.Diff(want, rows, byTag); diff != "" {
		t.Errorf("join rows mismatch (-want +got):\n%s", diff)
	}
}

func TestSchedule(t *testing.T) {
	hk := &housekeeping.DefaultHousekeeper{Env: environment.Null()}

	if _, err := housekeeping.Schedule("every now and then", hk, &logging.NullLogger{}, time.Minute); err == nil {
		t.Error("want error for an invalid schedule")
	}

	scheduler, err := housekeeping.Schedule("@every 1h", hk, &logging.NullLogger{}, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer scheduler.Stop()

	if got := len(scheduler.Entries()); got != 1 {
		t.Errorf("got %d scheduled entries, want 1", got)
	}
}

// ####################### creating mocks
type mockRepository struct {
	database.NullRepository

	orphanedPostTags    int64
	orphanedProjectTags int64
	expiredRevocations  int64
	postTagsErr         error
	projectTagsErr      error
	revocationsErr      error

	calls         []string
	revokedBefore time.Time
}

func (m *mockRepository) DeleteOrphanedPostTags(_ context.Context) (int64, error) {
	m.calls = append(m.calls, "blog_post_tags")
	return m.orphanedPostTags, m.postTagsErr
}

func (m *mockRepository) DeleteOrphanedProjectTags(_ context.Context) (int64, error) {
	m.calls = append(m.calls, "project_tags")
	return m.orphanedProjectTags, m.projectTagsErr
}

func (m *mockRepository) DeleteExpiredRevokedSessions(_ context.Context, now time.Time) (int64, error) {
	m.calls = append(m.calls, "revoked_sessions")
	m.revokedBefore = now
	return m.expiredRevocations, m.revocationsErr
}

// savingRepository lets an editor save commit after the run started and before the join rows are cleaned
type savingRepository struct {
	*database.GormRepository
	save  func(r database.Repository) error
	saved uint
}

func (s *savingRepository) DeleteOrphanedPostTags(ctx context.Context) (int64, error) {
	if s.save != nil {
		if err := s.GormRepository.WithinTransaction(ctx, s.save); err != nil {
			return 0, err
		}
	}
	return s.GormRepository.DeleteOrphanedPostTags(ctx)
}

func setupSqliteRepository(t *testing.T) *database.GormRepository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Discard,
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
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

type mockPruner struct {
	pruned int
	at     time.Time
}

func (m *mockPruner) Prune(now time.Time) int {
	m.at = now
	return m.pruned
}
