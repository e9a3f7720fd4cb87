package comments

import (
	"context"
	"os"
	"testing"
	"time"

	"commentd/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// The repository tests run against a real PostgreSQL instance because the
// listing join, LIKE collation and transactional guarantees cannot be
// reproduced on a substitute. Set TEST_DATABASE_URL to enable them.
func openTestRepo(t *testing.T) *GormRepository {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping repository tests")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)

	// Best effort: the fixtures set ids explicitly, so the default only
	// matters for the DDL.
	db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`)
	require.NoError(t, db.AutoMigrate(models.RegisterModels()...))
	require.NoError(t, db.Exec("TRUNCATE attachments, comments, users CASCADE").Error)

	return NewGormRepository(db)
}

func insertUser(t *testing.T, r *GormRepository, username, email string) models.User {
	t.Helper()
	u := models.User{ID: uuid.New(), Username: username, Email: email}
	require.NoError(t, r.db.Create(&u).Error)
	return u
}

func insertComment(t *testing.T, r *GormRepository, author models.User, text string, parentID *uuid.UUID, attachments ...models.Attachment) *models.Comment {
	t.Helper()
	c := &models.Comment{ID: uuid.New(), Text: text, AuthorID: author.ID, ParentID: parentID}
	for i := range attachments {
		attachments[i].ID = uuid.New()
	}
	require.NoError(t, r.Create(context.Background(), c, attachments))
	return c
}

func attachment(name, path string) models.Attachment {
	return models.Attachment{Filename: name, Mimetype: "image/png", StoragePath: path}
}

func TestListRootsNestsRepliesUnderTheirRoot(t *testing.T) {
	r := openTestRepo(t)
	ctx := context.Background()
	alice := insertUser(t, r, "alice", "alice@example.com")

	root := insertComment(t, r, alice, "root", nil)
	reply := insertComment(t, r, alice, "reply", &root.ID)

	roots, total, err := r.ListRoots(ctx, ListQuery{}.Normalize(10))
	require.NoError(t, err)
	assert.Equal(t, int64(1), total, "replies must not count as roots")
	require.Len(t, roots, 1)
	assert.Equal(t, root.ID, roots[0].ID)
	assert.Equal(t, "alice", roots[0].Author.Username)
	require.Len(t, roots[0].Replies, 1)
	assert.Equal(t, reply.ID, roots[0].Replies[0].ID)
	assert.Equal(t, "alice", roots[0].Replies[0].Author.Username)
}

func TestListRootsFiltersAndSortsByAuthor(t *testing.T) {
	r := openTestRepo(t)
	ctx := context.Background()
	alice := insertUser(t, r, "alice", "alice@example.com")
	bob := insertUser(t, r, "bob", "bob@example.com")
	insertComment(t, r, bob, "from bob", nil)
	insertComment(t, r, alice, "from alice", nil)

	roots, total, err := r.ListRoots(ctx, ListQuery{Username: "ali"}.Normalize(10))
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, roots, 1)
	assert.Equal(t, "from alice", roots[0].Text)

	roots, _, err = r.ListRoots(ctx, ListQuery{Sort: SortUsername, Order: OrderAsc}.Normalize(10))
	require.NoError(t, err)
	require.Len(t, roots, 2)
	assert.Equal(t, "alice", roots[0].Author.Username)
	assert.Equal(t, "bob", roots[1].Author.Username)

	roots, _, err = r.ListRoots(ctx, ListQuery{Email: "bob@"}.Normalize(10))
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Equal(t, "from bob", roots[0].Text)
}

func TestListRootsTextFilterIsCaseSensitive(t *testing.T) {
	r := openTestRepo(t)
	ctx := context.Background()
	alice := insertUser(t, r, "alice", "alice@example.com")
	insertComment(t, r, alice, "Generics landed", nil)
	insertComment(t, r, alice, "generics landed", nil)

	roots, total, err := r.ListRoots(ctx, ListQuery{Text: "Generics"}.Normalize(10))
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, roots, 1)
	assert.Equal(t, "Generics landed", roots[0].Text)
}

func TestListRootsPaginates(t *testing.T) {
	r := openTestRepo(t)
	ctx := context.Background()
	alice := insertUser(t, r, "alice", "alice@example.com")
	for i := 0; i < 3; i++ {
		insertComment(t, r, alice, "root", nil)
	}

	roots, total, err := r.ListRoots(ctx, ListQuery{Page: 1, Limit: 2}.Normalize(10))
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, roots, 2)

	roots, total, err = r.ListRoots(ctx, ListQuery{Page: 2, Limit: 2}.Normalize(10))
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, roots, 1)
}

func TestCreateRejectsDanglingParent(t *testing.T) {
	r := openTestRepo(t)
	ctx := context.Background()
	alice := insertUser(t, r, "alice", "alice@example.com")

	missing := uuid.New()
	c := &models.Comment{ID: uuid.New(), Text: "orphan", AuthorID: alice.ID, ParentID: &missing}
	err := r.Create(ctx, c, []models.Attachment{attachment("a.png", "/uploads/a.png")})
	assert.ErrorIs(t, err, ErrParentNotFound)

	var n int64
	require.NoError(t, r.db.Model(&models.Comment{}).Count(&n).Error)
	assert.Zero(t, n, "the transaction must write nothing")
	require.NoError(t, r.db.Model(&models.Attachment{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestUpdateReplacesAttachmentRows(t *testing.T) {
	r := openTestRepo(t)
	ctx := context.Background()
	alice := insertUser(t, r, "alice", "alice@example.com")
	c := insertComment(t, r, alice, "with files", nil,
		attachment("old1.png", "/uploads/old1.png"),
		attachment("old2.png", "/uploads/old2.png"))

	before, err := r.FindByID(ctx, c.ID)
	require.NoError(t, err)

	next := models.Attachment{ID: uuid.New(), Filename: "new.png", Mimetype: "image/png", StoragePath: "/uploads/new.png"}
	removed, err := r.Update(ctx, c, []models.Attachment{next}, false, true)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"/uploads/old1.png", "/uploads/old2.png"}, removed)

	after, err := r.FindByID(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, after.Attachments, 1)
	assert.Equal(t, "/uploads/new.png", after.Attachments[0].StoragePath)
	assert.WithinDuration(t, before.UpdatedAt, after.UpdatedAt, time.Microsecond,
		"an attachment-only update must not touch the comment row")
}

func TestDeleteTreeCollectsDescendantAttachmentPaths(t *testing.T) {
	r := openTestRepo(t)
	ctx := context.Background()
	alice := insertUser(t, r, "alice", "alice@example.com")

	root := insertComment(t, r, alice, "root", nil, attachment("a.png", "/uploads/a.png"))
	reply := insertComment(t, r, alice, "reply", &root.ID, attachment("b.png", "/uploads/b.png"))
	insertComment(t, r, alice, "nested reply", &reply.ID, attachment("c.png", "/uploads/c.png"))
	survivor := insertComment(t, r, alice, "other root", nil, attachment("d.png", "/uploads/d.png"))

	removed, err := r.DeleteTree(ctx, root.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"/uploads/a.png", "/uploads/b.png", "/uploads/c.png"}, removed)

	var n int64
	require.NoError(t, r.db.Model(&models.Comment{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
	_, err = r.FindByID(ctx, survivor.ID)
	assert.NoError(t, err, "unrelated trees must survive")
}
