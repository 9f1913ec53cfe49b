package storage

import (
	"database/sql/driver"
	"encoding/json"
	"testing"
	"time"

	"github.com/MosinFAM/smart-feed/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	selectForUpdate = "SELECT document FROM posts WHERE post_id=$1 FOR UPDATE"
	updateDocument  = "UPDATE posts SET document=$1 WHERE post_id=$2"
	insertPost      = "INSERT INTO posts (post_id, document, created_at) VALUES ($1, $2, $3)"
)

// postDocument проверяет JSONB-документ, уходящий в UPDATE
type postDocument func(models.Post) bool

func (m postDocument) Match(v driver.Value) bool {
	raw, ok := v.([]byte)
	if !ok {
		return false
	}
	var post models.Post
	if err := json.Unmarshal(raw, &post); err != nil {
		return false
	}
	return m(post)
}

func newMockPostgres(t *testing.T) (*PostgresStorage, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStorage(db, DefaultOptions()), mock
}

func postJSON(t *testing.T, post models.Post) []byte {
	t.Helper()
	doc, err := json.Marshal(post)
	require.NoError(t, err)
	return doc
}

func TestPostgresAddComment_LocksRowAndCommits(t *testing.T) {
	store, mock := newMockPostgres(t)
	existing := models.Post{
		PostID:    "abc123",
		Content:   "Hello",
		Comments:  []models.Comment{{ID: "c1", Question: "old", Replies: []string{}}},
		CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	mock.ExpectBegin()
	mock.ExpectQuery(selectForUpdate).WithArgs("abc123").
		WillReturnRows(sqlmock.NewRows([]string{"document"}).AddRow(postJSON(t, existing)))
	mock.ExpectExec(updateDocument).
		WithArgs(postDocument(func(p models.Post) bool {
			return len(p.Comments) == 2 && p.Comments[0].Question == "new" && p.Comments[1].ID == "c1"
		}), "abc123").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	comment, err := store.AddComment("abc123", models.Comment{Question: "new"})

	require.NoError(t, err)
	assert.NotEmpty(t, comment.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAddReply_ByID(t *testing.T) {
	store, mock := newMockPostgres(t)
	existing := models.Post{
		PostID: "abc123",
		Comments: []models.Comment{
			{ID: "c2", Question: "Q2", Replies: []string{}},
			{ID: "c1", Question: "Q1", Replies: []string{}},
		},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(selectForUpdate).WithArgs("abc123").
		WillReturnRows(sqlmock.NewRows([]string{"document"}).AddRow(postJSON(t, existing)))
	mock.ExpectExec(updateDocument).
		WithArgs(postDocument(func(p models.Post) bool {
			return len(p.Comments[0].Replies) == 0 && len(p.Comments[1].Replies) == 1
		}), "abc123").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	comment, err := store.AddReply("abc123", CommentRef{Index: 0, ID: "c1"}, "answer")

	require.NoError(t, err)
	assert.Equal(t, "Q1", comment.Question)
	assert.Equal(t, []string{"answer"}, comment.Replies)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdate_PostNotFoundRollsBack(t *testing.T) {
	store, mock := newMockPostgres(t)

	mock.ExpectBegin()
	mock.ExpectQuery(selectForUpdate).WithArgs("nope00").
		WillReturnRows(sqlmock.NewRows([]string{"document"}))
	mock.ExpectRollback()

	comment, err := store.AddComment("nope00", models.Comment{Question: "q"})

	assert.ErrorIs(t, err, ErrPostNotFound)
	assert.Nil(t, comment)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAddReply_BadIndexRollsBack(t *testing.T) {
	store, mock := newMockPostgres(t)

	mock.ExpectBegin()
	mock.ExpectQuery(selectForUpdate).WithArgs("abc123").
		WillReturnRows(sqlmock.NewRows([]string{"document"}).AddRow(postJSON(t, models.Post{PostID: "abc123"})))
	mock.ExpectRollback()

	_, err := store.AddReply("abc123", CommentRef{Index: 2}, "reply")

	assert.ErrorIs(t, err, ErrCommentNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAddPost_DuplicateID(t *testing.T) {
	store, mock := newMockPostgres(t)

	mock.ExpectExec(insertPost).
		WithArgs("abc123", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: uniqueViolation, Message: "duplicate key value"})

	_, err := store.AddPost(models.Post{PostID: "abc123", Content: "Hello"})

	assert.ErrorIs(t, err, ErrDuplicatePostID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetAllPosts_NewestFirst(t *testing.T) {
	store, mock := newMockPostgres(t)
	rows := sqlmock.NewRows([]string{"document"}).
		AddRow(postJSON(t, models.Post{PostID: "bbbbbb", Content: "second"})).
		AddRow(postJSON(t, models.Post{PostID: "aaaaaa", Content: "first"}))
	mock.ExpectQuery("SELECT document FROM posts ORDER BY seq DESC").WillReturnRows(rows)

	posts, err := store.GetAllPosts()

	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "second", posts[0].Content)
	assert.NotNil(t, posts[1].Comments)
	assert.NoError(t, mock.ExpectationsWereMet())
}
