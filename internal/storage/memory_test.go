package storage

import (
	"testing"

	"github.com/MosinFAM/smart-feed/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestGetAllPosts_Empty(t *testing.T) {
	storage := NewMemoryStorage(DefaultOptions())

	posts, err := storage.GetAllPosts()

	assert.NoError(t, err)
	assert.Empty(t, posts)
}

func TestAddPost_PrependsToFeed(t *testing.T) {
	storage := NewMemoryStorage(DefaultOptions())

	_, err := storage.AddPost(models.Post{PostID: "aaaaaa", Content: "first"})
	assert.NoError(t, err)
	_, err = storage.AddPost(models.Post{PostID: "bbbbbb", Content: "second"})
	assert.NoError(t, err)

	posts, err := storage.GetAllPosts()
	assert.NoError(t, err)
	assert.Len(t, posts, 2)
	assert.Equal(t, "second", posts[0].Content)
	assert.Equal(t, "first", posts[1].Content)
	assert.NotNil(t, posts[0].Comments)
	assert.False(t, posts[0].CreatedAt.IsZero())
}

func TestGetPostByID_NotFound(t *testing.T) {
	storage := NewMemoryStorage(DefaultOptions())

	post, err := storage.GetPostByID("nonexistent-id")

	assert.ErrorIs(t, err, ErrPostNotFound)
	assert.Nil(t, post)
}

func TestGetPostByID_ReturnsCopy(t *testing.T) {
	storage := NewMemoryStorage(DefaultOptions())
	_, err := storage.AddPost(models.Post{PostID: "abc123", Content: "Content"})
	assert.NoError(t, err)

	fetched, err := storage.GetPostByID("abc123")
	assert.NoError(t, err)
	fetched.Content = "changed"

	again, err := storage.GetPostByID("abc123")
	assert.NoError(t, err)
	assert.Equal(t, "Content", again.Content)
}

func TestAddComment_NoPost(t *testing.T) {
	storage := NewMemoryStorage(DefaultOptions())

	comment, err := storage.AddComment("nonexistent-post-id", models.Comment{Question: "q"})

	assert.ErrorIs(t, err, ErrPostNotFound)
	assert.Nil(t, comment)
}

func TestAddComment_NewestFirst(t *testing.T) {
	storage := NewMemoryStorage(DefaultOptions())
	_, err := storage.AddPost(models.Post{PostID: "abc123", Content: "Content"})
	assert.NoError(t, err)

	first, err := storage.AddComment("abc123", models.Comment{Question: "first"})
	assert.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	_, err = storage.AddComment("abc123", models.Comment{Question: "second"})
	assert.NoError(t, err)

	post, err := storage.GetPostByID("abc123")
	assert.NoError(t, err)
	assert.Len(t, post.Comments, 2)
	assert.Equal(t, "second", post.Comments[0].Question)
	assert.Equal(t, "first", post.Comments[1].Question)
}

func TestAddComment_OldestFirst(t *testing.T) {
	storage := NewMemoryStorage(Options{NewestFirst: false})
	_, err := storage.AddPost(models.Post{PostID: "abc123", Content: "Content"})
	assert.NoError(t, err)

	_, err = storage.AddComment("abc123", models.Comment{Question: "first"})
	assert.NoError(t, err)
	_, err = storage.AddComment("abc123", models.Comment{Question: "second"})
	assert.NoError(t, err)

	post, err := storage.GetPostByID("abc123")
	assert.NoError(t, err)
	assert.Equal(t, "first", post.Comments[0].Question)
	assert.Equal(t, "second", post.Comments[1].Question)
}

func TestAddReply_Success(t *testing.T) {
	storage := NewMemoryStorage(DefaultOptions())
	_, err := storage.AddPost(models.Post{PostID: "abc123", Content: "Content"})
	assert.NoError(t, err)
	_, err = storage.AddComment("abc123", models.Comment{Question: "q"})
	assert.NoError(t, err)

	_, err = storage.AddReply("abc123", CommentRef{Index: 0}, "one")
	assert.NoError(t, err)
	comment, err := storage.AddReply("abc123", CommentRef{Index: 0}, "two")

	assert.NoError(t, err)
	assert.Equal(t, []string{"two", "one"}, comment.Replies)
}

func TestAddReply_BadIndex(t *testing.T) {
	storage := NewMemoryStorage(DefaultOptions())
	_, err := storage.AddPost(models.Post{PostID: "abc123", Content: "Content"})
	assert.NoError(t, err)

	comment, err := storage.AddReply("abc123", CommentRef{Index: 3}, "reply")

	assert.ErrorIs(t, err, ErrCommentNotFound)
	assert.Nil(t, comment)
}

func TestAddReply_ByIDAfterNewerComment(t *testing.T) {
	storage := NewMemoryStorage(DefaultOptions())
	_, err := storage.AddPost(models.Post{PostID: "abc123", Content: "Content"})
	assert.NoError(t, err)
	first, err := storage.AddComment("abc123", models.Comment{Question: "Q1"})
	assert.NoError(t, err)
	_, err = storage.AddComment("abc123", models.Comment{Question: "Q2"})
	assert.NoError(t, err)

	comment, err := storage.AddReply("abc123", CommentRef{Index: 0, ID: first.ID}, "reply to Q1")

	assert.NoError(t, err)
	assert.Equal(t, "Q1", comment.Question)
	post, err := storage.GetPostByID("abc123")
	assert.NoError(t, err)
	assert.Empty(t, post.Comments[0].Replies)
	assert.Equal(t, []string{"reply to Q1"}, post.Comments[1].Replies)
}

func TestAddReply_UnknownID(t *testing.T) {
	storage := NewMemoryStorage(DefaultOptions())
	_, err := storage.AddPost(models.Post{PostID: "abc123", Content: "Content"})
	assert.NoError(t, err)
	_, err = storage.AddComment("abc123", models.Comment{Question: "Q1"})
	assert.NoError(t, err)

	comment, err := storage.AddReply("abc123", CommentRef{ID: "missing"}, "reply")

	assert.ErrorIs(t, err, ErrCommentNotFound)
	assert.Nil(t, comment)
}

func TestAddPost_DuplicateID(t *testing.T) {
	storage := NewMemoryStorage(DefaultOptions())
	_, err := storage.AddPost(models.Post{PostID: "abc123", Content: "first"})
	assert.NoError(t, err)

	_, err = storage.AddPost(models.Post{PostID: "abc123", Content: "second"})

	assert.ErrorIs(t, err, ErrDuplicatePostID)
	posts, _ := storage.GetAllPosts()
	assert.Len(t, posts, 1)
	assert.Equal(t, "first", posts[0].Content)
}

func TestAttachFile(t *testing.T) {
	storage := NewMemoryStorage(DefaultOptions())
	_, err := storage.AddPost(models.Post{PostID: "abc123", Content: "Content"})
	assert.NoError(t, err)

	post, err := storage.AttachFile("abc123", models.Artifact{Name: "a.txt", Kind: "text/plain", Data: []byte("abc")})

	assert.NoError(t, err)
	assert.Equal(t, "a.txt", post.AttachedFile.Name)
	assert.Equal(t, []byte("abc"), post.AttachedFile.Data)
}
