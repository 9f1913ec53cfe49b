package storage

import (
	"errors"
	"fmt"

	"github.com/MosinFAM/smart-feed/internal/models"
)

var (
	ErrPostNotFound    = errors.New("post not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrDuplicatePostID = errors.New("post id already taken")
)

// Storage - интерфейс для всех типов хранилищ (файл, память, PostgreSQL, MongoDB)
type Storage interface {
	GetAllPosts() ([]models.Post, error)
	GetPostByID(id string) (*models.Post, error)
	AddPost(post models.Post) (models.Post, error)
	AttachFile(postID string, file models.Artifact) (*models.Post, error)
	AddComment(postID string, comment models.Comment) (*models.Comment, error)
	AddReply(postID string, ref CommentRef, reply string) (*models.Comment, error)
	Close() error
}

// Options - общие настройки порядка вставки
type Options struct {
	// NewestFirst: новые посты, комментарии и ответы идут первыми
	NewestFirst bool
}

// DefaultOptions возвращает порядок "новые сверху"
func DefaultOptions() Options {
	return Options{NewestFirst: true}
}

// CommentRef указывает комментарий: по ID, если он задан, иначе по позиции.
// Позиция сдвигается, когда выше появляются новые комментарии, ID - нет.
type CommentRef struct {
	Index int
	ID    string
}

// Find возвращает позицию комментария в comments или -1
func (r CommentRef) Find(comments []models.Comment) int {
	if r.ID != "" {
		for i := range comments {
			if comments[i].ID == r.ID {
				return i
			}
		}
		return -1
	}
	if r.Index < 0 || r.Index >= len(comments) {
		return -1
	}
	return r.Index
}

func (r CommentRef) String() string {
	if r.ID != "" {
		return "comment " + r.ID
	}
	return fmt.Sprintf("comment #%d", r.Index)
}
