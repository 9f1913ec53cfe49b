package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/MosinFAM/smart-feed/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Код ошибки PostgreSQL при нарушении UNIQUE
const uniqueViolation = "23505"

// PostgresStorage - хранилище в PostgreSQL. Пост хранится документом JSONB,
// изменения идут в транзакции с блокировкой строки.
type PostgresStorage struct {
	DB   *sql.DB
	opts Options
}

// NewPostgresStorage создаёт экземпляр PostgreSQL-хранилища
func NewPostgresStorage(db *sql.DB, opts Options) *PostgresStorage {
	return &PostgresStorage{DB: db, opts: opts}
}

// GetAllPosts возвращает все посты, новые первыми
func (s *PostgresStorage) GetAllPosts() ([]models.Post, error) {
	log.Println("Fetching all posts from database")
	rows, err := s.DB.Query("SELECT document FROM posts ORDER BY seq DESC")
	if err != nil {
		log.Println("Error fetching posts:", err)
		return nil, err
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			log.Println("Error scanning post row:", err)
			return nil, err
		}
		post, err := decodePost(doc)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

// GetPostByID возвращает пост по ID
func (s *PostgresStorage) GetPostByID(id string) (*models.Post, error) {
	log.Printf("Fetching post with ID: %s", id)
	var doc []byte
	err := s.DB.QueryRow("SELECT document FROM posts WHERE post_id=$1", id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		log.Println("Error fetching post:", err)
		return nil, err
	}
	post, err := decodePost(doc)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// AddPost добавляет новый пост в БД
func (s *PostgresStorage) AddPost(post models.Post) (models.Post, error) {
	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now().UTC().Round(0)
	}
	doc, err := json.Marshal(post)
	if err != nil {
		return models.Post{}, fmt.Errorf("failed to encode post: %w", err)
	}

	log.Printf("Adding new post: %s", post.PostID)
	_, err = s.DB.Exec("INSERT INTO posts (post_id, document, created_at) VALUES ($1, $2, $3)",
		post.PostID, doc, post.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return models.Post{}, fmt.Errorf("insert post %s: %w", post.PostID, ErrDuplicatePostID)
		}
		log.Println("DB Insert Error:", err)
		return models.Post{}, err
	}
	return post, nil
}

// AttachFile сохраняет прикреплённый файл поста
func (s *PostgresStorage) AttachFile(postID string, file models.Artifact) (*models.Post, error) {
	var out models.Post
	err := s.update(postID, func(post *models.Post) error {
		post.AttachedFile = &file
		out = post.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// AddComment добавляет комментарий к посту
func (s *PostgresStorage) AddComment(postID string, comment models.Comment) (*models.Comment, error) {
	log.Printf("Adding comment to post %s", postID)
	if comment.ID == "" {
		comment.ID = uuid.New().String()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC().Round(0)
	}
	if comment.Replies == nil {
		comment.Replies = []string{}
	}
	err := s.update(postID, func(post *models.Post) error {
		post.AddComment(comment, s.opts.NewestFirst)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// AddReply добавляет ответ к комментарию
func (s *PostgresStorage) AddReply(postID string, ref CommentRef, reply string) (*models.Comment, error) {
	log.Printf("Adding reply to %s of post %s", ref, postID)
	var out models.Comment
	err := s.update(postID, func(post *models.Post) error {
		i := ref.Find(post.Comments)
		if i < 0 {
			return ErrCommentNotFound
		}
		c := &post.Comments[i]
		c.AddReply(reply, s.opts.NewestFirst)
		out = *c
		out.Replies = append([]string{}, c.Replies...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Close закрывает соединение с БД
func (s *PostgresStorage) Close() error {
	return s.DB.Close()
}

// update читает документ с FOR UPDATE, применяет fn и записывает обратно в той же транзакции
func (s *PostgresStorage) update(postID string, fn func(*models.Post) error) error {
	tx, err := s.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var doc []byte
	err = tx.QueryRow("SELECT document FROM posts WHERE post_id=$1 FOR UPDATE", postID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		log.Println("Post not found")
		return ErrPostNotFound
	}
	if err != nil {
		return err
	}

	post, err := decodePost(doc)
	if err != nil {
		return err
	}
	if err := fn(&post); err != nil {
		return err
	}

	doc, err = json.Marshal(post)
	if err != nil {
		return fmt.Errorf("failed to encode post: %w", err)
	}
	if _, err := tx.Exec("UPDATE posts SET document=$1 WHERE post_id=$2", doc, postID); err != nil {
		log.Println("DB Update Error:", err)
		return err
	}
	return tx.Commit()
}

func decodePost(doc []byte) (models.Post, error) {
	var post models.Post
	if err := json.Unmarshal(doc, &post); err != nil {
		return models.Post{}, fmt.Errorf("failed to decode post document: %w", err)
	}
	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}
	return post, nil
}
