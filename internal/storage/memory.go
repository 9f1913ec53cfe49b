package storage

import (
	"log"
	"sync"
	"time"

	"github.com/MosinFAM/smart-feed/internal/models"

	"github.com/google/uuid"
)

// MemoryStorage - упорядоченное хранилище в памяти.
// Все изменения идут под одной блокировкой: load-mutate-persist не пересекаются.
type MemoryStorage struct {
	posts   []models.Post
	opts    Options
	persist func([]models.Post) error
	mu      sync.RWMutex
}

// NewMemoryStorage создает новое in-memory хранилище
func NewMemoryStorage(opts Options) *MemoryStorage {
	return &MemoryStorage{posts: []models.Post{}, opts: opts}
}

// GetAllPosts возвращает все посты в порядке ленты
func (s *MemoryStorage) GetAllPosts() ([]models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Post, 0, len(s.posts))
	for _, post := range s.posts {
		result = append(result, post.Clone())
	}
	return result, nil
}

// GetPostByID возвращает пост по ID
func (s *MemoryStorage) GetPostByID(id string) (*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, ErrPostNotFound
	}
	post := s.posts[i].Clone()
	return &post, nil
}

// AddPost добавляет пост в начало ленты
func (s *MemoryStorage) AddPost(post models.Post) (models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now().UTC().Round(0)
	}
	if s.indexOf(post.PostID) >= 0 {
		return models.Post{}, ErrDuplicatePostID
	}
	log.Printf("Adding new post: %s", post.PostID)

	next := make([]models.Post, 0, len(s.posts)+1)
	next = append(next, post.Clone())
	next = append(next, s.posts...)
	if err := s.commit(next); err != nil {
		return models.Post{}, err
	}
	return post, nil
}

// AttachFile сохраняет файл, который AI прочитает при вопросе к посту
func (s *MemoryStorage) AttachFile(postID string, file models.Artifact) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log.Printf("Attaching file %q to post %s", file.Name, postID)
	next, post, err := s.withPost(postID)
	if err != nil {
		return nil, err
	}
	post.AttachedFile = &file
	if err := s.commit(next); err != nil {
		return nil, err
	}
	out := post.Clone()
	return &out, nil
}

// AddComment добавляет комментарий к посту
func (s *MemoryStorage) AddComment(postID string, comment models.Comment) (*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log.Printf("Adding comment to post %s", postID)
	next, post, err := s.withPost(postID)
	if err != nil {
		return nil, err
	}
	if comment.ID == "" {
		comment.ID = uuid.New().String()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC().Round(0)
	}
	post.AddComment(comment, s.opts.NewestFirst)
	if err := s.commit(next); err != nil {
		return nil, err
	}
	if comment.Replies == nil {
		comment.Replies = []string{}
	}
	return &comment, nil
}

// AddReply добавляет ответ к комментарию ref
func (s *MemoryStorage) AddReply(postID string, ref CommentRef, reply string) (*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log.Printf("Adding reply to %s of post %s", ref, postID)
	next, post, err := s.withPost(postID)
	if err != nil {
		return nil, err
	}
	i := ref.Find(post.Comments)
	if i < 0 {
		return nil, ErrCommentNotFound
	}
	comment := &post.Comments[i]
	comment.AddReply(reply, s.opts.NewestFirst)
	if err := s.commit(next); err != nil {
		return nil, err
	}
	out := *comment
	out.Replies = append([]string{}, comment.Replies...)
	return &out, nil
}

// Close ничего не делает для памяти
func (s *MemoryStorage) Close() error {
	return nil
}

func (s *MemoryStorage) indexOf(id string) int {
	for i := range s.posts {
		if s.posts[i].PostID == id {
			return i
		}
	}
	return -1
}

// withPost копирует срез и целевой пост; изменения видны только после commit
func (s *MemoryStorage) withPost(postID string) ([]models.Post, *models.Post, error) {
	i := s.indexOf(postID)
	if i < 0 {
		log.Println("Post not found")
		return nil, nil, ErrPostNotFound
	}
	next := append([]models.Post(nil), s.posts...)
	next[i] = s.posts[i].Clone()
	return next, &next[i], nil
}

func (s *MemoryStorage) commit(next []models.Post) error {
	if s.persist != nil {
		if err := s.persist(next); err != nil {
			log.Printf("Failed to save posts: %v", err)
			return err
		}
	}
	s.posts = next
	return nil
}
