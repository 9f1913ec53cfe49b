package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/MosinFAM/smart-feed/internal/models"
)

// FileStorage - хранилище в памяти, которое после каждого изменения
// целиком переписывает JSON-файл
type FileStorage struct {
	*MemoryStorage
	path string
}

// NewFileStorage загружает посты из файла. Отсутствующий или битый файл
// дает пустую ленту, а не ошибку.
func NewFileStorage(path string, opts Options) (*FileStorage, error) {
	if path == "" {
		return nil, errors.New("storage path is empty")
	}
	mem := NewMemoryStorage(opts)
	mem.posts = loadPosts(path)

	fsStore := &FileStorage{MemoryStorage: mem, path: path}
	mem.persist = fsStore.save
	log.Printf("Loaded %d posts from %s", len(mem.posts), path)
	return fsStore, nil
}

// Path возвращает путь к файлу ленты
func (s *FileStorage) Path() string {
	return s.path
}

func loadPosts(path string) []models.Post {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Printf("Error reading %s: %v", path, err)
		}
		return []models.Post{}
	}

	var posts []models.Post
	if err := json.Unmarshal(data, &posts); err != nil {
		log.Printf("Malformed posts file %s, starting with empty feed: %v", path, err)
		return []models.Post{}
	}
	if posts == nil {
		posts = []models.Post{}
	}
	for i := range posts {
		normalize(&posts[i])
	}
	return posts
}

// save пишет весь список во временный файл и атомарно подменяет основной
func (s *FileStorage) save(posts []models.Post) error {
	data, err := json.MarshalIndent(posts, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode posts: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".posts-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write posts: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	return nil
}
