package feed

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"

	"github.com/MosinFAM/smart-feed/internal/models"
	"github.com/MosinFAM/smart-feed/internal/storage"
)

const (
	postIDLength   = 6
	postIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// RandomPostID возвращает 6 случайных буквенно-цифровых символов
func RandomPostID() string {
	b := make([]byte, postIDLength)
	max := big.NewInt(int64(len(postIDAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(fmt.Sprintf("crypto/rand failed: %v", err))
		}
		b[i] = postIDAlphabet[n.Int64()]
	}
	return string(b)
}

// insertPost сохраняет пост под случайным свободным ID. Проверка заранее
// отсеивает занятые ID, а ErrDuplicatePostID от хранилища ловит гонку
// между проверкой и вставкой.
func (c *Controller) insertPost(post models.Post) (models.Post, error) {
	for i := 0; i < c.opts.IDAttempts; i++ {
		id := c.newID()
		_, err := c.Storage.GetPostByID(id)
		if err == nil {
			continue
		}
		if !errors.Is(err, storage.ErrPostNotFound) {
			return models.Post{}, err
		}

		post.PostID = id
		saved, err := c.Storage.AddPost(post)
		if errors.Is(err, storage.ErrDuplicatePostID) {
			log.Printf("Post id %s was taken concurrently, drawing another", id)
			continue
		}
		return saved, err
	}
	return models.Post{}, ErrNoFreeID
}
