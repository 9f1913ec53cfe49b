package feed

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/MosinFAM/smart-feed/internal/ai"
	"github.com/MosinFAM/smart-feed/internal/events"
	"github.com/MosinFAM/smart-feed/internal/extract"
	"github.com/MosinFAM/smart-feed/internal/models"
	"github.com/MosinFAM/smart-feed/internal/moderation"
	"github.com/MosinFAM/smart-feed/internal/storage"
)

var (
	ErrEmptyPost     = errors.New("post cannot be empty")
	ErrEmptyFile     = errors.New("file is empty")
	ErrBlankQuestion = errors.New("question cannot be empty")
	ErrBlankReply    = errors.New("reply cannot be empty")
	ErrRejected      = errors.New("post rejected by moderation")
	ErrNoFreeID      = errors.New("could not generate a free post id")
)

// Префикс содержимого прикреплённого файла в вопросе к модели
const attachedFileHeader = "\n\nAttached file content:\n"

// Assistant - вопросы и ответы по посту
type Assistant interface {
	AskDetailed(ctx context.Context, question string) ai.Answer
	SuggestQuestions(ctx context.Context, content string) []string
	Summarize(ctx context.Context, content string) string
}

// Moderator решает, можно ли публиковать текст
type Moderator interface {
	Evaluate(ctx context.Context, text string) moderation.Decision
}

// TextExtractor достаёт текст из файла.
// Text сообщает об ошибке, Extract заменяет её пометкой для модели.
type TextExtractor interface {
	Text(ctx context.Context, data []byte, kind string) (string, error)
	Extract(ctx context.Context, data []byte, kind string) string
}

// Options - переключатели поведения ленты
type Options struct {
	SuggestQuestions bool
	InlineMediaText  bool
	IDAttempts       int
}

// Draft - черновик поста до модерации
type Draft struct {
	Content string
	Media   *models.Artifact
}

// Controller проводит создание постов и вопросы к AI через хранилище
type Controller struct {
	Storage   storage.Storage
	Assistant Assistant
	Moderator Moderator
	Extractor TextExtractor
	Hub       *events.Hub

	opts  Options
	newID func() string
}

// NewController собирает контроллер ленты
func NewController(store storage.Storage, assistant Assistant, moderator Moderator, extractor TextExtractor, hub *events.Hub, opts Options) *Controller {
	if opts.IDAttempts < 1 {
		opts.IDAttempts = 1
	}
	return &Controller{
		Storage:   store,
		Assistant: assistant,
		Moderator: moderator,
		Extractor: extractor,
		Hub:       hub,
		opts:      opts,
		newID:     RandomPostID,
	}
}

// Posts возвращает ленту
func (c *Controller) Posts() ([]models.Post, error) {
	return c.Storage.GetAllPosts()
}

// Post возвращает пост по ID
func (c *Controller) Post(id string) (*models.Post, error) {
	return c.Storage.GetPostByID(id)
}

// CreatePost: извлечение текста медиа, модерация, сохранение.
// Отклонённый черновик ничего не меняет в хранилище.
func (c *Controller) CreatePost(ctx context.Context, draft Draft) (models.Post, moderation.Decision, error) {
	content := draft.Content
	if draft.Media != nil && c.opts.InlineMediaText && extract.IsDocument(draft.Media.Kind) {
		text, err := c.Extractor.Text(ctx, draft.Media.Data, draft.Media.Kind)
		if err != nil {
			log.Printf("Media %q text not inlined: %v", draft.Media.Name, err)
		} else if text != "" {
			if strings.TrimSpace(content) == "" {
				content = text
			} else {
				content += "\n" + text
			}
		}
	}
	if strings.TrimSpace(content) == "" && draft.Media == nil {
		return models.Post{}, moderation.Decision{}, ErrEmptyPost
	}

	decision := c.Moderator.Evaluate(ctx, content)
	if !decision.Allowed {
		log.Printf("Post rejected by moderation (%s)", decision.Reason)
		return models.Post{}, decision, ErrRejected
	}

	post := models.Post{
		Content:  content,
		Media:    draft.Media,
		Comments: []models.Comment{},
	}
	if c.opts.SuggestQuestions {
		post.SuggestedQuestions = c.Assistant.SuggestQuestions(ctx, content)
	}

	post, err := c.insertPost(post)
	if err != nil {
		return models.Post{}, decision, fmt.Errorf("failed to create post: %w", err)
	}
	published := post.WithoutData()
	c.Hub.Publish(events.Event{Type: events.PostCreated, PostID: post.PostID, Post: &published})
	return post, decision, nil
}

// AttachFile прикрепляет к посту файл, который модель прочитает при следующем вопросе
func (c *Controller) AttachFile(ctx context.Context, postID string, file models.Artifact) (*models.Post, error) {
	if len(file.Data) == 0 {
		return nil, ErrEmptyFile
	}
	post, err := c.Storage.AttachFile(postID, file)
	if err != nil {
		return nil, err
	}
	c.Hub.Publish(events.Event{Type: events.FileAttached, PostID: postID})
	return post, nil
}

// AskQuestion задаёт вопрос модели и сохраняет пару вопрос/ответ комментарием.
// В комментарий попадает исходный вопрос, без содержимого файла.
func (c *Controller) AskQuestion(ctx context.Context, postID, question string) (*models.Comment, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrBlankQuestion
	}
	post, err := c.Storage.GetPostByID(postID)
	if err != nil {
		return nil, err
	}

	combined := question
	if f := post.AttachedFile; f != nil {
		combined += attachedFileHeader + c.Extractor.Extract(ctx, f.Data, f.Kind)
	}

	answer := c.Assistant.AskDetailed(ctx, combined)
	comment, err := c.Storage.AddComment(postID, models.Comment{
		Question:     question,
		Answer:       &answer.Text,
		AnswerStatus: answer.Status,
	})
	if err != nil {
		return nil, err
	}
	c.Hub.Publish(events.Event{Type: events.CommentAdded, PostID: postID, Comment: comment})
	return comment, nil
}

// AddReply добавляет ответ пользователя к комментарию.
// Если у ref есть ID, комментарий ищется по нему, а не по позиции.
func (c *Controller) AddReply(ctx context.Context, postID string, ref storage.CommentRef, reply string) (*models.Comment, error) {
	if strings.TrimSpace(reply) == "" {
		return nil, ErrBlankReply
	}
	comment, err := c.Storage.AddReply(postID, ref, reply)
	if err != nil {
		return nil, err
	}
	ev := events.Event{Type: events.ReplyAdded, PostID: postID, Comment: comment}
	if ref.ID == "" {
		idx := ref.Index
		ev.CommentIndex = &idx
	}
	c.Hub.Publish(ev)
	return comment, nil
}

// Summarize кратко пересказывает пост
func (c *Controller) Summarize(ctx context.Context, postID string) (string, error) {
	post, err := c.Storage.GetPostByID(postID)
	if err != nil {
		return "", err
	}
	return c.Assistant.Summarize(ctx, post.Content), nil
}
