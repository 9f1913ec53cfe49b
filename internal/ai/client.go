package ai

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/MosinFAM/smart-feed/internal/models"
)

// Фиксированные ответы, которые получает вызывающий код вместо ошибок
const (
	NotInitializedAnswer = "AI client not initialized."
	FailedAnswer         = "Error generating response."
)

// FallbackQuestions дополняют список предложенных вопросов до трёх
var FallbackQuestions = []string{"Explain the main idea.", "Give a summary.", "What is this post about?"}

const (
	answerPrompt    = "%s\n\nAnswer in maximum 100 words."
	questionsPrompt = "Create 3 simple questions based on this text:\n"
	summaryPrompt   = "Summarize this text in 2-3 sentences:\n"

	questionCount = 3
)

// Answer - текст ответа и признак того, откуда он взялся
type Answer struct {
	Text   string
	Status string
}

// Client - слой вопросов и ответов поверх Generator.
// Каждый вызов делается ровно один раз и ограничен таймаутом; любая ошибка
// превращается в детерминированное значение по умолчанию.
type Client struct {
	gen     Generator
	timeout time.Duration
	cache   Cache
}

// NewClient создаёт клиента. gen == nil означает, что модель не настроена.
func NewClient(gen Generator, timeout time.Duration, cache Cache) *Client {
	return &Client{gen: gen, timeout: timeout, cache: cache}
}

// Configured сообщает, есть ли у клиента модель
func (c *Client) Configured() bool {
	return c != nil && c.gen != nil
}

// Generate вызывает модель с таймаутом клиента
func (c *Client) Generate(ctx context.Context, prompt string, blobs ...Blob) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return c.gen.Generate(ctx, prompt, blobs...)
}

// Ask возвращает ответ модели, ограниченный примерно сотней слов
func (c *Client) Ask(ctx context.Context, question string) string {
	return c.AskDetailed(ctx, question).Text
}

// AskDetailed - как Ask, но различает "модель недоступна" и "модель ответила"
func (c *Client) AskDetailed(ctx context.Context, question string) Answer {
	if !c.Configured() {
		return Answer{Text: NotInitializedAnswer, Status: models.AnswerUnavailable}
	}
	text, err := c.Generate(ctx, fmt.Sprintf(answerPrompt, question))
	if err != nil {
		log.Printf("Error generating answer: %v", err)
		return Answer{Text: FailedAnswer, Status: models.AnswerFailed}
	}
	return Answer{Text: strings.TrimSpace(text), Status: models.AnswerOK}
}

// SuggestQuestions всегда возвращает ровно три непустых вопроса
func (c *Client) SuggestQuestions(ctx context.Context, content string) []string {
	if !c.Configured() {
		return fallbackQuestions()
	}
	key := cacheKey("questions", content)
	if cached, ok := c.cached(ctx, key); ok {
		return padQuestions(splitLines(cached))
	}

	text, err := c.Generate(ctx, questionsPrompt+content)
	if err != nil {
		log.Printf("Error generating questions: %v", err)
		return fallbackQuestions()
	}
	questions := padQuestions(splitLines(text))
	c.store(ctx, key, strings.Join(questions, "\n"))
	return questions
}

// Summarize возвращает краткое изложение в 2-3 предложения или пустую строку
func (c *Client) Summarize(ctx context.Context, content string) string {
	if strings.TrimSpace(content) == "" || !c.Configured() {
		return ""
	}
	key := cacheKey("summary", content)
	if cached, ok := c.cached(ctx, key); ok {
		return cached
	}

	text, err := c.Generate(ctx, summaryPrompt+content)
	if err != nil {
		log.Printf("Error generating summary: %v", err)
		return ""
	}
	summary := strings.TrimSpace(text)
	if summary != "" {
		c.store(ctx, key, summary)
	}
	return summary
}

func (c *Client) cached(ctx context.Context, key string) (string, bool) {
	if c.cache == nil {
		return "", false
	}
	return c.cache.Get(ctx, key)
}

func (c *Client) store(ctx context.Context, key, value string) {
	if c.cache != nil {
		c.cache.Set(ctx, key, value)
	}
}

func splitLines(text string) []string {
	var out []string
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func padQuestions(questions []string) []string {
	if len(questions) > questionCount {
		questions = questions[:questionCount]
	}
	out := append([]string(nil), questions...)
	return append(out, FallbackQuestions[:questionCount-len(out)]...)
}

func fallbackQuestions() []string {
	return append([]string(nil), FallbackQuestions...)
}
