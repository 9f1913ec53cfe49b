package models

import "time"

// Статус ответа AI, сохраняемый вместе с комментарием
const (
	AnswerOK          = "ok"
	AnswerUnavailable = "unavailable"
	AnswerFailed      = "failed"
)

// Модель комментария к посту: вопрос пользователя, ответ AI и ответы пользователей
type Comment struct {
	ID           string    `json:"id" bson:"id"`
	Question     string    `json:"question" bson:"question"`
	Answer       *string   `json:"answer,omitempty" bson:"answer,omitempty"`
	AnswerStatus string    `json:"answerStatus,omitempty" bson:"answerStatus,omitempty"`
	Replies      []string  `json:"replies" bson:"replies"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}

// AddReply добавляет ответ в начало (newestFirst) или в конец списка
func (c *Comment) AddReply(text string, newestFirst bool) {
	if newestFirst {
		c.Replies = append([]string{text}, c.Replies...)
		return
	}
	c.Replies = append(c.Replies, text)
}
