package models

import "time"

// Описание медиа или прикреплённого файла вместе с содержимым
type Artifact struct {
	Name string `json:"name" bson:"name"`
	Kind string `json:"kind" bson:"kind"`
	Data []byte `json:"data,omitempty" bson:"data,omitempty"`
}

// Модель поста в ленте
type Post struct {
	PostID             string    `json:"postId" bson:"postId"`
	Content            string    `json:"content" bson:"content"`
	Media              *Artifact `json:"media,omitempty" bson:"media,omitempty"`
	AttachedFile       *Artifact `json:"attachedFile,omitempty" bson:"attachedFile,omitempty"`
	SuggestedQuestions []string  `json:"suggestedQuestions,omitempty" bson:"suggestedQuestions,omitempty"`
	Comments           []Comment `json:"comments" bson:"comments"`
	CreatedAt          time.Time `json:"createdAt" bson:"createdAt"`
}

// AddComment добавляет комментарий в начало (newestFirst) или в конец списка
func (p *Post) AddComment(c Comment, newestFirst bool) {
	if c.Replies == nil {
		c.Replies = []string{}
	}
	if newestFirst {
		p.Comments = append([]Comment{c}, p.Comments...)
		return
	}
	p.Comments = append(p.Comments, c)
}

// Clone возвращает глубокую копию поста, чтобы вызывающий код не менял хранилище напрямую
func (p Post) Clone() Post {
	out := p
	out.Media = p.Media.clone()
	out.AttachedFile = p.AttachedFile.clone()
	if p.SuggestedQuestions != nil {
		out.SuggestedQuestions = append([]string(nil), p.SuggestedQuestions...)
	}
	out.Comments = make([]Comment, len(p.Comments))
	for i, c := range p.Comments {
		c.Replies = append([]string{}, c.Replies...)
		if c.Answer != nil {
			a := *c.Answer
			c.Answer = &a
		}
		out.Comments[i] = c
	}
	return out
}

// WithoutData - копия поста без содержимого медиа и файла
func (p Post) WithoutData() Post {
	out := p.Clone()
	if out.Media != nil {
		out.Media.Data = nil
	}
	if out.AttachedFile != nil {
		out.AttachedFile.Data = nil
	}
	return out
}

func (a *Artifact) clone() *Artifact {
	if a == nil {
		return nil
	}
	out := *a
	out.Data = append([]byte(nil), a.Data...)
	return &out
}
