package api

import (
	"time"

	"github.com/MosinFAM/smart-feed/internal/models"
)

type artifactView struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
	Size int    `json:"size"`
	URL  string `json:"url,omitempty"`
}

// postView - пост без бинарного содержимого медиа и файлов
type postView struct {
	PostID             string           `json:"postId"`
	Content            string           `json:"content"`
	Media              *artifactView    `json:"media,omitempty"`
	AttachedFile       *artifactView    `json:"attachedFile,omitempty"`
	SuggestedQuestions []string         `json:"suggestedQuestions,omitempty"`
	Comments           []models.Comment `json:"comments"`
	CreatedAt          time.Time        `json:"createdAt"`
	Highlighted        bool             `json:"highlighted,omitempty"`
}

func toView(p models.Post, highlightID string) postView {
	v := postView{
		PostID:             p.PostID,
		Content:            p.Content,
		SuggestedQuestions: p.SuggestedQuestions,
		Comments:           p.Comments,
		CreatedAt:          p.CreatedAt,
		Highlighted:        highlightID != "" && p.PostID == highlightID,
	}
	if v.Comments == nil {
		v.Comments = []models.Comment{}
	}
	if p.Media != nil {
		v.Media = &artifactView{Name: p.Media.Name, Kind: p.Media.Kind, Size: len(p.Media.Data), URL: "/posts/" + p.PostID + "/media"}
	}
	if p.AttachedFile != nil {
		v.AttachedFile = &artifactView{Name: p.AttachedFile.Name, Kind: p.AttachedFile.Kind, Size: len(p.AttachedFile.Data)}
	}
	return v
}
