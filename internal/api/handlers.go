package api

import (
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/MosinFAM/smart-feed/internal/events"
	"github.com/MosinFAM/smart-feed/internal/extract"
	"github.com/MosinFAM/smart-feed/internal/feed"
	"github.com/MosinFAM/smart-feed/internal/graph"
	"github.com/MosinFAM/smart-feed/internal/models"
	"github.com/MosinFAM/smart-feed/internal/share"
	"github.com/MosinFAM/smart-feed/internal/storage"

	"github.com/gin-gonic/gin"
)

// MaxUploadSize - предел размера медиа и прикреплённых файлов
const MaxUploadSize = 20 << 20

var errTooLarge = errors.New("file is too large")

// Handler - HTTP-обработчики ленты
type Handler struct {
	Feed    *feed.Controller
	Hub     *events.Hub
	BaseURL string
}

type questionRequest struct {
	Question string `json:"question" form:"question" binding:"required"`
}

// CommentID - ID комментария, который видел клиент; если задан, важнее индекса в пути
type replyRequest struct {
	Reply     string `json:"reply" form:"reply" binding:"required"`
	CommentID string `json:"commentId" form:"commentId"`
}

// Health - проверка живости
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now(),
	})
}

// ListPosts возвращает ленту; ?post_id=X помечает пост для подсветки
func (h *Handler) ListPosts(c *gin.Context) {
	posts, err := h.Feed.Posts()
	if err != nil {
		respondError(c, err)
		return
	}
	highlight := c.Query(share.QueryParam)
	views := make([]postView, 0, len(posts))
	for _, p := range posts {
		views = append(views, toView(p, highlight))
	}
	c.JSON(http.StatusOK, gin.H{
		"count":       len(views),
		"highlighted": highlight,
		"posts":       views,
	})
}

// GetPost возвращает один пост
func (h *Handler) GetPost(c *gin.Context) {
	post, err := h.Feed.Post(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toView(*post, ""))
}

// GetMedia отдаёт медиа поста как есть
func (h *Handler) GetMedia(c *gin.Context) {
	post, err := h.Feed.Post(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if post.Media == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "post has no media"})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", post.Media.Name))
	c.Data(http.StatusOK, post.Media.Kind, post.Media.Data)
}

// CreatePost принимает multipart-форму: content и необязательный файл media
func (h *Handler) CreatePost(c *gin.Context) {
	draft := feed.Draft{Content: c.PostForm("content")}

	if fh, err := c.FormFile("media"); err == nil {
		media, err := readUpload(fh)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		draft.Media = media
	} else if !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, decision, err := h.Feed.CreatePost(c.Request.Context(), draft)
	if errors.Is(err, feed.ErrRejected) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "Post considered absurd by AI.",
			"reason": decision.Reason,
			"score":  decision.Score,
		})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Post created successfully!",
		"post":    toView(post, ""),
	})
}

// AttachFile прикрепляет файл для чтения моделью
func (h *Handler) AttachFile(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	file, err := readUpload(fh)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	post, err := h.Feed.AttachFile(c.Request.Context(), c.Param("id"), *file)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toView(*post, ""))
}

// AskQuestion задаёт вопрос модели о посте
func (h *Handler) AskQuestion(c *gin.Context) {
	var req questionRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": feed.ErrBlankQuestion.Error()})
		return
	}
	comment, err := h.Feed.AskQuestion(c.Request.Context(), c.Param("id"), req.Question)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// AddReply добавляет ответ к комментарию
func (h *Handler) AddReply(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "comment index must be a number"})
		return
	}
	var req replyRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": feed.ErrBlankReply.Error()})
		return
	}
	ref := storage.CommentRef{Index: index, ID: req.CommentID}
	comment, err := h.Feed.AddReply(c.Request.Context(), c.Param("id"), ref, req.Reply)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// Query выполняет GraphQL-запрос на чтение ленты
func (h *Handler) Query(c *gin.Context) {
	var req graph.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []gin.H{{"message": "query is required"}}})
		return
	}
	resp := graph.NewResolver(h.Feed).Execute(c.Request.Context(), req)
	if resp.Data == nil {
		c.JSON(http.StatusUnprocessableEntity, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Summary возвращает краткое изложение поста
func (h *Handler) Summary(c *gin.Context) {
	summary, err := h.Feed.Summarize(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"postId": c.Param("id"), "summary": summary})
}

// Share возвращает ссылку на пост и готовые ссылки для мессенджера и почты
func (h *Handler) Share(c *gin.Context) {
	post, err := h.Feed.Post(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	links, err := share.For(h.BaseURL, post.PostID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, links)
}

// QRCode отдаёт PNG с QR-кодом ссылки на пост
func (h *Handler) QRCode(c *gin.Context) {
	post, err := h.Feed.Post(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	link, err := share.DeepLink(h.BaseURL, post.PostID)
	if err != nil {
		respondError(c, err)
		return
	}
	png, err := share.QRCode(link)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// Events - websocket с событиями ленты
func (h *Handler) Events(c *gin.Context) {
	h.Hub.ServeWS(c.Writer, c.Request)
}

func readUpload(fh *multipart.FileHeader) (*models.Artifact, error) {
	if fh.Size > MaxUploadSize {
		return nil, errTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxUploadSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxUploadSize {
		return nil, errTooLarge
	}

	kind := extract.NormalizeKind(fh.Header.Get("Content-Type"))
	if kind == "" || kind == "application/octet-stream" {
		kind = extract.DetectKind(data)
	}
	return &models.Artifact{Name: fh.Filename, Kind: kind, Data: data}, nil
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, storage.ErrPostNotFound), errors.Is(err, storage.ErrCommentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, feed.ErrEmptyPost), errors.Is(err, feed.ErrBlankQuestion),
		errors.Is(err, feed.ErrBlankReply), errors.Is(err, feed.ErrEmptyFile):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Printf("Request %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
