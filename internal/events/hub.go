package events

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/MosinFAM/smart-feed/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Типы событий ленты
const (
	PostCreated  = "post_created"
	CommentAdded = "comment_added"
	ReplyAdded   = "reply_added"
	FileAttached = "file_attached"
)

// Event - изменение ленты, которое получают подписчики
type Event struct {
	ID           string          `json:"id"`
	Type         string          `json:"type"`
	PostID       string          `json:"postId"`
	CommentIndex *int            `json:"commentIndex,omitempty"`
	Post         *models.Post    `json:"post,omitempty"`
	Comment      *models.Comment `json:"comment,omitempty"`
	At           time.Time       `json:"at"`
}

// Hub рассылает события подписчикам; медленный подписчик теряет событие, а не блокирует запрос
type Hub struct {
	subscriptions map[chan Event]string
	mu            sync.Mutex
}

// NewHub создает пустой хаб
func NewHub() *Hub {
	return &Hub{subscriptions: make(map[chan Event]string)}
}

// Subscribe подписка на события; пустой postID - все посты
func (h *Hub) Subscribe(postID string) (<-chan Event, func()) {
	ch := make(chan Event, 16)

	h.mu.Lock()
	h.subscriptions[ch] = postID
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subscriptions, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish отправляет событие всем подходящим подписчикам
func (h *Hub) Publish(ev Event) {
	if h == nil {
		return
	}
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch, postID := range h.subscriptions {
		if postID != "" && postID != ev.PostID {
			continue
		}
		select {
		case ch <- ev:
		default:
			log.Printf("Subscriber too slow, dropping %s event for post %s", ev.Type, ev.PostID)
		}
	}
}

// Subscribers возвращает число активных подписок
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscriptions)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ServeWS переводит запрос в websocket и пишет события как JSON.
// Query-параметр post_id ограничивает поток одним постом.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	events, cancel := h.Subscribe(r.URL.Query().Get("post_id"))
	defer cancel()

	// Читаем только чтобы заметить закрытие соединения клиентом
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(ev); err != nil {
				log.Printf("WebSocket write failed: %v", err)
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		}
	}
}
