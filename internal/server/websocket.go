package server

import (
	"net/http"
	"time"

	"github.com/atikulmunna/logpage/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsMessage is the JSON frame sent to live page clients.
type wsMessage struct {
	Source     string `json:"source"`
	HTML       string `json:"html,omitempty"`
	RenderedAt string `json:"rendered_at"`
	Error      string `json:"error,omitempty"`
}

func newWSMessage(ex model.Excerpt) wsMessage {
	return wsMessage{
		Source:     ex.Source,
		HTML:       ex.HTML,
		RenderedAt: ex.RenderedAt.Format(time.RFC3339),
		Error:      ex.Err,
	}
}

// handleWebSocket sends a fresh render on connect, then every hub update.
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	first, err := s.render()
	if err != nil {
		first = model.Excerpt{Source: s.opts.Source, RenderedAt: time.Now().UTC(), Err: err.Error()}
	}
	if err := conn.WriteJSON(newWSMessage(first)); err != nil {
		s.log.Debug("websocket write failed", zap.Error(err))
		return
	}

	if s.opts.Hub == nil {
		return
	}
	id, updates := s.opts.Hub.Subscribe()
	defer s.opts.Hub.Unsubscribe(id)

	// Read pump: detect client disconnect.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			return
		case ex, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(newWSMessage(ex)); err != nil {
				s.log.Debug("websocket write failed", zap.Error(err))
				return
			}
		}
	}
}
