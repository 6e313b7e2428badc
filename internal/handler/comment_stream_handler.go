package handler

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/comics-comments-api/internal/service"
)

const (
	streamPingInterval = 30 * time.Second
	streamWriteTimeout = 10 * time.Second
)

// CommentStreamHandler pushes comment events of one series/chapter scope over a websocket.
type CommentStreamHandler struct {
	hub    service.CommentEventHub
	logger zerolog.Logger
}

// NewCommentStreamHandler constructs the stream handler.
func NewCommentStreamHandler(hub service.CommentEventHub, logger zerolog.Logger) *CommentStreamHandler {
	return &CommentStreamHandler{
		hub:    hub,
		logger: logger.With().Str("component", "comment_stream_handler").Logger(),
	}
}

// Register binds the stream route. It must be registered before routes with a path parameter.
func (h *CommentStreamHandler) Register(router fiber.Router) {
	router.Use("/stream", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		if strings.TrimSpace(c.Query("seriesId")) == "" {
			return fiber.NewError(fiber.StatusBadRequest, msgSeriesRequired)
		}
		return c.Next()
	})

	router.Get("/stream", websocket.New(h.handleConnection))
}

func (h *CommentStreamHandler) handleConnection(conn *websocket.Conn) {
	seriesID := strings.TrimSpace(conn.Query("seriesId"))
	var chapterID *string
	if chapter := strings.TrimSpace(conn.Query("chapterId")); chapter != "" {
		chapterID = &chapter
	}

	correlation, _ := conn.Locals("correlation_id").(string)
	log := h.logger.With().
		Str("series_id", seriesID).
		Str("scope", service.ScopeKey(seriesID, chapterID)).
		Str("correlation_id", correlation).
		Logger()

	events, cleanup := h.hub.Subscribe(seriesID, chapterID)
	defer cleanup()

	log.Info().Msg("comment stream connected")
	defer log.Info().Msg("comment stream disconnected")

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(streamPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := conn.WriteJSON(event); err != nil {
				log.Debug().Err(err).Msg("comment stream write failed")
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteTimeout)); err != nil {
				return
			}
		}
	}
}
