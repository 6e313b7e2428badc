package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/comics-comments-api/internal/dto"
	"github.com/noah-isme/comics-comments-api/internal/observability"
)

const (
	commentEventBufferSize = 16
	// Envelope ids remembered per node; covers an event arriving over both transports.
	seenEnvelopeLimit = 1024
)

// CommentEventPublisher is the subset of the event hub the comment service needs.
type CommentEventPublisher interface {
	Publish(ctx context.Context, event dto.CommentEvent)
}

// CommentEventHub fans comment events out to local stream subscribers and,
// when configured, to other API instances over Redis pub/sub and NATS.
type CommentEventHub interface {
	CommentEventPublisher
	Subscribe(seriesID string, chapterID *string) (<-chan dto.CommentEvent, func())
	Start(ctx context.Context)
}

type commentEventHub struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	logger       zerolog.Logger
	broker       *commentBroker
	nodeID       string
	seen         *envelopeLog
}

type commentEnvelope struct {
	ID     string           `json:"id"`
	Source string           `json:"source"`
	Event  dto.CommentEvent `json:"event"`
	SentAt time.Time        `json:"sent_at"`
}

// envelopeLog remembers the most recent envelope ids in arrival order.
type envelopeLog struct {
	mu    sync.Mutex
	ids   map[string]struct{}
	order []string
	limit int
}

type commentBroker struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan dto.CommentEvent]struct{}
}

// NewCommentEventHub constructs an event hub. Nil clients disable the matching transport.
func NewCommentEventHub(redisClient *redis.Client, natsConn *nats.Conn, channelBase string, logger zerolog.Logger) CommentEventHub {
	channelBase = strings.TrimSpace(channelBase)
	channel := ""
	subject := ""
	if channelBase != "" {
		channel = channelBase + ":events"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".events"
	}

	return &commentEventHub{
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		logger:       logger.With().Str("component", "comment_events").Logger(),
		broker: &commentBroker{
			subscribers: make(map[string]map[chan dto.CommentEvent]struct{}),
		},
		nodeID: uuid.NewString(),
		seen:   newEnvelopeLog(seenEnvelopeLimit),
	}
}

// ScopeKey identifies the series/chapter listing an event belongs to.
func ScopeKey(seriesID string, chapterID *string) string {
	chapter := "-"
	if chapterID != nil && *chapterID != "" {
		chapter = *chapterID
	}
	return seriesID + "|" + chapter
}

func (h *commentEventHub) Start(ctx context.Context) {
	if h.redis != nil && h.redisChannel != "" {
		go h.consumeRedis(ctx)
	}
	if h.nats != nil && h.natsSubject != "" {
		go h.consumeNATS(ctx)
	}
}

func (h *commentEventHub) Publish(ctx context.Context, event dto.CommentEvent) {
	h.broker.broadcast(ScopeKey(event.SeriesID, event.ChapterID), event)

	if err := h.publishRemote(ctx, event); err != nil {
		h.logger.Warn().Err(err).Str("type", event.Type).Msg("failed to publish comment event")
	}
}

func (h *commentEventHub) Subscribe(seriesID string, chapterID *string) (<-chan dto.CommentEvent, func()) {
	key := ScopeKey(seriesID, chapterID)
	channel := make(chan dto.CommentEvent, commentEventBufferSize)

	h.broker.subscribe(key, channel)
	observability.StreamClients().Inc()

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			h.broker.unsubscribe(key, channel)
			observability.StreamClients().Dec()
		})
	}

	return channel, cleanup
}

func (h *commentEventHub) publishRemote(ctx context.Context, event dto.CommentEvent) error {
	if (h.redis == nil || h.redisChannel == "") && (h.nats == nil || h.natsSubject == "") {
		return nil
	}

	payload, err := json.Marshal(commentEnvelope{
		ID:     uuid.NewString(),
		Source: h.nodeID,
		Event:  event,
		SentAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	var errs []error
	if h.redis != nil && h.redisChannel != "" {
		if err := h.redis.Publish(ctx, h.redisChannel, payload).Err(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}

	if h.nats != nil && h.natsSubject != "" {
		if err := h.nats.Publish(h.natsSubject, payload); err != nil {
			errs = append(errs, fmt.Errorf("nats: %w", err))
		}
	}

	return errors.Join(errs...)
}

func (h *commentEventHub) consumeRedis(ctx context.Context) {
	pubsub := h.redis.Subscribe(ctx, h.redisChannel)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, redis.ErrClosed) {
				return
			}
			h.logger.Error().Err(err).Msg("comment event redis subscription closed")
			return
		}
		h.handleEnvelope([]byte(msg.Payload))
	}
}

func (h *commentEventHub) consumeNATS(ctx context.Context) {
	// Every instance needs every event, so this is a plain subscription, not a queue group.
	sub, err := h.nats.Subscribe(h.natsSubject, func(msg *nats.Msg) {
		h.handleEnvelope(msg.Data)
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to subscribe to nats comment events subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			h.logger.Warn().Err(err).Msg("failed to drain comment events nats subscription")
		}
	}()
}

func (h *commentEventHub) handleEnvelope(payload []byte) {
	var envelope commentEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		h.logger.Warn().Err(err).Msg("invalid comment event payload")
		return
	}

	if envelope.Source == h.nodeID {
		return
	}
	// The same envelope is published on every configured transport.
	if envelope.ID != "" && !h.seen.firstSight(envelope.ID) {
		return
	}

	event := envelope.Event
	h.broker.broadcast(ScopeKey(event.SeriesID, event.ChapterID), event)
}

func newEnvelopeLog(limit int) *envelopeLog {
	return &envelopeLog{
		ids:   make(map[string]struct{}, limit),
		order: make([]string, 0, limit),
		limit: limit,
	}
}

// firstSight records id and reports whether it had not been seen before.
func (l *envelopeLog) firstSight(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.ids[id]; ok {
		return false
	}
	if len(l.order) >= l.limit {
		oldest := l.order[0]
		l.order = l.order[1:]
		delete(l.ids, oldest)
	}
	l.ids[id] = struct{}{}
	l.order = append(l.order, id)
	return true
}

func (b *commentBroker) subscribe(key string, ch chan dto.CommentEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscribers[key]; !exists {
		b.subscribers[key] = make(map[chan dto.CommentEvent]struct{})
	}
	b.subscribers[key][ch] = struct{}{}
}

func (b *commentBroker) unsubscribe(key string, ch chan dto.CommentEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subscribers, ok := b.subscribers[key]; ok {
		if _, present := subscribers[ch]; !present {
			return
		}
		delete(subscribers, ch)
		close(ch)
		if len(subscribers) == 0 {
			delete(b.subscribers, key)
		}
	}
}

func (b *commentBroker) broadcast(key string, event dto.CommentEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers[key] {
		select {
		case ch <- event:
		default:
		}
	}
}
