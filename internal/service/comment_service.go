package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/comics-comments-api/internal/dto"
	"github.com/noah-isme/comics-comments-api/internal/models"
	"github.com/noah-isme/comics-comments-api/internal/observability"
	"github.com/noah-isme/comics-comments-api/internal/repository"
	"github.com/noah-isme/comics-comments-api/internal/utils"
)

var (
	// ErrCommentNotFound indicates the target comment does not exist.
	ErrCommentNotFound = errors.New("comment not found")
	// ErrParentNotFound indicates a reply referenced a missing parent.
	ErrParentNotFound = errors.New("parent comment not found")
	// ErrCommentForbidden indicates the actor is neither the author nor an admin.
	ErrCommentForbidden = errors.New("only the author or an admin can delete this comment")
	// ErrEmptyContent indicates the content was empty once sanitized.
	ErrEmptyContent = errors.New("comment content empty after sanitization")
	// ErrInvalidComment wraps payload validation failures.
	ErrInvalidComment = errors.New("invalid comment payload")
)

const defaultListCacheTTL = 30 * time.Second

// CommentService exposes the comment use-cases behind the HTTP handler.
type CommentService interface {
	List(ctx context.Context, query dto.CommentListQuery) ([]dto.CommentResponse, error)
	Get(ctx context.Context, id string) (dto.CommentResponse, error)
	Create(ctx context.Context, author models.AuthorSource, payload dto.CommentCreateRequest) (dto.CommentResponse, error)
	Delete(ctx context.Context, actor dto.CommentActor, id string) error
}

// CommentServiceConfig tunes the optional list cache.
type CommentServiceConfig struct {
	Cache    *redis.Client
	CacheTTL time.Duration
}

type commentService struct {
	repo      repository.CommentRepository
	events    CommentEventPublisher
	cache     *redis.Client
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
	names     *bluemonday.Policy
}

// NewCommentService constructs the comment service. A nil events publisher disables events.
func NewCommentService(repo repository.CommentRepository, events CommentEventPublisher, cfg CommentServiceConfig, validate *validator.Validate, logger zerolog.Logger) CommentService {
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = defaultListCacheTTL
	}
	if validate == nil {
		validate = validator.New(validator.WithRequiredStructEnabled())
	}

	return &commentService{
		repo:      repo,
		events:    events,
		cache:     cfg.Cache,
		cacheTTL:  ttl,
		validator: validate,
		logger:    logger.With().Str("component", "comment_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/comics-comments-api/internal/service/comment"),
		names:     bluemonday.StrictPolicy(),
	}
}

func (s *commentService) List(ctx context.Context, query dto.CommentListQuery) ([]dto.CommentResponse, error) {
	query.SeriesID = strings.TrimSpace(query.SeriesID)
	query.ChapterID = dto.NormalizeOptional(query.ChapterID)
	if err := s.validator.Struct(query); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidComment, err)
	}

	ctx, span := s.tracer.Start(ctx, "comments.list", trace.WithAttributes(scopeAttributes(query.SeriesID, query.ChapterID)...))
	defer span.End()

	cacheKey := listCacheKey(query.SeriesID, query.ChapterID)
	if cached, ok := s.readListCache(ctx, cacheKey); ok {
		span.SetAttributes(attribute.Bool("comments.cache_hit", true))
		return cached, nil
	}

	scope := repository.CommentScope{SeriesID: query.SeriesID, ChapterID: query.ChapterID}
	topLevel, err := s.repo.ListTopLevel(ctx, scope, repository.MaxTopLevelComments)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list top-level comments")
		return nil, err
	}

	parentIDs := make([]string, 0, len(topLevel))
	for _, comment := range topLevel {
		parentIDs = append(parentIDs, comment.ID)
	}

	replies, err := s.repo.ListReplies(ctx, parentIDs, repository.MaxRepliesPerParent)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list replies")
		return nil, err
	}

	responses := make([]dto.CommentResponse, 0, len(topLevel))
	for _, comment := range topLevel {
		responses = append(responses, dto.NewCommentResponseWithReplies(comment, replies[comment.ID]))
	}

	s.writeListCache(ctx, cacheKey, responses)
	span.SetAttributes(attribute.Int("comments.count", len(responses)))

	return responses, nil
}

func (s *commentService) Get(ctx context.Context, id string) (dto.CommentResponse, error) {
	comment, err := s.repo.Get(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CommentResponse{}, ErrCommentNotFound
		}
		return dto.CommentResponse{}, err
	}

	replies, err := s.repo.ListReplies(ctx, []string{comment.ID}, repository.MaxRepliesPerParent)
	if err != nil {
		return dto.CommentResponse{}, err
	}
	return dto.NewCommentResponseWithReplies(comment, replies[comment.ID]), nil
}

func (s *commentService) Create(ctx context.Context, author models.AuthorSource, payload dto.CommentCreateRequest) (dto.CommentResponse, error) {
	payload.Normalize()
	if err := s.validator.Struct(payload); err != nil {
		return dto.CommentResponse{}, fmt.Errorf("%w: %v", ErrInvalidComment, err)
	}

	content := utils.SanitizeComment(payload.Content)
	if content == "" {
		return dto.CommentResponse{}, ErrEmptyContent
	}

	resolved := s.resolveAuthor(author)
	if resolved.ID == "" {
		return dto.CommentResponse{}, fmt.Errorf("%w: author id missing", ErrInvalidComment)
	}

	attrs := append(scopeAttributes(payload.SeriesID, payload.ChapterID),
		attribute.String("comments.author_kind", string(resolved.Kind)),
		attribute.Bool("comments.reply", payload.ParentID != nil),
	)
	ctx, span := s.tracer.Start(ctx, "comments.create", trace.WithAttributes(attrs...))
	defer span.End()

	var parent *models.Comment
	if payload.ParentID != nil {
		found, err := s.repo.Get(ctx, *payload.ParentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.CommentResponse{}, ErrParentNotFound
			}
			span.RecordError(err)
			return dto.CommentResponse{}, err
		}
		parent = &found
	}

	comment := models.Comment{
		SeriesID:  payload.SeriesID,
		ChapterID: payload.ChapterID,
		Content:   content,
		ParentID:  payload.ParentID,
	}
	comment.ApplyAuthor(resolved)

	if err := s.repo.Create(ctx, &comment); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert comment")
		return dto.CommentResponse{}, err
	}

	stored, err := s.repo.Get(ctx, comment.ID)
	if err != nil {
		s.logger.Warn().Err(err).Str("comment_id", comment.ID).Msg("failed to reload created comment")
		stored = comment
	}

	kind := "comment"
	if stored.IsReply() {
		kind = "reply"
	}
	observability.CommentsCreated().WithLabelValues(kind).Inc()

	s.invalidate(ctx, stored, parent)

	response := dto.NewCommentResponse(stored)
	s.publish(ctx, dto.CommentEvent{
		Type:      dto.CommentEventCreated,
		SeriesID:  stored.SeriesID,
		ChapterID: stored.ChapterID,
		CommentID: stored.ID,
		Comment:   &response,
	})

	s.logger.Info().
		Str("comment_id", stored.ID).
		Str("series_id", stored.SeriesID).
		Str("author_id", stored.AuthorID).
		Bool("reply", stored.IsReply()).
		Msg("comment created")

	return response, nil
}

func (s *commentService) Delete(ctx context.Context, actor dto.CommentActor, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: comment id missing", ErrInvalidComment)
	}

	ctx, span := s.tracer.Start(ctx, "comments.delete", trace.WithAttributes(
		attribute.String("comments.id", id),
		attribute.Bool("comments.admin", actor.IsAdmin),
	))
	defer span.End()

	comment, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		span.RecordError(err)
		return err
	}

	owner := isOwner(comment, actor.UserID)
	if !actor.IsAdmin && !owner {
		return ErrCommentForbidden
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete comment")
		return err
	}

	by := "owner"
	if actor.IsAdmin && !owner {
		by = "admin"
	}
	observability.CommentsDeleted().WithLabelValues(by).Inc()

	var parent *models.Comment
	if comment.IsReply() {
		if found, err := s.repo.Get(ctx, *comment.ParentID); err == nil {
			parent = &found
		}
	}
	s.invalidate(ctx, comment, parent)

	s.publish(ctx, dto.CommentEvent{
		Type:      dto.CommentEventDeleted,
		SeriesID:  comment.SeriesID,
		ChapterID: comment.ChapterID,
		CommentID: comment.ID,
	})

	s.logger.Info().
		Str("comment_id", comment.ID).
		Str("deleted_by", by).
		Msg("comment deleted")

	return nil
}

// resolveAuthor strips markup from identity-provider display names before resolution.
func (s *commentService) resolveAuthor(author models.AuthorSource) models.ResolvedAuthor {
	if user, ok := author.(models.IdentityProviderUser); ok {
		user.FullName = strings.TrimSpace(s.names.Sanitize(user.FullName))
		return user.Resolve()
	}
	return author.Resolve()
}

func isOwner(comment models.Comment, userID string) bool {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false
	}
	return comment.AuthorKind == models.AuthorKindIdentityProvider && comment.AuthorID == userID
}

func (s *commentService) readListCache(ctx context.Context, key string) ([]dto.CommentResponse, bool) {
	if s.cache == nil {
		return nil, false
	}

	cached, err := s.cache.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Str("key", key).Msg("failed to read comment list cache")
			observability.ListCache().WithLabelValues("error").Inc()
		} else {
			observability.ListCache().WithLabelValues("miss").Inc()
		}
		return nil, false
	}

	var responses []dto.CommentResponse
	if err := json.Unmarshal([]byte(cached), &responses); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("discarding malformed comment list cache entry")
		observability.ListCache().WithLabelValues("miss").Inc()
		return nil, false
	}

	observability.ListCache().WithLabelValues("hit").Inc()
	return responses, true
}

func (s *commentService) writeListCache(ctx context.Context, key string, responses []dto.CommentResponse) {
	if s.cache == nil {
		return
	}

	payload, err := json.Marshal(responses)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to cache comment list")
	}
}

// invalidate drops the cached listing of the comment's scope and, for replies,
// of the scope the parent is listed under.
func (s *commentService) invalidate(ctx context.Context, comment models.Comment, parent *models.Comment) {
	if s.cache == nil {
		return
	}

	keys := []string{listCacheKey(comment.SeriesID, comment.ChapterID)}
	if parent != nil {
		if key := listCacheKey(parent.SeriesID, parent.ChapterID); key != keys[0] {
			keys = append(keys, key)
		}
	}

	if err := s.cache.Del(ctx, keys...).Err(); err != nil {
		s.logger.Warn().Err(err).Strs("keys", keys).Msg("failed to invalidate comment list cache")
	}
}

func (s *commentService) publish(ctx context.Context, event dto.CommentEvent) {
	if s.events == nil {
		return
	}
	s.events.Publish(ctx, event)
}

func listCacheKey(seriesID string, chapterID *string) string {
	chapter := "-"
	if chapterID != nil {
		chapter = *chapterID
	}
	return fmt.Sprintf("comments:list:v1:%s:%s", seriesID, chapter)
}

func scopeAttributes(seriesID string, chapterID *string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String("comments.series_id", seriesID)}
	if chapterID != nil {
		attrs = append(attrs, attribute.String("comments.chapter_id", *chapterID))
	}
	return attrs
}
