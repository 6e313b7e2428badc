package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/comics-comments-api/internal/auth"
	"github.com/noah-isme/comics-comments-api/internal/dto"
	"github.com/noah-isme/comics-comments-api/internal/middleware"
	"github.com/noah-isme/comics-comments-api/internal/models"
	"github.com/noah-isme/comics-comments-api/internal/service"
	"github.com/noah-isme/comics-comments-api/internal/utils"
)

// Client-facing error messages.
const (
	msgSeriesRequired      = "seriesId is required"
	msgCreateFieldsMissing = "seriesId and content are required"
	msgEmptyComment        = "Comment cannot be empty"
	msgParentNotFound      = "Parent comment not found"
	msgCommentIDRequired   = "commentId is required"
	msgCommentNotFound     = "Comment not found"
	msgDeleteForbidden     = "You can only delete your own comments"
	msgMethodNotAllowed    = "Method not allowed"
)

// CommentHandler serves the comment endpoints.
type CommentHandler struct {
	service  service.CommentService
	identity auth.IdentityVerifier
	logger   zerolog.Logger
}

// NewCommentHandler constructs a comment handler. The identity verifier is
// used on delete to decide ownership.
func NewCommentHandler(svc service.CommentService, identity auth.IdentityVerifier, logger zerolog.Logger) *CommentHandler {
	return &CommentHandler{
		service:  svc,
		identity: identity,
		logger:   logger.With().Str("component", "comment_handler").Logger(),
	}
}

// Register binds the comment routes. writeGuards run before the create handler.
func (h *CommentHandler) Register(router fiber.Router, writeGuards ...fiber.Handler) {
	router.Get("/", h.list)
	router.Post("/", append(writeGuards, h.create)...)
	router.Delete("/", h.delete)
	router.Get("/:id", h.get)
	router.All("/", h.methodNotAllowed)
}

func (h *CommentHandler) list(c *fiber.Ctx) error {
	seriesID := strings.TrimSpace(c.Query("seriesId"))
	if seriesID == "" {
		return utils.SendError(c, fiber.StatusBadRequest, msgSeriesRequired)
	}

	query := dto.CommentListQuery{SeriesID: seriesID}
	if chapterID := strings.TrimSpace(c.Query("chapterId")); chapterID != "" {
		query.ChapterID = &chapterID
	}

	comments, err := h.service.List(c.UserContext(), query)
	if err != nil {
		if errors.Is(err, service.ErrInvalidComment) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		log := middleware.RequestLogger(c, h.logger)
		log.Error().Err(err).Str("series_id", seriesID).Msg("failed to list comments")
		return utils.SendError(c, fiber.StatusInternalServerError, err.Error())
	}

	return utils.SendData(c, comments)
}

func (h *CommentHandler) get(c *fiber.Ctx) error {
	comment, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, service.ErrCommentNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, msgCommentNotFound)
		}
		log := middleware.RequestLogger(c, h.logger)
		log.Error().Err(err).Str("comment_id", c.Params("id")).Msg("failed to load comment")
		return utils.SendError(c, fiber.StatusInternalServerError, err.Error())
	}
	return utils.SendData(c, comment)
}

func (h *CommentHandler) create(c *fiber.Ctx) error {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, middleware.MessageUnauthorized)
	}

	var payload dto.CommentCreateRequest
	if err := decodeBody(c.Body(), createCommentSchema, &payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, msgCreateFieldsMissing)
	}

	author := models.IdentityProviderUser{
		ID:       identity.ID,
		Email:    identity.Email,
		FullName: identity.FullName,
	}

	created, err := h.service.Create(c.UserContext(), author, payload)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidComment):
			return utils.SendError(c, fiber.StatusBadRequest, msgCreateFieldsMissing)
		case errors.Is(err, service.ErrEmptyContent):
			return utils.SendError(c, fiber.StatusBadRequest, msgEmptyComment)
		case errors.Is(err, service.ErrParentNotFound):
			return utils.SendError(c, fiber.StatusNotFound, msgParentNotFound)
		default:
			log := middleware.RequestLogger(c, h.logger)
			log.Error().Err(err).Str("user_id", identity.ID).Msg("failed to create comment")
			return utils.SendError(c, fiber.StatusInternalServerError, err.Error())
		}
	}

	return utils.SendDataWithStatus(c, fiber.StatusCreated, created)
}

func (h *CommentHandler) delete(c *fiber.Ctx) error {
	bearer := middleware.BearerToken(c)
	if bearer == "" && middleware.AdminCookie(c) == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, middleware.MessageUnauthorized)
	}

	var payload dto.CommentDeleteRequest
	if err := decodeBody(c.Body(), deleteCommentSchema, &payload); err != nil || strings.TrimSpace(payload.CommentID) == "" {
		return utils.SendError(c, fiber.StatusBadRequest, msgCommentIDRequired)
	}

	log := middleware.RequestLogger(c, h.logger)
	actor := dto.CommentActor{IsAdmin: middleware.IsAdmin(c)}
	if bearer != "" && h.identity != nil {
		identity, err := h.identity.Verify(c.UserContext(), bearer)
		if err != nil {
			log.Debug().Err(err).Msg("bearer rejected on delete, treating caller as non-owner")
		} else {
			actor.UserID = identity.ID
		}
	}

	if err := h.service.Delete(c.UserContext(), actor, payload.CommentID); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidComment):
			return utils.SendError(c, fiber.StatusBadRequest, msgCommentIDRequired)
		case errors.Is(err, service.ErrCommentNotFound):
			return utils.SendError(c, fiber.StatusNotFound, msgCommentNotFound)
		case errors.Is(err, service.ErrCommentForbidden):
			return utils.SendError(c, fiber.StatusForbidden, msgDeleteForbidden)
		default:
			log.Error().Err(err).Str("comment_id", payload.CommentID).Msg("failed to delete comment")
			return utils.SendError(c, fiber.StatusInternalServerError, err.Error())
		}
	}

	return utils.SendSuccess(c)
}

func (h *CommentHandler) methodNotAllowed(c *fiber.Ctx) error {
	return utils.SendError(c, fiber.StatusMethodNotAllowed, msgMethodNotAllowed)
}
