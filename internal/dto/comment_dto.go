package dto

import (
	"strings"
	"time"

	"github.com/noah-isme/comics-comments-api/internal/models"
)

// CommentListQuery scopes a comment listing to a series and optionally a chapter.
type CommentListQuery struct {
	SeriesID  string  `query:"seriesId" validate:"required,max=64"`
	ChapterID *string `query:"chapterId" validate:"omitempty,max=64"`
}

// CommentCreateRequest is the body accepted when posting a comment or reply.
type CommentCreateRequest struct {
	SeriesID  string  `json:"seriesId" validate:"required,max=64"`
	ChapterID *string `json:"chapterId" validate:"omitempty,max=64"`
	Content   string  `json:"content" validate:"required"`
	ParentID  *string `json:"parentId" validate:"omitempty,max=36"`
}

// Normalize turns empty optional identifiers into nil, matching "absent".
func (r *CommentCreateRequest) Normalize() {
	r.SeriesID = strings.TrimSpace(r.SeriesID)
	r.ChapterID = NormalizeOptional(r.ChapterID)
	r.ParentID = NormalizeOptional(r.ParentID)
}

// CommentDeleteRequest is the body accepted when deleting a comment.
type CommentDeleteRequest struct {
	CommentID string `json:"commentId" validate:"required,max=36"`
}

// CommentActor describes who is asking to mutate a comment.
type CommentActor struct {
	UserID  string
	IsAdmin bool
}

// CommentResponse is the serialized comment row. Replies is only set on
// listings, so freshly written rows omit the key entirely.
type CommentResponse struct {
	ID           string             `json:"id"`
	SeriesID     string             `json:"series_id"`
	ChapterID    *string            `json:"chapter_id"`
	AuthorID     string             `json:"author_id"`
	AuthorName   string             `json:"author_name"`
	AuthorHandle *string            `json:"author_handle"`
	Content      string             `json:"content"`
	CreatedAt    time.Time          `json:"created_at"`
	ParentID     *string            `json:"parent_id"`
	Replies      *[]CommentResponse `json:"replies,omitempty"`
}

// NewCommentResponse converts a model into its wire representation.
func NewCommentResponse(model models.Comment) CommentResponse {
	return CommentResponse{
		ID:           model.ID,
		SeriesID:     model.SeriesID,
		ChapterID:    model.ChapterID,
		AuthorID:     model.AuthorID,
		AuthorName:   model.AuthorName,
		AuthorHandle: model.AuthorHandle,
		Content:      model.Content,
		CreatedAt:    model.CreatedAt,
		ParentID:     model.ParentID,
	}
}

// NewCommentResponseWithReplies converts a top-level comment together with its replies.
func NewCommentResponseWithReplies(model models.Comment, replies []models.Comment) CommentResponse {
	response := NewCommentResponse(model)
	items := NewCommentResponseSlice(replies)
	response.Replies = &items
	return response
}

// NewCommentResponseSlice converts a slice of models into DTOs.
func NewCommentResponseSlice(items []models.Comment) []CommentResponse {
	out := make([]CommentResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewCommentResponse(item))
	}
	return out
}

// Comment event types pushed to stream subscribers.
const (
	CommentEventCreated = "comment.created"
	CommentEventDeleted = "comment.deleted"
)

// CommentEvent is broadcast to stream subscribers of a series/chapter scope.
type CommentEvent struct {
	Type      string           `json:"type"`
	SeriesID  string           `json:"series_id"`
	ChapterID *string          `json:"chapter_id"`
	CommentID string           `json:"comment_id"`
	Comment   *CommentResponse `json:"comment,omitempty"`
}

// LegacyImportReport summarizes a legacy table import.
type LegacyImportReport struct {
	Scanned  int `json:"scanned"`
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// NormalizeOptional trims an optional string and maps blank values to nil.
func NormalizeOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
