package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/comics-comments-api/internal/models"
)

// Listing caps.
const (
	MaxTopLevelComments = 100
	MaxRepliesPerParent = 50
)

// CommentScope selects the comments of a series. A nil ChapterID selects
// series-level comments only, never chapter comments.
type CommentScope struct {
	SeriesID  string
	ChapterID *string
}

// CommentRepository persists comments and their one-level replies.
type CommentRepository interface {
	ListTopLevel(ctx context.Context, scope CommentScope, limit int) ([]models.Comment, error)
	ListReplies(ctx context.Context, parentIDs []string, perParent int) (map[string][]models.Comment, error)
	Get(ctx context.Context, id string) (models.Comment, error)
	Exists(ctx context.Context, id string) (bool, error)
	Create(ctx context.Context, comment *models.Comment) error
	Delete(ctx context.Context, id string) error
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository constructs a GORM-backed repository.
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) ListTopLevel(ctx context.Context, scope CommentScope, limit int) ([]models.Comment, error) {
	if limit <= 0 || limit > MaxTopLevelComments {
		limit = MaxTopLevelComments
	}

	query := r.db.WithContext(ctx).
		Where("series_id = ?", scope.SeriesID).
		Where("parent_id IS NULL")
	if scope.ChapterID != nil {
		query = query.Where("chapter_id = ?", *scope.ChapterID)
	} else {
		query = query.Where("chapter_id IS NULL")
	}

	var comments []models.Comment
	if err := query.
		Order("created_at DESC").
		Limit(limit).
		Find(&comments).Error; err != nil {
		return nil, err
	}

	return comments, nil
}

func (r *commentRepository) ListReplies(ctx context.Context, parentIDs []string, perParent int) (map[string][]models.Comment, error) {
	grouped := make(map[string][]models.Comment, len(parentIDs))
	if len(parentIDs) == 0 {
		return grouped, nil
	}
	if perParent <= 0 || perParent > MaxRepliesPerParent {
		perParent = MaxRepliesPerParent
	}

	ranked := r.db.
		Model(&models.Comment{}).
		Select("comments.*, ROW_NUMBER() OVER (PARTITION BY parent_id ORDER BY created_at ASC, id ASC) AS reply_rank").
		Where("parent_id IN ?", parentIDs)

	var replies []models.Comment
	if err := r.db.WithContext(ctx).
		Table("(?) AS ranked", ranked).
		Where("reply_rank <= ?", perParent).
		Order("created_at ASC").
		Order("id ASC").
		Find(&replies).Error; err != nil {
		return nil, err
	}

	for _, reply := range replies {
		parentID := *reply.ParentID
		grouped[parentID] = append(grouped[parentID], reply)
	}

	return grouped, nil
}

func (r *commentRepository) Get(ctx context.Context, id string) (models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&comment).Error; err != nil {
		return models.Comment{}, err
	}
	return comment, nil
}

func (r *commentRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Omit("Replies").Create(comment).Error
}

// Delete removes the comment and its replies. The schema cascades as well;
// deleting replies explicitly keeps stores without enforced foreign keys consistent.
func (r *commentRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("parent_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}

		result := tx.Where("id = ?", id).Delete(&models.Comment{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
