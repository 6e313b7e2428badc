package repository

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/comics-comments-api/internal/models"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// LegacyCommentRow is a row of the ad-hoc table the comments endpoint used to
// create on the fly, with author columns from both identity sources.
type LegacyCommentRow struct {
	ID               string
	SeriesID         string
	ChapterID        *string
	TelegramID       *int64
	TelegramUsername *string
	TelegramName     *string
	UserID           *string
	UserEmail        *string
	UserName         *string
	Content          string
	CreatedAt        time.Time
	ParentID         *string
}

// LegacyCommentRepository reads the legacy table and writes normalized rows.
type LegacyCommentRepository interface {
	ListLegacy(ctx context.Context, table string) ([]LegacyCommentRow, error)
	InsertIfAbsent(ctx context.Context, comment *models.Comment) (bool, error)
}

type legacyCommentRepository struct {
	db *gorm.DB
}

// NewLegacyCommentRepository constructs a GORM-backed legacy repository.
func NewLegacyCommentRepository(db *gorm.DB) LegacyCommentRepository {
	return &legacyCommentRepository{db: db}
}

// ListLegacy returns every legacy row, top-level comments first and oldest first
// within each group, so parents are always imported before their replies.
func (r *legacyCommentRepository) ListLegacy(ctx context.Context, table string) ([]LegacyCommentRow, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid legacy table name %q", table)
	}

	query := fmt.Sprintf(`SELECT CAST(id AS TEXT) AS id,
		CAST(series_id AS TEXT) AS series_id,
		CAST(chapter_id AS TEXT) AS chapter_id,
		telegram_id,
		telegram_username,
		telegram_name,
		CAST(user_id AS TEXT) AS user_id,
		user_email,
		user_name,
		content,
		created_at,
		CAST(parent_id AS TEXT) AS parent_id
	FROM %s
	ORDER BY CASE WHEN parent_id IS NULL THEN 0 ELSE 1 END, created_at ASC`, table)

	var rows []LegacyCommentRow
	if err := r.db.WithContext(ctx).Raw(query).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *legacyCommentRepository) InsertIfAbsent(ctx context.Context, comment *models.Comment) (bool, error) {
	result := r.db.WithContext(ctx).
		Omit("Replies").
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(comment)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
