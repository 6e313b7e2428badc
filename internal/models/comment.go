package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Comment is a reader comment on a series or on one of its chapters. Rows with
// a ParentID are replies and are only ever one level deep.
type Comment struct {
	ID           string            `gorm:"type:varchar(36);primaryKey" json:"id"`
	SeriesID     string            `gorm:"size:64;not null;index:idx_comments_series_id" json:"series_id"`
	ChapterID    *string           `gorm:"size:64;index:idx_comments_chapter_id" json:"chapter_id"`
	AuthorKind   AuthorKind        `gorm:"size:32;not null" json:"author_kind"`
	AuthorID     string            `gorm:"size:64;not null;index:idx_comments_author_id" json:"author_id"`
	AuthorName   string            `gorm:"size:255;not null" json:"author_name"`
	AuthorHandle *string           `gorm:"size:255" json:"author_handle"`
	AuthorEmail  *string           `gorm:"size:255" json:"-"`
	AuthorMeta   datatypes.JSONMap `gorm:"type:json" json:"-"`
	Content      string            `gorm:"type:text;not null" json:"content"`
	CreatedAt    time.Time         `gorm:"not null" json:"created_at"`
	ParentID     *string           `gorm:"type:varchar(36);index:idx_comments_parent_id" json:"parent_id"`
	Replies      []Comment         `gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName pins the table name used by migrations and raw queries.
func (Comment) TableName() string {
	return "comments"
}

// BeforeCreate assigns a UUID when the caller did not supply one.
func (c *Comment) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// IsReply reports whether the comment hangs below another comment.
func (c Comment) IsReply() bool {
	return c.ParentID != nil && *c.ParentID != ""
}

// ApplyAuthor copies a resolved author onto the comment row.
func (c *Comment) ApplyAuthor(author ResolvedAuthor) {
	c.AuthorKind = author.Kind
	c.AuthorID = author.ID
	c.AuthorName = author.Name
	c.AuthorHandle = author.Handle
	c.AuthorEmail = author.Email
	if len(author.Meta) > 0 {
		c.AuthorMeta = datatypes.JSONMap(author.Meta)
	}
}
