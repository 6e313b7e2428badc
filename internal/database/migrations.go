package database

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/comics-comments-api/internal/models"
)

// Migration is one versioned, forward-only schema step.
type Migration struct {
	Version int
	Name    string
	Up      func(tx *gorm.DB) error
}

// SchemaMigration records an applied migration.
type SchemaMigration struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255;not null"`
	AppliedAt time.Time `gorm:"not null"`
}

// TableName pins the bookkeeping table name.
func (SchemaMigration) TableName() string {
	return "schema_migrations"
}

// Migrations returns the ordered schema history of the comments store.
func Migrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_comments",
			Up: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.Comment{})
			},
		},
		{
			Version: 2,
			Name:    "comment_listing_indexes",
			Up: func(tx *gorm.DB) error {
				statements := []string{
					"CREATE INDEX IF NOT EXISTS idx_comments_scope_created ON comments (series_id, chapter_id, created_at)",
					"CREATE INDEX IF NOT EXISTS idx_comments_parent_created ON comments (parent_id, created_at)",
				}
				for _, statement := range statements {
					if err := tx.Exec(statement).Error; err != nil {
						return err
					}
				}
				return nil
			},
		},
	}
}

// Migrate applies every pending migration in version order, each inside its
// own transaction, and returns the versions it applied.
func Migrate(ctx context.Context, db *gorm.DB, logger zerolog.Logger) ([]int, error) {
	return runMigrations(ctx, db, Migrations(), logger)
}

func runMigrations(ctx context.Context, db *gorm.DB, migrations []Migration, logger zerolog.Logger) ([]int, error) {
	db = db.WithContext(ctx)
	if err := db.AutoMigrate(&SchemaMigration{}); err != nil {
		return nil, fmt.Errorf("prepare schema_migrations: %w", err)
	}

	var applied []SchemaMigration
	if err := db.Find(&applied).Error; err != nil {
		return nil, fmt.Errorf("load applied migrations: %w", err)
	}
	done := make(map[int]struct{}, len(applied))
	for _, item := range applied {
		done[item.Version] = struct{}{}
	}

	ordered := append([]Migration(nil), migrations...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Version < ordered[j].Version })

	var versions []int
	for _, migration := range ordered {
		if _, ok := done[migration.Version]; ok {
			continue
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			if err := migration.Up(tx); err != nil {
				return err
			}
			return tx.Create(&SchemaMigration{
				Version:   migration.Version,
				Name:      migration.Name,
				AppliedAt: time.Now().UTC(),
			}).Error
		})
		if err != nil {
			return versions, fmt.Errorf("migration %d (%s): %w", migration.Version, migration.Name, err)
		}

		logger.Info().Int("version", migration.Version).Str("name", migration.Name).Msg("migration applied")
		versions = append(versions, migration.Version)
	}

	return versions, nil
}
