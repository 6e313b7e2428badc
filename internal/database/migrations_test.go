package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/comics-comments-api/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	return db
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	applied, err := Migrate(ctx, db, zerolog.Nop())
	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, applied)
	require.True(t, db.Migrator().HasTable(&models.Comment{}))
	require.True(t, db.Migrator().HasIndex(&models.Comment{}, "idx_comments_parent_created"))

	applied, err = Migrate(ctx, db, zerolog.Nop())
	require.NoError(t, err)
	require.Empty(t, applied)

	var count int64
	require.NoError(t, db.Model(&SchemaMigration{}).Count(&count).Error)
	require.Equal(t, int64(2), count)
}

func TestMigrateStopsAtFailingStep(t *testing.T) {
	db := openTestDB(t)
	steps := []Migration{
		{Version: 2, Name: "broken", Up: func(tx *gorm.DB) error { return errors.New("boom") }},
		{Version: 1, Name: "ok", Up: func(tx *gorm.DB) error { return nil }},
	}

	applied, err := runMigrations(context.Background(), db, steps, zerolog.Nop())
	require.ErrorContains(t, err, "migration 2 (broken)")
	require.Equal(t, []int{1}, applied)

	var versions []int
	require.NoError(t, db.Model(&SchemaMigration{}).Pluck("version", &versions).Error)
	require.Equal(t, []int{1}, versions)
}
