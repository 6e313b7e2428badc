package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/comics-comments-api/internal/dto"
	"github.com/noah-isme/comics-comments-api/internal/models"
	"github.com/noah-isme/comics-comments-api/internal/repository"
	"github.com/noah-isme/comics-comments-api/internal/utils"
)

// LegacyImportService copies rows of the legacy comments table into the normalized schema.
type LegacyImportService interface {
	Import(ctx context.Context, table string) (dto.LegacyImportReport, error)
}

type legacyImportService struct {
	legacy   repository.LegacyCommentRepository
	comments repository.CommentRepository
	logger   zerolog.Logger
}

// NewLegacyImportService constructs the legacy importer.
func NewLegacyImportService(legacy repository.LegacyCommentRepository, comments repository.CommentRepository, logger zerolog.Logger) LegacyImportService {
	return &legacyImportService{
		legacy:   legacy,
		comments: comments,
		logger:   logger.With().Str("component", "legacy_import").Logger(),
	}
}

func (s *legacyImportService) Import(ctx context.Context, table string) (dto.LegacyImportReport, error) {
	rows, err := s.legacy.ListLegacy(ctx, table)
	if err != nil {
		return dto.LegacyImportReport{}, fmt.Errorf("read legacy table %s: %w", table, err)
	}

	report := dto.LegacyImportReport{Scanned: len(rows)}
	for _, row := range rows {
		comment, ok := legacyComment(row, table)
		if !ok {
			report.Skipped++
			s.logger.Warn().Str("legacy_id", row.ID).Msg("skipping legacy comment without author or content")
			continue
		}

		if comment.ParentID != nil {
			exists, err := s.comments.Exists(ctx, *comment.ParentID)
			if err != nil {
				return report, fmt.Errorf("check parent of legacy comment %s: %w", row.ID, err)
			}
			if !exists {
				report.Skipped++
				s.logger.Warn().Str("legacy_id", row.ID).Str("parent_id", *comment.ParentID).Msg("skipping orphaned legacy reply")
				continue
			}
		}

		inserted, err := s.legacy.InsertIfAbsent(ctx, &comment)
		if err != nil {
			return report, fmt.Errorf("insert legacy comment %s: %w", row.ID, err)
		}
		if inserted {
			report.Imported++
		} else {
			report.Skipped++
		}
	}

	s.logger.Info().
		Str("table", table).
		Int("scanned", report.Scanned).
		Int("imported", report.Imported).
		Int("skipped", report.Skipped).
		Msg("legacy import finished")

	return report, nil
}

// legacyComment resolves a legacy row. Identity-provider columns win over the
// platform columns; the display name falls back through user name, platform
// name and email.
func legacyComment(row repository.LegacyCommentRow, table string) (models.Comment, bool) {
	content := utils.SanitizeComment(row.Content)
	if strings.TrimSpace(row.ID) == "" || strings.TrimSpace(row.SeriesID) == "" || content == "" {
		return models.Comment{}, false
	}

	name := coalesce(row.UserName, row.TelegramName, row.UserEmail)

	var resolved models.ResolvedAuthor
	switch {
	case row.UserID != nil && strings.TrimSpace(*row.UserID) != "":
		resolved = models.IdentityProviderUser{
			ID:       *row.UserID,
			Email:    deref(row.UserEmail),
			FullName: name,
		}.Resolve()
		if name != "" {
			resolved.Name = name
		}
		if row.TelegramUsername != nil && strings.TrimSpace(*row.TelegramUsername) != "" {
			handle := strings.TrimSpace(*row.TelegramUsername)
			resolved.Handle = &handle
		}
	case row.TelegramID != nil:
		resolved = models.LegacyPlatformUser{
			PlatformID: *row.TelegramID,
			Username:   deref(row.TelegramUsername),
			Name:       name,
		}.Resolve()
	default:
		return models.Comment{}, false
	}
	resolved.Meta["imported_from"] = table

	comment := models.Comment{
		ID:        strings.TrimSpace(row.ID),
		SeriesID:  strings.TrimSpace(row.SeriesID),
		ChapterID: dto.NormalizeOptional(row.ChapterID),
		Content:   content,
		CreatedAt: row.CreatedAt,
		ParentID:  dto.NormalizeOptional(row.ParentID),
	}
	comment.ApplyAuthor(resolved)

	return comment, true
}

func coalesce(values ...*string) string {
	for _, value := range values {
		if value == nil {
			continue
		}
		if trimmed := strings.TrimSpace(*value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
