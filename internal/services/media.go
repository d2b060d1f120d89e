package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ShiplakeCS/fakebook/internal/models"
)

var defaultMediaExtensions = []string{"png", "jpg", "jpeg", "gif"}

type MediaService struct {
	db      DBConn
	allowed map[string]struct{}
}

// NewMediaService accepts paths whose extension is in allowedExtensions
// (case-insensitive, no leading dot). An empty list falls back to images.
func NewMediaService(db DBConn, allowedExtensions []string) *MediaService {
	if len(allowedExtensions) == 0 {
		allowedExtensions = defaultMediaExtensions
	}
	allowed := make(map[string]struct{}, len(allowedExtensions))
	for _, ext := range allowedExtensions {
		ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
		if ext != "" {
			allowed[ext] = struct{}{}
		}
	}
	return &MediaService{db: db, allowed: allowed}
}

func (s *MediaService) ValidatePath(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return invalidInput("media path is required")
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if _, ok := s.allowed[ext]; !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedMedia, ext)
	}
	return nil
}

func (s *MediaService) Create(ctx context.Context, path string) (*models.Media, error) {
	if err := s.ValidatePath(path); err != nil {
		return nil, err
	}
	return insertMedia(ctx, s.db, path)
}

func (s *MediaService) GetByID(ctx context.Context, id uuid.UUID) (*models.Media, error) {
	media := &models.Media{}
	err := s.db.QueryRow(ctx,
		`SELECT id, path, created_at FROM media WHERE id = $1`,
		id,
	).Scan(&media.ID, &media.Path, &media.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMediaNotFound
	}
	if err != nil {
		return nil, storageError("get media", err)
	}
	return media, nil
}

// insertMedia writes a media row on q, which may be a transaction owned by
// the caller. The path must already be validated.
func insertMedia(ctx context.Context, q DBConn, path string) (*models.Media, error) {
	media := &models.Media{Path: strings.TrimSpace(path)}
	err := q.QueryRow(ctx,
		`INSERT INTO media (path) VALUES ($1) RETURNING id, created_at`,
		media.Path,
	).Scan(&media.ID, &media.CreatedAt)
	if err != nil {
		return nil, storageError("insert media", err)
	}
	return media, nil
}

// mediaFromColumns builds the optional media reference of a LEFT JOIN.
func mediaFromColumns(id *uuid.UUID, path *string) *models.Media {
	if id == nil || path == nil {
		return nil
	}
	return &models.Media{ID: *id, Path: *path}
}
