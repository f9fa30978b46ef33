package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/digitalforest/backend/internal/models"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const mediaColumns = `id, tree_id, s3_key, mime_type, file_size_bytes, status, metadata, uploaded_by, created_at, updated_at`

// mediaRepository implements media repository operations on the tree_media table
type mediaRepository struct {
	db *sql.DB
}

// NewMediaRepository creates a new media repository
func NewMediaRepository(db *sql.DB) *mediaRepository {
	return &mediaRepository{
		db: db,
	}
}

// Create inserts a new media row.
// The id and both timestamps are assigned by the store and written back into item.
func (r *mediaRepository) Create(ctx context.Context, item *models.MediaItem) error {
	id := uuid.New().String()

	query := `
		INSERT INTO tree_media (id, tree_id, s3_key, mime_type, file_size_bytes, status, metadata, uploaded_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		id,
		item.TreeID,
		item.ObjectKey,
		item.MimeType,
		item.FileSizeBytes,
		item.Status,
		item.Metadata,
		item.UploadedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to create media: %w", err)
	}

	err = r.db.QueryRowContext(ctx, `SELECT created_at, updated_at FROM tree_media WHERE id = ?`, id).Scan(
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to read created media: %w", err)
	}

	item.ID = id
	return nil
}

// GetByID retrieves a media item by id
func (r *mediaRepository) GetByID(ctx context.Context, id string) (*models.MediaItem, error) {
	query := `SELECT ` + mediaColumns + ` FROM tree_media WHERE id = ? LIMIT 1`

	item, err := scanMedia(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrMediaNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get media by id: %w", err)
	}

	return item, nil
}

// List returns one page of media matching the filter, newest first, together with
// the number of rows matching the filter regardless of pagination.
func (r *mediaRepository) List(ctx context.Context, filter models.MediaFilter) ([]models.MediaItem, int, error) {
	whereClause, args := buildMediaFilter(filter)

	var (
		items []models.MediaItem
		total int
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		query := `SELECT COUNT(*) FROM tree_media ` + whereClause
		if err := r.db.QueryRowContext(gctx, query, args...).Scan(&total); err != nil {
			return fmt.Errorf("failed to count media: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		query := fmt.Sprintf(`
			SELECT %s
			FROM tree_media
			%s
			ORDER BY created_at DESC
			LIMIT ? OFFSET ?
		`, mediaColumns, whereClause)

		pageArgs := append(append([]any{}, args...), filter.Limit, filter.Offset)
		page, err := r.queryMedia(gctx, query, pageArgs...)
		if err != nil {
			return err
		}
		items = page
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

// ListByTree returns every media item of one tree in the given status, newest first
func (r *mediaRepository) ListByTree(ctx context.Context, treeID string, status models.MediaStatus) ([]models.MediaItem, error) {
	query := `
		SELECT ` + mediaColumns + `
		FROM tree_media
		WHERE tree_id = ? AND status = ?
		ORDER BY created_at DESC
	`
	return r.queryMedia(ctx, query, treeID, status)
}

// UpdateStatus sets the status of a media item
func (r *mediaRepository) UpdateStatus(ctx context.Context, id string, status models.MediaStatus) error {
	result, err := r.db.ExecContext(ctx, `UPDATE tree_media SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update media status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected > 0 {
		return nil
	}

	// MySQL reports zero affected rows when the status did not change
	var exists bool
	err = r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM tree_media WHERE id = ?)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check media existence: %w", err)
	}
	if !exists {
		return models.ErrMediaNotFound
	}

	return nil
}

func (r *mediaRepository) queryMedia(ctx context.Context, query string, args ...any) ([]models.MediaItem, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query media: %w", err)
	}
	defer rows.Close()

	items := make([]models.MediaItem, 0)
	for rows.Next() {
		item, err := scanMedia(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan media: %w", err)
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return items, nil
}

// buildMediaFilter converts a filter into a WHERE clause and its arguments
func buildMediaFilter(filter models.MediaFilter) (string, []any) {
	whereClauses := []string{"status = ?"}
	args := []any{filter.Status}

	if len(filter.TreeIDs) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(filter.TreeIDs)), ",")
		whereClauses = append(whereClauses, "tree_id IN ("+placeholders+")")
		for _, treeID := range filter.TreeIDs {
			args = append(args, treeID)
		}
	}

	return "WHERE " + strings.Join(whereClauses, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMedia(row rowScanner) (*models.MediaItem, error) {
	var (
		item       models.MediaItem
		uploadedBy sql.NullString
	)

	err := row.Scan(
		&item.ID,
		&item.TreeID,
		&item.ObjectKey,
		&item.MimeType,
		&item.FileSizeBytes,
		&item.Status,
		&item.Metadata,
		&uploadedBy,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if uploadedBy.Valid {
		item.UploadedBy = &uploadedBy.String
	}
	return &item, nil
}
