// Package files provides a PostgreSQL-backed repository for file metadata
// records. Blob bytes live in object storage; rows here reference them by key.
package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/appp2p/authvault/internal/common"
	"github.com/appp2p/authvault/internal/dbx"
	"github.com/appp2p/authvault/internal/server/models"
)

// PostgresRepository implements metadata storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, file *models.File) (*models.File, error) {
	query := `
		INSERT INTO files (storage_name, original_name, content_type, size_bytes, blob_key, owner_email, file_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, uploaded_at
	`
	err := r.db.QueryRowContext(ctx, query,
		file.StorageName, file.OriginalName, file.ContentType, file.SizeBytes,
		file.BlobKey, file.OwnerEmail, file.FileType).
		Scan(&file.ID, &file.UploadedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return file, nil
}

// GetByID returns the metadata row for id, or common.ErrorNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.File, error) {
	query := `
		SELECT id, storage_name, original_name, content_type, size_bytes, blob_key, owner_email, file_type, uploaded_at
		FROM files
		WHERE id = $1
	`
	f := &models.File{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&f.ID, &f.StorageName, &f.OriginalName, &f.ContentType, &f.SizeBytes,
			&f.BlobKey, &f.OwnerEmail, &f.FileType, &f.UploadedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

// ListByOwner returns all records owned by ownerEmail, newest first.
// A non-empty fileType restricts the listing to that classification.
func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerEmail string, fileType string) ([]*models.File, error) {
	query := `
		SELECT id, storage_name, original_name, content_type, size_bytes, blob_key, owner_email, file_type, uploaded_at
		FROM files
		WHERE owner_email = $1
	`
	args := []any{ownerEmail}
	if fileType != "" {
		query += ` AND file_type = $2`
		args = append(args, fileType)
	}
	query += ` ORDER BY uploaded_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	var result []*models.File
	for rows.Next() {
		f := &models.File{}
		if err := rows.Scan(&f.ID, &f.StorageName, &f.OriginalName, &f.ContentType, &f.SizeBytes,
			&f.BlobKey, &f.OwnerEmail, &f.FileType, &f.UploadedAt); err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateOriginalName changes the display name of the record. Exactly one row
// must be affected; zero rows means the record does not exist.
func (r *PostgresRepository) UpdateOriginalName(ctx context.Context, id string, newName string) error {
	query := `UPDATE files SET original_name = $2 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, newName)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// Delete removes the metadata row for id.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM files WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
