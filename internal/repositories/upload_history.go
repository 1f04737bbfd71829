package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/linkguard/internal/models"
	"github.com/desertthunder/linkguard/internal/shared"
)

// UploadHistoryRepository stores one row per completed bulk upload.
type UploadHistoryRepository struct {
	db *sql.DB
}

func NewUploadHistoryRepository(db *sql.DB) *UploadHistoryRepository {
	return &UploadHistoryRepository{db: db}
}

// Record inserts a summary of res with a generated ID.
func (r *UploadHistoryRepository) Record(ctx context.Context, fileName string, res models.BulkUploadResult) error {
	query := `
		INSERT INTO upload_history (id, file_name, success_count, failed_count, uploaded_at) VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query, shared.GenerateID(), fileName, res.Success, res.Failed, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert upload record: %w", err)
	}
	return nil
}

// List returns the most recent uploads first. limit <= 0 returns all.
func (r *UploadHistoryRepository) List(ctx context.Context, limit int) ([]models.UploadRecord, error) {
	query := `
		SELECT id, file_name, success_count, failed_count, uploaded_at
		FROM upload_history
		ORDER BY uploaded_at DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query upload history: %w", err)
	}
	defer rows.Close()

	records := []models.UploadRecord{}
	for rows.Next() {
		var rec models.UploadRecord
		if err := rows.Scan(&rec.ID, &rec.FileName, &rec.Success, &rec.Failed, &rec.UploadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan upload record: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating upload history: %w", err)
	}
	return records, nil
}
