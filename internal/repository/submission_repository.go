package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"submission-disk/internal/domain/submission"
	apperrors "submission-disk/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const submissionColumns = `id, file_name, original_file_name, file_size, content_type, storage_path,
	description, submitted_by, status, checksum, error_message, submitted_at, processed_at`

type PostgresSubmissionRepository struct {
	pool *pgxpool.Pool
}

func NewSubmissionRepository(pool *pgxpool.Pool) SubmissionRepository {
	return &PostgresSubmissionRepository{pool: pool}
}

func (r *PostgresSubmissionRepository) Create(ctx context.Context, sub *submission.Submission) error {
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = time.Now().UTC()
	}
	if sub.Status == "" {
		sub.Status = submission.StatusPending
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO submissions (file_name, original_file_name, file_size, content_type, storage_path,
			description, submitted_by, status, checksum, error_message, submitted_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING id
	`,
		sub.FileName,
		sub.OriginalFileName,
		sub.FileSize,
		sub.ContentType,
		sub.StoragePath,
		sub.Description,
		sub.SubmittedBy,
		sub.Status,
		sub.Checksum,
		sub.ErrorMessage,
		sub.SubmittedAt,
	).Scan(&sub.ID)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func (r *PostgresSubmissionRepository) GetByID(ctx context.Context, id int64) (*submission.Submission, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE id = $1`, id)
	return scanSubmission(row)
}

func (r *PostgresSubmissionRepository) List(ctx context.Context) ([]submission.Submission, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+submissionColumns+` FROM submissions ORDER BY submitted_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return collectSubmissions(rows)
}

func (r *PostgresSubmissionRepository) ListByStatus(ctx context.Context, status submission.Status) ([]submission.Submission, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE status = $1 ORDER BY submitted_at DESC`, status)
	if err != nil {
		return nil, fmt.Errorf("list submissions by status: %w", err)
	}
	return collectSubmissions(rows)
}

func (r *PostgresSubmissionRepository) ListBySubmitter(ctx context.Context, submittedBy string) ([]submission.Submission, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE submitted_by = $1 ORDER BY submitted_at DESC`, submittedBy)
	if err != nil {
		return nil, fmt.Errorf("list submissions by submitter: %w", err)
	}
	return collectSubmissions(rows)
}

func (r *PostgresSubmissionRepository) FindByChecksum(ctx context.Context, checksum string) (*submission.Submission, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE checksum = $1 ORDER BY id ASC LIMIT 1`, checksum)
	return scanSubmission(row)
}

func (r *PostgresSubmissionRepository) UpdateStatus(ctx context.Context, id int64, status submission.Status, errorMessage *string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE submissions
		SET status = $1,
			error_message = COALESCE($2, error_message),
			processed_at = CASE WHEN $1 IN ('COMPLETED','FAILED') THEN COALESCE(processed_at, NOW()) ELSE processed_at END
		WHERE id = $3
	`, status, errorMessage, id)
	if err != nil {
		return fmt.Errorf("update submission status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PostgresSubmissionRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM submissions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete submission: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func scanSubmission(row pgx.Row) (*submission.Submission, error) {
	var sub submission.Submission
	err := row.Scan(
		&sub.ID,
		&sub.FileName,
		&sub.OriginalFileName,
		&sub.FileSize,
		&sub.ContentType,
		&sub.StoragePath,
		&sub.Description,
		&sub.SubmittedBy,
		&sub.Status,
		&sub.Checksum,
		&sub.ErrorMessage,
		&sub.SubmittedAt,
		&sub.ProcessedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan submission: %w", err)
	}
	return &sub, nil
}

func collectSubmissions(rows pgx.Rows) ([]submission.Submission, error) {
	defer rows.Close()

	var subs []submission.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, *sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}
	return subs, nil
}
