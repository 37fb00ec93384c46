package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const jobColumns = "id, external_id, request_id, favorite_id, video_id, status, vocabulary, raw_result_json, result_url, status_url, created_at, started_at, completed_at"

// CreateJob inserts a new recognition job in pending state. The external id
// must be the provider's unique job identifier.
func (s *Store) CreateJob(ctx context.Context, job *Job) (*Job, error) {
	if job == nil {
		return nil, errors.New("job is nil")
	}
	if strings.TrimSpace(job.ExternalID) == "" {
		return nil, errors.New("job external id required")
	}
	status := job.Status
	if status == "" {
		status = JobPending
	}

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO recognition_jobs (
            external_id, request_id, favorite_id, video_id, status, vocabulary,
            result_url, status_url, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ExternalID,
		job.RequestID,
		nullableString(job.FavoriteID),
		nullableString(job.VideoID),
		status,
		job.Vocabulary,
		nullableString(job.ResultURL),
		nullableString(job.StatusURL),
		timestamp(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.JobByID(ctx, id)
}

// JobByID fetches a job by row identifier.
func (s *Store) JobByID(ctx context.Context, id int64) (*Job, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+jobColumns+` FROM recognition_jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// JobByExternalID fetches a job by the provider's job identifier. A missing
// job returns nil without error.
func (s *Store) JobByExternalID(ctx context.Context, externalID string) (*Job, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT `+jobColumns+` FROM recognition_jobs WHERE external_id = ?`,
		externalID,
	)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find job: %w", err)
	}
	return job, nil
}

// MarkJobProcessing records that result processing has begun. Replayed
// webhooks may move a finished job back through processing; that is the
// idempotent redelivery path, not a new lifecycle.
func (s *Store) MarkJobProcessing(ctx context.Context, externalID string) error {
	now := time.Now().UTC()
	_, err := s.execWithRetry(
		ctx,
		`UPDATE recognition_jobs SET status = ?, started_at = COALESCE(started_at, ?) WHERE external_id = ?`,
		JobProcessing,
		now.Format(time.RFC3339Nano),
		externalID,
	)
	if err != nil {
		return fmt.Errorf("mark job processing: %w", err)
	}
	return nil
}

// MarkJobFinished stores the raw result payload and stamps completion. This
// must succeed before any downstream caption writes are considered durable.
func (s *Store) MarkJobFinished(ctx context.Context, externalID, rawResultJSON string) error {
	now := time.Now().UTC()
	res, err := s.execWithRetry(
		ctx,
		`UPDATE recognition_jobs SET status = ?, raw_result_json = ?, completed_at = ? WHERE external_id = ?`,
		JobFinished,
		rawResultJSON,
		now.Format(time.RFC3339Nano),
		externalID,
	)
	if err != nil {
		return fmt.Errorf("mark job finished: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("mark job finished: no job with external id %q", externalID)
	}
	return nil
}

// MarkJobFailed records the terminal failed state.
func (s *Store) MarkJobFailed(ctx context.Context, externalID string) error {
	now := time.Now().UTC()
	_, err := s.execWithRetry(
		ctx,
		`UPDATE recognition_jobs SET status = ?, completed_at = ? WHERE external_id = ?`,
		JobFailed,
		now.Format(time.RFC3339Nano),
		externalID,
	)
	if err != nil {
		return fmt.Errorf("mark job failed: %w", err)
	}
	return nil
}

// JobStats returns a count of jobs grouped by status.
func (s *Store) JobStats(ctx context.Context) (map[JobStatus]int, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT status, COUNT(1) FROM recognition_jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[JobStatus]int)
	for rows.Next() {
		var status JobStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id           int64
		externalID   string
		requestID    string
		favoriteID   sql.NullString
		videoID      sql.NullString
		statusStr    string
		vocabulary   string
		rawResult    sql.NullString
		resultURL    sql.NullString
		statusURL    sql.NullString
		createdRaw   sql.NullString
		startedRaw   sql.NullString
		completedRaw sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&externalID,
		&requestID,
		&favoriteID,
		&videoID,
		&statusStr,
		&vocabulary,
		&rawResult,
		&resultURL,
		&statusURL,
		&createdRaw,
		&startedRaw,
		&completedRaw,
	); err != nil {
		return nil, err
	}

	job := &Job{
		ID:         id,
		ExternalID: externalID,
		RequestID:  requestID,
		FavoriteID: favoriteID.String,
		VideoID:    videoID.String,
		Status:     JobStatus(statusStr),
		Vocabulary: vocabulary,
		RawResult:  rawResult.String,
		ResultURL:  resultURL.String,
		StatusURL:  statusURL.String,
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		job.CreatedAt = created
	}
	if startedRaw.Valid {
		if started, err := parseTimeString(startedRaw.String); err == nil {
			job.StartedAt = &started
		}
	}
	if completedRaw.Valid {
		if completed, err := parseTimeString(completedRaw.String); err == nil {
			job.CompletedAt = &completed
		}
	}
	return job, nil
}
