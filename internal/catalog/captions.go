package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const captionColumns = "id, favorite_id, chord_name, start_time, end_time, display_order, serial_number, position_id, source, job_external_id"

// ReplaceCaptionsForJob atomically swaps the caption batch tagged with a job
// id: all existing rows for the job are deleted and the provided rows
// inserted in one transaction. Redelivery of the same webhook therefore
// converges on the same caption set instead of duplicating it.
func (s *Store) ReplaceCaptionsForJob(ctx context.Context, jobExternalID string, captions []Caption) error {
	if jobExternalID == "" {
		return errors.New("job external id required")
	}
	ctx = ensureContext(ctx)

	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin captions tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, `DELETE FROM chord_captions WHERE job_external_id = ?`, jobExternalID); err != nil {
			return fmt.Errorf("delete captions: %w", err)
		}

		for _, caption := range captions {
			source := caption.Source
			if source == "" {
				source = SourceRecognizer
			}
			if _, err := tx.ExecContext(
				ctx,
				`INSERT INTO chord_captions (
                    favorite_id, chord_name, start_time, end_time,
                    display_order, serial_number, position_id, source, job_external_id
                ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				nullableString(caption.FavoriteID),
				caption.ChordName,
				caption.StartTime,
				caption.EndTime,
				caption.DisplayOrder,
				caption.SerialNumber,
				caption.PositionID,
				source,
				jobExternalID,
			); err != nil {
				return fmt.Errorf("insert caption: %w", err)
			}
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit captions: %w", err)
		}
		return nil
	})
}

// CaptionsForJob returns the caption batch for a job ordered by display order.
func (s *Store) CaptionsForJob(ctx context.Context, jobExternalID string) ([]*Caption, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT `+captionColumns+` FROM chord_captions WHERE job_external_id = ? ORDER BY display_order`,
		jobExternalID,
	)
	if err != nil {
		return nil, fmt.Errorf("query captions: %w", err)
	}
	defer rows.Close()

	var captions []*Caption
	for rows.Next() {
		caption, err := scanCaption(rows)
		if err != nil {
			return nil, err
		}
		captions = append(captions, caption)
	}
	return captions, rows.Err()
}

// LinkCaptionsToPosition points every caption of a chord within a job at a
// resolved position. Returns the number of rows linked.
func (s *Store) LinkCaptionsToPosition(ctx context.Context, jobExternalID, chordName string, positionID int64) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE chord_captions SET position_id = ? WHERE job_external_id = ? AND chord_name = ?`,
		positionID,
		jobExternalID,
		chordName,
	)
	if err != nil {
		return 0, fmt.Errorf("link captions: %w", err)
	}
	return res.RowsAffected()
}

func scanCaption(scanner interface{ Scan(dest ...any) error }) (*Caption, error) {
	var (
		caption    Caption
		favoriteID sql.NullString
		positionID sql.NullInt64
	)
	if err := scanner.Scan(
		&caption.ID,
		&favoriteID,
		&caption.ChordName,
		&caption.StartTime,
		&caption.EndTime,
		&caption.DisplayOrder,
		&caption.SerialNumber,
		&positionID,
		&caption.Source,
		&caption.JobExternalID,
	); err != nil {
		return nil, err
	}
	caption.FavoriteID = favoriteID.String
	if positionID.Valid {
		value := positionID.Int64
		caption.PositionID = &value
	}
	return &caption, nil
}
