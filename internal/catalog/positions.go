package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const positionColumns = "id, variation_id, chord_name, string_states, finger_states, fret_window, light_image_url, dark_image_url, created_at, updated_at"

// EnsurePosition inserts a playable shape unless an identical one (same
// chord, same string states) already exists, and returns the surviving row.
func (s *Store) EnsurePosition(ctx context.Context, position Position) (*Position, error) {
	if position.ChordName == "" || position.StringStates == "" {
		return nil, errors.New("position requires chord name and string states")
	}
	now := timestamp()

	if _, err := s.execWithRetry(
		ctx,
		`INSERT INTO chord_positions (
            variation_id, chord_name, string_states, finger_states, fret_window,
            light_image_url, dark_image_url, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(chord_name, string_states) DO NOTHING`,
		position.VariationID,
		position.ChordName,
		position.StringStates,
		position.FingerStates,
		position.FretWindow,
		nullableString(position.LightImageURL),
		nullableString(position.DarkImageURL),
		now,
		now,
	); err != nil {
		return nil, fmt.Errorf("insert position: %w", err)
	}

	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT `+positionColumns+` FROM chord_positions WHERE chord_name = ? AND string_states = ?`,
		position.ChordName,
		position.StringStates,
	)
	existing, err := scanPosition(row)
	if err != nil {
		return nil, fmt.Errorf("find position after ensure: %w", err)
	}
	return existing, nil
}

// FirstPositionForChord returns the oldest known shape for a chord, or nil
// when none exists yet.
func (s *Store) FirstPositionForChord(ctx context.Context, chordName string) (*Position, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT `+positionColumns+` FROM chord_positions WHERE chord_name = ? ORDER BY id LIMIT 1`,
		chordName,
	)
	position, err := scanPosition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find position: %w", err)
	}
	return position, nil
}

// PositionByID fetches a position by row identifier.
func (s *Store) PositionByID(ctx context.Context, id int64) (*Position, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT `+positionColumns+` FROM chord_positions WHERE id = ?`,
		id,
	)
	position, err := scanPosition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get position: %w", err)
	}
	return position, nil
}

// CountPositionsForChord returns the number of known shapes for a chord.
func (s *Store) CountPositionsForChord(ctx context.Context, chordName string) (int, error) {
	var count int
	if err := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT COUNT(1) FROM chord_positions WHERE chord_name = ?`,
		chordName,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("count positions: %w", err)
	}
	return count, nil
}

// SetPositionImageURL stores the published diagram URL for one theme.
func (s *Store) SetPositionImageURL(ctx context.Context, id int64, theme, url string) error {
	var column string
	switch theme {
	case "light":
		column = "light_image_url"
	case "dark":
		column = "dark_image_url"
	default:
		return fmt.Errorf("unknown theme %q", theme)
	}
	_, err := s.execWithRetry(
		ctx,
		`UPDATE chord_positions SET `+column+` = ?, updated_at = ? WHERE id = ?`,
		url,
		timestamp(),
		id,
	)
	if err != nil {
		return fmt.Errorf("set %s: %w", column, err)
	}
	return nil
}

func scanPosition(scanner interface{ Scan(dest ...any) error }) (*Position, error) {
	var (
		position   Position
		lightURL   sql.NullString
		darkURL    sql.NullString
		createdRaw sql.NullString
		updatedRaw sql.NullString
	)
	if err := scanner.Scan(
		&position.ID,
		&position.VariationID,
		&position.ChordName,
		&position.StringStates,
		&position.FingerStates,
		&position.FretWindow,
		&lightURL,
		&darkURL,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	position.LightImageURL = lightURL.String
	position.DarkImageURL = darkURL.String
	if created, err := parseTimeString(createdRaw.String); err == nil {
		position.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		position.UpdatedAt = updated
	}
	return &position, nil
}
