package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const variationColumns = "id, chord_name, root_note, chord_type, category"

// EnsureVariation creates the variation for a chord name if it does not
// exist and returns the surviving row. The insert uses ON CONFLICT DO
// NOTHING so concurrent first-sight of the same name from two jobs degrades
// to both reading the winner, never to a pipeline failure.
func (s *Store) EnsureVariation(ctx context.Context, variation Variation) (*Variation, error) {
	if strings.TrimSpace(variation.ChordName) == "" {
		return nil, errors.New("chord name required")
	}

	if _, err := s.execWithRetry(
		ctx,
		`INSERT INTO chord_variations (chord_name, root_note, chord_type, category)
         VALUES (?, ?, ?, ?)
         ON CONFLICT(chord_name) DO NOTHING`,
		variation.ChordName,
		variation.RootNote,
		variation.ChordType,
		nullableString(variation.Category),
	); err != nil {
		return nil, fmt.Errorf("insert variation: %w", err)
	}

	existing, err := s.VariationByName(ctx, variation.ChordName)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("variation %q missing after ensure", variation.ChordName)
	}
	return existing, nil
}

// VariationByName looks up a variation by canonical chord name. A missing
// variation returns nil without error.
func (s *Store) VariationByName(ctx context.Context, chordName string) (*Variation, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT `+variationColumns+` FROM chord_variations WHERE chord_name = ?`,
		chordName,
	)
	variation, err := scanVariation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find variation: %w", err)
	}
	return variation, nil
}

// CountVariations returns the total number of variation rows.
func (s *Store) CountVariations(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ensureContext(ctx), `SELECT COUNT(1) FROM chord_variations`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count variations: %w", err)
	}
	return count, nil
}

func scanVariation(scanner interface{ Scan(dest ...any) error }) (*Variation, error) {
	var (
		variation Variation
		category  sql.NullString
	)
	if err := scanner.Scan(
		&variation.ID,
		&variation.ChordName,
		&variation.RootNote,
		&variation.ChordType,
		&category,
	); err != nil {
		return nil, err
	}
	variation.Category = category.String
	return &variation, nil
}
