package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dgallion1/pdfread/internal/docmodel"
)

const annotationColumns = `id, doc_id, block_id, start_word_index, end_word_index, annotation_type,
	color, font_size, font_style, note, user_id, is_shared, created_at`

// CreateAnnotation inserts a. Type and Color fall back to the column
// defaults when empty.
func (s *Store) CreateAnnotation(ctx context.Context, a *docmodel.Annotation) error {
	if a.Type == "" {
		a.Type = "highlight"
	}
	if a.Color == "" {
		a.Color = "#ffeb3b"
	}
	_, err := s.exec(ctx, `INSERT INTO annotations (`+annotationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.DocID, a.BlockID, a.StartWordIndex, a.EndWordIndex, a.Type,
		a.Color, a.FontSize, a.FontStyle, a.Note, a.UserID, a.IsShared, formatTime(a.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert annotation: %w", err)
	}
	return nil
}

// AnnotationUpdate holds the mutable annotation fields; nil leaves a field
// unchanged.
type AnnotationUpdate struct {
	Color     *string `json:"color"`
	FontSize  *string `json:"font_size"`
	FontStyle *string `json:"font_style"`
	Note      *string `json:"note"`
}

// UpdateAnnotation applies upd to one of userID's annotations.
func (s *Store) UpdateAnnotation(ctx context.Context, userID, id string, upd AnnotationUpdate) (*docmodel.Annotation, error) {
	res, err := s.exec(ctx, `UPDATE annotations SET
			color = COALESCE(?, color),
			font_size = COALESCE(?, font_size),
			font_style = COALESCE(?, font_style),
			note = COALESCE(?, note)
		WHERE id = ? AND user_id = ?`,
		upd.Color, upd.FontSize, upd.FontStyle, upd.Note, id, userID)
	if err != nil {
		return nil, fmt.Errorf("update annotation: %w", err)
	}
	if err := affectedOrNotFound(res); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+annotationColumns+` FROM annotations WHERE id = ?`, id)
	return scanAnnotation(row)
}

// ListAnnotations returns the annotations on a document visible to userID:
// their own plus any shared ones.
func (s *Store) ListAnnotations(ctx context.Context, docID, userID string) ([]docmodel.Annotation, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+annotationColumns+` FROM annotations
		WHERE doc_id = ? AND (user_id = ? OR is_shared = 1)
		ORDER BY created_at, id`, docID, userID)
	if err != nil {
		return nil, fmt.Errorf("list annotations: %w", err)
	}
	defer rows.Close()

	out := []docmodel.Annotation{}
	for rows.Next() {
		a, err := scanAnnotation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// DeleteAnnotation removes one of userID's annotations.
func (s *Store) DeleteAnnotation(ctx context.Context, userID, id string) error {
	res, err := s.exec(ctx, `DELETE FROM annotations WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete annotation: %w", err)
	}
	return affectedOrNotFound(res)
}

func scanAnnotation(row rowScanner) (*docmodel.Annotation, error) {
	var (
		a         docmodel.Annotation
		createdAt string
	)
	err := row.Scan(&a.ID, &a.DocID, &a.BlockID, &a.StartWordIndex, &a.EndWordIndex, &a.Type,
		&a.Color, &a.FontSize, &a.FontStyle, &a.Note, &a.UserID, &a.IsShared, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan annotation: %w", err)
	}
	a.CreatedAt = parseTime(createdAt)
	return &a, nil
}
