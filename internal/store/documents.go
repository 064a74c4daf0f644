package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgallion1/pdfread/internal/docmodel"
)

const documentColumns = `id, owner_id, title, filename, total_pages, theme, content_hash, toc, toc_source, created_at`

// CreateDocument writes the document row and then every block in one
// transaction, so blocks never reference a missing document.
func (s *Store) CreateDocument(ctx context.Context, doc *docmodel.Document) error {
	toc, err := json.Marshal(outlineOrEmpty(doc.Outline))
	if err != nil {
		return fmt.Errorf("marshal toc: %w", err)
	}
	theme := doc.Theme
	if theme == "" {
		theme = "light"
	}

	return s.runTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO documents
			(id, owner_id, title, filename, total_pages, theme, content_hash, toc, toc_source, file_data, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			doc.ID, doc.OwnerID, doc.Title, doc.Filename, doc.PageCount, theme, doc.ContentHash,
			string(toc), string(doc.OutlineSource), doc.Data, formatTime(doc.CreatedAt))
		if err != nil {
			return fmt.Errorf("insert document: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, insertBlockSQL)
		if err != nil {
			return fmt.Errorf("prepare block insert: %w", err)
		}
		defer stmt.Close()
		for i := range doc.Blocks {
			if err := insertBlock(ctx, stmt, doc.Blocks[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListDocuments returns the owner's documents, newest first, without
// blocks or file bytes.
func (s *Store) ListDocuments(ctx context.Context, ownerID string) ([]docmodel.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE owner_id = ? ORDER BY created_at DESC, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	docs := []docmodel.Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *d)
	}
	return docs, rows.Err()
}

// GetDocument returns one of the owner's documents without blocks.
func (s *Store) GetDocument(ctx context.Context, ownerID, id string) (*docmodel.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = ? AND owner_id = ?`, id, ownerID)
	return scanDocument(row)
}

// FindByHash returns the owner's document with the given content hash.
func (s *Store) FindByHash(ctx context.Context, ownerID, hash string) (*docmodel.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE owner_id = ? AND content_hash = ? ORDER BY created_at LIMIT 1`,
		ownerID, hash)
	return scanDocument(row)
}

// DocumentFile returns the original upload.
func (s *Store) DocumentFile(ctx context.Context, ownerID, id string) (string, []byte, error) {
	var (
		filename string
		data     []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT filename, file_data FROM documents WHERE id = ? AND owner_id = ?`, id, ownerID).
		Scan(&filename, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, ErrNotFound
	}
	if err != nil {
		return "", nil, fmt.Errorf("document file: %w", err)
	}
	return filename, data, nil
}

// DocumentUpdate holds the mutable document fields; nil leaves a field as is.
type DocumentUpdate struct {
	Title *string `json:"title"`
	Theme *string `json:"theme"`
}

// UpdateDocument applies upd and returns the updated document.
func (s *Store) UpdateDocument(ctx context.Context, ownerID, id string, upd DocumentUpdate) (*docmodel.Document, error) {
	res, err := s.exec(ctx, `UPDATE documents SET
			title = COALESCE(?, title),
			theme = COALESCE(?, theme)
		WHERE id = ? AND owner_id = ?`,
		upd.Title, upd.Theme, id, ownerID)
	if err != nil {
		return nil, fmt.Errorf("update document: %w", err)
	}
	if err := affectedOrNotFound(res); err != nil {
		return nil, err
	}
	return s.GetDocument(ctx, ownerID, id)
}

// DeleteDocument removes a document; blocks and annotations cascade.
func (s *Store) DeleteDocument(ctx context.Context, ownerID, id string) error {
	res, err := s.exec(ctx, `DELETE FROM documents WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return affectedOrNotFound(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*docmodel.Document, error) {
	var (
		d         docmodel.Document
		toc       string
		source    string
		createdAt string
	)
	err := row.Scan(&d.ID, &d.OwnerID, &d.Title, &d.Filename, &d.PageCount, &d.Theme,
		&d.ContentHash, &toc, &source, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan document: %w", err)
	}
	if err := json.Unmarshal([]byte(toc), &d.Outline); err != nil {
		return nil, fmt.Errorf("decode toc for %s: %w", d.ID, err)
	}
	d.Outline = outlineOrEmpty(d.Outline)
	d.OutlineSource = docmodel.OutlineSource(source)
	d.CreatedAt = parseTime(createdAt)
	return &d, nil
}

func outlineOrEmpty(o []docmodel.OutlineEntry) []docmodel.OutlineEntry {
	if o == nil {
		return []docmodel.OutlineEntry{}
	}
	return o
}
