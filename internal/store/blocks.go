package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgallion1/pdfread/internal/docmodel"
)

const blockColumns = `id, doc_id, page_number, block_order, block_type, text, image_path, words_meta, style_runs, position_meta`

const insertBlockSQL = `INSERT INTO blocks
	(id, doc_id, page_number, block_order, block_type, text, image_path, image_data, words_meta, style_runs, position_meta)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

type execer interface {
	ExecContext(ctx context.Context, args ...any) (sql.Result, error)
}

func insertBlock(ctx context.Context, stmt execer, b docmodel.Block) error {
	words, runs, pos, err := encodeBlockMeta(b)
	if err != nil {
		return err
	}
	_, err = stmt.ExecContext(ctx, b.ID, b.DocID, b.PageNumber, b.BlockOrder, string(b.Kind),
		b.Text, b.ImagePath, b.Image, words, runs, pos)
	if err != nil {
		return fmt.Errorf("insert block %s: %w", b.ID, err)
	}
	return nil
}

func encodeBlockMeta(b docmodel.Block) (words, runs, pos string, err error) {
	w := b.Words
	if w == nil {
		w = []docmodel.Word{}
	}
	r := b.StyleRuns
	if r == nil {
		r = []docmodel.StyleRun{}
	}
	wb, err := json.Marshal(w)
	if err != nil {
		return "", "", "", fmt.Errorf("marshal words for %s: %w", b.ID, err)
	}
	rb, err := json.Marshal(r)
	if err != nil {
		return "", "", "", fmt.Errorf("marshal style runs for %s: %w", b.ID, err)
	}
	pb, err := json.Marshal(b.Position)
	if err != nil {
		return "", "", "", fmt.Errorf("marshal position for %s: %w", b.ID, err)
	}
	return string(wb), string(rb), string(pb), nil
}

// ListBlocks returns every block of a document in reading order.
func (s *Store) ListBlocks(ctx context.Context, docID string) ([]docmodel.Block, error) {
	return s.queryBlocks(ctx,
		`SELECT `+blockColumns+` FROM blocks WHERE doc_id = ? ORDER BY page_number, block_order`, docID)
}

// PageBlocks returns the blocks of one page in order.
func (s *Store) PageBlocks(ctx context.Context, docID string, page int) ([]docmodel.Block, error) {
	return s.queryBlocks(ctx,
		`SELECT `+blockColumns+` FROM blocks WHERE doc_id = ? AND page_number = ? ORDER BY block_order`,
		docID, page)
}

// GetBlock returns one block of a document.
func (s *Store) GetBlock(ctx context.Context, docID, blockID string) (*docmodel.Block, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+blockColumns+` FROM blocks WHERE id = ? AND doc_id = ?`, blockID, docID)
	b, err := scanBlock(row)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// BlockImage returns the image bytes of a block whose document belongs to
// ownerID.
func (s *Store) BlockImage(ctx context.Context, ownerID, blockID string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT b.image_data FROM blocks b
		JOIN documents d ON d.id = b.doc_id
		WHERE b.id = ? AND d.owner_id = ? AND b.block_type = ?`,
		blockID, ownerID, string(docmodel.KindImage)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("block image: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrNotFound
	}
	return data, nil
}

// ApplySplit persists a split in one transaction: siblings ordered after the
// original are shifted down by one, highest first so the unique
// (doc, page, order) index never sees a duplicate; then the original is
// rewritten and the new block inserted at order+1.
func (s *Store) ApplySplit(ctx context.Context, updated, created docmodel.Block) error {
	words, runs, _, err := encodeBlockMeta(updated)
	if err != nil {
		return err
	}

	return s.runTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `SELECT id FROM blocks
			WHERE doc_id = ? AND page_number = ? AND block_order > ?
			ORDER BY block_order DESC`,
			updated.DocID, updated.PageNumber, updated.BlockOrder)
		if err != nil {
			return fmt.Errorf("select siblings: %w", err)
		}
		var ids []string
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return fmt.Errorf("scan sibling: %w", err)
			}
			ids = append(ids, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate siblings: %w", err)
		}

		for _, id := range ids {
			if _, err := tx.ExecContext(ctx,
				`UPDATE blocks SET block_order = block_order + 1 WHERE id = ?`, id); err != nil {
				return fmt.Errorf("shift block %s: %w", id, err)
			}
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE blocks SET text = ?, words_meta = ?, style_runs = ? WHERE id = ? AND doc_id = ?`,
			updated.Text, words, runs, updated.ID, updated.DocID)
		if err != nil {
			return fmt.Errorf("update block %s: %w", updated.ID, err)
		}
		if err := affectedOrNotFound(res); err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, insertBlockSQL)
		if err != nil {
			return fmt.Errorf("prepare block insert: %w", err)
		}
		defer stmt.Close()
		return insertBlock(ctx, stmt, created)
	})
}

func (s *Store) queryBlocks(ctx context.Context, query string, args ...any) ([]docmodel.Block, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query blocks: %w", err)
	}
	defer rows.Close()

	blocks := []docmodel.Block{}
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

func scanBlock(row rowScanner) (docmodel.Block, error) {
	var (
		b                docmodel.Block
		kind             string
		words, runs, pos string
	)
	err := row.Scan(&b.ID, &b.DocID, &b.PageNumber, &b.BlockOrder, &kind, &b.Text, &b.ImagePath,
		&words, &runs, &pos)
	if errors.Is(err, sql.ErrNoRows) {
		return b, ErrNotFound
	}
	if err != nil {
		return b, fmt.Errorf("scan block: %w", err)
	}
	b.Kind = docmodel.BlockKind(kind)
	if err := json.Unmarshal([]byte(words), &b.Words); err != nil {
		return b, fmt.Errorf("decode words for %s: %w", b.ID, err)
	}
	if err := json.Unmarshal([]byte(runs), &b.StyleRuns); err != nil {
		return b, fmt.Errorf("decode style runs for %s: %w", b.ID, err)
	}
	if err := json.Unmarshal([]byte(pos), &b.Position); err != nil {
		return b, fmt.Errorf("decode position for %s: %w", b.ID, err)
	}
	return b, nil
}
