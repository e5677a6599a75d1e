package postgres

import (
	"context"

	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/askdoc/askdoc/store"
)

func (d *DB) ReplaceDocumentChunks(ctx context.Context, docID int32, chunks []*store.DocumentChunk) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM document_chunk WHERE doc_id = $1", docID); err != nil {
		return errors.Wrap(err, "failed to delete existing chunks")
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO document_chunk (doc_id, chunk_index, text, start_offset, end_offset, embedding)
		VALUES (`+placeholders(6)+`)
	`)
	if err != nil {
		return errors.Wrap(err, "failed to prepare chunk insert")
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		if _, err := stmt.ExecContext(ctx,
			docID,
			chunk.ChunkIndex,
			chunk.Text,
			chunk.StartOffset,
			chunk.EndOffset,
			pgvector.NewVector(chunk.Embedding),
		); err != nil {
			return errors.Wrapf(err, "failed to insert chunk %d", chunk.ChunkIndex)
		}
	}

	return tx.Commit()
}

func (d *DB) ListDocumentChunks(ctx context.Context, docID int32) ([]*store.DocumentChunk, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT doc_id, chunk_index, text, start_offset, end_offset, embedding
		FROM document_chunk
		WHERE doc_id = $1
		ORDER BY chunk_index ASC
	`, docID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list document chunks")
	}
	defer rows.Close()

	list := []*store.DocumentChunk{}
	for rows.Next() {
		chunk := &store.DocumentChunk{}
		var vector pgvector.Vector
		if err := rows.Scan(
			&chunk.DocID,
			&chunk.ChunkIndex,
			&chunk.Text,
			&chunk.StartOffset,
			&chunk.EndOffset,
			&vector,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan document chunk")
		}
		chunk.Embedding = vector.Slice()
		list = append(list, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}
