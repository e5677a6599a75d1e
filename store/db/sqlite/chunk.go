package sqlite

import (
	"context"
	"encoding/binary"
	"math"

	"github.com/pkg/errors"

	"github.com/askdoc/askdoc/store"
)

func (d *DB) ReplaceDocumentChunks(ctx context.Context, docID int32, chunks []*store.DocumentChunk) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM document_chunk WHERE doc_id = ?", docID); err != nil {
		return errors.Wrap(err, "failed to delete existing chunks")
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO document_chunk (doc_id, chunk_index, text, start_offset, end_offset, embedding)
		VALUES (?, ?, ?, ?, ?, ?)
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
			float32SliceToBytes(chunk.Embedding),
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
		WHERE doc_id = ?
		ORDER BY chunk_index ASC
	`, docID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list document chunks")
	}
	defer rows.Close()

	list := []*store.DocumentChunk{}
	for rows.Next() {
		chunk := &store.DocumentChunk{}
		var embeddingBlob []byte
		if err := rows.Scan(
			&chunk.DocID,
			&chunk.ChunkIndex,
			&chunk.Text,
			&chunk.StartOffset,
			&chunk.EndOffset,
			&embeddingBlob,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan document chunk")
		}
		chunk.Embedding = bytesToFloat32Slice(embeddingBlob)
		list = append(list, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

// float32SliceToBytes converts a []float32 to a little-endian byte blob.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return []byte{}
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte blob back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
