package postgres

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/askdoc/askdoc/store"
)

func (d *DB) CreateDocument(ctx context.Context, create *store.Document) (*store.Document, error) {
	stmt := `
		INSERT INTO document (uid, creator_id, filename, format, size_bytes, file_path, status)
		VALUES (` + placeholders(7) + `)
		RETURNING id, created_ts, updated_ts
	`
	if err := d.db.QueryRowContext(ctx, stmt,
		create.UID,
		create.CreatorID,
		create.Filename,
		create.Format,
		create.SizeBytes,
		create.FilePath,
		create.Status,
	).Scan(
		&create.ID,
		&create.CreatedTs,
		&create.UpdatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to create document")
	}
	return create, nil
}

func (d *DB) GetDocument(ctx context.Context, find *store.FindDocument) (*store.Document, error) {
	one := 1
	find.Limit = &one
	list, err := d.ListDocuments(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (d *DB) ListDocuments(ctx context.Context, find *store.FindDocument) ([]*store.Document, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := find.ID; v != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UID; v != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.CreatorID; v != nil {
		where, args = append(where, "creator_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Status; v != nil {
		where, args = append(where, "status = "+placeholder(len(args)+1)), append(args, string(*v))
	}
	if v := find.UpdatedBefore; v != nil {
		where, args = append(where, "updated_ts < "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT id, uid, creator_id, filename, format, size_bytes, file_path,
			status, error_message, chunk_count, embedding_dim, created_ts, updated_ts
		FROM document
		WHERE ` + joinAnd(where) + `
		ORDER BY created_ts ASC, id ASC`
	if v := find.Limit; v != nil {
		query += " LIMIT " + placeholder(len(args)+1)
		args = append(args, *v)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list documents")
	}
	defer rows.Close()

	list := []*store.Document{}
	for rows.Next() {
		doc := &store.Document{}
		if err := rows.Scan(
			&doc.ID,
			&doc.UID,
			&doc.CreatorID,
			&doc.Filename,
			&doc.Format,
			&doc.SizeBytes,
			&doc.FilePath,
			&doc.Status,
			&doc.ErrorMessage,
			&doc.ChunkCount,
			&doc.EmbeddingDim,
			&doc.CreatedTs,
			&doc.UpdatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan document")
		}
		list = append(list, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (d *DB) UpdateDocumentStatus(ctx context.Context, update *store.UpdateDocumentStatus) (bool, error) {
	set, args := []string{}, []any{}
	set, args = append(set, "status = "+placeholder(len(args)+1)), append(args, string(update.ToStatus))
	set = append(set, "updated_ts = EXTRACT(EPOCH FROM NOW())")
	if v := update.ErrorMessage; v != nil {
		set, args = append(set, "error_message = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.ChunkCount; v != nil {
		set, args = append(set, "chunk_count = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.EmbeddingDim; v != nil {
		set, args = append(set, "embedding_dim = "+placeholder(len(args)+1)), append(args, *v)
	}

	where := []string{}
	where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, update.ID)
	if v := update.FromStatus; v != nil {
		where, args = append(where, "status = "+placeholder(len(args)+1)), append(args, string(*v))
	}

	stmt := fmt.Sprintf("UPDATE document SET %s WHERE %s", joinComma(set), joinAnd(where))
	result, err := d.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return false, errors.Wrap(err, "failed to update document status")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
