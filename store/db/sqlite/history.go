package sqlite

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/askdoc/askdoc/store"
)

func (d *DB) CreateQuestionRecord(ctx context.Context, create *store.QuestionRecord) (*store.QuestionRecord, error) {
	indices, err := json.Marshal(create.ChunkIndices)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal chunk indices")
	}

	stmt := `
		INSERT INTO question_record (uid, creator_id, doc_id, question, answer, context_preview, top_k, chunk_indices)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id, created_ts
	`
	if err := d.db.QueryRowContext(ctx, stmt,
		create.UID,
		create.CreatorID,
		create.DocID,
		create.Question,
		create.Answer,
		create.ContextPreview,
		create.TopK,
		string(indices),
	).Scan(
		&create.ID,
		&create.CreatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to create question record")
	}
	return create, nil
}

func (d *DB) ListQuestionRecords(ctx context.Context, find *store.FindQuestionRecord) ([]*store.QuestionRecord, int, error) {
	where, args := []string{"creator_id = ?"}, []any{find.CreatorID}
	if v := find.Since; v != nil {
		where, args = append(where, "created_ts >= ?"), append(args, *v)
	}
	if v := find.Until; v != nil {
		where, args = append(where, "created_ts < ?"), append(args, *v)
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM question_record WHERE " + joinAnd(where)
	if err := d.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count question records")
	}

	query := `
		SELECT id, uid, creator_id, doc_id, question, answer, context_preview, top_k, chunk_indices, created_ts
		FROM question_record
		WHERE ` + joinAnd(where) + `
		ORDER BY created_ts DESC, id DESC
		LIMIT ? OFFSET ?`
	args = append(args, find.Limit, find.Offset)

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list question records")
	}
	defer rows.Close()

	list := []*store.QuestionRecord{}
	for rows.Next() {
		record := &store.QuestionRecord{}
		var indicesJSON string
		if err := rows.Scan(
			&record.ID,
			&record.UID,
			&record.CreatorID,
			&record.DocID,
			&record.Question,
			&record.Answer,
			&record.ContextPreview,
			&record.TopK,
			&indicesJSON,
			&record.CreatedTs,
		); err != nil {
			return nil, 0, errors.Wrap(err, "failed to scan question record")
		}
		if err := json.Unmarshal([]byte(indicesJSON), &record.ChunkIndices); err != nil {
			return nil, 0, errors.Wrap(err, "failed to unmarshal chunk indices")
		}
		list = append(list, record)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}
