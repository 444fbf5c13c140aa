package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/graphmirror/internal/ir"
)

// StructRecord is a stored shared struct value.
type StructRecord struct {
	ID     int64       `json:"id"`
	Kind   string      `json:"kind"`
	Key    string      `json:"key"`
	Fields ir.IRObject `json:"fields"`
}

// GetOrCreateStruct returns the storage id of the struct of the given kind
// with exactly these sub-fields, inserting it first when absent. fields must
// not contain nulls.
//
// Uses ON CONFLICT(content_key) DO NOTHING followed by a lookup, so equal
// values written by any viewer share one row.
func (s *Store) GetOrCreateStruct(ctx context.Context, kind string, fields ir.IRObject) (int64, error) {
	key, err := ir.StructKey(kind, fields)
	if err != nil {
		return 0, fmt.Errorf("get or create %s: %w", kind, err)
	}
	fieldsJSON, err := marshalFields(fields)
	if err != nil {
		return 0, fmt.Errorf("get or create %s: %w", kind, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("get or create %s: begin tx: %w", kind, err)
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO struct_records (kind, content_key, fields)
		VALUES (?, ?, ?)
		ON CONFLICT(content_key) DO NOTHING
	`, kind, key, fieldsJSON); err != nil {
		return 0, fmt.Errorf("get or create %s: insert: %w", kind, err)
	}

	var id int64
	if err := tx.QueryRowContext(ctx, `
		SELECT id FROM struct_records WHERE content_key = ?
	`, key).Scan(&id); err != nil {
		return 0, fmt.Errorf("get or create %s: select: %w", kind, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("get or create %s: commit: %w", kind, err)
	}
	return id, nil
}

// ReadStruct returns a struct record by storage id.
func (s *Store) ReadStruct(ctx context.Context, id int64) (StructRecord, error) {
	var rec StructRecord
	var fieldsJSON string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, kind, content_key, fields FROM struct_records WHERE id = ?
	`, id).Scan(&rec.ID, &rec.Kind, &rec.Key, &fieldsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return StructRecord{}, ir.NewNotFound("struct", fmt.Sprint(id), "no struct record with this id")
	}
	if err != nil {
		return StructRecord{}, fmt.Errorf("read struct: %w", err)
	}
	if rec.Fields, err = unmarshalFields(fieldsJSON); err != nil {
		return StructRecord{}, fmt.Errorf("struct %d: %w", id, err)
	}
	return rec, nil
}

// CountStructs returns the number of stored struct values of a kind.
func (s *Store) CountStructs(ctx context.Context, kind string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM struct_records WHERE kind = ?
	`, kind).Scan(&n); err != nil {
		return 0, fmt.Errorf("count structs: %w", err)
	}
	return n, nil
}
