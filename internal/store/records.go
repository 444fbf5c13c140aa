package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/roach88/graphmirror/internal/ir"
	"github.com/roach88/graphmirror/internal/queryir"
)

// recordColumns are the columns of the records table, in scan order. They
// are also the only identifiers a predicate may name.
var recordColumns = []string{"id", "entity", "viewer", "pkey", "owner_ref", "fields"}

// ByViewer matches records belonging to viewer.
func ByViewer(viewer string) queryir.Predicate {
	return queryir.Eq("viewer", ir.IRString(viewer))
}

// ByKey matches records whose primary identifier renders as key.
func ByKey(key string) queryir.Predicate {
	return queryir.Eq("pkey", ir.IRString(key))
}

// ByOwner matches records owned by the user record with the given storage id.
func ByOwner(ownerID int64) queryir.Predicate {
	return queryir.Eq("owner_ref", ir.IRInt(ownerID))
}

// ByID matches the record with the given storage id.
func ByID(id int64) queryir.Predicate {
	return queryir.Eq("id", ir.IRInt(id))
}

// Filter returns every record of entity matching pred, ordered by id.
// A nil pred matches all records of the entity.
//
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) Filter(ctx context.Context, entity string, pred queryir.Predicate) ([]ir.LocalRecord, error) {
	return s.selectRecords(ctx, entity, pred, 0)
}

// Latest returns the n records of entity matching pred with the highest
// storage ids, ordered by id.
func (s *Store) Latest(ctx context.Context, entity string, pred queryir.Predicate, n int) ([]ir.LocalRecord, error) {
	if n <= 0 {
		return []ir.LocalRecord{}, nil
	}
	return s.selectRecords(ctx, entity, pred, n)
}

// Get returns the single record of entity matching pred. Zero or several
// matches return a NOT_FOUND error.
func (s *Store) Get(ctx context.Context, entity string, pred queryir.Predicate) (ir.LocalRecord, error) {
	recs, err := s.selectRecords(ctx, entity, pred, 0)
	if err != nil {
		return ir.LocalRecord{}, err
	}
	switch len(recs) {
	case 1:
		return recs[0], nil
	case 0:
		return ir.LocalRecord{}, ir.NewNotFound(entity, describe(pred), "no local record matches")
	default:
		return ir.LocalRecord{}, ir.NewNotFound(entity, describe(pred),
			fmt.Sprintf("%d local records match, expected exactly one", len(recs)))
	}
}

// Create inserts a new record and returns it with its storage id set.
// A uniqueness violation returns an INTEGRITY_CONFLICT error.
func (s *Store) Create(ctx context.Context, rec ir.LocalRecord) (ir.LocalRecord, error) {
	fieldsJSON, err := marshalFields(rec.Fields)
	if err != nil {
		return ir.LocalRecord{}, fmt.Errorf("create record: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO records (entity, viewer, pkey, owner_ref, fields)
		VALUES (?, ?, ?, ?, ?)
	`, rec.Entity, rec.Viewer, rec.Key, rec.Owner, fieldsJSON)
	if err != nil {
		if isUniqueViolation(err) {
			return ir.LocalRecord{}, ir.NewIntegrityConflict(rec.Entity, rec.Key, err)
		}
		return ir.LocalRecord{}, fmt.Errorf("create record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return ir.LocalRecord{}, fmt.Errorf("create record: last insert id: %w", err)
	}
	rec.ID = id
	return rec, nil
}

// Save writes rec by storage id: the row is overwritten when rec.ID exists
// and inserted under that id otherwise. A record without an id is created.
func (s *Store) Save(ctx context.Context, rec ir.LocalRecord) (ir.LocalRecord, error) {
	if rec.ID == 0 {
		return s.Create(ctx, rec)
	}

	fieldsJSON, err := marshalFields(rec.Fields)
	if err != nil {
		return ir.LocalRecord{}, fmt.Errorf("save record: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO records (id, entity, viewer, pkey, owner_ref, fields)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			entity = excluded.entity,
			viewer = excluded.viewer,
			pkey = excluded.pkey,
			owner_ref = excluded.owner_ref,
			fields = excluded.fields
	`, rec.ID, rec.Entity, rec.Viewer, rec.Key, rec.Owner, fieldsJSON)
	if err != nil {
		if isUniqueViolation(err) {
			return ir.LocalRecord{}, ir.NewIntegrityConflict(rec.Entity, rec.Key, err)
		}
		return ir.LocalRecord{}, fmt.Errorf("save record: %w", err)
	}
	return rec, nil
}

// Delete removes a record by storage id. Deleting a row that does not
// exist returns a NOT_FOUND error.
func (s *Store) Delete(ctx context.Context, rec ir.LocalRecord) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, rec.ID)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete record: rows affected: %w", err)
	}
	if n == 0 {
		return ir.NewNotFound(rec.Entity, rec.Key, fmt.Sprintf("no local record with id %d", rec.ID))
	}
	return nil
}

func (s *Store) selectRecords(ctx context.Context, entity string, pred queryir.Predicate, newest int) ([]ir.LocalRecord, error) {
	filter := []queryir.Predicate{queryir.Eq("entity", ir.IRString(entity))}
	if pred != nil {
		filter = append(filter, pred)
	}

	query, params, err := s.compiler.Compile(queryir.Select{
		From:    "records",
		Columns: recordColumns,
		Filter:  queryir.All(filter...),
		Newest:  newest,
	})
	if err != nil {
		return nil, fmt.Errorf("compile record query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	recs := []ir.LocalRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return recs, nil
}

func scanRecord(rows *sql.Rows) (ir.LocalRecord, error) {
	var rec ir.LocalRecord
	var fieldsJSON string
	if err := rows.Scan(&rec.ID, &rec.Entity, &rec.Viewer, &rec.Key, &rec.Owner, &fieldsJSON); err != nil {
		return ir.LocalRecord{}, fmt.Errorf("scan record: %w", err)
	}
	fields, err := unmarshalFields(fieldsJSON)
	if err != nil {
		return ir.LocalRecord{}, fmt.Errorf("record %d: %w", rec.ID, err)
	}
	rec.Fields = fields
	return rec, nil
}

// describe renders a predicate as "col=value" pairs for error messages.
func describe(pred queryir.Predicate) string {
	var parts []string
	var walk func(queryir.Predicate)
	walk = func(p queryir.Predicate) {
		switch v := p.(type) {
		case queryir.Equals:
			if s, ok := ir.KeyString(v.Value); ok {
				parts = append(parts, v.Field+"="+s)
			}
		case queryir.And:
			for _, child := range v.Predicates {
				walk(child)
			}
		}
	}
	walk(pred)
	return strings.Join(parts, " ")
}
