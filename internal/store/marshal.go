package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/roach88/graphmirror/internal/ir"
)

// marshalFields converts a record's fields to JSON TEXT for storage.
// Keys are sorted; nulls are kept so a stored row always lists every
// tracked field.
func marshalFields(fields ir.IRObject) (string, error) {
	if fields == nil {
		return "{}", nil
	}
	data, err := fields.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("marshal fields: %w", err)
	}
	return string(data), nil
}

// unmarshalFields parses stored JSON TEXT. Large integers survive because
// ir.IRObject decodes numbers through json.Number.
func unmarshalFields(data string) (ir.IRObject, error) {
	if data == "" || data == "{}" {
		return ir.IRObject{}, nil
	}
	var obj ir.IRObject
	if err := json.Unmarshal([]byte(data), &obj); err != nil {
		return nil, fmt.Errorf("unmarshal fields: %w", err)
	}
	return obj, nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint
// failure.
func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
