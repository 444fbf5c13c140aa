package coerce

import (
	"context"
	"fmt"

	"github.com/roach88/graphmirror/internal/ir"
	"github.com/roach88/graphmirror/internal/schema"
)

// StructStore persists shared struct values.
type StructStore interface {
	GetOrCreateStruct(ctx context.Context, kind string, fields ir.IRObject) (int64, error)
}

// StructCache get-or-creates struct records, memoizing ids by content key.
// Struct rows are never deleted, so a memoized id stays valid for the life
// of the store. Not safe for concurrent use.
type StructCache struct {
	store StructStore
	ids   map[string]int64
}

// NewStructCache creates a cache over store.
func NewStructCache(store StructStore) *StructCache {
	return &StructCache{store: store, ids: make(map[string]int64)}
}

// Len returns the number of memoized struct values.
func (c *StructCache) Len() int {
	return len(c.ids)
}

// GetOrCreate returns the storage id of the struct value described by raw,
// a decoded remote object. ok is false when raw carries no sub-field
// values, in which case nothing is stored.
//
// A sub-field that is absent or null takes the value of its fallback key
// when the spec declares one (e.g. "count" for "comment_count"). Null
// sub-fields are left out of the content key.
func (c *StructCache) GetOrCreate(ctx context.Context, spec *schema.StructSpec, raw map[string]any) (id int64, ok bool, err error) {
	fields, err := structFields(spec, raw)
	if err != nil {
		return 0, false, err
	}
	if len(fields) == 0 {
		return 0, false, nil
	}

	key, err := ir.StructKey(spec.Kind, fields)
	if err != nil {
		return 0, false, fmt.Errorf("struct %s: %w", spec.Kind, err)
	}
	if id, hit := c.ids[key]; hit {
		return id, true, nil
	}

	id, err = c.store.GetOrCreateStruct(ctx, spec.Kind, fields)
	if err != nil {
		return 0, false, err
	}
	c.ids[key] = id
	return id, true, nil
}

func structFields(spec *schema.StructSpec, raw map[string]any) (ir.IRObject, error) {
	fallbackFor := make(map[string]string, len(spec.Fallbacks))
	for generic, specific := range spec.Fallbacks {
		fallbackFor[specific] = generic
	}

	fields := ir.IRObject{}
	for _, f := range spec.Fields {
		value := raw[f.Name]
		if isEmpty(value) {
			if generic, ok := fallbackFor[f.Name]; ok {
				value = raw[generic]
			}
		}
		v, err := Scalar(spec.Kind, f.Name, f.Kind, value)
		if err != nil {
			return nil, err
		}
		if _, null := v.(ir.IRNull); null {
			continue
		}
		fields[f.Name] = v
	}
	return fields, nil
}
