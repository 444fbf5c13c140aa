package coerce

import (
	"context"
	"fmt"

	"github.com/roach88/graphmirror/internal/ir"
	"github.com/roach88/graphmirror/internal/queryir"
	"github.com/roach88/graphmirror/internal/schema"
	"github.com/roach88/graphmirror/internal/store"
)

// RecordGetter looks up exactly one local record.
type RecordGetter interface {
	Get(ctx context.Context, entity string, pred queryir.Predicate) (ir.LocalRecord, error)
}

// Coercer converts remote records into local field values for one store.
type Coercer struct {
	registry *schema.Registry
	records  RecordGetter
	structs  *StructCache
}

// New creates a Coercer. records resolves entity relations and structs
// resolves struct relations.
func New(registry *schema.Registry, records RecordGetter, structs *StructCache) *Coercer {
	return &Coercer{registry: registry, records: records, structs: structs}
}

// Record coerces every tracked field of rec. Keys of rec outside the
// schema are skipped.
func (c *Coercer) Record(ctx context.Context, viewer string, s *schema.Schema, rec ir.RemoteRecord) (ir.IRObject, error) {
	out := make(ir.IRObject, len(s.Fields))
	for _, f := range s.Fields {
		v, err := c.Value(ctx, viewer, s.Name, f, rec[f.Name])
		if err != nil {
			return nil, err
		}
		out[f.Name] = v
	}
	return out, nil
}

// Value coerces one raw value to the field's declared kind. Relation values
// become the storage id of the referenced record.
func (c *Coercer) Value(ctx context.Context, viewer, entity string, f schema.FieldSpec, raw any) (ir.IRValue, error) {
	var (
		v   ir.IRValue
		err error
	)
	if f.Kind == schema.KindRelation {
		v, err = c.relation(ctx, viewer, entity, f, raw)
	} else {
		v, err = Scalar(entity, f.Name, f.Kind, raw)
	}
	if err != nil {
		return nil, err
	}
	if _, null := v.(ir.IRNull); null && !f.Nullable {
		return nil, ir.NewTypeMismatch(entity, f.Name, raw, errNull)
	}
	return v, nil
}

// NaturalKey returns the identifier raw names for field f: its own value
// for scalar fields, the target's primary identifier for entity relations.
// ok is false when raw is null or empty. No storage is consulted.
func (c *Coercer) NaturalKey(entity string, f schema.FieldSpec, raw any) (key string, ok bool, err error) {
	kind := f.Kind
	if f.Kind == schema.KindRelation {
		target, found := c.registry.Lookup(f.Target)
		if !found {
			return "", false, ir.NewTypeMismatch(entity, f.Name, raw,
				fmt.Errorf("relation to %s has no natural key", f.Target))
		}
		kind = target.Primary().Kind
	}

	v, err := Scalar(entity, f.Name, kind, raw)
	if err != nil {
		return "", false, err
	}
	if _, null := v.(ir.IRNull); null {
		return "", false, nil
	}
	key, ok = ir.KeyString(v)
	if !ok {
		return "", false, ir.NewTypeMismatch(entity, f.Name, raw, fmt.Errorf("%s is not a valid identifier", kind))
	}
	return key, true, nil
}

func (c *Coercer) relation(ctx context.Context, viewer, entity string, f schema.FieldSpec, raw any) (ir.IRValue, error) {
	if spec, ok := c.registry.Struct(f.Target); ok {
		return c.structRelation(ctx, entity, f, spec, raw)
	}

	key, ok, err := c.NaturalKey(entity, f, raw)
	if err != nil {
		return nil, err
	}
	if !ok {
		return ir.IRNull{}, nil
	}

	target, err := c.records.Get(ctx, f.Target, queryir.All(store.ByViewer(viewer), store.ByKey(key)))
	if err != nil {
		if ir.IsNotFound(err) {
			return nil, &ir.Error{
				Code:    ir.ErrCodeNotFound,
				Message: fmt.Sprintf("%s %s referenced by %s is not stored for viewer %s", f.Target, key, f.Name, viewer),
				Entity:  entity,
				Field:   f.Name,
				Key:     key,
				Err:     err,
			}
		}
		return nil, fmt.Errorf("resolve %s.%s: %w", entity, f.Name, err)
	}
	return ir.IRInt(target.ID), nil
}

func (c *Coercer) structRelation(ctx context.Context, entity string, f schema.FieldSpec, spec *schema.StructSpec, raw any) (ir.IRValue, error) {
	if isEmpty(raw) {
		return ir.IRNull{}, nil
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, ir.NewTypeMismatch(entity, f.Name, raw, fmt.Errorf("%s must be an object", spec.Kind))
	}

	id, ok, err := c.structs.GetOrCreate(ctx, spec, obj)
	if err != nil {
		return nil, err
	}
	if !ok {
		return ir.IRNull{}, nil
	}
	return ir.IRInt(id), nil
}
