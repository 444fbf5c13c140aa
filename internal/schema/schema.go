package schema

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/roach88/graphmirror/internal/ir"
)

// SessionOnly is the owner identifier of entities that are not scoped by an
// owner: the local comparison set is the viewer's newest RowLimit records.
const SessionOnly = "@session"

// Local-only identifiers. They are never tracked and never requested from
// the remote API.
var localOnly = map[string]bool{"id": true, "user": true}

// Schema describes one mirrored entity. Treat it as read-only.
type Schema struct {
	// Name is the remote resource name, also used as the local entity name.
	Name string

	// Fields in the order they are requested from the remote API.
	Fields []FieldSpec

	// PrimaryIdentifier is the unique business key.
	PrimaryIdentifier string

	// OwnerIdentifier is the relation field scoping the local comparison
	// set, or SessionOnly.
	OwnerIdentifier string

	// IsStream marks append/update-only entities.
	IsStream bool

	// RowLimit bounds the comparison set of SessionOnly entities.
	RowLimit int

	index map[string]int
}

// FieldNames returns tracked field names in declaration order.
func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Field returns the spec of a tracked field.
func (s *Schema) Field(name string) (FieldSpec, bool) {
	i, ok := s.index[name]
	if !ok {
		return FieldSpec{}, false
	}
	return s.Fields[i], true
}

// Primary returns the primary identifier's spec.
func (s *Schema) Primary() FieldSpec {
	f, _ := s.Field(s.PrimaryIdentifier)
	return f
}

// SessionScoped reports whether the entity has no owner scoping.
func (s *Schema) SessionScoped() bool {
	return s.OwnerIdentifier == SessionOnly
}

// Owner returns the owner field's spec. ok is false for SessionOnly entities.
func (s *Schema) Owner() (FieldSpec, bool) {
	if s.SessionScoped() {
		return FieldSpec{}, false
	}
	return s.Field(s.OwnerIdentifier)
}

// CheckKeys verifies that rec carries exactly the tracked field set.
// index is the record's position in its batch, used in the error message.
func (s *Schema) CheckKeys(index int, rec ir.RemoteRecord) error {
	var missing, extra []string
	for _, f := range s.Fields {
		if _, ok := rec[f.Name]; !ok {
			missing = append(missing, f.Name)
		}
	}
	for k := range rec {
		if _, ok := s.index[k]; !ok {
			extra = append(extra, k)
		}
	}
	if len(missing) == 0 && len(extra) == 0 {
		return nil
	}
	sort.Strings(extra)
	return ir.NewSchemaMismatch(s.Name, index, missing, extra)
}

// Retype restores IRTime values for DateTime fields of a record read back
// from storage, where instants are kept as RFC 3339 text.
func (s *Schema) Retype(fields ir.IRObject) ir.IRObject {
	out := make(ir.IRObject, len(fields))
	for k, v := range fields {
		out[k] = v
		f, ok := s.Field(k)
		if !ok || f.Kind != KindDateTime {
			continue
		}
		str, ok := v.(ir.IRString)
		if !ok {
			continue
		}
		if t, err := time.Parse(time.RFC3339, string(str)); err == nil {
			out[k] = ir.NewIRTime(t)
		}
	}
	return out
}

// StructSpec describes a shared struct kind.
type StructSpec struct {
	Kind string

	// Fields are the sub-fields that make up the content key.
	Fields []FieldSpec

	// Fallbacks maps a generic remote key to the sub-field it stands in
	// for when the specific key is absent, e.g. "count" -> "comment_count".
	Fallbacks map[string]string
}

// Registry is the static catalogue of entity schemas and struct kinds.
type Registry struct {
	entities map[string]*Schema
	order    []string
	structs  map[string]*StructSpec
}

// NewRegistry validates and indexes the given schemas and struct kinds.
func NewRegistry(schemas []*Schema, structs []*StructSpec) (*Registry, error) {
	r := &Registry{
		entities: make(map[string]*Schema, len(schemas)),
		structs:  make(map[string]*StructSpec, len(structs)),
	}

	for _, st := range structs {
		if _, dup := r.structs[st.Kind]; dup {
			return nil, fmt.Errorf("duplicate struct kind %q", st.Kind)
		}
		r.structs[st.Kind] = st
	}

	for _, s := range schemas {
		if _, dup := r.entities[s.Name]; dup {
			return nil, fmt.Errorf("duplicate entity %q", s.Name)
		}
		s.index = make(map[string]int, len(s.Fields))
		for i, f := range s.Fields {
			if localOnly[f.Name] {
				return nil, fmt.Errorf("entity %q: field %q is a local-only identifier", s.Name, f.Name)
			}
			if _, dup := s.index[f.Name]; dup {
				return nil, fmt.Errorf("entity %q: duplicate field %q", s.Name, f.Name)
			}
			s.index[f.Name] = i
		}
		r.entities[s.Name] = s
		r.order = append(r.order, s.Name)
	}

	for _, name := range r.order {
		if err := r.validate(r.entities[name]); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// MustNewRegistry is like NewRegistry but panics on error.
func MustNewRegistry(schemas []*Schema, structs []*StructSpec) *Registry {
	r, err := NewRegistry(schemas, structs)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Registry) validate(s *Schema) error {
	primary, ok := s.Field(s.PrimaryIdentifier)
	if !ok {
		return fmt.Errorf("entity %q: primary identifier %q is not a field", s.Name, s.PrimaryIdentifier)
	}
	if primary.Kind != KindText && primary.Kind != KindInteger64 {
		return fmt.Errorf("entity %q: primary identifier must be text or integer64, got %s", s.Name, primary.Kind)
	}

	if s.SessionScoped() {
		if s.RowLimit <= 0 {
			return fmt.Errorf("entity %q: session-scoped entities need a positive row limit", s.Name)
		}
	} else {
		owner, ok := s.Field(s.OwnerIdentifier)
		if !ok {
			return fmt.Errorf("entity %q: owner identifier %q is not a field", s.Name, s.OwnerIdentifier)
		}
		if owner.Kind != KindRelation || r.IsStruct(owner.Target) {
			return fmt.Errorf("entity %q: owner identifier %q must relate to an entity", s.Name, s.OwnerIdentifier)
		}
	}

	for _, f := range s.Fields {
		if f.Kind != KindRelation {
			continue
		}
		if _, ok := r.entities[f.Target]; ok {
			continue
		}
		if r.IsStruct(f.Target) {
			continue
		}
		return fmt.Errorf("entity %q: field %q relates to unknown target %q", s.Name, f.Name, f.Target)
	}
	return nil
}

// Lookup returns the schema for an entity name.
func (r *Registry) Lookup(name string) (*Schema, bool) {
	s, ok := r.entities[name]
	return s, ok
}

// Names returns entity names in catalogue order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Struct returns the spec of a struct kind.
func (r *Registry) Struct(kind string) (*StructSpec, bool) {
	st, ok := r.structs[kind]
	return st, ok
}

// IsStruct reports whether target names a struct kind.
func (r *Registry) IsStruct(target string) bool {
	_, ok := r.structs[target]
	return ok
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	return MustNewRegistry(Entities(), Structs())
})

// Default returns the built-in catalogue.
func Default() *Registry {
	return defaultRegistry()
}
