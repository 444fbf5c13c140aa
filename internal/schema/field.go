package schema

import "fmt"

// Kind is the declared local type of a field.
type Kind int

const (
	KindText Kind = iota + 1
	KindDateTime
	KindInteger64
	KindRelation
	KindBoolean
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindDateTime:
		return "datetime"
	case KindInteger64:
		return "integer64"
	case KindRelation:
		return "relation"
	case KindBoolean:
		return "boolean"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// FieldSpec declares one tracked field.
type FieldSpec struct {
	Name string
	Kind Kind

	// Target is the related entity or struct kind for KindRelation.
	Target string

	Nullable bool
}

// String renders the spec for diagnostics, e.g. "owner relation(user)".
func (f FieldSpec) String() string {
	s := f.Name + " " + f.Kind.String()
	if f.Kind == KindRelation {
		s += "(" + f.Target + ")"
	}
	if f.Nullable {
		s += "?"
	}
	return s
}

func text(name string) FieldSpec {
	return FieldSpec{Name: name, Kind: KindText, Nullable: true}
}

func datetime(name string) FieldSpec {
	return FieldSpec{Name: name, Kind: KindDateTime, Nullable: true}
}

func integer(name string) FieldSpec {
	return FieldSpec{Name: name, Kind: KindInteger64, Nullable: true}
}

func boolean(name string) FieldSpec {
	return FieldSpec{Name: name, Kind: KindBoolean, Nullable: true}
}

func relation(name, target string) FieldSpec {
	return FieldSpec{Name: name, Kind: KindRelation, Target: target, Nullable: true}
}

func required(f FieldSpec) FieldSpec {
	f.Nullable = false
	return f
}
