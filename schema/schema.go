// Package schema describes the static shape of the index: namespaces,
// their typed fields, primary keys, foreign keys, and the sharding
// function documents are assigned through.
package schema

import "fmt"

// FieldType is the tagged-union field value type from the data model.
type FieldType int

const (
	String FieldType = iota
	Int64
	Double
	Boolean
	GeoPoint
	Vector
	ListOfString
	ListOfInt64
	ListOfDouble
	ListOfGeoPoint
	ListOfVector
	ListOfDocument
)

func (t FieldType) String() string {
	switch t {
	case String:
		return "string"
	case Int64:
		return "int64"
	case Double:
		return "double"
	case Boolean:
		return "boolean"
	case GeoPoint:
		return "geo_point"
	case Vector:
		return "vector"
	case ListOfString:
		return "list<string>"
	case ListOfInt64:
		return "list<int64>"
	case ListOfDouble:
		return "list<double>"
	case ListOfGeoPoint:
		return "list<geo_point>"
	case ListOfVector:
		return "list<vector>"
	case ListOfDocument:
		return "list<document>"
	default:
		return "unknown"
	}
}

// Field describes a single typed field on a namespace.
type Field struct {
	Name      string    `yaml:"name"`
	Type      FieldType `yaml:"type"`
	VectorDim int       `yaml:"vectorDim,omitempty"`
	DocValues bool      `yaml:"docValues"`
	Stored    bool      `yaml:"stored"`
}

// Container is the physical container a foreign-key value is held in.
type Container int

const (
	Scalar Container = iota
	List
)

// ForeignKey declares a relationship from the owning namespace to one or
// more child namespaces.
type ForeignKey struct {
	Name      string    `yaml:"name"`
	Container Container `yaml:"container"`
	Children  []string  `yaml:"children"`
	Required  bool      `yaml:"required"`
}

// Namespace is a logical document class: a unique name, a primary-key
// field, zero or more foreign keys, and a typed field list.
type Namespace struct {
	Name        string       `yaml:"name"`
	PrimaryKey  string       `yaml:"primaryKey"`
	Fields      []Field      `yaml:"fields"`
	ForeignKeys []ForeignKey `yaml:"foreignKeys"`

	fieldIndex  map[string]Field
	foreignKeys map[string]ForeignKey
}

// buildIndexes populates the lookup maps; called lazily by accessors so
// a Namespace built by hand (not decoded from YAML) still works.
func (ns *Namespace) buildIndexes() {
	if ns.fieldIndex != nil {
		return
	}
	ns.fieldIndex = make(map[string]Field, len(ns.Fields))
	for _, f := range ns.Fields {
		ns.fieldIndex[f.Name] = f
	}
	ns.foreignKeys = make(map[string]ForeignKey, len(ns.ForeignKeys))
	for _, fk := range ns.ForeignKeys {
		ns.foreignKeys[fk.Name] = fk
	}
}

// Field looks up a field by name.
func (ns *Namespace) Field(name string) (Field, bool) {
	ns.buildIndexes()
	f, ok := ns.fieldIndex[name]
	return f, ok
}

// ForeignKey looks up a foreign key by name.
func (ns *Namespace) ForeignKey(name string) (ForeignKey, bool) {
	ns.buildIndexes()
	fk, ok := ns.foreignKeys[name]
	return fk, ok
}

// ForeignKeysTo returns every foreign key on ns whose Children includes
// childNamespace, sorted by Name so callers get a deterministic
// disambiguation order when several candidates exist; ambiguity beyond
// that is a validation error.
func (ns *Namespace) ForeignKeysTo(childNamespace string) []ForeignKey {
	var out []ForeignKey
	for _, fk := range ns.ForeignKeys {
		for _, c := range fk.Children {
			if c == childNamespace {
				out = append(out, fk)
				break
			}
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Name < out[j-1].Name; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// Schema is the full set of namespaces known to the system.
type Schema struct {
	Namespaces map[string]Namespace `yaml:"namespaces"`
}

// Namespace looks up a namespace by name.
func (s *Schema) Namespace(name string) (Namespace, bool) {
	ns, ok := s.Namespaces[name]
	return ns, ok
}

// Validate checks the structural invariants of a Schema: every
// namespace has a string primary key field, and every foreign key has a
// name and at least one child, each of which exists. A foreign key's
// Container is not checked.
func Validate(s *Schema) error {
	if s == nil || len(s.Namespaces) == 0 {
		return fmt.Errorf("schema: at least one namespace must be defined")
	}
	for name, ns := range s.Namespaces {
		if ns.Name == "" {
			return fmt.Errorf("schema: namespace key %q has empty Name", name)
		}
		if ns.PrimaryKey == "" {
			return fmt.Errorf("schema: namespace %q must declare a primaryKey field", ns.Name)
		}
		pk, ok := ns.Field(ns.PrimaryKey)
		if !ok {
			return fmt.Errorf("schema: namespace %q primaryKey %q is not a declared field", ns.Name, ns.PrimaryKey)
		}
		if pk.Type != String {
			return fmt.Errorf("schema: namespace %q primaryKey %q must be type string, got %s", ns.Name, ns.PrimaryKey, pk.Type)
		}
		for _, fk := range ns.ForeignKeys {
			if fk.Name == "" {
				return fmt.Errorf("schema: namespace %q has a foreign key with an empty name", ns.Name)
			}
			if len(fk.Children) == 0 {
				return fmt.Errorf("schema: foreign key %q on namespace %q declares no children", fk.Name, ns.Name)
			}
			for _, c := range fk.Children {
				if _, ok := s.Namespaces[c]; !ok {
					return fmt.Errorf("schema: foreign key %q on namespace %q references unknown child namespace %q", fk.Name, ns.Name, c)
				}
			}
		}
	}
	return nil
}
