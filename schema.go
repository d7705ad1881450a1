/*
Package mapper – typed table schemas.

A Schema binds one Go struct type to a wire attribute map through an ordered
list of attribute bindings. Accessor and mutator closures are resolved when
the schema is built, so the data path never touches reflection. Schemas are
immutable once built and safe for concurrent use.
*/
package mapper

import (
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Attribute is one (name, accessor, mutator, converter) binding produced by
// Attr or one of its typed shorthands.
type Attribute[T any] struct {
	name string
	get  func(*T) (types.AttributeValue, error)
	set  func(*T, types.AttributeValue) error
}

// Attr binds an attribute name to an accessor/mutator pair through a
// converter. The converter's value type is erased here, at build time.
func Attr[T, V any](name string, conv Converter[V], get func(*T) V, set func(*T, V)) Attribute[T] {
	return Attribute[T]{
		name: name,
		get: func(item *T) (types.AttributeValue, error) {
			return conv.ToAttributeValue(get(item))
		},
		set: func(item *T, av types.AttributeValue) error {
			v, err := conv.FromAttributeValue(av)
			if err != nil {
				return err
			}
			set(item, v)
			return nil
		},
	}
}

// ─── Typed shorthands ────────────────────────────────────────────────────────

func StringAttr[T any](name string, get func(*T) string, set func(*T, string)) Attribute[T] {
	return Attr(name, StringConverter{}, get, set)
}

func IntAttr[T any](name string, get func(*T) int, set func(*T, int)) Attribute[T] {
	return Attr(name, IntConverter{}, get, set)
}

func Int64Attr[T any](name string, get func(*T) int64, set func(*T, int64)) Attribute[T] {
	return Attr(name, Int64Converter{}, get, set)
}

func Float64Attr[T any](name string, get func(*T) float64, set func(*T, float64)) Attribute[T] {
	return Attr(name, Float64Converter{}, get, set)
}

func BoolAttr[T any](name string, get func(*T) bool, set func(*T, bool)) Attribute[T] {
	return Attr(name, BoolConverter{}, get, set)
}

func BinaryAttr[T any](name string, get func(*T) []byte, set func(*T, []byte)) Attribute[T] {
	return Attr(name, BinaryConverter{}, get, set)
}

func TimeAttr[T any](name string, get func(*T) time.Time, set func(*T, time.Time)) Attribute[T] {
	return Attr(name, DateTimeConverter{}, get, set)
}

func StringSetAttr[T any](name string, get func(*T) []string, set func(*T, []string)) Attribute[T] {
	return Attr(name, StringSetConverter{}, get, set)
}

// ─── Schema ──────────────────────────────────────────────────────────────────

// Schema is an immutable description of how one struct type maps to a table
// item. Build one with NewSchema.
type Schema[T any] struct {
	attrs     []Attribute[T]
	index     map[string]int
	partition string
	sort      string
}

// SchemaBuilder accumulates attribute bindings and key declarations.
type SchemaBuilder[T any] struct {
	attrs     []Attribute[T]
	partition string
	sort      string
}

// NewSchema starts a builder for item type T.
func NewSchema[T any]() *SchemaBuilder[T] {
	return &SchemaBuilder[T]{}
}

// Attributes appends bindings in declaration order.
func (b *SchemaBuilder[T]) Attributes(attrs ...Attribute[T]) *SchemaBuilder[T] {
	b.attrs = append(b.attrs, attrs...)
	return b
}

// PartitionKey designates the partition key attribute.
func (b *SchemaBuilder[T]) PartitionKey(name string) *SchemaBuilder[T] {
	b.partition = name
	return b
}

// SortKey designates the sort key attribute.
func (b *SchemaBuilder[T]) SortKey(name string) *SchemaBuilder[T] {
	b.sort = name
	return b
}

// Extend merges a parent schema's bindings ahead of the builder's own, viewing
// the parent through project (typically the address of an embedded struct).
// Key declarations are inherited unless the builder sets its own. Extend is a
// function because Go methods cannot introduce the parent's type parameter.
func Extend[T, P any](b *SchemaBuilder[T], parent *Schema[P], project func(*T) *P) *SchemaBuilder[T] {
	adapted := make([]Attribute[T], 0, len(parent.attrs))
	for _, pa := range parent.attrs {
		pa := pa // per-iteration copy; the closures must capture this binding, not the loop slot
		adapted = append(adapted, Attribute[T]{
			name: pa.name,
			get:  func(item *T) (types.AttributeValue, error) { return pa.get(project(item)) },
			set:  func(item *T, av types.AttributeValue) error { return pa.set(project(item), av) },
		})
	}
	b.attrs = append(adapted, b.attrs...)
	if b.partition == "" {
		b.partition = parent.partition
	}
	if b.sort == "" {
		b.sort = parent.sort
	}
	return b
}

// Build validates the accumulated configuration and freezes the schema.
// Duplicate attribute names and unbound or missing key declarations are
// reported here, never at conversion time.
func (b *SchemaBuilder[T]) Build() (*Schema[T], error) {
	if len(b.attrs) == 0 {
		return nil, NewArgError("Schema has no attributes")
	}
	index := make(map[string]int, len(b.attrs))
	for i, a := range b.attrs {
		if a.name == "" {
			return nil, NewArgError("Attribute name must not be empty")
		}
		if _, dup := index[a.name]; dup {
			return nil, NewArgError(fmt.Sprintf("Duplicate attribute %q", a.name))
		}
		index[a.name] = i
	}
	if b.partition == "" {
		return nil, NewArgError("Missing partition key declaration")
	}
	if _, ok := index[b.partition]; !ok {
		return nil, NewArgError(fmt.Sprintf("Partition key %q has no attribute binding", b.partition))
	}
	if b.sort != "" {
		if _, ok := index[b.sort]; !ok {
			return nil, NewArgError(fmt.Sprintf("Sort key %q has no attribute binding", b.sort))
		}
	}
	attrs := make([]Attribute[T], len(b.attrs))
	copy(attrs, b.attrs)
	return &Schema[T]{attrs: attrs, index: index, partition: b.partition, sort: b.sort}, nil
}

// ─── Conversion ──────────────────────────────────────────────────────────────

// MarshalItem converts a typed item to its full wire map. Attributes whose
// converted value is NULL are omitted, which is the shape writes expect.
func (s *Schema[T]) MarshalItem(item *T) (Item, error) {
	out := make(Item, len(s.attrs))
	for _, a := range s.attrs {
		av, err := a.get(item)
		if err != nil {
			return nil, attributeError(a.name, err)
		}
		if isNullValue(av) {
			continue
		}
		out[a.name] = av
	}
	return out, nil
}

// MarshalKeys converts only the declared key attributes of item.
func (s *Schema[T]) MarshalKeys(item *T) (Item, error) {
	out := make(Item, 2)
	for _, name := range s.keyNames() {
		a := s.attrs[s.index[name]]
		av, err := a.get(item)
		if err != nil {
			return nil, attributeError(name, err)
		}
		out[name] = av
	}
	return out, nil
}

// UnmarshalItem builds a fresh item from a wire map. Absent and NULL
// attributes leave their fields at the zero value; unknown wire attributes
// are ignored.
func (s *Schema[T]) UnmarshalItem(av Item) (*T, error) {
	item := new(T)
	for _, a := range s.attrs {
		v, ok := av[a.name]
		if !ok || isNullValue(v) {
			continue
		}
		if err := a.set(item, v); err != nil {
			return nil, attributeError(a.name, err)
		}
	}
	return item, nil
}

// KeyMap renders a Key into the minimal wire map holding only key attributes.
func (s *Schema[T]) KeyMap(key Key) (Item, error) {
	if key.partition == nil {
		return nil, NewArgError("Key has no partition value")
	}
	out := Item{s.partition: key.partition}
	if key.sort != nil {
		if s.sort == "" {
			return nil, NewArgError("Key has a sort value but the schema declares no sort key")
		}
		out[s.sort] = key.sort
	}
	return out, nil
}

// Metadata reports the key attribute names.
func (s *Schema[T]) Metadata() TableMetadata {
	return TableMetadata{Partition: s.partition, Sort: s.sort}
}

// AttributeNames lists attribute names in declaration order.
func (s *Schema[T]) AttributeNames() []string {
	names := make([]string, len(s.attrs))
	for i, a := range s.attrs {
		names[i] = a.name
	}
	return names
}

// HasAttribute reports whether name is bound anywhere in the composed schema.
func (s *Schema[T]) HasAttribute(name string) bool {
	_, ok := s.index[name]
	return ok
}

func (s *Schema[T]) keyNames() []string {
	if s.sort == "" {
		return []string{s.partition}
	}
	return []string{s.partition, s.sort}
}

// attributeError tags a conversion failure with the offending attribute name.
func attributeError(name string, err error) error {
	var me *MapperError
	if errors.As(err, &me) {
		ctx := map[string]any{"attribute": name}
		for k, v := range me.Context {
			ctx[k] = v
		}
		return NewError(fmt.Sprintf("Attribute %q: %s", name, me.Message),
			WithCode(me.Code), WithContext(ctx), WithCause(me.Cause))
	}
	return NewError(fmt.Sprintf("Attribute %q: %s", name, err.Error()),
		WithCode(ErrType), WithCause(err))
}
