/*
Package mapper – attribute converters.

A Converter binds one Go value type to exactly one wire tag and back. All
converters are stateless; collection converters compose element converters
recursively, so there is no central dispatch anywhere.
*/
package mapper

import (
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-openapi/strfmt"
)

// Converter converts between a Go value and its wire attribute value. Both
// directions must round-trip; a wrong wire tag fails fast with an ErrType
// error, never a panic.
type Converter[V any] interface {
	ToAttributeValue(v V) (types.AttributeValue, error)
	FromAttributeValue(av types.AttributeValue) (V, error)
}

// ─── Scalars ─────────────────────────────────────────────────────────────────

// StringConverter maps string <-> S.
type StringConverter struct{}

func (StringConverter) ToAttributeValue(v string) (types.AttributeValue, error) {
	return &types.AttributeValueMemberS{Value: v}, nil
}

func (StringConverter) FromAttributeValue(av types.AttributeValue) (string, error) {
	s, ok := av.(*types.AttributeValueMemberS)
	if !ok {
		return "", typeMismatch("S", av)
	}
	return s.Value, nil
}

// BoolConverter maps bool <-> BOOL.
type BoolConverter struct{}

func (BoolConverter) ToAttributeValue(v bool) (types.AttributeValue, error) {
	return &types.AttributeValueMemberBOOL{Value: v}, nil
}

func (BoolConverter) FromAttributeValue(av types.AttributeValue) (bool, error) {
	b, ok := av.(*types.AttributeValueMemberBOOL)
	if !ok {
		return false, typeMismatch("BOOL", av)
	}
	return b.Value, nil
}

// IntConverter maps int <-> N. Reading normalizes the representation, so
// leading zeros do not survive a round trip.
type IntConverter struct{}

func (IntConverter) ToAttributeValue(v int) (types.AttributeValue, error) {
	return &types.AttributeValueMemberN{Value: strconv.Itoa(v)}, nil
}

func (IntConverter) FromAttributeValue(av types.AttributeValue) (int, error) {
	n, ok := av.(*types.AttributeValueMemberN)
	if !ok {
		return 0, typeMismatch("N", av)
	}
	v, err := strconv.Atoi(n.Value)
	if err != nil {
		return 0, NewError(fmt.Sprintf("Cannot parse number %q", n.Value),
			WithCode(ErrType), WithCause(err))
	}
	return v, nil
}

// Int64Converter maps int64 <-> N.
type Int64Converter struct{}

func (Int64Converter) ToAttributeValue(v int64) (types.AttributeValue, error) {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(v, 10)}, nil
}

func (Int64Converter) FromAttributeValue(av types.AttributeValue) (int64, error) {
	n, ok := av.(*types.AttributeValueMemberN)
	if !ok {
		return 0, typeMismatch("N", av)
	}
	v, err := strconv.ParseInt(n.Value, 10, 64)
	if err != nil {
		return 0, NewError(fmt.Sprintf("Cannot parse number %q", n.Value),
			WithCode(ErrType), WithCause(err))
	}
	return v, nil
}

// Float64Converter maps float64 <-> N using the shortest exact representation.
type Float64Converter struct{}

func (Float64Converter) ToAttributeValue(v float64) (types.AttributeValue, error) {
	return &types.AttributeValueMemberN{Value: strconv.FormatFloat(v, 'g', -1, 64)}, nil
}

func (Float64Converter) FromAttributeValue(av types.AttributeValue) (float64, error) {
	n, ok := av.(*types.AttributeValueMemberN)
	if !ok {
		return 0, typeMismatch("N", av)
	}
	v, err := strconv.ParseFloat(n.Value, 64)
	if err != nil {
		return 0, NewError(fmt.Sprintf("Cannot parse number %q", n.Value),
			WithCode(ErrType), WithCause(err))
	}
	return v, nil
}

// BinaryConverter maps []byte <-> B.
type BinaryConverter struct{}

func (BinaryConverter) ToAttributeValue(v []byte) (types.AttributeValue, error) {
	return &types.AttributeValueMemberB{Value: v}, nil
}

func (BinaryConverter) FromAttributeValue(av types.AttributeValue) ([]byte, error) {
	b, ok := av.(*types.AttributeValueMemberB)
	if !ok {
		return nil, typeMismatch("B", av)
	}
	return b.Value, nil
}

// BigIntConverter maps *big.Int <-> N for numbers beyond int64 range. A nil
// value travels as NULL.
type BigIntConverter struct{}

func (BigIntConverter) ToAttributeValue(v *big.Int) (types.AttributeValue, error) {
	if v == nil {
		return NullValue(), nil
	}
	return &types.AttributeValueMemberN{Value: v.String()}, nil
}

func (BigIntConverter) FromAttributeValue(av types.AttributeValue) (*big.Int, error) {
	if av == nil || isNullValue(av) {
		return nil, nil
	}
	n, ok := av.(*types.AttributeValueMemberN)
	if !ok {
		return nil, typeMismatch("N", av)
	}
	v, ok := new(big.Int).SetString(n.Value, 10)
	if !ok {
		return nil, NewError(fmt.Sprintf("Cannot parse number %q", n.Value), WithCode(ErrType))
	}
	return v, nil
}

// ─── Optional wrapper ────────────────────────────────────────────────────────

// PointerConverter adapts an element converter to a pointer type. A nil
// pointer travels as the NULL attribute value and NULL reads back as nil, so
// absence round-trips through the empty sentinel in both directions.
type PointerConverter[V any] struct {
	Elem Converter[V]
}

func (c PointerConverter[V]) ToAttributeValue(v *V) (types.AttributeValue, error) {
	if v == nil {
		return NullValue(), nil
	}
	return c.Elem.ToAttributeValue(*v)
}

func (c PointerConverter[V]) FromAttributeValue(av types.AttributeValue) (*V, error) {
	if av == nil || isNullValue(av) {
		return nil, nil
	}
	v, err := c.Elem.FromAttributeValue(av)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ─── Collections ─────────────────────────────────────────────────────────────

// SliceConverter maps []V <-> L, preserving element order.
type SliceConverter[V any] struct {
	Elem Converter[V]
}

func (c SliceConverter[V]) ToAttributeValue(v []V) (types.AttributeValue, error) {
	out := make([]types.AttributeValue, 0, len(v))
	for _, e := range v {
		av, err := c.Elem.ToAttributeValue(e)
		if err != nil {
			return nil, err
		}
		out = append(out, av)
	}
	return &types.AttributeValueMemberL{Value: out}, nil
}

func (c SliceConverter[V]) FromAttributeValue(av types.AttributeValue) ([]V, error) {
	l, ok := av.(*types.AttributeValueMemberL)
	if !ok {
		return nil, typeMismatch("L", av)
	}
	out := make([]V, 0, len(l.Value))
	for _, e := range l.Value {
		v, err := c.Elem.FromAttributeValue(e)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// MapConverter maps map[string]V <-> M.
type MapConverter[V any] struct {
	Elem Converter[V]
}

func (c MapConverter[V]) ToAttributeValue(v map[string]V) (types.AttributeValue, error) {
	out := make(Item, len(v))
	for k, e := range v {
		av, err := c.Elem.ToAttributeValue(e)
		if err != nil {
			return nil, err
		}
		out[k] = av
	}
	return &types.AttributeValueMemberM{Value: out}, nil
}

func (c MapConverter[V]) FromAttributeValue(av types.AttributeValue) (map[string]V, error) {
	m, ok := av.(*types.AttributeValueMemberM)
	if !ok {
		return nil, typeMismatch("M", av)
	}
	out := make(map[string]V, len(m.Value))
	for k, e := range m.Value {
		v, err := c.Elem.FromAttributeValue(e)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

// ─── Sets ────────────────────────────────────────────────────────────────────

// StringSetConverter maps []string <-> SS. Duplicates collapse; first
// occurrence order is kept.
type StringSetConverter struct{}

func (StringSetConverter) ToAttributeValue(v []string) (types.AttributeValue, error) {
	return &types.AttributeValueMemberSS{Value: dedupStrings(v)}, nil
}

func (StringSetConverter) FromAttributeValue(av types.AttributeValue) ([]string, error) {
	ss, ok := av.(*types.AttributeValueMemberSS)
	if !ok {
		return nil, typeMismatch("SS", av)
	}
	return dedupStrings(ss.Value), nil
}

// Int64SetConverter maps []int64 <-> NS. Duplicates collapse.
type Int64SetConverter struct{}

func (Int64SetConverter) ToAttributeValue(v []int64) (types.AttributeValue, error) {
	seen := make(map[int64]bool, len(v))
	out := make([]string, 0, len(v))
	for _, n := range v {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, strconv.FormatInt(n, 10))
	}
	return &types.AttributeValueMemberNS{Value: out}, nil
}

func (Int64SetConverter) FromAttributeValue(av types.AttributeValue) ([]int64, error) {
	ns, ok := av.(*types.AttributeValueMemberNS)
	if !ok {
		return nil, typeMismatch("NS", av)
	}
	seen := make(map[int64]bool, len(ns.Value))
	out := make([]int64, 0, len(ns.Value))
	for _, s := range ns.Value {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, NewError(fmt.Sprintf("Cannot parse number %q", s),
				WithCode(ErrType), WithCause(err))
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out, nil
}

// BinarySetConverter maps [][]byte <-> BS. Duplicates collapse.
type BinarySetConverter struct{}

func (BinarySetConverter) ToAttributeValue(v [][]byte) (types.AttributeValue, error) {
	return &types.AttributeValueMemberBS{Value: dedupBytes(v)}, nil
}

func (BinarySetConverter) FromAttributeValue(av types.AttributeValue) ([][]byte, error) {
	bs, ok := av.(*types.AttributeValueMemberBS)
	if !ok {
		return nil, typeMismatch("BS", av)
	}
	return dedupBytes(bs.Value), nil
}

func dedupStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func dedupBytes(in [][]byte) [][]byte {
	seen := make(map[string]bool, len(in))
	out := make([][]byte, 0, len(in))
	for _, b := range in {
		k := string(b)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, b)
	}
	return out
}

// ─── Time and documents ──────────────────────────────────────────────────────

// DateTimeConverter maps time.Time <-> S in RFC 3339 form with millisecond
// precision, as rendered by strfmt.DateTime.
type DateTimeConverter struct{}

func (DateTimeConverter) ToAttributeValue(v time.Time) (types.AttributeValue, error) {
	return &types.AttributeValueMemberS{Value: strfmt.DateTime(v).String()}, nil
}

func (DateTimeConverter) FromAttributeValue(av types.AttributeValue) (time.Time, error) {
	s, ok := av.(*types.AttributeValueMemberS)
	if !ok {
		return time.Time{}, typeMismatch("S", av)
	}
	dt, err := strfmt.ParseDateTime(s.Value)
	if err != nil {
		return time.Time{}, NewError(fmt.Sprintf("Cannot parse datetime %q", s.Value),
			WithCode(ErrType), WithCause(err))
	}
	return time.Time(dt), nil
}

// DocumentConverter maps an arbitrary Go value through the SDK's reflective
// marshaller. Meant for loosely structured documents; typed attributes should
// use a dedicated converter.
type DocumentConverter struct{}

func (DocumentConverter) ToAttributeValue(v any) (types.AttributeValue, error) {
	return attributevalue.Marshal(v)
}

func (DocumentConverter) FromAttributeValue(av types.AttributeValue) (any, error) {
	var out any
	if err := attributevalue.Unmarshal(av, &out); err != nil {
		return nil, err
	}
	return out, nil
}
