/*
Package mapper – bundled extensions.
*/
package mapper

import (
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-openapi/strfmt"

	uid "github.com/cloudxsgmbh/dynamodb-mapper-go/internal/uid"
)

// ─── VersionedRecordExtension ────────────────────────────────────────────────

// VersionedRecordExtension implements optimistic locking on a numeric version
// attribute. The first write of an item requires the attribute to be absent;
// every later write asserts the value it read and increments it. The
// generated condition rides only on single-item puts; inside a batch the core
// rejects it before any transport call.
type VersionedRecordExtension struct {
	Attribute string
}

// NewVersionedRecordExtension builds the extension for the named attribute.
func NewVersionedRecordExtension(attribute string) *VersionedRecordExtension {
	return &VersionedRecordExtension{Attribute: attribute}
}

func (x *VersionedRecordExtension) BeforeWrite(item Item, _ OperationContext, _ TableMetadata) (WriteModification, error) {
	out := cloneItem(item)
	current, ok := out[x.Attribute]
	if !ok || isNullValue(current) {
		out[x.Attribute] = IntValue(1)
		cond, err := buildCondition(expression.Name(x.Attribute).AttributeNotExists())
		if err != nil {
			return WriteModification{}, err
		}
		return WriteModification{TransformedItem: out, Condition: cond}, nil
	}
	n, isNum := current.(*types.AttributeValueMemberN)
	if !isNum {
		return WriteModification{}, NewError(
			fmt.Sprintf("Version attribute %q is not numeric", x.Attribute),
			WithCode(ErrType),
			WithContext(map[string]any{"attribute": x.Attribute, "actual": kindOf(current)}))
	}
	v, err := strconv.ParseInt(n.Value, 10, 64)
	if err != nil {
		return WriteModification{}, NewError(
			fmt.Sprintf("Cannot parse version %q", n.Value),
			WithCode(ErrType), WithCause(err))
	}
	out[x.Attribute] = IntValue(v + 1)
	cond, err := buildCondition(expression.Name(x.Attribute).Equal(expression.Value(v)))
	if err != nil {
		return WriteModification{}, err
	}
	return WriteModification{TransformedItem: out, Condition: cond}, nil
}

func (x *VersionedRecordExtension) AfterRead(Item, OperationContext, TableMetadata) (ReadModification, error) {
	return ReadModification{}, nil
}

// buildCondition renders an SDK condition builder into an Expression.
func buildCondition(cb expression.ConditionBuilder) (*Expression, error) {
	built, err := expression.NewBuilder().WithCondition(cb).Build()
	if err != nil {
		return nil, NewError("Cannot build condition expression",
			WithCode(ErrArgument), WithCause(err))
	}
	return &Expression{
		Statement: *built.Condition(),
		Names:     built.Names(),
		Values:    built.Values(),
	}, nil
}

// ─── TimestampRecordExtension ────────────────────────────────────────────────

// TimestampRecordExtension stamps created/updated attributes on every write.
// The created stamp is set once and then preserved. Now is replaceable for
// tests; nil means time.Now.
type TimestampRecordExtension struct {
	CreatedAttribute string
	UpdatedAttribute string
	Now              func() time.Time
}

// NewTimestampRecordExtension builds the extension with the default
// "created" / "updated" attribute names.
func NewTimestampRecordExtension() *TimestampRecordExtension {
	return &TimestampRecordExtension{CreatedAttribute: "created", UpdatedAttribute: "updated"}
}

func (x *TimestampRecordExtension) BeforeWrite(item Item, _ OperationContext, _ TableMetadata) (WriteModification, error) {
	now := time.Now
	if x.Now != nil {
		now = x.Now
	}
	stamp := strfmt.DateTime(now().UTC()).String()
	out := cloneItem(item)
	if _, ok := out[x.CreatedAttribute]; !ok {
		out[x.CreatedAttribute] = StringValue(stamp)
	}
	out[x.UpdatedAttribute] = StringValue(stamp)
	return WriteModification{TransformedItem: out}, nil
}

func (x *TimestampRecordExtension) AfterRead(Item, OperationContext, TableMetadata) (ReadModification, error) {
	return ReadModification{}, nil
}

// ─── GeneratedKeyExtension ───────────────────────────────────────────────────

// GeneratedKeyExtension fills an absent partition key attribute with a fresh
// id. Generator is "ulid" (default), "uuid" or "uid"; Size applies to "uid"
// and defaults to 10.
type GeneratedKeyExtension struct {
	Generator string
	Size      int
}

func (x *GeneratedKeyExtension) BeforeWrite(item Item, _ OperationContext, meta TableMetadata) (WriteModification, error) {
	if meta.Partition == "" || hasKeyValue(item, meta.Partition) {
		return WriteModification{}, nil
	}
	var id string
	switch x.Generator {
	case "", "ulid":
		id = uid.ULID()
	case "uuid":
		id = uid.UUID()
	case "uid":
		size := x.Size
		if size <= 0 {
			size = 10
		}
		id = uid.UID(size)
	default:
		return WriteModification{}, NewArgError(fmt.Sprintf("Unknown id generator %q", x.Generator))
	}
	out := cloneItem(item)
	out[meta.Partition] = StringValue(id)
	return WriteModification{TransformedItem: out}, nil
}

func (x *GeneratedKeyExtension) AfterRead(Item, OperationContext, TableMetadata) (ReadModification, error) {
	return ReadModification{}, nil
}

// hasKeyValue reports whether the attribute is present with a usable value.
// Empty strings count as absent, matching how key attributes behave.
func hasKeyValue(item Item, name string) bool {
	v, ok := item[name]
	if !ok || isNullValue(v) {
		return false
	}
	if s, isS := v.(*types.AttributeValueMemberS); isS && s.Value == "" {
		return false
	}
	return true
}

// ─── ChainExtension ──────────────────────────────────────────────────────────

// ChainExtension applies extensions in order. Each transformed item feeds the
// next extension; conditions merge into one conjunction.
type ChainExtension struct {
	extensions []Extension
}

// NewChainExtension builds a chain over the given extensions.
func NewChainExtension(extensions ...Extension) *ChainExtension {
	return &ChainExtension{extensions: extensions}
}

func (x *ChainExtension) BeforeWrite(item Item, octx OperationContext, meta TableMetadata) (WriteModification, error) {
	current := item
	var transformed Item
	var condition *Expression
	for _, e := range x.extensions {
		mod, err := e.BeforeWrite(current, octx, meta)
		if err != nil {
			return WriteModification{}, err
		}
		if mod.TransformedItem != nil {
			transformed = mod.TransformedItem
			current = mod.TransformedItem
		}
		if mod.Condition == nil {
			continue
		}
		if condition == nil {
			c := *mod.Condition
			condition = &c
			continue
		}
		joined, err := condition.And(*mod.Condition)
		if err != nil {
			return WriteModification{}, err
		}
		condition = &joined
	}
	return WriteModification{TransformedItem: transformed, Condition: condition}, nil
}

func (x *ChainExtension) AfterRead(item Item, octx OperationContext, meta TableMetadata) (ReadModification, error) {
	current := item
	var transformed Item
	for _, e := range x.extensions {
		mod, err := e.AfterRead(current, octx, meta)
		if err != nil {
			return ReadModification{}, err
		}
		if mod.TransformedItem != nil {
			transformed = mod.TransformedItem
			current = mod.TransformedItem
		}
	}
	return ReadModification{TransformedItem: transformed}, nil
}
