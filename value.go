/*
Package mapper – attribute value helpers.

Constructors and tag inspection for the tagged union types.AttributeValue.
Exactly one tag is active per value; numbers travel as canonical decimal
strings.
*/
package mapper

import (
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Item is a wire-level attribute map, exactly as DynamoDB sees it.
type Item = map[string]types.AttributeValue

// StringValue builds an S attribute value.
func StringValue(v string) types.AttributeValue {
	return &types.AttributeValueMemberS{Value: v}
}

// NumberValue builds an N attribute value from a decimal string.
func NumberValue(v string) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: v}
}

// IntValue builds an N attribute value from an integer.
func IntValue(v int64) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(v, 10)}
}

// BoolValue builds a BOOL attribute value.
func BoolValue(v bool) types.AttributeValue {
	return &types.AttributeValueMemberBOOL{Value: v}
}

// BinaryValue builds a B attribute value.
func BinaryValue(v []byte) types.AttributeValue {
	return &types.AttributeValueMemberB{Value: v}
}

// NullValue builds the NULL attribute value.
func NullValue() types.AttributeValue {
	return &types.AttributeValueMemberNULL{Value: true}
}

// kindOf names the active tag of an attribute value for error reporting.
func kindOf(av types.AttributeValue) string {
	switch av.(type) {
	case *types.AttributeValueMemberS:
		return "S"
	case *types.AttributeValueMemberN:
		return "N"
	case *types.AttributeValueMemberB:
		return "B"
	case *types.AttributeValueMemberBOOL:
		return "BOOL"
	case *types.AttributeValueMemberNULL:
		return "NULL"
	case *types.AttributeValueMemberL:
		return "L"
	case *types.AttributeValueMemberM:
		return "M"
	case *types.AttributeValueMemberSS:
		return "SS"
	case *types.AttributeValueMemberNS:
		return "NS"
	case *types.AttributeValueMemberBS:
		return "BS"
	case nil:
		return "absent"
	}
	return "unknown"
}

// isNullValue reports whether av is the NULL member.
func isNullValue(av types.AttributeValue) bool {
	_, ok := av.(*types.AttributeValueMemberNULL)
	return ok
}

// typeMismatch is the standard conversion failure for a wrong wire tag.
func typeMismatch(expected string, got types.AttributeValue) error {
	return NewError(
		fmt.Sprintf("Cannot convert %q attribute value, expected %q", kindOf(got), expected),
		WithCode(ErrType),
		WithContext(map[string]any{"expected": expected, "actual": kindOf(got)}))
}

// cloneItem shallow-copies a wire map. Extensions use it so the input map the
// core handed them is never written through.
func cloneItem(item Item) Item {
	out := make(Item, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
