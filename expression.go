/*
Package mapper – condition expressions.
*/
package mapper

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Expression is a rendered condition: a statement string plus its name and
// value substitutions. Extensions attach these to outgoing writes; the core
// decides whether the destination request can carry one.
type Expression struct {
	Statement string
	Names     map[string]string
	Values    Item
}

// And joins two expressions into a single conjunction, merging the
// substitution maps. A substitution key bound to two different meanings is a
// configuration error, so independently built expressions should use distinct
// token names.
func (e Expression) And(other Expression) (Expression, error) {
	names := make(map[string]string, len(e.Names)+len(other.Names))
	for k, v := range e.Names {
		names[k] = v
	}
	for k, v := range other.Names {
		if prev, ok := names[k]; ok && prev != v {
			return Expression{}, NewError(fmt.Sprintf("Conflicting expression name %q", k),
				WithCode(ErrArgument))
		}
		names[k] = v
	}
	values := make(Item, len(e.Values)+len(other.Values))
	for k, v := range e.Values {
		values[k] = v
	}
	for k, v := range other.Values {
		if _, ok := values[k]; ok {
			return Expression{}, NewError(fmt.Sprintf("Conflicting expression value %q", k),
				WithCode(ErrArgument))
		}
		values[k] = v
	}
	return Expression{
		Statement: fmt.Sprintf("(%s) AND (%s)", e.Statement, other.Statement),
		Names:     names,
		Values:    values,
	}, nil
}

// conditionFields flattens an optional expression into the three wire fields
// shared by PutItem and DeleteItem inputs.
func conditionFields(e *Expression) (*string, map[string]string, map[string]types.AttributeValue) {
	if e == nil {
		return nil, nil, nil
	}
	var names map[string]string
	if len(e.Names) > 0 {
		names = e.Names
	}
	var values map[string]types.AttributeValue
	if len(e.Values) > 0 {
		values = e.Values
	}
	return strPtr(e.Statement), names, values
}
