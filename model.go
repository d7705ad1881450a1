/*
Package mapper – Model type and single-item operations.

A Model binds one typed schema to a Table and executes put / get / delete
calls through the shared transform pipeline: marshal, extension hook, wire
request, and on the way back extension hook plus unmarshal.
*/
package mapper

import (
	"context"
	"fmt"

	ddb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Model binds a typed schema to a table under a registered name.
type Model[T any] struct {
	name   string
	table  *Table
	schema *Schema[T]
}

// NewModel registers a typed model on the table. Registering the same name
// twice is a configuration error.
func NewModel[T any](table *Table, name string, schema *Schema[T]) (*Model[T], error) {
	if schema == nil {
		return nil, NewArgError("Missing schema")
	}
	m := &Model[T]{name: name, table: table, schema: schema}
	if err := table.addModel(name, m); err != nil {
		return nil, err
	}
	return m, nil
}

// LookupModel fetches a registered model by name. The requested item type
// must match the registered one.
func LookupModel[T any](table *Table, name string) (*Model[T], error) {
	v, err := table.model(name)
	if err != nil {
		return nil, err
	}
	m, ok := v.(*Model[T])
	if !ok {
		return nil, NewArgError(fmt.Sprintf("Model %q has a different item type", name))
	}
	return m, nil
}

// Name reports the registered model name.
func (m *Model[T]) Name() string { return m.name }

// Schema reports the bound schema.
func (m *Model[T]) Schema() *Schema[T] { return m.schema }

// ─── Write-path generation ───────────────────────────────────────────────────

// generatePut marshals item and runs the write hook. The caller's object is
// never written through; transformations replace the wire map only.
// conditionAllowed is false on batch paths, where the wire format has no slot
// for a condition.
func (m *Model[T]) generatePut(item *T, callerCondition *Expression, conditionAllowed bool) (Item, *Expression, error) {
	av, err := m.schema.MarshalItem(item)
	if err != nil {
		return nil, nil, err
	}
	condition := callerCondition
	if x := m.table.extension; x != nil {
		octx := OperationContext{TableName: m.table.name, Operation: OpPut}
		mod, err := x.BeforeWrite(av, octx, m.schema.Metadata())
		if err != nil {
			return nil, nil, err
		}
		if mod.TransformedItem != nil {
			av = mod.TransformedItem
		}
		if mod.Condition != nil {
			if condition != nil {
				return nil, nil, NewArgError("Condition already present on this put")
			}
			condition = mod.Condition
		}
	}
	if condition != nil && !conditionAllowed {
		return nil, nil, NewArgError("Conditional expressions cannot be carried in a batch write")
	}
	return av, condition, nil
}

// generateDelete renders the minimal key attribute map. Deletes never invoke
// the write hook, so the only possible condition is the caller's.
func (m *Model[T]) generateDelete(key Key, callerCondition *Expression, conditionAllowed bool) (Item, *Expression, error) {
	av, err := m.schema.KeyMap(key)
	if err != nil {
		return nil, nil, err
	}
	if callerCondition != nil && !conditionAllowed {
		return nil, nil, NewArgError("Conditional expressions cannot be carried in a batch write")
	}
	return av, callerCondition, nil
}

// transformResponseItem applies the read hook and reconstructs a typed item.
func (m *Model[T]) transformResponseItem(av Item, operation string) (*T, error) {
	if x := m.table.extension; x != nil {
		octx := OperationContext{TableName: m.table.name, Operation: operation}
		mod, err := x.AfterRead(av, octx, m.schema.Metadata())
		if err != nil {
			return nil, err
		}
		if mod.TransformedItem != nil {
			av = mod.TransformedItem
		}
	}
	return m.schema.UnmarshalItem(av)
}

// ─── Single-item operations ──────────────────────────────────────────────────

// PutParams adjust a single PutItem call. Exists false demands a fresh item
// (attribute_not_exists on the partition key); Exists true demands an
// existing one. Condition and Exists are mutually exclusive.
type PutParams struct {
	Condition *Expression
	Exists    *bool
}

// PutItem writes one item. Transport errors propagate unchanged.
func (m *Model[T]) PutItem(ctx context.Context, item *T, params *PutParams) error {
	callerCond, err := putParamsCondition(m.schema.partition, params)
	if err != nil {
		return err
	}
	av, cond, err := m.generatePut(item, callerCond, true)
	if err != nil {
		return err
	}
	input := &ddb.PutItemInput{TableName: &m.table.name, Item: av}
	input.ConditionExpression, input.ExpressionAttributeNames, input.ExpressionAttributeValues = conditionFields(cond)
	logInfo(m.table.log, fmt.Sprintf("Mapper %q %q", OpPut, m.name),
		map[string]any{"table": m.table.name})
	logData(m.table.log, "Mapper put request", map[string]any{"item": av})
	_, err = m.table.client.PutItem(ctx, input)
	m.table.observe(OpPut, m.name, err)
	return err
}

// GetParams adjust a single GetItem call.
type GetParams struct {
	ConsistentRead bool
}

// GetItem reads one item by key. A missing item yields nil with no error.
func (m *Model[T]) GetItem(ctx context.Context, key Key, params *GetParams) (*T, error) {
	av, err := m.schema.KeyMap(key)
	if err != nil {
		return nil, err
	}
	input := &ddb.GetItemInput{TableName: &m.table.name, Key: av}
	if params != nil && params.ConsistentRead {
		input.ConsistentRead = boolPtr(true)
	}
	logInfo(m.table.log, fmt.Sprintf("Mapper %q %q", OpGet, m.name),
		map[string]any{"table": m.table.name})
	out, err := m.table.client.GetItem(ctx, input)
	m.table.observe(OpGet, m.name, err)
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, nil
	}
	return m.transformResponseItem(out.Item, OpGet)
}

// DeleteParams adjust a single DeleteItem call.
type DeleteParams struct {
	Condition *Expression
}

// DeleteItem removes one item by key.
func (m *Model[T]) DeleteItem(ctx context.Context, key Key, params *DeleteParams) error {
	var callerCond *Expression
	if params != nil {
		callerCond = params.Condition
	}
	av, cond, err := m.generateDelete(key, callerCond, true)
	if err != nil {
		return err
	}
	input := &ddb.DeleteItemInput{TableName: &m.table.name, Key: av}
	input.ConditionExpression, input.ExpressionAttributeNames, input.ExpressionAttributeValues = conditionFields(cond)
	logInfo(m.table.log, fmt.Sprintf("Mapper %q %q", OpDelete, m.name),
		map[string]any{"table": m.table.name})
	_, err = m.table.client.DeleteItem(ctx, input)
	m.table.observe(OpDelete, m.name, err)
	return err
}

// putParamsCondition renders PutParams into at most one caller condition.
func putParamsCondition(partition string, params *PutParams) (*Expression, error) {
	if params == nil {
		return nil, nil
	}
	if params.Condition != nil && params.Exists != nil {
		return nil, NewArgError("Condition already present on this put")
	}
	if params.Condition != nil {
		return params.Condition, nil
	}
	if params.Exists == nil {
		return nil, nil
	}
	fn := "attribute_not_exists"
	if *params.Exists {
		fn = "attribute_exists"
	}
	return &Expression{
		Statement: fmt.Sprintf("%s(#pk)", fn),
		Names:     map[string]string{"#pk": partition},
	}, nil
}

// ─── Batch write operations ──────────────────────────────────────────────────

// WriteOp is one immutable put or delete destined for a batch write.
type WriteOp[T any] interface {
	fragment(m *Model[T]) (types.WriteRequest, error)
}

// Put builds a put operation for a batch write.
func Put[T any](item *T) WriteOp[T] {
	return putOp[T]{item: item}
}

// Delete builds a delete operation for a batch write.
func Delete[T any](key Key) WriteOp[T] {
	return deleteOp[T]{key: key}
}

type putOp[T any] struct{ item *T }

func (op putOp[T]) fragment(m *Model[T]) (types.WriteRequest, error) {
	av, _, err := m.generatePut(op.item, nil, false)
	if err != nil {
		return types.WriteRequest{}, err
	}
	return types.WriteRequest{PutRequest: &types.PutRequest{Item: av}}, nil
}

type deleteOp[T any] struct{ key Key }

func (op deleteOp[T]) fragment(m *Model[T]) (types.WriteRequest, error) {
	av, _, err := m.generateDelete(op.key, nil, false)
	if err != nil {
		return types.WriteRequest{}, err
	}
	return types.WriteRequest{DeleteRequest: &types.DeleteRequest{Key: av}}, nil
}

// Batch collects ordered write operations for this model's table. Fragment
// generation is deferred until the batch request is rendered.
func (m *Model[T]) Batch(ops ...WriteOp[T]) WriteBatch {
	requests := make([]func() (types.WriteRequest, error), len(ops))
	for i, op := range ops {
		op := op // per-iteration copy; the closure must capture this op, not the loop slot
		requests[i] = func() (types.WriteRequest, error) { return op.fragment(m) }
	}
	return WriteBatch{
		tableName: m.table.name,
		requests:  requests,
		readPut: func(av Item) (any, error) {
			return m.transformResponseItem(av, OpPut)
		},
		readDelete: func(av Item) (any, error) {
			return m.schema.UnmarshalItem(av)
		},
		observe: func(err error) {
			m.table.observe(OpBatchWrite, m.name, err)
		},
	}
}
