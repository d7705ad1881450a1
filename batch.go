/*
Package mapper – batch writes.

Collects typed put/delete operations across tables, renders one
BatchWriteItemInput grouped by table, and demultiplexes unprocessed fragments
back into typed items per table.
*/
package mapper

import (
	"context"
	"fmt"

	ddb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// WriteBatch is an ordered list of write operations for one table, built with
// Model.Batch. It carries the model's read-side bindings so unprocessed
// fragments can be turned back into typed items.
type WriteBatch struct {
	tableName  string
	requests   []func() (types.WriteRequest, error)
	readPut    func(Item) (any, error)
	readDelete func(Item) (any, error)
	observe    func(error)
}

// TableName reports the destination table.
func (b WriteBatch) TableName() string { return b.tableName }

// Len reports the number of collected operations.
func (b WriteBatch) Len() int { return len(b.requests) }

// BatchWrite groups write batches into one request against the store.
type BatchWrite struct {
	batches []WriteBatch
}

// NewBatchWrite collects batches. Zero batches is legal and renders an empty
// request.
func NewBatchWrite(batches ...WriteBatch) *BatchWrite {
	return &BatchWrite{batches: append([]WriteBatch(nil), batches...)}
}

// GenerateRequest renders every operation's fragment, applying the owning
// model's write hook per item, and groups fragments by table name. The
// caller's order is preserved within each table.
func (w *BatchWrite) GenerateRequest() (*ddb.BatchWriteItemInput, error) {
	items := make(map[string][]types.WriteRequest)
	for _, b := range w.batches {
		for _, gen := range b.requests {
			wr, err := gen()
			if err != nil {
				return nil, err
			}
			items[b.tableName] = append(items[b.tableName], wr)
		}
	}
	return &ddb.BatchWriteItemInput{RequestItems: items}, nil
}

// Execute renders the request, performs the single transport call and
// transforms the response. Every batch's model observes the call outcome.
// There is no retry and no timeout handling here; transport errors propagate
// unchanged.
func (w *BatchWrite) Execute(ctx context.Context, client BatchWriter) (*BatchWriteResult, error) {
	input, err := w.GenerateRequest()
	if err != nil {
		return nil, err
	}
	out, err := client.BatchWriteItem(ctx, input)
	for _, b := range w.batches {
		if b.observe != nil {
			b.observe(err)
		}
	}
	if err != nil {
		return nil, err
	}
	return w.TransformResponse(out)
}

// TransformResponse demultiplexes unprocessed fragments into typed items for
// every table in the caller's batches. A fragment carrying neither a put nor
// a delete is a malformed response. The function is pure with respect to the
// response, so calling it twice yields identical results.
func (w *BatchWrite) TransformResponse(out *ddb.BatchWriteItemOutput) (*BatchWriteResult, error) {
	result := &BatchWriteResult{
		puts:    make(map[string][]any),
		deletes: make(map[string][]any),
	}
	if out == nil {
		return result, nil
	}
	seen := make(map[string]bool, len(w.batches))
	for _, b := range w.batches {
		if seen[b.tableName] {
			continue
		}
		seen[b.tableName] = true
		for _, wr := range out.UnprocessedItems[b.tableName] {
			switch {
			case wr.PutRequest != nil:
				item, err := b.readPut(wr.PutRequest.Item)
				if err != nil {
					return nil, err
				}
				result.puts[b.tableName] = append(result.puts[b.tableName], item)
			case wr.DeleteRequest != nil:
				item, err := b.readDelete(wr.DeleteRequest.Key)
				if err != nil {
					return nil, err
				}
				result.deletes[b.tableName] = append(result.deletes[b.tableName], item)
			default:
				return nil, NewError(
					fmt.Sprintf("Unprocessed write for table %q is neither a put nor a delete", b.tableName),
					WithCode(ErrResponse))
			}
		}
	}
	return result, nil
}

// BatchWriteResult holds unprocessed items demultiplexed per table. Put items
// pass through the read hook; delete items are rebuilt from their key
// attributes alone, every other field at its zero value.
type BatchWriteResult struct {
	puts    map[string][]any
	deletes map[string][]any
}

// UnprocessedPuts lists put items the store did not process for the model's
// table, in response order. A table absent from the response yields an empty
// slice, never an error.
func UnprocessedPuts[T any](r *BatchWriteResult, m *Model[T]) []*T {
	return castItems[T](r.puts[m.table.name])
}

// UnprocessedDeletes lists items whose deletes the store did not process.
func UnprocessedDeletes[T any](r *BatchWriteResult, m *Model[T]) []*T {
	return castItems[T](r.deletes[m.table.name])
}

func castItems[T any](in []any) []*T {
	out := make([]*T, 0, len(in))
	for _, v := range in {
		if item, ok := v.(*T); ok {
			out = append(out, item)
		}
	}
	return out
}
