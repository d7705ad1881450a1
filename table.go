/*
Package mapper – Table type.

A Table wires a DynamoDB table name to a transport client, an optional
extension and the ambient hooks (logger, metrics, monitor). Typed models
register on it by name.
*/
package mapper

import (
	"context"
	"fmt"
	"sort"
	"sync"

	ddb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// ─── Transport ───────────────────────────────────────────────────────────────

// Narrow single-method transport interfaces. *dynamodb.Client satisfies every
// one of them; test doubles implement exactly what they need.

// Getter performs a single GetItem call.
type Getter interface {
	GetItem(ctx context.Context, params *ddb.GetItemInput, optFns ...func(*ddb.Options)) (*ddb.GetItemOutput, error)
}

// Putter performs a single PutItem call.
type Putter interface {
	PutItem(ctx context.Context, params *ddb.PutItemInput, optFns ...func(*ddb.Options)) (*ddb.PutItemOutput, error)
}

// Deleter performs a single DeleteItem call.
type Deleter interface {
	DeleteItem(ctx context.Context, params *ddb.DeleteItemInput, optFns ...func(*ddb.Options)) (*ddb.DeleteItemOutput, error)
}

// BatchWriter performs a single BatchWriteItem call.
type BatchWriter interface {
	BatchWriteItem(ctx context.Context, params *ddb.BatchWriteItemInput, optFns ...func(*ddb.Options)) (*ddb.BatchWriteItemOutput, error)
}

// DynamoClient is the full transport surface a Table needs.
type DynamoClient interface {
	Getter
	Putter
	Deleter
	BatchWriter
}

// ─── Observability hooks ─────────────────────────────────────────────────────

// MetricsCollector receives one count per executed operation.
type MetricsCollector interface {
	Add(operation, model string, failed bool)
}

// MonitorFunc observes every executed operation and its outcome.
type MonitorFunc func(operation, model string, err error)

// ─── Table ───────────────────────────────────────────────────────────────────

// TableParams configure NewTable.
type TableParams struct {
	// Name is the DynamoDB table name. Required.
	Name string
	// Client is the transport. Required.
	Client DynamoClient
	// Extension hooks item maps around every write and read. Optional.
	Extension Extension
	// Logger overrides the default logger. Optional.
	Logger Logger
	// Verbose switches the default logger to trace/data output.
	Verbose bool
	// Metrics and Monitor observe executed operations. Optional.
	Metrics MetricsCollector
	Monitor MonitorFunc
}

// Table is the top-level binding between a table name, its transport client
// and the models registered on it. Safe for concurrent use.
type Table struct {
	name      string
	client    DynamoClient
	extension Extension
	log       Logger
	metrics   MetricsCollector
	monitor   MonitorFunc

	mu     sync.RWMutex
	models map[string]any
}

// NewTable validates params and builds a Table.
func NewTable(params TableParams) (*Table, error) {
	if params.Name == "" {
		return nil, NewArgError("Missing \"name\" property")
	}
	if params.Client == nil {
		return nil, NewArgError("Missing \"client\" property")
	}
	logger := params.Logger
	if logger == nil {
		if params.Verbose {
			logger = verboseLogger{}
		} else {
			logger = defaultLogger{}
		}
	}
	t := &Table{
		name:      params.Name,
		client:    params.Client,
		extension: params.Extension,
		log:       logger,
		metrics:   params.Metrics,
		monitor:   params.Monitor,
		models:    make(map[string]any),
	}
	logTrace(t.log, fmt.Sprintf("Mapper table %q ready", t.name), nil)
	return t, nil
}

// Name reports the DynamoDB table name.
func (t *Table) Name() string { return t.name }

// ─── Model registry ──────────────────────────────────────────────────────────

func (t *Table) addModel(name string, m any) error {
	if name == "" {
		return NewArgError("Missing model name")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.models[name]; exists {
		return NewArgError(fmt.Sprintf("Model %q already registered", name))
	}
	t.models[name] = m
	return nil
}

func (t *Table) model(name string) (any, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	m, ok := t.models[name]
	if !ok {
		return nil, NewArgError(fmt.Sprintf("Cannot find model %q", name))
	}
	return m, nil
}

// ListModels returns the registered model names, sorted.
func (t *Table) ListModels() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.models))
	for n := range t.models {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// RemoveModel drops a registered model.
func (t *Table) RemoveModel(name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.models[name]; !ok {
		return NewArgError(fmt.Sprintf("Cannot find model %q", name))
	}
	delete(t.models, name)
	return nil
}

// observe feeds the metrics and monitor hooks after an executed operation.
func (t *Table) observe(operation, model string, err error) {
	if t.metrics != nil {
		t.metrics.Add(operation, model, err != nil)
	}
	if t.monitor != nil {
		t.monitor(operation, model, err)
	}
	if err != nil {
		logError(t.log, fmt.Sprintf("Mapper %q failed for model %q", operation, model),
			map[string]any{"table": t.name, "error": err.Error()})
	}
}
