/*
Package mapper – extension hook.

Extensions observe and adjust wire maps at the store boundary. They see item
maps only, never the caller's typed objects, and must treat their input as
read-only: a change is returned as a fresh transformed map.
*/
package mapper

// Logical operation kinds carried in OperationContext.
const (
	OpPut        = "put"
	OpDelete     = "delete"
	OpGet        = "get"
	OpBatchWrite = "batchWrite"
)

// OperationContext identifies where in the pipeline an extension runs.
type OperationContext struct {
	TableName string
	Operation string
}

// TableMetadata carries the key attribute names of the active schema.
// Sort is empty when the schema declares no sort key.
type TableMetadata struct {
	Partition string
	Sort      string
}

// KeyNames lists the declared key attribute names.
func (m TableMetadata) KeyNames() []string {
	if m.Sort == "" {
		return []string{m.Partition}
	}
	return []string{m.Partition, m.Sort}
}

// WriteModification is an extension's verdict on an outgoing item. A nil
// TransformedItem keeps the generated map unchanged. Condition may only be
// honoured where the wire request can carry one; the core enforces that, not
// the extension.
type WriteModification struct {
	TransformedItem Item
	Condition       *Expression
}

// ReadModification is an extension's verdict on an incoming item.
type ReadModification struct {
	TransformedItem Item
}

// Extension hooks item maps entering and leaving the store. Implementations
// must be stateless or internally synchronized; the same extension instance
// serves single-item and batch paths alike.
type Extension interface {
	BeforeWrite(item Item, octx OperationContext, meta TableMetadata) (WriteModification, error)
	AfterRead(item Item, octx OperationContext, meta TableMetadata) (ReadModification, error)
}
