package mapper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	ddb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ─── Mock client ─────────────────────────────────────────────────────────────

// mockClient is a thread-safe in-memory DynamoDB double implementing
// DynamoClient. Key attribute names are registered per table so items can be
// indexed; load unprocessed to have the next BatchWriteItem echo fragments
// back.
type mockClient struct {
	mu          sync.Mutex
	keys        map[string][2]string
	tables      map[string]map[string]Item
	calls       map[string]int
	unprocessed map[string][]types.WriteRequest
	failWith    error

	lastPut    *ddb.PutItemInput
	lastGet    *ddb.GetItemInput
	lastDelete *ddb.DeleteItemInput
	lastBatch  *ddb.BatchWriteItemInput
}

func newMockClient() *mockClient {
	return &mockClient{
		keys: map[string][2]string{
			"Users":  {"id", ""},
			"Orders": {"userId", "orderId"},
		},
		tables: map[string]map[string]Item{},
		calls:  map[string]int{},
	}
}

func (m *mockClient) count(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

func (m *mockClient) stored(table, key string) Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tables[table][key]
}

func (m *mockClient) itemKey(table string, item Item) string {
	ka := m.keys[table]
	key := avKeyString(item[ka[0]])
	if ka[1] != "" {
		if v, ok := item[ka[1]]; ok {
			key += "||" + avKeyString(v)
		}
	}
	return key
}

func avKeyString(av types.AttributeValue) string {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return v.Value
	case *types.AttributeValueMemberN:
		return v.Value
	}
	return fmt.Sprintf("%v", av)
}

func (m *mockClient) PutItem(_ context.Context, in *ddb.PutItemInput, _ ...func(*ddb.Options)) (*ddb.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["PutItem"]++
	m.lastPut = in
	if m.failWith != nil {
		return nil, m.failWith
	}
	table := *in.TableName
	if m.tables[table] == nil {
		m.tables[table] = map[string]Item{}
	}
	key := m.itemKey(table, in.Item)
	if in.ConditionExpression != nil {
		_, exists := m.tables[table][key]
		cond := *in.ConditionExpression
		if strings.Contains(cond, "attribute_not_exists") && exists {
			return nil, &types.ConditionalCheckFailedException{Message: strPtr("The conditional request failed")}
		}
		if strings.Contains(cond, "attribute_exists") && !strings.Contains(cond, "attribute_not_exists") && !exists {
			return nil, &types.ConditionalCheckFailedException{Message: strPtr("The conditional request failed")}
		}
	}
	m.tables[table][key] = in.Item
	return &ddb.PutItemOutput{}, nil
}

func (m *mockClient) GetItem(_ context.Context, in *ddb.GetItemInput, _ ...func(*ddb.Options)) (*ddb.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["GetItem"]++
	m.lastGet = in
	if m.failWith != nil {
		return nil, m.failWith
	}
	table := *in.TableName
	return &ddb.GetItemOutput{Item: m.tables[table][m.itemKey(table, in.Key)]}, nil
}

func (m *mockClient) DeleteItem(_ context.Context, in *ddb.DeleteItemInput, _ ...func(*ddb.Options)) (*ddb.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["DeleteItem"]++
	m.lastDelete = in
	if m.failWith != nil {
		return nil, m.failWith
	}
	table := *in.TableName
	delete(m.tables[table], m.itemKey(table, in.Key))
	return &ddb.DeleteItemOutput{}, nil
}

func (m *mockClient) BatchWriteItem(_ context.Context, in *ddb.BatchWriteItemInput, _ ...func(*ddb.Options)) (*ddb.BatchWriteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["BatchWriteItem"]++
	m.lastBatch = in
	if m.failWith != nil {
		return nil, m.failWith
	}
	for table, writes := range in.RequestItems {
		if m.tables[table] == nil {
			m.tables[table] = map[string]Item{}
		}
		for _, wr := range writes {
			switch {
			case wr.PutRequest != nil:
				m.tables[table][m.itemKey(table, wr.PutRequest.Item)] = wr.PutRequest.Item
			case wr.DeleteRequest != nil:
				delete(m.tables[table], m.itemKey(table, wr.DeleteRequest.Key))
			}
		}
	}
	out := &ddb.BatchWriteItemOutput{}
	if m.unprocessed != nil {
		out.UnprocessedItems = m.unprocessed
		m.unprocessed = nil
	}
	return out, nil
}

// batchWriterFunc adapts a bare function to the BatchWriter interface, for
// tests that need exactly one canned transport response.
type batchWriterFunc func(ctx context.Context, in *ddb.BatchWriteItemInput, optFns ...func(*ddb.Options)) (*ddb.BatchWriteItemOutput, error)

func (f batchWriterFunc) BatchWriteItem(ctx context.Context, in *ddb.BatchWriteItemInput, optFns ...func(*ddb.Options)) (*ddb.BatchWriteItemOutput, error) {
	return f(ctx, in, optFns...)
}

// stubExtension routes hook calls to replaceable functions.
type stubExtension struct {
	write func(Item, OperationContext, TableMetadata) (WriteModification, error)
	read  func(Item, OperationContext, TableMetadata) (ReadModification, error)
}

func (s stubExtension) BeforeWrite(item Item, octx OperationContext, meta TableMetadata) (WriteModification, error) {
	if s.write == nil {
		return WriteModification{}, nil
	}
	return s.write(item, octx, meta)
}

func (s stubExtension) AfterRead(item Item, octx OperationContext, meta TableMetadata) (ReadModification, error) {
	if s.read == nil {
		return ReadModification{}, nil
	}
	return s.read(item, octx, meta)
}

// fakeMetrics counts operations fed through Table.observe.
type fakeMetrics struct {
	mu    sync.Mutex
	adds  []string
	fails int
}

func (f *fakeMetrics) Add(operation, model string, failed bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adds = append(f.adds, operation+":"+model)
	if failed {
		f.fails++
	}
}

// ─── Fixtures ────────────────────────────────────────────────────────────────

type User struct {
	ID      string
	Email   string
	Age     int
	Nick    *string
	Tags    []string
	Version *int64
}

type Order struct {
	UserID  string
	OrderID string
	Total   float64
	Placed  time.Time
}

func userSchema(t *testing.T) *Schema[User] {
	t.Helper()
	s, err := NewSchema[User]().
		Attributes(
			StringAttr("id",
				func(u *User) string { return u.ID },
				func(u *User, v string) { u.ID = v }),
			StringAttr("email",
				func(u *User) string { return u.Email },
				func(u *User, v string) { u.Email = v }),
			IntAttr("age",
				func(u *User) int { return u.Age },
				func(u *User, v int) { u.Age = v }),
			Attr("nick", PointerConverter[string]{Elem: StringConverter{}},
				func(u *User) *string { return u.Nick },
				func(u *User, v *string) { u.Nick = v }),
			StringSetAttr("tags",
				func(u *User) []string { return u.Tags },
				func(u *User, v []string) { u.Tags = v }),
			Attr("version", PointerConverter[int64]{Elem: Int64Converter{}},
				func(u *User) *int64 { return u.Version },
				func(u *User, v *int64) { u.Version = v }),
		).
		PartitionKey("id").
		Build()
	if err != nil {
		t.Fatalf("user schema: %v", err)
	}
	return s
}

func orderSchema(t *testing.T) *Schema[Order] {
	t.Helper()
	s, err := NewSchema[Order]().
		Attributes(
			StringAttr("userId",
				func(o *Order) string { return o.UserID },
				func(o *Order, v string) { o.UserID = v }),
			StringAttr("orderId",
				func(o *Order) string { return o.OrderID },
				func(o *Order, v string) { o.OrderID = v }),
			Float64Attr("total",
				func(o *Order) float64 { return o.Total },
				func(o *Order, v float64) { o.Total = v }),
			TimeAttr("placed",
				func(o *Order) time.Time { return o.Placed },
				func(o *Order, v time.Time) { o.Placed = v }),
		).
		PartitionKey("userId").
		SortKey("orderId").
		Build()
	if err != nil {
		t.Fatalf("order schema: %v", err)
	}
	return s
}

func newUserModel(t *testing.T, mock *mockClient, x Extension) *Model[User] {
	t.Helper()
	tbl, err := NewTable(TableParams{Name: "Users", Client: mock, Extension: x, Logger: nopLogger{}})
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	m, err := NewModel(tbl, "User", userSchema(t))
	if err != nil {
		t.Fatalf("model: %v", err)
	}
	return m
}

func newOrderModel(t *testing.T, mock *mockClient, x Extension) *Model[Order] {
	t.Helper()
	tbl, err := NewTable(TableParams{Name: "Orders", Client: mock, Extension: x, Logger: nopLogger{}})
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	m, err := NewModel(tbl, "Order", orderSchema(t))
	if err != nil {
		t.Fatalf("model: %v", err)
	}
	return m
}

// ─── Assert helpers ──────────────────────────────────────────────────────────

func bg() context.Context { return context.Background() }

func assertNil(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func assertErrCode(t *testing.T, err error, code ErrorCode) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected [%s] error, got nil", code)
	}
	var me *MapperError
	if errors.As(err, &me) {
		if me.Code != code {
			t.Fatalf("expected [%s], got [%s]: %s", code, me.Code, me.Message)
		}
		return
	}
	var ae *MapperArgError
	if errors.As(err, &ae) {
		if ae.Code != code {
			t.Fatalf("expected [%s], got [%s]: %s", code, ae.Code, ae.Message)
		}
		return
	}
	t.Fatalf("expected [%s], got %T: %v", code, err, err)
}

func assertStr(t *testing.T, got, want string) {
	t.Helper()
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func assertInt(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Fatalf("got %d, want %d", got, want)
	}
}

func assertTrue(t *testing.T, ok bool, msg string) {
	t.Helper()
	if !ok {
		t.Fatal(msg)
	}
}

func assertContains(t *testing.T, s, sub string) {
	t.Helper()
	if !strings.Contains(s, sub) {
		t.Fatalf("%q does not contain %q", s, sub)
	}
}

func assertLen[E any](t *testing.T, s []E, want int) {
	t.Helper()
	if len(s) != want {
		t.Fatalf("got length %d, want %d", len(s), want)
	}
}

func avStr(av types.AttributeValue) string {
	if s, ok := av.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func avNum(av types.AttributeValue) string {
	if n, ok := av.(*types.AttributeValueMemberN); ok {
		return n.Value
	}
	return ""
}
