/*
Package mapper – primary key values.
*/
package mapper

import "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

// Key addresses a single item by its primary key attribute values without
// needing the full typed object.
type Key struct {
	partition types.AttributeValue
	sort      types.AttributeValue
}

// KeyFor builds a Key holding only a partition value.
func KeyFor(partition types.AttributeValue) Key {
	return Key{partition: partition}
}

// KeyWithSort builds a Key holding partition and sort values.
func KeyWithSort(partition, sort types.AttributeValue) Key {
	return Key{partition: partition, sort: sort}
}

// PartitionValue returns the partition component.
func (k Key) PartitionValue() types.AttributeValue { return k.partition }

// SortValue returns the sort component, nil when absent.
func (k Key) SortValue() types.AttributeValue { return k.sort }
