package rawdb

import (
	"github.com/fqx-eng/noteserver/common"
	"github.com/fqx-eng/noteserver/schema"
)

var log = common.NewLog("rawdb")

// KeyValueDB is the storage contract behind the durable job store. Range
// semantics (due-time ordering, FIFO eviction) are encoded in the key shape by
// the caller, so backends only need flat buckets.
type KeyValueDB interface {
	Put(bucket, key string, value []byte) (err error)

	Get(bucket, key string) (data []byte, err error)

	GetAllKey(bucket string) (keys []string, err error)

	Delete(bucket, key string) (err error)

	Exist(bucket, key string) bool

	Close() (err error)

	Type() string
}

func storeBuckets() []string {
	return []string{
		schema.JobBucket,
		schema.JobPendingBucket,
		schema.JobCompletedBucket,
		schema.JobFailedBucket,
	}
}
