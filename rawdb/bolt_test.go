package rawdb

import (
	"testing"

	"github.com/fqx-eng/noteserver/schema"
	"github.com/stretchr/testify/assert"
)

func testBoltDB(t *testing.T) *BoltDB {
	db, err := NewBoltDB(t.TempDir())
	assert.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestBoltPutGet(t *testing.T) {
	db := testBoltDB(t)
	assert.Equal(t, BoltType, db.Type())

	assert.NoError(t, db.Put(schema.JobBucket, "k1", []byte("v1")))
	data, err := db.Get(schema.JobBucket, "k1")
	assert.NoError(t, err)
	assert.Equal(t, []byte("v1"), data)

	_, err = db.Get(schema.JobBucket, "missing")
	assert.Equal(t, schema.ErrNotExist, err)

	assert.True(t, db.Exist(schema.JobBucket, "k1"))
	assert.False(t, db.Exist(schema.JobBucket, "missing"))

	assert.NoError(t, db.Delete(schema.JobBucket, "k1"))
	assert.False(t, db.Exist(schema.JobBucket, "k1"))

	// deleting an absent key is a no-op
	assert.NoError(t, db.Delete(schema.JobBucket, "missing"))
}

func TestBoltGetAllKeyOrdered(t *testing.T) {
	db := testBoltDB(t)

	for _, k := range []string{"c", "a", "b"} {
		assert.NoError(t, db.Put(schema.JobPendingBucket, k, []byte{1}))
	}
	keys, err := db.GetAllKey(schema.JobPendingBucket)
	assert.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, keys)

	keys, err = db.GetAllKey(schema.JobFailedBucket)
	assert.NoError(t, err)
	assert.Len(t, keys, 0)
}

func TestBoltEmptyDirPath(t *testing.T) {
	_, err := NewBoltDB("")
	assert.Error(t, err)
}
