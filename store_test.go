package noteserver

import (
	"testing"
	"time"

	"github.com/fqx-eng/noteserver/schema"
	"github.com/stretchr/testify/assert"
)

func testStore(t *testing.T) *Store {
	s, err := NewBoltStore(t.TempDir())
	assert.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestDueKeyOrder(t *testing.T) {
	// lexicographic order of dueKey must match numeric time order
	assert.True(t, dueKey(999, "a") < dueKey(1000, "a"))
	assert.True(t, dueKey(1000, "a") < dueKey(10000, "a"))
	assert.Equal(t, "0000000001000|j1", dueKey(1000, "j1"))

	id, err := splitDueKey(dueKey(42, "job-7"))
	assert.NoError(t, err)
	assert.Equal(t, "job-7", id)

	_, err = splitDueKey("garbage")
	assert.Error(t, err)
}

func TestSaveLoadJob(t *testing.T) {
	s := testStore(t)

	j := &schema.Job{
		Id:     "j1",
		Status: schema.JobStatusPending,
		DueAt:  12345,
		Payment: schema.ScheduledPayment{
			Mint:           "mint1",
			SnapshotOffset: 600,
			Principal:      true,
		},
	}
	assert.NoError(t, s.SaveJob(j))

	got, err := s.LoadJob("j1")
	assert.NoError(t, err)
	assert.Equal(t, j, got)

	_, err = s.LoadJob("missing")
	assert.Equal(t, ErrJobNotExist, err)
}

func TestLoadDuePending(t *testing.T) {
	s := testStore(t)
	now := time.Now().UnixMilli()

	assert.NoError(t, s.PutPending(now-5000, "past1"))
	assert.NoError(t, s.PutPending(now-1000, "past2"))
	assert.NoError(t, s.PutPending(now+60000, "future"))

	ids, err := s.LoadDuePending(now, 100)
	assert.NoError(t, err)
	assert.Equal(t, []string{"past1", "past2"}, ids)

	// limit caps the batch, oldest first
	ids, err = s.LoadDuePending(now, 1)
	assert.NoError(t, err)
	assert.Equal(t, []string{"past1"}, ids)

	assert.NoError(t, s.DelPending(now-5000, "past1"))
	ids, err = s.LoadDuePending(now, 100)
	assert.NoError(t, err)
	assert.Equal(t, []string{"past2"}, ids)
}

func TestTerminalRetention(t *testing.T) {
	s := testStore(t)

	for i := 0; i < 5; i++ {
		j := &schema.Job{
			Id:         string(rune('a' + i)),
			Status:     schema.JobStatusFailed,
			FinishedAt: int64(1000 + i),
		}
		assert.NoError(t, s.PutTerminal(schema.JobFailedBucket, j, 3))
	}

	keys, err := s.KVDb.GetAllKey(schema.JobFailedBucket)
	assert.NoError(t, err)
	assert.Len(t, keys, 3)

	// oldest entries were evicted, newest first on read
	jobs, err := s.LoadTerminal(schema.JobFailedBucket, 10)
	assert.NoError(t, err)
	assert.Len(t, jobs, 3)
	assert.Equal(t, "e", jobs[0].Id)
	assert.Equal(t, "c", jobs[2].Id)
}
