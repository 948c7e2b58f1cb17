package noteserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fqx-eng/noteserver/rawdb"
	"github.com/fqx-eng/noteserver/schema"
)

// Store is the durable job store over a pluggable KV backend. Jobs live in
// the job bucket keyed by id; the pending bucket holds due-time ordered keys
// pointing back at job ids, so the dispatcher scans a prefix instead of
// deserializing every job.
type Store struct {
	KVDb rawdb.KeyValueDB
}

func NewBoltStore(boltDirPath string) (*Store, error) {
	boltDb, err := rawdb.NewBoltDB(boltDirPath)
	if err != nil {
		return nil, err
	}
	return &Store{KVDb: boltDb}, nil
}

func NewS3Store(accKey, secretKey, region, bucketPrefix, endpoint string) (*Store, error) {
	s3Db, err := rawdb.NewS3DB(accKey, secretKey, region, bucketPrefix, endpoint)
	if err != nil {
		return nil, err
	}
	return &Store{KVDb: s3Db}, nil
}

func NewMongoStore(ctx context.Context, uri string) (*Store, error) {
	mongoDb, err := rawdb.NewMongoDB(ctx, uri)
	if err != nil {
		return nil, err
	}
	return &Store{KVDb: mongoDb}, nil
}

func (s *Store) Close() error {
	return s.KVDb.Close()
}

// dueKey orders keys lexicographically by time: 13 digits of unix ms covers
// timestamps until year 2286.
func dueKey(ms int64, id string) string {
	return fmt.Sprintf("%013d|%s", ms, id)
}

func splitDueKey(key string) (string, error) {
	idx := strings.IndexByte(key, '|')
	if idx < 0 {
		return "", fmt.Errorf("malformed pending key %q", key)
	}
	return key[idx+1:], nil
}

func (s *Store) SaveJob(j *schema.Job) error {
	data, err := json.Marshal(j)
	if err != nil {
		return err
	}
	return s.KVDb.Put(schema.JobBucket, j.Id, data)
}

func (s *Store) LoadJob(id string) (*schema.Job, error) {
	data, err := s.KVDb.Get(schema.JobBucket, id)
	if err != nil {
		if err == schema.ErrNotExist {
			return nil, ErrJobNotExist
		}
		return nil, err
	}
	j := &schema.Job{}
	if err := json.Unmarshal(data, j); err != nil {
		return nil, err
	}
	return j, nil
}

func (s *Store) PutPending(dueAt int64, id string) error {
	return s.KVDb.Put(schema.JobPendingBucket, dueKey(dueAt, id), []byte(id))
}

func (s *Store) DelPending(dueAt int64, id string) error {
	return s.KVDb.Delete(schema.JobPendingBucket, dueKey(dueAt, id))
}

// LoadDuePending returns ids of pending jobs whose due time is at or before
// now, oldest first, at most limit.
func (s *Store) LoadDuePending(now int64, limit int) ([]string, error) {
	keys, err := s.KVDb.GetAllKey(schema.JobPendingBucket)
	if err != nil {
		if err == schema.ErrNotExist {
			return nil, nil
		}
		return nil, err
	}
	cutoff := dueKey(now, "\xff")
	ids := make([]string, 0, limit)
	for _, key := range keys {
		if key > cutoff {
			break // keys are time ordered
		}
		id, err := splitDueKey(key)
		if err != nil {
			log.Warn("skip malformed pending key", "key", key)
			continue
		}
		ids = append(ids, id)
		if len(ids) >= limit {
			break
		}
	}
	return ids, nil
}

// PutTerminal copies the finished job into its retention bucket and evicts
// the oldest entries beyond the retention cap.
func (s *Store) PutTerminal(bucket string, j *schema.Job, retain int) error {
	data, err := json.Marshal(j)
	if err != nil {
		return err
	}
	if err := s.KVDb.Put(bucket, dueKey(j.FinishedAt, j.Id), data); err != nil {
		return err
	}
	return s.pruneBucket(bucket, retain)
}

func (s *Store) pruneBucket(bucket string, retain int) error {
	keys, err := s.KVDb.GetAllKey(bucket)
	if err != nil {
		return err
	}
	if len(keys) <= retain {
		return nil
	}
	for _, key := range keys[:len(keys)-retain] {
		if err := s.KVDb.Delete(bucket, key); err != nil {
			return err
		}
	}
	return nil
}

// LoadTerminal returns the most recent jobs of a retention bucket, newest
// first, at most limit.
func (s *Store) LoadTerminal(bucket string, limit int) ([]*schema.Job, error) {
	keys, err := s.KVDb.GetAllKey(bucket)
	if err != nil {
		if err == schema.ErrNotExist {
			return nil, nil
		}
		return nil, err
	}
	jobs := make([]*schema.Job, 0, limit)
	for i := len(keys) - 1; i >= 0 && len(jobs) < limit; i-- {
		data, err := s.KVDb.Get(bucket, keys[i])
		if err != nil {
			return nil, err
		}
		j := &schema.Job{}
		if err := json.Unmarshal(data, j); err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}
