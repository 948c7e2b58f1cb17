package noteserver

import (
	"context"
	"sync"
	"time"

	"github.com/fqx-eng/noteserver/schema"
	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
)

// settleHandler executes one scheduled payment and returns the confirmation
// signature. The queue treats a nil error as terminal success.
type settleHandler func(ctx context.Context, p schema.ScheduledPayment) (string, error)

// JobQueue is a durable delayed queue with per-job retry. Pending jobs are
// persisted before Enqueue returns, so a restart replays anything that was
// in flight; the ledger paid marker makes replays harmless.
type JobQueue struct {
	store   *Store
	handler settleHandler
	pool    *ants.Pool
	retain  int

	// active holds job ids currently held by a worker, so a dispatch tick
	// that overlaps a slow execution never doubles up on the same job.
	active sync.Map
}

func NewJobQueue(store *Store, workers int, handler settleHandler) (*JobQueue, error) {
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, err
	}
	return &JobQueue{
		store:   store,
		handler: handler,
		pool:    pool,
		retain:  schema.DefaultRetainJobs,
	}, nil
}

func (q *JobQueue) Close() {
	q.pool.Release()
}

// Enqueue persists a job due after delay. Zero and negative delays are valid
// and fire on the next dispatch tick.
func (q *JobQueue) Enqueue(p schema.ScheduledPayment, delay time.Duration) (*schema.Job, error) {
	now := time.Now().UnixMilli()
	j := &schema.Job{
		Id:          uuid.NewString(),
		Payment:     p,
		Status:      schema.JobStatusPending,
		DueAt:       now + delay.Milliseconds(),
		MaxAttempts: schema.DefaultMaxAttempts,
		BackoffMs:   schema.DefaultBackoffMs,
		TimeoutMs:   schema.DefaultJobTimeoutMs,
		EnqueuedAt:  now,
	}
	if err := q.store.SaveJob(j); err != nil {
		return nil, err
	}
	if err := q.store.PutPending(j.DueAt, j.Id); err != nil {
		return nil, err
	}
	log.Info("job enqueued", "id", j.Id, "mint", p.Mint, "offset", p.SnapshotOffset,
		"principal", p.Principal, "dueAt", j.DueAt)
	return j, nil
}

// DispatchDue hands every due pending job to the worker pool. Runs on the
// scheduler tick; jobs already held by a worker are skipped.
func (q *JobQueue) DispatchDue() {
	ids, err := q.store.LoadDuePending(time.Now().UnixMilli(), 100)
	if err != nil {
		log.Error("load due pending jobs", "err", err)
		return
	}
	for _, id := range ids {
		if _, held := q.active.LoadOrStore(id, struct{}{}); held {
			continue
		}
		jobId := id
		err := q.pool.Submit(func() {
			defer q.active.Delete(jobId)
			q.runJob(jobId)
		})
		if err != nil {
			q.active.Delete(jobId)
			log.Error("submit job to pool", "err", err, "id", jobId)
		}
	}
}

func (q *JobQueue) runJob(id string) {
	j, err := q.store.LoadJob(id)
	if err != nil {
		log.Error("load job", "err", err, "id", id)
		return
	}
	if j.Status == schema.JobStatusCompleted || j.Status == schema.JobStatusFailed {
		// stale pending key from a crash after the terminal write
		_ = q.store.DelPending(j.DueAt, j.Id)
		return
	}

	j.Status = schema.JobStatusActive
	j.Attempts++
	if err := q.store.SaveJob(j); err != nil {
		log.Error("save active job", "err", err, "id", id)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(j.TimeoutMs)*time.Millisecond)
	defer cancel()

	txID, err := q.handler(ctx, j.Payment)
	if err != nil {
		q.retryOrFail(j, err)
		return
	}
	q.complete(j, txID)
}

func (q *JobQueue) complete(j *schema.Job, txID string) {
	prevDue := j.DueAt
	j.Status = schema.JobStatusCompleted
	j.TxID = txID
	j.FinishedAt = time.Now().UnixMilli()
	if err := q.store.SaveJob(j); err != nil {
		log.Error("save completed job", "err", err, "id", j.Id)
		return
	}
	if err := q.store.DelPending(prevDue, j.Id); err != nil {
		log.Error("del pending key", "err", err, "id", j.Id)
	}
	if err := q.store.PutTerminal(schema.JobCompletedBucket, j, q.retain); err != nil {
		log.Error("retain completed job", "err", err, "id", j.Id)
	}
	metricJobFinished(schema.JobStatusCompleted)
	log.Info("job completed", "id", j.Id, "attempts", j.Attempts, "tx", txID)
}

func (q *JobQueue) retryOrFail(j *schema.Job, cause error) {
	prevDue := j.DueAt
	j.LastError = cause.Error()

	if j.Exhausted() {
		j.Status = schema.JobStatusFailed
		j.FinishedAt = time.Now().UnixMilli()
		if err := q.store.SaveJob(j); err != nil {
			log.Error("save failed job", "err", err, "id", j.Id)
			return
		}
		if err := q.store.DelPending(prevDue, j.Id); err != nil {
			log.Error("del pending key", "err", err, "id", j.Id)
		}
		if err := q.store.PutTerminal(schema.JobFailedBucket, j, q.retain); err != nil {
			log.Error("retain failed job", "err", err, "id", j.Id)
		}
		metricJobFinished(schema.JobStatusFailed)
		log.Error("job exhausted", "id", j.Id, "attempts", j.Attempts, "err", cause)
		return
	}

	j.Status = schema.JobStatusPending
	j.DueAt = time.Now().UnixMilli() + j.BackoffMs
	if err := q.store.SaveJob(j); err != nil {
		log.Error("save rescheduled job", "err", err, "id", j.Id)
		return
	}
	// order matters: add the new pending key before dropping the old one so
	// a crash in between re-runs rather than loses the job
	if err := q.store.PutPending(j.DueAt, j.Id); err != nil {
		log.Error("reschedule pending key", "err", err, "id", j.Id)
		return
	}
	if err := q.store.DelPending(prevDue, j.Id); err != nil {
		log.Error("del pending key", "err", err, "id", j.Id)
	}
	log.Warn("job retry scheduled", "id", j.Id, "attempt", j.Attempts,
		"max", j.MaxAttempts, "err", cause)
}

// GetJob returns any job by id regardless of state.
func (q *JobQueue) GetJob(id string) (*schema.Job, error) {
	return q.store.LoadJob(id)
}

// FailedJobs lists retained failed jobs, newest first.
func (q *JobQueue) FailedJobs(limit int) ([]*schema.Job, error) {
	return q.store.LoadTerminal(schema.JobFailedBucket, limit)
}

// JobsForMint collects every job whose payment belongs to mint. Linear over
// the job bucket; fine at demo scale and only used by the read API.
func (q *JobQueue) JobsForMint(mint string) ([]*schema.Job, error) {
	ids, err := q.store.KVDb.GetAllKey(schema.JobBucket)
	if err != nil {
		if err == schema.ErrNotExist {
			return nil, nil
		}
		return nil, err
	}
	jobs := make([]*schema.Job, 0)
	for _, id := range ids {
		j, err := q.store.LoadJob(id)
		if err != nil {
			continue
		}
		if j.Payment.Mint == mint {
			jobs = append(jobs, j)
		}
	}
	return jobs, nil
}
