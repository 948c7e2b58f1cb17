package schema

const (
	JobStatusPending   = "pending"
	JobStatusActive    = "active"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

const (
	DefaultMaxAttempts  = 15
	DefaultBackoffMs    = 2000
	DefaultJobTimeoutMs = 180000
	DefaultRetainJobs   = 10000 // per terminal bucket, FIFO eviction beyond
)

// Job wraps one ScheduledPayment with queue scheduling metadata. A job is
// pending until its due time, active while a worker holds it, and ends up in
// the completed or failed retention bucket.
type Job struct {
	Id      string           `json:"id"`
	Payment ScheduledPayment `json:"payment"`
	Status  string           `json:"status"`

	DueAt       int64 `json:"dueAt"` // unix ms, next eligible execution
	Attempts    int   `json:"attempts"`
	MaxAttempts int   `json:"maxAttempts"`
	BackoffMs   int64 `json:"backoffMs"`
	TimeoutMs   int64 `json:"timeoutMs"`

	EnqueuedAt int64  `json:"enqueuedAt"` // unix ms
	FinishedAt int64  `json:"finishedAt"` // unix ms, set on terminal state
	TxID       string `json:"txId"`       // settlement confirmation signature
	LastError  string `json:"lastError"`
}

// Exhausted reports whether the job has used up its retry budget.
func (j *Job) Exhausted() bool {
	return j.Attempts >= j.MaxAttempts
}
