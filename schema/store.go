package schema

import "errors"

// KV bucket names. Pending keys are "<unix-ms 13 digits>|<jobId>" so a cursor
// range scan yields due jobs in due-time order; terminal buckets reuse the
// same key shape with the finish time, which makes FIFO eviction a prefix scan.
const (
	JobBucket          = "job"           // jobId -> Job json
	JobPendingBucket   = "job_pending"   // dueKey -> jobId
	JobCompletedBucket = "job_completed" // finishKey -> Job json
	JobFailedBucket    = "job_failed"    // finishKey -> Job json
)

var (
	ErrNotExist = errors.New("not_exist_record")
)
