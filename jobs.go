package noteserver

import (
	"github.com/fqx-eng/noteserver/schema"
)

func (s *Noteserver) runJobs() {
	s.scheduler.Every(2).Seconds().SingletonMode().Do(s.queue.DispatchDue)
	s.scheduler.Every(5).Seconds().SingletonMode().Do(s.updateOraclePrice)
	s.scheduler.Every(1).Minute().SingletonMode().Do(s.updateQueueMetrics)

	s.scheduler.StartAsync()
}

func (s *Noteserver) updateQueueMetrics() {
	for _, bucket := range []string{schema.JobPendingBucket, schema.JobFailedBucket} {
		keys, err := s.store.KVDb.GetAllKey(bucket)
		if err != nil {
			if err != schema.ErrNotExist {
				log.Error("count job bucket", "err", err, "bucket", bucket)
			}
			continue
		}
		metricQueueDepth(bucket, len(keys))
	}
}
