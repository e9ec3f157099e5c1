package scan

import (
	"math"
	"sync"
	"sync/atomic"
)

// Job tracks one scan invocation from creation to eviction. The worker pool
// mutates the completed counter and record list concurrently; everything else
// is read-only after creation.
type Job struct {
	id    string
	total int

	completed atomic.Int64
	finished  atomic.Bool

	mu      sync.Mutex
	records []DeviceRecord
}

func newJob(id string, total int) *Job {
	return &Job{id: id, total: total, records: make([]DeviceRecord, 0, total)}
}

// ID returns the opaque job identifier.
func (j *Job) ID() string { return j.id }

// Total returns the number of addresses the job probes.
func (j *Job) Total() int { return j.total }

// Completed returns how many probes have finished so far.
func (j *Job) Completed() int { return int(j.completed.Load()) }

// Finished reports whether the job has terminated.
func (j *Job) Finished() bool { return j.finished.Load() }

// record stores one probe outcome and bumps the completed counter. Results
// land in completion order.
func (j *Job) record(rec DeviceRecord) {
	j.mu.Lock()
	j.records = append(j.records, rec)
	j.mu.Unlock()
	j.completed.Add(1)
}

// finish marks the job done. Only the first call wins.
func (j *Job) finish() bool {
	return j.finished.CompareAndSwap(false, true)
}

// Percent reports completion as a whole percentage clamped to [0,100]. A
// zero-target job is complete by definition.
func (j *Job) Percent() int {
	if j.total == 0 {
		return 100
	}
	p := int(math.Round(100 * float64(j.completed.Load()) / float64(j.total)))
	return clamp(p, 0, 100)
}

// Progress snapshots the job state for a caller. The record slice is copied
// so pollers never observe an in-flight append. The finished flag and percent
// are read before the copy: finish happens after the last record lands, so a
// snapshot that says finished carries every record.
func (j *Job) Progress() JobProgress {
	finished := j.Finished()
	percent := j.Percent()

	j.mu.Lock()
	records := make([]DeviceRecord, len(j.records))
	copy(records, j.records)
	j.mu.Unlock()

	return JobProgress{Percent: percent, Finished: finished, Records: records}
}
