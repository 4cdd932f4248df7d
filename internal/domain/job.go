package domain

// JobState enumerates the lifecycle of a remote video job.
type JobState int

const (
	JobPending JobState = iota
	JobDone
	JobFailed
)

func (s JobState) String() string {
	switch s {
	case JobPending:
		return "pending"
	case JobDone:
		return "done"
	case JobFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// VideoJob is a submitted long-running video generation. A pending job has
// neither a locator nor an error, a done job has only a locator and a failed
// job has only an error. The fields are unexported so those combinations are
// the only ones that can be built.
type VideoJob struct {
	handle  string
	state   JobState
	locator string
	reason  string
}

// PendingJob returns a job that has been accepted but not finished.
func PendingJob(handle string) VideoJob {
	return VideoJob{handle: handle, state: JobPending}
}

// DoneJob returns a finished job whose asset can be fetched from locator.
func DoneJob(handle, locator string) VideoJob {
	return VideoJob{handle: handle, state: JobDone, locator: locator}
}

// FailedJob returns a finished job that reported an error.
func FailedJob(handle, reason string) VideoJob {
	return VideoJob{handle: handle, state: JobFailed, reason: reason}
}

func (j VideoJob) Handle() string  { return j.handle }
func (j VideoJob) State() JobState { return j.state }

// Locator returns the result reference of a done job.
func (j VideoJob) Locator() (string, bool) {
	return j.locator, j.state == JobDone
}

// Reason returns the error message of a failed job.
func (j VideoJob) Reason() (string, bool) {
	return j.reason, j.state == JobFailed
}
