package storefront

import "context"

const SweepJobName = "cart-session-sweep"

type sweepCounter interface {
	AddSwept(n int)
}

// SweepJob drops idle cart sessions on each housekeeping cycle.
type SweepJob struct {
	sessions *Sessions
	counter  sweepCounter
}

// NewSweepJob builds the sweep; counter may be nil.
func NewSweepJob(sessions *Sessions, counter sweepCounter) *SweepJob {
	return &SweepJob{sessions: sessions, counter: counter}
}

func (j *SweepJob) Name() string { return SweepJobName }

func (j *SweepJob) Run(ctx context.Context) error {
	removed := j.sessions.Sweep(ctx)
	if j.counter != nil {
		j.counter.AddSwept(removed)
	}
	return nil
}
