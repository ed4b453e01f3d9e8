package ftpwire

import "context"

// reservation is the mutual-exclusion gate for the data channel. It
// guarantees that at most one passive-mode negotiation/transfer is in
// flight at a time: Passv acquires it, the transfer worker releases it.
//
// The gate is a capacity-1 semaphore. A buffered channel rather than a
// mutex+condvar keeps the blocking acquire interruptible by context
// cancellation without extra bookkeeping.
type reservation struct {
	sem chan struct{}
}

func newReservation() *reservation {
	return &reservation{sem: make(chan struct{}, 1)}
}

// acquire blocks until the reservation is free, then marks it held.
// Cancellation of ctx unblocks the wait and returns the context error;
// the reservation state is left untouched in that case.
func (r *reservation) acquire(ctx context.Context) error {
	select {
	case r.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// release marks the reservation free, waking a blocked acquirer.
// Releasing a free reservation is a no-op; callers must not rely on
// this and should pair every release with a prior acquire.
func (r *reservation) release() {
	select {
	case <-r.sem:
	default:
	}
}

// held reports whether the reservation is currently taken.
func (r *reservation) held() bool {
	return len(r.sem) == 1
}
