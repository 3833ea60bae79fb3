package reconcile

import (
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// BeginCreate marks a create-game request in flight and returns false when
// one already is, suppressing double submission. The flag clears on
// EndCreate or after the guard ceiling, whichever comes first, so a response
// that never arrives cannot lock the UI permanently.
func (r *Reconciler) BeginCreate() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.creating {
		return false
	}
	r.creating = true
	done := make(chan struct{})
	r.createDone = done

	timer := r.clock.NewTimer(r.createGuard)
	go func() {
		select {
		case <-timer.Chan():
			r.mu.Lock()
			if r.creating && r.createDone == done {
				r.creating = false
				r.createDone = nil
				log.Warn().Dur("ceiling", r.createGuard).Msg("create guard expired without a response")
			}
			r.mu.Unlock()
		case <-done:
			stopAndDrainTimer(timer)
		}
	}()
	return true
}

// EndCreate clears the in-flight flag after the create completed or failed.
func (r *Reconciler) EndCreate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.creating {
		return
	}
	r.creating = false
	if r.createDone != nil {
		close(r.createDone)
		r.createDone = nil
	}
}

// CreateInFlight reports whether a create-game request is pending.
func (r *Reconciler) CreateInFlight() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.creating
}

// stopAndDrainTimer stops a timer and drains its channel so the goroutine
// that owns it cannot leak a pending tick.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
