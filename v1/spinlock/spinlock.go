package spinlock

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	qerrors "github.com/verganas/quotelock/v1/errors"
)

const (
	free int32 = iota
	held
)

// SpinLock is a non-reentrant spin lock. The zero value is an unlocked lock
// ready for use; New is only needed when options are required.
//
// The state cell holds exactly free or held and every transition is a single
// atomic compare-and-swap or swap, so no failure can leave the lock in an
// inconsistent state.
type SpinLock struct {
	state atomic.Int32

	acquisitions prometheus.Counter
	contended    prometheus.Counter
}

// Option configures a SpinLock.
type Option func(*SpinLock)

// WithMetrics enables Prometheus metrics collection using the provided
// registerer. Counters are only touched outside the inner spin loop.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(l *SpinLock) {
		l.acquisitions = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quotelock_lock_acquisitions_total",
			Help: "Total number of successful lock acquisitions",
		})
		l.contended = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quotelock_lock_contended_total",
			Help: "Total number of acquisitions that found the lock held",
		})
		reg.MustRegister(l.acquisitions, l.contended)
	}
}

// New returns an unlocked SpinLock.
func New(opts ...Option) *SpinLock {
	l := &SpinLock{}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// TryLock attempts to acquire the lock without spinning. It returns true if
// the lock was free and is now held by the caller, false otherwise. A failed
// attempt has no effect on the lock.
func (l *SpinLock) TryLock() bool {
	ok := l.state.CompareAndSwap(free, held)
	if ok && l.acquisitions != nil {
		l.acquisitions.Inc()
	}
	return ok
}

// Lock acquires the lock, spinning until it becomes available. It never
// returns without the lock and cannot be interrupted; use LockContext for a
// cancellable acquisition.
//
// The loop only issues the compare-and-swap after a plain atomic load
// observes the lock free. Failed CAS attempts invalidate the cache line on
// every core spinning on it, plain reads do not, so checking first keeps
// contended acquisition from thrashing the line.
func (l *SpinLock) Lock() {
	if l.state.Load() == free && l.state.CompareAndSwap(free, held) {
		if l.acquisitions != nil {
			l.acquisitions.Inc()
		}
		return
	}
	if l.contended != nil {
		l.contended.Inc()
	}
	for {
		if l.state.Load() == free && l.state.CompareAndSwap(free, held) {
			if l.acquisitions != nil {
				l.acquisitions.Inc()
			}
			return
		}
		runtime.Gosched()
	}
}

// LockContext acquires the lock like Lock but polls ctx once per spin
// iteration. If ctx is cancelled while still spinning, the attempt is
// abandoned and the context's error is returned without the lock being
// acquired. Cancellation is checked only before a successful compare-and-swap,
// never after, so a nil return always means the caller holds the lock.
func (l *SpinLock) LockContext(ctx context.Context) error {
	first := true
	for {
		if l.state.Load() == free && l.state.CompareAndSwap(free, held) {
			if l.acquisitions != nil {
				l.acquisitions.Inc()
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if first {
			first = false
			if l.contended != nil {
				l.contended.Inc()
			}
		}
		runtime.Gosched()
	}
}

// Unlock releases the lock. It returns qerrors.ErrNotLocked if the lock was
// already free, meaning no acquisition was pending in this cell.
//
// Unlock does not check which goroutine acquired the lock; a goroutine
// holding no prior acquisition can clear a lock held by another. This is a
// deliberate non-enforcement of ownership, not an oversight.
func (l *SpinLock) Unlock() error {
	if l.state.Swap(free) != held {
		return qerrors.ErrNotLocked
	}
	return nil
}

// TryLockTimeout is not implemented and always returns
// qerrors.ErrUnsupported, regardless of the lock's state.
func (l *SpinLock) TryLockTimeout(timeout time.Duration) (bool, error) {
	return false, qerrors.ErrUnsupported
}

// NewCondition is not implemented and always returns qerrors.ErrUnsupported,
// regardless of the lock's state.
func (l *SpinLock) NewCondition() (*sync.Cond, error) {
	return nil, qerrors.ErrUnsupported
}
