package spinlock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"golang.org/x/sync/errgroup"

	qerrors "github.com/verganas/quotelock/v1/errors"
)

func TestTryLockAcquireRelease(t *testing.T) {
	var l SpinLock
	if !l.TryLock() {
		t.Fatal("TryLock on a free lock should succeed")
	}
	if l.TryLock() {
		t.Fatal("TryLock on a held lock should fail")
	}
	if err := l.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if !l.TryLock() {
		t.Fatal("TryLock after release should succeed")
	}
	if err := l.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
}

func TestTryLockContendedByOtherGoroutine(t *testing.T) {
	var l SpinLock
	if !l.TryLock() {
		t.Fatal("TryLock: expected acquisition")
	}

	got := make(chan bool, 1)
	go func() { got <- l.TryLock() }()
	if ok := <-got; ok {
		t.Fatal("TryLock from second goroutine should fail while held")
	}

	if err := l.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	go func() { got <- l.TryLock() }()
	if ok := <-got; !ok {
		t.Fatal("TryLock from second goroutine should succeed after release")
	}
}

func TestUnlockNotLocked(t *testing.T) {
	var l SpinLock
	if err := l.Unlock(); !errors.Is(err, qerrors.ErrNotLocked) {
		t.Fatalf("expected ErrNotLocked, got %v", err)
	}
}

func TestSequentialLockUnlock(t *testing.T) {
	var l SpinLock
	for i := 0; i < 4; i++ {
		l.Lock()
		if err := l.Unlock(); err != nil {
			t.Fatalf("cycle %d: %v", i, err)
		}
	}
}

func TestLockBlocksUntilReleased(t *testing.T) {
	var l SpinLock
	l.Lock()

	acquired := make(chan struct{})
	go func() {
		l.Lock()
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("Lock should not succeed while held")
	case <-time.After(20 * time.Millisecond):
	}

	if err := l.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("Lock did not acquire after release")
	}
	if err := l.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
}

func TestLockContextCancelledWhileHeld(t *testing.T) {
	var l SpinLock
	l.Lock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.LockContext(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	// The failed attempt must not have touched the lock: the original
	// holder still owns it and release still works exactly once.
	if l.TryLock() {
		t.Fatal("lock should still be held by the original owner")
	}
	if err := l.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if err := l.Unlock(); !errors.Is(err, qerrors.ErrNotLocked) {
		t.Fatalf("expected ErrNotLocked on second Unlock, got %v", err)
	}
}

func TestLockContextDeadline(t *testing.T) {
	var l SpinLock
	l.Lock()
	defer l.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	start := time.Now()
	err := l.LockContext(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
	if time.Since(start) > 200*time.Millisecond {
		t.Fatal("LockContext did not respect the deadline")
	}
}

func TestLockContextAcquiresFreeLock(t *testing.T) {
	var l SpinLock
	if err := l.LockContext(context.Background()); err != nil {
		t.Fatalf("LockContext: %v", err)
	}
	if err := l.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
}

func TestUnsupportedOperations(t *testing.T) {
	var l SpinLock
	check := func() {
		t.Helper()
		if ok, err := l.TryLockTimeout(time.Second); ok || !errors.Is(err, qerrors.ErrUnsupported) {
			t.Fatalf("TryLockTimeout: expected ErrUnsupported, got ok %v err %v", ok, err)
		}
		if c, err := l.NewCondition(); c != nil || !errors.Is(err, qerrors.ErrUnsupported) {
			t.Fatalf("NewCondition: expected ErrUnsupported, got %v err %v", c, err)
		}
	}
	check() // free
	l.Lock()
	check() // held
	if err := l.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
}

func TestMutualExclusionStress(t *testing.T) {
	const (
		goroutines = 64
		iterations = 10000
	)
	var l SpinLock
	var counter int
	inside := make(chan struct{}, 1)

	var g errgroup.Group
	for i := 0; i < goroutines; i++ {
		g.Go(func() error {
			for j := 0; j < iterations; j++ {
				l.Lock()
				select {
				case inside <- struct{}{}:
				default:
					return errors.New("two goroutines inside the critical section")
				}
				counter++
				<-inside
				if err := l.Unlock(); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	if counter != goroutines*iterations {
		t.Fatalf("lost updates: counter = %d, want %d", counter, goroutines*iterations)
	}
}

func TestMutualExclusionStressInterruptible(t *testing.T) {
	const (
		goroutines = 16
		iterations = 1000
	)
	var l SpinLock
	var counter int
	ctx := context.Background()

	var g errgroup.Group
	for i := 0; i < goroutines; i++ {
		g.Go(func() error {
			for j := 0; j < iterations; j++ {
				if err := l.LockContext(ctx); err != nil {
					return err
				}
				counter++
				if err := l.Unlock(); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	if counter != goroutines*iterations {
		t.Fatalf("lost updates: counter = %d, want %d", counter, goroutines*iterations)
	}
}

func TestReleaseByOtherGoroutine(t *testing.T) {
	// Unlock performs no ownership check: a goroutine that never acquired
	// the lock can clear it while another holds it.
	var l SpinLock
	l.Lock()

	errCh := make(chan error, 1)
	go func() { errCh <- l.Unlock() }()
	if err := <-errCh; err != nil {
		t.Fatalf("Unlock from another goroutine: %v", err)
	}
	if !l.TryLock() {
		t.Fatal("lock should be free after foreign release")
	}
	if err := l.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
}

func TestWithMetricsCountsAcquisitions(t *testing.T) {
	reg := prometheus.NewRegistry()
	l := New(WithMetrics(reg))

	l.Lock()
	if l.TryLock() {
		t.Fatal("TryLock should fail while held")
	}
	if err := l.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if !l.TryLock() {
		t.Fatal("TryLock should succeed when free")
	}
	if err := l.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}

	if got := testutil.ToFloat64(l.acquisitions); got != 2 {
		t.Fatalf("acquisitions = %v, want 2", got)
	}
}

func BenchmarkLockUnlock(b *testing.B) {
	var l SpinLock
	for i := 0; i < b.N; i++ {
		l.Lock()
		_ = l.Unlock()
	}
}

func BenchmarkLockUnlockParallel(b *testing.B) {
	var l SpinLock
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			l.Lock()
			_ = l.Unlock()
		}
	})
}
