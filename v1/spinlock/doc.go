// Package spinlock provides a non-reentrant mutual-exclusion lock that
// busy-waits on an atomic compare-and-swap instead of parking the caller in
// the kernel. It is intended for critical sections held for a very short
// time, where the cost of blocking outweighs the cost of spinning.
//
// The lock records whether it is held, never by whom. Unlock only validates
// that the lock was held, so a goroutine that never acquired the lock can
// still release it while another goroutine holds it. Callers are responsible
// for pairing every Lock with exactly one Unlock.
//
// There is no fairness among waiters: whichever goroutine's compare-and-swap
// lands first wins, and a waiter can starve indefinitely under adversarial
// scheduling. A goroutine that re-acquires a lock it already holds deadlocks.
package spinlock
