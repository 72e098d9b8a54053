// Package cache provides the read-through cache layer used by the quote
// service. SpinCache guards its map with a spin lock, which fits the
// workload: every critical section is a single map operation. RistrettoCache
// delegates to dgraph-io/ristretto for larger corpora where admission policy
// matters.
package cache
