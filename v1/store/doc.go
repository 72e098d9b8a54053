// Package store abstracts the backing storage the quote service is populated
// from at startup. An in-memory implementation is provided for tests and
// single-process use, and a Redis implementation for sharing a quote corpus
// between processes. The service reads the store exactly once, at
// construction; the store is never consulted on the lookup path.
package store
