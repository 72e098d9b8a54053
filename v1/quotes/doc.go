// Package quotes provides lookup over a fixed in-memory sequence of quotes.
// The sequence is populated exactly once, at construction, either from a
// literal slice or from a store; lookups never touch the backing store.
// Quote ids are 1-based positions in the sequence.
package quotes
