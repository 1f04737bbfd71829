// package store holds session-scoped, in-memory copies of server-owned collections.
//
// Writes go through the store: optimistic mutations are applied locally first and compensated when the server
// rejects them; everything else is reconciled by reloading. A store's lock guards only local reads and writes and
// is never held across a network call, so operations may complete in any order. The most recently completed
// Load wins.
package store
