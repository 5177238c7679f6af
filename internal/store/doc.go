// Package store provides the persistence backends for sessions, devices,
// and the local identity.
//
// MemStore keeps everything in memory behind a mutex and backs tests and
// embedders that bring their own durability. PostgresStore maps the same
// contracts onto postgres, using conditional updates and unique indexes for
// the compare-and-swap semantics the session state machine needs.
// IdentityFileStore keeps the local identity on disk with the private halves
// password-wrapped.
package store
