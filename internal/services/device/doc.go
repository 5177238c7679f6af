// Package device implements the per-user device registry for multi-device
// support. Records are keyed by (user, fingerprint); a fingerprint is a
// digest of the device's key material, so at most one user may hold it
// active at a time.
package device
