// Package commands implements the chatcrypt CLI: local identity management,
// contact bookkeeping, and sealing/opening message envelopes.
package commands
