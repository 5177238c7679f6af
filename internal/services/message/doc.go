// Package message glues the public key directory to the envelope protocol:
// it resolves peers' published keys and seals or opens messages with them.
package message
