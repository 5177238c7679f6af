// Package directory provides PublicKeyDirectory implementations. The real
// directory is an external identity/profile store; these back the CLI and
// tests.
package directory
