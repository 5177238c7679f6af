// Package app wires stores, services, and directories into a ready-to-use
// dependency graph from explicit configuration.
package app
