// Package memory provides in-process adapters for the rillweb ports.
package memory
