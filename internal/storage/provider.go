// Package storage defines the data-directory file abstraction.
package storage

// Provider is the interface for diary file operations.
type Provider interface {
	// Read returns the raw bytes of the file at name (relative to the data root).
	Read(name string) ([]byte, error)
	// Write atomically writes content to name (relative to the data root).
	Write(name string, content []byte) error
	// Delete removes the file at name (relative to the data root).
	Delete(name string) error
	// Exists reports whether a file is present at name.
	Exists(name string) bool
}
