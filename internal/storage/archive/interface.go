// internal/storage/archive/interface.go
package archive

import "context"

// Storage is the backend behind the published data tree. Both the
// publisher and the API read through it, so localfs and S3 deployments
// serve the same layout.
type Storage interface {
	// Write stores data at the given path
	Write(ctx context.Context, path string, data []byte) error

	// Read retrieves data from the given path
	Read(ctx context.Context, path string) ([]byte, error)

	// List returns all paths matching the prefix
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the data at the given path
	Delete(ctx context.Context, path string) error

	// Exists checks if data exists at the given path
	Exists(ctx context.Context, path string) (bool, error)
}

// Config selects and configures a backend.
type Config struct {
	Type string // "localfs" or "s3"
	Path string
	S3   S3Config
}

// New builds the configured backend, defaulting to localfs.
func New(cfg Config) (Storage, error) {
	if cfg.Type == "s3" {
		return NewS3(cfg.S3)
	}
	path := cfg.Path
	if path == "" {
		path = "data"
	}
	return NewLocalFS(path)
}
