package storage

import (
	"context"
	"fmt"

	"github.com/iliyamo/croabboard/internal/dbx"
)

// Backend names accepted by Open.
const (
	BackendDisk = "disk"
	BackendBlob = "blob"
	BackendS3   = "s3"
)

// Options selects and configures a backend.
type Options struct {
	Backend string
	Dir     string
	S3      S3Config
}

// Open builds the Store named by opts.Backend. db is only used by the
// blob backend and may be nil otherwise.
func Open(ctx context.Context, opts Options, db dbx.DBTX) (Store, error) {
	switch opts.Backend {
	case "", BackendDisk:
		return NewDiskStore(opts.Dir)
	case BackendBlob:
		if db == nil {
			return nil, fmt.Errorf("storage: blob backend needs a database")
		}
		return NewBlobStore(db), nil
	case BackendS3:
		if opts.S3.Bucket == "" {
			return nil, fmt.Errorf("storage: s3 backend needs a bucket")
		}
		return NewS3Store(ctx, opts.S3)
	}
	return nil, fmt.Errorf("storage: unknown backend %q", opts.Backend)
}
