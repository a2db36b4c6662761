package blob

import (
	"context"
	"fmt"
	"strings"

	"whatdose/internal/infra/blob/fs"
	"whatdose/internal/infra/blob/memory"
	"whatdose/internal/infra/blob/s3"
)

// Config selects and configures the archive backend.
type Config struct {
	Driver Driver
	FSRoot string
	S3     s3.Config
}

// Open returns the configured store. DriverNone (or an empty driver) yields a
// nil store, which callers treat as archiving disabled.
func Open(ctx context.Context, cfg Config) (Store, error) {
	driver := Driver(strings.ToLower(strings.TrimSpace(string(cfg.Driver))))
	switch driver {
	case "", DriverNone:
		return nil, nil
	case DriverFilesystem:
		return fs.New(cfg.FSRoot)
	case DriverS3:
		return s3.New(ctx, cfg.S3)
	case DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.Driver)
	}
}
