package storage

import (
	"context"
	"errors"

	"github.com/jakestrouse00/mongodriver/internal/config"
)

var ErrNoSink = errors.New("storage: no snapshot sink configured")

// FromConfig picks MinIO when an endpoint is configured, else the local
// directory.
func FromConfig(ctx context.Context, cfg config.SnapshotConfig) (Sink, error) {
	if cfg.MinIOEndpoint != "" {
		s, err := NewMinIOStorage(ctx, &MinIOConfig{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccess,
			SecretKey: cfg.MinIOSecret,
			UseSSL:    cfg.MinIOUseSSL,
			Bucket:    cfg.MinIOBucket,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	if cfg.Dir != "" {
		s, err := NewDirStorage(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, ErrNoSink
}
