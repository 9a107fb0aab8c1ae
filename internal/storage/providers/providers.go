// Package providers builds the configured storage.Client.
package providers

import (
	"context"
	"fmt"

	"github.com/mrlokans/bookclub/internal/config"
	"github.com/mrlokans/bookclub/internal/storage"
	"github.com/mrlokans/bookclub/internal/storage/providers/gcs"
	"github.com/mrlokans/bookclub/internal/storage/providers/minio"
	"github.com/mrlokans/bookclub/internal/storage/providers/s3"
)

// New returns the client selected by cfg.Driver, or storage.ErrDisabled
// when storage is turned off.
func New(ctx context.Context, cfg config.Storage) (storage.Client, error) {
	switch cfg.Driver {
	case config.StorageNone, "":
		return nil, storage.ErrDisabled
	case config.StorageS3:
		c, err := s3.New(s3.Config{
			Endpoint:        cfg.Endpoint,
			Region:          cfg.Region,
			Bucket:          cfg.Bucket,
			AccessKeyID:     cfg.AccessKey,
			SecretAccessKey: cfg.SecretKey,
			UsePathStyle:    cfg.PathStyle,
			PublicURL:       cfg.PublicURL,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.StorageMinIO:
		c, err := minio.New(ctx, minio.Config{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			UseSSL:    cfg.UseSSL,
			PublicURL: cfg.PublicURL,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.StorageGCS:
		c, err := gcs.New(ctx, gcs.Config{
			Bucket:    cfg.Bucket,
			ProjectID: cfg.GCSProject,
			Endpoint:  cfg.Endpoint,
			PublicURL: cfg.PublicURL,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("%w: %s", config.ErrUnknownStorage, cfg.Driver)
	}
}
