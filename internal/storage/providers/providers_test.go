package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookclub/internal/config"
	"github.com/mrlokans/bookclub/internal/storage"
	"github.com/mrlokans/bookclub/internal/storage/providers/s3"
)

func TestNew(t *testing.T) {
	ctx := context.Background()

	_, err := New(ctx, config.Storage{Driver: config.StorageNone})
	assert.ErrorIs(t, err, storage.ErrDisabled)

	_, err = New(ctx, config.Storage{Driver: "ftp"})
	assert.ErrorIs(t, err, config.ErrUnknownStorage)

	client, err := New(ctx, config.Storage{
		Driver:    config.StorageS3,
		Bucket:    "covers",
		Region:    "us-east-1",
		AccessKey: "key",
		SecretKey: "secret",
	})
	require.NoError(t, err)
	assert.IsType(t, &s3.Client{}, client)
}
