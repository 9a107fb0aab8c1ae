package minio

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_Validation(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "missing endpoint", cfg: Config{AccessKey: "a", SecretKey: "b", Bucket: "c"}},
		{name: "missing credentials", cfg: Config{Endpoint: "localhost:9000", Bucket: "c"}},
		{name: "missing bucket", cfg: Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(ctx, tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestPublicBase(t *testing.T) {
	assert.Equal(t, "http://localhost:9000/covers", publicBase(Config{Endpoint: "localhost:9000", Bucket: "covers"}))
	assert.Equal(t, "https://s3.test/covers", publicBase(Config{Endpoint: "s3.test", Bucket: "covers", UseSSL: true}))
	assert.Equal(t, "https://cdn.test", publicBase(Config{PublicURL: "https://cdn.test"}))
}
