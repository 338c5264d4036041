package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthChecks(t *testing.T) {
	checks := healthChecks{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return nil },
	}
	results, ok := checks.Run(context.Background())
	assert.True(t, ok)
	assert.Equal(t, map[string]string{"postgres": "ok", "redis": "ok"}, results)

	checks["minio"] = func(context.Context) error { return errors.New("bucket missing") }
	results, ok = checks.Run(context.Background())
	assert.False(t, ok)
	assert.Equal(t, "bucket missing", results["minio"])
	assert.Equal(t, "ok", results["redis"])
}
