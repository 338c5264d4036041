package main

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

// healthChecks pings each backing service by name.
type healthChecks map[string]func(ctx context.Context) error

// Run pings every dependency concurrently and reports each outcome.
func (h healthChecks) Run(ctx context.Context) (map[string]string, bool) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var (
		mu      sync.Mutex
		results = make(map[string]string, len(h))
		healthy = true
	)
	g, gctx := errgroup.WithContext(ctx)
	for name, ping := range h {
		g.Go(func() error {
			err := ping(gctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				results[name] = err.Error()
				healthy = false
				return nil
			}
			results[name] = "ok"
			return nil
		})
	}
	_ = g.Wait()
	return results, healthy
}

func (h healthChecks) Handler(c *gin.Context) {
	results, healthy := h.Run(c.Request.Context())
	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"success": healthy, "data": results})
}
