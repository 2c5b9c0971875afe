package database

import (
	"context"
	"fmt"
)

// Pinger is anything the readiness probe can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingAll pings every named dependency and returns the failures keyed by name.
func PingAll(ctx context.Context, deps map[string]Pinger) map[string]error {
	failed := make(map[string]error)
	for name, p := range deps {
		if p == nil {
			failed[name] = fmt.Errorf("%s not configured", name)
			continue
		}
		if err := p.Ping(ctx); err != nil {
			failed[name] = err
		}
	}
	return failed
}
